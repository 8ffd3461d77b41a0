package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/playperu/speedgame/internal/speedgame"
)

// RandomQuestion draws one question uniformly from the bank.
func (s *SQLiteStore) RandomQuestion(ctx context.Context) (speedgame.QcmQuestion, error) {
	var q speedgame.QcmQuestion
	err := s.db.QueryRowContext(ctx, `
		SELECT q.id, q.difficulty, q.question, q.option1, q.option2, q.option3, q.option4, q.response,
		       t.id, t.name
		FROM qcm_questions q
		JOIN qcm_themes t ON t.id = q.theme_id
		ORDER BY random()
		LIMIT 1
	`).Scan(&q.ID, &q.Difficulty, &q.Question,
		&q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3], &q.Response,
		&q.Theme.ID, &q.Theme.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return q, ErrEmptyQuestionBank
	}
	if err != nil {
		return q, fmt.Errorf("drawing question: %w", err)
	}
	return q, nil
}

// InsertQuestions adds questions whose text is not in the bank yet and
// creates their themes on the way. It returns how many questions were
// added.
func (s *SQLiteStore) InsertQuestions(ctx context.Context, questions []speedgame.QcmQuestion) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	themes := make(map[string]uuid.UUID)
	inserted := 0
	for _, q := range questions {
		themeID, ok := themes[q.Theme.Name]
		if !ok {
			themeID, err = upsertQcmTheme(ctx, tx, q.Theme.Name)
			if err != nil {
				return 0, err
			}
			themes[q.Theme.Name] = themeID
		}

		id := q.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO qcm_questions (id, theme_id, difficulty, question, option1, option2, option3, option4, response)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (question) DO NOTHING
		`, id, themeID, int(q.Difficulty), q.Question,
			q.Options[0], q.Options[1], q.Options[2], q.Options[3], q.Response)
		if err != nil {
			return 0, fmt.Errorf("inserting question: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("inserting question: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing questions: %w", err)
	}
	return inserted, nil
}

func upsertQcmTheme(ctx context.Context, tx *sql.Tx, name string) (uuid.UUID, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO qcm_themes (id, name) VALUES (?, ?)
		ON CONFLICT (name) DO NOTHING
	`, uuid.New(), name); err != nil {
		return uuid.Nil, fmt.Errorf("inserting theme %q: %w", name, err)
	}
	var id uuid.UUID
	if err := tx.QueryRowContext(ctx, `SELECT id FROM qcm_themes WHERE name = ?`, name).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("querying theme %q: %w", name, err)
	}
	return id, nil
}

func (s *SQLiteStore) CountQuestions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM qcm_questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting questions: %w", err)
	}
	return n, nil
}

// AllThemes returns the party theme catalog ordered by name.
func (s *SQLiteStore) AllThemes(ctx context.Context) ([]speedgame.Theme, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM themes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying themes: %w", err)
	}
	defer rows.Close()

	var out []speedgame.Theme
	for rows.Next() {
		var th speedgame.Theme
		if err := rows.Scan(&th.ID, &th.Name); err != nil {
			return nil, fmt.Errorf("scanning theme: %w", err)
		}
		out = append(out, th)
	}
	return out, rows.Err()
}

// SeedThemes fills the theme catalog when it is empty and returns how many
// themes were added.
func (s *SQLiteStore) SeedThemes(ctx context.Context, names []string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM themes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting themes: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, name := range names {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO themes (id, name) VALUES (?, ?)
			ON CONFLICT (name) DO NOTHING
		`, uuid.New(), name)
		if err != nil {
			return 0, fmt.Errorf("inserting theme %q: %w", name, err)
		}
		n, _ := res.RowsAffected()
		added += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing themes: %w", err)
	}
	return added, nil
}
