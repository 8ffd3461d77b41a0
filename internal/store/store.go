// Package store persists parties, teams, the theme catalog and the question
// bank in SQLite through libSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/playperu/speedgame/internal/speedgame"
)

var ErrEmptyQuestionBank = errors.New("question bank is empty")

type SQLiteStore struct {
	db *sql.DB
}

func New(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) CreateParty(ctx context.Context, name string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `INSERT INTO parties (id, name) VALUES (?, ?)`, id, name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting party: %w", err)
	}
	return id, nil
}

// GetParty returns nil when no party has the given id.
func (s *SQLiteStore) GetParty(ctx context.Context, id uuid.UUID) (*speedgame.PartyRecord, error) {
	rec := speedgame.PartyRecord{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT name FROM parties WHERE id = ?`, id).Scan(&rec.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying party: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, party_id, name, score FROM teams
		WHERE party_id = ?
		ORDER BY created_at, rowid
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t speedgame.TeamRecord
		if err := rows.Scan(&t.ID, &t.PartyID, &t.Name, &t.Score); err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		rec.Teams = append(rec.Teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating teams: %w", err)
	}
	return &rec, nil
}

// ListParties returns every stored party with its teams, oldest first.
func (s *SQLiteStore) ListParties(ctx context.Context) ([]speedgame.PartyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, t.id, t.name, t.score
		FROM parties p
		LEFT JOIN teams t ON t.party_id = p.id
		ORDER BY p.created_at, p.rowid, t.created_at, t.rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying parties: %w", err)
	}
	defer rows.Close()

	var (
		out   []speedgame.PartyRecord
		index = make(map[uuid.UUID]int)
	)
	for rows.Next() {
		var (
			partyID   uuid.UUID
			partyName string
			teamID    uuid.NullUUID
			teamName  sql.NullString
			score     sql.NullInt64
		)
		if err := rows.Scan(&partyID, &partyName, &teamID, &teamName, &score); err != nil {
			return nil, fmt.Errorf("scanning party: %w", err)
		}
		i, ok := index[partyID]
		if !ok {
			i = len(out)
			index[partyID] = i
			out = append(out, speedgame.PartyRecord{ID: partyID, Name: partyName})
		}
		if teamID.Valid {
			out[i].Teams = append(out[i].Teams, speedgame.TeamRecord{
				ID:      teamID.UUID,
				PartyID: partyID,
				Name:    teamName.String,
				Score:   int(score.Int64),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating parties: %w", err)
	}
	return out, nil
}

// DeleteParty removes a party and its teams. Deleting an unknown party is
// not an error.
func (s *SQLiteStore) DeleteParty(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM teams WHERE party_id = ?`, id); err != nil {
		return fmt.Errorf("deleting teams: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM parties WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting party: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) UpdateTeamScore(ctx context.Context, teamID uuid.UUID, score int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE teams SET score = ? WHERE id = ?`, score, teamID)
	if err != nil {
		return fmt.Errorf("updating score: %w", err)
	}
	return nil
}

// CreateTeam returns nil when the party does not exist.
func (s *SQLiteStore) CreateTeam(ctx context.Context, partyID uuid.UUID, name string) (*speedgame.TeamRecord, error) {
	t := speedgame.TeamRecord{ID: uuid.New(), PartyID: partyID, Name: name}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO teams (id, party_id, name)
		SELECT ?, id, ? FROM parties WHERE id = ?
	`, t.ID, name, partyID)
	if err != nil {
		return nil, fmt.Errorf("inserting team: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("inserting team: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return &t, nil
}

// DeleteTeam reports false when the party has no such team.
func (s *SQLiteStore) DeleteTeam(ctx context.Context, partyID, teamID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ? AND party_id = ?`, teamID, partyID)
	if err != nil {
		return false, fmt.Errorf("deleting team: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting team: %w", err)
	}
	return n > 0, nil
}
