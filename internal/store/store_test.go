package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/playperu/speedgame/internal/database"
	"github.com/playperu/speedgame/internal/migrations"
	"github.com/playperu/speedgame/internal/speedgame"
	"github.com/playperu/speedgame/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return store.New(db)
}

func TestPartyLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateParty(ctx, "Quiz Night")
	if err != nil {
		t.Fatalf("create party: %v", err)
	}
	a, err := s.CreateTeam(ctx, id, "Alpha")
	if err != nil || a == nil {
		t.Fatalf("create team = (%v, %v)", a, err)
	}
	b, err := s.CreateTeam(ctx, id, "Bravo")
	if err != nil || b == nil {
		t.Fatalf("create team = (%v, %v)", b, err)
	}
	if err := s.UpdateTeamScore(ctx, b.ID, 12); err != nil {
		t.Fatalf("update score: %v", err)
	}

	got, err := s.GetParty(ctx, id)
	if err != nil {
		t.Fatalf("get party: %v", err)
	}
	want := &speedgame.PartyRecord{
		ID:   id,
		Name: "Quiz Night",
		Teams: []speedgame.TeamRecord{
			{ID: a.ID, PartyID: id, Name: "Alpha"},
			{ID: b.ID, PartyID: id, Name: "Bravo", Score: 12},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("party mismatch (-want +got):\n%s", diff)
	}

	if ok, err := s.DeleteTeam(ctx, id, a.ID); err != nil || !ok {
		t.Fatalf("delete team = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, err := s.DeleteTeam(ctx, id, a.ID); err != nil || ok {
		t.Fatalf("delete team twice = (%v, %v), want (false, nil)", ok, err)
	}
	got, _ = s.GetParty(ctx, id)
	if len(got.Teams) != 1 || got.Teams[0].ID != b.ID {
		t.Errorf("teams after delete = %+v, want only Bravo", got.Teams)
	}

	if err := s.DeleteParty(ctx, id); err != nil {
		t.Fatalf("delete party: %v", err)
	}
	got, err = s.GetParty(ctx, id)
	if err != nil || got != nil {
		t.Errorf("get deleted party = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestCreateTeamUnknownParty(t *testing.T) {
	s := newTestStore(t)

	team, err := s.CreateTeam(context.Background(), uuid.New(), "Ghosts")
	if err != nil || team != nil {
		t.Errorf("create team = (%v, %v), want (nil, nil)", team, err)
	}
}

func TestListParties(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, _ := s.CreateParty(ctx, "First")
	second, _ := s.CreateParty(ctx, "Second")
	if _, err := s.CreateTeam(ctx, second, "Only"); err != nil {
		t.Fatalf("create team: %v", err)
	}

	got, err := s.ListParties(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("parties = %d, want 2", len(got))
	}
	if got[0].ID != first || len(got[0].Teams) != 0 {
		t.Errorf("first = %+v, want %v with no teams", got[0], first)
	}
	if got[1].ID != second || len(got[1].Teams) != 1 || got[1].Teams[0].Name != "Only" {
		t.Errorf("second = %+v, want %v with team Only", got[1], second)
	}
}

func TestQuestionBank(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.RandomQuestion(ctx); !errors.Is(err, store.ErrEmptyQuestionBank) {
		t.Fatalf("empty bank: err = %v, want ErrEmptyQuestionBank", err)
	}

	qs := []speedgame.QcmQuestion{
		{
			Difficulty: speedgame.DifficultyHard,
			Theme:      speedgame.QcmTheme{Name: "Science"},
			Question:   "Symbole du fer ?",
			Options:    [4]string{"Fe", "Ir", "F", "Fr"},
			Response:   "Fe",
		},
		{
			Difficulty: speedgame.DifficultyEasy,
			Theme:      speedgame.QcmTheme{Name: "Science"},
			Question:   "H2O ?",
			Options:    [4]string{"Eau", "Sel", "Air", "Feu"},
			Response:   "Eau",
		},
	}
	n, err := s.InsertQuestions(ctx, qs)
	if err != nil || n != 2 {
		t.Fatalf("insert = (%d, %v), want (2, nil)", n, err)
	}
	n, err = s.InsertQuestions(ctx, qs[:1])
	if err != nil || n != 0 {
		t.Errorf("insert duplicate = (%d, %v), want (0, nil)", n, err)
	}
	if count, _ := s.CountQuestions(ctx); count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	seen := make(map[string]bool)
	for range 50 {
		q, err := s.RandomQuestion(ctx)
		if err != nil {
			t.Fatalf("random: %v", err)
		}
		if q.Theme.Name != "Science" || q.Theme.ID == uuid.Nil {
			t.Errorf("theme = %+v, want Science with an id", q.Theme)
		}
		seen[q.Question] = true
	}
	if len(seen) != 2 {
		t.Errorf("drew %d distinct questions in 50 draws, want 2", len(seen))
	}
}

func TestSeedThemes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.SeedThemes(ctx, []string{"Sport", "Cinema", "Sport"})
	if err != nil || n != 2 {
		t.Fatalf("seed = (%d, %v), want (2, nil)", n, err)
	}
	n, err = s.SeedThemes(ctx, []string{"Musique"})
	if err != nil || n != 0 {
		t.Errorf("second seed = (%d, %v), want (0, nil)", n, err)
	}

	themes, err := s.AllThemes(ctx)
	if err != nil {
		t.Fatalf("all themes: %v", err)
	}
	var names []string
	for _, th := range themes {
		names = append(names, th.Name)
	}
	if diff := cmp.Diff([]string{"Cinema", "Sport"}, names); diff != "" {
		t.Errorf("themes mismatch (-want +got):\n%s", diff)
	}
}
