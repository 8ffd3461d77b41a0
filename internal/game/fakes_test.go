package game_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/playperu/speedgame/internal/game"
	"github.com/playperu/speedgame/internal/party"
	"github.com/playperu/speedgame/internal/speedgame"
)

const testTick = 5 * time.Millisecond

var errBroken = errors.New("disk on fire")

// memStore implements every store port in memory.
type memStore struct {
	mu        sync.Mutex
	parties   map[uuid.UUID]*speedgame.PartyRecord
	questions []speedgame.QcmQuestion
	themes    []speedgame.Theme

	themeCalls int
	fail       error

	// When set, AllThemes signals themesStarted and waits on themesRelease.
	themesStarted chan struct{}
	themesRelease chan struct{}
}

func newMemStore(themes ...string) *memStore {
	s := &memStore{parties: make(map[uuid.UUID]*speedgame.PartyRecord)}
	for _, name := range themes {
		s.themes = append(s.themes, speedgame.Theme{ID: uuid.New(), Name: name})
	}
	return s
}

func (s *memStore) CreateParty(_ context.Context, name string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return uuid.Nil, s.fail
	}
	id := uuid.New()
	s.parties[id] = &speedgame.PartyRecord{ID: id, Name: name}
	return id, nil
}

func (s *memStore) GetParty(_ context.Context, id uuid.UUID) (*speedgame.PartyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	rec, ok := s.parties[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	cp.Teams = append([]speedgame.TeamRecord(nil), rec.Teams...)
	return &cp, nil
}

func (s *memStore) ListParties(context.Context) ([]speedgame.PartyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	var out []speedgame.PartyRecord
	for _, rec := range s.parties {
		out = append(out, *rec)
	}
	return out, nil
}

func (s *memStore) DeleteParty(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	delete(s.parties, id)
	return nil
}

func (s *memStore) UpdateTeamScore(_ context.Context, teamID uuid.UUID, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	for _, rec := range s.parties {
		for i := range rec.Teams {
			if rec.Teams[i].ID == teamID {
				rec.Teams[i].Score = score
			}
		}
	}
	return nil
}

func (s *memStore) CreateTeam(_ context.Context, partyID uuid.UUID, name string) (*speedgame.TeamRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	rec, ok := s.parties[partyID]
	if !ok {
		return nil, nil
	}
	t := speedgame.TeamRecord{ID: uuid.New(), PartyID: partyID, Name: name}
	rec.Teams = append(rec.Teams, t)
	return &t, nil
}

func (s *memStore) DeleteTeam(_ context.Context, partyID, teamID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return false, s.fail
	}
	rec, ok := s.parties[partyID]
	if !ok {
		return false, nil
	}
	n := len(rec.Teams)
	rec.Teams = slices.DeleteFunc(rec.Teams, func(t speedgame.TeamRecord) bool { return t.ID == teamID })
	return len(rec.Teams) < n, nil
}

func (s *memStore) RandomQuestion(context.Context) (speedgame.QcmQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return speedgame.QcmQuestion{}, s.fail
	}
	if len(s.questions) == 0 {
		return speedgame.QcmQuestion{}, errors.New("no questions")
	}
	return s.questions[0], nil
}

func (s *memStore) InsertQuestions(_ context.Context, qs []speedgame.QcmQuestion) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return 0, s.fail
	}
	s.questions = append(s.questions, qs...)
	return len(qs), nil
}

func (s *memStore) AllThemes(ctx context.Context) ([]speedgame.Theme, error) {
	s.mu.Lock()
	s.themeCalls++
	started, release := s.themesStarted, s.themesRelease
	s.mu.Unlock()
	if release != nil {
		started <- struct{}{}
		<-release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	return append([]speedgame.Theme(nil), s.themes...), nil
}

func (s *memStore) setFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

type testEnv struct {
	svc   *game.Service
	store *memStore
	repo  *party.Repository
	reg   *prometheus.Registry

	mu     sync.Mutex
	events []party.Event
}

func newTestEnv(t *testing.T, themes ...string) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := party.NewPublisher(logger)
	repo := party.NewRepository(pub, party.WithShards(4), party.WithPartyOptions(party.WithTickInterval(testTick)))
	t.Cleanup(repo.RemoveAll)

	reg := prometheus.NewRegistry()
	store := newMemStore(themes...)
	env := &testEnv{store: store, repo: repo, reg: reg}
	env.svc = game.NewService(logger, noop.NewTracerProvider().Tracer("test"), game.NewMetrics(reg, repo), repo, pub, game.Stores{
		Parties:   store,
		Questions: store,
		Themes:    store,
	})
	env.svc.Subscribe(func(e party.Event) {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.events = append(env.events, e)
	})
	return env
}

// kinds returns the kinds of events seen so far, dropping timer ticks.
func (e *testEnv) kinds() []party.EventKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []party.EventKind
	for _, ev := range e.events {
		if ev.Kind != party.EventTimerTick {
			out = append(out, ev.Kind)
		}
	}
	return out
}

func (e *testEnv) clearEvents() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = nil
}

func (e *testEnv) count(kind party.EventKind) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// newParty creates a live party with the named teams and returns the party
// id and team ids in order.
func (e *testEnv) newParty(t *testing.T, name string, teams ...string) (uuid.UUID, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	id, err := e.svc.CreateParty(ctx, name)
	if err != nil {
		t.Fatalf("create party: %v", err)
	}
	var ids []uuid.UUID
	for _, tn := range teams {
		tid, err := e.svc.CreateTeam(ctx, id, tn)
		if err != nil {
			t.Fatalf("create team %q: %v", tn, err)
		}
		ids = append(ids, tid)
	}
	e.clearEvents()
	return id, ids
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}
