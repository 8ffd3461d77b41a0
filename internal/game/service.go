// Package game orchestrates live parties: gameplay actions, theme decks and
// the calls to the persistent store and question bank.
package game

import (
	"cmp"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/playperu/speedgame/internal/party"
	"github.com/playperu/speedgame/internal/seed"
	"github.com/playperu/speedgame/internal/speedgame"
)

type Stores struct {
	Parties   PartyStore
	Questions QuestionBank
	Themes    ThemeCatalog
}

// Service is the entry point used by the transport layer.
type Service struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *Metrics

	repo   *party.Repository
	pub    *party.Publisher
	state  *StateManager
	themes *ThemeManager

	parties   PartyStore
	questions QuestionBank
}

func NewService(logger *slog.Logger, tracer trace.Tracer, metrics *Metrics, repo *party.Repository, pub *party.Publisher, stores Stores) *Service {
	s := &Service{
		logger:    logger,
		tracer:    tracer,
		metrics:   metrics,
		repo:      repo,
		pub:       pub,
		state:     NewStateManager(repo, pub, metrics),
		themes:    NewThemeManager(repo, pub, stores.Themes, metrics),
		parties:   stores.Parties,
		questions: stores.Questions,
	}
	pub.Subscribe(func(e party.Event) {
		if e.Kind == party.EventTimerExpired {
			metrics.timerExpired()
			logger.Info("timer expired", "party_id", e.PartyID)
		}
	})
	return s
}

func (s *Service) State() *StateManager { return s.state }

func (s *Service) Themes() *ThemeManager { return s.themes }

// Subscribe registers h for every party event. See party.Publisher.
func (s *Service) Subscribe(h party.Handler) func() {
	return s.pub.Subscribe(h)
}

func (s *Service) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "Service."+name, trace.WithAttributes(attrs...))
}

func (s *Service) fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, ErrStore) {
		s.metrics.storeError(op)
		s.logger.Error("store call failed", "op", op, "error", err)
	}
	return err
}

// CreateParty stores a new party and makes it live.
func (s *Service) CreateParty(ctx context.Context, name string) (uuid.UUID, error) {
	ctx, span := s.start(ctx, "CreateParty")
	defer span.End()

	if err := ValidatePartyName(name); err != nil {
		return uuid.Nil, s.fail(span, "create_party", err)
	}
	id, err := s.parties.CreateParty(ctx, name)
	if err != nil {
		return uuid.Nil, s.fail(span, "create_party", storeError("creating party", err))
	}
	if _, err := s.repo.Add(id, name); err != nil {
		return uuid.Nil, s.fail(span, "create_party", err)
	}
	span.SetAttributes(attribute.String("party.id", id.String()))
	s.logger.Info("party created", "party_id", id, "name", name)
	return id, nil
}

// CreateTeam stores a team and adds it to the party, loading the party
// first when it is not live.
func (s *Service) CreateTeam(ctx context.Context, partyID uuid.UUID, name string) (uuid.UUID, error) {
	ctx, span := s.start(ctx, "CreateTeam", attribute.String("party.id", partyID.String()))
	defer span.End()

	if err := ValidateTeamName(name); err != nil {
		return uuid.Nil, s.fail(span, "create_team", err)
	}
	p, err := s.GetParty(ctx, partyID)
	if err != nil {
		return uuid.Nil, s.fail(span, "create_team", err)
	}
	rec, err := s.parties.CreateTeam(ctx, partyID, name)
	if err != nil {
		return uuid.Nil, s.fail(span, "create_team", storeError("creating team", err))
	}
	if rec == nil {
		return uuid.Nil, s.fail(span, "create_team", storeError("creating team", errors.New("party missing from store")))
	}
	if err := p.AddTeam(rec.ID, rec.Name); err != nil {
		return uuid.Nil, s.fail(span, "create_team", err)
	}
	s.pub.Publish(party.Event{Kind: party.EventChanged, Party: p})
	s.logger.Info("team created", "party_id", partyID, "team_id", rec.ID, "name", rec.Name)
	return rec.ID, nil
}

// DeleteTeam removes a team from the store and from the live party. It
// returns ErrTeamNotFound when the team is in neither.
func (s *Service) DeleteTeam(ctx context.Context, partyID, teamID uuid.UUID) error {
	ctx, span := s.start(ctx, "DeleteTeam", attribute.String("party.id", partyID.String()))
	defer span.End()

	stored, err := s.parties.DeleteTeam(ctx, partyID, teamID)
	if err != nil {
		return s.fail(span, "delete_team", storeError("deleting team", err))
	}

	p, live := s.repo.Get(partyID)
	if live {
		switch err := p.RemoveTeam(teamID); {
		case errors.Is(err, party.ErrTeamNotFound):
			live = false
		case err != nil:
			return s.fail(span, "delete_team", err)
		}
	}
	if !stored && !live {
		return s.fail(span, "delete_team", party.ErrTeamNotFound)
	}
	if live {
		s.pub.Publish(party.Event{Kind: party.EventChanged, Party: p})
	}
	s.logger.Info("team deleted", "party_id", partyID, "team_id", teamID)
	return nil
}

// GetParty returns the live party, loading it from the store if needed.
func (s *Service) GetParty(ctx context.Context, id uuid.UUID) (*party.Party, error) {
	if p, ok := s.repo.Get(id); ok {
		return p, nil
	}
	p, err := s.LoadParty(ctx, id)
	if errors.Is(err, party.ErrDuplicateKey) {
		// Loaded concurrently by another caller.
		if p, ok := s.repo.Get(id); ok {
			return p, nil
		}
	}
	return p, err
}

// LoadParty makes a stored party live. Loading a party that is already live
// fails with party.ErrDuplicateKey.
func (s *Service) LoadParty(ctx context.Context, id uuid.UUID) (*party.Party, error) {
	ctx, span := s.start(ctx, "LoadParty", attribute.String("party.id", id.String()))
	defer span.End()

	if s.repo.Exists(id) {
		return nil, s.fail(span, "load_party", party.ErrDuplicateKey)
	}
	rec, err := s.parties.GetParty(ctx, id)
	if err != nil {
		return nil, s.fail(span, "load_party", storeError("loading party", err))
	}
	if rec == nil {
		return nil, s.fail(span, "load_party", party.ErrPartyNotFound)
	}
	p, err := s.repo.Load(*rec)
	if err != nil {
		return nil, s.fail(span, "load_party", err)
	}
	s.logger.Info("party loaded", "party_id", id, "teams", len(rec.Teams))
	return p, nil
}

// SaveParty writes every team score of a live party to the store.
func (s *Service) SaveParty(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.start(ctx, "SaveParty", attribute.String("party.id", id.String()))
	defer span.End()

	p, ok := s.repo.Get(id)
	if !ok {
		return s.fail(span, "save_party", party.ErrPartyNotFound)
	}
	for _, t := range p.Record().Teams {
		if err := s.parties.UpdateTeamScore(ctx, t.ID, t.Score); err != nil {
			return s.fail(span, "save_party", storeError("saving team score", err))
		}
	}
	return nil
}

// Parties returns snapshots of the live parties ordered by name.
func (s *Service) Parties() []party.Snapshot {
	all := s.repo.All()
	out := make([]party.Snapshot, 0, len(all))
	for _, p := range all {
		out = append(out, p.Snapshot())
	}
	slices.SortFunc(out, func(a, b party.Snapshot) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return out
}

func (s *Service) ListStoredParties(ctx context.Context) ([]speedgame.PartyRecord, error) {
	ctx, span := s.start(ctx, "ListStoredParties")
	defer span.End()

	recs, err := s.parties.ListParties(ctx)
	if err != nil {
		return nil, s.fail(span, "list_parties", storeError("listing parties", err))
	}
	return recs, nil
}

// DeleteParty drops a live party from memory. The stored copy is kept.
func (s *Service) DeleteParty(id uuid.UUID) {
	s.repo.Remove(id)
}

func (s *Service) DeleteAllParties() {
	s.repo.RemoveAll()
}

// DeleteStoredParty removes a party from the store and from memory.
func (s *Service) DeleteStoredParty(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.start(ctx, "DeleteStoredParty", attribute.String("party.id", id.String()))
	defer span.End()

	if err := s.parties.DeleteParty(ctx, id); err != nil {
		return s.fail(span, "delete_party", storeError("deleting party", err))
	}
	s.repo.Remove(id)
	return nil
}

// AddPoints updates a team score and saves the owning party.
func (s *Service) AddPoints(ctx context.Context, teamID uuid.UUID, points int) (int, error) {
	ctx, span := s.start(ctx, "AddPoints", attribute.String("team.id", teamID.String()), attribute.Int("points", points))
	defer span.End()

	p, score, err := s.state.AddPoints(teamID, points)
	if err != nil {
		return 0, s.fail(span, "add_points", err)
	}
	if err := s.SaveParty(ctx, p.ID()); err != nil {
		return score, s.fail(span, "add_points", err)
	}
	return score, nil
}

// SetRandomQcm draws a question from the bank and makes it current.
func (s *Service) SetRandomQcm(ctx context.Context, partyID uuid.UUID) (speedgame.QcmQuestion, error) {
	ctx, span := s.start(ctx, "SetRandomQcm", attribute.String("party.id", partyID.String()))
	defer span.End()

	if !s.repo.Exists(partyID) {
		return speedgame.QcmQuestion{}, s.fail(span, "random_question", party.ErrPartyNotFound)
	}
	q, err := s.questions.RandomQuestion(ctx)
	if err != nil {
		return speedgame.QcmQuestion{}, s.fail(span, "random_question", storeError("drawing question", err))
	}
	if err := s.state.SetCurrentQcm(partyID, q); err != nil {
		return speedgame.QcmQuestion{}, s.fail(span, "random_question", err)
	}
	return q, nil
}

// ImportQuestions reads a question sheet and adds its new questions to the
// bank. It returns how many were inserted.
func (s *Service) ImportQuestions(ctx context.Context, r io.Reader) (int, error) {
	ctx, span := s.start(ctx, "ImportQuestions")
	defer span.End()

	questions, err := seed.ParseQuestions(r)
	if err != nil {
		return 0, s.fail(span, "import_questions", &ValidationError{Field: "file", Message: err.Error()})
	}
	n, err := s.questions.InsertQuestions(ctx, questions)
	if err != nil {
		return 0, s.fail(span, "import_questions", storeError("inserting questions", err))
	}
	span.SetAttributes(attribute.Int("questions.read", len(questions)), attribute.Int("questions.inserted", n))
	s.logger.Info("questions imported", "read", len(questions), "inserted", n)
	return n, nil
}
