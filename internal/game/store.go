package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/playperu/speedgame/internal/speedgame"
)

// ErrStore marks failures of the persistent store. The underlying error
// stays reachable through errors.Is and errors.As.
var ErrStore = errors.New("external store failure")

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// PartyStore persists parties and their teams. GetParty and CreateTeam
// return a nil record when the party does not exist. DeleteTeam reports
// whether a stored team was removed.
type PartyStore interface {
	CreateParty(ctx context.Context, name string) (uuid.UUID, error)
	GetParty(ctx context.Context, id uuid.UUID) (*speedgame.PartyRecord, error)
	ListParties(ctx context.Context) ([]speedgame.PartyRecord, error)
	DeleteParty(ctx context.Context, id uuid.UUID) error
	UpdateTeamScore(ctx context.Context, teamID uuid.UUID, score int) error
	CreateTeam(ctx context.Context, partyID uuid.UUID, name string) (*speedgame.TeamRecord, error)
	DeleteTeam(ctx context.Context, partyID, teamID uuid.UUID) (bool, error)
}

// QuestionBank draws and stores multiple-choice questions.
type QuestionBank interface {
	RandomQuestion(ctx context.Context) (speedgame.QcmQuestion, error)
	InsertQuestions(ctx context.Context, questions []speedgame.QcmQuestion) (int, error)
}

// ThemeCatalog lists the themes a party starts with.
type ThemeCatalog interface {
	AllThemes(ctx context.Context) ([]speedgame.Theme, error)
}
