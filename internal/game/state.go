package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/playperu/speedgame/internal/party"
	"github.com/playperu/speedgame/internal/speedgame"
)

// StateManager applies gameplay actions to live parties. Every action that
// reaches a party publishes after the party lock has been released.
type StateManager struct {
	repo    *party.Repository
	pub     party.Notifier
	metrics *Metrics
}

func NewStateManager(repo *party.Repository, pub party.Notifier, metrics *Metrics) *StateManager {
	return &StateManager{repo: repo, pub: pub, metrics: metrics}
}

func (m *StateManager) party(id uuid.UUID) (*party.Party, error) {
	p, ok := m.repo.Get(id)
	if !ok {
		return nil, party.ErrPartyNotFound
	}
	return p, nil
}

func (m *StateManager) publish(p *party.Party, kinds ...party.EventKind) {
	for _, k := range kinds {
		m.pub.Publish(party.Event{Kind: k, Party: p})
	}
}

// SetCurrentResponse switches the input mode of a party. A timed
// proposition with a duration starts the countdown.
func (m *StateManager) SetCurrentResponse(partyID uuid.UUID, rt speedgame.ResponseType, duration *time.Duration) error {
	p, err := m.party(partyID)
	if err != nil {
		return err
	}
	p.StartResponse(rt, duration)
	m.publish(p, party.EventResponseStarted, party.EventChanged)
	return nil
}

// BuzzTeam reports whether the team won the buzzer for this round.
func (m *StateManager) BuzzTeam(partyID, teamID uuid.UUID) (bool, error) {
	p, err := m.party(partyID)
	if err != nil {
		return false, err
	}
	accepted, err := p.Buzz(teamID)
	if err != nil {
		return false, err
	}
	m.metrics.response("buzzer", accepted)
	m.publish(p, party.EventChanged)
	return accepted, nil
}

// PropositionTeam reports whether the team's answer was the first of the
// round.
func (m *StateManager) PropositionTeam(partyID, teamID uuid.UUID, text string) (bool, error) {
	p, err := m.party(partyID)
	if err != nil {
		return false, err
	}
	accepted, err := p.Propose(teamID, text)
	if err != nil {
		return false, err
	}
	m.metrics.response("proposition", accepted)
	m.publish(p, party.EventChanged)
	return accepted, nil
}

// PropositionQcmTeam reports whether the team picked the right option.
func (m *StateManager) PropositionQcmTeam(partyID, teamID uuid.UUID, text string) (bool, error) {
	p, err := m.party(partyID)
	if err != nil {
		return false, err
	}
	valid, err := p.ProposeQcm(teamID, text)
	if err != nil {
		return false, err
	}
	m.metrics.response("qcm", true)
	m.metrics.qcmAnswer(valid)
	m.publish(p, party.EventChanged)
	return valid, nil
}

func (m *StateManager) ResetTeam(partyID uuid.UUID) error {
	p, err := m.party(partyID)
	if err != nil {
		return err
	}
	p.ResetResponses()
	m.publish(p, party.EventChanged, party.EventReset)
	return nil
}

func (m *StateManager) ResumeResponse(partyID uuid.UUID) error {
	p, err := m.party(partyID)
	if err != nil {
		return err
	}
	p.ResumeResponses()
	m.publish(p, party.EventChanged)
	return nil
}

// PauseTimer freezes the countdown of a party. It reports false when no
// countdown was running.
func (m *StateManager) PauseTimer(partyID uuid.UUID) (bool, error) {
	p, err := m.party(partyID)
	if err != nil {
		return false, err
	}
	ok := p.Timer().Pause()
	m.publish(p, party.EventChanged)
	return ok, nil
}

// ResetTimer stops the countdown of a party and returns it to idle.
func (m *StateManager) ResetTimer(partyID uuid.UUID) error {
	p, err := m.party(partyID)
	if err != nil {
		return err
	}
	p.Timer().Reset()
	m.publish(p, party.EventChanged)
	return nil
}

// AddPoints finds the live party holding the team and adds points to it. It
// returns that party and the new score.
func (m *StateManager) AddPoints(teamID uuid.UUID, points int) (*party.Party, int, error) {
	p, ok := m.repo.FindByTeam(teamID)
	if !ok {
		return nil, 0, party.ErrTeamNotFound
	}
	score, err := p.AddPoints(teamID, points)
	if err != nil {
		return nil, 0, err
	}
	m.publish(p, party.EventChanged)
	return p, score, nil
}

func (m *StateManager) SetCurrentQcm(partyID uuid.UUID, q speedgame.QcmQuestion) error {
	p, err := m.party(partyID)
	if err != nil {
		return err
	}
	p.SetCurrentQcm(q)
	m.publish(p, party.EventChanged)
	return nil
}
