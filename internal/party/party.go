// Package party holds the live, in-memory state of game sessions: the party
// state machine with its teams, response gate, theme cards and countdown,
// the concurrent registry of parties and the change publisher.
package party

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/speedgame/internal/speedgame"
)

type team struct {
	id       uuid.UUID
	name     string
	score    int
	buzz     bool
	response string

	alreadyQcmResponse bool
	qcmValid           *bool
}

// ThemeCard is either a catalog theme (stable ID) or a generated working
// card. TeamID is a lookup reference to the owning team, nil when unowned.
type ThemeCard struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	TeamID       *uuid.UUID `json:"teamId,omitempty"`
	AlreadyTaken bool       `json:"alreadyTaken"`
}

func (c ThemeCard) OwnedBy(teamID uuid.UUID) bool {
	return c.TeamID != nil && *c.TeamID == teamID
}

type Option func(*Party)

// WithNotifier sets where the party announces timer ticks and expiry.
func WithNotifier(n Notifier) Option {
	return func(p *Party) { p.notifier = n }
}

// WithTickInterval sets the wall-clock length of one countdown second.
func WithTickInterval(d time.Duration) Option {
	return func(p *Party) { p.tick = d }
}

// Party is one live game session. Every mutation goes through a method that
// holds the party lock, so concurrent calls against the same party serialize
// while different parties never contend.
type Party struct {
	id       uuid.UUID
	name     string
	notifier Notifier
	tick     time.Duration
	timer    *Timer

	mu           sync.Mutex
	teams        map[uuid.UUID]*team
	order        []uuid.UUID
	responseType speedgame.ResponseType
	hasResponse  bool
	currentQcm   *speedgame.QcmQuestion
	themes       []ThemeCard
	randomThemes []ThemeCard
	showThemes   bool
}

func New(id uuid.UUID, name string, opts ...Option) *Party {
	p := &Party{
		id:    id,
		name:  name,
		teams: make(map[uuid.UUID]*team),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.timer = NewTimer(p.tick, p.onTimerTick, p.onTimerExpired)
	return p
}

// FromRecord rebuilds a party and its teams from a stored record.
func FromRecord(rec speedgame.PartyRecord, opts ...Option) *Party {
	p := New(rec.ID, rec.Name, opts...)
	for _, t := range rec.Teams {
		p.teams[t.ID] = &team{id: t.ID, name: t.Name, score: t.Score}
		p.order = append(p.order, t.ID)
	}
	return p
}

func (p *Party) ID() uuid.UUID { return p.id }

func (p *Party) Name() string { return p.name }

func (p *Party) Timer() *Timer { return p.timer }

func (p *Party) onTimerTick(remaining time.Duration) {
	p.notify(Event{Kind: EventTimerTick, Remaining: remaining})
}

func (p *Party) onTimerExpired() {
	p.notify(Event{Kind: EventTimerExpired})
	p.notify(Event{Kind: EventChanged})
}

func (p *Party) notify(e Event) {
	if p.notifier == nil {
		return
	}
	e.PartyID = p.id
	e.Party = p
	p.notifier.Publish(e)
}

// Close stops the countdown goroutine, if any.
func (p *Party) Close() {
	p.timer.Reset()
}

// AddTeam registers a new team with a zero score.
func (p *Party) AddTeam(id uuid.UUID, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidTeamName
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.teams[id]; ok {
		return ErrDuplicateKey
	}
	p.teams[id] = &team{id: id, name: name}
	p.order = append(p.order, id)
	return nil
}

// RemoveTeam drops the team and clears its ownership of catalog themes.
func (p *Party) RemoveTeam(id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.teams[id]; !ok {
		return ErrTeamNotFound
	}
	delete(p.teams, id)
	p.order = slices.DeleteFunc(p.order, func(v uuid.UUID) bool { return v == id })
	for i := range p.themes {
		if p.themes[i].OwnedBy(id) {
			p.themes[i].TeamID = nil
		}
	}
	return nil
}

func (p *Party) HasTeam(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.teams[id]
	return ok
}

// StartResponse switches the input mode. A timed proposition with a
// duration starts the countdown, replacing any countdown in progress.
func (p *Party) StartResponse(rt speedgame.ResponseType, duration *time.Duration) {
	p.mu.Lock()
	p.responseType = rt
	started := rt == speedgame.ResponseTimedProposition && duration != nil && p.timer.start(*duration)
	p.mu.Unlock()

	if started {
		p.timer.settle()
	}
}

// Buzz records the first buzz of the round. It reports whether this team won
// the gate; later buzzes leave the party untouched.
func (p *Party) Buzz(teamID uuid.UUID) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.teams[teamID]
	if !ok {
		return false, ErrTeamNotFound
	}
	if p.hasResponse {
		return false, nil
	}
	t.buzz = true
	p.hasResponse = true
	return true, nil
}

// Propose records the first free-text answer of the round and pauses the
// countdown at the instant it lands.
func (p *Party) Propose(teamID uuid.UUID, text string) (bool, error) {
	accepted, paused, err := p.propose(teamID, text)
	if paused {
		// Outside p.mu: a pending expiry publishes a snapshot.
		p.timer.settle()
	}
	return accepted, err
}

func (p *Party) propose(teamID uuid.UUID, text string) (accepted, paused bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.teams[teamID]
	if !ok {
		return false, false, ErrTeamNotFound
	}
	if p.hasResponse {
		return false, false, nil
	}
	t.response = text
	p.hasResponse = true
	return true, p.timer.pause(), nil
}

// ProposeQcm records a team's multiple-choice answer and reports whether it
// matches the current question exactly. Each team answers independently and
// may change its answer; the already-answered flag is informational only.
func (p *Party) ProposeQcm(teamID uuid.UUID, text string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.teams[teamID]
	if !ok {
		return false, ErrTeamNotFound
	}
	valid := p.currentQcm != nil && text == p.currentQcm.Response
	t.response = text
	t.alreadyQcmResponse = true
	t.qcmValid = &valid
	return valid, nil
}

// ResetResponses reopens the round: buzzes and answers are cleared, scores
// are kept.
func (p *Party) ResetResponses() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hasResponse = false
	for _, t := range p.teams {
		t.buzz = false
		t.response = ""
	}
}

// ResumeResponses clears the answers (not the buzzes), reopens the gate and
// resumes a paused countdown.
func (p *Party) ResumeResponses() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, t := range p.teams {
		t.response = ""
	}
	p.hasResponse = false
	p.timer.Resume()
}

// AddPoints adds points, possibly negative, to a team score and returns the
// new score.
func (p *Party) AddPoints(teamID uuid.UUID, points int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.teams[teamID]
	if !ok {
		return 0, ErrTeamNotFound
	}
	t.score += points
	return t.score, nil
}

// SetCurrentQcm replaces the current question and clears every team's
// answer state for it.
func (p *Party) SetCurrentQcm(q speedgame.QcmQuestion) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentQcm = &q
	for _, t := range p.teams {
		t.alreadyQcmResponse = false
		t.qcmValid = nil
	}
}

// LoadThemes replaces the catalog wholesale.
func (p *Party) LoadThemes(themes []speedgame.Theme) {
	cards := make([]ThemeCard, 0, len(themes))
	for _, th := range themes {
		cards = append(cards, ThemeCard{ID: th.ID, Name: th.Name})
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.themes = cards
}

func (p *Party) HasThemes() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.themes) > 0
}

// SelectTheme marks a working card as taken.
func (p *Party) SelectTheme(cardID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := slices.IndexFunc(p.randomThemes, func(c ThemeCard) bool { return c.ID == cardID })
	if i < 0 {
		return ErrThemeNotFound
	}
	p.randomThemes[i].AlreadyTaken = true
	return nil
}

// ChoiceTheme assigns a catalog theme to a team. A theme already owned by a
// team keeps its owner and ChoiceTheme reports false.
func (p *Party) ChoiceTheme(themeID, teamID uuid.UUID) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.teams[teamID]; !ok {
		return false, ErrTeamNotFound
	}
	i := slices.IndexFunc(p.themes, func(c ThemeCard) bool { return c.ID == themeID })
	if i < 0 {
		return false, ErrThemeNotFound
	}
	if p.themes[i].TeamID != nil {
		return false, nil
	}
	owner := teamID
	p.themes[i].TeamID = &owner
	return true, nil
}

func (p *Party) ResetThemeChoices() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.themes {
		p.themes[i].TeamID = nil
	}
}

// GenerateFunc builds working cards from the team ids, in display order, and
// a copy of the catalog.
type GenerateFunc func(teamIDs []uuid.UUID, catalog []ThemeCard) []ThemeCard

// RegenerateThemes replaces the working cards with the output of gen, which
// runs under the party lock.
func (p *Party) RegenerateThemes(gen GenerateFunc) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.randomThemes = gen(slices.Clone(p.order), slices.Clone(p.themes))
	return len(p.randomThemes)
}

func (p *Party) SetShowThemes(show bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.showThemes = show
}

// Snapshot returns a deep copy of the party state safe to hand to readers.
func (p *Party) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		ID:           p.id,
		Name:         p.name,
		Teams:        make([]TeamSnapshot, 0, len(p.order)),
		ResponseType: p.responseType,
		HasResponse:  p.hasResponse,
		Themes:       cloneCards(p.themes),
		RandomThemes: cloneCards(p.randomThemes),
		ShowThemes:   p.showThemes,
		Timer: TimerSnapshot{
			State:     p.timer.State(),
			Remaining: p.timer.Remaining(),
			Duration:  p.timer.Duration(),
		},
	}
	if p.currentQcm != nil {
		q := *p.currentQcm
		s.CurrentQcm = &q
	}
	for _, id := range p.order {
		t := p.teams[id]
		ts := TeamSnapshot{
			ID:                 t.id,
			PartyID:            p.id,
			Name:               t.name,
			Score:              t.score,
			Buzz:               t.buzz,
			Response:           t.response,
			Answered:           t.buzz || strings.TrimSpace(t.response) != "",
			AlreadyQcmResponse: t.alreadyQcmResponse,
		}
		if t.qcmValid != nil {
			v := *t.qcmValid
			ts.QcmValidResponse = &v
		}
		s.Teams = append(s.Teams, ts)
	}
	return s
}

// Record returns the persistable part of the party.
func (p *Party) Record() speedgame.PartyRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec := speedgame.PartyRecord{ID: p.id, Name: p.name}
	for _, id := range p.order {
		t := p.teams[id]
		rec.Teams = append(rec.Teams, speedgame.TeamRecord{ID: t.id, PartyID: p.id, Name: t.name, Score: t.score})
	}
	return rec
}

func cloneCards(cards []ThemeCard) []ThemeCard {
	out := make([]ThemeCard, len(cards))
	for i, c := range cards {
		out[i] = c
		if c.TeamID != nil {
			id := *c.TeamID
			out[i].TeamID = &id
		}
	}
	return out
}

type TimerSnapshot struct {
	State     TimerState
	Remaining time.Duration
	Duration  time.Duration
}

type timerJSON struct {
	State            TimerState `json:"state"`
	RemainingSeconds float64    `json:"remainingSeconds"`
	DurationSeconds  float64    `json:"durationSeconds"`
}

func (t TimerSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(timerJSON{t.State, t.Remaining.Seconds(), t.Duration.Seconds()})
}

func (t *TimerSnapshot) UnmarshalJSON(b []byte) error {
	var v timerJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = TimerSnapshot{
		State:     v.State,
		Remaining: time.Duration(v.RemainingSeconds * float64(time.Second)),
		Duration:  time.Duration(v.DurationSeconds * float64(time.Second)),
	}
	return nil
}

type TeamSnapshot struct {
	ID                 uuid.UUID `json:"id"`
	PartyID            uuid.UUID `json:"partyId"`
	Name               string    `json:"name"`
	Score              int       `json:"score"`
	Buzz               bool      `json:"buzz"`
	Response           string    `json:"response"`
	Answered           bool      `json:"answered"`
	AlreadyQcmResponse bool      `json:"alreadyQcmResponse"`
	QcmValidResponse   *bool     `json:"qcmValidResponse"`
}

type Snapshot struct {
	ID           uuid.UUID              `json:"id"`
	Name         string                 `json:"name"`
	Teams        []TeamSnapshot         `json:"teams"`
	ResponseType speedgame.ResponseType `json:"responseType"`
	HasResponse  bool                   `json:"hasResponse"`
	CurrentQcm   *speedgame.QcmQuestion `json:"currentQcm,omitempty"`
	Themes       []ThemeCard            `json:"themes"`
	RandomThemes []ThemeCard            `json:"randomThemes"`
	ShowThemes   bool                   `json:"showThemes"`
	Timer        TimerSnapshot          `json:"timer"`
}

// Team returns the team with the given id.
func (s Snapshot) Team(id uuid.UUID) (TeamSnapshot, bool) {
	for _, t := range s.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return TeamSnapshot{}, false
}

// Ranking returns the teams sorted by score, highest first, ties by name.
func (s Snapshot) Ranking() []TeamSnapshot {
	out := slices.Clone(s.Teams)
	slices.SortStableFunc(out, func(a, b TeamSnapshot) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
