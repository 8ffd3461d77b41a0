package game

import (
	"cmp"
	"context"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/playperu/speedgame/internal/party"
)

const (
	// CardCopies is how many working cards each theme yields.
	CardCopies = 5
	// CardTarget is the deck size the unowned themes top up to.
	CardTarget = 50
)

// GenerateThemeCards builds a shuffled deck of working cards. Themes owned
// by a team yield CardCopies cards each for that team, the rest yield
// CardCopies unowned cards each. Unowned cards only fill the deck up to
// CardTarget, unless the owned cards alone already reach it, in which case
// every unowned card is added. key supplies the shuffle keys.
func GenerateThemeCards(teamIDs []uuid.UUID, catalog []party.ThemeCard, key func() uint64) []party.ThemeCard {
	var (
		deck  []party.ThemeCard
		taken = make(map[string]bool)
	)
	for _, teamID := range teamIDs {
		for _, th := range catalog {
			if !th.OwnedBy(teamID) {
				continue
			}
			for range CardCopies {
				owner := teamID
				deck = append(deck, party.ThemeCard{ID: uuid.New(), Name: th.Name, TeamID: &owner})
			}
			taken[th.Name] = true
		}
	}

	var others []party.ThemeCard
	for _, th := range catalog {
		if taken[th.Name] {
			continue
		}
		for range CardCopies {
			others = append(others, party.ThemeCard{ID: uuid.New(), Name: th.Name})
		}
	}
	if len(deck) < CardTarget {
		others = others[:min(len(others), CardTarget-len(deck))]
	}
	deck = append(deck, others...)

	type keyed struct {
		key  uint64
		card party.ThemeCard
	}
	shuffled := make([]keyed, len(deck))
	for i, c := range deck {
		shuffled[i] = keyed{key: key(), card: c}
	}
	slices.SortStableFunc(shuffled, func(a, b keyed) int { return cmp.Compare(a.key, b.key) })
	for i, k := range shuffled {
		deck[i] = k.card
	}
	return deck
}

// ThemeManager handles the theme catalog and working cards of live parties.
// The catalog is read from the ThemeCatalog the first time a party asks for
// it.
type ThemeManager struct {
	repo    *party.Repository
	pub     party.Notifier
	catalog ThemeCatalog
	metrics *Metrics

	loads singleflight.Group

	mu  sync.Mutex
	key func() uint64
}

func NewThemeManager(repo *party.Repository, pub party.Notifier, catalog ThemeCatalog, metrics *Metrics) *ThemeManager {
	return &ThemeManager{
		repo:    repo,
		pub:     pub,
		catalog: catalog,
		metrics: metrics,
		key:     rand.Uint64,
	}
}

// WithRand makes deck shuffles draw from r. Used for reproducible decks.
func (m *ThemeManager) WithRand(r *rand.Rand) *ThemeManager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = r.Uint64
	return m
}

func (m *ThemeManager) shuffleKey() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.key()
}

func (m *ThemeManager) party(id uuid.UUID) (*party.Party, error) {
	p, ok := m.repo.Get(id)
	if !ok {
		return nil, party.ErrPartyNotFound
	}
	return p, nil
}

func (m *ThemeManager) changed(p *party.Party) {
	m.pub.Publish(party.Event{Kind: party.EventChanged, Party: p})
}

// Themes returns the catalog of a party, loading it on first use.
// Concurrent first calls for the same party share one catalog read.
func (m *ThemeManager) Themes(ctx context.Context, partyID uuid.UUID) ([]party.ThemeCard, error) {
	p, err := m.party(partyID)
	if err != nil {
		return nil, err
	}
	if !p.HasThemes() {
		// The read is shared by every waiting caller, so it does not stop
		// when the caller that started it goes away.
		loadCtx := context.WithoutCancel(ctx)
		_, err, _ := m.loads.Do(partyID.String(), func() (any, error) {
			if p.HasThemes() {
				return nil, nil
			}
			themes, err := m.catalog.AllThemes(loadCtx)
			if err != nil {
				m.metrics.storeError("all_themes")
				return nil, storeError("loading themes", err)
			}
			p.LoadThemes(themes)
			return nil, nil
		})
		if err != nil {
			return nil, err
		}
	}
	return p.Snapshot().Themes, nil
}

// SelectTheme marks a working card as drawn.
func (m *ThemeManager) SelectTheme(partyID, cardID uuid.UUID) error {
	p, err := m.party(partyID)
	if err != nil {
		return err
	}
	if err := p.SelectTheme(cardID); err != nil {
		return err
	}
	m.changed(p)
	return nil
}

// ChoiceTheme gives a catalog theme to a team. It reports false when another
// team already owns the theme.
func (m *ThemeManager) ChoiceTheme(partyID, teamID, themeID uuid.UUID) (bool, error) {
	p, err := m.party(partyID)
	if err != nil {
		return false, err
	}
	ok, err := p.ChoiceTheme(themeID, teamID)
	if err != nil {
		return false, err
	}
	m.changed(p)
	return ok, nil
}

func (m *ThemeManager) ResetThemesChoices(partyID uuid.UUID) error {
	p, err := m.party(partyID)
	if err != nil {
		return err
	}
	p.ResetThemeChoices()
	m.changed(p)
	return nil
}

// GenerateThemes replaces the working cards of a party with a fresh deck and
// returns its size.
func (m *ThemeManager) GenerateThemes(partyID uuid.UUID) (int, error) {
	p, err := m.party(partyID)
	if err != nil {
		return 0, err
	}
	n := p.RegenerateThemes(func(teamIDs []uuid.UUID, catalog []party.ThemeCard) []party.ThemeCard {
		return GenerateThemeCards(teamIDs, catalog, m.shuffleKey)
	})
	m.changed(p)
	return n, nil
}

// ShowThemes deals a fresh deck and reveals it.
func (m *ThemeManager) ShowThemes(partyID uuid.UUID) (int, error) {
	p, err := m.party(partyID)
	if err != nil {
		return 0, err
	}
	n := p.RegenerateThemes(func(teamIDs []uuid.UUID, catalog []party.ThemeCard) []party.ThemeCard {
		return GenerateThemeCards(teamIDs, catalog, m.shuffleKey)
	})
	p.SetShowThemes(true)
	m.changed(p)
	return n, nil
}

func (m *ThemeManager) HideThemes(partyID uuid.UUID) error {
	p, err := m.party(partyID)
	if err != nil {
		return err
	}
	p.SetShowThemes(false)
	m.changed(p)
	return nil
}
