package game_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/playperu/speedgame/internal/game"
	"github.com/playperu/speedgame/internal/party"
)

func catalog(owned map[uuid.UUID]int, others int) []party.ThemeCard {
	var out []party.ThemeCard
	n := 0
	for team, count := range owned {
		for range count {
			owner := team
			out = append(out, party.ThemeCard{ID: uuid.New(), Name: fmt.Sprintf("owned-%d", n), TeamID: &owner})
			n++
		}
	}
	for i := range others {
		out = append(out, party.ThemeCard{ID: uuid.New(), Name: fmt.Sprintf("other-%d", i)})
	}
	return out
}

func TestGenerateThemeCards(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	tests := []struct {
		name      string
		owned     map[uuid.UUID]int
		others    int
		wantTotal int
		wantOwned int
	}{
		{name: "one theme per team tops up to target", owned: map[uuid.UUID]int{a: 1, b: 1}, others: 8, wantTotal: 50, wantOwned: 10},
		{name: "owned cards over target keep every other card", owned: map[uuid.UUID]int{a: 6, b: 6}, others: 8, wantTotal: 100, wantOwned: 60},
		{name: "small catalog", owned: map[uuid.UUID]int{}, others: 3, wantTotal: 15},
		{name: "large catalog is capped", owned: map[uuid.UUID]int{}, others: 20, wantTotal: 50},
		{name: "owned exactly at target", owned: map[uuid.UUID]int{a: 5, b: 5}, others: 2, wantTotal: 60, wantOwned: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rand.New(rand.NewPCG(1, 2))
			deck := game.GenerateThemeCards([]uuid.UUID{a, b}, catalog(tt.owned, tt.others), r.Uint64)

			if len(deck) != tt.wantTotal {
				t.Fatalf("deck size = %d, want %d", len(deck), tt.wantTotal)
			}
			owned := 0
			perName := make(map[string]int)
			ids := make(map[uuid.UUID]bool)
			for _, c := range deck {
				if c.TeamID != nil {
					owned++
				}
				perName[c.Name]++
				ids[c.ID] = true
			}
			if owned != tt.wantOwned {
				t.Errorf("owned cards = %d, want %d", owned, tt.wantOwned)
			}
			if len(ids) != len(deck) {
				t.Errorf("deck has %d distinct ids for %d cards", len(ids), len(deck))
			}
			for name, n := range perName {
				if n > game.CardCopies {
					t.Errorf("theme %q has %d cards, want at most %d", name, n, game.CardCopies)
				}
			}
		})
	}
}

func TestGenerateThemeCardsKeepsOwner(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	cat := catalog(map[uuid.UUID]int{a: 1}, 0)

	deck := game.GenerateThemeCards([]uuid.UUID{a, b}, cat, rand.Uint64)
	if len(deck) != game.CardCopies {
		t.Fatalf("deck size = %d, want %d", len(deck), game.CardCopies)
	}
	for _, c := range deck {
		if !c.OwnedBy(a) || c.Name != cat[0].Name {
			t.Errorf("card = %+v, want %q owned by %v", c, cat[0].Name, a)
		}
	}
}

func TestGenerateThemeCardsShuffles(t *testing.T) {
	cat := catalog(nil, 10)
	var n uint64
	descending := func() uint64 { n++; return ^n }

	deck := game.GenerateThemeCards(nil, cat, descending)
	if deck[0].Name != cat[len(cat)-1].Name {
		t.Errorf("first card = %q, want the last catalog theme %q", deck[0].Name, cat[len(cat)-1].Name)
	}
}

func TestThemesLoadOnce(t *testing.T) {
	env := newTestEnv(t, "Cinema", "Sport", "Histoire")
	partyID, _ := env.newParty(t, "Themes")
	themes := env.svc.Themes()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := themes.Themes(context.Background(), partyID)
			if err != nil {
				t.Errorf("themes: %v", err)
				return
			}
			if len(got) != 3 {
				t.Errorf("got %d themes, want 3", len(got))
			}
		}()
	}
	wg.Wait()

	if env.store.themeCalls != 1 {
		t.Errorf("catalog read %d times, want 1", env.store.themeCalls)
	}
}

func TestThemesLoadOutlivesCanceledCaller(t *testing.T) {
	env := newTestEnv(t, "Cinema", "Sport")
	partyID, _ := env.newParty(t, "Impatient")
	env.store.themesStarted = make(chan struct{}, 1)
	env.store.themesRelease = make(chan struct{})
	themes := env.svc.Themes()

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		n   int
		err error
	}
	first := make(chan result, 1)
	go func() {
		got, err := themes.Themes(ctx, partyID)
		first <- result{len(got), err}
	}()

	<-env.store.themesStarted
	cancel()
	close(env.store.themesRelease)

	if r := <-first; r.err != nil || r.n != 2 {
		t.Fatalf("first caller: got %d themes, err %v; want 2, nil", r.n, r.err)
	}
	got, err := themes.Themes(context.Background(), partyID)
	if err != nil || len(got) != 2 {
		t.Fatalf("later caller: got %d themes, err %v; want 2, nil", len(got), err)
	}
	if env.store.themeCalls != 1 {
		t.Errorf("catalog read %d times, want 1", env.store.themeCalls)
	}
}

func TestThemesStoreFailure(t *testing.T) {
	env := newTestEnv(t, "Cinema")
	partyID, _ := env.newParty(t, "Broken")
	env.store.setFail(errBroken)

	_, err := env.svc.Themes().Themes(context.Background(), partyID)
	if !errors.Is(err, game.ErrStore) || !errors.Is(err, errBroken) {
		t.Fatalf("err = %v, want ErrStore wrapping the store error", err)
	}
}

func TestThemeChoicesAndDeck(t *testing.T) {
	env := newTestEnv(t, "Cinema", "Sport", "Histoire", "Musique")
	partyID, teams := env.newParty(t, "Deck", "A1", "B1")
	themes := env.svc.Themes().WithRand(rand.New(rand.NewPCG(7, 7)))

	cat, err := themes.Themes(context.Background(), partyID)
	if err != nil {
		t.Fatalf("themes: %v", err)
	}
	ok, err := themes.ChoiceTheme(partyID, teams[0], cat[0].ID)
	if err != nil || !ok {
		t.Fatalf("choice A = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = themes.ChoiceTheme(partyID, teams[1], cat[0].ID)
	if err != nil || ok {
		t.Fatalf("choice B on taken theme = (%v, %v), want (false, nil)", ok, err)
	}

	n, err := themes.ShowThemes(partyID)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	// 5 owned cards plus 15 unowned for the three remaining themes.
	if n != 20 {
		t.Errorf("deck size = %d, want 20", n)
	}

	p, _ := env.repo.Get(partyID)
	snap := p.Snapshot()
	if !snap.ShowThemes {
		t.Error("themes not shown")
	}
	card := snap.RandomThemes[3]
	if err := themes.SelectTheme(partyID, card.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := themes.SelectTheme(partyID, uuid.New()); !errors.Is(err, party.ErrThemeNotFound) {
		t.Errorf("select unknown card: err = %v, want ErrThemeNotFound", err)
	}
	if !p.Snapshot().RandomThemes[3].AlreadyTaken {
		t.Error("selected card not marked taken")
	}

	if err := themes.ResetThemesChoices(partyID); err != nil {
		t.Fatalf("reset choices: %v", err)
	}
	for _, c := range p.Snapshot().Themes {
		if c.TeamID != nil {
			t.Errorf("theme %q still owned after reset", c.Name)
		}
	}
	if err := themes.HideThemes(partyID); err != nil {
		t.Fatalf("hide: %v", err)
	}
	if p.Snapshot().ShowThemes {
		t.Error("themes still shown after hide")
	}
}
