package server

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type timerView struct {
	Timer struct {
		State string `json:"state"`
	} `json:"timer"`
}

func TestBuzzerRound(t *testing.T) {
	ts := newTestServer(t, nil)
	id, teams := ts.createParty(t, "Quiz Night", "Alpha", "Bravo")
	base := "/api/parties/" + id.String()

	w := ts.do(t, http.MethodPost, base+"/response", ResponseRequest{Type: "buzzer"})
	if w.Code != http.StatusOK {
		t.Fatalf("set response: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	for i, want := range []bool{true, false} {
		w := ts.do(t, http.MethodPost, base+"/teams/"+teams[i].String()+"/buzz", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("buzz: expected 200, got %d", w.Code)
		}
		if got := decode[AcceptedResponse](t, w).Accepted; got != want {
			t.Errorf("buzz %d accepted = %v, want %v", i, got, want)
		}
	}

	w = ts.do(t, http.MethodPost, base+"/reset", nil)
	p := decode[partySnapshot](t, w)
	if p.HasResponse || p.Teams[0].Buzz {
		t.Errorf("after reset: %+v", p)
	}

	w = ts.do(t, http.MethodPost, "/api/teams/"+teams[0].String()+"/points", PointsRequest{Points: 10})
	if got := decode[PointsResponse](t, w); got.Score != 10 {
		t.Errorf("score = %d, want 10", got.Score)
	}
}

func TestSetResponseValidation(t *testing.T) {
	ts := newTestServer(t, nil)
	id, _ := ts.createParty(t, "Modes")
	path := "/api/parties/" + id.String() + "/response"

	zero, tooLong, huge := 0, maxDurationSeconds+1, math.MaxInt
	for _, req := range []ResponseRequest{
		{Type: "karaoke"},
		{Type: "timed_proposition", DurationSeconds: &zero},
		{Type: "timed_proposition", DurationSeconds: &tooLong},
		{Type: "timed_proposition", DurationSeconds: &huge},
	} {
		if w := ts.do(t, http.MethodPost, path, req); w.Code != http.StatusBadRequest {
			t.Errorf("%+v: expected 400, got %d", req, w.Code)
		}
	}

	w := ts.do(t, http.MethodGet, "/api/parties/"+id.String(), nil)
	if snap := decode[timerView](t, w); snap.Timer.State == "running" {
		t.Error("rejected duration started the timer")
	}
}

func TestPropositionPausesTimer(t *testing.T) {
	ts := newTestServer(t, nil)
	id, teams := ts.createParty(t, "Timed", "Alpha")
	base := "/api/parties/" + id.String()

	secs := 3600
	ts.do(t, http.MethodPost, base+"/response", ResponseRequest{Type: "timed_proposition", DurationSeconds: &secs})

	w := ts.do(t, http.MethodPost, base+"/teams/"+teams[0].String()+"/proposition", AnswerRequest{Text: "Paris"})
	if got := decode[AcceptedResponse](t, w); !got.Accepted {
		t.Fatal("proposition rejected")
	}

	w = ts.do(t, http.MethodGet, base, nil)
	if snap := decode[timerView](t, w); snap.Timer.State != "paused" {
		t.Errorf("timer state = %q, want paused", snap.Timer.State)
	}

	w = ts.do(t, http.MethodPost, base+"/timer/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset timer: expected 200, got %d", w.Code)
	}
}

func TestQuestionImportAndDraw(t *testing.T) {
	ts := newTestServer(t, nil)
	id, teams := ts.createParty(t, "Qcm", "Alpha")
	base := "/api/parties/" + id.String()

	if w := ts.do(t, http.MethodPost, base+"/qcm/random", nil); w.Code != http.StatusNotFound {
		t.Fatalf("empty bank: expected 404, got %d", w.Code)
	}

	sheet := "theme,difficulty,question,o1,o2,o3,o4,response\nScience,Facile,H2O ?,Eau,Sel,Air,Feu,Eau\n"
	req := httptest.NewRequest(http.MethodPost, "/api/admin/questions/import", strings.NewReader(sheet))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("import: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[ImportResponse](t, w); got.Inserted != 1 {
		t.Errorf("inserted = %d, want 1", got.Inserted)
	}

	w = ts.do(t, http.MethodPost, base+"/qcm/random", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("draw: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	for text, want := range map[string]bool{"Sel": false, "Eau": true} {
		w := ts.do(t, http.MethodPost, base+"/teams/"+teams[0].String()+"/qcm", AnswerRequest{Text: text})
		if got := decode[QcmAnswerResponse](t, w).Valid; got != want {
			t.Errorf("answer %q valid = %v, want %v", text, got, want)
		}
	}
}

func TestImportRejectsMalformedSheet(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/questions/import", strings.NewReader("h\nbroken,row\n"))
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestThemeRoutes(t *testing.T) {
	ts := newTestServer(t, nil)
	id, teams := ts.createParty(t, "Themes", "Alpha")
	base := "/api/parties/" + id.String()

	w := ts.do(t, http.MethodGet, base+"/themes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("themes: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	themes := decode[[]struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}](t, w)
	if len(themes) != 3 {
		t.Fatalf("themes = %d, want 3", len(themes))
	}

	w = ts.do(t, http.MethodPost, base+"/themes/"+themes[0].ID.String()+"/choose", ChooseThemeRequest{TeamID: teams[0]})
	if got := decode[AcceptedResponse](t, w); !got.Accepted {
		t.Error("choice rejected")
	}

	w = ts.do(t, http.MethodPost, base+"/themes/show", nil)
	if got := decode[CountResponse](t, w).Count; got != 15 {
		t.Errorf("deck size = %d, want 15", got)
	}

	w = ts.do(t, http.MethodGet, base, nil)
	p := decode[struct {
		ShowThemes   bool `json:"showThemes"`
		RandomThemes []struct {
			ID uuid.UUID `json:"id"`
		} `json:"randomThemes"`
	}](t, w)
	if !p.ShowThemes || len(p.RandomThemes) != 15 {
		t.Fatalf("party = %+v", p)
	}

	if w := ts.do(t, http.MethodPost, base+"/themes/"+p.RandomThemes[0].ID.String()+"/select", nil); w.Code != http.StatusNoContent {
		t.Errorf("select: expected 204, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, base+"/themes/"+uuid.NewString()+"/select", nil); w.Code != http.StatusNotFound {
		t.Errorf("select unknown: expected 404, got %d", w.Code)
	}
	for _, action := range []string{"hide", "reset"} {
		if w := ts.do(t, http.MethodPost, base+"/themes/"+action, nil); w.Code != http.StatusNoContent {
			t.Errorf("%s: expected 204, got %d", action, w.Code)
		}
	}
}

func TestTimedRoundExpires(t *testing.T) {
	ts := newTestServer(t, nil)
	id, _ := ts.createParty(t, "Short", "Alpha")
	base := "/api/parties/" + id.String()

	secs := 2
	ts.do(t, http.MethodPost, base+"/response", ResponseRequest{Type: "timed_proposition", DurationSeconds: &secs})

	deadline := time.Now().Add(2 * time.Second)
	for {
		w := ts.do(t, http.MethodGet, base, nil)
		snap := decode[timerView](t, w)
		if snap.Timer.State == "expired" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timer state = %q, want expired", snap.Timer.State)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
