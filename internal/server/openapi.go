package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/speedgame/internal/party"
	"github.com/playperu/speedgame/internal/speedgame"
)

type operation struct {
	method, path, summary, description string

	params any
	req    any
	status int
	resp   any
	errors []int
	ctype  string
}

var operations = []operation{
	{
		method:      http.MethodGet,
		path:        "/api/parties",
		summary:     "List live parties",
		description: "Returns snapshots of every party held in memory, ordered by name.",
		status:      http.StatusOK,
		resp:        []party.Snapshot{},
	},
	{
		method:      http.MethodPost,
		path:        "/api/parties",
		summary:     "Create party",
		description: "Stores a new party and makes it live. Names are 3 to 50 characters.",
		req:         NameRequest{},
		status:      http.StatusCreated,
		resp:        party.Snapshot{},
		errors:      []int{http.StatusBadRequest, http.StatusBadGateway},
	},
	{
		method:      http.MethodDelete,
		path:        "/api/parties",
		summary:     "Drop all live parties",
		description: "Removes every party from memory. Stored parties are kept.",
		status:      http.StatusNoContent,
	},
	{
		method:      http.MethodGet,
		path:        "/api/parties/stored",
		summary:     "List stored parties",
		description: "Returns every stored party with its teams.",
		status:      http.StatusOK,
		resp:        []speedgame.PartyRecord{},
		errors:      []int{http.StatusBadGateway},
	},
	{
		method:      http.MethodGet,
		path:        "/api/parties/{partyID}",
		params:      partyPath{},
		summary:     "Get party",
		description: "Returns the party state, loading the party from the store if it is not live.",
		status:      http.StatusOK,
		resp:        party.Snapshot{},
		errors:      []int{http.StatusNotFound},
	},
	{
		method:      http.MethodDelete,
		path:        "/api/parties/{partyID}",
		params:      partyPath{},
		summary:     "Drop live party",
		description: "Removes the party from memory. The stored copy is kept.",
		status:      http.StatusNoContent,
	},
	{
		method:      http.MethodDelete,
		path:        "/api/parties/{partyID}/stored",
		params:      partyPath{},
		summary:     "Delete stored party",
		description: "Deletes the party and its teams from the store and from memory.",
		status:      http.StatusNoContent,
		errors:      []int{http.StatusBadGateway},
	},
	{
		method:      http.MethodPost,
		path:        "/api/parties/{partyID}/load",
		params:      partyPath{},
		summary:     "Load party",
		description: "Makes a stored party live.",
		status:      http.StatusOK,
		resp:        party.Snapshot{},
		errors:      []int{http.StatusNotFound, http.StatusConflict},
	},
	{
		method:      http.MethodPost,
		path:        "/api/parties/{partyID}/save",
		params:      partyPath{},
		summary:     "Save party",
		description: "Writes every team score to the store.",
		status:      http.StatusNoContent,
		errors:      []int{http.StatusNotFound, http.StatusBadGateway},
	},
	{
		method:      http.MethodPost,
		path:        "/api/parties/{partyID}/teams",
		params:      partyPath{},
		summary:     "Create team",
		description: "Adds a team to the party. Names are 2 to 30 characters.",
		req:         NameRequest{},
		status:      http.StatusCreated,
		resp:        party.TeamSnapshot{},
		errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	},
	{
		method:  http.MethodDelete,
		path:    "/api/parties/{partyID}/teams/{teamID}",
		params:  partyTeamPath{},
		summary: "Delete team",
		status:  http.StatusNoContent,
		errors:  []int{http.StatusNotFound},
	},
	{
		method:      http.MethodPost,
		path:        "/api/teams/{teamID}/points",
		params:      teamPath{},
		summary:     "Add points",
		description: "Adds points, possibly negative, to a team and saves its party.",
		req:         PointsRequest{},
		status:      http.StatusOK,
		resp:        PointsResponse{},
		errors:      []int{http.StatusNotFound, http.StatusTooManyRequests},
	},
	{
		method:      http.MethodPost,
		path:        "/api/parties/{partyID}/response",
		params:      partyPath{},
		summary:     "Set response mode",
		description: "Switches the input mode. timed_proposition with durationSeconds (1 to 3600) starts the countdown.",
		req:         ResponseRequest{},
		status:      http.StatusOK,
		resp:        party.Snapshot{},
		errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	},
	{
		method:      http.MethodPost,
		path:        "/api/parties/{partyID}/reset",
		params:      partyPath{},
		summary:     "Reset round",
		description: "Clears every buzz and answer and reopens the round. Scores are kept.",
		status:      http.StatusOK,
		resp:        party.Snapshot{},
		errors:      []int{http.StatusNotFound},
	},
	{
		method:      http.MethodPost,
		path:        "/api/parties/{partyID}/resume",
		params:      partyPath{},
		summary:     "Resume round",
		description: "Clears the answers, reopens the round and resumes a paused countdown.",
		status:      http.StatusOK,
		resp:        party.Snapshot{},
		errors:      []int{http.StatusNotFound},
	},
	{
		method:  http.MethodPost,
		path:    "/api/parties/{partyID}/timer/pause",
		params:  partyPath{},
		summary: "Pause countdown",
		status:  http.StatusOK,
		resp:    party.Snapshot{},
		errors:  []int{http.StatusNotFound},
	},
	{
		method:  http.MethodPost,
		path:    "/api/parties/{partyID}/timer/reset",
		params:  partyPath{},
		summary: "Reset countdown",
		status:  http.StatusOK,
		resp:    party.Snapshot{},
		errors:  []int{http.StatusNotFound},
	},
	{
		method:      http.MethodPost,
		path:        "/api/parties/{partyID}/qcm/random",
		params:      partyPath{},
		summary:     "Draw question",
		description: "Draws a random multiple-choice question and makes it current.",
		status:      http.StatusOK,
		resp:        speedgame.QcmQuestion{},
		errors:      []int{http.StatusNotFound, http.StatusBadGateway},
	},
	{
		method:      http.MethodPost,
		path:        "/api/parties/{partyID}/teams/{teamID}/buzz",
		params:      partyTeamPath{},
		summary:     "Buzz",
		description: "Only the first buzz of a round is accepted.",
		status:      http.StatusOK,
		resp:        AcceptedResponse{},
		errors:      []int{http.StatusNotFound, http.StatusTooManyRequests},
	},
	{
		method:      http.MethodPost,
		path:        "/api/parties/{partyID}/teams/{teamID}/proposition",
		params:      partyTeamPath{},
		summary:     "Propose answer",
		description: "Only the first answer of a round is accepted. It pauses the countdown.",
		req:         AnswerRequest{},
		status:      http.StatusOK,
		resp:        AcceptedResponse{},
		errors:      []int{http.StatusNotFound, http.StatusTooManyRequests},
	},
	{
		method:      http.MethodPost,
		path:        "/api/parties/{partyID}/teams/{teamID}/qcm",
		params:      partyTeamPath{},
		summary:     "Answer question",
		description: "Records the team's choice and reports whether it is correct.",
		req:         AnswerRequest{},
		status:      http.StatusOK,
		resp:        QcmAnswerResponse{},
		errors:      []int{http.StatusNotFound, http.StatusTooManyRequests},
	},
	{
		method:      http.MethodGet,
		path:        "/api/parties/{partyID}/themes",
		params:      partyPath{},
		summary:     "List themes",
		description: "Returns the theme catalog of the party, loading it on first use.",
		status:      http.StatusOK,
		resp:        []party.ThemeCard{},
		errors:      []int{http.StatusNotFound, http.StatusBadGateway},
	},
	{
		method:  http.MethodPost,
		path:    "/api/parties/{partyID}/themes/generate",
		params:  partyPath{},
		summary: "Deal theme cards",
		status:  http.StatusOK,
		resp:    CountResponse{},
		errors:  []int{http.StatusNotFound},
	},
	{
		method:  http.MethodPost,
		path:    "/api/parties/{partyID}/themes/show",
		params:  partyPath{},
		summary: "Deal and show theme cards",
		status:  http.StatusOK,
		resp:    CountResponse{},
		errors:  []int{http.StatusNotFound},
	},
	{
		method:  http.MethodPost,
		path:    "/api/parties/{partyID}/themes/hide",
		params:  partyPath{},
		summary: "Hide theme cards",
		status:  http.StatusNoContent,
		errors:  []int{http.StatusNotFound},
	},
	{
		method:  http.MethodPost,
		path:    "/api/parties/{partyID}/themes/reset",
		params:  partyPath{},
		summary: "Reset theme choices",
		status:  http.StatusNoContent,
		errors:  []int{http.StatusNotFound},
	},
	{
		method:      http.MethodPost,
		path:        "/api/parties/{partyID}/themes/{themeID}/select",
		params:      partyThemePath{},
		summary:     "Draw theme card",
		description: "Marks a dealt card as taken.",
		status:      http.StatusNoContent,
		errors:      []int{http.StatusNotFound},
	},
	{
		method:      http.MethodPost,
		path:        "/api/parties/{partyID}/themes/{themeID}/choose",
		params:      partyThemePath{},
		summary:     "Choose theme",
		description: "Gives a catalog theme to a team. A theme already owned is not reassigned.",
		req:         ChooseThemeRequest{},
		status:      http.StatusOK,
		resp:        AcceptedResponse{},
		errors:      []int{http.StatusNotFound},
	},
	{
		method:      http.MethodGet,
		path:        "/api/parties/{partyID}/events",
		params:      partyPath{},
		summary:     "Party event stream",
		description: "Server-Sent Events stream of party changes and countdown ticks.",
		status:      http.StatusOK,
		ctype:       "text/event-stream",
		errors:      []int{http.StatusNotFound},
	},
	{
		method:      http.MethodGet,
		path:        "/api/parties/{partyID}/ws",
		params:      partyPath{},
		summary:     "Party WebSocket feed",
		description: "Same feed as the event stream over a WebSocket.",
		status:      http.StatusSwitchingProtocols,
		ctype:       "text/plain",
		errors:      []int{http.StatusNotFound},
	},
	{
		method:      http.MethodPost,
		path:        "/api/admin/questions/import",
		summary:     "Import questions",
		description: "Adds the questions of a CSV sheet to the bank, as the raw body or the file field of a form.",
		status:      http.StatusOK,
		resp:        ImportResponse{},
		errors:      []int{http.StatusBadRequest, http.StatusBadGateway},
	},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "SpeedGame API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Live party sessions for team quiz nights.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		if op.description != "" {
			oc.SetDescription(op.description)
		}
		if op.params != nil {
			oc.AddReqStructure(op.params)
		}
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		opts := []openapi.ContentOption{openapi.WithHTTPStatus(op.status)}
		if op.ctype != "" {
			opts = append(opts, openapi.WithContentType(op.ctype))
		}
		oc.AddRespStructure(op.resp, opts...)
		for _, status := range op.errors {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(status))
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
