package server

import (
	"github.com/google/uuid"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type NameRequest struct {
	Name string `json:"name"`
}

type IDResponse struct {
	ID uuid.UUID `json:"id"`
}

type PointsRequest struct {
	Points int `json:"points"`
}

type PointsResponse struct {
	TeamID uuid.UUID `json:"teamId"`
	Score  int       `json:"score"`
}

type ResponseRequest struct {
	Type            string `json:"type" enum:"none,buzzer,proposition,timed_proposition,qcm"`
	DurationSeconds *int   `json:"durationSeconds,omitempty"`
}

type AnswerRequest struct {
	Text string `json:"text"`
}

type AcceptedResponse struct {
	Accepted bool `json:"accepted"`
}

type QcmAnswerResponse struct {
	Valid bool `json:"valid"`
}

type ChooseThemeRequest struct {
	TeamID uuid.UUID `json:"teamId"`
}

type CountResponse struct {
	Count int `json:"count"`
}

type ImportResponse struct {
	Inserted int `json:"inserted"`
}

type partyPath struct {
	PartyID uuid.UUID `path:"partyID"`
}

type teamPath struct {
	TeamID uuid.UUID `path:"teamID"`
}

type partyTeamPath struct {
	PartyID uuid.UUID `path:"partyID"`
	TeamID  uuid.UUID `path:"teamID"`
}

type partyThemePath struct {
	PartyID uuid.UUID `path:"partyID"`
	ThemeID uuid.UUID `path:"themeID"`
}
