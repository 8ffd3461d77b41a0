// Package speedgame defines the domain records shared between the live party
// state and the persistence layer. It has zero external dependencies except
// for identifiers.
package speedgame

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ResponseType is the input mode currently active in a party.
type ResponseType int

const (
	ResponseNone ResponseType = iota
	ResponseBuzzer
	ResponseProposition
	ResponseTimedProposition
	ResponseQcm
)

var responseTypeNames = [...]string{"none", "buzzer", "proposition", "timed_proposition", "qcm"}

func (r ResponseType) String() string {
	if r < 0 || int(r) >= len(responseTypeNames) {
		return fmt.Sprintf("ResponseType(%d)", int(r))
	}
	return responseTypeNames[r]
}

// ParseResponseType accepts the names produced by String.
func ParseResponseType(s string) (ResponseType, error) {
	for i, name := range responseTypeNames {
		if strings.EqualFold(s, name) {
			return ResponseType(i), nil
		}
	}
	return ResponseNone, fmt.Errorf("unknown response type %q", s)
}

func (r ResponseType) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *ResponseType) UnmarshalText(b []byte) error {
	v, err := ParseResponseType(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyHard
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	}
	return fmt.Sprintf("Difficulty(%d)", int(d))
}

// ParseDifficulty accepts both the English names and the French labels used
// by the historical question sheets.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "facile":
		return DifficultyEasy, nil
	case "medium", "moyenne":
		return DifficultyMedium, nil
	case "hard", "difficile":
		return DifficultyHard, nil
	}
	return DifficultyEasy, fmt.Errorf("unknown difficulty %q", s)
}

func (d Difficulty) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Difficulty) UnmarshalText(b []byte) error {
	v, err := ParseDifficulty(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

type QcmTheme struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// QcmQuestion is a multiple-choice question. Response holds the text of the
// correct option.
type QcmQuestion struct {
	ID         uuid.UUID  `json:"id"`
	Difficulty Difficulty `json:"difficulty"`
	Theme      QcmTheme   `json:"theme"`
	Question   string     `json:"question"`
	Options    [4]string  `json:"options"`
	Response   string     `json:"response"`
}

// Theme is an entry of the theme catalog.
type Theme struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type TeamRecord struct {
	ID      uuid.UUID `json:"id"`
	PartyID uuid.UUID `json:"partyId"`
	Name    string    `json:"name"`
	Score   int       `json:"score"`
}

type PartyRecord struct {
	ID    uuid.UUID    `json:"id"`
	Name  string       `json:"name"`
	Teams []TeamRecord `json:"teams"`
}
