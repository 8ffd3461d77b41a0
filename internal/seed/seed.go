// Package seed reads the question sheets used to fill the question bank.
//
// A sheet is a CSV file whose first line is a header. Every following line
// has eight columns: theme, difficulty, question, four options and the text
// of the correct option.
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/playperu/speedgame/internal/speedgame"
)

const columns = 8

var ErrInvalidRow = errors.New("invalid question row")

// ParseQuestions reads a whole sheet. Any malformed line rejects the sheet.
func ParseQuestions(r io.Reader) ([]speedgame.QcmQuestion, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		questions []speedgame.QcmQuestion
		header    = true
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading questions: %w", err)
		}
		if header {
			header = false
			continue
		}

		line, _ := cr.FieldPos(0)
		q, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func parseRow(rec []string) (speedgame.QcmQuestion, error) {
	if len(rec) != columns {
		return speedgame.QcmQuestion{}, fmt.Errorf("%w: got %d columns, want %d", ErrInvalidRow, len(rec), columns)
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}

	difficulty, err := speedgame.ParseDifficulty(rec[1])
	if err != nil {
		return speedgame.QcmQuestion{}, fmt.Errorf("%w: %w", ErrInvalidRow, err)
	}
	if rec[0] == "" || rec[2] == "" {
		return speedgame.QcmQuestion{}, fmt.Errorf("%w: theme and question are required", ErrInvalidRow)
	}

	return speedgame.QcmQuestion{
		ID:         uuid.New(),
		Difficulty: difficulty,
		Theme:      speedgame.QcmTheme{Name: rec[0]},
		Question:   rec[2],
		Options:    [4]string{rec[3], rec[4], rec[5], rec[6]},
		Response:   rec[7],
	}, nil
}
