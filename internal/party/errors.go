package party

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")

	ErrPartyNotFound = fmt.Errorf("party %w", ErrNotFound)
	ErrTeamNotFound  = fmt.Errorf("team %w", ErrNotFound)
	ErrThemeNotFound = fmt.Errorf("theme %w", ErrNotFound)
)

var ErrInvalidTeamName = errors.New("team name is required")
