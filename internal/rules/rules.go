// Package rules holds the vocabulary shared by every game component:
// difficulty levels and the rejection error returned by validation checks.
package rules

import (
	"errors"
	"fmt"
)

// Difficulty selects the balance table used by every component.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty maps a user-supplied string to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case Easy, Medium, Hard:
		return Difficulty(s), nil
	case "":
		return Medium, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Pick returns the value matching d; unknown difficulties use medium.
func Pick[T any](d Difficulty, easy, medium, hard T) T {
	switch d {
	case Easy:
		return easy
	case Hard:
		return hard
	}
	return medium
}

// Rejection is a validation failure. The action did not happen and no
// state was changed; Reason is shown to the player next to the action.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

// Reject builds a Rejection with a formatted reason.
func Reject(format string, args ...any) error {
	return &Rejection{Reason: fmt.Sprintf(format, args...)}
}

// IsRejection reports whether err is a validation rejection and returns its reason.
func IsRejection(err error) (string, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason, true
	}
	return "", false
}

// ErrGameOver is returned by every state-changing command once the game has ended.
var ErrGameOver = errors.New("game is over; start a new game")
