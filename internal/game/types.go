// internal/game/types.go
//
// Core type definitions for the forge rules engine.
// Defines:
//   - Material: identity of a craftable substance placed on the grid.
//   - Phase: coarse session state (playing / over).
//   - Game-over reasons reported to observers.

package game

import (
	"errors"
	"math"
	"time"
)

// Material identifies a craftable substance. Two materials are the same
// token iff they compare equal; the zero Material means "no material".
type Material struct {
	ID   string // stable identifier used by catalogs and clients
	Name string // display label
	Icon string // art reference for presentation layers
}

// IsZero reports whether m is the empty material.
func (m Material) IsZero() bool { return m.ID == "" }

// Phase is the session state.
type Phase string

const (
	PhasePlaying  Phase = "playing"
	PhaseGameOver Phase = "game_over"
)

// Reasons passed to Observer.GameOver.
const (
	ReasonOutOfMoves = "Out of moves"
	ReasonTimeout    = "Time's up"
)

// Name shown by a failed forge attempt.
const InvalidCraftName = "Invalid Craft"

var (
	ErrInvalidGrid  = errors.New("game: grid width and height must be >= 1")
	ErrInvalidMoves = errors.New("game: starting moves must be >= 0")
)

// CeilSeconds rounds a remaining duration up to whole seconds for display.
func CeilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
