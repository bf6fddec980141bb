// internal/game/session.go
//
// Session state machine for one forge game.
// Responsibilities:
//   - Apply player intents (select, place, remove, forge, deliver).
//   - Run the order lifecycle: draw a recipe, reset grid/moves/timer.
//   - Score deliveries and penalize failed forge attempts.
//   - Enforce defeat conditions (out of moves, timeout).
//
// State transitions:
//   - playing → game_over, only through an enabled defeat condition.
//   - game_over is terminal: every mutating call becomes a no-op.
//
// Notes:
//   - A Session is not safe for concurrent use; hosts serialize calls.
//   - Time only advances through AdvanceTime; no clock is read here.
//   - Restarting means building a new Session.

package game

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config describes a session. Catalogs and rules are shared read-only.
type Config struct {
	Width      int
	Height     int
	MovesStart int

	Materials *MaterialCatalog
	Recipes   *RecipeCatalog
	Rules     Rules

	// Rand draws orders. Nil seeds a generator from the wall clock.
	Rand Rand
	// Observer receives notifications. Nil discards them.
	Observer Observer
	// AutoSelectRequired selects the first required material of every new order.
	AutoSelectRequired bool

	Logger *zerolog.Logger
}

// Session owns the grid and all per-game state.
type Session struct {
	cfg  Config
	obs  Observer
	log  zerolog.Logger
	rng  Rand
	grid *Grid

	moves     int
	score     int
	selected  Material
	requested *Recipe
	pending   *Recipe
	timeLeft  time.Duration
	rounds    int

	phase  Phase
	reason string
}

// NewSession builds a session and starts its first round. Observer
// notifications for the initial state are delivered before it returns.
func NewSession(cfg Config) (*Session, error) {
	grid, err := NewGrid(cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	if cfg.MovesStart < 0 {
		return nil, fmt.Errorf("new session: %w", ErrInvalidMoves)
	}
	s := &Session{
		cfg:   cfg,
		obs:   cfg.Observer,
		rng:   cfg.Rand,
		grid:  grid,
		moves: cfg.MovesStart,
		phase: PhasePlaying,
		log:   zerolog.Nop(),
	}
	if s.obs == nil {
		s.obs = NopObserver{}
	}
	if s.rng == nil {
		s.rng = NewRand(time.Now().UnixNano())
	}
	if cfg.Logger != nil {
		s.log = *cfg.Logger
	}

	s.obs.GridChanged(s.grid.Snapshot())
	s.obs.MovesChanged(s.moves)
	s.obs.ScoreChanged(s.score)
	if m, ok := cfg.Materials.First(); ok {
		s.SelectMaterial(m)
	}
	s.startNewRound()
	return s, nil
}

// --- accessors ---

func (s *Session) Phase() Phase            { return s.phase }
func (s *Session) IsOver() bool            { return s.phase == PhaseGameOver }
func (s *Session) MovesLeft() int          { return s.moves }
func (s *Session) Score() int              { return s.score }
func (s *Session) TimeLeft() time.Duration { return s.timeLeft }
func (s *Session) Rounds() int             { return s.rounds }
func (s *Session) Grid() Snapshot          { return s.grid.Snapshot() }
func (s *Session) Rules() Rules            { return s.cfg.Rules }

// Reason is the game-over reason, empty while playing.
func (s *Session) Reason() string { return s.reason }

// Selected returns the selected material; ok is false when none is selected.
func (s *Session) Selected() (Material, bool) { return s.selected, !s.selected.IsZero() }

// Requested is a copy of the active order, nil when the recipe catalog is
// empty.
func (s *Session) Requested() *Recipe { return s.requested.clone() }

// Pending is a copy of the last forged, undelivered recipe.
func (s *Session) Pending() *Recipe { return s.pending.clone() }

// --- player intents ---

// SelectMaterial sets the selection without checking it against the order.
// The zero Material clears it.
func (s *Session) SelectMaterial(m Material) {
	if s.IsOver() {
		return
	}
	s.selected = m
	s.obs.SelectionChanged(m)
	s.obs.CursorChanged(m, !m.IsZero())
}

// Place puts the selected material at (x,y), spending one move. It reports
// whether a move was spent.
func (s *Session) Place(x, y int) bool {
	if s.IsOver() || s.selected.IsZero() {
		return false
	}
	if !s.canSpendMove() {
		return false
	}
	if !s.grid.Place(x, y, s.selected) {
		return false
	}
	s.spendMove()
	return true
}

// Remove empties the occupied cell at (x,y), spending one move.
func (s *Session) Remove(x, y int) bool {
	if s.IsOver() || !s.canSpendMove() {
		return false
	}
	if !s.grid.ClearCell(x, y) {
		return false
	}
	s.spendMove()
	return true
}

// AttemptForge matches the current grid against every known recipe,
// regardless of the order. A match clears the grid and becomes the pending
// craft; a miss costs the wrong-forge penalty and leaves any earlier
// pending craft in place, so a bad forge never destroys finished work.
// Moves and the round are never affected.
func (s *Session) AttemptForge() bool {
	if s.IsOver() {
		return false
	}
	s.obs.CursorChanged(Material{}, false)

	match := s.cfg.Recipes.FindMatch(s.grid)
	if match == nil {
		s.score = s.cfg.Rules.clamp(s.score - s.cfg.Rules.WrongForgePenalty)
		s.obs.ScoreChanged(s.score)
		s.obs.ForgeResult(InvalidCraftName, "", false)
		return false
	}

	s.grid.ClearAll()
	s.obs.GridChanged(s.grid.Snapshot())
	s.pending = match
	s.obs.ForgeResult(match.ResultName, match.Art, true)
	return true
}

// Deliver hands the pending craft in against the order. A matching result
// name earns the order's points; a mismatch earns nothing and costs
// nothing. Any delivery starts the next round. It reports whether the
// delivery was correct.
func (s *Session) Deliver() bool {
	if s.IsOver() {
		return false
	}
	if s.pending == nil {
		s.obs.DeliveryFeedback(false)
		return false
	}

	correct := s.requested != nil && s.pending.ResultName == s.requested.ResultName
	if correct {
		s.score = s.cfg.Rules.clamp(s.score + s.requested.Points)
		s.obs.ScoreChanged(s.score)
	}
	s.obs.DeliveryFeedback(correct)

	if s.IsOver() {
		return correct
	}
	s.pending = nil
	s.finishRound()
	return correct
}

// AdvanceTime runs the order timer down by dt. When it reaches zero the
// timeout rule applies; with no timeout rule the round stays frozen at zero.
func (s *Session) AdvanceTime(dt time.Duration) {
	if s.IsOver() || s.requested == nil || dt <= 0 || s.timeLeft <= 0 {
		return
	}
	s.timeLeft -= dt
	if s.timeLeft < 0 {
		s.timeLeft = 0
	}
	s.obs.TimerChanged(s.timeLeft)
	if s.timeLeft > 0 {
		return
	}

	switch {
	case s.cfg.Rules.DefeatOnTimeout:
		s.gameOver(ReasonTimeout)
	case s.cfg.Rules.NewOrderOnTimeout:
		s.obs.DeliveryFeedback(false)
		s.finishRound()
	}
}

// --- internals ---

// canSpendMove triggers the out-of-moves defeat when acting with none left.
func (s *Session) canSpendMove() bool {
	if s.moves > 0 {
		return true
	}
	if s.cfg.Rules.DefeatOnOutOfMoves {
		s.gameOver(ReasonOutOfMoves)
	}
	return false
}

func (s *Session) spendMove() {
	s.moves--
	s.obs.GridChanged(s.grid.Snapshot())
	s.obs.MovesChanged(s.moves)
	if s.moves == 0 && s.cfg.Rules.DefeatOnOutOfMoves {
		s.gameOver(ReasonOutOfMoves)
	}
}

// finishRound clears the forge result, restores the cursor and draws the
// next order.
func (s *Session) finishRound() {
	s.obs.ForgeResultCleared()
	if !s.selected.IsZero() {
		s.obs.CursorChanged(s.selected, true)
	}
	s.startNewRound()
}

func (s *Session) startNewRound() {
	if s.IsOver() {
		return
	}
	s.requested = s.cfg.Recipes.PickRandom(s.rng)
	s.pending = nil
	s.rounds++

	s.grid.ClearAll()
	s.obs.GridChanged(s.grid.Snapshot())
	s.moves = s.cfg.MovesStart
	s.obs.MovesChanged(s.moves)
	s.obs.ForgeResultCleared()

	if s.requested == nil {
		s.timeLeft = 0
		s.obs.OrderChanged(nil)
		s.obs.TimerChanged(0)
		s.obs.SelectorChanged(s.cfg.Materials.All())
		s.log.Debug().Int("round", s.rounds).Msg("no recipes to order")
		return
	}

	s.timeLeft = max(time.Second, s.requested.TimeLimit)
	s.obs.OrderChanged(s.requested)
	s.obs.TimerChanged(s.timeLeft)

	required := s.requested.RequiredMaterials()
	if len(required) == 0 {
		s.obs.SelectorChanged(s.cfg.Materials.All())
	} else {
		s.obs.SelectorChanged(required)
		if s.cfg.AutoSelectRequired {
			s.SelectMaterial(required[0])
		}
	}
	s.log.Debug().
		Int("round", s.rounds).
		Str("order", s.requested.ResultName).
		Dur("time_limit", s.timeLeft).
		Msg("new order")
}

// gameOver enters the terminal phase once; later triggers are ignored.
func (s *Session) gameOver(reason string) {
	if s.IsOver() {
		return
	}
	s.phase = PhaseGameOver
	s.reason = reason
	s.log.Info().Str("reason", reason).Int("score", s.score).Int("rounds", s.rounds).Msg("game over")
	s.obs.GameOver(reason, s.score)
}
