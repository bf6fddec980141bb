// internal/room/room.go
//
// A Room hosts one forge session for one owner.
// Responsibilities:
//   - Serialize every call into the session (the session itself is not
//     goroutine-safe; HTTP handlers, websocket subscribers and the server
//     clock all go through the room lock).
//   - Turn session notifications into events for the websocket hub and,
//     optionally, the on-disk journal.
//   - Restart by building a fresh session from the same template.
//   - Report the final result exactly once per session via OnGameOver.
//
// Notes:
//   - OnGameOver runs after the lock is released, on the goroutine that
//     caused the game over.
//   - Daily rooms keep their seed and cannot be restarted.

package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/forgerush/apps/go-server/internal/events"
	"github.com/robalobadob/forgerush/apps/go-server/internal/game"
)

type Mode string

const (
	ModeNormal Mode = "normal"
	ModeDaily  Mode = "daily"
)

// ReasonAbandoned ends a session that was closed before game over.
const ReasonAbandoned = "Abandoned"

var (
	ErrUnknownMaterial = errors.New("unknown material")
	ErrServerClock     = errors.New("room time is driven by the server clock")
	ErrNoRestart       = errors.New("daily rooms cannot be restarted")
	ErrClosed          = errors.New("room closed")
)

// Owner identifies who may act on a room: a signed-in user or an
// anonymous cookie holder.
type Owner struct {
	UserID string
	AnonID string
}

// Key is a stable identifier for the owner.
func (o Owner) Key() string {
	if o.UserID != "" {
		return "u:" + o.UserID
	}
	return "a:" + o.AnonID
}

// Result is the final state of one finished session.
type Result struct {
	RoomID    string
	Owner     Owner
	Mode      Mode
	Seed      int64
	Score     int
	Rounds    int
	Reason    string
	StartedAt time.Time
	EndedAt   time.Time
}

func (r Result) Elapsed() time.Duration { return r.EndedAt.Sub(r.StartedAt) }

// Options configure a new room.
type Options struct {
	ID    string
	Owner Owner
	Mode  Mode
	// Seed drives order selection. Zero picks one from the wall clock.
	Seed int64
	// Game is the session template; Rand, Observer and Logger are set by the room.
	Game game.Config
	// JournalDir enables the event journal when non-empty.
	JournalDir string
	// ServerClock makes Tick return ErrServerClock; time then comes from Run.
	ServerClock bool
	OnGameOver  func(Result)
	// OnAbandon runs when the room closes with its session still in play.
	// The result carries ReasonAbandoned.
	OnAbandon func(Result)
	Now       func() time.Time
}

// Room is safe for concurrent use.
type Room struct {
	mu sync.Mutex

	id          string
	owner       Owner
	mode        Mode
	seed        int64
	tmpl        game.Config
	serverClock bool
	onGameOver  func(Result)
	onAbandon   func(Result)
	now         func() time.Time
	log         zerolog.Logger

	sess       *game.Session
	rec        *events.Recorder
	hub        *events.Hub
	journal    *events.Journal
	startedAt  time.Time
	lastActive time.Time
	reported   bool
	closed     bool
	done       chan struct{}
}

// New creates the room and starts its first session.
func New(opts Options) (*Room, error) {
	if opts.ID == "" {
		return nil, errors.New("room: empty id")
	}
	if opts.Mode == "" {
		opts.Mode = ModeNormal
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Seed == 0 {
		opts.Seed = opts.Now().UnixNano()
	}

	r := &Room{
		id:          opts.ID,
		owner:       opts.Owner,
		mode:        opts.Mode,
		seed:        opts.Seed,
		tmpl:        opts.Game,
		serverClock: opts.ServerClock,
		onGameOver:  opts.OnGameOver,
		onAbandon:   opts.OnAbandon,
		now:         opts.Now,
		log:         log.With().Str("room", opts.ID).Str("mode", string(opts.Mode)).Logger(),
		hub:         events.NewHub(),
		done:        make(chan struct{}),
	}

	sinks := []events.Sink{r.hub}
	if opts.JournalDir != "" {
		j, err := events.OpenJournal(opts.JournalDir, opts.ID)
		if err != nil {
			// The journal is optional; play continues without it.
			r.log.Warn().Err(err).Msg("journal disabled")
		} else {
			r.journal = j
			sinks = append(sinks, j)
		}
	}
	r.rec = events.NewRecorder(opts.ID, sinks...)

	if err := r.startSessionLocked(); err != nil {
		r.closeSinks()
		return nil, err
	}
	return r, nil
}

func (r *Room) startSessionLocked() error {
	cfg := r.tmpl
	cfg.Rand = game.NewRand(r.seed)
	cfg.Observer = r.rec
	cfg.Logger = &r.log

	now := r.now()
	sess, err := game.NewSession(cfg)
	if err != nil {
		return fmt.Errorf("room %s: %w", r.id, err)
	}
	r.sess = sess
	r.startedAt = now
	r.lastActive = now
	r.reported = false
	return nil
}

// --- identity ---

func (r *Room) ID() string        { return r.id }
func (r *Room) Owner() Owner      { return r.owner }
func (r *Room) Mode() Mode        { return r.mode }
func (r *Room) Seed() int64       { return r.seed }
func (r *Room) Hub() *events.Hub  { return r.hub }
func (r *Room) ServerClock() bool { return r.serverClock }

// OwnedBy reports whether o may act on the room.
func (r *Room) OwnedBy(o Owner) bool {
	if r.owner.UserID != "" {
		return o.UserID == r.owner.UserID
	}
	return r.owner.AnonID != "" && o.AnonID == r.owner.AnonID
}

// LastActive is the time of the last player action or clock tick.
func (r *Room) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

// --- actions ---

// do runs fn under the lock and returns the state it left behind. A game
// over caused by fn is reported after the lock is released.
func (r *Room) do(fn func(s *game.Session) error) (State, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return State{}, ErrClosed
	}
	err := fn(r.sess)
	r.lastActive = r.now()
	st := r.stateLocked()
	res, report := r.pendingResultLocked()
	r.mu.Unlock()

	if report && r.onGameOver != nil {
		r.onGameOver(res)
	}
	return st, err
}

func (r *Room) pendingResultLocked() (Result, bool) {
	if r.reported || !r.sess.IsOver() {
		return Result{}, false
	}
	r.reported = true
	return Result{
		RoomID:    r.id,
		Owner:     r.owner,
		Mode:      r.mode,
		Seed:      r.seed,
		Score:     r.sess.Score(),
		Rounds:    r.sess.Rounds(),
		Reason:    r.sess.Reason(),
		StartedAt: r.startedAt,
		EndedAt:   r.lastActive,
	}, true
}

// State returns the current state view.
func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

// Select resolves id against the material catalog and selects it. An empty
// id clears the selection.
func (r *Room) Select(id string) (State, error) {
	return r.do(func(s *game.Session) error {
		if id == "" {
			s.SelectMaterial(game.Material{})
			return nil
		}
		m, ok := r.tmpl.Materials.ByID(id)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownMaterial, id)
		}
		s.SelectMaterial(m)
		return nil
	})
}

// Place reports whether a token was placed.
func (r *Room) Place(x, y int) (bool, State, error) {
	var ok bool
	st, err := r.do(func(s *game.Session) error { ok = s.Place(x, y); return nil })
	return ok, st, err
}

// Remove reports whether a token was removed.
func (r *Room) Remove(x, y int) (bool, State, error) {
	var ok bool
	st, err := r.do(func(s *game.Session) error { ok = s.Remove(x, y); return nil })
	return ok, st, err
}

// Forge reports whether the grid matched a recipe.
func (r *Room) Forge() (bool, State, error) {
	var ok bool
	st, err := r.do(func(s *game.Session) error { ok = s.AttemptForge(); return nil })
	return ok, st, err
}

// Deliver reports whether the delivery matched the order.
func (r *Room) Deliver() (bool, State, error) {
	var ok bool
	st, err := r.do(func(s *game.Session) error { ok = s.Deliver(); return nil })
	return ok, st, err
}

// Tick advances the order timer on behalf of a client-driven room.
func (r *Room) Tick(dt time.Duration) (State, error) {
	if r.serverClock {
		return r.State(), ErrServerClock
	}
	return r.do(func(s *game.Session) error { s.AdvanceTime(dt); return nil })
}

// Restart replaces the session with a fresh one built from the same
// template and seed.
func (r *Room) Restart() (State, error) {
	if r.mode == ModeDaily {
		return r.State(), ErrNoRestart
	}
	return r.do(func(*game.Session) error {
		r.rec.Emit(events.TypeRestart, nil)
		return r.startSessionLocked()
	})
}

// Subscribe registers a websocket subscriber whose first message is the
// full state view, so it never misses events in between.
func (r *Room) Subscribe(queue int) (*events.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	hello, err := encodeState(events.Event{
		Seq:     r.rec.Seq(),
		Type:    events.TypeState,
		Room:    r.id,
		At:      r.now().UTC(),
		Payload: r.stateLocked(),
	})
	if err != nil {
		return nil, err
	}
	return r.hub.Subscribe(queue, hello), nil
}

// Run advances the session from the wall clock every interval until ctx is
// done or the room closes. It is a no-op unless the room uses the server clock.
func (r *Room) Run(ctx context.Context, interval time.Duration) {
	if !r.serverClock || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	last := r.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-t.C:
			now := r.now()
			dt := now.Sub(last)
			last = now
			if _, err := r.do(func(s *game.Session) error { s.AdvanceTime(dt); return nil }); err != nil {
				return
			}
		}
	}
}

// Close disconnects subscribers and flushes the journal. Further actions
// return ErrClosed. A session still in play is reported to OnAbandon.
func (r *Room) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.done)
	r.closeSinks()
	res, abandoned := r.abandonedResultLocked()
	r.mu.Unlock()

	if abandoned && r.onAbandon != nil {
		r.onAbandon(res)
	}
}

func (r *Room) abandonedResultLocked() (Result, bool) {
	if r.reported || r.sess.IsOver() {
		return Result{}, false
	}
	r.reported = true
	return Result{
		RoomID:    r.id,
		Owner:     r.owner,
		Mode:      r.mode,
		Seed:      r.seed,
		Score:     r.sess.Score(),
		Rounds:    r.sess.Rounds(),
		Reason:    ReasonAbandoned,
		StartedAt: r.startedAt,
		EndedAt:   r.lastActive,
	}, true
}

func (r *Room) closeSinks() {
	r.hub.Close()
	if r.journal != nil {
		if err := r.journal.Close(); err != nil {
			r.log.Warn().Err(err).Msg("close journal")
		}
	}
}
