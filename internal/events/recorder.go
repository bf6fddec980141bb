package events

import (
	"sync/atomic"
	"time"

	"github.com/robalobadob/forgerush/apps/go-server/internal/game"
)

// Recorder implements game.Observer by turning each notification into an
// Event and handing it to every sink in order.
type Recorder struct {
	room  string
	seq   atomic.Uint64
	now   func() time.Time
	sinks []Sink
}

var _ game.Observer = (*Recorder)(nil)

// NewRecorder stamps events with room and forwards them to sinks.
func NewRecorder(room string, sinks ...Sink) *Recorder {
	return &Recorder{room: room, now: time.Now, sinks: sinks}
}

// Seq returns the sequence number of the last emitted event.
func (r *Recorder) Seq() uint64 { return r.seq.Load() }

// Emit publishes an event that did not come from the session, such as the
// initial state snapshot or a restart marker.
func (r *Recorder) Emit(t Type, payload any) Event {
	e := Event{
		Seq:     r.seq.Add(1),
		Type:    t,
		Room:    r.room,
		At:      r.now().UTC(),
		Payload: payload,
	}
	for _, s := range r.sinks {
		s.Publish(e)
	}
	return e
}

func (r *Recorder) GridChanged(g game.Snapshot) { r.Emit(TypeGrid, ViewGrid(g)) }
func (r *Recorder) MovesChanged(n int)          { r.Emit(TypeMoves, MovesPayload{Moves: n}) }
func (r *Recorder) ScoreChanged(n int)          { r.Emit(TypeScore, ScorePayload{Score: n}) }

func (r *Recorder) TimerChanged(left time.Duration) {
	r.Emit(TypeTimer, TimerPayload{Ms: left.Milliseconds(), Seconds: game.CeilSeconds(left)})
}

func (r *Recorder) CursorChanged(m game.Material, show bool) {
	r.Emit(TypeCursor, CursorPayload{Material: ViewMaterial(m), Show: show})
}

func (r *Recorder) SelectionChanged(m game.Material) {
	r.Emit(TypeSelection, SelectionPayload{Material: ViewMaterial(m)})
}

func (r *Recorder) ForgeResult(name, art string, success bool) {
	r.Emit(TypeForgeResult, ForgeResultPayload{Name: name, Art: art, Success: success})
}

func (r *Recorder) ForgeResultCleared() { r.Emit(TypeForgeCleared, nil) }

func (r *Recorder) OrderChanged(order *game.Recipe) {
	r.Emit(TypeOrder, OrderPayload{Order: ViewRecipe(order)})
}

func (r *Recorder) DeliveryFeedback(ok bool) {
	r.Emit(TypeDelivery, DeliveryPayload{Correct: ok})
}

func (r *Recorder) SelectorChanged(ms []game.Material) {
	r.Emit(TypeSelector, SelectorPayload{Materials: ViewMaterials(ms)})
}

func (r *Recorder) GameOver(reason string, score int) {
	r.Emit(TypeGameOver, GameOverPayload{Reason: reason, Score: score})
}
