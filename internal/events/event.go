// internal/events/event.go
//
// Event envelopes produced from session notifications.
// Every envelope carries a per-room sequence number so websocket clients
// and journal readers can detect gaps.

package events

import (
	"encoding/json"
	"time"
)

type Type string

const (
	TypeState        Type = "state" // full state view, sent on subscribe
	TypeGrid         Type = "grid"
	TypeMoves        Type = "moves"
	TypeScore        Type = "score"
	TypeTimer        Type = "timer"
	TypeCursor       Type = "cursor"
	TypeSelection    Type = "selection"
	TypeForgeResult  Type = "forge_result"
	TypeForgeCleared Type = "forge_result_cleared"
	TypeOrder        Type = "order"
	TypeDelivery     Type = "delivery"
	TypeSelector     Type = "selector"
	TypeGameOver     Type = "game_over"
	TypeRestart      Type = "restart"
)

// Event is one notification on the wire.
type Event struct {
	Seq     uint64    `json:"seq"`
	Type    Type      `json:"type"`
	Room    string    `json:"room,omitempty"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

// Record is an Event read back from a journal; the payload stays raw.
type Record struct {
	Seq     uint64          `json:"seq"`
	Type    Type            `json:"type"`
	Room    string          `json:"room,omitempty"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payloads.

type MovesPayload struct {
	Moves int `json:"moves"`
}

type ScorePayload struct {
	Score int `json:"score"`
}

type TimerPayload struct {
	Ms      int64 `json:"ms"`
	Seconds int   `json:"seconds"` // rounded up for display
}

type CursorPayload struct {
	Material *MaterialView `json:"material"`
	Show     bool          `json:"show"`
}

type SelectionPayload struct {
	Material *MaterialView `json:"material"`
}

type ForgeResultPayload struct {
	Name    string `json:"name"`
	Art     string `json:"art,omitempty"`
	Success bool   `json:"success"`
}

// OrderPayload has a nil Order when the catalog has no recipes.
type OrderPayload struct {
	Order *RecipeView `json:"order"`
}

type DeliveryPayload struct {
	Correct bool `json:"correct"`
}

type SelectorPayload struct {
	Materials []MaterialView `json:"materials"`
}

type GameOverPayload struct {
	Reason string `json:"reason"`
	Score  int    `json:"score"`
}

// Sink consumes published events. Publish must not block for long: it runs
// while the room lock is held.
type Sink interface {
	Publish(e Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }
