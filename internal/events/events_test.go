package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robalobadob/forgerush/apps/go-server/internal/game"
)

var (
	iron = game.Material{ID: "iron", Name: "Iron Ingot"}
	wood = game.Material{ID: "wood", Name: "Oak Plank"}
)

type collect struct{ events []Event }

func (c *collect) Publish(e Event) { c.events = append(c.events, e) }

func (c *collect) types() []Type {
	out := make([]Type, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

func newSession(t *testing.T, obs game.Observer) *game.Session {
	t.Helper()
	s, err := game.NewSession(game.Config{
		Width:      3,
		Height:     3,
		MovesStart: 5,
		Materials:  game.NewMaterialCatalog([]game.Material{iron, wood}),
		Recipes: game.NewRecipeCatalog([]game.Recipe{
			{ResultName: "Dagger", Width: 1, Height: 1, Pattern: []game.Material{iron}, Points: 10, TimeLimit: 20 * time.Second},
		}),
		Rules:    game.DefaultRules(),
		Rand:     game.NewRand(1),
		Observer: obs,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestRecorderSequencesSessionNotifications(t *testing.T) {
	sink := &collect{}
	rec := NewRecorder("room1", sink)
	s := newSession(t, rec)

	if len(sink.events) == 0 {
		t.Fatalf("no events from session start")
	}
	for i, e := range sink.events {
		if e.Seq != uint64(i+1) || e.Room != "room1" || e.At.IsZero() {
			t.Fatalf("event %d malformed: %+v", i, e)
		}
	}
	if rec.Seq() != uint64(len(sink.events)) {
		t.Fatalf("Seq()=%d want %d", rec.Seq(), len(sink.events))
	}

	sink.events = nil
	s.Place(0, 0)
	s.AttemptForge()
	got := sink.types()
	want := []Type{TypeGrid, TypeMoves, TypeCursor, TypeGrid, TypeForgeResult}
	if len(got) != len(want) {
		t.Fatalf("types %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("types %v want %v", got, want)
		}
	}
	fr := sink.events[4].Payload.(ForgeResultPayload)
	if !fr.Success || fr.Name != "Dagger" {
		t.Fatalf("forge result %+v", fr)
	}
}

func TestRecorderPayloadShapes(t *testing.T) {
	sink := &collect{}
	rec := NewRecorder("r", sink)

	rec.TimerChanged(1500 * time.Millisecond)
	rec.SelectionChanged(game.Material{})
	rec.OrderChanged(nil)
	rec.GameOver(game.ReasonTimeout, 7)

	if p := sink.events[0].Payload.(TimerPayload); p.Ms != 1500 || p.Seconds != 2 {
		t.Fatalf("timer payload %+v", p)
	}
	if p := sink.events[1].Payload.(SelectionPayload); p.Material != nil {
		t.Fatalf("empty selection should encode as null, got %+v", p.Material)
	}
	b, _ := json.Marshal(sink.events[2])
	if !strings.Contains(string(b), `"order":null`) {
		t.Fatalf("order payload %s", b)
	}
	if p := sink.events[3].Payload.(GameOverPayload); p.Reason != "Time's up" || p.Score != 7 {
		t.Fatalf("game over payload %+v", p)
	}
}

func TestViewRecipePattern(t *testing.T) {
	r := &game.Recipe{ResultName: "Staff", Width: 2, Height: 2, Pattern: []game.Material{{}, wood, iron, {}}, TimeLimit: 3 * time.Second}
	v := ViewRecipe(r)
	if v.TimeLimitMs != 3000 || len(v.Pattern) != 2 {
		t.Fatalf("view %+v", v)
	}
	if v.Pattern[0][1] != "wood" || v.Pattern[1][0] != "iron" || v.Pattern[0][0] != "" {
		t.Fatalf("pattern %v", v.Pattern)
	}
	if ViewRecipe(nil) != nil {
		t.Fatalf("nil recipe should have nil view")
	}
}

func TestHubFanOutAndDropSlow(t *testing.T) {
	h := NewHub()
	fast := h.Subscribe(4, []byte("hello"))
	slow := h.Subscribe(1)

	h.Broadcast([]byte("a"))
	h.Broadcast([]byte("b")) // slow queue is full: dropped

	if h.Len() != 1 {
		t.Fatalf("Len=%d want 1", h.Len())
	}
	for _, want := range []string{"hello", "a", "b"} {
		if got := string(<-fast.C); got != want {
			t.Fatalf("fast got %q want %q", got, want)
		}
	}
	if got := string(<-slow.C); got != "a" {
		t.Fatalf("slow got %q", got)
	}
	if _, ok := <-slow.C; ok {
		t.Fatalf("slow channel should be closed")
	}

	fast.Close()
	fast.Close()
	if h.Len() != 0 {
		t.Fatalf("Len=%d after close", h.Len())
	}
}

func TestHubClose(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(0)
	h.Close()
	if _, ok := <-sub.C; ok {
		t.Fatalf("expected closed channel")
	}
	late := h.Subscribe(0, []byte("x"))
	if got := string(<-late.C); got != "x" {
		t.Fatalf("initial message lost: %q", got)
	}
	if _, ok := <-late.C; ok {
		t.Fatalf("subscription after close should be closed")
	}
}

func TestServeWSStreamsEvents(t *testing.T) {
	h := NewHub()
	rec := NewRecorder("ws", h)
	up := NewUpgrader("")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(up, w, r, h.Subscribe(0, []byte(`{"type":"state"}`)))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	_, first, err := conn.ReadMessage()
	if err != nil || !strings.Contains(string(first), "state") {
		t.Fatalf("first message %q err=%v", first, err)
	}

	// The subscriber is registered before the handler starts pumping.
	deadline := time.Now().Add(2 * time.Second)
	for h.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	rec.ScoreChanged(42)

	var e Record
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("read: %v", err)
	}
	if e.Type != TypeScore || e.Seq != 1 || string(e.Payload) != `{"score":42}` {
		t.Fatalf("event %+v payload=%s", e, e.Payload)
	}
}

func TestNewUpgraderOrigin(t *testing.T) {
	up := NewUpgrader("http://app.test")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if !up.CheckOrigin(req) {
		t.Fatalf("missing origin should pass")
	}
	req.Header.Set("Origin", "http://evil.test")
	if up.CheckOrigin(req) {
		t.Fatalf("foreign origin accepted")
	}
	req.Header.Set("Origin", "http://app.test")
	if !up.CheckOrigin(req) {
		t.Fatalf("configured origin rejected")
	}
}
