// internal/game/observer.go
//
// Notification contract between the session and any presentation layer.
// The session calls these synchronously from inside the operation that
// caused them; implementations get no handle to mutate session state.

package game

import "time"

// Observer receives every state change a presentation layer needs.
type Observer interface {
	GridChanged(grid Snapshot)
	MovesChanged(moves int)
	ScoreChanged(score int)
	TimerChanged(left time.Duration)
	// CursorChanged shows m as the cursor icon; show=false hides it.
	CursorChanged(m Material, show bool)
	SelectionChanged(m Material)
	ForgeResult(name, art string, success bool)
	ForgeResultCleared()
	// OrderChanged announces the requested recipe; nil means no recipes exist.
	OrderChanged(order *Recipe)
	DeliveryFeedback(success bool)
	// SelectorChanged lists the materials the selector should offer.
	SelectorChanged(materials []Material)
	GameOver(reason string, finalScore int)
}

// NopObserver ignores every notification. Embed it to implement only the
// callbacks you care about.
type NopObserver struct{}

func (NopObserver) GridChanged(Snapshot)             {}
func (NopObserver) MovesChanged(int)                 {}
func (NopObserver) ScoreChanged(int)                 {}
func (NopObserver) TimerChanged(time.Duration)       {}
func (NopObserver) CursorChanged(Material, bool)     {}
func (NopObserver) SelectionChanged(Material)        {}
func (NopObserver) ForgeResult(string, string, bool) {}
func (NopObserver) ForgeResultCleared()              {}
func (NopObserver) OrderChanged(*Recipe)             {}
func (NopObserver) DeliveryFeedback(bool)            {}
func (NopObserver) SelectorChanged([]Material)       {}
func (NopObserver) GameOver(string, int)             {}

// Observers fans every notification out to each member in order.
type Observers []Observer

func (o Observers) GridChanged(g Snapshot) {
	for _, x := range o {
		x.GridChanged(g)
	}
}

func (o Observers) MovesChanged(n int) {
	for _, x := range o {
		x.MovesChanged(n)
	}
}

func (o Observers) ScoreChanged(n int) {
	for _, x := range o {
		x.ScoreChanged(n)
	}
}

func (o Observers) TimerChanged(d time.Duration) {
	for _, x := range o {
		x.TimerChanged(d)
	}
}

func (o Observers) CursorChanged(m Material, show bool) {
	for _, x := range o {
		x.CursorChanged(m, show)
	}
}

func (o Observers) SelectionChanged(m Material) {
	for _, x := range o {
		x.SelectionChanged(m)
	}
}

func (o Observers) ForgeResult(name, art string, success bool) {
	for _, x := range o {
		x.ForgeResult(name, art, success)
	}
}

func (o Observers) ForgeResultCleared() {
	for _, x := range o {
		x.ForgeResultCleared()
	}
}

func (o Observers) OrderChanged(r *Recipe) {
	for _, x := range o {
		x.OrderChanged(r)
	}
}

func (o Observers) DeliveryFeedback(ok bool) {
	for _, x := range o {
		x.DeliveryFeedback(ok)
	}
}

func (o Observers) SelectorChanged(ms []Material) {
	for _, x := range o {
		x.SelectorChanged(ms)
	}
}

func (o Observers) GameOver(reason string, score int) {
	for _, x := range o {
		x.GameOver(reason, score)
	}
}
