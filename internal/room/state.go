package room

import (
	"encoding/json"

	"github.com/robalobadob/forgerush/apps/go-server/internal/events"
	"github.com/robalobadob/forgerush/apps/go-server/internal/game"
)

// State is the full view of a room returned by every action.
type State struct {
	ID          string               `json:"id"`
	Mode        Mode                 `json:"mode"`
	Seed        int64                `json:"seed"`
	Phase       game.Phase           `json:"phase"`
	Reason      string               `json:"reason,omitempty"`
	Grid        events.GridView      `json:"grid"`
	Moves       int                  `json:"moves"`
	MovesStart  int                  `json:"movesStart"`
	Score       int                  `json:"score"`
	Rounds      int                  `json:"rounds"`
	Selected    *events.MaterialView `json:"selected"`
	Requested   *events.RecipeView   `json:"requested"`
	Pending     *events.RecipeView   `json:"pending"`
	TimeLeftMs  int64                `json:"timeLeftMs"`
	TimeLeftSec int                  `json:"timeLeftSeconds"`
	ServerClock bool                 `json:"serverClock"`
	Seq         uint64               `json:"seq"`
}

func (r *Room) stateLocked() State {
	s := r.sess
	sel, _ := s.Selected()
	left := s.TimeLeft()
	return State{
		ID:          r.id,
		Mode:        r.mode,
		Seed:        r.seed,
		Phase:       s.Phase(),
		Reason:      s.Reason(),
		Grid:        events.ViewGrid(s.Grid()),
		Moves:       s.MovesLeft(),
		MovesStart:  r.tmpl.MovesStart,
		Score:       s.Score(),
		Rounds:      s.Rounds(),
		Selected:    events.ViewMaterial(sel),
		Requested:   events.ViewRecipe(s.Requested()),
		Pending:     events.ViewRecipe(s.Pending()),
		TimeLeftMs:  left.Milliseconds(),
		TimeLeftSec: game.CeilSeconds(left),
		ServerClock: r.serverClock,
		Seq:         r.rec.Seq(),
	}
}

func encodeState(e events.Event) ([]byte, error) {
	return json.Marshal(e)
}
