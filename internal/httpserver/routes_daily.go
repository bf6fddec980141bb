// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes two endpoints under /daily:
//   - POST /daily/new         → start today's daily room (creates or reuses it)
//   - GET  /daily/leaderboard → top 20 results for today (or a given date)
//
// Play itself goes through the regular /forge/{id}/* routes. Everyone draws
// the same order sequence: the room seed is derived from the date + salt.
// Each player gets one result per day (enforced by the DB unique key); live
// rooms are reused while the player keeps coming back the same day.

package httpserver

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/forgerush/apps/go-server/internal/daily"
	"github.com/robalobadob/forgerush/apps/go-server/internal/room"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv   *Server
	mu    sync.Mutex        // guards rooms
	rooms map[string]string // room IDs keyed by owner|date
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{srv: s, rooms: make(map[string]string)}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// playerID is the key daily results are stored under.
func playerID(o room.Owner) string {
	if o.UserID != "" {
		return o.UserID
	}
	return o.AnonID
}

// newRes is returned by /daily/new.
type newRes struct {
	RoomID string      `json:"roomId,omitempty"`
	Date   string      `json:"date"`
	Played bool        `json:"played"`
	State  *room.State `json:"state,omitempty"`
}

// handleNew creates or reuses the caller's daily room for the current date.
// - If the player already has a result for today → Played=true.
// - Otherwise reuse a live room or open a new one seeded for today.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	s := d.srv
	owner := s.claimOwner(w, r)
	uid := playerID(owner)
	date := daily.DateKey(s.now())

	played, err := s.daily.AlreadyPlayed(r.Context(), uid, date)
	if err != nil {
		log.Error().Err(err).Msg("daily already played")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if played {
		writeJSON(w, http.StatusOK, newRes{Date: date, Played: true})
		return
	}

	key := owner.Key() + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.rooms[key]; ok {
		if rm, err := s.rooms.Get(r.Context(), id); err == nil {
			st := rm.State()
			writeJSON(w, http.StatusOK, newRes{RoomID: id, Date: date, State: &st})
			return
		}
		delete(d.rooms, key)
	}

	rm, err := s.openRoom(owner, room.ModeDaily, daily.Seed(date, s.cfg.DailySalt), func(res room.Result) {
		d.record(uid, date, res)
	})
	if err != nil {
		log.Error().Err(err).Msg("open daily room")
		writeError(w, http.StatusInternalServerError, "room_failed")
		return
	}
	d.rooms[key] = rm.ID()
	st := rm.State()
	writeJSON(w, http.StatusOK, newRes{RoomID: rm.ID(), Date: date, State: &st})
}

// record stores the day's result. Best effort, like every post-game write.
func (d *dailyServer) record(uid, date string, res room.Result) {
	ctx, cancel := d.srv.background()
	defer cancel()
	ok, err := d.srv.daily.InsertResult(ctx, daily.Result{
		UserID:    uid,
		Date:      date,
		Seed:      res.Seed,
		Score:     res.Score,
		Rounds:    res.Rounds,
		ElapsedMs: res.Elapsed().Milliseconds(),
	})
	if err != nil {
		log.Warn().Err(err).Str("room", res.RoomID).Msg("insert daily result")
		return
	}
	if !ok {
		log.Info().Str("room", res.RoomID).Str("date", date).Msg("daily result already recorded")
	}
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := daily.DateKey(d.srv.now())
	if q := r.URL.Query().Get("date"); q != "" {
		var err error
		if date, err = daily.ParseDateKey(q); err != nil {
			writeError(w, http.StatusBadRequest, "bad_date")
			return
		}
	}
	rows, err := d.srv.daily.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
