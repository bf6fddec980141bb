// internal/httpserver/routes_forge.go
//
// HTTP routes for forge rooms, mounted under /forge:
//   - POST /forge/new             → create a room (optional {seed})
//   - GET  /forge/{id}            → state view
//   - POST /forge/{id}/select     → {materialId}; unknown ids get a suggestion
//   - POST /forge/{id}/place      → {x,y}
//   - POST /forge/{id}/remove     → {x,y}
//   - POST /forge/{id}/forge      → attempt the grid against the recipes
//   - POST /forge/{id}/deliver    → hand the pending craft in
//   - POST /forge/{id}/tick       → {ms}; only for client-driven clocks
//   - POST /forge/{id}/restart    → fresh session, same seed
//   - GET  /forge/{id}/events     → websocket event stream
//
// Only the room owner may read or act on a room. Every action answers with
// the full state view so clients never have to replay events.

package httpserver

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/forgerush/apps/go-server/internal/accounts"
	"github.com/robalobadob/forgerush/apps/go-server/internal/catalog"
	"github.com/robalobadob/forgerush/apps/go-server/internal/events"
	"github.com/robalobadob/forgerush/apps/go-server/internal/game"
	"github.com/robalobadob/forgerush/apps/go-server/internal/room"
	"github.com/robalobadob/forgerush/apps/go-server/internal/store"
)

func (s *Server) mountForge(r chi.Router) {
	r.Route("/forge", func(r chi.Router) {
		r.Post("/new", s.handleNewRoom)
		r.Get("/{id}", s.handleGetRoom)
		r.Post("/{id}/select", s.handleSelect)
		r.Post("/{id}/place", s.handleCell((*room.Room).Place))
		r.Post("/{id}/remove", s.handleCell((*room.Room).Remove))
		r.Post("/{id}/forge", s.handleAction((*room.Room).Forge))
		r.Post("/{id}/deliver", s.handleAction((*room.Room).Deliver))
		r.Post("/{id}/tick", s.handleTick)
		r.Post("/{id}/restart", s.handleRestart)
	})
}

// gameConfig is the session template shared by every new room.
func (s *Server) gameConfig() game.Config {
	return game.Config{
		Width:              s.cfg.GridSize,
		Height:             s.cfg.GridSize,
		MovesStart:         s.cfg.MovesStart,
		Materials:          s.cat.Materials,
		Recipes:            s.cat.Recipes,
		Rules:              s.cat.Rules,
		AutoSelectRequired: s.cfg.AutoSelect,
	}
}

// openRoom creates, registers and records a room. onEnd runs after the game
// row is finished, and also when the room is closed mid-game.
func (s *Server) openRoom(owner room.Owner, mode room.Mode, seed int64, onEnd func(room.Result)) (*room.Room, error) {
	rm, err := room.New(room.Options{
		ID:          accounts.NewID(),
		Owner:       owner,
		Mode:        mode,
		Seed:        seed,
		Game:        s.gameConfig(),
		JournalDir:  s.cfg.JournalDir,
		ServerClock: s.cfg.ServerClock(),
		OnGameOver: func(res room.Result) {
			s.finishGame(res)
			if onEnd != nil {
				onEnd(res)
			}
		},
		OnAbandon: onEnd,
	})
	if err != nil {
		return nil, err
	}
	if err := s.rooms.Save(s.ctx, rm); err != nil {
		rm.Close()
		return nil, err
	}
	s.startGame(rm)
	if rm.ServerClock() {
		go rm.Run(s.ctx, s.cfg.TickInterval)
	}
	log.Info().Str("room", rm.ID()).Str("mode", string(mode)).Int64("seed", rm.Seed()).Msg("room opened")
	return rm, nil
}

// startGame writes the game row. Best effort: play never waits on the DB.
func (s *Server) startGame(rm *room.Room) {
	ctx, cancel := s.background()
	defer cancel()
	o := rm.Owner()
	if err := s.users.StartGame(ctx, accounts.GameStart{
		ID:        rm.ID(),
		UserID:    o.UserID,
		AnonID:    o.AnonID,
		Mode:      string(rm.Mode()),
		StartedAt: s.now(),
	}); err != nil {
		log.Warn().Err(err).Str("room", rm.ID()).Msg("insert game row")
	}
}

// finishGame stores the final score and bumps the owner's stats.
func (s *Server) finishGame(res room.Result) {
	ctx, cancel := s.background()
	defer cancel()
	if err := s.users.FinishGame(ctx, accounts.GameEnd{
		ID:         res.RoomID,
		UserID:     res.Owner.UserID,
		Score:      res.Score,
		Rounds:     res.Rounds,
		Reason:     res.Reason,
		FinishedAt: res.EndedAt,
	}); err != nil {
		log.Warn().Err(err).Str("room", res.RoomID).Msg("finish game")
	}
	log.Info().Str("room", res.RoomID).Int("score", res.Score).Int("rounds", res.Rounds).
		Str("reason", res.Reason).Dur("elapsed", res.Elapsed()).Msg("game over")
}

// roomFor loads the {id} room and checks ownership, writing the error
// response itself when it fails.
func (s *Server) roomFor(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	rm, err := s.rooms.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error")
		return nil, false
	}
	if !rm.OwnedBy(s.ownerOf(r)) {
		writeError(w, http.StatusForbidden, "forbidden")
		return nil, false
	}
	return rm, true
}

// writeRoomError maps room errors to responses. It reports whether err was nil.
func writeRoomError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, room.ErrClosed):
		writeError(w, http.StatusGone, "room_closed")
	case errors.Is(err, room.ErrServerClock):
		writeError(w, http.StatusConflict, "server_clock")
	case errors.Is(err, room.ErrNoRestart):
		writeError(w, http.StatusConflict, "no_restart")
	default:
		log.Error().Err(err).Msg("room action")
		writeError(w, http.StatusInternalServerError, "room_error")
	}
	return false
}

type newRoomReq struct {
	Seed int64 `json:"seed"` // optional; zero picks one
}

type roomRes struct {
	RoomID string     `json:"roomId"`
	State  room.State `json:"state"`
}

type actionRes struct {
	OK    bool       `json:"ok"`
	State room.State `json:"state"`
}

func (s *Server) handleNewRoom(w http.ResponseWriter, r *http.Request) {
	var req newRoomReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	rm, err := s.openRoom(s.claimOwner(w, r), room.ModeNormal, req.Seed, nil)
	if err != nil {
		log.Error().Err(err).Msg("open room")
		writeError(w, http.StatusInternalServerError, "room_failed")
		return
	}
	writeJSON(w, http.StatusOK, roomRes{RoomID: rm.ID(), State: rm.State()})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	if rm, ok := s.roomFor(w, r); ok {
		writeJSON(w, http.StatusOK, rm.State())
	}
}

type selectReq struct {
	MaterialID string `json:"materialId"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.roomFor(w, r)
	if !ok {
		return
	}
	var req selectReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	st, err := rm.Select(req.MaterialID)
	if errors.Is(err, room.ErrUnknownMaterial) {
		writeUnknownMaterial(w, s.cat, req.MaterialID)
		return
	}
	if writeRoomError(w, err) {
		writeJSON(w, http.StatusOK, actionRes{OK: true, State: st})
	}
}

func writeUnknownMaterial(w http.ResponseWriter, cat *catalog.Catalog, id string) {
	body := map[string]string{"error": "unknown_material"}
	if best, ok := cat.Suggest(id); ok {
		body["suggestion"] = best
	}
	writeJSON(w, http.StatusBadRequest, body)
}

type cellReq struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func (s *Server) handleCell(act func(*room.Room, int, int) (bool, room.State, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, ok := s.roomFor(w, r)
		if !ok {
			return
		}
		var req cellReq
		if err := decodeBody(r, &req); err != nil || req.X == nil || req.Y == nil {
			writeError(w, http.StatusBadRequest, "bad_cell")
			return
		}
		done, st, err := act(rm, *req.X, *req.Y)
		if writeRoomError(w, err) {
			writeJSON(w, http.StatusOK, actionRes{OK: done, State: st})
		}
	}
}

func (s *Server) handleAction(act func(*room.Room) (bool, room.State, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, ok := s.roomFor(w, r)
		if !ok {
			return
		}
		done, st, err := act(rm)
		if writeRoomError(w, err) {
			writeJSON(w, http.StatusOK, actionRes{OK: done, State: st})
		}
	}
}

type tickReq struct {
	Ms int64 `json:"ms"`
}

// maxTickMs is the largest step that fits in a time.Duration.
const maxTickMs = math.MaxInt64 / int64(time.Millisecond)

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.roomFor(w, r)
	if !ok {
		return
	}
	var req tickReq
	if err := decodeBody(r, &req); err != nil || req.Ms < 0 || req.Ms > maxTickMs {
		writeError(w, http.StatusBadRequest, "bad_tick")
		return
	}
	st, err := rm.Tick(time.Duration(req.Ms) * time.Millisecond)
	if writeRoomError(w, err) {
		writeJSON(w, http.StatusOK, actionRes{OK: true, State: st})
	}
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.roomFor(w, r)
	if !ok {
		return
	}
	st, err := rm.Restart()
	if !writeRoomError(w, err) {
		return
	}
	s.startGame(rm)
	writeJSON(w, http.StatusOK, actionRes{OK: true, State: st})
}

// handleEvents upgrades to a websocket. The first message is the state
// view; events follow in sequence order.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.roomFor(w, r)
	if !ok {
		return
	}
	sub, err := rm.Subscribe(events.DefaultQueue)
	if !writeRoomError(w, err) {
		return
	}
	events.ServeWS(s.upgrader, w, r, sub)
}
