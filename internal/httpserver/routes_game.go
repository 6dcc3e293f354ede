// internal/httpserver/routes_game.go
//
// HTTP routes for single games.
//   - POST /game/new          → deal a fresh game
//   - GET  /game/{id}         → current view (deals the first hand if not started)
//   - POST /game/{id}/lock    → lock or unlock one die
//   - POST /game/{id}/roll    → re-roll the unlocked dice
//   - POST /game/{id}/choose  → score a category, then next turn or game over
//
// Every response carries the view: the state plus the phase, the roll
// allowance, the selectable categories and the totals, derived fresh.

package httpserver

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/yahtzee/apps/go-server/internal/game"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/scoring"
)

const (
	modeNormal = "normal"
	modeDaily  = "daily"
)

// gameView is the JSON shape returned by every game route.
type gameView struct {
	Game     game.State                  `json:"game"`
	Phase    game.Phase                  `json:"phase"`
	CanRoll  bool                        `json:"canRoll"`
	Possible scoring.Options             `json:"possible"`
	Totals   scoring.Totals              `json:"totals"`
	Titles   map[scoring.Category]string `json:"titles"`
}

// categoryTitles maps every category, Bonus included, to its display name.
var categoryTitles = func() map[scoring.Category]string {
	out := make(map[scoring.Category]string, scoring.NumCategories+1)
	for _, c := range scoring.Categories {
		out[c] = c.Title()
	}
	out[scoring.Bonus] = scoring.Bonus.Title()
	return out
}()

func viewOf(s game.State) gameView {
	return gameView{
		Game:     s,
		Phase:    s.Phase(),
		CanRoll:  s.CanRoll(),
		Possible: s.Possible(),
		Totals:   s.Totals(),
		Titles:   categoryTitles,
	}
}

// mountGame registers the /game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetGame)
			r.Post("/lock", s.handleLock)
			r.Post("/roll", s.handleRoll)
			r.Post("/choose", s.handleChoose)
		})
	})
}

// handleNewGame deals a new game, replacing the caller's unfinished one,
// and records its owner row.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerOf(w, r)
	s.abandonGames(r.Context(), modeNormal, owner)

	g := s.engine.Start()
	if err := s.store.Save(r.Context(), g); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	s.insertGameRow(r.Context(), g, modeNormal, owner)
	writeJSON(w, http.StatusOK, viewOf(g))
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, func(eng *game.Engine, g game.State) (game.State, error) {
		return eng.Load(g), nil
	})
}

type lockReq struct {
	Position *int `json:"position"`
	Locked   bool `json:"locked"`
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	var req lockReq
	if err := decodeJSON(r, &req); err != nil || req.Position == nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.apply(w, r, func(eng *game.Engine, g game.State) (game.State, error) {
		return eng.SetDieLock(g, *req.Position, req.Locked)
	})
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, func(eng *game.Engine, g game.State) (game.State, error) {
		return eng.Roll(g)
	})
}

type chooseReq struct {
	Category *scoring.Category `json:"category"`
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	var req chooseReq
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, scoring.ErrUnknownCategory) {
			writeError(w, http.StatusBadRequest, "unknown_category")
			return
		}
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if req.Category == nil {
		writeError(w, http.StatusBadRequest, "missing_category")
		return
	}
	s.apply(w, r, func(eng *game.Engine, g game.State) (game.State, error) {
		return eng.Choose(g, *req.Category)
	})
}

// apply runs op against the stored game {id} under that game's lock and
// saves the result when it differs from what was stored. A game that just
// ended is then recorded in the database.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, op func(*game.Engine, game.State) (game.State, error)) {
	id := chi.URLParam(r, "id")
	unlock := s.locks.lock(id)
	defer unlock()

	g, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	next, err := op(s.engineFor(id), g)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	if next != g {
		if err := s.store.Save(r.Context(), next); err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("gameId", id).Msg("save game")
			writeError(w, http.StatusInternalServerError, "save_failed")
			return
		}
	}
	if next.Complete() && !g.Complete() {
		s.finishGame(r.Context(), next)
	}
	writeJSON(w, http.StatusOK, viewOf(next))
}

// engineFor returns the seeded engine of a live daily game, else the shared one.
func (s *Server) engineFor(id string) *game.Engine {
	if eng := s.daily.engineFor(id); eng != nil {
		return eng
	}
	return s.engine
}

// gameOwner is who a new game belongs to: a signed-in user or a guest.
type gameOwner struct {
	ID    string
	Guest bool
}

// ownerOf resolves the owner once per request; a guest without a cookie
// gets one here.
func (s *Server) ownerOf(w http.ResponseWriter, r *http.Request) gameOwner {
	if me := userFrom(r); me != nil {
		return gameOwner{ID: me.ID}
	}
	return gameOwner{ID: s.ensureAnonID(w, r), Guest: true}
}

// column is the games column holding the owner ID.
func (o gameOwner) column() string {
	if o.Guest {
		return "anonymous_id"
	}
	return "user_id"
}

// insertGameRow persists the owner row (user_id or anonymous_id) for history/stats.
func (s *Server) insertGameRow(ctx context.Context, g game.State, mode string, o gameOwner) {
	started := g.StartTime.Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `INSERT INTO games (id, `+o.column()+`, mode, started_at, status, score)
	                     VALUES (?,?,?,?,'playing',0)`, g.ID, o.ID, mode, started)
	if err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Bool("guest", o.Guest).Msg("insert game row")
	}
}

// abandonGames drops the owner's unfinished games of the given mode from the
// store and marks their rows abandoned. Starting a game replaces the one in play.
func (s *Server) abandonGames(ctx context.Context, mode string, o gameOwner) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM games
	                     WHERE `+o.column()+`=? AND mode=? AND status='playing'`, o.ID, mode)
	if err != nil {
		log.Warn().Err(err).Msg("list games to abandon")
		return
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err == nil {
			ids = append(ids, id)
		}
	}
	_ = rows.Close()

	for _, id := range ids {
		unlock := s.locks.lock(id)
		if err := s.store.Delete(ctx, id); err != nil {
			log.Warn().Err(err).Str("gameId", id).Msg("delete abandoned game")
		}
		if _, err := s.db.ExecContext(ctx, `UPDATE games SET status='abandoned' WHERE id=? AND status='playing'`, id); err != nil {
			log.Warn().Err(err).Str("gameId", id).Msg("abandon game row")
		}
		unlock()
	}
}

// finishGame closes the games row with the grand total, bumps the owner's
// stats when signed in and files the daily result. All best effort.
func (s *Server) finishGame(ctx context.Context, g game.State) {
	defer s.daily.finish(ctx, g)

	score := g.Totals().GrandTotal
	finished := g.EndTime.Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("finish game: begin")
		return
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE games SET status='finished', finished_at=?, score=?
	                     WHERE id=? AND status='playing'`, finished, score, g.ID)
	if err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("finish game")
		return
	}
	if n, _ := res.RowsAffected(); n == 1 {
		var userID sql.NullString
		if err := tx.QueryRowContext(ctx, `SELECT user_id FROM games WHERE id=?`, g.ID).Scan(&userID); err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("finish game: owner")
		} else if userID.Valid {
			if err := bumpStats(ctx, tx, userID.String, score); err != nil {
				log.Warn().Err(err).Str("user", userID.String).Msg("bump stats")
			}
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("finish game: commit")
	}
}

// ----------------------------- leaderboard ---------------------------------

type lbEntry struct {
	GameID     string `json:"gameId"`
	Username   string `json:"username,omitempty"`
	Mode       string `json:"mode"`
	Score      int    `json:"score"`
	FinishedAt string `json:"finishedAt"`
}

// handleLeaderboard returns the top 20 finished games by score.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.QueryContext(r.Context(),
		`SELECT g.id, COALESCE(u.username,''), g.mode, g.score, COALESCE(g.finished_at,'')
		 FROM games g LEFT JOIN users u ON u.id = g.user_id
		 WHERE g.status='finished'
		 ORDER BY g.score DESC, g.finished_at ASC
		 LIMIT 20`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	defer rows.Close()

	out := []lbEntry{}
	for rows.Next() {
		var e lbEntry
		if err := rows.Scan(&e.GameID, &e.Username, &e.Mode, &e.Score, &e.FinishedAt); err == nil {
			out = append(out, e)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"top": out})
}
