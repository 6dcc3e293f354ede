// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes two endpoints under /daily:
//   - POST /daily/new         → start (or resume) today's daily game
//   - GET  /daily/leaderboard → top 20 results for today (or a given date)
//
// A daily game is an ordinary game whose engine rolls from a source seeded
// by date + salt, so every player of the day draws the same sequence of
// faces. It is played through the /game/{id} routes; the seeded engine is
// looked up per game ID while the game is live.
//
// Each owner can play once per day (enforced by DB + in-memory session).

package httpserver

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/yahtzee/apps/go-server/internal/daily"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/game"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/store"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv   *Server
	store *daily.Store
	salt  string

	mu       sync.Mutex
	sessions map[string]*dailySession // keyed by ownerID|date
	games    map[string]*dailySession // keyed by game ID
}

// dailySession is one live daily game.
type dailySession struct {
	GameID  string
	OwnerID string
	Date    string
	Engine  *game.Engine
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	s.daily = &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     s.cfg.DailySalt,
		sessions: make(map[string]*dailySession),
		games:    make(map[string]*dailySession),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", s.daily.handleNew)
		r.Get("/leaderboard", s.daily.handleLeaderboard)
	})
}

// engineFor returns the seeded engine of a live daily game, or nil.
func (d *dailyServer) engineFor(gameID string) *game.Engine {
	d.mu.Lock()
	defer d.mu.Unlock()
	if sess, ok := d.games[gameID]; ok {
		return sess.Engine
	}
	return nil
}

// -----------------------------------------------------------------------------
// /daily/new

// newRes is returned by /daily/new.
type newRes struct {
	GameID string    `json:"gameId,omitempty"`
	Date   string    `json:"date"`
	Played bool      `json:"played"`
	View   *gameView `json:"view,omitempty"`
}

// handleNew creates or resumes the owner's game for the current date.
//   - If the owner already has a result for today → Played=true.
//   - If a live session exists and its game is still stored → resume it.
//   - Otherwise deal a new game from today's seeded engine.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := d.srv.ownerOf(w, r)
	now := d.srv.now()
	date := daily.DateKey(now)

	played, err := d.store.AlreadyPlayed(ctx, owner.ID, date)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("daily already played")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if played {
		writeJSON(w, http.StatusOK, newRes{Date: date, Played: true})
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := owner.ID + "|" + date
	if sess, ok := d.sessions[key]; ok {
		g, err := d.srv.store.Get(ctx, sess.GameID)
		switch {
		case err == nil:
			v := viewOf(g)
			writeJSON(w, http.StatusOK, newRes{GameID: g.ID, Date: date, View: &v})
			return
		case errors.Is(err, store.ErrNotFound):
			// expired from the store; deal again below
			delete(d.games, sess.GameID)
			delete(d.sessions, key)
		default:
			writeGameError(w, r, err)
			return
		}
	}

	eng := d.srv.seeded(daily.Seed(now, d.salt))
	g := eng.Start()
	if err := d.srv.store.Save(ctx, g); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("save daily game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	d.srv.insertGameRow(ctx, g, modeDaily, owner)

	sess := &dailySession{GameID: g.ID, OwnerID: owner.ID, Date: date, Engine: eng}
	d.sessions[key] = sess
	d.games[g.ID] = sess

	v := viewOf(g)
	writeJSON(w, http.StatusOK, newRes{GameID: g.ID, Date: date, View: &v})
}

// finish files the result of a completed daily game. The owner and date are
// read from the games row, so results survive a restart that lost the session.
func (d *dailyServer) finish(ctx context.Context, g game.State) {
	d.mu.Lock()
	if sess, ok := d.games[g.ID]; ok {
		delete(d.games, g.ID)
		delete(d.sessions, sess.OwnerID+"|"+sess.Date)
	}
	d.mu.Unlock()

	var mode string
	var owner sql.NullString
	err := d.srv.db.QueryRowContext(ctx,
		`SELECT mode, COALESCE(user_id, anonymous_id) FROM games WHERE id=?`, g.ID,
	).Scan(&mode, &owner)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("daily result owner")
		}
		return
	}
	if mode != modeDaily || !owner.Valid {
		return
	}

	res := daily.Result{
		UserID:    owner.String,
		Date:      daily.DateKey(g.StartTime),
		GameID:    g.ID,
		Score:     g.Totals().GrandTotal,
		ElapsedMs: int(g.EndTime.Sub(g.StartTime).Milliseconds()),
	}
	if err := d.store.InsertResult(ctx, res); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("insert daily result")
	}
}

// claim moves live sessions from a guest to the account that signed in.
func (d *dailyServer) claim(anonID, userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, sess := range d.sessions {
		if sess.OwnerID != anonID {
			continue
		}
		userKey := userID + "|" + sess.Date
		if _, taken := d.sessions[userKey]; taken {
			continue
		}
		delete(d.sessions, key)
		sess.OwnerID = userID
		d.sessions[userKey] = sess
	}
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.now())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
