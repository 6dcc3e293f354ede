package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/robalobadob/yahtzee/apps/go-server/internal/config"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/database"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/dice"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/game"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/scoring"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/store"
)

var testNow = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	_, ts := newTestApp(t)
	return ts
}

// newTestApp also returns the Server, for checks against its database.
func newTestApp(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	cfg := &config.Config{
		NodeEnv:        "test",
		JWTSecret:      "test_secret",
		JWTExpiresDays: 1,
		CookieName:     "yahtzee_token",
		ClientOrigin:   "http://localhost:5173",
		DailySalt:      "test_salt",
		RequestTimeout: 5 * time.Second,
	}
	s := New(store.NewMemoryStore(), db, cfg)
	s.engine = game.NewEngine(dice.NewSeededSource(7), game.WithClock(func() time.Time { return testNow }))
	s.now = func() time.Time { return testNow }

	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

// client is one browser: its own cookie jar against the test server.
type client struct {
	t    *testing.T
	base string
	hc   *http.Client
}

func newClient(t *testing.T, ts *httptest.Server) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &client{t: t, base: ts.URL, hc: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		c.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.hc.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	out, _ := io.ReadAll(res.Body)
	return res.StatusCode, out
}

// decode issues a request that must succeed and decodes its body into v.
func (c *client) decode(method, path string, body, v any) {
	c.t.Helper()
	code, out := c.do(method, path, body)
	if code != http.StatusOK {
		c.t.Fatalf("%s %s = %d %s", method, path, code, out)
	}
	if err := json.Unmarshal(out, v); err != nil {
		c.t.Fatalf("%s %s: decode %s: %v", method, path, out, err)
	}
}

type viewRes struct {
	Game     game.State                  `json:"game"`
	Phase    game.Phase                  `json:"phase"`
	CanRoll  bool                        `json:"canRoll"`
	Possible scoring.Options             `json:"possible"`
	Totals   scoring.Totals              `json:"totals"`
	Titles   map[scoring.Category]string `json:"titles"`
}

func errorOf(t *testing.T, body []byte) string {
	t.Helper()
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("decode error body %s: %v", body, err)
	}
	return e.Error
}

// playOut scores every category in order and returns the final view.
func playOut(c *client, id string) viewRes {
	c.t.Helper()
	var v viewRes
	for _, cat := range scoring.Categories {
		c.decode(http.MethodPost, "/game/"+id+"/choose", map[string]string{"category": cat.Key()}, &v)
	}
	return v
}

func TestGameTurnFlow(t *testing.T) {
	c := newClient(t, newTestServer(t))

	var v viewRes
	c.decode(http.MethodPost, "/game/new", nil, &v)
	if v.Phase != game.PhaseInTurn || v.Game.RollCount != 1 || !v.CanRoll {
		t.Fatalf("new game view = %+v", v)
	}
	if !v.Game.StartTime.Equal(testNow) {
		t.Fatalf("StartTime = %v, want %v", v.Game.StartTime, testNow)
	}
	if len(v.Possible) != scoring.NumCategories {
		t.Fatalf("possible has %d categories, want %d", len(v.Possible), scoring.NumCategories)
	}
	if v.Titles[scoring.FullHouse] != "Full House" || v.Titles[scoring.Bonus] != "Bonus" || len(v.Titles) != scoring.NumCategories+1 {
		t.Fatalf("titles = %v", v.Titles)
	}
	id := v.Game.ID
	kept := v.Game.Hand[0]

	c.decode(http.MethodPost, "/game/"+id+"/lock", map[string]any{"position": 0, "locked": true}, &v)
	if !v.Game.Locked.Has(0) {
		t.Fatal("die 0 not locked")
	}
	c.decode(http.MethodPost, "/game/"+id+"/roll", nil, &v)
	c.decode(http.MethodPost, "/game/"+id+"/roll", nil, &v)
	if v.Game.RollCount != game.MaxRolls || v.CanRoll {
		t.Fatalf("after two rolls: rollCount=%d canRoll=%v", v.Game.RollCount, v.CanRoll)
	}
	if v.Game.Hand[0] != kept {
		t.Fatalf("locked die changed from %d to %d", kept, v.Game.Hand[0])
	}

	code, body := c.do(http.MethodPost, "/game/"+id+"/roll", nil)
	if code != http.StatusConflict || errorOf(t, body) != "illegal_roll" {
		t.Fatalf("fourth roll = %d %s", code, body)
	}

	var fetched viewRes
	c.decode(http.MethodGet, "/game/"+id, nil, &fetched)
	if diff := cmp.Diff(v.Game, fetched.Game); diff != "" {
		t.Fatalf("rejected roll changed the game (-want +got):\n%s", diff)
	}

	final := playOut(c, id)
	if final.Phase != game.PhaseComplete || final.Game.EndTime == nil || final.CanRoll {
		t.Fatalf("final view = %+v", final)
	}
	if len(final.Possible) != 0 {
		t.Fatalf("complete game offers %v", final.Possible)
	}

	code, body = c.do(http.MethodPost, "/game/"+id+"/choose", map[string]string{"category": "chance"})
	if code != http.StatusConflict || errorOf(t, body) != "illegal_category" {
		t.Fatalf("choose after end = %d %s", code, body)
	}

	var lb struct {
		Top []lbEntry `json:"top"`
	}
	c.decode(http.MethodGet, "/leaderboard", nil, &lb)
	if len(lb.Top) != 1 || lb.Top[0].GameID != id || lb.Top[0].Score != final.Totals.GrandTotal {
		t.Fatalf("leaderboard = %+v, want game %s scoring %d", lb.Top, id, final.Totals.GrandTotal)
	}
}

func TestGameRequestErrors(t *testing.T) {
	c := newClient(t, newTestServer(t))

	var v viewRes
	c.decode(http.MethodPost, "/game/new", nil, &v)
	id := v.Game.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
		errMsg string
	}{
		{"unknown game", http.MethodGet, "/game/nope", nil, http.StatusNotFound, "not_found"},
		{"roll unknown game", http.MethodPost, "/game/nope/roll", nil, http.StatusNotFound, "not_found"},
		{"lock out of range", http.MethodPost, "/game/" + id + "/lock", map[string]any{"position": 5, "locked": true}, http.StatusBadRequest, "invalid_position"},
		{"lock without position", http.MethodPost, "/game/" + id + "/lock", map[string]any{"locked": true}, http.StatusBadRequest, "bad_json"},
		{"unknown category", http.MethodPost, "/game/" + id + "/choose", map[string]string{"category": "straight"}, http.StatusBadRequest, "unknown_category"},
		{"missing category", http.MethodPost, "/game/" + id + "/choose", map[string]string{}, http.StatusBadRequest, "missing_category"},
		{"bonus without yahtzee", http.MethodPost, "/game/" + id + "/choose", map[string]string{"category": "bonus"}, http.StatusConflict, "illegal_category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := c.do(tt.method, tt.path, tt.body)
			if code != tt.code || errorOf(t, body) != tt.errMsg {
				t.Fatalf("got %d %s, want %d %q", code, body, tt.code, tt.errMsg)
			}
		})
	}
}

func TestStatsForSignedInPlayer(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)

	code, body := c.do(http.MethodGet, "/stats/me", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("stats before signup = %d %s", code, body)
	}

	// A guest game is claimed by the account created afterwards.
	var v viewRes
	c.decode(http.MethodPost, "/game/new", nil, &v)
	guestGame := v.Game.ID

	var me authUser
	c.decode(http.MethodPost, "/auth/signup", credentials{Username: "dicer", Password: "hunter2hunter2"}, &me)
	if me.Username != "dicer" || me.ID == "" {
		t.Fatalf("signup = %+v", me)
	}

	code, body = c.do(http.MethodPost, "/auth/signup", credentials{Username: "DICER", Password: "hunter2hunter2"})
	if code != http.StatusConflict {
		t.Fatalf("duplicate signup = %d %s", code, body)
	}

	final := playOut(c, guestGame)

	var stats struct {
		GamesPlayed  int     `json:"gamesPlayed"`
		BestScore    int     `json:"bestScore"`
		TotalScore   int     `json:"totalScore"`
		AverageScore float64 `json:"averageScore"`
	}
	c.decode(http.MethodGet, "/stats/me", nil, &stats)
	score := final.Totals.GrandTotal
	if stats.GamesPlayed != 1 || stats.BestScore != score || stats.TotalScore != score || stats.AverageScore != float64(score) {
		t.Fatalf("stats = %+v, want one game scoring %d", stats, score)
	}

	var mine []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Score  int    `json:"score"`
	}
	c.decode(http.MethodGet, "/games/mine", nil, &mine)
	if len(mine) != 1 || mine[0].ID != guestGame || mine[0].Status != "finished" || mine[0].Score != score {
		t.Fatalf("games/mine = %+v", mine)
	}

	c.decode(http.MethodPost, "/auth/logout", nil, &struct{}{})
	code, _ = c.do(http.MethodGet, "/auth/me", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("auth/me after logout = %d", code)
	}

	var again authUser
	c.decode(http.MethodPost, "/auth/login", credentials{Username: "dicer", Password: "hunter2hunter2"}, &again)
	if again.ID != me.ID {
		t.Fatalf("login id = %s, want %s", again.ID, me.ID)
	}
	code, _ = c.do(http.MethodPost, "/auth/login", credentials{Username: "dicer", Password: "wrong-password"})
	if code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", code)
	}
}

func TestDailyChallenge(t *testing.T) {
	ts := newTestServer(t)
	alice := newClient(t, ts)
	bob := newClient(t, ts)

	var a, b newRes
	alice.decode(http.MethodPost, "/daily/new", nil, &a)
	bob.decode(http.MethodPost, "/daily/new", nil, &b)

	if a.Date != "2024-03-09" || a.Played || a.View == nil || b.View == nil {
		t.Fatalf("daily/new = %+v / %+v", a, b)
	}
	if a.GameID == b.GameID {
		t.Fatal("players share a daily game")
	}
	if a.View.Game.Hand != b.View.Game.Hand {
		t.Fatalf("daily hands differ: %v vs %v", a.View.Game.Hand, b.View.Game.Hand)
	}

	// Both players keep drawing the same faces.
	var av, bv viewRes
	alice.decode(http.MethodPost, "/game/"+a.GameID+"/roll", nil, &av)
	bob.decode(http.MethodPost, "/game/"+b.GameID+"/roll", nil, &bv)
	if av.Game.Hand != bv.Game.Hand {
		t.Fatalf("daily rolls differ: %v vs %v", av.Game.Hand, bv.Game.Hand)
	}

	var resumed newRes
	alice.decode(http.MethodPost, "/daily/new", nil, &resumed)
	if resumed.GameID != a.GameID || resumed.View.Game.RollCount != 2 {
		t.Fatalf("resume = %+v, want game %s on roll 2", resumed, a.GameID)
	}

	final := playOut(alice, a.GameID)

	var played newRes
	alice.decode(http.MethodPost, "/daily/new", nil, &played)
	if !played.Played || played.GameID != "" {
		t.Fatalf("daily/new after finishing = %+v", played)
	}

	var lb lbRes
	alice.decode(http.MethodGet, "/daily/leaderboard", nil, &lb)
	if lb.Date != "2024-03-09" || len(lb.Top) != 1 || lb.Top[0].Score != final.Totals.GrandTotal {
		t.Fatalf("daily leaderboard = %+v", lb)
	}

	var other lbRes
	alice.decode(http.MethodGet, "/daily/leaderboard?date=2024-03-08", nil, &other)
	if len(other.Top) != 0 {
		t.Fatalf("leaderboard for another day = %+v", other)
	}
}

// anonCookies returns the values of every anonymous-ID cookie res sets.
func anonCookies(res *http.Response) []string {
	var out []string
	for _, c := range res.Cookies() {
		if c.Name == anonCookieName {
			out = append(out, c.Value)
		}
	}
	return out
}

func TestGuestGetsOneAnonymousID(t *testing.T) {
	s, ts := newTestApp(t)

	for _, path := range []string{"/daily/new", "/game/new"} {
		t.Run(path, func(t *testing.T) {
			res, err := http.Post(ts.URL+path, "application/json", nil)
			if err != nil {
				t.Fatal(err)
			}
			defer res.Body.Close()
			var body struct {
				GameID string `json:"gameId"`
				Game   struct {
					ID string `json:"id"`
				} `json:"game"`
			}
			if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			id := body.GameID
			if id == "" {
				id = body.Game.ID
			}

			anon := anonCookies(res)
			if len(anon) != 1 {
				t.Fatalf("anon cookies set = %v, want exactly one", anon)
			}
			var owner string
			if err := s.db.QueryRow(`SELECT anonymous_id FROM games WHERE id=?`, id).Scan(&owner); err != nil {
				t.Fatalf("games row for %s: %v", id, err)
			}
			if owner != anon[0] {
				t.Fatalf("games row owner = %s, cookie = %s", owner, anon[0])
			}
		})
	}
}

func TestNewGameReplacesUnfinishedGame(t *testing.T) {
	s, ts := newTestApp(t)
	c := newClient(t, ts)

	var daily newRes
	c.decode(http.MethodPost, "/daily/new", nil, &daily)

	var first, second viewRes
	c.decode(http.MethodPost, "/game/new", nil, &first)
	c.decode(http.MethodPost, "/game/new", nil, &second)
	if first.Game.ID == second.Game.ID {
		t.Fatal("new game reused the previous ID")
	}

	code, body := c.do(http.MethodGet, "/game/"+first.Game.ID, nil)
	if code != http.StatusNotFound {
		t.Fatalf("replaced game = %d %s, want 404", code, body)
	}
	var status string
	if err := s.db.QueryRow(`SELECT status FROM games WHERE id=?`, first.Game.ID).Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != "abandoned" {
		t.Fatalf("replaced game status = %q, want abandoned", status)
	}

	// the daily game and the new game are both still playable
	var v viewRes
	c.decode(http.MethodGet, "/game/"+second.Game.ID, nil, &v)
	c.decode(http.MethodGet, "/game/"+daily.GameID, nil, &v)
}

func TestGameLocksSerializePerID(t *testing.T) {
	l := newGameLocks()
	unlock := l.lock("g1")

	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		u := l.lock("g1")
		u()
	}()

	// another ID is independent
	l.lock("g2")()

	select {
	case <-acquired:
		t.Fatal("second lock on g1 acquired while held")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	<-acquired

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.m) != 0 {
		t.Fatalf("locks not released: %d left", len(l.m))
	}
}
