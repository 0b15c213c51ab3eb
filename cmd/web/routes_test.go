package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/AdamBeresnev/bracket-challenge/internal/config"
	"github.com/AdamBeresnev/bracket-challenge/internal/httputil"
	"github.com/AdamBeresnev/bracket-challenge/internal/middleware"
	"github.com/AdamBeresnev/bracket-challenge/internal/service"
	"github.com/AdamBeresnev/bracket-challenge/internal/testutil"
	users "github.com/AdamBeresnev/bracket-challenge/internal/user"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	admin   *http.Cookie
	player  *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	database := testutil.NewTestDB(t)
	cfg, err := config.FromEnv(func(string) string { return "" })
	require.NoError(t, err)

	sessionManager := scs.New()
	ts := &testServer{t: t, handler: newRouter(newApp(cfg, database, database, sessionManager))}

	signIn := sessionManager.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionManager.Put(r.Context(), middleware.SessionUserKey, r.URL.Query().Get("id"))
	}))
	cookieFor := func(user *users.User) *http.Cookie {
		rec := httptest.NewRecorder()
		signIn.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?id="+user.ID.String(), nil))
		cookies := rec.Result().Cookies()
		require.NotEmpty(t, cookies)
		return cookies[0]
	}
	ts.admin = cookieFor(testutil.CreateUser(t, database, "admin", users.RoleAdmin))
	ts.player = cookieFor(testutil.CreateUser(t, database, "player", users.RolePlayer))
	return ts
}

func (ts *testServer) do(method, path string, cookie *http.Cookie, body any) *httptest.ResponseRecorder {
	ts.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func field() service.CreateTournamentInput {
	input := service.CreateTournamentInput{Name: "March Madness"}
	for _, region := range bracket.Regions {
		for seed := 1; seed <= bracket.SeedsPerRegion; seed++ {
			input.Entrants = append(input.Entrants, service.EntrantInput{
				DisplayName: fmt.Sprintf("%s %d", region.Label(), seed),
				Region:      region,
				Seed:        seed,
			})
		}
	}
	return input
}

func (ts *testServer) createTournament() (uuid.UUID, map[string]uuid.UUID) {
	ts.t.Helper()

	rec := ts.do(http.MethodPost, "/api/admin/tournaments", ts.admin, field())
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[map[string]uuid.UUID](ts.t, rec)["id"]

	rec = ts.do(http.MethodGet, "/api/tournaments/"+id.String(), nil, nil)
	require.Equal(ts.t, http.StatusOK, rec.Code)
	data := decode[service.TournamentData](ts.t, rec)
	require.Len(ts.t, data.Entrants, 64)
	require.Len(ts.t, data.Matches, 63)

	entrants := make(map[string]uuid.UUID, len(data.Entrants))
	for _, e := range data.Entrants {
		entrants[fmt.Sprintf("%s-%d", e.Region, e.Seed)] = e.ID
	}
	return id, entrants
}

func TestBracketChallengeFlow(t *testing.T) {
	ts := newTestServer(t)
	tid, entrants := ts.createTournament()
	base := "/api/tournaments/" + tid.String()
	r64 := bracket.MatchID(tid, "IADVISORS-R64-1")

	rec := ts.do(http.MethodGet, base+"/bracket", ts.player, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[service.BracketView](t, rec)
	assert.Len(t, view.Matches, 63)
	assert.False(t, view.Locked)

	rec = ts.do(http.MethodPost, base+"/picks", ts.player, map[string]uuid.UUID{
		"matchId":   r64,
		"entrantId": entrants["IADVISORS-1"],
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	picked := decode[service.PickResult](t, rec)
	assert.Equal(t, entrants["IADVISORS-1"], picked.Picks[r64])

	rec = ts.do(http.MethodPost, "/api/admin/matches/"+r64.String()+"/winner", ts.admin, map[string]uuid.UUID{
		"winnerId": entrants["IADVISORS-1"],
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	outcome := decode[service.MatchOutcome](t, rec)
	assert.Equal(t, entrants["IADVISORS-1"], *outcome.Match.WinnerEntrantID)

	rec = ts.do(http.MethodGet, base+"/leaderboard", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[bracket.Leaderboard](t, rec)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "player", board.Entries[0].OwnerName)
	assert.Equal(t, 1, board.Entries[0].Points)

	rec = ts.do(http.MethodGet, base+"/tv?limit=5", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tv := decode[service.TVData](t, rec)
	require.Len(t, tv.RecentResults, 1)
	assert.Equal(t, "iAdvisors Round of 64: (1) iAdvisors 1 def. (16) iAdvisors 16", tv.RecentResults[0].Description)
	assert.Equal(t, "Round of 64", tv.CurrentRound)

	rec = ts.do(http.MethodDelete, "/api/admin/matches/"+r64.String()+"/winner", ts.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[service.MatchOutcome](t, rec).Match.WinnerEntrantID)
}

func TestAccessControl(t *testing.T) {
	ts := newTestServer(t)
	tid, _ := ts.createTournament()

	testCases := []struct {
		name   string
		method string
		path   string
		cookie *http.Cookie
		status int
	}{
		{"anonymous bracket", http.MethodGet, "/api/tournaments/" + tid.String() + "/bracket", nil, http.StatusUnauthorized},
		{"anonymous admin", http.MethodPost, "/api/admin/tournaments", nil, http.StatusUnauthorized},
		{"player admin", http.MethodPost, "/api/admin/tournaments", ts.player, http.StatusForbidden},
		{"public tv", http.MethodGet, "/api/tournaments/" + tid.String() + "/tv", nil, http.StatusOK},
		{"me", http.MethodGet, "/api/me", ts.player, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, ts.do(tc.method, tc.path, tc.cookie, nil).Code)
		})
	}
}

func TestErrorResponses(t *testing.T) {
	ts := newTestServer(t)
	tid, entrants := ts.createTournament()

	t.Run("invalid field", func(t *testing.T) {
		input := field()
		input.Entrants = input.Entrants[:63]
		rec := ts.do(http.MethodPost, "/api/admin/tournaments", ts.admin, input)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, httputil.CodeValidation, decode[httputil.APIError](t, rec).Code)
	})

	t.Run("unknown tournament", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/tournaments/"+uuid.NewString(), nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/tournaments/nope/leaderboard", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad tv limit", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/tournaments/"+tid.String()+"/tv?limit=-1", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("winner not in match", func(t *testing.T) {
		r64 := bracket.MatchID(tid, "IADVISORS-R64-1")
		rec := ts.do(http.MethodPost, "/api/admin/matches/"+r64.String()+"/winner", ts.admin, map[string]uuid.UUID{
			"winnerId": entrants["IADVISORS-2"],
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, httputil.CodeInvalidMatch, decode[httputil.APIError](t, rec).Code)
	})

	t.Run("pick on unresolved match", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/api/tournaments/"+tid.String()+"/picks", ts.player, map[string]uuid.UUID{
			"matchId":   bracket.MatchID(tid, "CHAMP-1"),
			"entrantId": entrants["IADVISORS-1"],
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, httputil.CodeInvalidPick, decode[httputil.APIError](t, rec).Code)
	})

	t.Run("reseed after results", func(t *testing.T) {
		r64 := bracket.MatchID(tid, "WADVISORS-R64-1")
		rec := ts.do(http.MethodPost, "/api/admin/matches/"+r64.String()+"/winner", ts.admin, map[string]uuid.UUID{
			"winnerId": entrants["WADVISORS-1"],
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ts.do(http.MethodPut, "/api/admin/tournaments/"+tid.String()+"/regions/wadvisors/seeds", ts.admin, map[string]any{
			"seeds": []service.SeedAssignment{},
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown json field", func(t *testing.T) {
		rec := ts.do(http.MethodPut, "/api/admin/entrants/"+entrants["IADVISORS-3"].String(), ts.admin, map[string]string{
			"displayName": "Renamed",
			"seed":        "1",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rename entrant", func(t *testing.T) {
		rec := ts.do(http.MethodPut, "/api/admin/entrants/"+entrants["IADVISORS-3"].String(), ts.admin, map[string]string{
			"displayName": "Renamed",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Renamed", decode[bracket.Entrant](t, rec).DisplayName)
	})
}
