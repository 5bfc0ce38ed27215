package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeaderboardRanksByLevelThenXP(t *testing.T) {
	app, db, cfg := newTestApp(t)
	createUser(t, db, cfg, "Asha", "9000000020", 50)
	createUser(t, db, cfg, "Ravi", "9000000021", 200)

	resp := doRequest(t, app, http.MethodGet, "/api/leaderboard?limit=1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []map[string]interface{}
	decodeJSON(t, resp, &entries)
	require.Len(t, entries, 1)
	require.Equal(t, float64(1), entries[0]["rank"])
	require.Equal(t, "Ravi", entries[0]["name"])
	require.Equal(t, float64(200), entries[0]["xp"])
	require.Equal(t, float64(3), entries[0]["xpLevel"])
	require.Equal(t, float64(0), entries[0]["badges"])
}

func TestLeaderboardBreaksLevelTiesByXP(t *testing.T) {
	app, db, cfg := newTestApp(t)
	createUser(t, db, cfg, "Asha", "9000000022", 120)
	createUser(t, db, cfg, "Ravi", "9000000023", 180)
	createUser(t, db, cfg, "Meena", "9000000024", 40)

	resp := doRequest(t, app, http.MethodGet, "/api/leaderboard", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []map[string]interface{}
	decodeJSON(t, resp, &entries)
	require.Len(t, entries, 3)
	require.Equal(t, "Ravi", entries[0]["name"])
	require.Equal(t, "Asha", entries[1]["name"])
	require.Equal(t, "Meena", entries[2]["name"])
	for i, entry := range entries {
		require.Equal(t, float64(i+1), entry["rank"])
	}
}

func TestLeaderboardIgnoresBadLimit(t *testing.T) {
	app, db, cfg := newTestApp(t)
	createUser(t, db, cfg, "Asha", "9000000025", 10)

	resp := doRequest(t, app, http.MethodGet, "/api/leaderboard?limit=abc", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []map[string]interface{}
	decodeJSON(t, resp, &entries)
	require.Len(t, entries, 1)
}
