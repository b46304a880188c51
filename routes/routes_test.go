package routes

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/scoreboard/handlers"
	"github.com/Dosada05/scoreboard/models"
	"github.com/Dosada05/scoreboard/realtime"
	"github.com/Dosada05/scoreboard/repositories"
	"github.com/Dosada05/scoreboard/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("routes-test-secret")

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repositories.NewMemoryMatchRepository()
	hub := realtime.NewHub(logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Run(ctx) }()

	writerCfg := services.ScoreWriterConfig{MaxAttempts: 1, MinInterval: time.Millisecond}
	matchService := services.NewMatchService(repo, hub, nil, writerCfg, logger)

	router := chi.NewRouter()
	SetupRoutes(router, Options{JWTSecret: testSecret},
		handlers.NewMatchHandler(matchService),
		handlers.NewScheduleHandler(services.NewScheduleService(repo, logger)),
		handlers.NewWebSocketHandler(hub, matchService, logger),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		closeCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = matchService.Close(closeCtx)
	})
	return srv
}

func tokenFor(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func call(t *testing.T, srv *httptest.Server, method, path, token, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

const createBody = `{"sport":"tennis","team_a_name":"Sinner","team_b_name":"Alcaraz","config":{"sets":5,"tiebreak_enabled":true}}`

func createMatch(t *testing.T, srv *httptest.Server) *models.Match {
	t.Helper()
	resp, data := call(t, srv, http.MethodPost, "/matches", tokenFor(t, "referee"), createBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var env struct {
		Match *models.Match `json:"match"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	return env.Match
}

func TestPublicRoutes(t *testing.T) {
	srv := newTestServer(t)

	resp, data := call(t, srv, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"ok"`)

	resp, data = call(t, srv, http.MethodGet, "/swagger/doc.json", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "Scoreboard API")

	resp, _ = call(t, srv, http.MethodGet, "/matches", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefereeRoutesRequireRole(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := call(t, srv, http.MethodPost, "/matches", "", createBody)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = call(t, srv, http.MethodPost, "/matches", tokenFor(t, "viewer"), createBody)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, srv, http.MethodPost, "/schedules/round-robin", "", `{"sport":"tennis","teams":["A","B"]}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, data := call(t, srv, http.MethodPost, "/schedules/round-robin", tokenFor(t, "admin"), `{"sport":"tennis","teams":["A","B"]}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	match := createMatch(t, srv)
	resp, _ = call(t, srv, http.MethodGet, "/matches/"+itoa(match.ID), "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketReceivesSnapshotAndUpdates(t *testing.T) {
	srv := newTestServer(t)
	match := createMatch(t, srv)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/matches/" + itoa(match.ID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readState := func() *models.Match {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg struct {
			Type    string        `json:"type"`
			RoomID  string        `json:"room_id"`
			Payload *models.Match `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, realtime.MessageMatchState, msg.Type)
		assert.Equal(t, realtime.MatchRoom(match.ID), msg.RoomID)
		return msg.Payload
	}

	snapshot := readState()
	assert.Equal(t, int64(0), snapshot.Version)

	resp, data := call(t, srv, http.MethodPost, "/matches/"+itoa(match.ID)+"/actions", tokenFor(t, "referee"), `{"action":"award_point","team":"B"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	update := readState()
	assert.Equal(t, int64(1), update.Version)
	assert.Equal(t, models.PointFifteen, update.State.TeamB.Points)
}

func TestCancelMatchThroughActions(t *testing.T) {
	srv := newTestServer(t)
	match := createMatch(t, srv)
	path := "/matches/" + itoa(match.ID) + "/actions"

	resp, data := call(t, srv, http.MethodPost, path, tokenFor(t, "referee"), `{"action":"cancel"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var one struct {
		Match *models.Match `json:"match"`
	}
	require.NoError(t, json.Unmarshal(data, &one))
	assert.Equal(t, models.MatchStatusCanceled, one.Match.Status)

	resp, _ = call(t, srv, http.MethodPost, path, tokenFor(t, "referee"), `{"action":"award_point","team":"A"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = call(t, srv, http.MethodPost, "/matches/"+itoa(match.ID)+"/sync", tokenFor(t, "referee"), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data = call(t, srv, http.MethodGet, "/matches?status=canceled", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Matches []*models.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list.Matches, 1)
	assert.Equal(t, match.ID, list.Matches[0].ID)
}

func TestWebSocketUnknownMatch(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := call(t, srv, http.MethodGet, "/ws/matches/999", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func itoa(id int) string {
	return strconv.Itoa(id)
}
