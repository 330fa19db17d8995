package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialpost/internal/config"
	"socialpost/internal/models"
	"socialpost/internal/service"
	"socialpost/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testAPI is a fully wired app over SQLite and miniredis.
type testAPI struct {
	srv *Server
	app *fiber.App
	mr  *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                  "0",
		Env:                   "test",
		JWTSecret:             "server-test-secret-0123456789abcdef",
		TokenTTLHours:         1,
		AllowedOrigins:        "http://localhost:5173",
		FeatureFlags:          "post_notifications=on",
		NotificationTimeoutMS: 2000,
		BodyLimitMB:           1,
	}
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	srv, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)
	srv.authService.WithHashCost(bcrypt.MinCost)
	// Side effects must finish before the database goes away.
	t.Cleanup(srv.effects.Wait)

	return &testAPI{srv: srv, app: srv.NewApp(), mr: mr}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

// call performs a request, asserts the status and decodes the body into dst when non-nil.
func (a *testAPI) call(t *testing.T, method, path, token string, body any, want int, dst any) {
	t.Helper()
	status, raw := a.do(t, method, path, token, body)
	require.Equal(t, want, status, "%s %s: %s", method, path, raw)
	if dst != nil {
		require.NoError(t, json.Unmarshal(raw, dst))
	}
}

type account struct {
	ID    uint
	Token string
}

func (a *testAPI) register(t *testing.T, username string) account {
	t.Helper()
	var res service.AuthResult
	a.call(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name":     "User " + username,
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	}, http.StatusCreated, &res)
	require.NotEmpty(t, res.Token)
	require.NotNil(t, res.User)
	return account{ID: res.User.ID, Token: res.Token}
}

func (a *testAPI) follow(t *testing.T, actor, target account) {
	t.Helper()
	var res service.FollowResult
	a.call(t, http.MethodPost, fmt.Sprintf("/api/users/%d/follow", target.ID), actor.Token, nil, http.StatusOK, &res)
	require.True(t, res.Following)
	a.srv.effects.Wait()
}

func (a *testAPI) unread(t *testing.T, who account) service.UnreadCounts {
	t.Helper()
	var counts service.UnreadCounts
	a.call(t, http.MethodGet, "/api/unread", who.Token, nil, http.StatusOK, &counts)
	return counts
}

func errorBody(t *testing.T, raw []byte) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
