package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/social-platform/internal/config"
	"github.com/sakif/social-platform/internal/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Config{
		AppEnv:          "test",
		Port:            3000,
		DatabaseURL:     "sqlite://:memory:",
		DBPoolSize:      1,
		JWTSecret:       "integration-secret-0123456789",
		TokenTTL:        time.Minute,
		BcryptCost:      10,
		MaxPageLimit:    50,
		LogLevel:        "error",
		LogFormat:       "text",
		ShutdownTimeout: time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

type authBody struct {
	Message string           `json:"message"`
	Token   string           `json:"token"`
	User    model.PublicUser `json:"user"`
}

type errorBody struct {
	Error string `json:"error"`
}

func register(t *testing.T, ts *httptest.Server, username string) authBody {
	t.Helper()

	status, raw := call(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	var body authBody
	require.NoError(t, json.Unmarshal(raw, &body))
	require.NotEmpty(t, body.Token)
	return body
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	alice := register(t, ts, "alice")
	assert.Equal(t, "alice", alice.User.Username)
	assert.NotContains(t, string(mustJSON(t, alice)), "password")

	t.Run("duplicate registration", func(t *testing.T) {
		status, raw := call(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
			"username": "alice",
			"email":    "other@example.com",
			"password": "secret1",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"error":"Пользователь уже существует"}`, string(raw))
	})

	t.Run("login by username and by email", func(t *testing.T) {
		for _, login := range []string{"alice", "alice@example.com"} {
			status, raw := call(t, ts, http.MethodPost, "/auth/login", "", map[string]string{
				"username": login,
				"password": "secret1",
			})
			require.Equal(t, http.StatusOK, status, string(raw))

			var body authBody
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, alice.User.ID, body.User.ID)
			assert.NotContains(t, string(raw), "password")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		status, raw := call(t, ts, http.MethodPost, "/auth/login", "", map[string]string{
			"username": "alice",
			"password": "wrong-one",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.JSONEq(t, `{"error":"Неверные данные"}`, string(raw))
	})

	t.Run("profile", func(t *testing.T) {
		status, raw := call(t, ts, http.MethodGet, "/auth/profile", alice.Token, nil)
		require.Equal(t, http.StatusOK, status, string(raw))

		var body struct {
			Message string           `json:"message"`
			User    model.PublicUser `json:"user"`
		}
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "Профиль пользователя", body.Message)
		assert.Equal(t, alice.User.ID, body.User.ID)
	})

	t.Run("profile without token", func(t *testing.T) {
		status, raw := call(t, ts, http.MethodGet, "/auth/profile", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.JSONEq(t, `{"error":"Токен отсутствует"}`, string(raw))
	})

	t.Run("profile with garbage token", func(t *testing.T) {
		status, raw := call(t, ts, http.MethodGet, "/auth/profile", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.JSONEq(t, `{"error":"Неверный токен"}`, string(raw))
	})
}

func TestPostFlow(t *testing.T) {
	ts := newTestServer(t)

	alice := register(t, ts, "alice")
	bob := register(t, ts, "bob")

	status, raw := call(t, ts, http.MethodPost, "/posts", alice.Token, map[string]string{
		"title":   "Hello",
		"content": "First post",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	var post model.Post
	require.NoError(t, json.Unmarshal(raw, &post))
	assert.Equal(t, alice.User.ID, post.AuthorID)
	assert.NotEmpty(t, post.ID)

	t.Run("create without token", func(t *testing.T) {
		status, _ := call(t, ts, http.MethodPost, "/posts", "", map[string]string{
			"title":   "x",
			"content": "y",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("public read", func(t *testing.T) {
		status, raw := call(t, ts, http.MethodGet, "/posts/"+post.ID, "", nil)
		require.Equal(t, http.StatusOK, status)

		var got model.Post
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "Hello", got.Title)
	})

	t.Run("non-author cannot edit or delete", func(t *testing.T) {
		status, raw := call(t, ts, http.MethodPut, "/posts/"+post.ID, bob.Token, map[string]string{"title": "Mine now"})
		assert.Equal(t, http.StatusForbidden, status)
		assert.JSONEq(t, `{"error":"Доступ запрещен"}`, string(raw))

		status, _ = call(t, ts, http.MethodDelete, "/posts/"+post.ID, bob.Token, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("author edits", func(t *testing.T) {
		status, raw := call(t, ts, http.MethodPut, "/posts/"+post.ID, alice.Token, map[string]string{"title": "Hello again"})
		require.Equal(t, http.StatusOK, status, string(raw))

		var got model.Post
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "Hello again", got.Title)
		assert.Equal(t, "First post", got.Content)
	})

	t.Run("missing post", func(t *testing.T) {
		status, raw := call(t, ts, http.MethodPut, "/posts/nope", bob.Token, map[string]string{"title": "x"})
		assert.Equal(t, http.StatusNotFound, status)
		assert.JSONEq(t, `{"error":"Пост не найден"}`, string(raw))
	})

	t.Run("author deletes", func(t *testing.T) {
		status, _ := call(t, ts, http.MethodDelete, "/posts/"+post.ID, alice.Token, nil)
		assert.Equal(t, http.StatusNoContent, status)

		status, _ = call(t, ts, http.MethodGet, "/posts/"+post.ID, "", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestPostPagination(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice")

	for i := 0; i < 5; i++ {
		status, raw := call(t, ts, http.MethodPost, "/posts", alice.Token, map[string]string{
			"title":   "post " + string(rune('a'+i)),
			"content": "body",
		})
		require.Equal(t, http.StatusCreated, status, string(raw))
	}

	status, raw := call(t, ts, http.MethodGet, "/posts?page=2&limit=2", "", nil)
	require.Equal(t, http.StatusOK, status)

	var page model.PostPage
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Len(t, page.Data, 2)
	assert.Equal(t, model.PageMeta{Total: 5, Page: 2, Limit: 2, TotalPages: 3}, page.Meta)

	status, raw = call(t, ts, http.MethodGet, "/posts?limit=1000", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Equal(t, 50, page.Meta.Limit, "capped at MAX_PAGE_LIMIT")
	assert.Len(t, page.Data, 5)
	assert.Equal(t, "post e", page.Data[0].Title, "newest first")
}

func TestInfoHealthAndFallbacks(t *testing.T) {
	ts := newTestServer(t)

	status, raw := call(t, ts, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"API социальной платформы","version":"1.0.0"}`, string(raw))

	status, raw = call(t, ts, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ОК"}`, string(raw))

	status, raw = call(t, ts, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"Не найдено"}`, string(raw))

	status, raw = call(t, ts, http.MethodPatch, "/posts", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	var body errorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "Метод не поддерживается", body.Error)
}

func TestNew_RejectsBadStore(t *testing.T) {
	cfg := config.Config{DatabaseURL: "mysql://x"}
	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
