package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/social-platform/internal/apperror"
	"github.com/sakif/social-platform/internal/model"
)

// =========================================================================
// FAKE USER FINDER
// =========================================================================

type fakeUsers struct {
	users map[string]*model.User
	err   error
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user not found")
	}
	return u, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// protected wraps a handler that echoes the caller's id.
func protected(t *testing.T, users UserFinder) (http.Handler, *TokenService) {
	t.Helper()
	ts := newTestTokenService(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CallerFromContext(r.Context())
		require.True(t, ok)
		id, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, u.ID, id)
		_, _ = w.Write([]byte(u.ID))
	})
	return RequireAuth(ts, users, discardLogger())(next), ts
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

// =========================================================================
// REJECTION TESTS
// =========================================================================

func TestRequireAuth_HeaderProblems(t *testing.T) {
	users := &fakeUsers{users: map[string]*model.User{"u1": {ID: "u1"}}}
	h, _ := protected(t, users)

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", msgTokenMissing},
		{"wrong scheme", "Basic dXNlcjpwYXNz", msgTokenInvalid},
		{"lowercase scheme", "bearer abc", msgTokenInvalid},
		{"bearer without token", "Bearer ", msgTokenMissing},
		{"garbage token", "Bearer not-a-jwt", msgTokenInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tc.want, errorBody(t, rec))
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	users := &fakeUsers{users: map[string]*model.User{"u1": {ID: "u1"}}}
	h, ts := protected(t, users)

	token, err := ts.GenerateWithDuration("u1", -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgTokenInvalid, errorBody(t, rec))
}

func TestRequireAuth_UserGone(t *testing.T) {
	users := &fakeUsers{users: map[string]*model.User{}}
	h, ts := protected(t, users)

	token, err := ts.Generate("deleted-user")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgUserNotFound, errorBody(t, rec))
}

func TestRequireAuth_StoreFailureIs500(t *testing.T) {
	users := &fakeUsers{err: errors.New("database is locked")}
	h, ts := protected(t, users)

	token, err := ts.Generate("u1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgServerError, errorBody(t, rec))
	assert.NotContains(t, rec.Body.String(), "locked")
}

// =========================================================================
// SUCCESS TESTS
// =========================================================================

func TestRequireAuth_ValidTokenAttachesCaller(t *testing.T) {
	users := &fakeUsers{users: map[string]*model.User{"u1": {ID: "u1", Username: "alice"}}}
	h, ts := protected(t, users)

	token, err := ts.Generate("u1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestCallerFromContext_Anonymous(t *testing.T) {
	_, ok := CallerFromContext(context.Background())
	assert.False(t, ok)

	_, ok = UserIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestWithCaller(t *testing.T) {
	ctx := WithCaller(context.Background(), &model.User{ID: "u9"})

	id, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u9", id)
}
