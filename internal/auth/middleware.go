package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/social-platform/internal/apperror"
	"github.com/sakif/social-platform/internal/model"
)

const (
	msgTokenMissing = "Токен отсутствует"
	msgTokenInvalid = "Неверный токен"
	msgUserNotFound = "Пользователь не найден"
	msgServerError  = "Ошибка сервера"

	bearerPrefix = "Bearer "
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of type contextKey, so only
// RequireAuth can put a caller into a request context.
type contextKey string

const callerKey contextKey = "caller"

// UserFinder resolves the user named by a token's subject.
// repository.UserRepository satisfies it.
type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads "Authorization: Bearer <token>", validates the token, loads the
// user it names and stores that user in the request context. Any failure
// answers 401 and stops the chain; a store failure answers 500.
//
// MIDDLEWARE PATTERN IN GO:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	    })
//	}
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens *TokenService, users UserFinder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, msg := bearerToken(r)
			if msg != "" {
				writeUnauthorized(w, msg)
				return
			}

			userID, err := tokens.Validate(raw)
			if err != nil {
				logger.Debug("rejected bearer token", "path", r.URL.Path, "error", err)
				writeUnauthorized(w, msgTokenInvalid)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					writeUnauthorized(w, msgUserNotFound)
					return
				}
				logger.Error("loading caller", "user_id", userID, "error", err)
				writeJSONError(w, http.StatusInternalServerError, msgServerError)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext returns the user resolved by RequireAuth.
// Returns (nil, false) outside a protected route.
func CallerFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(callerKey).(*model.User)
	return u, ok && u != nil
}

// UserIDFromContext retrieves the authenticated user's ID from the request context.
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // anonymous user
//	}
func UserIDFromContext(ctx context.Context) (string, bool) {
	u, ok := CallerFromContext(ctx)
	if !ok {
		return "", false
	}
	return u.ID, u.ID != ""
}

// WithCaller returns a copy of ctx carrying u. Handler tests use it to
// skip the middleware.
func WithCaller(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, callerKey, u)
}

// bearerToken extracts the token from the Authorization header. On failure
// it returns the client-facing message instead.
func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", msgTokenMissing
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", msgTokenInvalid
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", msgTokenMissing
	}
	return token, ""
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeJSONError(w, http.StatusUnauthorized, msg)
}

// writeJSONError writes the same {"error": msg} body the handler package
// produces. It lives here so auth does not import handler.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
