// Package auth handles password hashing, bearer tokens and the request
// middleware that resolves the current user.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"bookshelf-ai/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInactiveUser       = errors.New("inactive user")
)

// UserLookup is the slice of the store the auth layer needs.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
}

type ctxKey struct{}

// Authenticate checks a username and password pair.
func Authenticate(ctx context.Context, users UserLookup, username, password string) (store.User, error) {
	user, err := users.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, err
	}
	if !CheckPassword(user.HashedPassword, password) {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Middleware rejects requests without a valid bearer token for an active user.
func Middleware(jwtm *JWTManager, users UserLookup, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "not authenticated")
				return
			}
			username, err := jwtm.ValidateToken(token)
			if err != nil {
				unauthorized(w, "could not validate credentials")
				return
			}
			user, err := users.GetUserByUsername(r.Context(), username)
			if errors.Is(err, store.ErrNotFound) {
				unauthorized(w, "could not validate credentials")
				return
			}
			if err != nil {
				log.Error("user lookup failed", "username", username, "err", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if user.Disabled {
				writeError(w, http.StatusBadRequest, ErrInactiveUser.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser stores the authenticated user on ctx.
func WithUser(ctx context.Context, user store.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext returns the user set by Middleware.
func UserFromContext(ctx context.Context) (store.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(store.User)
	return user, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, message)
}

// writeError uses the same {"detail": ...} body as the API handlers.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": message})
}
