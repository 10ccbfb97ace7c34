package main

import (
	"errors"
	"mime"
	"net/http"

	"bookshelf-ai/internal/ai"
	"bookshelf-ai/internal/app"
	"bookshelf-ai/internal/auth"
	"bookshelf-ai/internal/httputil"
	"bookshelf-ai/internal/store"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type tokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type preferencesRequest struct {
	PreferredGenres []string `json:"preferred_genres" validate:"max=50,dive,max=100"`
	FavoriteAuthors []string `json:"favorite_authors" validate:"max=50,dive,max=255"`
	Interests       []string `json:"interests" validate:"max=50,dive,max=255"`
}

func registerHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Fail(deps.Log, w, "invalid registration", err, http.StatusUnprocessableEntity)
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to hash password", err, http.StatusInternalServerError)
			return
		}
		user, err := deps.Store.CreateUser(r.Context(), store.User{
			Username:       req.Username,
			Email:          req.Email,
			HashedPassword: hash,
		})
		if errors.Is(err, store.ErrConflict) {
			httputil.Fail(deps.Log, w, "Username or email already registered", err, http.StatusBadRequest)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to create user", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, user)
	}
}

// tokenHandler accepts JSON or an OAuth2 password form.
func tokenHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "application/x-www-form-urlencoded" {
			if err := r.ParseForm(); err != nil {
				httputil.Fail(deps.Log, w, "invalid form", err, http.StatusUnprocessableEntity)
				return
			}
			req = tokenRequest{Username: r.PostForm.Get("username"), Password: r.PostForm.Get("password")}
			if err := httputil.Validate(&req); err != nil {
				httputil.Fail(deps.Log, w, "invalid credentials request", err, http.StatusUnprocessableEntity)
				return
			}
		} else if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Fail(deps.Log, w, "invalid credentials request", err, http.StatusUnprocessableEntity)
			return
		}

		user, err := auth.Authenticate(r.Context(), deps.Store, req.Username, req.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			httputil.Fail(deps.Log, w, "Incorrect username or password", err, http.StatusUnauthorized)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to authenticate", err, http.StatusInternalServerError)
			return
		}
		if user.Disabled {
			httputil.Fail(deps.Log, w, "Inactive user", auth.ErrInactiveUser, http.StatusBadRequest)
			return
		}
		token, err := deps.JWT.GenerateToken(user.Username)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to issue token", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, tokenResponse{
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresIn:   int(deps.JWT.TTL().Seconds()),
		})
	}
}

func meHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := auth.UserFromContext(r.Context())
		httputil.WriteJSON(w, http.StatusOK, user)
	}
}

func updatePreferencesHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := auth.UserFromContext(r.Context())
		var req preferencesRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Fail(deps.Log, w, "invalid preferences", err, http.StatusUnprocessableEntity)
			return
		}
		prefs := ai.Preferences{
			PreferredGenres: req.PreferredGenres,
			FavoriteAuthors: req.FavoriteAuthors,
			Interests:       req.Interests,
		}
		if err := deps.Store.UpdatePreferences(r.Context(), user.ID, prefs); err != nil {
			httputil.Fail(deps.Log, w, "failed to update preferences", err, http.StatusInternalServerError)
			return
		}
		if err := deps.Cache.InvalidateUser(r.Context(), user.ID); err != nil {
			deps.Log.Warn("failed to invalidate recommendations", "user_id", user.ID, "err", err)
		}
		user.Preferences = prefs
		httputil.WriteJSON(w, http.StatusOK, user)
	}
}
