package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-ai/internal/app"
	"bookshelf-ai/internal/logger"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"status": "healthy"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestFail(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		wantStatus int
		wantDetail string
	}{
		{"not found", errors.New("no rows"), http.StatusNotFound, http.StatusNotFound, "book not found"},
		{"zero status defaults to 500", nil, 0, http.StatusInternalServerError, "book not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Fail(logger.Discard(), rec, "book not found", tt.err, tt.status)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantDetail, body["detail"])
		})
	}
}

func TestFailValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	verr := &ValidationError{Fields: []FieldError{{Field: "title", Message: "field required"}}}
	Fail(logger.Discard(), rec, "invalid request", verr, http.StatusUnprocessableEntity)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Detail []FieldError `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, verr.Fields, body.Detail)
}

type signup struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Rating   int    `json:"rating" validate:"gte=1,lte=5"`
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(&signup{Username: "alice", Email: "a@example.com", Rating: 5}))

	err := Validate(&signup{Username: "al", Email: "nope", Rating: 9})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []FieldError{
		{Field: "email", Message: "value is not a valid email address"},
		{Field: "rating", Message: "must be less than or equal to 5"},
		{Field: "username", Message: "must be at least 3"},
	}, verr.Fields)
	assert.Contains(t, verr.Error(), "username: must be at least 3")
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"username":"alice","email":"a@example.com","rating":3}`, ""},
		{"empty body", ``, "request body is empty"},
		{"malformed", `{"username":`, "invalid JSON body"},
		{"fails validation", `{"username":"alice","email":"a@example.com","rating":0}`, "validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst signup
			err := DecodeJSON(req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "alice", dst.Username)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRouterRecoversPanics(t *testing.T) {
	r := NewRouter(logger.Discard(), []string{"*"})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouterCORS(t *testing.T) {
	r := NewRouter(logger.Discard(), []string{"https://books.example.com"})
	r.Get("/books", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Origin", "https://books.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://books.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/generate-summary", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(app.Deps{Log: logger.Discard()})(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
