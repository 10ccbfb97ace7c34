package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"bookshelf-ai/internal/ai"
	"bookshelf-ai/internal/app"
	"bookshelf-ai/internal/auth"
	"bookshelf-ai/internal/httputil"
	"bookshelf-ai/internal/metrics"
)

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Log.Warn("error while closing dependencies", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	deps.Log.Info("starting api", "project", deps.Config.ProjectName, "prefix", deps.Config.APIPrefix)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httputil.ListenAndServe(ctx, deps.Log, srv)
	})
	if err := g.Wait(); err != nil {
		deps.Log.Error("api stopped", "err", err)
		return
	}
	deps.Log.Info("api shut down")
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log, deps.Config.AllowedOrigins)

	r.Get("/", rootHandler(deps))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Get("/healthz", httputil.HealthHandler(deps))
	r.Handle("/metrics", metrics.Handler())

	requireUser := auth.Middleware(deps.JWT, deps.Store, deps.Log)

	r.Route(deps.Config.APIPrefix, func(r chi.Router) {
		r.Post("/users", registerHandler(deps))
		r.Post("/token", tokenHandler(deps))

		r.Route("/books", func(r chi.Router) {
			r.Get("/", listBooksHandler(deps))
			r.Get("/{id}", getBookHandler(deps))
			r.Get("/{id}/summary", bookSummaryHandler(deps))
			r.Get("/{id}/reviews", listReviewsHandler(deps))

			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Post("/", createBookHandler(deps))
				r.Put("/{id}", updateBookHandler(deps))
				r.Delete("/{id}", deleteBookHandler(deps))
				r.Post("/{id}/reviews", createReviewHandler(deps))
				r.Post("/{id}/content", uploadContentHandler(deps))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/users/me", meHandler(deps))
			r.Put("/users/me/preferences", updatePreferencesHandler(deps))

			r.Group(func(r chi.Router) {
				r.Use(httputil.RateLimit(deps.Config.RateLimitPerMinute))
				r.Post("/generate-summary", generateSummaryHandler(deps))
				r.Get("/recommendations", recommendationsHandler(deps))
			})
		})
	})

	return r
}

func rootHandler(deps app.Deps) http.HandlerFunc {
	message := "Welcome to " + deps.Config.ProjectName + " API"
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
	}
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// failAI maps generation failures to 503 so clients can retry later.
func failAI(deps app.Deps, w http.ResponseWriter, err error) {
	var modelErr *ai.ModelError
	if errors.As(err, &modelErr) {
		httputil.Fail(deps.Log, w, modelErr.Error(), err, http.StatusServiceUnavailable)
		return
	}
	httputil.Fail(deps.Log, w, "internal error", err, http.StatusInternalServerError)
}
