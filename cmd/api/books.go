package main

import (
	"errors"
	"net/http"
	"strconv"

	"bookshelf-ai/internal/app"
	"bookshelf-ai/internal/auth"
	"bookshelf-ai/internal/httputil"
	"bookshelf-ai/internal/store"
)

type bookCreateRequest struct {
	Title         string `json:"title" validate:"required,max=255"`
	Author        string `json:"author" validate:"required,max=255"`
	Genre         string `json:"genre" validate:"max=100"`
	YearPublished int    `json:"year_published" validate:"gte=0,lte=3000"`
}

type reviewCreateRequest struct {
	ReviewText string  `json:"review_text" validate:"required"`
	Rating     float64 `json:"rating" validate:"gte=1,lte=5"`
}

type bookSummaryResponse struct {
	BookID        int64   `json:"book_id"`
	Summary       string  `json:"summary"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

func createBookHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookCreateRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Fail(deps.Log, w, "invalid book", err, http.StatusUnprocessableEntity)
			return
		}
		book, err := deps.Store.CreateBook(r.Context(), store.Book{
			Title:         req.Title,
			Author:        req.Author,
			Genre:         req.Genre,
			YearPublished: req.YearPublished,
		})
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to create book", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, book)
	}
}

func listBooksHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := store.BookFilter{
			Title:  q.Get("title"),
			Author: q.Get("author"),
			Genre:  q.Get("genre"),
		}
		var err error
		if filter.Skip, err = queryInt(q.Get("skip"), 0); err != nil {
			httputil.Fail(deps.Log, w, "skip must be a non-negative integer", err, http.StatusUnprocessableEntity)
			return
		}
		if filter.Limit, err = queryInt(q.Get("limit"), 100); err != nil {
			httputil.Fail(deps.Log, w, "limit must be a non-negative integer", err, http.StatusUnprocessableEntity)
			return
		}
		books, err := deps.Store.ListBooks(r.Context(), filter)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list books", err, http.StatusInternalServerError)
			return
		}
		if books == nil {
			books = []store.Book{}
		}
		httputil.WriteJSON(w, http.StatusOK, books)
	}
}

func queryInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("negative value")
	}
	return n, nil
}

func getBookHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid book id", err, http.StatusUnprocessableEntity)
			return
		}
		book, err := deps.Store.GetBook(r.Context(), id)
		if err != nil {
			failLookup(deps, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, book)
	}
}

func updateBookHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid book id", err, http.StatusUnprocessableEntity)
			return
		}
		var update store.BookUpdate
		if err := httputil.DecodeJSON(r, &update); err != nil {
			httputil.Fail(deps.Log, w, "invalid book update", err, http.StatusUnprocessableEntity)
			return
		}
		book, err := deps.Store.UpdateBook(r.Context(), id, update)
		if err != nil {
			failLookup(deps, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, book)
	}
}

func deleteBookHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid book id", err, http.StatusUnprocessableEntity)
			return
		}
		if err := deps.Store.DeleteBook(r.Context(), id); err != nil {
			failLookup(deps, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func bookSummaryHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid book id", err, http.StatusUnprocessableEntity)
			return
		}
		book, err := deps.Store.GetBook(r.Context(), id)
		if err != nil {
			failLookup(deps, w, err)
			return
		}
		rating, err := deps.Store.RatingSummary(r.Context(), id)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to aggregate ratings", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, bookSummaryResponse{
			BookID:        book.ID,
			Summary:       book.Summary,
			AverageRating: rating.AverageRating,
			ReviewCount:   rating.ReviewCount,
		})
	}
}

func createReviewHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid book id", err, http.StatusUnprocessableEntity)
			return
		}
		user, _ := auth.UserFromContext(r.Context())
		var req reviewCreateRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Fail(deps.Log, w, "invalid review", err, http.StatusUnprocessableEntity)
			return
		}
		review, err := deps.Store.CreateReview(r.Context(), store.Review{
			BookID:     id,
			UserID:     user.ID,
			ReviewText: req.ReviewText,
			Rating:     req.Rating,
		})
		if err != nil {
			failLookup(deps, w, err)
			return
		}
		// The reader's history changed, so cached recommendations are stale.
		if err := deps.Cache.InvalidateUser(r.Context(), user.ID); err != nil {
			deps.Log.Warn("failed to invalidate recommendations", "user_id", user.ID, "err", err)
		}
		httputil.WriteJSON(w, http.StatusCreated, review)
	}
}

func listReviewsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid book id", err, http.StatusUnprocessableEntity)
			return
		}
		if _, err := deps.Store.GetBook(r.Context(), id); err != nil {
			failLookup(deps, w, err)
			return
		}
		reviews, err := deps.Store.ListReviews(r.Context(), id)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list reviews", err, http.StatusInternalServerError)
			return
		}
		if reviews == nil {
			reviews = []store.Review{}
		}
		httputil.WriteJSON(w, http.StatusOK, reviews)
	}
}

// failLookup answers 404 for missing books and 500 otherwise.
func failLookup(deps app.Deps, w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		httputil.Fail(deps.Log, w, "Book not found", err, http.StatusNotFound)
		return
	}
	httputil.Fail(deps.Log, w, "internal error", err, http.StatusInternalServerError)
}
