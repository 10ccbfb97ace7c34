package store

import (
	"context"
	"errors"
	"time"

	"bookshelf-ai/internal/ai"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type Book struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Genre         string    `json:"genre"`
	YearPublished int       `json:"year_published"`
	Summary       string    `json:"summary,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BookUpdate carries a partial update; nil fields are left unchanged.
type BookUpdate struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=255"`
	Author        *string `json:"author" validate:"omitempty,min=1,max=255"`
	Genre         *string `json:"genre" validate:"omitempty,max=100"`
	YearPublished *int    `json:"year_published" validate:"omitempty,min=0,max=3000"`
}

// BookFilter narrows ListBooks. Title and Author match case-insensitive
// substrings, Genre matches case-insensitively.
type BookFilter struct {
	Title  string
	Author string
	Genre  string
	Skip   int
	Limit  int
}

type Review struct {
	ID         int64     `json:"id"`
	BookID     int64     `json:"book_id"`
	UserID     int64     `json:"user_id"`
	ReviewText string    `json:"review_text"`
	Rating     float64   `json:"rating"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RatingSummary aggregates the reviews of one book.
type RatingSummary struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

type User struct {
	ID             int64          `json:"id"`
	Username       string         `json:"username"`
	Email          string         `json:"email"`
	HashedPassword string         `json:"-"`
	Disabled       bool           `json:"disabled"`
	Preferences    ai.Preferences `json:"preferences"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Chunk is a slice of uploaded book content.
type Chunk struct {
	BookID     int64
	Index      int
	Text       string
	TokenCount int
}

// Store defines the persistence contract for books, reviews and users.
type Store interface {
	CreateBook(ctx context.Context, book Book) (Book, error)
	GetBook(ctx context.Context, id int64) (Book, error)
	ListBooks(ctx context.Context, filter BookFilter) ([]Book, error)
	UpdateBook(ctx context.Context, id int64, update BookUpdate) (Book, error)
	DeleteBook(ctx context.Context, id int64) error
	SaveSummary(ctx context.Context, bookID int64, summary string) error

	// SaveContent replaces the uploaded text of a book.
	SaveContent(ctx context.Context, bookID int64, content string) error
	GetContent(ctx context.Context, bookID int64) (string, error)
	SaveChunks(ctx context.Context, bookID int64, chunks []Chunk) error
	ListChunks(ctx context.Context, bookID int64) ([]Chunk, error)

	CreateReview(ctx context.Context, review Review) (Review, error)
	ListReviews(ctx context.Context, bookID int64) ([]Review, error)
	RatingSummary(ctx context.Context, bookID int64) (RatingSummary, error)

	CreateUser(ctx context.Context, user User) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	UpdatePreferences(ctx context.Context, userID int64, prefs ai.Preferences) error
	ReadingHistory(ctx context.Context, userID int64) ([]ai.ReadingEntry, error)

	Close() error
}
