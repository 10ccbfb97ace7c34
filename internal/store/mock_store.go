package store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"bookshelf-ai/internal/ai"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateBook(ctx context.Context, book Book) (Book, error) {
	args := m.Called(ctx, book)
	return args.Get(0).(Book), args.Error(1)
}

func (m *MockStore) GetBook(ctx context.Context, id int64) (Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Book), args.Error(1)
}

func (m *MockStore) ListBooks(ctx context.Context, filter BookFilter) ([]Book, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Book), args.Error(1)
}

func (m *MockStore) UpdateBook(ctx context.Context, id int64, update BookUpdate) (Book, error) {
	args := m.Called(ctx, id, update)
	return args.Get(0).(Book), args.Error(1)
}

func (m *MockStore) DeleteBook(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) SaveSummary(ctx context.Context, bookID int64, summary string) error {
	args := m.Called(ctx, bookID, summary)
	return args.Error(0)
}

func (m *MockStore) SaveContent(ctx context.Context, bookID int64, content string) error {
	args := m.Called(ctx, bookID, content)
	return args.Error(0)
}

func (m *MockStore) GetContent(ctx context.Context, bookID int64) (string, error) {
	args := m.Called(ctx, bookID)
	return args.String(0), args.Error(1)
}

func (m *MockStore) SaveChunks(ctx context.Context, bookID int64, chunks []Chunk) error {
	args := m.Called(ctx, bookID, chunks)
	return args.Error(0)
}

func (m *MockStore) ListChunks(ctx context.Context, bookID int64) ([]Chunk, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Chunk), args.Error(1)
}

func (m *MockStore) CreateReview(ctx context.Context, review Review) (Review, error) {
	args := m.Called(ctx, review)
	return args.Get(0).(Review), args.Error(1)
}

func (m *MockStore) ListReviews(ctx context.Context, bookID int64) ([]Review, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Review), args.Error(1)
}

func (m *MockStore) RatingSummary(ctx context.Context, bookID int64) (RatingSummary, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).(RatingSummary), args.Error(1)
}

func (m *MockStore) CreateUser(ctx context.Context, user User) (User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockStore) UpdatePreferences(ctx context.Context, userID int64, prefs ai.Preferences) error {
	args := m.Called(ctx, userID, prefs)
	return args.Error(0)
}

func (m *MockStore) ReadingHistory(ctx context.Context, userID int64) ([]ai.ReadingEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ai.ReadingEntry), args.Error(1)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
