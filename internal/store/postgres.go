package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"bookshelf-ai/internal/ai"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// migrationLockID serializes schema setup between the API and the worker.
const migrationLockID = 424242001

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(50) UNIQUE NOT NULL,
		email VARCHAR(100) UNIQUE NOT NULL,
		hashed_password VARCHAR(255) NOT NULL,
		disabled BOOLEAN NOT NULL DEFAULT false,
		preferred_genres TEXT[] NOT NULL DEFAULT '{}',
		favorite_authors TEXT[] NOT NULL DEFAULT '{}',
		interests TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS books (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		author VARCHAR(255) NOT NULL,
		genre VARCHAR(100) NOT NULL DEFAULT '',
		year_published INT NOT NULL DEFAULT 0,
		summary TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS books_title_idx ON books (title);`,
	`CREATE INDEX IF NOT EXISTS books_author_idx ON books (author);`,
	`CREATE INDEX IF NOT EXISTS books_genre_idx ON books (genre);`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id BIGSERIAL PRIMARY KEY,
		book_id BIGINT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		review_text TEXT NOT NULL DEFAULT '',
		rating DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS book_contents (
		book_id BIGINT PRIMARY KEY REFERENCES books(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS book_chunks (
		book_id BIGINT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		ord INT NOT NULL,
		text TEXT NOT NULL,
		token_count INT NOT NULL,
		PRIMARY KEY (book_id, ord)
	);`,
}

// execer is satisfied by *sql.Conn. Session-level advisory locks belong to
// one connection, so lock, schema and unlock must share it.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to reserve migration connection: %w", err)
	}
	defer conn.Close()
	return runMigrations(ctx, conn)
}

// runMigrations blocks until it holds the lock, so a process that starts
// second waits for the schema instead of racing ahead of it.
func runMigrations(ctx context.Context, conn execer) (err error) {
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, migrationLockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		if _, unlockErr := conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockID); unlockErr != nil && err == nil {
			err = fmt.Errorf("failed to release migration lock: %w", unlockErr)
		}
	}()

	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

const bookColumns = `id, title, author, genre, year_published, COALESCE(summary, ''), created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.YearPublished, &b.Summary, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (s *PostgresStore) CreateBook(ctx context.Context, book Book) (Book, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO books(title, author, genre, year_published)
		VALUES($1,$2,$3,$4)
		RETURNING `+bookColumns,
		book.Title, book.Author, book.Genre, book.YearPublished)
	return scanBook(row)
}

func (s *PostgresStore) GetBook(ctx context.Context, id int64) (Book, error) {
	b, err := scanBook(s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, ErrNotFound
	}
	if err != nil {
		return Book{}, fmt.Errorf("failed to get book %d: %w", id, err)
	}
	return b, nil
}

func (s *PostgresStore) ListBooks(ctx context.Context, filter BookFilter) ([]Book, error) {
	query, args := buildListBooksQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// buildListBooksQuery renders the optional filters as positional parameters.
func buildListBooksQuery(filter BookFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.Title != "" {
		args = append(args, filter.Title)
		where = append(where, fmt.Sprintf(`title ILIKE '%%' || $%d || '%%'`, len(args)))
	}
	if filter.Author != "" {
		args = append(args, filter.Author)
		where = append(where, fmt.Sprintf(`author ILIKE '%%' || $%d || '%%'`, len(args)))
	}
	if filter.Genre != "" {
		args = append(args, filter.Genre)
		where = append(where, fmt.Sprintf(`lower(genre) = lower($%d)`, len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + bookColumns + ` FROM books`)
	if len(where) > 0 {
		b.WriteString(` WHERE ` + strings.Join(where, ` AND `))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, filter.Skip, limit)
	fmt.Fprintf(&b, ` ORDER BY id OFFSET $%d LIMIT $%d`, len(args)-1, len(args))
	return b.String(), args
}

func (s *PostgresStore) UpdateBook(ctx context.Context, id int64, update BookUpdate) (Book, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE books SET
			title = COALESCE($2, title),
			author = COALESCE($3, author),
			genre = COALESCE($4, genre),
			year_published = COALESCE($5, year_published),
			updated_at = now()
		WHERE id=$1
		RETURNING `+bookColumns,
		id, update.Title, update.Author, update.Genre, update.YearPublished)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, ErrNotFound
	}
	return b, err
}

func (s *PostgresStore) DeleteBook(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveSummary(ctx context.Context, bookID int64, summary string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE books SET summary=$1, updated_at=now() WHERE id=$2`, summary, bookID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveContent(ctx context.Context, bookID int64, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO book_contents(book_id, content) VALUES($1,$2)
		ON CONFLICT (book_id) DO UPDATE SET content=EXCLUDED.content, updated_at=now()`,
		bookID, content)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *PostgresStore) GetContent(ctx context.Context, bookID int64) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM book_contents WHERE book_id=$1`, bookID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get content for book %d: %w", bookID, err)
	}
	return content, nil
}

// SaveChunks replaces the stored content of a book.
func (s *PostgresStore) SaveChunks(ctx context.Context, bookID int64, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM book_chunks WHERE book_id=$1`, bookID); err != nil {
		return err
	}
	for _, c := range chunks {
		_, err := tx.ExecContext(ctx, `INSERT INTO book_chunks(book_id, ord, text, token_count) VALUES($1,$2,$3,$4)`,
			bookID, c.Index, c.Text, c.TokenCount)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ListChunks(ctx context.Context, bookID int64) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ord, text, token_count FROM book_chunks WHERE book_id=$1 ORDER BY ord`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Chunk
	for rows.Next() {
		c := Chunk{BookID: bookID}
		if err := rows.Scan(&c.Index, &c.Text, &c.TokenCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateReview(ctx context.Context, review Review) (Review, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reviews(book_id, user_id, review_text, rating)
		VALUES($1,$2,$3,$4)
		RETURNING id, created_at, updated_at`,
		review.BookID, review.UserID, review.ReviewText, review.Rating,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return Review{}, ErrNotFound
		}
		return Review{}, err
	}
	return review, nil
}

func (s *PostgresStore) ListReviews(ctx context.Context, bookID int64) ([]Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, user_id, review_text, rating, created_at, updated_at
		FROM reviews WHERE book_id=$1 ORDER BY created_at DESC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Review{}
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.BookID, &r.UserID, &r.ReviewText, &r.Rating, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) RatingSummary(ctx context.Context, bookID int64) (RatingSummary, error) {
	var sum RatingSummary
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE book_id=$1`, bookID,
	).Scan(&sum.AverageRating, &sum.ReviewCount)
	if err != nil {
		return RatingSummary{}, fmt.Errorf("failed to aggregate ratings for book %d: %w", bookID, err)
	}
	return sum, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users(username, email, hashed_password, preferred_genres, favorite_authors, interests)
		VALUES($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`,
		user.Username, user.Email, user.HashedPassword,
		pq.Array(nonNil(user.Preferences.PreferredGenres)),
		pq.Array(nonNil(user.Preferences.FavoriteAuthors)),
		pq.Array(nonNil(user.Preferences.Interests)),
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrConflict
		}
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, hashed_password, disabled,
			preferred_genres, favorite_authors, interests, created_at
		FROM users WHERE username=$1`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.Disabled,
		pq.Array(&u.Preferences.PreferredGenres),
		pq.Array(&u.Preferences.FavoriteAuthors),
		pq.Array(&u.Preferences.Interests),
		&u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return u, nil
}

func (s *PostgresStore) UpdatePreferences(ctx context.Context, userID int64, prefs ai.Preferences) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET preferred_genres=$1, favorite_authors=$2, interests=$3 WHERE id=$4`,
		pq.Array(nonNil(prefs.PreferredGenres)),
		pq.Array(nonNil(prefs.FavoriteAuthors)),
		pq.Array(nonNil(prefs.Interests)),
		userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReadingHistory lists the distinct books a user has reviewed, oldest first.
func (s *PostgresStore) ReadingHistory(ctx context.Context, userID int64) ([]ai.ReadingEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.title, b.author
		FROM books b
		JOIN reviews r ON r.book_id = b.id
		WHERE r.user_id=$1
		GROUP BY b.id, b.title, b.author
		ORDER BY MIN(r.created_at)`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ai.ReadingEntry{}
	for rows.Next() {
		var e ai.ReadingEntry
		if err := rows.Scan(&e.Title, &e.Author); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
