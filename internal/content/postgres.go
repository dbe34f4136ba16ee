package content

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mediaverse/internal/database"
)

//go:embed schema.sql
var schemaSQL string

const postColumns = `post_id, user_id, title, content, category, rating_avg, likes_count, created_at, updated_at`

// PostgresStore implements Store on top of the shared database service.
type PostgresStore struct {
	db database.Service
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(db database.Service) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies the content schema. Idempotent; meant for startup and tests.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply content schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &postgresTx{tx: tx}, nil
}

func (s *PostgresStore) CreatePost(ctx context.Context, userID int64, title, content, category string) (*Post, error) {
	const q = `
		INSERT INTO posts (user_id, title, content, category, rating_avg, likes_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, 0, NOW(), NOW())
		RETURNING ` + postColumns

	return scanPost(s.db.QueryRow(ctx, q, userID, title, content, category))
}

func (s *PostgresStore) GetPost(ctx context.Context, postID int64) (*Post, error) {
	const q = `SELECT ` + postColumns + ` FROM posts WHERE post_id = $1`

	post, err := scanPost(s.db.QueryRow(ctx, q, postID))
	if err == sql.ErrNoRows {
		return nil, ErrPostNotFound
	}
	return post, err
}

func (s *PostgresStore) UpdatePost(ctx context.Context, postID int64, title, content, category string) (*Post, error) {
	const q = `
		UPDATE posts
		SET title = $1, content = $2, category = $3, updated_at = NOW()
		WHERE post_id = $4
		RETURNING ` + postColumns

	post, err := scanPost(s.db.QueryRow(ctx, q, title, content, category, postID))
	if err == sql.ErrNoRows {
		return nil, ErrPostNotFound
	}
	return post, err
}

func (s *PostgresStore) DeletePost(ctx context.Context, postID int64) error {
	// Interaction rows go with the post; there is no orphaned-aggregate state.
	const q = `DELETE FROM posts WHERE post_id = $1`

	res, err := s.db.Exec(ctx, q, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (s *PostgresStore) ListPosts(ctx context.Context) ([]Post, error) {
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts ORDER BY post_id`)
}

func (s *PostgresStore) ListPostsByCategory(ctx context.Context, category string) ([]Post, error) {
	// Exact, case-sensitive match as stored.
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE category = $1 ORDER BY post_id`, category)
}

func (s *PostgresStore) ListPostsByRating(ctx context.Context) ([]Post, error) {
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts ORDER BY rating_avg DESC, post_id`)
}

func (s *PostgresStore) TrendingPosts(ctx context.Context, limit int) ([]Post, error) {
	const q = `SELECT ` + postColumns + ` FROM posts ORDER BY likes_count DESC, post_id LIMIT $1`
	return s.queryPosts(ctx, q, limit)
}

func (s *PostgresStore) TopRatedByCategory(ctx context.Context, category string, limit int) ([]Post, error) {
	const q = `
		SELECT ` + postColumns + `
		FROM posts
		WHERE category = $1
		ORDER BY rating_avg DESC, post_id
		LIMIT $2`
	return s.queryPosts(ctx, q, category, limit)
}

func (s *PostgresStore) SearchPosts(ctx context.Context, query string) ([]Post, error) {
	const q = `
		SELECT ` + postColumns + `
		FROM posts
		WHERE title ILIKE $1 OR content ILIKE $1
		ORDER BY post_id`
	return s.queryPosts(ctx, q, "%"+escapeLike(query)+"%")
}

func (s *PostgresStore) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM likes WHERE post_id = $1 AND user_id = $2)`

	var liked bool
	if err := s.db.QueryRow(ctx, q, postID, userID).Scan(&liked); err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return liked, nil
}

func (s *PostgresStore) AverageRating(ctx context.Context, postID int64) (float64, int, error) {
	const q = `SELECT COALESCE(AVG(rating_value), 0), COUNT(*) FROM ratings WHERE post_id = $1`

	var avg float64
	var count int
	if err := s.db.QueryRow(ctx, q, postID).Scan(&avg, &count); err != nil {
		return 0, 0, fmt.Errorf("average rating: %w", err)
	}
	return avg, count, nil
}

func (s *PostgresStore) UserRating(ctx context.Context, postID, userID int64) (int, bool, error) {
	const q = `SELECT rating_value FROM ratings WHERE post_id = $1 AND user_id = $2`

	var value int
	err := s.db.QueryRow(ctx, q, postID, userID).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("user rating: %w", err)
	}
	return value, true, nil
}

func (s *PostgresStore) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	const q = `
		SELECT comment_id, post_id, user_id, text, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at ASC, comment_id`

	rows, err := s.db.Query(ctx, q, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.CommentID, &c.PostID, &c.UserID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountComments(ctx context.Context, postID int64) (int64, error) {
	const q = `SELECT COUNT(*) FROM comments WHERE post_id = $1`

	var count int64
	if err := s.db.QueryRow(ctx, q, postID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) queryPosts(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.PostID, &p.UserID, &p.Title, &p.Content, &p.Category,
			&p.RatingAvg, &p.LikesCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// postgresTx runs interaction-store writes and the aggregate persist inside
// one database transaction, so a failed recompute rolls back the row change.
type postgresTx struct {
	tx *sql.Tx
}

func (t *postgresTx) GetPost(ctx context.Context, postID int64) (*Post, error) {
	const q = `SELECT ` + postColumns + ` FROM posts WHERE post_id = $1`

	post, err := scanPost(t.tx.QueryRowContext(ctx, q, postID))
	if err == sql.ErrNoRows {
		return nil, ErrPostNotFound
	}
	return post, err
}

func (t *postgresTx) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM likes WHERE post_id = $1 AND user_id = $2)`

	var liked bool
	if err := t.tx.QueryRowContext(ctx, q, postID, userID).Scan(&liked); err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return liked, nil
}

func (t *postgresTx) InsertLike(ctx context.Context, like *Like) error {
	const q = `
		INSERT INTO likes (id, post_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (post_id, user_id) DO NOTHING`

	if like.ID == "" {
		like.ID = uuid.New().String()
	}
	if like.CreatedAt.IsZero() {
		like.CreatedAt = time.Now()
	}
	if _, err := t.tx.ExecContext(ctx, q, like.ID, like.PostID, like.UserID, like.CreatedAt); err != nil {
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

func (t *postgresTx) DeleteLike(ctx context.Context, postID, userID int64) error {
	const q = `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`

	if _, err := t.tx.ExecContext(ctx, q, postID, userID); err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

func (t *postgresTx) CountLikes(ctx context.Context, postID int64) (int64, error) {
	const q = `SELECT COUNT(*) FROM likes WHERE post_id = $1`

	var count int64
	if err := t.tx.QueryRowContext(ctx, q, postID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

func (t *postgresTx) UpsertRating(ctx context.Context, postID, userID int64, value int) error {
	const q = `
		INSERT INTO ratings (post_id, user_id, rating_value, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (post_id, user_id)
		DO UPDATE SET rating_value = EXCLUDED.rating_value, updated_at = NOW()`

	if _, err := t.tx.ExecContext(ctx, q, postID, userID, value); err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

func (t *postgresTx) AverageRating(ctx context.Context, postID int64) (float64, int, error) {
	const q = `SELECT COALESCE(AVG(rating_value), 0), COUNT(*) FROM ratings WHERE post_id = $1`

	var avg float64
	var count int
	if err := t.tx.QueryRowContext(ctx, q, postID).Scan(&avg, &count); err != nil {
		return 0, 0, fmt.Errorf("average rating: %w", err)
	}
	return avg, count, nil
}

func (t *postgresTx) InsertComment(ctx context.Context, postID, userID int64, text string) (*Comment, error) {
	const q = `
		INSERT INTO comments (post_id, user_id, text, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING comment_id, created_at`

	c := &Comment{PostID: postID, UserID: userID, Text: text}
	if err := t.tx.QueryRowContext(ctx, q, postID, userID, text).Scan(&c.CommentID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

func (t *postgresTx) SetAggregates(ctx context.Context, postID, likesCount int64, ratingAvg float64) error {
	const q = `UPDATE posts SET likes_count = $1, rating_avg = $2, updated_at = NOW() WHERE post_id = $3`

	if _, err := t.tx.ExecContext(ctx, q, likesCount, ratingAvg, postID); err != nil {
		return fmt.Errorf("persist aggregates: %w", err)
	}
	return nil
}

func (t *postgresTx) Commit() error {
	return t.tx.Commit()
}

func (t *postgresTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return err
	}
	return nil
}

func scanPost(row *sql.Row) (*Post, error) {
	p := &Post{}
	err := row.Scan(&p.PostID, &p.UserID, &p.Title, &p.Content, &p.Category,
		&p.RatingAvg, &p.LikesCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// escapeLike escapes LIKE metacharacters so user-supplied search text is
// matched literally.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
