package users

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"mediaverse/internal/database"
)

//go:embed schema.sql
var schemaSQL string

// Repository is the persistence contract for accounts and the follow graph.
type Repository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	Follow(ctx context.Context, followerID, followeeID int64) error
	Unfollow(ctx context.Context, followerID, followeeID int64) error
	Followers(ctx context.Context, userID int64) ([]Profile, error)
	Following(ctx context.Context, userID int64) ([]Profile, error)
}

// PostgresRepository implements Repository over the shared database service.
type PostgresRepository struct {
	db database.Service
}

func NewPostgresRepository(db database.Service) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate applies the users schema. Statements are idempotent.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply users schema: %w", err)
	}
	return nil
}

const userColumns = "id, name, email, password_hash, created_at, updated_at"

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, name, email, passwordHash string) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, name, email, passwordHash, time.Now()))
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *PostgresRepository) Follow(ctx context.Context, followerID, followeeID int64) error {
	query := `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followee_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, query, followerID, followeeID, time.Now()); err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`

	if _, err := r.db.Exec(ctx, query, followerID, followeeID); err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Followers(ctx context.Context, userID int64) ([]Profile, error) {
	query := `
		SELECT u.id, u.name FROM users u
		JOIN follows f ON f.follower_id = u.id
		WHERE f.followee_id = $1
		ORDER BY f.created_at`

	return r.queryProfiles(ctx, query, userID)
}

func (r *PostgresRepository) Following(ctx context.Context, userID int64) ([]Profile, error) {
	query := `
		SELECT u.id, u.name FROM users u
		JOIN follows f ON f.followee_id = u.id
		WHERE f.follower_id = $1
		ORDER BY f.created_at`

	return r.queryProfiles(ctx, query, userID)
}

func (r *PostgresRepository) queryProfiles(ctx context.Context, query string, args ...any) ([]Profile, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []Profile{}
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// isUniqueViolation checks the driver error text for a named unique
// constraint.
func isUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") &&
		strings.Contains(msg, constraint)
}
