package content

import (
	"context"
	"errors"
)

var (
	// ErrPostNotFound is returned when the referenced post does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrNotPostOwner is returned when a caller edits a post they do not own.
	ErrNotPostOwner = errors.New("not the post owner")
	// ErrInvalidRating is returned for rating values outside [1,5].
	ErrInvalidRating = errors.New("rating value must be between 1 and 5")
	// ErrEmptyComment is returned when a comment has no text.
	ErrEmptyComment = errors.New("comment text must not be empty")
)

// Store is the persistence contract for posts and their interaction rows.
// It is passed into the service and aggregator explicitly; there is no
// package-level handle. A Postgres implementation backs production and an
// in-memory implementation of the same contract backs unit tests.
type Store interface {
	// Begin opens the transactional scope the Aggregator runs its
	// read-change-recompute-persist unit inside.
	Begin(ctx context.Context) (Tx, error)

	CreatePost(ctx context.Context, userID int64, title, content, category string) (*Post, error)
	GetPost(ctx context.Context, postID int64) (*Post, error)
	UpdatePost(ctx context.Context, postID int64, title, content, category string) (*Post, error)
	DeletePost(ctx context.Context, postID int64) error

	// Query surface. Ranking consumes the denormalized fields only.
	ListPosts(ctx context.Context) ([]Post, error)
	ListPostsByCategory(ctx context.Context, category string) ([]Post, error)
	ListPostsByRating(ctx context.Context) ([]Post, error)
	TrendingPosts(ctx context.Context, limit int) ([]Post, error)
	TopRatedByCategory(ctx context.Context, category string, limit int) ([]Post, error)
	SearchPosts(ctx context.Context, query string) ([]Post, error)

	HasLiked(ctx context.Context, postID, userID int64) (bool, error)
	// AverageRating returns the mean over stored rating rows and how many
	// rows exist. The empty-set default is applied by the service, not here.
	AverageRating(ctx context.Context, postID int64) (float64, int, error)
	// UserRating returns the caller's stored value and whether one exists.
	UserRating(ctx context.Context, postID, userID int64) (int, bool, error)

	ListComments(ctx context.Context, postID int64) ([]Comment, error)
	// CountComments is a live count over comment rows; comments deliberately
	// have no denormalized counter on the post.
	CountComments(ctx context.Context, postID int64) (int64, error)
}

// Tx is the set of operations available inside one atomic unit of work.
// Rollback after Commit is a no-op, so callers can defer it on all paths.
type Tx interface {
	GetPost(ctx context.Context, postID int64) (*Post, error)

	HasLiked(ctx context.Context, postID, userID int64) (bool, error)
	InsertLike(ctx context.Context, like *Like) error
	DeleteLike(ctx context.Context, postID, userID int64) error
	CountLikes(ctx context.Context, postID int64) (int64, error)

	UpsertRating(ctx context.Context, postID, userID int64, value int) error
	AverageRating(ctx context.Context, postID int64) (float64, int, error)

	InsertComment(ctx context.Context, postID, userID int64, text string) (*Comment, error)

	// SetAggregates persists the recomputed denormalized fields on the post.
	SetAggregates(ctx context.Context, postID, likesCount int64, ratingAvg float64) error

	Commit() error
	Rollback() error
}
