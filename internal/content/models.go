package content

import "time"

// Post is the denormalized post record. LikesCount and RatingAvg are summary
// fields maintained by the Aggregator; they are what every read and ranking
// path consumes, never the raw like/rating rows.
type Post struct {
	PostID     int64     `json:"post_id" db:"post_id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	Title      string    `json:"title" db:"title"`
	Content    string    `json:"content" db:"content"`
	Category   string    `json:"category" db:"category"`
	RatingAvg  float64   `json:"rating_avg" db:"rating_avg"`
	LikesCount int64     `json:"likes_count" db:"likes_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Like is a single user's like on a post. At most one row exists per
// (post, user) pair; the toggle protocol and a unique constraint both
// enforce that.
type Like struct {
	ID        string    `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Rating is a single user's 1-5 rating of a post. Re-rating replaces the
// stored value in place, never appends.
type Rating struct {
	RatingID    int64     `json:"rating_id"`
	PostID      int64     `json:"post_id"`
	UserID      int64     `json:"user_id"`
	RatingValue int       `json:"rating_value"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Comment is an append-only comment on a post.
type Comment struct {
	CommentID int64     `json:"comment_id"`
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePostRequest is the body for POST /posts and PUT /posts/:id.
type CreatePostRequest struct {
	Title    string `json:"title" binding:"required,max=200"`
	Content  string `json:"content" binding:"required"`
	Category string `json:"category" binding:"required,max=100"`
}

// RateRequest is the body for POST /posts/:id/rate.
type RateRequest struct {
	RatingValue int `json:"ratingValue"`
}

// CommentRequest is the body for POST /posts/:id/comment.
type CommentRequest struct {
	Text string `json:"text"`
}

// LikeResponse reports the caller-visible outcome of a toggle.
type LikeResponse struct {
	PostID     int64 `json:"post_id"`
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

// CountResponse carries a single counter for a post.
type CountResponse struct {
	PostID int64 `json:"post_id"`
	Count  int64 `json:"count"`
}

// LikedResponse reports whether the caller has liked a post.
type LikedResponse struct {
	PostID int64 `json:"post_id"`
	Liked  bool  `json:"liked"`
}

// RatingResponse carries a post's average rating.
type RatingResponse struct {
	PostID    int64   `json:"post_id"`
	RatingAvg float64 `json:"rating_avg"`
}

// UserRatingResponse carries the caller's own rating for a post.
type UserRatingResponse struct {
	PostID      int64 `json:"post_id"`
	RatingValue int   `json:"rating_value"`
}

// ErrorResponse is the error envelope for all content endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
