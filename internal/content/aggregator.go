package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Aggregator keeps the denormalized post fields (likes_count, rating_avg)
// consistent with the like and rating rows. Every mutation runs as one unit
// (read interaction state, apply the row change, recompute the aggregate from
// the full row set, persist the post) inside a store transaction and under
// a per-post lock. A failure anywhere rolls the whole unit back, so the rows
// and the aggregates never drift apart.
type Aggregator struct {
	store Store
	locks *postLocks
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{
		store: store,
		locks: newPostLocks(),
	}
}

// ToggleLike flips the caller's like on the post: deletes the like row if one
// exists, inserts one otherwise, then recounts the like rows and persists the
// count. Two sequential calls by the same caller restore the original state.
func (a *Aggregator) ToggleLike(ctx context.Context, postID, userID int64) (*LikeResponse, error) {
	unlock := a.locks.Lock(postID)
	defer unlock()

	tx, err := a.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	post, err := tx.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	liked, err := tx.HasLiked(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	if liked {
		if err := tx.DeleteLike(ctx, postID, userID); err != nil {
			return nil, err
		}
	} else {
		like := &Like{ID: uuid.New().String(), PostID: postID, UserID: userID}
		if err := tx.InsertLike(ctx, like); err != nil {
			return nil, err
		}
	}

	// Recount from the rows rather than incrementing, so the stored counter
	// can never drift from the table.
	count, err := tx.CountLikes(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := tx.SetAggregates(ctx, postID, count, post.RatingAvg); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit like toggle: %w", err)
	}

	return &LikeResponse{PostID: postID, Liked: !liked, LikesCount: count}, nil
}

// RatePost stores or replaces the caller's rating, then recomputes the
// average over all rating rows for the post and persists it. Re-rating never
// adds a second row for the same caller.
func (a *Aggregator) RatePost(ctx context.Context, postID, userID int64, value int) error {
	if value < 1 || value > 5 {
		return ErrInvalidRating
	}

	unlock := a.locks.Lock(postID)
	defer unlock()

	tx, err := a.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	post, err := tx.GetPost(ctx, postID)
	if err != nil {
		return err
	}

	if err := tx.UpsertRating(ctx, postID, userID, value); err != nil {
		return err
	}

	// Full recomputation over the stored set, not an incremental average.
	avg, _, err := tx.AverageRating(ctx, postID)
	if err != nil {
		return err
	}

	if err := tx.SetAggregates(ctx, postID, post.LikesCount, avg); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rating: %w", err)
	}
	return nil
}

// AddComment appends a comment after checking the post exists. Comments have
// no denormalized counter; the count endpoint queries the rows live.
func (a *Aggregator) AddComment(ctx context.Context, postID, userID int64, text string) (*Comment, error) {
	if text == "" {
		return nil, ErrEmptyComment
	}

	unlock := a.locks.Lock(postID)
	defer unlock()

	tx, err := a.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comment, err := tx.InsertComment(ctx, postID, userID, text)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit comment: %w", err)
	}
	return comment, nil
}
