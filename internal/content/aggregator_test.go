package content

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func newTestPost(t *testing.T, store *memStore) *Post {
	t.Helper()
	post, err := store.CreatePost(context.Background(), 1, "title", "content", "tech")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	return post
}

func TestToggleLike_FirstToggleLikes(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store)
	post := newTestPost(t, store)

	res, err := agg.ToggleLike(context.Background(), post.PostID, 42)
	if err != nil {
		t.Fatalf("ToggleLike failed: %v", err)
	}
	if !res.Liked {
		t.Error("expected Liked=true after first toggle")
	}
	if res.LikesCount != 1 {
		t.Errorf("expected likes count 1, got %d", res.LikesCount)
	}

	stored, _ := store.GetPost(context.Background(), post.PostID)
	if stored.LikesCount != 1 {
		t.Errorf("stored counter = %d, want 1", stored.LikesCount)
	}
}

func TestToggleLike_DoubleToggleRestoresState(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store)
	post := newTestPost(t, store)
	ctx := context.Background()

	if _, err := agg.ToggleLike(ctx, post.PostID, 42); err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	res, err := agg.ToggleLike(ctx, post.PostID, 42)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}

	if res.Liked {
		t.Error("expected Liked=false after second toggle")
	}
	if res.LikesCount != 0 {
		t.Errorf("expected likes count 0, got %d", res.LikesCount)
	}
	liked, _ := store.HasLiked(ctx, post.PostID, 42)
	if liked {
		t.Error("like row should be gone after double toggle")
	}
}

func TestToggleLike_CounterMatchesRows(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store)
	post := newTestPost(t, store)
	ctx := context.Background()

	for userID := int64(1); userID <= 5; userID++ {
		if _, err := agg.ToggleLike(ctx, post.PostID, userID); err != nil {
			t.Fatalf("toggle for user %d failed: %v", userID, err)
		}
	}
	// Two users retract.
	for _, userID := range []int64{2, 4} {
		if _, err := agg.ToggleLike(ctx, post.PostID, userID); err != nil {
			t.Fatalf("retract for user %d failed: %v", userID, err)
		}
	}

	stored, _ := store.GetPost(ctx, post.PostID)
	if rows := store.likeRows(post.PostID); stored.LikesCount != rows {
		t.Errorf("stored counter %d does not match %d like rows", stored.LikesCount, rows)
	}
	if stored.LikesCount != 3 {
		t.Errorf("stored counter = %d, want 3", stored.LikesCount)
	}
}

func TestToggleLike_PostNotFound(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store)

	_, err := agg.ToggleLike(context.Background(), 999, 1)
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
}

func TestToggleLike_RollbackOnAggregateFailure(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store)
	post := newTestPost(t, store)
	ctx := context.Background()

	store.failSetAggregates = errors.New("disk full")
	if _, err := agg.ToggleLike(ctx, post.PostID, 42); err == nil {
		t.Fatal("expected toggle to fail")
	}
	store.failSetAggregates = nil

	// The like row must not survive the failed unit.
	liked, _ := store.HasLiked(ctx, post.PostID, 42)
	if liked {
		t.Error("like row leaked past a rolled back transaction")
	}
	stored, _ := store.GetPost(ctx, post.PostID)
	if stored.LikesCount != 0 {
		t.Errorf("stored counter = %d, want 0 after rollback", stored.LikesCount)
	}
}

func TestToggleLike_Concurrent(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store)
	post := newTestPost(t, store)
	ctx := context.Background()

	const users = 20
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			if _, err := agg.ToggleLike(ctx, post.PostID, userID); err != nil {
				t.Errorf("toggle for user %d failed: %v", userID, err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	stored, _ := store.GetPost(ctx, post.PostID)
	if stored.LikesCount != users {
		t.Errorf("stored counter = %d, want %d", stored.LikesCount, users)
	}
	if rows := store.likeRows(post.PostID); rows != users {
		t.Errorf("like rows = %d, want %d", rows, users)
	}
}

func TestRatePost_RecomputesAverage(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store)
	post := newTestPost(t, store)
	ctx := context.Background()

	if err := agg.RatePost(ctx, post.PostID, 1, 4); err != nil {
		t.Fatalf("first rating failed: %v", err)
	}
	if err := agg.RatePost(ctx, post.PostID, 2, 2); err != nil {
		t.Fatalf("second rating failed: %v", err)
	}

	stored, _ := store.GetPost(ctx, post.PostID)
	if stored.RatingAvg != 3.0 {
		t.Errorf("rating avg = %v, want 3.0", stored.RatingAvg)
	}
}

func TestRatePost_ReRatingReplaces(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store)
	post := newTestPost(t, store)
	ctx := context.Background()

	if err := agg.RatePost(ctx, post.PostID, 1, 4); err != nil {
		t.Fatalf("rating failed: %v", err)
	}
	if err := agg.RatePost(ctx, post.PostID, 2, 2); err != nil {
		t.Fatalf("rating failed: %v", err)
	}
	// User 1 changes their mind: 4 -> 5. Average becomes (5+2)/2.
	if err := agg.RatePost(ctx, post.PostID, 1, 5); err != nil {
		t.Fatalf("re-rating failed: %v", err)
	}

	stored, _ := store.GetPost(ctx, post.PostID)
	if stored.RatingAvg != 3.5 {
		t.Errorf("rating avg = %v, want 3.5", stored.RatingAvg)
	}
	value, ok, _ := store.UserRating(ctx, post.PostID, 1)
	if !ok || value != 5 {
		t.Errorf("user rating = (%d,%v), want (5,true)", value, ok)
	}
}

func TestRatePost_RejectsOutOfRange(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store)
	post := newTestPost(t, store)
	ctx := context.Background()

	for _, value := range []int{0, 6, -3} {
		if err := agg.RatePost(ctx, post.PostID, 1, value); !errors.Is(err, ErrInvalidRating) {
			t.Errorf("value %d: expected ErrInvalidRating, got %v", value, err)
		}
	}

	// Nothing was stored.
	_, n, _ := store.AverageRating(ctx, post.PostID)
	if n != 0 {
		t.Errorf("expected no stored ratings, got %d", n)
	}
}

func TestRatePost_PreservesLikesCount(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store)
	post := newTestPost(t, store)
	ctx := context.Background()

	if _, err := agg.ToggleLike(ctx, post.PostID, 7); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if err := agg.RatePost(ctx, post.PostID, 7, 5); err != nil {
		t.Fatalf("rating failed: %v", err)
	}

	stored, _ := store.GetPost(ctx, post.PostID)
	if stored.LikesCount != 1 {
		t.Errorf("rating overwrote likes count: got %d, want 1", stored.LikesCount)
	}
	if stored.RatingAvg != 5.0 {
		t.Errorf("rating avg = %v, want 5.0", stored.RatingAvg)
	}
}

func TestRatePost_RollbackOnCommitFailure(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store)
	post := newTestPost(t, store)
	ctx := context.Background()

	store.failCommit = errors.New("connection reset")
	if err := agg.RatePost(ctx, post.PostID, 1, 5); err == nil {
		t.Fatal("expected rating to fail")
	}
	store.failCommit = nil

	_, ok, _ := store.UserRating(ctx, post.PostID, 1)
	if ok {
		t.Error("rating row leaked past a failed commit")
	}
	stored, _ := store.GetPost(ctx, post.PostID)
	if stored.RatingAvg != 0 {
		t.Errorf("rating avg = %v, want 0 after rollback", stored.RatingAvg)
	}
}

func TestAddComment_AppendsAndCounts(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store)
	post := newTestPost(t, store)
	ctx := context.Background()

	first, err := agg.AddComment(ctx, post.PostID, 1, "first")
	if err != nil {
		t.Fatalf("comment failed: %v", err)
	}
	second, err := agg.AddComment(ctx, post.PostID, 2, "second")
	if err != nil {
		t.Fatalf("comment failed: %v", err)
	}
	if first.CommentID == second.CommentID {
		t.Error("comment ids should be distinct")
	}

	count, _ := store.CountComments(ctx, post.PostID)
	if count != 2 {
		t.Errorf("comment count = %d, want 2", count)
	}
}

func TestAddComment_RejectsEmptyText(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store)
	post := newTestPost(t, store)

	if _, err := agg.AddComment(context.Background(), post.PostID, 1, ""); !errors.Is(err, ErrEmptyComment) {
		t.Errorf("expected ErrEmptyComment, got %v", err)
	}

	// Whitespace-only text is accepted; only the empty string is rejected.
	if _, err := agg.AddComment(context.Background(), post.PostID, 1, "   "); err != nil {
		t.Errorf("whitespace comment should be accepted, got %v", err)
	}
}

func TestAddComment_PostNotFound(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store)

	if _, err := agg.AddComment(context.Background(), 999, 1, "hello"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
}
