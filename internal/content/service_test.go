package content

import (
	"context"
	"errors"
	"testing"
)

// seedService creates a service over a fresh in-memory store with no cache.
func seedService() (*Service, *memStore) {
	store := newMemStore()
	return NewService(store, nil), store
}

func TestAverageRating_DefaultsWhenUnrated(t *testing.T) {
	svc, store := seedService()
	post := newTestPost(t, store)

	avg, err := svc.AverageRating(context.Background(), post.PostID)
	if err != nil {
		t.Fatalf("AverageRating failed: %v", err)
	}
	if avg != DefaultAverageRating {
		t.Errorf("unrated post avg = %v, want %v", avg, DefaultAverageRating)
	}
}

func TestAverageRating_UsesStoredRatings(t *testing.T) {
	svc, store := seedService()
	post := newTestPost(t, store)
	ctx := context.Background()

	if err := svc.RatePost(ctx, post.PostID, 1, 4); err != nil {
		t.Fatalf("RatePost failed: %v", err)
	}
	if err := svc.RatePost(ctx, post.PostID, 2, 2); err != nil {
		t.Fatalf("RatePost failed: %v", err)
	}

	avg, err := svc.AverageRating(ctx, post.PostID)
	if err != nil {
		t.Fatalf("AverageRating failed: %v", err)
	}
	if avg != 3.0 {
		t.Errorf("avg = %v, want 3.0", avg)
	}
}

func TestUserRating_ZeroWhenUnset(t *testing.T) {
	svc, store := seedService()
	post := newTestPost(t, store)
	ctx := context.Background()

	// The unset default is 0, not the 3.0 the average endpoint reports.
	value, err := svc.UserRating(ctx, post.PostID, 42)
	if err != nil {
		t.Fatalf("UserRating failed: %v", err)
	}
	if value != 0 {
		t.Errorf("unset user rating = %d, want 0", value)
	}

	if err := svc.RatePost(ctx, post.PostID, 42, 5); err != nil {
		t.Fatalf("RatePost failed: %v", err)
	}
	value, err = svc.UserRating(ctx, post.PostID, 42)
	if err != nil {
		t.Fatalf("UserRating failed: %v", err)
	}
	if value != 5 {
		t.Errorf("user rating = %d, want 5", value)
	}
}

func TestLikesCount_ReadsDenormalizedField(t *testing.T) {
	svc, store := seedService()
	post := newTestPost(t, store)
	ctx := context.Background()

	if _, err := svc.ToggleLike(ctx, post.PostID, 1); err != nil {
		t.Fatalf("ToggleLike failed: %v", err)
	}

	count, err := svc.LikesCount(ctx, post.PostID)
	if err != nil {
		t.Fatalf("LikesCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	if _, err := svc.LikesCount(ctx, 999); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("missing post: expected ErrPostNotFound, got %v", err)
	}
}

func TestListPosts_CategoryFilterWinsOverSort(t *testing.T) {
	svc, store := seedService()
	ctx := context.Background()

	store.CreatePost(ctx, 1, "a", "x", "tech")
	store.CreatePost(ctx, 1, "b", "x", "music")
	store.CreatePost(ctx, 1, "c", "x", "tech")

	posts, err := svc.ListPosts(ctx, "tech", sortTopRated)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(posts))
	}
	for _, p := range posts {
		if p.Category != "tech" {
			t.Errorf("post %d has category %q", p.PostID, p.Category)
		}
	}
}

func TestListPosts_TopRatedSortUnbounded(t *testing.T) {
	svc, store := seedService()
	ctx := context.Background()

	// More posts than any ranked endpoint's limit, rated in ascending order.
	for i := 1; i <= 12; i++ {
		post, _ := store.CreatePost(ctx, 1, "p", "x", "tech")
		if err := svc.RatePost(ctx, post.PostID, int64(i), (i%5)+1); err != nil {
			t.Fatalf("RatePost failed: %v", err)
		}
	}

	posts, err := svc.ListPosts(ctx, "", sortTopRated)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 12 {
		t.Errorf("top-rated sort returned %d posts, want all 12", len(posts))
	}
	for i := 1; i < len(posts); i++ {
		if posts[i].RatingAvg > posts[i-1].RatingAvg {
			t.Errorf("posts not sorted by rating desc at index %d", i)
		}
	}
}

func TestTrendingPosts_TopTenByLikes(t *testing.T) {
	svc, store := seedService()
	ctx := context.Background()

	// 12 posts; post i gets i likes.
	for i := 1; i <= 12; i++ {
		post, _ := store.CreatePost(ctx, 1, "p", "x", "tech")
		for u := 1; u <= i; u++ {
			if _, err := svc.ToggleLike(ctx, post.PostID, int64(u)); err != nil {
				t.Fatalf("ToggleLike failed: %v", err)
			}
		}
	}

	posts, err := svc.TrendingPosts(ctx)
	if err != nil {
		t.Fatalf("TrendingPosts failed: %v", err)
	}
	if len(posts) != 10 {
		t.Fatalf("trending returned %d posts, want 10", len(posts))
	}
	if posts[0].LikesCount != 12 {
		t.Errorf("top trending post has %d likes, want 12", posts[0].LikesCount)
	}
	for i := 1; i < len(posts); i++ {
		if posts[i].LikesCount > posts[i-1].LikesCount {
			t.Errorf("trending not sorted by likes desc at index %d", i)
		}
	}
}

func TestTopRatedByCategory_LimitFive(t *testing.T) {
	svc, store := seedService()
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		post, _ := store.CreatePost(ctx, 1, "p", "x", "tech")
		if err := svc.RatePost(ctx, post.PostID, 1, (i%5)+1); err != nil {
			t.Fatalf("RatePost failed: %v", err)
		}
	}
	other, _ := store.CreatePost(ctx, 1, "p", "x", "music")
	if err := svc.RatePost(ctx, other.PostID, 1, 5); err != nil {
		t.Fatalf("RatePost failed: %v", err)
	}

	posts, err := svc.TopRatedByCategory(ctx, "tech")
	if err != nil {
		t.Fatalf("TopRatedByCategory failed: %v", err)
	}
	if len(posts) != 5 {
		t.Fatalf("got %d posts, want 5", len(posts))
	}
	for _, p := range posts {
		if p.Category != "tech" {
			t.Errorf("post %d has category %q", p.PostID, p.Category)
		}
	}
}

func TestSearchPosts_CaseInsensitiveSubstring(t *testing.T) {
	svc, store := seedService()
	ctx := context.Background()

	store.CreatePost(ctx, 1, "Go Concurrency Patterns", "channels and goroutines", "tech")
	store.CreatePost(ctx, 1, "Cooking", "how to make CONCURRENT jam", "food")
	store.CreatePost(ctx, 1, "Music", "nothing relevant", "music")

	posts, err := svc.SearchPosts(ctx, "concurren")
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("got %d matches, want 2 (title and content, any case)", len(posts))
	}
}

func TestUpdatePost_OwnershipEnforced(t *testing.T) {
	svc, store := seedService()
	ctx := context.Background()

	post, _ := store.CreatePost(ctx, 1, "mine", "x", "tech")
	req := CreatePostRequest{Title: "stolen", Content: "y", Category: "tech"}

	if _, err := svc.UpdatePost(ctx, post.PostID, 2, req); !errors.Is(err, ErrNotPostOwner) {
		t.Errorf("expected ErrNotPostOwner, got %v", err)
	}

	updated, err := svc.UpdatePost(ctx, post.PostID, 1, req)
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.Title != "stolen" {
		t.Errorf("title = %q, want %q", updated.Title, "stolen")
	}
}

func TestDeletePost_OwnershipEnforced(t *testing.T) {
	svc, store := seedService()
	ctx := context.Background()

	post, _ := store.CreatePost(ctx, 1, "mine", "x", "tech")

	if err := svc.DeletePost(ctx, post.PostID, 2); !errors.Is(err, ErrNotPostOwner) {
		t.Errorf("expected ErrNotPostOwner, got %v", err)
	}
	if err := svc.DeletePost(ctx, post.PostID, 1); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := svc.GetPost(ctx, post.PostID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound after delete, got %v", err)
	}
}

func TestCommentsCount_LiveCount(t *testing.T) {
	svc, store := seedService()
	post := newTestPost(t, store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.AddComment(ctx, post.PostID, int64(i+1), "hi"); err != nil {
			t.Fatalf("AddComment failed: %v", err)
		}
	}

	count, err := svc.CommentsCount(ctx, post.PostID)
	if err != nil {
		t.Fatalf("CommentsCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	if _, err := svc.CommentsCount(ctx, 999); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("missing post: expected ErrPostNotFound, got %v", err)
	}
}
