package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultAverageRating is reported for a post with no ratings yet. The
	// API contract uses this mid-scale placeholder rather than zero; a
	// caller's own unset rating reads as 0 instead. The two defaults differ
	// on purpose.
	DefaultAverageRating = 3.0

	trendingLimit        = 10
	topRatedByCatLimit   = 5
	sortTopRated         = "top-rated"
	postCacheTTL         = 5 * time.Minute
)

// Service is the content service's business layer: post CRUD, the query
// surface, and interaction mutations delegated to the Aggregator. A nil
// cache client disables caching.
type Service struct {
	store Store
	agg   *Aggregator
	cache *redis.Client
}

// NewService creates the content service over the given store.
func NewService(store Store, cache *redis.Client) *Service {
	return &Service{
		store: store,
		agg:   NewAggregator(store),
		cache: cache,
	}
}

// NewCache connects to Redis for post caching. Returns nil (caching
// disabled) if the connection fails; the service works without it.
func NewCache(addr, password string, db int) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("Redis connection failed, post caching disabled", "error", err)
		return nil
	}
	return rdb
}

// --- Post CRUD ---

func (s *Service) CreatePost(ctx context.Context, userID int64, req CreatePostRequest) (*Post, error) {
	return s.store.CreatePost(ctx, userID, req.Title, req.Content, req.Category)
}

func (s *Service) GetPost(ctx context.Context, postID int64) (*Post, error) {
	if post, ok := s.cachedPost(ctx, postID); ok {
		return post, nil
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	// A read racing a concurrent write can re-cache a snapshot taken just
	// before that write's invalidation, leaving stale aggregates until the
	// TTL expires. Accepted: the row tables stay the source of truth.
	s.cachePost(ctx, post)
	return post, nil
}

func (s *Service) UpdatePost(ctx context.Context, postID, userID int64, req CreatePostRequest) (*Post, error) {
	existing, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, ErrNotPostOwner
	}

	post, err := s.store.UpdatePost(ctx, postID, req.Title, req.Content, req.Category)
	if err != nil {
		return nil, err
	}

	s.invalidatePost(ctx, postID)
	return post, nil
}

func (s *Service) DeletePost(ctx context.Context, postID, userID int64) error {
	existing, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return ErrNotPostOwner
	}

	if err := s.store.DeletePost(ctx, postID); err != nil {
		return err
	}

	s.invalidatePost(ctx, postID)
	return nil
}

// --- Query surface (denormalized fields only) ---

// ListPosts filters by exact category when one is given; otherwise
// sort="top-rated" returns every post by rating_avg descending with no
// limit. Anything else is storage order.
func (s *Service) ListPosts(ctx context.Context, category, sort string) ([]Post, error) {
	switch {
	case category != "":
		return s.store.ListPostsByCategory(ctx, category)
	case sort == sortTopRated:
		return s.store.ListPostsByRating(ctx)
	default:
		return s.store.ListPosts(ctx)
	}
}

// TrendingPosts returns the top 10 posts by likes_count descending.
func (s *Service) TrendingPosts(ctx context.Context) ([]Post, error) {
	return s.store.TrendingPosts(ctx, trendingLimit)
}

// TopRatedByCategory returns at most 5 posts in the category by rating_avg
// descending. The limit is independent of the unbounded top-rated sort in
// ListPosts.
func (s *Service) TopRatedByCategory(ctx context.Context, category string) ([]Post, error) {
	return s.store.TopRatedByCategory(ctx, category, topRatedByCatLimit)
}

// SearchPosts matches the query case-insensitively against title or content.
func (s *Service) SearchPosts(ctx context.Context, query string) ([]Post, error) {
	return s.store.SearchPosts(ctx, query)
}

// --- Likes ---

func (s *Service) ToggleLike(ctx context.Context, postID, userID int64) (*LikeResponse, error) {
	res, err := s.agg.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	s.invalidatePost(ctx, postID)
	return res, nil
}

// LikesCount reads the denormalized counter off the post record; it never
// counts like rows.
func (s *Service) LikesCount(ctx context.Context, postID int64) (int64, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return 0, err
	}
	return post.LikesCount, nil
}

func (s *Service) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return false, err
	}
	return s.store.HasLiked(ctx, postID, userID)
}

// --- Ratings ---

func (s *Service) RatePost(ctx context.Context, postID, userID int64, value int) error {
	if err := s.agg.RatePost(ctx, postID, userID, value); err != nil {
		return err
	}

	s.invalidatePost(ctx, postID)
	return nil
}

// AverageRating returns the mean over all stored ratings for the post, or
// DefaultAverageRating when none exist.
func (s *Service) AverageRating(ctx context.Context, postID int64) (float64, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return 0, err
	}

	avg, count, err := s.store.AverageRating(ctx, postID)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return DefaultAverageRating, nil
	}
	return avg, nil
}

// UserRating returns the caller's stored rating, or 0 when they have not
// rated the post.
func (s *Service) UserRating(ctx context.Context, postID, userID int64) (int, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return 0, err
	}

	value, ok, err := s.store.UserRating(ctx, postID, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return value, nil
}

// --- Comments ---

func (s *Service) AddComment(ctx context.Context, postID, userID int64, text string) (*Comment, error) {
	return s.agg.AddComment(ctx, postID, userID, text)
}

func (s *Service) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, postID)
}

// CommentsCount is a live count over comment rows, unlike likes and ratings.
func (s *Service) CommentsCount(ctx context.Context, postID int64) (int64, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return 0, err
	}
	return s.store.CountComments(ctx, postID)
}

// --- Cache helpers ---

func (s *Service) cachedPost(ctx context.Context, postID int64) (*Post, bool) {
	if s.cache == nil {
		return nil, false
	}

	cached, err := s.cache.Get(ctx, postCacheKey(postID)).Result()
	if err != nil {
		return nil, false
	}

	var post Post
	if err := json.Unmarshal([]byte(cached), &post); err != nil {
		return nil, false
	}

	slog.Debug("post cache hit", "post_id", postID)
	return &post, true
}

func (s *Service) cachePost(ctx context.Context, post *Post) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(post)
	if err != nil {
		return
	}
	s.cache.Set(ctx, postCacheKey(post.PostID), data, postCacheTTL)
}

func (s *Service) invalidatePost(ctx context.Context, postID int64) {
	if s.cache == nil {
		return
	}
	s.cache.Del(ctx, postCacheKey(postID))
}

func postCacheKey(postID int64) string {
	return fmt.Sprintf("post:%d", postID)
}
