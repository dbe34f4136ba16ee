package content

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// memStore implements Store over plain maps so the aggregator and service
// logic can be exercised without a database. A transaction holds the store
// mutex for its whole lifetime and rolls back by restoring a snapshot taken
// at Begin.
type memStore struct {
	mu sync.Mutex

	nextPostID    int64
	nextCommentID int64

	posts    map[int64]*Post
	likes    map[int64]map[int64]Like
	ratings  map[int64]map[int64]int
	comments map[int64][]Comment

	// Failure injection for rollback tests.
	failSetAggregates error
	failCommit        error
}

func newMemStore() *memStore {
	return &memStore{
		posts:    make(map[int64]*Post),
		likes:    make(map[int64]map[int64]Like),
		ratings:  make(map[int64]map[int64]int),
		comments: make(map[int64][]Comment),
	}
}

type memSnapshot struct {
	posts    map[int64]*Post
	likes    map[int64]map[int64]Like
	ratings  map[int64]map[int64]int
	comments map[int64][]Comment
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		posts:    make(map[int64]*Post, len(s.posts)),
		likes:    make(map[int64]map[int64]Like, len(s.likes)),
		ratings:  make(map[int64]map[int64]int, len(s.ratings)),
		comments: make(map[int64][]Comment, len(s.comments)),
	}
	for id, p := range s.posts {
		cp := *p
		snap.posts[id] = &cp
	}
	for id, m := range s.likes {
		cp := make(map[int64]Like, len(m))
		for u, l := range m {
			cp[u] = l
		}
		snap.likes[id] = cp
	}
	for id, m := range s.ratings {
		cp := make(map[int64]int, len(m))
		for u, v := range m {
			cp[u] = v
		}
		snap.ratings[id] = cp
	}
	for id, cs := range s.comments {
		snap.comments[id] = append([]Comment(nil), cs...)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.posts = snap.posts
	s.likes = snap.likes
	s.ratings = snap.ratings
	s.comments = snap.comments
}

func (s *memStore) Begin(ctx context.Context) (Tx, error) {
	s.mu.Lock()
	return &memTx{store: s, snap: s.snapshot()}, nil
}

func (s *memStore) CreatePost(ctx context.Context, userID int64, title, content, category string) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPostID++
	now := time.Now()
	post := &Post{
		PostID:    s.nextPostID,
		UserID:    userID,
		Title:     title,
		Content:   content,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.posts[post.PostID] = post
	cp := *post
	return &cp, nil
}

func (s *memStore) getPost(postID int64) (*Post, error) {
	post, ok := s.posts[postID]
	if !ok {
		return nil, ErrPostNotFound
	}
	cp := *post
	return &cp, nil
}

func (s *memStore) GetPost(ctx context.Context, postID int64) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getPost(postID)
}

func (s *memStore) UpdatePost(ctx context.Context, postID int64, title, content, category string) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return nil, ErrPostNotFound
	}
	post.Title = title
	post.Content = content
	post.Category = category
	post.UpdatedAt = time.Now()
	cp := *post
	return &cp, nil
}

func (s *memStore) DeletePost(ctx context.Context, postID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return ErrPostNotFound
	}
	delete(s.posts, postID)
	delete(s.likes, postID)
	delete(s.ratings, postID)
	delete(s.comments, postID)
	return nil
}

func (s *memStore) allPosts() []Post {
	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostID < out[j].PostID })
	return out
}

func (s *memStore) ListPosts(ctx context.Context) ([]Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allPosts(), nil
}

func (s *memStore) ListPostsByCategory(ctx context.Context, category string) ([]Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Post
	for _, p := range s.allPosts() {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func byRatingDesc(posts []Post) []Post {
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].RatingAvg > posts[j].RatingAvg })
	return posts
}

func (s *memStore) ListPostsByRating(ctx context.Context) ([]Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return byRatingDesc(s.allPosts()), nil
}

func (s *memStore) TrendingPosts(ctx context.Context, limit int) ([]Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.allPosts()
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].LikesCount > posts[j].LikesCount })
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *memStore) TopRatedByCategory(ctx context.Context, category string, limit int) ([]Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var filtered []Post
	for _, p := range s.allPosts() {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	filtered = byRatingDesc(filtered)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func (s *memStore) SearchPosts(ctx context.Context, query string) ([]Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	var out []Post
	for _, p := range s.allPosts() {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Content), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) hasLiked(postID, userID int64) bool {
	_, ok := s.likes[postID][userID]
	return ok
}

func (s *memStore) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasLiked(postID, userID), nil
}

func (s *memStore) averageRating(postID int64) (float64, int) {
	m := s.ratings[postID]
	if len(m) == 0 {
		return 0, 0
	}
	var sum int
	for _, v := range m {
		sum += v
	}
	return float64(sum) / float64(len(m)), len(m)
}

func (s *memStore) AverageRating(ctx context.Context, postID int64) (float64, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	avg, n := s.averageRating(postID)
	return avg, n, nil
}

func (s *memStore) UserRating(ctx context.Context, postID, userID int64) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.ratings[postID][userID]
	return v, ok, nil
}

func (s *memStore) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Comment(nil), s.comments[postID]...), nil
}

func (s *memStore) CountComments(ctx context.Context, postID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.comments[postID])), nil
}

// likeRows reports how many like rows exist for the post, for checking the
// stored counter against the table.
func (s *memStore) likeRows(postID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.likes[postID]))
}

type memTx struct {
	store *memStore
	snap  memSnapshot
	done  bool
}

func (t *memTx) GetPost(ctx context.Context, postID int64) (*Post, error) {
	return t.store.getPost(postID)
}

func (t *memTx) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	return t.store.hasLiked(postID, userID), nil
}

func (t *memTx) InsertLike(ctx context.Context, like *Like) error {
	m := t.store.likes[like.PostID]
	if m == nil {
		m = make(map[int64]Like)
		t.store.likes[like.PostID] = m
	}
	m[like.UserID] = *like
	return nil
}

func (t *memTx) DeleteLike(ctx context.Context, postID, userID int64) error {
	delete(t.store.likes[postID], userID)
	return nil
}

func (t *memTx) CountLikes(ctx context.Context, postID int64) (int64, error) {
	return int64(len(t.store.likes[postID])), nil
}

func (t *memTx) UpsertRating(ctx context.Context, postID, userID int64, value int) error {
	m := t.store.ratings[postID]
	if m == nil {
		m = make(map[int64]int)
		t.store.ratings[postID] = m
	}
	m[userID] = value
	return nil
}

func (t *memTx) AverageRating(ctx context.Context, postID int64) (float64, int, error) {
	avg, n := t.store.averageRating(postID)
	return avg, n, nil
}

func (t *memTx) InsertComment(ctx context.Context, postID, userID int64, text string) (*Comment, error) {
	t.store.nextCommentID++
	comment := Comment{
		CommentID: t.store.nextCommentID,
		PostID:    postID,
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	t.store.comments[postID] = append(t.store.comments[postID], comment)
	cp := comment
	return &cp, nil
}

func (t *memTx) SetAggregates(ctx context.Context, postID, likesCount int64, ratingAvg float64) error {
	if err := t.store.failSetAggregates; err != nil {
		return err
	}
	post, ok := t.store.posts[postID]
	if !ok {
		return ErrPostNotFound
	}
	post.LikesCount = likesCount
	post.RatingAvg = ratingAvg
	post.UpdatedAt = time.Now()
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.store.failCommit; err != nil {
		t.store.restore(t.snap)
		t.store.mu.Unlock()
		return err
	}
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.restore(t.snap)
	t.store.mu.Unlock()
	return nil
}
