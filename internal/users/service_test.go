package users

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memRepo struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*User
	byEmail map[string]*User
	follows map[[2]int64]time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		byID:    make(map[int64]*User),
		byEmail: make(map[string]*User),
		follows: make(map[[2]int64]time.Time),
	}
}

func (r *memRepo) Create(ctx context.Context, name, email, passwordHash string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[email]; ok {
		return nil, ErrEmailTaken
	}
	r.nextID++
	now := time.Now()
	user := &User{ID: r.nextID, Name: name, Email: email, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	r.byID[user.ID] = user
	r.byEmail[email] = user
	cp := *user
	return &cp, nil
}

func (r *memRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *memRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *memRepo) Follow(ctx context.Context, followerID, followeeID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int64{followerID, followeeID}
	if _, ok := r.follows[key]; !ok {
		r.follows[key] = time.Now()
	}
	return nil
}

func (r *memRepo) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.follows, [2]int64{followerID, followeeID})
	return nil
}

func (r *memRepo) Followers(ctx context.Context, userID int64) ([]Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profiles := []Profile{}
	for key := range r.follows {
		if key[1] == userID {
			u := r.byID[key[0]]
			profiles = append(profiles, Profile{ID: u.ID, Name: u.Name})
		}
	}
	return profiles, nil
}

func (r *memRepo) Following(ctx context.Context, userID int64) ([]Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profiles := []Profile{}
	for key := range r.follows {
		if key[0] == userID {
			u := r.byID[key[1]]
			profiles = append(profiles, Profile{ID: u.ID, Name: u.Name})
		}
	}
	return profiles, nil
}

// capturingPublisher records every published event.
type capturingPublisher struct {
	mu     sync.Mutex
	events []map[string]any
}

func (p *capturingPublisher) Publish(topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(map[string]any))
	return nil
}

func newTestService(events EventPublisher) (*Service, *memRepo) {
	repo := newMemRepo()
	tokens := NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	return NewService(repo, tokens, events, "email-events"), repo
}

func TestRegister_IssuesUsableToken(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{Name: "alice", Email: "a@example.com", Password: "secret-password"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if res.Token == "" {
		t.Fatal("expected a token")
	}

	user, err := svc.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("token from Register not accepted: %v", err)
	}
	if user.ID != res.User.ID {
		t.Errorf("token resolved to user %d, want %d", user.ID, res.User.ID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	req := RegisterRequest{Name: "alice", Email: "a@example.com", Password: "secret-password"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if _, err := svc.Register(ctx, req); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_PublishesWelcomeEvent(t *testing.T) {
	pub := &capturingPublisher{}
	svc, _ := newTestService(pub)

	if _, err := svc.Register(context.Background(), RegisterRequest{Name: "alice", Email: "a@example.com", Password: "secret-password"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	event := pub.events[0]
	if event["event_type"] != "welcome" {
		t.Errorf("event type = %v, want welcome", event["event_type"])
	}
	if event["recipient"] != "a@example.com" {
		t.Errorf("recipient = %v", event["recipient"])
	}
	if event["message_id"] == "" {
		t.Error("event missing message_id")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{Name: "alice", Email: "a@example.com", Password: "secret-password"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_Succeeds(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{Name: "alice", Email: "a@example.com", Password: "secret-password"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	res, err := svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "secret-password"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, res.Token); err != nil {
		t.Errorf("login token not accepted: %v", err)
	}
}

func TestAuthenticate_RejectsGarbageAndExpired(t *testing.T) {
	svc, repo := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.Authenticate(ctx, "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}

	// Token signed with a TTL already in the past.
	user, _ := repo.Create(ctx, "bob", "b@example.com", "hash")
	expired := NewTokenManager("0123456789abcdef0123456789abcdef", -time.Minute)
	token, err := expired.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: expected ErrInvalidToken, got %v", err)
	}

	// Token signed with a different secret.
	other := NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour)
	token, _ = other.Generate(user)
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign token: expected ErrInvalidToken, got %v", err)
	}
}

func TestForgotPassword_PublishesResetEvent(t *testing.T) {
	pub := &capturingPublisher{}
	svc, _ := newTestService(pub)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{Name: "alice", Email: "a@example.com", Password: "secret-password"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	pub.events = nil

	if err := svc.ForgotPassword(ctx, "a@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0]["event_type"] != "password_reset" {
		t.Fatalf("expected one password_reset event, got %v", pub.events)
	}

	if err := svc.ForgotPassword(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFollow_Graph(t *testing.T) {
	svc, repo := newTestService(nil)
	ctx := context.Background()

	alice, _ := repo.Create(ctx, "alice", "a@example.com", "hash")
	bob, _ := repo.Create(ctx, "bob", "b@example.com", "hash")

	if err := svc.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	// Following twice is a no-op, not an error.
	if err := svc.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("repeat Follow failed: %v", err)
	}

	followers, err := svc.Followers(ctx, bob.ID)
	if err != nil {
		t.Fatalf("Followers failed: %v", err)
	}
	if len(followers) != 1 || followers[0].ID != alice.ID {
		t.Errorf("followers = %v, want [alice]", followers)
	}

	following, err := svc.Following(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Following failed: %v", err)
	}
	if len(following) != 1 || following[0].ID != bob.ID {
		t.Errorf("following = %v, want [bob]", following)
	}

	if err := svc.Unfollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Unfollow failed: %v", err)
	}
	followers, _ = svc.Followers(ctx, bob.ID)
	if len(followers) != 0 {
		t.Errorf("followers after unfollow = %v, want empty", followers)
	}
}

func TestFollow_SelfRejected(t *testing.T) {
	svc, repo := newTestService(nil)
	ctx := context.Background()

	alice, _ := repo.Create(ctx, "alice", "a@example.com", "hash")
	if err := svc.Follow(ctx, alice.ID, alice.ID); !errors.Is(err, ErrSelfFollow) {
		t.Errorf("expected ErrSelfFollow, got %v", err)
	}
}

func TestFollow_UnknownFollowee(t *testing.T) {
	svc, repo := newTestService(nil)
	ctx := context.Background()

	alice, _ := repo.Create(ctx, "alice", "a@example.com", "hash")
	if err := svc.Follow(ctx, alice.ID, 999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
