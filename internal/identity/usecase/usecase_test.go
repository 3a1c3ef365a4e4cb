package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/supavault/internal/identity/entity"
	"github.com/shandysiswandi/supavault/internal/pkg/config"
	"github.com/shandysiswandi/supavault/internal/pkg/goerror"
	"github.com/shandysiswandi/supavault/internal/pkg/hash"
	"github.com/shandysiswandi/supavault/internal/pkg/instrument"
	"github.com/shandysiswandi/supavault/internal/pkg/jwt"
	"github.com/shandysiswandi/supavault/internal/pkg/otp"
	"github.com/shandysiswandi/supavault/internal/pkg/uid"
	"github.com/shandysiswandi/supavault/internal/pkg/validator"
)

const testConfig = `
modules:
  identity:
    search_limit: 10
    otp:
      max_attempts: 3
      expiry_minutes: 10
`

var testSecret = []byte(strings.Repeat("k", 64))

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sequenceID struct {
	mu sync.Mutex
	n  int64
}

func (s *sequenceID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

// memStore is an in-memory credential store with the same atomicity the
// Postgres and Redis stores give.
type memStore struct {
	mu         sync.Mutex
	users      map[string]entity.User
	challenges map[string]entity.Challenge

	failGetUser error
	failUpsert  error
	conflictOn  string
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]entity.User{},
		challenges: map[string]entity.Challenge{},
	}
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGetUser != nil {
		return nil, m.failGetUser
	}
	u, ok := m.users[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (m *memStore) CreateUser(_ context.Context, user entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflictOn == user.Email {
		// simulate a concurrent verification inserting first
		m.users[user.Email] = entity.User{ID: 999, Username: user.Username, Email: user.Email}
		m.conflictOn = ""
		return goerror.ErrConflict
	}
	if _, ok := m.users[user.Email]; ok {
		return goerror.ErrConflict
	}
	m.users[user.Email] = user
	return nil
}

func (m *memStore) CreateUserIfAbsent(ctx context.Context, user entity.User) (bool, error) {
	err := m.CreateUser(ctx, user)
	if errors.Is(err, goerror.ErrConflict) {
		return false, nil
	}
	return err == nil, err
}

func (m *memStore) SearchUsers(_ context.Context, term string, excludeID int64, limit int) ([]entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.User
	for _, u := range m.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(term)) {
			out = append(out, u)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) UpsertChallenge(_ context.Context, chal entity.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpsert != nil {
		return m.failUpsert
	}
	for id, c := range m.challenges {
		if c.Username == chal.Username && c.Email == chal.Email {
			delete(m.challenges, id)
		}
	}
	m.challenges[chal.ID] = chal
	return nil
}

func (m *memStore) ReserveAttempt(_ context.Context, id string, limit int) (*entity.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[id]
	if !ok || c.Attempts >= limit {
		return nil, goerror.ErrNotFound
	}
	c.Attempts++
	m.challenges[id] = c
	return &c, nil
}

func (m *memStore) ConsumeChallenge(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.challenges[id]; !ok {
		return false, nil
	}
	delete(m.challenges, id)
	return true, nil
}

func (m *memStore) DeleteChallenge(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.challenges, id)
	return nil
}

func (m *memStore) challenge(id string) (entity.Challenge, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[id]
	return c, ok
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []OTPMail
	err  error
}

func (f *fakeMailer) SendOTP(_ context.Context, msg OTPMail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatalf("no otp mail was sent")
	}
	return f.sent[len(f.sent)-1].Code
}

type fakePublisher struct {
	mu     sync.Mutex
	events []UserRegisteredEvent
	err    error
}

func (f *fakePublisher) PublishUserRegistered(_ context.Context, msg UserRegisteredEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
	return f.err
}

type fixture struct {
	uc    *Usecase
	store *memStore
	mail  *fakeMailer
	pub   *fakePublisher
	clock *fakeClock
	jwt   jwt.JWT
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	token, err := jwt.NewHS512(jwt.Config{
		Secret: testSecret,
		Issuer: "supavault-test",
		TTL:    entity.DefaultSessionTTL,
		Clock:  clk,
		UUID:   uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	hasher, err := hash.NewHMAC("otp-secret")
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}

	f := &fixture{
		store: newMemStore(),
		mail:  &fakeMailer{},
		pub:   &fakePublisher{},
		clock: clk,
		jwt:   token,
	}

	f.uc = New(Dependency{
		RepoDB:        f.store,
		RepoChallenge: f.store,
		RepoMessaging: f.pub,
		RepoEmail:     f.mail,
		Validator:     v,
		Config:        cfg,
		Hasher:        hasher,
		OTP:           otp.NewNumeric(entity.DefaultCodeLength),
		UID:           &sequenceID{n: 100},
		ULID:          uid.NewULID(),
		Clock:         clk,
		JWT:           token,
		Instrument:    instrument.NewNoop(),
	})

	return f
}

func (f *fixture) addUser(id int64, username, email string) {
	f.store.users[email] = entity.User{ID: id, Username: username, Email: email, CreatedAt: f.clock.Now()}
}

func assertCode(t *testing.T, err error, want goerror.Code, msg string) {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *goerror.Error, got %T (%v)", err, err)
	}
	if gerr.Code() != want {
		t.Fatalf("code = %s, want %s (%v)", gerr.Code(), want, err)
	}
	if msg != "" && gerr.Msg() != msg {
		t.Fatalf("message = %q, want %q", gerr.Msg(), msg)
	}
}
