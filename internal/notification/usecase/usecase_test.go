package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/supavault/internal/notification/entity"
	"github.com/shandysiswandi/supavault/internal/pkg/config"
	"github.com/shandysiswandi/supavault/internal/pkg/idempotency"
	"github.com/shandysiswandi/supavault/internal/pkg/instrument"
	"github.com/shandysiswandi/supavault/internal/pkg/mail"
	"github.com/shandysiswandi/supavault/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
app:
  name: SupaVault
  web: https://vault.example.com
modules:
  notification:
    support_email: help@example.com
`

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

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

type memLogs struct {
	mu         sync.Mutex
	logs       map[int64]entity.DeliveryLog
	failCreate error
}

func (m *memLogs) CreateDeliveryLog(_ context.Context, dl entity.DeliveryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	m.logs[dl.ID] = dl
	return nil
}

func (m *memLogs) UpdateDeliveryLogStatus(_ context.Context, u entity.UpdateDeliveryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dl := m.logs[u.ID]
	dl.Status = u.Status
	dl.ProviderResponse = u.ProviderResponse
	dl.UpdatedAt = u.UpdatedAt
	m.logs[u.ID] = dl
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	fail error
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) (mail.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return mail.Receipt{}, f.fail
	}
	f.sent = append(f.sent, msg)
	return mail.Receipt{Provider: "smtp", MessageID: "<m1@supavault>"}, nil
}

// memIdempotency mirrors the Redis StateTracker without sticky failures.
type memIdempotency struct {
	mu    sync.Mutex
	state map[string]idempotency.State
}

func (m *memIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	m.mu.Lock()
	switch m.state[key] {
	case idempotency.StateInProgress:
		m.mu.Unlock()
		return idempotency.ErrAlreadyInProgress
	case idempotency.StateCompleted:
		m.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	m.state[key] = idempotency.StateInProgress
	m.mu.Unlock()

	err := fn(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		delete(m.state, key)
		return err
	}
	m.state[key] = idempotency.StateCompleted
	return nil
}

type fixture struct {
	uc   *Usecase
	logs *memLogs
	mail *fakeMailer
	idem *memIdempotency
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

	f := &fixture{
		logs: &memLogs{logs: map[int64]entity.DeliveryLog{}},
		mail: &fakeMailer{},
		idem: &memIdempotency{state: map[string]idempotency.State{}},
	}
	f.uc = NewNotification(Dependency{
		RepoDB:      f.logs,
		RepoMail:    f.mail,
		Idempotency: f.idem,
		Config:      cfg,
		UID:         &sequenceID{},
		Clock:       fixedClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		Validator:   v,
		Instrument:  instrument.NewNoop(),
	})

	return f
}

func TestConsumeUserRegistered_SendsWelcomeOnce(t *testing.T) {
	// Arrange
	f := newFixture(t)
	in := ConsumeUserRegisteredInput{UserID: 42, Username: "O'Brien", Email: "ob@example.com"}

	// Act
	first := f.uc.ConsumeUserRegistered(context.Background(), in)
	redelivered := f.uc.ConsumeUserRegistered(context.Background(), in)

	// Assert
	require.NoError(t, first)
	require.NoError(t, redelivered)
	require.Len(t, f.mail.sent, 1)

	msg := f.mail.sent[0]
	assert.Equal(t, []string{"ob@example.com"}, msg.To)
	assert.Equal(t, "Welcome to SupaVault, O'Brien!", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "O&#39;Brien")
	assert.Contains(t, msg.HTMLBody, "https://vault.example.com")
	assert.Contains(t, msg.HTMLBody, "help@example.com")
	assert.Contains(t, msg.TextBody, "Hi O'Brien,")

	require.Len(t, f.logs.logs, 1)
	dl := f.logs.logs[1]
	assert.Equal(t, entity.DeliveryStatusSent, dl.Status)
	assert.Equal(t, entity.TriggerKeyUserWelcome, dl.TriggerKey)
	assert.Equal(t, "<m1@supavault>", dl.ProviderResponse.GetString("message_id"))
	assert.Equal(t, idempotency.StateCompleted, f.idem.state["notification:welcome:42"])
}

func TestConsumeUserRegistered_MailFailureIsRetryable(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.mail.fail = errors.New("smtp: 421 try later")
	in := ConsumeUserRegisteredInput{UserID: 7, Username: "Bob", Email: "b@example.com"}

	// Act
	err := f.uc.ConsumeUserRegistered(context.Background(), in)

	// Assert
	require.Error(t, err)
	assert.Equal(t, entity.DeliveryStatusFailed, f.logs.logs[1].Status)
	assert.True(t, strings.Contains(f.logs.logs[1].ProviderResponse.GetString("error"), "421"))
	_, locked := f.idem.state["notification:welcome:7"]
	assert.False(t, locked, "failed delivery must release the key")

	f.mail.fail = nil
	require.NoError(t, f.uc.ConsumeUserRegistered(context.Background(), in))
	assert.Len(t, f.mail.sent, 1)
	assert.Equal(t, entity.DeliveryStatusSent, f.logs.logs[2].Status)
}

func TestConsumeUserRegistered_InProgressElsewhere(t *testing.T) {
	f := newFixture(t)
	f.idem.state["notification:welcome:9"] = idempotency.StateInProgress

	err := f.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{UserID: 9, Username: "Eve", Email: "e@example.com"})

	assert.ErrorIs(t, err, idempotency.ErrAlreadyInProgress)
	assert.Empty(t, f.mail.sent)
}

func TestConsumeUserRegistered_DropsInvalidEvent(t *testing.T) {
	tests := []struct {
		name string
		in   ConsumeUserRegisteredInput
	}{
		{name: "missing user id", in: ConsumeUserRegisteredInput{Username: "Bob", Email: "b@example.com"}},
		{name: "bad email", in: ConsumeUserRegisteredInput{UserID: 1, Username: "Bob", Email: "nope"}},
		{name: "missing username", in: ConsumeUserRegisteredInput{UserID: 1, Email: "b@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			err := f.uc.ConsumeUserRegistered(context.Background(), tt.in)

			assert.NoError(t, err)
			assert.Empty(t, f.mail.sent)
			assert.Empty(t, f.logs.logs)
		})
	}
}

func TestConsumeUserRegistered_LogStoreDown(t *testing.T) {
	f := newFixture(t)
	f.logs.failCreate = errors.New("connection reset")

	err := f.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{UserID: 3, Username: "Carol", Email: "c@example.com"})

	require.Error(t, err)
	assert.Empty(t, f.mail.sent, "no mail without a delivery log")
}
