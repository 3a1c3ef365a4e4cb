// Package idempotency guards side effects that may be triggered more than
// once, such as a broker redelivering an event.
//
// State lives in Redis under a caller supplied key: the first caller takes an
// in-progress lock with SET NX, and the outcome is recorded so later callers
// can tell the work was already done.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrAlreadyInProgress means another worker holds the lock for the key.
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	// ErrAlreadyCompleted means the operation finished successfully before.
	ErrAlreadyCompleted = errors.New("idempotency: operation already completed")
	// ErrAlreadyFailed means a previous attempt failed and failures are sticky.
	ErrAlreadyFailed = errors.New("idempotency: operation already failed")
	// ErrInvalidState means the stored value is not a known state.
	ErrInvalidState = errors.New("idempotency: invalid state")
)

// State is the recorded outcome for a key.
type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Idempotency runs fn at most once per key while the recorded state lives.
type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// StateTracker is the Redis-backed Idempotency implementation.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

// New returns a StateTracker storing keys under "idempotency:".
func New(client redis.UniversalClient) *StateTracker {
	return &StateTracker{client: client, prefix: "idempotency:"}
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = 24 * time.Hour
)

// Option configures Exec.
type Option func(*execOptions)

type execOptions struct {
	lockDuration  time.Duration
	stateTTL      time.Duration
	stickyFailure bool
}

// WithLockDuration bounds how long a crashed worker can block the key.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long the completed (or failed) state is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

// WithStickyFailure records failures so the operation is never retried
// while the state lives. By default a failure releases the key.
func WithStickyFailure() Option {
	return func(o *execOptions) { o.stickyFailure = true }
}

// Acquire takes the in-progress lock for key. It returns StateNone when the
// caller now owns the key, or the state recorded by an earlier caller.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	fk := s.prefix + key

	acquired, err := s.client.SetNX(ctx, fk, string(StateInProgress), lockDuration).Result()
	if err != nil {
		return "", err
	}
	if acquired {
		return StateNone, nil
	}

	result, err := s.client.Get(ctx, fk).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; one more try decides ownership
		acquired, err = s.client.SetNX(ctx, fk, string(StateInProgress), lockDuration).Result()
		if err != nil {
			return "", err
		}
		if acquired {
			return StateNone, nil
		}
		return StateInProgress, nil
	}
	if err != nil {
		return "", err
	}

	switch st := State(result); st {
	case StateInProgress, StateCompleted, StateFailed:
		return st, nil
	default:
		return "", ErrInvalidState
	}
}

// Exec runs fn unless key was already handled.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := &execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	fk := s.prefix + key
	if err := fn(ctx); err != nil {
		var markErr error
		if o.stickyFailure {
			markErr = s.client.Set(ctx, fk, string(StateFailed), o.stateTTL).Err()
		} else {
			markErr = s.client.Del(ctx, fk).Err()
		}
		return errors.Join(err, markErr)
	}

	return s.client.Set(ctx, fk, string(StateCompleted), o.stateTTL).Err()
}
