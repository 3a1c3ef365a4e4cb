package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/supavault/internal/identity/entity"
	"github.com/shandysiswandi/supavault/internal/pkg/goerror"
	"github.com/shandysiswandi/supavault/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Every key carries the {identity:otp} hash tag. The scripts reach keys named
// by stored values, which only works on a cluster when they share a slot.
const (
	challengePrefix = "{identity:otp}:challenge:"
	pairPrefix      = "{identity:otp}:pair:"
)

// ARGV: id, username, email, code_hash, attempts, created_at, ttl_ms, challenge prefix
var upsertScript = redis.NewScript(`
local old = redis.call('GET', KEYS[1])
if old then
  redis.call('DEL', ARGV[8] .. old)
end
redis.call('HSET', KEYS[2],
  'id', ARGV[1], 'username', ARGV[2], 'email', ARGV[3], 'code_hash', ARGV[4],
  'attempts', ARGV[5], 'created_at', ARGV[6], 'pair', KEYS[1])
redis.call('PEXPIRE', KEYS[2], ARGV[7])
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[7])
return 1
`)

// ARGV: limit. Replies nil when the challenge is missing or at the limit.
var reserveScript = redis.NewScript(`
local attempts = redis.call('HGET', KEYS[1], 'attempts')
if not attempts or tonumber(attempts) >= tonumber(ARGV[1]) then
  return false
end
redis.call('HINCRBY', KEYS[1], 'attempts', 1)
return redis.call('HMGET', KEYS[1], 'username', 'email', 'code_hash', 'attempts', 'created_at')
`)

// ARGV: id
var consumeScript = redis.NewScript(`
local pair = redis.call('HGET', KEYS[1], 'pair')
if not pair then
  return 0
end
redis.call('DEL', KEYS[1])
if redis.call('GET', pair) == ARGV[1] then
  redis.call('DEL', pair)
end
return 1
`)

// Cache is a Redis challenge store. Keys expire ttl after issuance; whether a
// challenge is still valid is decided by its created_at, not the key TTL.
type Cache struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
	ttl    time.Duration
}

func NewCache(client redis.UniversalClient, ins instrument.Instrumentation, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = entity.DefaultExpiry + time.Minute
	}
	return &Cache{client: client, ins: ins, ttl: ttl}
}

func challengeKey(id string) string {
	return challengePrefix + id
}

func pairKey(username, email string) string {
	sum := sha256.Sum256([]byte(username + "\x00" + email))
	return pairPrefix + hex.EncodeToString(sum[:])
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("identity.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) UpsertChallenge(ctx context.Context, chal entity.Challenge) (err error) {
	ctx, span := c.startSpan(ctx, "UpsertChallenge")
	defer func() { c.endSpan(span, err) }()

	err = upsertScript.Run(ctx, c.client,
		[]string{pairKey(chal.Username, chal.Email), challengeKey(chal.ID)},
		chal.ID,
		chal.Username,
		chal.Email,
		chal.CodeHash,
		chal.Attempts,
		chal.CreatedAt.UnixNano(),
		c.ttl.Milliseconds(),
		challengePrefix,
	).Err()
	return err
}

func (c *Cache) ReserveAttempt(ctx context.Context, id string, limit int) (_ *entity.Challenge, err error) {
	ctx, span := c.startSpan(ctx, "ReserveAttempt")
	defer func() { c.endSpan(span, err) }()

	fields, err := reserveScript.Run(ctx, c.client, []string{challengeKey(id)}, limit).StringSlice()
	if errors.Is(err, redis.Nil) {
		err = goerror.ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if len(fields) != 5 {
		err = fmt.Errorf("reserve challenge %s: got %d fields", id, len(fields))
		return nil, err
	}

	attempts, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, err
	}
	createdAt, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, err
	}

	return &entity.Challenge{
		ID:        id,
		Username:  fields[0],
		Email:     fields[1],
		CodeHash:  fields[2],
		Attempts:  attempts,
		CreatedAt: time.Unix(0, createdAt).UTC(),
	}, nil
}

func (c *Cache) ConsumeChallenge(ctx context.Context, id string) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "ConsumeChallenge")
	defer func() { c.endSpan(span, err) }()

	n, err := consumeScript.Run(ctx, c.client, []string{challengeKey(id)}, id).Int()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (c *Cache) DeleteChallenge(ctx context.Context, id string) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteChallenge")
	defer func() { c.endSpan(span, err) }()

	_, err = c.ConsumeChallenge(ctx, id)
	return err
}
