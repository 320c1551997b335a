package session

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// touchRecordScript splices a newer LastActivity timestamp into the stored
// record in place. ARGV[1] is the packed big-endian timestamp, ARGV[2] the
// same value as a number for the monotonicity check, ARGV[3] the guard TTL
// in milliseconds (0 keeps the remaining TTL).
//
// Returns 0 when the record is absent, -1 when the blob is unreadable, 1 on
// success (including the already-newer no-op case).
const touchRecordScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end

local function read_be64(s, i)
  local v = 0
  for off = 0, 7 do
    local b = string.byte(s, i + off)
    if not b then
      return nil
    end
    v = v * 256 + b
  end
  return v
end

local current = read_be64(data, 2)
if not current then
  return -1
end

local next_ms = tonumber(ARGV[2])
if current >= next_ms then
  return 1
end

local updated = string.sub(data, 1, 1) .. ARGV[1] .. string.sub(data, 10)

local px = tonumber(ARGV[3])
if px <= 0 then
  px = redis.call("PTTL", KEYS[1])
end
if px > 0 then
  redis.call("SET", KEYS[1], updated, "PX", px)
else
  redis.call("SET", KEYS[1], updated)
end
return 1
`

var touchRecordLua = redis.NewScript(touchRecordScript)

const (
	touchStatusNotFound int64 = 0
	touchStatusCorrupt  int64 = -1
	touchStatusTouched  int64 = 1
)

// RedisStore is a [Store] backed by a shared Redis, for deployments where
// several processes serve the same users. Records carry a guard TTL several
// idle windows long: it reaps sessions nobody will ever touch again but is
// deliberately too slack to preempt the Engine's own idle-timeout check.
type RedisStore struct {
	redis    redis.UniversalClient
	prefix   string
	guardTTL time.Duration
}

// NewRedisStore creates a RedisStore. prefix namespaces the keys; guardTTL
// bounds how long an untouched record survives (0 disables expiry).
func NewRedisStore(client redis.UniversalClient, prefix string, guardTTL time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "ca"
	}
	return &RedisStore{
		redis:    client,
		prefix:   prefix,
		guardTTL: guardTTL,
	}
}

func (s *RedisStore) key(username string) string {
	return s.prefix + ":sess:" + username
}

// Put implements [Store]. The SET is a single command, so a concurrent
// reader observes either the old record or the new one, never a blend.
func (s *RedisStore) Put(ctx context.Context, username string, rec Record) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(username), data, s.guardTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get implements [Store].
func (s *RedisStore) Get(ctx context.Context, username string) (Record, bool, error) {
	data, err := s.redis.Get(ctx, s.key(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Remove implements [Store].
func (s *RedisStore) Remove(ctx context.Context, username string) error {
	if err := s.redis.Del(ctx, s.key(username)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Touch implements [Store] with a Lua compare-and-splice so concurrent
// touches for the same username cannot lose updates or move LastActivity
// backwards.
func (s *RedisStore) Touch(ctx context.Context, username string, now time.Time) error {
	var packed [8]byte
	millis := now.UnixMilli()
	binary.BigEndian.PutUint64(packed[:], uint64(millis))

	status, err := touchRecordLua.Run(
		ctx,
		s.redis,
		[]string{s.key(username)},
		packed[:],
		millis,
		s.guardTTL.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch status {
	case touchStatusTouched:
		return nil
	case touchStatusNotFound:
		return ErrNoSession
	case touchStatusCorrupt:
		return errors.New("session: stored record is corrupt")
	default:
		return fmt.Errorf("%w: unknown touch script status %d", ErrRedisUnavailable, status)
	}
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
