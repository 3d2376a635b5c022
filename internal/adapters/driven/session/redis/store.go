// Package redis provides a search session cache shared across processes.
// Sessions expire through Redis key TTLs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

const keyPrefix = "discover:session:"

// acquireScript increments the ref counter of a live session, with the
// counter expiring alongside the session. Returns -1 for a missing session
// and -2 when the session has served its maximum.
var acquireScript = goredis.NewScript(`
local ttl = redis.call('PTTL', KEYS[1])
if ttl <= 0 then
	return -1
end
local n = redis.call('INCR', KEYS[2])
redis.call('PEXPIRE', KEYS[2], ttl)
if tonumber(ARGV[1]) > 0 and n > tonumber(ARGV[1]) then
	return -2
end
return n
`)

// releaseScript decrements the ref counter without letting it go negative.
var releaseScript = goredis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if n > 0 then
	return redis.call('DECR', KEYS[1])
end
return 0
`)

// Store keeps sessions as JSON values under TTL-bound keys.
type Store struct {
	client goredis.UniversalClient
	now    func() time.Time
}

// NewStore creates a store over an existing client.
func NewStore(client goredis.UniversalClient) *Store {
	return &Store{client: client, now: time.Now}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return NewStore(client), nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func sessionKey(id string) string { return keyPrefix + id }
func refsKey(id string) string    { return keyPrefix + id + ":refs" }

// Put stores a session until its expiry.
func (s *Store) Put(ctx context.Context, session *domain.SearchSession) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("%w: session already expired", domain.ErrInvalidInput)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get returns a live session.
func (s *Store) Get(ctx context.Context, id string) (*domain.SearchSession, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session domain.SearchSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if session.Expired(s.now()) {
		return nil, domain.ErrInvalidSession
	}
	return &session, nil
}

// AcquireIngestRef atomically counts one ingestion request against a session.
func (s *Store) AcquireIngestRef(ctx context.Context, id string, maxRefs int) (*domain.SearchSession, error) {
	n, err := acquireScript.Run(ctx, s.client, []string{sessionKey(id), refsKey(id)}, maxRefs).Int64()
	if err != nil {
		return nil, fmt.Errorf("acquire ingest ref: %w", err)
	}
	if n < 0 {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	session.IngestRefs = int(n)
	return session, nil
}

// ReleaseIngestRef undoes one AcquireIngestRef.
func (s *Store) ReleaseIngestRef(ctx context.Context, id string) error {
	if err := releaseScript.Run(ctx, s.client, []string{refsKey(id)}).Err(); err != nil {
		return fmt.Errorf("release ingest ref: %w", err)
	}
	return nil
}

// Sweep is a no-op: Redis expires session keys itself.
func (s *Store) Sweep(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}
