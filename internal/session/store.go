package session

import (
	"context"
	"fmt"
	"time"

	"github.com/martpos/inventory-service/internal/model"
)

// KV is the key/value surface the store needs; the redis platform client
// satisfies it.
type KV interface {
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Store keeps import sessions in a TTL-backed key/value store. Sessions are
// staging state only: losing one to expiry loses nothing committed.
type Store struct {
	kv  KV
	ttl time.Duration
}

func NewStore(kv KV, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{kv: kv, ttl: ttl}
}

func sessionKey(tenantID, sessionID string) string {
	return fmt.Sprintf("import.session.%s.%s", tenantID, sessionID)
}

func (s *Store) Create(ctx context.Context, sess *model.ImportSession) error {
	return s.kv.SetJSON(ctx, sessionKey(sess.TenantID, sess.ID), sess, s.ttl)
}

// Get returns ErrSessionNotFound for both unknown and expired sessions; the
// caller cannot tell the difference and should not try.
func (s *Store) Get(ctx context.Context, tenantID, sessionID string) (*model.ImportSession, error) {
	var sess model.ImportSession
	found, err := s.kv.GetJSON(ctx, sessionKey(tenantID, sessionID), &sess)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, model.ErrSessionNotFound
	}
	return &sess, nil
}

// Save rewrites the session and resets its TTL, so a session stays alive as
// long as someone keeps working on it.
func (s *Store) Save(ctx context.Context, sess *model.ImportSession) error {
	return s.kv.SetJSON(ctx, sessionKey(sess.TenantID, sess.ID), sess, s.ttl)
}

// MarkCommitted flips the session to committed and keeps it around briefly so
// a duplicate commit gets a clear ErrSessionCommitted instead of "not found".
func (s *Store) MarkCommitted(ctx context.Context, sess *model.ImportSession) error {
	now := time.Now()
	sess.Status = model.SessionCommitted
	sess.CommittedAt = &now
	return s.kv.SetJSON(ctx, sessionKey(sess.TenantID, sess.ID), sess, s.ttl)
}

func (s *Store) Delete(ctx context.Context, tenantID, sessionID string) error {
	return s.kv.Delete(ctx, sessionKey(tenantID, sessionID))
}
