package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/admin-portal/internal/domain"
)

// SessionStore keeps the dashboard session marker as two keys, mirroring the
// browser storage layout the dashboard guard reads:
//   - session:<id>:adminUser     -> account JSON
//   - session:<id>:authenticated -> "true"
type SessionStore struct {
	rdb    *goredis.Client
	prefix string
}

func NewSessionStore(c *Client) *SessionStore {
	return &SessionStore{rdb: rdbOf(c), prefix: "session:"}
}

type storedMarker struct {
	Account   domain.AccountRecord `json:"account"`
	CreatedAt time.Time            `json:"createdAt"`
}

func (s *SessionStore) userKey(id string) string { return s.prefix + id + ":adminUser" }
func (s *SessionStore) authKey(id string) string { return s.prefix + id + ":authenticated" }

func (s *SessionStore) Create(ctx context.Context, m domain.SessionMarker, ttl time.Duration) error {
	if strings.TrimSpace(m.ID) == "" {
		return domain.ErrMissingField("session_id")
	}
	if ttl <= 0 {
		return domain.ErrMissingField("ttl")
	}
	if s.rdb == nil {
		return errors.New("redis session store not configured")
	}

	raw, err := json.Marshal(storedMarker{Account: m.Account, CreatedAt: m.CreatedAt})
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, s.userKey(m.ID), raw, ttl)
		p.Set(ctx, s.authKey(m.ID), "true", ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session create: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domain.SessionMarker, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.SessionMarker{}, domain.ErrSessionNotFound()
	}
	if s.rdb == nil {
		return domain.SessionMarker{}, errors.New("redis session store not configured")
	}

	vals, err := s.rdb.MGet(ctx, s.userKey(id), s.authKey(id)).Result()
	if err != nil {
		return domain.SessionMarker{}, fmt.Errorf("session get: %w", err)
	}
	user, _ := vals[0].(string)
	auth, _ := vals[1].(string)
	if user == "" || auth != "true" {
		return domain.SessionMarker{}, domain.ErrSessionNotFound()
	}

	var sm storedMarker
	if err := json.Unmarshal([]byte(user), &sm); err != nil {
		return domain.SessionMarker{}, domain.ErrSessionNotFound()
	}
	return domain.SessionMarker{
		ID:            id,
		Account:       sm.Account,
		Authenticated: true,
		CreatedAt:     sm.CreatedAt,
	}, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		// idempotent
		return nil
	}
	if s.rdb == nil {
		return errors.New("redis session store not configured")
	}
	return s.rdb.Del(ctx, s.userKey(id), s.authKey(id)).Err()
}
