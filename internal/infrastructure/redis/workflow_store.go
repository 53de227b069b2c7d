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

// WorkflowStore keeps registration snapshots as JSON under reg:wf:<id>.
// The TTL is refreshed on every save, so idle registrations age out.
type WorkflowStore struct {
	rdb    *goredis.Client
	prefix string
}

func NewWorkflowStore(c *Client) *WorkflowStore {
	return &WorkflowStore{rdb: rdbOf(c), prefix: "reg:wf:"}
}

func (s *WorkflowStore) Load(ctx context.Context, id string) (domain.Snapshot, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Snapshot{}, domain.ErrRegistrationNotFound()
	}
	if s.rdb == nil {
		return domain.Snapshot{}, errors.New("redis workflow store not configured")
	}

	raw, err := s.rdb.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.Snapshot{}, domain.ErrRegistrationNotFound()
		}
		return domain.Snapshot{}, fmt.Errorf("workflow load: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// a snapshot we cannot read is as good as gone
		return domain.Snapshot{}, domain.ErrRegistrationNotFound()
	}
	return snap, nil
}

func (s *WorkflowStore) Save(ctx context.Context, snap domain.Snapshot, ttl time.Duration) error {
	if strings.TrimSpace(snap.ID) == "" {
		return domain.ErrMissingField("id")
	}
	if ttl <= 0 {
		return domain.ErrMissingField("ttl")
	}
	if s.rdb == nil {
		return errors.New("redis workflow store not configured")
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("workflow encode: %w", err)
	}
	if err := s.rdb.Set(ctx, s.prefix+snap.ID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("workflow save: %w", err)
	}
	return nil
}

func (s *WorkflowStore) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if s.rdb == nil {
		return errors.New("redis workflow store not configured")
	}
	return s.rdb.Del(ctx, s.prefix+id).Err()
}
