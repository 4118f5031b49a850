package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soundrift/soundrift/internal/support"
)

const presenceTTL = 5 * time.Minute

// Store mirrors agent presence into redis so other processes (and ops
// tooling) can see who is online without asking the API server. The
// in-memory agent pool stays authoritative.
type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func presenceKey(agentID uint64) string {
	return fmt.Sprintf("agent:presence:%d", agentID)
}

// SetAgentStatus implements support.Presence. Keys expire so a crashed
// server does not leave agents looking online forever.
func (s *Store) SetAgentStatus(ctx context.Context, agentID uint64, status support.AgentStatus) error {
	cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.rdb.Set(cctx, presenceKey(agentID), string(status), presenceTTL).Err()
}

// GetAgentStatus returns the mirrored status, or offline when the key has
// expired or was never set.
func (s *Store) GetAgentStatus(ctx context.Context, agentID uint64) (support.AgentStatus, error) {
	v, err := s.rdb.Get(ctx, presenceKey(agentID)).Result()
	if err == redis.Nil {
		return support.AgentOffline, nil
	}
	if err != nil {
		return "", err
	}
	return support.AgentStatus(v), nil
}
