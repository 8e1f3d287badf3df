package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/civista/nirman/internal/works/repository"
	"github.com/redis/go-redis/v9"
)

const inboxCountsKey = "nirman:dashboard:inbox_counts"

// DashboardService serves per-role inbox counts for the role dashboards,
// with a short-TTL redis read-through cache. Works without redis; it then
// hits the database every time.
type DashboardService struct {
	fileRepo *repository.FileRepository
	rdb      *redis.Client
	ttl      time.Duration
}

func NewDashboardService(repos *repository.Repositories, rdb *redis.Client) *DashboardService {
	return &DashboardService{
		fileRepo: repos.File,
		rdb:      rdb,
		ttl:      30 * time.Second,
	}
}

// InboxCounts returns the number of actionable files sitting with each role.
func (s *DashboardService) InboxCounts(ctx context.Context) (map[string]int64, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, inboxCountsKey).Bytes(); err == nil {
			var counts map[string]int64
			if json.Unmarshal(raw, &counts) == nil {
				return counts, nil
			}
		}
	}

	counts, err := s.fileRepo.CountPendingByRole(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(counts); err == nil {
			s.rdb.Set(ctx, inboxCountsKey, raw, s.ttl)
		}
	}
	return counts, nil
}

// Invalidate drops the cached counts. Called after every committed
// transition so dashboards never show a stale inbox for long.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.rdb != nil {
		s.rdb.Del(ctx, inboxCountsKey)
	}
}
