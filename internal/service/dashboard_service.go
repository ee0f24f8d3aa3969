package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/schoolpanel/admin-api/internal/models"
	"github.com/schoolpanel/admin-api/pkg/clock"
	appErrors "github.com/schoolpanel/admin-api/pkg/errors"
)

type presenceReader interface {
	PresenceRows(ctx context.Context, date time.Time) ([]models.TeacherPresenceRow, error)
}

// DashboardService builds the admin landing-page snapshot. The snapshot is
// cached in Redis for a short TTL; a nil cache client disables caching.
type DashboardService struct {
	attendance presenceReader
	cache      *redis.Client
	ttl        time.Duration
	clock      clock.Clock
	logger     *zap.Logger
	metrics    *MetricsService
}

// WithMetrics attaches cache hit/miss instrumentation. Optional.
func (s *DashboardService) WithMetrics(m *MetricsService) *DashboardService {
	s.metrics = m
	return s
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(attendance presenceReader, cache *redis.Client, ttl time.Duration, clk clock.Clock, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.New("UTC")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DashboardService{
		attendance: attendance,
		cache:      cache,
		ttl:        ttl,
		clock:      clk,
		logger:     logger,
	}
}

// Summary returns today's presence snapshot, served from cache when fresh.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	today := s.clock.Today()
	key := fmt.Sprintf("dashboard:summary:%s", today.Format("2006-01-02"))

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			var cached models.DashboardSummary
			if err := json.Unmarshal(raw, &cached); err == nil {
				s.metrics.ObserveDashboardCache(true)
				return &cached, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		s.metrics.ObserveDashboardCache(false)
	}

	rows, err := s.attendance.PresenceRows(ctx, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build dashboard")
	}

	summary := &models.DashboardSummary{
		Teachers:    rows,
		GeneratedAt: s.clock.Now(),
	}
	for _, row := range rows {
		summary.TotalTeachers++
		if row.Active {
			summary.ActiveTeachers++
		} else {
			summary.InactiveTeachers++
		}
		if row.PresentToday {
			summary.PresentToday++
		} else if row.Active {
			summary.AbsentToday++
		}
	}

	if s.cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				s.logger.Warn("dashboard cache write failed", zap.Error(err))
			}
		}
	}
	return summary, nil
}

// Invalidate drops the cached snapshot for today, so the next read rebuilds
// it. Called after attendance writes.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	key := fmt.Sprintf("dashboard:summary:%s", s.clock.Today().Format("2006-01-02"))
	if err := s.cache.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
