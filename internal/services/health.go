package services

import (
	"context"
	"time"

	"github.com/yungbote/learnpath-backend/internal/domain"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type HealthStatus struct {
	Status     string             `json:"status"`
	Source     string             `json:"source"`
	Connection string             `json:"connection"`
	Stats      *domain.GraphStats `json:"databaseStats,omitempty"`
	JobsFound  int                `json:"jobsFound"`
	SampleJobs []string           `json:"sampleJobs"`
	Error      string             `json:"error,omitempty"`
	CheckedAt  time.Time          `json:"checkedAt"`
}

type HealthService interface {
	// Check pings the source and collects graph statistics. A non-nil error
	// comes with a populated "unhealthy" status.
	Check(ctx context.Context) (*HealthStatus, error)
}

type healthService struct {
	log        *logger.Logger
	source     Source
	sourceName string
}

func NewHealthService(baseLog *logger.Logger, source Source, sourceName string) HealthService {
	return &healthService{
		log:        baseLog.With("service", "HealthService"),
		source:     source,
		sourceName: sourceName,
	}
}

func (s *healthService) Check(ctx context.Context) (*HealthStatus, error) {
	st := &HealthStatus{
		Status:     "unhealthy",
		Source:     s.sourceName,
		Connection: "error",
		SampleJobs: []string{},
		CheckedAt:  time.Now().UTC(),
	}
	if err := s.source.Ping(ctx); err != nil {
		s.log.Warn("health ping failed", "error", err)
		st.Error = err.Error()
		return st, unavailable(err)
	}
	st.Connection = "ok"

	stats, err := s.source.Stats(ctx)
	if err != nil {
		s.log.Warn("health stats failed", "error", err)
		st.Error = err.Error()
		return st, unavailable(err)
	}
	st.Status = "healthy"
	st.Stats = &stats
	if stats.SampleJobs != nil {
		st.SampleJobs = stats.SampleJobs
	}
	st.JobsFound = len(st.SampleJobs)
	return st, nil
}
