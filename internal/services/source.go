package services

import (
	"context"
	"time"

	"github.com/yungbote/learnpath-backend/internal/domain"
	"github.com/yungbote/learnpath-backend/internal/observability"
)

// GraphSource is what path computation needs from storage: the job's skills
// and one consistent snapshot of the prerequisite graph.
type GraphSource interface {
	JobSkills(ctx context.Context, jobID string) ([]domain.Node, error)
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
}

type SkillCatalog interface {
	// MatchSkills returns skills whose lowercased name contains any term.
	MatchSkills(ctx context.Context, terms []string, limit int) ([]domain.Node, error)
	ListSkills(ctx context.Context) ([]domain.Node, error)
	EdgesAmong(ctx context.Context, ids []string) ([]domain.Edge, error)
	Stats(ctx context.Context) (domain.GraphStats, error)
}

// Source is implemented by every storage backend.
type Source interface {
	GraphSource
	SkillCatalog
	Ping(ctx context.Context) error
}

type instrumentedSource struct {
	inner   Source
	name    string
	metrics *observability.Metrics
}

// InstrumentSource records latency and success of every read on src. It
// returns src unchanged when metrics are disabled.
func InstrumentSource(src Source, name string, m *observability.Metrics) Source {
	if m == nil {
		return src
	}
	return &instrumentedSource{inner: src, name: name, metrics: m}
}

func (s *instrumentedSource) observe(op string, start time.Time, err error) {
	s.metrics.ObserveSourceRead(s.name, op, err == nil, time.Since(start))
}

func (s *instrumentedSource) JobSkills(ctx context.Context, jobID string) (out []domain.Node, err error) {
	defer func(start time.Time) { s.observe("job_skills", start, err) }(time.Now())
	return s.inner.JobSkills(ctx, jobID)
}

func (s *instrumentedSource) Snapshot(ctx context.Context) (out *domain.Snapshot, err error) {
	defer func(start time.Time) { s.observe("snapshot", start, err) }(time.Now())
	return s.inner.Snapshot(ctx)
}

func (s *instrumentedSource) MatchSkills(ctx context.Context, terms []string, limit int) (out []domain.Node, err error) {
	defer func(start time.Time) { s.observe("match_skills", start, err) }(time.Now())
	return s.inner.MatchSkills(ctx, terms, limit)
}

func (s *instrumentedSource) ListSkills(ctx context.Context) (out []domain.Node, err error) {
	defer func(start time.Time) { s.observe("list_skills", start, err) }(time.Now())
	return s.inner.ListSkills(ctx)
}

func (s *instrumentedSource) EdgesAmong(ctx context.Context, ids []string) (out []domain.Edge, err error) {
	defer func(start time.Time) { s.observe("edges_among", start, err) }(time.Now())
	return s.inner.EdgesAmong(ctx, ids)
}

func (s *instrumentedSource) Stats(ctx context.Context) (out domain.GraphStats, err error) {
	defer func(start time.Time) { s.observe("stats", start, err) }(time.Now())
	return s.inner.Stats(ctx)
}

func (s *instrumentedSource) Ping(ctx context.Context) (err error) {
	defer func(start time.Time) { s.observe("ping", start, err) }(time.Now())
	return s.inner.Ping(ctx)
}
