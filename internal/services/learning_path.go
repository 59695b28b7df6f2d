package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/learnpath-backend/internal/domain"
	"github.com/yungbote/learnpath-backend/internal/observability"
	"github.com/yungbote/learnpath-backend/internal/pathengine"
	"github.com/yungbote/learnpath-backend/internal/platform/apierr"
	"github.com/yungbote/learnpath-backend/internal/platform/ctxutil"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

const tracerName = "github.com/yungbote/learnpath-backend/internal/services"

type LearningPathService interface {
	Generate(ctx context.Context, jobID string, userSkills []string) (*pathengine.Result, error)
}

type learningPathService struct {
	log     *logger.Logger
	graph   GraphSource
	engine  *pathengine.Engine
	metrics *observability.Metrics
	tracer  trace.Tracer
}

func NewLearningPathService(
	baseLog *logger.Logger,
	graph GraphSource,
	engine *pathengine.Engine,
	metrics *observability.Metrics,
) LearningPathService {
	if engine == nil {
		engine = pathengine.New(baseLog)
	}
	return &learningPathService{
		log:     baseLog.With("service", "LearningPathService"),
		graph:   graph,
		engine:  engine,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
	}
}

// Generate reads the job's skills and a graph snapshot concurrently, then runs
// the path engine. A job without skills is a 404 (domain.ErrNoJobSkills); a
// failed read is a 503 (domain.ErrGraphUnavailable).
func (s *learningPathService) Generate(ctx context.Context, jobID string, userSkills []string) (res *pathengine.Result, err error) {
	start := time.Now()
	jobID = strings.TrimSpace(jobID)
	ctx, span := s.tracer.Start(ctx, "LearningPathService.Generate", trace.WithAttributes(
		attribute.String("learnpath.job_id", jobID),
		attribute.Int("learnpath.user_skills", len(userSkills)),
	))
	defer span.End()
	log := s.log.With(ctxutil.LogFields(ctx)...).With("job_id", jobID)

	defer func() {
		outcome := outcomeOf(err)
		var strategy string
		var paths int
		if res != nil {
			strategy = string(res.Strategy)
			paths = len(res.Paths)
		}
		s.metrics.ObserveSynthesis(strategy, outcome, paths, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
	}()

	if jobID == "" {
		return nil, apierr.BadRequest("invalid_request", errors.New("jobId is required"))
	}

	var (
		skills []domain.Node
		snap   *domain.Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		skills, err = s.graph.JobSkills(gctx, jobID)
		return err
	})
	g.Go(func() error {
		var err error
		snap, err = s.graph.Snapshot(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("graph read failed", "error", err)
		return nil, apierr.Unavailable("graph_unavailable", fmt.Errorf("%w: %w", domain.ErrGraphUnavailable, err))
	}
	if len(skills) == 0 {
		log.Info("job has no skills")
		return nil, apierr.NotFound("no_job_skills", fmt.Errorf("%w: %s", domain.ErrNoJobSkills, jobID))
	}
	log.Debug("graph read", "job_skills", len(skills), "nodes", len(snap.Nodes), "edges", len(snap.Edges))

	res = s.engine.WithLogger(log).Synthesize(pathengine.Input{
		JobID:      jobID,
		JobSkills:  skills,
		UserSkills: userSkills,
		Snapshot:   snap,
	})
	s.metrics.ObserveCycles(res.Diagnostics.ArcsRemoved, res.Diagnostics.CycleLimitHit)
	span.SetAttributes(
		attribute.String("learnpath.strategy", string(res.Strategy)),
		attribute.Int("learnpath.paths", len(res.Paths)),
		attribute.Int("learnpath.cycles_removed", res.Diagnostics.ArcsRemoved),
	)
	return res, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNoJobSkills):
		return "no_job_skills"
	case errors.Is(err, domain.ErrGraphUnavailable):
		return "graph_unavailable"
	}
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status == http.StatusBadRequest {
		return "invalid_request"
	}
	return "error"
}
