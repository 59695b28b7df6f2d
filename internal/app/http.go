package app

import (
	apphttp "github.com/yungbote/learnpath-backend/internal/http"
	httpH "github.com/yungbote/learnpath-backend/internal/http/handlers"
	"github.com/yungbote/learnpath-backend/internal/observability"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type Handlers struct {
	Health       *httpH.HealthHandler
	LearningPath *httpH.LearningPathHandler
	Skill        *httpH.SkillHandler
}

func wireHandlers(log *logger.Logger, services Services) (Handlers, error) {
	log.Info("Wiring handlers...")
	if err := httpH.RegisterValidators(); err != nil {
		log.Error("request validators not registered", "error", err)
		return Handlers{}, err
	}
	return Handlers{
		Health:       httpH.NewHealthHandler(services.Health),
		LearningPath: httpH.NewLearningPathHandler(services.LearningPath),
		Skill:        httpH.NewSkillHandler(services.Skills),
	}, nil
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *apphttp.Server {
	return apphttp.NewServer(apphttp.ServerConfig{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout.Duration,
		IdleTimeout:       cfg.HTTP.IdleTimeout.Duration,
		WriteTimeout:      cfg.HTTP.WriteTimeout.Duration,
	}, apphttp.RouterConfig{
		Log:                 log,
		Metrics:             metrics,
		CORSOrigins:         cfg.HTTP.CORSOrigins,
		Tracing:             cfg.Observability.OtelEnabled,
		ServiceName:         cfg.ServiceName,
		LearningPathHandler: handlers.LearningPath,
		SkillHandler:        handlers.Skill,
		HealthHandler:       handlers.Health,
	})
}
