package app

import (
	"github.com/yungbote/learnpath-backend/internal/observability"
	"github.com/yungbote/learnpath-backend/internal/pathengine"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
	"github.com/yungbote/learnpath-backend/internal/services"
)

type Services struct {
	LearningPath services.LearningPathService
	Skills       services.SkillService
	Health       services.HealthService
}

func wireServices(log *logger.Logger, cfg Config, clients *Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	src := services.InstrumentSource(clients.Source, clients.Kind, metrics)
	engine := pathengine.New(log, pathengine.WithCycleLimit(cfg.Engine.CycleLimit))
	return Services{
		LearningPath: services.NewLearningPathService(log, src, engine, metrics),
		Skills:       services.NewSkillService(log, src),
		Health:       services.NewHealthService(log, src, clients.Kind),
	}
}
