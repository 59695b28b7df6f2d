package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/learnpath-backend/internal/http/handlers"
	httpMW "github.com/yungbote/learnpath-backend/internal/http/middleware"
	"github.com/yungbote/learnpath-backend/internal/observability"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	Tracing     bool
	ServiceName string

	LearningPathHandler *httpH.LearningPathHandler
	SkillHandler        *httpH.SkillHandler
	HealthHandler       *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	if cfg.Tracing {
		name := cfg.ServiceName
		if name == "" {
			name = "learnpath-api"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics, "/metrics"))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(gin.Recovery())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/health", cfg.HealthHandler.Health)
	}

	// Metrics
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Learning paths
		if cfg.LearningPathHandler != nil {
			api.POST("/generate-path", cfg.LearningPathHandler.GeneratePath)
			api.GET("/jobs/:id/learning-path", cfg.LearningPathHandler.GetJobLearningPath)
		}

		// Skill catalog
		if cfg.SkillHandler != nil {
			api.GET("/skills", cfg.SkillHandler.List)
			api.GET("/skills/search", cfg.SkillHandler.Search)
			api.POST("/skills/prerequisites", cfg.SkillHandler.Prerequisites)
		}
	}

	return r
}
