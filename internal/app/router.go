package app

import (
	"strings"

	"github.com/gin-gonic/gin"

	httpserver "github.com/zpgpf/gpf-ledger/internal/http"
	"github.com/zpgpf/gpf-ledger/internal/observability"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers) *gin.Engine {
	switch strings.ToLower(cfg.Env) {
	case "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return httpserver.NewRouter(httpserver.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		CORSOrigins:     cfg.HTTP.CORSAllowOrigins,
		ServiceName:     serviceName,
		EmployeeHandler: handlers.Employee,
		HealthHandler:   handlers.Health,
	})
}
