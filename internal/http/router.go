package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/zpgpf/gpf-ledger/internal/http/handlers"
	httpMW "github.com/zpgpf/gpf-ledger/internal/http/middleware"
	"github.com/zpgpf/gpf-ledger/internal/observability"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	ServiceName string

	EmployeeHandler *httpH.EmployeeHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		if cfg.EmployeeHandler != nil {
			api.GET("/employees", cfg.EmployeeHandler.ListEmployees)
			api.POST("/employees", cfg.EmployeeHandler.AddEmployee)
			api.GET("/employees/:id", cfg.EmployeeHandler.GetEmployee)
			api.DELETE("/employees/:id", cfg.EmployeeHandler.DeleteEmployee)
			api.POST("/employees/:id/transactions", cfg.EmployeeHandler.ReplaceTransactions)
		}
	}

	return r
}
