package app

import (
	httpH "github.com/zpgpf/gpf-ledger/internal/http/handlers"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Employee *httpH.EmployeeHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(services.Store),
		Employee: httpH.NewEmployeeHandler(services.Ledger),
	}
}
