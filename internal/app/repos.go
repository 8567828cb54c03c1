package app

import (
	"github.com/zpgpf/gpf-ledger/internal/data/db"
	"github.com/zpgpf/gpf-ledger/internal/data/repos"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

func wireRepos(dbService *db.Service, log *logger.Logger) repos.Set {
	log.Info("Wiring repos...")
	return repos.NewSet(dbService.DB(), log)
}
