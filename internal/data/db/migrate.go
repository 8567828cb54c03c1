package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/zpgpf/gpf-ledger/internal/domain"
)

// AutoMigrateAll creates missing ledger tables with their constraints. A
// table that already exists, such as one written by the legacy server, only
// gains missing columns and indexes: its constraints are never rewritten,
// since sqlite can only change them by rebuilding the table.
func AutoMigrateAll(db *gorm.DB) error {
	m := db.Migrator()
	for _, model := range domain.Models() {
		if !m.HasTable(model) {
			if err := m.CreateTable(model); err != nil {
				return fmt.Errorf("automigrate ledger: create %T: %w", model, err)
			}
			continue
		}
		if err := migrateExisting(db, model); err != nil {
			return fmt.Errorf("automigrate ledger: %w", err)
		}
	}
	return nil
}

func migrateExisting(db *gorm.DB, model interface{}) error {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return fmt.Errorf("parse %T: %w", model, err)
	}
	m := db.Migrator()
	for _, name := range stmt.Schema.DBNames {
		field := stmt.Schema.LookUpField(name)
		if field == nil || field.IgnoreMigration {
			continue
		}
		if m.HasColumn(model, name) {
			continue
		}
		if err := m.AddColumn(model, name); err != nil {
			return fmt.Errorf("add column %s.%s: %w", stmt.Schema.Table, name, err)
		}
	}
	for _, field := range stmt.Schema.Fields {
		for _, key := range []string{"INDEX", "UNIQUEINDEX"} {
			idx, ok := field.TagSettings[key]
			if !ok || idx == "" || m.HasIndex(model, idx) {
				continue
			}
			if err := m.CreateIndex(model, idx); err != nil {
				return fmt.Errorf("create index %s: %w", idx, err)
			}
		}
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Running auto migration")
	return AutoMigrateAll(s.db)
}
