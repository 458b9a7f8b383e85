package infra

import (
	"fmt"
	"strings"

	"dealerstock/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the store, tunes the pool and migrates the schema.
// DSNs starting with "file:" or "sqlite:" open an embedded SQLite database
// (local development and tests); anything else is a postgres DSN.
func NewDatabase(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	embedded := isSQLite(dsn)
	if embedded {
		db, err = gorm.Open(sqlite.Open(strings.TrimPrefix(dsn, "sqlite:")), cfg)
	} else {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if embedded {
		// SQLite serializes writers; one connection keeps transactions ordered.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

func isSQLite(dsn string) bool {
	return strings.HasPrefix(dsn, "file:") || strings.HasPrefix(dsn, "sqlite:")
}

// RunMigrations creates/updates all tables and applies the idempotent patches
// AutoMigrate cannot express.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Account{},
		&model.Category{},
		&model.Unit{},
		&model.Sale{},
		&model.Replacement{},
		&model.PlacementMovement{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL. Portable statements run everywhere;
// DO blocks run on postgres only.
func applySchemaPatches(db *gorm.DB) error {
	portable := []string{
		// exactly one admin account may exist
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_single_admin ON accounts (role) WHERE role = 'admin'`,
		// placement lookups: "units at this dealer"
		`CREATE INDEX IF NOT EXISTS idx_units_placement_holder ON units (placement, placement_holder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_placement_movements_unit_created ON placement_movements (unit_id, created_at)`,
	}
	postgresOnly := []string{
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_units_placement') THEN
		    ALTER TABLE units ADD CONSTRAINT chk_units_placement CHECK (
		      (placement IN ('at_dealer', 'at_sub_dealer') AND placement_holder_id IS NOT NULL)
		      OR (placement IN ('unassigned', 'sold', 'retired') AND placement_holder_id IS NULL));
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_accounts_sub_dealer_parent') THEN
		    ALTER TABLE accounts ADD CONSTRAINT chk_accounts_sub_dealer_parent CHECK (
		      (role = 'sub_dealer' AND parent_dealer_id IS NOT NULL)
		      OR (role <> 'sub_dealer' AND parent_dealer_id IS NULL));
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_units_warranty_unit') THEN
		    ALTER TABLE units ADD CONSTRAINT chk_units_warranty_unit CHECK (
		      warranty_unit IN ('days', 'months', 'years') AND warranty_duration > 0);
		  END IF;
		END $$`,
	}

	patches := portable
	if db.Dialector.Name() == "postgres" {
		patches = append(patches, postgresOnly...)
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
