package migrations

import (
	_ "embed"

	"github.com/goran-ethernal/SwapIndexor/internal/db"
	"github.com/goran-ethernal/SwapIndexor/pkg/config"
)

//go:embed 001_initial.sql
var mig0001 string

// RunMigrations runs all migrations for the downloader sync state database.
func RunMigrations(cfg config.DatabaseConfig) error {
	return db.RunMigrations(cfg, []db.Migration{
		{
			ID:  "downloader_001_initial.sql",
			SQL: mig0001,
		},
	})
}
