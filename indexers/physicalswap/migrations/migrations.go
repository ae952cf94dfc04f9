package migrations

import (
	_ "embed"

	"github.com/goran-ethernal/SwapIndexor/internal/db"
	"github.com/goran-ethernal/SwapIndexor/pkg/config"
)

//go:embed 001_initial.sql
var mig0001 string

// RunMigrations creates the entity tables in the indexer database.
func RunMigrations(cfg config.DatabaseConfig) error {
	return db.RunMigrations(cfg, []db.Migration{
		{
			ID:  "physicalswap_001_initial.sql",
			SQL: mig0001,
		},
	})
}
