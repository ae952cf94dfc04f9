package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/goran-ethernal/SwapIndexor/internal/logger"
	"github.com/goran-ethernal/SwapIndexor/pkg/config"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// Migration is an embedded SQL file with a Down section followed by an Up section.
type Migration struct {
	ID  string
	SQL string
}

// RunMigrations opens the database described by cfg and applies all pending
// migrations.
func RunMigrations(cfg config.DatabaseConfig, migrations []Migration) error {
	database, err := NewSQLiteDBFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("error creating DB %w", err)
	}
	defer database.Close()

	return RunMigrationsDB(logger.GetDefaultLogger(), database, migrations)
}

// RunMigrationsDB applies all pending migrations on an open database.
func RunMigrationsDB(log *logger.Logger, database *sql.DB, migrations []Migration) error {
	source, err := memorySource(migrations)
	if err != nil {
		return err
	}

	n, err := migrate.Exec(database, "sqlite3", source, migrate.Up)
	if err != nil {
		return fmt.Errorf("error executing %d migrations: %w", len(source.Migrations), err)
	}

	log.Infof("successfully ran %d of %d migrations", n, len(source.Migrations))
	return nil
}

// memorySource splits every migration into its Down and Up statements.
func memorySource(migrations []Migration) (*migrate.MemoryMigrationSource, error) {
	source := &migrate.MemoryMigrationSource{Migrations: make([]*migrate.Migration, 0, len(migrations))}

	for _, m := range migrations {
		down, up, found := strings.Cut(m.SQL, upMarker)
		if !found {
			return nil, fmt.Errorf("migration %s missing '%s' separator", m.ID, upMarker)
		}

		if _, afterMarker, ok := strings.Cut(down, downMarker); ok {
			down = afterMarker
		}

		source.Migrations = append(source.Migrations, &migrate.Migration{
			Id:   m.ID,
			Up:   []string{strings.TrimSpace(up)},
			Down: []string{strings.TrimSpace(down)},
		})
	}

	return source, nil
}
