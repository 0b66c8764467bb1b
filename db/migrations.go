package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/perpx/explorer/db/types"
	"github.com/perpx/explorer/log"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	upDownSeparator  = "-- +migrate Up"
	dbPrefixReplacer = "/*dbprefix*/"
)

// RunMigrations will execute pending migrations if needed to keep
// the database updated with the latest changes
func RunMigrations(dbPath string, migrations []types.Migration) error {
	db, err := NewSQLiteDB(dbPath)
	if err != nil {
		return fmt.Errorf("error creating DB %w", err)
	}
	defer db.Close()
	return RunMigrationsDB(log.GetDefaultLogger(), db, migrations)
}

// RunMigrationsDB applies every pending migration on an already opened database
func RunMigrationsDB(logger *log.Logger, db *sql.DB, migrations []types.Migration) error {
	n, err := execMigrations(db, migrations, migrate.Up)
	if err != nil {
		return err
	}
	logger.Infof("successfully ran %d migrations from migrations: %s", n, migrationIDs(migrations))
	return nil
}

// RollbackMigrationsDB undoes every applied migration of the given set
func RollbackMigrationsDB(logger *log.Logger, db *sql.DB, migrations []types.Migration) error {
	n, err := execMigrations(db, migrations, migrate.Down)
	if err != nil {
		return err
	}
	logger.Infof("successfully rolled back %d migrations from migrations: %s", n, migrationIDs(migrations))
	return nil
}

// MigrationSource builds the sql-migrate source for the given migrations
func MigrationSource(migrations []types.Migration) (*migrate.MemoryMigrationSource, error) {
	src := &migrate.MemoryMigrationSource{Migrations: []*migrate.Migration{}}
	for _, m := range migrations {
		prefixed := strings.ReplaceAll(m.SQL, dbPrefixReplacer, m.Prefix)
		splitted := strings.Split(prefixed, upDownSeparator)
		if len(splitted) != 2 { //nolint:mnd
			return nil, fmt.Errorf("migration %s must contain exactly one %q marker", m.ID, upDownSeparator)
		}
		src.Migrations = append(src.Migrations, &migrate.Migration{
			Id:   m.Prefix + m.ID,
			Up:   []string{splitted[1]},
			Down: []string{splitted[0]},
		})
	}
	return src, nil
}

func execMigrations(db *sql.DB, migrations []types.Migration, direction migrate.MigrationDirection) (int, error) {
	src, err := MigrationSource(migrations)
	if err != nil {
		return 0, err
	}
	n, err := migrate.Exec(db, "sqlite3", src, direction)
	if err != nil {
		return 0, fmt.Errorf("error executing migration %w", err)
	}
	return n, nil
}

func migrationIDs(migrations []types.Migration) string {
	ids := make([]string, 0, len(migrations))
	for _, m := range migrations {
		ids = append(ids, m.Prefix+m.ID)
	}
	return strings.Join(ids, ", ")
}
