package migrations

import (
	_ "embed"

	"github.com/perpx/explorer/db"
	"github.com/perpx/explorer/db/types"
	statesyncmigrations "github.com/perpx/explorer/statesync/migrations"
)

//go:embed preprocessing0001.sql
var mig001 string

var Migrations = []types.Migration{
	{
		ID:  "preprocessing0001",
		SQL: mig001,
	},
}

// RunMigrations migrates the preprocessed tables together with the raw state
// tables they are derived from, as both live in the same database
func RunMigrations(dbPath string) error {
	all := append([]types.Migration{}, statesyncmigrations.Migrations...)
	return db.RunMigrations(dbPath, append(all, Migrations...))
}
