package migrations

import (
	_ "embed"

	"github.com/perpx/explorer/db"
	"github.com/perpx/explorer/db/types"
)

//go:embed blockdownloader0001.sql
var mig001 string

var Migrations = []types.Migration{
	{
		ID:  "blockdownloader0001",
		SQL: mig001,
	},
}

func RunMigrations(dbPath string) error {
	return db.RunMigrations(dbPath, Migrations)
}
