package main

import (
	"os"

	explorer "github.com/perpx/explorer"
	"github.com/urfave/cli/v2"
)

func versionCmd(*cli.Context) error {
	explorer.PrintVersion(os.Stdout)
	return nil
}
