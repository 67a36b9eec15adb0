package main

import (
	"database/sql"

	"github.com/grecko-app/grecko/storage/database"
)

type migrator func(command string, args ...string) error

var migrateFunc = database.Migrate // mockable

func dbMigrator(db *sql.DB) migrator {
	return func(command string, args ...string) error {
		return migrateFunc(db, command, args...)
	}
}

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return cli.migrator(args[0], arguments...)
}
