package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/grecko-app/grecko/core"
	"github.com/grecko-app/grecko/core/gpa"
	"github.com/grecko-app/grecko/storage/database"
)

var logger *log.Logger

func main() {
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	logger = log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	gpa.InitValidators(validate, translator)

	cli := commandLine{
		conf:     conf,
		validate: validate,
		out:      os.Stdout,
	}

	// set up DB, only for the commands that need one
	if len(os.Args) > 1 && (os.Args[1] == "migrate" || os.Args[1] == "history") {
		db, err := database.Open(conf)
		errAndDie(err)
		defer db.Close()

		cli.migrator = dbMigrator(db)
		if os.Args[1] == "history" {
			cli.history, err = newHistoryRepository(conf, db)
			errAndDie(err)
		}
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		exitCode = 1
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
