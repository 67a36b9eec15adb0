package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/grecko-app/grecko/core"
	"github.com/grecko-app/grecko/core/gpa"
)

var (
	isTerminalFunc = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) } // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf     *core.Config
	migrator migrator
	history  gpa.HistoryRepository
	validate *validator.Validate
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                         - run a goose command against the database")
	fmt.Println("  history -user ID                               - print a user's stored GPA history")
	fmt.Println("  calc gpa GRADE...                              - print the average of the grades")
	fmt.Println("  calc required -current GPA -target GPA -taken N (-remaining N | -total N)")
	fmt.Println("                                                 - print the average needed over the remaining courses")
	fmt.Println("  token -user ID [-email EMAIL]                  - sign a development access token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	historyCmd := flag.NewFlagSet("history", flag.ContinueOnError)
	historyUser := historyCmd.String("user", "", "The user ID")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenUser := tokenCmd.String("user", "", "The user ID, used as the token subject")
	tokenEmail := tokenCmd.String("email", "", "The user's email")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "history":
		if err := historyCmd.Parse(args[2:]); err != nil {
			return err
		}
		if core.CleanString(*historyUser) == "" {
			historyCmd.Usage()
			return errHelp
		}
		return cli.printHistory(core.CleanString(*historyUser))

	case "calc":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		switch args[2] {
		case "gpa":
			return cli.calcGPA(args[3:])
		case "required":
			return cli.calcRequired(args[3:])
		default:
			cli.printUsage()
			return errHelp
		}

	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if core.CleanString(*tokenUser) == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.printToken(core.CleanString(*tokenUser), core.CleanString(*tokenEmail, true))

	default:
		cli.printUsage()
		return errHelp
	}
}

func parseGrades(args []string) ([]gpa.CourseGrade, error) {
	courses := make([]gpa.CourseGrade, 0, len(args))
	for i, arg := range args {
		grade, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("grade #%d must be a number (got '%s')", i+1, arg)
		}
		courses = append(courses, gpa.CourseGrade{Name: fmt.Sprintf("Course %d", i+1), Grade: grade})
	}
	return courses, nil
}
