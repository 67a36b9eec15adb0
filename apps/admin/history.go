package main

import (
	"context"
	"database/sql"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/grecko-app/grecko/core"
	"github.com/grecko-app/grecko/core/gpa"
	boiledrepos "github.com/grecko-app/grecko/storage/database/sqlboiler"
	sqlxrepos "github.com/grecko-app/grecko/storage/database/sqlx"
)

var errNoStoredHistory = errors.New("the dummy repositories keep no history between runs")

// newHistoryRepository reads history through the backend the API is configured with.
func newHistoryRepository(conf *core.Config, db *sql.DB) (gpa.HistoryRepository, error) {
	switch conf.Database.Repos {
	case core.ReposSqlboiler:
		return boiledrepos.NewHistoryRepository(db), nil
	case core.ReposSqlx:
		return sqlxrepos.NewHistoryRepository(db), nil
	case core.ReposDummy:
		return nil, errNoStoredHistory
	default:
		return nil, errors.Errorf("unknown repositories: %q", conf.Database.Repos)
	}
}

func (cli *commandLine) printHistory(userID string) error {
	entries, err := cli.history.ListHistoryEntries(context.Background(), userID)
	if err != nil {
		return err
	}

	if !isTerminalFunc() {
		// tab separated, for piping
		for _, e := range entries {
			fmt.Fprintf(cli.out, "%s\t%s\t%s\t%s\n", e.ID, e.CreatedAt.Format(time.RFC3339), e.Label, gpa.FormatGPA(e.Value))
		}
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintf(cli.out, "no history for user %q\n", userID)
		return nil
	}
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tLABEL\tGPA")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Label, gpa.FormatGPA(e.Value))
	}
	return w.Flush()
}
