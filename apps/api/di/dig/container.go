package dig_container

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	echoapi "github.com/grecko-app/grecko/apps/api/echo"
	"github.com/grecko-app/grecko/core"
	"github.com/grecko-app/grecko/core/gpa"
	"github.com/grecko-app/grecko/core/session"
	logsvc "github.com/grecko-app/grecko/services/logger"
	"github.com/grecko-app/grecko/services/metrics"
	"github.com/grecko-app/grecko/services/persist"
	"github.com/grecko-app/grecko/storage/database"
	dummydb "github.com/grecko-app/grecko/storage/database/dummy"
	boiledrepos "github.com/grecko-app/grecko/storage/database/sqlboiler"
	sqlxrepos "github.com/grecko-app/grecko/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type Repositories struct {
	dig.Out
	Goals   gpa.GoalRepository
	History gpa.HistoryRepository
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

// newDB sets up the postgres database. It returns a nil *sql.DB with the dummy repositories.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sql.DB {
	if conf.Database.Repos == core.ReposDummy {
		return nil
	}

	setUp := func() (*sql.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newRepositories(conf *core.Config, db *sql.DB) (Repositories, error) {
	switch conf.Database.Repos {
	case core.ReposSqlboiler:
		return Repositories{Goals: boiledrepos.NewGoalRepository(db), History: boiledrepos.NewHistoryRepository(db)}, nil
	case core.ReposSqlx:
		return Repositories{Goals: sqlxrepos.NewGoalRepository(db), History: sqlxrepos.NewHistoryRepository(db)}, nil
	case core.ReposDummy:
		ddb, _ := dummydb.Open()
		return Repositories{Goals: dummydb.NewGoalRepository(ddb), History: dummydb.NewHistoryRepository(ddb)}, nil
	default:
		return Repositories{}, errors.Errorf("unknown repositories: %q", conf.Database.Repos)
	}
}

func newMetrics() *metrics.Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	return metrics.New(reg)
}

func newPool(conf *core.Config, logger core.Logger, m *metrics.Metrics) *persist.Pool {
	return persist.NewPool(conf.Persist, logger, m)
}

func newSessionService(goals gpa.GoalRepository, history gpa.HistoryRepository, pool *persist.Pool, logger core.Logger, m *metrics.Metrics) *session.Service {
	svc := session.NewService(goals, history, pool, logger)
	m.RegisterGauge("open_sessions", "Number of open user sessions", svc.OpenSessions)
	return svc
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newRepositories))
	must(c.Provide(newMetrics))
	must(c.Provide(newPool))
	must(c.Provide(newSessionService, dig.As(new(session.ServiceInterface))))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
