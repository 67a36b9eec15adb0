package boiledrepos

import (
	"github.com/grecko-app/grecko/core"
)

// Table names
const (
	tableGoal    = "goal"
	tableHistory = "gpa_history"
)

type repo struct {
	exec core.DBExecutor
}

func (r repo) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return r.exec
}
