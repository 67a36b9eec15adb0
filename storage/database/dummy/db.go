package dummydb

import (
	"sync"
	"time"

	"github.com/grecko-app/grecko/core/gpa"
)

var nowFunc = time.Now // mockable

type (
	DB struct {
		goal    *goalTable
		history *historyTable
	}

	goalTable struct {
		sync.RWMutex
		table map[string]*gpa.GoalRecord
		// failWith makes every write fail with the given error, for tests.
		failWith error
	}

	historyTable struct {
		sync.RWMutex
		rows     []gpa.HistoryEntry
		failWith error
	}
)

func Open() (*DB, error) {
	db := &DB{
		goal:    &goalTable{table: make(map[string]*gpa.GoalRecord)},
		history: &historyTable{},
	}
	return db, nil
}

// FailWrites makes all subsequent writes fail with err. Pass nil to restore them.
func (db *DB) FailWrites(err error) {
	db.goal.Lock()
	db.goal.failWith = err
	db.goal.Unlock()

	db.history.Lock()
	db.history.failWith = err
	db.history.Unlock()
}
