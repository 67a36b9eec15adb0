package dummydb

import (
	"context"

	"github.com/grecko-app/grecko/core"
	"github.com/grecko-app/grecko/core/gpa"
)

type goalRepository struct {
	db *goalTable
}

var _ gpa.GoalRepository = (*goalRepository)(nil) // interface compliance check

func NewGoalRepository(db *DB) gpa.GoalRepository {
	return &goalRepository{db: db.goal}
}

func (repo *goalRepository) UpsertGoalState(_ context.Context, gs gpa.GoalState, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.failWith != nil {
		return repo.db.failWith
	}
	curr, taken, total, target := gs.CurrentGPA, gs.CoursesTaken, gs.TotalCourses, gs.TargetGPA
	repo.db.table[gs.UserID] = &gpa.GoalRecord{
		CurrentGPA:   &curr,
		TargetGPA:    &target,
		CoursesTaken: &taken,
		TotalCourses: &total,
		UpdatedAt:    nowFunc().UTC(),
	}
	return nil
}

func (repo *goalRepository) GetGoalRecord(_ context.Context, userID string, _ ...core.DBExecutor) (gpa.GoalRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[userID]; ok {
		return *rec, nil
	}
	return gpa.GoalRecord{}, gpa.ErrNotFound
}

// GoalRows returns the number of goal rows stored.
func (db *DB) GoalRows() int {
	db.goal.RLock()
	defer db.goal.RUnlock()
	return len(db.goal.table)
}

// PutGoalRecord stores rec as is, eg. a row with missing columns.
func (db *DB) PutGoalRecord(userID string, rec gpa.GoalRecord) {
	db.goal.Lock()
	defer db.goal.Unlock()
	db.goal.table[userID] = &rec
}
