package gpa

import (
	"context"
	"errors"

	"github.com/grecko-app/grecko/core"
)

var (
	// errors
	ErrNotFound = errors.New("goal not found")
)

type (
	// GoalRepository persists one goal row per user.
	GoalRepository interface {
		// UpsertGoalState inserts or overwrites the user's goal row. Repeating it is idempotent.
		UpsertGoalState(ctx context.Context, gs GoalState, exec ...core.DBExecutor) error
		// GetGoalRecord returns ErrNotFound if the user never saved a goal.
		GetGoalRecord(ctx context.Context, userID string, exec ...core.DBExecutor) (GoalRecord, error)
	}

	// HistoryRepository is an append-only log of GPA snapshots per user.
	HistoryRepository interface {
		// AppendHistoryEntry always creates a new row; the store assigns ID and CreatedAt.
		AppendHistoryEntry(ctx context.Context, entry HistoryEntry, exec ...core.DBExecutor) (HistoryEntry, error)
		// ListHistoryEntries returns the user's entries oldest first.
		ListHistoryEntries(ctx context.Context, userID string, exec ...core.DBExecutor) ([]HistoryEntry, error)
	}
)
