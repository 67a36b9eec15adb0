package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/grecko-app/grecko/core"
	"github.com/grecko-app/grecko/core/gpa"
)

type historyRepository struct {
	db *historyTable
}

var _ gpa.HistoryRepository = (*historyRepository)(nil) // interface compliance check

func NewHistoryRepository(db *DB) gpa.HistoryRepository {
	return &historyRepository{db: db.history}
}

func (repo *historyRepository) AppendHistoryEntry(_ context.Context, entry gpa.HistoryEntry, _ ...core.DBExecutor) (gpa.HistoryEntry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.failWith != nil {
		return gpa.HistoryEntry{}, repo.db.failWith
	}
	entry.ID = uuid.New().String()
	entry.CreatedAt = nowFunc().UTC()
	repo.db.rows = append(repo.db.rows, entry)
	return entry, nil
}

// ListHistoryEntries returns entries in insertion order, which is creation order.
func (repo *historyRepository) ListHistoryEntries(_ context.Context, userID string, _ ...core.DBExecutor) ([]gpa.HistoryEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := make([]gpa.HistoryEntry, 0)
	for _, e := range repo.db.rows {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
