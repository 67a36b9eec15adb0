package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/grecko-app/grecko/core"
	"github.com/grecko-app/grecko/core/gpa"
)

type historyRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Label     string    `db:"label"`
	Value     float64   `db:"value"`
	CreatedAt time.Time `db:"created_at"`
}

func (row historyRow) entry() gpa.HistoryEntry {
	return gpa.HistoryEntry{
		ID:        row.ID,
		UserID:    row.UserID,
		Label:     row.Label,
		Value:     row.Value,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

type historyRepository struct {
	db *sqlx.DB
}

var _ gpa.HistoryRepository = (*historyRepository)(nil) // interface compliance check

func NewHistoryRepository(db *sql.DB) *historyRepository {
	return &historyRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo historyRepository) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if tx, ok := svcExec[0].(*sql.Tx); ok {
			return &sqlx.Tx{Tx: tx, Mapper: repo.db.Mapper}
		}
	}
	return repo.db
}

func (repo historyRepository) AppendHistoryEntry(ctx context.Context, entry gpa.HistoryEntry, exec ...core.DBExecutor) (gpa.HistoryEntry, error) {
	var row historyRow
	err := sqlx.GetContext(ctx, repo.getExec(exec), &row,
		`INSERT INTO gpa_history (id, user_id, label, value) VALUES ($1, $2, $3, $4)
RETURNING id, user_id, label, value, created_at`,
		uuid.New().String(), entry.UserID, entry.Label, entry.Value)
	if err != nil {
		return gpa.HistoryEntry{}, errors.Wrap(err, "appending history entry")
	}
	return row.entry(), nil
}

func (repo historyRepository) ListHistoryEntries(ctx context.Context, userID string, exec ...core.DBExecutor) ([]gpa.HistoryEntry, error) {
	var rows []historyRow
	err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows,
		`SELECT id, user_id, label, value, created_at FROM gpa_history WHERE user_id = $1 ORDER BY created_at, seq`,
		userID)
	if err != nil {
		return nil, errors.Wrap(err, "listing history entries")
	}
	entries := make([]gpa.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}
	return entries, nil
}
