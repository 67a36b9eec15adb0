package boiledrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/grecko-app/grecko/core"
	"github.com/grecko-app/grecko/core/gpa"
)

type historyRow struct {
	ID        string    `boil:"id"`
	UserID    string    `boil:"user_id"`
	Label     string    `boil:"label"`
	Value     float64   `boil:"value"`
	CreatedAt time.Time `boil:"created_at"`
}

var (
	appendHistoryQuery = `INSERT INTO "` + tableHistory + `" (id, user_id, label, value)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, label, value, created_at`

	listHistoryQuery = `SELECT id, user_id, label, value, created_at
FROM "` + tableHistory + `" WHERE user_id = $1
ORDER BY created_at, seq`
)

type historyRepository struct {
	repo
}

var _ gpa.HistoryRepository = (*historyRepository)(nil) // interface compliance check

func NewHistoryRepository(exec core.DBExecutor) *historyRepository {
	return &historyRepository{repo{exec: exec}}
}

func (r historyRepository) unboil(row historyRow) gpa.HistoryEntry {
	return gpa.HistoryEntry{
		ID:        row.ID,
		UserID:    row.UserID,
		Label:     row.Label,
		Value:     row.Value,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (r historyRepository) AppendHistoryEntry(ctx context.Context, entry gpa.HistoryEntry, exec ...core.DBExecutor) (gpa.HistoryEntry, error) {
	var row historyRow
	err := queries.Raw(appendHistoryQuery, uuid.New().String(), entry.UserID, entry.Label, entry.Value).
		Bind(ctx, r.getExec(exec), &row)
	if err != nil {
		return gpa.HistoryEntry{}, errors.Wrap(err, "appending history entry")
	}
	return r.unboil(row), nil
}

func (r historyRepository) ListHistoryEntries(ctx context.Context, userID string, exec ...core.DBExecutor) ([]gpa.HistoryEntry, error) {
	var rows []historyRow
	if err := queries.Raw(listHistoryQuery, userID).Bind(ctx, r.getExec(exec), &rows); err != nil {
		return nil, errors.Wrap(err, "listing history entries")
	}
	entries := make([]gpa.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, r.unboil(row))
	}
	return entries, nil
}
