package gpa

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/grecko-app/grecko/core"
)

type fakeHistoryRepo struct {
	entries []HistoryEntry
	err     error
}

func (r *fakeHistoryRepo) AppendHistoryEntry(_ context.Context, entry HistoryEntry, _ ...core.DBExecutor) (HistoryEntry, error) {
	if r.err != nil {
		return HistoryEntry{}, r.err
	}
	entry.ID = strconv.Itoa(len(r.entries) + 1)
	entry.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *fakeHistoryRepo) ListHistoryEntries(_ context.Context, userID string, _ ...core.DBExecutor) ([]HistoryEntry, error) {
	var res []HistoryEntry
	for _, e := range r.entries {
		if e.UserID == userID {
			res = append(res, e)
		}
	}
	return res, r.err
}

func TestCalcLabel(t *testing.T) {
	got := CalcLabel(time.Date(2021, 2, 7, 23, 59, 0, 0, time.UTC))
	if want := "Calc 02/07/2021"; got != want {
		t.Errorf("CalcLabel() = %q, want %q", got, want)
	}
}

func TestRecorder_RecordSnapshot(t *testing.T) {
	repo := new(fakeHistoryRepo)
	rec := NewRecorder(repo)
	ctx := context.Background()

	first, err := rec.RecordSnapshot(ctx, "u1", 3.25, "  Fall 2020 ")
	if err != nil {
		t.Fatalf("RecordSnapshot() failed: %v", err)
	}
	assert.Equal(t, "Fall 2020", first.Label)
	assert.Equal(t, 3.25, first.Value)
	assert.NotEmpty(t, first.ID)

	// identical calls are never deduplicated
	second, err := rec.RecordSnapshot(ctx, "u1", 3.25, "Fall 2020")
	if err != nil {
		t.Fatalf("RecordSnapshot() failed: %v", err)
	}
	assert.NotEqual(t, first.ID, second.ID)

	// out of scale values pass through
	if _, err = rec.RecordSnapshot(ctx, "u1", 4.7, "Spring 2021"); err != nil {
		t.Fatalf("RecordSnapshot() failed: %v", err)
	}

	entries, _ := repo.ListHistoryEntries(ctx, "u1")
	labels := make([]string, 0, len(entries))
	for _, e := range entries {
		labels = append(labels, e.Label)
	}
	assert.Equal(t, []string{"Fall 2020", "Fall 2020", "Spring 2021"}, labels)
	assert.Equal(t, 4.7, entries[2].Value)
}

func TestRecorder_RecordSnapshot_storeRejects(t *testing.T) {
	storeErr := errors.New("connection refused")
	rec := NewRecorder(&fakeHistoryRepo{err: storeErr})

	_, err := rec.RecordSnapshot(context.Background(), "u1", 3.0, "Calc 01/02/2021")
	if err == nil {
		t.Fatal("RecordSnapshot() error = nil, want a persistence error")
	}
	perr, ok := core.AsPersistenceError(err)
	if !ok {
		t.Fatalf("RecordSnapshot() error = %T, want *core.PersistenceError", err)
	}
	assert.Equal(t, "u1", perr.UserID)
	assert.True(t, errors.Is(err, storeErr))
}

func TestNewRecorder_nilRepo(t *testing.T) {
	assert.Panics(t, func() { NewRecorder(nil) })
}
