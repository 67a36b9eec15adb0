package gpa

import (
	"context"
	"time"

	"github.com/kat-co/vala"

	"github.com/grecko-app/grecko/core"
)

const calcLabelLayout = "01/02/2006"

// HistoryEntry is one GPA snapshot of a user's trend line.
// ID and CreatedAt are assigned by the store.
type HistoryEntry struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"-"`
	Label     string    `json:"label"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// CalcLabel is the label given to snapshots taken from the course calculator.
func CalcLabel(t time.Time) string {
	return "Calc " + t.Format(calcLabelLayout)
}

// Recorder appends GPA snapshots to the persisted history.
type Recorder struct {
	repo HistoryRepository
}

func NewRecorder(repo HistoryRepository) *Recorder {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()
	return &Recorder{repo: repo}
}

// RecordSnapshot appends exactly one entry for userID. It never reads back nor
// deduplicates: identical calls produce identical-looking rows.
// The gpa is passed through as given. A rejected write is a *core.PersistenceError.
func (rec *Recorder) RecordSnapshot(ctx context.Context, userID string, gpa float64, label string) (HistoryEntry, error) {
	entry, err := rec.repo.AppendHistoryEntry(ctx, HistoryEntry{
		UserID: userID,
		Label:  core.CleanString(label),
		Value:  gpa,
	})
	if err != nil {
		return HistoryEntry{}, core.NewPersistenceError("appending history entry", userID, err)
	}
	return entry, nil
}

// NewSnapshot records a snapshot to be appended to a history.
type NewSnapshot struct {
	Label string   `json:"label" validate:"notblank"`
	Value *float64 `json:"value" validate:"required,finite"`
}

func (ns *NewSnapshot) Clean() {
	ns.Label = core.CleanString(ns.Label)
}
