package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kat-co/vala"
	pkgerrors "github.com/pkg/errors"

	"github.com/grecko-app/grecko/core"
	"github.com/grecko-app/grecko/core/gpa"
)

// Persistence ops
const (
	OpUpsertGoal     = "upsert_goal"
	OpRecordSnapshot = "record_snapshot"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNoSession = errors.New("session not started")
)

type (
	// Dispatcher runs persistence jobs in the background without blocking the caller.
	// Jobs sharing a key must run in submission order.
	// Dispatch only fails when the job could not be queued.
	Dispatcher interface {
		Dispatch(key, op string, job func(ctx context.Context) error) error
	}

	ServiceInterface interface {
		Open(ctx context.Context, userID string) (*Session, error)
		Close(userID string) bool
		Get(userID string) (*Session, error)
		UpdateGoal(sess *Session, gu gpa.GoalUpdate) gpa.GoalState
		ApplyCalculation(sess *Session, courses []gpa.CourseGrade, label string) (gpa.GoalState, gpa.HistoryEntry)
		RecordSnapshot(sess *Session, value float64, label string) gpa.HistoryEntry
		StoredHistory(ctx context.Context, userID string) ([]gpa.HistoryEntry, error)
	}

	Service struct {
		goals      gpa.GoalRepository
		history    gpa.HistoryRepository
		recorder   *gpa.Recorder
		dispatcher Dispatcher
		registry   *Registry
		logger     core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(goals gpa.GoalRepository, history gpa.HistoryRepository, dispatcher Dispatcher, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(goals, "goals"),
		vala.IsNotNil(history, "history"),
		vala.IsNotNil(dispatcher, "dispatcher"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{
		goals:      goals,
		history:    history,
		recorder:   gpa.NewRecorder(history),
		dispatcher: dispatcher,
		registry:   NewRegistry(),
		logger:     logger,
	}
}

// Open starts the user's session, loading the goal and trend line from the store.
// An already open session is returned as is.
func (svc *Service) Open(ctx context.Context, userID string) (*Session, error) {
	if sess, ok := svc.registry.get(userID); ok {
		return sess, nil
	}

	goal := gpa.NewGoalState(userID)
	rec, err := svc.goals.GetGoalRecord(ctx, userID)
	switch {
	case err == nil:
		goal = gpa.LoadGoalState(userID, rec)
	case pkgerrors.Cause(err) != gpa.ErrNotFound:
		return nil, pkgerrors.Wrap(err, "loading goal")
	}

	history, err := svc.history.ListHistoryEntries(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "loading history")
	}

	return svc.registry.putIfAbsent(newSession(userID, goal, history, nowFunc().UTC())), nil
}

// Close discards the user's session. Queued persistence jobs still run.
func (svc *Service) Close(userID string) bool {
	return svc.registry.remove(userID)
}

// OpenSessions reports the number of open sessions, as a metric value.
func (svc *Service) OpenSessions() float64 {
	return float64(svc.registry.Len())
}

func (svc *Service) Get(userID string) (*Session, error) {
	if sess, ok := svc.registry.get(userID); ok {
		return sess, nil
	}
	return nil, ErrNoSession
}

// UpdateGoal edits the session goal and returns the recomputed state right away.
// The upsert runs in the background.
func (svc *Service) UpdateGoal(sess *Session, gu gpa.GoalUpdate) gpa.GoalState {
	return sess.editGoal(func(gs *gpa.GoalState) {
		gs.Apply(gu)
		gs.UpdatedAt = nowFunc().UTC()
	}, svc.persistGoal(sess))
}

// ApplyCalculation makes the mean of courses the current GPA and appends a snapshot
// labeled `label`, or a "Calc <date>" label if blank. The course list is not kept.
func (svc *Service) ApplyCalculation(sess *Session, courses []gpa.CourseGrade, label string) (gpa.GoalState, gpa.HistoryEntry) {
	now := nowFunc().UTC()
	mean := gpa.MeanGPA(courses)
	if label = core.CleanString(label); label == "" {
		label = gpa.CalcLabel(now)
	}

	gs := sess.editGoal(func(gs *gpa.GoalState) {
		gs.CurrentGPA = mean
		gs.Recompute()
		gs.UpdatedAt = now
	}, svc.persistGoal(sess))
	entry := svc.recordSnapshot(sess, mean, label, now)
	return gs, entry
}

// RecordSnapshot appends a labeled snapshot, eg. a semester GPA, without touching the goal.
func (svc *Service) RecordSnapshot(sess *Session, value float64, label string) gpa.HistoryEntry {
	return svc.recordSnapshot(sess, value, core.CleanString(label), nowFunc().UTC())
}

// StoredHistory reads the trend line back from the store, which may lag behind the session.
func (svc *Service) StoredHistory(ctx context.Context, userID string) ([]gpa.HistoryEntry, error) {
	entries, err := svc.history.ListHistoryEntries(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing history")
	}
	return entries, nil
}

func (svc *Service) recordSnapshot(sess *Session, value float64, label string, now time.Time) gpa.HistoryEntry {
	entry := gpa.HistoryEntry{
		UserID:    sess.userID,
		Label:     label,
		Value:     value,
		CreatedAt: now, // provisional; the store assigns its own
	}
	sess.appendHistory(entry, func() {
		svc.dispatch(sess, OpRecordSnapshot, func(ctx context.Context) error {
			_, err := svc.recorder.RecordSnapshot(ctx, sess.userID, value, label)
			return err
		})
	})
	return entry
}

// persistGoal returns the func queueing the upsert of an edited goal.
func (svc *Service) persistGoal(sess *Session) func(gs gpa.GoalState) {
	return func(gs gpa.GoalState) {
		svc.dispatch(sess, OpUpsertGoal, func(ctx context.Context) error {
			if err := svc.goals.UpsertGoalState(ctx, gs); err != nil {
				return core.NewPersistenceError("upserting goal", gs.UserID, err)
			}
			return nil
		})
	}
}

// dispatch queues job and reports its failure, whenever it happens, to the log and the session.
// It may run under the session lock: reporting only touches the notices.
func (svc *Service) dispatch(sess *Session, op string, job func(ctx context.Context) error) {
	err := svc.dispatcher.Dispatch(sess.userID, op, func(ctx context.Context) error {
		err := job(ctx)
		if err != nil {
			svc.reportFailure(sess, op, err)
		}
		return err
	})
	if err != nil {
		svc.reportFailure(sess, op, core.NewPersistenceError("queueing "+op, sess.userID, err))
	}
}

func (svc *Service) reportFailure(sess *Session, op string, err error) {
	svc.logger.Error(fmt.Sprintf("persistence failed: %s", op), err, core.Person{ID: sess.userID})
	sess.notify(Notice{
		Kind:      NoticePersistenceFailed,
		Message:   failureMessage(op),
		CreatedAt: nowFunc().UTC(),
	})
}

func failureMessage(op string) string {
	switch op {
	case OpUpsertGoal:
		return "Your goal could not be saved. It will be saved with your next change."
	case OpRecordSnapshot:
		return "A GPA snapshot could not be saved to your history."
	default:
		return "Some of your changes could not be saved."
	}
}
