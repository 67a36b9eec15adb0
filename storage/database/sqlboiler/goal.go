package boiledrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/grecko-app/grecko/core"
	"github.com/grecko-app/grecko/core/gpa"
)

// goalRow mirrors the goal table. Every input column is nullable.
type goalRow struct {
	UserID       string       `boil:"user_id"`
	CurrentGPA   null.Float64 `boil:"current_gpa"`
	TargetGPA    null.Float64 `boil:"target_gpa"`
	CoursesTaken null.Int     `boil:"courses_taken"`
	TotalCourses null.Int     `boil:"total_courses"`
	UpdatedAt    time.Time    `boil:"updated_at"`
}

var (
	upsertGoalQuery = `INSERT INTO "` + tableGoal + `" (user_id, current_gpa, target_gpa, courses_taken, total_courses, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE SET
	current_gpa = EXCLUDED.current_gpa,
	target_gpa = EXCLUDED.target_gpa,
	courses_taken = EXCLUDED.courses_taken,
	total_courses = EXCLUDED.total_courses,
	updated_at = EXCLUDED.updated_at`

	getGoalQuery = `SELECT user_id, current_gpa, target_gpa, courses_taken, total_courses, updated_at
FROM "` + tableGoal + `" WHERE user_id = $1`
)

type goalRepository struct {
	repo
}

var _ gpa.GoalRepository = (*goalRepository)(nil) // interface compliance check

func NewGoalRepository(exec core.DBExecutor) *goalRepository {
	return &goalRepository{repo{exec: exec}}
}

func (r goalRepository) boil(gs gpa.GoalState) goalRow {
	updatedAt := gs.UpdatedAt.UTC()
	if gs.UpdatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	return goalRow{
		UserID:       gs.UserID,
		CurrentGPA:   null.Float64From(gs.CurrentGPA),
		TargetGPA:    null.Float64From(gs.TargetGPA),
		CoursesTaken: null.IntFrom(gs.CoursesTaken),
		TotalCourses: null.IntFrom(gs.TotalCourses),
		UpdatedAt:    updatedAt,
	}
}

func (r goalRepository) unboil(row goalRow) gpa.GoalRecord {
	return gpa.GoalRecord{
		CurrentGPA:   row.CurrentGPA.Ptr(),
		TargetGPA:    row.TargetGPA.Ptr(),
		CoursesTaken: row.CoursesTaken.Ptr(),
		TotalCourses: row.TotalCourses.Ptr(),
		UpdatedAt:    row.UpdatedAt,
	}
}

func (r goalRepository) UpsertGoalState(ctx context.Context, gs gpa.GoalState, exec ...core.DBExecutor) error {
	row := r.boil(gs)
	_, err := queries.Raw(
		upsertGoalQuery,
		row.UserID, row.CurrentGPA, row.TargetGPA, row.CoursesTaken, row.TotalCourses, row.UpdatedAt,
	).ExecContext(ctx, r.getExec(exec))
	if err != nil {
		return errors.Wrap(err, "upserting goal")
	}
	return nil
}

func (r goalRepository) GetGoalRecord(ctx context.Context, userID string, exec ...core.DBExecutor) (gpa.GoalRecord, error) {
	var row goalRow
	if err := queries.Raw(getGoalQuery, userID).Bind(ctx, r.getExec(exec), &row); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return gpa.GoalRecord{}, gpa.ErrNotFound
		}
		return gpa.GoalRecord{}, errors.Wrap(err, "getting goal")
	}
	return r.unboil(row), nil
}
