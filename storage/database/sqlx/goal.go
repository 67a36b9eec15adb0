package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/grecko-app/grecko/core"
	"github.com/grecko-app/grecko/core/gpa"
)

type goalRow struct {
	UserID       string          `db:"user_id"`
	CurrentGPA   sql.NullFloat64 `db:"current_gpa"`
	TargetGPA    sql.NullFloat64 `db:"target_gpa"`
	CoursesTaken sql.NullInt64   `db:"courses_taken"`
	TotalCourses sql.NullInt64   `db:"total_courses"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

type goalRepository struct {
	db *sqlx.DB
}

var _ gpa.GoalRepository = (*goalRepository)(nil) // interface compliance check

// NewGoalRepository wraps db, a postgres connection pool.
func NewGoalRepository(db *sql.DB) *goalRepository {
	return &goalRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo goalRepository) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if tx, ok := svcExec[0].(*sql.Tx); ok {
			return &sqlx.Tx{Tx: tx, Mapper: repo.db.Mapper}
		}
	}
	return repo.db
}

func (repo goalRepository) UpsertGoalState(ctx context.Context, gs gpa.GoalState, exec ...core.DBExecutor) error {
	updatedAt := gs.UpdatedAt.UTC()
	if gs.UpdatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	row := goalRow{
		UserID:       gs.UserID,
		CurrentGPA:   sql.NullFloat64{Float64: gs.CurrentGPA, Valid: true},
		TargetGPA:    sql.NullFloat64{Float64: gs.TargetGPA, Valid: true},
		CoursesTaken: sql.NullInt64{Int64: int64(gs.CoursesTaken), Valid: true},
		TotalCourses: sql.NullInt64{Int64: int64(gs.TotalCourses), Valid: true},
		UpdatedAt:    updatedAt,
	}

	q, args, err := sqlx.Named(`INSERT INTO goal (user_id, current_gpa, target_gpa, courses_taken, total_courses, updated_at)
VALUES (:user_id, :current_gpa, :target_gpa, :courses_taken, :total_courses, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET
	current_gpa = EXCLUDED.current_gpa,
	target_gpa = EXCLUDED.target_gpa,
	courses_taken = EXCLUDED.courses_taken,
	total_courses = EXCLUDED.total_courses,
	updated_at = EXCLUDED.updated_at`, row)
	if err != nil {
		return errors.Wrap(err, "binding goal")
	}
	if _, err = repo.getExec(exec).ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "upserting goal")
	}
	return nil
}

func (repo goalRepository) GetGoalRecord(ctx context.Context, userID string, exec ...core.DBExecutor) (gpa.GoalRecord, error) {
	var row goalRow
	err := sqlx.GetContext(ctx, repo.getExec(exec), &row,
		`SELECT user_id, current_gpa, target_gpa, courses_taken, total_courses, updated_at FROM goal WHERE user_id = $1`,
		userID)
	if err == sql.ErrNoRows {
		return gpa.GoalRecord{}, gpa.ErrNotFound
	}
	if err != nil {
		return gpa.GoalRecord{}, errors.Wrap(err, "getting goal")
	}

	rec := gpa.GoalRecord{UpdatedAt: row.UpdatedAt}
	if row.CurrentGPA.Valid {
		rec.CurrentGPA = &row.CurrentGPA.Float64
	}
	if row.TargetGPA.Valid {
		rec.TargetGPA = &row.TargetGPA.Float64
	}
	if row.CoursesTaken.Valid {
		taken := int(row.CoursesTaken.Int64)
		rec.CoursesTaken = &taken
	}
	if row.TotalCourses.Valid {
		total := int(row.TotalCourses.Int64)
		rec.TotalCourses = &total
	}
	return rec, nil
}
