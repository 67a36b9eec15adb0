package gpa

import (
	"time"

	"github.com/grecko-app/grecko/core"
)

// GoalState is a user's academic goal. CoursesRemaining and RequiredGPA are derived
// and must only be changed through Recompute.
type GoalState struct {
	UserID           string    `json:"-"`
	CurrentGPA       float64   `json:"current_gpa"`
	TargetGPA        float64   `json:"target_gpa"`
	CoursesTaken     int       `json:"courses_taken"`
	TotalCourses     int       `json:"total_courses"`
	CoursesRemaining int       `json:"courses_remaining"`
	RequiredGPA      string    `json:"required_gpa"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewGoalState returns the zero-valued goal a session starts with.
func NewGoalState(userID string) GoalState {
	gs := GoalState{UserID: userID}
	gs.Recompute()
	return gs
}

// Recompute refreshes the derived fields from the four inputs.
func (gs *GoalState) Recompute() {
	gs.CoursesRemaining = RemainingCourses(gs.TotalCourses, gs.CoursesTaken)
	gs.RequiredGPA = RequiredAverage(gs.CurrentGPA, gs.TargetGPA, gs.CoursesTaken, gs.CoursesRemaining)
}

// Apply edits the provided inputs and recomputes the derived fields.
func (gs *GoalState) Apply(gu GoalUpdate) {
	if gu.CurrentGPA != nil {
		gs.CurrentGPA = *gu.CurrentGPA
	}
	if gu.TargetGPA != nil {
		gs.TargetGPA = *gu.TargetGPA
	}
	if gu.CoursesTaken != nil {
		gs.CoursesTaken = *gu.CoursesTaken
	}
	if gu.TotalCourses != nil {
		gs.TotalCourses = *gu.TotalCourses
	}
	gs.Recompute()
}

func (gs GoalState) Reachability() Reachability {
	return Classify(gs.RequiredGPA, gs.CurrentGPA)
}

// RemainingCourses is max(0, total-taken).
func RemainingCourses(totalCourses, coursesTaken int) int {
	if rem := totalCourses - coursesTaken; rem > 0 {
		return rem
	}
	return 0
}

// GoalUpdate defines which goal inputs may be edited. Nil fields are left untouched.
type GoalUpdate struct {
	CurrentGPA   *float64 `json:"current_gpa" validate:"omitempty,finite"`
	TargetGPA    *float64 `json:"target_gpa" validate:"omitempty,finite"`
	CoursesTaken *int     `json:"courses_taken" validate:"omitempty,min=0"`
	TotalCourses *int     `json:"total_courses" validate:"omitempty,min=0"`
}

func (gu GoalUpdate) IsEmpty() bool {
	return gu.CurrentGPA == nil && gu.TargetGPA == nil && gu.CoursesTaken == nil && gu.TotalCourses == nil
}

// GoalRecord is a goal row as read from a store; any column may be missing.
type GoalRecord struct {
	CurrentGPA   *float64
	TargetGPA    *float64
	CoursesTaken *int
	TotalCourses *int
	UpdatedAt    time.Time
}

// LoadGoalState is the only place store rows become a GoalState:
// missing or non-finite values default to 0, negative course counts are floored at 0
// and the derived fields are recomputed rather than trusted.
func LoadGoalState(userID string, rec GoalRecord) GoalState {
	gs := GoalState{UserID: userID, UpdatedAt: rec.UpdatedAt}
	if rec.CurrentGPA != nil && core.IsFinite(*rec.CurrentGPA) {
		gs.CurrentGPA = *rec.CurrentGPA
	}
	if rec.TargetGPA != nil && core.IsFinite(*rec.TargetGPA) {
		gs.TargetGPA = *rec.TargetGPA
	}
	if rec.CoursesTaken != nil && *rec.CoursesTaken > 0 {
		gs.CoursesTaken = *rec.CoursesTaken
	}
	if rec.TotalCourses != nil && *rec.TotalCourses > 0 {
		gs.TotalCourses = *rec.TotalCourses
	}
	gs.Recompute()
	return gs
}
