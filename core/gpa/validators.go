package gpa

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/grecko-app/grecko/core"
)

var (
	goalInputTag  = "goal_input"
	goalInputText = "at least one goal field is required"

	remainingOrTotalTag  = "remaining_or_total"
	remainingOrTotalText = "one of courses_remaining or total_courses is required"
)

// InitValidators registers the goal validation rules.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(goalStructValidation, GoalUpdate{}, RequiredInput{})
	core.RegisterCustomTranslation(validate, translator, goalInputTag, goalInputText)
	core.RegisterCustomTranslation(validate, translator, remainingOrTotalTag, remainingOrTotalText)
}

// goalStructValidation does struct level validation on GoalUpdate and RequiredInput structs.
func goalStructValidation(sl validator.StructLevel) {
	switch in := sl.Current().Interface().(type) {
	case GoalUpdate:
		if in.IsEmpty() {
			sl.ReportError(in.CurrentGPA, "current_gpa", "CurrentGPA", goalInputTag, "")
			sl.ReportError(in.TargetGPA, "target_gpa", "TargetGPA", goalInputTag, "")
			sl.ReportError(in.CoursesTaken, "courses_taken", "CoursesTaken", goalInputTag, "")
			sl.ReportError(in.TotalCourses, "total_courses", "TotalCourses", goalInputTag, "")
		}
	case RequiredInput:
		if in.CoursesRemaining == nil && in.TotalCourses == nil {
			sl.ReportError(in.CoursesRemaining, "courses_remaining", "CoursesRemaining", remainingOrTotalTag, "")
			sl.ReportError(in.TotalCourses, "total_courses", "TotalCourses", remainingOrTotalTag, "")
		}
	}
}
