package gpa

import (
	"math"
	"math/big"
	"strconv"
)

// MaxGPA is the top of the grading scale. Not configurable.
const MaxGPA = 4.0

// NoRequirement is reported in place of a required average when no courses remain.
const NoRequirement = "---"

// Reachability classifies a required average against the 4.0 ceiling.
type Reachability string

const (
	ReachabilityUndefined   Reachability = ""
	ReachabilityUnreachable Reachability = "unreachable"
	ReachabilityEasy        Reachability = "easy"
	ReachabilityOnTrack     Reachability = "on-track"
)

// CourseGrade is a single course entered in the calculator. Never persisted.
type CourseGrade struct {
	Name  string  `json:"name"`
	Grade float64 `json:"grade" validate:"finite"`
}

// MeanGPA returns the unweighted mean of the grades, 0 for no courses.
// Grades are averaged as given, out-of-range values included.
func MeanGPA(courses []CourseGrade) float64 {
	if len(courses) == 0 {
		return 0
	}
	var sum float64
	for _, c := range courses {
		sum += c.Grade
	}
	return sum / float64(len(courses))
}

// AverageGPA formats MeanGPA with 2 decimals; "0.00" for no courses.
func AverageGPA(courses []CourseGrade) string {
	return FormatGPA(MeanGPA(courses))
}

// RequiredAverage returns the average grade needed over the remaining courses
// to finish at targetGPA, or NoRequirement when no courses remain.
// A negative result means the target is already exceeded.
func RequiredAverage(currentGPA, targetGPA float64, coursesTaken, coursesRemaining int) string {
	if coursesRemaining <= 0 {
		return NoRequirement
	}
	currentPoints := currentGPA * float64(coursesTaken)
	totalTargetPoints := targetGPA * float64(coursesTaken+coursesRemaining)
	neededPoints := totalTargetPoints - currentPoints
	return FormatGPA(neededPoints / float64(coursesRemaining))
}

// Classify derives the reachability of a formatted required average.
func Classify(required string, currentGPA float64) Reachability {
	if required == NoRequirement {
		return ReachabilityUndefined
	}
	val, err := strconv.ParseFloat(required, 64)
	if err != nil || math.IsNaN(val) {
		return ReachabilityUndefined
	}
	switch {
	case val > MaxGPA:
		return ReachabilityUnreachable
	case val < currentGPA:
		return ReachabilityEasy
	default:
		return ReachabilityOnTrack
	}
}

// FormatGPA formats v with 2 decimals, rounding halves away from zero (3.625 is "3.63").
// NaN and infinities are passed through as "NaN", "Infinity" and "-Infinity".
func FormatGPA(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return new(big.Rat).SetFloat64(v).FloatString(2)
}

// CourseList is a calculator session: the courses entered and an optional snapshot label.
type CourseList struct {
	Courses []CourseGrade `json:"courses" validate:"dive"`
	Label   string        `json:"label"`
}

// RequiredInput is a standalone required-average request. Remaining courses are taken
// from CoursesRemaining, or derived from TotalCourses when absent.
type RequiredInput struct {
	CurrentGPA       *float64 `json:"current_gpa" validate:"required,finite"`
	TargetGPA        *float64 `json:"target_gpa" validate:"required,finite"`
	CoursesTaken     int      `json:"courses_taken" validate:"min=0"`
	CoursesRemaining *int     `json:"courses_remaining" validate:"omitempty,min=0"`
	TotalCourses     *int     `json:"total_courses" validate:"omitempty,min=0"`
}

func (ri RequiredInput) Remaining() int {
	switch {
	case ri.CoursesRemaining != nil:
		return *ri.CoursesRemaining
	case ri.TotalCourses != nil:
		return RemainingCourses(*ri.TotalCourses, ri.CoursesTaken)
	default:
		return 0
	}
}

type RequiredResult struct {
	CoursesRemaining int          `json:"courses_remaining"`
	RequiredGPA      string       `json:"required_gpa"`
	Reachability     Reachability `json:"reachability"`
}

// Calculate runs RequiredAverage and Classify on the input. Nil GPAs count as 0.
func (ri RequiredInput) Calculate() RequiredResult {
	var current, target float64
	if ri.CurrentGPA != nil {
		current = *ri.CurrentGPA
	}
	if ri.TargetGPA != nil {
		target = *ri.TargetGPA
	}
	rem := ri.Remaining()
	req := RequiredAverage(current, target, ri.CoursesTaken, rem)
	return RequiredResult{
		CoursesRemaining: rem,
		RequiredGPA:      req,
		Reachability:     Classify(req, current),
	}
}
