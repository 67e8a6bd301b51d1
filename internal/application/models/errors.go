package models

import (
	"fmt"
	"math"
	"strconv"

	id "jobportal/pkg/domain"
)

// DuplicateApplicationError carries the id of the application that already
// exists for the (job, applicant) pair.
type DuplicateApplicationError struct {
	ApplicationID id.ApplicationID
}

func (e *DuplicateApplicationError) Error() string {
	return "application already exists: " + e.ApplicationID.String()
}

// EligibilityError reports why a student may not apply. Actual is nil when the
// student has no recorded CGPA.
type EligibilityError struct {
	Required float64
	Actual   *float64
}

func (e *EligibilityError) Error() string {
	return e.Message()
}

// RequiredCGPA formats the job's floor to two decimals.
func (e *EligibilityError) RequiredCGPA() string {
	return formatCGPA(e.Required)
}

// UserCGPA formats the student's CGPA to two decimals, or returns "" when
// it is not recorded.
func (e *EligibilityError) UserCGPA() string {
	if e.Actual == nil {
		return ""
	}
	return formatCGPA(*e.Actual)
}

// Message is the client-facing explanation.
func (e *EligibilityError) Message() string {
	actual := e.UserCGPA()
	if actual == "" {
		actual = "not recorded"
	}
	return fmt.Sprintf("Your CGPA (%s) does not meet the minimum requirement (%s)", actual, e.RequiredCGPA())
}

// MeetsCGPA compares at the two-decimal precision CGPAs are reported in, so a
// student shown as meeting the floor is never rejected by it.
func MeetsCGPA(actual, required float64) bool {
	return cgpaHundredths(actual) >= cgpaHundredths(required)
}

func formatCGPA(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func cgpaHundredths(v float64) int64 {
	rounded, err := strconv.ParseFloat(formatCGPA(v), 64)
	if err != nil {
		return int64(math.Round(v * 100))
	}
	return int64(math.Round(rounded * 100))
}
