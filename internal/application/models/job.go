package models

import (
	"time"

	id "jobportal/pkg/domain"
)

// Job is a posting candidates apply to. This module only ever changes
// Applications and TotalApplicants.
//
// Invariants:
//   - Applications keeps insertion order
//   - TotalApplicants == len(Applications) after every successful apply
type Job struct {
	ID              id.JobID           `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	CompanyID       id.CompanyID       `json:"company_id"`
	MinCGPA         *float64           `json:"min_cgpa,omitempty"`
	Applications    []id.ApplicationID `json:"applications"`
	TotalApplicants int                `json:"total_applicants"`
	CreatedAt       time.Time          `json:"created_at"`
}

// HasCGPARequirement reports whether the job sets a positive CGPA floor.
func (j *Job) HasCGPARequirement() bool {
	return j.MinCGPA != nil && *j.MinCGPA > 0
}

// AppendApplication records applicationID and recomputes the counter from
// the collection so the two cannot drift.
func (j *Job) AppendApplication(applicationID id.ApplicationID) {
	j.Applications = append(j.Applications, applicationID)
	j.TotalApplicants = len(j.Applications)
}
