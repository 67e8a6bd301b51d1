package models

import (
	"strings"
	"time"

	id "jobportal/pkg/domain"
	dErrors "jobportal/pkg/domain-errors"
)

// Status is the review state of an application. Values are stored lowercase.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// ParseStatus normalises s to lowercase and rejects anything outside the
// three known states.
func ParseStatus(s string) (Status, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "status is required")
	}
	status := Status(strings.ToLower(trimmed))
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "status must be one of pending, accepted, rejected")
	}
	return status, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// CanTransitionTo reports whether a reviewer may move an application from s to
// next under strict transition rules: pending may become accepted or rejected,
// decided applications stay where they are.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	return s == StatusPending && (next == StatusAccepted || next == StatusRejected)
}

// Application records one candidate applying to one job.
//
// Invariants:
//   - At most one application exists per (JobID, ApplicantID)
//   - Status is always a valid lowercase Status
//   - Applications are never deleted; only Status and UpdatedAt change
type Application struct {
	ID          id.ApplicationID `json:"id"`
	JobID       id.JobID         `json:"job_id"`
	ApplicantID id.UserID        `json:"applicant_id"`
	Status      Status           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewApplication creates a pending application.
func NewApplication(applicationID id.ApplicationID, jobID id.JobID, applicantID id.UserID, now time.Time) (*Application, error) {
	if jobID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "job ID cannot be empty")
	}
	if applicantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "applicant ID cannot be empty")
	}
	return &Application{
		ID:          applicationID,
		JobID:       jobID,
		ApplicantID: applicantID,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyStatus sets the status and bumps UpdatedAt. Callers validate the
// transition first.
func (a *Application) ApplyStatus(status Status, now time.Time) {
	a.Status = status
	a.UpdatedAt = now
}
