package models

import (
	"time"

	id "jobportal/pkg/domain"
)

type Role string

const (
	RoleStudent   Role = "student"
	RoleRecruiter Role = "recruiter"
	RoleAdmin     Role = "admin"
)

// User is a candidate or recruiter profile. Read-only here.
type User struct {
	ID        id.UserID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CGPA      *float64  `json:"cgpa,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsStudent reports whether eligibility rules apply to the user.
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// Company is the organisation that owns a job posting. Read-only here.
type Company struct {
	ID          id.CompanyID `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Website     string       `json:"website,omitempty"`
	Location    string       `json:"location,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
