// Package domain holds typed identifiers shared across modules.
//
// Each identifier is a distinct named UUID type so a JobID can never be passed where
// an ApplicationID is expected. Parse* functions are the trust boundary for ids
// arriving from URLs, tokens or request bodies.
package domain

import (
	"github.com/google/uuid"

	dErrors "jobportal/pkg/domain-errors"
)

type (
	UserID        uuid.UUID
	JobID         uuid.UUID
	ApplicationID uuid.UUID
	CompanyID     uuid.UUID
)

// maxIDLength bounds input before it reaches uuid.Parse. The longest accepted
// form is the urn:uuid: prefixed one.
const maxIDLength = 45

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return parsed, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user ID", s)
	return UserID(u), err
}

func ParseJobID(s string) (JobID, error) {
	u, err := parseUUID("job ID", s)
	return JobID(u), err
}

func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID("application ID", s)
	return ApplicationID(u), err
}

func ParseCompanyID(s string) (CompanyID, error) {
	u, err := parseUUID("company ID", s)
	return CompanyID(u), err
}

func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id JobID) String() string         { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id CompanyID) String() string     { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id JobID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CompanyID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id JobID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id ApplicationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id CompanyID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *JobID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ApplicationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CompanyID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
