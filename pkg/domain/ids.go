// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "github.com/CarlosSantos19/parqueadero-app/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing an EmployeeID where a VisitorID is expected.
type (
	EmployeeID    uuid.UUID
	VisitorID     uuid.UUID
	AccessEventID uuid.UUID
)

// New functions - fresh random identifiers.

func NewEmployeeID() EmployeeID {
	return EmployeeID(uuid.New())
}

func NewVisitorID() VisitorID {
	return VisitorID(uuid.New())
}

func NewAccessEventID() AccessEventID {
	return AccessEventID(uuid.New())
}

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseEmployeeID(s string) (EmployeeID, error) {
	id, err := parseUUID(s, "employee ID")
	return EmployeeID(id), err
}

func ParseVisitorID(s string) (VisitorID, error) {
	id, err := parseUUID(s, "visitor ID")
	return VisitorID(id), err
}

func ParseAccessEventID(s string) (AccessEventID, error) {
	id, err := parseUUID(s, "access event ID")
	return AccessEventID(id), err
}

// String methods - for logging and persistence.

func (id EmployeeID) String() string    { return uuid.UUID(id).String() }
func (id VisitorID) String() string     { return uuid.UUID(id).String() }
func (id AccessEventID) String() string { return uuid.UUID(id).String() }

func (id EmployeeID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id VisitorID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id AccessEventID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshaling - defined types do not inherit uuid.UUID's marshalers,
// so without these the IDs would encode as byte arrays in JSON.

func (id EmployeeID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id VisitorID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id AccessEventID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *EmployeeID) UnmarshalText(b []byte) error {
	parsed, err := ParseEmployeeID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *VisitorID) UnmarshalText(b []byte) error {
	parsed, err := ParseVisitorID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *AccessEventID) UnmarshalText(b []byte) error {
	parsed, err := ParseAccessEventID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return parsed, nil
}
