package models

import (
	"fmt"
	"time"
)

// TargetKind is the kind of equipment a task can point at
type TargetKind string

const (
	TargetKindDrive TargetKind = "drive"
	TargetKindPart  TargetKind = "part"
)

// TargetRef is a weak reference from a task to a drive or part.
// The referenced equipment may be deleted later; readers must tolerate that.
type TargetRef struct {
	Kind TargetKind `json:"kind"`
	ID   int64      `json:"id"`
}

// Validate checks the reference shape
func (r TargetRef) Validate() error {
	switch r.Kind {
	case TargetKindDrive, TargetKindPart:
	default:
		return NewValidationError("target.kind", fmt.Sprintf("unknown target kind %q", r.Kind))
	}
	if r.ID <= 0 {
		return NewValidationError("target.id", "must be positive")
	}
	return nil
}

func (r TargetRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Equipment is the resolved view of a drive or part, as returned by the equipment lookup
type Equipment struct {
	Kind         TargetKind `json:"kind" db:"kind"`
	ID           int64      `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	SerialNumber *string    `json:"serial_number,omitempty" db:"serial_number"`
	DriveID      *int64     `json:"drive_id,omitempty" db:"drive_id"` // parent drive of a part
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Role of a user, as supplied by the identity collaborator
type Role string

const (
	RoleOperator   Role = "operator"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// User is the identity view the engine needs
type User struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Role   Role   `json:"role" db:"role"`
	Active bool   `json:"active" db:"active"`
}

// CanEditCompleted reports whether the user may correct sub-tasks of a terminal inspection
func (u *User) CanEditCompleted() bool {
	return u != nil && (u.Role == RoleSupervisor || u.Role == RoleAdmin)
}
