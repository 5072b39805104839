// Package store provides persistence for directory credentials.
package store

import (
	"context"
	"time"

	"github.com/CarlosSantos19/parqueadero-app/internal/directory/models"
	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
)

// EmployeeStore persists employee credentials.
// Error Contract: lookup methods return sentinel.ErrNotFound (optionally
// wrapped) when no record matches.
type EmployeeStore interface {
	// FindActiveByPlate resolves an active employee owning an active vehicle
	// with the given plate.
	FindActiveByPlate(ctx context.Context, plate string) (*models.Employee, error)
	// FindByVehiclePlate resolves the employee who registered a vehicle with
	// the given plate, regardless of employee or vehicle active flags. The
	// access decision needs the unfiltered record to report why entry was
	// refused.
	FindByVehiclePlate(ctx context.Context, plate string) (*models.Employee, error)
	// FindActiveByDocument resolves an active employee by document number.
	FindActiveByDocument(ctx context.Context, documentNumber string) (*models.Employee, error)
	// SetLastAccess records the employee's most recent successful entry.
	SetLastAccess(ctx context.Context, employeeID id.EmployeeID, at time.Time) error
	// Save inserts or replaces an employee record.
	Save(ctx context.Context, employee *models.Employee) error
}

// VisitorStore persists visitor passes.
// Error Contract: lookup methods return sentinel.ErrNotFound (optionally
// wrapped) when no record matches.
type VisitorStore interface {
	// FindActiveByPlate resolves a visitor pass by plate whose visit date is
	// at or after since, with status approved or in_progress.
	FindActiveByPlate(ctx context.Context, plate string, since time.Time) (*models.Visitor, error)
	// FindByID resolves a visitor pass by identifier.
	FindByID(ctx context.Context, visitorID id.VisitorID) (*models.Visitor, error)
	// FindByQRToken resolves a visitor pass by its QR token, regardless of status.
	FindByQRToken(ctx context.Context, token string) (*models.Visitor, error)
	// ListByVisitDate returns passes with a visit date in [from, to).
	ListByVisitDate(ctx context.Context, from, to time.Time) ([]*models.Visitor, error)
	// Update persists lifecycle changes to an existing pass.
	Update(ctx context.Context, visitor *models.Visitor) error
	// Save inserts a new pass.
	Save(ctx context.Context, visitor *models.Visitor) error
}
