package service

import (
	"time"

	"github.com/CarlosSantos19/parqueadero-app/internal/access/models"
	dirmodels "github.com/CarlosSantos19/parqueadero-app/internal/directory/models"
)

// EvaluateEmployee runs the employee access checks in order and returns the
// first failure, or a grant. It is a pure function over its inputs: the
// caller records the outcome.
//
// Check order is fixed so each denial has exactly one reason:
// unknown plate, inactive employee, unauthorized vehicle, expired license,
// license category mismatch, first Thursday restriction.
func EvaluateEmployee(employee *dirmodels.Employee, plate string, now time.Time, firstThursday bool) models.Decision {
	if employee == nil {
		decision := models.Denied(models.ReasonInvalidPlate)
		decision.UserType = models.UserEmployee
		decision.RequiresSpecialPermit = firstThursday
		return decision
	}

	deny := func(reason models.DenialReason) models.Decision {
		decision := models.Denied(reason)
		decision.UserType = models.UserEmployee
		decision.UserRef = employee.ID.String()
		decision.UserName = employee.FullName
		if vehicle := employee.ActiveVehicleByPlate(plate); vehicle != nil {
			decision.VehicleType = string(vehicle.Type)
		}
		return decision
	}

	if !employee.IsActive {
		return deny(models.ReasonInactiveEmployee)
	}

	vehicle := employee.ActiveVehicleByPlate(plate)
	if vehicle == nil {
		return deny(models.ReasonUnauthorizedVehicle)
	}

	if !employee.License.IsCurrent(now) {
		return deny(models.ReasonExpiredLicense)
	}

	if !employee.License.Covers(vehicle.Type) {
		return deny(models.ReasonLicenseCategoryMismatch)
	}

	if firstThursday && !employee.HasSpecialPermit() {
		decision := deny(models.ReasonFirstThursday)
		decision.RequiresSpecialPermit = true
		return decision
	}

	return models.Decision{
		Granted:     true,
		UserType:    models.UserEmployee,
		UserRef:     employee.ID.String(),
		UserName:    employee.FullName,
		VehicleType: string(vehicle.Type),
		Info: &models.GrantedInfo{
			UserType:         models.UserEmployee,
			DriverName:       employee.FullName,
			Plate:            plate,
			VehicleType:      vehicle.Type,
			Position:         employee.Position,
			WorkArea:         employee.WorkArea,
			Photo:            employee.Photo,
			IsFirstThursday:  firstThursday,
			HasSpecialPermit: employee.HasSpecialPermit(),
		},
	}
}

// EvaluateVisitor runs the visitor access checks and returns the outcome.
// Like EvaluateEmployee it never writes; the caller records denials.
func EvaluateVisitor(visitor *dirmodels.Visitor, plate string, now time.Time, firstThursday bool) models.Decision {
	if visitor == nil {
		decision := models.Denied(models.ReasonInvalidPlate)
		decision.UserType = models.UserVisitor
		decision.RequiresSpecialPermit = firstThursday
		return decision
	}

	if !visitor.CanEnter(now) {
		reason := models.ReasonVisitorNotApproved
		if visitor.IsExpired(now) {
			reason = models.ReasonVisitorExpired
		}
		decision := models.Denied(reason)
		decision.UserType = models.UserVisitor
		decision.UserRef = visitor.ID.String()
		decision.UserName = visitor.Name
		return decision
	}

	expiry := visitor.ExpiryTime()
	return models.Decision{
		Granted:  true,
		UserType: models.UserVisitor,
		UserRef:  visitor.ID.String(),
		UserName: visitor.Name,
		Info: &models.GrantedInfo{
			UserType:        models.UserVisitor,
			DriverName:      visitor.Name,
			Plate:           plate,
			Purpose:         visitor.Purpose,
			DestinationArea: visitor.DestinationArea,
			ExpiryTime:      &expiry,
			QRToken:         visitor.QRToken,
			IsFirstThursday: firstThursday,
		},
	}
}
