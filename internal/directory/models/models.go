// Package models holds the credential records the directory resolves:
// employees with registered vehicles, and visitors with day passes.
package models

import (
	"encoding/base64"
	"encoding/json"
	"time"

	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
)

// VehicleType classifies registered vehicles.
type VehicleType string

const (
	VehicleCar        VehicleType = "car"
	VehicleMotorcycle VehicleType = "motorcycle"
)

// AccessLevel is the employee tier; anything above basic carries a special
// permit for restricted days.
type AccessLevel string

const (
	AccessBasic      AccessLevel = "basic"
	AccessSupervisor AccessLevel = "supervisor"
	AccessAdmin      AccessLevel = "admin"
)

// LicenseCategory is a driving license category. A covers motorcycles,
// B covers cars.
type LicenseCategory string

const (
	CategoryA1 LicenseCategory = "A1"
	CategoryA2 LicenseCategory = "A2"
	CategoryB1 LicenseCategory = "B1"
	CategoryB2 LicenseCategory = "B2"
	CategoryC1 LicenseCategory = "C1"
	CategoryC2 LicenseCategory = "C2"
)

// requiredCategories maps a vehicle type to the license categories that
// authorize driving it.
var requiredCategories = map[VehicleType][]LicenseCategory{
	VehicleMotorcycle: {CategoryA1, CategoryA2},
	VehicleCar:        {CategoryB1, CategoryB2},
}

// Vehicle is one vehicle registered to an employee.
type Vehicle struct {
	Plate    string      `json:"licensePlate"`
	Type     VehicleType `json:"type"`
	Brand    string      `json:"brand,omitempty"`
	Model    string      `json:"model,omitempty"`
	Color    string      `json:"color,omitempty"`
	IsActive bool        `json:"isActive"`
}

// License is an employee's driving license.
type License struct {
	Number     string            `json:"licenseNumber"`
	ExpiryDate time.Time         `json:"expiryDate"`
	Categories []LicenseCategory `json:"categories"`
	IsValid    bool              `json:"isValid"`
}

// IsCurrent reports whether the license is administratively valid and not
// expired at the given instant.
func (l License) IsCurrent(now time.Time) bool {
	return l.IsValid && l.ExpiryDate.After(now)
}

// Covers reports whether the license categories authorize the vehicle type.
// Validity and expiry are checked separately; this is categories only.
func (l License) Covers(vehicleType VehicleType) bool {
	for _, needed := range requiredCategories[vehicleType] {
		for _, have := range l.Categories {
			if have == needed {
				return true
			}
		}
	}
	return false
}

// Employee is a registered employee credential.
type Employee struct {
	ID             id.EmployeeID
	FullName       string
	DocumentNumber string
	Position       string
	WorkArea       string
	Photo          string
	Vehicles       []Vehicle
	License        License
	AccessLevel    AccessLevel
	IsActive       bool
	LastAccess     *time.Time
}

// ActiveVehicleByPlate returns the active registered vehicle with the given
// plate, or nil.
func (e *Employee) ActiveVehicleByPlate(plate string) *Vehicle {
	for i := range e.Vehicles {
		v := &e.Vehicles[i]
		if v.Plate == plate && v.IsActive {
			return v
		}
	}
	return nil
}

// HasSpecialPermit reports whether the employee may enter on restricted days.
func (e *Employee) HasSpecialPermit() bool {
	return e.AccessLevel != AccessBasic
}

// VisitorStatus is the lifecycle state of a visitor pass. It advances
// monotonically pending → approved → in_progress → completed, or is
// redirected to rejected/expired.
type VisitorStatus string

const (
	VisitorPending    VisitorStatus = "pending"
	VisitorApproved   VisitorStatus = "approved"
	VisitorRejected   VisitorStatus = "rejected"
	VisitorInProgress VisitorStatus = "in_progress"
	VisitorCompleted  VisitorStatus = "completed"
	VisitorExpired    VisitorStatus = "expired"
)

// IsTerminal reports whether no further transitions are allowed.
func (s VisitorStatus) IsTerminal() bool {
	return s == VisitorRejected || s == VisitorCompleted || s == VisitorExpired
}

// Visitor is a pre-authorized visitor pass.
type Visitor struct {
	ID                    id.VisitorID
	Name                  string
	DocumentNumber        string
	Phone                 string
	Email                 string
	Plate                 string
	Purpose               string
	DestinationArea       string
	Companions            []string
	VisitDate             time.Time
	ExpectedDurationHours int
	QRToken               string
	Status                VisitorStatus
	EntryTime             *time.Time
	ExitTime              *time.Time
}

// ExpiryTime is when the pass stops admitting entry. Always computed from
// stored fields, never persisted.
func (v *Visitor) ExpiryTime() time.Time {
	return v.VisitDate.Add(time.Duration(v.ExpectedDurationHours) * time.Hour)
}

// IsExpired reports whether the pass is past its expiry at now.
func (v *Visitor) IsExpired(now time.Time) bool {
	return now.After(v.ExpiryTime())
}

// EffectiveStatus observes automatic expiry on read: a non-terminal pass
// past its expiry reads as expired without a write.
func (v *Visitor) EffectiveStatus(now time.Time) VisitorStatus {
	if !v.Status.IsTerminal() && v.IsExpired(now) {
		return VisitorExpired
	}
	return v.Status
}

// CanEnter reports whether the visitor may be admitted at now: approved,
// unexpired, and not already entered.
func (v *Visitor) CanEnter(now time.Time) bool {
	return v.Status == VisitorApproved && !v.IsExpired(now) && v.EntryTime == nil
}

// IsInside reports whether the visitor has entered and not yet left.
func (v *Visitor) IsInside() bool {
	return v.EntryTime != nil && v.ExitTime == nil && v.Status == VisitorInProgress
}

// QRPayload is the decoded content of a visitor QR token.
type QRPayload struct {
	VisitorID      string    `json:"visitorId"`
	DocumentNumber string    `json:"documentNumber"`
	Plate          string    `json:"plate"`
	VisitDate      time.Time `json:"visitDate"`
	ExpiryTime     time.Time `json:"expiryTime"`
}

// GenerateQRToken encodes the pass identity as base64 JSON and stores it on
// the visitor. Validity is always re-checked against the stored record, so
// the token itself carries no authority.
func (v *Visitor) GenerateQRToken() string {
	payload := QRPayload{
		VisitorID:      v.ID.String(),
		DocumentNumber: v.DocumentNumber,
		Plate:          v.Plate,
		VisitDate:      v.VisitDate,
		ExpiryTime:     v.ExpiryTime(),
	}
	raw, _ := json.Marshal(payload)
	v.QRToken = base64.StdEncoding.EncodeToString(raw)
	return v.QRToken
}

// DecodeQRToken parses a QR token back into its payload.
func DecodeQRToken(token string) (*QRPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	var payload QRPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
