// Package models defines access events and gate decisions.
package models

import (
	"math"
	"time"

	directory "github.com/CarlosSantos19/parqueadero-app/internal/directory/models"
	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
)

// UserType identifies which directory a credential came from.
type UserType string

const (
	UserEmployee UserType = "employee"
	UserVisitor  UserType = "visitor"
	UserUnknown  UserType = "unknown"
)

// AccessType classifies an access event.
type AccessType string

const (
	AccessEntry  AccessType = "entry"
	AccessExit   AccessType = "exit"
	AccessDenied AccessType = "denied"
)

// EventStatus is the recorded outcome of an access event.
type EventStatus string

const (
	StatusSuccessful EventStatus = "successful"
	StatusDenied     EventStatus = "denied"
	StatusSuspicious EventStatus = "suspicious"
)

// DetectionMethod records how the plate reached the gate.
type DetectionMethod string

const (
	DetectionManual     DetectionMethod = "manual"
	DetectionCameraScan DetectionMethod = "camera_scan"
	DetectionQRScan     DetectionMethod = "qr_scan"
	DetectionRFID       DetectionMethod = "rfid"
)

// DenialReason is the stable machine-readable reason an access was refused.
// Checks run in a fixed order and the first failure wins, so at most one
// reason is ever recorded per denial.
type DenialReason string

const (
	ReasonInvalidPlate            DenialReason = "invalid_plate"
	ReasonInactiveEmployee        DenialReason = "inactive_employee"
	ReasonUnauthorizedVehicle     DenialReason = "unauthorized_vehicle"
	ReasonExpiredLicense          DenialReason = "expired_license"
	ReasonLicenseCategoryMismatch DenialReason = "license_category_mismatch"
	ReasonFirstThursday           DenialReason = "first_thursday_restriction"
	ReasonVisitorNotApproved      DenialReason = "visitor_not_approved"
	ReasonVisitorExpired          DenialReason = "visitor_expired"
)

// denialMessages maps each reason to the operator-facing message.
var denialMessages = map[DenialReason]string{
	ReasonInvalidPlate:            "Plate is not registered",
	ReasonInactiveEmployee:        "Employee is not active",
	ReasonUnauthorizedVehicle:     "Vehicle is not authorized",
	ReasonExpiredLicense:          "Driving license is expired or invalid",
	ReasonLicenseCategoryMismatch: "Driving license does not cover this vehicle type",
	ReasonFirstThursday:           "Entry restricted on the first Thursday of the month",
	ReasonVisitorNotApproved:      "Visitor pass is not approved",
	ReasonVisitorExpired:          "Visitor pass has expired",
}

// Message returns the operator-facing text for the reason.
func (r DenialReason) Message() string {
	if msg, ok := denialMessages[r]; ok {
		return msg
	}
	return string(r)
}

// AccessEvent is one immutable row in the access history. Entry events with
// a nil ExitTime are open sessions; writing ExitTime closes them.
type AccessEvent struct {
	ID              id.AccessEventID `json:"id"`
	UserType        UserType         `json:"userType"`
	UserRef         string           `json:"userRef,omitempty"`
	UserName        string           `json:"userName,omitempty"`
	Plate           string           `json:"plate"`
	VehicleType     string           `json:"vehicleType"`
	AccessType      AccessType       `json:"accessType"`
	Status          EventStatus      `json:"status"`
	DenialReason    DenialReason     `json:"denialReason,omitempty"`
	AccessTime      time.Time        `json:"accessTime"`
	ExitTime        *time.Time       `json:"exitTime,omitempty"`
	IsFirstThursday bool             `json:"isFirstThursday"`
	DetectionMethod DetectionMethod  `json:"detectionMethod"`
	ProcessedBy     string           `json:"processedBy,omitempty"`
	ClientInfo      string           `json:"clientInfo,omitempty"`
}

// IsOpenSession reports whether the event is a successful entry that has not
// been closed by an exit.
func (e *AccessEvent) IsOpenSession() bool {
	return e.AccessType == AccessEntry && e.Status == StatusSuccessful && e.ExitTime == nil
}

// DurationMinutes is the stay length in whole minutes, rounded half up.
// It is always computed from the timestamps, never stored.
func (e *AccessEvent) DurationMinutes() *int {
	if e.ExitTime == nil {
		return nil
	}
	minutes := int(math.Round(e.ExitTime.Sub(e.AccessTime).Minutes()))
	return &minutes
}

// GrantedInfo carries the credential details shown to the gate operator on
// a granted validation.
type GrantedInfo struct {
	UserType         UserType              `json:"userType"`
	DriverName       string                `json:"driverName"`
	Plate            string                `json:"plate"`
	VehicleType      directory.VehicleType `json:"vehicleType,omitempty"`
	Position         string                `json:"position,omitempty"`
	WorkArea         string                `json:"workArea,omitempty"`
	Photo            string                `json:"photo,omitempty"`
	Purpose          string                `json:"purpose,omitempty"`
	DestinationArea  string                `json:"destinationArea,omitempty"`
	ExpiryTime       *time.Time            `json:"expiryTime,omitempty"`
	QRToken          string                `json:"qrToken,omitempty"`
	IsFirstThursday  bool                  `json:"isFirstThursday"`
	HasSpecialPermit bool                  `json:"hasSpecialPermit,omitempty"`
}

// Decision is the pure outcome of evaluating a credential against the
// access rules. It carries everything needed to record the event; the
// evaluation itself never writes.
type Decision struct {
	Granted               bool
	Reason                DenialReason
	Message               string
	RequiresSpecialPermit bool
	UserType              UserType
	UserRef               string
	UserName              string
	VehicleType           string
	Info                  *GrantedInfo
}

// Denied builds a denial decision for the given reason.
func Denied(reason DenialReason) Decision {
	return Decision{
		Granted:  false,
		Reason:   reason,
		Message:  reason.Message(),
		UserType: UserUnknown,
	}
}
