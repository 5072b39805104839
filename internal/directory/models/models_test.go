package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
)

func TestLicenseCovers(t *testing.T) {
	carLicense := License{Categories: []LicenseCategory{CategoryB1}}
	bikeLicense := License{Categories: []LicenseCategory{CategoryA2}}
	truckOnly := License{Categories: []LicenseCategory{CategoryC1, CategoryC2}}

	assert.True(t, carLicense.Covers(VehicleCar))
	assert.False(t, carLicense.Covers(VehicleMotorcycle))
	assert.True(t, bikeLicense.Covers(VehicleMotorcycle))
	assert.False(t, bikeLicense.Covers(VehicleCar))
	assert.False(t, truckOnly.Covers(VehicleCar))
	assert.False(t, truckOnly.Covers(VehicleMotorcycle))
}

func TestLicenseIsCurrent(t *testing.T) {
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

	current := License{IsValid: true, ExpiryDate: now.AddDate(1, 0, 0)}
	expired := License{IsValid: true, ExpiryDate: now.AddDate(0, 0, -1)}
	invalidated := License{IsValid: false, ExpiryDate: now.AddDate(1, 0, 0)}

	assert.True(t, current.IsCurrent(now))
	assert.False(t, expired.IsCurrent(now))
	assert.False(t, invalidated.IsCurrent(now))
}

func TestEmployeeActiveVehicleByPlate(t *testing.T) {
	e := &Employee{
		Vehicles: []Vehicle{
			{Plate: "ABC123", Type: VehicleCar, IsActive: false},
			{Plate: "XYZ789", Type: VehicleMotorcycle, IsActive: true},
		},
	}

	assert.Nil(t, e.ActiveVehicleByPlate("ABC123"), "inactive vehicle must not resolve")
	v := e.ActiveVehicleByPlate("XYZ789")
	require.NotNil(t, v)
	assert.Equal(t, VehicleMotorcycle, v.Type)
	assert.Nil(t, e.ActiveVehicleByPlate("NOPE99"))
}

func TestVisitorExpiry(t *testing.T) {
	visitDate := time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)
	v := &Visitor{
		VisitDate:             visitDate,
		ExpectedDurationHours: 4,
		Status:                VisitorApproved,
	}

	assert.Equal(t, visitDate.Add(4*time.Hour), v.ExpiryTime())
	assert.False(t, v.IsExpired(visitDate.Add(3*time.Hour)))
	assert.True(t, v.IsExpired(visitDate.Add(5*time.Hour)))
}

func TestVisitorEffectiveStatus(t *testing.T) {
	visitDate := time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)
	v := &Visitor{
		VisitDate:             visitDate,
		ExpectedDurationHours: 2,
		Status:                VisitorApproved,
	}

	assert.Equal(t, VisitorApproved, v.EffectiveStatus(visitDate.Add(time.Hour)))
	assert.Equal(t, VisitorExpired, v.EffectiveStatus(visitDate.Add(3*time.Hour)))

	// Terminal states never flip to expired.
	v.Status = VisitorCompleted
	assert.Equal(t, VisitorCompleted, v.EffectiveStatus(visitDate.Add(3*time.Hour)))
}

func TestVisitorCanEnter(t *testing.T) {
	visitDate := time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)
	now := visitDate.Add(time.Hour)

	v := &Visitor{VisitDate: visitDate, ExpectedDurationHours: 4, Status: VisitorApproved}
	assert.True(t, v.CanEnter(now))

	pending := *v
	pending.Status = VisitorPending
	assert.False(t, pending.CanEnter(now))

	entered := *v
	entryAt := visitDate.Add(30 * time.Minute)
	entered.EntryTime = &entryAt
	assert.False(t, entered.CanEnter(now), "already inside")

	assert.False(t, v.CanEnter(visitDate.Add(5*time.Hour)), "past expiry")
}

func TestQRTokenRoundTrip(t *testing.T) {
	visitID, err := id.ParseVisitorID("a1b2c3d4-e5f6-7890-abcd-ef1234567890")
	require.NoError(t, err)

	v := &Visitor{
		ID:                    visitID,
		DocumentNumber:        "80012345",
		Plate:                 "ABC123",
		VisitDate:             time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC),
		ExpectedDurationHours: 4,
	}

	token := v.GenerateQRToken()
	require.NotEmpty(t, token)

	payload, err := DecodeQRToken(token)
	require.NoError(t, err)
	assert.Equal(t, visitID.String(), payload.VisitorID)
	assert.Equal(t, "80012345", payload.DocumentNumber)
	assert.Equal(t, "ABC123", payload.Plate)
	assert.True(t, payload.ExpiryTime.Equal(v.ExpiryTime()))
}

func TestDecodeQRTokenRejectsGarbage(t *testing.T) {
	_, err := DecodeQRToken("not base64!!")
	assert.Error(t, err)

	_, err = DecodeQRToken("aGVsbG8=") // valid base64, not JSON
	assert.Error(t, err)
}
