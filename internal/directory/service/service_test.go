package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/CarlosSantos19/parqueadero-app/internal/directory/models"
	"github.com/CarlosSantos19/parqueadero-app/internal/directory/store"
	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
	dErrors "github.com/CarlosSantos19/parqueadero-app/pkg/domain-errors"
)

type DirectorySuite struct {
	suite.Suite
	employees *store.InMemoryEmployees
	visitors  *store.InMemoryVisitors
	service   *Service
	now       time.Time
	ctx       context.Context
}

func (s *DirectorySuite) SetupTest() {
	s.employees = store.NewInMemoryEmployees()
	s.visitors = store.NewInMemoryVisitors()
	s.now = time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC)
	s.ctx = context.Background()
	s.service = NewService(s.employees, s.visitors, slog.Default(),
		WithClock(func() time.Time { return s.now }))
}

func (s *DirectorySuite) seedEmployee(plate string) *models.Employee {
	employee := &models.Employee{
		ID:             id.NewEmployeeID(),
		FullName:       "Carlos Rodriguez",
		DocumentNumber: "12345678",
		Position:       "Engineer",
		WorkArea:       "Production",
		IsActive:       true,
		AccessLevel:    models.AccessBasic,
		Vehicles: []models.Vehicle{
			{Plate: plate, Type: models.VehicleCar, IsActive: true},
		},
		License: models.License{
			Number:     "LIC-001",
			ExpiryDate: s.now.Add(180 * 24 * time.Hour),
			Categories: []models.LicenseCategory{models.CategoryB1},
			IsValid:    true,
		},
	}
	s.Require().NoError(s.employees.Save(s.ctx, employee))
	return employee
}

func (s *DirectorySuite) seedVisitor(plate string, status models.VisitorStatus) *models.Visitor {
	visitor := &models.Visitor{
		ID:                    id.NewVisitorID(),
		Name:                  "Ana Maria",
		DocumentNumber:        "87654321",
		Plate:                 plate,
		Purpose:               "meeting",
		DestinationArea:       "Administration",
		VisitDate:             s.now.Add(-time.Hour),
		ExpectedDurationHours: 4,
		Status:                status,
	}
	visitor.GenerateQRToken()
	s.Require().NoError(s.visitors.Save(s.ctx, visitor))
	return visitor
}

func (s *DirectorySuite) TestEmployeeLookups() {
	employee := s.seedEmployee("ABC123")

	found, err := s.service.EmployeeByPlate(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(employee.ID, found.ID)

	found, err = s.service.EmployeeByDocument(s.ctx, "12345678")
	s.Require().NoError(err)
	s.Equal(employee.ID, found.ID)

	_, err = s.service.EmployeeByPlate(s.ctx, "ZZZ999")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *DirectorySuite) TestVisitorLookbackWindow() {
	visitor := s.seedVisitor("DEF456", models.VisitorApproved)

	found, err := s.service.ActiveVisitorByPlate(s.ctx, "DEF456")
	s.Require().NoError(err)
	s.Equal(visitor.ID, found.ID)

	// A pass older than the lookback window is invisible.
	s.now = s.now.Add(26 * time.Hour)
	_, err = s.service.ActiveVisitorByPlate(s.ctx, "DEF456")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *DirectorySuite) TestVisitorLifecycle() {
	visitor := s.seedVisitor("DEF456", models.VisitorApproved)

	entered, err := s.service.MarkVisitorEntered(s.ctx, visitor.ID, s.now)
	s.Require().NoError(err)
	s.Equal(models.VisitorInProgress, entered.Status)
	s.Require().NotNil(entered.EntryTime)
	s.Equal(s.now, *entered.EntryTime)

	// Second entry is rejected.
	_, err = s.service.MarkVisitorEntered(s.ctx, visitor.ID, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	exitAt := s.now.Add(90 * time.Minute)
	completed, err := s.service.CompleteVisit(s.ctx, visitor.ID, exitAt)
	s.Require().NoError(err)
	s.Equal(models.VisitorCompleted, completed.Status)
	s.Require().NotNil(completed.ExitTime)

	// Exit without being inside is rejected.
	_, err = s.service.CompleteVisit(s.ctx, visitor.ID, exitAt)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *DirectorySuite) TestExpiredPassCannotEnter() {
	visitor := s.seedVisitor("DEF456", models.VisitorApproved)

	// Past visit date + expected duration.
	late := visitor.ExpiryTime().Add(time.Minute)
	_, err := s.service.MarkVisitorEntered(s.ctx, visitor.ID, late)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *DirectorySuite) TestExtendVisitRegeneratesToken() {
	visitor := s.seedVisitor("DEF456", models.VisitorApproved)
	oldToken := visitor.QRToken
	oldExpiry := visitor.ExpiryTime()

	extended, err := s.service.ExtendVisit(s.ctx, visitor.ID, 2)
	s.Require().NoError(err)
	s.Equal(visitor.ExpectedDurationHours+2, extended.ExpectedDurationHours)
	s.NotEqual(oldToken, extended.QRToken)
	s.Equal(oldExpiry.Add(2*time.Hour), extended.ExpiryTime())

	_, err = s.service.ExtendVisit(s.ctx, visitor.ID, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	completedVisitor := s.seedVisitor("GHI789", models.VisitorCompleted)
	_, err = s.service.ExtendVisit(s.ctx, completedVisitor.ID, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *DirectorySuite) TestValidateQR() {
	visitor := s.seedVisitor("DEF456", models.VisitorApproved)

	result, err := s.service.ValidateQR(s.ctx, visitor.QRToken)
	s.Require().NoError(err)
	s.True(result.Valid)
	s.Require().NotNil(result.Visitor)
	s.Equal(visitor.ID, result.Visitor.ID)

	// Garbage token is an input error.
	_, err = s.service.ValidateQR(s.ctx, "@@not-base64@@")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	// Decodable token with no matching record is invalid, not an error.
	orphan := &models.Visitor{
		ID:                    id.NewVisitorID(),
		DocumentNumber:        "00000000",
		Plate:                 "JKL012",
		VisitDate:             s.now,
		ExpectedDurationHours: 1,
	}
	result, err = s.service.ValidateQR(s.ctx, orphan.GenerateQRToken())
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("unknown_token", result.Reason)

	// An expired pass is reported as such.
	s.now = visitor.ExpiryTime().Add(time.Minute)
	result, err = s.service.ValidateQR(s.ctx, visitor.QRToken)
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("pass_expired", result.Reason)
}

func (s *DirectorySuite) TestValidateQRExpiryBoundary() {
	visitor := s.seedVisitor("DEF456", models.VisitorApproved)

	// One instant before expiry the pass still admits.
	s.now = visitor.ExpiryTime().Add(-time.Second)
	result, err := s.service.ValidateQR(s.ctx, visitor.QRToken)
	s.Require().NoError(err)
	s.True(result.Valid)

	// At the expiry instant itself it no longer does.
	s.now = visitor.ExpiryTime()
	result, err = s.service.ValidateQR(s.ctx, visitor.QRToken)
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("pass_expired", result.Reason)
}

func (s *DirectorySuite) TestValidateQRPlateMismatch() {
	visitor := s.seedVisitor("DEF456", models.VisitorApproved)
	token := visitor.QRToken

	// The plate on record changed after the pass was issued, so the
	// token payload no longer matches the stored credential.
	visitor.Plate = "GHI789"
	s.Require().NoError(s.visitors.Save(s.ctx, visitor))

	result, err := s.service.ValidateQR(s.ctx, token)
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("token_mismatch", result.Reason)
}

func (s *DirectorySuite) TestTodaySummary() {
	s.seedVisitor("DEF456", models.VisitorApproved)
	inside := s.seedVisitor("GHI789", models.VisitorInProgress)
	entry := s.now.Add(-30 * time.Minute)
	inside.EntryTime = &entry
	s.Require().NoError(s.visitors.Update(s.ctx, inside))

	summary, err := s.service.TodaySummary(s.ctx)
	s.Require().NoError(err)
	s.Equal("2023-11-14", summary.Date)
	s.Equal(2, summary.Total)
	s.Equal(1, summary.ByStatus[string(models.VisitorApproved)])
	s.Equal(1, summary.ByStatus[string(models.VisitorInProgress)])
	s.Equal(1, summary.Inside)
}

func (s *DirectorySuite) TestSearchByPlate() {
	employee := s.seedEmployee("ABC123")
	s.seedVisitor("DEF456", models.VisitorApproved)

	result, err := s.service.SearchByPlate(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.True(result.Found)
	s.Equal("employee", result.UserType)
	s.Equal(employee.ID, result.Employee.ID)
	s.Require().NotNil(result.Vehicle)
	s.Equal("ABC123", result.Vehicle.Plate)

	result, err = s.service.SearchByPlate(s.ctx, "DEF456")
	s.Require().NoError(err)
	s.True(result.Found)
	s.Equal("visitor", result.UserType)

	// Plate text from URL params arrives in whatever case the caller typed.
	result, err = s.service.SearchByPlate(s.ctx, "abc123")
	s.Require().NoError(err)
	s.True(result.Found)
	s.Equal("employee", result.UserType)

	result, err = s.service.SearchByPlate(s.ctx, "ZZZ999")
	s.Require().NoError(err)
	s.False(result.Found)
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectorySuite))
}

func TestNewServicePanicsWithoutStores(t *testing.T) {
	assert.Panics(t, func() {
		NewService(nil, store.NewInMemoryVisitors(), slog.Default())
	})
	require.Panics(t, func() {
		NewService(store.NewInMemoryEmployees(), nil, slog.Default())
	})
}
