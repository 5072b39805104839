package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/CarlosSantos19/parqueadero-app/internal/access/audit"
	"github.com/CarlosSantos19/parqueadero-app/internal/access/models"
	accessstore "github.com/CarlosSantos19/parqueadero-app/internal/access/store"
	dirmodels "github.com/CarlosSantos19/parqueadero-app/internal/directory/models"
	dirservice "github.com/CarlosSantos19/parqueadero-app/internal/directory/service"
	dirstore "github.com/CarlosSantos19/parqueadero-app/internal/directory/store"
	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
	dErrors "github.com/CarlosSantos19/parqueadero-app/pkg/domain-errors"
)

type AccessSuite struct {
	suite.Suite
	employees *dirstore.InMemoryEmployees
	visitors  *dirstore.InMemoryVisitors
	events    *accessstore.InMemoryEvents
	service   *Service
	now       time.Time
	ctx       context.Context
}

func (s *AccessSuite) SetupTest() {
	s.employees = dirstore.NewInMemoryEmployees()
	s.visitors = dirstore.NewInMemoryVisitors()
	s.events = accessstore.NewInMemoryEvents()
	// 2023-11-14 is a plain Tuesday, away from any first Thursday.
	s.now = time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC)
	s.ctx = context.Background()

	clock := func() time.Time { return s.now }
	directory := dirservice.NewService(s.employees, s.visitors, slog.Default(),
		dirservice.WithClock(clock))
	recorder := audit.NewRecorder(s.events)
	s.service = NewService(directory, s.events, recorder, slog.Default(),
		WithClock(clock))
}

func (s *AccessSuite) seedEmployee(plate string) *dirmodels.Employee {
	employee := &dirmodels.Employee{
		ID:             id.NewEmployeeID(),
		FullName:       "Carlos Rodriguez",
		DocumentNumber: "12345678",
		Position:       "Engineer",
		WorkArea:       "Production",
		IsActive:       true,
		AccessLevel:    dirmodels.AccessBasic,
		Vehicles: []dirmodels.Vehicle{
			{Plate: plate, Type: dirmodels.VehicleCar, IsActive: true},
		},
		License: dirmodels.License{
			Number:     "LIC-001",
			ExpiryDate: s.now.Add(180 * 24 * time.Hour),
			Categories: []dirmodels.LicenseCategory{dirmodels.CategoryB1},
			IsValid:    true,
		},
	}
	s.Require().NoError(s.employees.Save(s.ctx, employee))
	return employee
}

func (s *AccessSuite) seedVisitor(plate string) *dirmodels.Visitor {
	visitor := &dirmodels.Visitor{
		ID:                    id.NewVisitorID(),
		Name:                  "Ana Maria",
		DocumentNumber:        "87654321",
		Plate:                 plate,
		Purpose:               "meeting",
		DestinationArea:       "Administration",
		VisitDate:             s.now.Add(-time.Hour),
		ExpectedDurationHours: 4,
		Status:                dirmodels.VisitorApproved,
	}
	visitor.GenerateQRToken()
	s.Require().NoError(s.visitors.Save(s.ctx, visitor))
	return visitor
}

func (s *AccessSuite) eventCount() int {
	_, total, err := s.events.List(s.ctx, models.EventFilter{})
	s.Require().NoError(err)
	return total
}

func (s *AccessSuite) TestGrantWritesNoEvent() {
	s.seedEmployee("ABC123")

	decision, err := s.service.Validate(s.ctx, ValidateRequest{Plate: "abc123"})
	s.Require().NoError(err)
	s.True(decision.Granted)
	s.Equal(0, s.eventCount(), "granted validations must leave no trace in the ledger")
}

func (s *AccessSuite) TestDenialWritesExactlyOneEvent() {
	decision, err := s.service.Validate(s.ctx, ValidateRequest{Plate: "ABC123"})
	s.Require().NoError(err)
	s.False(decision.Granted)
	s.Equal(models.ReasonInvalidPlate, decision.Reason)

	events, total, err := s.events.List(s.ctx, models.EventFilter{})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(models.StatusDenied, events[0].Status)
	s.Equal(models.ReasonInvalidPlate, events[0].DenialReason)
	s.Equal("ABC123", events[0].Plate)
}

func (s *AccessSuite) TestMalformedPlateIsInvalid() {
	s.seedEmployee("ABC123")

	decision, err := s.service.Validate(s.ctx, ValidateRequest{Plate: "AB!!123456"})
	s.Require().NoError(err)
	s.False(decision.Granted)
	s.Equal(models.ReasonInvalidPlate, decision.Reason)
}

func (s *AccessSuite) TestFallbackFormatPlateConsultsDirectory() {
	// 1A2B3C matches no canonical plate format, only the length-6 fallback.
	// A registered vehicle with such a plate must still resolve.
	s.seedEmployee("1A2B3C")

	decision, err := s.service.Validate(s.ctx, ValidateRequest{Plate: "1a2b3c"})
	s.Require().NoError(err)
	s.True(decision.Granted)
	s.Equal(0, s.eventCount())

	s.seedVisitor("9Z8Y7X")
	decision, err = s.service.Validate(s.ctx, ValidateRequest{
		Plate:    "9Z8Y7X",
		UserType: models.UserVisitor,
	})
	s.Require().NoError(err)
	s.True(decision.Granted)
}

func (s *AccessSuite) TestVisitorValidation() {
	visitor := s.seedVisitor("DEF456")

	decision, err := s.service.Validate(s.ctx, ValidateRequest{
		Plate:    "DEF456",
		UserType: models.UserVisitor,
	})
	s.Require().NoError(err)
	s.True(decision.Granted)
	s.Equal(visitor.QRToken, decision.Info.QRToken)
}

func (s *AccessSuite) TestEntryAndExitRoundTrip() {
	employee := s.seedEmployee("ABC123")

	entry, err := s.service.Entry(s.ctx, EntryRequest{Plate: "ABC123"})
	s.Require().NoError(err)
	s.Equal(models.UserEmployee, entry.UserType)
	s.Equal("Carlos Rodriguez", entry.UserName)

	// Entry stamps the employee's last access.
	stored, err := s.employees.FindActiveByPlate(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Require().NotNil(stored.LastAccess)
	s.Equal(s.now, *stored.LastAccess)
	s.Equal(employee.ID, stored.ID)

	s.now = s.now.Add(95 * time.Minute)
	exit, err := s.service.Exit(s.ctx, ExitRequest{Plate: "ABC123"})
	s.Require().NoError(err)
	s.Equal(entry.EntryTime, exit.EntryTime)
	s.Equal(95, exit.DurationMinutes)
}

func (s *AccessSuite) TestDoubleEntryRejected() {
	s.seedEmployee("ABC123")

	_, err := s.service.Entry(s.ctx, EntryRequest{Plate: "ABC123"})
	s.Require().NoError(err)

	_, err = s.service.Entry(s.ctx, EntryRequest{Plate: "ABC123"})
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyOpenSession))
}

func (s *AccessSuite) TestConcurrentEntriesOpenOneSession() {
	s.seedEmployee("ABC123")

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.Entry(s.ctx, EntryRequest{Plate: "ABC123"})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			s.True(dErrors.HasCode(err, dErrors.CodeAlreadyOpenSession))
		}
	}
	s.Equal(1, successes, "exactly one concurrent entry may open a session")

	open, err := s.events.ListOpenSessions(s.ctx)
	s.Require().NoError(err)
	s.Len(open, 1)
}

func (s *AccessSuite) TestExitWithoutEntry() {
	_, err := s.service.Exit(s.ctx, ExitRequest{Plate: "ABC123"})
	s.True(dErrors.HasCode(err, dErrors.CodeNoOpenSession))
}

func (s *AccessSuite) TestDoubleExitRejected() {
	s.seedEmployee("ABC123")
	_, err := s.service.Entry(s.ctx, EntryRequest{Plate: "ABC123"})
	s.Require().NoError(err)
	_, err = s.service.Exit(s.ctx, ExitRequest{Plate: "ABC123"})
	s.Require().NoError(err)

	_, err = s.service.Exit(s.ctx, ExitRequest{Plate: "ABC123"})
	s.True(dErrors.HasCode(err, dErrors.CodeNoOpenSession))
}

func (s *AccessSuite) TestUnknownPlateEntryRejected() {
	_, err := s.service.Entry(s.ctx, EntryRequest{Plate: "ZZZ999"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AccessSuite) TestVisitorEntryUpdatesPass() {
	visitor := s.seedVisitor("DEF456")

	entry, err := s.service.Entry(s.ctx, EntryRequest{Plate: "DEF456"})
	s.Require().NoError(err)
	s.Equal(models.UserVisitor, entry.UserType)

	stored, err := s.visitors.FindByID(s.ctx, visitor.ID)
	s.Require().NoError(err)
	s.Equal(dirmodels.VisitorInProgress, stored.Status)
	s.Require().NotNil(stored.EntryTime)

	s.now = s.now.Add(time.Hour)
	_, err = s.service.Exit(s.ctx, ExitRequest{Plate: "DEF456"})
	s.Require().NoError(err)

	stored, err = s.visitors.FindByID(s.ctx, visitor.ID)
	s.Require().NoError(err)
	s.Equal(dirmodels.VisitorCompleted, stored.Status)
	s.Require().NotNil(stored.ExitTime)
}

func (s *AccessSuite) TestOccupancyDerivedFromOpenSessions() {
	s.seedEmployee("ABC123")
	s.seedVisitor("DEF456")

	occupancy, err := s.service.CurrentOccupancy(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, occupancy.Total)

	_, err = s.service.Entry(s.ctx, EntryRequest{Plate: "ABC123"})
	s.Require().NoError(err)
	_, err = s.service.Entry(s.ctx, EntryRequest{Plate: "DEF456"})
	s.Require().NoError(err)

	occupancy, err = s.service.CurrentOccupancy(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, occupancy.Total)
	s.Equal(1, occupancy.Employees)
	s.Equal(1, occupancy.Visitors)
	s.Len(occupancy.Vehicles, 2)

	_, err = s.service.Exit(s.ctx, ExitRequest{Plate: "ABC123"})
	s.Require().NoError(err)

	occupancy, err = s.service.CurrentOccupancy(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, occupancy.Total)
	s.Equal(0, occupancy.Employees)
}

func (s *AccessSuite) TestLogsFilterByPlate() {
	s.seedEmployee("ABC123")
	_, err := s.service.Entry(s.ctx, EntryRequest{Plate: "ABC123"})
	s.Require().NoError(err)
	_, err = s.service.Validate(s.ctx, ValidateRequest{Plate: "ZZZ999"})
	s.Require().NoError(err)

	events, total, err := s.service.Logs(s.ctx, models.EventFilter{Plate: "abc123"})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal("ABC123", events[0].Plate)
}

func (s *AccessSuite) TestStatsDefaultsToToday() {
	s.seedEmployee("ABC123")
	_, err := s.service.Entry(s.ctx, EntryRequest{Plate: "ABC123"})
	s.Require().NoError(err)
	_, err = s.service.Validate(s.ctx, ValidateRequest{Plate: "ZZZ999"})
	s.Require().NoError(err)

	summary, err := s.service.Stats(s.ctx, time.Time{}, time.Time{})
	s.Require().NoError(err)
	s.Equal(1, summary.TotalEntries)
	s.Equal(1, summary.TotalDenials)
	s.Equal(1, summary.DenialsByReason[models.ReasonInvalidPlate])
	s.Equal(1, summary.CurrentlyInside)

	_, err = s.service.Stats(s.ctx, s.now, s.now.Add(-time.Hour))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestAccessSuite(t *testing.T) {
	suite.Run(t, new(AccessSuite))
}
