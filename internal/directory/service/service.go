// Package service implements directory lookups and the visitor pass
// lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/CarlosSantos19/parqueadero-app/internal/directory/models"
	"github.com/CarlosSantos19/parqueadero-app/internal/directory/store"
	"github.com/CarlosSantos19/parqueadero-app/internal/sentinel"
	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
	dErrors "github.com/CarlosSantos19/parqueadero-app/pkg/domain-errors"
)

type Option func(*Service)

const defaultVisitorLookback = 24 * time.Hour

// Service resolves employee and visitor credentials and drives visitor
// pass state transitions. All lookups are by plate or document; raw plate
// text must be normalized before it reaches this layer.
type Service struct {
	employees       store.EmployeeStore
	visitors        store.VisitorStore
	logger          *slog.Logger
	visitorLookback time.Duration
	now             func() time.Time
}

func NewService(employees store.EmployeeStore, visitors store.VisitorStore, logger *slog.Logger, opts ...Option) *Service {
	if employees == nil {
		panic("directory service requires an employee store")
	}
	if visitors == nil {
		panic("directory service requires a visitor store")
	}
	svc := &Service{
		employees:       employees,
		visitors:        visitors,
		logger:          logger,
		visitorLookback: defaultVisitorLookback,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// WithVisitorLookback bounds how far back a plate lookup searches for an
// active visitor pass. Defaults to 24 hours.
func WithVisitorLookback(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.visitorLookback = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// EmployeeByPlate resolves an active employee owning an active vehicle with
// the given plate.
func (s *Service) EmployeeByPlate(ctx context.Context, plate string) (*models.Employee, error) {
	employee, err := s.employees.FindActiveByPlate(ctx, plate)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active employee registered for plate")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "employee lookup failed")
	}
	return employee, nil
}

// EmployeeOwningVehicle resolves the employee who registered a vehicle with
// the plate, including inactive employees and inactive vehicles. The access
// decision inspects the flags itself to name the denial.
func (s *Service) EmployeeOwningVehicle(ctx context.Context, plate string) (*models.Employee, error) {
	employee, err := s.employees.FindByVehiclePlate(ctx, plate)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no employee registered the plate")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "employee lookup failed")
	}
	return employee, nil
}

// EmployeeByDocument resolves an active employee by document number.
func (s *Service) EmployeeByDocument(ctx context.Context, documentNumber string) (*models.Employee, error) {
	employee, err := s.employees.FindActiveByDocument(ctx, documentNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active employee with document")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "employee lookup failed")
	}
	return employee, nil
}

// RecordEmployeeAccess stamps the employee's last successful entry.
func (s *Service) RecordEmployeeAccess(ctx context.Context, employeeID id.EmployeeID, at time.Time) error {
	if err := s.employees.SetLastAccess(ctx, employeeID, at); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "employee not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "record employee access failed")
	}
	return nil
}

// ActiveVisitorByPlate resolves the most recent approved or in-progress
// visitor pass for the plate within the lookback window.
func (s *Service) ActiveVisitorByPlate(ctx context.Context, plate string) (*models.Visitor, error) {
	since := s.now().Add(-s.visitorLookback)
	visitor, err := s.visitors.FindActiveByPlate(ctx, plate, since)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active visitor pass for plate")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "visitor lookup failed")
	}
	return visitor, nil
}

// VisitorByID resolves a visitor pass by identifier.
func (s *Service) VisitorByID(ctx context.Context, visitorID id.VisitorID) (*models.Visitor, error) {
	visitor, err := s.visitors.FindByID(ctx, visitorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "visitor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "visitor lookup failed")
	}
	return visitor, nil
}

// MarkVisitorEntered transitions an approved pass to in_progress and stamps
// its entry time.
func (s *Service) MarkVisitorEntered(ctx context.Context, visitorID id.VisitorID, at time.Time) (*models.Visitor, error) {
	visitor, err := s.VisitorByID(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if !visitor.CanEnter(at) {
		return nil, dErrors.New(dErrors.CodeInvalidState, "visitor pass cannot enter")
	}
	visitor.Status = models.VisitorInProgress
	visitor.EntryTime = &at
	if err := s.updateVisitor(ctx, visitor); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "visitor entered",
		slog.String("visitor_id", visitor.ID.String()),
		slog.String("plate", visitor.Plate))
	return visitor, nil
}

// CompleteVisit transitions an in-progress pass to completed and stamps its
// exit time.
func (s *Service) CompleteVisit(ctx context.Context, visitorID id.VisitorID, at time.Time) (*models.Visitor, error) {
	visitor, err := s.VisitorByID(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if !visitor.IsInside() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "visitor is not inside the facility")
	}
	visitor.Status = models.VisitorCompleted
	visitor.ExitTime = &at
	if err := s.updateVisitor(ctx, visitor); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "visit completed",
		slog.String("visitor_id", visitor.ID.String()),
		slog.String("plate", visitor.Plate))
	return visitor, nil
}

// ExtendVisit lengthens the expected duration of a pass that has not
// reached a terminal state. The QR token is regenerated because it embeds
// the expiry time.
func (s *Service) ExtendVisit(ctx context.Context, visitorID id.VisitorID, extraHours int) (*models.Visitor, error) {
	if extraHours <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "extension must be a positive number of hours")
	}
	visitor, err := s.VisitorByID(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	if visitor.EffectiveStatus(s.now()).IsTerminal() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "visitor pass is no longer active")
	}
	visitor.ExpectedDurationHours += extraHours
	visitor.GenerateQRToken()
	if err := s.updateVisitor(ctx, visitor); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "visit extended",
		slog.String("visitor_id", visitor.ID.String()),
		slog.Int("extra_hours", extraHours))
	return visitor, nil
}

// QRValidation is the outcome of checking a scanned QR token against the
// stored pass.
type QRValidation struct {
	Valid   bool            `json:"valid"`
	Reason  string          `json:"reason,omitempty"`
	Visitor *models.Visitor `json:"visitor,omitempty"`
}

// ValidateQR checks a scanned QR token. The token only identifies the pass;
// validity is always decided from the stored record.
func (s *Service) ValidateQR(ctx context.Context, token string) (*QRValidation, error) {
	payload, err := models.DecodeQRToken(token)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "QR token is not decodable")
	}
	visitor, err := s.visitors.FindByQRToken(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &QRValidation{Valid: false, Reason: "unknown_token"}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "QR lookup failed")
	}
	if payload.VisitorID != visitor.ID.String() ||
		payload.DocumentNumber != visitor.DocumentNumber ||
		payload.Plate != visitor.Plate {
		return &QRValidation{Valid: false, Reason: "token_mismatch"}, nil
	}
	now := s.now()
	// The pass stops admitting at the expiry instant itself, not after it.
	if !now.Before(visitor.ExpiryTime()) {
		return &QRValidation{Valid: false, Reason: "pass_expired", Visitor: visitor}, nil
	}
	switch visitor.EffectiveStatus(now) {
	case models.VisitorApproved, models.VisitorInProgress:
	case models.VisitorExpired:
		return &QRValidation{Valid: false, Reason: "pass_expired", Visitor: visitor}, nil
	default:
		return &QRValidation{Valid: false, Reason: "pass_not_active", Visitor: visitor}, nil
	}
	return &QRValidation{Valid: true, Visitor: visitor}, nil
}

// DaySummary aggregates the visitor passes scheduled for one day.
type DaySummary struct {
	Date     string            `json:"date"`
	Total    int               `json:"total"`
	ByStatus map[string]int    `json:"byStatus"`
	Inside   int               `json:"inside"`
	Visitors []*models.Visitor `json:"visitors"`
}

// TodaySummary lists the passes whose visit date falls on the current day,
// with counts by effective status.
func (s *Service) TodaySummary(ctx context.Context) (*DaySummary, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.Add(24 * time.Hour)

	visitors, err := s.visitors.ListByVisitDate(ctx, from, to)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list visitors failed")
	}

	summary := &DaySummary{
		Date:     from.Format("2006-01-02"),
		Total:    len(visitors),
		ByStatus: make(map[string]int),
		Visitors: visitors,
	}
	for _, v := range visitors {
		summary.ByStatus[string(v.EffectiveStatus(now))]++
		if v.IsInside() {
			summary.Inside++
		}
	}
	return summary, nil
}

// PlateSearchResult identifies who a plate belongs to, if anyone.
type PlateSearchResult struct {
	Found    bool             `json:"found"`
	UserType string           `json:"userType,omitempty"`
	Employee *models.Employee `json:"employee,omitempty"`
	Vehicle  *models.Vehicle  `json:"vehicle,omitempty"`
	Visitor  *models.Visitor  `json:"visitor,omitempty"`
}

// SearchByPlate resolves a plate to its owner, checking employees before
// visitors in the same order the access decision does.
func (s *Service) SearchByPlate(ctx context.Context, plate string) (*PlateSearchResult, error) {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	employee, err := s.employees.FindActiveByPlate(ctx, plate)
	if err == nil {
		return &PlateSearchResult{
			Found:    true,
			UserType: "employee",
			Employee: employee,
			Vehicle:  employee.ActiveVehicleByPlate(plate),
		}, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "employee lookup failed")
	}

	visitor, err := s.visitors.FindActiveByPlate(ctx, plate, s.now().Add(-s.visitorLookback))
	if err == nil {
		return &PlateSearchResult{Found: true, UserType: "visitor", Visitor: visitor}, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "visitor lookup failed")
	}
	return &PlateSearchResult{Found: false}, nil
}

func (s *Service) updateVisitor(ctx context.Context, visitor *models.Visitor) error {
	if err := s.visitors.Update(ctx, visitor); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "visitor not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("update visitor %s failed", visitor.ID))
	}
	return nil
}
