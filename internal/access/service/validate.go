package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/CarlosSantos19/parqueadero-app/internal/access/models"
	dirmodels "github.com/CarlosSantos19/parqueadero-app/internal/directory/models"
	"github.com/CarlosSantos19/parqueadero-app/internal/restriction"
	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
	dErrors "github.com/CarlosSantos19/parqueadero-app/pkg/domain-errors"
)

// ValidateRequest asks whether a plate may enter right now.
type ValidateRequest struct {
	Plate           string
	UserType        models.UserType
	DetectionMethod models.DetectionMethod
	ProcessedBy     string
	ClientInfo      string
}

// Validate evaluates a plate against the access rules. A grant writes
// nothing; a denial appends exactly one denied event to the ledger. The
// evaluation itself is pure, so the outcome and the record always agree.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) (models.Decision, error) {
	ctx, span := s.tracer.Start(ctx, "access.validate")
	defer span.End()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveValidationLatency(time.Since(start).Seconds())
		}
	}()

	plateText := canonicalPlate(req.Plate)
	if plateText == "" {
		return models.Decision{}, dErrors.New(dErrors.CodeInvalidInput, "license plate is required")
	}
	userType := req.UserType
	if userType == "" {
		userType = models.UserEmployee
	}

	now := s.now()
	firstThursday := restriction.IsFirstThursday(now)

	var decision models.Decision
	switch userType {
	case models.UserEmployee:
		employee, err := s.lookupEmployee(ctx, plateText)
		if err != nil {
			return models.Decision{}, err
		}
		decision = EvaluateEmployee(employee, plateText, now, firstThursday)
	case models.UserVisitor:
		visitor, err := s.lookupVisitor(ctx, plateText)
		if err != nil {
			return models.Decision{}, err
		}
		decision = EvaluateVisitor(visitor, plateText, now, firstThursday)
	default:
		return models.Decision{}, dErrors.New(dErrors.CodeInvalidInput, "unknown user type")
	}

	span.SetAttributes(
		attribute.String("access.plate", plateText),
		attribute.String("access.user_type", string(decision.UserType)),
		attribute.Bool("access.granted", decision.Granted),
		attribute.String("access.reason", string(decision.Reason)),
	)

	if s.metrics != nil {
		outcome := "granted"
		if !decision.Granted {
			outcome = "denied"
		}
		s.metrics.IncrementValidations(string(decision.UserType), outcome)
	}

	if decision.Granted {
		return decision, nil
	}

	if s.metrics != nil {
		s.metrics.IncrementDenials(string(decision.Reason))
	}
	event := s.denialEvent(decision, plateText, now, firstThursday, req)
	if err := s.recorder.Record(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to record denial",
			"plate", plateText,
			"reason", decision.Reason,
			"error", err,
		)
	}
	return decision, nil
}

// lookupEmployee resolves the registrant of a plate for evaluation. The
// directory is always consulted; fallback-format plates are registrable
// too, so a format check here would deny them before lookup.
func (s *Service) lookupEmployee(ctx context.Context, plateText string) (*dirmodels.Employee, error) {
	employee, err := s.directory.EmployeeOwningVehicle(ctx, plateText)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return employee, nil
}

func (s *Service) lookupVisitor(ctx context.Context, plateText string) (*dirmodels.Visitor, error) {
	visitor, err := s.directory.ActiveVisitorByPlate(ctx, plateText)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return visitor, nil
}

func (s *Service) denialEvent(decision models.Decision, plateText string, now time.Time, firstThursday bool, req ValidateRequest) *models.AccessEvent {
	vehicleType := decision.VehicleType
	if vehicleType == "" {
		vehicleType = "unknown"
	}
	method := req.DetectionMethod
	if method == "" {
		method = models.DetectionManual
	}
	return &models.AccessEvent{
		ID:              id.NewAccessEventID(),
		UserType:        decision.UserType,
		UserRef:         decision.UserRef,
		UserName:        decision.UserName,
		Plate:           plateText,
		VehicleType:     vehicleType,
		AccessType:      models.AccessDenied,
		Status:          models.StatusDenied,
		DenialReason:    decision.Reason,
		AccessTime:      now,
		IsFirstThursday: firstThursday,
		DetectionMethod: method,
		ProcessedBy:     req.ProcessedBy,
		ClientInfo:      req.ClientInfo,
	}
}
