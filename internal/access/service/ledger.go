package service

import (
	"context"
	"errors"
	"time"

	"github.com/CarlosSantos19/parqueadero-app/internal/access/models"
	dirmodels "github.com/CarlosSantos19/parqueadero-app/internal/directory/models"
	"github.com/CarlosSantos19/parqueadero-app/internal/restriction"
	"github.com/CarlosSantos19/parqueadero-app/internal/sentinel"
	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
	dErrors "github.com/CarlosSantos19/parqueadero-app/pkg/domain-errors"
)

// EntryRequest registers a vehicle entering the facility.
type EntryRequest struct {
	Plate           string
	DetectionMethod models.DetectionMethod
	ProcessedBy     string
	ClientInfo      string
}

// EntryResult reports a registered entry.
type EntryResult struct {
	EventID   id.AccessEventID `json:"accessEventId"`
	EntryTime time.Time        `json:"entryTime"`
	UserName  string           `json:"userName"`
	UserType  models.UserType  `json:"userType"`
}

// Entry opens a ledger session for the plate. Employees are resolved before
// visitors. At most one session may be open per plate; a concurrent or
// repeated entry fails with an already-open error.
func (s *Service) Entry(ctx context.Context, req EntryRequest) (*EntryResult, error) {
	plateText := canonicalPlate(req.Plate)
	if plateText == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "license plate is required")
	}
	unlock := s.lockPlate(plateText)
	defer unlock()

	var (
		employee *dirmodels.Employee
		visitor  *dirmodels.Visitor
	)
	employee, err := s.directory.EmployeeByPlate(ctx, plateText)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		visitor, err = s.directory.ActiveVisitorByPlate(ctx, plateText)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "no valid registration found for plate")
			}
			return nil, err
		}
	}

	now := s.now()
	event := &models.AccessEvent{
		ID:              id.NewAccessEventID(),
		Plate:           plateText,
		VehicleType:     "unknown",
		AccessType:      models.AccessEntry,
		Status:          models.StatusSuccessful,
		AccessTime:      now,
		IsFirstThursday: restriction.IsFirstThursday(now),
		DetectionMethod: req.DetectionMethod,
		ProcessedBy:     req.ProcessedBy,
		ClientInfo:      req.ClientInfo,
	}
	if event.DetectionMethod == "" {
		event.DetectionMethod = models.DetectionManual
	}
	if employee != nil {
		event.UserType = models.UserEmployee
		event.UserRef = employee.ID.String()
		event.UserName = employee.FullName
		if vehicle := employee.ActiveVehicleByPlate(plateText); vehicle != nil {
			event.VehicleType = string(vehicle.Type)
		}
	} else {
		event.UserType = models.UserVisitor
		event.UserRef = visitor.ID.String()
		event.UserName = visitor.Name
	}

	if err := s.events.AppendEntryIfNoOpen(ctx, event); err != nil {
		if errors.Is(err, sentinel.ErrSessionOpen) {
			return nil, dErrors.New(dErrors.CodeAlreadyOpenSession, "vehicle already has an open session")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "record entry failed")
	}

	// Directory updates after the ledger write are best effort. The session
	// is already open; a failed status update must not orphan it.
	if visitor != nil {
		if _, err := s.directory.MarkVisitorEntered(ctx, visitor.ID, now); err != nil {
			s.logger.WarnContext(ctx, "entry recorded but visitor status not updated",
				"visitor_id", visitor.ID.String(),
				"plate", plateText,
				"error", err,
			)
		}
	}
	if employee != nil {
		if err := s.directory.RecordEmployeeAccess(ctx, employee.ID, now); err != nil {
			s.logger.WarnContext(ctx, "entry recorded but employee last access not updated",
				"employee_id", employee.ID.String(),
				"error", err,
			)
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementEntries(string(event.UserType), string(event.DetectionMethod))
	}
	s.logger.InfoContext(ctx, "entry registered",
		"plate", plateText,
		"user_type", event.UserType,
		"event_id", event.ID.String(),
	)
	return &EntryResult{
		EventID:   event.ID,
		EntryTime: event.AccessTime,
		UserName:  event.UserName,
		UserType:  event.UserType,
	}, nil
}

// ExitRequest registers a vehicle leaving the facility.
type ExitRequest struct {
	Plate string
}

// ExitResult reports a closed session.
type ExitResult struct {
	EntryTime       time.Time       `json:"entryTime"`
	ExitTime        time.Time       `json:"exitTime"`
	DurationMinutes int             `json:"durationMinutes"`
	UserType        models.UserType `json:"userType"`
}

// Exit closes the most recent open session for the plate and stamps the
// exit time. The stay duration is computed from the two timestamps.
func (s *Service) Exit(ctx context.Context, req ExitRequest) (*ExitResult, error) {
	plateText := canonicalPlate(req.Plate)
	if plateText == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "license plate is required")
	}
	unlock := s.lockPlate(plateText)
	defer unlock()

	open, err := s.events.OpenSessionByPlate(ctx, plateText)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNoOpenSession, "no open session for plate")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "open session lookup failed")
	}

	exitAt := s.now()
	if err := s.events.CloseSession(ctx, open.ID, exitAt); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNoOpenSession, "no open session for plate")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "close session failed")
	}

	if open.UserType == models.UserVisitor && open.UserRef != "" {
		visitorID, parseErr := id.ParseVisitorID(open.UserRef)
		if parseErr == nil {
			if _, err := s.directory.CompleteVisit(ctx, visitorID, exitAt); err != nil {
				s.logger.WarnContext(ctx, "exit recorded but visit not completed",
					"visitor_id", open.UserRef,
					"plate", plateText,
					"error", err,
				)
			}
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementExits(string(open.UserType))
	}
	s.logger.InfoContext(ctx, "exit registered",
		"plate", plateText,
		"user_type", open.UserType,
		"event_id", open.ID.String(),
	)

	open.ExitTime = &exitAt
	duration := open.DurationMinutes()
	return &ExitResult{
		EntryTime:       open.AccessTime,
		ExitTime:        exitAt,
		DurationMinutes: *duration,
		UserType:        open.UserType,
	}, nil
}

// OccupantInfo describes one vehicle currently inside.
type OccupantInfo struct {
	Plate     string          `json:"plate"`
	UserType  models.UserType `json:"userType"`
	UserName  string          `json:"userName,omitempty"`
	EntryTime time.Time       `json:"entryTime"`
}

// Occupancy summarizes who is inside right now.
type Occupancy struct {
	Total     int            `json:"total"`
	Employees int            `json:"employees"`
	Visitors  int            `json:"visitors"`
	Vehicles  []OccupantInfo `json:"vehicles"`
}

// CurrentOccupancy derives the occupancy from open sessions. It is never
// stored; the ledger is the single source of truth.
func (s *Service) CurrentOccupancy(ctx context.Context) (*Occupancy, error) {
	open, err := s.events.ListOpenSessions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list open sessions failed")
	}
	occupancy := &Occupancy{Vehicles: make([]OccupantInfo, 0, len(open))}
	for _, e := range open {
		occupancy.Total++
		switch e.UserType {
		case models.UserEmployee:
			occupancy.Employees++
		case models.UserVisitor:
			occupancy.Visitors++
		}
		occupancy.Vehicles = append(occupancy.Vehicles, OccupantInfo{
			Plate:     e.Plate,
			UserType:  e.UserType,
			UserName:  e.UserName,
			EntryTime: e.AccessTime,
		})
	}
	return occupancy, nil
}

// Logs returns a filtered page of the access history with the total match
// count.
func (s *Service) Logs(ctx context.Context, filter models.EventFilter) ([]*models.AccessEvent, int, error) {
	if filter.Plate != "" {
		filter.Plate = canonicalPlate(filter.Plate)
	}
	events, total, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "list events failed")
	}
	return events, total, nil
}

// Stats aggregates the access history over [from, to). A zero from defaults
// to the start of today; a zero to defaults to one day after from.
func (s *Service) Stats(ctx context.Context, from, to time.Time) (*models.StatsSummary, error) {
	now := s.now()
	if from.IsZero() {
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
	if to.IsZero() {
		to = from.Add(24 * time.Hour)
	}
	if !to.After(from) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "stats period must end after it starts")
	}
	summary, err := s.events.Stats(ctx, from, to)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "aggregate stats failed")
	}
	return summary, nil
}
