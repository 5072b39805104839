// Package service implements gate access decisions and the occupancy
// ledger.
package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/CarlosSantos19/parqueadero-app/internal/access/audit"
	"github.com/CarlosSantos19/parqueadero-app/internal/access/store"
	dirmodels "github.com/CarlosSantos19/parqueadero-app/internal/directory/models"
	"github.com/CarlosSantos19/parqueadero-app/internal/platform/metrics"
	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
)

// Directory resolves credentials for plates at the gate.
// Error Contract: lookup methods return a domain error with CodeNotFound
// when no credential matches.
type Directory interface {
	// EmployeeByPlate resolves an active employee owning an active vehicle.
	EmployeeByPlate(ctx context.Context, plate string) (*dirmodels.Employee, error)
	// EmployeeOwningVehicle resolves the registrant of a plate without
	// filtering on active flags.
	EmployeeOwningVehicle(ctx context.Context, plate string) (*dirmodels.Employee, error)
	// ActiveVisitorByPlate resolves the current approved or in-progress
	// visitor pass for a plate.
	ActiveVisitorByPlate(ctx context.Context, plate string) (*dirmodels.Visitor, error)
	// MarkVisitorEntered transitions a pass to in_progress.
	MarkVisitorEntered(ctx context.Context, visitorID id.VisitorID, at time.Time) (*dirmodels.Visitor, error)
	// CompleteVisit transitions a pass to completed.
	CompleteVisit(ctx context.Context, visitorID id.VisitorID, at time.Time) (*dirmodels.Visitor, error)
	// RecordEmployeeAccess stamps an employee's last entry.
	RecordEmployeeAccess(ctx context.Context, employeeID id.EmployeeID, at time.Time) error
}

type Option func(*Service)

// Service evaluates access requests and maintains the entry/exit ledger.
// Ledger mutations for one plate are serialized by a per-plate lock; the
// store additionally enforces the single-open-session invariant, so the
// lock is a fast path, not the only guard.
type Service struct {
	directory Directory
	events    store.EventStore
	recorder  *audit.Recorder
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time

	mu         sync.Mutex
	plateLocks map[string]*plateLock
}

type plateLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(directory Directory, events store.EventStore, recorder *audit.Recorder, logger *slog.Logger, opts ...Option) *Service {
	if directory == nil {
		panic("access service requires a directory")
	}
	if events == nil {
		panic("access service requires an event store")
	}
	if recorder == nil {
		panic("access service requires a recorder")
	}
	svc := &Service{
		directory:  directory,
		events:     events,
		recorder:   recorder,
		logger:     logger,
		tracer:     otel.Tracer("access"),
		now:        time.Now,
		plateLocks: make(map[string]*plateLock),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
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

// lockPlate serializes ledger mutations for one plate and returns the
// unlock function. Locks are reference counted so the map does not grow
// with every plate ever seen.
func (s *Service) lockPlate(plate string) func() {
	s.mu.Lock()
	l, ok := s.plateLocks[plate]
	if !ok {
		l = &plateLock{}
		s.plateLocks[plate] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.plateLocks, plate)
		}
		s.mu.Unlock()
	}
}

// canonicalPlate uppercases and trims plate input from the gate.
func canonicalPlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}
