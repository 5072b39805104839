package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/CarlosSantos19/parqueadero-app/internal/directory/models"
	"github.com/CarlosSantos19/parqueadero-app/internal/sentinel"
	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
)

// InMemoryEmployees stores employee credentials in memory for tests and the
// demo environment.
type InMemoryEmployees struct {
	mu        sync.RWMutex
	employees map[string]*models.Employee
}

// NewInMemoryEmployees creates an in-memory employee store.
func NewInMemoryEmployees() *InMemoryEmployees {
	return &InMemoryEmployees{employees: make(map[string]*models.Employee)}
}

func (s *InMemoryEmployees) Save(_ context.Context, employee *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *employee
	s.employees[employee.ID.String()] = &clone
	return nil
}

func (s *InMemoryEmployees) FindActiveByPlate(_ context.Context, plate string) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.employees {
		if !e.IsActive {
			continue
		}
		if e.ActiveVehicleByPlate(plate) != nil {
			clone := *e
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryEmployees) FindByVehiclePlate(_ context.Context, plate string) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.employees {
		for _, v := range e.Vehicles {
			if v.Plate == plate {
				clone := *e
				return &clone, nil
			}
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryEmployees) FindActiveByDocument(_ context.Context, documentNumber string) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.employees {
		if e.IsActive && e.DocumentNumber == documentNumber {
			clone := *e
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryEmployees) SetLastAccess(_ context.Context, employeeID id.EmployeeID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[employeeID.String()]
	if !ok {
		return sentinel.ErrNotFound
	}
	e.LastAccess = &at
	return nil
}

// InMemoryVisitors stores visitor passes in memory for tests and the demo
// environment.
type InMemoryVisitors struct {
	mu       sync.RWMutex
	visitors map[string]*models.Visitor
}

// NewInMemoryVisitors creates an in-memory visitor store.
func NewInMemoryVisitors() *InMemoryVisitors {
	return &InMemoryVisitors{visitors: make(map[string]*models.Visitor)}
}

func (s *InMemoryVisitors) Save(_ context.Context, visitor *models.Visitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *visitor
	s.visitors[visitor.ID.String()] = &clone
	return nil
}

func (s *InMemoryVisitors) Update(_ context.Context, visitor *models.Visitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visitors[visitor.ID.String()]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *visitor
	s.visitors[visitor.ID.String()] = &clone
	return nil
}

func (s *InMemoryVisitors) FindActiveByPlate(_ context.Context, plate string, since time.Time) (*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Visitor
	for _, v := range s.visitors {
		if v.Plate != plate || v.VisitDate.Before(since) {
			continue
		}
		if v.Status != models.VisitorApproved && v.Status != models.VisitorInProgress {
			continue
		}
		if latest == nil || v.VisitDate.After(latest.VisitDate) {
			latest = v
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (s *InMemoryVisitors) FindByID(_ context.Context, visitorID id.VisitorID) (*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.visitors[visitorID.String()]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (s *InMemoryVisitors) FindByQRToken(_ context.Context, token string) (*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.visitors {
		if v.QRToken == token {
			clone := *v
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryVisitors) ListByVisitDate(_ context.Context, from, to time.Time) ([]*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Visitor
	for _, v := range s.visitors {
		if v.VisitDate.Before(from) || !v.VisitDate.Before(to) {
			continue
		}
		clone := *v
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VisitDate.Before(out[j].VisitDate) })
	return out, nil
}
