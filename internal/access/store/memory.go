package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/CarlosSantos19/parqueadero-app/internal/access/models"
	"github.com/CarlosSantos19/parqueadero-app/internal/sentinel"
	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
)

// InMemoryEvents stores the access history in memory for tests and the demo
// environment. Writes are serialized by a single mutex, which also makes
// the open-session check and insert in AppendEntryIfNoOpen atomic.
type InMemoryEvents struct {
	mu     sync.RWMutex
	events []*models.AccessEvent
}

// NewInMemoryEvents creates an in-memory event store.
func NewInMemoryEvents() *InMemoryEvents {
	return &InMemoryEvents{}
}

func (s *InMemoryEvents) Append(_ context.Context, event *models.AccessEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *event
	s.events = append(s.events, &clone)
	return nil
}

func (s *InMemoryEvents) AppendEntryIfNoOpen(_ context.Context, event *models.AccessEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.Plate == event.Plate && e.IsOpenSession() {
			return sentinel.ErrSessionOpen
		}
	}
	clone := *event
	s.events = append(s.events, &clone)
	return nil
}

func (s *InMemoryEvents) OpenSessionByPlate(_ context.Context, plate string) (*models.AccessEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.AccessEvent
	for _, e := range s.events {
		if e.Plate != plate || !e.IsOpenSession() {
			continue
		}
		if latest == nil || e.AccessTime.After(latest.AccessTime) {
			latest = e
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (s *InMemoryEvents) CloseSession(_ context.Context, eventID id.AccessEventID, exitAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == eventID && e.IsOpenSession() {
			at := exitAt
			e.ExitTime = &at
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemoryEvents) ListOpenSessions(_ context.Context) ([]*models.AccessEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var open []*models.AccessEvent
	for _, e := range s.events {
		if e.IsOpenSession() {
			clone := *e
			open = append(open, &clone)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].AccessTime.After(open[j].AccessTime) })
	return open, nil
}

func (s *InMemoryEvents) List(_ context.Context, filter models.EventFilter) ([]*models.AccessEvent, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.AccessEvent
	for _, e := range s.events {
		if !matches(e, filter) {
			continue
		}
		clone := *e
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].AccessTime.After(matched[j].AccessTime) })

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	offset := filter.Offset
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (s *InMemoryEvents) Stats(_ context.Context, from, to time.Time) (*models.StatsSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &models.StatsSummary{
		From:            from,
		To:              to,
		ByUserType:      make(map[models.UserType]int),
		DenialsByReason: make(map[models.DenialReason]int),
	}
	for _, e := range s.events {
		if e.IsOpenSession() {
			summary.CurrentlyInside++
		}
		if e.AccessTime.Before(from) || !e.AccessTime.Before(to) {
			continue
		}
		summary.ByUserType[e.UserType]++
		switch {
		case e.AccessType == models.AccessEntry && e.Status == models.StatusSuccessful:
			summary.TotalEntries++
			if e.ExitTime != nil {
				summary.TotalExits++
			}
		case e.Status == models.StatusDenied:
			summary.TotalDenials++
			if e.DenialReason != "" {
				summary.DenialsByReason[e.DenialReason]++
			}
		}
	}
	return summary, nil
}

func matches(e *models.AccessEvent, f models.EventFilter) bool {
	if f.Plate != "" && e.Plate != f.Plate {
		return false
	}
	if f.UserType != "" && e.UserType != f.UserType {
		return false
	}
	if f.AccessType != "" && e.AccessType != f.AccessType {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && e.AccessTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.AccessTime.Before(f.To) {
		return false
	}
	return true
}
