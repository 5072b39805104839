// Package store persists the access event history.
package store

import (
	"context"
	"time"

	"github.com/CarlosSantos19/parqueadero-app/internal/access/models"
	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
)

// DefaultListLimit caps history pages when the caller does not set one.
const DefaultListLimit = 50

// EventStore persists access events. An entry event with a nil exit time is
// an open session; at most one open session may exist per plate.
// Error Contract:
// - AppendEntryIfNoOpen returns sentinel.ErrSessionOpen when the plate
//   already has an open session
// - OpenSessionByPlate and CloseSession return sentinel.ErrNotFound when no
//   matching open session exists
type EventStore interface {
	// Append records an event unconditionally. Used for denials.
	Append(ctx context.Context, event *models.AccessEvent) error
	// AppendEntryIfNoOpen records an entry event only if the plate has no
	// open session. The check and the insert are atomic.
	AppendEntryIfNoOpen(ctx context.Context, event *models.AccessEvent) error
	// OpenSessionByPlate returns the most recent open session for the plate.
	OpenSessionByPlate(ctx context.Context, plate string) (*models.AccessEvent, error)
	// CloseSession stamps the exit time on an open session.
	CloseSession(ctx context.Context, eventID id.AccessEventID, exitAt time.Time) error
	// ListOpenSessions returns all open sessions, most recent entry first.
	ListOpenSessions(ctx context.Context) ([]*models.AccessEvent, error)
	// List returns a filtered page of events, most recent first, along with
	// the total match count before paging.
	List(ctx context.Context, filter models.EventFilter) ([]*models.AccessEvent, int, error)
	// Stats aggregates events with an access time in [from, to).
	Stats(ctx context.Context, from, to time.Time) (*models.StatsSummary, error)
}
