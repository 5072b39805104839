package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/CarlosSantos19/parqueadero-app/internal/access/models"
	"github.com/CarlosSantos19/parqueadero-app/internal/sentinel"
	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
)

// uniqueViolation is the PostgreSQL error code raised when the partial
// unique index on open sessions rejects a second entry for the same plate.
const uniqueViolation = "23505"

// PostgresEvents persists the access history in PostgreSQL.
type PostgresEvents struct {
	db *sql.DB
}

// NewPostgresEvents constructs a PostgreSQL-backed event store.
func NewPostgresEvents(db *sql.DB) *PostgresEvents {
	return &PostgresEvents{db: db}
}

const eventColumns = `
	id, user_type, user_ref, user_name, plate, vehicle_type,
	access_type, status, denial_reason, access_time, exit_time,
	is_first_thursday, detection_method, processed_by, client_info
`

const insertEvent = `
	INSERT INTO access_events (` + eventColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

func (s *PostgresEvents) Append(ctx context.Context, event *models.AccessEvent) error {
	if _, err := s.db.ExecContext(ctx, insertEvent, eventArgs(event)...); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *PostgresEvents) AppendEntryIfNoOpen(ctx context.Context, event *models.AccessEvent) error {
	if _, err := s.db.ExecContext(ctx, insertEvent, eventArgs(event)...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrSessionOpen
		}
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

func (s *PostgresEvents) OpenSessionByPlate(ctx context.Context, plate string) (*models.AccessEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM access_events
		WHERE plate = $1 AND access_type = 'entry' AND status = 'successful' AND exit_time IS NULL
		ORDER BY access_time DESC
		LIMIT 1
	`
	event, err := scanEvent(s.db.QueryRowContext(ctx, query, plate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find open session: %w", err)
	}
	return event, nil
}

func (s *PostgresEvents) CloseSession(ctx context.Context, eventID id.AccessEventID, exitAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE access_events
		SET exit_time = $2
		WHERE id = $1 AND access_type = 'entry' AND status = 'successful' AND exit_time IS NULL
	`, uuid.UUID(eventID), exitAt)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close session rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresEvents) ListOpenSessions(ctx context.Context) ([]*models.AccessEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM access_events
		WHERE access_type = 'entry' AND status = 'successful' AND exit_time IS NULL
		ORDER BY access_time DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (s *PostgresEvents) List(ctx context.Context, filter models.EventFilter) ([]*models.AccessEvent, int, error) {
	where, args := buildWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM access_events` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM access_events%s
		ORDER BY access_time DESC
		LIMIT $%d OFFSET $%d
	`, eventColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (s *PostgresEvents) Stats(ctx context.Context, from, to time.Time) (*models.StatsSummary, error) {
	summary := &models.StatsSummary{
		From:            from,
		To:              to,
		ByUserType:      make(map[models.UserType]int),
		DenialsByReason: make(map[models.DenialReason]int),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE access_type = 'entry' AND status = 'successful'),
			COUNT(*) FILTER (WHERE access_type = 'entry' AND status = 'successful' AND exit_time IS NOT NULL),
			COUNT(*) FILTER (WHERE status = 'denied')
		FROM access_events
		WHERE access_time >= $1 AND access_time < $2
	`, from, to).Scan(&summary.TotalEntries, &summary.TotalExits, &summary.TotalDenials)
	if err != nil {
		return nil, fmt.Errorf("stats totals: %w", err)
	}

	if err := s.aggregate(ctx, `
		SELECT user_type, COUNT(*)
		FROM access_events
		WHERE access_time >= $1 AND access_time < $2
		GROUP BY user_type
	`, from, to, func(key string, count int) {
		summary.ByUserType[models.UserType(key)] = count
	}); err != nil {
		return nil, fmt.Errorf("stats by user type: %w", err)
	}

	if err := s.aggregate(ctx, `
		SELECT denial_reason, COUNT(*)
		FROM access_events
		WHERE access_time >= $1 AND access_time < $2
			AND status = 'denied' AND denial_reason IS NOT NULL
		GROUP BY denial_reason
	`, from, to, func(key string, count int) {
		summary.DenialsByReason[models.DenialReason(key)] = count
	}); err != nil {
		return nil, fmt.Errorf("stats by denial reason: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM access_events
		WHERE access_type = 'entry' AND status = 'successful' AND exit_time IS NULL
	`).Scan(&summary.CurrentlyInside)
	if err != nil {
		return nil, fmt.Errorf("stats occupancy: %w", err)
	}
	return summary, nil
}

func (s *PostgresEvents) aggregate(ctx context.Context, query string, from, to time.Time, collect func(key string, count int)) error {
	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		collect(key, count)
	}
	return rows.Err()
}

func buildWhere(filter models.EventFilter) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.Plate != "" {
		add("plate = $%d", filter.Plate)
	}
	if filter.UserType != "" {
		add("user_type = $%d", string(filter.UserType))
	}
	if filter.AccessType != "" {
		add("access_type = $%d", string(filter.AccessType))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if !filter.From.IsZero() {
		add("access_time >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("access_time < $%d", filter.To)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func eventArgs(event *models.AccessEvent) []any {
	return []any{
		uuid.UUID(event.ID),
		string(event.UserType),
		nullString(event.UserRef),
		nullString(event.UserName),
		event.Plate,
		event.VehicleType,
		string(event.AccessType),
		string(event.Status),
		nullString(string(event.DenialReason)),
		event.AccessTime,
		event.ExitTime,
		event.IsFirstThursday,
		string(event.DetectionMethod),
		nullString(event.ProcessedBy),
		nullString(event.ClientInfo),
	}
}

type row interface {
	Scan(dest ...any) error
}

func scanEvent(r row) (*models.AccessEvent, error) {
	var e models.AccessEvent
	var eventID uuid.UUID
	var userType, accessType, status, detectionMethod string
	var userRef, userName, denialReason, processedBy, clientInfo sql.NullString
	var exitTime sql.NullTime
	err := r.Scan(
		&eventID, &userType, &userRef, &userName, &e.Plate, &e.VehicleType,
		&accessType, &status, &denialReason, &e.AccessTime, &exitTime,
		&e.IsFirstThursday, &detectionMethod, &processedBy, &clientInfo,
	)
	if err != nil {
		return nil, err
	}
	e.ID = id.AccessEventID(eventID)
	e.UserType = models.UserType(userType)
	e.UserRef = userRef.String
	e.UserName = userName.String
	e.AccessType = models.AccessType(accessType)
	e.Status = models.EventStatus(status)
	e.DenialReason = models.DenialReason(denialReason.String)
	if exitTime.Valid {
		e.ExitTime = &exitTime.Time
	}
	e.DetectionMethod = models.DetectionMethod(detectionMethod)
	e.ProcessedBy = processedBy.String
	e.ClientInfo = clientInfo.String
	return &e, nil
}

func collectEvents(rows *sql.Rows) ([]*models.AccessEvent, error) {
	var events []*models.AccessEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
