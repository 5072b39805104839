package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CarlosSantos19/parqueadero-app/internal/directory/models"
	"github.com/CarlosSantos19/parqueadero-app/internal/sentinel"
	id "github.com/CarlosSantos19/parqueadero-app/pkg/domain"
)

// PostgresEmployees persists employee credentials in PostgreSQL.
type PostgresEmployees struct {
	db *sql.DB
}

// NewPostgresEmployees constructs a PostgreSQL-backed employee store.
func NewPostgresEmployees(db *sql.DB) *PostgresEmployees {
	return &PostgresEmployees{db: db}
}

const employeeColumns = `
	e.id, e.full_name, e.document_number, e.position, e.work_area, e.photo,
	e.access_level, e.is_active,
	e.license_number, e.license_expiry, e.license_categories, e.license_valid,
	e.last_access
`

func (s *PostgresEmployees) FindActiveByPlate(ctx context.Context, plate string) (*models.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees e
		JOIN vehicles v ON v.employee_id = e.id
		WHERE v.plate = $1 AND v.is_active AND e.is_active
	`
	employee, err := s.scanEmployee(ctx, s.db.QueryRowContext(ctx, query, plate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find employee by plate: %w", err)
	}
	return employee, nil
}

func (s *PostgresEmployees) FindByVehiclePlate(ctx context.Context, plate string) (*models.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees e
		JOIN vehicles v ON v.employee_id = e.id
		WHERE v.plate = $1
	`
	employee, err := s.scanEmployee(ctx, s.db.QueryRowContext(ctx, query, plate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find employee by vehicle: %w", err)
	}
	return employee, nil
}

func (s *PostgresEmployees) FindActiveByDocument(ctx context.Context, documentNumber string) (*models.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees e
		WHERE e.document_number = $1 AND e.is_active
	`
	employee, err := s.scanEmployee(ctx, s.db.QueryRowContext(ctx, query, documentNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find employee by document: %w", err)
	}
	return employee, nil
}

func (s *PostgresEmployees) SetLastAccess(ctx context.Context, employeeID id.EmployeeID, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE employees SET last_access = $2 WHERE id = $1`,
		uuid.UUID(employeeID), at,
	)
	if err != nil {
		return fmt.Errorf("set last access: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set last access rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresEmployees) Save(ctx context.Context, employee *models.Employee) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin employee save tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO employees (
			id, full_name, document_number, position, work_area, photo,
			access_level, is_active,
			license_number, license_expiry, license_categories, license_valid,
			last_access
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			position = EXCLUDED.position,
			work_area = EXCLUDED.work_area,
			photo = EXCLUDED.photo,
			access_level = EXCLUDED.access_level,
			is_active = EXCLUDED.is_active,
			license_number = EXCLUDED.license_number,
			license_expiry = EXCLUDED.license_expiry,
			license_categories = EXCLUDED.license_categories,
			license_valid = EXCLUDED.license_valid
	`,
		uuid.UUID(employee.ID),
		employee.FullName,
		employee.DocumentNumber,
		employee.Position,
		employee.WorkArea,
		employee.Photo,
		string(employee.AccessLevel),
		employee.IsActive,
		employee.License.Number,
		employee.License.ExpiryDate,
		joinCategories(employee.License.Categories),
		employee.License.IsValid,
		employee.LastAccess,
	)
	if err != nil {
		return fmt.Errorf("save employee: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM vehicles WHERE employee_id = $1`, uuid.UUID(employee.ID)); err != nil {
		return fmt.Errorf("replace vehicles: %w", err)
	}
	for _, v := range employee.Vehicles {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO vehicles (plate, employee_id, type, brand, model, color, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, v.Plate, uuid.UUID(employee.ID), string(v.Type), v.Brand, v.Model, v.Color, v.IsActive)
		if err != nil {
			return fmt.Errorf("save vehicle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit employee save: %w", err)
	}
	return nil
}

type row interface {
	Scan(dest ...any) error
}

func (s *PostgresEmployees) scanEmployee(ctx context.Context, r row) (*models.Employee, error) {
	var e models.Employee
	var employeeID uuid.UUID
	var photo sql.NullString
	var accessLevel, categories string
	var lastAccess sql.NullTime
	err := r.Scan(
		&employeeID, &e.FullName, &e.DocumentNumber, &e.Position, &e.WorkArea, &photo,
		&accessLevel, &e.IsActive,
		&e.License.Number, &e.License.ExpiryDate, &categories, &e.License.IsValid,
		&lastAccess,
	)
	if err != nil {
		return nil, err
	}
	e.ID = id.EmployeeID(employeeID)
	e.Photo = photo.String
	e.AccessLevel = models.AccessLevel(accessLevel)
	e.License.Categories = splitCategories(categories)
	if lastAccess.Valid {
		e.LastAccess = &lastAccess.Time
	}

	vehicles, err := s.loadVehicles(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	e.Vehicles = vehicles
	return &e, nil
}

func (s *PostgresEmployees) loadVehicles(ctx context.Context, employeeID uuid.UUID) ([]models.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT plate, type, brand, model, color, is_active
		FROM vehicles
		WHERE employee_id = $1
		ORDER BY plate
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		var vehicleType string
		var brand, model, color sql.NullString
		if err := rows.Scan(&v.Plate, &vehicleType, &brand, &model, &color, &v.IsActive); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		v.Type = models.VehicleType(vehicleType)
		v.Brand = brand.String
		v.Model = model.String
		v.Color = color.String
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func joinCategories(categories []models.LicenseCategory) string {
	parts := make([]string, len(categories))
	for i, c := range categories {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func splitCategories(raw string) []models.LicenseCategory {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	categories := make([]models.LicenseCategory, len(parts))
	for i, p := range parts {
		categories[i] = models.LicenseCategory(p)
	}
	return categories
}

// PostgresVisitors persists visitor passes in PostgreSQL.
type PostgresVisitors struct {
	db *sql.DB
}

// NewPostgresVisitors constructs a PostgreSQL-backed visitor store.
func NewPostgresVisitors(db *sql.DB) *PostgresVisitors {
	return &PostgresVisitors{db: db}
}

const visitorColumns = `
	id, name, document_number, phone, email, plate, purpose, destination_area,
	companions, visit_date, expected_duration_hours, qr_token, status,
	entry_time, exit_time
`

func (s *PostgresVisitors) Save(ctx context.Context, visitor *models.Visitor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitors (`+visitorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		uuid.UUID(visitor.ID),
		visitor.Name,
		visitor.DocumentNumber,
		visitor.Phone,
		visitor.Email,
		visitor.Plate,
		visitor.Purpose,
		visitor.DestinationArea,
		strings.Join(visitor.Companions, ","),
		visitor.VisitDate,
		visitor.ExpectedDurationHours,
		visitor.QRToken,
		string(visitor.Status),
		visitor.EntryTime,
		visitor.ExitTime,
	)
	if err != nil {
		return fmt.Errorf("save visitor: %w", err)
	}
	return nil
}

func (s *PostgresVisitors) Update(ctx context.Context, visitor *models.Visitor) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE visitors
		SET status = $2, expected_duration_hours = $3, entry_time = $4, exit_time = $5
		WHERE id = $1
	`,
		uuid.UUID(visitor.ID),
		string(visitor.Status),
		visitor.ExpectedDurationHours,
		visitor.EntryTime,
		visitor.ExitTime,
	)
	if err != nil {
		return fmt.Errorf("update visitor: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update visitor rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresVisitors) FindActiveByPlate(ctx context.Context, plate string, since time.Time) (*models.Visitor, error) {
	query := `
		SELECT ` + visitorColumns + `
		FROM visitors
		WHERE plate = $1 AND visit_date >= $2 AND status IN ('approved', 'in_progress')
		ORDER BY visit_date DESC
		LIMIT 1
	`
	visitor, err := scanVisitor(s.db.QueryRowContext(ctx, query, plate, since))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find visitor by plate: %w", err)
	}
	return visitor, nil
}

func (s *PostgresVisitors) FindByID(ctx context.Context, visitorID id.VisitorID) (*models.Visitor, error) {
	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE id = $1`
	visitor, err := scanVisitor(s.db.QueryRowContext(ctx, query, uuid.UUID(visitorID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find visitor by id: %w", err)
	}
	return visitor, nil
}

func (s *PostgresVisitors) FindByQRToken(ctx context.Context, token string) (*models.Visitor, error) {
	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE qr_token = $1`
	visitor, err := scanVisitor(s.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find visitor by qr token: %w", err)
	}
	return visitor, nil
}

func (s *PostgresVisitors) ListByVisitDate(ctx context.Context, from, to time.Time) ([]*models.Visitor, error) {
	query := `
		SELECT ` + visitorColumns + `
		FROM visitors
		WHERE visit_date >= $1 AND visit_date < $2
		ORDER BY visit_date
	`
	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list visitors: %w", err)
	}
	defer rows.Close()

	var visitors []*models.Visitor
	for rows.Next() {
		visitor, err := scanVisitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		visitors = append(visitors, visitor)
	}
	return visitors, rows.Err()
}

func scanVisitor(r row) (*models.Visitor, error) {
	var v models.Visitor
	var visitorID uuid.UUID
	var phone, email, companions sql.NullString
	var status string
	var entryTime, exitTime sql.NullTime
	err := r.Scan(
		&visitorID, &v.Name, &v.DocumentNumber, &phone, &email, &v.Plate,
		&v.Purpose, &v.DestinationArea, &companions, &v.VisitDate,
		&v.ExpectedDurationHours, &v.QRToken, &status, &entryTime, &exitTime,
	)
	if err != nil {
		return nil, err
	}
	v.ID = id.VisitorID(visitorID)
	v.Phone = phone.String
	v.Email = email.String
	if companions.String != "" {
		v.Companions = strings.Split(companions.String, ",")
	}
	v.Status = models.VisitorStatus(status)
	if entryTime.Valid {
		v.EntryTime = &entryTime.Time
	}
	if exitTime.Valid {
		v.ExitTime = &exitTime.Time
	}
	return &v, nil
}
