package bookings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	// ErrBookingConflict is returned when a candidate range overlaps an
	// existing pending or confirmed booking for the same vehicle.
	ErrBookingConflict = errors.New("bookings: overlapping booking exists")
	// ErrInvalidRange is returned when the end date is not after the start.
	ErrInvalidRange = errors.New("bookings: end date must be after start date")
)

// Repository defines the interface for booking storage.
type Repository interface {
	// ListBlocking returns the tenant's pending and confirmed bookings,
	// the only ones that count toward availability.
	ListBlocking(ctx context.Context, tenantID string) ([]Booking, error)
	// Create inserts a booking after enforcing the no-overlap invariant.
	Create(ctx context.Context, b Booking) (*Booking, error)
}

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores bookings in the relational database.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by a pgx pool or tx.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("bookings: pgx querier required")
	}
	return &PostgresRepository{db: db}
}

const bookingColumns = `id, tenant_id, vehicle_id, lead_id, start_date, end_date, status, created_at`

// ListBlocking returns pending and confirmed bookings for the tenant.
func (r *PostgresRepository) ListBlocking(ctx context.Context, tenantID string) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE tenant_id = $1 AND status IN ($2, $3)
		ORDER BY start_date
	`
	rows, err := r.db.Query(ctx, query, tenantID, StatusPending, StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("bookings: list blocking: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: list blocking: %w", err)
	}
	return out, nil
}

// Create enforces the overlap invariant inside the insert itself: the row is
// only written when no blocking booking intersects the candidate range.
func (r *PostgresRepository) Create(ctx context.Context, b Booking) (*Booking, error) {
	if !b.EndDate.After(b.StartDate) {
		return nil, ErrInvalidRange
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = StatusPending
	}

	query := `
		INSERT INTO bookings (id, tenant_id, vehicle_id, lead_id, start_date, end_date, status)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE tenant_id = $2
			  AND vehicle_id = $3
			  AND status IN ('pending', 'confirmed')
			  AND start_date < $6
			  AND $5 < end_date
		)
		RETURNING ` + bookingColumns + `
	`
	created, err := scanBooking(r.db.QueryRow(ctx, query,
		toPGUUID(b.ID),
		b.TenantID,
		toPGUUID(b.VehicleID),
		toPGNullableUUID(b.LeadID),
		toPGDate(b.StartDate),
		toPGDate(b.EndDate),
		b.Status,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingConflict
		}
		return nil, fmt.Errorf("bookings: insert: %w", err)
	}
	return created, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b         Booking
		id        pgtype.UUID
		vehicleID pgtype.UUID
		leadID    pgtype.UUID
		start     pgtype.Date
		end       pgtype.Date
	)
	if err := row.Scan(
		&id,
		&b.TenantID,
		&vehicleID,
		&leadID,
		&start,
		&end,
		&b.Status,
		&b.CreatedAt,
	); err != nil {
		return nil, err
	}
	b.ID = uuid.UUID(id.Bytes)
	b.VehicleID = uuid.UUID(vehicleID.Bytes)
	if leadID.Valid {
		lid := uuid.UUID(leadID.Bytes)
		b.LeadID = &lid
	}
	b.StartDate = start.Time
	b.EndDate = end.Time
	return &b, nil
}

func toPGUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: [16]byte(id), Valid: true}
}

func toPGNullableUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return toPGUUID(*id)
}

func toPGDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: true}
}

// InMemoryRepository is a Repository backed by a slice, used in tests and
// local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	bookings []Booking
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Add stores a booking without conflict checks, for seeding test state.
func (r *InMemoryRepository) Add(b Booking) Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	r.bookings = append(r.bookings, b)
	return b
}

// ListBlocking returns pending and confirmed bookings for the tenant.
func (r *InMemoryRepository) ListBlocking(ctx context.Context, tenantID string) ([]Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Booking
	for _, b := range r.bookings {
		if b.TenantID == tenantID && b.Status.BlocksAvailability() {
			out = append(out, b)
		}
	}
	return out, nil
}

// Create enforces the overlap invariant against blocking bookings.
func (r *InMemoryRepository) Create(ctx context.Context, b Booking) (*Booking, error) {
	if !b.EndDate.After(b.StartDate) {
		return nil, ErrInvalidRange
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.bookings {
		if existing.TenantID != b.TenantID || existing.VehicleID != b.VehicleID {
			continue
		}
		if !existing.Status.BlocksAvailability() {
			continue
		}
		if Overlaps(existing.StartDate, existing.EndDate, b.StartDate, b.EndDate) {
			return nil, ErrBookingConflict
		}
	}

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = StatusPending
	}
	b.CreatedAt = time.Now().UTC()
	r.bookings = append(r.bookings, b)
	return &b, nil
}
