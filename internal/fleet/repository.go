package fleet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrVehicleNotFound is returned when no vehicle matches the lookup.
var ErrVehicleNotFound = errors.New("fleet: vehicle not found")

// Repository defines the interface for vehicle storage.
type Repository interface {
	// ListActive returns the tenant's catalog excluding soft-deleted
	// (inactive) vehicles, oldest first.
	ListActive(ctx context.Context, tenantID string) ([]Vehicle, error)
	// GetByID fetches one vehicle scoped to the tenant.
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*Vehicle, error)
}

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores vehicles in the relational database.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by a pgx pool or tx.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("fleet: pgx querier required")
	}
	return &PostgresRepository{db: db}
}

const vehicleColumns = `id, tenant_id, make, model, year, daily_rate_cents, type, status, created_at`

// ListActive excludes inactive vehicles at the query level.
func (r *PostgresRepository) ListActive(ctx context.Context, tenantID string) ([]Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE tenant_id = $1 AND status <> $2
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, StatusInactive)
	if err != nil {
		return nil, fmt.Errorf("fleet: list active: %w", err)
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("fleet: scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fleet: list active: %w", err)
	}
	return vehicles, nil
}

// GetByID fetches a vehicle scoped to the tenant.
func (r *PostgresRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE id = $1 AND tenant_id = $2
	`
	v, err := scanVehicle(r.db.QueryRow(ctx, query, pgtype.UUID{Bytes: [16]byte(id), Valid: true}, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("fleet: select: %w", err)
	}
	return v, nil
}

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	var (
		v  Vehicle
		id pgtype.UUID
	)
	if err := row.Scan(
		&id,
		&v.TenantID,
		&v.Make,
		&v.Model,
		&v.Year,
		&v.DailyRateCents,
		&v.Type,
		&v.Status,
		&v.CreatedAt,
	); err != nil {
		return nil, err
	}
	v.ID = uuid.UUID(id.Bytes)
	return &v, nil
}

// InMemoryRepository is a Repository backed by a map, used in tests and
// local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	vehicles map[uuid.UUID]Vehicle
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{vehicles: make(map[uuid.UUID]Vehicle)}
}

// Add stores a vehicle, assigning an id when absent.
func (r *InMemoryRepository) Add(v Vehicle) Vehicle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	r.vehicles[v.ID] = v
	return v
}

// ListActive filters out inactive vehicles.
func (r *InMemoryRepository) ListActive(ctx context.Context, tenantID string) ([]Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Vehicle
	for _, v := range r.vehicles {
		if v.TenantID == tenantID && v.Status != StatusInactive {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GetByID fetches a vehicle scoped to the tenant.
func (r *InMemoryRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.vehicles[id]
	if !ok || v.TenantID != tenantID {
		return nil, ErrVehicleNotFound
	}
	return &v, nil
}
