package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a tenant has no settings row.
var ErrNotFound = errors.New("settings: not configured for tenant")

// Repository reads per-tenant assistant settings.
type Repository interface {
	Get(ctx context.Context, tenantID string) (*Settings, error)
}

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores settings in the relational database.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by a pgx pool or tx.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("settings: pgx querier required")
	}
	return &PostgresRepository{db: db}
}

// Get fetches the settings row for the tenant.
func (r *PostgresRepository) Get(ctx context.Context, tenantID string) (*Settings, error) {
	query := `
		SELECT tenant_id, business_name, business_phone, business_hours,
			greeting, booking_process, pricing_notes, tone,
			require_deposit, deposit_percent
		FROM ai_settings
		WHERE tenant_id = $1
	`
	var s Settings
	if err := r.db.QueryRow(ctx, query, tenantID).Scan(
		&s.TenantID,
		&s.BusinessName,
		&s.BusinessPhone,
		&s.BusinessHours,
		&s.Greeting,
		&s.BookingProcess,
		&s.PricingNotes,
		&s.Tone,
		&s.RequireDeposit,
		&s.DepositPercent,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("settings: select: %w", err)
	}
	return &s, nil
}

// InMemoryRepository is a Repository backed by a map, used in tests and
// local development.
type InMemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]Settings
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{rows: make(map[string]Settings)}
}

// Put stores settings for a tenant.
func (r *InMemoryRepository) Put(s Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[s.TenantID] = s
}

// Get fetches the settings row for the tenant.
func (r *InMemoryRepository) Get(ctx context.Context, tenantID string) (*Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.rows[tenantID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}
