package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// Querier is the subset of pgxpool.Pool used by the repository. Narrowing
// the dependency keeps the repo mockable with pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by a pgx pool or tx.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("leads: pgx querier required")
	}
	return &PostgresRepository{db: db}
}

const leadColumns = `id, tenant_id, name, phone, status, source,
		collected_vehicle_id, collected_start_date, collected_end_date,
		ready_for_payment, created_at, updated_at`

// FindOrCreate searches by the lenient digit comparison both ways: the
// stored number's digits containing the query digits or vice versa. When no
// lead matches, a new one is inserted with a placeholder name.
func (r *PostgresRepository) FindOrCreate(ctx context.Context, tenantID, phone string) (*Lead, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrMissingTenantID
	}
	digits := NormalizePhone(phone)
	if digits == "" {
		return nil, ErrMissingPhone
	}

	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE tenant_id = $1
		  AND (regexp_replace(phone, '\D', '', 'g') LIKE '%' || $2 || '%'
		       OR $2 LIKE '%' || regexp_replace(phone, '\D', '', 'g') || '%')
		ORDER BY created_at
		LIMIT 1
	`
	lead, err := scanLead(r.db.QueryRow(ctx, query, tenantID, digits))
	if err == nil {
		return lead, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("leads: find by phone: %w", err)
	}

	insert := `
		INSERT INTO leads (id, tenant_id, name, phone, status, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + leadColumns + `
	`
	lead, err = scanLead(r.db.QueryRow(ctx, insert,
		toPGUUID(uuid.New()),
		tenantID,
		placeholderName(phone),
		phone,
		StatusNew,
		SourceSMS,
	))
	if err != nil {
		return nil, fmt.Errorf("leads: insert: %w", err)
	}
	return lead, nil
}

// GetByID fetches a lead scoped to the tenant.
func (r *PostgresRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE id = $1 AND tenant_id = $2
	`
	lead, err := scanLead(r.db.QueryRow(ctx, query, toPGUUID(id), tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select: %w", err)
	}
	return lead, nil
}

// UpdateSlots merges the partial update in a single statement so concurrent
// turns cannot interleave a read-modify-write. ready_for_payment is derived
// from the merged values inside the same UPDATE.
func (r *PostgresRepository) UpdateSlots(ctx context.Context, tenantID string, id uuid.UUID, update SlotUpdate) (*Lead, error) {
	query := `
		UPDATE leads SET
			collected_vehicle_id = COALESCE($3, collected_vehicle_id),
			collected_start_date = COALESCE($4, collected_start_date),
			collected_end_date   = COALESCE($5, collected_end_date),
			ready_for_payment =
				COALESCE($3, collected_vehicle_id) IS NOT NULL
				AND COALESCE($4, collected_start_date) IS NOT NULL
				AND COALESCE($5, collected_end_date) IS NOT NULL,
			updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING ` + leadColumns + `
	`
	lead, err := scanLead(r.db.QueryRow(ctx, query,
		toPGUUID(id),
		tenantID,
		toPGNullableUUID(update.VehicleID),
		toPGNullableDate(update.StartDate),
		toPGNullableDate(update.EndDate),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: update slots: %w", err)
	}
	return lead, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		lead      Lead
		id        pgtype.UUID
		vehicleID pgtype.UUID
		startDate pgtype.Date
		endDate   pgtype.Date
	)
	if err := row.Scan(
		&id,
		&lead.TenantID,
		&lead.Name,
		&lead.Phone,
		&lead.Status,
		&lead.Source,
		&vehicleID,
		&startDate,
		&endDate,
		&lead.ReadyForPayment,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	lead.ID = uuid.UUID(id.Bytes)
	if vehicleID.Valid {
		vid := uuid.UUID(vehicleID.Bytes)
		lead.CollectedVehicleID = &vid
	}
	if startDate.Valid {
		d := startDate.Time
		lead.CollectedStartDate = &d
	}
	if endDate.Valid {
		d := endDate.Time
		lead.CollectedEndDate = &d
	}
	return &lead, nil
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

func toPGNullableDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}
