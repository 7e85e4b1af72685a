package messaging

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

// Direction of a conversation turn.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// ErrInvalidDirection is returned for directions other than inbound/outbound.
var ErrInvalidDirection = errors.New("messaging: direction must be inbound or outbound")

// Message is one turn of an SMS conversation. Rows are append-only.
type Message struct {
	ID        uuid.UUID `json:"id"`
	TenantID  string    `json:"tenant_id"`
	LeadID    uuid.UUID `json:"lead_id"`
	Direction string    `json:"direction"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists conversation turns.
type Store interface {
	// Append durably records one turn. Pure logging: no delivery coupling.
	Append(ctx context.Context, tenantID string, leadID uuid.UUID, direction, body string) error
	// Recent returns the last limit messages for the lead, oldest first.
	Recent(ctx context.Context, tenantID string, leadID uuid.UUID, limit int) ([]Message, error)
}

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore stores messages in the relational database.
type PostgresStore struct {
	db Querier
}

// NewPostgresStore initializes a store backed by a pgx pool or tx.
func NewPostgresStore(db Querier) *PostgresStore {
	if db == nil {
		panic("messaging: pgx querier required")
	}
	return &PostgresStore{db: db}
}

// Append inserts one turn.
func (s *PostgresStore) Append(ctx context.Context, tenantID string, leadID uuid.UUID, direction, body string) error {
	if direction != DirectionInbound && direction != DirectionOutbound {
		return ErrInvalidDirection
	}
	query := `
		INSERT INTO messages (id, tenant_id, lead_id, direction, body)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.Exec(ctx, query,
		pgtype.UUID{Bytes: [16]byte(uuid.New()), Valid: true},
		tenantID,
		pgtype.UUID{Bytes: [16]byte(leadID), Valid: true},
		direction,
		body,
	)
	if err != nil {
		return fmt.Errorf("messaging: append: %w", err)
	}
	return nil
}

// Recent selects the newest limit rows and reverses them so callers see the
// conversation oldest first.
func (s *PostgresStore) Recent(ctx context.Context, tenantID string, leadID uuid.UUID, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 15
	}
	query := `
		SELECT id, tenant_id, lead_id, direction, body, created_at
		FROM messages
		WHERE tenant_id = $1 AND lead_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := s.db.Query(ctx, query, tenantID, pgtype.UUID{Bytes: [16]byte(leadID), Valid: true}, limit)
	if err != nil {
		return nil, fmt.Errorf("messaging: recent: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var (
			m   Message
			id  pgtype.UUID
			lid pgtype.UUID
		)
		if err := rows.Scan(&id, &m.TenantID, &lid, &m.Direction, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("messaging: scan: %w", err)
		}
		m.ID = uuid.UUID(id.Bytes)
		m.LeadID = uuid.UUID(lid.Bytes)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("messaging: recent: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// InMemoryStore is a Store backed by a slice, used in tests and local
// development.
type InMemoryStore struct {
	mu       sync.RWMutex
	messages []Message
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append records one turn.
func (s *InMemoryStore) Append(ctx context.Context, tenantID string, leadID uuid.UUID, direction, body string) error {
	if direction != DirectionInbound && direction != DirectionOutbound {
		return ErrInvalidDirection
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{
		ID:        uuid.New(),
		TenantID:  tenantID,
		LeadID:    leadID,
		Direction: direction,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// Recent returns the last limit messages for the lead, oldest first.
func (s *InMemoryStore) Recent(ctx context.Context, tenantID string, leadID uuid.UUID, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 15
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Message
	for _, m := range s.messages {
		if m.TenantID == tenantID && m.LeadID == leadID {
			matched = append(matched, m)
		}
	}
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	out := make([]Message, len(matched))
	copy(out, matched)
	return out, nil
}
