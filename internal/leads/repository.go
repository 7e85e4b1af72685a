package leads

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage.
type Repository interface {
	// FindOrCreate returns the lead matching the phone number for this
	// tenant, creating a fresh one when no match exists.
	FindOrCreate(ctx context.Context, tenantID, phone string) (*Lead, error)
	// GetByID fetches a lead scoped to the tenant.
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*Lead, error)
	// UpdateSlots merges the partial update into the stored slots and
	// recomputes ready_for_payment from the merged values.
	UpdateSlots(ctx context.Context, tenantID string, id uuid.UUID, update SlotUpdate) (*Lead, error)
}

// InMemoryRepository is a Repository backed by a map, used in tests and
// local development.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[uuid.UUID]*Lead
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[uuid.UUID]*Lead),
	}
}

// FindOrCreate matches on the lenient digit comparison; first match wins.
func (r *InMemoryRepository) FindOrCreate(ctx context.Context, tenantID, phone string) (*Lead, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrMissingTenantID
	}
	if NormalizePhone(phone) == "" {
		return nil, ErrMissingPhone
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, lead := range r.leads {
		if lead.TenantID != tenantID {
			continue
		}
		if phonesRelated(lead.Phone, phone) {
			cp := *lead
			return &cp, nil
		}
	}

	now := time.Now().UTC()
	lead := &Lead{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      placeholderName(phone),
		Phone:     phone,
		Status:    StatusNew,
		Source:    SourceSMS,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.leads[lead.ID] = lead

	cp := *lead
	return &cp, nil
}

// GetByID retrieves a lead scoped to the tenant.
func (r *InMemoryRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok || lead.TenantID != tenantID {
		return nil, ErrLeadNotFound
	}
	cp := *lead
	return &cp, nil
}

// UpdateSlots merges the update and rederives ready_for_payment.
func (r *InMemoryRepository) UpdateSlots(ctx context.Context, tenantID string, id uuid.UUID, update SlotUpdate) (*Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok || lead.TenantID != tenantID {
		return nil, ErrLeadNotFound
	}

	update.Apply(lead)
	lead.UpdatedAt = time.Now().UTC()

	cp := *lead
	return &cp, nil
}
