package leads

import (
	"time"

	"github.com/google/uuid"
)

// Lead statuses used by this subsystem. Other statuses exist in the
// pipeline board but are managed outside the assistant.
const (
	StatusNew = "new"

	SourceSMS = "sms"
)

// Lead represents a prospective renter engaged over SMS. The collected_*
// fields are the booking slots accumulated across the conversation.
type Lead struct {
	ID                 uuid.UUID  `json:"id"`
	TenantID           string     `json:"tenant_id"`
	Name               string     `json:"name"`
	Phone              string     `json:"phone"`
	Status             string     `json:"status"`
	Source             string     `json:"source"`
	CollectedVehicleID *uuid.UUID `json:"collected_vehicle_id,omitempty"`
	CollectedStartDate *time.Time `json:"collected_start_date,omitempty"`
	CollectedEndDate   *time.Time `json:"collected_end_date,omitempty"`
	ReadyForPayment    bool       `json:"ready_for_payment"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// SlotUpdate is a partial update merged into a lead's collected slots.
// Nil fields are left untouched.
type SlotUpdate struct {
	VehicleID *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}

// HasUpdates reports whether the update carries at least one field.
func (u SlotUpdate) HasUpdates() bool {
	return u.VehicleID != nil || u.StartDate != nil || u.EndDate != nil
}

// Apply merges the update into the lead and recomputes ready_for_payment
// from the merged values. Prior slots survive unless explicitly overwritten.
func (u SlotUpdate) Apply(lead *Lead) {
	if u.VehicleID != nil {
		lead.CollectedVehicleID = u.VehicleID
	}
	if u.StartDate != nil {
		lead.CollectedStartDate = u.StartDate
	}
	if u.EndDate != nil {
		lead.CollectedEndDate = u.EndDate
	}
	lead.ReadyForPayment = lead.CollectedVehicleID != nil &&
		lead.CollectedStartDate != nil &&
		lead.CollectedEndDate != nil
}
