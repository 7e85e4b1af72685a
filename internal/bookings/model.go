package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a booking. Only pending and confirmed
// bookings block a vehicle's calendar.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// BlocksAvailability reports whether a booking in this status counts toward
// calendar conflicts.
func (s Status) BlocksAvailability() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Booking reserves one vehicle for a date range.
type Booking struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  string     `json:"tenant_id"`
	VehicleID uuid.UUID  `json:"vehicle_id"`
	LeadID    *uuid.UUID `json:"lead_id,omitempty"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// Overlaps reports whether two half-open [start, end) ranges intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// HasConflict reports whether any availability-blocking booking for the
// vehicle overlaps the candidate range.
func HasConflict(existing []Booking, vehicleID uuid.UUID, start, end time.Time) bool {
	for _, b := range existing {
		if b.VehicleID != vehicleID {
			continue
		}
		if !b.Status.BlocksAvailability() {
			continue
		}
		if Overlaps(b.StartDate, b.EndDate, start, end) {
			return true
		}
	}
	return false
}
