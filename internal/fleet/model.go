package fleet

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the operational state of a vehicle. Inactive is a soft delete:
// the vehicle stays in the table but is invisible to the assistant.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusRented      Status = "rented"
	StatusMaintenance Status = "maintenance"
	StatusInactive    Status = "inactive"
)

// Vehicle is a fleet asset available for rental.
type Vehicle struct {
	ID             uuid.UUID `json:"id"`
	TenantID       string    `json:"tenant_id"`
	Make           string    `json:"make"`
	Model          string    `json:"model"`
	Year           int       `json:"year"`
	DailyRateCents int64     `json:"daily_rate_cents"`
	Type           string    `json:"type"` // exotic, luxury, suv, convertible
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// DisplayName renders "2023 Lamborghini Huracan" for catalog listings.
func (v Vehicle) DisplayName() string {
	return fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model)
}
