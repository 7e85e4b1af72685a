package payments

import (
	"math"
	"time"
)

// Quote is the deterministic financial breakdown for a rental range.
type Quote struct {
	Days         int
	TotalCents   int64
	DepositCents int64
}

// RentalDays counts billable days for a [start, end] range, both endpoints
// inclusive, with partial days rounded up. A same-day or inverted range is
// floored to a 1-day rental rather than rejected.
func RentalDays(start, end time.Time) int {
	days := int(math.Ceil(end.Sub(start).Hours()/24)) + 1
	if days < 1 {
		return 1
	}
	return days
}

// BuildQuote prices a range at the vehicle's daily rate. When a deposit is
// required the deposit is depositPct percent of the total, truncated to the
// cent; otherwise the full total is due up front.
func BuildQuote(start, end time.Time, dailyRateCents int64, requireDeposit bool, depositPct int) Quote {
	days := RentalDays(start, end)
	total := int64(days) * dailyRateCents
	deposit := total
	if requireDeposit {
		deposit = total * int64(depositPct) / 100
	}
	return Quote{
		Days:         days,
		TotalCents:   total,
		DepositCents: deposit,
	}
}
