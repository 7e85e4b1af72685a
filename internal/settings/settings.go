// Package settings holds the per-tenant configuration that shapes the SMS
// assistant: business identity, message templates, tone, and deposit policy.
package settings

// Tone selects the assistant's communication style.
type Tone string

const (
	ToneFriendly     Tone = "friendly"
	ToneProfessional Tone = "professional"
	ToneLuxury       Tone = "luxury"
	ToneEnergetic    Tone = "energetic"
)

// Valid reports whether the tone is one of the four known styles.
func (t Tone) Valid() bool {
	switch t {
	case ToneFriendly, ToneProfessional, ToneLuxury, ToneEnergetic:
		return true
	}
	return false
}

// Settings configures the assistant for one tenant.
type Settings struct {
	TenantID       string `json:"tenant_id"`
	BusinessName   string `json:"business_name"`
	BusinessPhone  string `json:"business_phone"`
	BusinessHours  string `json:"business_hours"`
	Greeting       string `json:"greeting"`
	BookingProcess string `json:"booking_process"`
	PricingNotes   string `json:"pricing_notes"`
	Tone           Tone   `json:"tone"`
	RequireDeposit bool   `json:"require_deposit"`
	DepositPercent int    `json:"deposit_percent"`
}

// EffectiveTone falls back to friendly for unknown or missing tones.
func (s Settings) EffectiveTone() Tone {
	if s.Tone.Valid() {
		return s.Tone
	}
	return ToneFriendly
}

// Default returns the hardcoded settings used when a tenant has no row.
// Missing configuration must never block a customer-facing reply.
func Default(tenantID string) Settings {
	return Settings{
		TenantID:       tenantID,
		BusinessName:   "Exotic Rentals",
		BusinessPhone:  "",
		BusinessHours:  "Mon-Sun 9am-7pm",
		Greeting:       "Thanks for reaching out! Which car are you interested in?",
		BookingProcess: "Pick a car, choose your dates, and secure the booking with a deposit.",
		PricingNotes:   "Rates are per day. A deposit secures your reservation.",
		Tone:           ToneFriendly,
		RequireDeposit: true,
		DepositPercent: 25,
	}
}
