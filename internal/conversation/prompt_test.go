package conversation

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/willcldrr/scalexotics-sub002/internal/bookings"
	"github.com/willcldrr/scalexotics-sub002/internal/fleet"
	"github.com/willcldrr/scalexotics-sub002/internal/leads"
	"github.com/willcldrr/scalexotics-sub002/internal/settings"
)

func basePromptContext() PromptContext {
	cfg := settings.Default("tenant-1")
	cfg.BusinessName = "Apex Exotics"
	return PromptContext{
		Settings: cfg,
		Vehicles: []fleet.Vehicle{
			{ID: uuid.New(), Make: "Lamborghini", Model: "Huracan", Year: 2023, DailyRateCents: 150000, Status: fleet.StatusAvailable},
			{ID: uuid.New(), Make: "Ferrari", Model: "488 Spider", Year: 2022, DailyRateCents: 180000, Status: fleet.StatusAvailable},
		},
		Now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestBuildSystemPromptCatalog(t *testing.T) {
	prompt := BuildSystemPrompt(basePromptContext())

	assert.Contains(t, prompt, "Apex Exotics")
	assert.Contains(t, prompt, "2023 Lamborghini Huracan: $1500/day")
	assert.Contains(t, prompt, "2022 Ferrari 488 Spider: $1800/day")
	assert.Contains(t, prompt, "Today's date is Sunday, March 1, 2026")
	assert.Contains(t, prompt, PaymentSentinel)
}

func TestBuildSystemPromptGreeting(t *testing.T) {
	pc := basePromptContext()
	pc.Settings.Greeting = "Welcome to Apex! Ready to drive something wild?"
	assert.Contains(t, BuildSystemPrompt(pc), `"Welcome to Apex! Ready to drive something wild?"`)

	pc.Settings.Greeting = ""
	assert.NotContains(t, BuildSystemPrompt(pc), "first message")
}

func TestBuildSystemPromptTones(t *testing.T) {
	for tone, instruction := range toneInstructions {
		pc := basePromptContext()
		pc.Settings.Tone = tone
		assert.Contains(t, BuildSystemPrompt(pc), instruction, "tone %s", tone)
	}

	pc := basePromptContext()
	pc.Settings.Tone = settings.Tone("grumpy")
	assert.Contains(t, BuildSystemPrompt(pc), toneInstructions[settings.ToneFriendly])
}

func TestBuildSystemPromptAvailability(t *testing.T) {
	pc := basePromptContext()
	pc.Blocking = []bookings.Booking{
		{
			VehicleID: pc.Vehicles[0].ID,
			StartDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
			Status:    bookings.StatusConfirmed,
		},
		// Past booking, must not surface.
		{
			VehicleID: pc.Vehicles[1].ID,
			StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
			Status:    bookings.StatusConfirmed,
		},
	}

	prompt := BuildSystemPrompt(pc)
	assert.Contains(t, prompt, "booked Mar 10 to Mar 12, 2026")
	assert.NotContains(t, prompt, "Jan 1")
}

func TestBuildSystemPromptLeadProgress(t *testing.T) {
	pc := basePromptContext()
	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	pc.Lead = &leads.Lead{
		ID:                 uuid.New(),
		TenantID:           "tenant-1",
		CollectedVehicleID: &pc.Vehicles[0].ID,
		CollectedStartDate: &start,
	}

	prompt := BuildSystemPrompt(pc)
	assert.Contains(t, prompt, "vehicle: 2023 Lamborghini Huracan")
	assert.Contains(t, prompt, "start date: Sunday, March 15, 2026")
	assert.Contains(t, prompt, "Still needed: their end date")
	assert.Contains(t, prompt, "Do NOT ask for these again")
}

func TestBuildSystemPromptQuotesDeterministicPricing(t *testing.T) {
	pc := basePromptContext()
	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	pc.Lead = &leads.Lead{
		ID:                 uuid.New(),
		TenantID:           "tenant-1",
		CollectedVehicleID: &pc.Vehicles[0].ID,
		CollectedStartDate: &start,
		CollectedEndDate:   &end,
		ReadyForPayment:    true,
	}

	prompt := BuildSystemPrompt(pc)
	assert.Contains(t, prompt, "3 day(s)")
	assert.Contains(t, prompt, "total $4500")
	assert.Contains(t, prompt, "$1125 deposit (25%)")
}

func TestBuildSystemPromptFlagsConflictingRange(t *testing.T) {
	pc := basePromptContext()
	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	lead := &leads.Lead{
		ID:                 uuid.New(),
		TenantID:           "tenant-1",
		CollectedVehicleID: &pc.Vehicles[0].ID,
		CollectedStartDate: &start,
		CollectedEndDate:   &end,
		ReadyForPayment:    true,
	}
	pc.Lead = lead

	otherLead := uuid.New()
	pc.Blocking = []bookings.Booking{{
		VehicleID: pc.Vehicles[0].ID,
		LeadID:    &otherLead,
		StartDate: time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC),
		Status:    bookings.StatusConfirmed,
	}}

	prompt := BuildSystemPrompt(pc)
	assert.Contains(t, prompt, "requested dates clash")

	// The lead's own pending hold is not a clash.
	pc.Blocking[0].LeadID = &lead.ID
	pc.Blocking[0].Status = bookings.StatusPending
	prompt = BuildSystemPrompt(pc)
	assert.NotContains(t, prompt, "requested dates clash")
}

func TestBuildSystemPromptEmptyFleet(t *testing.T) {
	pc := basePromptContext()
	pc.Vehicles = nil
	prompt := BuildSystemPrompt(pc)
	assert.Contains(t, prompt, "no vehicles are currently listed")
}

func TestFormatDollars(t *testing.T) {
	assert.Equal(t, "1500", formatDollars(150000))
	assert.Equal(t, "1125", formatDollars(112500))
	assert.Equal(t, "1237.53", formatDollars(123753))
}

func TestToneInstructionsCoverAllTones(t *testing.T) {
	for _, tone := range []settings.Tone{settings.ToneFriendly, settings.ToneProfessional, settings.ToneLuxury, settings.ToneEnergetic} {
		instruction, ok := toneInstructions[tone]
		assert.True(t, ok, "missing instruction for %s", tone)
		assert.False(t, strings.TrimSpace(instruction) == "")
	}
}
