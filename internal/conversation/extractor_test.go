package conversation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willcldrr/scalexotics-sub002/internal/fleet"
	"github.com/willcldrr/scalexotics-sub002/internal/leads"
)

func fixedExtractor(now time.Time) *SlotExtractor {
	return &SlotExtractor{now: func() time.Time { return now }}
}

func testFleet() []fleet.Vehicle {
	return []fleet.Vehicle{
		{ID: uuid.New(), Make: "Lamborghini", Model: "Huracan", Year: 2023},
		{ID: uuid.New(), Make: "Ferrari", Model: "488 Spider", Year: 2022},
		{ID: uuid.New(), Make: "Rolls-Royce", Model: "Ghost", Year: 2024},
	}
}

func TestMatchVehicle(t *testing.T) {
	vehicles := testFleet()

	tests := []struct {
		name string
		text string
		want *uuid.UUID
	}{
		{"full make model", "I'd love the Lamborghini Huracan please", &vehicles[0].ID},
		{"model only", "is the huracan available?", &vehicles[0].ID},
		{"make only", "do you have a ferrari", &vehicles[1].ID},
		{"make inside plural", "what ferraris do you have", &vehicles[1].ID},
		{"case insensitive", "THE GHOST LOOKS AMAZING", &vehicles[2].ID},
		{"no mention", "how much is a rental", nil},
		// Catalog order breaks ties: an earlier vehicle's make beats a
		// later vehicle's model when both appear.
		{"catalog order wins", "a Lamborghini, or maybe the Ghost?", &vehicles[0].ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchVehicle(tt.text, vehicles)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, got.ID)
		})
	}
}

func TestExtractDates(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	e := fixedExtractor(now)

	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		text string
		want []time.Time
	}{
		{"month name single", "how about March 15?", []time.Time{date(2026, time.March, 15)}},
		{"month name with year", "March 15, 2027 works", []time.Time{date(2027, time.March, 15)}},
		{"ordinal suffix", "the 2nd... I mean March 3rd", []time.Time{date(2026, time.March, 3)}},
		{"dash range", "March 15-17", []time.Time{date(2026, time.March, 15), date(2026, time.March, 17)}},
		{"to range same month", "March 15 to 17 please", []time.Time{date(2026, time.March, 15), date(2026, time.March, 17)}},
		{"to range cross month", "from March 30 to April 2", []time.Time{date(2026, time.March, 30), date(2026, time.April, 2)}},
		{"two separate mentions", "pick up March 15 and return March 17", []time.Time{date(2026, time.March, 15), date(2026, time.March, 17)}},
		{"iso date", "arriving 2026-03-15", []time.Time{date(2026, time.March, 15)}},
		{"slash with year", "3/15/2026 to 3/17/2026", []time.Time{date(2026, time.March, 15), date(2026, time.March, 17)}},
		{"slash two digit year", "3/15/26", []time.Time{date(2026, time.March, 15)}},
		{"slash no year", "how about 3/15?", []time.Time{date(2026, time.March, 15)}},
		{"past date rolls forward", "January 10 works", []time.Time{date(2027, time.January, 10)}},
		{"invalid day rejected", "February 30 maybe", nil},
		{"no dates", "what colors do you have", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.extractDates(tt.text)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.True(t, got[i].Equal(tt.want[i]), "date %d: got %s want %s", i, got[i], tt.want[i])
			}
		})
	}
}

func TestExtractInboundWinsOverReply(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	e := fixedExtractor(now)
	vehicles := testFleet()

	update := e.Extract(
		"I want the Huracan from March 15 to March 17",
		"Great choice, the Ferrari is also free April 1 to April 3!",
		vehicles,
	)

	require.NotNil(t, update.VehicleID)
	assert.Equal(t, vehicles[0].ID, *update.VehicleID)
	require.NotNil(t, update.StartDate)
	require.NotNil(t, update.EndDate)
	assert.Equal(t, time.March, update.StartDate.Month())
	assert.Equal(t, 15, update.StartDate.Day())
	assert.Equal(t, 17, update.EndDate.Day())
}

func TestExtractFillsFromReplyWhenInboundSilent(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	e := fixedExtractor(now)
	vehicles := testFleet()

	update := e.Extract(
		"yes let's do it",
		"Perfect, the Lamborghini Huracan for March 15 to March 17 it is.",
		vehicles,
	)

	require.NotNil(t, update.VehicleID)
	assert.Equal(t, vehicles[0].ID, *update.VehicleID)
	require.NotNil(t, update.StartDate)
	require.NotNil(t, update.EndDate)
}

func TestExtractNothing(t *testing.T) {
	e := fixedExtractor(time.Now())
	update := e.Extract("hi there", "Hello! Which car are you interested in?", testFleet())
	assert.Equal(t, leads.SlotUpdate{}, update)
}
