package leads

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+1 (555) 123-4567", "15551234567"},
		{"5551234567", "5551234567"},
		{"555.123.4567", "5551234567"},
		{"no digits", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFindOrCreateIdempotentAcrossFormats(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	first, err := repo.FindOrCreate(ctx, "tenant-1", "+1 (555) 123-4567")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	second, err := repo.FindOrCreate(ctx, "tenant-1", "5551234567")
	if err != nil {
		t.Fatalf("FindOrCreate second: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected same lead for equivalent numbers, got %s and %s", first.ID, second.ID)
	}
	if first.Status != StatusNew || first.Source != SourceSMS {
		t.Errorf("new lead status/source = %q/%q, want new/sms", first.Status, first.Source)
	}
	if first.Name != "SMS Lead 4567" {
		t.Errorf("placeholder name = %q", first.Name)
	}
}

func TestFindOrCreateScopedByTenant(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	a, _ := repo.FindOrCreate(ctx, "tenant-a", "5551234567")
	b, _ := repo.FindOrCreate(ctx, "tenant-b", "5551234567")
	if a.ID == b.ID {
		t.Fatal("same phone in different tenants must yield distinct leads")
	}
}

func TestFindOrCreateValidation(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if _, err := repo.FindOrCreate(ctx, "", "5551234567"); err != ErrMissingTenantID {
		t.Errorf("missing tenant: got %v", err)
	}
	if _, err := repo.FindOrCreate(ctx, "tenant-1", "---"); err != ErrMissingPhone {
		t.Errorf("digitless phone: got %v", err)
	}
}

func TestUpdateSlotsDerivesReadiness(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	lead, err := repo.FindOrCreate(ctx, "tenant-1", "5551234567")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	vehicleID := uuid.New()
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)

	// One slot at a time: readiness flips only when all three are set.
	lead, err = repo.UpdateSlots(ctx, "tenant-1", lead.ID, SlotUpdate{VehicleID: &vehicleID})
	if err != nil {
		t.Fatalf("UpdateSlots vehicle: %v", err)
	}
	if lead.ReadyForPayment {
		t.Fatal("ready_for_payment should be false with only a vehicle")
	}

	lead, err = repo.UpdateSlots(ctx, "tenant-1", lead.ID, SlotUpdate{StartDate: &start})
	if err != nil {
		t.Fatalf("UpdateSlots start: %v", err)
	}
	if lead.ReadyForPayment {
		t.Fatal("ready_for_payment should be false with vehicle + start only")
	}
	if lead.CollectedVehicleID == nil || *lead.CollectedVehicleID != vehicleID {
		t.Fatal("earlier vehicle slot must survive later partial updates")
	}

	lead, err = repo.UpdateSlots(ctx, "tenant-1", lead.ID, SlotUpdate{EndDate: &end})
	if err != nil {
		t.Fatalf("UpdateSlots end: %v", err)
	}
	if !lead.ReadyForPayment {
		t.Fatal("ready_for_payment should be true once all three slots are set")
	}
	if !lead.CollectedStartDate.Equal(start) || !lead.CollectedEndDate.Equal(end) {
		t.Fatalf("dates = %v/%v, want %v/%v", lead.CollectedStartDate, lead.CollectedEndDate, start, end)
	}
}

func TestUpdateSlotsOverwrite(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	lead, _ := repo.FindOrCreate(ctx, "tenant-1", "5551234567")
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	later := time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC)

	lead, _ = repo.UpdateSlots(ctx, "tenant-1", lead.ID, SlotUpdate{StartDate: &start})
	lead, err := repo.UpdateSlots(ctx, "tenant-1", lead.ID, SlotUpdate{StartDate: &later})
	if err != nil {
		t.Fatalf("UpdateSlots: %v", err)
	}
	if !lead.CollectedStartDate.Equal(later) {
		t.Fatalf("changed dates must overwrite: got %v, want %v", lead.CollectedStartDate, later)
	}
}

func TestUpdateSlotsUnknownLead(t *testing.T) {
	repo := NewInMemoryRepository()
	_, err := repo.UpdateSlots(context.Background(), "tenant-1", uuid.New(), SlotUpdate{})
	if err != ErrLeadNotFound {
		t.Fatalf("got %v, want ErrLeadNotFound", err)
	}
}

func TestSlotUpdateHasUpdates(t *testing.T) {
	if (SlotUpdate{}).HasUpdates() {
		t.Error("empty update should report no updates")
	}
	id := uuid.New()
	if !(SlotUpdate{VehicleID: &id}).HasUpdates() {
		t.Error("vehicle-only update should report updates")
	}
}
