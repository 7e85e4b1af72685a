package settings

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLoadFallsBackToDefault(t *testing.T) {
	loader := NewLoader(NewInMemoryRepository(), nil, time.Minute, nil)

	got := loader.Load(context.Background(), "tenant-1")

	want := Default("tenant-1")
	if got != want {
		t.Fatalf("Load with no row = %+v, want defaults %+v", got, want)
	}
	if got.EffectiveTone() != ToneFriendly {
		t.Errorf("default tone = %q, want friendly", got.EffectiveTone())
	}
}

func TestLoadAppliesConfiguredDefaults(t *testing.T) {
	loader := NewLoader(NewInMemoryRepository(), nil, time.Minute, nil).
		WithDefaults("Velocity Exotics", 40)

	got := loader.Load(context.Background(), "tenant-1")
	if got.BusinessName != "Velocity Exotics" {
		t.Fatalf("business name = %q, want configured default", got.BusinessName)
	}
	if got.DepositPercent != 40 {
		t.Fatalf("deposit percent = %d, want 40", got.DepositPercent)
	}
	// Everything else still comes from the package default.
	if got.Tone != ToneFriendly || !got.RequireDeposit {
		t.Fatalf("unexpected fallback settings: %+v", got)
	}
}

func TestLoadConfiguredDefaultsIgnoreStoredRows(t *testing.T) {
	repo := NewInMemoryRepository()
	repo.Put(Settings{TenantID: "tenant-1", BusinessName: "Apex Exotics", DepositPercent: 30, Tone: ToneLuxury})
	loader := NewLoader(repo, nil, time.Minute, nil).WithDefaults("Velocity Exotics", 40)

	got := loader.Load(context.Background(), "tenant-1")
	if got.BusinessName != "Apex Exotics" || got.DepositPercent != 30 {
		t.Fatalf("stored row must win over configured defaults, got %+v", got)
	}
}

func TestLoadReturnsStoredRow(t *testing.T) {
	repo := NewInMemoryRepository()
	repo.Put(Settings{
		TenantID:       "tenant-1",
		BusinessName:   "Apex Exotics",
		Tone:           ToneLuxury,
		RequireDeposit: true,
		DepositPercent: 30,
	})
	loader := NewLoader(repo, nil, time.Minute, nil)

	got := loader.Load(context.Background(), "tenant-1")
	if got.BusinessName != "Apex Exotics" || got.DepositPercent != 30 {
		t.Fatalf("Load = %+v", got)
	}
}

func TestLoadCachesThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := NewInMemoryRepository()
	repo.Put(Settings{TenantID: "tenant-1", BusinessName: "Apex Exotics", Tone: ToneEnergetic})
	loader := NewLoader(repo, cache, time.Minute, nil)
	ctx := context.Background()

	first := loader.Load(ctx, "tenant-1")
	if first.BusinessName != "Apex Exotics" {
		t.Fatalf("first load: %+v", first)
	}

	// Mutate the backing row; the cached copy should still be served.
	repo.Put(Settings{TenantID: "tenant-1", BusinessName: "Renamed", Tone: ToneEnergetic})
	second := loader.Load(ctx, "tenant-1")
	if second.BusinessName != "Apex Exotics" {
		t.Fatalf("expected cached settings, got %+v", second)
	}

	loader.Invalidate(ctx, "tenant-1")
	third := loader.Load(ctx, "tenant-1")
	if third.BusinessName != "Renamed" {
		t.Fatalf("expected fresh settings after invalidate, got %+v", third)
	}
}

func TestEffectiveToneUnknown(t *testing.T) {
	s := Settings{Tone: "sassy"}
	if s.EffectiveTone() != ToneFriendly {
		t.Fatalf("unknown tone should default to friendly, got %q", s.EffectiveTone())
	}
}
