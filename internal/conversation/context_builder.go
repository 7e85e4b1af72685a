package conversation

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/willcldrr/scalexotics-sub002/internal/bookings"
	"github.com/willcldrr/scalexotics-sub002/internal/fleet"
	"github.com/willcldrr/scalexotics-sub002/internal/leads"
	"github.com/willcldrr/scalexotics-sub002/internal/messaging"
	"github.com/willcldrr/scalexotics-sub002/internal/settings"
	"github.com/willcldrr/scalexotics-sub002/pkg/logging"
)

var builderTracer = otel.Tracer("scalexotics.internal.conversation.context")

// ConversationContext is the full read-side snapshot for one turn.
type ConversationContext struct {
	Prompt  PromptContext
	History []messaging.Message
}

// ContextBuilder assembles the per-turn snapshot. Every source degrades
// independently: a failed fetch logs and contributes an empty section so the
// customer still gets a reply.
type ContextBuilder struct {
	settings      *settings.Loader
	vehicles      fleet.Repository
	bookings      bookings.Repository
	messages      messaging.Store
	historyWindow int
	logger        *logging.Logger
	now           func() time.Time
}

// NewContextBuilder wires the read-side repositories.
func NewContextBuilder(
	settingsLoader *settings.Loader,
	vehicleRepo fleet.Repository,
	bookingRepo bookings.Repository,
	messageStore messaging.Store,
	historyWindow int,
	logger *logging.Logger,
) *ContextBuilder {
	if historyWindow <= 0 {
		historyWindow = 15
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ContextBuilder{
		settings:      settingsLoader,
		vehicles:      vehicleRepo,
		bookings:      bookingRepo,
		messages:      messageStore,
		historyWindow: historyWindow,
		logger:        logger,
		now:           time.Now,
	}
}

// Build fetches settings, fleet, blocking bookings, and recent history
// concurrently for the given lead.
func (b *ContextBuilder) Build(ctx context.Context, lead *leads.Lead) ConversationContext {
	ctx, span := builderTracer.Start(ctx, "conversation.build_context")
	defer span.End()
	span.SetAttributes(
		attribute.String("scalexotics.tenant_id", lead.TenantID),
		attribute.String("scalexotics.lead_id", lead.ID.String()),
	)

	out := ConversationContext{
		Prompt: PromptContext{
			Lead: lead,
			Now:  b.now().UTC(),
		},
	}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		out.Prompt.Settings = b.settings.Load(ctx, lead.TenantID)
	}()

	go func() {
		defer wg.Done()
		vehicles, err := b.vehicles.ListActive(ctx, lead.TenantID)
		if err != nil {
			b.logger.Error("context builder: vehicle fetch failed", "tenant_id", lead.TenantID, "error", err)
			return
		}
		out.Prompt.Vehicles = vehicles
	}()

	go func() {
		defer wg.Done()
		blocking, err := b.bookings.ListBlocking(ctx, lead.TenantID)
		if err != nil {
			b.logger.Error("context builder: booking fetch failed", "tenant_id", lead.TenantID, "error", err)
			return
		}
		out.Prompt.Blocking = blocking
	}()

	go func() {
		defer wg.Done()
		history, err := b.messages.Recent(ctx, lead.TenantID, lead.ID, b.historyWindow)
		if err != nil {
			b.logger.Error("context builder: history fetch failed", "tenant_id", lead.TenantID, "lead_id", lead.ID, "error", err)
			return
		}
		out.History = history
	}()

	wg.Wait()

	if out.Prompt.Settings.TenantID == "" {
		out.Prompt.Settings = settings.Default(lead.TenantID)
	}
	return out
}
