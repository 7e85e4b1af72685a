package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/willcldrr/scalexotics-sub002/internal/bookings"
	"github.com/willcldrr/scalexotics-sub002/internal/fleet"
	"github.com/willcldrr/scalexotics-sub002/internal/leads"
	"github.com/willcldrr/scalexotics-sub002/internal/messaging"
	"github.com/willcldrr/scalexotics-sub002/internal/observability/metrics"
	"github.com/willcldrr/scalexotics-sub002/internal/payments"
	"github.com/willcldrr/scalexotics-sub002/pkg/logging"
)

var assistantTracer = otel.Tracer("scalexotics.internal.conversation.assistant")

const paymentLinkHeuristic = "payment link"

// AssistantConfig bounds the external calls made during one turn.
type AssistantConfig struct {
	Model           string
	MaxTokens       int32
	Temperature     float32
	LLMTimeout      time.Duration
	CheckoutTimeout time.Duration
}

func (c *AssistantConfig) applyDefaults() {
	if c.MaxTokens <= 0 {
		c.MaxTokens = 220
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = 20 * time.Second
	}
	if c.CheckoutTimeout <= 0 {
		c.CheckoutTimeout = 10 * time.Second
	}
}

// Assistant runs one conversation turn per inbound SMS: build context,
// generate a reply, persist extracted slots, and trigger payment links.
// Every failure degrades to a usable reply; the customer always hears back.
type Assistant struct {
	builder   *ContextBuilder
	llm       LLMClient
	extractor *SlotExtractor
	leads     leads.Repository
	bookings  bookings.Repository
	checkout  payments.LinkCreator
	cfg       AssistantConfig
	locker    *leadLocker
	metrics   *metrics.AssistantMetrics
	logger    *logging.Logger
}

// NewAssistant wires the turn pipeline.
func NewAssistant(
	builder *ContextBuilder,
	llm LLMClient,
	leadRepo leads.Repository,
	bookingRepo bookings.Repository,
	checkout payments.LinkCreator,
	cfg AssistantConfig,
	m *metrics.AssistantMetrics,
	logger *logging.Logger,
) *Assistant {
	if builder == nil {
		panic("conversation: context builder cannot be nil")
	}
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if leadRepo == nil {
		panic("conversation: lead repository cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg.applyDefaults()

	return &Assistant{
		builder:   builder,
		llm:       llm,
		extractor: NewSlotExtractor(),
		leads:     leadRepo,
		bookings:  bookingRepo,
		checkout:  checkout,
		cfg:       cfg,
		locker:    newLeadLocker(),
		metrics:   m,
		logger:    logger,
	}
}

// HandleMessage processes one inbound SMS and returns the outbound reply.
// It never returns an error to the caller; degraded turns return the
// fallback reply.
func (a *Assistant) HandleMessage(ctx context.Context, lead *leads.Lead, inbound string) string {
	start := time.Now()
	ctx, span := assistantTracer.Start(ctx, "conversation.turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("scalexotics.tenant_id", lead.TenantID),
		attribute.String("scalexotics.lead_id", lead.ID.String()),
	)

	unlock := a.locker.Lock(lead.TenantID + ":" + lead.ID.String())
	defer unlock()

	cc := a.builder.Build(ctx, lead)

	reply, genErr := a.generate(ctx, cc, inbound)
	if genErr != nil {
		a.logger.Error("assistant: response generation failed",
			"tenant_id", lead.TenantID, "lead_id", lead.ID, "error", genErr)
		span.RecordError(genErr)
	}

	// Slots are extracted even on generation failure so facts stated in
	// the inbound text are not lost.
	currentLead := a.persistSlots(ctx, lead, inbound, reply, cc.Prompt.Vehicles)

	status := "ok"
	if genErr != nil {
		reply = FallbackReply
		status = "fallback"
	} else if a.shouldSendPaymentLink(currentLead, reply) {
		reply = a.attachPaymentLink(ctx, currentLead, reply, cc.Prompt)
	}

	reply = stripSentinel(reply)
	a.metrics.ObserveTurn(status, time.Since(start).Seconds())
	return reply
}

func (a *Assistant) generate(ctx context.Context, cc ConversationContext, inbound string) (string, error) {
	messagesIn := make([]ChatMessage, 0, len(cc.History)+1)
	for _, m := range cc.History {
		role := ChatRoleUser
		if m.Direction == messaging.DirectionOutbound {
			role = ChatRoleAssistant
		}
		messagesIn = append(messagesIn, ChatMessage{Role: role, Content: m.Body})
	}
	// The webhook appends the inbound message before invoking the turn,
	// so it is usually the tail of the history already.
	if n := len(messagesIn); n == 0 || messagesIn[n-1].Role != ChatRoleUser || messagesIn[n-1].Content != inbound {
		messagesIn = append(messagesIn, ChatMessage{Role: ChatRoleUser, Content: inbound})
	}

	llmCtx, cancel := context.WithTimeout(ctx, a.cfg.LLMTimeout)
	defer cancel()

	llmStart := time.Now()
	resp, err := a.llm.Complete(llmCtx, LLMRequest{
		Model:       a.cfg.Model,
		System:      []string{BuildSystemPrompt(cc.Prompt)},
		Messages:    messagesIn,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		a.metrics.ObserveLLM("error", time.Since(llmStart).Seconds(), 0, 0)
		return "", err
	}
	a.metrics.ObserveLLM("ok", time.Since(llmStart).Seconds(), resp.Usage.InputTokens, resp.Usage.OutputTokens)

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", errors.New("conversation: empty completion")
	}
	return text, nil
}

// persistSlots extracts slots from the turn's text and merges them into the
// lead. Persistence failures are swallowed: the turn continues on the
// in-memory merge so this turn's facts still drive the reply and the
// payment trigger.
func (a *Assistant) persistSlots(ctx context.Context, lead *leads.Lead, inbound, reply string, vehicles []fleet.Vehicle) *leads.Lead {
	update := a.extractor.Extract(inbound, reply, vehicles)
	if !update.HasUpdates() {
		return lead
	}

	updated, err := a.leads.UpdateSlots(ctx, lead.TenantID, lead.ID, update)
	if err != nil {
		a.logger.Error("assistant: slot persist failed",
			"tenant_id", lead.TenantID, "lead_id", lead.ID, "error", err)
		merged := *lead
		update.Apply(&merged)
		return &merged
	}
	return updated
}

// shouldSendPaymentLink fires on the explicit sentinel, or on a ready lead
// whose reply mentions a payment link without the marker.
func (a *Assistant) shouldSendPaymentLink(lead *leads.Lead, reply string) bool {
	if strings.Contains(reply, PaymentSentinel) {
		return true
	}
	return lead.ReadyForPayment && strings.Contains(strings.ToLower(reply), paymentLinkHeuristic)
}

// attachPaymentLink resolves the lead's slots, holds the dates with a
// pending booking, prices the rental, and splices the checkout URL into the
// reply. Any unresolved step skips the link silently.
func (a *Assistant) attachPaymentLink(ctx context.Context, lead *leads.Lead, reply string, pc PromptContext) string {
	if lead.CollectedVehicleID == nil || lead.CollectedStartDate == nil || lead.CollectedEndDate == nil {
		a.logger.Warn("assistant: payment trigger with incomplete slots",
			"tenant_id", lead.TenantID, "lead_id", lead.ID)
		a.metrics.ObservePaymentLink("skipped")
		return reply
	}
	if a.checkout == nil {
		a.metrics.ObservePaymentLink("skipped")
		return reply
	}

	var vehicle *fleet.Vehicle
	for i := range pc.Vehicles {
		if pc.Vehicles[i].ID == *lead.CollectedVehicleID {
			vehicle = &pc.Vehicles[i]
			break
		}
	}
	if vehicle == nil {
		a.logger.Warn("assistant: collected vehicle no longer listed",
			"tenant_id", lead.TenantID, "lead_id", lead.ID, "vehicle_id", lead.CollectedVehicleID)
		a.metrics.ObservePaymentLink("skipped")
		return reply
	}

	start, end := *lead.CollectedStartDate, *lead.CollectedEndDate
	if !end.After(start) {
		end = start.AddDate(0, 0, 1)
	}

	if err := a.holdDates(ctx, lead, vehicle.ID, start, end); err != nil {
		if errors.Is(err, bookings.ErrBookingConflict) {
			a.logger.Warn("assistant: payment trigger lost the dates to another booking",
				"tenant_id", lead.TenantID, "lead_id", lead.ID, "vehicle_id", vehicle.ID)
			a.metrics.ObservePaymentLink("conflict")
			return reply
		}
		a.logger.Error("assistant: booking hold failed",
			"tenant_id", lead.TenantID, "lead_id", lead.ID, "error", err)
		a.metrics.ObservePaymentLink("error")
		return reply
	}

	quote := payments.BuildQuote(start, end, vehicle.DailyRateCents,
		pc.Settings.RequireDeposit, pc.Settings.DepositPercent)

	checkoutCtx, cancel := context.WithTimeout(ctx, a.cfg.CheckoutTimeout)
	defer cancel()

	resp, err := a.checkout.CreateCheckoutLink(checkoutCtx, payments.CheckoutParams{
		TenantID:      lead.TenantID,
		LeadID:        lead.ID,
		VehicleID:     vehicle.ID,
		StartDate:     start,
		EndDate:       end,
		AmountCents:   quote.DepositCents,
		Description:   fmt.Sprintf("Deposit for %s, %d day(s)", vehicle.DisplayName(), quote.Days),
		CustomerName:  lead.Name,
		CustomerPhone: lead.Phone,
	})
	if err != nil {
		a.logger.Error("assistant: checkout link creation failed",
			"tenant_id", lead.TenantID, "lead_id", lead.ID, "error", err)
		a.metrics.ObservePaymentLink("error")
		return reply
	}

	a.metrics.ObservePaymentLink("sent")
	return stripSentinel(reply) + "\n\nHere's your secure payment link: " + resp.URL
}

// holdDates reserves the range with a pending booking so two leads cannot
// both be sent a link for the same dates. An existing hold for this lead
// counts as held, not as a conflict.
func (a *Assistant) holdDates(ctx context.Context, lead *leads.Lead, vehicleID uuid.UUID, start, end time.Time) error {
	if a.bookings == nil {
		return nil
	}

	existing, err := a.bookings.ListBlocking(ctx, lead.TenantID)
	if err == nil {
		for _, b := range existing {
			if b.VehicleID == vehicleID && b.LeadID != nil && *b.LeadID == lead.ID &&
				b.StartDate.Equal(start) && b.EndDate.Equal(end) {
				return nil
			}
		}
	}

	leadID := lead.ID
	_, err = a.bookings.Create(ctx, bookings.Booking{
		TenantID:  lead.TenantID,
		VehicleID: vehicleID,
		LeadID:    &leadID,
		StartDate: start,
		EndDate:   end,
		Status:    bookings.StatusPending,
	})
	return err
}

func stripSentinel(reply string) string {
	return strings.TrimSpace(strings.ReplaceAll(reply, PaymentSentinel, ""))
}
