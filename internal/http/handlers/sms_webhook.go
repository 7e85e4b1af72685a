package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/willcldrr/scalexotics-sub002/internal/conversation"
	"github.com/willcldrr/scalexotics-sub002/internal/leads"
	"github.com/willcldrr/scalexotics-sub002/internal/messaging"
	"github.com/willcldrr/scalexotics-sub002/internal/tenancy"
	"github.com/willcldrr/scalexotics-sub002/pkg/logging"
)

var smsTracer = otel.Tracer("scalexotics.internal.http.sms")

// Empty TwiML ack. The reply goes out through the sender, not the webhook
// response, so retries and provider quirks cannot double-text the customer.
const twimlAck = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// SMSWebhookHandler receives inbound SMS webhooks and runs one assistant
// turn per message.
type SMSWebhookHandler struct {
	leads     leads.Repository
	store     messaging.Store
	assistant *conversation.Assistant
	sender    messaging.Sender
	logger    *logging.Logger
}

// NewSMSWebhookHandler wires the inbound SMS pipeline.
func NewSMSWebhookHandler(
	leadRepo leads.Repository,
	store messaging.Store,
	assistant *conversation.Assistant,
	sender messaging.Sender,
	logger *logging.Logger,
) *SMSWebhookHandler {
	if leadRepo == nil {
		panic("handlers: lead repository cannot be nil")
	}
	if store == nil {
		panic("handlers: message store cannot be nil")
	}
	if assistant == nil {
		panic("handlers: assistant cannot be nil")
	}
	if sender == nil {
		panic("handlers: sender cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SMSWebhookHandler{
		leads:     leadRepo,
		store:     store,
		assistant: assistant,
		sender:    sender,
		logger:    logger.With("component", "sms_webhook"),
	}
}

// HandleInbound handles POST /webhooks/sms/{tenantID} with a Twilio-style
// form body (From, To, Body).
func (h *SMSWebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := smsTracer.Start(r.Context(), "http.sms.inbound")
	defer span.End()

	tenantID := chi.URLParam(r, "tenantID")
	if tenantID == "" {
		http.Error(w, "missing tenant", http.StatusBadRequest)
		return
	}
	ctx = tenancy.WithTenantID(ctx, tenantID)
	span.SetAttributes(attribute.String("scalexotics.tenant_id", tenantID))

	if err := r.ParseForm(); err != nil {
		h.logger.Error("sms webhook: form parse failed", "tenant_id", tenantID, "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}
	from := strings.TrimSpace(r.FormValue("From"))
	body := strings.TrimSpace(r.FormValue("Body"))
	if from == "" || body == "" {
		err := errors.New("missing From or Body")
		h.logger.Warn("sms webhook: incomplete payload", "tenant_id", tenantID)
		http.Error(w, "bad request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	lead, err := h.leads.FindOrCreate(ctx, tenantID, from)
	if err != nil {
		h.logger.Error("sms webhook: lead lookup failed", "tenant_id", tenantID, "from", from, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		span.RecordError(err)
		return
	}
	span.SetAttributes(attribute.String("scalexotics.lead_id", lead.ID.String()))

	if err := h.store.Append(ctx, tenantID, lead.ID, messaging.DirectionInbound, body); err != nil {
		// History is best effort; the turn proceeds with what it has.
		h.logger.Error("sms webhook: inbound append failed", "tenant_id", tenantID, "lead_id", lead.ID, "error", err)
		span.RecordError(err)
	}

	reply := h.assistant.HandleMessage(ctx, lead, body)

	if err := h.store.Append(ctx, tenantID, lead.ID, messaging.DirectionOutbound, reply); err != nil {
		h.logger.Error("sms webhook: outbound append failed", "tenant_id", tenantID, "lead_id", lead.ID, "error", err)
		span.RecordError(err)
	}

	if err := h.sender.SendSMS(ctx, lead.Phone, reply); err != nil {
		h.logger.Error("sms webhook: send failed", "tenant_id", tenantID, "lead_id", lead.ID, "error", err)
		span.RecordError(err)
	}

	h.logger.Info("sms webhook processed",
		"tenant_id", tenantID, "lead_id", lead.ID, "elapsed", time.Since(start))
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(twimlAck))
}
