package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/willcldrr/scalexotics-sub002/pkg/logging"
)

var checkoutTracer = otel.Tracer("scalexotics.internal.payments.checkout")

// CheckoutParams carries everything the checkout backend needs to build a
// hosted payment session for a rental deposit.
type CheckoutParams struct {
	TenantID      string
	LeadID        uuid.UUID
	VehicleID     uuid.UUID
	StartDate     time.Time
	EndDate       time.Time
	AmountCents   int64
	Description   string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
}

// CheckoutResponse is the hosted link returned by the backend.
type CheckoutResponse struct {
	URL        string
	ProviderID string
}

// LinkCreator produces hosted checkout links.
type LinkCreator interface {
	CreateCheckoutLink(ctx context.Context, params CheckoutParams) (*CheckoutResponse, error)
}

// HTTPCheckoutService calls the internal checkout-session endpoint.
type HTTPCheckoutService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewHTTPCheckoutService builds a client for the checkout backend.
func NewHTTPCheckoutService(baseURL, apiKey string, timeout time.Duration, logger *logging.Logger) *HTTPCheckoutService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &HTTPCheckoutService{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// CreateCheckoutLink posts the session request and returns the hosted URL.
func (s *HTTPCheckoutService) CreateCheckoutLink(ctx context.Context, params CheckoutParams) (*CheckoutResponse, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("payments: checkout base url not configured")
	}

	ctx, span := checkoutTracer.Start(ctx, "checkout.create_link")
	defer span.End()
	span.SetAttributes(
		attribute.String("scalexotics.tenant_id", params.TenantID),
		attribute.String("scalexotics.lead_id", params.LeadID.String()),
		attribute.Int64("scalexotics.amount_cents", params.AmountCents),
	)

	body := map[string]any{
		"tenantId":      params.TenantID,
		"leadId":        params.LeadID.String(),
		"vehicleId":     params.VehicleID.String(),
		"startDate":     params.StartDate.Format("2006-01-02"),
		"endDate":       params.EndDate.Format("2006-01-02"),
		"amountCents":   params.AmountCents,
		"description":   params.Description,
		"customerName":  params.CustomerName,
		"customerPhone": params.CustomerPhone,
		"customerEmail": params.CustomerEmail,
	}
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("payments: checkout payload: %w", err)
	}

	apiURL := s.baseURL + "/api/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("payments: checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments: checkout http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("payments: checkout api status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		CheckoutURL string `json:"checkoutUrl"`
		SessionID   string `json:"sessionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("payments: checkout decode: %w", err)
	}
	if parsed.CheckoutURL == "" {
		return nil, fmt.Errorf("payments: checkout response missing url")
	}

	s.logger.Info("checkout link created",
		"tenant_id", params.TenantID, "lead_id", params.LeadID, "session_id", parsed.SessionID)
	return &CheckoutResponse{
		URL:        parsed.CheckoutURL,
		ProviderID: parsed.SessionID,
	}, nil
}

// FakeCheckoutService is a dev/demo provider that fabricates an internal URL
// so the booking flow can be exercised without checkout credentials. Gate it
// behind configuration; never enable in production.
type FakeCheckoutService struct {
	publicBaseURL string
	logger        *logging.Logger
}

// NewFakeCheckoutService builds the dev provider.
func NewFakeCheckoutService(publicBaseURL string, logger *logging.Logger) *FakeCheckoutService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FakeCheckoutService{
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		logger:        logger,
	}
}

// CreateCheckoutLink fabricates a link under the public base URL.
func (s *FakeCheckoutService) CreateCheckoutLink(ctx context.Context, params CheckoutParams) (*CheckoutResponse, error) {
	_ = ctx
	if params.LeadID == uuid.Nil {
		return nil, fmt.Errorf("payments: fake checkout requires lead id")
	}
	if !isValidBaseURL(s.publicBaseURL) {
		return nil, fmt.Errorf("payments: fake checkout requires an absolute http(s) PUBLIC_BASE_URL")
	}

	sessionID := uuid.New()
	s.logger.Info("fake checkout link created", "tenant_id", params.TenantID, "lead_id", params.LeadID)
	return &CheckoutResponse{
		URL:        fmt.Sprintf("%s/payments/fake/%s", s.publicBaseURL, sessionID),
		ProviderID: "fake:" + sessionID.String(),
	}, nil
}

func isValidBaseURL(value string) bool {
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}
