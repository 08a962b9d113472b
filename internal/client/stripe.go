package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"checkout-service/internal/apperr"
	"checkout-service/internal/config"
)

// Event types the reconciler understands. Anything else is a logged no-op.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// Session payment_status values.
const SessionPaid = "paid"

type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Status        string            `json:"status"`         // open, complete, expired
	PaymentStatus string            `json:"payment_status"` // paid, unpaid, no_payment_required
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

// Event is the authenticated webhook envelope.
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// Session decodes the event payload as a checkout session.
func (e *Event) Session() (*CheckoutSession, error) {
	var s CheckoutSession
	if err := json.Unmarshal(e.Data.Object, &s); err != nil {
		return nil, fmt.Errorf("decode session object: %w", err)
	}
	return &s, nil
}

type SessionLineItem struct {
	Name      string
	Currency  string
	UnitCents int64
	Quantity  int64
}

type CreateSessionParams struct {
	OrderID    string
	LineItems  []SessionLineItem
	SuccessURL string
	CancelURL  string
}

type StripeClient interface {
	CreateCheckoutSession(ctx context.Context, p *CreateSessionParams) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	ConstructEvent(payload []byte, sigHeader string) (*Event, error)
}

type stripeClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	secretKey     string
	webhookSecret string
	tolerance     time.Duration
}

func NewStripeClient(stripeCfg *config.Stripe) StripeClient {
	return &stripeClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:    stripeCfg.BaseApiURL,
		secretKey:     stripeCfg.SecretKey,
		webhookSecret: stripeCfg.WebhookSecret,
		tolerance:     5 * time.Minute,
	}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, p *CreateSessionParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	// order id rides along in the session metadata as the primary
	// correlation key for inbound webhook events
	form.Set("metadata[order_id]", p.OrderID)
	form.Set("client_reference_id", p.OrderID)

	for i, li := range p.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.FormatInt(li.Quantity, 10))
		form.Set(prefix+"[price_data][currency]", strings.ToLower(li.Currency))
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(li.UnitCents, 10))
		form.Set(prefix+"[price_data][product_data][name]", li.Name)
	}

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *stripeClientImpl) RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	var session CheckoutSession
	path := "/v1/checkout/sessions/" + url.PathEscape(sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *stripeClientImpl) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperr.GatewayError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &apperr.GatewayError{
			Op:  method + " " + path,
			Err: fmt.Errorf("stripe error %d: %s", resp.StatusCode, string(b)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode stripe response: %w", err)
	}
	return nil
}

// ConstructEvent authenticates the raw webhook payload against the
// Stripe-Signature header before any of it is trusted. The signed material
// is "<timestamp>.<payload>" with HMAC-SHA256 under the endpoint secret.
func (c *stripeClientImpl) ConstructEvent(payload []byte, sigHeader string) (*Event, error) {
	ts, sigs, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}
	if time.Since(time.Unix(ts, 0)) > c.tolerance {
		return nil, apperr.ErrSignature
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	verified := false
	for _, sig := range sigs {
		raw, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(raw, expected) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, apperr.ErrSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	return &event, nil
}

func parseSignatureHeader(header string) (int64, []string, error) {
	var ts int64
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, apperr.ErrSignature
			}
			ts = parsed
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return 0, nil, apperr.ErrSignature
	}
	return ts, sigs, nil
}
