// Package payment talks to the hosted checkout provider: session creation on the way out,
// event parsing on the way in.
package payment

//go:generate go run go.uber.org/mock/mockgen -source=./payment.go -destination=./mocks/payment_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"retreat/config"
	"retreat/infras/otel"
	"retreat/shared"
	"retreat/shared/constant"
	"retreat/shared/httpclient"
)

const (
	checkoutSessionsPath = "/v1/checkout/sessions"

	ObjectCheckoutSession = "checkout.session"
	ObjectInvoice         = "invoice"

	// Provider name used to key processed events.
	ProviderName = "payment"
)

const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventInvoicePaid       = "invoice.paid"
	EventInvoiceFailed     = "invoice.payment_failed"
	EventChargeRefunded    = "charge.refunded"

	PaymentStatusPaid      = "paid"
	PaymentStatusNoPayment = "no_payment_required"
)

var (
	ErrMissingSecretKey = errors.New("payment provider secret key is not configured")
	ErrIncompleteResult = errors.New("payment provider response is missing the session id or url")
	ErrMalformedEvent   = errors.New("payment event is malformed")
)

type CheckoutParams struct {
	BookingID     string
	PaymentOption string
	CustomerEmail string
	ProductName   string
	Currency      string
	AmountCents   int64
}

// CheckoutSession is the resolved provider answer.
type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus string
}

// Event is a provider webhook resolved to the fields reconciliation needs.
type Event struct {
	ID               string
	Type             string
	Object           string
	SessionID        string
	BookingID        string
	PaymentOption    string
	PaymentStatus    string
	AmountTotalCents int64
}

type Provider interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (CheckoutSession, error)
	ParseEvent(body []byte) (Event, error)
}

type providerImpl struct {
	client     httpclient.Client
	policy     httpclient.Policy
	otel       otel.Otel
	baseURL    string
	secretKey  string
	successURL string
	cancelURL  string
}

func New(cfg *config.Config, client httpclient.Client, otel otel.Otel) Provider {
	return &providerImpl{
		client:     client,
		policy:     httpclient.PolicyFromConfig(cfg),
		otel:       otel,
		baseURL:    strings.TrimRight(cfg.Payment.BaseURL, "/"),
		secretKey:  cfg.Payment.SecretKey,
		successURL: cfg.Payment.SuccessURL,
		cancelURL:  cfg.Payment.CancelURL,
	}
}

// CreateCheckoutSession sends the booking id as the idempotency key, so a retry after a lost
// response returns the session the provider already created.
func (p *providerImpl) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (session CheckoutSession, err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".payment.CreateCheckoutSession")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if p.secretKey == "" {
		return session, ErrMissingSecretKey
	}

	form := checkoutForm(params, p.successURL, p.cancelURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+checkoutSessionsPath, strings.NewReader(form.Encode()))
	if err != nil {
		return session, fmt.Errorf("failed to build checkout request: %w", err)
	}

	req.Header.Set(constant.RequestHeaderAuthorization, constant.BearerPrefix+p.secretKey)
	req.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeFormURLEncoded)
	req.Header.Set(constant.RequestHeaderIdempotencyKey, "checkout-"+params.BookingID+"-"+strconv.FormatInt(params.AmountCents, 10))

	resp, err := p.client.Send(ctx, req, p.policy)
	if err != nil {
		return session, fmt.Errorf("failed to create checkout session: %w", err)
	}

	body, err := httpclient.Expect(resp, "create checkout session")
	if err != nil {
		return session, err
	}

	return parseSession(body)
}

func checkoutForm(params CheckoutParams, successURL, cancelURL string) url.Values {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("client_reference_id", params.BookingID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", params.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", params.ProductName)
	form.Set("metadata[booking_id]", params.BookingID)
	form.Set("metadata[payment_option]", params.PaymentOption)

	if params.CustomerEmail != "" {
		form.Set("customer_email", params.CustomerEmail)
	}

	if successURL != "" {
		form.Set("success_url", successURL)
	}

	if cancelURL != "" {
		form.Set("cancel_url", cancelURL)
	}

	return form
}

type sessionPayload struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	CheckoutURL   string `json:"checkout_url"`
	PaymentStatus string `json:"payment_status"`
}

func parseSession(body []byte) (CheckoutSession, error) {
	var payload sessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return CheckoutSession{}, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	session := CheckoutSession{
		ID:            payload.ID,
		URL:           shared.FirstNonEmpty(payload.URL, payload.CheckoutURL),
		PaymentStatus: payload.PaymentStatus,
	}

	if session.ID == "" || session.URL == "" {
		return CheckoutSession{}, ErrIncompleteResult
	}

	return session, nil
}

type eventPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string            `json:"id"`
			Object            string            `json:"object"`
			ClientReferenceID string            `json:"client_reference_id"`
			PaymentStatus     string            `json:"payment_status"`
			AmountTotal       int64             `json:"amount_total"`
			AmountPaid        int64             `json:"amount_paid"`
			Metadata          map[string]string `json:"metadata"`
			SubscriptionInfo  struct {
				Metadata map[string]string `json:"metadata"`
			} `json:"subscription_details"`
		} `json:"object"`
	} `json:"data"`
}

// ParseEvent resolves the provider's variably shaped event into an Event once.
func (p *providerImpl) ParseEvent(body []byte) (Event, error) {
	return ParseEvent(body)
}

func ParseEvent(body []byte) (Event, error) {
	var payload eventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	if payload.ID == "" || payload.Type == "" {
		return Event{}, ErrMalformedEvent
	}

	object := payload.Data.Object

	event := Event{
		ID:            payload.ID,
		Type:          payload.Type,
		Object:        object.Object,
		PaymentStatus: object.PaymentStatus,
		BookingID: shared.FirstNonEmpty(
			object.Metadata["booking_id"],
			object.SubscriptionInfo.Metadata["booking_id"],
			object.ClientReferenceID,
		),
		PaymentOption:    shared.FirstNonEmpty(object.Metadata["payment_option"], object.SubscriptionInfo.Metadata["payment_option"]),
		AmountTotalCents: object.AmountTotal,
	}

	if object.Object == ObjectCheckoutSession {
		event.SessionID = object.ID
	}

	if object.Object == ObjectInvoice && object.AmountPaid > 0 {
		event.AmountTotalCents = object.AmountPaid
	}

	return event, nil
}
