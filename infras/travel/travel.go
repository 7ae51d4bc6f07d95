// Package travel is the adapter for the travel booking provider. A long lived API key is exchanged
// for a short lived access token that is cached in redis until shortly before it expires.
package travel

//go:generate go run go.uber.org/mock/mockgen -source=./travel.go -destination=./mocks/travel_mock.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"retreat/config"
	"retreat/infras/otel"
	"retreat/shared"
	"retreat/shared/cache"
	"retreat/shared/constant"
	"retreat/shared/httpclient"

	"github.com/rs/zerolog/log"
)

const ProviderName = "travel"

const (
	accessTokenPath  = "/auth/access_token"
	bookingsPath     = "/v2/bookings"
	paymentLinksPath = "/v2/payment_links"

	cacheKeyAccessToken = "travel:access_token"
	defaultTokenTTL     = 10 * time.Minute
	tokenExpiryMargin   = time.Minute

	// IntentNotePrefix marks the intent id inside the free-text notes the provider echoes back.
	IntentNotePrefix = "Intent: "
)

var (
	ErrMissingAPIKey    = errors.New("travel provider api key is not configured")
	ErrMissingCheckout  = errors.New("travel provider checkout url is not configured")
	ErrIncompleteResult = errors.New("travel provider response is missing a required field")
	ErrMalformedEvent   = errors.New("travel event is malformed")
)

var intentNote = regexp.MustCompile(`Intent:\s*([A-Za-z0-9_\-]+)`)

type Traveler struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type BookingParams struct {
	IntentID    string
	PackageID   string
	PackageName string
	Guests      int
	TotalCents  int64
	Traveler    Traveler
}

// RemoteBooking is the resolved provider booking.
type RemoteBooking struct {
	ID          string
	LeadID      string
	CheckoutURL string
}

type PrefillParams struct {
	IntentID  string
	PackageID string
	Guests    int
	Traveler  Traveler
}

// Event is a provider webhook resolved to the identifiers reconciliation matches on.
type Event struct {
	ID                string
	Type              string
	LeadID            string
	BookingID         string
	InternalReference string
	TransactionID     string
}

// Refs lists the identifiers an event carries, keyed the way intents store them.
func (e Event) Refs() map[string]string {
	return map[string]string{
		"lead_id":        e.LeadID,
		"booking_id":     e.BookingID,
		"transaction_id": e.TransactionID,
	}
}

type Provider interface {
	CreateBooking(ctx context.Context, params BookingParams) (RemoteBooking, error)
	CreatePaymentLink(ctx context.Context, bookingID, idempotencyKey string) (string, error)
	PrefillURL(params PrefillParams) (string, error)
	ParseEvent(body []byte) (Event, error)
}

type providerImpl struct {
	client          httpclient.Client
	cache           cache.RedisCache
	otel            otel.Otel
	policy          httpclient.Policy
	baseURL         string
	apiKey          string
	tripID          string
	checkoutBaseURL string
	redirectURL     string
	paymentType     string
}

func New(cfg *config.Config, client httpclient.Client, cache cache.RedisCache, otel otel.Otel) Provider {
	return &providerImpl{
		client:          client,
		cache:           cache,
		otel:            otel,
		policy:          httpclient.PolicyFromConfig(cfg),
		baseURL:         strings.TrimRight(cfg.Travel.BaseURL, "/"),
		apiKey:          cfg.Travel.APIKey,
		tripID:          cfg.Travel.TripID,
		checkoutBaseURL: cfg.Travel.CheckoutBaseURL,
		redirectURL:     cfg.Travel.RedirectURL,
		paymentType:     cfg.Travel.PaymentType,
	}
}

type tokenPayload struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (p *providerImpl) accessToken(ctx context.Context) (string, error) {
	if p.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	var token string
	if err := p.cache.Get(ctx, cacheKeyAccessToken, &token); err == nil && token != "" {
		return token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+accessTokenPath, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to build access token request: %w", err)
	}

	req.Header.Set(constant.RequestHeaderAuthorization, constant.BearerPrefix+p.apiKey)
	req.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

	resp, err := p.client.Send(ctx, req, p.policy)
	if err != nil {
		return "", fmt.Errorf("failed to exchange access token: %w", err)
	}

	body, err := httpclient.Expect(resp, "exchange access token")
	if err != nil {
		return "", err
	}

	var payload tokenPayload
	if err = json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode access token: %w", err)
	}

	token = shared.FirstNonEmpty(payload.AccessToken, payload.Token)
	if token == "" {
		return "", fmt.Errorf("%w: access_token", ErrIncompleteResult)
	}

	ttl := defaultTokenTTL
	if payload.ExpiresIn > 0 {
		ttl = max(time.Duration(payload.ExpiresIn)*time.Second-tokenExpiryMargin, time.Second)
	}

	if err = p.cache.Save(ctx, cacheKeyAccessToken, token, ttl); err != nil {
		log.Warn().Err(err).Msg("failed to cache travel access token")
	}

	return token, nil
}

// postJSON sends body with the access token. A 401 drops the cached token and tries once more with a fresh one.
func (p *providerImpl) postJSON(ctx context.Context, path, operation, idempotencyKey string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", operation, err)
	}

	for attempt := 0; ; attempt++ {
		token, err := p.accessToken(ctx)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to build %s request: %w", operation, err)
		}

		req.Header.Set(constant.RequestHeaderAuthorization, constant.BearerPrefix+token)
		req.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

		if idempotencyKey != "" {
			req.Header.Set(constant.RequestHeaderIdempotencyKey, idempotencyKey)
		}

		resp, err := p.client.Send(ctx, req, p.policy)
		if err != nil {
			return nil, fmt.Errorf("failed to %s: %w", operation, err)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			_, _ = httpclient.ReadBody(resp)

			if err = p.cache.Delete(ctx, cacheKeyAccessToken); err != nil {
				log.Warn().Err(err).Msg("failed to drop travel access token")
			}

			continue
		}

		return httpclient.Expect(resp, operation)
	}
}

type bookingRequest struct {
	TripID            string        `json:"trip_id"`
	PackageID         string        `json:"package_id"`
	PackageName       string        `json:"package_name,omitempty"`
	NumParticipants   int           `json:"num_participants"`
	Price             int64         `json:"price"`
	InternalReference string        `json:"internal_reference"`
	Notes             string        `json:"notes"`
	Participants      []participant `json:"participants"`
}

type participant struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

type bookingPayload struct {
	ID          json.RawMessage `json:"id"`
	BookingID   json.RawMessage `json:"booking_id"`
	LeadID      json.RawMessage `json:"lead_id"`
	CheckoutURL string          `json:"checkout_url"`
	PaymentURL  string          `json:"payment_url"`
	Booking     *bookingPayload `json:"booking"`
	Data        *bookingPayload `json:"data"`
}

// CreateBooking uses the intent id as the idempotency key, so a retry after a timeout cannot
// create a second remote booking.
func (p *providerImpl) CreateBooking(ctx context.Context, params BookingParams) (booking RemoteBooking, err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".travel.CreateBooking")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	request := bookingRequest{
		TripID:            p.tripID,
		PackageID:         params.PackageID,
		PackageName:       params.PackageName,
		NumParticipants:   params.Guests,
		Price:             params.TotalCents,
		InternalReference: params.IntentID,
		Notes:             IntentNotePrefix + params.IntentID,
		Participants: []participant{{
			FirstName: params.Traveler.FirstName,
			LastName:  params.Traveler.LastName,
			Email:     params.Traveler.Email,
			Phone:     params.Traveler.Phone,
		}},
	}

	body, err := p.postJSON(ctx, bookingsPath, "create remote booking", "booking-"+params.IntentID, request)
	if err != nil {
		return booking, err
	}

	var payload bookingPayload
	if err = json.Unmarshal(body, &payload); err != nil {
		return booking, fmt.Errorf("failed to decode remote booking: %w", err)
	}

	booking = resolveBooking(payload)
	if booking.ID == "" {
		return booking, fmt.Errorf("%w: booking id", ErrIncompleteResult)
	}

	return booking, nil
}

func resolveBooking(payload bookingPayload) RemoteBooking {
	booking := RemoteBooking{
		ID:          shared.FirstNonEmpty(rawString(payload.ID), rawString(payload.BookingID)),
		LeadID:      rawString(payload.LeadID),
		CheckoutURL: shared.FirstNonEmpty(payload.CheckoutURL, payload.PaymentURL),
	}

	// some responses wrap the booking one level down
	for _, nested := range []*bookingPayload{payload.Booking, payload.Data} {
		if nested == nil {
			continue
		}

		inner := resolveBooking(*nested)
		booking.ID = shared.FirstNonEmpty(booking.ID, inner.ID)
		booking.LeadID = shared.FirstNonEmpty(booking.LeadID, inner.LeadID)
		booking.CheckoutURL = shared.FirstNonEmpty(booking.CheckoutURL, inner.CheckoutURL)
	}

	return booking
}

type paymentLinkPayload struct {
	URL        string `json:"url"`
	PaymentURL string `json:"payment_url"`
	Link       string `json:"link"`
}

func (p *providerImpl) CreatePaymentLink(ctx context.Context, bookingID, idempotencyKey string) (link string, err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".travel.CreatePaymentLink")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	request := map[string]string{
		"booking_id":   bookingID,
		"payment_type": p.paymentType,
		"redirect_url": p.redirectURL,
	}

	body, err := p.postJSON(ctx, paymentLinksPath, "create payment link", idempotencyKey, request)
	if err != nil {
		return "", err
	}

	var payload paymentLinkPayload
	if err = json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode payment link: %w", err)
	}

	link = shared.FirstNonEmpty(payload.URL, payload.PaymentURL, payload.Link)
	if link == "" {
		return "", fmt.Errorf("%w: payment url", ErrIncompleteResult)
	}

	return link, nil
}

// PrefillURL builds the hosted checkout link with the traveler fields filled in. The intent id
// rides along in notes so the webhook can be matched back.
func (p *providerImpl) PrefillURL(params PrefillParams) (string, error) {
	if p.checkoutBaseURL == "" {
		return "", ErrMissingCheckout
	}

	checkout, err := url.Parse(p.checkoutBaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid checkout base url: %w", err)
	}

	query := checkout.Query()
	query.Set("first_name", params.Traveler.FirstName)
	query.Set("last_name", params.Traveler.LastName)
	query.Set("email", params.Traveler.Email)
	query.Set("guests", strconv.Itoa(max(params.Guests, 1)))
	query.Set("notes", IntentNotePrefix+params.IntentID)

	if params.Traveler.Phone != "" {
		query.Set("phone", params.Traveler.Phone)
	}

	if params.PackageID != "" {
		query.Set("package", params.PackageID)
	}

	checkout.RawQuery = query.Encode()

	return checkout.String(), nil
}

type eventData struct {
	ID                json.RawMessage `json:"id"`
	LeadID            json.RawMessage `json:"lead_id"`
	BookingID         json.RawMessage `json:"booking_id"`
	TransactionID     json.RawMessage `json:"transaction_id"`
	InternalReference string          `json:"internal_reference"`
	Notes             string          `json:"notes"`
}

type eventPayload struct {
	eventData
	Type      string     `json:"type"`
	EventType string     `json:"event_type"`
	EventID   string     `json:"event_id"`
	Data      *eventData `json:"data"`
}

func (p *providerImpl) ParseEvent(body []byte) (Event, error) {
	return ParseEvent(body)
}

// ParseEvent resolves the fallbacks once: the type may be "type" or "event_type", the
// identifiers may sit under "data" or at the top level, and the lead id falls back to the data id.
func ParseEvent(body []byte) (Event, error) {
	var payload eventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	data := payload.eventData
	if payload.Data != nil {
		data = *payload.Data
	}

	event := Event{
		ID:                shared.FirstNonEmpty(payload.EventID, rawString(payload.ID)),
		Type:              shared.FirstNonEmpty(payload.Type, payload.EventType),
		LeadID:            shared.FirstNonEmpty(rawString(data.LeadID), rawString(data.ID)),
		BookingID:         rawString(data.BookingID),
		TransactionID:     rawString(data.TransactionID),
		InternalReference: shared.FirstNonEmpty(data.InternalReference, IntentFromNotes(data.Notes)),
	}

	if event.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}

	return event, nil
}

// IntentFromNotes extracts the id from "Intent: <id>" anywhere in the notes.
func IntentFromNotes(notes string) string {
	match := intentNote.FindStringSubmatch(notes)
	if len(match) < 2 {
		return ""
	}

	return match[1]
}

// rawString accepts an identifier sent either as a JSON string or a JSON number.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		return number.String()
	}

	return ""
}
