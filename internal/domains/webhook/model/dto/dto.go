package dto

import (
	"slices"
	"strconv"

	"retreat/infras/payment"
	"retreat/infras/travel"
	"retreat/internal/domains/webhook/model"
	"retreat/shared"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	"retreat/shared/failure"
	"retreat/shared/timezone"
)

const IDPrefix = "wh"

var Providers = []string{travel.ProviderName, payment.ProviderName}

// WebhookResponse is the acknowledgment returned to the provider.
type WebhookResponse struct {
	Received  bool   `json:"received"`
	IntentID  string `json:"intent_id,omitempty"`
	BookingID string `json:"booking_id,omitempty"`
	Status    string `json:"status,omitempty"`
}

type WebhookEventResponse struct {
	ID               string `json:"id"`
	Provider         string `json:"provider"`
	EventType        string `json:"event_type"`
	ProviderEventID  string `json:"provider_event_id,omitempty"`
	ReceivedAt       string `json:"received_at"`
	Payload          string `json:"payload"`
	Verified         bool   `json:"verified"`
	Processed        bool   `json:"processed"`
	RelatedIntentID  string `json:"related_intent_id,omitempty"`
	RelatedBookingID string `json:"related_booking_id,omitempty"`
	ProcessingError  string `json:"processing_error,omitempty"`
	ArchiveURL       string `json:"archive_url,omitempty"`
	gDto.Metadata
}

func (r *WebhookEventResponse) FromModel(m model.WebhookEvent) {
	r.ID = m.ID
	r.Provider = m.Provider
	r.EventType = m.EventType
	r.ProviderEventID = m.ProviderEventID
	r.ReceivedAt = timezone.Format(m.ReceivedAt, constant.DateFormat)
	r.Payload = m.PayloadRaw
	r.Verified = m.Verified
	r.Processed = m.Processed
	r.RelatedIntentID = deref(m.RelatedIntentID)
	r.RelatedBookingID = deref(m.RelatedBookingID)
	r.ProcessingError = deref(m.ProcessingError)
	r.ArchiveURL = m.ArchiveURL
	r.Metadata.FromModel(m.Metadata)
}

type GetWebhookEventsResponse struct {
	Events    []WebhookEventResponse `json:"events"`
	TotalPage int                    `json:"total_page"`
	TotalData int                    `json:"total_data"`
}

func (r *GetWebhookEventsResponse) FromModels(models []model.WebhookEvent, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Events = make([]WebhookEventResponse, len(models))
	for i, mod := range models {
		r.Events[i].FromModel(mod)
	}
}

// EventFilter holds the admin list query: an optional provider and an optional processed flag.
type EventFilter struct {
	Provider  string
	Processed string
}

func (f EventFilter) ToFilterGroup() (gDto.FilterGroup, error) {
	filters := []any{}

	if f.Provider != "" {
		if !slices.Contains(Providers, f.Provider) {
			return gDto.FilterGroup{}, failure.BadRequestFromString("unknown webhook provider: " + f.Provider)
		}

		filters = append(filters, gDto.Eq(model.FieldProvider, f.Provider))
	}

	if f.Processed != "" {
		processed, err := strconv.ParseBool(f.Processed)
		if err != nil {
			return gDto.FilterGroup{}, failure.BadRequestFromString("processed must be true or false")
		}

		filters = append(filters, gDto.Eq(model.FieldProcessed, processed))
	}

	return gDto.And(filters...), nil
}

var SortableFields = []string{model.FieldReceivedAt, constant.FieldCreatedAt, model.FieldEventType}

func deref(value *string) string {
	if value == nil {
		return ""
	}

	return *value
}
