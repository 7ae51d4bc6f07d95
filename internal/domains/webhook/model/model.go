package model

import (
	"time"

	"retreat/shared/model"
)

const (
	TableName  = "webhook_events"
	EntityName = "webhook_event"

	FieldID               = "id"
	FieldProvider         = "provider"
	FieldEventType        = "event_type"
	FieldVerified         = "verified"
	FieldProcessed        = "processed"
	FieldRelatedIntentID  = "related_intent_id"
	FieldRelatedBookingID = "related_booking_id"
	FieldProcessingError  = "processing_error"
	FieldArchiveURL       = "archive_url"
	FieldReceivedAt       = "received_at"
)

// Processing notes stored on the audit row.
const (
	NoteSignatureFailed = "signature verification failed"
	NoteNoIntent        = "No matching booking intent found"
	NoteNoBooking       = "No matching booking found"
)

// WebhookEvent is the audit row of one HTTP delivery. Duplicates of the same provider
// event get their own rows.
type WebhookEvent struct {
	ID               string    `db:"id"`
	Provider         string    `db:"provider"`
	EventType        string    `db:"event_type"`
	ProviderEventID  string    `db:"provider_event_id"`
	ReceivedAt       time.Time `db:"received_at"`
	PayloadRaw       string    `db:"payload_raw"`
	Verified         bool      `db:"verified"`
	Processed        bool      `db:"processed"`
	RelatedIntentID  *string   `db:"related_intent_id"`
	RelatedBookingID *string   `db:"related_booking_id"`
	ProcessingError  *string   `db:"processing_error"`
	ArchiveURL       string    `db:"archive_url"`
	model.Metadata
}

// Replayable reports whether the row may be run through the reconciler again.
func (e WebhookEvent) Replayable() bool {
	return e.Verified && !e.Processed
}
