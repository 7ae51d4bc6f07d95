package model

import (
	"fmt"
	"time"

	gDto "retreat/shared/dto"
	"retreat/shared/model"
)

const (
	TableName  = "booking_intents"
	EntityName = "intent"

	FieldID                = "id"
	FieldStatus            = "status"
	FieldPaymentStatus     = "payment_status"
	FieldFulfillmentStatus = "fulfillment_status"
	FieldExternalRefs      = "external_refs"
	FieldHandedOffAt       = "handed_off_at"
	FieldCancelReason      = "cancel_reason"
	FieldCreatedAt         = "created_at"
)

const (
	StatusDraft     = "draft"
	StatusHandedOff = "handed_off"
	StatusPaid      = "paid"
	StatusConfirmed = "confirmed"
	StatusCanceled  = "canceled"
	StatusFailed    = "failed"
)

var Statuses = []string{StatusDraft, StatusHandedOff, StatusPaid, StatusConfirmed, StatusCanceled, StatusFailed}

// Payment axis.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
	PaymentFailed = "failed"
)

// Fulfillment axis.
const (
	FulfillmentPending   = "pending"
	FulfillmentConfirmed = "confirmed"
	FulfillmentCanceled  = "canceled"
)

// Keys of ExternalRefs.
const (
	RefLeadID        = "lead_id"
	RefBookingID     = "booking_id"
	RefTransactionID = "transaction_id"
	RefPaymentLink   = "payment_link"
)

type Intent struct {
	ID                  string     `db:"id"`
	TripID              string     `db:"trip_id"`
	PackageID           string     `db:"package_id"`
	TravelerFirstName   string     `db:"traveler_first_name"`
	TravelerLastName    string     `db:"traveler_last_name"`
	TravelerEmail       string     `db:"traveler_email"`
	TravelerPhone       string     `db:"traveler_phone"`
	TravelersCount      int        `db:"travelers_count"`
	Nights              int        `db:"nights"`
	Occupancy           string     `db:"occupancy"`
	PricePerPersonCents int64      `db:"price_per_person_cents"`
	TotalPriceCents     int64      `db:"total_price_cents"`
	Notes               string     `db:"notes"`
	Status              string     `db:"status"`
	PaymentStatus       string     `db:"payment_status"`
	FulfillmentStatus   string     `db:"fulfillment_status"`
	ExternalRefs        model.Refs `db:"external_refs"`
	HandedOffAt         *time.Time `db:"handed_off_at"`
	CancelReason        string     `db:"cancel_reason"`
	model.Metadata
}

// Project derives the single reported status from both axes.
// Precedence: canceled, confirmed, paid, failed, then handed_off or draft.
func Project(payment, fulfillment string, handedOff bool) string {
	switch {
	case fulfillment == FulfillmentCanceled:
		return StatusCanceled
	case fulfillment == FulfillmentConfirmed:
		return StatusConfirmed
	case payment == PaymentPaid:
		return StatusPaid
	case payment == PaymentFailed:
		return StatusFailed
	case handedOff:
		return StatusHandedOff
	default:
		return StatusDraft
	}
}

func (i Intent) Project() string {
	return Project(i.PaymentStatus, i.FulfillmentStatus, i.HandedOffAt != nil)
}

// Axes is the pair of statuses an event may move.
type Axes struct {
	Payment     string
	Fulfillment string
}

// Apply moves the axes as far as the rules allow. A failure never overrides a payment
// already received, and a canceled intent is never confirmed again.
func (a Axes) Apply(payment, fulfillment string) Axes {
	switch {
	case payment == PaymentPaid:
		a.Payment = PaymentPaid
	case payment == PaymentFailed && a.Payment != PaymentPaid:
		a.Payment = PaymentFailed
	}

	switch {
	case fulfillment == FulfillmentCanceled:
		a.Fulfillment = FulfillmentCanceled
	case fulfillment == FulfillmentConfirmed && a.Fulfillment != FulfillmentCanceled:
		a.Fulfillment = FulfillmentConfirmed
	}

	return a
}

// RefFilter matches one key inside the external_refs JSONB column.
func RefFilter(key, value string) gDto.Filter {
	return gDto.Filter{
		Field:    fmt.Sprintf("%s->>'%s'", FieldExternalRefs, key),
		ArgName:  "ref_" + key,
		Value:    value,
		Operator: gDto.FilterOperatorEq,
	}
}

var eventEffects = map[string]Axes{
	"payment.succeeded": {Payment: PaymentPaid},
	"payment.completed": {Payment: PaymentPaid},
	"booking.paid":      {Payment: PaymentPaid},
	"booking.confirmed": {Fulfillment: FulfillmentConfirmed},
	"booking.complete":  {Fulfillment: FulfillmentConfirmed},
	"booking.cancelled": {Fulfillment: FulfillmentCanceled},
	"booking.canceled":  {Fulfillment: FulfillmentCanceled},
	"payment.failed":    {Payment: PaymentFailed},
	"booking.failed":    {Payment: PaymentFailed},
}

// EffectOf looks up what a provider event type does to the axes.
func EffectOf(eventType string) (Axes, bool) {
	effect, ok := eventEffects[eventType]

	return effect, ok
}
