package model

import (
	"slices"

	pricingModel "retreat/internal/domains/pricing/model"
	"retreat/shared/model"
)

const (
	TableName      = "bookings"
	EntityName     = "booking"
	EventTableName = "processed_provider_events"

	FieldID                = "id"
	FieldTripID            = "trip_id"
	FieldPackageID         = "package_id"
	FieldStatus            = "status"
	FieldAmountPaidCents   = "amount_paid_cents"
	FieldCheckoutSessionID = "checkout_session_id"
	FieldProviderBookingID = "provider_booking_id"
	FieldCancelReason      = "cancel_reason"
	FieldContactEmail      = "contact_email"
	FieldCreatedAt         = "created_at"
)

const (
	StatusInitiated  = "initiated"
	StatusPending    = "pending"
	StatusActivePlan = "active_plan"
	StatusPastDue    = "past_due"
	StatusPaid       = "paid"
	StatusConfirmed  = "confirmed"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Statuses lists every booking status, in lifecycle order.
var Statuses = []string{
	StatusInitiated, StatusPending, StatusActivePlan, StatusPastDue,
	StatusPaid, StatusConfirmed, StatusFailed, StatusCanceled,
}

// transitions is the forward graph. Admin cancellation is handled by CanCancel.
var transitions = map[string][]string{
	StatusInitiated:  {StatusPending, StatusActivePlan, StatusPaid, StatusConfirmed, StatusFailed, StatusCanceled},
	StatusPending:    {StatusActivePlan, StatusPaid, StatusConfirmed, StatusFailed, StatusCanceled},
	StatusActivePlan: {StatusPastDue, StatusPaid, StatusConfirmed, StatusCanceled},
	StatusPastDue:    {StatusActivePlan, StatusPaid, StatusCanceled, StatusFailed},
	StatusPaid:       {StatusConfirmed},
}

type Booking struct {
	ID                 string `db:"id"`
	TripID             string `db:"trip_id"`
	PackageID          string `db:"package_id"`
	Guests             int    `db:"guests"`
	ContactName        string `db:"contact_name"`
	ContactEmail       string `db:"contact_email"`
	ContactPhone       string `db:"contact_phone"`
	PaymentOption      string `db:"payment_option"`
	Currency           string `db:"currency"`
	TotalPriceCents    int64  `db:"total_price_cents"`
	DepositAmountCents *int64 `db:"deposit_amount_cents"`
	AmountPaidCents    int64  `db:"amount_paid_cents"`
	Status             string `db:"status"`
	CheckoutSessionID  string `db:"checkout_session_id"`
	ProviderBookingID  string `db:"provider_booking_id"`
	Notes              string `db:"notes"`
	CancelReason       string `db:"cancel_reason"`
	model.Metadata
}

// CanTransition reports whether from -> to is an edge of the booking graph.
// Staying in the same status is always allowed so repeated events are no-ops.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}

	return slices.Contains(transitions[from], to)
}

func IsTerminal(status string) bool {
	switch status {
	case StatusConfirmed, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// IsPayable reports whether a new checkout session may be opened for the status.
func IsPayable(status string) bool {
	switch status {
	case StatusInitiated, StatusPending, StatusActivePlan, StatusPastDue:
		return true
	default:
		return false
	}
}

// CanCancel allows the admin edge from any non-terminal status.
func CanCancel(status string) bool {
	return !IsTerminal(status)
}

// Balance is what is still owed on the booking.
func (b Booking) Balance() int64 {
	return max(0, b.TotalPriceCents-b.AmountPaidCents)
}

// StatusAfterPayment is where a payable booking lands once paid reaches the given amount.
func (b Booking) StatusAfterPayment(paid int64) string {
	switch {
	case paid >= b.TotalPriceCents:
		return StatusPaid
	case b.PaymentOption == pricingModel.PaymentOptionPlan:
		return StatusActivePlan
	default:
		return StatusPending
	}
}
