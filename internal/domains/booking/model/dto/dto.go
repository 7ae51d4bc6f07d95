package dto

import (
	"slices"
	"strings"

	"retreat/internal/domains/booking/model"
	pricingModel "retreat/internal/domains/pricing/model"
	"retreat/shared"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	gModel "retreat/shared/model"
)

const IDPrefix = "bk"

// CreateBookingRequest carries no amount: every price is looked up server side.
type CreateBookingRequest struct {
	TripID        string `json:"trip_id"        validate:"required,notblank"`
	PackageID     string `json:"package_id"     validate:"required,notblank"`
	Guests        int    `json:"guests"         validate:"required,min=1,max=20"`
	ContactName   string `json:"contact_name"   validate:"required,notblank,max=120"`
	ContactEmail  string `json:"contact_email"  validate:"required,email,max=254"`
	ContactPhone  string `json:"contact_phone"  validate:"omitempty,max=32"`
	PaymentOption string `json:"payment_option" validate:"required,oneof=full deposit plan"`
	Notes         string `json:"notes"          validate:"omitempty,max=2000"`
}

func (r CreateBookingRequest) ToModel(quote pricingModel.Quote, currency, user string) model.Booking {
	return model.Booking{
		ID:                 shared.NewID(IDPrefix),
		TripID:             r.TripID,
		PackageID:          r.PackageID,
		Guests:             r.Guests,
		ContactName:        strings.TrimSpace(r.ContactName),
		ContactEmail:       strings.ToLower(strings.TrimSpace(r.ContactEmail)),
		ContactPhone:       strings.TrimSpace(r.ContactPhone),
		PaymentOption:      r.PaymentOption,
		Currency:           currency,
		TotalPriceCents:    quote.TotalCents,
		DepositAmountCents: quote.DepositCents,
		Status:             model.StatusInitiated,
		Notes:              r.Notes,
		Metadata:           gModel.NewMetadata(user),
	}
}

type CheckoutRequest struct {
	BookingID string `json:"bookingId" validate:"required,notblank"`
}

type CheckoutResponse struct {
	URL       string `json:"url"`
	BookingID string `json:"bookingId,omitempty"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required,notblank,max=500"`
}

// RecordPaymentRequest sets the total collected so far; it is not an increment.
type RecordPaymentRequest struct {
	AmountPaidCents int64 `json:"amount_paid_cents" validate:"gte=0"`
}

type BookingResponse struct {
	ID                 string `json:"id"`
	TripID             string `json:"trip_id"`
	PackageID          string `json:"package_id"`
	Guests             int    `json:"guests"`
	ContactName        string `json:"contact_name"`
	ContactEmail       string `json:"contact_email"`
	ContactPhone       string `json:"contact_phone,omitempty"`
	PaymentOption      string `json:"payment_option"`
	Currency           string `json:"currency"`
	TotalPriceCents    int64  `json:"total_price_cents"`
	DepositAmountCents *int64 `json:"deposit_amount_cents,omitempty"`
	AmountPaidCents    int64  `json:"amount_paid_cents"`
	BalanceCents       int64  `json:"balance_cents"`
	Status             string `json:"status"`
	CheckoutSessionID  string `json:"checkout_session_id,omitempty"`
	ProviderBookingID  string `json:"provider_booking_id,omitempty"`
	Notes              string `json:"notes,omitempty"`
	CancelReason       string `json:"cancel_reason,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(m model.Booking) {
	r.ID = m.ID
	r.TripID = m.TripID
	r.PackageID = m.PackageID
	r.Guests = m.Guests
	r.ContactName = m.ContactName
	r.ContactEmail = m.ContactEmail
	r.ContactPhone = m.ContactPhone
	r.PaymentOption = m.PaymentOption
	r.Currency = m.Currency
	r.TotalPriceCents = m.TotalPriceCents
	r.DepositAmountCents = m.DepositAmountCents
	r.AmountPaidCents = m.AmountPaidCents
	r.BalanceCents = m.Balance()
	r.Status = m.Status
	r.CheckoutSessionID = m.CheckoutSessionID
	r.ProviderBookingID = m.ProviderBookingID
	r.Notes = m.Notes
	r.CancelReason = m.CancelReason
	r.Metadata.FromModel(m.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

// ReconcileResult tells the webhook ingress which booking an event touched.
type ReconcileResult struct {
	BookingID string
	From      string
	Status    string
	Applied   bool
}

// SortableFields guards ORDER BY for booking listings.
var SortableFields = []string{constant.FieldCreatedAt, model.FieldStatus, "total_price_cents"}

// ValidStatusFilter accepts an empty filter or a known status.
func ValidStatusFilter(status string) bool {
	return status == "" || slices.Contains(model.Statuses, status)
}
