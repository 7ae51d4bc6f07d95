package dto

import (
	"slices"
	"strings"

	"retreat/internal/domains/intent/model"
	tripModel "retreat/internal/domains/trip/model"
	"retreat/shared"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	gModel "retreat/shared/model"
	"retreat/shared/timezone"
)

const IDPrefix = "in"

type TravelerRequest struct {
	FirstName string `json:"first_name" validate:"required,notblank,max=80"`
	LastName  string `json:"last_name"  validate:"required,notblank,max=80"`
	Email     string `json:"email"      validate:"required,email,max=254"`
	Phone     string `json:"phone"      validate:"omitempty,max=32"`
}

type CreateIntentRequest struct {
	TripID          string          `json:"trip_id"          validate:"required,notblank"`
	PackageID       string          `json:"package_id"       validate:"required,notblank"`
	TravelerPrimary TravelerRequest `json:"traveler_primary" validate:"required"`
	TravelersCount  int             `json:"travelers_count"  validate:"required,min=1,max=20"`
	Notes           string          `json:"notes"            validate:"omitempty,max=2000"`
}

// ToModel prices the intent from the package table and starts it as an unpaid draft.
func (r CreateIntentRequest) ToModel(pkg tripModel.Package, user string) model.Intent {
	return model.Intent{
		ID:                  shared.NewID(IDPrefix),
		TripID:              r.TripID,
		PackageID:           r.PackageID,
		TravelerFirstName:   strings.TrimSpace(r.TravelerPrimary.FirstName),
		TravelerLastName:    strings.TrimSpace(r.TravelerPrimary.LastName),
		TravelerEmail:       strings.ToLower(strings.TrimSpace(r.TravelerPrimary.Email)),
		TravelerPhone:       strings.TrimSpace(r.TravelerPrimary.Phone),
		TravelersCount:      r.TravelersCount,
		Nights:              pkg.Nights,
		Occupancy:           pkg.Occupancy,
		PricePerPersonCents: pkg.PricePerPersonCents,
		TotalPriceCents:     pkg.PricePerPersonCents * int64(r.TravelersCount),
		Notes:               r.Notes,
		Status:              model.StatusDraft,
		PaymentStatus:       model.PaymentUnpaid,
		FulfillmentStatus:   model.FulfillmentPending,
		ExternalRefs:        gModel.Refs{},
		Metadata:            gModel.NewMetadata(user),
	}
}

type CreateIntentResponse struct {
	IntentID string `json:"intent_id"`
	URL      string `json:"url"`
	LeadID   string `json:"lead_id,omitempty"`
	Status   string `json:"status"`
}

type CancelIntentRequest struct {
	Reason string `json:"reason" validate:"required,notblank,max=500"`
}

type TravelerResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

type IntentResponse struct {
	ID                  string            `json:"id"`
	TripID              string            `json:"trip_id"`
	PackageID           string            `json:"package_id"`
	TravelerPrimary     TravelerResponse  `json:"traveler_primary"`
	TravelersCount      int               `json:"travelers_count"`
	Nights              int               `json:"nights"`
	Occupancy           string            `json:"occupancy"`
	PricePerPersonCents int64             `json:"price_per_person_cents"`
	TotalPriceCents     int64             `json:"total_price_cents"`
	Notes               string            `json:"notes,omitempty"`
	Status              string            `json:"status"`
	PaymentStatus       string            `json:"payment_status"`
	FulfillmentStatus   string            `json:"fulfillment_status"`
	ExternalRefs        map[string]string `json:"external_refs"`
	HandedOffAt         string            `json:"handed_off_at,omitempty"`
	CancelReason        string            `json:"cancel_reason,omitempty"`
	gDto.Metadata
}

func (r *IntentResponse) FromModel(m model.Intent) {
	r.ID = m.ID
	r.TripID = m.TripID
	r.PackageID = m.PackageID
	r.TravelerPrimary = TravelerResponse{
		FirstName: m.TravelerFirstName,
		LastName:  m.TravelerLastName,
		Email:     m.TravelerEmail,
		Phone:     m.TravelerPhone,
	}
	r.TravelersCount = m.TravelersCount
	r.Nights = m.Nights
	r.Occupancy = m.Occupancy
	r.PricePerPersonCents = m.PricePerPersonCents
	r.TotalPriceCents = m.TotalPriceCents
	r.Notes = m.Notes
	r.Status = m.Status
	r.PaymentStatus = m.PaymentStatus
	r.FulfillmentStatus = m.FulfillmentStatus
	r.ExternalRefs = m.ExternalRefs.Clone()
	r.CancelReason = m.CancelReason

	if m.HandedOffAt != nil {
		r.HandedOffAt = timezone.Format(*m.HandedOffAt, constant.DateFormat)
	}

	r.Metadata.FromModel(m.Metadata)
}

type GetIntentsResponse struct {
	Intents   []IntentResponse `json:"intents"`
	TotalPage int              `json:"total_page"`
	TotalData int              `json:"total_data"`
}

func (r *GetIntentsResponse) FromModels(models []model.Intent, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Intents = make([]IntentResponse, len(models))
	for i, mod := range models {
		r.Intents[i].FromModel(mod)
	}
}

// ReconcileResult is what the webhook acknowledgment reports back.
type ReconcileResult struct {
	IntentID string
	From     string
	Status   string
	Applied  bool
}

var SortableFields = []string{constant.FieldCreatedAt, model.FieldStatus, "total_price_cents"}

func ValidStatusFilter(status string) bool {
	return status == "" || slices.Contains(model.Statuses, status)
}
