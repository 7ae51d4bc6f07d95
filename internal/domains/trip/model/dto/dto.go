package dto

import (
	"time"

	"retreat/internal/domains/trip/model"
	"retreat/shared"
	"retreat/shared/constant"
	gDto "retreat/shared/dto"
	"retreat/shared/timezone"
)

type UpdatePaymentSettingsRequest struct {
	DepositPerPersonCents *int64  `json:"deposit_per_person_cents" validate:"omitempty,gt=0"`
	PaymentPlanEnabled    *bool   `json:"payment_plan_enabled"`
	PlanCutoffDate        *string `json:"plan_cutoff_date"         validate:"omitempty,datetime=2006-01-02"`
	MaxInstallments       *int    `json:"max_installments"         validate:"omitempty,min=1,max=24"`
}

type paymentSettingsUpdate struct {
	DepositPerPersonCents *int64     `db:"deposit_per_person_cents"`
	PaymentPlanEnabled    *bool      `db:"payment_plan_enabled"`
	PlanCutoffDate        *time.Time `db:"plan_cutoff_date"`
	MaxInstallments       *int       `db:"max_installments"`
}

// ToUpdateFields keeps only the settings present in the request. A pointer to false is still written.
func (r UpdatePaymentSettingsRequest) ToUpdateFields(user string) (map[string]any, error) {
	update := paymentSettingsUpdate{
		DepositPerPersonCents: r.DepositPerPersonCents,
		PaymentPlanEnabled:    r.PaymentPlanEnabled,
		MaxInstallments:       r.MaxInstallments,
	}

	if r.PlanCutoffDate != nil {
		cutoff, err := time.ParseInLocation(time.DateOnly, *r.PlanCutoffDate, timezone.GetLocation())
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		// the cutoff day itself is still open
		cutoff = cutoff.Add(24*time.Hour - time.Nanosecond)
		update.PlanCutoffDate = &cutoff
	}

	return shared.TransformFields(update, user), nil
}

type PackageResponse struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Nights              int    `json:"nights"`
	Occupancy           string `json:"occupancy"`
	PricePerPersonCents int64  `json:"price_per_person_cents"`
}

func (p *PackageResponse) FromModel(m model.Package) {
	p.ID = m.ID
	p.Name = m.Name
	p.Nights = m.Nights
	p.Occupancy = m.Occupancy
	p.PricePerPersonCents = m.PricePerPersonCents
}

type TripResponse struct {
	ID                    string            `json:"id"`
	Name                  string            `json:"name"`
	Slug                  string            `json:"slug"`
	Currency              string            `json:"currency"`
	StartDate             string            `json:"start_date,omitempty"`
	DepositPerPersonCents *int64            `json:"deposit_per_person_cents"`
	PaymentPlanEnabled    bool              `json:"payment_plan_enabled"`
	PlanCutoffDate        string            `json:"plan_cutoff_date,omitempty"`
	MaxInstallments       int               `json:"max_installments"`
	Packages              []PackageResponse `json:"packages,omitempty"`
	gDto.Metadata
}

func (t *TripResponse) FromModel(m model.Trip, packages []model.Package) {
	t.ID = m.ID
	t.Name = m.Name
	t.Slug = m.Slug
	t.Currency = m.Currency
	t.DepositPerPersonCents = m.DepositPerPersonCents
	t.PaymentPlanEnabled = m.PaymentPlanEnabled
	t.MaxInstallments = m.MaxInstallments

	if m.StartDate != nil {
		t.StartDate = timezone.Format(*m.StartDate, time.DateOnly)
	}

	if m.PlanCutoffDate != nil {
		t.PlanCutoffDate = timezone.Format(*m.PlanCutoffDate, time.DateOnly)
	}

	for _, pkg := range packages {
		var response PackageResponse
		response.FromModel(pkg)
		t.Packages = append(t.Packages, response)
	}

	t.Metadata.FromModel(m.Metadata)
}

type GetTripsResponse struct {
	Trips     []TripResponse `json:"trips"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (g *GetTripsResponse) FromModels(models []model.Trip, total, limit int) {
	g.Trips = make([]TripResponse, 0, len(models))

	for _, m := range models {
		var trip TripResponse
		trip.FromModel(m, nil)
		g.Trips = append(g.Trips, trip)
	}

	g.TotalData = total
	g.TotalPage = shared.CalculateTotalPage(total, limit)
}

// SortableFields guards ORDER BY for trip listings.
var SortableFields = []string{constant.FieldCreatedAt, "name", "start_date"}
