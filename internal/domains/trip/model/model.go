package model

import (
	"time"

	"retreat/shared/failure"
	"retreat/shared/model"
)

const (
	TableName        = "trips"
	PackageTableName = "trip_packages"
	EntityName       = "trip"
	PackageEntity    = "trip_package"

	FieldID                    = "id"
	FieldTripID                = "trip_id"
	FieldSlug                  = "slug"
	FieldActive                = "active"
	FieldDepositPerPersonCents = "deposit_per_person_cents"
	FieldPaymentPlanEnabled    = "payment_plan_enabled"
	FieldPlanCutoffDate        = "plan_cutoff_date"
	FieldMaxInstallments       = "max_installments"
	FieldPricePerPersonCents   = "price_per_person_cents"
	FieldCreatedAt             = "created_at"
)

type Trip struct {
	ID                    string     `db:"id"`
	Name                  string     `db:"name"`
	Slug                  string     `db:"slug"`
	Currency              string     `db:"currency"`
	StartDate             *time.Time `db:"start_date"`
	DepositPerPersonCents *int64     `db:"deposit_per_person_cents"`
	PaymentPlanEnabled    bool       `db:"payment_plan_enabled"`
	PlanCutoffDate        *time.Time `db:"plan_cutoff_date"`
	MaxInstallments       int        `db:"max_installments"`
	Active                bool       `db:"active"`
	model.Metadata
}

type Package struct {
	ID                  string `db:"id"`
	TripID              string `db:"trip_id"`
	Name                string `db:"name"`
	Nights              int    `db:"nights"`
	Occupancy           string `db:"occupancy"`
	PricePerPersonCents int64  `db:"price_per_person_cents"`
	ProviderPackageName string `db:"provider_package_name"`
	Active              bool   `db:"active"`
	model.Metadata
}

// PlanAvailable rejects the plan option when the trip turned it off or the cutoff has passed.
func (t Trip) PlanAvailable(now time.Time) error {
	if !t.PaymentPlanEnabled {
		return failure.BadRequestFromString("Payment plan is not available for this trip")
	}

	if t.PlanCutoffDate != nil && now.After(*t.PlanCutoffDate) {
		return failure.BadRequestFromString("Payment plan cutoff date has passed")
	}

	return nil
}
