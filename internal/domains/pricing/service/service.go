package service

import (
	"fmt"

	"retreat/config"
	"retreat/internal/domains/pricing/model"
)

// Pricing computes what a traveler is charged today. Inputs come from the server side
// trip and package tables, never from a client submitted amount.
type Pricing interface {
	// GrossAmount marks net up so that, after the processor fee, net is what remains.
	GrossAmount(netCents int64) int64
	// NetAmount is what a collected gross amount is worth against the booking total.
	NetAmount(grossCents int64) int64
	// NetOwed is the amount due now under the payment option.
	NetOwed(option string, totalCents int64, guests int, depositPerPersonCents *int64) (int64, error)
	Quote(option string, pricePerPersonCents int64, guests int, depositPerPersonCents *int64) (model.Quote, error)
	Currency() string
}

type serviceImpl struct {
	schedule model.Schedule
	policy   model.Policy
	currency string
}

func New(cfg *config.Config) Pricing {
	return NewWithSchedule(
		model.Schedule{RateBPS: cfg.Pricing.FeeRateBPS, FixedCents: cfg.Pricing.FixedFeeCents},
		model.Policy{
			DepositPercent:               cfg.Pricing.DepositPercent,
			DefaultDepositPerPersonCents: cfg.Pricing.DefaultDepositPerPersonCents,
		},
		cfg.Pricing.Currency,
	)
}

func NewWithSchedule(schedule model.Schedule, policy model.Policy, currency string) Pricing {
	return &serviceImpl{
		schedule: schedule,
		policy:   policy,
		currency: currency,
	}
}

func (s *serviceImpl) GrossAmount(netCents int64) int64 {
	return s.schedule.Gross(netCents)
}

func (s *serviceImpl) NetAmount(grossCents int64) int64 {
	return s.schedule.Net(grossCents)
}

func (s *serviceImpl) NetOwed(option string, totalCents int64, guests int, depositPerPersonCents *int64) (int64, error) {
	switch option {
	case model.PaymentOptionFull:
		return totalCents, nil
	case model.PaymentOptionDeposit:
		return model.PercentOf(totalCents, s.policy.DepositPercent), nil
	case model.PaymentOptionPlan:
		perPerson := s.policy.DefaultDepositPerPersonCents
		if depositPerPersonCents != nil && *depositPerPersonCents > 0 {
			perPerson = *depositPerPersonCents
		}

		// the plan deposit can never exceed the booking itself
		return min(perPerson*int64(guests), totalCents), nil
	default:
		return 0, fmt.Errorf("%w: %q", model.ErrUnknownPaymentOption, option)
	}
}

func (s *serviceImpl) Quote(option string, pricePerPersonCents int64, guests int, depositPerPersonCents *int64) (model.Quote, error) {
	total := pricePerPersonCents * int64(guests)

	net, err := s.NetOwed(option, total, guests, depositPerPersonCents)
	if err != nil {
		return model.Quote{}, err
	}

	quote := model.Quote{
		TotalCents: total,
		NetCents:   net,
		GrossCents: s.GrossAmount(net),
	}

	if option != model.PaymentOptionFull {
		quote.DepositCents = &net
	}

	return quote, nil
}

func (s *serviceImpl) Currency() string {
	return s.currency
}
