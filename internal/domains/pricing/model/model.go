package model

import "errors"

const (
	PaymentOptionFull    = "full"
	PaymentOptionDeposit = "deposit"
	PaymentOptionPlan    = "plan"

	// bpsScale is 100% in basis points.
	bpsScale = 10000
)

var ErrUnknownPaymentOption = errors.New("unknown payment option")

// Schedule is the processor fee: a rate in basis points plus a fixed amount per charge.
type Schedule struct {
	RateBPS    int64
	FixedCents int64
}

// Policy decides how much of the total is owed at booking time.
type Policy struct {
	DepositPercent               int64
	DefaultDepositPerPersonCents int64
}

// Quote is every amount the intake needs, all in minor units.
type Quote struct {
	TotalCents   int64
	NetCents     int64
	GrossCents   int64
	DepositCents *int64
}

// FeeCents is what the processor keeps out of the gross.
func (q Quote) FeeCents() int64 {
	return q.GrossCents - q.NetCents
}

func ValidPaymentOption(option string) bool {
	switch option {
	case PaymentOptionFull, PaymentOptionDeposit, PaymentOptionPlan:
		return true
	default:
		return false
	}
}

// Gross returns ceil((net + fixed) / (1 - rate)) using only integer arithmetic.
func (s Schedule) Gross(netCents int64) int64 {
	if netCents <= 0 {
		return 0
	}

	numerator := (netCents + s.FixedCents) * bpsScale
	denominator := bpsScale - s.RateBPS

	return ceilDiv(numerator, denominator)
}

// Net inverts Gross: it is the amount left after the processor takes its fee from gross.
// For any net >= 0, Net(Gross(net)) == net.
func (s Schedule) Net(grossCents int64) int64 {
	if grossCents <= 0 {
		return 0
	}

	return max(0, grossCents*(bpsScale-s.RateBPS)/bpsScale-s.FixedCents)
}

func ceilDiv(numerator, denominator int64) int64 {
	return (numerator + denominator - 1) / denominator
}

// PercentOf rounds up, so a deposit never falls short by a cent.
func PercentOf(amount, percent int64) int64 {
	return ceilDiv(amount*percent, 100)
}
