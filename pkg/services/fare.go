package services

import (
	"math"

	"megacity/pkg/models"
)

// Fare model: every booking is priced as a fixed three-hour trip at the
// vehicle's hourly rate, plus 12% tax and an optional flat chauffeur fee.
const (
	TripHours = 3
	TaxRate   = 0.12
	DriverFee = 30.0
)

// ComputeFare derives the price breakdown for the selected vehicle.
// Deterministic, no I/O; callers recompute on every vehicle or driver-flag
// change so the displayed total is never stale.
func ComputeFare(v models.Vehicle, driverRequired bool) models.FareBreakdown {
	base := round2(v.HourlyRate * TripHours)
	tax := round2(base * TaxRate)
	fee := 0.0
	if driverRequired {
		fee = DriverFee
	}
	return models.FareBreakdown{
		BaseFare:  base,
		Tax:       tax,
		DriverFee: fee,
		Total:     round2(base + tax + fee),
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
