// Package capacity turns a raw occupant count into the utilization figures
// shown on the dashboards. Pure computation, no I/O.
package capacity

import "math"

// Tier is the discrete crowding level derived from utilization.
type Tier string

const (
	TierMaintenance Tier = "maintenance"
	TierFull        Tier = "full"
	TierBusy        Tier = "busy"
	TierModerate    Tier = "moderate"
	TierQuiet       Tier = "quiet"
)

// Bookable reports whether visitors may still select a facility in this tier.
func (t Tier) Bookable() bool {
	return t != TierMaintenance && t != TierFull
}

// Report is the derived view of a facility's load.
type Report struct {
	UtilizationPercent int  `json:"utilizationPercent"`
	Tier               Tier `json:"tier"`
}

// Compute classifies a facility. Thresholds are evaluated in order, first
// match wins. A capacity of zero (or less) yields 0% so that a misconfigured
// facility never divides by zero or reads as overloaded.
func Compute(occupants, cap int, maintenance bool) Report {
	pct := Percent(occupants, cap)

	var tier Tier
	switch {
	case maintenance:
		tier = TierMaintenance
	case pct >= 90:
		tier = TierFull
	case pct >= 70:
		tier = TierBusy
	case pct >= 40:
		tier = TierModerate
	default:
		tier = TierQuiet
	}

	return Report{UtilizationPercent: pct, Tier: tier}
}

// Percent returns round(100 * occupants / cap) clamped to [0, 100].
func Percent(occupants, cap int) int {
	if cap <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(occupants) / float64(cap)))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
