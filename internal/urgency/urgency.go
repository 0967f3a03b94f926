// Package urgency turns a policy's end date into a remaining-day count and an
// expiry tier for display and reminders.
package urgency

import (
	"fmt"
	"math"
	"time"

	"policy-assistant/internal/model"
)

// NominalTermDays is the policy length the progress bar assumes regardless of the
// actual start/end span.
const NominalTermDays = 365

const (
	UrgentBelowDays = 30
	SoonBelowDays   = 90
)

const day = 24 * time.Hour

// DaysRemaining is the ceiling of (end - ref) in whole days. It is negative once
// the policy has expired and exactly 0 at end.
func DaysRemaining(end, ref time.Time) int {
	return int(math.Ceil(float64(end.Sub(ref)) / float64(day)))
}

func Classify(days int) string {
	switch {
	case days <= 0:
		return model.TierExpired
	case days < UrgentBelowDays:
		return model.TierUrgent
	case days < SoonBelowDays:
		return model.TierSoon
	default:
		return model.TierHealthy
	}
}

// Progress is days/termDays clamped to [0, 1].
func Progress(days, termDays int) float64 {
	if termDays <= 0 {
		termDays = NominalTermDays
	}
	return math.Max(0, math.Min(1, float64(days)/float64(termDays)))
}

func Label(days int) string {
	if days > 0 {
		return fmt.Sprintf("%d Gün Kaldı", days)
	}
	return "Süresi Doldu"
}

// Assess classifies p at now. An unparseable end date is reported as expired.
func Assess(p model.Policy, now time.Time, termDays int) model.Urgency {
	end, ok := ParseDate(p.EndDate)
	if !ok {
		return model.Urgency{
			DaysRemaining: 0,
			Tier:          model.TierExpired,
			Progress:      0,
			Label:         "Geçersiz Tarih",
		}
	}

	days := DaysRemaining(end, now)
	return model.Urgency{
		DaysRemaining: days,
		Tier:          Classify(days),
		Progress:      Progress(days, termDays),
		Label:         Label(days),
	}
}
