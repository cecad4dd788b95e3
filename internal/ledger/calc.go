package ledger

import (
	"time"

	"github.com/meterwise/creditledger/internal/models"
)

// Snapshot carries raw balance fields plus the derived quantities exposed to callers.
type Snapshot struct {
	UserID uint64 `json:"user_id"`

	RecurringGranted int64 `json:"recurring_granted"`
	RecurringUsed    int64 `json:"recurring_used"`
	ExtraGranted     int64 `json:"extra_granted"`
	ExtraUsed        int64 `json:"extra_used"`

	RecurringAvailable int64 `json:"recurring_available"`
	ExtraAvailable     int64 `json:"extra_available"`
	Available          int64 `json:"available"`

	UsagePercent   float64   `json:"usage_percent"`
	NextResetAt    time.Time `json:"next_reset_at"`
	DaysUntilReset int       `json:"days_until_reset"`
	NeedsReset     bool      `json:"needs_reset"`

	TotalGrantedLifetime  int64 `json:"total_granted_lifetime"`
	TotalConsumedLifetime int64 `json:"total_consumed_lifetime"`
}

// RecurringAvailable returns the unused recurring credits, floored at zero.
func RecurringAvailable(b *models.Balance) int64 {
	if b == nil {
		return 0
	}
	if avail := b.RecurringGranted - b.RecurringUsed; avail > 0 {
		return avail
	}
	return 0
}

// ExtraAvailable returns the unused extra credits, floored at zero.
func ExtraAvailable(b *models.Balance) int64 {
	if b == nil {
		return 0
	}
	if avail := b.ExtraGranted - b.ExtraUsed; avail > 0 {
		return avail
	}
	return 0
}

// Available returns the total spendable credits.
func Available(b *models.Balance) int64 {
	return RecurringAvailable(b) + ExtraAvailable(b)
}

// UsagePercent returns recurring consumption as a percentage, capped at 100.
func UsagePercent(b *models.Balance) float64 {
	if b == nil || b.RecurringGranted == 0 {
		return 0
	}
	percent := float64(b.RecurringUsed) / float64(b.RecurringGranted) * 100
	if percent > 100 {
		return 100
	}
	return percent
}

// DaysUntilReset returns whole days until the next reset, floored at zero.
func DaysUntilReset(b *models.Balance, now time.Time) int {
	if b == nil {
		return 0
	}
	remaining := b.NextResetAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// NeedsReset reports whether the recurring bucket reset is due.
func NeedsReset(b *models.Balance, now time.Time) bool {
	if b == nil {
		return false
	}
	return !now.Before(b.NextResetAt)
}

// BuildSnapshot computes all derived fields from a balance at a point in time.
func BuildSnapshot(b *models.Balance, now time.Time) Snapshot {
	if b == nil {
		return Snapshot{}
	}
	return Snapshot{
		UserID:                b.UserID,
		RecurringGranted:      b.RecurringGranted,
		RecurringUsed:         b.RecurringUsed,
		ExtraGranted:          b.ExtraGranted,
		ExtraUsed:             b.ExtraUsed,
		RecurringAvailable:    RecurringAvailable(b),
		ExtraAvailable:        ExtraAvailable(b),
		Available:             Available(b),
		UsagePercent:          UsagePercent(b),
		NextResetAt:           b.NextResetAt,
		DaysUntilReset:        DaysUntilReset(b, now),
		NeedsReset:            NeedsReset(b, now),
		TotalGrantedLifetime:  b.TotalGrantedLifetime,
		TotalConsumedLifetime: b.TotalConsumedLifetime,
	}
}

// nextResetAfter returns the first instant of the month following t, in UTC.
func nextResetAfter(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

// advanceResetTime moves a reset timestamp forward period by period until it
// lies strictly after now. Balances untouched for several cycles advance in
// one step without intermediate resets.
func advanceResetTime(from, now time.Time) time.Time {
	next := from.UTC()
	for !next.After(now) {
		next = nextResetAfter(next)
	}
	return next
}
