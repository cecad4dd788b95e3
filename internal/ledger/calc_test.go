package ledger

import (
	"testing"
	"time"

	"github.com/meterwise/creditledger/internal/models"
)

func TestAvailableSumsBothBuckets(t *testing.T) {
	b := &models.Balance{
		RecurringGranted: 1000,
		RecurringUsed:    250,
		ExtraGranted:     500,
		ExtraUsed:        100,
	}
	if got := RecurringAvailable(b); got != 750 {
		t.Fatalf("recurring available = %d, want 750", got)
	}
	if got := ExtraAvailable(b); got != 400 {
		t.Fatalf("extra available = %d, want 400", got)
	}
	if got := Available(b); got != 1150 {
		t.Fatalf("available = %d, want 1150", got)
	}
}

func TestAvailableFloorsNegativeBuckets(t *testing.T) {
	b := &models.Balance{RecurringGranted: 100, RecurringUsed: 150, ExtraGranted: 10}
	if got := RecurringAvailable(b); got != 0 {
		t.Fatalf("recurring available = %d, want 0", got)
	}
	if got := Available(b); got != 10 {
		t.Fatalf("available = %d, want 10", got)
	}
}

func TestUsagePercent(t *testing.T) {
	cases := []struct {
		granted, used int64
		want          float64
	}{
		{1000, 250, 25},
		{1000, 0, 0},
		{0, 0, 0},
		{100, 150, 100},
	}
	for _, tc := range cases {
		b := &models.Balance{RecurringGranted: tc.granted, RecurringUsed: tc.used}
		if got := UsagePercent(b); got != tc.want {
			t.Fatalf("usage percent %d/%d = %v, want %v", tc.used, tc.granted, got, tc.want)
		}
	}
}

func TestDaysUntilResetRoundsUp(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	b := &models.Balance{NextResetAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)}
	if got := DaysUntilReset(b, now); got != 22 {
		t.Fatalf("days until reset = %d, want 22", got)
	}

	b.NextResetAt = now.Add(time.Hour)
	if got := DaysUntilReset(b, now); got != 1 {
		t.Fatalf("partial day should round up, got %d", got)
	}

	b.NextResetAt = now.Add(-time.Hour)
	if got := DaysUntilReset(b, now); got != 0 {
		t.Fatalf("overdue reset should report 0 days, got %d", got)
	}
}

func TestNeedsResetBoundary(t *testing.T) {
	at := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	b := &models.Balance{NextResetAt: at}

	if NeedsReset(b, at.Add(-time.Second)) {
		t.Fatal("reset should not be due before the boundary")
	}
	if !NeedsReset(b, at) {
		t.Fatal("reset should be due exactly at the boundary")
	}
	if !NeedsReset(b, at.Add(time.Second)) {
		t.Fatal("reset should be due after the boundary")
	}
}

func TestNextResetAfter(t *testing.T) {
	cases := []struct {
		at   time.Time
		want time.Time
	}{
		{time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := nextResetAfter(tc.at); !got.Equal(tc.want) {
			t.Fatalf("nextResetAfter(%s) = %s, want %s", tc.at, got, tc.want)
		}
	}
}

func TestAdvanceResetTimeSkipsMissedCycles(t *testing.T) {
	from := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)

	got := advanceResetTime(from, now)
	want := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("advanceResetTime = %s, want %s", got, want)
	}
}

func TestBuildSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	b := &models.Balance{
		UserID:                42,
		RecurringGranted:      1000,
		RecurringUsed:         250,
		ExtraGranted:          500,
		ExtraUsed:             100,
		NextResetAt:           time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		TotalGrantedLifetime:  1500,
		TotalConsumedLifetime: 350,
	}

	snap := BuildSnapshot(b, now)
	if snap.UserID != 42 || snap.Available != 1150 || snap.RecurringAvailable != 750 || snap.ExtraAvailable != 400 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.UsagePercent != 25 {
		t.Fatalf("usage percent = %v, want 25", snap.UsagePercent)
	}
	if snap.NeedsReset {
		t.Fatal("reset should not be due")
	}
	if snap.DaysUntilReset != 22 {
		t.Fatalf("days until reset = %d, want 22", snap.DaysUntilReset)
	}
}
