package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncFrequencyInterval(t *testing.T) {
	assert.Equal(t, 24*time.Hour, SyncDaily.Interval())
	assert.Equal(t, 7*24*time.Hour, SyncWeekly.Interval())
	assert.Equal(t, 30*24*time.Hour, SyncMonthly.Interval())
	// Unknown values fall back to weekly.
	assert.Equal(t, 7*24*time.Hour, SyncFrequency("hourly").Interval())
}

func TestSyncSettingsDue(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	t.Run("NeverSyncedIsDue", func(t *testing.T) {
		s := &SyncSettings{SyncFrequency: SyncWeekly}
		assert.True(t, s.Due(now))
	})

	t.Run("RecentlySyncedNotDue", func(t *testing.T) {
		last := now.Add(-time.Hour)
		s := &SyncSettings{SyncFrequency: SyncDaily, LastSyncedAt: &last}
		assert.False(t, s.Due(now))
	})

	t.Run("StaleIsDue", func(t *testing.T) {
		last := now.Add(-25 * time.Hour)
		s := &SyncSettings{SyncFrequency: SyncDaily, LastSyncedAt: &last}
		assert.True(t, s.Due(now))
	})

	t.Run("ExactBoundaryIsDue", func(t *testing.T) {
		last := now.Add(-24 * time.Hour)
		s := &SyncSettings{SyncFrequency: SyncDaily, LastSyncedAt: &last}
		assert.True(t, s.Due(now))
	})
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2026-08", MonthKey(time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)))
	// Local times near midnight resolve in UTC.
	loc := time.FixedZone("UTC+5:30", 5*3600+1800)
	assert.Equal(t, "2026-07", MonthKey(time.Date(2026, 8, 1, 3, 0, 0, 0, loc)))
}

func TestPhaseTransitions(t *testing.T) {
	cases := []struct {
		from, to SyncPhase
		ok       bool
	}{
		{PhaseIdle, PhaseFetching, true},
		{PhaseFetching, PhaseExtracting, true},
		{PhaseExtracting, PhasePreview, true},
		{PhasePreview, PhaseImporting, true},
		{PhaseImporting, PhaseComplete, true},
		{PhaseIdle, PhaseImporting, false},
		{PhasePreview, PhaseComplete, false},
		{PhaseComplete, PhaseFetching, false},
		// Error is reachable from anywhere.
		{PhaseIdle, PhaseError, true},
		{PhaseImporting, PhaseError, true},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}

	assert.True(t, PhaseComplete.Terminal())
	assert.True(t, PhaseError.Terminal())
	assert.False(t, PhasePreview.Terminal())
}
