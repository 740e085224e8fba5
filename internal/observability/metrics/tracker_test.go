package metrics

import (
	"testing"
	"time"

	"github.com/storably/stashsync/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(categories ...string) (*Tracker, *clock.FakeClock) {
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewTracker(clk, 6*time.Hour, categories, nil), clk
}

func TestDurationWindowCapped(t *testing.T) {
	tracker, _ := newTestTracker()

	for i := 0; i < 250; i++ {
		tracker.RecordCall("pms.health", true, 10*time.Millisecond)
	}

	snap := tracker.Snapshot()
	s := snap.Calls["pms.health"]
	assert.Equal(t, int64(250), s.Total, "counters only increase")
	assert.Equal(t, durationWindow, s.Samples, "duration history capped at last 100")
}

func TestHealthFreshnessWindow(t *testing.T) {
	tracker, clk := newTestTracker("units")

	tracker.RecordCall("api", true, time.Millisecond)
	tracker.RecordSync("units", true, time.Second)
	require.Equal(t, StatusHealthy, tracker.Health().Status)

	clk.Advance(7 * time.Hour)
	report := tracker.Health()
	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.Equal(t, StatusUnhealthy, report.Categories["units"].Status,
		"a 100%% success rate does not save a stale category")
}

func TestHealthSuccessRatioThreshold(t *testing.T) {
	tracker, _ := newTestTracker("units")
	tracker.RecordSync("units", true, time.Second)

	// 100 calls, 4 failures -> 96% > 95%
	for i := 0; i < 96; i++ {
		tracker.RecordCall("api", true, time.Millisecond)
	}
	for i := 0; i < 4; i++ {
		tracker.RecordCall("api", false, time.Millisecond)
	}
	report := tracker.Health()
	assert.Equal(t, StatusHealthy, report.API.Status)
	assert.InDelta(t, 0.96, report.API.SuccessRatio, 0.001)

	// push below the threshold
	for i := 0; i < 10; i++ {
		tracker.RecordCall("api", false, time.Millisecond)
	}
	report = tracker.Health()
	assert.Equal(t, StatusUnhealthy, report.API.Status)
	assert.Equal(t, StatusUnhealthy, report.Status)
}

func TestHealthUnhealthyWithoutAnyCalls(t *testing.T) {
	tracker, _ := newTestTracker()
	assert.Equal(t, StatusUnhealthy, tracker.Health().API.Status)
}

func TestRegisteredCategoryUnhealthyBeforeFirstRun(t *testing.T) {
	tracker, _ := newTestTracker("units", "pms_tenants")

	report := tracker.Health()
	require.Contains(t, report.Categories, "pms_tenants")
	assert.Equal(t, StatusUnhealthy, report.Categories["pms_tenants"].Status)
}

func TestFailedSyncDoesNotAdvanceLastSuccess(t *testing.T) {
	tracker, clk := newTestTracker("leases")

	tracker.RecordSync("leases", true, time.Second)
	first := tracker.Snapshot().Syncs["leases"]

	clk.Advance(time.Hour)
	tracker.RecordSync("leases", false, time.Second)
	second := tracker.Snapshot().Syncs["leases"]

	assert.Equal(t, first.LastSuccess, second.LastSuccess)
	assert.True(t, second.LastRun.After(*first.LastRun))
	assert.Equal(t, int64(1), second.Failure)
}
