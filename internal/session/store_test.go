package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTouchCreatesOnFirstUse(t *testing.T) {
	s := NewStore(10, time.Hour)

	ctx := s.Touch("s1")
	require.NotNil(t, ctx)
	assert.Equal(t, "s1", ctx.SessionID)
	assert.Equal(t, 1, s.Len())

	again := s.Touch("s1")
	assert.Same(t, ctx, again)
	assert.Equal(t, 1, s.Len())
}

func TestHistoryBounded(t *testing.T) {
	s := NewStore(10, time.Hour)
	s.Touch("s1")

	for i := 0; i < 15; i++ {
		s.Append("s1", HistoryEntry{
			QueryID: fmt.Sprintf("q%d", i),
			Content: fmt.Sprintf("question %d", i),
		})
	}

	history := s.History("s1")
	require.Len(t, history, 10)
	// Oldest entries fall off; the newest survive.
	assert.Equal(t, "q5", history[0].QueryID)
	assert.Equal(t, "q14", history[9].QueryID)
}

func TestAppendUnknownSessionIgnored(t *testing.T) {
	s := NewStore(10, time.Hour)
	s.Append("ghost", HistoryEntry{QueryID: "q1"})
	assert.Nil(t, s.History("ghost"))
	assert.Zero(t, s.Len())
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := NewStore(10, time.Hour)
	s.Touch("s1")
	s.Append("s1", HistoryEntry{QueryID: "q1", Content: "original"})

	history := s.History("s1")
	history[0].Content = "mutated"

	assert.Equal(t, "original", s.History("s1")[0].Content)
}

func TestSetTemporal(t *testing.T) {
	s := NewStore(10, time.Hour)
	s.Touch("s1")
	s.SetTemporal("s1", "incident_window", "2026-08-24T10:00Z")

	ctx := s.Touch("s1")
	assert.Equal(t, "2026-08-24T10:00Z", ctx.TemporalContext["incident_window"])
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	s := NewStore(10, 30*time.Minute)

	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	s.Touch("idle")

	s.now = func() time.Time { return base.Add(10 * time.Minute) }
	s.Touch("active")

	s.now = func() time.Time { return base.Add(35 * time.Minute) }
	removed := s.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())
	assert.Nil(t, s.History("idle"))
}
