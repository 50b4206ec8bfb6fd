package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonq/internal/adapters/persistence/models"
	"salonq/internal/core/domain"
)

var estimatorNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func openSalon() *models.Salon {
	return &models.Salon{ID: 1, IsActive: true, IsOpen: true, ActiveBarbers: 2, TotalBarbers: 2, AvgServiceTime: 20, MaxQueueSize: 50}
}

func pending(id uint, position, duration int) models.Booking {
	return models.Booking{
		ID:            id,
		SalonID:       1,
		Status:        domain.StatusPending,
		BookingType:   domain.BookingImmediate,
		QueuePosition: position,
		TotalDuration: duration,
		JoinedAt:      estimatorNow.Add(-time.Duration(position) * time.Minute),
	}
}

func inProgress(id uint, position, duration int, startedAgo time.Duration) models.Booking {
	b := pending(id, position, duration)
	b.Status = domain.StatusInProgress
	started := estimatorNow.Add(-startedAgo)
	b.StartedAt = &started
	return b
}

func uintPtr(v uint) *uint { return &v }

func TestEstimateWait_EmptyQueue(t *testing.T) {
	got := EstimateWait(WaitInput{Salon: openSalon(), Now: estimatorNow})

	require.NotNil(t, got.WaitMinutes)
	assert.Equal(t, 0, *got.WaitMinutes)
	assert.Equal(t, "No wait", got.DisplayText)
	assert.Equal(t, domain.WaitAvailable, got.Status)
	assert.False(t, got.IsInQueue)
	assert.Equal(t, 0, got.QueueLength)
}

func TestEstimateWait_InProgressRemainder(t *testing.T) {
	got := EstimateWait(WaitInput{
		Salon:  openSalon(),
		Active: []models.Booking{inProgress(1, 1, 30, 10*time.Minute)},
		Now:    estimatorNow,
	})

	require.NotNil(t, got.WaitMinutes)
	assert.Equal(t, 20, *got.WaitMinutes)
	assert.Equal(t, "~20 min wait", got.DisplayText)
	assert.Equal(t, domain.WaitBusy, got.Status)
	assert.False(t, got.IsInQueue)
	require.NotNil(t, got.EstimatedStartTime)
	assert.Equal(t, estimatorNow.Add(20*time.Minute), *got.EstimatedStartTime)
}

func TestEstimateWait_Gates(t *testing.T) {
	t.Run("closed salon", func(t *testing.T) {
		salon := openSalon()
		salon.IsOpen = false
		got := EstimateWait(WaitInput{Salon: salon, Active: []models.Booking{pending(1, 1, 30)}, Now: estimatorNow})
		assert.Equal(t, domain.WaitClosed, got.Status)
		assert.Equal(t, "Closed", got.DisplayText)
		assert.Nil(t, got.WaitMinutes)
		assert.Equal(t, 1, got.QueueLength)
	})

	t.Run("no active barbers", func(t *testing.T) {
		salon := openSalon()
		salon.ActiveBarbers = 0
		got := EstimateWait(WaitInput{Salon: salon, Now: estimatorNow})
		assert.Equal(t, domain.WaitUnavailable, got.Status)
		assert.Equal(t, "No barbers available", got.DisplayText)
		assert.Nil(t, got.WaitMinutes)
	})

	t.Run("busy mode overrides status", func(t *testing.T) {
		salon := openSalon()
		salon.BusyMode = true
		got := EstimateWait(WaitInput{Salon: salon, Active: []models.Booking{pending(1, 1, 5)}, Now: estimatorNow})
		assert.Equal(t, domain.WaitBusy, got.Status)
		assert.Equal(t, "Walk-ins only", got.DisplayText)
		require.NotNil(t, got.WaitMinutes)
		assert.Equal(t, 5, *got.WaitMinutes)
	})

	t.Run("busy mode with empty queue is available", func(t *testing.T) {
		salon := openSalon()
		salon.BusyMode = true
		got := EstimateWait(WaitInput{Salon: salon, Now: estimatorNow})
		assert.Equal(t, domain.WaitAvailable, got.Status)
	})

	t.Run("full queue", func(t *testing.T) {
		salon := openSalon()
		salon.MaxQueueSize = 2
		got := EstimateWait(WaitInput{
			Salon:  salon,
			Active: []models.Booking{pending(1, 1, 10), pending(2, 2, 10)},
			Now:    estimatorNow,
		})
		assert.Equal(t, domain.WaitFull, got.Status)
		assert.Equal(t, "Queue full", got.DisplayText)
	})
}

func TestEstimateWait_PersonalPosition(t *testing.T) {
	active := []models.Booking{
		pending(3, 3, 15),
		inProgress(1, 1, 30, 10*time.Minute),
		pending(2, 2, 25),
	}
	active[0].UserID = uintPtr(42)

	got := EstimateWait(WaitInput{Salon: openSalon(), Active: active, UserID: uintPtr(42), Now: estimatorNow})

	assert.True(t, got.IsInQueue)
	assert.Equal(t, domain.WaitInQueue, got.Status)
	require.NotNil(t, got.Position)
	assert.Equal(t, 3, *got.Position)
	require.NotNil(t, got.BookingID)
	assert.Equal(t, uint(3), *got.BookingID)
	require.NotNil(t, got.WaitMinutes)
	assert.Equal(t, 20+25, *got.WaitMinutes)
	assert.Equal(t, 3, got.QueueLength)
}

func TestEstimateWait_InProgressUserGetsJoinEstimate(t *testing.T) {
	active := []models.Booking{inProgress(1, 1, 30, 10*time.Minute)}
	active[0].UserID = uintPtr(42)

	got := EstimateWait(WaitInput{Salon: openSalon(), Active: active, UserID: uintPtr(42), Now: estimatorNow})

	assert.False(t, got.IsInQueue)
	assert.Nil(t, got.Position)
	require.NotNil(t, got.WaitMinutes)
	assert.Equal(t, 20, *got.WaitMinutes)
}

func TestEstimateWait_FallbackDuration(t *testing.T) {
	got := EstimateWait(WaitInput{
		Salon:  openSalon(),
		Active: []models.Booking{pending(1, 1, 0), pending(2, 2, 0)},
		Now:    estimatorNow,
	})
	require.NotNil(t, got.WaitMinutes)
	assert.Equal(t, 40, *got.WaitMinutes)
}

func TestEstimateWait_GrowsWithQueue(t *testing.T) {
	var active []models.Booking
	last := -1
	for i := 1; i <= 8; i++ {
		active = append(active, pending(uint(i), i, 10+i))
		got := EstimateWait(WaitInput{Salon: openSalon(), Active: active, Now: estimatorNow})
		require.NotNil(t, got.WaitMinutes)
		assert.Greater(t, *got.WaitMinutes, last)
		last = *got.WaitMinutes
	}
}

func TestEstimateWait_MonotonicByPosition(t *testing.T) {
	active := []models.Booking{
		inProgress(1, 1, 30, 10*time.Minute),
		pending(2, 2, 15),
		pending(3, 3, 0),
		pending(4, 4, 25),
		inProgress(5, 5, 20, 40*time.Minute),
		pending(6, 6, 10),
	}
	for i := range active {
		active[i].UserID = uintPtr(uint(100 + i + 1))
	}
	salon := openSalon()

	joinNow := EstimateWait(WaitInput{Salon: salon, Active: active, Now: estimatorNow})
	require.NotNil(t, joinNow.WaitMinutes)
	assert.Equal(t, 20+15+20+25+0+10, *joinNow.WaitMinutes)

	want := map[int]int{2: 20, 3: 35, 4: 55, 6: 80}
	last := 0
	for k := 1; k <= len(active); k++ {
		got := EstimateWait(WaitInput{Salon: salon, Active: active, UserID: uintPtr(uint(100 + k)), Now: estimatorNow})
		require.NotNil(t, got.WaitMinutes, "position %d", k)
		if active[k-1].Status == domain.StatusInProgress {
			assert.False(t, got.IsInQueue, "position %d", k)
			assert.Equal(t, *joinNow.WaitMinutes, *got.WaitMinutes, "position %d", k)
			continue
		}
		require.True(t, got.IsInQueue, "position %d", k)
		require.NotNil(t, got.Position)
		assert.Equal(t, k, *got.Position)
		assert.Equal(t, want[k], *got.WaitMinutes, "position %d", k)
		assert.GreaterOrEqual(t, *got.WaitMinutes, last, "position %d", k)
		if k < len(active) {
			assert.Less(t, *got.WaitMinutes, *joinNow.WaitMinutes, "position %d", k)
		}
		last = *got.WaitMinutes
	}
}

func TestEntryContribution(t *testing.T) {
	overrun := inProgress(1, 1, 30, 45*time.Minute)
	assert.Equal(t, 0, EntryContribution(&overrun, 20, estimatorNow))

	future := inProgress(1, 1, 30, -5*time.Minute)
	assert.Equal(t, 30, EntryContribution(&future, 20, estimatorNow))

	notStarted := pending(1, 1, 30)
	notStarted.Status = domain.StatusInProgress
	assert.Equal(t, 30, EntryContribution(&notStarted, 20, estimatorNow))
}

func TestFormatWait(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{-3, "No wait"},
		{0, "No wait"},
		{1, "~0-5 min"},
		{5, "~0-5 min"},
		{6, "~6 min wait"},
		{59, "~59 min wait"},
		{60, "~1h wait"},
		{75, "~1h 15m wait"},
		{120, "~2h wait"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatWait(tc.minutes), "minutes=%d", tc.minutes)
	}
}

func TestWaitStatusThresholds(t *testing.T) {
	assert.Equal(t, domain.WaitAvailable, waitStatus(15))
	assert.Equal(t, domain.WaitBusy, waitStatus(16))
	assert.Equal(t, domain.WaitBusy, waitStatus(45))
	assert.Equal(t, domain.WaitVeryBusy, waitStatus(46))
}

func TestSortedByPositionTieBreaksOnJoinTime(t *testing.T) {
	early := pending(1, 2, 10)
	early.JoinedAt = estimatorNow.Add(-time.Hour)
	late := pending(2, 2, 10)
	late.JoinedAt = estimatorNow
	first := pending(3, 1, 10)

	got := sortedByPosition([]models.Booking{late, early, first})
	require.Len(t, got, 3)
	assert.Equal(t, []uint{3, 1, 2}, []uint{got[0].ID, got[1].ID, got[2].ID})
}
