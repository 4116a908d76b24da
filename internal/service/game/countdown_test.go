package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTickers struct {
	mock.Mock
}

func (m *mockTickers) Create(interval time.Duration) (<-chan time.Time, func()) {
	args := m.Called(interval)
	return args.Get(0).(chan time.Time), args.Get(1).(func())
}

func TestCountdownTick(t *testing.T) {
	cd := newCountdown(manualTickers{}, func(uint64, <-chan struct{}) bool { return true })

	gen := cd.Start(STAGE_DRAWING, 3)
	assert.True(t, cd.Active())
	assert.Equal(t, STAGE_DRAWING, cd.Stage())

	remaining, expired, ok := cd.Tick(gen)
	assert.Equal(t, 2, remaining)
	assert.False(t, expired)
	assert.True(t, ok)

	cd.Tick(gen)

	remaining, expired, ok = cd.Tick(gen)
	assert.Zero(t, remaining)
	assert.True(t, expired)
	assert.True(t, ok)
	assert.False(t, cd.Active())

	// 到期后的滴答被忽略
	_, _, ok = cd.Tick(gen)
	assert.False(t, ok)
}

func TestCountdownRestartInvalidatesOldTicks(t *testing.T) {
	cd := newCountdown(manualTickers{}, func(uint64, <-chan struct{}) bool { return true })

	old := cd.Start(STAGE_DRAWING, 10)
	cur := cd.Start(STAGE_SUBMITTING_LIES, 5)
	require.NotEqual(t, old, cur)

	_, _, ok := cd.Tick(old)
	assert.False(t, ok)
	assert.Equal(t, 5, cd.Remaining())

	assert.True(t, cd.Cancel())
	assert.False(t, cd.Cancel())

	_, _, ok = cd.Tick(cur)
	assert.False(t, ok)
}

func TestCountdownGoroutinePostsTicks(t *testing.T) {
	ticks := make(chan time.Time)
	stopped := make(chan struct{})

	tickers := &mockTickers{}
	tickers.On("Create", time.Second).
		Return(ticks, func() { close(stopped) }).
		Once()

	posted := make(chan uint64, 4)
	cd := newCountdown(tickers, func(gen uint64, stop <-chan struct{}) bool {
		select {
		case posted <- gen:
			return true
		case <-stop:
			return false
		}
	})

	gen := cd.Start(STAGE_VOTING, 30)

	ticks <- time.Now()
	ticks <- time.Now()

	assert.Equal(t, gen, <-posted)
	assert.Equal(t, gen, <-posted)

	cd.Cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("ticker was not stopped after cancel")
	}

	tickers.AssertExpectations(t)
}
