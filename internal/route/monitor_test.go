package route

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medipulse/medipulse/internal/models"
)

func TestMonitorRouteRunsToCompletion(t *testing.T) {
	a := newTestAdvisor(t, nil, nil)
	r := models.Route{Distance: 12, Duration: 30, TrafficLevel: models.TrafficLight}

	var updates []models.RouteUpdate
	for u := range a.MonitorRoute(context.Background(), r) {
		updates = append(updates, u)
	}

	require.NotEmpty(t, updates)
	assert.LessOrEqual(t, len(updates), 20)

	prev := 0
	for _, u := range updates {
		step := u.Progress - prev
		assert.GreaterOrEqual(t, step, 1)
		if u.Progress < 100 {
			assert.GreaterOrEqual(t, step, 5)
			assert.LessOrEqual(t, step, 14)
		}
		assert.InDelta(t, r.Distance*float64(100-u.Progress)/100, u.RemainingDistance, 1e-9)
		assert.Equal(t, r.Duration*(100-u.Progress)/100, u.RemainingMinutes)
		if u.CurrentTraffic.Congested() {
			assert.Equal(t, TrafficAlert, u.Alert)
		} else {
			assert.Empty(t, u.Alert)
		}
		prev = u.Progress
	}

	last := updates[len(updates)-1]
	assert.Equal(t, 100, last.Progress)
	assert.Zero(t, last.RemainingDistance)
	assert.Zero(t, last.RemainingMinutes)
}

func TestMonitorRouteIsDeterministicForSeed(t *testing.T) {
	collect := func() []models.RouteUpdate {
		a := NewAdvisor(Options{
			MonitorInterval: time.Millisecond,
			Rand:            rand.New(rand.NewSource(7)),
			Logger:          quietLogger(),
		})
		var out []models.RouteUpdate
		for u := range a.MonitorRoute(context.Background(), models.Route{Distance: 5, Duration: 10, TrafficLevel: models.TrafficHeavy}) {
			out = append(out, u)
		}
		return out
	}
	assert.Equal(t, collect(), collect())
}

func TestMonitorRouteCancel(t *testing.T) {
	a := NewAdvisor(Options{MonitorInterval: time.Hour, Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	updates := a.MonitorRoute(ctx, models.Route{Distance: 5, Duration: 10})

	cancel()
	select {
	case _, ok := <-updates:
		assert.False(t, ok, "no update expected after cancel")
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}

	before := a.TrafficConditions()
	assert.Equal(t, SeedTraffic(), before)
}
