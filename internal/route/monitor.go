package route

import (
	"context"
	"time"

	"github.com/medipulse/medipulse/internal/models"
)

// MonitorRoute streams simulated progress for r, one update per interval,
// until progress reaches 100 or ctx is cancelled. The channel is closed when
// the stream ends. Each call starts a fresh simulation.
func (a *Advisor) MonitorRoute(ctx context.Context, r models.Route) <-chan models.RouteUpdate {
	updates := make(chan models.RouteUpdate)

	go func() {
		defer close(updates)

		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		progress := 0
		traffic := r.TrafficLevel
		for progress < 100 {
			select {
			case <-ctx.Done():
				a.logger.Debug("Route monitor cancelled", "progress", progress)
				return
			case <-ticker.C:
			}

			var step int
			progress, traffic, step = a.advance(progress, traffic)
			update := models.RouteUpdate{
				Progress:          progress,
				RemainingDistance: r.Distance * float64(100-progress) / 100,
				RemainingMinutes:  r.Duration * (100 - progress) / 100,
				CurrentTraffic:    traffic,
			}
			if traffic.Congested() {
				update.Alert = TrafficAlert
			}

			select {
			case updates <- update:
			case <-ctx.Done():
				return
			}
			a.logger.Debug("Route progress", "progress", progress, "step", step, "traffic", traffic)
		}
	}()

	return updates
}

// advance draws the next progress step of 5 to 14 points and, with 20%
// probability, a new traffic level.
func (a *Advisor) advance(progress int, traffic models.TrafficLevel) (int, models.TrafficLevel, int) {
	a.randMu.Lock()
	defer a.randMu.Unlock()

	step := 5 + a.rng.Intn(10)
	progress += step
	if progress > 100 {
		progress = 100
	}
	if a.rng.Float64() < 0.2 {
		traffic = models.TrafficLevels[a.rng.Intn(len(models.TrafficLevels))]
	}
	return progress, traffic, step
}
