package forex

import (
	"context"
	"time"
)

const defaultRateRefreshInterval = 10 * time.Minute

type RateRefresher struct {
	rateService *RateService
	interval    time.Duration
	logger      Logger
	refreshed   chan int
}

// RunRateRefresher refreshes rates right away and then on every interval
// tick until ctx is done. A failed refresh keeps the stale rates.
func RunRateRefresher(
	ctx context.Context,
	rateService *RateService,
	interval time.Duration,
	logger Logger,
) *RateRefresher {
	if interval <= 0 {
		interval = defaultRateRefreshInterval
	}

	refresher := &RateRefresher{
		rateService: rateService,
		interval:    interval,
		logger:      logger.WithField("component", "refresher"),
		refreshed:   make(chan int, 1),
	}

	go refresher.loop(ctx)

	return refresher
}

// Refreshed yields the number of upserted rates after each successful
// refresh. Results nobody reads are dropped.
func (rr *RateRefresher) Refreshed() <-chan int {
	return rr.refreshed
}

func (rr *RateRefresher) loop(ctx context.Context) {
	ticker := time.NewTicker(rr.interval)
	defer ticker.Stop()

	rr.refresh(ctx)

	for {
		select {
		case <-ticker.C:
			rr.refresh(ctx)
		case <-ctx.Done():
			rr.logger.Infof("rate refresher stopped")
			return
		}
	}
}

func (rr *RateRefresher) refresh(ctx context.Context) {
	count, err := rr.rateService.Refresh(ctx)
	if err != nil {
		rr.logger.Errorf("could not refresh rates: [%v]", err)
		return
	}

	select {
	case rr.refreshed <- count:
	default:
	}
}
