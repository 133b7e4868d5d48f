package worker

import (
	"context"
	"fmt"
	"time"
)

// TimeLeft returns the time from now until the next hour:minute, rolling to
// the following day once today's time has passed
func TimeLeft(now time.Time, hour, minute int) time.Duration {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if target.Before(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target.Sub(now)
}

// FormatTimeLeft renders d as HH:MM:SS, truncated to whole seconds
func FormatTimeLeft(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// Countdown emits the time left until the schedule time while its view is
// visible. The target is fixed when the countdown starts.
type Countdown struct {
	Hour     int
	Minute   int
	Interval time.Duration
	Now      func() time.Time
	Visible  func() bool
}

// Run ticks every Interval. Each tick checks visibility before doing any
// work and stops the countdown once the view is gone. It returns nil when
// stopped that way, ctx.Err() on cancellation, or the first emit error.
func (c Countdown) Run(ctx context.Context, emit func(left string) error) error {
	interval := c.Interval
	if interval <= 0 {
		interval = time.Second
	}
	now := c.Now
	if now == nil {
		now = time.Now
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.Visible != nil && !c.Visible() {
				return nil
			}
			if err := emit(FormatTimeLeft(TimeLeft(now(), c.Hour, c.Minute))); err != nil {
				return err
			}
		}
	}
}
