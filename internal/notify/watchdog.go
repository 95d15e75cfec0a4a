package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Watchdog turns periodic connection state observations into at most one
// lost alert per outage and one restored alert when it ends.
type Watchdog struct {
	notifier Notifier
	grace    time.Duration
	url      string
	logger   *zap.Logger

	down      bool
	downSince time.Time
	alerted   bool
}

// NewWatchdog creates a Watchdog. An outage is reported once the
// connection has been down for longer than grace.
func NewWatchdog(notifier Notifier, grace time.Duration, url string, logger *zap.Logger) *Watchdog {
	return &Watchdog{
		notifier: notifier,
		grace:    grace,
		url:      url,
		logger:   logger,
	}
}

// Observe records one poll of the connection state. open is true while the
// connection is usable; state is its name for the alert body.
func (w *Watchdog) Observe(ctx context.Context, now time.Time, open bool, state string, topics []string) {
	if open {
		if w.down && w.alerted {
			outage := Outage{URL: w.url, State: state, Since: w.downSince, Topics: topics}
			if err := w.notifier.SendConnectionRestored(ctx, outage); err != nil {
				w.logger.Warn("failed to send restored notification", zap.Error(err))
			}
		}
		w.down = false
		w.alerted = false
		return
	}

	if !w.down {
		w.down = true
		w.downSince = now
	}
	if w.alerted || now.Sub(w.downSince) < w.grace {
		return
	}

	w.alerted = true
	outage := Outage{URL: w.url, State: state, Since: w.downSince, Topics: topics}
	w.logger.Warn("push connection down",
		zap.String("state", state),
		zap.Duration("for", now.Sub(w.downSince)),
	)
	if err := w.notifier.SendConnectionLost(ctx, outage); err != nil {
		w.logger.Warn("failed to send lost notification", zap.Error(err))
	}
}
