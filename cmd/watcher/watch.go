package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/parkgate-realtime/internal/api"
	"github.com/dgnsrekt/parkgate-realtime/internal/cache"
	"github.com/dgnsrekt/parkgate-realtime/internal/notify"
	"github.com/dgnsrekt/parkgate-realtime/internal/realtime"
)

func watchCmd() *cobra.Command {
	var gates []string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to the push endpoint and follow gate updates",
		Long: `Connect to the push endpoint, subscribe to the configured gates and log
every zone and admin update. Partitions invalidated by updates are refetched
through the cache on the next poll.

Examples:
  # Watch the gates from the config file
  parkgate-watch watch

  # Override gates
  parkgate-watch watch --gates gate_1,gate_2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(gates) == 0 {
				gates = cfg.Watch.Gates
			}
			if len(gates) == 0 {
				return fmt.Errorf("no gates to watch (set watch.gates or --gates)")
			}
			return runWatch(cmd.Context(), gates)
		},
	}

	cmd.Flags().StringSliceVar(&gates, "gates", nil, "gate ids to subscribe to (overrides config)")

	return cmd
}

func runWatch(ctx context.Context, gates []string) error {
	store := cache.NewStore(logger)
	data := api.NewCachedClient(newAPIClient(cfg), store)

	client := realtime.New(clientConfig(cfg), newTransport(cfg), store, logger)
	defer client.Close()

	consumer := client.AddConsumer(logEvent)
	defer client.RemoveConsumer(consumer)

	for _, gate := range gates {
		client.Subscribe(gate)
	}

	logger.Info("connecting",
		zap.String("url", cfg.Push.URL),
		zap.Strings("gates", gates),
	)
	client.Connect()

	_ = refreshStale(ctx, store, data, gates, true)

	watchdog := notify.NewWatchdog(notify.New(&cfg.Notify, logger), cfg.Notify.Grace, cfg.Push.URL, logger)

	ticker := time.NewTicker(cfg.Watch.PollInterval)
	defer ticker.Stop()

	last := client.State()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil

		case now := <-ticker.C:
			state := client.State()
			if state != last {
				logger.Info("connection state changed",
					zap.Stringer("from", last),
					zap.Stringer("to", state),
				)
				last = state
			}

			watchdog.Observe(ctx, now, state == realtime.StateOpen, state.String(), client.Topics())
			_ = refreshStale(ctx, store, data, gates, false)
		}
	}
}

func logEvent(ev realtime.Event) {
	switch e := ev.(type) {
	case realtime.ZoneUpdate:
		logger.Info("zone update", zap.ByteString("payload", e.Payload))
	case realtime.AdminUpdate:
		logger.Info("admin update",
			zap.String("adminId", e.AdminID),
			zap.String("action", string(e.Action)),
			zap.String("targetType", string(e.TargetType)),
			zap.String("targetId", e.TargetID),
			zap.String("timestamp", e.Timestamp),
		)
	}
}

// refreshStale refetches every cache entry that is missing or was
// invalidated, or all of them when force is set. A failed entry stays stale
// and is retried on the next call; the others are still refreshed.
func refreshStale(ctx context.Context, store *cache.Store, data api.Client, gates []string, force bool) error {
	var errs []error
	for _, p := range cache.Partitions() {
		keys := []string{""}
		if p == cache.Zones {
			keys = gates
		}

		refreshed := 0
		for _, key := range keys {
			if _, fresh := store.Peek(p, key); fresh && !force {
				continue
			}

			count, err := refreshEntry(ctx, data, p, key)
			if err != nil {
				logger.Warn("refresh failed",
					zap.String("partition", string(p)),
					zap.String("key", key),
					zap.Error(err),
				)
				errs = append(errs, err)
				continue
			}
			refreshed++
			logger.Debug("entry refreshed",
				zap.String("partition", string(p)),
				zap.String("key", key),
				zap.Int("items", count),
			)
		}
		if refreshed > 0 {
			logger.Debug("partition refreshed", zap.String("partition", string(p)), zap.Int("entries", refreshed))
		}
	}
	return errors.Join(errs...)
}

func refreshEntry(ctx context.Context, data api.Client, p cache.Partition, key string) (int, error) {
	switch p {
	case cache.Zones:
		zones, err := data.GetZones(ctx, key)
		if err != nil {
			return 0, err
		}
		logZones(key, zones)
		return len(zones), nil
	case cache.Categories:
		categories, err := data.GetCategories(ctx)
		return len(categories), err
	case cache.RushHours:
		rushHours, err := data.GetRushHours(ctx)
		return len(rushHours), err
	case cache.Vacations:
		vacations, err := data.GetVacations(ctx)
		return len(vacations), err
	}
	return 0, fmt.Errorf("unknown partition %s", p)
}

func logZones(gate string, zones []api.Zone) {
	for _, z := range zones {
		logger.Debug("zone",
			zap.String("gate", gate),
			zap.String("zone", z.ID),
			zap.Bool("open", z.Open),
			zap.Int("free", z.Free),
			zap.Int("availableForVisitors", z.AvailableForVisitors),
		)
	}
}
