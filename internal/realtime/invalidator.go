package realtime

import (
	"go.uber.org/zap"

	"github.com/dgnsrekt/parkgate-realtime/internal/cache"
)

// PartitionInvalidator is the data-fetch layer the invalidator marks stale.
type PartitionInvalidator interface {
	Invalidate(p cache.Partition)
}

// adminPartitions maps each admin action to the partitions it makes stale.
var adminPartitions = map[AdminAction][]cache.Partition{
	ActionZoneOpened:           {cache.Zones},
	ActionZoneClosed:           {cache.Zones},
	ActionCategoryRatesChanged: {cache.Zones, cache.Categories},
	ActionVacationAdded:        {cache.Zones, cache.Vacations},
	ActionRushUpdated:          {cache.Zones, cache.RushHours},
}

// PartitionsFor returns the partitions ev makes stale.
func PartitionsFor(ev Event) []cache.Partition {
	switch e := ev.(type) {
	case ZoneUpdate:
		return []cache.Partition{cache.Zones}
	case AdminUpdate:
		return adminPartitions[e.Action]
	}
	return nil
}

// CacheInvalidator turns push events into cache staleness and records admin
// updates in an AdminLog. It never fetches.
type CacheInvalidator struct {
	target PartitionInvalidator
	log    *AdminLog
	logger *zap.Logger
}

// NewCacheInvalidator creates a CacheInvalidator.
func NewCacheInvalidator(target PartitionInvalidator, log *AdminLog, logger *zap.Logger) *CacheInvalidator {
	return &CacheInvalidator{
		target: target,
		log:    log,
		logger: logger,
	}
}

// Handle is a Consumer.
func (ci *CacheInvalidator) Handle(ev Event) {
	if au, ok := ev.(AdminUpdate); ok {
		ci.log.Push(au)
		ci.logger.Info("admin update",
			zap.String("adminId", au.AdminID),
			zap.String("action", string(au.Action)),
			zap.String("targetType", string(au.TargetType)),
			zap.String("targetId", au.TargetID),
		)
	}

	for _, p := range PartitionsFor(ev) {
		ci.target.Invalidate(p)
	}
}
