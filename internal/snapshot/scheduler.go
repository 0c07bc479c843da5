package snapshot

import (
	"sync"
	"wikistats/internal/providers"
	"wikistats/internal/snapshot/interfaces"
	"wikistats/internal/structures"
	"wikistats/internal/wikipedia"

	"github.com/roylee0704/gron"
)

// Scheduler periodically sweeps expired MediaWiki cache entries off
// disk so the cache directory does not grow without bound.
type Scheduler struct {
	config *structures.Config
	logger providers.Logger
	cache  *wikipedia.DiskCache
	cron   *gron.Cron
	opsMu  sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Cache.CleanupInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		removed, err := s.cache.CleanupExpired()
		if err != nil {
			s.logger.Errorf(providers.TypeApp, "Cache cleanup error: %s", err)
			return
		}
		if removed > 0 {
			s.logger.Infof(providers.TypeApp, "Cache cleanup removed %d expired entries", removed)
		}
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func NewScheduler(config *structures.Config, logger providers.Logger, cache *wikipedia.DiskCache) interfaces.SchedulerInterface {
	return &Scheduler{
		config: config,
		logger: logger,
		cache:  cache,
	}
}
