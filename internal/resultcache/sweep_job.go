package resultcache

import (
	"github.com/rs/zerolog"
)

// SweepJob removes expired entries from the result cache. It satisfies
// cron.Job and should be scheduled periodically.
type SweepJob struct {
	cache *Cache
	log   zerolog.Logger
}

// NewSweepJob creates a new cache sweep job.
func NewSweepJob(cache *Cache, log zerolog.Logger) *SweepJob {
	return &SweepJob{
		cache: cache,
		log:   log.With().Str("job", "result_cache_sweep").Logger(),
	}
}

// Run executes the sweep, removing all expired cache entries.
func (j *SweepJob) Run() {
	removed := j.cache.DeleteExpired()
	if removed > 0 {
		j.log.Info().
			Int("removed", removed).
			Int("remaining", j.cache.Len()).
			Msg("Swept expired import results")
	}
}
