package engine

import "time"

// sweep is the TTL sweeper's periodic callback. It snapshots the
// collection set under a read lock, then sweeps each collection outside
// the lock so a slow sweep of one collection never blocks concurrent
// CreateCollection/DropCollection calls. A panicking sweep of one
// collection is recovered and logged so it never prevents the remaining
// collections from being swept this cycle.
func (e *Engine) sweep(now time.Time) {
	e.mu.RLock()
	names := make([]string, 0, len(e.collections))
	for name := range e.collections {
		names = append(names, name)
	}
	e.mu.RUnlock()

	for _, name := range names {
		e.sweepOne(name, now)
	}
}

func (e *Engine) sweepOne(name string, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithCollection(name).Error("ttl sweep panicked", "recover", r)
		}
	}()

	col, err := e.getCollection(name)
	if err != nil {
		return
	}

	expired := col.ExpiredIDs(now)
	if len(expired) == 0 {
		e.metrics.RecordTTLSweep(0, nil)
		return
	}

	count := 0
	for _, id := range expired {
		if col.Delete(id) {
			count++
		}
	}

	e.metrics.RecordTTLSweep(count, nil)
	e.logger.WithCollection(name).LogTTLSweep(count, nil)

	if count > 0 {
		e.audit.Append("ttl_sweep", "engine", name, count, 0, nil)
		if e.cache != nil {
			e.cache.invalidate(name)
		}
	}
}
