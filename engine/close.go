package engine

// Close stops the background TTL sweeper and releases the query cache, if
// one is configured. Safe to call more than once.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		if e.sweeper != nil {
			e.sweeper.Stop()
		}
		if e.cache != nil {
			e.cache.cache.Close()
		}
	})

	return nil
}
