package am

import "github.com/teranos/hansard/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	r := c.Resolver
	if r.FuzzyThreshold <= 0 || r.FuzzyThreshold > 1 {
		return errors.Newf("resolver.fuzzy_threshold must be in (0, 1], got %f", r.FuzzyThreshold)
	}
	// A discount of 1 would make dialect hits indistinguishable from exact ones
	if r.DialectDiscount <= 0 || r.DialectDiscount >= 1 {
		return errors.Newf("resolver.dialect_discount must be in (0, 1), got %f", r.DialectDiscount)
	}
	if r.CollisionConfidence <= 0 || r.CollisionConfidence >= 1 {
		return errors.Newf("resolver.collision_confidence must be in (0, 1), got %f", r.CollisionConfidence)
	}
	if r.CurrentHolderConfidence <= 0 || r.CurrentHolderConfidence > 1 {
		return errors.Newf("resolver.current_holder_confidence must be in (0, 1], got %f", r.CurrentHolderConfidence)
	}

	d := c.Detector
	if d.ContextChars < 0 {
		return errors.Newf("detector.context_chars must be >= 0, got %d", d.ContextChars)
	}
	if d.HistorySize < 0 {
		return errors.Newf("detector.history_size must be >= 0, got %d", d.HistorySize)
	}
	if d.Coreference && (d.CoreferenceConfidence <= 0 || d.CoreferenceConfidence >= 1) {
		return errors.Newf("detector.coreference_confidence must be in (0, 1), got %f", d.CoreferenceConfidence)
	}

	// Batch workers: 0 = one per CPU, negative = invalid
	if c.Batch.Workers < 0 {
		return errors.Newf("batch.workers must be >= 0, got %d", c.Batch.Workers)
	}

	if c.Watch.DebounceMS < 0 {
		return errors.Newf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}
	if c.Watch.MinIntervalMS < 0 {
		return errors.Newf("watch.min_interval_ms must be >= 0, got %d", c.Watch.MinIntervalMS)
	}

	return nil
}
