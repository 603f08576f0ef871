package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("roster.path", "golden_record/roster.json")

	v.SetDefault("resolver.fuzzy_threshold", 0.85)
	v.SetDefault("resolver.dialect_discount", 0.95)
	v.SetDefault("resolver.collision_confidence", 0.5)
	v.SetDefault("resolver.current_holder_confidence", 0.8)
	v.SetDefault("resolver.dialect_normalization", true)
	v.SetDefault("resolver.dialect_table", "")

	v.SetDefault("detector.context_chars", 120)
	v.SetDefault("detector.history_size", 10)
	v.SetDefault("detector.coreference_confidence", 0.7)
	v.SetDefault("detector.coreference", true)
	v.SetDefault("detector.local_demonym", "Bahamian")

	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.output_dir", "output")
	v.SetDefault("batch.record", true)

	v.SetDefault("database.path", "hansard.db")

	v.SetDefault("watch.debounce_ms", 500)
	v.SetDefault("watch.min_interval_ms", 2000)
	v.SetDefault("watch.inbox_dir", "inbox")
}
