// Package am holds hansard's configuration ("I am"): where the roster lives,
// how the resolver scores, and how transcripts are processed.
package am

// Config represents the hansard configuration
type Config struct {
	Roster   RosterConfig   `mapstructure:"roster" toml:"roster"`
	Resolver ResolverConfig `mapstructure:"resolver" toml:"resolver"`
	Detector DetectorConfig `mapstructure:"detector" toml:"detector"`
	Batch    BatchConfig    `mapstructure:"batch" toml:"batch"`
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	Watch    WatchConfig    `mapstructure:"watch" toml:"watch"`
}

// RosterConfig locates the canonical roster
type RosterConfig struct {
	Path string `mapstructure:"path" toml:"path"` // JSON or YAML roster document
}

// ResolverConfig tunes the resolution cascade
type ResolverConfig struct {
	FuzzyThreshold          float64 `mapstructure:"fuzzy_threshold" toml:"fuzzy_threshold"`                     // minimum token-sort ratio (default: 0.85)
	DialectDiscount         float64 `mapstructure:"dialect_discount" toml:"dialect_discount"`                   // multiplier for dialect-normalized hits (default: 0.95)
	CollisionConfidence     float64 `mapstructure:"collision_confidence" toml:"collision_confidence"`           // confidence of a best-effort collision pick (default: 0.5)
	CurrentHolderConfidence float64 `mapstructure:"current_holder_confidence" toml:"current_holder_confidence"` // portfolio match without a date (default: 0.8)
	DialectNormalization    bool    `mapstructure:"dialect_normalization" toml:"dialect_normalization"`         // enable the dialect stage (default: true)
	DialectTable            string  `mapstructure:"dialect_table" toml:"dialect_table"`                         // optional TOML override of the built-in table
}

// DetectorConfig tunes mention detection
type DetectorConfig struct {
	ContextChars          int     `mapstructure:"context_chars" toml:"context_chars"`                   // characters each side of a mention (default: 120)
	HistorySize           int     `mapstructure:"history_size" toml:"history_size"`                     // speaker turns remembered for coreference (default: 10)
	CoreferenceConfidence float64 `mapstructure:"coreference_confidence" toml:"coreference_confidence"` // confidence of a history binding (default: 0.7)
	Coreference           bool    `mapstructure:"coreference" toml:"coreference"`                       // bind deictic mentions (default: true)
	LocalDemonym          string  `mapstructure:"local_demonym" toml:"local_demonym"`                   // nationality adjective that is not foreign (default: Bahamian)
}

// BatchConfig configures multi-transcript runs
type BatchConfig struct {
	Workers   int    `mapstructure:"workers" toml:"workers"`       // concurrent transcripts, 0 = one per CPU (default: 4)
	OutputDir string `mapstructure:"output_dir" toml:"output_dir"` // where mention and unresolved files go (default: output)
	Record    bool   `mapstructure:"record" toml:"record"`         // record run outcomes in the database (default: true)
}

// DatabaseConfig configures the SQLite database used for curation and run history
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// WatchConfig configures 'hansard watch'
type WatchConfig struct {
	DebounceMS    int    `mapstructure:"debounce_ms" toml:"debounce_ms"`         // quiet period before a roster reload (default: 500)
	MinIntervalMS int    `mapstructure:"min_interval_ms" toml:"min_interval_ms"` // minimum time between index rebuilds (default: 2000)
	InboxDir      string `mapstructure:"inbox_dir" toml:"inbox_dir"`             // transcripts dropped here are extracted (default: inbox)
}

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)
