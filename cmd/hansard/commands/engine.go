package commands

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/hansard/alias"
	"github.com/teranos/hansard/am"
	"github.com/teranos/hansard/db"
	"github.com/teranos/hansard/dialect"
	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/logger"
	"github.com/teranos/hansard/mention"
	"github.com/teranos/hansard/resolver"
	"github.com/teranos/hansard/roster"
)

// engine is the loaded roster with its index and resolver.
type engine struct {
	cfg      *am.Config
	roster   *roster.Roster
	index    *alias.Index
	resolver *resolver.Resolver
}

// rosterPath returns --roster when set, else roster.path from config.
func rosterPath(cmd *cobra.Command, cfg *am.Config) string {
	if p, err := cmd.Flags().GetString("roster"); err == nil && p != "" {
		return p
	}
	return cfg.Roster.Path
}

func loadEngine(cmd *cobra.Command) (*engine, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	path := rosterPath(cmd, cfg)
	r, err := roster.Load(path)
	if err != nil {
		return nil, errors.WithHint(err, "set roster.path in am.toml or pass --roster")
	}
	res, err := newResolver(cfg, alias.Build(r))
	if err != nil {
		return nil, err
	}
	return &engine{cfg: cfg, roster: r, index: res.Index(), resolver: res}, nil
}

// newResolver builds a resolver over ix tuned by the resolver config section.
func newResolver(cfg *am.Config, ix *alias.Index) (*resolver.Resolver, error) {
	rc := cfg.Resolver
	opts := []resolver.Option{
		resolver.WithFuzzyThreshold(rc.FuzzyThreshold),
		resolver.WithDialectDiscount(rc.DialectDiscount),
		resolver.WithCollisionConfidence(rc.CollisionConfidence),
		resolver.WithCurrentHolderConfidence(rc.CurrentHolderConfidence),
	}
	switch {
	case !rc.DialectNormalization:
		opts = append(opts, resolver.WithDialectTable(nil))
	case rc.DialectTable != "":
		table, err := dialect.LoadFile(rc.DialectTable)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load dialect table")
		}
		opts = append(opts, resolver.WithDialectTable(table))
	}
	return resolver.New(ix, opts...), nil
}

// detectorOptions maps the detector config section onto detector options.
func detectorOptions(cfg *am.Config) []mention.Option {
	dc := cfg.Detector
	opts := []mention.Option{
		mention.WithContextChars(dc.ContextChars),
		mention.WithHistorySize(dc.HistorySize),
		mention.WithCoreferenceConfidence(dc.CoreferenceConfidence),
	}
	if dc.LocalDemonym != "" {
		opts = append(opts, mention.WithLocalDemonym(dc.LocalDemonym))
	}
	if !dc.Coreference {
		opts = append(opts, mention.WithoutCoreference())
	}
	return opts
}

// parseDateFlag reads a YYYY-MM-DD flag; empty means no date.
func parseDateFlag(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	d, err := roster.ParseDate(s)
	if err != nil {
		return time.Time{}, errors.WithHint(err, "dates are YYYY-MM-DD, e.g. 2023-11-15")
	}
	return d.Time, nil
}

// openDatabase opens and migrates the database at database.path.
func openDatabase(cfg *am.Config) (*sql.DB, error) {
	path := cfg.Database.Path
	if path == "" {
		path = "hansard.db"
	}
	database, err := db.OpenWithMigrations(path, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", path)
	}
	return database, nil
}

func formatConfidence(c float64) string {
	if c == 0 {
		return "-"
	}
	return fmt.Sprintf("%.3f", c)
}
