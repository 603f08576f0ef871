package alias

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/version"
)

// ExportMetadata heads an exported index.
type ExportMetadata struct {
	FormatVersion string    `json:"format_version"`
	Generator     string    `json:"generator"`
	RosterVersion string    `json:"roster_version,omitempty"`
	Parliament    string    `json:"parliament,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
	Stats
}

// Export is the JSON shape written by Save. It is for inspection and
// downstream tooling; the resolver always builds its index from the roster.
type Export struct {
	Metadata   ExportMetadata              `json:"metadata"`
	Aliases    map[string][]string         `json:"aliases"`
	Portfolios map[string][]PortfolioClaim `json:"portfolios"`
	Collisions []Entry                     `json:"collisions"`
}

// ToExport snapshots the index.
func (ix *Index) ToExport(generatedAt time.Time) Export {
	info := version.Get()
	exp := Export{
		Metadata: ExportMetadata{
			FormatVersion: info.FormatVersion,
			Generator:     info.Generator(),
			RosterVersion: canonicalVersion(ix.Version()),
			Parliament:    ix.roster.Metadata().Parliament,
			GeneratedAt:   generatedAt.UTC(),
			Stats:         ix.Stats(),
		},
		Aliases:    make(map[string][]string, len(ix.entries)),
		Portfolios: make(map[string][]PortfolioClaim, len(ix.portfolios)),
		Collisions: ix.Collisions(),
	}
	for _, e := range ix.entries {
		exp.Aliases[e.Alias] = append([]string(nil), e.NodeIDs...)
	}
	for key, claims := range ix.portfolios {
		exp.Portfolios[key] = append([]PortfolioClaim(nil), claims...)
	}
	if exp.Collisions == nil {
		exp.Collisions = []Entry{}
	}
	return exp
}

// Save writes the index as JSON.
func Save(ix *Index, path string) error {
	data, err := json.MarshalIndent(ix.ToExport(time.Now()), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode alias index")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrapf(err, "write alias index %s", path)
	}
	return nil
}

// canonicalVersion renders "1.2" as "1.2.0"; unparseable versions pass through.
func canonicalVersion(v string) string {
	if v == "" {
		return ""
	}
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return v
	}
	return parsed.String()
}
