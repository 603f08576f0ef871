// Package alias builds the inverted alias index the resolver reads: every
// normalized way a roster record can be named, mapped to the node ids that
// claim it.
//
// Static aliases (names, nicknames, constituency and honorific forms) live in
// one table. Portfolio titles live in a second, temporal table because their
// holder depends on the date. Shared aliases are kept with every claimant in
// roster order; they are collisions, never silently resolved here.
package alias

import (
	"sort"
	"strings"
	"time"

	"github.com/teranos/hansard/internal/aliaskey"
	"github.com/teranos/hansard/logger"
	"github.com/teranos/hansard/roster"
)

// roleAliases are intrinsic to the chair; every control record claims them.
var roleAliases = []string{"the speaker", "mr. speaker", "madam speaker", "speaker"}

// Entry is one static alias and its claimants in roster order.
type Entry struct {
	Alias   string   `json:"alias"`
	NodeIDs []string `json:"node_ids"`
}

// Collision reports whether more than one record claims the alias.
func (e Entry) Collision() bool {
	return len(e.NodeIDs) > 1
}

// PortfolioClaim is one holder of a portfolio title over a half-open interval.
type PortfolioClaim struct {
	NodeID string       `json:"node_id"`
	Title  string       `json:"title"`
	From   roster.Date  `json:"effective_from"`
	To     *roster.Date `json:"effective_to,omitempty"`
	Order  int          `json:"-"`
}

// Current reports whether the claim has no end date.
func (c PortfolioClaim) Current() bool {
	return c.To == nil
}

// ActiveOn reports whether the claim covers the calendar day of at.
func (c PortfolioClaim) ActiveOn(at time.Time) bool {
	return roster.PortfolioAssignment{EffectiveFrom: c.From, EffectiveTo: c.To}.ActiveOn(at)
}

// Stats summarizes an index.
type Stats struct {
	Records          int `json:"records"`
	StaticAliases    int `json:"static_aliases"`
	PortfolioAliases int `json:"portfolio_aliases"`
	Collisions       int `json:"collisions"`
}

// Index is immutable after Build and safe for concurrent readers.
type Index struct {
	roster     *roster.Roster
	entries    []Entry
	static     map[string]int
	portfolios map[string][]PortfolioClaim
	portOrder  []string
	order      map[string]int
}

// Build constructs the index for one roster version.
func Build(r *roster.Roster) *Index {
	ix := &Index{
		roster:     r,
		static:     make(map[string]int),
		portfolios: make(map[string][]PortfolioClaim),
		order:      make(map[string]int, r.Len()),
	}

	records := r.Records()
	fragments := constituencyFragments(records)

	for i, rec := range records {
		ix.order[rec.NodeID] = i

		ix.addStatic(rec.CanonicalName, rec.NodeID)
		ix.addStatic(rec.FullName, rec.NodeID)
		for _, a := range rec.Aliases {
			ix.addStatic(a, rec.NodeID)
		}
		for _, form := range honorificForms(rec.CanonicalName) {
			ix.addStatic(form, rec.NodeID)
		}

		if rec.IsControl() {
			for _, role := range roleAliases {
				ix.addStatic(role, rec.NodeID)
			}
		} else if rec.Constituency != "" {
			for _, form := range constituencyForms(rec.Constituency) {
				ix.addStatic(form, rec.NodeID)
			}
			for _, frag := range fragments[rec.NodeID] {
				ix.addStatic("member for "+frag, rec.NodeID)
				ix.addStatic("the member for "+frag, rec.NodeID)
			}
		}

		for _, p := range rec.Portfolios {
			claim := PortfolioClaim{
				NodeID: rec.NodeID,
				Title:  p.Title,
				From:   p.EffectiveFrom,
				To:     p.EffectiveTo,
				Order:  i,
			}
			for _, literal := range aliaskey.PortfolioLiterals(p.Title, p.ShortTitle) {
				ix.addPortfolio(literal, claim)
			}
		}
	}

	stats := ix.Stats()
	logger.ComponentLogger("alias").Infow("Alias index built",
		logger.FieldRosterVersion, r.Metadata().Version,
		logger.FieldRecords, stats.Records,
		logger.FieldAliases, stats.StaticAliases,
		"portfolio_aliases", stats.PortfolioAliases,
		"collisions", stats.Collisions)

	return ix
}

func (ix *Index) addStatic(raw, nodeID string) {
	key := Normalize(raw)
	if key == "" {
		return
	}
	i, ok := ix.static[key]
	if !ok {
		ix.static[key] = len(ix.entries)
		ix.entries = append(ix.entries, Entry{Alias: key, NodeIDs: []string{nodeID}})
		return
	}
	for _, id := range ix.entries[i].NodeIDs {
		if id == nodeID {
			return
		}
	}
	ix.entries[i].NodeIDs = append(ix.entries[i].NodeIDs, nodeID)
}

func (ix *Index) addPortfolio(raw string, claim PortfolioClaim) {
	key := Normalize(raw)
	if key == "" {
		return
	}
	existing, ok := ix.portfolios[key]
	if !ok {
		ix.portOrder = append(ix.portOrder, key)
	}
	for _, c := range existing {
		if c.NodeID == claim.NodeID && c.From.Equal(claim.From.Time) {
			return
		}
	}
	ix.portfolios[key] = append(existing, claim)
}

// Claimants returns the node ids claiming a static alias, in roster order.
// The key must already be normalized.
func (ix *Index) Claimants(key string) []string {
	i, ok := ix.static[key]
	if !ok {
		return nil
	}
	return append([]string(nil), ix.entries[i].NodeIDs...)
}

// PortfolioClaims returns every holder of a portfolio alias.
// The key must already be normalized.
func (ix *Index) PortfolioClaims(key string) []PortfolioClaim {
	return append([]PortfolioClaim(nil), ix.portfolios[key]...)
}

// IsPortfolioAlias reports whether key is a portfolio literal.
func (ix *Index) IsPortfolioAlias(key string) bool {
	_, ok := ix.portfolios[key]
	return ok
}

// Entries returns the static aliases in insertion order.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, len(ix.entries))
	for i, e := range ix.entries {
		out[i] = Entry{Alias: e.Alias, NodeIDs: append([]string(nil), e.NodeIDs...)}
	}
	return out
}

// Aliases returns the static alias keys in insertion order.
func (ix *Index) Aliases() []string {
	out := make([]string, len(ix.entries))
	for i, e := range ix.entries {
		out[i] = e.Alias
	}
	return out
}

// PortfolioAliases returns the portfolio alias keys in insertion order.
func (ix *Index) PortfolioAliases() []string {
	return append([]string(nil), ix.portOrder...)
}

// Collisions returns the static aliases with more than one claimant, sorted by alias.
func (ix *Index) Collisions() []Entry {
	var out []Entry
	for _, e := range ix.entries {
		if e.Collision() {
			out = append(out, Entry{Alias: e.Alias, NodeIDs: append([]string(nil), e.NodeIDs...)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

// Order returns the roster position of a node, used as the collision tie-break.
func (ix *Index) Order(nodeID string) (int, bool) {
	i, ok := ix.order[nodeID]
	return i, ok
}

// Record looks up the roster record behind a node id.
func (ix *Index) Record(nodeID string) (*roster.IdentityRecord, bool) {
	return ix.roster.Find(nodeID)
}

// Roster returns the roster the index was built from.
func (ix *Index) Roster() *roster.Roster {
	return ix.roster
}

// Version returns the roster metadata version.
func (ix *Index) Version() string {
	return ix.roster.Metadata().Version
}

// Stats summarizes the index.
func (ix *Index) Stats() Stats {
	s := Stats{
		Records:          ix.roster.Len(),
		StaticAliases:    len(ix.entries),
		PortfolioAliases: len(ix.portOrder),
	}
	for _, e := range ix.entries {
		if e.Collision() {
			s.Collisions++
		}
	}
	return s
}

func honorificForms(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return []string{
		"hon. " + name,
		"the hon. " + name,
		"honourable " + name,
		"the honourable " + name,
	}
}

func constituencyForms(c string) []string {
	return []string{
		"member for " + c,
		"the member for " + c,
		"the honourable member for " + c,
		"the hon. member for " + c,
		"member of parliament for " + c,
	}
}


// constituencyFragments finds the islands named inside multi-island
// constituencies ("Cat Island, Rum Cay and San Salvador") that identify
// exactly one record and are not themselves a full constituency name.
// Only comma-separated lists are split; "Central and South Eleuthera" is one place.
func constituencyFragments(records []roster.IdentityRecord) map[string][]string {
	full := make(map[string]bool)
	owners := make(map[string]map[string]bool)
	var order []string

	for _, rec := range records {
		if rec.IsControl() || rec.Constituency == "" {
			continue
		}
		full[Normalize(rec.Constituency)] = true
		if !strings.Contains(rec.Constituency, ",") {
			continue
		}
		for _, part := range strings.Split(rec.Constituency, ",") {
			for _, frag := range strings.Split(part, " and ") {
				key := Normalize(frag)
				if key == "" {
					continue
				}
				if owners[key] == nil {
					owners[key] = make(map[string]bool)
					order = append(order, key)
				}
				owners[key][rec.NodeID] = true
			}
		}
	}

	out := make(map[string][]string)
	for _, key := range order {
		if full[key] || len(owners[key]) != 1 {
			continue
		}
		for nodeID := range owners[key] {
			out[nodeID] = append(out[nodeID], key)
		}
	}
	return out
}
