package roster

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"

	"github.com/teranos/hansard/internal/aliaskey"
)

// nodeIDPattern requires a lowercase role-class prefix: mp_davis_brave, chair_speaker.
var nodeIDPattern = regexp.MustCompile(`^[a-z]+_[a-z0-9_]+$`)

// ValidNodeID reports whether id has the node id shape.
func ValidNodeID(id string) bool {
	return nodeIDPattern.MatchString(id)
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	// Report wire names (node_id) rather than Go names (NodeID)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidationError lists every invariant a roster document violates.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	where := "roster"
	if e.Path != "" {
		where = "roster " + e.Path
	}
	return fmt.Sprintf("%s invalid (%d problems): %s", where, len(e.Problems), strings.Join(e.Problems, "; "))
}

type titleHolding struct {
	record     int
	assignment int
	nodeID     string
	p          PortfolioAssignment
}

func validate(meta Metadata, records []IdentityRecord) error {
	var problems []string
	addf := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if meta.Version != "" {
		if _, err := semver.NewVersion(meta.Version); err != nil {
			addf("metadata.version %q is not a semantic version", meta.Version)
		}
	}

	seen := make(map[string]int, len(records))
	holdings := make(map[string][]titleHolding)

	for i, rec := range records {
		label := fmt.Sprintf("record %d (%s)", i, rec.NodeID)

		if err := structValidator.Struct(rec); err != nil {
			if fieldErrs, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range fieldErrs {
					addf("%s: %s failed %q", label, fieldPath(fe), fe.Tag())
				}
			} else {
				addf("%s: %v", label, err)
			}
		}

		if rec.NodeID != "" {
			if !nodeIDPattern.MatchString(rec.NodeID) {
				addf("%s: node_id must be lowercase with a role prefix like mp_", label)
			}
			if first, dup := seen[rec.NodeID]; dup {
				addf("%s: duplicate node_id, first defined by record %d", label, first)
			} else {
				seen[rec.NodeID] = i
			}
		}

		if !rec.IsControl() && strings.TrimSpace(rec.Constituency) == "" {
			addf("%s: constituency is required for members", label)
		}

		if t := rec.Tenure; t != nil && t.From != nil && t.To != nil && !t.From.Before(t.To.Time) {
			addf("%s: tenure.to %s must be after tenure.from %s", label, t.To, t.From)
		}

		for j, p := range rec.Portfolios {
			if p.EffectiveFrom.IsZero() {
				addf("%s: portfolios[%d] %q has no effective_from", label, j, p.Title)
				continue
			}
			if p.EffectiveTo != nil && !p.EffectiveFrom.Before(p.EffectiveTo.Time) {
				addf("%s: portfolios[%d] %q effective_to %s must be after effective_from %s",
					label, j, p.Title, p.EffectiveTo, p.EffectiveFrom)
				continue
			}
			// Checked on every key the alias index will file the portfolio under
			for _, key := range aliaskey.PortfolioKeys(p.Title, p.ShortTitle) {
				holdings[key] = append(holdings[key], titleHolding{record: i, assignment: j, nodeID: rec.NodeID, p: p})
			}
		}
	}

	problems = append(problems, overlapProblems(holdings)...)

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// overlapProblems reports pairs of holders sharing a portfolio key on the
// same day. A pair of assignments is reported once however many keys they share.
func overlapProblems(holdings map[string][]titleHolding) []string {
	keys := make([]string, 0, len(holdings))
	for k := range holdings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	type pair struct{ a, b [2]int }
	reported := make(map[pair]bool)

	var problems []string
	for _, key := range keys {
		hs := holdings[key]
		for a := 0; a < len(hs); a++ {
			for b := a + 1; b < len(hs); b++ {
				if hs[a].nodeID == hs[b].nodeID || !overlaps(hs[a].p, hs[b].p) {
					continue
				}
				pr := pair{[2]int{hs[a].record, hs[a].assignment}, [2]int{hs[b].record, hs[b].assignment}}
				if reported[pr] {
					continue
				}
				reported[pr] = true
				problems = append(problems, fmt.Sprintf(
					"portfolio %q held by both %s (%q from %s) and %s (%q from %s) at the same time",
					key, hs[a].nodeID, hs[a].p.Title, hs[a].p.EffectiveFrom, hs[b].nodeID, hs[b].p.Title, hs[b].p.EffectiveFrom))
			}
		}
	}
	return problems
}

// overlaps compares half-open intervals; a nil end is open-ended.
func overlaps(a, b PortfolioAssignment) bool {
	aStartsBeforeBEnds := b.EffectiveTo == nil || a.EffectiveFrom.Before(b.EffectiveTo.Time)
	bStartsBeforeAEnds := a.EffectiveTo == nil || b.EffectiveFrom.Before(a.EffectiveTo.Time)
	return aStartsBeforeBEnds && bStartsBeforeAEnds
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
