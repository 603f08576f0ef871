package curation

import (
	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/internal/aliaskey"
	"github.com/teranos/hansard/roster"
)

// Skipped is a submission Apply left out, with the reason.
type Skipped struct {
	ID     string `json:"id"`
	Alias  string `json:"alias"`
	Reason string `json:"reason"`
}

// ApplyReport lists what Apply did.
type ApplyReport struct {
	Applied []string  `json:"applied"`
	Skipped []Skipped `json:"skipped,omitempty"`
}

// Apply returns a new roster with the approved submissions folded in.
// Additions give the target the alias. Corrections also drop it from the
// previous holder, or from every record listing it when no previous holder
// was named. Submissions that are not approved, or whose nodes the roster
// does not know, are reported as skipped. The input roster is unchanged.
func Apply(r *roster.Roster, subs []*Submission) (*roster.Roster, *ApplyReport, error) {
	if r == nil {
		return nil, nil, errors.New("roster is required")
	}

	report := &ApplyReport{Applied: []string{}}
	add := make(map[string][]string)
	remove := make(map[string][]string)

	skip := func(s *Submission, reason string) {
		report.Skipped = append(report.Skipped, Skipped{ID: s.ID, Alias: s.Alias, Reason: reason})
	}

	for _, s := range subs {
		if s == nil {
			continue
		}
		if s.Status != StatusApproved {
			skip(s, "not approved")
			continue
		}
		if _, ok := r.Find(s.TargetNodeID); !ok {
			skip(s, "unknown target "+s.TargetNodeID)
			continue
		}

		if s.Kind == KindCorrection {
			holders, ok := currentHolders(r, s)
			if !ok {
				skip(s, "unknown previous holder "+s.PreviousNodeID)
				continue
			}
			for _, h := range holders {
				remove[h] = append(remove[h], s.Alias)
			}
		}
		add[s.TargetNodeID] = append(add[s.TargetNodeID], s.Alias)
		report.Applied = append(report.Applied, s.ID)
	}

	if len(report.Applied) == 0 {
		return r, report, nil
	}
	next, err := r.WithAliases(add, remove)
	if err != nil {
		return nil, report, errors.Wrap(err, "apply submissions")
	}
	return next, report, nil
}

func currentHolders(r *roster.Roster, s *Submission) ([]string, bool) {
	if s.PreviousNodeID != "" {
		if _, ok := r.Find(s.PreviousNodeID); !ok {
			return nil, false
		}
		return []string{s.PreviousNodeID}, true
	}
	var holders []string
	for _, rec := range r.Records() {
		if rec.NodeID == s.TargetNodeID {
			continue
		}
		for _, a := range rec.Aliases {
			if aliaskey.Equal(a, s.Alias) {
				holders = append(holders, rec.NodeID)
				break
			}
		}
	}
	return holders, true
}
