package testing

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/teranos/hansard/roster"
)

// Fixture dates shared by tests.
var (
	CabinetSworn   = roster.NewDate(2021, time.September, 17)
	WorksReshuffle = roster.NewDate(2023, time.September, 1)
)

func datePtr(d roster.Date) *roster.Date { return &d }

// RosterDocument returns a small House of Assembly roster:
//   - two members share the alias "Adrian"
//   - "Minister of Works" passes from mp_sears_alfred to mp_sweeting_clay on WorksReshuffle
//   - one control record (the Speaker)
func RosterDocument() roster.Document {
	return roster.Document{
		Metadata: roster.Metadata{
			Version:     "1.0.0",
			Parliament:  "15th Parliament",
			LastUpdated: "2024-01-10",
		},
		Records: []roster.IdentityRecord{
			{
				NodeID:        "mp_davis_brave",
				CanonicalName: "Philip Davis",
				FullName:      "Philip Edward Davis",
				Aliases:       []string{"Brave Davis", "Brave", "Davis"},
				Party:         "PLP",
				Constituency:  "Cat Island, Rum Cay and San Salvador",
				Portfolios: []roster.PortfolioAssignment{
					{Title: "Prime Minister", ShortTitle: "PM", EffectiveFrom: CabinetSworn},
					{Title: "Minister of Finance", ShortTitle: "Finance Minister", EffectiveFrom: CabinetSworn},
				},
			},
			{
				NodeID:        "mp_cooper_chester",
				CanonicalName: "Chester Cooper",
				Aliases:       []string{"Chester Cooper", "Cooper"},
				Party:         "PLP",
				Constituency:  "Exumas and Ragged Island",
				Portfolios: []roster.PortfolioAssignment{
					{Title: "Deputy Prime Minister", ShortTitle: "DPM", EffectiveFrom: CabinetSworn},
					{Title: "Minister of Tourism", ShortTitle: "Tourism Minister", EffectiveFrom: CabinetSworn},
				},
			},
			{
				NodeID:        "mp_pintard_michael",
				CanonicalName: "Michael Pintard",
				Aliases:       []string{"Michael Pintard", "Pintard"},
				Party:         "FNM",
				Constituency:  "Marco City",
				Portfolios: []roster.PortfolioAssignment{
					{Title: "Leader of the Opposition", ShortTitle: "Opposition Leader", EffectiveFrom: roster.NewDate(2021, time.November, 27)},
				},
			},
			{
				NodeID:        "mp_gibson_adrian",
				CanonicalName: "Adrian Gibson",
				Aliases:       []string{"Adrian Gibson", "Adrian"},
				Party:         "FNM",
				Constituency:  "Long Island",
			},
			{
				NodeID:        "mp_white_adrian",
				CanonicalName: "Adrian White",
				Aliases:       []string{"Adrian White", "Adrian"},
				Party:         "FNM",
				Constituency:  "St. Anne's",
			},
			{
				NodeID:        "mp_sears_alfred",
				CanonicalName: "Alfred Sears",
				Aliases:       []string{"Alfred Sears", "Sears"},
				Party:         "PLP",
				Constituency:  "Fort Charlotte",
				Portfolios: []roster.PortfolioAssignment{
					{Title: "Minister of Works", ShortTitle: "Works Minister", EffectiveFrom: CabinetSworn, EffectiveTo: datePtr(WorksReshuffle)},
				},
			},
			{
				NodeID:        "mp_sweeting_clay",
				CanonicalName: "Clay Sweeting",
				Aliases:       []string{"Clay Sweeting", "Sweeting"},
				Party:         "PLP",
				Constituency:  "Central and South Eleuthera",
				Portfolios: []roster.PortfolioAssignment{
					{Title: "Minister of Works", ShortTitle: "Works Minister", EffectiveFrom: WorksReshuffle},
				},
			},
			{
				NodeID:        "mp_pinder_ryan",
				CanonicalName: "Ryan Pinder",
				FullName:      "Leslie Ryan Pinder",
				Aliases:       []string{"Ryan Pinder", "Pinder"},
				Party:         "PLP",
				Constituency:  "Elizabeth",
				Portfolios: []roster.PortfolioAssignment{
					{Title: "Attorney General", ShortTitle: "AG", EffectiveFrom: CabinetSworn},
				},
			},
			{
				NodeID:        "mp_hanna_martin_glenys",
				CanonicalName: "Glenys Hanna Martin",
				Aliases:       []string{"Glenys Hanna Martin", "Hanna Martin"},
				Party:         "PLP",
				Constituency:  "Englerston",
				Portfolios: []roster.PortfolioAssignment{
					{Title: "Minister of Education", ShortTitle: "Education Minister", EffectiveFrom: CabinetSworn},
				},
			},
			{
				NodeID:        "mp_thompson_kwasi",
				CanonicalName: "Kwasi Thompson",
				Aliases:       []string{"Kwasi Thompson", "Thompson"},
				Party:         "FNM",
				Constituency:  "East Grand Bahama",
			},
			{
				NodeID:        "chair_speaker",
				CanonicalName: "Patricia Deveaux",
				Aliases:       []string{"Patricia Deveaux"},
				NodeType:      roster.NodeControl,
			},
		},
	}
}

// Roster returns the validated fixture roster.
func Roster(t *testing.T) *roster.Roster {
	t.Helper()

	r, err := roster.New(RosterDocument())
	if err != nil {
		t.Fatalf("Fixture roster invalid: %v", err)
	}
	return r
}

// WriteRoster writes the fixture roster into a temp dir and returns its path.
func WriteRoster(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := roster.Write(Roster(t), path); err != nil {
		t.Fatalf("Failed to write fixture roster: %v", err)
	}
	return path
}
