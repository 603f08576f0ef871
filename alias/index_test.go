package alias

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hansardtest "github.com/teranos/hansard/internal/testing"
	"github.com/teranos/hansard/roster"
	"github.com/teranos/hansard/version"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Brave Davis", "brave davis"},
		{"  BRAVE   Davis ", "brave davis"},
		{"Glenys Hanna-Martín,", "glenys hanna-martin"},
		{"St. Anne’s", "st. anne's"},
		{"(Mr. Speaker).", "mr. speaker"},
		{"...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestBuildStaticAliases(t *testing.T) {
	ix := Build(hansardtest.Roster(t))

	tests := []struct {
		alias string
		want  []string
	}{
		{"brave davis", []string{"mp_davis_brave"}},
		{"philip edward davis", []string{"mp_davis_brave"}},
		{"the honourable philip davis", []string{"mp_davis_brave"}},
		{"hon. chester cooper", []string{"mp_cooper_chester"}},
		{"member for marco city", []string{"mp_pintard_michael"}},
		{"the member for englerston", []string{"mp_hanna_martin_glenys"}},
		{"the honourable member for fort charlotte", []string{"mp_sears_alfred"}},
		{"member for st. anne's", []string{"mp_white_adrian"}},
		{"adrian", []string{"mp_gibson_adrian", "mp_white_adrian"}},
		{"mr. speaker", []string{"chair_speaker"}},
		{"the speaker", []string{"chair_speaker"}},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			assert.Equal(t, tt.want, ix.Claimants(tt.alias))
		})
	}

	assert.Nil(t, ix.Claimants("nobody at all"))
}

func TestConstituencyFragments(t *testing.T) {
	ix := Build(hansardtest.Roster(t))

	assert.Equal(t, []string{"mp_davis_brave"}, ix.Claimants("member for cat island"))
	assert.Equal(t, []string{"mp_davis_brave"}, ix.Claimants("the member for san salvador"))
	// "and" alone does not split a constituency
	assert.Nil(t, ix.Claimants("member for central"))
	assert.Nil(t, ix.Claimants("member for exumas"))
}

func TestFragmentClaimedTwiceIsSkipped(t *testing.T) {
	r, err := roster.New(roster.Document{Records: []roster.IdentityRecord{
		{NodeID: "mp_a_a", CanonicalName: "A", Aliases: []string{"A"}, Constituency: "Mangrove Cay, South Andros"},
		{NodeID: "mp_b_b", CanonicalName: "B", Aliases: []string{"B"}, Constituency: "Mangrove Cay, North Andros"},
		{NodeID: "mp_c_c", CanonicalName: "C", Aliases: []string{"C"}, Constituency: "Central Andros, Long Island"},
		{NodeID: "mp_d_d", CanonicalName: "D", Aliases: []string{"D"}, Constituency: "Long Island"},
	}})
	require.NoError(t, err)
	ix := Build(r)

	assert.Nil(t, ix.Claimants("member for mangrove cay"), "shared fragment")
	assert.Equal(t, []string{"mp_a_a"}, ix.Claimants("member for south andros"))
	assert.Equal(t, []string{"mp_d_d"}, ix.Claimants("member for long island"), "fragment equal to a full constituency")
}

func TestPortfolioTable(t *testing.T) {
	ix := Build(hansardtest.Roster(t))

	claims := ix.PortfolioClaims("minister of works")
	require.Len(t, claims, 2)
	assert.Equal(t, "mp_sears_alfred", claims[0].NodeID)
	assert.False(t, claims[0].Current())
	assert.Equal(t, "mp_sweeting_clay", claims[1].NodeID)
	assert.True(t, claims[1].Current())

	assert.Len(t, ix.PortfolioClaims("the works minister"), 2)
	assert.True(t, ix.IsPortfolioAlias("pm"))
	assert.True(t, ix.IsPortfolioAlias("the prime minister"))

	// portfolio titles never enter the static table
	assert.Nil(t, ix.Claimants("minister of works"))

	aug := time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, claims[0].ActiveOn(aug))
	assert.False(t, claims[1].ActiveOn(aug))
}

func TestCollisionsAndStats(t *testing.T) {
	ix := Build(hansardtest.Roster(t))

	collisions := ix.Collisions()
	require.Len(t, collisions, 1)
	assert.Equal(t, "adrian", collisions[0].Alias)

	stats := ix.Stats()
	assert.Equal(t, 11, stats.Records)
	assert.Equal(t, 1, stats.Collisions)
	assert.Equal(t, len(ix.Aliases()), stats.StaticAliases)
	assert.Equal(t, len(ix.PortfolioAliases()), stats.PortfolioAliases)
}

func TestSharedRoleAliasesCollide(t *testing.T) {
	r, err := roster.New(roster.Document{Records: []roster.IdentityRecord{
		{NodeID: "chair_speaker", CanonicalName: "Patricia Deveaux", Aliases: []string{"Patricia Deveaux"}, NodeType: roster.NodeControl},
		{NodeID: "chair_deputy_speaker", CanonicalName: "Deputy Speaker", Aliases: []string{"Deputy Speaker"}, NodeType: roster.NodeControl},
	}})
	require.NoError(t, err)
	ix := Build(r)

	assert.Equal(t, []string{"chair_speaker", "chair_deputy_speaker"}, ix.Claimants("mr. speaker"))
}

func TestOrderAndRecord(t *testing.T) {
	ix := Build(hansardtest.Roster(t))

	gibson, ok := ix.Order("mp_gibson_adrian")
	require.True(t, ok)
	white, _ := ix.Order("mp_white_adrian")
	assert.Less(t, gibson, white)

	rec, ok := ix.Record("mp_pinder_ryan")
	require.True(t, ok)
	assert.Equal(t, "Elizabeth", rec.Constituency)
	assert.Equal(t, "1.0.0", ix.Version())
}

func TestEntriesAreCopies(t *testing.T) {
	ix := Build(hansardtest.Roster(t))
	entries := ix.Entries()
	entries[0].NodeIDs[0] = "mutated"
	assert.NotEqual(t, "mutated", ix.Entries()[0].NodeIDs[0])
}

func TestSave(t *testing.T) {
	ix := Build(hansardtest.Roster(t))
	path := filepath.Join(t.TempDir(), "nested", "alias_index.json")
	require.NoError(t, Save(ix, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var exp Export
	require.NoError(t, json.Unmarshal(data, &exp))
	assert.Equal(t, "1.0.0", exp.Metadata.RosterVersion)
	assert.Equal(t, 1, exp.Metadata.Collisions)
	assert.Equal(t, version.FormatVersion, exp.Metadata.FormatVersion)
	assert.Equal(t, "hansard/dev+dev", exp.Metadata.Generator)
	assert.Equal(t, []string{"mp_davis_brave"}, exp.Aliases["brave davis"])
	require.Len(t, exp.Portfolios["minister of works"], 2)
	assert.Equal(t, "2023-09-01", exp.Portfolios["minister of works"][1].From.String())
}
