package mention

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/hansard/alias"
	hansardtest "github.com/teranos/hansard/internal/testing"
	"github.com/teranos/hansard/resolver"
	"github.com/teranos/hansard/roster"
)

var fixedNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestDetector(t *testing.T, opts ...Option) *Detector {
	t.Helper()
	res := resolver.New(alias.Build(hansardtest.Roster(t)))
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewDetector(res, opts...)
}

func single(speaker, text string) Transcript {
	return Transcript{
		SessionID: "test_session",
		Segments: []Segment{
			{SpeakerNodeID: speaker, Text: text, StartTime: 10, EndTime: 15},
		},
	}
}

func rawMentions(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.RawMention)
	}
	return out
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDetectCatalogue(t *testing.T) {
	d := newTestDetector(t)

	tests := []struct {
		name    string
		text    string
		raw     []string
		pattern string
	}{
		{"member for", "The Member for Cat Island spoke about the budget.", []string{"The Member for Cat Island"}, "member_for"},
		{"minister of", "The Minister of Finance presented the report.", []string{"The Minister of Finance"}, "minister_of"},
		{"honourable name", "The Honourable Chester Cooper raised a point.", []string{"The Honourable Chester Cooper"}, "honourable_name"},
		{"prime minister", "The Prime Minister announced new policies.", []string{"The Prime Minister"}, "prime_minister"},
		{"deputy wins over prime minister", "The Deputy Prime Minister addressed the House.", []string{"The Deputy Prime Minister"}, "deputy_prime_minister"},
		{"leader of the opposition", "I yield to the Leader of the Opposition.", []string{"the Leader of the Opposition"}, "leader_of_opposition"},
		{"attorney general", "The Attorney General will respond.", []string{"The Attorney General"}, "attorney_general"},
		{"speaker", "Thank you, Mr. Speaker.", []string{"Mr. Speaker"}, "speaker"},
		{"member who spoke", "I agree with the Member who just spoke about the budget.", []string{"the Member who just spoke"}, "member_who_spoke"},
		{"member opposite", "I must disagree with the Member opposite.", []string{"the Member opposite"}, "member_opposite"},
		{"capitalized gentleman opposite", "The Honourable Gentleman Opposite is mistaken.", []string{"The Honourable Gentleman Opposite"}, "member_opposite"},
		{"my friend", "My honourable friend from Marathon has my support.", []string{"My honourable friend"}, "my_friend"},
		{"previous speaker", "The previous speaker made some valid points.", []string{"The previous speaker"}, "previous_speaker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := d.Extract(single("mp_thompson_kwasi", tt.text), time.Time{})
			require.Equal(t, tt.raw, rawMentions(records))
			assert.Equal(t, tt.pattern, records[0].Pattern)
		})
	}
}

func TestForeignQualifierExcluded(t *testing.T) {
	d := newTestDetector(t)

	tests := []struct {
		text string
		want []string
	}{
		{"The Prime Minister met with the Canadian prime minister and the British Prime Minister.", []string{"The Prime Minister"}},
		{"The Norwegian Prime Minister visited. The Chinese President spoke.", []string{}},
		{"The statement from the canadian prime minister was noted.", []string{}},
		{"The Jamaican Prime Minister attended the CARICOM summit.", []string{}},
		{"The Bahamian Minister of Finance presented the budget.", []string{"Minister of Finance"}},
		{"The Bahamian Prime Minister met with the Canadian Prime Minister.", []string{"Prime Minister"}},
		{"The Guardian Prime Minister of the day would agree.", []string{"Prime Minister"}},
		{"Our Parliamentarian Minister of Finance tabled the estimates.", []string{"Minister of Finance"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			records := d.Extract(single("mp_thompson_kwasi", tt.text), time.Time{})
			assert.Equal(t, tt.want, rawMentions(records))
		})
	}
}

func TestIsForeignQualifier(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"Canadian", true},
		{"Rican", true},
		{"UK", true},
		{"Bahamian", false},
		{"Librarian", false},
		{"Guardian", false},
		{"Parliamentarian", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, isForeignQualifier(tt.word, "Bahamian"))
		})
	}
}

func TestLocalDemonymOption(t *testing.T) {
	d := newTestDetector(t, WithLocalDemonym("Jamaican"))
	records := d.Extract(single("mp_thompson_kwasi", "The Jamaican Prime Minister spoke."), time.Time{})
	assert.Equal(t, []string{"Prime Minister"}, rawMentions(records))
}

func TestShrinkKeepsResolvingPrefix(t *testing.T) {
	d := newTestDetector(t)

	records := d.Extract(single("mp_davis_brave", "I thank the Member for Englerston, Mr. Speaker."), time.Time{})
	require.Equal(t, []string{"the Member for Englerston", "Mr. Speaker"}, rawMentions(records))
	assert.Equal(t, "mp_hanna_martin_glenys", records[0].TargetNodeID)
	assert.Equal(t, "chair_speaker", records[1].TargetNodeID)

	records = d.Extract(single("mp_pintard_michael", "The Member for Cat Island, Rum Cay and San Salvador is wrong."), time.Time{})
	require.Len(t, records, 1)
	assert.Equal(t, "The Member for Cat Island, Rum Cay and San Salvador", records[0].RawMention)
	assert.Equal(t, "mp_davis_brave", records[0].TargetNodeID)
	assert.Equal(t, resolver.MethodExact, records[0].Method)
}

func TestExtractResolves(t *testing.T) {
	d := newTestDetector(t)

	tr := Transcript{
		SessionID: "2023-11-15-debate",
		Segments: []Segment{
			{SpeakerNodeID: "mp_thompson_kwasi", Text: "The Prime Minister opened the debate.", StartTime: 0, EndTime: 5},
			{SpeakerNodeID: "mp_cooper_chester", Text: "The Member for Cat Island responded to the statement.", StartTime: 5, EndTime: 10},
		},
	}
	records := d.Extract(tr, day(2023, 11, 15))
	require.Len(t, records, 2)

	assert.Equal(t, "mp_davis_brave", records[0].TargetNodeID)
	assert.Equal(t, resolver.MethodTemporalPortfolio, records[0].Method)
	assert.Equal(t, 1.0, records[0].Confidence)
	assert.Equal(t, "mp_thompson_kwasi", records[0].SourceNodeID)

	assert.Equal(t, "mp_davis_brave", records[1].TargetNodeID)
	assert.Equal(t, 1, records[1].SegmentIndex)
	for _, r := range records {
		assert.Equal(t, "2023-11-15-debate", r.SessionID)
		assert.False(t, r.IsSelfReference)
	}
	assert.Zero(t, d.UnresolvedCount())
}

func TestExtractUsesDebateDate(t *testing.T) {
	d := newTestDetector(t)
	before := roster.NewDate(2023, time.August, 1)

	tr := single("mp_thompson_kwasi", "The Minister of Works announced the project.")
	tr.DebateDate = &before

	records := d.Extract(tr, time.Time{})
	require.Len(t, records, 1)
	assert.Equal(t, "mp_sears_alfred", records[0].TargetNodeID)

	// an explicit reference date wins over the transcript's
	records = d.Extract(tr, day(2023, 11, 15))
	require.Len(t, records, 1)
	assert.Equal(t, "mp_sweeting_clay", records[0].TargetNodeID)
}

func TestExtractSkipsExcludedAndEmptySegments(t *testing.T) {
	d := newTestDetector(t)

	tr := Transcript{
		SessionID: "s",
		Segments: []Segment{
			{SpeakerNodeID: "mp_thompson_kwasi", Text: "The Prime Minister opened the debate.", StartTime: 0, EndTime: 5, ExcludeFromExtraction: true},
			{SpeakerNodeID: "mp_thompson_kwasi", Text: "   ", StartTime: 5, EndTime: 6},
			{SpeakerNodeID: "mp_cooper_chester", Text: "The Member for Cat Island responded.", StartTime: 6, EndTime: 10},
		},
	}
	records := d.Extract(tr, time.Time{})
	assert.Equal(t, []string{"The Member for Cat Island"}, rawMentions(records))
	assert.Equal(t, 2, records[0].SegmentIndex)
}

func TestSpeakerFallback(t *testing.T) {
	tests := []struct {
		name string
		seg  Segment
		want string
	}{
		{"node id", Segment{SpeakerNodeID: "mp_cooper_chester", SpeakerLabel: "SPEAKER_01"}, "mp_cooper_chester"},
		{"label", Segment{SpeakerLabel: "SPEAKER_00"}, "SPEAKER_00"},
		{"unknown", Segment{}, UnknownSpeaker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.seg.Speaker())
		})
	}

	d := newTestDetector(t)
	tr := Transcript{SessionID: "s", Segments: []Segment{{SpeakerLabel: "SPEAKER_00", Text: "The Prime Minister spoke.", StartTime: 0, EndTime: 2}}}
	records := d.Extract(tr, time.Time{})
	require.Len(t, records, 1)
	assert.Equal(t, "SPEAKER_00", records[0].SourceNodeID)
}

func TestSelfReference(t *testing.T) {
	d := newTestDetector(t)

	records := d.Extract(single("mp_davis_brave", "As Prime Minister, I must address this issue."), day(2023, 11, 15))
	require.Len(t, records, 1)
	assert.True(t, records[0].IsSelfReference)

	records = d.Extract(single("mp_cooper_chester", "The Prime Minister has announced new policies."), day(2023, 11, 15))
	require.Len(t, records, 1)
	assert.False(t, records[0].IsSelfReference)
}

func TestCoreference(t *testing.T) {
	tests := []struct {
		name     string
		segments []Segment
		want     string
	}{
		{
			name: "member who just spoke binds the last speaker",
			segments: []Segment{
				{SpeakerNodeID: "mp_cooper_chester", Text: "I support the budget proposal."},
				{SpeakerNodeID: "mp_pintard_michael", Text: "The Member who just spoke makes an excellent point."},
			},
			want: "mp_cooper_chester",
		},
		{
			name: "friend binds the same party",
			segments: []Segment{
				{SpeakerNodeID: "mp_pintard_michael", Text: "We need reform."},
				{SpeakerNodeID: "mp_cooper_chester", Text: "I agree with that."},
				{SpeakerNodeID: "mp_davis_brave", Text: "My honourable friend is absolutely correct."},
			},
			want: "mp_cooper_chester",
		},
		{
			name: "opposite binds the other party",
			segments: []Segment{
				{SpeakerNodeID: "mp_pintard_michael", Text: "We need reform."},
				{SpeakerNodeID: "mp_cooper_chester", Text: "I agree."},
				{SpeakerNodeID: "mp_davis_brave", Text: "I must disagree with the Member opposite."},
			},
			want: "mp_pintard_michael",
		},
		{
			name: "source never binds to itself",
			segments: []Segment{
				{SpeakerNodeID: "mp_davis_brave", Text: "First."},
				{SpeakerNodeID: "mp_cooper_chester", Text: "Second."},
				{SpeakerNodeID: "mp_cooper_chester", Text: "The Member who just spoke is right."},
			},
			want: "mp_davis_brave",
		},
		{
			name: "chair is never bound",
			segments: []Segment{
				{SpeakerNodeID: "mp_cooper_chester", Text: "I support this."},
				{SpeakerNodeID: "chair_speaker", Text: "Order, order."},
				{SpeakerNodeID: "mp_pintard_michael", Text: "I disagree with the previous speaker."},
			},
			want: "mp_cooper_chester",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector(t)
			records := d.Extract(Transcript{SessionID: "s", Segments: tt.segments}, time.Time{})
			require.Len(t, records, 1)
			r := records[0]
			assert.Equal(t, tt.want, r.TargetNodeID)
			assert.Equal(t, resolver.MethodCoreference, r.Method)
			assert.Equal(t, DefaultCoreferenceConfidence, r.Confidence)
			assert.Equal(t, MentionDeictic, r.MentionType)
		})
	}
}

func TestAppositiveDeicticDefersToExplicitName(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		raw    string
		target string
		method resolver.Method
	}{
		{"member for", "My honourable friend the Member for Marco City is mistaken.", "the Member for Marco City", "mp_pintard_michael", resolver.MethodExact},
		{"comma and role", "My honourable friend, the Prime Minister, is right.", "the Prime Minister", "mp_davis_brave", resolver.MethodTemporalPortfolio},
		{"no explicit name", "My honourable friend from Marathon is right.", "My honourable friend", "mp_cooper_chester", resolver.MethodCoreference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector(t)
			records := d.Extract(Transcript{SessionID: "s", Segments: []Segment{
				{SpeakerNodeID: "mp_cooper_chester", Text: "I agree with that."},
				{SpeakerNodeID: "mp_sears_alfred", Text: tt.text},
			}}, time.Time{})

			require.Equal(t, []string{tt.raw}, rawMentions(records))
			assert.Equal(t, tt.target, records[0].TargetNodeID)
			assert.Equal(t, tt.method, records[0].Method)
			assert.Zero(t, d.UnresolvedCount())
		})
	}
}

func TestCoreferenceDisabledOrWithoutHistory(t *testing.T) {
	segments := []Segment{
		{SpeakerNodeID: "mp_cooper_chester", Text: "We need action."},
		{SpeakerNodeID: "mp_pintard_michael", Text: "The Member who just spoke is right."},
	}

	d := newTestDetector(t, WithoutCoreference())
	records := d.Extract(Transcript{SessionID: "s", Segments: segments}, time.Time{})
	require.Len(t, records, 1)
	assert.False(t, records[0].Resolved())

	d = newTestDetector(t, WithHistorySize(0))
	records = d.Extract(Transcript{SessionID: "s", Segments: segments}, time.Time{})
	require.Len(t, records, 1)
	assert.False(t, records[0].Resolved())
}

func TestUnresolvedAccounting(t *testing.T) {
	d := newTestDetector(t)

	tr := Transcript{
		SessionID: "test-session",
		DebateDate: func() *roster.Date {
			dt := roster.NewDate(2023, time.November, 15)
			return &dt
		}(),
		Segments: []Segment{
			{SpeakerNodeID: "mp_davis_brave", Text: "The Member who just spoke is absolutely right.", StartTime: 0, EndTime: 5},
			{SpeakerNodeID: "mp_davis_brave", Text: "The Member for Unknown Place spoke well.", StartTime: 5, EndTime: 9},
			{SpeakerNodeID: "mp_davis_brave", Text: "The Member for Englerston agrees.", StartTime: 9, EndTime: 12},
		},
	}
	records := d.Extract(tr, time.Time{})
	require.Len(t, records, 3)

	unresolved := 0
	for _, r := range records {
		if !r.Resolved() {
			unresolved++
		}
	}
	require.Equal(t, 2, unresolved)
	assert.Equal(t, unresolved, d.UnresolvedCount())

	entries := d.UnresolvedLog().Entries()
	assert.Equal(t, "The Member who just spoke", entries[0].RawMention)
	assert.Equal(t, MentionDeictic, entries[0].MentionType)
	assert.Equal(t, "mp_davis_brave", entries[0].SpeakerID)
	assert.Equal(t, "2023-11-15", entries[0].DebateDate)
	assert.Equal(t, fixedNow, entries[0].Timestamp)
	assert.Equal(t, "The Member for Unknown Place", entries[1].RawMention)
	assert.Equal(t, MentionStandard, entries[1].MentionType)
	assert.Equal(t, 1, entries[1].SegmentIndex)
	assert.Contains(t, entries[1].Context, "spoke well")

	path := filepath.Join(t.TempDir(), "out", "unresolved.json")
	require.NoError(t, d.SaveUnresolvedLog(path))
	saved, err := LoadUnresolvedFile(path)
	require.NoError(t, err)
	assert.Equal(t, "test-session", saved.SessionID)
	assert.Equal(t, unresolved, saved.TotalUnresolved)
	assert.Len(t, saved.Mentions, unresolved)

	d.ClearUnresolvedLog()
	assert.Zero(t, d.UnresolvedCount())
}

func TestContextWindow(t *testing.T) {
	text := "alpha beta gamma The Prime Minister delta epsilon"
	start := 17
	end := start + len("The Prime Minister")

	assert.Equal(t, "gamma The Prime Minister delta", contextWindow(text, start, end, 8))
	assert.Equal(t, text, contextWindow(text, start, end, 500))
	assert.Equal(t, "The Prime Minister", contextWindow(text, start, end, 0))
}

func TestContextWindowNeverCrossesSegments(t *testing.T) {
	d := newTestDetector(t)
	tr := Transcript{
		SessionID: "s",
		Segments: []Segment{
			{SpeakerNodeID: "mp_cooper_chester", Text: "Earlier words here."},
			{SpeakerNodeID: "mp_pintard_michael", Text: "The Prime Minister is late."},
			{SpeakerNodeID: "mp_cooper_chester", Text: "Later words here."},
		},
	}
	records := d.Extract(tr, time.Time{})
	require.Len(t, records, 1)
	assert.Equal(t, "The Prime Minister is late.", records[0].ContextWindow)
}

func TestTimestampsAreProportional(t *testing.T) {
	d := newTestDetector(t)
	text := "The Prime Minister spoke today."

	records := d.Extract(single("mp_thompson_kwasi", text), time.Time{})
	require.Len(t, records, 1)
	r := records[0]

	assert.Equal(t, 0, r.CharStart)
	assert.Equal(t, 18, r.CharEnd)
	assert.InDelta(t, 10.0, r.TimestampStart, 1e-9)
	assert.InDelta(t, 10.0+5.0*18.0/31.0, r.TimestampEnd, 1e-9)
	assert.Less(t, r.TimestampStart, r.TimestampEnd)

	s, e := estimateTimestamps(3, 3, 0, 4, 10)
	assert.Equal(t, 3.0, s)
	assert.Equal(t, 3.0, e)
}

func TestSaveAndLoadRecords(t *testing.T) {
	d := newTestDetector(t)
	records := d.Extract(single("mp_thompson_kwasi", "The Prime Minister and the Member for Marco City."), time.Time{})
	require.Len(t, records, 2)

	path := filepath.Join(t.TempDir(), "mentions.json")
	require.NoError(t, SaveRecords(records, path))

	loaded, err := LoadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}
