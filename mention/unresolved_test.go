package mention

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/version"
)

func TestUnresolvedLog(t *testing.T) {
	log := NewUnresolvedLog()
	log.Append(UnresolvedEntry{RawMention: "a", SessionID: "s1", MentionType: MentionStandard})
	log.Append(UnresolvedEntry{RawMention: "b", SessionID: "s1", MentionType: MentionDeictic})
	assert.Equal(t, 2, log.Len())

	entries := log.Entries()
	entries[0].RawMention = "mutated"
	assert.Equal(t, "a", log.Entries()[0].RawMention)

	other := NewUnresolvedLog()
	other.Append(UnresolvedEntry{RawMention: "c", SessionID: "s2"})
	log.Merge(other)
	log.Merge(log)
	log.Merge(nil)
	assert.Equal(t, 3, log.Len())
	assert.Equal(t, 1, other.Len())

	snap := log.Snapshot(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "", snap.SessionID, "mixed sessions")
	assert.Equal(t, 3, snap.TotalUnresolved)

	log.Clear()
	assert.Zero(t, log.Len())
	empty := log.Snapshot(time.Now())
	assert.NotNil(t, empty.Mentions)
	assert.Zero(t, empty.TotalUnresolved)
}

func TestUnresolvedLogConcurrentAppend(t *testing.T) {
	log := NewUnresolvedLog()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				log.Append(UnresolvedEntry{RawMention: "x"})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, log.Len())
}

func TestUnresolvedLogSave(t *testing.T) {
	log := NewUnresolvedLog()
	log.Append(UnresolvedEntry{RawMention: "the Member for Atlantis", Context: "I thank the Member for Atlantis", SessionID: "s1"})

	path := filepath.Join(t.TempDir(), "a", "b", "s1_unresolved.json")
	require.NoError(t, log.Save(path))

	f, err := LoadUnresolvedFile(path)
	require.NoError(t, err)
	assert.Equal(t, "s1", f.SessionID)
	assert.Equal(t, 1, f.TotalUnresolved)
	assert.Equal(t, "the Member for Atlantis", f.Mentions[0].RawMention)
	assert.False(t, f.SavedAt.IsZero())
	assert.Equal(t, version.FormatVersion, f.FormatVersion)
	assert.Equal(t, version.Get().Generator(), f.Generator)

	_, err = LoadUnresolvedFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadUnresolvedFileFormatVersion(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unstamped", content: `{"total_unresolved": 0, "mentions": []}`},
		{name: "current", content: `{"format_version": "` + version.FormatVersion + `", "mentions": []}`},
		{name: "older minor", content: `{"format_version": "1.0.0", "mentions": []}`},
		{name: "next major", content: `{"format_version": "2.0.0", "mentions": []}`, wantErr: "has format 2.0.0"},
		{name: "garbage", content: `{"format_version": "soon", "mentions": []}`, wantErr: "format version \"soon\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "log.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadUnresolvedFile(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDetectPointsOfOrder(t *testing.T) {
	tr := Transcript{
		SessionID: "test_2024_01_15",
		Segments: []Segment{
			{SpeakerNodeID: "mp_pintard_michael", Text: "Mr. Speaker, point of order!", StartTime: 120, EndTime: 125},
			{SpeakerNodeID: "mp_davis_brave", Text: "Thank you, Mr. Speaker.", StartTime: 130, EndTime: 132},
			{SpeakerNodeID: "mp_thompson_kwasi", Text: "Madam Speaker, I rise on a Point of Order.", StartTime: 200, EndTime: 205},
			{SpeakerNodeID: "mp_cooper_chester", Text: "Points of order were raised earlier.", StartTime: 210, EndTime: 215, ExcludeFromExtraction: true},
		},
	}

	events := DetectPointsOfOrder(tr)
	require.Len(t, events, 2)
	assert.Equal(t, "mp_pintard_michael", events[0].SourceNodeID)
	assert.Equal(t, "test_2024_01_15", events[0].SessionID)
	assert.Equal(t, EventPointOfOrder, events[0].EventType)
	assert.Equal(t, "Mr. Speaker, point of order!", events[0].RawText)
	assert.Equal(t, 120.0, events[0].TimestampStart)
	assert.Equal(t, "mp_thompson_kwasi", events[1].SourceNodeID)
	assert.Equal(t, 2, events[1].SegmentIndex)

	assert.Empty(t, DetectPointsOfOrder(Transcript{
		SessionID: "s",
		Segments:  []Segment{{SpeakerNodeID: "mp_cooper_chester", Text: "I agree with the Member for Cat Island."}},
	}))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadTranscript(t *testing.T) {
	path := writeFile(t, "2023-11-15-debate.json", `{
  "session_id": "2023-11-15-debate",
  "debate_date": "2023-11-15",
  "segments": [
    {"speaker_label": "SPEAKER_00", "speaker_node_id": "mp_davis_brave", "text": "The Member for Cat Island.", "start_time": 0, "end_time": 4.5},
    {"speaker_label": "SPEAKER_01", "text": "Point of order!", "start_time": 4.5, "end_time": 6, "exclude_from_extraction": true}
  ]
}`)

	tr, err := LoadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, "2023-11-15-debate", tr.SessionID)
	require.NotNil(t, tr.DebateDate)
	assert.Equal(t, "2023-11-15", tr.DebateDate.String())
	assert.Equal(t, time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC), tr.ReferenceDate())
	require.Len(t, tr.Segments, 2)
	assert.True(t, tr.Segments[1].ExcludeFromExtraction)
	assert.Equal(t, "SPEAKER_01", tr.Segments[1].Speaker())
}

func TestLoadTranscriptSessionFromFileName(t *testing.T) {
	path := writeFile(t, "sitting-42.json", `{"segments": []}`)
	tr, err := LoadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, "sitting-42", tr.SessionID)
	assert.True(t, tr.ReferenceDate().IsZero())
}

func TestLoadTranscriptErrors(t *testing.T) {
	_, err := LoadTranscript(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadTranscript(writeFile(t, "bad.json", `{"segments": [`))
	assert.Error(t, err)

	_, err = LoadTranscript(writeFile(t, "bad_date.json", `{"session_id": "s", "debate_date": "15/11/2023", "segments": []}`))
	assert.Error(t, err)

	_, err = LoadTranscript(writeFile(t, "backwards.json", `{"session_id": "s", "segments": [{"text": "x", "start_time": 5, "end_time": 1}]}`))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}
