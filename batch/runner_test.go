package batch

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/hansard/alias"
	"github.com/teranos/hansard/errors"
	hansardtest "github.com/teranos/hansard/internal/testing"
	"github.com/teranos/hansard/mention"
	"github.com/teranos/hansard/resolver"
)

const sittingTranscript = `{
  "session_id": "2024-01-15-sitting",
  "debate_date": "2024-01-15",
  "segments": [
    {"speaker_node_id": "mp_davis_brave", "text": "I thank the Member for Marco City for his remarks.", "start_time": 0, "end_time": 5},
    {"speaker_node_id": "mp_pintard_michael", "text": "Point of order! The Member for Atlantis is misleading the House.", "start_time": 5, "end_time": 9}
  ]
}`

const plainTranscript = `{"session_id": "plain", "segments": [{"speaker_node_id": "mp_cooper_chester", "text": "Thank you.", "start_time": 0, "end_time": 1}]}`

func newTestResolver(t *testing.T) *resolver.Resolver {
	t.Helper()
	return resolver.New(alias.Build(hansardtest.Roster(t)))
}

func writeTranscripts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestRunnerRun(t *testing.T) {
	in := writeTranscripts(t, map[string]string{
		"2024-01-15-sitting.json": sittingTranscript,
		"plain.json":              plainTranscript,
		"bad.json":                `{"segments": [`,
	})
	out := t.TempDir()
	db := hansardtest.CreateMigratedDB(t)
	rec := NewSQLRecorder(db)

	paths, err := Discover(in)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	r := NewRunner(newTestResolver(t),
		WithWorkers(2),
		WithOutputDir(out),
		WithRecorder(rec),
		WithRosterVersion("1.0.0"),
	)
	summary, err := r.Run(context.Background(), paths)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 3, summary.Transcripts)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Mentions)
	assert.Equal(t, 1, summary.Resolved)
	assert.Equal(t, 1, summary.Unresolved)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, filepath.Join(in, "bad.json"), summary.Failures[0].Path)

	// Results keep input order
	require.Len(t, summary.Results, 3)
	for i, p := range paths {
		assert.Equal(t, p, summary.Results[i].Path)
	}

	records, err := mention.LoadRecords(filepath.Join(out, "2024-01-15-sitting"+MentionsSuffix))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "mp_pintard_michael", records[0].TargetNodeID)
	assert.False(t, records[1].Resolved())

	unresolved, err := mention.LoadUnresolvedFile(filepath.Join(out, "2024-01-15-sitting"+UnresolvedSuffix))
	require.NoError(t, err)
	assert.Equal(t, 1, unresolved.TotalUnresolved)
	assert.Equal(t, "2024-01-15", unresolved.Mentions[0].DebateDate)

	assert.FileExists(t, filepath.Join(out, "2024-01-15-sitting"+ProceduralSuffix))
	assert.FileExists(t, filepath.Join(out, "plain"+MentionsSuffix))
	assert.NoFileExists(t, filepath.Join(out, "plain"+ProceduralSuffix))

	plain, err := mention.LoadUnresolvedFile(filepath.Join(out, "plain"+UnresolvedSuffix))
	require.NoError(t, err)
	assert.Zero(t, plain.TotalUnresolved, "each transcript gets its own log")

	runs, err := rec.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].ID)
	assert.Equal(t, "1.0.0", runs[0].RosterVersion)
	assert.Equal(t, 3, runs[0].Transcripts)
	assert.Equal(t, 1, runs[0].Failed)
	assert.NotNil(t, runs[0].FinishedAt)

	results, err := rec.Results(context.Background(), summary.RunID)
	require.NoError(t, err)
	require.Len(t, results, 3)
	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestRunnerSharedSessionID(t *testing.T) {
	segment := `{"speaker_node_id": "mp_davis_brave", "text": "The Member for Atlantis is misleading the House.", "start_time": 0, "end_time": 4}`
	in := writeTranscripts(t, map[string]string{
		"a.json":     `{"session_id": "same", "segments": [` + segment + `]}`,
		"b.json":     `{"session_id": "same", "segments": [` + segment + `, ` + segment + `]}`,
		"plain.json": plainTranscript,
	})
	out := t.TempDir()

	paths, err := Discover(in)
	require.NoError(t, err)

	summary, err := NewRunner(newTestResolver(t), WithOutputDir(out)).Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 3, summary.Unresolved)

	tests := []struct {
		name       string
		unresolved int
	}{
		{"same__a", 1},
		{"same__b", 2},
		{"plain", 0},
	}

	seen := make(map[string]bool)
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := summary.Results[i]
			assert.Equal(t, filepath.Join(out, tt.name+UnresolvedSuffix), res.UnresolvedPath)
			assert.False(t, seen[res.MentionsPath], "output written twice")
			seen[res.MentionsPath] = true

			log, err := mention.LoadUnresolvedFile(res.UnresolvedPath)
			require.NoError(t, err)
			assert.Equal(t, tt.unresolved, log.TotalUnresolved)
		})
	}
	assert.NoFileExists(t, filepath.Join(out, "same"+MentionsSuffix))
}

func TestOutputNames(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0755))
	write := func(path, content string) string {
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	paths := []string{
		write(filepath.Join(dir, "x.json"), `{"session_id": "Dup", "segments": []}`),
		write(filepath.Join(sub, "x.json"), `{"session_id": "dup", "segments": []}`),
		write(filepath.Join(dir, "unique.json"), `{"session_id": "nested/unique", "segments": []}`),
		write(filepath.Join(dir, "untitled.json"), `{"segments": []}`),
		filepath.Join(dir, "missing.json"),
	}

	assert.Equal(t, []string{"Dup__x", "dup__x_2", "unique", "untitled", ""}, outputNames(paths))
}

func TestRunnerCancelled(t *testing.T) {
	in := writeTranscripts(t, map[string]string{"plain.json": plainTranscript})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(newTestResolver(t), WithOutputDir(t.TempDir()))
	summary, err := r.Run(ctx, []string{filepath.Join(in, "plain.json")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Failed)
}

func TestRunnerRecorderBeginFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO extraction_runs").WillReturnError(errors.New("disk I/O error"))

	r := NewRunner(newTestResolver(t), WithOutputDir(t.TempDir()), WithRecorder(NewSQLRecorder(db)))
	_, err = r.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunnerWorkersDefault(t *testing.T) {
	res := newTestResolver(t)
	assert.Equal(t, runtime.NumCPU(), NewRunner(res).Workers())
	assert.Equal(t, runtime.NumCPU(), NewRunner(res, WithWorkers(-3)).Workers())
	assert.Equal(t, 3, NewRunner(res, WithWorkers(3)).Workers())
}

func TestRunnerProcessRefDate(t *testing.T) {
	in := writeTranscripts(t, map[string]string{"undated.json": `{"session_id": "undated", "segments": [
    {"speaker_node_id": "mp_davis_brave", "text": "The Minister of Works has the floor.", "start_time": 0, "end_time": 3}
  ]}`})
	out := t.TempDir()

	r := NewRunner(newTestResolver(t),
		WithOutputDir(out),
		WithRefDate(hansardtest.CabinetSworn.Time),
	)
	res := r.Process(filepath.Join(in, "undated.json"))
	require.NoError(t, res.Err)
	assert.Equal(t, "undated", res.SessionID)
	assert.Equal(t, 1, res.Resolved)

	records, err := mention.LoadRecords(res.MentionsPath)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "mp_sears_alfred", records[0].TargetNodeID)
	assert.Equal(t, resolver.MethodTemporalPortfolio, records[0].Method)
}

func TestSQLRecorderFinishUnknownRun(t *testing.T) {
	rec := NewSQLRecorder(hansardtest.CreateMigratedDB(t))
	err := rec.FinishRun(context.Background(), &Summary{RunID: "missing"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))

	assert.Error(t, rec.BeginRun(context.Background(), "", "", hansardtest.CabinetSworn.Time))
}

func TestDiscover(t *testing.T) {
	dir := writeTranscripts(t, map[string]string{
		"b.json":            "{}",
		"a.json":            "{}",
		"a_mentions.json":   "[]",
		"a_unresolved.json": "{}",
		"a_procedural.json": "[]",
		"notes.txt":         "",
		".hidden.json":      "{}",
		"UPPER.JSON":        "{}",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

	paths, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "UPPER.JSON"),
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.json"),
	}, paths)

	single := filepath.Join(dir, "a.json")
	paths, err = Discover(single)
	require.NoError(t, err)
	assert.Equal(t, []string{single}, paths)

	_, err = Discover(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	empty, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, empty)
}
