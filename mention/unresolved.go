package mention

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/version"
)

// MentionType distinguishes deictic references from named ones in the log.
type MentionType string

const (
	MentionStandard MentionType = "standard"
	MentionDeictic  MentionType = "deictic"
)

// UnresolvedEntry is one mention no stage could bind, kept for curation.
type UnresolvedEntry struct {
	RawMention     string      `json:"raw_mention"`
	Context        string      `json:"context"`
	Timestamp      time.Time   `json:"timestamp"`
	SessionID      string      `json:"session_id,omitempty"`
	SpeakerID      string      `json:"speaker_id,omitempty"`
	MentionType    MentionType `json:"mention_type"`
	DebateDate     string      `json:"debate_date,omitempty"`
	SegmentIndex   int         `json:"segment_index"`
	TimestampStart float64     `json:"timestamp_start"`
}

// UnresolvedFile is the persisted shape of a log.
type UnresolvedFile struct {
	FormatVersion   string            `json:"format_version,omitempty"`
	Generator       string            `json:"generator,omitempty"`
	SessionID       string            `json:"session_id,omitempty"`
	SavedAt         time.Time         `json:"saved_at"`
	TotalUnresolved int               `json:"total_unresolved"`
	Mentions        []UnresolvedEntry `json:"mentions"`
}

// UnresolvedLog accumulates unresolved mentions until the caller clears it.
// It is safe for concurrent use.
type UnresolvedLog struct {
	mu      sync.Mutex
	entries []UnresolvedEntry
}

// NewUnresolvedLog returns an empty log.
func NewUnresolvedLog() *UnresolvedLog {
	return &UnresolvedLog{}
}

func (l *UnresolvedLog) Append(e UnresolvedEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// Entries returns a copy of the log in append order.
func (l *UnresolvedLog) Entries() []UnresolvedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]UnresolvedEntry(nil), l.entries...)
}

func (l *UnresolvedLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *UnresolvedLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Merge appends other's entries to l.
func (l *UnresolvedLog) Merge(other *UnresolvedLog) {
	if other == nil || other == l {
		return
	}
	entries := other.Entries()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entries...)
}

// Snapshot builds the persisted form. SessionID is set only when every
// entry belongs to the same session.
func (l *UnresolvedLog) Snapshot(savedAt time.Time) UnresolvedFile {
	entries := l.Entries()
	if entries == nil {
		entries = []UnresolvedEntry{}
	}
	info := version.Get()
	f := UnresolvedFile{
		FormatVersion:   info.FormatVersion,
		Generator:       info.Generator(),
		SavedAt:         savedAt.UTC(),
		TotalUnresolved: len(entries),
		Mentions:        entries,
	}
	for i, e := range entries {
		if i == 0 {
			f.SessionID = e.SessionID
		} else if e.SessionID != f.SessionID {
			f.SessionID = ""
			break
		}
	}
	return f
}

// Save writes the log as JSON, creating parent directories.
func (l *UnresolvedLog) Save(path string) error {
	return writeJSON(path, l.Snapshot(time.Now()), "unresolved log")
}

// LoadUnresolvedFile reads a log written by Save. Logs from an
// incompatible format version are rejected.
func LoadUnresolvedFile(path string) (*UnresolvedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read unresolved log %s", path)
	}
	var f UnresolvedFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse unresolved log %s", path)
	}
	ok, err := version.CompatibleFormat(f.FormatVersion)
	if err != nil {
		return nil, errors.Wrapf(err, "unresolved log %s", path)
	}
	if !ok {
		return nil, errors.Newf("unresolved log %s has format %s, this build reads %s", path, f.FormatVersion, version.FormatVersion)
	}
	return &f, nil
}

func writeJSON(path string, v interface{}, what string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", what)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrapf(err, "write %s %s", what, path)
	}
	return nil
}
