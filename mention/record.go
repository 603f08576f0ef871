package mention

import (
	"encoding/json"
	"os"

	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/resolver"
)

// Record is one detected mention and how it resolved. Offsets are in runes
// within the segment text; timestamps are seconds.
type Record struct {
	SessionID        string          `json:"session_id"`
	SegmentIndex     int             `json:"segment_index"`
	SourceNodeID     string          `json:"source_node_id"`
	TargetNodeID     string          `json:"target_node_id,omitempty"`
	RawMention       string          `json:"raw_mention"`
	Pattern          string          `json:"pattern"`
	MentionType      MentionType     `json:"mention_type"`
	ContextWindow    string          `json:"context_window"`
	Confidence       float64         `json:"confidence"`
	Method           resolver.Method `json:"method"`
	CollisionWarning bool            `json:"collision_warning"`
	IsSelfReference  bool            `json:"is_self_reference"`
	TimestampStart   float64         `json:"timestamp_start"`
	TimestampEnd     float64         `json:"timestamp_end"`
	CharStart        int             `json:"char_start"`
	CharEnd          int             `json:"char_end"`
}

// Resolved reports whether the mention was bound to a node.
func (r Record) Resolved() bool {
	return r.TargetNodeID != ""
}

// SaveRecords writes records as a JSON array.
func SaveRecords(records []Record, path string) error {
	if records == nil {
		records = []Record{}
	}
	return writeJSON(path, records, "mention records")
}

// LoadRecords reads records written by SaveRecords.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read mention records %s", path)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "parse mention records %s", path)
	}
	return records, nil
}
