package mention

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/roster"
)

// UnknownSpeaker is the source id of a segment with neither a node id nor a label.
const UnknownSpeaker = "UNKNOWN"

// Segment is one diarized speaker turn.
type Segment struct {
	SpeakerLabel          string  `json:"speaker_label,omitempty"`
	SpeakerNodeID         string  `json:"speaker_node_id,omitempty"`
	Text                  string  `json:"text"`
	StartTime             float64 `json:"start_time" validate:"gte=0"`
	EndTime               float64 `json:"end_time" validate:"gtefield=StartTime"`
	ExcludeFromExtraction bool    `json:"exclude_from_extraction,omitempty"`
}

// Speaker returns the id mentions in this segment are attributed to.
func (s Segment) Speaker() string {
	if id := strings.TrimSpace(s.SpeakerNodeID); id != "" {
		return id
	}
	if label := strings.TrimSpace(s.SpeakerLabel); label != "" {
		return label
	}
	return UnknownSpeaker
}

// Transcript is a session's ordered segments.
type Transcript struct {
	SessionID  string       `json:"session_id" validate:"required"`
	DebateDate *roster.Date `json:"debate_date,omitempty"`
	Segments   []Segment    `json:"segments" validate:"dive"`
}

// ReferenceDate returns the debate date, or the zero time when unknown.
func (t Transcript) ReferenceDate() time.Time {
	if t.DebateDate == nil {
		return time.Time{}
	}
	return t.DebateDate.Time
}

var transcriptValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the transcript shape.
func (t Transcript) Validate() error {
	if err := transcriptValidator.Struct(t); err != nil {
		return errors.WithHint(
			errors.Wrapf(errors.ErrInvalidRequest, "transcript %q: %s", t.SessionID, err.Error()),
			"segments need start_time >= 0 and end_time >= start_time")
	}
	return nil
}

// LoadTranscript reads and validates a transcript JSON file. A missing
// session id falls back to the file name without extension.
func LoadTranscript(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read transcript %s", path)
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrapf(err, "parse transcript %s", path)
	}
	if t.SessionID == "" {
		t.SessionID = sessionFromPath(path)
	}
	if err := t.Validate(); err != nil {
		return nil, errors.Wrapf(err, "load transcript %s", path)
	}
	return &t, nil
}

// ReadSessionID returns the session id LoadTranscript would assign to path
// without decoding or validating the segments.
func ReadSessionID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "read transcript %s", path)
	}
	defer f.Close()

	var head struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(f).Decode(&head); err != nil {
		return "", errors.Wrapf(err, "parse transcript %s", path)
	}
	if head.SessionID == "" {
		return sessionFromPath(path), nil
	}
	return head.SessionID, nil
}

func sessionFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
