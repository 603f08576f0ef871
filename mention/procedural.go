package mention

import (
	"regexp"
	"strings"
)

// EventPointOfOrder marks a member interrupting on a point of order.
const EventPointOfOrder = "point_of_order"

// ProceduralEvent is an interjection about procedure rather than a mention
// of another member.
type ProceduralEvent struct {
	SessionID      string  `json:"session_id"`
	SegmentIndex   int     `json:"segment_index"`
	SourceNodeID   string  `json:"source_node_id"`
	EventType      string  `json:"event_type"`
	RawText        string  `json:"raw_text"`
	TimestampStart float64 `json:"timestamp_start"`
	TimestampEnd   float64 `json:"timestamp_end"`
}

var pointOfOrderPattern = regexp.MustCompile(`\b(?i:points?\s+of\s+order)\b`)

// DetectPointsOfOrder returns one event per non-excluded segment that
// raises a point of order.
func DetectPointsOfOrder(t Transcript) []ProceduralEvent {
	var events []ProceduralEvent
	for i, seg := range t.Segments {
		if seg.ExcludeFromExtraction || !pointOfOrderPattern.MatchString(seg.Text) {
			continue
		}
		events = append(events, ProceduralEvent{
			SessionID:      t.SessionID,
			SegmentIndex:   i,
			SourceNodeID:   seg.Speaker(),
			EventType:      EventPointOfOrder,
			RawText:        strings.TrimSpace(seg.Text),
			TimestampStart: seg.StartTime,
			TimestampEnd:   seg.EndTime,
		})
	}
	return events
}

// SaveEvents writes procedural events to path as JSON.
func SaveEvents(events []ProceduralEvent, path string) error {
	if events == nil {
		events = []ProceduralEvent{}
	}
	return writeJSON(path, events, "procedural events")
}
