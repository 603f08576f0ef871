package mention

// turn is one speaker's consecutive run of segments.
type turn struct {
	segment int
	speaker string
}

// speakerHistory holds the most recent turns, oldest first.
type speakerHistory struct {
	size  int
	turns []turn
}

func newSpeakerHistory(size int) *speakerHistory {
	return &speakerHistory{size: size}
}

func (h *speakerHistory) push(segment int, speaker string) {
	if h.size <= 0 || speaker == UnknownSpeaker {
		return
	}
	if n := len(h.turns); n > 0 && h.turns[n-1].speaker == speaker {
		h.turns[n-1].segment = segment
		return
	}
	h.turns = append(h.turns, turn{segment: segment, speaker: speaker})
	if len(h.turns) > h.size {
		h.turns = h.turns[len(h.turns)-h.size:]
	}
}

// bind picks the earlier speaker a deictic span refers to, newest turn
// first. The source never binds to itself and chair roles are never bound.
// Party rules need both parties known; without a directory only
// DeixisLastSpeaker can bind.
func (d *Detector) bind(deixis Deixis, source string, history *speakerHistory) (string, bool) {
	var sourceParty string
	if d.dir != nil {
		if rec, ok := d.dir.Record(source); ok {
			sourceParty = rec.Party
		}
	}

	for i := len(history.turns) - 1; i >= 0; i-- {
		candidate := history.turns[i].speaker
		if candidate == source {
			continue
		}

		if d.dir == nil {
			if deixis == DeixisLastSpeaker {
				return candidate, true
			}
			return "", false
		}

		rec, ok := d.dir.Record(candidate)
		if !ok || rec.IsControl() {
			continue
		}
		switch deixis {
		case DeixisLastSpeaker:
			return candidate, true
		case DeixisSameParty:
			if sourceParty != "" && rec.Party == sourceParty {
				return candidate, true
			}
		case DeixisOtherParty:
			if sourceParty != "" && rec.Party != "" && rec.Party != sourceParty {
				return candidate, true
			}
		}
	}
	return "", false
}
