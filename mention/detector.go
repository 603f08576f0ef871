// Package mention scans transcript segments for references to members,
// resolves each span and records what it found. Spans come from an ordered
// pattern catalogue; unresolved spans are kept in an UnresolvedLog for
// curation.
package mention

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/teranos/hansard/alias"
	"github.com/teranos/hansard/logger"
	"github.com/teranos/hansard/resolver"
	"github.com/teranos/hansard/roster"
)

// Defaults for detector tuning.
const (
	DefaultContextChars          = 120
	DefaultHistorySize           = 10
	DefaultCoreferenceConfidence = 0.7
	DefaultLocalDemonym          = "Bahamian"
)

// Resolver binds a raw mention to a node.
type Resolver interface {
	Resolve(raw string, refDate time.Time) resolver.Result
}

// Directory looks up roster records by node id, for party and chair checks.
type Directory interface {
	Record(nodeID string) (*roster.IdentityRecord, bool)
}

// Detector extracts mention records from transcripts. The catalogue and
// resolver are read-only; only the unresolved log changes between calls.
type Detector struct {
	res                   Resolver
	dir                   Directory
	patterns              []Pattern
	contextChars          int
	historySize           int
	coreference           bool
	coreferenceConfidence float64
	localDemonym          string
	unresolved            *UnresolvedLog
	now                   func() time.Time
	log                   *zap.SugaredLogger
}

// Option configures a Detector
type Option func(*Detector)

// WithDirectory sets the roster lookup used for coreference
func WithDirectory(dir Directory) Option {
	return func(d *Detector) { d.dir = dir }
}

// WithContextChars sets how many characters of context to keep on each side of a span
func WithContextChars(n int) Option {
	return func(d *Detector) { d.contextChars = n }
}

// WithHistorySize bounds how many earlier speaker turns coreference may look back
func WithHistorySize(n int) Option {
	return func(d *Detector) { d.historySize = n }
}

// WithCoreferenceConfidence sets the confidence stamped on history-bound deictic spans
func WithCoreferenceConfidence(c float64) Option {
	return func(d *Detector) { d.coreferenceConfidence = c }
}

// WithoutCoreference leaves deictic spans to the resolver alone
func WithoutCoreference() Option {
	return func(d *Detector) { d.coreference = false }
}

// WithLocalDemonym sets the nationality adjective that does not mark a foreign office
func WithLocalDemonym(demonym string) Option {
	return func(d *Detector) { d.localDemonym = demonym }
}

// WithPatterns replaces the detection catalogue
func WithPatterns(patterns []Pattern) Option {
	return func(d *Detector) { d.patterns = append([]Pattern(nil), patterns...) }
}

// WithUnresolvedLog shares a log between detectors
func WithUnresolvedLog(l *UnresolvedLog) Option {
	return func(d *Detector) { d.unresolved = l }
}

// WithClock sets the time source for unresolved log timestamps
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithLogger sets the detector's logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(d *Detector) { d.log = l }
}

// NewDetector creates a detector resolving through res. When res is a
// *resolver.Resolver and no directory is given, its index serves as one.
func NewDetector(res Resolver, opts ...Option) *Detector {
	d := &Detector{
		res:                   res,
		patterns:              DefaultPatterns(),
		contextChars:          DefaultContextChars,
		historySize:           DefaultHistorySize,
		coreference:           true,
		coreferenceConfidence: DefaultCoreferenceConfidence,
		localDemonym:          DefaultLocalDemonym,
		now:                   time.Now,
		log:                   logger.ComponentLogger("mention"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.dir == nil {
		if indexed, ok := res.(interface{ Index() *alias.Index }); ok {
			if ix := indexed.Index(); ix != nil {
				d.dir = ix
			}
		}
	}
	if d.unresolved == nil {
		d.unresolved = NewUnresolvedLog()
	}
	return d
}

// Extract detects and resolves mentions in every non-excluded segment.
// A non-zero refDate overrides the transcript's debate date.
func (d *Detector) Extract(t Transcript, refDate time.Time) []Record {
	start := time.Now()
	if refDate.IsZero() {
		refDate = t.ReferenceDate()
	}

	history := newSpeakerHistory(d.historySize)
	var records []Record
	for i, seg := range t.Segments {
		if !seg.ExcludeFromExtraction && strings.TrimSpace(seg.Text) != "" {
			records = append(records, d.extractSegment(t.SessionID, i, seg, refDate, history)...)
		}
		history.push(i, seg.Speaker())
	}

	resolved := 0
	for _, r := range records {
		if r.Resolved() {
			resolved++
		}
	}
	d.log.Infow("Mentions extracted",
		logger.FieldSessionID, t.SessionID,
		logger.FieldCount, len(records),
		"resolved", resolved,
		"unresolved", len(records)-resolved,
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	return records
}

func (d *Detector) extractSegment(sessionID string, index int, seg Segment, refDate time.Time, history *speakerHistory) []Record {
	text := seg.Text
	source := seg.Speaker()
	runeLen := utf8.RuneCountInString(text)

	var records []Record
	for _, sp := range d.detect(text, refDate) {
		p := d.patterns[sp.pattern]
		raw := text[sp.start:sp.end]

		res := sp.res
		if res == nil {
			r := d.res.Resolve(raw, refDate)
			res = &r
		}

		mentionType := MentionStandard
		if p.Kind == KindDeictic {
			mentionType = MentionDeictic
			if d.coreference && res.Method != resolver.MethodExact {
				if target, ok := d.bind(p.Deixis, source, history); ok {
					res = &resolver.Result{
						NodeID:     target,
						Confidence: d.coreferenceConfidence,
						Method:     resolver.MethodCoreference,
					}
				}
			}
		}

		charStart := utf8.RuneCountInString(text[:sp.start])
		charEnd := charStart + utf8.RuneCountInString(raw)
		tsStart, tsEnd := estimateTimestamps(seg.StartTime, seg.EndTime, charStart, charEnd, runeLen)
		context := contextWindow(text, charStart, charEnd, d.contextChars)

		rec := Record{
			SessionID:        sessionID,
			SegmentIndex:     index,
			SourceNodeID:     source,
			TargetNodeID:     res.NodeID,
			RawMention:       raw,
			Pattern:          p.Name,
			MentionType:      mentionType,
			ContextWindow:    context,
			Confidence:       res.Confidence,
			Method:           res.Method,
			CollisionWarning: res.CollisionWarning,
			IsSelfReference:  res.NodeID != "" && res.NodeID == source,
			TimestampStart:   tsStart,
			TimestampEnd:     tsEnd,
			CharStart:        charStart,
			CharEnd:          charEnd,
		}
		records = append(records, rec)

		if !rec.Resolved() {
			entry := UnresolvedEntry{
				RawMention:     raw,
				Context:        context,
				Timestamp:      d.now().UTC(),
				SessionID:      sessionID,
				SpeakerID:      source,
				MentionType:    mentionType,
				SegmentIndex:   index,
				TimestampStart: tsStart,
			}
			if !refDate.IsZero() {
				entry.DebateDate = roster.DateOf(refDate).String()
			}
			d.unresolved.Append(entry)
		}
	}
	return records
}

type span struct {
	pattern    int
	start, end int // byte offsets
	res        *resolver.Result
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// detect runs the catalogue over text and keeps non-overlapping spans in
// text order. Greedy spans are shrunk first. Longer spans win; ties go to
// the earlier catalogue entry, then the earlier start.
func (d *Detector) detect(text string, refDate time.Time) []span {
	var candidates []span
	for i, p := range d.patterns {
		for _, loc := range p.Regexp.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[0]+len(trimSpan(text[loc[0]:loc[1]]))
			if end <= start {
				continue
			}
			if p.Kind == KindRole && isForeignQualifier(precedingWord(text, start), d.localDemonym) {
				continue
			}
			sp := span{pattern: i, start: start, end: end}
			if p.Shrink {
				d.shrink(text, &sp, refDate)
			}
			candidates = append(candidates, sp)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if la, lb := a.end-a.start, b.end-b.start; la != lb {
			return la > lb
		}
		if a.pattern != b.pattern {
			return a.pattern < b.pattern
		}
		return a.start < b.start
	})

	var kept []span
	for _, c := range candidates {
		clash := false
		for _, k := range kept {
			if c.overlaps(k) {
				clash = true
				break
			}
		}
		if !clash {
			kept = append(kept, c)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].start < kept[j].start })
	return d.dropAppositives(text, kept)
}

// appositiveGap matches what may separate a deictic phrase from the name it
// introduces: "my honourable friend, the Member for Marco City".
var appositiveGap = regexp.MustCompile(`^[\s,]*(?i:the\s+)?$`)

// dropAppositives removes deictic spans immediately followed by an explicit
// reference or role span; the explicit span names the same person.
func (d *Detector) dropAppositives(text string, spans []span) []span {
	out := spans[:0]
	for i, sp := range spans {
		if d.patterns[sp.pattern].Kind == KindDeictic && i+1 < len(spans) {
			next := spans[i+1]
			if d.patterns[next.pattern].Kind != KindDeictic && appositiveGap.MatchString(text[sp.end:next.start]) {
				continue
			}
		}
		out = append(out, sp)
	}
	return out
}

// shrink resolves the longest prefix of a greedy span, cutting before commas
// and conjunctions. With no resolving prefix the shortest cut is kept.
func (d *Detector) shrink(text string, sp *span, refDate time.Time) {
	full := text[sp.start:sp.end]
	ends := []int{len(full)}
	for i := len(full) - 1; i > 0; i-- {
		switch {
		case full[i] == ',':
		case strings.HasPrefix(full[i:], " and ") || strings.HasPrefix(full[i:], " & "):
		default:
			continue
		}
		if cut := len(trimSpan(full[:i])); cut > 0 && cut < ends[len(ends)-1] {
			ends = append(ends, cut)
		}
	}

	for _, end := range ends {
		res := d.res.Resolve(full[:end], refDate)
		sp.end, sp.res = sp.start+end, &res
		if res.Resolved() {
			return
		}
	}
}

func trimSpan(s string) string {
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(".,;:!?", r)
	})
}

// contextWindow returns up to width runes either side of [start, end),
// clipped to the text and snapped inward to whole words.
func contextWindow(text string, start, end, width int) string {
	runes := []rune(text)
	if width < 0 {
		width = 0
	}
	from := start - width
	if from < 0 {
		from = 0
	}
	to := end + width
	if to > len(runes) {
		to = len(runes)
	}

	isWord := func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }
	if from > 0 && isWord(runes[from-1]) {
		for from < start && isWord(runes[from]) {
			from++
		}
	}
	if to < len(runes) && isWord(runes[to]) {
		for to > end && isWord(runes[to-1]) {
			to--
		}
	}
	return strings.TrimSpace(string(runes[from:to]))
}

// estimateTimestamps places a span within its segment in proportion to its rune offsets.
func estimateTimestamps(segStart, segEnd float64, charStart, charEnd, runeLen int) (float64, float64) {
	duration := segEnd - segStart
	if runeLen == 0 || duration <= 0 {
		return segStart, segStart
	}
	perRune := duration / float64(runeLen)
	return segStart + perRune*float64(charStart), segStart + perRune*float64(charEnd)
}

// UnresolvedLog returns the detector's log.
func (d *Detector) UnresolvedLog() *UnresolvedLog {
	return d.unresolved
}

// UnresolvedCount returns how many unresolved mentions are logged.
func (d *Detector) UnresolvedCount() int {
	return d.unresolved.Len()
}

// SaveUnresolvedLog writes the log to path.
func (d *Detector) SaveUnresolvedLog(path string) error {
	return d.unresolved.Save(path)
}

// ClearUnresolvedLog empties the log. Call it between independent transcripts
// when one detector is reused.
func (d *Detector) ClearUnresolvedLog() {
	d.unresolved.Clear()
}
