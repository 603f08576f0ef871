package roster

import (
	"encoding/json"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teranos/hansard/errors"
)

// NodeType classifies a roster record.
type NodeType string

const (
	NodeMember  NodeType = "member"
	NodeControl NodeType = "control" // chair roles such as the Speaker, never a debate participant
	// nodeDebater is accepted on input and normalized to NodeMember
	nodeDebater NodeType = "debater"
)

// SeatStatus is the current standing of a member's seat.
type SeatStatus string

const (
	SeatActive    SeatStatus = "active"
	SeatFormer    SeatStatus = "former"
	SeatResigned  SeatStatus = "resigned"
	SeatDeceased  SeatStatus = "deceased"
	SeatSuspended SeatStatus = "suspended"
)

// DateLayout is the wire format of every roster date.
const DateLayout = "2006-01-02"

// Date is a civil date (UTC midnight).
type Date struct {
	time.Time
}

// NewDate returns the Date for a calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, errors.Wrapf(err, "invalid date %q (want YYYY-MM-DD)", s)
	}
	return Date{t}, nil
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "date must be a string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseDate(value.Value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// PortfolioAssignment is one holding of a ministerial or shadow title.
// The interval is half-open: EffectiveTo is the first day the holder no longer holds it.
type PortfolioAssignment struct {
	Title         string `json:"title" yaml:"title" validate:"required"`
	ShortTitle    string `json:"short_title,omitempty" yaml:"short_title,omitempty"`
	EffectiveFrom Date   `json:"effective_from" yaml:"effective_from"`
	EffectiveTo   *Date  `json:"effective_to,omitempty" yaml:"effective_to,omitempty"`
}

// Current reports whether the assignment has no end date.
func (p PortfolioAssignment) Current() bool {
	return p.EffectiveTo == nil
}

// ActiveOn reports whether the assignment covers the calendar day of at.
func (p PortfolioAssignment) ActiveOn(at time.Time) bool {
	day := DateOf(at).Time
	if day.Before(p.EffectiveFrom.Time) {
		return false
	}
	return p.EffectiveTo == nil || day.Before(p.EffectiveTo.Time)
}

// Tenure is the interval a member held their seat, half-open like portfolios.
type Tenure struct {
	From *Date `json:"from,omitempty" yaml:"from,omitempty"`
	To   *Date `json:"to,omitempty" yaml:"to,omitempty"`
}

// Covers reports whether the seat was held on the calendar day of at.
// Missing bounds are open.
func (t Tenure) Covers(at time.Time) bool {
	day := DateOf(at).Time
	if t.From != nil && day.Before(t.From.Time) {
		return false
	}
	return t.To == nil || day.Before(t.To.Time)
}

// IdentityRecord is one canonical person or chair role.
type IdentityRecord struct {
	NodeID        string                `json:"node_id" yaml:"node_id" validate:"required"`
	CanonicalName string                `json:"canonical_name" yaml:"canonical_name" validate:"required"`
	FullName      string                `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	Aliases       []string              `json:"aliases" yaml:"aliases" validate:"required,min=1,dive,required"`
	Party         string                `json:"party,omitempty" yaml:"party,omitempty"`
	Constituency  string                `json:"constituency,omitempty" yaml:"constituency,omitempty"`
	NodeType      NodeType              `json:"node_type,omitempty" yaml:"node_type,omitempty" validate:"omitempty,oneof=member control debater"`
	SeatStatus    SeatStatus            `json:"seat_status,omitempty" yaml:"seat_status,omitempty" validate:"omitempty,oneof=active former resigned deceased suspended"`
	Tenure        *Tenure               `json:"tenure,omitempty" yaml:"tenure,omitempty"`
	Portfolios    []PortfolioAssignment `json:"portfolios,omitempty" yaml:"portfolios,omitempty" validate:"dive"`
}

// IsControl reports whether the record is a chair role rather than a member.
func (r IdentityRecord) IsControl() bool {
	return r.NodeType == NodeControl
}

// HeldSeatOn reports whether the record was seated on the day of at.
// Records without tenure are treated as seated throughout.
func (r IdentityRecord) HeldSeatOn(at time.Time) bool {
	if r.Tenure == nil {
		return true
	}
	return r.Tenure.Covers(at)
}

// clone deep-copies the slices so callers cannot mutate a loaded roster.
func (r IdentityRecord) clone() IdentityRecord {
	out := r
	out.Aliases = append([]string(nil), r.Aliases...)
	if r.Portfolios != nil {
		out.Portfolios = append([]PortfolioAssignment(nil), r.Portfolios...)
	}
	if r.Tenure != nil {
		t := *r.Tenure
		out.Tenure = &t
	}
	return out
}

// Metadata describes the roster document.
type Metadata struct {
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Parliament  string `json:"parliament,omitempty" yaml:"parliament,omitempty"`
	LastUpdated string `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
}

// Document is the on-disk roster shape.
type Document struct {
	Metadata Metadata         `json:"metadata" yaml:"metadata"`
	Records  []IdentityRecord `json:"records" yaml:"records"`
}
