// Package roster loads and validates the canonical identity roster: every
// member and chair role a mention can resolve to, with their aliases and
// dated portfolio assignments.
//
// A Roster is immutable once loaded. Changes (such as curated aliases) are
// made by building a new Roster with WithAliases and rebuilding the index.
package roster

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/internal/aliaskey"
)

// Format is the serialization of a roster document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the format from the file extension; anything not YAML is JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadError reports a roster that could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return "roster unreadable: " + e.Err.Error()
	}
	return "roster " + e.Path + " unreadable: " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Roster is a validated, ordered set of identity records.
type Roster struct {
	meta    Metadata
	records []IdentityRecord
	byID    map[string]int
}

// Load reads and validates a roster file. JSON or YAML is chosen by extension.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: errors.Wrap(err, "read")}
	}
	r, err := Parse(data, FormatForPath(path))
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Path = path
		}
		return nil, err
	}
	return r, nil
}

// Parse decodes and validates a roster document held in memory.
func Parse(data []byte, format Format) (*Roster, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &LoadError{Err: errors.Wrap(err, "decode yaml")}
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, &LoadError{Err: errors.Wrap(err, "decode json")}
		}
	}
	return New(doc)
}

// New validates a document and builds a Roster from it.
// The document's slices are copied; later changes to doc do not affect the Roster.
func New(doc Document) (*Roster, error) {
	records := make([]IdentityRecord, len(doc.Records))
	for i, rec := range doc.Records {
		rec = rec.clone()
		if rec.NodeType == "" || rec.NodeType == nodeDebater {
			rec.NodeType = NodeMember
		}
		if rec.SeatStatus == "" {
			rec.SeatStatus = SeatActive
		}
		records[i] = rec
	}

	if err := validate(doc.Metadata, records); err != nil {
		return nil, err
	}

	r := &Roster{
		meta:    doc.Metadata,
		records: records,
		byID:    make(map[string]int, len(records)),
	}
	for i, rec := range records {
		r.byID[rec.NodeID] = i
	}
	return r, nil
}

// Records returns a copy of the records in roster order.
func (r *Roster) Records() []IdentityRecord {
	out := make([]IdentityRecord, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.clone()
	}
	return out
}

// Find returns the record with the given node id.
func (r *Roster) Find(nodeID string) (*IdentityRecord, bool) {
	i, ok := r.byID[nodeID]
	if !ok {
		return nil, false
	}
	rec := r.records[i].clone()
	return &rec, true
}

// Len returns the number of records.
func (r *Roster) Len() int {
	return len(r.records)
}

// Metadata returns the document metadata.
func (r *Roster) Metadata() Metadata {
	return r.meta
}

// Document returns the roster in its on-disk shape.
func (r *Roster) Document() Document {
	return Document{Metadata: r.meta, Records: r.Records()}
}

// WithAliases returns a new Roster where each listed node id carries the
// extra aliases and every alias listed in remove is dropped from the node
// that currently holds it. Aliases are compared in their index key form, so
// removing "Martin" also drops "Martín.". The receiver is unchanged.
func (r *Roster) WithAliases(add map[string][]string, remove map[string][]string) (*Roster, error) {
	doc := r.Document()
	for i := range doc.Records {
		rec := &doc.Records[i]
		if drop := remove[rec.NodeID]; len(drop) > 0 {
			kept := rec.Aliases[:0]
			for _, a := range rec.Aliases {
				if !containsFold(drop, a) {
					kept = append(kept, a)
				}
			}
			rec.Aliases = kept
		}
		for _, a := range add[rec.NodeID] {
			if !containsFold(rec.Aliases, a) {
				rec.Aliases = append(rec.Aliases, a)
			}
		}
	}
	for nodeID := range add {
		if _, ok := r.byID[nodeID]; !ok {
			return nil, errors.NewNotFoundError("node %s", nodeID)
		}
	}
	return New(doc)
}

// Write serializes the roster to path, JSON or YAML by extension.
func Write(r *Roster, path string) error {
	var (
		data []byte
		err  error
	)
	switch FormatForPath(path) {
	case FormatYAML:
		data, err = yaml.Marshal(r.Document())
	default:
		data, err = json.MarshalIndent(r.Document(), "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.Wrap(err, "encode roster")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write roster %s", path)
	}
	return nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if aliaskey.Equal(v, s) {
			return true
		}
	}
	return false
}
