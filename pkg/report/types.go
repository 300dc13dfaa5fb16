// Package report reads the leapp report, classifies its findings and
// summarizes them for the management platform.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Severity is the severity of a finding as emitted by leapp (report schema 1.2.0)
type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityLow       Severity = "low"
	SeverityMedium    Severity = "medium"
	SeverityHigh      Severity = "high"
	SeverityInhibitor Severity = "inhibitor"
)

// Groups that block the upgrade from proceeding
const (
	GroupError     = "error"
	GroupInhibitor = "inhibitor"
)

// Finding is a single leapp report entry. Keys other than groups, severity,
// title and summary are preserved so the entry is re-emitted unchanged.
type Finding struct {
	Groups   []string
	Severity Severity
	Title    string
	Summary  string

	raw *object
}

// HasGroup reports whether the finding is tagged with group
func (f Finding) HasGroup(group string) bool {
	return slices.Contains(f.Groups, group)
}

// IsError reports whether the finding is in the error group
func (f Finding) IsError() bool {
	return f.HasGroup(GroupError)
}

// IsInhibitor reports whether the finding blocks the upgrade without being an error
func (f Finding) IsInhibitor() bool {
	return !f.IsError() && (f.HasGroup(GroupInhibitor) || f.Severity == SeverityInhibitor)
}

// IsBlocking reports whether the finding prevents the upgrade from proceeding
func (f Finding) IsBlocking() bool {
	return f.IsError() || f.IsInhibitor()
}

// EffectiveSeverity returns the severity after group reconciliation
func (f Finding) EffectiveSeverity() Severity {
	if f.HasGroup(GroupError) || f.HasGroup(GroupInhibitor) {
		return SeverityInhibitor
	}
	return f.Severity
}

// UnmarshalJSON decodes a leapp report entry
func (f *Finding) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("invalid report entry: %w", err)
	}
	if raw == nil {
		return errors.New("invalid report entry: null")
	}
	*f = Finding{raw: raw}
	fields := []struct {
		key string
		dst any
	}{
		{"groups", &f.Groups},
		{"severity", &f.Severity},
		{"title", &f.Title},
		{"summary", &f.Summary},
	}
	for _, field := range fields {
		v, ok := raw.values[field.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, field.dst); err != nil {
			return fmt.Errorf("invalid %q in report entry: %w", field.key, err)
		}
	}
	return nil
}

// MarshalJSON encodes the entry with its current groups and severity
func (f Finding) MarshalJSON() ([]byte, error) {
	var set []field
	if f.raw.has("groups") || f.Groups != nil {
		set = append(set, field{"groups", f.Groups})
	}
	if f.raw.has("severity") || f.Severity != "" {
		set = append(set, field{"severity", f.Severity})
	}
	if f.raw.has("title") || f.Title != "" {
		set = append(set, field{"title", f.Title})
	}
	if f.raw.has("summary") || f.Summary != "" {
		set = append(set, field{"summary", f.Summary})
	}
	return f.raw.encode(set)
}

// Report is a parsed leapp report. Top-level keys other than entries are preserved.
type Report struct {
	Entries []Finding

	raw *object
}

// UnmarshalJSON decodes a leapp report
func (r *Report) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	*r = Report{raw: raw}
	if v, ok := raw.lookup("entries"); ok {
		if err := json.Unmarshal(v, &r.Entries); err != nil {
			return fmt.Errorf("invalid report entries: %w", err)
		}
	}
	return nil
}

// MarshalJSON encodes the report with its current entries. The entries key
// is only written when the source had one or entries were set.
func (r Report) MarshalJSON() ([]byte, error) {
	var set []field
	if r.raw.has("entries") || r.Entries != nil {
		entries := r.Entries
		if entries == nil {
			entries = []Finding{}
		}
		set = append(set, field{"entries", entries})
	}
	return r.raw.encode(set)
}

// object is a decoded JSON object that keeps its key order
type object struct {
	keys   []string
	values map[string]json.RawMessage
}

type field struct {
	key   string
	value any
}

// decodeObject decodes a JSON object. A JSON null yields a nil object.
func decodeObject(data []byte) (*object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	obj := &object{values: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		if _, seen := obj.values[key]; !seen {
			obj.keys = append(obj.keys, key)
		}
		obj.values[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func (o *object) lookup(key string) (json.RawMessage, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

func (o *object) has(key string) bool {
	_, ok := o.lookup(key)
	return ok
}

// encode writes the object in its original key order. Values in set replace
// the original ones; keys the object did not have are appended in set order.
func (o *object) encode(set []field) ([]byte, error) {
	var buf bytes.Buffer
	first := true
	write := func(key string, value any) error {
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}
	override := func(key string) (any, bool) {
		for _, f := range set {
			if f.key == key {
				return f.value, true
			}
		}
		return nil, false
	}

	buf.WriteByte('{')
	if o != nil {
		for _, key := range o.keys {
			value, ok := override(key)
			if !ok {
				value = o.values[key]
			}
			if err := write(key, value); err != nil {
				return nil, err
			}
		}
	}
	for _, f := range set {
		if o.has(f.key) {
			continue
		}
		if err := write(f.key, f.value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
