// Package digest holds the parsed representation of one M&A news digest:
// the email envelope, the allow-listed sectors, and the numbered deal items
// with their optional detail blocks.
package digest

import (
	"bytes"
	"encoding/json"
	"time"
)

// Report is the root of a parsed digest document.
type Report struct {
	Email    *EmailMetadata // nil when no Subject line was found
	Sections []Section      // first-appearance order, empty sections omitted
}

// EmailMetadata is the envelope information pulled from the Subject line.
type EmailMetadata struct {
	Subject    string
	Timestamp  string     // raw "DD/MM/YYYY HH:MM:SS", empty if absent
	ParsedDate *time.Time // nil when the raw timestamp did not parse
}

// Section groups the deal items reported under one sector heading.
type Section struct {
	Name  string
	Items []Item
}

// Item is a single numbered deal entry. Title keeps the full literal
// "N. Title" line. Positions records every line index the title appeared
// at; the overview occurrence is Positions[0] and the detail header, when
// present, is Positions[1].
type Item struct {
	Title     string
	Positions []int
	Details   *DetailBlock // nil when the title never repeats
}

// DetailBlock is the decomposed content of a detail-region entry.
type DetailBlock struct {
	Bullets  []string
	Body     string
	Links    []string
	Metadata *Metadata
}

// Metadata is an ordered key/value mapping. Keys are unique; setting an
// existing key with a non-empty value appends space-joined rather than
// overwriting.
type Metadata struct {
	keys   []string
	values map[string]string
}

func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string]string)}
}

// Set records a key/value pair, merging repeated keys.
func (m *Metadata) Set(key, value string) {
	if prev, ok := m.values[key]; ok {
		if value != "" {
			if prev != "" {
				m.values[key] = prev + " " + value
			} else {
				m.values[key] = value
			}
		}
		return
	}
	m.keys = append(m.keys, key)
	m.values[key] = value
}

// Get returns the value for key and whether it exists.
func (m *Metadata) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Len reports the number of distinct keys.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// MarshalJSON emits the mapping as a JSON object in insertion order.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON writes the report as one ordered object: the optional
// "_email_metadata" entry first, then one entry per section. Section order
// and item order follow first appearance in the source document, so the
// same input always serializes to the same bytes.
func (r *Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true

	if r.Email != nil {
		buf.WriteString(`"_email_metadata":`)
		b, err := json.Marshal(r.Email)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		first = false
	}

	for _, sec := range r.Sections {
		if len(sec.Items) == 0 {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		nb, err := json.Marshal(sec.Name)
		if err != nil {
			return nil, err
		}
		ib, err := json.Marshal(sec.Items)
		if err != nil {
			return nil, err
		}
		buf.Write(nb)
		buf.WriteByte(':')
		buf.Write(ib)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (e *EmailMetadata) MarshalJSON() ([]byte, error) {
	var parsed any
	if e.ParsedDate != nil {
		parsed = e.ParsedDate.Format("2006-01-02T15:04:05")
	}
	return json.Marshal(struct {
		Subject    string `json:"subject"`
		Timestamp  string `json:"timestamp"`
		ParsedDate any    `json:"parsed_date"`
	}{e.Subject, e.Timestamp, parsed})
}

func (it Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Title   string       `json:"title"`
		Details *DetailBlock `json:"details"`
	}{it.Title, it.Details})
}

func (d *DetailBlock) MarshalJSON() ([]byte, error) {
	bullets := d.Bullets
	if bullets == nil {
		bullets = []string{}
	}
	links := d.Links
	if links == nil {
		links = []string{}
	}
	meta := d.Metadata
	if meta == nil {
		meta = NewMetadata()
	}
	return json.Marshal(struct {
		Bullets  []string  `json:"bullets"`
		Body     string    `json:"body"`
		Links    []string  `json:"links"`
		Metadata *Metadata `json:"metadata"`
	}{bullets, d.Body, links, meta})
}

// TotalItems counts deal items across all sections.
func (r *Report) TotalItems() int {
	n := 0
	for _, sec := range r.Sections {
		n += len(sec.Items)
	}
	return n
}
