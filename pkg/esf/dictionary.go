// Package esf loads event specification files into a read-only type
// dictionary that events consult before accepting an attribute.
//
// An ESF file lists events and their typed attributes:
//
//	# attributes allowed on every event
//	MetaEventInfo
//	{
//	  ip_addr SenderIP;
//	  uint16  SenderPort;
//	  int64   ReceiptTime;
//	  int16   enc;
//	}
//
//	User::Login
//	{
//	  string   username;
//	  uint32   attempts;
//	  string   roles[16];
//	  nullable int64 durations[8];
//	}
//
// A Dictionary is immutable once built and safe for concurrent reads.
package esf

import (
	"io"
	"sort"

	"github.com/ssargent/lwes/pkg/codec"
	"gopkg.in/yaml.v3"
)

// MetaEventInfo names the entry whose attributes are valid on every event
const MetaEventInfo = "MetaEventInfo"

// Dictionary maps event name -> attribute name -> type
type Dictionary struct {
	events map[string]map[string]codec.Type
}

// New builds a dictionary from a nested map. The input is copied.
func New(events map[string]map[string]codec.Type) *Dictionary {
	d := &Dictionary{events: make(map[string]map[string]codec.Type, len(events))}
	for name, attrs := range events {
		cp := make(map[string]codec.Type, len(attrs))
		for a, t := range attrs {
			cp[a] = t
		}
		d.events[name] = cp
	}
	return d
}

// AttributeType returns the declared type of attr for event. Attributes
// declared under MetaEventInfo apply to every event; an event's own
// declaration wins when both exist.
func (d *Dictionary) AttributeType(event, attr string) (codec.Type, bool) {
	if attrs, ok := d.events[event]; ok {
		if t, ok := attrs[attr]; ok {
			return t, true
		}
	}
	if meta, ok := d.events[MetaEventInfo]; ok {
		if t, ok := meta[attr]; ok {
			return t, true
		}
	}
	return codec.TypeUndefined, false
}

// HasEvent reports whether event has its own entry
func (d *Dictionary) HasEvent(event string) bool {
	_, ok := d.events[event]
	return ok
}

// Events returns the sorted event names, MetaEventInfo included
func (d *Dictionary) Events() []string {
	names := make([]string, 0, len(d.events))
	for name := range d.events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attributes returns a copy of the attributes declared for event, without
// the MetaEventInfo attributes
func (d *Dictionary) Attributes(event string) map[string]codec.Type {
	attrs := d.events[event]
	cp := make(map[string]codec.Type, len(attrs))
	for a, t := range attrs {
		cp[a] = t
	}
	return cp
}

// Meta returns a copy of the MetaEventInfo attributes
func (d *Dictionary) Meta() map[string]codec.Type {
	return d.Attributes(MetaEventInfo)
}

// WriteYAML writes the dictionary as a YAML document of
// event -> attribute -> type name
func (d *Dictionary) WriteYAML(w io.Writer) error {
	doc := make(map[string]map[string]string, len(d.events))
	for name, attrs := range d.events {
		m := make(map[string]string, len(attrs))
		for a, t := range attrs {
			m[a] = t.String()
		}
		doc[name] = m
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// LoadYAML reads a dictionary written by WriteYAML
func LoadYAML(r io.Reader) (*Dictionary, error) {
	var doc map[string]map[string]string
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, &ParseError{Msg: "invalid yaml: " + err.Error()}
	}
	events := make(map[string]map[string]codec.Type, len(doc))
	for name, attrs := range doc {
		if err := checkName("event", name); err != nil {
			return nil, err
		}
		m := make(map[string]codec.Type, len(attrs))
		for a, typeName := range attrs {
			if err := checkName("attribute", a); err != nil {
				return nil, err
			}
			t, err := codec.ParseType(typeName)
			if err != nil {
				return nil, &ParseError{Msg: name + "." + a + ": " + err.Error()}
			}
			m[a] = t
		}
		events[name] = m
	}
	return &Dictionary{events: events}, nil
}
