// Package event implements the lwes event: a named bag of typed
// attributes, its binary serialization, and receipt header injection.
//
// # Wire Format
//
//	Event     := ShortString(name) U16(count) Attribute*
//	Attribute := ShortString(attrName) Byte(typeTag) Value(typeTag)
//
// The "enc" attribute, when present, is always written first. See package
// codec for the value layouts.
//
// # Usage
//
//	e := event.New("User::Login")
//	if _, err := e.Set("username", event.Scalar("alice")); err != nil {
//	    return err
//	}
//	data, err := e.MarshalBinary()
//
//	decoded, err := event.Decode(data, nil)
//	name, err := event.Lookup[string](decoded, "username", codec.TypeString)
//
// # Thread Safety
//
// An Event is not safe for concurrent mutation. A Schema shared between
// events must be safe for concurrent reads, which *esf.Dictionary is.
package event

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ssargent/lwes/pkg/codec"
	"github.com/ssargent/lwes/pkg/hashmap"
)

// Well-known attribute names
const (
	EncodingAttr    = "enc"
	ReceiptTimeAttr = "ReceiptTime"
	SenderIPAttr    = "SenderIP"
	SenderPortAttr  = "SenderPort"
	SiteIDAttr      = "SiteID"
)

// Values of the enc attribute
const (
	EncodingISO8859_1 int16 = 0
	EncodingUTF8      int16 = 1
	DefaultEncoding         = EncodingUTF8
)

// MaxAttributes is the most attributes the 16-bit count can describe
const MaxAttributes = 65535

// Schema answers whether an attribute may be set on an event, and with
// which type. *esf.Dictionary implements it.
type Schema interface {
	AttributeType(event, attr string) (codec.Type, bool)
}

// Config holds optional settings for a new Event
type Config struct {
	Schema Schema           // Checked on every Set; nil disables checking
	Bins   int              // Attribute table bins, hashmap.DefaultBins if zero
	Hash   hashmap.HashFunc // Attribute table hash, hashmap.SumOfSquares if nil
}

// Event is a named set of typed attributes
type Event struct {
	name    string
	nameSet bool
	encSet  bool // enc was stored once; Remove and Clear do not reset it
	attrs   *hashmap.Map[Attribute]
	schema  Schema
	closed  bool
}

// New creates an event. An empty name leaves it unset so SetName (or
// deserialization) can supply it later.
func New(name string) *Event {
	return NewWithConfig(name, Config{})
}

// NewWithSchema creates an event whose attributes are checked against schema
func NewWithSchema(name string, schema Schema) *Event {
	return NewWithConfig(name, Config{Schema: schema})
}

// NewWithConfig creates an event with explicit settings
func NewWithConfig(name string, config Config) *Event {
	return &Event{
		name:    name,
		nameSet: name != "",
		attrs:   hashmap.New[Attribute](hashmap.Config{Bins: config.Bins, Hash: config.Hash}),
		schema:  config.Schema,
	}
}

// Name returns the event name, empty if unset
func (e *Event) Name() string {
	return e.name
}

// SetName sets the name of an event created without one. It fails once a
// name has been set.
func (e *Event) SetName(name string) error {
	if e.nameSet {
		return fail(CodeNameAlreadySet, "set name", "", nil)
	}
	if err := checkName(name); err != nil {
		return fail(CodeInvalidValue, "set name", "", err)
	}
	e.name = name
	e.nameSet = true
	return nil
}

// Schema returns the schema the event checks against, if any
func (e *Event) Schema() Schema {
	return e.schema
}

func checkName(name string) error {
	if name == "" {
		return codec.ErrEmptyString
	}
	if len(name) > codec.MaxShortString {
		return fmt.Errorf("%d bytes: %w", len(name), codec.ErrStringTooLong)
	}
	return nil
}

// Count returns the number of distinct attributes
func (e *Event) Count() int {
	return e.attrs.Len()
}

// Set stores attr under name and returns the new attribute count. Setting
// an existing name replaces its value and leaves the count unchanged.
//
// With a schema attached, name must be declared for this event or in
// MetaEventInfo, and with attr's exact type. The enc attribute may only
// be set once.
func (e *Event) Set(name string, attr Attribute) (int, error) {
	const op = "set"
	if e.closed {
		return 0, fail(CodeClosed, op, name, nil)
	}
	if err := checkName(name); err != nil {
		return 0, fail(CodeInvalidValue, op, name, err)
	}
	if err := attr.check(); err != nil {
		return 0, fail(CodeInvalidValue, op, name, err)
	}
	if e.schema != nil {
		declared, ok := e.schema.AttributeType(e.name, name)
		if !ok {
			return 0, fail(CodeUnknownAttribute, op, name, nil)
		}
		if declared != attr.typ {
			return 0, fail(CodeTypeMismatch, op, name,
				fmt.Errorf("declared %s, got %s", declared, attr.typ))
		}
	}
	if name == EncodingAttr {
		if attr.typ != codec.TypeI16 {
			return 0, fail(CodeTypeMismatch, op, name,
				fmt.Errorf("encoding must be %s, got %s", codec.TypeI16, attr.typ))
		}
		if e.encSet {
			return 0, fail(CodeEncodingAlreadySet, op, name, nil)
		}
	}
	if !e.attrs.Contains(name) && e.attrs.Len() >= MaxAttributes {
		return 0, fail(CodeTooManyAttributes, op, name, nil)
	}
	if _, _, err := e.attrs.Put(name, attr); err != nil {
		return 0, fail(CodeClosed, op, name, err)
	}
	if name == EncodingAttr {
		e.encSet = true
	}
	return e.attrs.Len(), nil
}

// Get returns the attribute stored under name. It fails with ErrNotFound
// if there is none or if it does not have type typ.
func (e *Event) Get(name string, typ codec.Type) (Attribute, error) {
	a, ok := e.attrs.Get(name)
	if !ok {
		return Attribute{}, fail(CodeNotFound, "get", name, nil)
	}
	if a.typ != typ {
		return Attribute{}, fail(CodeNotFound, "get", name,
			fmt.Errorf("stored as %s, requested %s", a.typ, typ))
	}
	return a, nil
}

// Attribute returns the attribute stored under name whatever its type
func (e *Event) Attribute(name string) (Attribute, bool) {
	return e.attrs.Get(name)
}

// Lookup returns the payload of the attribute name, which must have type
// typ, as a T. T is the Go type bound to typ: uint16 for TypeU16,
// []string for TypeStringArray, []*int64 for TypeNullableI64Array.
func Lookup[T any](e *Event, name string, typ codec.Type) (T, error) {
	var zero T
	a, err := e.Get(name, typ)
	if err != nil {
		return zero, err
	}
	v, ok := As[T](a)
	if !ok {
		return zero, fail(CodeTypeMismatch, "get", name,
			fmt.Errorf("%s holds %T, not %T", typ, a.value, zero))
	}
	return v, nil
}

// Has reports whether an attribute named name is present
func (e *Event) Has(name string) bool {
	return e.attrs.Contains(name)
}

// Remove deletes an attribute and reports whether it was present
func (e *Event) Remove(name string) bool {
	_, ok := e.attrs.Remove(name)
	return ok
}

// Names returns an enumerator over the attribute names present now
func (e *Event) Names() *hashmap.Enumerator {
	return e.attrs.Keys()
}

// SortedNames returns the attribute names in lexical order
func (e *Event) SortedNames() []string {
	en := e.attrs.Keys()
	names := make([]string, 0, en.Len())
	for k, ok := en.Next(); ok; k, ok = en.Next() {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetEncoding sets the enc attribute. It succeeds once per event, even
// if enc is later removed or the event cleared.
func (e *Event) SetEncoding(encoding int16) error {
	_, err := e.Set(EncodingAttr, Scalar(encoding))
	return err
}

// Encoding returns the enc attribute, if set
func (e *Event) Encoding() (int16, bool) {
	a, ok := e.attrs.Get(EncodingAttr)
	if !ok {
		return 0, false
	}
	return As[int16](a)
}

// Clear drops every attribute. The name, the schema and the set-once
// state of enc are kept.
func (e *Event) Clear() {
	e.attrs.Clear()
}

// Close drops every attribute and releases the attribute table. A closed
// event rejects further writes.
func (e *Event) Close() error {
	if e.closed {
		return nil
	}
	e.attrs.Clear()
	if err := e.attrs.Close(); err != nil {
		return err
	}
	e.closed = true
	return nil
}

// Validate checks every stored attribute against schema and returns all
// violations joined
func (e *Event) Validate(schema Schema) error {
	var errs []error
	for _, name := range e.SortedNames() {
		a, _ := e.attrs.Get(name)
		declared, ok := schema.AttributeType(e.name, name)
		switch {
		case !ok:
			errs = append(errs, fail(CodeUnknownAttribute, "validate", name, nil))
		case declared != a.typ:
			errs = append(errs, fail(CodeTypeMismatch, "validate", name,
				fmt.Errorf("declared %s, got %s", declared, a.typ)))
		}
	}
	return errors.Join(errs...)
}

// Equal reports whether both events have the same name and the same
// attributes, irrespective of storage order
func (e *Event) Equal(other *Event) bool {
	if e.name != other.name || e.Count() != other.Count() {
		return false
	}
	en := e.attrs.Keys()
	for k, ok := en.Next(); ok; k, ok = en.Next() {
		a, _ := e.attrs.Get(k)
		b, found := other.attrs.Get(k)
		if !found || !a.Equal(b) {
			return false
		}
	}
	return true
}

// String renders the event in the conventional dump format:
//
//	Name[count]
//	{
//		attr = value;
//	}
func (e *Event) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s[%d]\n{\n", e.name, e.Count())
	for _, name := range e.SortedNames() {
		a, _ := e.attrs.Get(name)
		fmt.Fprintf(&sb, "\t%s = %s;\n", name, a)
	}
	sb.WriteString("}")
	return sb.String()
}
