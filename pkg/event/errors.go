package event

import (
	"errors"
	"fmt"

	"github.com/ssargent/lwes/pkg/codec"
)

// Code identifies the exact site of a failure. Codes are negative so they
// can double as the error return of byte-count style APIs.
type Code int

const (
	CodeEventName Code = -(iota + 1)
	CodeAttrCount
	CodeEncodingName
	CodeEncodingType
	CodeEncodingValue
	CodeAttrName
	CodeAttrType
	CodeU16
	CodeI16
	CodeU32
	CodeI32
	CodeU64
	CodeI64
	CodeBool
	CodeByte
	CodeFloat
	CodeDouble
	CodeIPAddr
	CodeString
	CodeArray
	CodeNullableArray
	CodeUnknownType
	CodeCountMismatch
	CodeUnknownAttribute
	CodeTypeMismatch
	CodeNotFound
	CodeNameAlreadySet
	CodeEncodingAlreadySet
	CodeInvalidValue
	CodeTooManyAttributes
	CodeReceiptHeaders
	CodeClosed
)

var codeText = map[Code]string{
	CodeEventName:          "event name",
	CodeAttrCount:          "attribute count",
	CodeEncodingName:       "encoding name",
	CodeEncodingType:       "encoding type",
	CodeEncodingValue:      "encoding value",
	CodeAttrName:           "attribute name",
	CodeAttrType:           "attribute type",
	CodeU16:                "uint16 value",
	CodeI16:                "int16 value",
	CodeU32:                "uint32 value",
	CodeI32:                "int32 value",
	CodeU64:                "uint64 value",
	CodeI64:                "int64 value",
	CodeBool:               "boolean value",
	CodeByte:               "byte value",
	CodeFloat:              "float value",
	CodeDouble:             "double value",
	CodeIPAddr:             "ip_addr value",
	CodeString:             "string value",
	CodeArray:              "array value",
	CodeNullableArray:      "nullable array value",
	CodeUnknownType:        "unknown type",
	CodeCountMismatch:      "attribute count mismatch",
	CodeUnknownAttribute:   "unknown attribute",
	CodeTypeMismatch:       "type mismatch",
	CodeNotFound:           "attribute not found",
	CodeNameAlreadySet:     "name already set",
	CodeEncodingAlreadySet: "encoding already set",
	CodeInvalidValue:       "invalid value",
	CodeTooManyAttributes:  "too many attributes",
	CodeReceiptHeaders:     "receipt headers",
	CodeClosed:             "event closed",
}

func (c Code) String() string {
	if s, ok := codeText[c]; ok {
		return s
	}
	return fmt.Sprintf("code %d", int(c))
}

// Error reports a failure together with the site that produced it
type Error struct {
	Code Code
	Op   string // "set", "to bytes", "from bytes", ...
	Attr string // attribute involved, if any
	Err  error  // underlying codec error, if any
}

// Sentinel errors for use with errors.Is. Matching is by Code only.
var (
	ErrUnknownAttribute   = &Error{Code: CodeUnknownAttribute}
	ErrTypeMismatch       = &Error{Code: CodeTypeMismatch}
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrNameAlreadySet     = &Error{Code: CodeNameAlreadySet}
	ErrEncodingAlreadySet = &Error{Code: CodeEncodingAlreadySet}
	ErrCountMismatch      = &Error{Code: CodeCountMismatch}
	ErrUnknownType        = &Error{Code: CodeUnknownType}
	ErrInvalidValue       = &Error{Code: CodeInvalidValue}
	ErrTooManyAttributes  = &Error{Code: CodeTooManyAttributes}
	ErrClosed             = &Error{Code: CodeClosed}
)

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Attr != "" {
		msg = fmt.Sprintf("%s (attribute %q)", msg, e.Attr)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "event: " + msg
}

// Unwrap returns the underlying codec error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the Code carried by err, or 0 if err is not an *Error
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

func fail(code Code, op, attr string, err error) *Error {
	return &Error{Code: code, Op: op, Attr: attr, Err: err}
}

// valueCode returns the code for a failure on a value of type t
func valueCode(t codec.Type) Code {
	switch {
	case t.IsArray():
		return CodeArray
	case t.IsNullableArray():
		return CodeNullableArray
	}
	switch t {
	case codec.TypeU16:
		return CodeU16
	case codec.TypeI16:
		return CodeI16
	case codec.TypeU32:
		return CodeU32
	case codec.TypeI32:
		return CodeI32
	case codec.TypeU64:
		return CodeU64
	case codec.TypeI64:
		return CodeI64
	case codec.TypeBool:
		return CodeBool
	case codec.TypeByte:
		return CodeByte
	case codec.TypeFloat:
		return CodeFloat
	case codec.TypeDouble:
		return CodeDouble
	case codec.TypeIPAddr:
		return CodeIPAddr
	case codec.TypeString:
		return CodeString
	}
	return CodeUnknownType
}
