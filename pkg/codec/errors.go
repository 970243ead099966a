package codec

import "errors"

// Errors returned by the primitive and array codecs. Failures are always
// wrapped with the operation that produced them.
var (
	ErrShortBuffer    = errors.New("insufficient buffer space")
	ErrEmptyString    = errors.New("short string must not be empty")
	ErrStringTooLong  = errors.New("string exceeds maximum length")
	ErrArrayTooLong   = errors.New("array exceeds maximum length")
	ErrUnknownType    = errors.New("unknown type")
	ErrTypeMismatch   = errors.New("value does not match type")
	ErrInvalidAddress = errors.New("address is not IPv4")
)

const (
	// MaxShortString is the largest length a short string may carry
	MaxShortString = 254
	// MaxLongString is the largest length a long string may carry
	MaxLongString = 65534
	// MaxArrayLength is the largest element count an array may carry
	MaxArrayLength = 65535
)
