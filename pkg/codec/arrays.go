package codec

import (
	"fmt"
	"net/netip"
)

// Plain arrays are encoded as
//
//	[type tag][u16 count][element 0]...[element count-1]
//
// Elements use the scalar encoding of the base type; string elements
// use the long string form.

// PutArray writes the tag of the plain array type t followed by its value
func (w *Writer) PutArray(t Type, values any) (int, error) {
	start := w.off
	if _, err := w.PutType(t); err != nil {
		return 0, err
	}
	if _, err := w.PutArrayValue(t, values); err != nil {
		w.off = start
		return 0, err
	}
	return w.off - start, nil
}

// PutArrayValue writes the count and elements of a plain array. values
// must be a slice of the Go type bound to t.Base(). Nothing is written
// if the array does not fit.
func (w *Writer) PutArrayValue(t Type, values any) (int, error) {
	if !t.IsArray() {
		return 0, fmt.Errorf("put array %s: %w", t, ErrUnknownType)
	}
	start := w.off
	n, err := w.putArrayValue(t.Base(), values)
	if err != nil {
		w.off = start
		return 0, fmt.Errorf("put array %s: %w", t, err)
	}
	return n, nil
}

func (w *Writer) putArrayValue(base Type, values any) (int, error) {
	switch vs := values.(type) {
	case []uint16:
		return putElems(w, base, TypeU16, vs, w.PutUint16)
	case []int16:
		return putElems(w, base, TypeI16, vs, w.PutInt16)
	case []uint32:
		return putElems(w, base, TypeU32, vs, w.PutUint32)
	case []int32:
		return putElems(w, base, TypeI32, vs, w.PutInt32)
	case []uint64:
		return putElems(w, base, TypeU64, vs, w.PutUint64)
	case []int64:
		return putElems(w, base, TypeI64, vs, w.PutInt64)
	case []bool:
		return putElems(w, base, TypeBool, vs, w.PutBool)
	case []byte:
		return putElems(w, base, TypeByte, vs, w.PutByte)
	case []float32:
		return putElems(w, base, TypeFloat, vs, w.PutFloat)
	case []float64:
		return putElems(w, base, TypeDouble, vs, w.PutDouble)
	case []netip.Addr:
		return putElems(w, base, TypeIPAddr, vs, w.PutIPAddr)
	case []string:
		return putElems(w, base, TypeString, vs, w.PutLongString)
	}
	return 0, fmt.Errorf("%T: %w", values, ErrTypeMismatch)
}

func putElems[T any](w *Writer, base, want Type, vs []T, put func(T) (int, error)) (int, error) {
	if base != want {
		return 0, fmt.Errorf("%s elements for %s array: %w", want, base, ErrTypeMismatch)
	}
	if len(vs) > MaxArrayLength {
		return 0, fmt.Errorf("%d elements: %w", len(vs), ErrArrayTooLong)
	}
	start := w.off
	if _, err := w.PutUint16(uint16(len(vs))); err != nil {
		return 0, err
	}
	for _, v := range vs {
		if _, err := put(v); err != nil {
			return 0, err
		}
	}
	return w.off - start, nil
}

// ReadArray reads a tag followed by a plain array value
func (r *Reader) ReadArray() (Type, any, error) {
	start := r.off
	t, err := r.ReadType()
	if err != nil {
		return TypeUndefined, nil, err
	}
	v, err := r.ReadArrayValue(t)
	if err != nil {
		r.off = start
		return TypeUndefined, nil, err
	}
	return t, v, nil
}

// ReadArrayValue reads the count and elements of a plain array of type t.
// The result is a slice of the Go type bound to t.Base(). On failure no
// partial array is returned and the offset is restored.
func (r *Reader) ReadArrayValue(t Type) (any, error) {
	if !t.IsArray() {
		return nil, fmt.Errorf("read array %s: %w", t, ErrUnknownType)
	}
	start := r.off
	v, err := r.readArrayValue(t.Base())
	if err != nil {
		r.off = start
		return nil, fmt.Errorf("read array %s: %w", t, err)
	}
	return v, nil
}

func (r *Reader) readArrayValue(base Type) (any, error) {
	switch base {
	case TypeU16:
		return readElems(r, base, r.ReadUint16)
	case TypeI16:
		return readElems(r, base, r.ReadInt16)
	case TypeU32:
		return readElems(r, base, r.ReadUint32)
	case TypeI32:
		return readElems(r, base, r.ReadInt32)
	case TypeU64:
		return readElems(r, base, r.ReadUint64)
	case TypeI64:
		return readElems(r, base, r.ReadInt64)
	case TypeBool:
		return readElems(r, base, r.ReadBool)
	case TypeByte:
		return readElems(r, base, r.ReadByte)
	case TypeFloat:
		return readElems(r, base, r.ReadFloat)
	case TypeDouble:
		return readElems(r, base, r.ReadDouble)
	case TypeIPAddr:
		return readElems(r, base, r.ReadIPAddr)
	case TypeString:
		return readElems(r, base, r.ReadLongString)
	}
	return nil, ErrUnknownType
}

func readElems[T any](r *Reader, base Type, read func() (T, error)) ([]T, error) {
	count, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	// reject counts the remaining input cannot possibly hold before
	// allocating for them
	if size := base.Size(); size > 0 && int(count)*size > r.Remaining() {
		return nil, fmt.Errorf("%d elements of %d bytes with %d remaining: %w",
			count, size, r.Remaining(), ErrShortBuffer)
	}
	vs := make([]T, count)
	for i := range vs {
		if vs[i], err = read(); err != nil {
			return nil, err
		}
	}
	return vs, nil
}

// ArrayValueSize returns the number of bytes PutArrayValue writes for
// values, excluding the tag.
func ArrayValueSize(t Type, values any) int {
	n := 2
	if ss, ok := values.([]string); ok {
		for _, s := range ss {
			n += 2 + len(s)
		}
		return n
	}
	return n + sliceLen(values)*t.Base().Size()
}

func sliceLen(values any) int {
	switch vs := values.(type) {
	case []uint16:
		return len(vs)
	case []int16:
		return len(vs)
	case []uint32:
		return len(vs)
	case []int32:
		return len(vs)
	case []uint64:
		return len(vs)
	case []int64:
		return len(vs)
	case []bool:
		return len(vs)
	case []byte:
		return len(vs)
	case []float32:
		return len(vs)
	case []float64:
		return len(vs)
	case []netip.Addr:
		return len(vs)
	case []string:
		return len(vs)
	}
	return 0
}
