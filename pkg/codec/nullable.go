package codec

import (
	"fmt"
	"net/netip"
)

// Nullable (sparse) arrays are encoded as
//
//	[type tag][u16 count N][bitmap, ceil(N/8) bytes][present values...]
//
// Bit k of bitmap byte i (value 1<<k) marks element 8i+k as present.
// Absent elements take no space in the value stream. In Go a nullable
// array is a []*T where a nil pointer is an absent element.

// BitmapLen returns the number of bitmap bytes for count elements
func BitmapLen(count int) int {
	return (count + 7) / 8
}

// PutNullableArray writes the tag of the nullable array type t followed
// by its value
func (w *Writer) PutNullableArray(t Type, values any) (int, error) {
	start := w.off
	if _, err := w.PutType(t); err != nil {
		return 0, err
	}
	if _, err := w.PutNullableArrayValue(t, values); err != nil {
		w.off = start
		return 0, err
	}
	return w.off - start, nil
}

// PutNullableArrayValue writes the count, presence bitmap and present
// values of a nullable array. values must be a []*T of the Go type bound
// to t.Base().
func (w *Writer) PutNullableArrayValue(t Type, values any) (int, error) {
	if !t.IsNullableArray() {
		return 0, fmt.Errorf("put nullable array %s: %w", t, ErrUnknownType)
	}
	start := w.off
	n, err := w.putNullableValue(t.Base(), values)
	if err != nil {
		w.off = start
		return 0, fmt.Errorf("put nullable array %s: %w", t, err)
	}
	return n, nil
}

func (w *Writer) putNullableValue(base Type, values any) (int, error) {
	switch vs := values.(type) {
	case []*uint16:
		return putSparse(w, base, TypeU16, vs, w.PutUint16)
	case []*int16:
		return putSparse(w, base, TypeI16, vs, w.PutInt16)
	case []*uint32:
		return putSparse(w, base, TypeU32, vs, w.PutUint32)
	case []*int32:
		return putSparse(w, base, TypeI32, vs, w.PutInt32)
	case []*uint64:
		return putSparse(w, base, TypeU64, vs, w.PutUint64)
	case []*int64:
		return putSparse(w, base, TypeI64, vs, w.PutInt64)
	case []*bool:
		return putSparse(w, base, TypeBool, vs, w.PutBool)
	case []*byte:
		return putSparse(w, base, TypeByte, vs, w.PutByte)
	case []*float32:
		return putSparse(w, base, TypeFloat, vs, w.PutFloat)
	case []*float64:
		return putSparse(w, base, TypeDouble, vs, w.PutDouble)
	case []*netip.Addr:
		return putSparse(w, base, TypeIPAddr, vs, w.PutIPAddr)
	case []*string:
		return putSparse(w, base, TypeString, vs, w.PutLongString)
	}
	return 0, fmt.Errorf("%T: %w", values, ErrTypeMismatch)
}

func putSparse[T any](w *Writer, base, want Type, vs []*T, put func(T) (int, error)) (int, error) {
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
	bitmap, err := w.reserve("put presence bitmap", BitmapLen(len(vs)))
	if err != nil {
		return 0, err
	}
	clear(bitmap)
	w.off += len(bitmap)
	for i, p := range vs {
		if p == nil {
			continue
		}
		bitmap[i/8] |= 1 << (i % 8)
		if _, err := put(*p); err != nil {
			return 0, err
		}
	}
	return w.off - start, nil
}

// ReadNullableArray reads a tag followed by a nullable array value
func (r *Reader) ReadNullableArray() (Type, any, error) {
	start := r.off
	t, err := r.ReadType()
	if err != nil {
		return TypeUndefined, nil, err
	}
	v, err := r.ReadNullableArrayValue(t)
	if err != nil {
		r.off = start
		return TypeUndefined, nil, err
	}
	return t, v, nil
}

// ReadNullableArrayValue reads a nullable array of type t. The present
// values are decoded into a single backing slice and the returned []*T
// points into it; absent elements are nil.
func (r *Reader) ReadNullableArrayValue(t Type) (any, error) {
	if !t.IsNullableArray() {
		return nil, fmt.Errorf("read nullable array %s: %w", t, ErrUnknownType)
	}
	start := r.off
	v, err := r.readNullableValue(t.Base())
	if err != nil {
		r.off = start
		return nil, fmt.Errorf("read nullable array %s: %w", t, err)
	}
	return v, nil
}

func (r *Reader) readNullableValue(base Type) (any, error) {
	switch base {
	case TypeU16:
		return readSparse(r, base, r.ReadUint16)
	case TypeI16:
		return readSparse(r, base, r.ReadInt16)
	case TypeU32:
		return readSparse(r, base, r.ReadUint32)
	case TypeI32:
		return readSparse(r, base, r.ReadInt32)
	case TypeU64:
		return readSparse(r, base, r.ReadUint64)
	case TypeI64:
		return readSparse(r, base, r.ReadInt64)
	case TypeBool:
		return readSparse(r, base, r.ReadBool)
	case TypeByte:
		return readSparse(r, base, r.ReadByte)
	case TypeFloat:
		return readSparse(r, base, r.ReadFloat)
	case TypeDouble:
		return readSparse(r, base, r.ReadDouble)
	case TypeIPAddr:
		return readSparse(r, base, r.ReadIPAddr)
	case TypeString:
		return readSparse(r, base, r.ReadLongString)
	}
	return nil, ErrUnknownType
}

func readSparse[T any](r *Reader, base Type, read func() (T, error)) ([]*T, error) {
	count, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	n := int(count)
	bitmap, err := r.peek("read presence bitmap", BitmapLen(n))
	if err != nil {
		return nil, err
	}
	r.off += len(bitmap)

	present := 0
	for i := 0; i < n; i++ {
		if bitmap[i/8]&(1<<(i%8)) != 0 {
			present++
		}
	}
	if size := base.Size(); size > 0 && present*size > r.Remaining() {
		return nil, fmt.Errorf("%d present elements of %d bytes with %d remaining: %w",
			present, size, r.Remaining(), ErrShortBuffer)
	}

	block := make([]T, present)
	out := make([]*T, n)
	j := 0
	for i := 0; i < n; i++ {
		if bitmap[i/8]&(1<<(i%8)) == 0 {
			continue
		}
		if block[j], err = read(); err != nil {
			return nil, err
		}
		out[i] = &block[j]
		j++
	}
	return out, nil
}

// NullableArrayValueSize returns the number of bytes PutNullableArrayValue
// writes for values, excluding the tag.
func NullableArrayValueSize(t Type, values any) int {
	if ss, ok := values.([]*string); ok {
		n := 2 + BitmapLen(len(ss))
		for _, s := range ss {
			if s != nil {
				n += 2 + len(*s)
			}
		}
		return n
	}
	count, present := sparseCounts(values)
	return 2 + BitmapLen(count) + present*t.Base().Size()
}

func sparseCounts(values any) (int, int) {
	switch vs := values.(type) {
	case []*uint16:
		return countPresent(vs)
	case []*int16:
		return countPresent(vs)
	case []*uint32:
		return countPresent(vs)
	case []*int32:
		return countPresent(vs)
	case []*uint64:
		return countPresent(vs)
	case []*int64:
		return countPresent(vs)
	case []*bool:
		return countPresent(vs)
	case []*byte:
		return countPresent(vs)
	case []*float32:
		return countPresent(vs)
	case []*float64:
		return countPresent(vs)
	case []*netip.Addr:
		return countPresent(vs)
	case []*string:
		return countPresent(vs)
	}
	return 0, 0
}

func countPresent[T any](vs []*T) (int, int) {
	present := 0
	for _, p := range vs {
		if p != nil {
			present++
		}
	}
	return len(vs), present
}
