/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"

	"github.com/ssargent/lwes/pkg/codec"
	"github.com/ssargent/lwes/pkg/event"
)

// parseAttr parses "name:type=value". Array values are comma separated;
// in nullable arrays an empty element is null:
//
//	user:string=alice
//	ids:int32[]=1,2,3
//	"scores:nullable double[]=1.5,,3"
func parseAttr(arg string) (string, event.Attribute, error) {
	left, raw, ok := strings.Cut(arg, "=")
	if !ok {
		return "", event.Attribute{}, fmt.Errorf("attribute %q: expected name:type=value", arg)
	}
	name, typeName, ok := strings.Cut(left, ":")
	if !ok || name == "" {
		return "", event.Attribute{}, fmt.Errorf("attribute %q: expected name:type=value", arg)
	}
	typ, err := codec.ParseType(typeName)
	if err != nil {
		return "", event.Attribute{}, fmt.Errorf("attribute %q: %w", name, err)
	}

	attr, err := buildAttr(typ, raw)
	if err != nil {
		return "", event.Attribute{}, fmt.Errorf("attribute %q: %w", name, err)
	}
	return name, attr, nil
}

func buildAttr(typ codec.Type, raw string) (event.Attribute, error) {
	switch typ.Base() {
	case codec.TypeU16:
		return build(typ, raw, parseUint[uint16](16))
	case codec.TypeI16:
		return build(typ, raw, parseInt[int16](16))
	case codec.TypeU32:
		return build(typ, raw, parseUint[uint32](32))
	case codec.TypeI32:
		return build(typ, raw, parseInt[int32](32))
	case codec.TypeU64:
		return build(typ, raw, parseUint[uint64](64))
	case codec.TypeI64:
		return build(typ, raw, parseInt[int64](64))
	case codec.TypeByte:
		return build(typ, raw, parseUint[byte](8))
	case codec.TypeBool:
		return build(typ, raw, strconv.ParseBool)
	case codec.TypeFloat:
		return build(typ, raw, func(s string) (float32, error) {
			v, err := strconv.ParseFloat(s, 32)
			if err == nil && math.IsInf(v, 0) {
				return 0, fmt.Errorf("float %q out of range", s)
			}
			return float32(v), err
		})
	case codec.TypeDouble:
		return build(typ, raw, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
	case codec.TypeIPAddr:
		return build(typ, raw, netip.ParseAddr)
	case codec.TypeString:
		return build(typ, raw, func(s string) (string, error) { return s, nil })
	}
	return event.Attribute{}, fmt.Errorf("unsupported type %s", typ)
}

func build[T event.Primitive](typ codec.Type, raw string, parse func(string) (T, error)) (event.Attribute, error) {
	if typ.IsScalar() {
		v, err := parse(raw)
		if err != nil {
			return event.Attribute{}, err
		}
		return event.Scalar(v), nil
	}

	var parts []string
	if raw != "" {
		parts = strings.Split(raw, ",")
	}

	if typ.IsArray() {
		vs := make([]T, len(parts))
		for i, p := range parts {
			v, err := parse(p)
			if err != nil {
				return event.Attribute{}, fmt.Errorf("element %d: %w", i, err)
			}
			vs[i] = v
		}
		return event.Array(vs), nil
	}

	vs := make([]*T, len(parts))
	for i, p := range parts {
		if p == "" {
			continue
		}
		v, err := parse(p)
		if err != nil {
			return event.Attribute{}, fmt.Errorf("element %d: %w", i, err)
		}
		vs[i] = &v
	}
	return event.Nullable(vs), nil
}

func parseUint[T uint16 | uint32 | uint64 | byte](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseUint(s, 0, bits)
		return T(v), err
	}
}

func parseInt[T int16 | int32 | int64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseInt(s, 0, bits)
		return T(v), err
	}
}
