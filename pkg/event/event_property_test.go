package event

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func buildEvent(ints map[string]int64, strs map[string]string) *Event {
	e := New("Property::Event")
	for k, v := range ints {
		if len(k) > 254 || k == EncodingAttr {
			continue
		}
		_, _ = e.Set(k, Scalar(v))
	}
	for k, v := range strs {
		if len(k) > 254 || k == EncodingAttr {
			continue
		}
		_, _ = e.Set("s_"+k, Scalar(v))
	}
	return e
}

func TestProperty_EventRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(e)) equals e", prop.ForAll(
		func(ints map[string]int64, strs map[string]string) bool {
			e := buildEvent(ints, strs)
			data, err := e.MarshalBinary()
			if err != nil {
				return false
			}
			decoded, err := Decode(data, nil)
			return err == nil && e.Equal(decoded)
		},
		gen.MapOf(gen.Identifier(), gen.Int64()),
		gen.MapOf(gen.Identifier(), gen.AnyString()),
	))

	properties.Property("Size matches the bytes written", prop.ForAll(
		func(ints map[string]int64, strs map[string]string) bool {
			e := buildEvent(ints, strs)
			n, err := e.ToBytes(make([]byte, e.Size()), 0)
			return err == nil && n == e.Size()
		},
		gen.MapOf(gen.Identifier(), gen.Int64()),
		gen.MapOf(gen.Identifier(), gen.AlphaString()),
	))

	properties.TestingRun(t)
}
