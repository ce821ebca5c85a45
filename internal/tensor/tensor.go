// Package tensor turns capture records into typed tensor payloads using an
// inferred schema.
package tensor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/x448/float16"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/capture"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/dtype"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/schema"
	"github.com/Hydrospheredata/hydro-serving-integrations/pkg/monitoringpb"
)

var (
	// ErrNoValueSlot is returned for wire types that have no value slot.
	ErrNoValueSlot = errors.New("no value slot for wire type")
	// ErrUnsupportedNativeType is returned for native types the encoder
	// cannot parse.
	ErrUnsupportedNativeType = errors.New("unsupported native type")
	// ErrOutOfRange is returned when a parsed value does not fit its slot.
	ErrOutOfRange = errors.New("value out of range for slot")
)

// EncodingError reports a column that could not be encoded.
type EncodingError struct {
	Column string
	Value  string
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode column %q value %q: %v", e.Column, e.Value, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Tensors maps column names to tensor payloads.
type Tensors map[string]*monitoringpb.TensorProto

// Encode builds the input and output tensors of one record.
func Encode(rec *capture.Record, s *schema.Schema) (inputs, outputs Tensors, err error) {
	if inputs, err = EncodeColumns(rec.Inputs(), s.Inputs); err != nil {
		return nil, nil, err
	}
	if outputs, err = EncodeColumns(rec.Outputs(), s.Outputs); err != nil {
		return nil, nil, err
	}
	return inputs, outputs, nil
}

// EncodeColumns splits raw on commas and pairs values with cols by position.
// Surplus values or columns on either side are ignored.
func EncodeColumns(raw string, cols []*schema.Column) (Tensors, error) {
	values := strings.Split(raw, ",")
	n := min(len(values), len(cols))

	out := make(Tensors, n)
	for i := 0; i < n; i++ {
		t, err := EncodeValue(cols[i], values[i])
		if err != nil {
			return nil, err
		}
		out[cols[i].Name] = t
	}
	return out, nil
}

// EncodeValue encodes a single scalar for col.
func EncodeValue(col *schema.Column, raw string) (*monitoringpb.TensorProto, error) {
	fail := func(err error) (*monitoringpb.TensorProto, error) {
		return nil, &EncodingError{Column: col.Name, Value: raw, Err: err}
	}

	slot, ok := dtype.ValueSlot(col.WireType)
	if !ok {
		return fail(fmt.Errorf("%w %q", ErrNoValueSlot, col.WireType))
	}
	wire, ok := monitoringpb.ParseDataType(col.WireType)
	if !ok {
		return fail(fmt.Errorf("%w %q", ErrNoValueSlot, col.WireType))
	}
	v, err := parseNative(col.NativeType, raw)
	if err != nil {
		return fail(err)
	}

	t := &monitoringpb.TensorProto{Dtype: wire, TensorShape: Shape(col)}
	if err := setSlot(t, slot, v); err != nil {
		return fail(err)
	}
	return t, nil
}

// Shape converts the column shape into a shape descriptor. Dimensions are
// named {column}_{index}; a scalar has no dimensions and a known rank.
func Shape(col *schema.Column) *monitoringpb.TensorShapeProto {
	dims := make([]*monitoringpb.TensorShapeProto_Dim, 0, len(col.Shape))
	for i, size := range col.Shape {
		dims = append(dims, &monitoringpb.TensorShapeProto_Dim{
			Size: int64(size),
			Name: fmt.Sprintf("%s_%d", col.Name, i),
		})
	}
	return &monitoringpb.TensorShapeProto{Dim: dims, UnknownRank: false}
}

func parseNative(native, raw string) (any, error) {
	if native == dtype.NativeString {
		return raw, nil
	}
	v := strings.TrimSpace(raw)
	switch native {
	case "int8", "qint8":
		return strconv.ParseInt(v, 10, 8)
	case "int16", "qint16":
		return strconv.ParseInt(v, 10, 16)
	case "int32", "qint32":
		return strconv.ParseInt(v, 10, 32)
	case "int64":
		return strconv.ParseInt(v, 10, 64)
	case "uint8", "quint8":
		return strconv.ParseUint(v, 10, 8)
	case "uint16", "quint16":
		return strconv.ParseUint(v, 10, 16)
	case "uint32":
		return strconv.ParseUint(v, 10, 32)
	case "uint64":
		return strconv.ParseUint(v, 10, 64)
	case "float16", "half", "float32":
		return strconv.ParseFloat(v, 32)
	case "float64", "double":
		return strconv.ParseFloat(v, 64)
	case "bool":
		return strconv.ParseBool(v)
	case "complex64":
		return strconv.ParseComplex(v, 64)
	case "complex128":
		return strconv.ParseComplex(v, 128)
	}
	return nil, fmt.Errorf("%w %q", ErrUnsupportedNativeType, native)
}

func setSlot(t *monitoringpb.TensorProto, slot string, v any) error {
	mismatch := func() error { return fmt.Errorf("%w %s: %v", ErrOutOfRange, slot, v) }

	switch slot {
	case dtype.SlotInt:
		n, ok := asInt64(v)
		if !ok || n < math.MinInt32 || n > math.MaxInt32 {
			return mismatch()
		}
		t.IntVal = []int32{int32(n)}
	case dtype.SlotInt64:
		n, ok := asInt64(v)
		if !ok {
			return mismatch()
		}
		t.Int64Val = []int64{n}
	case dtype.SlotUint32:
		u, ok := asUint64(v)
		if !ok || u > math.MaxUint32 {
			return mismatch()
		}
		t.Uint32Val = []uint32{uint32(u)}
	case dtype.SlotUint64:
		u, ok := asUint64(v)
		if !ok {
			return mismatch()
		}
		t.Uint64Val = []uint64{u}
	case dtype.SlotHalf:
		f, ok := asFloat64(v)
		if !ok {
			return mismatch()
		}
		t.HalfVal = []int32{int32(float16.Fromfloat32(float32(f)).Bits())}
	case dtype.SlotFloat:
		f, ok := asFloat64(v)
		if !ok {
			return mismatch()
		}
		t.FloatVal = []float32{float32(f)}
	case dtype.SlotDouble:
		f, ok := asFloat64(v)
		if !ok {
			return mismatch()
		}
		t.DoubleVal = []float64{f}
	case dtype.SlotString:
		s, ok := v.(string)
		if !ok {
			return mismatch()
		}
		t.StringVal = [][]byte{[]byte(s)}
	case dtype.SlotBool:
		b, ok := v.(bool)
		if !ok {
			return mismatch()
		}
		t.BoolVal = []bool{b}
	case dtype.SlotSComplex:
		c, ok := v.(complex128)
		if !ok {
			return mismatch()
		}
		t.ScomplexVal = []float32{float32(real(c)), float32(imag(c))}
	case dtype.SlotDComplex:
		c, ok := v.(complex128)
		if !ok {
			return mismatch()
		}
		t.DcomplexVal = []float64{real(c), imag(c)}
	default:
		return fmt.Errorf("%w %q", ErrNoValueSlot, slot)
	}
	return nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func asUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
