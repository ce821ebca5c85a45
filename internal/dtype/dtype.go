// Package dtype holds the static tables that map sample types to the wire
// dtypes, profile categories and tensor value slots understood by the
// monitoring service.
package dtype

// Native sample types produced by schema inference. The table below accepts
// the wider set of numpy-style names so contracts loaded from elsewhere can
// still be mapped.
const (
	NativeInt64   = "int64"
	NativeFloat64 = "float64"
	NativeString  = "string"
)

// Wire dtype tags.
const (
	String     = "DT_STRING"
	Bool       = "DT_BOOL"
	Variant    = "DT_VARIANT"
	Half       = "DT_HALF"
	Float      = "DT_FLOAT"
	Double     = "DT_DOUBLE"
	Int8       = "DT_INT8"
	Int16      = "DT_INT16"
	Int32      = "DT_INT32"
	Int64      = "DT_INT64"
	Uint8      = "DT_UINT8"
	Uint16     = "DT_UINT16"
	Uint32     = "DT_UINT32"
	Uint64     = "DT_UINT64"
	Qint8      = "DT_QINT8"
	Qint16     = "DT_QINT16"
	Qint32     = "DT_QINT32"
	Quint8     = "DT_QUINT8"
	Quint16    = "DT_QUINT16"
	Complex64  = "DT_COMPLEX64"
	Complex128 = "DT_COMPLEX128"
)

// Profile categories used by the monitoring statistics engine.
const (
	ProfileNumerical = "NUMERICAL"
	ProfileText      = "TEXT"
	ProfileNone      = "NONE"
)

// Value slot names of a tensor payload.
const (
	SlotString   = "string_val"
	SlotBool     = "bool_val"
	SlotHalf     = "half_val"
	SlotFloat    = "float_val"
	SlotDouble   = "double_val"
	SlotInt      = "int_val"
	SlotInt64    = "int64_val"
	SlotUint32   = "uint32_val"
	SlotUint64   = "uint64_val"
	SlotSComplex = "scomplex_val"
	SlotDComplex = "dcomplex_val"
)

var wireTypes = map[string]string{
	"string":  String,
	"bool":    Bool,
	"variant": Variant,

	"float16": Half,
	"half":    Half,
	"float32": Float,
	"float64": Double,
	"double":  Double,

	"int8":  Int8,
	"int16": Int16,
	"int32": Int32,
	"int64": Int64,

	"uint8":  Uint8,
	"uint16": Uint16,
	"uint32": Uint32,
	"uint64": Uint64,

	"qint8":  Qint8,
	"qint16": Qint16,
	"qint32": Qint32,

	"quint8":  Quint8,
	"quint16": Quint16,

	"complex64":  Complex64,
	"complex128": Complex128,
}

var profiles = map[string]string{
	"string":  ProfileText,
	"bool":    ProfileNone,
	"variant": ProfileNone,

	"float16": ProfileNumerical,
	"half":    ProfileNumerical,
	"float32": ProfileNumerical,
	"float64": ProfileNumerical,
	"double":  ProfileNumerical,

	"int8":  ProfileNumerical,
	"int16": ProfileNumerical,
	"int32": ProfileNumerical,
	"int64": ProfileNumerical,

	"uint8":  ProfileNumerical,
	"uint16": ProfileNumerical,
	"uint32": ProfileNumerical,
	"uint64": ProfileNumerical,

	"qint8":  ProfileNumerical,
	"qint16": ProfileNumerical,
	"qint32": ProfileNumerical,

	"quint8":  ProfileNumerical,
	"quint16": ProfileNumerical,

	"complex64":  ProfileNone,
	"complex128": ProfileNone,
}

// Quantized and variant types have no slot; encoding them must fail.
var valueSlots = map[string]string{
	String: SlotString,
	Bool:   SlotBool,

	Half:   SlotHalf,
	Float:  SlotFloat,
	Double: SlotDouble,

	Int8:  SlotInt,
	Int16: SlotInt,
	Int32: SlotInt,
	Int64: SlotInt64,

	Uint8:  SlotInt,
	Uint16: SlotInt,
	Uint32: SlotUint32,
	Uint64: SlotUint64,

	Complex64:  SlotSComplex,
	Complex128: SlotDComplex,
}

// WireType maps a native sample type to its wire dtype. The boolean is false
// for unmapped types; callers must not substitute a default.
func WireType(native string) (string, bool) {
	w, ok := wireTypes[native]
	return w, ok
}

// Profile maps a native sample type to its profile category.
func Profile(native string) (string, bool) {
	p, ok := profiles[native]
	return p, ok
}

// ValueSlot returns the tensor slot that carries values of the wire dtype.
func ValueSlot(wire string) (string, bool) {
	s, ok := valueSlots[wire]
	return s, ok
}
