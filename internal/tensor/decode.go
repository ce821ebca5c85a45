package tensor

import (
	"fmt"

	"github.com/x448/float16"

	"github.com/Hydrospheredata/hydro-serving-integrations/pkg/monitoringpb"
)

// Scalar reads back the single value of a scalar tensor as the Go type of
// its slot: int64 for the int slots, uint64, float64, string, bool or
// complex128.
func Scalar(t *monitoringpb.TensorProto) (any, error) {
	switch t.Dtype {
	case monitoringpb.DataType_DT_INT8, monitoringpb.DataType_DT_INT16, monitoringpb.DataType_DT_INT32,
		monitoringpb.DataType_DT_UINT8, monitoringpb.DataType_DT_UINT16:
		if len(t.IntVal) == 1 {
			return int64(t.IntVal[0]), nil
		}
	case monitoringpb.DataType_DT_INT64:
		if len(t.Int64Val) == 1 {
			return t.Int64Val[0], nil
		}
	case monitoringpb.DataType_DT_UINT32:
		if len(t.Uint32Val) == 1 {
			return uint64(t.Uint32Val[0]), nil
		}
	case monitoringpb.DataType_DT_UINT64:
		if len(t.Uint64Val) == 1 {
			return t.Uint64Val[0], nil
		}
	case monitoringpb.DataType_DT_HALF:
		if len(t.HalfVal) == 1 {
			return float64(float16.Frombits(uint16(t.HalfVal[0])).Float32()), nil
		}
	case monitoringpb.DataType_DT_FLOAT:
		if len(t.FloatVal) == 1 {
			return float64(t.FloatVal[0]), nil
		}
	case monitoringpb.DataType_DT_DOUBLE:
		if len(t.DoubleVal) == 1 {
			return t.DoubleVal[0], nil
		}
	case monitoringpb.DataType_DT_STRING:
		if len(t.StringVal) == 1 {
			return string(t.StringVal[0]), nil
		}
	case monitoringpb.DataType_DT_BOOL:
		if len(t.BoolVal) == 1 {
			return t.BoolVal[0], nil
		}
	case monitoringpb.DataType_DT_COMPLEX64:
		if len(t.ScomplexVal) == 2 {
			return complex(float64(t.ScomplexVal[0]), float64(t.ScomplexVal[1])), nil
		}
	case monitoringpb.DataType_DT_COMPLEX128:
		if len(t.DcomplexVal) == 2 {
			return complex(t.DcomplexVal[0], t.DcomplexVal[1]), nil
		}
	default:
		return nil, fmt.Errorf("%w %s", ErrNoValueSlot, t.Dtype)
	}
	return nil, fmt.Errorf("tensor of %s is not a scalar", t.Dtype)
}
