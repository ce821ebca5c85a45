// Code generated manually for bootstrap. Field numbers follow the serving
// platform's tensor.proto and monitoring api.proto.
package monitoringpb

import (
	"encoding/json"
	"fmt"
	"strconv"

	timestamppb "google.golang.org/protobuf/types/known/timestamppb"
)

// DataType is the tensor element type.
type DataType int32

const (
	DataType_DT_INVALID    DataType = 0
	DataType_DT_FLOAT      DataType = 1
	DataType_DT_DOUBLE     DataType = 2
	DataType_DT_INT32      DataType = 3
	DataType_DT_UINT8      DataType = 4
	DataType_DT_INT16      DataType = 5
	DataType_DT_INT8       DataType = 6
	DataType_DT_STRING     DataType = 7
	DataType_DT_COMPLEX64  DataType = 8
	DataType_DT_INT64      DataType = 9
	DataType_DT_BOOL       DataType = 10
	DataType_DT_QINT8      DataType = 11
	DataType_DT_QUINT8     DataType = 12
	DataType_DT_QINT32     DataType = 13
	DataType_DT_QINT16     DataType = 15
	DataType_DT_QUINT16    DataType = 16
	DataType_DT_UINT16     DataType = 17
	DataType_DT_COMPLEX128 DataType = 18
	DataType_DT_HALF       DataType = 19
	DataType_DT_VARIANT    DataType = 21
	DataType_DT_UINT32     DataType = 22
	DataType_DT_UINT64     DataType = 23
)

var DataType_name = map[int32]string{
	0:  "DT_INVALID",
	1:  "DT_FLOAT",
	2:  "DT_DOUBLE",
	3:  "DT_INT32",
	4:  "DT_UINT8",
	5:  "DT_INT16",
	6:  "DT_INT8",
	7:  "DT_STRING",
	8:  "DT_COMPLEX64",
	9:  "DT_INT64",
	10: "DT_BOOL",
	11: "DT_QINT8",
	12: "DT_QUINT8",
	13: "DT_QINT32",
	15: "DT_QINT16",
	16: "DT_QUINT16",
	17: "DT_UINT16",
	18: "DT_COMPLEX128",
	19: "DT_HALF",
	21: "DT_VARIANT",
	22: "DT_UINT32",
	23: "DT_UINT64",
}

var DataType_value = func() map[string]int32 {
	m := make(map[string]int32, len(DataType_name))
	for k, v := range DataType_name {
		m[v] = k
	}
	return m
}()

func (x DataType) String() string {
	if s, ok := DataType_name[int32(x)]; ok {
		return s
	}
	return strconv.Itoa(int(x))
}

// ParseDataType resolves a dtype tag such as "DT_INT64".
func ParseDataType(name string) (DataType, bool) {
	v, ok := DataType_value[name]
	return DataType(v), ok
}

func (x DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(x.String())
}

func (x *DataType) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		v, ok := ParseDataType(name)
		if !ok {
			return fmt.Errorf("unknown dtype %q", name)
		}
		*x = v
		return nil
	}
	var n int32
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*x = DataType(n)
	return nil
}

// TensorShapeProto_Dim is one dimension of a tensor shape.
type TensorShapeProto_Dim struct {
	Size int64  `protobuf:"varint,1,opt,name=size,proto3" json:"size"`
	Name string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
}

// TensorShapeProto describes tensor dimensions. An empty Dim with
// UnknownRank false is a scalar.
type TensorShapeProto struct {
	Dim         []*TensorShapeProto_Dim `protobuf:"bytes,2,rep,name=dim,proto3" json:"dim"`
	UnknownRank bool                    `protobuf:"varint,3,opt,name=unknown_rank,json=unknownRank,proto3" json:"unknown_rank"`
}

// TensorProto carries a typed tensor. Exactly one value field is populated,
// chosen by Dtype.
type TensorProto struct {
	Dtype       DataType          `protobuf:"varint,1,opt,name=dtype,proto3,enum=hydrosphere.tensorflow.DataType" json:"dtype"`
	TensorShape *TensorShapeProto `protobuf:"bytes,2,opt,name=tensor_shape,json=tensorShape,proto3" json:"tensor_shape,omitempty"`
	// HalfVal holds IEEE 754 binary16 bit patterns.
	HalfVal     []int32   `protobuf:"varint,13,rep,packed,name=half_val,json=halfVal,proto3" json:"half_val,omitempty"`
	FloatVal    []float32 `protobuf:"fixed32,5,rep,packed,name=float_val,json=floatVal,proto3" json:"float_val,omitempty"`
	DoubleVal   []float64 `protobuf:"fixed64,6,rep,packed,name=double_val,json=doubleVal,proto3" json:"double_val,omitempty"`
	IntVal      []int32   `protobuf:"varint,7,rep,packed,name=int_val,json=intVal,proto3" json:"int_val,omitempty"`
	StringVal   [][]byte  `protobuf:"bytes,8,rep,name=string_val,json=stringVal,proto3" json:"string_val,omitempty"`
	ScomplexVal []float32 `protobuf:"fixed32,9,rep,packed,name=scomplex_val,json=scomplexVal,proto3" json:"scomplex_val,omitempty"`
	Int64Val    []int64   `protobuf:"varint,10,rep,packed,name=int64_val,json=int64Val,proto3" json:"int64_val,omitempty"`
	BoolVal     []bool    `protobuf:"varint,11,rep,packed,name=bool_val,json=boolVal,proto3" json:"bool_val,omitempty"`
	DcomplexVal []float64 `protobuf:"fixed64,12,rep,packed,name=dcomplex_val,json=dcomplexVal,proto3" json:"dcomplex_val,omitempty"`
	Uint32Val   []uint32  `protobuf:"varint,16,rep,packed,name=uint32_val,json=uint32Val,proto3" json:"uint32_val,omitempty"`
	Uint64Val   []uint64  `protobuf:"varint,17,rep,packed,name=uint64_val,json=uint64Val,proto3" json:"uint64_val,omitempty"`
}

type ModelSpec struct {
	Name          string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	SignatureName string `protobuf:"bytes,3,opt,name=signature_name,json=signatureName,proto3" json:"signature_name,omitempty"`
}

type PredictRequest struct {
	ModelSpec *ModelSpec              `protobuf:"bytes,1,opt,name=model_spec,json=modelSpec,proto3" json:"model_spec,omitempty"`
	Inputs    map[string]*TensorProto `protobuf:"bytes,2,rep,name=inputs,proto3" json:"inputs,omitempty" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

type PredictResponse struct {
	Outputs map[string]*TensorProto `protobuf:"bytes,1,rep,name=outputs,proto3" json:"outputs,omitempty" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

// ExecutionMetadata identifies the model version that served a request.
type ExecutionMetadata struct {
	SignatureName  string                 `protobuf:"bytes,1,opt,name=signature_name,json=signatureName,proto3" json:"signature_name,omitempty"`
	ModelVersionId int64                  `protobuf:"varint,2,opt,name=modelVersion_id,json=modelVersionId,proto3" json:"modelVersion_id,omitempty"`
	ModelName      string                 `protobuf:"bytes,3,opt,name=model_name,json=modelName,proto3" json:"model_name,omitempty"`
	ModelVersion   int64                  `protobuf:"varint,4,opt,name=model_version,json=modelVersion,proto3" json:"model_version,omitempty"`
	RequestId      string                 `protobuf:"bytes,5,opt,name=request_id,json=requestId,proto3" json:"request_id,omitempty"`
	Latency        float64                `protobuf:"fixed64,6,opt,name=latency,proto3" json:"latency,omitempty"`
	InferenceTime  *timestamppb.Timestamp `protobuf:"bytes,8,opt,name=inference_time,json=inferenceTime,proto3" json:"inference_time,omitempty"`
}

// ExecutionInformation is one request/response pair submitted for analysis.
type ExecutionInformation struct {
	Request  *PredictRequest    `protobuf:"bytes,1,opt,name=request,proto3" json:"request,omitempty"`
	Response *PredictResponse   `protobuf:"bytes,2,opt,name=response,proto3" json:"response,omitempty"`
	Metadata *ExecutionMetadata `protobuf:"bytes,4,opt,name=metadata,proto3" json:"metadata,omitempty"`
}
