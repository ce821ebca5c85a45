package monitoring

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/capture"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/registry"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/tensor"
	"github.com/Hydrospheredata/hydro-serving-integrations/pkg/monitoringpb"
)

type fakeMonitoring struct {
	monitoringpb.UnimplementedMonitoringServiceServer

	mu       sync.Mutex
	received []*monitoringpb.ExecutionInformation
}

func (f *fakeMonitoring) Analyze(_ context.Context, in *monitoringpb.ExecutionInformation) (*emptypb.Empty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, in)
	return &emptypb.Empty{}, nil
}

func startServer(t *testing.T) (*fakeMonitoring, *Client) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	fake := &fakeMonitoring{}
	monitoringpb.RegisterMonitoringServiceServer(srv, fake)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	client := &Client{conn: conn, svc: monitoringpb.NewMonitoringServiceClient(conn)}
	t.Cleanup(func() { _ = client.Close() })
	return fake, client
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		endpoint string
		target   string
		secure   bool
		wantErr  bool
	}{
		{"https://hydrosphere.example.com", "hydrosphere.example.com", true, false},
		{"http://localhost:9090", "localhost:9090", false, false},
		{"http://10.0.0.5:80/api", "10.0.0.5:80", false, false},
		{"localhost", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			target, secure, err := ParseTarget(tt.endpoint)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, target)
			assert.Equal(t, tt.secure, secure)
		})
	}
}

func TestExecutionInformation(t *testing.T) {
	m := NewModel(&registry.Model{Name: "xgb", Version: 1, VersionID: 42}, nil)
	rec := &capture.Record{EventMetadata: capture.EventMetadata{
		EventID:       "evt-1",
		InferenceTime: "2020-06-29T12:16:27Z",
	}}
	inputs := tensor.Tensors{"age": {Dtype: monitoringpb.DataType_DT_INT64, Int64Val: []int64{42}}}
	outputs := tensor.Tensors{"label": {Dtype: monitoringpb.DataType_DT_DOUBLE, DoubleVal: []float64{1}}}

	info := m.ExecutionInformation(rec, inputs, outputs)
	assert.Equal(t, &monitoringpb.ModelSpec{Name: "xgb", SignatureName: "predict"}, info.Request.ModelSpec)
	assert.Equal(t, []int64{42}, info.Request.Inputs["age"].Int64Val)
	assert.Equal(t, []float64{1}, info.Response.Outputs["label"].DoubleVal)
	assert.Equal(t, "xgb", info.Metadata.ModelName)
	assert.Equal(t, int64(1), info.Metadata.ModelVersion)
	assert.Equal(t, int64(42), info.Metadata.ModelVersionId)
	assert.Equal(t, "predict", info.Metadata.SignatureName)
	assert.Equal(t, "evt-1", info.Metadata.RequestId)
	assert.Equal(t, time.Date(2020, 6, 29, 12, 16, 27, 0, time.UTC), info.Metadata.InferenceTime.AsTime())
}

func TestExecutionInformationGeneratesRequestID(t *testing.T) {
	m := NewModel(&registry.Model{Name: "xgb"}, nil)
	info := m.ExecutionInformation(&capture.Record{}, nil, nil)
	assert.Len(t, info.Metadata.RequestId, 36)
	assert.Nil(t, info.Metadata.InferenceTime)
}

func TestAnalyzeOverGRPC(t *testing.T) {
	fake, client := startServer(t)
	m := NewModel(&registry.Model{Name: "xgb", Version: 2, VersionID: 7}, client)

	rec := &capture.Record{EventMetadata: capture.EventMetadata{EventID: "evt-9"}}
	inputs := tensor.Tensors{"x": {
		Dtype:       monitoringpb.DataType_DT_STRING,
		StringVal:   [][]byte{[]byte("red")},
		TensorShape: &monitoringpb.TensorShapeProto{},
	}}
	require.NoError(t, m.Analyze(context.Background(), rec, inputs, tensor.Tensors{}))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.received, 1)
	got := fake.received[0]
	assert.Equal(t, "evt-9", got.Metadata.RequestId)
	assert.Equal(t, int64(7), got.Metadata.ModelVersionId)
	assert.Equal(t, monitoringpb.DataType_DT_STRING, got.Request.Inputs["x"].Dtype)
	assert.Equal(t, [][]byte{[]byte("red")}, got.Request.Inputs["x"].StringVal)
}

func TestDataTypeJSON(t *testing.T) {
	var dt monitoringpb.DataType
	require.NoError(t, dt.UnmarshalJSON([]byte(`"DT_HALF"`)))
	assert.Equal(t, monitoringpb.DataType_DT_HALF, dt)
	require.NoError(t, dt.UnmarshalJSON([]byte(`9`)))
	assert.Equal(t, monitoringpb.DataType_DT_INT64, dt)
	assert.Error(t, dt.UnmarshalJSON([]byte(`"DT_NOPE"`)))

	b, err := monitoringpb.DataType_DT_UINT64.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"DT_UINT64"`, string(b))
}
