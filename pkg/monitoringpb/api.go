package monitoringpb

import (
	context "context"
	"encoding/json"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	status "google.golang.org/grpc/status"
	emptypb "google.golang.org/protobuf/types/known/emptypb"
)

// CodecName is the gRPC content-subtype of the messages in this package.
const CodecName = "json"

// Codec marshals the hand-written messages as JSON.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (Codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (Codec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(Codec{})
}

// Client API
type MonitoringServiceClient interface {
	Analyze(ctx context.Context, in *ExecutionInformation, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type monitoringServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMonitoringServiceClient(cc grpc.ClientConnInterface) MonitoringServiceClient {
	return &monitoringServiceClient{cc}
}

func (c *monitoringServiceClient) Analyze(ctx context.Context, in *ExecutionInformation, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	err := c.cc.Invoke(ctx, "/hydrosphere.monitoring.MonitoringService/Analyze", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Server API
type MonitoringServiceServer interface {
	Analyze(context.Context, *ExecutionInformation) (*emptypb.Empty, error)
}

type UnimplementedMonitoringServiceServer struct{}

func (*UnimplementedMonitoringServiceServer) Analyze(context.Context, *ExecutionInformation) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Analyze not implemented")
}

func RegisterMonitoringServiceServer(s *grpc.Server, srv MonitoringServiceServer) {
	s.RegisterService(&_MonitoringService_serviceDesc, srv)
}

func _MonitoringService_Analyze_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ExecutionInformation)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MonitoringServiceServer).Analyze(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/hydrosphere.monitoring.MonitoringService/Analyze",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MonitoringServiceServer).Analyze(ctx, req.(*ExecutionInformation))
	}
	return interceptor(ctx, in, info, handler)
}

var _MonitoringService_serviceDesc = grpc.ServiceDesc{
	ServiceName: "hydrosphere.monitoring.MonitoringService",
	HandlerType: (*MonitoringServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Analyze",
			Handler:    _MonitoringService_Analyze_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hydro_serving_grpc/monitoring/api.proto",
}
