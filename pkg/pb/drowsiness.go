// Package pb defines the drowsiness.v1.DrowsinessDetection gRPC service.
// Messages travel as JSON (see CodecName); the descriptors below play the
// role protoc-gen-go-grpc output would.
package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "drowsiness.v1.DrowsinessDetection"

	PushFrameMethod       = "/drowsiness.v1.DrowsinessDetection/PushFrame"
	StreamFramesMethod    = "/drowsiness.v1.DrowsinessDetection/StreamFrames"
	SetEarThresholdMethod = "/drowsiness.v1.DrowsinessDetection/SetEarThreshold"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type FrameRequest struct {
	SequenceNumber int64   `json:"sequence_number"`
	TimestampMs    int64   `json:"timestamp_ms"`
	Landmarks      []Point `json:"landmarks"`
}

// FrameAck confirms a frame reached the engine. It never carries the
// resulting drowsiness state.
type FrameAck struct {
	SequenceNumber int64 `json:"sequence_number"`
	Accepted       bool  `json:"accepted"`
}

type ThresholdRequest struct {
	EarThreshold float64 `json:"ear_threshold"`
}

type ThresholdReply struct {
	EarThreshold float64 `json:"ear_threshold"`
}

// Client

type DrowsinessDetectionClient interface {
	PushFrame(ctx context.Context, in *FrameRequest, opts ...grpc.CallOption) (*FrameAck, error)
	StreamFrames(ctx context.Context, opts ...grpc.CallOption) (DrowsinessDetection_StreamFramesClient, error)
	SetEarThreshold(ctx context.Context, in *ThresholdRequest, opts ...grpc.CallOption) (*ThresholdReply, error)
}

type drowsinessDetectionClient struct {
	cc grpc.ClientConnInterface
}

func NewDrowsinessDetectionClient(cc grpc.ClientConnInterface) DrowsinessDetectionClient {
	return &drowsinessDetectionClient{cc}
}

func withJSON(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *drowsinessDetectionClient) PushFrame(ctx context.Context, in *FrameRequest, opts ...grpc.CallOption) (*FrameAck, error) {
	out := new(FrameAck)
	if err := c.cc.Invoke(ctx, PushFrameMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *drowsinessDetectionClient) StreamFrames(ctx context.Context, opts ...grpc.CallOption) (DrowsinessDetection_StreamFramesClient, error) {
	stream, err := c.cc.NewStream(ctx, &DrowsinessDetection_ServiceDesc.Streams[0], StreamFramesMethod, withJSON(opts)...)
	if err != nil {
		return nil, err
	}
	return &streamFramesClient{stream}, nil
}

func (c *drowsinessDetectionClient) SetEarThreshold(ctx context.Context, in *ThresholdRequest, opts ...grpc.CallOption) (*ThresholdReply, error) {
	out := new(ThresholdReply)
	if err := c.cc.Invoke(ctx, SetEarThresholdMethod, in, out, withJSON(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

type DrowsinessDetection_StreamFramesClient interface {
	Send(*FrameRequest) error
	Recv() (*FrameAck, error)
	grpc.ClientStream
}

type streamFramesClient struct {
	grpc.ClientStream
}

func (x *streamFramesClient) Send(m *FrameRequest) error {
	return x.ClientStream.SendMsg(m)
}

func (x *streamFramesClient) Recv() (*FrameAck, error) {
	m := new(FrameAck)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Server

type DrowsinessDetectionServer interface {
	PushFrame(context.Context, *FrameRequest) (*FrameAck, error)
	StreamFrames(DrowsinessDetection_StreamFramesServer) error
	SetEarThreshold(context.Context, *ThresholdRequest) (*ThresholdReply, error)
}

type UnimplementedDrowsinessDetectionServer struct{}

func (UnimplementedDrowsinessDetectionServer) PushFrame(context.Context, *FrameRequest) (*FrameAck, error) {
	return nil, status.Error(codes.Unimplemented, "method PushFrame not implemented")
}

func (UnimplementedDrowsinessDetectionServer) StreamFrames(DrowsinessDetection_StreamFramesServer) error {
	return status.Error(codes.Unimplemented, "method StreamFrames not implemented")
}

func (UnimplementedDrowsinessDetectionServer) SetEarThreshold(context.Context, *ThresholdRequest) (*ThresholdReply, error) {
	return nil, status.Error(codes.Unimplemented, "method SetEarThreshold not implemented")
}

func RegisterDrowsinessDetectionServer(s grpc.ServiceRegistrar, srv DrowsinessDetectionServer) {
	s.RegisterService(&DrowsinessDetection_ServiceDesc, srv)
}

type DrowsinessDetection_StreamFramesServer interface {
	Send(*FrameAck) error
	Recv() (*FrameRequest, error)
	grpc.ServerStream
}

type streamFramesServer struct {
	grpc.ServerStream
}

func (x *streamFramesServer) Send(m *FrameAck) error {
	return x.ServerStream.SendMsg(m)
}

func (x *streamFramesServer) Recv() (*FrameRequest, error) {
	m := new(FrameRequest)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _DrowsinessDetection_PushFrame_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(FrameRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DrowsinessDetectionServer).PushFrame(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PushFrameMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DrowsinessDetectionServer).PushFrame(ctx, req.(*FrameRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _DrowsinessDetection_SetEarThreshold_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ThresholdRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DrowsinessDetectionServer).SetEarThreshold(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SetEarThresholdMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DrowsinessDetectionServer).SetEarThreshold(ctx, req.(*ThresholdRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _DrowsinessDetection_StreamFrames_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(DrowsinessDetectionServer).StreamFrames(&streamFramesServer{stream})
}

var DrowsinessDetection_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DrowsinessDetectionServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PushFrame",
			Handler:    _DrowsinessDetection_PushFrame_Handler,
		},
		{
			MethodName: "SetEarThreshold",
			Handler:    _DrowsinessDetection_SetEarThreshold_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamFrames",
			Handler:       _DrowsinessDetection_StreamFrames_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "pkg/pb/drowsiness.go",
}
