package services

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	"wakie/go-backend/pkg/log"
	"wakie/go-backend/pkg/pb"
)

// GRPCClient is what a landmark detector (or the scenario client) uses to
// feed frames into a running server.
type GRPCClient struct {
	conn     *grpc.ClientConn
	client   pb.DrowsinessDetectionClient
	health   healthpb.HealthClient
	url      string
	token    string
	dialOpts []grpc.DialOption
}

type ClientOption func(*GRPCClient)

// WithControlToken attaches the token sent with threshold commands.
func WithControlToken(token string) ClientOption {
	return func(c *GRPCClient) {
		c.token = token
	}
}

// WithDialOptions appends dial options, e.g. a custom dialer.
func WithDialOptions(opts ...grpc.DialOption) ClientOption {
	return func(c *GRPCClient) {
		c.dialOpts = append(c.dialOpts, opts...)
	}
}

func NewGRPCClient(url string, opts ...ClientOption) (*GRPCClient, error) {
	gc := &GRPCClient{url: url}
	for _, opt := range opts {
		opt(gc)
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             3 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	dialOpts = append(dialOpts, gc.dialOpts...)

	conn, err := grpc.NewClient(url, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("could not create gRPC client for %s: %w", url, err)
	}

	gc.conn = conn
	gc.client = pb.NewDrowsinessDetectionClient(conn)
	gc.health = healthpb.NewHealthClient(conn)

	log.Info(log.Fields{"url": url}, "[services.GRPCClient] client ready")
	return gc, nil
}

func (gc *GRPCClient) PushFrame(ctx context.Context, frame *pb.FrameRequest) (*pb.FrameAck, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ack, err := gc.client.PushFrame(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("could not push frame %d: %w", frame.SequenceNumber, err)
	}
	return ack, nil
}

func (gc *GRPCClient) StartStream(ctx context.Context) (pb.DrowsinessDetection_StreamFramesClient, error) {
	stream, err := gc.client.StreamFrames(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not open frame stream: %w", err)
	}
	return stream, nil
}

func (gc *GRPCClient) SetEarThreshold(ctx context.Context, value float64) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if gc.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", gc.token)
	}

	reply, err := gc.client.SetEarThreshold(ctx, &pb.ThresholdRequest{EarThreshold: value})
	if err != nil {
		return 0, fmt.Errorf("could not set EAR threshold: %w", err)
	}
	return reply.EarThreshold, nil
}

func (gc *GRPCClient) HealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// same JSON content-subtype as the detection calls
	resp, err := gc.health.Check(ctx, &healthpb.HealthCheckRequest{Service: pb.ServiceName},
		grpc.CallContentSubtype(pb.CodecName))
	return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
}

func (gc *GRPCClient) Close() error {
	if gc.conn != nil {
		return gc.conn.Close()
	}
	return nil
}
