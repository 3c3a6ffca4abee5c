package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"wakie/go-backend/internal/models"
	"wakie/go-backend/internal/services"
	"wakie/go-backend/pkg/log"
	"wakie/go-backend/pkg/pb"
)

// GRPCHandler accepts landmark frames from the external detector. Replies
// acknowledge receipt only; the drowsiness state stays in this process.
type GRPCHandler struct {
	pb.UnimplementedDrowsinessDetectionServer
	monitor *services.Monitor
	control *ThresholdControl
	metrics *services.Metrics
}

func NewGRPCHandler(monitor *services.Monitor, control *ThresholdControl, metrics *services.Metrics) *GRPCHandler {
	return &GRPCHandler{
		monitor: monitor,
		control: control,
		metrics: metrics,
	}
}

func (h *GRPCHandler) PushFrame(ctx context.Context, req *pb.FrameRequest) (*pb.FrameAck, error) {
	if err := h.handle(req); err != nil {
		return nil, err
	}
	return &pb.FrameAck{SequenceNumber: req.SequenceNumber, Accepted: true}, nil
}

func (h *GRPCHandler) StreamFrames(stream pb.DrowsinessDetection_StreamFramesServer) error {
	streamID := uuid.NewString()
	log.Info(log.Fields{"stream": streamID}, "[handlers.GRPCHandler] stream started")

	var frames int64
	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			log.Info(log.Fields{"stream": streamID, "frames": frames},
				"[handlers.GRPCHandler] stream completed")
			return nil
		}
		if err != nil {
			if status.Code(err) == codes.Canceled {
				return nil
			}
			log.Warn(log.Fields{"stream": streamID, "error": err.Error()},
				"[handlers.GRPCHandler] stream receive failed")
			return err
		}

		ack := &pb.FrameAck{SequenceNumber: req.SequenceNumber, Accepted: true}
		if err := h.handle(req); err != nil {
			ack.Accepted = false
		} else {
			frames++
		}

		if err := stream.Send(ack); err != nil {
			log.Warn(log.Fields{"stream": streamID, "error": err.Error()},
				"[handlers.GRPCHandler] ack send failed")
			return err
		}
	}
}

func (h *GRPCHandler) SetEarThreshold(ctx context.Context, req *pb.ThresholdRequest) (*pb.ThresholdReply, error) {
	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("authorization"); len(vals) > 0 {
			token = vals[0]
		}
	}
	if !h.control.Authorize(token) {
		return nil, status.Error(codes.Unauthenticated, "invalid control token")
	}

	applied := h.control.SetEarThreshold(ctx, req.EarThreshold)
	return &pb.ThresholdReply{EarThreshold: applied}, nil
}

func (h *GRPCHandler) handle(req *pb.FrameRequest) error {
	if req == nil || len(req.Landmarks) == 0 {
		if h.metrics != nil {
			h.metrics.IncrementRejected()
		}
		return status.Error(codes.InvalidArgument, "landmarks are required")
	}

	h.monitor.HandleFrame(models.FrameEvent{
		Landmarks:   toLandmarks(req.Landmarks),
		TimestampMs: req.TimestampMs,
	})
	return nil
}

func toLandmarks(points []pb.Point) models.Landmarks {
	out := make(models.Landmarks, len(points))
	for i, p := range points {
		out[i] = models.Point{X: p.X, Y: p.Y}
	}
	return out
}
