package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"wakie/go-backend/internal/detection"
	"wakie/go-backend/internal/services"
	"wakie/go-backend/pkg/pb"
)

type phase struct {
	name   string
	frames int
	ear    float64
	mar    float64
}

// The drowsy phase runs past the 24 frame lock; recovery runs past the 15
// frame wake count so the server alarm starts and stops once each.
var scenario = []phase{
	{name: "awake", frames: 30, ear: 0.30, mar: 0.10},
	{name: "drowsy", frames: 30, ear: 0.08, mar: 0.10},
	{name: "recover", frames: 20, ear: 0.30, mar: 0.10},
	{name: "yawn", frames: 20, ear: 0.30, mar: 0.70},
	{name: "awake", frames: 10, ear: 0.30, mar: 0.10},
}

func testHTTPHealth(baseURL string) error {
	fmt.Println("\n[TEST] Testing /api/health...")
	resp, err := http.Get(baseURL + "/api/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d, body: %s", resp.StatusCode, string(body))
	}
	fmt.Printf("✓ Health check: %s\n", strings.TrimSpace(string(body)))
	return nil
}

func testGRPCHealth(client *services.GRPCClient) error {
	fmt.Println("\n[TEST] Testing gRPC health...")
	if !client.HealthCheck() {
		return fmt.Errorf("detection service is not SERVING")
	}
	fmt.Println("✓ gRPC health: SERVING")
	return nil
}

func testThreshold(client *services.GRPCClient, value float64) error {
	fmt.Printf("\n[TEST] Setting EAR threshold to %.3f...\n", value)
	applied, err := client.SetEarThreshold(context.Background(), value)
	if err != nil {
		return err
	}
	fmt.Printf("✓ EAR threshold applied: %.3f\n", applied)
	return nil
}

func runScenario(client *services.GRPCClient, interval time.Duration) ([]float64, error) {
	fmt.Println("\n[TEST] Streaming synthetic landmark frames...")

	stream, err := client.StartStream(context.Background())
	if err != nil {
		return nil, err
	}

	var (
		seq       int64
		latencies []float64
		ts        = time.Now().UnixMilli()
	)

	for _, p := range scenario {
		landmarks := detection.SyntheticLandmarks(p.ear, p.mar)
		points := make([]pb.Point, len(landmarks))
		for i, lm := range landmarks {
			points[i] = pb.Point{X: lm.X, Y: lm.Y}
		}

		for i := 0; i < p.frames; i++ {
			seq++
			ts += interval.Milliseconds()

			start := time.Now()
			if err := stream.Send(&pb.FrameRequest{SequenceNumber: seq, TimestampMs: ts, Landmarks: points}); err != nil {
				return latencies, fmt.Errorf("send frame %d: %w", seq, err)
			}
			ack, err := stream.Recv()
			if err != nil {
				return latencies, fmt.Errorf("receive ack %d: %w", seq, err)
			}
			if !ack.Accepted {
				return latencies, fmt.Errorf("frame %d rejected", seq)
			}
			latencies = append(latencies, float64(time.Since(start).Microseconds())/1000)

			time.Sleep(interval)
		}
		fmt.Printf("✓ Phase %-8s %3d frames (EAR %.2f, MAR %.2f)\n", p.name, p.frames, p.ear, p.mar)
	}

	if err := stream.CloseSend(); err != nil {
		return latencies, err
	}
	if _, err := stream.Recv(); err != io.EOF {
		return latencies, fmt.Errorf("stream did not close cleanly: %v", err)
	}
	return latencies, nil
}

func printLatency(latencies []float64) {
	if len(latencies) == 0 {
		return
	}
	sorted := append([]float64(nil), latencies...)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	p50 := stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p95 := stat.Quantile(0.95, stat.Empirical, sorted, nil)

	fmt.Printf("\nAck latency over %d frames: mean %.2f ms, std %.2f ms, p50 %.2f ms, p95 %.2f ms\n",
		len(sorted), mean, std, p50, p95)
}

func main() {
	grpcAddr := flag.String("grpc", "localhost:50051", "gRPC address of the server")
	httpURL := flag.String("http", "http://localhost:8081", "HTTP base URL of the server")
	token := flag.String("token", os.Getenv("CONTROL_TOKEN"), "control token for threshold commands")
	fps := flag.Int("fps", 30, "frames per second to simulate")
	flag.Parse()

	if *fps <= 0 {
		*fps = 30
	}
	interval := time.Second / time.Duration(*fps)

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Drowsiness monitor - scenario client")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("\n[INFO] Server alarm should sound during the drowsy phase and stop during recovery")

	client, err := services.NewGRPCClient(*grpcAddr, services.WithControlToken(*token))
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if err := testHTTPHealth(*httpURL); err != nil {
		fmt.Printf("⚠ %v\n", err)
	}
	if err := testGRPCHealth(client); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	latencies, err := runScenario(client, interval)
	printLatency(latencies)
	if err != nil {
		fmt.Printf("❌ Scenario failed: %v\n", err)
		os.Exit(1)
	}

	if err := testThreshold(client, 0.18); err != nil {
		fmt.Printf("⚠ Threshold update failed: %v\n", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("✅ All scenario phases completed")
	fmt.Println(strings.Repeat("=", 60))
}
