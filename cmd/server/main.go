package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"wakie/go-backend/internal/alarm"
	"wakie/go-backend/internal/config"
	"wakie/go-backend/internal/database"
	"wakie/go-backend/internal/handlers"
	"wakie/go-backend/internal/services"
	"wakie/go-backend/pkg/log"
	"wakie/go-backend/pkg/pb"
)

const version = "1.0"

func main() {
	cfg, envLoaded := config.LoadConfig()

	httpPort := flag.String("http-port", cfg.HTTPPort, "HTTP port")
	grpcPort := flag.String("grpc-port", cfg.GRPCPort, "gRPC port")
	alarmMode := flag.String("alarm", cfg.AlarmMode, "alarm output: beep, serial or none")
	flag.Parse()
	cfg.AlarmMode = *alarmMode

	log.NewLogger(log.Options{Level: cfg.LogLevel, File: cfg.LogFile, NoColor: !cfg.IsDev()})
	if !envLoaded {
		log.Debug(nil, "[main] no .env file, using process environment")
	}

	log.Info(log.Fields{
		"grpc_port":   *grpcPort,
		"http_port":   *httpPort,
		"environment": cfg.Environment,
		"alarm":       cfg.AlarmMode,
		"profile":     cfg.Profile,
	}, "[main] starting drowsiness monitor")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	thresholds := config.NewThresholdConfig(cfg.Thresholds)

	var store handlers.PreferenceStore
	if cfg.StoreEnabled() {
		log.Info(log.Fields{"dsn": cfg.DSNForLog()}, "[main] connecting preference store")
		db, err := database.Open(ctx, cfg.DSN())
		if err != nil {
			log.Warn(log.Fields{"error": err.Error()}, "[main] preference store unavailable, continuing without it")
		} else {
			ts := database.NewThresholdStore(db)
			defer ts.Close()
			store = ts

			pref, err := ts.LoadEarThreshold(ctx, cfg.Profile)
			switch {
			case err == nil:
				applied := thresholds.SetEarThreshold(pref.EarThreshold)
				log.Info(log.Fields{"ear_threshold": applied, "saved_at": pref.UpdatedAt}, "[main] restored EAR threshold")
			case errors.Is(err, database.ErrNoPreference):
			default:
				log.Warn(log.Fields{"error": err.Error()}, "[main] could not load EAR threshold")
			}
		}
	}

	ctrl, err := alarm.New(cfg)
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "[main] alarm setup failed")
	}

	metrics := services.NewMetrics(thresholds)
	monitor := services.NewMonitor(thresholds, ctrl, metrics, services.LogObserver())
	control := handlers.NewThresholdControl(thresholds, handlers.NewControlAuth(cfg.ControlTokenHash), store, cfg.Profile)
	hub := handlers.NewHub(control, metrics, cfg.CORSOrigins)

	maxMsg := cfg.MaxMessageSizeMB * 1024 * 1024
	if maxMsg <= 0 {
		maxMsg = 4 * 1024 * 1024
	}
	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMsg),
		grpc.MaxSendMsgSize(maxMsg),
	)
	pb.RegisterDrowsinessDetectionServer(grpcServer, handlers.NewGRPCHandler(monitor, control, metrics))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(pb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	httpServer := &http.Server{
		Addr:         ":" + trimPort(*httpPort),
		Handler:      handlers.NewHandlers(monitor, control, metrics, hub, cfg.CORSOrigins, version).Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go startGRPCServer(grpcServer, *grpcPort)
	go startHTTPServer(httpServer)

	<-ctx.Done()
	log.Info(nil, "[main] shutting down")

	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		log.Info(nil, "[main] gRPC server stopped")
	case <-shutdownCtx.Done():
		log.Warn(nil, "[main] forcing gRPC shutdown")
		grpcServer.Stop()
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn(log.Fields{"error": err.Error()}, "[main] HTTP shutdown failed")
	}

	hub.CloseAll()

	// frame sources are gone; silence the alarm last
	monitor.Shutdown()
	log.Info(nil, "[main] goodbye")
}

func trimPort(port string) string {
	if len(port) > 0 && port[0] == ':' {
		return port[1:]
	}
	return port
}

func startGRPCServer(srv *grpc.Server, port string) {
	lis, err := net.Listen("tcp", ":"+trimPort(port))
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "[main] failed to listen on gRPC port")
	}

	log.Info(log.Fields{"addr": lis.Addr().String()}, "[main] gRPC server listening")
	if err := srv.Serve(lis); err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "[main] gRPC server failed")
	}
}

func startHTTPServer(srv *http.Server) {
	log.Info(log.Fields{"addr": srv.Addr}, "[main] HTTP server listening (/api, /ws, /metrics)")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(log.Fields{"error": err.Error()}, "[main] HTTP server failed")
	}
}
