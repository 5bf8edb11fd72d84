package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	checkInterval = 15 * time.Second
	checkTimeout  = 3 * time.Second
)

// Pinger is a dependency whose reachability decides the serving status.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer exposes the standard gRPC health service. The overall status
// ("") and the named service follow periodic pings of the dependencies.
type HealthServer struct {
	name   string
	addr   string
	srv    *grpc.Server
	health *health.Server
	deps   map[string]Pinger
	logger *zap.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewHealthServer(name, addr string, deps map[string]Pinger, logger *zap.Logger) *HealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &HealthServer{
		name:   name,
		addr:   addr,
		srv:    srv,
		health: hs,
		deps:   deps,
		logger: logger.Named("grpc-health"),
		stop:   make(chan struct{}),
	}
}

// Start listens on the configured address and serves in the background.
func (s *HealthServer) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.Serve(lis)
	return nil
}

// Serve serves on lis in the background and starts the dependency watcher.
func (s *HealthServer) Serve(lis net.Listener) {
	s.Check(context.Background())

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.srv.Serve(lis); err != nil {
			s.logger.Error("gRPC server stopped", zap.Error(err))
		}
	}()
	go func() {
		defer s.wg.Done()
		s.watch()
	}()

	s.logger.Info("gRPC health server started", zap.String("address", lis.Addr().String()))
}

func (s *HealthServer) watch() {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Check(context.Background())
		}
	}
}

// Check pings every dependency once and updates the serving status.
func (s *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, dep := range s.deps {
		pctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := dep.Ping(pctx)
		cancel()
		if err != nil {
			s.logger.Warn("Dependency unhealthy", zap.String("dependency", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.name, status)
	return status
}

func (s *HealthServer) Stop() {
	close(s.stop)
	s.health.Shutdown()
	s.srv.GracefulStop()
	s.wg.Wait()
}
