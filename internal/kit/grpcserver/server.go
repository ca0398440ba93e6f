package grpcserver

import (
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// Server gRPC 服務，提供標準 health check 給 k8s / 負載平衡探測
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	services []string
	logger   *slog.Logger
}

// New 建立 gRPC Server 並註冊 health 與 reflection。
// services 為需要回報狀態的服務名稱，空字串代表整體狀態一律包含在內。
func New(logger *slog.Logger, services ...string) *Server {
	grpcServer := grpc.NewServer(
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)

	s := &Server{
		grpc:     grpcServer,
		health:   hs,
		services: append([]string{""}, services...),
		logger:   logger.With("component", "grpc_server"),
	}
	s.SetServing(true)
	return s
}

// SetServing 切換所有服務的健康狀態
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	for _, name := range s.services {
		s.health.SetServingStatus(name, status)
	}
}

// Serve 在 lis 上提供服務，直到 Stop 被呼叫
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// Stop 先回報 NOT_SERVING 讓探測摘除流量，再優雅關閉
func (s *Server) Stop() {
	s.SetServing(false)
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
