package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewGRPCServer registers the fill service and the standard health service.
// Both the overall status and the fill service's status start as SERVING.
func NewGRPCServer(fill FillServiceServer, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	gs := grpc.NewServer(opts...)
	RegisterFillServiceServer(gs, fill)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(FillServiceName, healthpb.HealthCheckResponse_SERVING)
	return gs, hs
}
