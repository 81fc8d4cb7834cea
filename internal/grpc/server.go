package igrpc

import (
	"context"
	"errors"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name clients pass to grpc.health.v1.Health/Check to ask
// about the HTTP API specifically. The empty name reports the same status.
const ServiceName = "roamwyth.API"

const (
	defaultPingInterval = 15 * time.Second
	pingTimeout         = 3 * time.Second
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthReporter drives the standard gRPC health service from database pings.
type HealthReporter struct {
	health   *health.Server
	db       Pinger
	interval time.Duration
}

func NewHealthReporter(db Pinger) *HealthReporter {
	return &HealthReporter{health: health.NewServer(), db: db, interval: defaultPingInterval}
}

func (r *HealthReporter) checkOnce(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := r.db.PingContext(ctx); err != nil {
		log.Printf("warning: health check database ping failed: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	r.health.SetServingStatus("", status)
	r.health.SetServingStatus(ServiceName, status)
	return status
}

// Watch pings until ctx is cancelled, then marks the service as shutting down.
func (r *HealthReporter) Watch(ctx context.Context) {
	r.checkOnce(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.health.Shutdown()
			return
		case <-ticker.C:
			r.checkOnce(ctx)
		}
	}
}

func StartGRPCServer(ctx context.Context, addr string, db Pinger) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	reporter := NewHealthReporter(db)
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, reporter.health)

	go reporter.Watch(ctx)

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Printf("gRPC server error: %v", err)
		}
	}()

	return srv, nil
}
