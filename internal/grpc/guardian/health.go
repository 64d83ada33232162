package guardian

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"guardian-shield/pkg/logger"
)

// ServiceName is the health service name reported next to the overall status
const ServiceName = "guardian.v1.AnalysisService"

// DefaultCheckInterval is how often dependencies are probed
const DefaultCheckInterval = 10 * time.Second

// Check pings one dependency
type Check func(ctx context.Context) error

// HealthMonitor keeps the gRPC health status in line with dependency checks
type HealthMonitor struct {
	server   *health.Server
	checks   map[string]Check
	interval time.Duration
	logger   *logger.Logger
}

// RegisterHealthServer registers the gRPC health check service and returns
// the monitor that updates it
func RegisterHealthServer(grpcServer *grpc.Server, checks map[string]Check, interval time.Duration, log *logger.Logger) *HealthMonitor {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}

	m := &HealthMonitor{
		server:   health.NewServer(),
		checks:   checks,
		interval: interval,
		logger:   log.WithComponent("grpc-health"),
	}
	m.set(grpc_health_v1.HealthCheckResponse_SERVING)

	grpc_health_v1.RegisterHealthServer(grpcServer, m.server)
	return m
}

// Run probes dependencies until ctx is done, then reports NOT_SERVING
func (m *HealthMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			m.server.Shutdown()
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

// Probe runs every check once and updates the serving status
func (m *HealthMonitor) Probe(ctx context.Context) bool {
	healthy := true
	for name, check := range m.checks {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := check(cctx)
		cancel()
		if err != nil {
			m.logger.Warn().Err(err).Str("dependency", name).Msg("health check failed")
			healthy = false
		}
	}

	if healthy {
		m.set(grpc_health_v1.HealthCheckResponse_SERVING)
	} else {
		m.set(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
	return healthy
}

func (m *HealthMonitor) set(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	m.server.SetServingStatus("", status)
	m.server.SetServingStatus(ServiceName, status)
}
