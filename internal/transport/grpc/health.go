package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// WatchHealth reports SERVING for the overall server and for the
// integration service while the database answers pings. It returns when
// ctx is done.
func WatchHealth(ctx context.Context, hs *health.Server, db pinger, interval time.Duration, log *slog.Logger) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	log = log.With(slog.String("component", "grpc.health"))

	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, interval/2)
		defer cancel()
		st := healthpb.HealthCheckResponse_SERVING
		if err := db.Ping(pingCtx); err != nil {
			log.Warn("database ping failed", slog.Any("err", err))
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", st)
		hs.SetServingStatus(integrationServiceName, st)
	}

	check()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			check()
		}
	}
}
