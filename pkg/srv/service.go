package srv

import (
	"context"
	"fmt"
	"time"

	"github.com/saxil/mareen/pkg/log"
)

// shutdownTimeout bounds each Shutdown call once the run context is gone.
const shutdownTimeout = 5 * time.Second

// Service is a long-running component driven by the process lifecycle.
// Start blocks until ctx is cancelled or the service stops on its own.
type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// StartServices runs every service in its own goroutine. The returned
// channel yields the first start failure; it is never closed.
func StartServices(ctx context.Context, services []Service) <-chan error {
	failed := make(chan error, 1)
	for _, service := range services {
		go func(service Service) {
			err := service.Start(ctx)
			if err == nil || ctx.Err() != nil {
				return
			}
			log.FromCtx(ctx).Error().Err(err).Msgf("%T stopped", service)
			select {
			case failed <- fmt.Errorf("%T: %w", service, err):
			default:
			}
		}(service)
	}
	return failed
}

// ShutdownServices waits for ctx to end and stops services in reverse
// start order, so later services may still rely on earlier ones.
func ShutdownServices(ctx context.Context, services []Service) {
	<-ctx.Done()
	logger := log.FromCtx(ctx)

	for i := len(services) - 1; i >= 0; i-- {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		if err := services[i].Shutdown(sctx); err != nil {
			logger.Error().Err(err).Msgf("%T failed to shutdown", services[i])
		}
		cancel()
	}
}
