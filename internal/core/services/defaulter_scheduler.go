package services

import (
	"context"
	"log/slog"
	"time"

	portssvc "github.com/vidyakosh/fee_ledger_app/internal/core/ports/services"
)

// DefaulterScheduler periodically reconciles the defaulters index for every
// school. Manual syncs through the API remain available while it runs; the
// per-school locks inside the service keep the two from racing.
type DefaulterScheduler struct {
	defaulterSvc    portssvc.DefaulterSvcFacade
	interval        time.Duration
	gracePeriodDays int
	logger          *slog.Logger
	stop            chan struct{}
	done            chan struct{}
}

// NewDefaulterScheduler creates a scheduler; call Start to begin ticking.
func NewDefaulterScheduler(defaulterSvc portssvc.DefaulterSvcFacade, interval time.Duration, gracePeriodDays int, logger *slog.Logger) *DefaulterScheduler {
	return &DefaulterScheduler{
		defaulterSvc:    defaulterSvc,
		interval:        interval,
		gracePeriodDays: gracePeriodDays,
		logger:          logger,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
}

// Start launches the background loop. The first run happens after one full
// interval, not immediately, so startup is not slowed by a full scan.
func (s *DefaulterScheduler) Start(ctx context.Context) {
	go s.run(ctx)
	s.logger.Info("Defaulter sync scheduler started",
		slog.Duration("interval", s.interval),
		slog.Int("grace_period_days", s.gracePeriodDays))
}

// Stop signals the loop to exit and waits for the in-flight run to finish.
func (s *DefaulterScheduler) Stop() {
	close(s.stop)
	<-s.done
	s.logger.Info("Defaulter sync scheduler stopped")
}

func (s *DefaulterScheduler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.defaulterSvc.SyncAllSchools(ctx, s.gracePeriodDays); err != nil {
				s.logger.Error("Scheduled defaulter sync finished with errors", slog.String("error", err.Error()))
			}
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
