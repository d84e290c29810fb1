package processor

import (
	"context"

	"stagereviews/pkg/logger"
	"stagereviews/reviews-service/internal/app/reviews/service"

	"github.com/robfig/cron/v3"
)

// CronScheduler периодически запускает сверку агрегатов
type CronScheduler struct {
	cron      *cron.Cron
	reconcile service.ReconcileServiceInterface
}

func NewCronScheduler(reconcile service.ReconcileServiceInterface) *CronScheduler {
	c := cron.New(
		cron.WithLogger(cron.PrintfLogger(logger.NewPrintfAdapter(false))),
		// Следующий запуск не стартует, пока не закончился предыдущий
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &CronScheduler{
		cron:      c,
		reconcile: reconcile,
	}
}

func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cron scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		logger.Info().Msg("Cron job triggered: reconciling review averages")
		s.run(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("Cron scheduler started")

	return nil
}

// RunNow - внеочередная сверка (при старте воркера)
func (s *CronScheduler) RunNow(ctx context.Context) {
	logger.Info().Msg("Performing initial reconciliation...")
	s.run(ctx)
}

func (s *CronScheduler) run(ctx context.Context) {
	report, err := s.reconcile.Reconcile(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to reconcile review averages")
		return
	}

	logger.Info().
		Int("checked", report.Checked).
		Int("drifted", report.Drifted).
		Int("repaired", report.Repaired).
		Int("failed", report.Failed).
		Msg("Cron job completed: review averages reconciled")
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
