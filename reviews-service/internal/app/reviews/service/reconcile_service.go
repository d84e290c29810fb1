package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stagereviews/pkg/logger"
	"stagereviews/pkg/metrics"
	"stagereviews/reviews-service/internal/app/reviews/entity"
	"stagereviews/reviews-service/internal/app/reviews/infrastructure"
	"stagereviews/reviews-service/internal/app/reviews/repository"

	"github.com/google/uuid"
)

// ReconcileService сверяет сохраненные агрегаты с пересчетом по строкам отзывов.
// Расхождения пишутся в журнал (MongoDB), при repair агрегат перезаписывается
type ReconcileService struct {
	reviewRepo repository.ReviewRepository
	transactor repository.Transactor
	audits     repository.AuditRepository
	cache      infrastructure.AverageCache
	repair     bool
}

func NewReconcileService(
	reviewRepo repository.ReviewRepository,
	transactor repository.Transactor,
	audits repository.AuditRepository,
	cache infrastructure.AverageCache,
	repair bool,
) *ReconcileService {
	return &ReconcileService{
		reviewRepo: reviewRepo,
		transactor: transactor,
		audits:     audits,
		cache:      cache,
		repair:     repair,
	}
}

// Reconcile проходит по всем парам с оценками.
// Ошибка одной пары не останавливает прогон, она учитывается в Failed
func (s *ReconcileService) Reconcile(ctx context.Context) (*entity.ReconcileReport, error) {
	timer := metrics.NewTimer()
	report := &entity.ReconcileReport{Started: time.Now().UTC()}

	pairs, err := s.reviewRepo.ListRatedPairs(ctx)
	if err != nil {
		metrics.RecordReconcileRun(err, timer.Duration())
		return nil, fmt.Errorf("failed to list pairs: %w", err)
	}

	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			metrics.RecordReconcileRun(err, timer.Duration())
			return report, err
		}

		report.Checked++
		audit, err := s.reconcilePair(ctx, pair.ArtistID, pair.EventID)
		if err != nil {
			report.Failed++
			logger.Error().Err(err).
				Str("artist_id", pair.ArtistID.String()).
				Str("event_id", pair.EventID.String()).
				Msg("Failed to reconcile average")
			continue
		}
		if audit == nil {
			continue
		}

		report.Drifted++
		if audit.Repaired {
			report.Repaired++
		}
		s.recordDrift(ctx, pair, audit)
	}

	report.Finished = time.Now().UTC()
	metrics.RecordReconcileRun(nil, timer.Duration())

	logger.Info().
		Int("checked", report.Checked).
		Int("drifted", report.Drifted).
		Int("repaired", report.Repaired).
		Int("failed", report.Failed).
		Msg("Average reconciliation finished")

	return report, nil
}

// reconcilePair возвращает запись журнала при расхождении и nil, если агрегат верен.
// Агрегат блокируется на время пересчета, чтобы не разойтись с новыми оценками
func (s *ReconcileService) reconcilePair(ctx context.Context, artistID, eventID uuid.UUID) (*entity.AggregateAudit, error) {
	var audit *entity.AggregateAudit

	err := s.transactor.WithinTransaction(ctx, func(reviews repository.ReviewRepository, averages repository.AverageRepository) error {
		stored, err := averages.GetForUpdate(ctx, artistID, eventID)
		if err != nil && !errors.Is(err, repository.ErrAverageNotFound) {
			return err
		}

		hist, err := reviews.ScoreCounts(ctx, artistID, eventID)
		if err != nil {
			return err
		}
		recomputed := entity.AverageFromHistogram(artistID, eventID, hist)

		if stored == nil && recomputed.Count == 0 {
			return nil
		}
		if stored.SameAs(recomputed) {
			return nil
		}

		audit = &entity.AggregateAudit{
			ArtistID:   artistID.String(),
			EventID:    eventID.String(),
			Recomputed: entity.SnapshotOf(recomputed),
		}
		if stored != nil {
			snapshot := entity.SnapshotOf(stored)
			audit.Stored = &snapshot
		}

		if !s.repair {
			return nil
		}
		if err := averages.Save(ctx, recomputed); err != nil {
			return err
		}
		audit.Repaired = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	return audit, nil
}

func (s *ReconcileService) recordDrift(ctx context.Context, pair entity.PairKey, audit *entity.AggregateAudit) {
	metrics.RecordAggregateDrift(audit.Repaired)

	logger.Warn().
		Str("artist_id", audit.ArtistID).
		Str("event_id", audit.EventID).
		Int("recomputed_count", audit.Recomputed.Count).
		Float64("recomputed_value", audit.Recomputed.Value).
		Bool("repaired", audit.Repaired).
		Msg("Average drift detected")

	if err := s.audits.Insert(ctx, audit); err != nil {
		logger.Error().Err(err).Msg("Failed to write aggregate audit")
	}

	if audit.Repaired && s.cache != nil {
		if err := s.cache.DeleteAverage(ctx, pair.ArtistID, pair.EventID); err != nil {
			logger.Warn().Err(err).Msg("Failed to invalidate cached average")
		}
	}
}

// RecentAudits - последние записи журнала сверок
func (s *ReconcileService) RecentAudits(ctx context.Context, limit int64) ([]entity.AggregateAudit, error) {
	return s.audits.ListRecent(ctx, limit)
}
