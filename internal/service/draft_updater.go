package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/metrics"
)

// ExcludedNote is the error text carried by the outcome of an excluded candidate
const ExcludedNote = "excluded"

// NotAttemptedPrefix starts the error text of candidates skipped after the deadline
const NotAttemptedPrefix = "not attempted: "

const defaultUpdatePacing = 250 * time.Millisecond

// DraftUpdater demotes candidates to draft one at a time
type DraftUpdater struct {
	writer  StatusWriter
	pacing  time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewDraftUpdater(writer StatusWriter, pacing time.Duration, logger *zap.Logger, m *metrics.Metrics) *DraftUpdater {
	if pacing <= 0 {
		pacing = defaultUpdatePacing
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftUpdater{writer: writer, pacing: pacing, logger: logger, metrics: m}
}

// Update returns one outcome per candidate, in order. Excluded candidates are
// reported as successful without a remote call; a failed update never stops
// the batch. Once ctx is done no further calls are made and the remaining
// eligible candidates are reported as not attempted. onOutcome, when non-nil,
// sees each outcome as it is produced.
func (u *DraftUpdater) Update(ctx context.Context, candidates []domain.NoStockCandidate, onOutcome func(domain.UpdateOutcome)) []domain.UpdateOutcome {
	outcomes := make([]domain.UpdateOutcome, 0, len(candidates))
	stopped := false
	for i, c := range candidates {
		outcome := domain.UpdateOutcome{ProductID: c.ID, Title: c.Title}

		switch {
		case c.IsExcluded:
			note := ExcludedNote
			outcome.Success = true
			outcome.Error = &note
			u.metrics.RecordDraftUpdate("excluded")
			u.logger.Info("Skipping excluded product", zap.String("product_id", c.ID), zap.String("title", c.Title))
		case ctx.Err() != nil:
			if !stopped {
				stopped = true
				u.logger.Warn("Stopping draft updates, operation deadline reached",
					zap.Int("remaining", len(candidates)-i), zap.Error(ctx.Err()))
			}
			msg := NotAttemptedPrefix + ctx.Err().Error()
			outcome.Error = &msg
			u.metrics.RecordDraftUpdate("not_attempted")
		default:
			err := u.writer.UpdateProductStatus(ctx, c.ID, domain.ProductStatusDraft)
			if err != nil {
				msg := err.Error()
				outcome.Error = &msg
				u.metrics.RecordDraftUpdate("failed")
				u.logger.Warn("Failed to set product to draft", zap.String("product_id", c.ID), zap.Error(err))
			} else {
				outcome.Success = true
				u.metrics.RecordDraftUpdate("updated")
				u.logger.Info("Product set to draft", zap.String("product_id", c.ID), zap.String("title", c.Title))
			}
			if i < len(candidates)-1 {
				// only fails when ctx is done; the next iteration stops the batch
				if err := u.writer.Throttle(ctx, u.pacing); err != nil {
					u.logger.Warn("Update pacing interrupted", zap.Error(err))
				}
			}
		}

		outcomes = append(outcomes, outcome)
		if onOutcome != nil {
			onOutcome(outcome)
		}
	}
	return outcomes
}

// Summarize aggregates a run. Outcomes of excluded candidates are counted as
// excluded only, never as successful updates.
func Summarize(candidates []domain.NoStockCandidate, outcomes []domain.UpdateOutcome) domain.UpdateSummary {
	excluded := map[string]bool{}
	summary := domain.UpdateSummary{TotalFound: len(candidates)}
	for _, c := range candidates {
		if c.IsExcluded {
			excluded[c.ID] = true
			summary.ExcludedCount++
		}
	}
	summary.EligibleCount = summary.TotalFound - summary.ExcludedCount

	for _, o := range outcomes {
		if excluded[o.ProductID] {
			continue
		}
		if o.Success {
			summary.SuccessfulUpdates++
		} else {
			summary.FailedUpdates++
		}
	}
	return summary
}
