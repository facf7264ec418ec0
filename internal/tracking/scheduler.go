package tracking

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"memefinder/internal/models"
)

// MarketData is the slice of the market-data collaborator the scheduler
// needs: one fresh snapshot per token address. A (nil, nil) return means the
// token is gone upstream and the check is skipped.
type MarketData interface {
	TokenByAddress(ctx context.Context, address string) (*models.MarketSnapshot, error)
}

// OutcomeScheduler drives outcome re-checks: it takes a bounded batch of due
// predictions, serially re-fetches each token and appends the observation,
// pausing between fetches to respect upstream rate limits. One bad fetch
// never aborts the batch — the prediction stays due for the next pass.
type OutcomeScheduler struct {
	Store  *PredictionStore
	Market MarketData
	Logger *zap.Logger

	BatchLimit int           // due predictions per pass, default 5
	FetchDelay time.Duration // pause between fetches, default 500ms

	checking atomic.Bool
}

// CheckOnce runs a single scheduling pass and returns the number of outcomes
// recorded. A pass already in flight makes the call a no-op.
func (s *OutcomeScheduler) CheckOnce(ctx context.Context) int {
	if !s.checking.CompareAndSwap(false, true) {
		return 0
	}
	defer s.checking.Store(false)

	batchLimit := s.BatchLimit
	if batchLimit <= 0 {
		batchLimit = 5
	}
	fetchDelay := s.FetchDelay
	if fetchDelay <= 0 {
		fetchDelay = 500 * time.Millisecond
	}

	due := s.Store.DueForCheck(ctx)
	if len(due) > batchLimit {
		due = due[:batchLimit]
	}

	recorded := 0
	for i, pred := range due {
		if i > 0 {
			select {
			case <-ctx.Done():
				return recorded
			case <-time.After(fetchDelay):
			}
		}

		snap, err := s.Market.TokenByAddress(ctx, pred.TokenAddress)
		if err != nil {
			s.logWarn("outcome fetch failed", pred, err)
			continue
		}
		if snap == nil {
			s.logWarn("token no longer listed", pred, nil)
			continue
		}

		if _, err := s.Store.AppendOutcome(ctx, pred.ID, snap); err != nil {
			s.logWarn("record outcome failed", pred, err)
			continue
		}
		recorded++
	}

	if s.Logger != nil && recorded > 0 {
		s.Logger.Info("outcome pass complete",
			zap.Int("due", len(due)),
			zap.Int("recorded", recorded))
	}
	return recorded
}

// Run re-checks outcomes on a fixed interval until the context is canceled.
func (s *OutcomeScheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	// First pass immediately so fresh predictions are not left waiting a
	// full interval.
	s.CheckOnce(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.CheckOnce(ctx)
		}
	}
}

func (s *OutcomeScheduler) logWarn(msg string, pred models.Prediction, err error) {
	if s.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("prediction_id", pred.ID),
		zap.String("token", pred.TokenSymbol),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.Logger.Warn(msg, fields...)
}
