// Package scanner finds candidate pairs, scores them, and records a
// prediction for every token that qualifies. It is the producing end of the
// tracking loop; the outcome scheduler is the consuming end.
package scanner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"memefinder/internal/models"
	"memefinder/internal/scoring"
	"memefinder/internal/socialdata"
	"memefinder/internal/tracking"
)

// MarketSource lists candidate pairs to score.
type MarketSource interface {
	TrendingTokens(ctx context.Context) ([]*models.MarketSnapshot, error)
	LatestTokens(ctx context.Context) ([]*models.MarketSnapshot, error)
}

// MentionSource is the optional social-mentions collaborator.
type MentionSource interface {
	SearchMentions(ctx context.Context, symbol, name, address string) (*socialdata.Sentiment, error)
}

// Scanner scores trending and newly profiled pairs and tracks the ones worth
// a prediction: run-potential grade A or B in the accumulation or
// early-momentum phase.
type Scanner struct {
	Market   MarketSource
	Mentions MentionSource // nil disables the Reddit blend
	Store    *tracking.PredictionStore
	Logger   *zap.Logger

	Filter models.SnapshotFilter

	// Now is overridable for tests; defaults to time.Now().UTC().
	Now func() time.Time
}

func (s *Scanner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// ScanOnce fetches candidates, scores them, and records qualifying
// predictions. Returns the number recorded. Source failures degrade to an
// empty candidate list.
func (s *Scanner) ScanOnce(ctx context.Context) int {
	now := s.now()
	recorded := 0

	for _, snap := range s.candidates(ctx) {
		if !s.Filter.Match(snap, now) {
			continue
		}

		run := scoring.RunPotential(snap, now)
		if !qualifies(run) {
			continue
		}

		safety := scoring.SafetyScore(snap, now)
		social := s.socialScore(ctx, snap)

		if _, err := s.Store.Record(ctx, snap, tracking.ScoreInputs{
			RunPotential: run,
			SafetyScore:  safety.Score,
			SocialScore:  social,
		}); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("record prediction failed",
					zap.String("token", snap.TokenSymbol), zap.Error(err))
			}
			continue
		}
		recorded++
		if s.Logger != nil {
			s.Logger.Info("prediction recorded",
				zap.String("token", snap.TokenSymbol),
				zap.Int("score", run.Score),
				zap.String("grade", string(run.Grade)),
				zap.String("phase", string(run.Phase)))
		}
	}
	return recorded
}

// Run scans on a fixed interval until the context is canceled.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	s.ScanOnce(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.ScanOnce(ctx)
		}
	}
}

// candidates merges trending and latest pairs, first listing wins per token.
func (s *Scanner) candidates(ctx context.Context) []*models.MarketSnapshot {
	var out []*models.MarketSnapshot
	seen := map[string]bool{}

	trending, err := s.Market.TrendingTokens(ctx)
	if err != nil && s.Logger != nil {
		s.Logger.Warn("trending fetch failed", zap.Error(err))
	}
	latest, err := s.Market.LatestTokens(ctx)
	if err != nil && s.Logger != nil {
		s.Logger.Warn("latest fetch failed", zap.Error(err))
	}

	for _, snap := range append(trending, latest...) {
		if snap == nil || seen[snap.TokenAddress] {
			continue
		}
		seen[snap.TokenAddress] = true
		out = append(out, snap)
	}
	return out
}

func qualifies(run scoring.RunPotentialResult) bool {
	if run.Grade != scoring.GradeA && run.Grade != scoring.GradeB {
		return false
	}
	return run.Phase == scoring.PhaseAccumulation || run.Phase == scoring.PhaseEarlyMomentum
}

// socialScore blends on-chain metrics with Reddit mentions when the mentions
// collaborator is configured; a mentions failure falls back to on-chain only.
func (s *Scanner) socialScore(ctx context.Context, snap *models.MarketSnapshot) int {
	metrics := scoring.SocialScore(snap)

	var mentions *models.SocialMentions
	if s.Mentions != nil {
		sentiment, err := s.Mentions.SearchMentions(ctx, snap.TokenSymbol, snap.TokenName, snap.TokenAddress)
		if err == nil && sentiment != nil {
			mentions = &sentiment.Summary
		}
	}
	return scoring.CombineSentiment(metrics, mentions).OverallScore
}
