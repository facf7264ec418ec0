// Package tracking implements the prediction log and the self-tuning loop
// around it: recording scorer calls, re-checking their outcomes at fixed
// horizons, and deriving adjusted heuristic weights from the history.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"memefinder/internal/models"
	"memefinder/internal/scoring"
	"memefinder/internal/storage"
)

const (
	// Cap on the stored prediction log; oldest entries are dropped first.
	maxStoredPredictions = 500
	// A re-prediction for the same token inside this window replaces the
	// prior open prediction instead of creating a duplicate.
	repredictCooldown = 6 * time.Hour
	// First outcome at or past this horizon freezes the success flag.
	evaluationHorizonHours = 24
)

// ErrPredictionNotFound is returned when an outcome append names an unknown
// prediction id.
var ErrPredictionNotFound = errors.New("prediction not found")

// ScoreInputs bundles the scorer outputs captured on a prediction.
type ScoreInputs struct {
	RunPotential scoring.RunPotentialResult
	SafetyScore  int
	SocialScore  int
}

// PredictionStore owns the persisted prediction log and the weights record.
// Every mutation is read-whole, modify, write-whole against the injected
// blob store; a read failure falls back to an empty collection rather than
// surfacing.
type PredictionStore struct {
	Blobs  storage.BlobStore
	Logger *zap.Logger

	// Now is overridable for tests; defaults to time.Now().UTC().
	Now func() time.Time
}

func (s *PredictionStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Record captures a new prediction for the snapshot. An existing prediction
// for the same token created within the cooldown window is replaced in
// place; otherwise the prediction is appended and the log trimmed to cap.
func (s *PredictionStore) Record(ctx context.Context, snap *models.MarketSnapshot, in ScoreInputs) (models.Prediction, error) {
	now := s.now()
	pred := models.Prediction{
		ID:                    models.NewPredictionID(snap.TokenAddress, now),
		TokenAddress:          snap.TokenAddress,
		TokenSymbol:           snap.TokenSymbol,
		TokenName:             snap.TokenName,
		PredictedAt:           now,
		PriceAtPrediction:     snap.PriceUSD,
		MarketCapAtPrediction: snap.MarketCap,
		LiquidityAtPrediction: snap.LiquidityUSD,
		VolumeAtPrediction:    snap.Volume.H24,
		RunPotentialScore:     in.RunPotential.Score,
		RunPotentialGrade:     string(in.RunPotential.Grade),
		Phase:                 string(in.RunPotential.Phase),
		SafetyScore:           in.SafetyScore,
		SocialScore:           in.SocialScore,
		Signals:               in.RunPotential.Signals,
		Outcomes:              []models.Outcome{},
	}

	predictions := s.loadPredictions(ctx)

	replaced := false
	for i := range predictions {
		if predictions[i].TokenAddress == snap.TokenAddress && now.Sub(predictions[i].PredictedAt) < repredictCooldown {
			predictions[i] = pred
			replaced = true
			break
		}
	}
	if !replaced {
		predictions = append(predictions, pred)
	}

	if err := s.savePredictions(ctx, predictions); err != nil {
		return pred, err
	}
	return pred, nil
}

// AppendOutcome records a fresh observation of a tracked prediction and
// recomputes the running gain/drawdown. The success flag is frozen on the
// first outcome at or past the 24h horizon and never rewritten.
func (s *PredictionStore) AppendOutcome(ctx context.Context, predictionID string, current *models.MarketSnapshot) (models.Outcome, error) {
	now := s.now()
	predictions := s.loadPredictions(ctx)

	idx := -1
	for i := range predictions {
		if predictions[i].ID == predictionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Outcome{}, ErrPredictionNotFound
	}

	pred := &predictions[idx]
	changePercent := 0.0
	if pred.PriceAtPrediction != 0 {
		changePercent = (current.PriceUSD - pred.PriceAtPrediction) / pred.PriceAtPrediction * 100
	}

	outcome := models.Outcome{
		CheckedAt:            now,
		HoursAfterPrediction: now.Sub(pred.PredictedAt).Hours(),
		Price:                current.PriceUSD,
		PriceChangePercent:   changePercent,
		MarketCap:            current.MarketCap,
		Volume24h:            current.Volume.H24,
	}
	pred.Outcomes = append(pred.Outcomes, outcome)

	// Max gain and drawdown over all changes, floored/ceilinged at zero.
	maxGain, maxDrawdown := 0.0, 0.0
	for _, o := range pred.Outcomes {
		if o.PriceChangePercent > maxGain {
			maxGain = o.PriceChangePercent
		}
		if o.PriceChangePercent < maxDrawdown {
			maxDrawdown = o.PriceChangePercent
		}
	}
	pred.MaxGainPercent = &maxGain
	pred.MaxDrawdownPercent = &maxDrawdown

	if outcome.HoursAfterPrediction >= evaluationHorizonHours && pred.IsSuccess == nil {
		weights := s.LoadWeights(ctx)
		success := maxGain >= weights.SuccessThreshold
		pred.IsSuccess = &success
	}

	if err := s.savePredictions(ctx, predictions); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// Check horizons in hours. A prediction is due when some horizon has been
// reached but no outcome sits within half an hour of it.
var checkHorizons = []float64{1, 6, 24, 48, 168}

const (
	staleAfterHours     = 168
	minRecheckGapHours  = 1
	horizonToleranceHrs = 0.5
)

// DueForCheck returns the predictions that need a fresh outcome observation
// right now, in stored order.
func (s *PredictionStore) DueForCheck(ctx context.Context) []models.Prediction {
	now := s.now()
	predictions := s.loadPredictions(ctx)

	var due []models.Prediction
	for _, p := range predictions {
		if predictionDue(&p, now) {
			due = append(due, p)
		}
	}
	return due
}

func predictionDue(p *models.Prediction, now time.Time) bool {
	ageHours := p.AgeHours(now)
	if ageHours > staleAfterHours {
		return false
	}

	hoursSinceLastCheck := now.Sub(p.LastCheckedAt()).Hours()
	for _, horizon := range checkHorizons {
		if ageHours < horizon {
			continue
		}
		checked := false
		for _, o := range p.Outcomes {
			if abs(o.HoursAfterPrediction-horizon) < horizonToleranceHrs {
				checked = true
				break
			}
		}
		if !checked && hoursSinceLastCheck >= minRecheckGapHours {
			return true
		}
	}
	return false
}

// Recent returns up to limit predictions, newest first.
func (s *PredictionStore) Recent(ctx context.Context, limit int) []models.Prediction {
	predictions := s.loadPredictions(ctx)
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].PredictedAt.After(predictions[j].PredictedAt)
	})
	if limit > 0 && len(predictions) > limit {
		predictions = predictions[:limit]
	}
	return predictions
}

// TopPerformers returns up to limit predictions with at least one recorded
// outcome, best max gain first.
func (s *PredictionStore) TopPerformers(ctx context.Context, limit int) []models.Prediction {
	all := s.loadPredictions(ctx)
	var scored []models.Prediction
	for _, p := range all {
		if p.MaxGainPercent != nil {
			scored = append(scored, p)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return *scored[i].MaxGainPercent > *scored[j].MaxGainPercent
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// All returns the full stored log in insertion order.
func (s *PredictionStore) All(ctx context.Context) []models.Prediction {
	return s.loadPredictions(ctx)
}

// Reset clears the entire prediction log. Irreversible; testing/debugging
// only.
func (s *PredictionStore) Reset(ctx context.Context) error {
	return s.Blobs.Delete(ctx, storage.KeyPredictions)
}

// LoadWeights returns the live weights record, merged over defaults so that
// fields missing from an older stored blob keep their documented values.
// Corrupt or absent storage yields the defaults.
func (s *PredictionStore) LoadWeights(ctx context.Context) models.AlgorithmWeights {
	weights := models.DefaultWeights(s.now())
	raw, err := s.Blobs.Load(ctx, storage.KeyWeights)
	if err != nil {
		s.logWarn("load weights failed", err)
		return weights
	}
	if len(raw) == 0 {
		return weights
	}
	if err := json.Unmarshal(raw, &weights); err != nil {
		s.logWarn("decode weights failed", err)
		return models.DefaultWeights(s.now())
	}
	return weights
}

// SaveWeights persists the weights record as the new global record.
func (s *PredictionStore) SaveWeights(ctx context.Context, weights models.AlgorithmWeights) error {
	raw, err := json.Marshal(weights)
	if err != nil {
		return err
	}
	return s.Blobs.Save(ctx, storage.KeyWeights, raw)
}

// ResetWeights drops the stored record, reverting to defaults on next load.
func (s *PredictionStore) ResetWeights(ctx context.Context) error {
	return s.Blobs.Delete(ctx, storage.KeyWeights)
}

func (s *PredictionStore) loadPredictions(ctx context.Context) []models.Prediction {
	raw, err := s.Blobs.Load(ctx, storage.KeyPredictions)
	if err != nil {
		s.logWarn("load predictions failed", err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	var predictions []models.Prediction
	if err := json.Unmarshal(raw, &predictions); err != nil {
		s.logWarn("decode predictions failed", err)
		return nil
	}
	return predictions
}

func (s *PredictionStore) savePredictions(ctx context.Context, predictions []models.Prediction) error {
	if len(predictions) > maxStoredPredictions {
		predictions = predictions[len(predictions)-maxStoredPredictions:]
	}
	raw, err := json.Marshal(predictions)
	if err != nil {
		return err
	}
	return s.Blobs.Save(ctx, storage.KeyPredictions, raw)
}

func (s *PredictionStore) logWarn(msg string, err error) {
	if s.Logger != nil {
		s.Logger.Warn(msg, zap.Error(err))
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
