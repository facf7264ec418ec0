package tracking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"memefinder/internal/models"
	"memefinder/internal/scoring"
	"memefinder/internal/storage"
	memstorage "memefinder/internal/storage/memory"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// testClock is a manually advanced clock injected as the store's Now.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore() (*PredictionStore, *memstorage.BlobStore, *testClock) {
	blobs := memstorage.New()
	clock := &testClock{now: testStart}
	return &PredictionStore{Blobs: blobs, Now: clock.Now}, blobs, clock
}

func snapshot(address string, price float64) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		TokenAddress: address,
		TokenSymbol:  "TST",
		TokenName:    "Test Token",
		PriceUSD:     price,
		MarketCap:    1_000_000,
		LiquidityUSD: 50_000,
		Volume:       models.VolumeWindows{H24: 200_000},
	}
}

func testInputs() ScoreInputs {
	return ScoreInputs{
		RunPotential: scoring.RunPotentialResult{
			Score:   70,
			Grade:   scoring.GradeB,
			Phase:   scoring.PhaseAccumulation,
			Signals: []string{"Strong accumulation (70% buys)"},
		},
		SafetyScore: 60,
		SocialScore: 55,
	}
}

func TestRecordReplacesWithinCooldown(t *testing.T) {
	store, _, clock := newTestStore()
	ctx := context.Background()

	first, err := store.Record(ctx, snapshot("tokenA", 1.0), testInputs())
	if err != nil {
		t.Fatalf("first record: %v", err)
	}

	clock.Advance(3 * time.Hour)
	second, err := store.Record(ctx, snapshot("tokenA", 1.2), testInputs())
	if err != nil {
		t.Fatalf("second record: %v", err)
	}

	all := store.All(ctx)
	if len(all) != 1 {
		t.Fatalf("stored predictions = %d, want 1 (replaced in place)", len(all))
	}
	if all[0].ID != second.ID || all[0].ID == first.ID {
		t.Fatalf("stored id = %s, want replacement %s", all[0].ID, second.ID)
	}
	if all[0].PriceAtPrediction != 1.2 {
		t.Fatalf("stored price = %v, want refreshed 1.2", all[0].PriceAtPrediction)
	}
}

func TestRecordAppendsAfterCooldown(t *testing.T) {
	store, _, clock := newTestStore()
	ctx := context.Background()

	if _, err := store.Record(ctx, snapshot("tokenA", 1.0), testInputs()); err != nil {
		t.Fatalf("first record: %v", err)
	}
	clock.Advance(7 * time.Hour)
	if _, err := store.Record(ctx, snapshot("tokenA", 1.5), testInputs()); err != nil {
		t.Fatalf("second record: %v", err)
	}

	if got := len(store.All(ctx)); got != 2 {
		t.Fatalf("stored predictions = %d, want 2 past the cooldown", got)
	}
}

func TestRecordTrimsToCap(t *testing.T) {
	store, _, clock := newTestStore()
	ctx := context.Background()

	for i := 0; i < 505; i++ {
		addr := fmt.Sprintf("token-%d", i)
		if _, err := store.Record(ctx, snapshot(addr, 1.0), testInputs()); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		clock.Advance(time.Minute)
	}

	all := store.All(ctx)
	if len(all) != 500 {
		t.Fatalf("stored predictions = %d, want 500", len(all))
	}
	if all[0].TokenAddress != "token-5" {
		t.Fatalf("oldest kept = %s, want token-5 (first five trimmed)", all[0].TokenAddress)
	}
	if all[499].TokenAddress != "token-504" {
		t.Fatalf("newest kept = %s, want token-504", all[499].TokenAddress)
	}
}

func TestAppendOutcomeTracksGainAndDrawdown(t *testing.T) {
	store, _, clock := newTestStore()
	ctx := context.Background()

	pred, err := store.Record(ctx, snapshot("tokenA", 1.0), testInputs())
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	checks := []struct {
		advance time.Duration
		price   float64
	}{
		{1 * time.Hour, 1.10},
		{5 * time.Hour, 0.95},
		{18 * time.Hour, 1.40},
		{24 * time.Hour, 0.80},
	}
	for _, c := range checks {
		clock.Advance(c.advance)
		if _, err := store.AppendOutcome(ctx, pred.ID, snapshot("tokenA", c.price)); err != nil {
			t.Fatalf("append at %v: %v", clock.now, err)
		}
	}

	got := store.All(ctx)[0]
	if len(got.Outcomes) != 4 {
		t.Fatalf("outcomes = %d, want 4", len(got.Outcomes))
	}
	if got.MaxGainPercent == nil || !closeTo(*got.MaxGainPercent, 40) {
		t.Fatalf("max gain = %v, want 40", got.MaxGainPercent)
	}
	if got.MaxDrawdownPercent == nil || !closeTo(*got.MaxDrawdownPercent, -20) {
		t.Fatalf("max drawdown = %v, want -20", got.MaxDrawdownPercent)
	}
	// 40% peak gain sits under the 50% success threshold.
	if got.IsSuccess == nil || *got.IsSuccess {
		t.Fatalf("isSuccess = %v, want false", got.IsSuccess)
	}
}

func TestAppendOutcomeMarksSuccess(t *testing.T) {
	store, _, clock := newTestStore()
	ctx := context.Background()

	pred, err := store.Record(ctx, snapshot("tokenA", 1.0), testInputs())
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	clock.Advance(25 * time.Hour)
	if _, err := store.AppendOutcome(ctx, pred.ID, snapshot("tokenA", 1.6)); err != nil {
		t.Fatalf("append: %v", err)
	}

	got := store.All(ctx)[0]
	if got.IsSuccess == nil || !*got.IsSuccess {
		t.Fatalf("isSuccess = %v, want true for +60%% at 25h", got.IsSuccess)
	}
}

func TestAppendOutcomeSuccessFlagFrozen(t *testing.T) {
	store, _, clock := newTestStore()
	ctx := context.Background()

	pred, err := store.Record(ctx, snapshot("tokenA", 1.0), testInputs())
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	clock.Advance(25 * time.Hour)
	if _, err := store.AppendOutcome(ctx, pred.ID, snapshot("tokenA", 1.0)); err != nil {
		t.Fatalf("first append: %v", err)
	}
	clock.Advance(23 * time.Hour)
	if _, err := store.AppendOutcome(ctx, pred.ID, snapshot("tokenA", 5.0)); err != nil {
		t.Fatalf("second append: %v", err)
	}

	got := store.All(ctx)[0]
	if got.IsSuccess == nil || *got.IsSuccess {
		t.Fatalf("isSuccess = %v, want the frozen false from the 25h check", got.IsSuccess)
	}
	if got.MaxGainPercent == nil || !closeTo(*got.MaxGainPercent, 400) {
		t.Fatalf("max gain = %v, want 400 (still tracked after freeze)", got.MaxGainPercent)
	}
}

func TestAppendOutcomeUnknownID(t *testing.T) {
	store, _, _ := newTestStore()
	if _, err := store.AppendOutcome(context.Background(), "nope-123", snapshot("tokenA", 1.0)); err != ErrPredictionNotFound {
		t.Fatalf("err = %v, want ErrPredictionNotFound", err)
	}
}

func TestDueForCheck(t *testing.T) {
	store, _, clock := newTestStore()
	ctx := context.Background()

	pred, err := store.Record(ctx, snapshot("tokenA", 1.0), testInputs())
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	// Too young for the first horizon.
	clock.Advance(30 * time.Minute)
	if due := store.DueForCheck(ctx); len(due) != 0 {
		t.Fatalf("due at 0.5h = %d, want 0", len(due))
	}

	// Past the 1h horizon with no outcome yet.
	clock.Advance(90 * time.Minute)
	due := store.DueForCheck(ctx)
	if len(due) != 1 || due[0].ID != pred.ID {
		t.Fatalf("due at 2h = %v, want the one prediction", due)
	}
}

func TestDueForCheckSkipsCoveredHorizon(t *testing.T) {
	store, _, clock := newTestStore()
	ctx := context.Background()

	pred, err := store.Record(ctx, snapshot("tokenA", 1.0), testInputs())
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	clock.Advance(1 * time.Hour)
	if _, err := store.AppendOutcome(ctx, pred.ID, snapshot("tokenA", 1.1)); err != nil {
		t.Fatalf("append: %v", err)
	}

	// 1h horizon is covered and 6h not reached yet.
	clock.Advance(30 * time.Minute)
	if due := store.DueForCheck(ctx); len(due) != 0 {
		t.Fatalf("due at 1.5h = %d, want 0", len(due))
	}

	// 6h horizon reached, last check 5h ago.
	clock.Advance(4*time.Hour + 30*time.Minute)
	if due := store.DueForCheck(ctx); len(due) != 1 {
		t.Fatalf("due at 6h = %d, want 1", len(due))
	}
}

func TestDueForCheckDropsStalePredictions(t *testing.T) {
	store, _, clock := newTestStore()
	ctx := context.Background()

	if _, err := store.Record(ctx, snapshot("tokenA", 1.0), testInputs()); err != nil {
		t.Fatalf("record: %v", err)
	}

	clock.Advance(200 * time.Hour)
	if due := store.DueForCheck(ctx); len(due) != 0 {
		t.Fatalf("due at 200h = %d, want 0 (past tracking window)", len(due))
	}
}

func TestRecentNewestFirst(t *testing.T) {
	store, _, clock := newTestStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		addr := fmt.Sprintf("token-%d", i)
		if _, err := store.Record(ctx, snapshot(addr, 1.0), testInputs()); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		clock.Advance(time.Hour)
	}

	recent := store.Recent(ctx, 2)
	if len(recent) != 2 {
		t.Fatalf("recent = %d, want 2", len(recent))
	}
	if recent[0].TokenAddress != "token-2" || recent[1].TokenAddress != "token-1" {
		t.Fatalf("recent order = %s, %s; want token-2, token-1",
			recent[0].TokenAddress, recent[1].TokenAddress)
	}
}

func TestTopPerformers(t *testing.T) {
	store, _, clock := newTestStore()
	ctx := context.Background()

	var preds []models.Prediction
	for i := 0; i < 3; i++ {
		addr := fmt.Sprintf("token-%d", i)
		p, err := store.Record(ctx, snapshot(addr, 1.0), testInputs())
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		preds = append(preds, p)
		clock.Advance(time.Minute)
	}

	// token-0 gains 20%, token-1 gains 80%, token-2 never checked.
	clock.Advance(time.Hour)
	if _, err := store.AppendOutcome(ctx, preds[0].ID, snapshot("token-0", 1.2)); err != nil {
		t.Fatalf("append token-0: %v", err)
	}
	if _, err := store.AppendOutcome(ctx, preds[1].ID, snapshot("token-1", 1.8)); err != nil {
		t.Fatalf("append token-1: %v", err)
	}

	top := store.TopPerformers(ctx, 10)
	if len(top) != 2 {
		t.Fatalf("top performers = %d, want 2 (unchecked excluded)", len(top))
	}
	if top[0].TokenAddress != "token-1" {
		t.Fatalf("best = %s, want token-1", top[0].TokenAddress)
	}
}

func TestLoadWeightsDefaults(t *testing.T) {
	store, _, _ := newTestStore()
	w := store.LoadWeights(context.Background())
	if w.BuyPressureWeight != 1.0 || w.SocialPresenceWeight != 1.0 {
		t.Fatalf("default factor weights = %+v, want all 1.0", w)
	}
	if w.AlreadyRanThreshold != 200 || w.SuccessThreshold != 50 {
		t.Fatalf("default thresholds = %v/%v, want 200/50", w.AlreadyRanThreshold, w.SuccessThreshold)
	}
}

func TestLoadWeightsCorruptBlob(t *testing.T) {
	store, blobs, _ := newTestStore()
	ctx := context.Background()

	if err := blobs.Save(ctx, storage.KeyWeights, []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}
	w := store.LoadWeights(ctx)
	if w.BuyPressureWeight != 1.0 || w.SuccessThreshold != 50 {
		t.Fatalf("weights after corrupt blob = %+v, want defaults", w)
	}
}

func TestLoadWeightsMergesOverDefaults(t *testing.T) {
	store, blobs, _ := newTestStore()
	ctx := context.Background()

	if err := blobs.Save(ctx, storage.KeyWeights, []byte(`{"buyPressureWeight":1.5}`)); err != nil {
		t.Fatalf("seed partial blob: %v", err)
	}
	w := store.LoadWeights(ctx)
	if w.BuyPressureWeight != 1.5 {
		t.Fatalf("buy pressure weight = %v, want stored 1.5", w.BuyPressureWeight)
	}
	if w.SuccessThreshold != 50 {
		t.Fatalf("success threshold = %v, want default 50", w.SuccessThreshold)
	}
}

func TestResetWeights(t *testing.T) {
	store, _, clock := newTestStore()
	ctx := context.Background()

	w := models.DefaultWeights(clock.Now())
	w.BuyPressureWeight = 1.8
	if err := store.SaveWeights(ctx, w); err != nil {
		t.Fatalf("save weights: %v", err)
	}
	if got := store.LoadWeights(ctx); got.BuyPressureWeight != 1.8 {
		t.Fatalf("loaded weight = %v, want 1.8", got.BuyPressureWeight)
	}

	if err := store.ResetWeights(ctx); err != nil {
		t.Fatalf("reset weights: %v", err)
	}
	if got := store.LoadWeights(ctx); got.BuyPressureWeight != 1.0 {
		t.Fatalf("weight after reset = %v, want default 1.0", got.BuyPressureWeight)
	}
}

func TestCustomSuccessThresholdApplied(t *testing.T) {
	store, _, clock := newTestStore()
	ctx := context.Background()

	w := models.DefaultWeights(clock.Now())
	w.SuccessThreshold = 10
	if err := store.SaveWeights(ctx, w); err != nil {
		t.Fatalf("save weights: %v", err)
	}

	pred, err := store.Record(ctx, snapshot("tokenA", 1.0), testInputs())
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	clock.Advance(25 * time.Hour)
	if _, err := store.AppendOutcome(ctx, pred.ID, snapshot("tokenA", 1.2)); err != nil {
		t.Fatalf("append: %v", err)
	}

	got := store.All(ctx)[0]
	if got.IsSuccess == nil || !*got.IsSuccess {
		t.Fatalf("isSuccess = %v, want true with a 10%% threshold", got.IsSuccess)
	}
}

func closeTo(got, want float64) bool {
	return abs(got-want) < 1e-9
}
