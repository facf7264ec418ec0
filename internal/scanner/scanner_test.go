package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"memefinder/internal/models"
	"memefinder/internal/socialdata"
	memstorage "memefinder/internal/storage/memory"
	"memefinder/internal/tracking"
)

var scanNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeMarket struct {
	trending []*models.MarketSnapshot
	latest   []*models.MarketSnapshot

	trendingErr error
	latestErr   error
}

func (m *fakeMarket) TrendingTokens(ctx context.Context) ([]*models.MarketSnapshot, error) {
	return m.trending, m.trendingErr
}

func (m *fakeMarket) LatestTokens(ctx context.Context) ([]*models.MarketSnapshot, error) {
	return m.latest, m.latestErr
}

type fakeMentions struct {
	sentiment *socialdata.Sentiment
	err       error
	calls     int
}

func (m *fakeMentions) SearchMentions(ctx context.Context, symbol, name, address string) (*socialdata.Sentiment, error) {
	m.calls++
	return m.sentiment, m.err
}

// accumulationSnapshot qualifies: heavy buying and high turnover with the
// price still flat, well inside the liquidity and age sweet spots.
func accumulationSnapshot(address string) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		TokenAddress: address,
		TokenSymbol:  "ACC",
		TokenName:    "Accumulating Token",
		PriceUSD:     0.001,
		MarketCap:    2_000_000,
		LiquidityUSD: 100_000,
		Volume:       models.VolumeWindows{H24: 700_000},
		Txns: models.TxnWindows{
			H1:  models.WindowCounts{Buys: 9, Sells: 1},
			H24: models.WindowCounts{Buys: 70, Sells: 30},
		},
		PriceChange:   models.PriceChangeWindows{M5: 1, H1: 3, H24: 15},
		PairCreatedAt: scanNow.Add(-24 * time.Hour),
		SocialCount:   2,
		WebsiteCount:  1,
	}
}

func pumpedSnapshot(address string) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		TokenAddress: address,
		TokenSymbol:  "PMP",
		PriceUSD:     0.05,
		MarketCap:    20_000_000,
		LiquidityUSD: 100_000,
		Volume:       models.VolumeWindows{H24: 700_000},
		PriceChange:  models.PriceChangeWindows{H24: 300},
	}
}

func newTestScanner(market MarketSource) *Scanner {
	store := &tracking.PredictionStore{
		Blobs: memstorage.New(),
		Now:   func() time.Time { return scanNow },
	}
	return &Scanner{
		Market: market,
		Store:  store,
		Filter: models.SnapshotFilter{MinLiquidityUSD: 10_000},
		Now:    func() time.Time { return scanNow },
	}
}

func TestScanOnceRecordsQualifyingTokens(t *testing.T) {
	market := &fakeMarket{
		trending: []*models.MarketSnapshot{
			accumulationSnapshot("good"),
			pumpedSnapshot("pumped"),
		},
	}
	s := newTestScanner(market)

	recorded := s.ScanOnce(context.Background())
	if recorded != 1 {
		t.Fatalf("recorded = %d, want 1", recorded)
	}

	all := s.Store.All(context.Background())
	if len(all) != 1 || all[0].TokenAddress != "good" {
		t.Fatalf("stored = %v, want only the accumulation setup", all)
	}
	if all[0].Phase != "accumulation" {
		t.Fatalf("phase = %s, want accumulation", all[0].Phase)
	}
}

func TestScanOnceAppliesFilter(t *testing.T) {
	thin := accumulationSnapshot("thin")
	thin.LiquidityUSD = 5_000

	market := &fakeMarket{trending: []*models.MarketSnapshot{thin}}
	s := newTestScanner(market)

	if recorded := s.ScanOnce(context.Background()); recorded != 0 {
		t.Fatalf("recorded = %d, want 0 below the liquidity floor", recorded)
	}
}

func TestScanOnceDeduplicatesSources(t *testing.T) {
	market := &fakeMarket{
		trending: []*models.MarketSnapshot{accumulationSnapshot("dup")},
		latest:   []*models.MarketSnapshot{accumulationSnapshot("dup")},
	}
	s := newTestScanner(market)

	if recorded := s.ScanOnce(context.Background()); recorded != 1 {
		t.Fatalf("recorded = %d, want 1 after dedupe", recorded)
	}
}

func TestScanOnceSurvivesSourceFailure(t *testing.T) {
	market := &fakeMarket{
		trendingErr: errors.New("upstream unavailable"),
		latest:      []*models.MarketSnapshot{accumulationSnapshot("good")},
	}
	s := newTestScanner(market)

	if recorded := s.ScanOnce(context.Background()); recorded != 1 {
		t.Fatalf("recorded = %d, want 1 from the surviving source", recorded)
	}
}

func TestScanOnceMentionFailureFallsBack(t *testing.T) {
	market := &fakeMarket{trending: []*models.MarketSnapshot{accumulationSnapshot("good")}}
	mentions := &fakeMentions{err: errors.New("rate limited")}

	s := newTestScanner(market)
	s.Mentions = mentions

	if recorded := s.ScanOnce(context.Background()); recorded != 1 {
		t.Fatalf("recorded = %d, want 1 despite the mentions failure", recorded)
	}
	if mentions.calls != 1 {
		t.Fatalf("mention lookups = %d, want 1", mentions.calls)
	}
}
