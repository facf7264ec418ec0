package models

import "time"

// WindowCounts holds buy/sell transaction counts for one rolling window.
type WindowCounts struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

func (w WindowCounts) Total() int { return w.Buys + w.Sells }

// BuyRatio returns buys/total, or 0.5 when the window is empty.
func (w WindowCounts) BuyRatio() float64 {
	total := w.Total()
	if total == 0 {
		return 0.5
	}
	return float64(w.Buys) / float64(total)
}

// TxnWindows holds transaction counts per rolling window.
type TxnWindows struct {
	M5  WindowCounts `json:"m5"`
	H1  WindowCounts `json:"h1"`
	H6  WindowCounts `json:"h6"`
	H24 WindowCounts `json:"h24"`
}

// VolumeWindows holds USD volume per rolling window.
type VolumeWindows struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

// PriceChangeWindows holds percent price change per rolling window.
type PriceChangeWindows struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

// MarketSnapshot is the normalized shape of one tradeable pair as served by
// the market-data collaborator. All numeric fields default to zero when the
// upstream omits them.
type MarketSnapshot struct {
	TokenAddress string `json:"tokenAddress"`
	TokenSymbol  string `json:"tokenSymbol"`
	TokenName    string `json:"tokenName"`
	PairAddress  string `json:"pairAddress"`
	DexID        string `json:"dexId"`

	PriceUSD     float64 `json:"priceUsd"`
	MarketCap    float64 `json:"marketCap"`
	FDV          float64 `json:"fdv"`
	LiquidityUSD float64 `json:"liquidityUsd"`

	Volume      VolumeWindows      `json:"volume"`
	Txns        TxnWindows         `json:"txns"`
	PriceChange PriceChangeWindows `json:"priceChange"`

	PairCreatedAt time.Time `json:"pairCreatedAt"`

	WebsiteCount int  `json:"websiteCount"`
	SocialCount  int  `json:"socialCount"`
	HasTwitter   bool `json:"hasTwitter"`
	HasTelegram  bool `json:"hasTelegram"`
	HasDiscord   bool `json:"hasDiscord"`

	ActiveBoosts int `json:"activeBoosts"`
}

// AgeHours returns hours since pair creation, unbounded at the top. Pairs
// with no creation timestamp are treated as very old.
func (s *MarketSnapshot) AgeHours(now time.Time) float64 {
	if s.PairCreatedAt.IsZero() {
		return 999
	}
	age := now.Sub(s.PairCreatedAt).Hours()
	if age < 0 {
		return 0
	}
	return age
}

// EffectiveMarketCap falls back to FDV when market cap is missing.
func (s *MarketSnapshot) EffectiveMarketCap() float64 {
	if s.MarketCap > 0 {
		return s.MarketCap
	}
	return s.FDV
}

func (s *MarketSnapshot) HasSocials() bool { return s.SocialCount > 0 }
func (s *MarketSnapshot) HasWebsite() bool { return s.WebsiteCount > 0 }

// SnapshotFilter gates which pairs the scanner considers at all.
type SnapshotFilter struct {
	MinLiquidityUSD float64
	MaxAgeHours     float64
	MinVolume24h    float64
	MinMarketCap    float64
	MaxMarketCap    float64
}

// Match reports whether the snapshot passes every configured bound. Zero
// bounds are ignored.
func (f SnapshotFilter) Match(s *MarketSnapshot, now time.Time) bool {
	if f.MinLiquidityUSD > 0 && s.LiquidityUSD < f.MinLiquidityUSD {
		return false
	}
	if f.MaxAgeHours > 0 && s.AgeHours(now) > f.MaxAgeHours {
		return false
	}
	if f.MinVolume24h > 0 && s.Volume.H24 < f.MinVolume24h {
		return false
	}
	if f.MinMarketCap > 0 && s.EffectiveMarketCap() < f.MinMarketCap {
		return false
	}
	if f.MaxMarketCap > 0 && s.EffectiveMarketCap() > f.MaxMarketCap {
		return false
	}
	return true
}
