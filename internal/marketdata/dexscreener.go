// Package marketdata is the DexScreener collaborator: it serves normalized
// MarketSnapshots for Solana pairs. Callers treat a nil snapshot as "token
// not listed" and skip the item.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"memefinder/internal/models"
)

const solanaChainID = "solana"

// Client talks to the DexScreener public API.
type Client struct {
	host       string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dexscreener API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string) *Client {
	if host == "" {
		host = "https://api.dexscreener.com"
	}
	host = strings.TrimRight(host, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{host: host, httpClient: httpClient}
}

// Wire shapes as DexScreener serves them.

type dexWindowCounts struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

type dexPair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD string `json:"priceUsd"`
	Txns     struct {
		M5  dexWindowCounts `json:"m5"`
		H1  dexWindowCounts `json:"h1"`
		H6  dexWindowCounts `json:"h6"`
		H24 dexWindowCounts `json:"h24"`
	} `json:"txns"`
	Volume      models.VolumeWindows      `json:"volume"`
	PriceChange models.PriceChangeWindows `json:"priceChange"`
	Liquidity   struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	FDV           float64 `json:"fdv"`
	MarketCap     float64 `json:"marketCap"`
	PairCreatedAt int64   `json:"pairCreatedAt"`
	Info          *struct {
		Websites []struct {
			Label string `json:"label"`
			URL   string `json:"url"`
		} `json:"websites"`
		Socials []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"socials"`
	} `json:"info"`
	Boosts *struct {
		Active int `json:"active"`
	} `json:"boosts"`
}

type dexSearchResponse struct {
	Pairs []dexPair `json:"pairs"`
}

type boostToken struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// TokenByAddress returns the highest-liquidity Solana pair for a token, or
// (nil, nil) when the token is not listed.
func (c *Client) TokenByAddress(ctx context.Context, address string) (*models.MarketSnapshot, error) {
	pairs, err := c.TokenPairs(ctx, address)
	if err != nil {
		// The older endpoint still serves some pairs the v1 path misses.
		return c.tokenByAddressLegacy(ctx, address)
	}
	return bestByLiquidity(pairs), nil
}

func (c *Client) tokenByAddressLegacy(ctx context.Context, address string) (*models.MarketSnapshot, error) {
	body, err := c.doRequest(ctx, "/latest/dex/tokens/"+url.PathEscape(address), nil)
	if err != nil {
		return nil, err
	}
	var parsed dexSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return bestByLiquidity(convertPairs(parsed.Pairs)), nil
}

// TokenPairs returns all Solana pairs for one token address.
func (c *Client) TokenPairs(ctx context.Context, address string) ([]*models.MarketSnapshot, error) {
	return c.tokensByAddresses(ctx, []string{address})
}

func (c *Client) tokensByAddresses(ctx context.Context, addresses []string) ([]*models.MarketSnapshot, error) {
	path := "/tokens/v1/" + solanaChainID + "/" + strings.Join(addresses, ",")
	body, err := c.doRequest(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	var pairs []dexPair
	if err := json.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return convertPairs(pairs), nil
}

// TrendingTokens resolves the top boosted Solana tokens to full snapshots.
func (c *Client) TrendingTokens(ctx context.Context) ([]*models.MarketSnapshot, error) {
	return c.resolveProfileList(ctx, "/token-boosts/top/v1")
}

// LatestTokens resolves the latest token profiles to full snapshots.
func (c *Client) LatestTokens(ctx context.Context) ([]*models.MarketSnapshot, error) {
	return c.resolveProfileList(ctx, "/token-profiles/latest/v1")
}

func (c *Client) resolveProfileList(ctx context.Context, path string) ([]*models.MarketSnapshot, error) {
	body, err := c.doRequest(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	var profiles []boostToken
	if err := json.Unmarshal(body, &profiles); err != nil {
		return nil, fmt.Errorf("decode profile list: %w", err)
	}

	var addresses []string
	for _, p := range profiles {
		if p.ChainID != solanaChainID {
			continue
		}
		addresses = append(addresses, p.TokenAddress)
		if len(addresses) == 20 {
			break
		}
	}
	if len(addresses) == 0 {
		return nil, nil
	}
	return c.tokensByAddresses(ctx, addresses)
}

// Search returns Solana pairs matching a free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]*models.MarketSnapshot, error) {
	q := url.Values{}
	q.Set("q", query)
	body, err := c.doRequest(ctx, "/latest/dex/search", q)
	if err != nil {
		return nil, err
	}
	var parsed dexSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return convertPairs(parsed.Pairs), nil
}

func convertPairs(pairs []dexPair) []*models.MarketSnapshot {
	var out []*models.MarketSnapshot
	for i := range pairs {
		if pairs[i].ChainID != solanaChainID {
			continue
		}
		out = append(out, convertPair(&pairs[i]))
	}
	return out
}

func convertPair(p *dexPair) *models.MarketSnapshot {
	snap := &models.MarketSnapshot{
		TokenAddress: p.BaseToken.Address,
		TokenSymbol:  p.BaseToken.Symbol,
		TokenName:    p.BaseToken.Name,
		PairAddress:  p.PairAddress,
		DexID:        p.DexID,
		PriceUSD:     parsePrice(p.PriceUSD),
		MarketCap:    p.MarketCap,
		FDV:          p.FDV,
		LiquidityUSD: p.Liquidity.USD,
		Volume:       p.Volume,
		PriceChange:  p.PriceChange,
	}
	snap.Txns = models.TxnWindows{
		M5:  models.WindowCounts{Buys: p.Txns.M5.Buys, Sells: p.Txns.M5.Sells},
		H1:  models.WindowCounts{Buys: p.Txns.H1.Buys, Sells: p.Txns.H1.Sells},
		H6:  models.WindowCounts{Buys: p.Txns.H6.Buys, Sells: p.Txns.H6.Sells},
		H24: models.WindowCounts{Buys: p.Txns.H24.Buys, Sells: p.Txns.H24.Sells},
	}
	if p.PairCreatedAt > 0 {
		snap.PairCreatedAt = time.UnixMilli(p.PairCreatedAt).UTC()
	}
	if p.Info != nil {
		snap.WebsiteCount = len(p.Info.Websites)
		snap.SocialCount = len(p.Info.Socials)
		for _, s := range p.Info.Socials {
			switch strings.ToLower(s.Type) {
			case "twitter":
				snap.HasTwitter = true
			case "telegram":
				snap.HasTelegram = true
			case "discord":
				snap.HasDiscord = true
			}
		}
	}
	if p.Boosts != nil {
		snap.ActiveBoosts = p.Boosts.Active
	}
	return snap
}

// parsePrice parses the upstream decimal string; malformed or absent prices
// become zero.
func parsePrice(raw string) float64 {
	if raw == "" {
		return 0
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

func bestByLiquidity(pairs []*models.MarketSnapshot) *models.MarketSnapshot {
	if len(pairs) == 0 {
		return nil
	}
	sorted := make([]*models.MarketSnapshot, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LiquidityUSD > sorted[j].LiquidityUSD
	})
	return sorted[0]
}
