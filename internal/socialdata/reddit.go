// Package socialdata is the optional social-mentions collaborator: it polls
// Reddit search for token mentions and classifies each with keyword-based
// sentiment. Consumed only by the social-sentiment scorer; any failure
// degrades to "no mentions".
package socialdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"memefinder/internal/models"
)

const userAgent = "MemeFinderBot/1.0"

// Subreddits searched for mentions, in priority order.
var cryptoSubreddits = []string{
	"CryptoMoonShots",
	"solana",
	"SolanaMemeCoins",
	"memecoin",
	"CryptoCurrency",
	"altcoin",
	"SatoshiStreetBets",
	"defi",
}

var bullishKeywords = []string{
	"moon", "bullish", "pump", "gem", "rocket", "100x", "1000x",
	"buy", "buying", "accumulate", "load", "bags", "lfg", "wagmi",
	"early", "undervalued", "potential", "next", "huge", "massive",
	"breakout", "green", "up", "gains", "profit", "winner",
}

var bearishKeywords = []string{
	"rug", "scam", "dump", "sell", "selling", "bearish", "dead",
	"avoid", "warning", "honeypot", "fake", "fraud", "loss",
	"down", "crash", "plummet", "exit", "rugpull", "ponzi",
	"careful", "suspicious", "red flag", "ngmi",
}

// MentionSentiment classifies one post.
type MentionSentiment string

const (
	MentionBullish MentionSentiment = "bullish"
	MentionBearish MentionSentiment = "bearish"
	MentionNeutral MentionSentiment = "neutral"
)

// Mention is one Reddit post that references the token.
type Mention struct {
	ID        string
	Title     string
	Content   string
	Subreddit string
	Author    string
	Score     int
	Comments  int
	Timestamp time.Time
	URL       string
	Sentiment MentionSentiment
}

// Sentiment is the full collaborator result: the summary the scorer consumes
// plus the underlying mentions.
type Sentiment struct {
	Summary     models.SocialMentions
	Mentions    []Mention
	BySubreddit map[string]int
}

// Client searches Reddit for token mentions.
type Client struct {
	host       string
	httpClient *http.Client

	// Now is overridable for tests; defaults to time.Now().UTC().
	Now func() time.Time
}

func NewClient(httpClient *http.Client, host string) *Client {
	if host == "" {
		host = "https://www.reddit.com"
	}
	host = strings.TrimRight(host, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{host: host, httpClient: httpClient}
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now().UTC()
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
}

type redditSearchResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// SearchMentions scans the top crypto subreddits for posts mentioning the
// token and aggregates them into a sentiment summary. Individual request
// failures are skipped; the worst case is an empty result.
func (c *Client) SearchMentions(ctx context.Context, symbol, name, address string) (*Sentiment, error) {
	queries := []string{symbol, name}
	if len(address) >= 12 {
		queries = append(queries, address[:12])
	}
	if len(queries) > 2 {
		queries = queries[:2]
	}

	seen := map[string]bool{}
	var mentions []Mention
	bySubreddit := map[string]int{}

	// A few subreddits and queries only, to stay under rate limits.
	for _, subreddit := range cryptoSubreddits[:4] {
		for _, query := range queries {
			posts, err := c.search(ctx, subreddit, query)
			if err != nil {
				continue
			}
			for _, post := range posts {
				if seen[post.ID] {
					continue
				}
				fullText := strings.ToLower(post.Title + " " + post.Selftext)
				if !strings.Contains(fullText, strings.ToLower(symbol)) &&
					!strings.Contains(fullText, strings.ToLower(name)) {
					continue
				}
				seen[post.ID] = true

				content := post.Selftext
				if len(content) > 200 {
					content = content[:200]
				}
				mentions = append(mentions, Mention{
					ID:        post.ID,
					Title:     post.Title,
					Content:   content,
					Subreddit: post.Subreddit,
					Author:    post.Author,
					Score:     post.Score,
					Comments:  post.NumComments,
					Timestamp: time.Unix(int64(post.CreatedUTC), 0).UTC(),
					URL:       "https://reddit.com" + post.Permalink,
					Sentiment: ClassifySentiment(fullText),
				})
				bySubreddit[post.Subreddit]++
			}
		}
	}

	sort.SliceStable(mentions, func(i, j int) bool {
		return mentions[i].Timestamp.After(mentions[j].Timestamp)
	})

	return c.aggregate(mentions, bySubreddit), nil
}

func (c *Client) search(ctx context.Context, subreddit, query string) ([]redditPost, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("restrict_sr", "on")
	q.Set("sort", "new")
	q.Set("limit", "10")
	q.Set("t", "week")

	fullURL := fmt.Sprintf("%s/r/%s/search.json?%s", c.host, url.PathEscape(subreddit), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
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
		return nil, fmt.Errorf("reddit search status %d", resp.StatusCode)
	}

	var parsed redditSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	posts := make([]redditPost, 0, len(parsed.Data.Children))
	for _, child := range parsed.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

func (c *Client) aggregate(mentions []Mention, bySubreddit map[string]int) *Sentiment {
	var bullish, bearish, neutral int
	var scoreSum, commentSum float64
	for _, m := range mentions {
		switch m.Sentiment {
		case MentionBullish:
			bullish++
		case MentionBearish:
			bearish++
		default:
			neutral++
		}
		scoreSum += float64(m.Score)
		commentSum += float64(m.Comments)
	}

	avgScore, avgComments := 0.0, 0.0
	if len(mentions) > 0 {
		avgScore = scoreSum / float64(len(mentions))
		avgComments = commentSum / float64(len(mentions))
	}

	trending := trendingScore(mentions, bullish, bearish, neutral, avgScore, avgComments, c.now())

	kept := mentions
	if len(kept) > 20 {
		kept = kept[:20]
	}
	return &Sentiment{
		Summary: models.SocialMentions{
			TotalMentions: len(mentions),
			Bullish:       bullish,
			Bearish:       bearish,
			Neutral:       neutral,
			AvgScore:      avgScore,
			AvgComments:   avgComments,
			TrendingScore: trending,
		},
		Mentions:    kept,
		BySubreddit: bySubreddit,
	}
}

// trendingScore folds mention count, recency, sentiment ratio and engagement
// into a 0-100 score.
func trendingScore(mentions []Mention, bullish, bearish, neutral int, avgScore, avgComments float64, now time.Time) int {
	score := 0

	// Mention count, max 30.
	score += min(len(mentions)*3, 30)

	// Recency, max 25.
	recent := 0
	for _, m := range mentions {
		if now.Sub(m.Timestamp) < 24*time.Hour {
			recent++
		}
	}
	score += min(recent*5, 25)

	// Sentiment ratio, max 25.
	total := bullish + bearish + neutral
	if total > 0 {
		score += int(math.Round(float64(bullish) / float64(total) * 25))
	}

	// Engagement, max 20.
	score += min(int(math.Round(avgScore/10))+int(math.Round(avgComments/5)), 20)

	return min(score, 100)
}

// ClassifySentiment tags text bullish or bearish from keyword counts; close
// calls stay neutral.
func ClassifySentiment(text string) MentionSentiment {
	lower := strings.ToLower(text)
	bullish, bearish := 0, 0
	for _, kw := range bullishKeywords {
		if strings.Contains(lower, kw) {
			bullish++
		}
	}
	for _, kw := range bearishKeywords {
		if strings.Contains(lower, kw) {
			bearish++
		}
	}
	if bullish > bearish+1 {
		return MentionBullish
	}
	if bearish > bullish+1 {
		return MentionBearish
	}
	return MentionNeutral
}
