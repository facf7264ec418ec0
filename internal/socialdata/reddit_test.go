package socialdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var redditNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func postJSON(id, title string, createdUTC int64) string {
	return fmt.Sprintf(`{"data": {
		"id": %q,
		"title": %q,
		"selftext": "",
		"subreddit": "CryptoMoonShots",
		"author": "u1",
		"score": 10,
		"num_comments": 5,
		"created_utc": %d,
		"permalink": "/r/CryptoMoonShots/comments/%s/"
	}}`, id, title, createdUTC, id)
}

func TestSearchMentionsAggregates(t *testing.T) {
	created := redditNow.Add(-time.Hour).Unix()
	response := `{"data": {"children": [` +
		postJSON("a", "$TST to the moon, absolute gem, pump incoming", created) + "," +
		postJSON("b", "unrelated post about something else", created) + "," +
		postJSON("c", "TST is a rug, scam, avoid this honeypot", created) +
		`]}}`

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/search.json") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("User-Agent"); got != userAgent {
			t.Errorf("user agent = %q, want %q", got, userAgent)
		}
		requests++
		w.Write([]byte(response))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL)
	client.Now = func() time.Time { return redditNow }

	sentiment, err := client.SearchMentions(context.Background(), "TST", "Test Token", "So1anaAddressXYZ")
	if err != nil {
		t.Fatalf("search mentions: %v", err)
	}

	// 4 subreddits x 2 queries, same payload each time, deduped by post id.
	if requests != 8 {
		t.Fatalf("requests = %d, want 8", requests)
	}
	if sentiment.Summary.TotalMentions != 2 {
		t.Fatalf("mentions = %d, want 2 (off-topic post dropped)", sentiment.Summary.TotalMentions)
	}
	if sentiment.Summary.Bullish != 1 || sentiment.Summary.Bearish != 1 {
		t.Fatalf("bullish/bearish = %d/%d, want 1/1",
			sentiment.Summary.Bullish, sentiment.Summary.Bearish)
	}
	if sentiment.Summary.TrendingScore <= 0 {
		t.Fatalf("trending score = %d, want > 0", sentiment.Summary.TrendingScore)
	}
	if sentiment.BySubreddit["CryptoMoonShots"] != 2 {
		t.Fatalf("by subreddit = %v, want 2 in CryptoMoonShots", sentiment.BySubreddit)
	}
}

func TestSearchMentionsSurvivesUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL)
	client.Now = func() time.Time { return redditNow }

	sentiment, err := client.SearchMentions(context.Background(), "TST", "Test Token", "")
	if err != nil {
		t.Fatalf("search mentions: %v", err)
	}
	if sentiment.Summary.TotalMentions != 0 {
		t.Fatalf("mentions = %d, want 0 when every request fails", sentiment.Summary.TotalMentions)
	}
}

func TestClassifySentiment(t *testing.T) {
	cases := []struct {
		text string
		want MentionSentiment
	}{
		{"this gem is going to moon, pump time", MentionBullish},
		{"total rug, scam, avoid, honeypot", MentionBearish},
		{"bought some, might sell later", MentionNeutral},
		{"", MentionNeutral},
	}
	for _, tc := range cases {
		if got := ClassifySentiment(tc.text); got != tc.want {
			t.Errorf("ClassifySentiment(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestTrendingScoreCapped(t *testing.T) {
	var mentions []Mention
	for i := 0; i < 50; i++ {
		mentions = append(mentions, Mention{
			Timestamp: redditNow.Add(-time.Hour),
			Score:     500,
			Comments:  100,
			Sentiment: MentionBullish,
		})
	}
	got := trendingScore(mentions, 50, 0, 0, 500, 100, redditNow)
	if got != 100 {
		t.Fatalf("trending score = %d, want capped 100", got)
	}
}

func TestTrendingScoreEmpty(t *testing.T) {
	if got := trendingScore(nil, 0, 0, 0, 0, 0, redditNow); got != 0 {
		t.Fatalf("trending score = %d, want 0 for no mentions", got)
	}
}
