package models

// SocialMentions summarizes what the social-mentions collaborator found for
// one token: how often it is talked about and in what tone. Consumed only by
// the social-sentiment scorer.
type SocialMentions struct {
	TotalMentions int     `json:"totalMentions"`
	Bullish       int     `json:"bullish"`
	Bearish       int     `json:"bearish"`
	Neutral       int     `json:"neutral"`
	AvgScore      float64 `json:"avgScore"`
	AvgComments   float64 `json:"avgComments"`
	TrendingScore int     `json:"trendingScore"`
}
