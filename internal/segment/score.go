package segment

import "math"

const (
	weightOpens    = 0.2
	weightClicks   = 0.3
	weightPurchase = 0.3
	weightWebinar  = 0.1
	weightSurvey   = 0.1
)

// EngagementScore returns a composite 0-10 score rounded to one decimal.
// Purchase, webinar and survey counts each contribute two points per item,
// capped at ten, before weighting.
func EngagementScore(sub *Subscriber) float64 {
	score := sub.Engagement.OpenRate*10*weightOpens +
		sub.Engagement.ClickRate*10*weightClicks +
		capped(len(sub.Purchases.Purchases))*weightPurchase +
		capped(sub.Journey.attendedWebinars())*weightWebinar +
		capped(sub.Journey.completedSurveys())*weightSurvey

	score = math.Max(0, math.Min(10, score))
	return math.Round(score*10) / 10
}

func capped(count int) float64 {
	return math.Min(float64(count*2), 10)
}
