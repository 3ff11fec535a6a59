package bot

import (
	"context"
	"fmt"
	"math"
	"strings"
)

const reportWindow = 10

func (s *Service) sendSentimentReport(ctx context.Context, msg *Incoming) error {
	records, err := s.sentiments.Recent(ctx, msg.ChatID, reportWindow)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		_, err := s.out.SendText(ctx, msg.ChatID, "📊 Start chatting to generate insights!")
		return err
	}

	_, err = s.out.SendText(ctx, msg.ChatID, buildReport(records))
	return err
}

// buildReport counts labels by substring containment. A label matching none
// of the three buckets still counts toward the total, so the percentages may
// not sum to 100; that mirrors the report's historical behavior.
func buildReport(records []SentimentRecord) string {
	var positive, neutral, negative int
	for _, r := range records {
		if strings.Contains(r.Sentiment, "positive") {
			positive++
		}
		if strings.Contains(r.Sentiment, "neutral") {
			neutral++
		}
		if strings.Contains(r.Sentiment, "negative") {
			negative++
		}
	}
	total := len(records)

	mood := "⚖️ Balanced Emotions"
	switch {
	case positive > negative:
		mood = "😊 Mostly Positive"
	case negative > positive:
		mood = "😟 Needs Support"
	}

	return fmt.Sprintf(
		"📈 Emotional Analysis (Last %d messages):\n"+
			"✅ Positive: %d (%d%%)\n"+
			"🔄 Neutral: %d (%d%%)\n"+
			"❌ Negative: %d (%d%%)\n\n"+
			"💡 Mood Pattern: %s",
		total,
		positive, percent(positive, total),
		neutral, percent(neutral, total),
		negative, percent(negative, total),
		mood,
	)
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}
