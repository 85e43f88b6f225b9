package orchestrator

import (
	"strings"

	"github.com/maastricht-university/topicseg/topics"
)

// topicStats sizes each topic against the transcript's word count.
func topicStats(ts []topics.Topic, totalWords int) []TopicStats {
	out := make([]TopicStats, 0, len(ts))
	for _, t := range ts {
		s := TopicStats{
			TopicID:   t.ID,
			Sentences: len(t.Sentences),
			Words:     len(strings.Fields(t.Text)),
		}
		if totalWords > 0 {
			s.Share = float64(s.Words) / float64(totalWords)
		}
		out = append(out, s)
	}
	return out
}
