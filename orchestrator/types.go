package orchestrator

import (
	"time"

	"github.com/maastricht-university/topicseg/caption"
	"github.com/maastricht-university/topicseg/output"
	"github.com/maastricht-university/topicseg/topics"
	"github.com/maastricht-university/topicseg/transcript"
)

// Request is one composed run.
type Request struct {
	VideoURL  string
	NumTopics int         // <= 0 derives the count from transcript length
	Strategy  topics.Kind // empty uses segment.strategy
	Gloss     bool
}

type TopicStats struct {
	TopicID   int     `json:"topic_id" yaml:"topic_id"`
	Sentences int     `json:"sentences" yaml:"sentences"`
	Words     int     `json:"words" yaml:"words"`
	Share     float64 `json:"share" yaml:"share"` // fraction of transcript words
}

type Report struct {
	SessionID   string              `json:"session_id" yaml:"session_id"`
	VideoURL    string              `json:"video_url" yaml:"video_url"`
	GeneratedAt time.Time           `json:"generated_at" yaml:"generated_at"`
	Raw         *caption.Transcript `json:"raw_transcript" yaml:"raw_transcript"`
	Cleaned     *transcript.Cleaned `json:"cleaned" yaml:"cleaned"`
	Strategy    topics.Kind         `json:"strategy" yaml:"strategy"`
	Topics      []topics.Topic      `json:"topics" yaml:"topics"`
	Stats       []TopicStats        `json:"stats" yaml:"stats"`
	Warning     string              `json:"warning,omitempty" yaml:"warning,omitempty"` // degraded segmentation
	OutputDir   string              `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
}

// Markdown implements output.Markdowner.
func (r *Report) Markdown() string {
	meta := output.Metadata{
		Source:    r.VideoURL,
		Strategy:  string(r.Strategy),
		Generated: r.GeneratedAt.Format(time.RFC3339),
	}
	if r.Raw != nil {
		meta.VideoID = r.Raw.VideoID
	}
	if r.Cleaned != nil {
		meta.Words = r.Cleaned.WordCount
	}
	return output.RenderMarkdown(meta, r.Topics)
}
