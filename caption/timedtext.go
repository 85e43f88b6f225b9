package caption

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/maastricht-university/topicseg/clients"
	"github.com/maastricht-university/topicseg/transcript"
)

// TimedText reads the json3 caption track from the timedtext API.
type TimedText struct {
	http    *clients.HTTP
	baseURL string
	lang    string
}

func NewTimedText(h *clients.HTTP, baseURL, lang string) *TimedText {
	if lang == "" {
		lang = "en"
	}
	return &TimedText{http: h, baseURL: baseURL, lang: lang}
}

func (t *TimedText) Name() string { return "timedtext" }

func (t *TimedText) Fetch(ctx context.Context, videoID string) ([]transcript.Segment, error) {
	resp, err := t.http.TimedText(ctx, t.baseURL, videoID, t.lang)
	if err != nil {
		return nil, errors.Wrapf(err, "timedtext %s", videoID)
	}
	return fromEvents(resp.Events), nil
}

func fromEvents(events []clients.TimedTextEvent) []transcript.Segment {
	var out []transcript.Segment
	for _, ev := range events {
		var b strings.Builder
		for _, s := range ev.Segs {
			b.WriteString(s.UTF8)
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			continue
		}
		out = append(out, transcript.Segment{
			Text:     text,
			Start:    ev.StartMs / 1000,
			Duration: ev.DurationMs / 1000,
		})
	}
	return out
}
