package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultTimedTextURL = "https://www.youtube.com"

// --- YouTube timedtext (json3) ---
type TimedTextSeg struct {
	UTF8 string `json:"utf8"`
}
type TimedTextEvent struct {
	StartMs    float64        `json:"tStartMs"`
	DurationMs float64        `json:"dDurationMs"`
	Segs       []TimedTextSeg `json:"segs"`
}
type TimedTextResp struct {
	Events []TimedTextEvent `json:"events"`
}

// ErrNoCaptions is returned when the track exists but carries no events.
var ErrNoCaptions = errors.New("timedtext: no captions")

// TimedText fetches the json3 caption track of videoID in lang.
func (h *HTTP) TimedText(ctx context.Context, baseURL, videoID, lang string) (*TimedTextResp, error) {
	if baseURL == "" {
		baseURL = defaultTimedTextURL
	}
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("lang", lang)
	q.Set("fmt", "json3")
	u := strings.TrimRight(baseURL, "/") + "/api/timedtext?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("timedtext read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timedtext %s: %s", resp.Status, string(body))
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, ErrNoCaptions
	}

	var out TimedTextResp
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("timedtext decode: %w", err)
	}
	if len(out.Events) == 0 {
		return nil, ErrNoCaptions
	}
	return &out, nil
}
