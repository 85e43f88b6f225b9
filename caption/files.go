package caption

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/maastricht-university/topicseg/transcript"
)

// Files reads <dir>/<id>.srt, .vtt or .json, first match wins.
type Files struct {
	dir string
}

func NewFiles(dir string) *Files { return &Files{dir: dir} }

func (f *Files) Name() string { return "files" }

func (f *Files) Fetch(_ context.Context, videoID string) ([]transcript.Segment, error) {
	if f.dir == "" {
		return nil, errors.New("no caption directory configured")
	}
	for _, ext := range []string{".srt", ".vtt", ".json"} {
		path := filepath.Join(f.dir, videoID+ext)
		fh, err := os.Open(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		segs, err := ParseFile(fh, ext)
		fh.Close()
		if err != nil {
			return nil, errors.Wrap(err, path)
		}
		return segs, nil
	}
	return nil, errors.Errorf("no caption file for %s in %s", videoID, f.dir)
}

// ParseFile decodes a caption file by extension.
func ParseFile(r io.Reader, ext string) ([]transcript.Segment, error) {
	switch strings.ToLower(ext) {
	case ".srt", ".vtt":
		return ParseCues(r)
	case ".json":
		var segs []transcript.Segment
		if err := json.NewDecoder(r).Decode(&segs); err != nil {
			return nil, fmt.Errorf("caption json: %w", err)
		}
		return segs, nil
	}
	return nil, fmt.Errorf("unsupported caption format %q", ext)
}

var (
	cueTiming = regexp.MustCompile(`^((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})\s+-->\s+((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})`)
	cueTag    = regexp.MustCompile(`<[^>]*>`)
)

// ParseCues reads SRT or WebVTT cues. Sequence numbers, headers and cue
// settings are skipped; multi-line cue text is joined with spaces.
func ParseCues(r io.Reader) ([]transcript.Segment, error) {
	var (
		out   []transcript.Segment
		cur   *transcript.Segment
		lines []string
	)
	flush := func() {
		if cur != nil {
			if text := strings.TrimSpace(strings.Join(lines, " ")); text != "" {
				cur.Text = text
				out = append(out, *cur)
			}
		}
		cur, lines = nil, nil
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if line == "" {
			flush()
			continue
		}
		if m := cueTiming.FindStringSubmatch(line); m != nil {
			flush()
			start, err := parseTimestamp(m[1])
			if err != nil {
				return nil, err
			}
			end, err := parseTimestamp(m[2])
			if err != nil {
				return nil, err
			}
			cur = &transcript.Segment{Start: start, Duration: max(0, end-start)}
			continue
		}
		if cur == nil {
			// sequence numbers, WEBVTT header, NOTE blocks
			continue
		}
		if t := strings.TrimSpace(cueTag.ReplaceAllString(line, "")); t != "" {
			lines = append(lines, t)
		}
	}
	flush()
	return out, sc.Err()
}

// parseTimestamp converts HH:MM:SS,mmm or MM:SS.mmm to seconds.
func parseTimestamp(s string) (float64, error) {
	s = strings.Replace(s, ",", ".", 1)
	parts := strings.Split(s, ":")
	secs := 0.0
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		secs = secs*60 + v
	}
	return secs, nil
}
