package caption

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/topicseg/transcript"
)

//go:generate mockgen -destination=mocks/source.go -package=mocks . Source

// Source loads the caption segments of one video.
type Source interface {
	Name() string
	Fetch(ctx context.Context, videoID string) ([]transcript.Segment, error)
}

// Transcript is a fetched caption track.
type Transcript struct {
	VideoID       string               `json:"video_id" yaml:"video_id"`
	Segments      []transcript.Segment `json:"segments" yaml:"segments"`
	Full          string               `json:"full" yaml:"full"`
	TotalSegments int                  `json:"total_segments" yaml:"total_segments"`
	Method        string               `json:"method" yaml:"method"`
}

// ErrInvalidURL marks a URL with no recognizable video id.
var ErrInvalidURL = errors.New("invalid YouTube URL format")

// AcquisitionError reports that no source produced captions.
type AcquisitionError struct {
	URL string
	Err error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("fetch captions for %s: %v", e.URL, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// Cause lets errors.Cause reach the underlying failure.
func (e *AcquisitionError) Cause() error { return e.Err }

// Fetcher tries its sources in order and returns the first non-empty track.
type Fetcher struct {
	sources []Source
	log     logrus.FieldLogger
}

func NewFetcher(log logrus.FieldLogger, sources ...Source) *Fetcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Fetcher{sources: sources, log: log}
}

func (f *Fetcher) Fetch(ctx context.Context, videoURL string) (*Transcript, error) {
	id, ok := ExtractVideoID(strings.TrimSpace(videoURL))
	if !ok {
		return nil, &AcquisitionError{URL: videoURL, Err: ErrInvalidURL}
	}

	var failures []string
	for _, src := range f.sources {
		log := f.log.WithFields(logrus.Fields{"video_id": id, "source": src.Name()})
		segs, err := src.Fetch(ctx, id)
		if err == nil && len(segs) == 0 {
			err = errors.New("no segments")
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, &AcquisitionError{URL: videoURL, Err: errors.Wrap(ctx.Err(), src.Name())}
			}
			log.WithError(err).Debug("caption source failed")
			failures = append(failures, src.Name()+": "+err.Error())
			continue
		}

		texts := make([]string, len(segs))
		for i, s := range segs {
			texts[i] = s.Text
		}
		log.WithField("segments", len(segs)).Info("captions fetched")
		return &Transcript{
			VideoID:       id,
			Segments:      segs,
			Full:          strings.Join(texts, " "),
			TotalSegments: len(segs),
			Method:        src.Name(),
		}, nil
	}

	err := errors.New("no transcript available for this video; it may not have captions enabled")
	if len(failures) > 0 {
		err = errors.Wrap(err, strings.Join(failures, "; "))
	}
	return nil, &AcquisitionError{URL: videoURL, Err: err}
}
