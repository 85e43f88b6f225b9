package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/topicseg/caption"
	"github.com/maastricht-university/topicseg/clients"
	"github.com/maastricht-university/topicseg/cluster"
	cfg "github.com/maastricht-university/topicseg/config"
	"github.com/maastricht-university/topicseg/features"
	"github.com/maastricht-university/topicseg/gloss"
	"github.com/maastricht-university/topicseg/topics"
	"github.com/maastricht-university/topicseg/transcript"
)

// Fetcher acquires the caption track of a video URL.
type Fetcher interface {
	Fetch(ctx context.Context, videoURL string) (*caption.Transcript, error)
}

type Option func(*Pipeline)

// WithFetcher replaces the configured caption sources.
func WithFetcher(f Fetcher) Option { return func(p *Pipeline) { p.fetch = f } }

// WithCompleter replaces the configured remote-LLM provider.
func WithCompleter(c clients.Completer) Option {
	return func(p *Pipeline) {
		p.completer = topics.NewCachedCompleter(c.Name(), func() (clients.Completer, error) { return c, nil })
	}
}

type Pipeline struct {
	cfg       *cfg.Root
	http      *clients.HTTP
	fetch     Fetcher
	norm      *transcript.Normalizer
	sel       *topics.Selector
	completer *topics.CachedCompleter
	kind      topics.Kind
	log       logrus.FieldLogger
}

func NewPipeline(c *cfg.Root, log logrus.FieldLogger, opts ...Option) (*Pipeline, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	kind, err := topics.ParseKind(c.Segment.Strategy)
	if err != nil {
		return nil, err
	}
	norm, err := transcript.NewNormalizer(log)
	if err != nil {
		return nil, err
	}
	vec, err := features.NewVectorizer(features.Options{
		MaxFeatures: c.Features.MaxFeatures,
		MaxDocFreq:  c.Features.MaxDocFreq,
		MinDocFreq:  c.Features.MinDocFreq,
	})
	if err != nil {
		return nil, err
	}

	p := &Pipeline{cfg: c, http: clients.NewHTTP(c.LLM.Timeout), norm: norm, kind: kind, log: log}
	provider, settings := c.ActiveProvider()
	p.completer = topics.NewCachedCompleter(provider, func() (clients.Completer, error) {
		return clients.NewCompleter(p.http, clients.ProviderConfig{
			Provider: provider,
			APIKey:   settings.APIKey,
			Model:    settings.Model,
			BaseURL:  settings.BaseURL,
		})
	})
	for _, o := range opts {
		o(p)
	}
	if p.fetch == nil {
		captions := clients.NewHTTP(c.Captions.Timeout)
		p.fetch = caption.NewFetcher(log,
			caption.NewTimedText(captions, c.Captions.BaseURL, c.Captions.Lang),
			caption.NewFiles(c.Captions.Dir),
		)
	}

	seg := topics.Options{
		WordsPerTopic: c.Segment.WordsPerTopic,
		MinTopics:     c.Segment.MinTopics,
		MaxTopics:     c.Segment.MaxTopics,
		MaxKeywords:   c.Segment.MaxKeywords,
	}
	stat := topics.NewAssembler(seg, vec, cluster.Options{
		Restarts:  c.Cluster.Restarts,
		MaxIter:   c.Cluster.MaxIter,
		Tolerance: c.Cluster.Tolerance,
		Seed:      c.Cluster.Seed,
	}, log)
	remote := topics.NewLLMSegmenter(p.completer, norm.Split, topics.LLMOptions{
		MaxChars:    settings.MaxChars,
		MaxKeywords: c.Segment.MaxKeywords,
		Timeout:     c.LLM.Timeout,
	}, log)
	p.sel = topics.NewSelector(stat, c.Segment.Fallback, log, remote)
	return p, nil
}

// DefaultStrategy is the configured segment.strategy.
func (p *Pipeline) DefaultStrategy() topics.Kind { return p.kind }

func (p *Pipeline) Fetch(ctx context.Context, videoURL string) (*caption.Transcript, error) {
	return p.fetch.Fetch(ctx, videoURL)
}

func (p *Pipeline) Clean(in transcript.Input) (*transcript.Cleaned, error) {
	return p.norm.Clean(in)
}

// Segment runs kind, or the configured strategy when kind is empty.
func (p *Pipeline) Segment(ctx context.Context, doc *transcript.Cleaned, numTopics int, kind topics.Kind) topics.Result {
	if kind == "" {
		kind = p.kind
	}
	return p.sel.SegmentTranscript(ctx, doc, numTopics, kind)
}

// SegmentSentences segments pre-split sentences.
func (p *Pipeline) SegmentSentences(ctx context.Context, sentences []string, numTopics int, kind topics.Kind) topics.Result {
	full := strings.Join(sentences, " ")
	doc := &transcript.Cleaned{
		FullText:      full,
		Sentences:     sentences,
		WordCount:     len(strings.Fields(full)),
		SentenceCount: len(sentences),
	}
	return p.Segment(ctx, doc, numTopics, kind)
}

// Run fetches, cleans, segments and glosses one video with the configured
// strategy.
func (p *Pipeline) Run(ctx context.Context, videoURL string, numTopics int) (*Report, error) {
	return p.Process(ctx, Request{VideoURL: videoURL, NumTopics: numTopics, Gloss: true})
}

// Process runs req. Acquisition and normalization failures abort the run; a
// degraded segmentation is reported in Report.Warning.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Report, error) {
	now := time.Now()
	rep := &Report{SessionID: newSessionID(now), VideoURL: req.VideoURL, GeneratedAt: now}
	log := p.log.WithFields(logrus.Fields{"session": rep.SessionID, "video": req.VideoURL})

	raw, err := p.fetch.Fetch(ctx, req.VideoURL)
	if err != nil {
		return nil, err
	}
	rep.Raw = raw

	doc, err := p.norm.Clean(transcript.Records(raw.Segments))
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", raw.VideoID, err)
	}
	rep.Cleaned = doc

	res := p.Segment(ctx, doc, req.NumTopics, req.Strategy)
	rep.Strategy = res.Strategy
	rep.Topics = res.Topics
	if res.Failed() {
		rep.Warning = res.Err.Error()
		log.WithError(res.Err).Warn("segmentation degraded")
	}
	if req.Gloss {
		rep.Topics = gloss.ConvertTopics(rep.Topics)
	}
	rep.Stats = topicStats(rep.Topics, doc.WordCount)

	if p.cfg.Paths.Outputs != "" {
		dir, err := persist(p.cfg.Paths.Outputs, rep)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", rep.SessionID, err)
		}
		log = log.WithField("dir", dir)
	}

	log.WithFields(logrus.Fields{
		"segments": raw.TotalSegments,
		"words":    doc.WordCount,
		"topics":   len(rep.Topics),
		"strategy": rep.Strategy,
	}).Info("pipeline done")
	return rep, nil
}
