package topics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/topicseg/clients"
	"github.com/maastricht-university/topicseg/transcript"
)

const systemPrompt = "You are a video content analyzer specializing in topic segmentation."

const promptTemplate = `Analyze this video transcript and divide it into %s distinct topic sections.

For each topic, provide:
1. A clear topic name (2-5 words)
2. %d relevant keywords
3. The transcript text for that section

Return ONLY a JSON array with this structure:
[{"topic_name": "Topic Name", "keywords": ["keyword1", "keyword2", "keyword3"], "text": "transcript text for this topic"}]

Transcript:
%s`

var errNoTopics = errors.New("response contained no topics")

// CachedCompleter builds its Completer on first use and reuses it, including
// a failed build.
type CachedCompleter struct {
	provider string
	build    func() (clients.Completer, error)

	once sync.Once
	c    clients.Completer
	err  error
}

func NewCachedCompleter(provider string, build func() (clients.Completer, error)) *CachedCompleter {
	return &CachedCompleter{provider: provider, build: build}
}

func (cc *CachedCompleter) Get() (clients.Completer, error) {
	cc.once.Do(func() { cc.c, cc.err = cc.build() })
	return cc.c, cc.err
}

// Splitter breaks text into sentences.
type Splitter func(text string) []string

// LLMOptions configure the remote strategy.
type LLMOptions struct {
	MaxChars    int           // transcript cap sent to the provider, 0 for none
	MaxKeywords int           // keywords kept per topic
	Timeout     time.Duration // per-call deadline, 0 for the caller's
}

// LLMSegmenter delegates segmentation to a text-generation backend.
type LLMSegmenter struct {
	client *CachedCompleter
	split  Splitter
	opts   LLMOptions
	log    logrus.FieldLogger
}

func NewLLMSegmenter(client *CachedCompleter, split Splitter, opts LLMOptions, log logrus.FieldLogger) *LLMSegmenter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.MaxKeywords <= 0 {
		opts.MaxKeywords = DefaultOptions().MaxKeywords
	}
	return &LLMSegmenter{client: client, split: split, opts: opts, log: log}
}

// Name implements Strategy.
func (s *LLMSegmenter) Name() Kind { return RemoteLLM }

// Run implements Strategy over the full text of a cleaned transcript.
func (s *LLMSegmenter) Run(ctx context.Context, doc *transcript.Cleaned, numTopics int) Result {
	if doc == nil || strings.TrimSpace(doc.FullText) == "" {
		return Result{Topics: []Topic{}, Strategy: RemoteLLM, Err: ErrEmptyInput}
	}
	return s.Segment(ctx, doc.FullText, numTopics)
}

// Segment asks the backend for topic sections of text. Any failure yields a
// Result with no topics and a *RemoteError.
func (s *LLMSegmenter) Segment(ctx context.Context, text string, numTopics int) Result {
	res := Result{Topics: []Topic{}, Strategy: RemoteLLM}
	fail := func(err error) Result {
		rerr := &RemoteError{Provider: s.client.provider, Err: err}
		s.log.WithError(rerr).Warn("remote segmentation failed")
		return Result{Topics: []Topic{}, Strategy: RemoteLLM, Err: rerr}
	}

	c, err := s.client.Get()
	if err != nil {
		return fail(err)
	}
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	out, err := c.Complete(ctx, systemPrompt, s.prompt(text, numTopics))
	if err != nil {
		return fail(err)
	}
	raw, err := parseSections(out)
	if err != nil {
		return fail(err)
	}

	for _, sec := range raw {
		sents := s.split(sec.Text)
		if len(sents) == 0 {
			continue
		}
		id := len(res.Topics)
		kws := sec.Keywords
		if len(kws) > s.opts.MaxKeywords {
			kws = kws[:s.opts.MaxKeywords]
		}
		name := strings.TrimSpace(sec.TopicName)
		if name == "" {
			name = topicName(id+1, nil)
		}
		res.Topics = append(res.Topics, Topic{
			ID:        id,
			Name:      name,
			Keywords:  kws,
			Sentences: sents,
			Text:      strings.Join(sents, " "),
		})
	}
	if len(res.Topics) == 0 {
		return fail(errNoTopics)
	}

	s.log.WithFields(logrus.Fields{"provider": c.Name(), "topics": len(res.Topics)}).Info("remote segmentation done")
	return res
}

func (s *LLMSegmenter) prompt(text string, numTopics int) string {
	count := "meaningful"
	if numTopics > 0 {
		count = fmt.Sprint(numTopics)
	}
	if s.opts.MaxChars > 0 {
		if r := []rune(text); len(r) > s.opts.MaxChars {
			text = string(r[:s.opts.MaxChars])
		}
	}
	return fmt.Sprintf(promptTemplate, count, s.opts.MaxKeywords, text)
}

type section struct {
	TopicName string   `json:"topic_name"`
	Keywords  []string `json:"keywords"`
	Text      string   `json:"text"`
}

// parseSections decodes the JSON array in a model reply, tolerating fenced
// code blocks and surrounding prose.
func parseSections(reply string) ([]section, error) {
	body := reply
	if i := strings.Index(body, "```json"); i >= 0 {
		body = body[i+len("```json"):]
		if j := strings.Index(body, "```"); j >= 0 {
			body = body[:j]
		}
	} else if i := strings.Index(body, "```"); i >= 0 {
		body = body[i+3:]
		if j := strings.Index(body, "```"); j >= 0 {
			body = body[:j]
		}
	}
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "[") {
		i, j := strings.Index(body, "["), strings.LastIndex(body, "]")
		if i < 0 || j < i {
			return nil, fmt.Errorf("no JSON array in response")
		}
		body = body[i : j+1]
	}

	var out []section
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return out, nil
}
