package topics

import (
	"errors"
	"fmt"
	"strings"
)

// Topic is one labeled group of transcript sentences in original order.
type Topic struct {
	ID        int      `json:"topic_id" yaml:"topic_id"`
	Name      string   `json:"topic_name" yaml:"topic_name"`
	Keywords  []string `json:"keywords" yaml:"keywords"`
	Sentences []string `json:"sentences" yaml:"sentences"`
	Text      string   `json:"text" yaml:"text"`
	Gloss     string   `json:"gloss,omitempty" yaml:"gloss,omitempty"`
}

// Kind names a segmentation strategy.
type Kind string

const (
	Statistical Kind = "statistical"
	RemoteLLM   Kind = "remote-llm"
)

// ParseKind accepts the strategy names used in config and requests.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "statistical", "tfidf", "kmeans":
		return Statistical, nil
	case "remote-llm", "llm", "remote":
		return RemoteLLM, nil
	}
	return "", fmt.Errorf("unknown segmentation strategy %q", s)
}

// ErrEmptyInput marks a result for a transcript with no sentences. It is not a fault.
var ErrEmptyInput = errors.New("no sentences to segment")

// Result carries the topics of one segmentation call. Err explains an empty
// result: ErrEmptyInput for empty input, anything else for a failed stage.
type Result struct {
	Topics   []Topic `json:"topics" yaml:"topics"`
	Strategy Kind    `json:"strategy" yaml:"strategy"`
	Err      error   `json:"-" yaml:"-"`
}

// Failed reports whether the result was degraded by an internal or remote fault.
func (r Result) Failed() bool {
	return r.Err != nil && !errors.Is(r.Err, ErrEmptyInput)
}

// RemoteError wraps a failed remote-LLM segmentation.
type RemoteError struct {
	Provider string
	Err      error
}

func (e *RemoteError) Error() string { return fmt.Sprintf("remote segmentation (%s): %v", e.Provider, e.Err) }

func (e *RemoteError) Unwrap() error { return e.Err }

func topicName(ordinal int, keywords []string) string {
	if len(keywords) == 0 {
		return fmt.Sprintf("Topic %d", ordinal)
	}
	return fmt.Sprintf("Topic %d: %s", ordinal, strings.Join(keywords, ", "))
}
