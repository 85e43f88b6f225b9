package transcript

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"github.com/sirupsen/logrus"
)

var (
	reSpace    = regexp.MustCompile(`\s+`)
	reMarker   = regexp.MustCompile(`>>\s*`)
	reBracket  = regexp.MustCompile(`\[.*?\]`)
	reRepeated = regexp.MustCompile(`\.{2,}|!{2,}|\?{2,}`)
)

// Normalizer turns any accepted transcript shape into a Cleaned transcript.
type Normalizer struct {
	tok *sentences.DefaultSentenceTokenizer
	log logrus.FieldLogger
}

func NewNormalizer(log logrus.FieldLogger) (*Normalizer, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("sentence tokenizer: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Normalizer{tok: tok, log: log}, nil
}

// Clean resolves in to text, scrubs it and splits it into sentences.
func (n *Normalizer) Clean(in Input) (*Cleaned, error) {
	if in == nil {
		return nil, &NormalizationError{Reason: "transcript data is required"}
	}
	text, err := in.resolve()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, &NormalizationError{Reason: "no text content found in transcript"}
	}

	full := Scrub(text)
	sents := n.Split(full)

	out := &Cleaned{
		FullText:      full,
		Sentences:     sents,
		WordCount:     len(strings.Fields(full)),
		SentenceCount: len(sents),
	}
	n.log.WithFields(logrus.Fields{
		"words":     out.WordCount,
		"sentences": out.SentenceCount,
	}).Debug("transcript cleaned")
	return out, nil
}

// Scrub applies the cleaning steps in order: whitespace runs, ">>" speaker
// markers, bracketed annotations, repeated terminal punctuation.
func Scrub(text string) string {
	text = strings.TrimSpace(reSpace.ReplaceAllString(text, " "))
	text = reMarker.ReplaceAllString(text, "")
	text = reBracket.ReplaceAllString(text, "")
	text = reRepeated.ReplaceAllStringFunc(text, func(m string) string { return m[:1] })
	// bracket removal can leave doubled spaces behind
	return strings.TrimSpace(reSpace.ReplaceAllString(text, " "))
}

// Split breaks text into trimmed, non-empty sentences.
func (n *Normalizer) Split(text string) []string {
	var out []string
	for _, s := range n.tok.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}
