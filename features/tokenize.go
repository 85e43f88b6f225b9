package features

import (
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// minTermRunes drops single-letter tokens.
const minTermRunes = 2

// Tokenizer lowercases, splits on unicode word boundaries and removes
// English stop words.
type Tokenizer struct {
	analyzer analysis.Analyzer
}

func NewTokenizer() (*Tokenizer, error) {
	stopWords := analysis.NewTokenMap()
	if err := stopWords.LoadBytes(en.EnglishStopWords); err != nil {
		return nil, err
	}
	return &Tokenizer{analyzer: &analysis.DefaultAnalyzer{
		Tokenizer: unicode.NewUnicodeTokenizer(),
		TokenFilters: []analysis.TokenFilter{
			lowercase.NewLowerCaseFilter(),
			stop.NewStopTokensFilter(stopWords),
		},
	}}, nil
}

// Terms returns the retained terms of text in order of occurrence.
func (t *Tokenizer) Terms(text string) []string {
	stream := t.analyzer.Analyze([]byte(text))
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		if utf8.RuneCount(tok.Term) < minTermRunes {
			continue
		}
		out = append(out, string(tok.Term))
	}
	return out
}
