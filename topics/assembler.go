package topics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/topicseg/cluster"
	"github.com/maastricht-university/topicseg/features"
	"github.com/maastricht-university/topicseg/transcript"
)

// Options hold the topic-count heuristic and labeling limits. The defaults
// approximate one topic per 200 words of speech; they are not tuned.
type Options struct {
	WordsPerTopic int // auto-K divisor (default: 200)
	MinTopics     int // auto-K floor (default: 3)
	MaxTopics     int // auto-K ceiling (default: 10)
	MaxKeywords   int // keywords per topic (default: 3)
}

func DefaultOptions() Options {
	return Options{
		WordsPerTopic: 200,
		MinTopics:     3,
		MaxTopics:     10,
		MaxKeywords:   3,
	}
}

// Assembler is the statistical segmenter: TF-IDF rows, k-means clusters,
// topics ordered by first appearance.
type Assembler struct {
	opts    Options
	vec     *features.Vectorizer
	cluster cluster.Options
	log     logrus.FieldLogger
}

func NewAssembler(opts Options, vec *features.Vectorizer, co cluster.Options, log logrus.FieldLogger) *Assembler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Assembler{opts: opts, vec: vec, cluster: co, log: log}
}

// AutoK derives a topic count from transcript length.
func (a *Assembler) AutoK(wordCount int) int {
	k := a.opts.MinTopics
	if a.opts.WordsPerTopic > 0 {
		k = wordCount / a.opts.WordsPerTopic
	}
	return max(a.opts.MinTopics, min(a.opts.MaxTopics, k))
}

// EffectiveK resolves the cluster count for n sentences. numTopics <= 0
// selects AutoK; more topics than sentences falls back to n/3.
func (a *Assembler) EffectiveK(n, numTopics, wordCount int) int {
	k := numTopics
	if k <= 0 {
		k = a.AutoK(wordCount)
	}
	if n < k {
		k = max(1, n/3)
	}
	return max(1, k)
}

// Name implements Strategy.
func (a *Assembler) Name() Kind { return Statistical }

// Run implements Strategy over the sentences of a cleaned transcript.
func (a *Assembler) Run(_ context.Context, doc *transcript.Cleaned, numTopics int) Result {
	if doc == nil {
		return a.Segment(nil, numTopics)
	}
	return a.Segment(doc.Sentences, numTopics)
}

// Segment groups sentences into topics. Vectorization and clustering faults
// never escape: they produce an empty result with Err set.
func (a *Assembler) Segment(sentences []string, numTopics int) (res Result) {
	res.Strategy = Statistical
	res.Topics = []Topic{}
	if len(sentences) == 0 {
		res.Err = ErrEmptyInput
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{Topics: []Topic{}, Strategy: Statistical, Err: fmt.Errorf("segment: %v", r)}
			a.log.WithError(res.Err).Warn("statistical segmentation failed")
		}
	}()

	words := len(strings.Fields(strings.Join(sentences, " ")))
	k := a.EffectiveK(len(sentences), numTopics, words)
	log := a.log.WithFields(logrus.Fields{"sentences": len(sentences), "words": words, "k": k})

	m := a.vec.Vectorize(sentences)
	assign, err := cluster.KMeans(m.Rows, k, a.cluster)
	if err != nil {
		res.Err = fmt.Errorf("cluster: %w", err)
		log.WithError(err).Warn("statistical segmentation failed")
		return res
	}

	for ordinal, id := range firstAppearance(assign.Labels) {
		members := assign.Members(id)
		keywords := topKeywords(cluster.Centroid(m.Rows, assign, id), m.Terms, a.opts.MaxKeywords)
		sents := make([]string, len(members))
		for i, idx := range members {
			sents[i] = sentences[idx]
		}
		res.Topics = append(res.Topics, Topic{
			ID:        ordinal,
			Name:      topicName(ordinal+1, keywords),
			Keywords:  keywords,
			Sentences: sents,
			Text:      strings.Join(sents, " "),
		})
	}

	log.WithField("topics", len(res.Topics)).Info("segmented transcript")
	return res
}

// firstAppearance lists cluster ids ordered by their lowest sentence index.
func firstAppearance(labels []int) []int {
	seen := map[int]bool{}
	var order []int
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			order = append(order, l)
		}
	}
	return order
}

// topKeywords returns up to limit terms with the heaviest non-zero centroid
// weight; equal weights keep vocabulary order.
func topKeywords(centroid []float64, terms []string, limit int) []string {
	idx := make([]int, 0, len(centroid))
	for j, w := range centroid {
		if w > 0 {
			idx = append(idx, j)
		}
	}
	sort.SliceStable(idx, func(i, j int) bool { return centroid[idx[i]] > centroid[idx[j]] })
	if len(idx) > limit {
		idx = idx[:max(limit, 0)]
	}
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = terms[j]
	}
	return out
}
