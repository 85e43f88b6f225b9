package topics

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/topicseg/transcript"
)

// Strategy is a segmentation backend. Every implementation returns topics
// whose sentences keep transcript order and whose text joins them with spaces.
type Strategy interface {
	Name() Kind
	Run(ctx context.Context, doc *transcript.Cleaned, numTopics int) Result
}

// Selector dispatches to a configured strategy, falling back to the
// statistical one when a remote strategy fails.
type Selector struct {
	strategies map[Kind]Strategy
	fallback   bool
	log        logrus.FieldLogger
}

func NewSelector(statistical Strategy, fallback bool, log logrus.FieldLogger, others ...Strategy) *Selector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Selector{strategies: map[Kind]Strategy{}, fallback: fallback, log: log}
	s.strategies[Statistical] = statistical
	for _, o := range others {
		if o != nil {
			s.strategies[o.Name()] = o
		}
	}
	return s
}

// Has reports whether kind is configured.
func (s *Selector) Has(kind Kind) bool {
	_, ok := s.strategies[kind]
	return ok
}

// SegmentTranscript runs kind over doc.
func (s *Selector) SegmentTranscript(ctx context.Context, doc *transcript.Cleaned, numTopics int, kind Kind) Result {
	st, ok := s.strategies[kind]
	if !ok {
		err := fmt.Errorf("segmentation strategy %q is not configured", kind)
		if !s.fallback || kind == Statistical {
			return Result{Topics: []Topic{}, Strategy: kind, Err: err}
		}
		s.log.WithError(err).Warn("falling back to statistical segmentation")
		return s.strategies[Statistical].Run(ctx, doc, numTopics)
	}

	res := st.Run(ctx, doc, numTopics)
	if res.Failed() && kind != Statistical && s.fallback {
		s.log.WithError(res.Err).Warn("falling back to statistical segmentation")
		return s.strategies[Statistical].Run(ctx, doc, numTopics)
	}
	if res.Topics == nil {
		res.Topics = []Topic{}
	}
	return res
}
