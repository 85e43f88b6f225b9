package features

import (
	"math"
	"sort"
)

// Options bound the vocabulary built by Vectorize.
type Options struct {
	MaxFeatures int     // vocabulary cap (default: 100)
	MaxDocFreq  float64 // drop terms present in more than this share of sentences (default: 0.9)
	MinDocFreq  int     // drop terms present in fewer sentences than this (default: 1)
}

func DefaultOptions() Options {
	return Options{
		MaxFeatures: 100,
		MaxDocFreq:  0.9,
		MinDocFreq:  1,
	}
}

// Matrix holds one TF-IDF row per sentence over Terms. Rows are only
// comparable with rows of the same Matrix.
type Matrix struct {
	Terms []string
	Rows  [][]float64
}

// Dims returns the vocabulary size.
func (m *Matrix) Dims() int { return len(m.Terms) }

// Vectorizer builds TF-IDF matrices from sentence collections.
type Vectorizer struct {
	opts Options
	tok  *Tokenizer
}

func NewVectorizer(opts Options) (*Vectorizer, error) {
	tok, err := NewTokenizer()
	if err != nil {
		return nil, err
	}
	return &Vectorizer{opts: opts, tok: tok}, nil
}

type termStat struct {
	term  string
	first int // first-appearance rank
	df    int
	count int
}

// Vectorize builds the vocabulary from sentences alone and returns their
// L2-normalised TF-IDF rows. Sentences without retained terms get a zero row.
func (v *Vectorizer) Vectorize(sentences []string) *Matrix {
	n := len(sentences)
	docs := make([]map[string]int, n)
	stats := map[string]*termStat{}
	var order []*termStat

	for i, s := range sentences {
		tf := map[string]int{}
		for _, term := range v.tok.Terms(s) {
			st, ok := stats[term]
			if !ok {
				st = &termStat{term: term, first: len(order)}
				stats[term] = st
				order = append(order, st)
			}
			if tf[term] == 0 {
				st.df++
			}
			tf[term]++
			st.count++
		}
		docs[i] = tf
	}

	maxDocs := v.opts.MaxDocFreq * float64(n)
	kept := make([]*termStat, 0, len(order))
	for _, st := range order {
		if v.opts.MaxDocFreq > 0 && float64(st.df) > maxDocs {
			continue
		}
		if st.df < v.opts.MinDocFreq {
			continue
		}
		kept = append(kept, st)
	}

	if v.opts.MaxFeatures > 0 && len(kept) > v.opts.MaxFeatures {
		sort.SliceStable(kept, func(i, j int) bool { return kept[i].count > kept[j].count })
		kept = kept[:v.opts.MaxFeatures]
		sort.Slice(kept, func(i, j int) bool { return kept[i].first < kept[j].first })
	}

	m := &Matrix{Terms: make([]string, len(kept)), Rows: make([][]float64, n)}
	idf := make([]float64, len(kept))
	for j, st := range kept {
		m.Terms[j] = st.term
		idf[j] = math.Log(float64(1+n)/float64(1+st.df)) + 1
	}

	for i, tf := range docs {
		row := make([]float64, len(kept))
		for j, st := range kept {
			row[j] = float64(tf[st.term]) * idf[j]
		}
		normalize(row)
		m.Rows[i] = row
	}
	return m
}

func normalize(row []float64) {
	var sum float64
	for _, x := range row {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range row {
		row[i] /= norm
	}
}

// Cosine returns the cosine similarity of two rows, 0 when either is zero.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
