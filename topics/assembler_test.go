package topics

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/maastricht-university/topicseg/cluster"
	"github.com/maastricht-university/topicseg/features"
	"github.com/maastricht-university/topicseg/transcript"
)

var animalsAndFinance = []string{
	"Cats are mammals.",
	"Dogs are mammals too.",
	"The stock market rose today.",
	"Investors were pleased with earnings.",
}

var lecture = []string{
	"Photosynthesis converts sunlight into chemical energy.",
	"Plants absorb sunlight through chlorophyll in their leaves.",
	"The French revolution began in 1789.",
	"Chlorophyll gives leaves their green colour.",
	"Revolutionaries stormed the Bastille prison in Paris.",
	"Interest rates affect mortgage payments.",
	"The revolution ended the French monarchy.",
	"Central banks raise interest rates to fight inflation.",
	"Mortgage payments rise when rates climb.",
	"Sunlight drives photosynthesis in green plants.",
}

func newTestAssembler(t *testing.T) *Assembler {
	t.Helper()
	vec, err := features.NewVectorizer(features.DefaultOptions())
	if err != nil {
		t.Fatalf("NewVectorizer: %v", err)
	}
	return NewAssembler(DefaultOptions(), vec, cluster.DefaultOptions(), nil)
}

func TestSegmentAnimalsAndFinance(t *testing.T) {
	a := newTestAssembler(t)
	res := a.Segment(animalsAndFinance, 2)
	if res.Err != nil {
		t.Fatalf("Segment: %v", res.Err)
	}
	if len(res.Topics) != 2 {
		t.Fatalf("got %d topics, want 2", len(res.Topics))
	}

	want := [][]string{animalsAndFinance[:2], animalsAndFinance[2:]}
	for i, tp := range res.Topics {
		if tp.ID != i {
			t.Errorf("topic %d id = %d", i, tp.ID)
		}
		if !reflect.DeepEqual(tp.Sentences, want[i]) {
			t.Errorf("topic %d sentences = %q, want %q", i, tp.Sentences, want[i])
		}
		if tp.Text != strings.Join(want[i], " ") {
			t.Errorf("topic %d text = %q", i, tp.Text)
		}
		if len(tp.Keywords) == 0 || len(tp.Keywords) > 3 {
			t.Errorf("topic %d keywords = %q", i, tp.Keywords)
		}
		members := strings.ToLower(tp.Text)
		for _, kw := range tp.Keywords {
			if !strings.Contains(members, kw) {
				t.Errorf("topic %d keyword %q not in its sentences", i, kw)
			}
		}
		if !strings.HasPrefix(tp.Name, "Topic ") || !strings.Contains(tp.Name, tp.Keywords[0]) {
			t.Errorf("topic %d name = %q", i, tp.Name)
		}
	}
	if res.Topics[0].Keywords[0] != "mammals" {
		t.Errorf("top animal keyword = %q, want mammals", res.Topics[0].Keywords[0])
	}
	if res.Topics[0].Name != "Topic 1: "+strings.Join(res.Topics[0].Keywords, ", ") {
		t.Errorf("name = %q", res.Topics[0].Name)
	}
}

func TestSegmentCoversEverySentenceOnce(t *testing.T) {
	a := newTestAssembler(t)
	for _, k := range []int{0, 1, 2, 3, 5, 10} {
		res := a.Segment(lecture, k)
		if res.Err != nil {
			t.Fatalf("k=%d: %v", k, res.Err)
		}
		var got []string
		for _, tp := range res.Topics {
			got = append(got, tp.Sentences...)
		}
		want := append([]string(nil), lecture...)
		sort.Strings(got)
		sort.Strings(want)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("k=%d: sentences lost or duplicated:\n got %q\nwant %q", k, got, want)
		}
	}
}

func TestSegmentChronologicalOrder(t *testing.T) {
	a := newTestAssembler(t)
	index := map[string]int{}
	for i, s := range lecture {
		index[s] = i
	}

	res := a.Segment(lecture, 3)
	if len(res.Topics) == 0 {
		t.Fatalf("no topics: %v", res.Err)
	}
	if first := index[res.Topics[0].Sentences[0]]; first != 0 {
		t.Errorf("first topic starts at sentence %d, want 0", first)
	}
	for i, tp := range res.Topics {
		for j := 1; j < len(tp.Sentences); j++ {
			if index[tp.Sentences[j-1]] >= index[tp.Sentences[j]] {
				t.Errorf("topic %d sentences out of order: %q", i, tp.Sentences)
			}
		}
		head := index[tp.Sentences[0]]
		for _, later := range res.Topics[i+1:] {
			for _, s := range later.Sentences {
				if index[s] < head {
					t.Errorf("topic %d starts at %d but a later topic holds sentence %d", i, head, index[s])
				}
			}
		}
	}
}

func TestEffectiveK(t *testing.T) {
	a := newTestAssembler(t)
	tests := []struct {
		name                string
		n, numTopics, words int
		want                int
	}{
		{"explicit", 20, 4, 300, 4},
		{"auto floor", 20, 0, 100, 3},
		{"auto scaled", 40, 0, 1000, 5},
		{"auto ceiling", 80, 0, 5000, 10},
		{"too few sentences", 2, 10, 8, 1},
		{"few sentences auto", 7, 0, 3000, 2},
		{"single sentence", 1, 0, 4, 1},
		{"negative is auto", 20, -1, 900, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.EffectiveK(tt.n, tt.numTopics, tt.words); got != tt.want {
				t.Errorf("EffectiveK(%d, %d, %d) = %d, want %d", tt.n, tt.numTopics, tt.words, got, tt.want)
			}
		})
	}
}

func TestSegmentClampsToSentenceCount(t *testing.T) {
	a := newTestAssembler(t)
	res := a.Segment([]string{"Only two sentences here.", "This is the second one."}, 10)
	if res.Err != nil {
		t.Fatalf("Segment: %v", res.Err)
	}
	if len(res.Topics) != 1 || len(res.Topics[0].Sentences) != 2 {
		t.Errorf("got %+v, want one topic holding both sentences", res.Topics)
	}
}

func TestSegmentSingleSentence(t *testing.T) {
	a := newTestAssembler(t)
	res := a.Segment([]string{"A lone sentence."}, 0)
	if res.Err != nil {
		t.Fatalf("Segment: %v", res.Err)
	}
	if len(res.Topics) != 1 || res.Topics[0].Name != "Topic 1" || len(res.Topics[0].Keywords) != 0 {
		t.Errorf("got %+v", res.Topics)
	}
}

func TestSegmentDeterministic(t *testing.T) {
	a := newTestAssembler(t)
	first := a.Segment(lecture, 3)
	for i := 0; i < 3; i++ {
		if again := a.Segment(lecture, 3); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestSegmentEmpty(t *testing.T) {
	a := newTestAssembler(t)
	res := a.Segment(nil, 0)
	if len(res.Topics) != 0 || res.Topics == nil {
		t.Errorf("Topics = %#v, want empty non-nil", res.Topics)
	}
	if res.Err != ErrEmptyInput || res.Failed() {
		t.Errorf("Err = %v, Failed = %v", res.Err, res.Failed())
	}

	res = a.Run(context.Background(), &transcript.Cleaned{}, 0)
	if res.Err != ErrEmptyInput {
		t.Errorf("Run on empty transcript: %v", res.Err)
	}
}

func TestSegmentRecoversInternalFault(t *testing.T) {
	a := NewAssembler(DefaultOptions(), nil, cluster.DefaultOptions(), nil)
	res := a.Segment(animalsAndFinance, 2)
	if !res.Failed() {
		t.Fatalf("expected a failed result, got %+v", res)
	}
	if len(res.Topics) != 0 {
		t.Errorf("Topics = %+v, want none", res.Topics)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", Statistical, false},
		{"statistical", Statistical, false},
		{"TFIDF", Statistical, false},
		{"remote-llm", RemoteLLM, false},
		{" llm ", RemoteLLM, false},
		{"bert", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestTopKeywordsTiesKeepVocabularyOrder(t *testing.T) {
	terms := []string{"alpha", "beta", "gamma", "delta", "omega"}
	tests := []struct {
		name     string
		centroid []float64
		limit    int
		want     []string
	}{
		{"all tied", []float64{0.5, 0, 0.5, 0.5, 0}, 3, []string{"alpha", "gamma", "delta"}},
		{"tie after leader", []float64{0.4, 0, 0.4, 0.8, 0}, 3, []string{"delta", "alpha", "gamma"}},
		{"tie cut by limit", []float64{0, 0.3, 0, 0.3, 0.3}, 2, []string{"beta", "delta"}},
		{"fewer than limit", []float64{0, 0, 0.7, 0, 0}, 3, []string{"gamma"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := topKeywords(tt.centroid, terms, tt.limit); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("topKeywords() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSegmentTiedKeywordsFromSingleSentence(t *testing.T) {
	a := newTestAssembler(t)
	res := a.Segment([]string{
		"Cats purr.",
		"Stocks rose sharply.",
		"Stocks fell sharply.",
	}, 2)
	if res.Err != nil || len(res.Topics) != 2 {
		t.Fatalf("Segment: %+v", res)
	}
	if want := []string{"cats", "purr"}; !reflect.DeepEqual(res.Topics[0].Keywords, want) {
		t.Errorf("keywords = %q, want %q", res.Topics[0].Keywords, want)
	}
}
