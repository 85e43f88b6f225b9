package transcript

// Segment is one timed caption line as delivered by a caption source.
type Segment struct {
	Text     string  `json:"text" yaml:"text"`
	Start    float64 `json:"start" yaml:"start"`       // sec
	Duration float64 `json:"duration" yaml:"duration"` // sec
}

// End returns the segment end time in seconds.
func (s Segment) End() float64 { return s.Start + s.Duration }

// Cleaned is the normalized form of a transcript: the cleaned text blob and
// its sentences in temporal order. SentenceCount always equals len(Sentences).
type Cleaned struct {
	FullText      string   `json:"full_text" yaml:"full_text"`
	Sentences     []string `json:"sentences" yaml:"sentences"`
	WordCount     int      `json:"word_count" yaml:"word_count"`
	SentenceCount int      `json:"sentence_count" yaml:"sentence_count"`
}

// NormalizationError reports input that could not be resolved to text.
type NormalizationError struct {
	Reason string
}

func (e *NormalizationError) Error() string { return "normalize transcript: " + e.Reason }
