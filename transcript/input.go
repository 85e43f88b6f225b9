package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Input is one of the accepted transcript shapes: PlainText, Records,
// SegmentsWrapper or FullTextWrapper.
type Input interface {
	resolve() (string, error)
}

// PlainText is a raw transcript string.
type PlainText string

// Records is a bare collection of caption records.
type Records []Segment

// SegmentsWrapper is the fetch payload shape exposing a segments list.
type SegmentsWrapper struct {
	Segments []Segment `json:"segments"`
}

// FullTextWrapper carries a precomputed full text.
type FullTextWrapper struct {
	Full string `json:"full"`
}

func (p PlainText) resolve() (string, error) { return string(p), nil }

func (r Records) resolve() (string, error) { return joinText(r), nil }

func (w SegmentsWrapper) resolve() (string, error) { return joinText(w.Segments), nil }

func (w FullTextWrapper) resolve() (string, error) { return w.Full, nil }

func joinText(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

// DecodeInput maps a JSON transcript payload onto one of the Input variants.
// Strings are plain text; arrays are record collections (string elements are
// taken verbatim); objects are resolved by their "segments", "full" or
// "text" key, in that order.
func DecodeInput(raw []byte) (Input, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, &NormalizationError{Reason: "transcript data is required"}
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, &NormalizationError{Reason: fmt.Sprintf("decode text: %v", err)}
		}
		return PlainText(s), nil

	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, &NormalizationError{Reason: fmt.Sprintf("decode records: %v", err)}
		}
		recs := make(Records, 0, len(elems))
		for _, e := range elems {
			recs = append(recs, decodeRecord(e))
		}
		return recs, nil

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, &NormalizationError{Reason: fmt.Sprintf("decode object: %v", err)}
		}
		if segs, ok := obj["segments"]; ok {
			return decodeSegments(segs), nil
		}
		if full, ok := obj["full"]; ok {
			return FullTextWrapper{Full: scalarText(full)}, nil
		}
		if text, ok := obj["text"]; ok {
			return PlainText(scalarText(text)), nil
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, &NormalizationError{Reason: fmt.Sprintf("unknown object format with keys %v", keys)}
	}

	return nil, &NormalizationError{Reason: fmt.Sprintf("unsupported transcript type %q", string(raw))}
}

func decodeRecord(e json.RawMessage) Segment {
	e = bytes.TrimSpace(e)
	if len(e) > 0 && e[0] == '{' {
		var seg Segment
		if err := json.Unmarshal(e, &seg); err == nil {
			return seg
		}
		var loose map[string]json.RawMessage
		if err := json.Unmarshal(e, &loose); err == nil {
			return Segment{Text: scalarText(loose["text"])}
		}
		return Segment{}
	}
	return Segment{Text: scalarText(e)}
}

// decodeSegments keeps only object entries of a segments list; a non-list
// value is used as text.
func decodeSegments(raw json.RawMessage) Input {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return PlainText(scalarText(raw))
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return PlainText(scalarText(raw))
	}
	w := SegmentsWrapper{Segments: make([]Segment, 0, len(elems))}
	for _, e := range elems {
		e = bytes.TrimSpace(e)
		if len(e) == 0 || e[0] != '{' {
			continue
		}
		w.Segments = append(w.Segments, decodeRecord(e))
	}
	return w
}

func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
