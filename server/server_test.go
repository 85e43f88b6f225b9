package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maastricht-university/topicseg/caption"
	cfg "github.com/maastricht-university/topicseg/config"
	"github.com/maastricht-university/topicseg/orchestrator"
	"github.com/maastricht-university/topicseg/transcript"
)

type stubFetcher map[string]*caption.Transcript

func (s stubFetcher) Fetch(_ context.Context, url string) (*caption.Transcript, error) {
	if tr, ok := s[url]; ok {
		return tr, nil
	}
	return nil, &caption.AcquisitionError{URL: url, Err: errors.New("no transcript available")}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	segs := []transcript.Segment{
		{Text: "Cats are mammals.", Start: 0, Duration: 1},
		{Text: "Dogs are mammals too.", Start: 1, Duration: 1},
		{Text: "The stock market rose today.", Start: 2, Duration: 1},
		{Text: "Investors were pleased with earnings.", Start: 3, Duration: 1},
	}
	f := stubFetcher{"https://youtu.be/dQw4w9WgXcQ": {
		VideoID: "dQw4w9WgXcQ", Segments: segs, Full: "joined", TotalSegments: 4, Method: "stub",
	}}
	p, err := orchestrator.NewPipeline(cfg.Default(), nil, orchestrator.WithFetcher(f))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return New(p, nil)
}

func do(t *testing.T, s *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, b, err)
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	code, out := do(t, newTestServer(t), http.MethodGet, "/health", "")
	if code != http.StatusOK || out["status"] != "healthy" {
		t.Errorf("health = %d %v", code, out)
	}
}

func TestTranscript(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		body string
		code int
	}{
		{"ok", `{"videoUrl": " https://youtu.be/dQw4w9WgXcQ "}`, http.StatusOK},
		{"missing url", `{}`, http.StatusBadRequest},
		{"unknown video", `{"videoUrl": "https://youtu.be/zzzzzzzzzzz"}`, http.StatusNotFound},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := do(t, s, http.MethodPost, "/api/transcript", tt.body)
			if code != tt.code {
				t.Fatalf("status = %d, want %d (%v)", code, tt.code, out)
			}
			if ok := code == http.StatusOK; out["success"] != ok {
				t.Errorf("success = %v", out["success"])
			}
			if code == http.StatusOK && out["totalSegments"] != float64(4) {
				t.Errorf("body = %v", out)
			}
		})
	}
}

func TestClean(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []string{
		`{"transcript": "Hello world"}`,
		`{"transcript": {"full": "Hello world"}}`,
		`{"transcript": {"segments": [{"text": "Hello"}, {"text": "world"}]}}`,
		`{"transcript": [{"text": "Hello"}, {"text": "world"}]}`,
	} {
		code, out := do(t, s, http.MethodPost, "/api/clean", body)
		if code != http.StatusOK || out["full_text"] != "Hello world" || out["word_count"] != float64(2) {
			t.Errorf("%s -> %d %v", body, code, out)
		}
	}
	for _, body := range []string{`{}`, `{"transcript": ""}`, `{"transcript": {"foo": 1}}`, `{"transcript": "   "}`} {
		if code, out := do(t, s, http.MethodPost, "/api/clean", body); code != http.StatusBadRequest || out["success"] != false {
			t.Errorf("%s -> %d %v", body, code, out)
		}
	}
}

func TestSegment(t *testing.T) {
	s := newTestServer(t)
	body := `{"sentences": ["Cats are mammals.", "Dogs are mammals too.", "The stock market rose today.", "Investors were pleased with earnings."], "numTopics": 2}`
	code, out := do(t, s, http.MethodPost, "/api/segment", body)
	if code != http.StatusOK || out["numTopics"] != float64(2) || out["strategy"] != "statistical" {
		t.Fatalf("segment = %d %v", code, out)
	}
	first := out["topics"].([]any)[0].(map[string]any)
	if first["topic_id"] != float64(0) || len(first["sentences"].([]any)) != 2 {
		t.Errorf("first topic = %v", first)
	}

	if code, _ := do(t, s, http.MethodPost, "/api/segment", `{"sentences": []}`); code != http.StatusBadRequest {
		t.Errorf("empty sentences -> %d", code)
	}
	if code, _ := do(t, s, http.MethodPost, "/api/segment", `{"sentences": ["a."], "strategy": "bert"}`); code != http.StatusBadRequest {
		t.Errorf("unknown strategy -> %d", code)
	}
}

func TestGloss(t *testing.T) {
	s := newTestServer(t)
	code, out := do(t, s, http.MethodPost, "/api/gloss", `{"text": "The cat is here."}`)
	if code != http.StatusOK || out["gloss"] != "CAT IS HERE." {
		t.Errorf("text gloss = %d %v", code, out)
	}

	code, out = do(t, s, http.MethodPost, "/api/gloss", `{"topics": [{"topic_id": 0, "topic_name": "Topic 1", "text": "I am happy."}]}`)
	if code != http.StatusOK {
		t.Fatalf("topics gloss = %d %v", code, out)
	}
	if g := out["topics"].([]any)[0].(map[string]any)["gloss"]; g != "I HAPPY." {
		t.Errorf("topic gloss = %v", g)
	}

	for _, body := range []string{`{"text": ""}`, `{"topics": []}`, `{"other": 1}`} {
		if code, _ := do(t, s, http.MethodPost, "/api/gloss", body); code != http.StatusBadRequest {
			t.Errorf("%s -> %d", body, code)
		}
	}
}

func TestProcess(t *testing.T) {
	s := newTestServer(t)
	code, out := do(t, s, http.MethodPost, "/api/process", `{"videoUrl": "https://youtu.be/dQw4w9WgXcQ", "numTopics": 2}`)
	if code != http.StatusOK {
		t.Fatalf("process = %d %v", code, out)
	}
	ts := out["topics"].([]any)
	if len(ts) != 2 || ts[0].(map[string]any)["gloss"] == nil {
		t.Errorf("topics = %v", ts)
	}
	if out["cleanedData"].(map[string]any)["sentence_count"] != float64(4) {
		t.Errorf("cleanedData = %v", out["cleanedData"])
	}

	if code, _ := do(t, s, http.MethodPost, "/api/process", `{"videoUrl": "https://youtu.be/zzzzzzzzzzz"}`); code != http.StatusNotFound {
		t.Errorf("unknown video -> %d", code)
	}
	if code, _ := do(t, s, http.MethodPost, "/api/process", `{"videoUrl": ""}`); code != http.StatusBadRequest {
		t.Errorf("missing url -> %d", code)
	}
}
