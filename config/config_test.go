package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Segment.WordsPerTopic != 200 || c.Segment.MinTopics != 3 || c.Segment.MaxTopics != 10 || c.Segment.MaxKeywords != 3 {
		t.Errorf("segment defaults = %+v", c.Segment)
	}
	if c.Features.MaxFeatures != 100 || c.Features.MaxDocFreq != 0.9 {
		t.Errorf("features defaults = %+v", c.Features)
	}
	if c.Cluster.Seed != 42 || c.Cluster.Restarts != 10 || c.Cluster.MaxIter != 300 {
		t.Errorf("cluster defaults = %+v", c.Cluster)
	}
	if c.LLM.Timeout != 60*time.Second || c.LLM.OpenAI.MaxChars != 4000 || c.LLM.Gemini.MaxChars != 0 {
		t.Errorf("llm defaults = %+v", c.LLM)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "segment:\n  max_topics: 6\n  strategy: remote-llm\nllm:\n  provider: openai\n  timeout: 5s\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TOPICSEG_SEGMENT_MIN_TOPICS", "2")
	t.Setenv("TOPICSEG_LLM_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Segment.MaxTopics != 6 || c.Segment.MinTopics != 2 || c.Segment.Strategy != "remote-llm" {
		t.Errorf("segment = %+v", c.Segment)
	}
	if c.Segment.WordsPerTopic != 200 {
		t.Errorf("unset key lost its default: %+v", c.Segment)
	}
	name, p := c.ActiveProvider()
	if name != "openai" || p.APIKey != "sk-test" || p.Model != "gpt-4" {
		t.Errorf("provider = %s %+v", name, p)
	}
	if c.LLM.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", c.LLM.Timeout)
	}
}

func TestLoadRejects(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing explicit file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("features:\n  max_doc_freq: 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected a validation error")
	}
}

func TestWriteTemplateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTemplate(&buf); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load(template): %v\n%s", err, buf.String())
	}
	if c.Server.Addr != ":3000" || c.Segment.Strategy != "statistical" {
		t.Errorf("round trip = %+v", c)
	}
}
