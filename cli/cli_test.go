package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand(&out, &errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

const animals = "Cats are mammals. Dogs are mammals too. The stock market rose today. Investors were pleased with earnings."

func TestGlossCommand(t *testing.T) {
	got, err := run(t, "", "gloss", "The", "cat", "isn't", "here!")
	if err != nil {
		t.Fatal(err)
	}
	if got != "CAT NOT HERE.\n" {
		t.Errorf("gloss = %q", got)
	}

	got, err = run(t, "I am fine.", "gloss")
	if err != nil || got != "I FINE.\n" {
		t.Errorf("gloss from stdin = %q, %v", got, err)
	}
	if _, err := run(t, "  ", "gloss"); err == nil {
		t.Error("expected an error for empty input")
	}
}

func TestCleanCommand(t *testing.T) {
	got, err := run(t, `{"segments": [{"text": ">> Hello"}, {"text": "world [Music]"}]}`, "clean", "--log-level", "error")
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		FullText  string `json:"full_text"`
		WordCount int    `json:"word_count"`
	}
	if err := json.Unmarshal([]byte(got), &doc); err != nil {
		t.Fatalf("decode %q: %v", got, err)
	}
	if doc.FullText != "Hello world" || doc.WordCount != 2 {
		t.Errorf("clean = %+v", doc)
	}

	if _, err := run(t, `{"unknown": 1}`, "clean"); err == nil {
		t.Error("expected a normalization error")
	}
}

func TestSegmentCommandStdin(t *testing.T) {
	got, err := run(t, animals, "segment", "-k", "2", "-o", "yaml", "--log-level", "error")
	if err != nil {
		t.Fatal(err)
	}
	var res struct {
		Strategy string `yaml:"strategy"`
		Topics   []struct {
			Name      string   `yaml:"topic_name"`
			Sentences []string `yaml:"sentences"`
		} `yaml:"topics"`
	}
	if err := yaml.Unmarshal([]byte(got), &res); err != nil {
		t.Fatalf("decode %q: %v", got, err)
	}
	if res.Strategy != "statistical" || len(res.Topics) != 2 || len(res.Topics[0].Sentences) != 2 {
		t.Errorf("segment = %+v", res)
	}
}

func TestSegmentCommandFiles(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "week1")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(path, body string) {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(dir, "a.txt"), animals)
	write(filepath.Join(nested, "b.txt"), animals)
	write(filepath.Join(nested, "c.srt"), "1\n00:00:00,000 --> 00:00:02,000\nCats are mammals.\n\n2\n00:00:02,000 --> 00:00:04,000\nDogs are mammals too.\n")
	write(filepath.Join(dir, "empty.json"), `{"full": ""}`)

	explicit := filepath.Join(dir, "a.txt")
	got, err := run(t, "", "segment", explicit, "--glob", filepath.Join(dir, "**", "*.{txt,srt,json}"), "-k", "2", "--gloss", "--log-level", "error")
	if err != nil {
		t.Fatal(err)
	}
	var res []fileResult
	if err := json.Unmarshal([]byte(got), &res); err != nil {
		t.Fatalf("decode %q: %v", got, err)
	}
	if len(res) != 4 {
		t.Fatalf("got %d results, want 4 (explicit file listed once): %+v", len(res), res)
	}
	if res[0].File != explicit || len(res[0].Topics) != 2 || res[0].Topics[0].Gloss == "" {
		t.Errorf("first = %+v", res[0])
	}
	for _, r := range res {
		switch filepath.Base(r.File) {
		case "empty.json":
			if r.Error == "" {
				t.Errorf("empty transcript should report an error: %+v", r)
			}
		case "c.srt":
			if r.Error != "" || len(r.Topics) != 2 {
				t.Errorf("srt result = %+v", r)
			}
		}
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "dev", "config.yaml")
	if _, err := run(t, "", "config", "init", path); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(b), "words_per_topic: 200") {
		t.Errorf("template = %s (%v)", b, err)
	}
	if _, err := run(t, "", "config", "init", path); err == nil {
		t.Error("expected a refusal to overwrite")
	}
	if _, err := run(t, "", "config", "init", path, "--force"); err != nil {
		t.Errorf("--force: %v", err)
	}

	got, err := run(t, animals, "--config", path, "segment", "-k", "2", "-o", "markdown", "--log-level", "error")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "- Strategy: `statistical`") || !strings.Contains(got, "## Topic 2") {
		t.Errorf("markdown = %q", got)
	}
}

func TestRejectsBadFlags(t *testing.T) {
	if _, err := run(t, animals, "segment", "-o", "xml"); err == nil {
		t.Error("expected an error for -o xml")
	}
	if _, err := run(t, animals, "segment", "--strategy", "bert"); err == nil {
		t.Error("expected an error for an unknown strategy")
	}
	if _, err := run(t, animals, "segment", "--log-format", "xml"); err == nil {
		t.Error("expected an error for an unknown log format")
	}
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.vtt", "a.vtt"} {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := expandFiles([]string{filepath.Join(dir, "b.vtt")}, []string{filepath.Join(dir, "*.vtt")})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "b.vtt"), filepath.Join(dir, "a.vtt")}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expandFiles = %q, want %q", got, want)
	}
	if _, err := expandFiles(nil, []string{"[unclosed"}); err == nil {
		t.Error("expected a bad pattern error")
	}
}
