// Package output renders results as JSON, YAML or Markdown.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/maastricht-university/topicseg/topics"
)

type Format string

const (
	JSON     Format = "json"
	YAML     Format = "yaml"
	Markdown Format = "markdown"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "markdown", "md":
		return Markdown, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json, yaml or markdown)", s)
}

// Markdowner is implemented by values with their own Markdown rendering.
type Markdowner interface {
	Markdown() string
}

// Encode writes v to w in format f. Markdown accepts topic lists, results
// and Markdowner values.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case Markdown:
		var md string
		switch x := v.(type) {
		case Markdowner:
			md = x.Markdown()
		case []topics.Topic:
			md = RenderMarkdown(Metadata{}, x)
		case topics.Result:
			md = RenderMarkdown(Metadata{Strategy: string(x.Strategy)}, x.Topics)
		default:
			return fmt.Errorf("no markdown rendering for %T", v)
		}
		_, err := io.WriteString(w, md)
		return err
	}
	return fmt.Errorf("unknown output format %q", f)
}
