package output

import (
	"fmt"
	"strings"

	"github.com/maastricht-university/topicseg/topics"
)

type Metadata struct {
	Title     string
	Source    string
	VideoID   string
	Strategy  string
	Generated string
	Words     int
}

func RenderMarkdown(meta Metadata, ts []topics.Topic) string {
	var b strings.Builder
	// Header
	if meta.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", meta.Title)
	} else {
		b.WriteString("# Transcript Topics\n\n")
	}
	if meta.Source != "" {
		fmt.Fprintf(&b, "- Source: `%s`\n", meta.Source)
	}
	if meta.VideoID != "" {
		fmt.Fprintf(&b, "- Video: `%s`\n", meta.VideoID)
	}
	if meta.Strategy != "" {
		fmt.Fprintf(&b, "- Strategy: `%s`\n", meta.Strategy)
	}
	if meta.Words > 0 {
		fmt.Fprintf(&b, "- Words: %d\n", meta.Words)
	}
	if meta.Generated != "" {
		fmt.Fprintf(&b, "- Generated: %s\n", meta.Generated)
	}
	fmt.Fprintf(&b, "- Topics: %d\n", len(ts))
	b.WriteString("\n---\n\n")

	// Body
	if len(ts) == 0 {
		b.WriteString("_No topics._\n")
		return b.String()
	}
	for _, t := range ts {
		fmt.Fprintf(&b, "## %s\n\n", t.Name)
		if len(t.Keywords) > 0 {
			fmt.Fprintf(&b, "**Keywords:** %s\n\n", strings.Join(t.Keywords, ", "))
		}
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(t.Text))
		if t.Gloss != "" {
			fmt.Fprintf(&b, "```gloss\n%s\n```\n\n", t.Gloss)
		}
	}
	return b.String()
}
