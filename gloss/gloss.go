// Package gloss renders English text in a simplified sign-language gloss
// notation: uppercase, no articles or linking verbs, short lines.
package gloss

import (
	"regexp"
	"strings"

	"github.com/maastricht-university/topicseg/topics"
)

// WordsPerLine is the wrap width of Convert output.
const WordsPerLine = 10

var (
	contractions = map[string]string{
		"I'M": "I", "YOU'RE": "YOU", "HE'S": "HE", "SHE'S": "SHE", "IT'S": "IT",
		"WE'RE": "WE", "THEY'RE": "THEY",
		"ISN'T": "NOT", "AREN'T": "NOT", "WASN'T": "NOT", "WEREN'T": "NOT",
		"DON'T": "NOT", "DOESN'T": "NOT", "DIDN'T": "NOT",
		"WON'T": "WILL NOT", "CAN'T": "CANNOT",
	}
	reContraction = regexp.MustCompile(`\b(I'M|YOU'RE|HE'S|SHE'S|IT'S|WE'RE|THEY'RE|ISN'T|AREN'T|WASN'T|WEREN'T|DON'T|DOESN'T|DIDN'T|WON'T|CAN'T)\b`)
	rePronounBe   = regexp.MustCompile(`\b(I) AM\b|\b(YOU|WE|THEY) ARE\b|\b(HE|SHE|IT) IS\b`)

	punct = strings.NewReplacer("'", "", `"`, "", ",", "", "!", ".", "?", ".")

	dropped = map[string]bool{
		"THE": true, "A": true, "AN": true, "TO": true, "OF": true,
		"FOR": true, "AND": true, "OR": true, "BUT": true,
	}
)

// Convert returns the gloss of text, wrapped at WordsPerLine words per line.
func Convert(text string) string {
	g := strings.ToUpper(text)
	g = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`).Replace(g)
	g = reContraction.ReplaceAllStringFunc(g, func(m string) string { return contractions[m] })
	g = rePronounBe.ReplaceAllStringFunc(g, func(m string) string { return strings.Fields(m)[0] })
	g = punct.Replace(g)

	var words []string
	for _, w := range strings.Fields(g) {
		if !dropped[w] {
			words = append(words, w)
		}
	}

	var lines []string
	for i := 0; i < len(words); i += WordsPerLine {
		lines = append(lines, strings.Join(words[i:min(i+WordsPerLine, len(words))], " "))
	}
	return strings.Join(lines, "\n")
}

// ConvertTopics returns a copy of ts with Gloss filled from each topic's text.
func ConvertTopics(ts []topics.Topic) []topics.Topic {
	out := make([]topics.Topic, len(ts))
	for i, t := range ts {
		t.Gloss = Convert(t.Text)
		out[i] = t
	}
	return out
}
