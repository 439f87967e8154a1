// Package prompt renders the completion prompt for one source text.
package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/valpere/sheetran/internal/dictionary"
)

// LanguageName returns the English name of a BCP 47 language code,
// e.g. "ro" -> "Romanian".
func LanguageName(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid target language %q: %w", code, err)
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return "", fmt.Errorf("unknown target language %q", code)
	}
	return name, nil
}

// Build renders the prompt. hints, when present, are quoted first in the
// order given, followed by the source text and the translation directive.
func Build(text string, hints []dictionary.Entry, languageName string) string {
	var sb strings.Builder

	if len(hints) > 0 {
		sb.WriteString("Considering the following translations:\n")
		for _, h := range hints {
			sb.WriteString(string(h.Key))
			sb.WriteString(" " + dictionary.Separator + " ")
			sb.WriteString(h.Translation)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}

	fmt.Fprintf(&sb, "Translate this into %s:\n", languageName)
	sb.WriteString(strings.TrimSpace(text))
	fmt.Fprintf(&sb, "\n\n%s:\n", languageName)

	return sb.String()
}
