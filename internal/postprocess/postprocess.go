// Package postprocess tidies raw completion text before it is written to
// the destination grid.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean trims the completion and removes artifacts a model commonly adds
// around a short translation:
//  1. an echoed language label ("Romanian:") from the end of the prompt
//  2. an echoed "Translation:" style lead-in
//  3. quotes wrapping the whole text
//
// label is the target language name used in the prompt; it may be empty.
func Clean(text, label string) string {
	text = strings.TrimSpace(text)
	text = removeLabelEcho(text, label)
	text = removeLeadIn(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

func removeLabelEcho(text, label string) string {
	if label == "" {
		return text
	}
	prefix := label + ":"
	if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
		return strings.TrimSpace(text[len(prefix):])
	}
	return text
}

// leadInRe requires a colon so that ordinary sentences starting with
// "Translation" survive.
var leadInRe = regexp.MustCompile(`(?i)^(?:here(?:'s| is) )?(?:the )?(?:translation|translated text)\s*:`)

func removeLeadIn(text string) string {
	if loc := leadInRe.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[loc[1]:])
	}
	return text
}

var quotePairs = [][2]rune{
	{'"', '"'},
	{'\'', '\''},
	{'«', '»'},
	{'„', '”'},
	{'“', '”'},
	{'‘', '’'},
}

// removeQuoteWrapping strips one matching pair of outer quotes.
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	for _, p := range quotePairs {
		if runes[0] == p[0] && runes[n-1] == p[1] {
			return strings.TrimSpace(string(runes[1 : n-1]))
		}
	}
	return text
}
