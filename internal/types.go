package internal

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizedKey is trimmed, case-folded source text. Cells sharing a key
// share a translation.
type NormalizedKey string

// Normalize turns raw cell or dictionary text into its lookup key.
func Normalize(text string) NormalizedKey {
	return NormalizedKey(strings.ToLower(norm.NFC.String(strings.TrimSpace(text))))
}

// CellLocation identifies one cell of the source grid (0-based).
type CellLocation struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

func (l CellLocation) String() string {
	return fmt.Sprintf("%d:%d", l.Row, l.Column)
}
