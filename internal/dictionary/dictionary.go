// Package dictionary holds the override table: exact translations that
// bypass the completion service, and the hint entries quoted to it.
//
// A Dictionary is immutable once built. Lookups and hint scans from many
// goroutines need no locking.
package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/valpere/sheetran/internal"
)

// Separator splits a dictionary line into key and value (EN DASH).
const Separator = "–"

// Entry is one override: a normalized key and its translation.
type Entry struct {
	Key         internal.NormalizedKey
	Translation string
}

// LineError reports a malformed dictionary line. Line is 1-based.
type LineError struct {
	Line int
	Text string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("invalid entry at line #%d: %q", e.Line, e.Text)
}

// Dictionary is a read-only override table.
type Dictionary struct {
	entries map[internal.NormalizedKey]string
	keys    []internal.NormalizedKey
}

// New builds a dictionary from entries. Later duplicates replace earlier ones.
func New(entries []Entry) *Dictionary {
	d := &Dictionary{entries: make(map[internal.NormalizedKey]string, len(entries))}
	for _, e := range entries {
		d.entries[internal.Normalize(string(e.Key))] = e.Translation
	}

	d.keys = make([]internal.NormalizedKey, 0, len(d.entries))
	for k := range d.entries {
		d.keys = append(d.keys, k)
	}
	sort.Slice(d.keys, func(i, j int) bool { return d.keys[i] < d.keys[j] })

	return d
}

// Load reads and parses the dictionary file at path.
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads "key – value" lines from r. Blank lines are skipped; any
// other line without the separator or with an empty key yields a *LineError.
func Parse(r io.Reader) (*Dictionary, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, ok := strings.Cut(line, Separator)
		if !ok || strings.TrimSpace(key) == "" {
			return nil, &LineError{Line: lineNo, Text: line}
		}

		entries = append(entries, Entry{
			Key:         internal.Normalize(key),
			Translation: strings.TrimSpace(value),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dictionary at line #%d: %w", lineNo+1, err)
	}

	return New(entries), nil
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.keys)
}

// Lookup returns the override for key, matched exactly after normalization.
func (d *Dictionary) Lookup(key internal.NormalizedKey) (string, bool) {
	v, ok := d.entries[internal.Normalize(string(key))]
	return v, ok
}

// Hints returns every entry whose key occurs inside key, in ascending key order.
func (d *Dictionary) Hints(key internal.NormalizedKey) []Entry {
	var hints []Entry
	for _, k := range d.keys {
		if strings.Contains(string(key), string(k)) {
			hints = append(hints, Entry{Key: k, Translation: d.entries[k]})
		}
	}
	return hints
}

// Entries returns all entries in ascending key order.
func (d *Dictionary) Entries() []Entry {
	out := make([]Entry, 0, len(d.keys))
	for _, k := range d.keys {
		out = append(out, Entry{Key: k, Translation: d.entries[k]})
	}
	return out
}
