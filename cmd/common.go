/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/valpere/sheetran/internal/completion"
	"github.com/valpere/sheetran/internal/config"
	"github.com/valpere/sheetran/internal/orchestrator"
	"github.com/valpere/sheetran/internal/store"
)

// buildClient constructs the completion client from the loaded config.
func buildClient(c *config.Config) (*completion.Client, error) {
	policy, err := c.ChoicePolicy()
	if err != nil {
		return nil, err
	}
	return completion.NewClient(completion.Config{
		BaseURL: c.API.BaseURL,
		APIKey:  c.API.Key,
		Timeout: c.API.Timeout,
		Choice:  policy,
	})
}

// openStore opens the translation memory at path. An empty path disables it.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// samePath reports whether a and b name the same file once cleaned.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// summaryAttrs renders a run result as log attributes.
func summaryAttrs(r *orchestrator.OrchestratorResult) []any {
	attrs := []any{
		"cells", humanize.Comma(int64(r.Cells)),
		"written", humanize.Comma(int64(cellsWritten(r))),
		"requests", humanize.Comma(int64(r.Dispatch.Released)),
		"failed", humanize.Comma(int64(r.Collected.Failed)),
		"unresolved", humanize.Comma(int64(r.Collected.Unresolved)),
		"elapsed", r.Elapsed.Round(time.Millisecond).String(),
	}
	if r.Undispatched > 0 {
		attrs = append(attrs, "undispatched", humanize.Comma(int64(r.Undispatched)))
	}
	return attrs
}

func cellsWritten(r *orchestrator.OrchestratorResult) int {
	return r.Passthrough + r.Verbatim + r.Overridden + r.Remembered + r.Collected.CellsWritten
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
