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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/sheetran/internal/collector"
	"github.com/valpere/sheetran/internal/completion"
	"github.com/valpere/sheetran/internal/dictionary"
	"github.com/valpere/sheetran/internal/logger"
	"github.com/valpere/sheetran/internal/orchestrator"
	"github.com/valpere/sheetran/internal/progress"
	"github.com/valpere/sheetran/internal/prompt"
	"github.com/valpere/sheetran/internal/sheet"
	"github.com/valpere/sheetran/internal/tokenizer"
	"github.com/valpere/sheetran/internal/worker"
)

var translateCmd = &cobra.Command{
	Use:   "translate <dictionary> <source> <destination>",
	Short: "Translate every text cell of a worksheet",
	Long: `Translate the text cells of an xlsx worksheet into the target language.

Cells are processed as follows:
  - the header row and blank text are copied as-is
  - text found in the dictionary takes the dictionary translation
  - every other distinct text (compared trimmed and case-insensitively)
    is sent to the completion service once, and the result is written
    to every cell holding that text

At most --rpm requests are started per --interval. A failed request is
logged and its cells are left empty; the run continues.

Dictionary lines have the form "source – translation" (EN DASH separator).

Example:
  sheetran translate dictionary.txt input.xlsx output.xlsx --target ro`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dictPath, sourcePath, destPath := args[0], args[1], args[2]

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if samePath(sourcePath, destPath) {
			return fmt.Errorf("source file and destination file cannot be the same")
		}
		if err := sheet.ValidateOutputPath(destPath); err != nil {
			return err
		}

		languageName, err := prompt.LanguageName(cfg.Target)
		if err != nil {
			return err
		}
		dispatchCfg, order, err := cfg.Dispatch.Resolve()
		if err != nil {
			return err
		}

		client, err := buildClient(cfg)
		if err != nil {
			return err
		}

		dict, err := dictionary.Load(dictPath)
		if err != nil {
			return err
		}
		log.Info("dictionary loaded", "path", dictPath, "entries", dict.Len())

		grid, err := sheet.Open(sourcePath, cfg.Sheet)
		if err != nil {
			return err
		}

		writer, err := sheet.Create(destPath, cfg.Sheet)
		if err != nil {
			return err
		}
		defer writer.Close()

		db, err := openStore(cfg.Cache.Path)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tracker := progress.Start(grid.Size(), os.Stderr, logger.IsTerminal(os.Stderr))
		defer tracker.Finish()

		opts := []orchestrator.Option{
			orchestrator.WithLogger(log),
			orchestrator.WithProgress(tracker),
			orchestrator.WithReporter(collector.NewLogReporter(log, tracker)),
		}

		var runID string
		if db != nil {
			defer db.Close()
			opts = append(opts, orchestrator.WithMemory(db))
			runID, err = db.StartRun(ctx, sourcePath, destPath, cfg.Model, cfg.Target)
			if err != nil {
				log.Warn("failed to record run", "error", err)
			}
		}

		wk := worker.New(client, tokenizer.NewTiktoken(), cfg.Model, languageName)
		orch, err := orchestrator.New(orchestrator.OrchestratorConfig{
			Model:      cfg.Model,
			TargetLang: cfg.Target,
			Language:   languageName,
			Order:      order,
			Dispatch:   dispatchCfg,
		}, dict, wk, opts...)
		if err != nil {
			return err
		}

		log.Info("translating",
			"source", sourcePath,
			"sheet", cfg.Sheet,
			"first_row", grid.HeaderRow()+1,
			"rows", grid.Height,
			"columns", grid.Width,
			"target", languageName,
			"model", cfg.Model,
			"rpm", dispatchCfg.RPM,
			"interval", dispatchCfg.Interval,
			"order", order)

		result, runErr := orch.Execute(ctx, grid, writer)
		tracker.Finish()

		if runID != "" {
			status, resolved, failed, tasks := "completed", 0, 0, 0
			if result != nil {
				tasks, resolved, failed = result.Tasks, result.Collected.Resolved, result.Collected.Failed
			}
			if runErr != nil {
				status = "failed"
			} else if ctx.Err() != nil {
				status = "interrupted"
			}
			if err := db.FinishRun(context.WithoutCancel(ctx), runID, status, tasks, resolved, failed); err != nil {
				log.Warn("failed to record run", "error", err)
			}
		}

		if runErr != nil {
			return runErr
		}

		if err := writer.Save(); err != nil {
			return err
		}

		attrs := append([]any{"destination", destPath}, summaryAttrs(result)...)
		if runID != "" {
			attrs = append(attrs, "run", runID)
		}
		log.Info("translation finished", attrs...)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringP("api-key", "k", "", "Completion service API key (default $OPENAI_API_KEY)")
	translateCmd.Flags().String("base-url", completion.DefaultBaseURL, "Completion service base URL")
	translateCmd.Flags().Duration("timeout", 120*time.Second, "Per-request transport timeout")
	translateCmd.Flags().String("model", "text-davinci-003", "Completion model")
	translateCmd.Flags().StringP("target", "t", "ro", "Target language code (BCP 47)")
	translateCmd.Flags().String("sheet", sheet.DefaultSheet, "Worksheet to read and write")
	translateCmd.Flags().String("choice", "last", "Candidate to keep when several are returned: last or first")

	translateCmd.Flags().Int("rpm", 60, "Maximum requests started per interval")
	translateCmd.Flags().Duration("interval", 60*time.Second, "Length of one rate-limit interval")
	translateCmd.Flags().String("first-burst", "immediate", "When the first burst is released: immediate or after-interval")
	translateCmd.Flags().String("release-order", "fifo", "Order queued texts are released in: fifo or lifo")

	translateCmd.Flags().String("cache", "", "SQLite translation memory path (empty disables)")
}
