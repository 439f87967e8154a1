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
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/valpere/sheetran/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation memory cache",
	Long: `List, inspect, and clear the SQLite translation memory used by
"sheetran translate --cache", and show recorded runs.`,
}

func openCache() (*store.Store, error) {
	if cfg.Cache.Path == "" {
		return nil, fmt.Errorf("no cache configured: pass --cache or set cache.path")
	}
	return openStore(cfg.Cache.Path)
}

var cacheListTarget string

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List translation memory entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListMemory(context.Background(), cacheListTarget)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No entries in translation memory.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTARGET\tMODEL\tUSED\tLAST USED\tSOURCE\tTEXT")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				e.ID, e.TargetLang, e.Model,
				e.UsageCount, humanize.Time(e.LastUsed),
				truncate(e.SourceKey, 40), truncate(e.FinalText, 40))
		}
		return w.Flush()
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total entries:  %s\n", humanize.Comma(int64(stats.TotalEntries)))
		fmt.Printf("Total usage:    %s\n", humanize.Comma(int64(stats.TotalUsage)))
		fmt.Printf("Languages:      %d\n", stats.Languages)
		fmt.Printf("Recorded runs:  %s\n", humanize.Comma(int64(stats.Runs)))
		if info, err := os.Stat(cfg.Cache.Path); err == nil {
			fmt.Printf("Database size:  %s\n", humanize.Bytes(uint64(info.Size())))
		}
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a translation memory entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		deleted, err := db.DeleteMemory(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		if !deleted {
			return fmt.Errorf("no entry with id %s", args[0])
		}
		fmt.Printf("Deleted entry: %s\n", args[0])
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from translation memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearMemory(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Printf("Cleared %s entries from translation memory.\n", humanize.Comma(n))
		return nil
	},
}

var cacheRunCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Show a recorded translate run",
	Long: `Show the outcome of a translate run recorded in the cache database.
The run ID is logged when "sheetran translate --cache" finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCache()
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := db.GetRun(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run:          %s\n", run.ID)
		fmt.Printf("Status:       %s\n", run.Status)
		fmt.Printf("Started:      %s\n", humanize.Time(run.StartedAt))
		fmt.Printf("Source:       %s\n", run.SourceFile)
		fmt.Printf("Destination:  %s\n", run.DestinationFile)
		fmt.Printf("Model:        %s\n", run.Model)
		fmt.Printf("Target:       %s\n", run.TargetLang)
		fmt.Printf("Requests:     %s (%s resolved, %s failed)\n",
			humanize.Comma(int64(run.Tasks)), humanize.Comma(int64(run.Resolved)), humanize.Comma(int64(run.Failed)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.PersistentFlags().String("cache", "", "SQLite translation memory path")

	cacheListCmd.Flags().StringVarP(&cacheListTarget, "target", "t", "", "Filter by target language code (e.g. ro)")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheRunCmd)
}
