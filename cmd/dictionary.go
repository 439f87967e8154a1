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
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/valpere/sheetran/internal"
	"github.com/valpere/sheetran/internal/dictionary"
	"github.com/valpere/sheetran/internal/prompt"
)

var dictionaryCmd = &cobra.Command{
	Use:   "dictionary",
	Short: "Inspect a translation dictionary file",
	Long: `Check and query the dictionary file used by "sheetran translate".

Each non-blank line maps a source text to its fixed translation, separated
by an EN DASH (–):

  cat – pisică
  black cat – pisică neagră

Matching is exact after trimming and lowercasing. Entries whose source is
contained in a longer text are quoted as hints when that text is sent to
the completion service.`,
}

var dictionaryCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a dictionary file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dict, err := dictionary.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s entries\n", args[0], humanize.Comma(int64(dict.Len())))
		return nil
	},
}

var dictionaryListCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List dictionary entries in key order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dict, err := dictionary.Load(args[0])
		if err != nil {
			return err
		}

		entries := dict.Entries()
		if len(entries) == 0 {
			fmt.Println("Dictionary is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tTRANSLATION")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\n", truncate(string(e.Key), 50), truncate(e.Translation, 50))
		}
		return w.Flush()
	},
}

var dictionaryHintsPrompt bool

var dictionaryHintsCmd = &cobra.Command{
	Use:   "hints <file> <text>",
	Short: "Show the dictionary hints a text would be sent with",
	Long: `Show which dictionary entries would be quoted as hints when <text> is
sent to the completion service. With --prompt the full prompt is printed.

Example:
  sheetran dictionary hints dictionary.txt "The black cat sleeps" --prompt`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dict, err := dictionary.Load(args[0])
		if err != nil {
			return err
		}

		key := internal.Normalize(args[1])
		if v, ok := dict.Lookup(key); ok {
			fmt.Printf("Exact match, no request needed: %s\n", v)
			return nil
		}

		hints := dict.Hints(key)
		if dictionaryHintsPrompt {
			languageName, err := prompt.LanguageName(cfg.Target)
			if err != nil {
				return err
			}
			fmt.Print(prompt.Build(args[1], hints, languageName))
			return nil
		}

		if len(hints) == 0 {
			fmt.Println("No hints.")
			return nil
		}
		for _, h := range hints {
			fmt.Printf("%s %s %s\n", h.Key, dictionary.Separator, h.Translation)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dictionaryCmd)

	dictionaryHintsCmd.Flags().BoolVar(&dictionaryHintsPrompt, "prompt", false, "Print the full prompt instead of the hint list")
	dictionaryHintsCmd.Flags().StringP("target", "t", "ro", "Target language code used with --prompt")

	dictionaryCmd.AddCommand(dictionaryCheckCmd)
	dictionaryCmd.AddCommand(dictionaryListCmd)
	dictionaryCmd.AddCommand(dictionaryHintsCmd)
}
