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
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/valpere/sheetran/internal/completion"
	"github.com/valpere/sheetran/internal/tokenizer"
)

var modelsFilter string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List completion models available to the API key",
	Long: `List the models visible to the configured API key. This also checks
that the key and base URL are usable before starting a long run.

The CONTEXT column is the token window used to size each request.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := completion.ValidateAPIKey(cfg.API.Key); err != nil {
			return err
		}

		clientCfg := openai.DefaultConfig(cfg.API.Key)
		if cfg.API.BaseURL != "" {
			clientCfg.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
		}
		client := openai.NewClientWithConfig(clientCfg)

		ctx := context.Background()
		if cfg.API.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.API.Timeout)
			defer cancel()
		}

		list, err := client.ListModels(ctx)
		if err != nil {
			return fmt.Errorf("failed to list models: %w", err)
		}

		models := list.Models
		if modelsFilter != "" {
			filtered := models[:0]
			for _, m := range models {
				if strings.Contains(m.ID, modelsFilter) {
					filtered = append(filtered, m)
				}
			}
			models = filtered
		}
		sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

		if len(models) == 0 {
			fmt.Println("No models found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tOWNER\tCONTEXT\tCREATED")
		for _, m := range models {
			created := "-"
			if m.CreatedAt > 0 {
				created = humanize.Time(time.Unix(m.CreatedAt, 0))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.ID, m.OwnedBy, humanize.Comma(int64(tokenizer.ContextSize(m.ID))), created)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().StringP("api-key", "k", "", "Completion service API key (default $OPENAI_API_KEY)")
	modelsCmd.Flags().String("base-url", completion.DefaultBaseURL, "Completion service base URL")
	modelsCmd.Flags().StringVar(&modelsFilter, "filter", "", "Only list models whose ID contains this text")
}
