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
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/valpere/sheetran/internal/config"
	"github.com/valpere/sheetran/internal/logger"
)

var version = "0.1.0"

var (
	cfgFile string

	v   = viper.New()
	cfg *config.Config
	log *slog.Logger
)

// flagKeys maps command-line flags onto configuration keys. Flags are bound
// for the command being executed only, so that two commands can share a key.
var flagKeys = map[string]string{
	"api-key":       "api.key",
	"base-url":      "api.base_url",
	"timeout":       "api.timeout",
	"model":         "model",
	"target":        "target",
	"sheet":         "sheet",
	"choice":        "choice",
	"rpm":           "dispatch.rpm",
	"interval":      "dispatch.interval",
	"first-burst":   "dispatch.first_burst",
	"release-order": "dispatch.release_order",
	"cache":         "cache.path",
	"log-level":     "logger.level",
	"log-format":    "logger.format",
	"log-output":    "logger.output",
}

var rootCmd = &cobra.Command{
	Use:   "sheetran",
	Short: "Spreadsheet translator for rate-limited completion services",
	Long: `A CLI application that translates every text cell of an xlsx worksheet
through a completion service, sending each distinct text only once and
staying under a requests-per-interval quota.

A dictionary file supplies fixed translations that bypass the service and
act as hints for longer texts that contain them.

Use "sheetran translate --help" for translation options.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if log != nil {
			log.Error("command failed", "error", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	home, _ := os.UserHomeDir()
	if err := config.ReadFile(v, cfgFile, home); err != nil {
		return err
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	l, err := logger.Init(&cfg.Logger)
	if err != nil {
		return err
	}
	log = l

	if used := v.ConfigFileUsed(); used != "" {
		log.Debug("config file loaded", "path", used)
	}
	return nil
}

func init() {
	config.Setup(v)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default .sheetran.yaml in the working or home directory)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("log-output", "stderr", "Log destination: stderr, stdout or a file path")
}
