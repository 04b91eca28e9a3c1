// Package main provides luckctl, a command line client for the luck backend
// and the build step for the front-end bundle.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/okian/luck/internal/config"
	"github.com/okian/luck/pkg/api"
	"github.com/okian/luck/pkg/logger"
	"github.com/okian/luck/pkg/metrics"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli holds what every subcommand shares. It is filled in by the root
// command's PersistentPreRunE.
type cli struct {
	baseURL string
	timeout time.Duration
	jsonOut bool
	verbose bool
	promOut string

	cfg    *config.Config
	client *api.Client
	log    logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "luckctl",
		Short:         "Client for the luck backend and bundle tooling",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return c.writeMetrics()
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.baseURL, "base-url", "", "backend origin (default: api.base_url from config)")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 0, "per-request timeout (default: api.timeout_ms from config)")
	rootCmd.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print raw JSON")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log each API call")
	rootCmd.PersistentFlags().StringVar(&c.promOut, "metrics-file", "", "write call metrics in Prometheus text format to this file when the command succeeds")

	rootCmd.AddCommand(newConfigCmd(c))
	rootCmd.AddCommand(newGenerateCmd(c))
	rootCmd.AddCommand(newHistoryCmd(c))
	rootCmd.AddCommand(newAnalysisCmd(c))
	rootCmd.AddCommand(newDrawCmd(c))
	rootCmd.AddCommand(newSmokeCmd(c))
	rootCmd.AddCommand(newBuildCmd(c))
	rootCmd.AddCommand(newRoutesCmd(c))

	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c.cfg = cfg

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	c.log = logger.New(cmd.ErrOrStderr(), level)

	baseURL := cfg.API.BaseURL
	if c.baseURL != "" {
		baseURL = c.baseURL
	}
	timeout := cfg.API.Timeout()
	if c.timeout > 0 {
		timeout = c.timeout
	}
	c.client = api.New(
		api.WithBaseURL(baseURL),
		api.WithTimeout(timeout),
		api.WithLogger(c.log),
		api.WithRecorder(metrics.Default()),
	)
	return nil
}

// writeMetrics dumps the registry for a node_exporter textfile collector.
func (c *cli) writeMetrics() error {
	if c.promOut == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(c.promOut, metrics.GetRegistry()); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(b)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeBody prints a backend body as received, falling back to v when the
// body is empty.
func writeBody(cmd *cobra.Command, raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return writeJSON(cmd, v)
	}
	return writeRaw(cmd, raw)
}

// writeRaw prints raw, indented when it is valid JSON.
func writeRaw(cmd *cobra.Command, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err == nil {
		raw = buf.Bytes()
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(raw)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
