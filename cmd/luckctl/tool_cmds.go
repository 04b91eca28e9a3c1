package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/okian/luck/internal/router"
	"github.com/okian/luck/internal/smoke"
	"github.com/okian/luck/pkg/metrics"
)

func newSmokeCmd(c *cli) *cobra.Command {
	var (
		generate bool
		window   int
	)
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Call every endpoint once and report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, runErr := smoke.Run(cmd.Context(), c.client,
				smoke.WithGenerate(generate),
				smoke.WithWindow(window),
				smoke.WithLogger(c.log))
			if runErr != nil && !errors.Is(runErr, smoke.ErrFailed) {
				return runErr
			}

			if c.jsonOut {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				return runErr
			}

			lines := []string{headerStyle.Render("smoke " + report.BaseURL)}
			for _, chk := range report.Checks {
				info := chk.Detail
				if !chk.OK() {
					info = chk.Err.Error()
				}
				lines = append(lines, fmt.Sprintf("%s %s %s %s",
					mark(chk.OK()),
					nameCol.Render(chk.Name),
					mutedStyle.Render(fmt.Sprintf("%6s", chk.Took.Round(time.Millisecond))),
					info))
			}
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("%d checks, %d failed, %s",
				len(report.Checks), len(report.Failed()), report.Duration.Round(time.Millisecond))))
			fmt.Fprintln(cmd.OutOrStdout(), cardStyle.Render(strings.Join(lines, "\n")))
			return runErr
		},
	}
	cmd.Flags().BoolVar(&generate, "generate", false, "also call generate (override=false)")
	cmd.Flags().IntVar(&window, "window", 0, "analysis window (default: endpoint default)")
	return cmd
}

func newBuildCmd(c *cli) *cobra.Command {
	var (
		src       string
		out       string
		sourcemap bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Emit a built front-end tree into the embedded bundle directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.cfg.Bundle
			if out != "" {
				cfg.OutDir = out
			}
			if cmd.Flags().Changed("sourcemap") {
				cfg.Sourcemap = sourcemap
			}

			m, err := cfg.Emit(cmd.Context(), src)
			if err != nil {
				return err
			}
			metrics.SetBundleFiles(len(m.Files))

			if c.jsonOut {
				return writeJSON(cmd, m)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("emitted %d files (%d bytes) to %s", len(m.Files), m.Bytes(), m.OutDir)))
			for _, f := range m.Files {
				fmt.Fprintf(w, "  %s %s\n", nameCol.Width(40).Render(f.Path), mutedStyle.Render(f.SHA256[:12]))
			}
			for _, s := range m.Skipped {
				fmt.Fprintf(w, "  %s %s\n", nameCol.Width(40).Render(s), mutedStyle.Render("skipped"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&src, "src", "web/dist", "directory holding the built front-end")
	cmd.Flags().StringVar(&out, "out", "", "output directory (default: bundle.out_dir)")
	cmd.Flags().BoolVar(&sourcemap, "sourcemap", false, "keep .map files")
	return cmd
}

func newRoutesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the page routes and dev proxy rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			pathCol := lipgloss.NewStyle().Width(10)
			kindCol := lipgloss.NewStyle().Width(9)

			fmt.Fprintln(w, headerStyle.Render("routes"))
			for _, r := range router.Default().Routes() {
				var target string
				switch r.Kind {
				case router.KindView:
					target = c.cfg.Bundle.ResolveAlias(r.Component)
				case router.KindStatic:
					target = fmt.Sprintf("%q", r.Content)
				case router.KindRedirect:
					target = "-> " + r.Redirect
				}
				fmt.Fprintf(w, "  %s %s %s\n", pathCol.Render(r.Path), kindCol.Render(r.Kind.String()), target)
			}

			fmt.Fprintln(w, headerStyle.Render("proxy"))
			for _, rule := range c.cfg.Bundle.ProxyRules() {
				fmt.Fprintf(w, "  %s %s\n", pathCol.Render(rule.Prefix), rule.Target)
			}
			return nil
		},
	}
}
