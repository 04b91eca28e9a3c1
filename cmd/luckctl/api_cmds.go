package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/luck/pkg/api"
)

// patchFlags turns command line flags into a ConfigPatch. Only flags given on
// the command line end up in the patch.
type patchFlags struct {
	file string

	mode           int
	animal         int
	birthday       string
	count          int
	budget         int
	redFilter      []int
	blueFilter     []int
	fixedRed       []int
	fixedMode      int
	fixedPerTicket int
	maxOverlap     int
	perNumberCap   bool
	maxPerAnchor   int
	templateRepeat int
	templates      []string
}

func (p *patchFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.file, "file", "", "JSON patch file; flags override its fields")
	f.IntVar(&p.mode, "mode", 0, "0 random, 1 zodiac, 2 birthday, 3 mixed")
	f.IntVar(&p.animal, "animal", 0, "zodiac animal, 1 (rat) to 12 (pig)")
	f.StringVar(&p.birthday, "birthday", "", "birthday (YYYY-MM-DD)")
	f.IntVar(&p.count, "count", 0, "tickets to generate")
	f.IntVar(&p.budget, "budget", 0, "budget in yuan")
	f.IntSliceVar(&p.redFilter, "red-filter", nil, "red numbers to exclude")
	f.IntSliceVar(&p.blueFilter, "blue-filter", nil, "blue numbers to exclude")
	f.IntSliceVar(&p.fixedRed, "fixed-red", nil, "red numbers to always include")
	f.IntVar(&p.fixedMode, "fixed-mode", 0, "0 always, 1 rotate")
	f.IntVar(&p.fixedPerTicket, "fixed-per-ticket", 0, "fixed reds per ticket in rotate mode")
	f.IntVar(&p.maxOverlap, "max-overlap", 0, "max shared reds between tickets")
	f.BoolVar(&p.perNumberCap, "per-number-cap", false, "cap how often each red appears")
	f.IntVar(&p.maxPerAnchor, "max-per-anchor", 0, "max tickets per anchor")
	f.IntVar(&p.templateRepeat, "template-repeat", 0, "max uses of each band template")
	f.StringSliceVar(&p.templates, "template", nil, "band template low/mid/high, e.g. 2/2/2 (repeatable)")
}

func (p *patchFlags) patch(cmd *cobra.Command) (api.ConfigPatch, error) {
	var patch api.ConfigPatch
	if p.file != "" {
		b, err := os.ReadFile(p.file)
		if err != nil {
			return patch, fmt.Errorf("failed to read patch file: %w", err)
		}
		if err := json.Unmarshal(b, &patch); err != nil {
			return patch, fmt.Errorf("invalid patch file: %w", err)
		}
	}

	set := cmd.Flags().Changed
	if set("mode") {
		patch.Mode = api.Ptr(api.Mode(p.mode))
	}
	if set("animal") {
		patch.Animal = api.Ptr(api.Zodiac(p.animal))
	}
	if set("birthday") {
		patch.Birthday = api.Ptr(p.birthday)
	}
	if set("count") {
		patch.GenerateCount = api.Ptr(p.count)
	}
	if set("budget") {
		patch.BudgetYuan = api.Ptr(p.budget)
	}
	if set("red-filter") {
		patch.RedFilter = api.Ptr(nonNil(p.redFilter))
	}
	if set("blue-filter") {
		patch.BlueFilter = api.Ptr(nonNil(p.blueFilter))
	}
	if set("fixed-red") {
		patch.FixedRed = api.Ptr(nonNil(p.fixedRed))
	}
	if set("fixed-mode") {
		patch.FMode = api.Ptr(api.FixedMode(p.fixedMode))
	}
	if set("fixed-per-ticket") {
		patch.FixedPerTicket = api.Ptr(p.fixedPerTicket)
	}
	if set("max-overlap") {
		patch.MaxOverlapRed = api.Ptr(p.maxOverlap)
	}
	if set("per-number-cap") {
		patch.UsePerNumberCap = api.Ptr(p.perNumberCap)
	}
	if set("max-per-anchor") {
		patch.MaxPerAnchor = api.Ptr(p.maxPerAnchor)
	}
	if set("template-repeat") {
		patch.TemplateRepeat = api.Ptr(p.templateRepeat)
	}
	if set("template") {
		tpls := make([][3]int, 0, len(p.templates))
		for _, s := range p.templates {
			var t [3]int
			if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d/%d/%d", &t[0], &t[1], &t[2]); err != nil {
				return patch, fmt.Errorf("invalid --template %q: want low/mid/high", s)
			}
			tpls = append(tpls, t)
		}
		patch.BandTemplates = &tpls
	}
	return patch, nil
}

// nonNil keeps an explicitly empty list as [] rather than null.
func nonNil(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or update the generation config",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the current config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.client.GetConfig(cmd.Context())
			if err != nil {
				return err
			}
			return writeBody(cmd, cfg.Raw, cfg)
		},
	})

	var pf patchFlags
	put := &cobra.Command{
		Use:   "put",
		Short: "Send a partial config; only the given fields are changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			patch, err := pf.patch(cmd)
			if err != nil {
				return err
			}
			ack, err := c.client.PutConfig(cmd.Context(), patch)
			if err != nil {
				return err
			}
			return writeRaw(cmd, ack.Raw)
		},
	}
	pf.register(put)
	cmd.AddCommand(put)

	return cmd
}

func newGenerateCmd(c *cli) *cobra.Command {
	var (
		pf       patchFlags
		override bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := api.GenerateRequest{Override: override}
			patch, err := pf.patch(cmd)
			if err != nil {
				return err
			}
			if patch != (api.ConfigPatch{}) {
				req.Config = &patch
			}

			resp, err := c.client.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return writeBody(cmd, resp.Raw, resp)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d tickets", len(resp.Combos))))
			for _, combo := range resp.Combos {
				fmt.Fprintln(out, renderCombo(combo))
			}
			if line := renderStats(resp.Stats); line != "" {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&override, "override", false, "use the given config fields for this batch only")
	pf.register(cmd)
	return cmd
}

func newHistoryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Upload or inspect draw history",
	}

	var replace bool
	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a history file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ack, err := c.client.UploadHistoryFile(cmd.Context(), args[0], api.UploadOptions{Replace: replace})
			if err != nil {
				return err
			}
			return writeRaw(cmd, ack.Raw)
		},
	}
	upload.Flags().BoolVar(&replace, "replace", false, "replace an already initialized history")
	cmd.AddCommand(upload)

	cmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Show history counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.client.GetHistorySummary(cmd.Context())
			if err != nil {
				return err
			}
			return writeBody(cmd, s.Raw, s)
		},
	})

	return cmd
}

func newAnalysisCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analysis",
		Short: "Statistical analysis of the draw history",
	}

	var heatWindow int
	heatmap := &cobra.Command{
		Use:   "heatmap",
		Short: "Hit matrix over the last draws",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := c.client.GetAnalysisHeatmap(cmd.Context(), heatWindow)
			if err != nil {
				return err
			}
			return writeBody(cmd, h.Raw, h)
		},
	}
	heatmap.Flags().IntVar(&heatWindow, "window", api.DefaultHeatmapWindow, "draws to include")
	cmd.AddCommand(heatmap)

	var hotWindow int
	hot := &cobra.Command{
		Use:   "hot",
		Short: "Hot and cold numbers over the last draws",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := c.client.GetAnalysisHot(cmd.Context(), hotWindow)
			if err != nil {
				return err
			}
			return writeBody(cmd, h.Raw, h)
		},
	}
	hot.Flags().IntVar(&hotWindow, "window", api.DefaultHotWindow, "draws to include")
	cmd.AddCommand(hot)

	cmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Aggregate summary of the full history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.client.GetAnalysisSummary(cmd.Context())
			if err != nil {
				return err
			}
			return writeBody(cmd, s.Raw, s)
		},
	})

	return cmd
}

func newDrawCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Draw results",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "latest",
		Short: "Show the most recent draw",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := c.client.GetLatestDraw(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOut {
				return writeBody(cmd, d.Raw, d)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n",
				headerStyle.Render(d.Issue), mutedStyle.Render(d.DrawDate),
				renderCombo(api.Combo{Reds: d.Reds, Blue: d.Blue}))
			return nil
		},
	})
	return cmd
}
