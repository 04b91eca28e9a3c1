// Package smoke calls every backend endpoint once and reports how each fared.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/luck/pkg/api"
	"github.com/okian/luck/pkg/logger"
)

// ErrFailed is returned by Run when at least one check failed.
var ErrFailed = errors.New("smoke check failed")

// Client is the part of *api.Client the runner calls.
type Client interface {
	BaseURL() string
	GetConfig(ctx context.Context) (*api.GenConfig, error)
	GetHistorySummary(ctx context.Context) (*api.HistorySummary, error)
	GetAnalysisHeatmap(ctx context.Context, window int) (*api.Heatmap, error)
	GetAnalysisHot(ctx context.Context, window int) (*api.HotCold, error)
	GetAnalysisSummary(ctx context.Context) (*api.Summary, error)
	GetLatestDraw(ctx context.Context) (*api.Draw, error)
	Generate(ctx context.Context, req api.GenerateRequest) (*api.GenerateResponse, error)
}

// Check is the result of one endpoint call.
type Check struct {
	Name   string        `json:"name"`
	Status int           `json:"status,omitempty"` // HTTP status of a failed call, 0 on transport failure
	Took   time.Duration `json:"took"`
	Err    error         `json:"-"`
	Error  string        `json:"error,omitempty"` // Err as text, for JSON output
	Detail string        `json:"detail,omitempty"`
}

// OK reports whether the call succeeded.
func (c Check) OK() bool { return c.Err == nil }

// Report collects the checks of one run in a fixed order.
type Report struct {
	BaseURL  string        `json:"base_url"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Checks   []Check       `json:"checks"`
}

// Failed returns the checks that did not succeed.
func (r Report) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.OK() {
			out = append(out, c)
		}
	}
	return out
}

// OK reports whether every check succeeded.
func (r Report) OK() bool { return len(r.Failed()) == 0 }

// Option configures Run.
type Option func(*options)

type options struct {
	generate bool
	window   int
	log      logger.Logger
}

// WithGenerate also calls generate with override=false.
func WithGenerate(on bool) Option {
	return func(o *options) { o.generate = on }
}

// WithWindow passes window to the analysis calls. Zero keeps the client defaults.
func WithWindow(window int) Option {
	return func(o *options) { o.window = window }
}

// WithLogger logs one line per check.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

type probe struct {
	name string
	call func(ctx context.Context) (string, error)
}

// Run calls every read endpoint concurrently. A failing endpoint does not stop
// the others and nothing is retried. The error wraps ErrFailed when any check
// failed.
func Run(ctx context.Context, c Client, opts ...Option) (Report, error) {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	probes := []probe{
		{"config", func(ctx context.Context) (string, error) {
			cfg, err := c.GetConfig(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("mode=%s count=%d", cfg.Mode, cfg.GenerateCount), nil
		}},
		{"history_summary", func(ctx context.Context) (string, error) {
			s, err := c.GetHistorySummary(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("total_combos=%d", s.TotalCombos), nil
		}},
		{"analysis_heatmap", func(ctx context.Context) (string, error) {
			h, err := c.GetAnalysisHeatmap(ctx, o.window)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("rows=%d", len(h.RedMatrix)), nil
		}},
		{"analysis_hot", func(ctx context.Context) (string, error) {
			h, err := c.GetAnalysisHot(ctx, o.window)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("hot=%d cold=%d", len(h.TopHotRed), len(h.TopColdRed)), nil
		}},
		{"analysis_summary", func(ctx context.Context) (string, error) {
			s, err := c.GetAnalysisSummary(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("odd=%d even=%d", s.Odd, s.Even), nil
		}},
		{"draw_latest", func(ctx context.Context) (string, error) {
			d, err := c.GetLatestDraw(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("issue=%s", d.Issue), nil
		}},
	}
	if o.generate {
		probes = append(probes, probe{"generate", func(ctx context.Context) (string, error) {
			g, err := c.Generate(ctx, api.GenerateRequest{Override: false})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("combos=%d", len(g.Combos)), nil
		}})
	}

	report := Report{BaseURL: c.BaseURL(), Started: time.Now(), Checks: make([]Check, len(probes))}

	var wg sync.WaitGroup
	for i, p := range probes {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			detail, err := p.call(ctx)
			chk := Check{
				Name:   p.name,
				Status: api.StatusCode(err),
				Took:   time.Since(start),
				Err:    err,
				Detail: detail,
			}
			if err != nil {
				chk.Error = err.Error()
			}
			// Each goroutine owns its slot.
			report.Checks[i] = chk
		}()
	}
	wg.Wait()
	report.Duration = time.Since(report.Started)

	for _, chk := range report.Checks {
		if chk.OK() {
			o.log.Info(ctx, "smoke check passed",
				logger.String("check", chk.Name), logger.Duration("took", chk.Took), logger.String("detail", chk.Detail))
		} else {
			o.log.Warn(ctx, "smoke check failed",
				logger.String("check", chk.Name), logger.Int("status", chk.Status), logger.Error(chk.Err))
		}
	}

	if failed := report.Failed(); len(failed) > 0 {
		return report, fmt.Errorf("%w: %d of %d checks", ErrFailed, len(failed), len(report.Checks))
	}
	return report, nil
}
