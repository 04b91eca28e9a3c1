package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-resty/resty/v2"
)

// Default analysis windows, in draws.
const (
	DefaultHeatmapWindow = 100
	DefaultHotWindow     = 50
)

// GetConfig fetches the full generation configuration.
func (c *Client) GetConfig(ctx context.Context) (*GenConfig, error) {
	return getJSON[GenConfig](ctx, c, epConfigGet, nil)
}

// PutConfig sends patch as-is. Fields left nil are not sent; the client does
// not merge with the current configuration.
func (c *Client) PutConfig(ctx context.Context, patch ConfigPatch) (Ack, error) {
	body, err := c.do(ctx, epConfigPut, func(r *resty.Request) {
		r.SetBody(patch)
	})
	if err != nil {
		return Ack{}, err
	}
	return decodeAck(body), nil
}

// GetGenConfig is GetConfig under its older name.
func (c *Client) GetGenConfig(ctx context.Context) (*GenConfig, error) {
	return c.GetConfig(ctx)
}

// PutGenConfig is PutConfig under its older name.
func (c *Client) PutGenConfig(ctx context.Context, patch ConfigPatch) (Ack, error) {
	return c.PutConfig(ctx, patch)
}

// Generate asks the backend for a batch of combos. The response is returned
// unchanged.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	return getJSON[GenerateResponse](ctx, c, epGenerate, func(r *resty.Request) {
		r.SetBody(req)
	})
}

// UploadHistory posts a history file as the multipart field "file".
func (c *Client) UploadHistory(ctx context.Context, filename string, content io.Reader, opts UploadOptions) (UploadAck, error) {
	body, err := c.do(ctx, epHistoryUpload, func(r *resty.Request) {
		r.SetFileReader("file", filename, content)
		if opts.Replace {
			r.SetQueryParam("replace", "1")
		}
	})
	if err != nil {
		return UploadAck{}, err
	}
	ack := UploadAck{Raw: json.RawMessage(body)}
	// Typed fields are a convenience; an unexpected shape leaves them zero.
	_ = json.Unmarshal(body, &ack)
	return ack, nil
}

// UploadHistoryFile opens path and uploads it under its base name.
func (c *Client) UploadHistoryFile(ctx context.Context, path string, opts UploadOptions) (UploadAck, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadAck{}, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()
	return c.UploadHistory(ctx, filepath.Base(path), f, opts)
}

// GetHistorySummary fetches the ingested history counters.
func (c *Client) GetHistorySummary(ctx context.Context) (*HistorySummary, error) {
	return getJSON[HistorySummary](ctx, c, epHistorySummary, nil)
}

// GetAnalysisHeatmap fetches the hit matrix over the last window draws.
// A non-positive window means DefaultHeatmapWindow.
func (c *Client) GetAnalysisHeatmap(ctx context.Context, window int) (*Heatmap, error) {
	if window <= 0 {
		window = DefaultHeatmapWindow
	}
	return getJSON[Heatmap](ctx, c, epAnalysisHeatmap, windowParam(window))
}

// GetAnalysisHot fetches hot/cold rankings over the last window draws.
// A non-positive window means DefaultHotWindow.
func (c *Client) GetAnalysisHot(ctx context.Context, window int) (*HotCold, error) {
	if window <= 0 {
		window = DefaultHotWindow
	}
	return getJSON[HotCold](ctx, c, epAnalysisHot, windowParam(window))
}

// GetAnalysisSummary fetches the aggregate summary.
func (c *Client) GetAnalysisSummary(ctx context.Context) (*Summary, error) {
	return getJSON[Summary](ctx, c, epAnalysisSummary, nil)
}

// GetLatestDraw fetches the most recent draw.
func (c *Client) GetLatestDraw(ctx context.Context) (*Draw, error) {
	return getJSON[Draw](ctx, c, epDrawLatest, nil)
}

func windowParam(window int) func(*resty.Request) {
	return func(r *resty.Request) {
		r.SetQueryParam("window", strconv.Itoa(window))
	}
}

func decodeAck(body []byte) Ack {
	ack := Ack{Raw: json.RawMessage(body)}
	_ = json.Unmarshal(body, &ack)
	return ack
}
