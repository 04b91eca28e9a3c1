// Package api is the typed client for the luck backend REST API.
//
// Every method performs exactly one HTTP round trip through a single shared
// client. Responses are decoded as-is; nothing is retried, cached or merged.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/okian/luck/pkg/logger"
	"github.com/okian/luck/pkg/metrics"
)

// Client defaults.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 15000 * time.Millisecond
)

// Recorder receives one observation per call. *metrics.Manager satisfies it.
type Recorder interface {
	ObserveCall(endpoint, method, outcome string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCall(string, string, string, time.Duration) {}

// Client talks to the backend. It is safe for concurrent use and its
// configuration does not change after New.
type Client struct {
	http     *resty.Client
	baseURL  string
	timeout  time.Duration
	log      logger.Logger
	recorder Recorder
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	log        logger.Logger
	recorder   Recorder
}

// WithBaseURL sets the origin requests are sent to, e.g. "http://localhost:8080".
func WithBaseURL(u string) Option {
	return func(o *clientOptions) {
		o.baseURL = u
	}
}

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHTTPClient uses hc as the underlying transport client. Its Timeout is
// overwritten with the client timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

// WithLogger sets the logger for per-call debug lines.
func WithLogger(l logger.Logger) Option {
	return func(o *clientOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(o *clientOptions) {
		if r != nil {
			o.recorder = r
		}
	}
}

// New builds a Client.
func New(opts ...Option) *Client {
	o := clientOptions{
		baseURL:  DefaultBaseURL,
		timeout:  DefaultTimeout,
		log:      logger.Nop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	var rc *resty.Client
	if o.httpClient != nil {
		rc = resty.NewWithClient(o.httpClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(o.baseURL).
		SetTimeout(o.timeout).
		SetRetryCount(0).
		SetLogger(restyLogger{log: o.log}).
		SetHeader("Accept", "application/json")

	return &Client{
		http:     rc,
		baseURL:  o.baseURL,
		timeout:  o.timeout,
		log:      o.log,
		recorder: o.recorder,
	}
}

// BaseURL returns the configured origin.
func (c *Client) BaseURL() string { return c.baseURL }

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// endpoint names one backend operation.
type endpoint struct {
	name   string
	method string
	path   string
}

var (
	epConfigGet       = endpoint{"config_get", http.MethodGet, "/api/config"}
	epConfigPut       = endpoint{"config_put", http.MethodPut, "/api/config"}
	epGenerate        = endpoint{"generate", http.MethodPost, "/api/generate"}
	epHistoryUpload   = endpoint{"history_upload", http.MethodPost, "/api/history/upload"}
	epHistorySummary  = endpoint{"history_summary", http.MethodGet, "/api/history/summary"}
	epAnalysisHeatmap = endpoint{"analysis_heatmap", http.MethodGet, "/api/analysis/heatmap"}
	epAnalysisHot     = endpoint{"analysis_hot", http.MethodGet, "/api/analysis/hot"}
	epAnalysisSummary = endpoint{"analysis_summary", http.MethodGet, "/api/analysis/summary"}
	epDrawLatest      = endpoint{"draw_latest", http.MethodGet, "/api/draw/latest"}
)

// do issues the request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, ep endpoint, prepare func(*resty.Request)) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if prepare != nil {
		prepare(req)
	}

	start := time.Now()
	resp, err := req.Execute(ep.method, ep.path)
	took := time.Since(start)

	if err != nil {
		c.recorder.ObserveCall(ep.name, ep.method, metrics.OutcomeTransport, took)
		c.log.Debug(ctx, "api call failed",
			logger.String("op", ep.name), logger.String("path", ep.path),
			logger.Duration("took", took), logger.Error(err))
		return nil, &Error{Op: ep.name, Method: ep.method, Path: ep.path, Err: err}
	}

	status := resp.StatusCode()
	c.log.Debug(ctx, "api call",
		logger.String("op", ep.name), logger.String("path", ep.path),
		logger.Int("status", status), logger.Duration("took", took))

	if !resp.IsSuccess() {
		c.recorder.ObserveCall(ep.name, ep.method, metrics.OutcomeHTTPError, took)
		return nil, &Error{
			Op: ep.name, Method: ep.method, Path: ep.path,
			StatusCode: status, Body: resp.Body(), Err: ErrHTTPStatus,
		}
	}
	c.recorder.ObserveCall(ep.name, ep.method, metrics.OutcomeOK, took)
	return resp.Body(), nil
}

// rawResult is a response type that keeps the body it was decoded from.
type rawResult[T any] interface {
	*T
	setRaw(json.RawMessage)
}

// getJSON decodes a 2xx body into a fresh T. The decode is best effort: a body
// of another shape leaves the typed fields zero and is still returned in Raw.
func getJSON[T any, P rawResult[T]](ctx context.Context, c *Client, ep endpoint, prepare func(*resty.Request)) (*T, error) {
	body, err := c.do(ctx, ep, prepare)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := json.Unmarshal(body, out); err != nil {
		c.log.Debug(ctx, "api response shape differs",
			logger.String("op", ep.name), logger.Error(err))
	}
	P(out).setRaw(json.RawMessage(body))
	return out, nil
}

// restyLogger routes resty's own diagnostics through our logger.
type restyLogger struct {
	log logger.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.log.Error(context.Background(), fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.log.Warn(context.Background(), fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.log.Debug(context.Background(), fmt.Sprintf(format, v...))
}
