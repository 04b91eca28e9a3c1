package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/luck/pkg/api"
	"github.com/okian/luck/pkg/metrics"
)

// seenRequest is what the fake backend captured from one request.
type seenRequest struct {
	Method      string
	Path        string
	Query       map[string][]string
	ContentType string
	Body        []byte
	FileField   string
	FileName    string
	FileContent string
}

// fakeBackend answers every request with a canned status and body and
// records what it received.
type fakeBackend struct {
	mu     sync.Mutex
	seen   []seenRequest
	status int
	body   string
	delay  time.Duration
	srv    *httptest.Server
}

func newFakeBackend(status int, body string) *fakeBackend {
	fb := &fakeBackend{status: status, body: body}
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.serve))
	return fb
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	sr := seenRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.Query(),
		ContentType: r.Header.Get("Content-Type"),
	}
	if strings.HasPrefix(sr.ContentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for field, files := range r.MultipartForm.File {
				sr.FileField = field
				sr.FileName = files[0].Filename
				f, _ := files[0].Open()
				b, _ := io.ReadAll(f)
				_ = f.Close()
				sr.FileContent = string(b)
			}
		}
	} else {
		sr.Body, _ = io.ReadAll(r.Body)
	}

	fb.mu.Lock()
	fb.seen = append(fb.seen, sr)
	delay := fb.delay
	fb.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(fb.status)
	_, _ = w.Write([]byte(fb.body))
}

func (fb *fakeBackend) requests() []seenRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]seenRequest(nil), fb.seen...)
}

func (fb *fakeBackend) client(opts ...api.Option) *api.Client {
	return api.New(append([]api.Option{api.WithBaseURL(fb.srv.URL)}, opts...)...)
}

func bodyKeys(b []byte) []string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

type recordedCall struct {
	endpoint, method, outcome string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *fakeRecorder) ObserveCall(endpoint, method, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{endpoint, method, outcome})
}

func TestClientDefaults(t *testing.T) {
	Convey("Given a client built without options", t, func() {
		c := api.New()

		Convey("Then it should use the documented defaults", func() {
			So(c.BaseURL(), ShouldEqual, api.DefaultBaseURL)
			So(c.Timeout(), ShouldEqual, 15000*time.Millisecond)
		})

		Convey("And a non-positive timeout should keep the default", func() {
			So(api.New(api.WithTimeout(0)).Timeout(), ShouldEqual, api.DefaultTimeout)
		})
	})
}

func TestConfigEndpoints(t *testing.T) {
	Convey("Given a backend serving a configuration", t, func() {
		fb := newFakeBackend(http.StatusOK, `{"Mode":3,"Animal":11,"Birthday":"1991-05-28","GenerateCount":10,
			"RedFilter":[],"FixedRed":[7],"MaxOverlapRed":3,"UsePerNumberCap":true,
			"StartBuckets":[{"From":1,"To":10,"Count":3}],"MaxPerAnchor":1,
			"Bands":{"LowLo":1,"LowHi":11,"MidLo":12,"MidHi":22,"HighLo":23,"HighHi":33},
			"BandTemplates":[[2,2,2],[2,3,1]],"TemplateRepeat":2}`)
		defer fb.srv.Close()
		c := fb.client()

		Convey("When GetConfig is called", func() {
			cfg, err := c.GetConfig(context.Background())

			Convey("Then one GET should reach /api/config and decode", func() {
				So(err, ShouldBeNil)
				reqs := fb.requests()
				So(len(reqs), ShouldEqual, 1)
				So(reqs[0].Method, ShouldEqual, http.MethodGet)
				So(reqs[0].Path, ShouldEqual, "/api/config")
				So(cfg.Mode, ShouldEqual, api.ModeMixed)
				So(cfg.Animal, ShouldEqual, api.Dog)
				So(cfg.FixedRed, ShouldResemble, []int{7})
				So(cfg.Bands.MidLo, ShouldEqual, 12)
				So(cfg.BandTemplates[1], ShouldResemble, [3]int{2, 3, 1})
				So(cfg.StartBuckets[0].Count, ShouldEqual, 3)
			})
		})

		Convey("When GetGenConfig is called", func() {
			_, err := c.GetGenConfig(context.Background())

			Convey("Then it should hit the same endpoint", func() {
				So(err, ShouldBeNil)
				So(fb.requests()[0].Path, ShouldEqual, "/api/config")
			})
		})
	})

	Convey("Given a backend acknowledging config updates", t, func() {
		fb := newFakeBackend(http.StatusOK, `{"ok":true}`)
		defer fb.srv.Close()
		c := fb.client()

		Convey("When PutConfig sends a single-field patch", func() {
			ack, err := c.PutConfig(context.Background(), api.ConfigPatch{GenerateCount: api.Ptr(5)})

			Convey("Then the body should hold exactly that field", func() {
				So(err, ShouldBeNil)
				So(ack.OK, ShouldBeTrue)
				So(string(ack.Raw), ShouldEqual, `{"ok":true}`)
				reqs := fb.requests()
				So(len(reqs), ShouldEqual, 1)
				So(reqs[0].Method, ShouldEqual, http.MethodPut)
				So(reqs[0].Path, ShouldEqual, "/api/config")
				So(reqs[0].ContentType, ShouldContainSubstring, "application/json")
				So(string(reqs[0].Body), ShouldEqual, `{"GenerateCount":5}`)
			})
		})

		Convey("When a patch clears a filter", func() {
			_, err := c.PutGenConfig(context.Background(), api.ConfigPatch{RedFilter: api.Ptr([]int{})})

			Convey("Then the empty list should still be sent", func() {
				So(err, ShouldBeNil)
				So(string(fb.requests()[0].Body), ShouldEqual, `{"RedFilter":[]}`)
			})
		})

		Convey("When a full patch is sent", func() {
			_, err := c.PutConfig(context.Background(), api.FullPatch(api.GenConfig{GenerateCount: 3}))

			Convey("Then every GenConfig key should be present", func() {
				So(err, ShouldBeNil)
				So(len(bodyKeys(fb.requests()[0].Body)), ShouldEqual, 17)
			})
		})
	})
}

func TestGenerate(t *testing.T) {
	const batch = `{"combos":[{"reds":[1,5,9,14,22,30],"blue":7}],"stats":{"red_freq":{"1":1,"5":1},"blue_freq":{"7":1},
		"band_share":{"low":3,"mid":2,"high":1},"odd_even":{"odd":4,"even":2},"high_low":{"low":3,"high":3}}}`

	Convey("Given a backend returning a batch", t, func() {
		fb := newFakeBackend(http.StatusOK, batch)
		defer fb.srv.Close()
		c := fb.client()

		Convey("When generating with override and a config", func() {
			resp, err := c.Generate(context.Background(), api.GenerateRequest{
				Override: true,
				Config:   &api.ConfigPatch{GenerateCount: api.Ptr(1), Mode: api.Ptr(api.ModeRandom)},
			})

			Convey("Then the POST body should carry exactly override and config", func() {
				So(err, ShouldBeNil)
				reqs := fb.requests()
				So(len(reqs), ShouldEqual, 1)
				So(reqs[0].Method, ShouldEqual, http.MethodPost)
				So(reqs[0].Path, ShouldEqual, "/api/generate")
				So(bodyKeys(reqs[0].Body), ShouldHaveLength, 2)
				So(bodyKeys(reqs[0].Body), ShouldContain, "override")
				So(bodyKeys(reqs[0].Body), ShouldContain, "config")
				So(string(reqs[0].Body), ShouldEqual, `{"override":true,"config":{"Mode":0,"GenerateCount":1}}`)
			})

			Convey("And the response should be passed through unchanged", func() {
				So(resp.Combos, ShouldHaveLength, 1)
				So(resp.Combos[0].Reds, ShouldResemble, []int{1, 5, 9, 14, 22, 30})
				So(resp.Combos[0].Blue, ShouldEqual, 7)
				So(resp.Stats, ShouldNotBeNil)
				So(resp.Stats.RedFreq[5], ShouldEqual, 1)
				So(resp.Stats.BandShare, ShouldResemble, api.BandShare{Low: 3, Mid: 2, High: 1})
				So(resp.Stats.OddEven.Odd, ShouldEqual, 4)
				So(resp.Stats.HighLow.High, ShouldEqual, 3)
			})
		})

		Convey("When generating without a config", func() {
			_, err := c.Generate(context.Background(), api.GenerateRequest{})

			Convey("Then config should be omitted", func() {
				So(err, ShouldBeNil)
				So(string(fb.requests()[0].Body), ShouldEqual, `{"override":false}`)
			})
		})
	})

	Convey("Given a backend returning combos without stats", t, func() {
		fb := newFakeBackend(http.StatusOK, `{"combos":[]}`)
		defer fb.srv.Close()

		resp, err := fb.client().Generate(context.Background(), api.GenerateRequest{})

		Convey("Then Stats should be nil", func() {
			So(err, ShouldBeNil)
			So(resp.Stats, ShouldBeNil)
			So(resp.Combos, ShouldBeEmpty)
		})
	})
}

func TestHistory(t *testing.T) {
	Convey("Given a backend accepting uploads", t, func() {
		fb := newFakeBackend(http.StatusOK, `{"ok":true,"mode":"init","imported":120,"summary":{"total_combos":120,"total_rows":120,"initialized":true}}`)
		defer fb.srv.Close()
		c := fb.client()

		Convey("When uploading from a reader", func() {
			ack, err := c.UploadHistory(context.Background(), "hist.xlsx", strings.NewReader("xlsx-bytes"), api.UploadOptions{})

			Convey("Then the file should arrive as multipart field file", func() {
				So(err, ShouldBeNil)
				reqs := fb.requests()
				So(len(reqs), ShouldEqual, 1)
				So(reqs[0].Method, ShouldEqual, http.MethodPost)
				So(reqs[0].Path, ShouldEqual, "/api/history/upload")
				So(reqs[0].ContentType, ShouldStartWith, "multipart/form-data")
				So(reqs[0].FileField, ShouldEqual, "file")
				So(reqs[0].FileName, ShouldEqual, "hist.xlsx")
				So(reqs[0].FileContent, ShouldEqual, "xlsx-bytes")
				So(reqs[0].Query, ShouldNotContainKey, "replace")
			})

			Convey("And the acknowledgment should keep the raw body", func() {
				So(ack.OK, ShouldBeTrue)
				So(ack.Mode, ShouldEqual, "init")
				So(ack.Imported, ShouldEqual, 120)
				So(ack.Summary.TotalCombos, ShouldEqual, 120)
				So(string(ack.Raw), ShouldContainSubstring, `"imported":120`)
			})
		})

		Convey("When uploading a file with replace", func() {
			path := filepath.Join(t.TempDir(), "draws.xlsx")
			So(os.WriteFile(path, []byte("rows"), 0o600), ShouldBeNil)

			_, err := c.UploadHistoryFile(context.Background(), path, api.UploadOptions{Replace: true})

			Convey("Then replace=1 should be sent with the base name", func() {
				So(err, ShouldBeNil)
				reqs := fb.requests()
				So(reqs[0].Query["replace"], ShouldResemble, []string{"1"})
				So(reqs[0].FileName, ShouldEqual, "draws.xlsx")
				So(reqs[0].FileContent, ShouldEqual, "rows")
			})
		})

		Convey("When the file does not exist", func() {
			_, err := c.UploadHistoryFile(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"), api.UploadOptions{})

			Convey("Then no request should be made", func() {
				So(err, ShouldNotBeNil)
				So(fb.requests(), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a backend answering with a non-object acknowledgment", t, func() {
		fb := newFakeBackend(http.StatusOK, `"done"`)
		defer fb.srv.Close()

		ack, err := fb.client().UploadHistory(context.Background(), "h.xlsx", strings.NewReader("x"), api.UploadOptions{})

		Convey("Then the raw body should be returned untouched", func() {
			So(err, ShouldBeNil)
			So(ack.OK, ShouldBeFalse)
			So(string(ack.Raw), ShouldEqual, `"done"`)
		})
	})

	Convey("Given a backend serving the history summary", t, func() {
		fb := newFakeBackend(http.StatusOK, `{"total_combos":3141}`)
		defer fb.srv.Close()

		sum, err := fb.client().GetHistorySummary(context.Background())

		Convey("Then the total should decode", func() {
			So(err, ShouldBeNil)
			So(sum.TotalCombos, ShouldEqual, 3141)
			So(fb.requests()[0].Path, ShouldEqual, "/api/history/summary")
		})
	})
}

func TestAnalysis(t *testing.T) {
	Convey("Given a heatmap backend", t, func() {
		fb := newFakeBackend(http.StatusOK, `{"redMatrix":[[1,0],[0,1]],"blueVector":[3,9]}`)
		defer fb.srv.Close()
		c := fb.client()

		Convey("When no window is given", func() {
			hm, err := c.GetAnalysisHeatmap(context.Background(), 0)

			Convey("Then window should default to 100", func() {
				So(err, ShouldBeNil)
				req := fb.requests()[0]
				So(req.Path, ShouldEqual, "/api/analysis/heatmap")
				So(req.Query["window"], ShouldResemble, []string{"100"})
				So(hm.RedMatrix, ShouldResemble, [][]int{{1, 0}, {0, 1}})
				So(hm.BlueVector, ShouldResemble, []int{3, 9})
			})
		})

		Convey("When a window is given", func() {
			_, err := c.GetAnalysisHeatmap(context.Background(), 30)

			Convey("Then it should be sent as-is", func() {
				So(err, ShouldBeNil)
				So(fb.requests()[0].Query["window"], ShouldResemble, []string{"30"})
			})
		})
	})

	Convey("Given a hot/cold backend", t, func() {
		fb := newFakeBackend(http.StatusOK, `{"redFreq":{"7":12},"blueFreq":{"2":4},"topHotRed":[[7,12],[3,11]],
			"topColdRed":[[33,1]],"avgGapRed":{"7":4.5},"maxGapRed":{"7":9},"MA33":[6.2,6.4]}`)
		defer fb.srv.Close()

		Convey("When no window is given", func() {
			hc, err := fb.client().GetAnalysisHot(context.Background(), -1)

			Convey("Then window should default to 50", func() {
				So(err, ShouldBeNil)
				req := fb.requests()[0]
				So(req.Path, ShouldEqual, "/api/analysis/hot")
				So(req.Query["window"], ShouldResemble, []string{"50"})
				So(hc.RedFreq[7], ShouldEqual, 12)
				So(hc.TopHotRed[0], ShouldResemble, [2]int{7, 12})
				So(hc.AvgGapRed[7], ShouldEqual, 4.5)
				So(hc.MA33, ShouldHaveLength, 2)
			})
		})
	})

	Convey("Given a summary backend", t, func() {
		fb := newFakeBackend(http.StatusOK, `{"odd":300,"even":294,"low":310,"high":284,"area":[200,198,196],
			"sumMin":55,"sumMax":160,"sumAvg":101.5,"consecLenDist":{"2":40,"3":4},"chiSquare":28.1,"entropy":5.03}`)
		defer fb.srv.Close()

		s, err := fb.client().GetAnalysisSummary(context.Background())

		Convey("Then the summary should decode without query params", func() {
			So(err, ShouldBeNil)
			req := fb.requests()[0]
			So(req.Path, ShouldEqual, "/api/analysis/summary")
			So(req.Query, ShouldBeEmpty)
			So(s.Area, ShouldResemble, [3]int{200, 198, 196})
			So(s.ConsecLenDist[2], ShouldEqual, 40)
			So(s.Entropy, ShouldEqual, 5.03)
		})
	})
}

func TestLatestDraw(t *testing.T) {
	Convey("Given a backend with a latest draw", t, func() {
		fb := newFakeBackend(http.StatusOK, `{"issue":"2024098","draw_date":"2024-08-25","reds":[2,8,15,19,27,31],"blue":4,
			"source":"crawler","fetched_at":"2024-08-25T21:30:00Z"}`)
		defer fb.srv.Close()

		d, err := fb.client().GetLatestDraw(context.Background())

		Convey("Then every field should decode", func() {
			So(err, ShouldBeNil)
			So(fb.requests()[0].Path, ShouldEqual, "/api/draw/latest")
			So(d.Issue, ShouldEqual, "2024098")
			So(d.Reds, ShouldHaveLength, 6)
			So(d.Blue, ShouldEqual, 4)
			So(d.Source, ShouldEqual, "crawler")
			So(d.FetchedAt, ShouldNotBeNil)
			So(d.FetchedAt.Year(), ShouldEqual, 2024)
		})
	})

	Convey("Given a draw without fetch metadata", t, func() {
		fb := newFakeBackend(http.StatusOK, `{"issue":"1","draw_date":"2024-01-01","reds":[1,2,3,4,5,6],"blue":1}`)
		defer fb.srv.Close()

		d, err := fb.client().GetLatestDraw(context.Background())

		Convey("Then the optional fields should stay empty", func() {
			So(err, ShouldBeNil)
			So(d.Source, ShouldBeEmpty)
			So(d.FetchedAt, ShouldBeNil)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given a backend failing with 500", t, func() {
		fb := newFakeBackend(http.StatusInternalServerError, `{"error":"boom"}`)
		defer fb.srv.Close()
		rec := &fakeRecorder{}

		_, err := fb.client(api.WithRecorder(rec)).GetAnalysisSummary(context.Background())

		Convey("Then the error should carry the status and body", func() {
			So(err, ShouldNotBeNil)
			var apiErr *api.Error
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.StatusCode, ShouldEqual, http.StatusInternalServerError)
			So(apiErr.Op, ShouldEqual, "analysis_summary")
			So(string(apiErr.Body), ShouldEqual, `{"error":"boom"}`)
			So(errors.Is(err, api.ErrHTTPStatus), ShouldBeTrue)
			So(api.StatusCode(err), ShouldEqual, 500)
		})

		Convey("And exactly one request should have been made", func() {
			So(fb.requests(), ShouldHaveLength, 1)
			So(rec.calls, ShouldResemble, []recordedCall{{"analysis_summary", "GET", metrics.OutcomeHTTPError}})
		})
	})

	Convey("Given a 409 on upload", t, func() {
		fb := newFakeBackend(http.StatusConflict, `{"error":"already_initialized"}`)
		defer fb.srv.Close()

		_, err := fb.client().UploadHistory(context.Background(), "h.xlsx", strings.NewReader("x"), api.UploadOptions{})

		Convey("Then it should surface like any other status", func() {
			So(api.StatusCode(err), ShouldEqual, http.StatusConflict)
		})
	})

	Convey("Given an unreachable backend", t, func() {
		fb := newFakeBackend(http.StatusOK, `{}`)
		url := fb.srv.URL
		fb.srv.Close()
		rec := &fakeRecorder{}

		_, err := api.New(api.WithBaseURL(url), api.WithRecorder(rec)).GetLatestDraw(context.Background())

		Convey("Then the transport error should be wrapped with no status", func() {
			So(err, ShouldNotBeNil)
			var apiErr *api.Error
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.StatusCode, ShouldEqual, 0)
			So(errors.Unwrap(err), ShouldNotBeNil)
			So(errors.Is(err, api.ErrHTTPStatus), ShouldBeFalse)
			So(rec.calls[0].outcome, ShouldEqual, metrics.OutcomeTransport)
		})
	})

	Convey("Given a backend slower than the timeout", t, func() {
		fb := newFakeBackend(http.StatusOK, `{}`)
		fb.delay = 300 * time.Millisecond
		defer fb.srv.Close()

		_, err := fb.client(api.WithTimeout(50 * time.Millisecond)).GetConfig(context.Background())

		Convey("Then the call should fail once without retrying", func() {
			So(err, ShouldNotBeNil)
			So(api.StatusCode(err), ShouldEqual, 0)
			So(fb.requests(), ShouldHaveLength, 1)
		})
	})

	Convey("Given a cancelled context", t, func() {
		fb := newFakeBackend(http.StatusOK, `{}`)
		defer fb.srv.Close()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := fb.client().GetHistorySummary(ctx)

		Convey("Then the cancellation should be reachable through the error", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a backend returning malformed JSON", t, func() {
		fb := newFakeBackend(http.StatusOK, `{not json`)
		defer fb.srv.Close()

		s, err := fb.client().GetHistorySummary(context.Background())

		Convey("Then the body should be passed through untouched", func() {
			So(err, ShouldBeNil)
			So(s.TotalCombos, ShouldEqual, 0)
			So(string(s.Raw), ShouldEqual, `{not json`)
		})
	})
}

// defaultBackendConfig is what the lottery backend serves from GET /api/config
// out of the box.
const defaultBackendConfig = `{"port":8080,"allow_origins":["http://localhost:5173","http://127.0.0.1:5173"],
	"count":10,"mode":"mixed","animal":"Dog","birthday":"1991-05-28",
	"red_filter":[],"blue_filter":[],"fixed_red":[],"fixed_mode":"rotate","fixed_per_ticket":2,
	"max_overlap_red":3,"use_per_number_cap":true,
	"bands":{"Low":[1,11],"Mid":[12,22],"High":[23,33]},
	"band_templates":[{"Vals":[2,2,2]},{"Vals":[2,3,1]},{"Vals":[3,2,1]},{"Vals":[1,2,3]},{"Vals":[1,3,2]}],
	"template_repeat":2,"use_api_source":false,"api_provider":"jisu","api_key":""}`

func TestResponseShapes(t *testing.T) {
	Convey("Given a backend serving the snake_case config", t, func() {
		fb := newFakeBackend(http.StatusOK, defaultBackendConfig)
		defer fb.srv.Close()

		cfg, err := fb.client().GetConfig(context.Background())

		Convey("Then the call should succeed and keep the body", func() {
			So(err, ShouldBeNil)
			So(string(cfg.Raw), ShouldEqual, defaultBackendConfig)
		})

		Convey("Then named enums and snake_case keys should decode", func() {
			So(cfg.Mode, ShouldEqual, api.ModeMixed)
			So(cfg.Animal, ShouldEqual, api.Dog)
			So(cfg.Birthday, ShouldEqual, "1991-05-28")
			So(cfg.GenerateCount, ShouldEqual, 10)
			So(cfg.FMode, ShouldEqual, api.FixedRotate)
			So(cfg.FixedPerTicket, ShouldEqual, 2)
			So(cfg.MaxOverlapRed, ShouldEqual, 3)
			So(cfg.UsePerNumberCap, ShouldBeTrue)
			So(cfg.RedFilter, ShouldResemble, []int{})
			So(cfg.Bands, ShouldResemble, api.BandRangeGo{LowLo: 1, LowHi: 11, MidLo: 12, MidHi: 22, HighLo: 23, HighHi: 33})
			So(cfg.BandTemplates, ShouldHaveLength, 5)
			So(cfg.BandTemplates[1], ShouldResemble, [3]int{2, 3, 1})
			So(cfg.TemplateRepeat, ShouldEqual, 2)
		})
	})

	Convey("Given a body mixing both shapes", t, func() {
		var cfg api.GenConfig
		err := json.Unmarshal([]byte(`{"GenerateCount":4,"count":9,"Bands":{"LowLo":2},"bands":{"Low":[5,6]}}`), &cfg)

		Convey("Then the PascalCase keys should win", func() {
			So(err, ShouldBeNil)
			So(cfg.GenerateCount, ShouldEqual, 4)
			So(cfg.Bands.LowLo, ShouldEqual, 2)
		})
	})

	Convey("Given a summary whose counter is a string", t, func() {
		fb := newFakeBackend(http.StatusOK, `{"total_combos":"12"}`)
		defer fb.srv.Close()

		s, err := fb.client().GetHistorySummary(context.Background())

		Convey("Then the call should still succeed with the raw body", func() {
			So(err, ShouldBeNil)
			So(s.TotalCombos, ShouldEqual, 0)
			So(string(s.Raw), ShouldEqual, `{"total_combos":"12"}`)
		})
	})

	Convey("Given an unknown mode name", t, func() {
		var m api.Mode
		err := json.Unmarshal([]byte(`"lucky"`), &m)

		Convey("Then decoding the enum alone should fail", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "lucky")
		})
	})

	Convey("Given the enum names", t, func() {
		Convey("Then they should print as the backend spells them", func() {
			So(api.ModeBirthday.String(), ShouldEqual, "birthday")
			So(api.Rooster.String(), ShouldEqual, "rooster")
			So(api.Zodiac(13).String(), ShouldEqual, "unknown")
			So(api.FixedAlways.String(), ShouldEqual, "always")
		})
	})
}

func TestBandHelpers(t *testing.T) {
	Convey("Given a pair band layout", t, func() {
		pairs := api.BandRange{Low: [2]int{1, 11}, Mid: [2]int{12, 22}, High: [2]int{23, 33}}

		Convey("Then it should convert to the flat layout and back", func() {
			flat := pairs.ToGo()
			So(flat.MidHi, ShouldEqual, 22)
			So(api.BandRangeFromGo(flat), ShouldResemble, pairs)
		})
	})

	Convey("Given band templates", t, func() {
		Convey("Then the sum should add the three bands", func() {
			So(api.BandTemplateSum([3]int{2, 3, 1}), ShouldEqual, api.BandTemplateTotal)
			So(api.BandTemplateSum([3]int{3, 3, 1}), ShouldEqual, 7)
		})
	})
}

func TestWithHTTPClient(t *testing.T) {
	Convey("Given a caller-supplied http.Client", t, func() {
		fb := newFakeBackend(http.StatusOK, `{"total_combos":2}`)
		defer fb.srv.Close()
		var used bool
		hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			used = true
			return http.DefaultTransport.RoundTrip(r)
		})}

		s, err := fb.client(api.WithHTTPClient(hc)).GetHistorySummary(context.Background())

		Convey("Then requests should go through its transport", func() {
			So(err, ShouldBeNil)
			So(used, ShouldBeTrue)
			So(s.TotalCombos, ShouldEqual, 2)
		})
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestConcurrentCalls(t *testing.T) {
	Convey("Given one client shared by many goroutines", t, func() {
		fb := newFakeBackend(http.StatusOK, `{"total_combos":1}`)
		defer fb.srv.Close()
		c := fb.client()

		var wg sync.WaitGroup
		const n = 20
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := c.GetHistorySummary(context.Background())
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		Convey("Then every call should succeed with one request each", func() {
			for err := range errs {
				So(err, ShouldBeNil)
			}
			So(fb.requests(), ShouldHaveLength, n)
		})
	})
}
