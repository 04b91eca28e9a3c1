package web

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/okian/luck/internal/bundle"
	"github.com/okian/luck/pkg/logger"
	"github.com/okian/luck/pkg/metrics"
)

// newProxy forwards requests to rule.Target with path and query unchanged.
// The Host header is rewritten to the target, like the dev server does for
// shorthand proxy entries.
func newProxy(rule bundle.ProxyRule, log logger.Logger, m *metrics.Manager) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(rule.Target)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%w: %s -> %q", ErrBadTarget, rule.Prefix, rule.Target)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if id := chimiddleware.GetReqID(pr.In.Context()); id != "" {
				pr.Out.Header.Set(RequestIDHeader, id)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			m.RecordProxyError(rule.Prefix)
			log.Warn(r.Context(), "proxy forward failed",
				logger.String("prefix", rule.Prefix),
				logger.String("target", rule.Target),
				logger.String("path", r.URL.Path),
				logger.Error(err))
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		},
	}, nil
}
