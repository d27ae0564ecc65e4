package metrics_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hypesin/hypes/internal/csrf"
	"github.com/hypesin/hypes/internal/metrics"
	"github.com/hypesin/hypes/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestSeries returns the http_requests_total counts per path label for method.
func requestSeries(t *testing.T, method string) map[string]float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	series := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "hypes_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["method"] != method {
				continue
			}
			series[labels["path"]] += m.GetCounter().GetValue()
		}
	}
	return series
}

func TestMiddleware_LabelsByRoutePatternThroughChain(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /signup/fields/{field}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.Chain(mux,
		metrics.Middleware(mux),
		csrf.Protect(false, slog.New(slog.DiscardHandler)),
	)

	before := requestSeries(t, http.MethodPatch)

	for _, field := range []string{"aaa", "bbb", "ccc"} {
		form := url.Values{csrf.FormFieldName: {"tok"}}
		req := httptest.NewRequest(http.MethodPatch, "/signup/fields/"+field, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: csrf.CookieName, Value: "tok"})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// A path no route matches collapses into one label.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/nowhere/xyz", nil))

	after := requestSeries(t, http.MethodPatch)
	assert.Equal(t, before["PATCH /signup/fields/{field}"]+3, after["PATCH /signup/fields/{field}"])
	assert.Equal(t, before["unmatched"]+1, after["unmatched"])
	for path := range after {
		assert.NotContains(t, path, "aaa", "raw paths must not become labels")
	}
}
