package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Www.Sydney.com/events", "www.sydney.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestScrapeCounters(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(upsertsTotal.WithLabelValues("counter-test", ResultInserted))
	ObserveUpsert("counter-test", ResultInserted)
	ObserveUpsert("counter-test", ResultInserted)
	require.Equal(t, before+2, testutil.ToFloat64(upsertsTotal.WithLabelValues("counter-test", ResultInserted)))

	ObserveExtracted("counter-test", 5)
	require.Equal(t, float64(5), testutil.ToFloat64(recordsExtractedTotal.WithLabelValues("counter-test")))

	ObserveFetch("https://counter-test.example/events", "2xx", 128)
	require.Equal(t, float64(128), testutil.ToFloat64(fetchBytesTotal.WithLabelValues("counter-test.example")))

	ObserveSourceFailure("counter-test")
	require.Equal(t, float64(1), testutil.ToFloat64(sourceFailuresTotal.WithLabelValues("counter-test")))

	finished := time.Unix(1700000000, 0)
	ObserveRun("success", 3*time.Second, finished)
	require.Equal(t, float64(1700000000), testutil.ToFloat64(lastRunTimestamp))
}

func TestMiddleware(t *testing.T) {
	Init()
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/mw-test", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/mw-missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/mw-test", "/mw-missing"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "418")); val != 1 {
		t.Errorf("Expected httpRequestsTotal for GET 418 to be 1, got %f", val)
	}
	if val := testutil.CollectAndCount(httpRequestDurationSeconds); val <= 0 {
		t.Errorf("Expected httpRequestDurationSeconds to be observed, got %d", val)
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://www.sydney.com", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		if SanitizeSite(orig) == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
