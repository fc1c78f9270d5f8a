package codesearch_test

import (
	"codesearch/internal/application/common/logging"
	"codesearch/internal/codesearch"
	"codesearch/internal/domain/errors/domain"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newTestClient creates a client rooted at "/" against serverURL whose cache
// is torn down when the test ends.
func newTestClient(t *testing.T, serverURL string, mutate ...func(*codesearch.Options)) *codesearch.Client {
	t.Helper()

	opts := codesearch.Options{
		ServerURL:   serverURL,
		Timeout:     5 * time.Second,
		SourceRoot:  "/",
		WorkingPath: t.TempDir(),
		CacheDir:    t.TempDir(),
		CacheTTL:    time.Hour,
	}
	for _, m := range mutate {
		m(&opts)
	}

	c, err := codesearch.NewClient(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.TeardownCache() })
	return c
}

func TestNewClient_InvalidOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   codesearch.Options
		errMsg string
	}{
		{
			name:   "missing scheme",
			opts:   codesearch.Options{ServerURL: "cs.chromium.org"},
			errMsg: "must have http:// or https:// scheme",
		},
		{
			name:   "negative timeout",
			opts:   codesearch.Options{ServerURL: "http://localhost:1", Timeout: -time.Second},
			errMsg: "must not be negative",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := codesearch.NewClient(tt.opts)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewClient_DefaultCacheIsTemporary(t *testing.T) {
	t.Parallel()

	c, err := codesearch.NewClient(codesearch.Options{ServerURL: "http://localhost:1", SourceRoot: "/"})
	require.NoError(t, err)

	dir := c.CacheDir()
	assert.DirExists(t, dir)

	require.NoError(t, c.TeardownCache())
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "temporary cache should be removed on teardown")
	assert.NoError(t, c.TeardownCache(), "teardown is idempotent")
}

func TestClient_SendRequest_PostsEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/codesearch/json", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "codesearch-client/test", r.Header.Get("User-Agent"))
		assert.Equal(t, "corr-42", r.Header.Get("X-Request-ID"))

		var req codesearch.CompoundRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.XrefSearchRequest, 1)
		assert.Equal(t, "cpp:base::Foo", req.XrefSearchRequest[0].Query)
		assert.Equal(t, []codesearch.EdgeKind{codesearch.EdgeCalledAt}, req.XrefSearchRequest[0].EdgeFilter)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(codesearch.CompoundResponse{
			XrefSearchResponse: []codesearch.XrefSearchResponse{{
				SearchResult: []codesearch.XrefSearchResult{{
					File:  codesearch.FileSpec{Name: "base/foo.cc"},
					Match: []codesearch.XrefSingleMatch{{LineNumber: 12, Type: codesearch.EdgeCalledAt}},
				}},
			}},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(o *codesearch.Options) { o.UserAgent = "codesearch-client/test" })
	ctx := logging.WithCorrelationID(context.Background(), "corr-42")

	resp, err := c.SendRequest(ctx, &codesearch.CompoundRequest{
		XrefSearchRequest: []codesearch.XrefSearchRequest{{
			Query:         "cpp:base::Foo",
			EdgeFilter:    []codesearch.EdgeKind{codesearch.EdgeCalledAt},
			MaxNumResults: 100,
		}},
	})
	require.NoError(t, err)
	require.Len(t, resp.XrefSearchResponse, 1)
	assert.Equal(t, 12, resp.XrefSearchResponse[0].SearchResult[0].Match[0].LineNumber)
}

func TestClient_SendRequest_CachesResponses(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(codesearch.CompoundResponse{
			DirInfoResponse: []codesearch.DirInfoResponse{{Name: "base"}},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	req := &codesearch.CompoundRequest{DirInfoRequest: []codesearch.DirInfoRequest{{FileSpec: codesearch.FileSpec{Name: "base"}}}}

	first, err := c.SendRequest(context.Background(), req)
	require.NoError(t, err)
	second, err := c.SendRequest(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "second identical request should be served from cache")
	assert.Equal(t, first, second)
}

func TestClient_SendRequest_StatusIsNeverCached(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(codesearch.CompoundResponse{
			StatusResponse: []codesearch.StatusResponse{{Status: 0}},
		})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	req := &codesearch.CompoundRequest{StatusRequest: []codesearch.StatusRequest{{}}}

	for i := 0; i < 2; i++ {
		_, err := c.SendRequest(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), calls.Load(), "status probes must always reach the backend")
}

func TestClient_SendRequest_Errors(t *testing.T) {
	t.Parallel()

	t.Run("non-2xx status", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).SendRequest(context.Background(),
			&codesearch.CompoundRequest{StatusRequest: []codesearch.StatusRequest{{}}})

		var backendErr *codesearch.BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, http.StatusServiceUnavailable, backendErr.StatusCode)
		assert.Contains(t, err.Error(), "503 Service Unavailable")
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>not json</html>"))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).SendRequest(context.Background(),
			&codesearch.CompoundRequest{StatusRequest: []codesearch.StatusRequest{{}}})
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := newTestClient(t, url).SendRequest(context.Background(),
			&codesearch.CompoundRequest{StatusRequest: []codesearch.StatusRequest{{}}})
		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	})

	t.Run("nil request", func(t *testing.T) {
		t.Parallel()
		_, err := newTestClient(t, "http://localhost:1").SendRequest(context.Background(), nil)
		assert.Error(t, err)
	})
}

func TestClient_GetAnnotationsForFile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/codesearch/json/annotation", r.URL.Path)

		var req codesearch.AnnotationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "base/foo.cc", req.FileSpec.Name)
		assert.Equal(t, "chromium", req.FileSpec.PackageName)
		assert.Equal(t, []codesearch.AnnotationTypeValue{
			{ID: codesearch.AnnotationLinkToDefinition},
			{ID: codesearch.AnnotationXrefSignature},
		}, req.Type)

		_ = json.NewEncoder(w).Encode(codesearch.AnnotationResponse{
			Annotation: []codesearch.Annotation{{Type: codesearch.AnnotationTypeValue{ID: codesearch.AnnotationLinkToDefinition}}},
		})
	}))
	defer server.Close()

	resp, err := newTestClient(t, server.URL).GetAnnotationsForFile(context.Background(), "base/foo.cc",
		codesearch.DefaultAnnotationTypes())
	require.NoError(t, err)
	assert.Len(t, resp.Annotation, 1)
}

func TestClient_SetLogLevel(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "http://localhost:1")
	assert.NoError(t, c.SetLogLevel("debug"))
	assert.NoError(t, c.SetLogLevel("info"))
	assert.Error(t, c.SetLogLevel("chatty"))
}

func TestClient_RecordsRequestMetrics(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(codesearch.CompoundResponse{})
	}))
	defer server.Close()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	c := newTestClient(t, server.URL, func(o *codesearch.Options) { o.MeterProvider = provider })

	req := &codesearch.CompoundRequest{DirInfoRequest: []codesearch.DirInfoRequest{{}}}
	for i := 0; i < 2; i++ {
		_, err := c.SendRequest(context.Background(), req)
		require.NoError(t, err)
	}

	var data metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &data))

	sums := map[string]int64{}
	for _, scope := range data.ScopeMetrics {
		for _, m := range scope.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}

	assert.Equal(t, int64(2), sums["codesearch_requests_total"])
	assert.Equal(t, int64(1), sums["codesearch_cache_hits_total"])
	assert.Equal(t, int64(1), sums["codesearch_cache_misses_total"])
}

func TestClient_RecordsSpans(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/codesearch/json/annotation" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(codesearch.CompoundResponse{})
	}))
	defer server.Close()

	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	c := newTestClient(t, server.URL, func(o *codesearch.Options) { o.TracerProvider = provider })

	_, err := c.SendRequest(context.Background(), &codesearch.CompoundRequest{DirInfoRequest: []codesearch.DirInfoRequest{{}}})
	require.NoError(t, err)
	_, err = c.GetAnnotationsForFile(context.Background(), "base/a.cc", codesearch.DefaultAnnotationTypes())
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "codesearch.SendRequest", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	var subRequests []string
	for _, kv := range spans[0].Attributes {
		if kv.Key == "sub_requests" {
			subRequests = kv.Value.AsStringSlice()
		}
	}
	assert.Equal(t, []string{"dir_info_request"}, subRequests)

	assert.Equal(t, "codesearch.GetAnnotations", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
}

func TestClient_CacheIsKeyedByServer(t *testing.T) {
	t.Parallel()

	newServer := func(name string, hits *atomic.Int32) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			_ = json.NewEncoder(w).Encode(codesearch.CompoundResponse{
				SearchResponse: []codesearch.SearchResponse{{StatusMessage: name}},
			})
		}))
	}
	var hitsA, hitsB atomic.Int32
	serverA := newServer("server-a", &hitsA)
	defer serverA.Close()
	serverB := newServer("server-b", &hitsB)
	defer serverB.Close()

	cacheDir := t.TempDir()
	shareCache := func(o *codesearch.Options) { o.CacheDir = cacheDir }
	req := &codesearch.CompoundRequest{SearchRequest: []codesearch.SearchRequest{{Query: "FilePath", MaxNumResults: 50}}}

	first := newTestClient(t, serverA.URL, shareCache)
	resp, err := first.SendRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "server-a", resp.SearchResponse[0].StatusMessage)
	require.NoError(t, first.TeardownCache())

	second := newTestClient(t, serverB.URL, shareCache)
	resp, err = second.SendRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "server-b", resp.SearchResponse[0].StatusMessage, "a different server is never answered from another's cache")
	assert.Equal(t, int32(1), hitsB.Load())

	resp, err = second.SendRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "server-b", resp.SearchResponse[0].StatusMessage)
	assert.Equal(t, int32(1), hitsA.Load())
	assert.Equal(t, int32(1), hitsB.Load(), "the repeat is served from the cache")
}
