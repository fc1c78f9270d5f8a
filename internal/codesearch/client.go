package codesearch

import (
	"bytes"
	"codesearch/internal/application/common/logging"
	"codesearch/internal/cache"
	"codesearch/internal/domain/errors/domain"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Default client settings.
const (
	DefaultServerURL    = "https://cs.chromium.org"
	DefaultTimeout      = 30 * time.Second
	DefaultPackageName  = "chromium"
	DefaultSourceMarker = ".gn"
	DefaultUserAgent    = "codesearch-client/dev"
)

const (
	// contentTypeJSON is the Content-Type header value for JSON requests.
	contentTypeJSON = "application/json"

	// headerRequestID carries the invocation correlation ID to the backend.
	headerRequestID = "X-Request-ID"

	// API endpoint paths.
	pathCompound   = "/codesearch/json"
	pathAnnotation = "/codesearch/json/annotation"
)

// BackendError is returned when the backend answers with a non-2xx status.
type BackendError struct {
	StatusCode int
	Status     string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("code search request failed: %d %s", e.StatusCode, e.Status)
}

// Options configures a Client.
type Options struct {
	// ServerURL is the backend base URL, including the scheme.
	ServerURL string

	// Timeout bounds every HTTP round trip.
	Timeout time.Duration

	// PackageName is stamped on every FileSpec.
	PackageName string

	// SourceRoot, when set, makes relative paths root-relative. When empty
	// the root is discovered from WorkingPath using SourceMarker.
	SourceRoot   string
	WorkingPath  string
	SourceMarker string

	// CacheDir holds the response cache. Empty selects a temporary
	// directory that is removed at teardown.
	CacheDir string
	CacheTTL time.Duration

	UserAgent string

	Logger         logging.ApplicationLogger
	HTTPClient     *http.Client
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// Client talks to the code search backend. It owns the response cache,
// which must be released with TeardownCache.
type Client struct {
	baseURL      string
	packageName  string
	sourceRoot   string
	workingPath  string
	sourceMarker string
	userAgent    string

	httpClient *http.Client
	cache      *cache.Store
	logger     logging.ApplicationLogger
	tracer     trace.Tracer
	metrics    *clientMetrics
}

// NewClient validates opts, opens the response cache and returns a ready
// client.
func NewClient(opts Options) (*Client, error) {
	if opts.ServerURL == "" {
		opts.ServerURL = DefaultServerURL
	}
	if !strings.HasPrefix(opts.ServerURL, "http://") && !strings.HasPrefix(opts.ServerURL, "https://") {
		return nil, fmt.Errorf("invalid server URL %q: must have http:// or https:// scheme", opts.ServerURL)
	}
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("invalid timeout %v: must not be negative", opts.Timeout)
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PackageName == "" {
		opts.PackageName = DefaultPackageName
	}
	if opts.SourceMarker == "" {
		opts.SourceMarker = DefaultSourceMarker
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.WorkingPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		opts.WorkingPath = wd
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = otel.GetMeterProvider()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}

	var (
		store *cache.Store
		err   error
	)
	if opts.CacheDir != "" {
		store, err = cache.Open(opts.CacheDir, opts.CacheTTL)
	} else {
		store, err = cache.OpenTemp(opts.CacheTTL)
	}
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:      strings.TrimRight(opts.ServerURL, "/"),
		packageName:  opts.PackageName,
		sourceRoot:   opts.SourceRoot,
		workingPath:  opts.WorkingPath,
		sourceMarker: opts.SourceMarker,
		userAgent:    opts.UserAgent,
		httpClient:   opts.HTTPClient,
		cache:        store,
		logger:       opts.Logger.WithComponent(instrumentationName),
		tracer:       opts.TracerProvider.Tracer(instrumentationName),
		metrics:      newClientMetrics(opts.MeterProvider),
	}

	c.logger.Debug(context.Background(), "Code search client created", logging.Fields{
		"server_url": c.baseURL,
		"cache_dir":  store.Dir(),
		"temporary":  store.Temporary(),
	})

	return c, nil
}

// SendRequest submits a compound request and decodes the compound response.
func (c *Client) SendRequest(ctx context.Context, req *CompoundRequest) (*CompoundResponse, error) {
	ctx, span := c.tracer.Start(ctx, "codesearch.SendRequest")
	defer span.End()

	if req == nil {
		return nil, errors.New("compound request cannot be nil")
	}
	span.SetAttributes(attribute.StringSlice("sub_requests", req.Populated()))

	var result CompoundResponse
	if err := c.doRequest(ctx, pathCompound, req, !req.IsStatus(), &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &result, nil
}

// GetAnnotationsForFile fetches the annotations of the given kinds for path.
func (c *Client) GetAnnotationsForFile(
	ctx context.Context,
	path string,
	types []AnnotationType,
) (*AnnotationResponse, error) {
	ctx, span := c.tracer.Start(ctx, "codesearch.GetAnnotations")
	defer span.End()

	fileSpec, err := c.GetFileSpec(path)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("file", fileSpec.Name))

	req := AnnotationRequest{FileSpec: fileSpec, Type: make([]AnnotationTypeValue, 0, len(types))}
	for _, t := range types {
		req.Type = append(req.Type, AnnotationTypeValue{ID: t})
	}

	var result AnnotationResponse
	if err := c.doRequest(ctx, pathAnnotation, req, true, &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &result, nil
}

// SetLogLevel changes the verbosity of the client's diagnostics.
func (c *Client) SetLogLevel(level string) error {
	return c.logger.SetLevel(level)
}

// CacheDir returns the directory backing the response cache.
func (c *Client) CacheDir() string {
	return c.cache.Dir()
}

// TeardownCache releases the response cache. Calling it more than once is a
// no-op.
func (c *Client) TeardownCache() error {
	if err := c.cache.Teardown(); err != nil {
		return fmt.Errorf("failed to tear down cache: %w", err)
	}
	c.logger.Debug(context.Background(), "Response cache released", logging.Fields{"cache_dir": c.cache.Dir()})
	return nil
}

// doRequest POSTs body to path and decodes the response into result.
// Cacheable requests are answered from the local cache when possible.
func (c *Client) doRequest(ctx context.Context, path string, body interface{}, cacheable bool, result interface{}) error {
	start := time.Now()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	key := fingerprint(c.baseURL+path, payload)

	if cacheable {
		if cached, ok := c.lookupCache(ctx, path, key); ok {
			if err := json.Unmarshal(cached, result); err == nil {
				c.metrics.recordRequest(ctx, path, outcomeCacheHit, time.Since(start))
				c.logger.Debug(ctx, "Served response from cache", logging.Fields{"endpoint": path})
				return nil
			}
			c.logger.Warn(ctx, "Discarding undecodable cache entry", logging.Fields{"endpoint": path})
		}
	}

	raw, err := c.post(ctx, path, payload)
	if err != nil {
		c.metrics.recordRequest(ctx, path, outcomeError, time.Since(start))
		c.logger.ErrorWithError(ctx, err, "Code search request failed", logging.Fields{"endpoint": path})
		return err
	}

	if err := json.Unmarshal(raw, result); err != nil {
		c.metrics.recordRequest(ctx, path, outcomeError, time.Since(start))
		return fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}

	if cacheable {
		if err := c.cache.Put(ctx, key, raw); err != nil {
			c.logger.Warn(ctx, "Failed to store response in cache", logging.Fields{
				"endpoint": path,
				"error":    err.Error(),
			})
		}
	}

	elapsed := time.Since(start)
	c.metrics.recordRequest(ctx, path, outcomeSuccess, elapsed)
	c.logger.LogPerformance(ctx, "code_search_request", elapsed, logging.Fields{
		"endpoint": path,
		"bytes":    len(raw),
	})
	return nil
}

func (c *Client) lookupCache(ctx context.Context, path, key string) ([]byte, bool) {
	cached, found, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn(ctx, "Cache lookup failed", logging.Fields{"endpoint": path, "error": err.Error()})
		return nil, false
	}
	c.metrics.recordCacheLookup(ctx, path, found)
	return cached, found
}

// post performs the HTTP round trip and returns the raw response body.
func (c *Client) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(headerRequestID, id)
	}

	c.logger.Debug(ctx, "Sending code search request", logging.Fields{
		"url":   req.URL.String(),
		"bytes": len(payload),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &BackendError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", domain.ErrMalformedResponse, err)
	}
	return raw, nil
}

// fingerprint derives the cache key for a request from its full endpoint URL
// and body, so one cache directory can be shared between backends.
func fingerprint(endpoint string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{'\n'})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
