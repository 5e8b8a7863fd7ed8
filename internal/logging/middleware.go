package logging

import (
	"net/http"
	"time"
)

// Transport wraps an http.RoundTripper and logs every exchange at debug
// level. Requests carry the run ID in an X-Request-ID header so NCBI
// support can correlate them.
type Transport struct {
	Base http.RoundTripper
}

// NewTransport wraps base, or http.DefaultTransport when base is nil.
func NewTransport(base http.RoundTripper) *Transport {
	return &Transport{Base: base}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()
	if runID := GetRunID(ctx); runID != "" && r.Header.Get("X-Request-ID") == "" {
		// RoundTrippers must not modify the caller's request.
		r = r.Clone(ctx)
		r.Header.Set("X-Request-ID", runID)
	}

	start := time.Now()
	resp, err := t.base().RoundTrip(r)
	duration := time.Since(start)

	if err != nil {
		LoggerFromContext(ctx).Debug("http_exchange",
			"method", r.Method,
			"host", r.URL.Host,
			"path", r.URL.Path,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		return nil, err
	}
	LoggerFromContext(ctx).Debug("http_exchange",
		"method", r.Method,
		"host", r.URL.Host,
		"path", r.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)
	return resp, nil
}
