package entrez

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/ncbi-acc-download/core/errors"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/logging"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 * 1024

var errorElement = xpath.MustCompile("//ERROR")

// Client issues requests against NCBI.
type Client struct {
	httpClient *http.Client
	userAgent  string

	// MaxRetries caps how often a rate-limited request is retried.
	// Zero retries for as long as NCBI keeps answering 429.
	MaxRetries int

	// Sleep waits out a Retry-After delay. It must return early with
	// ctx.Err() when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Response is a successful answer whose body has not been read yet.
type Response struct {
	Body io.ReadCloser
	// URL is the fully resolved request URL.
	URL string
}

// NewClient creates a client using httpClient, or a default client when nil.
// Downloads can be large, so the default client has no overall timeout;
// cancel through the context instead.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: logging.NewTransport(nil)}
	}
	return &Client{
		httpClient: httpClient,
		userAgent:  ToolName + "/1.0",
		Sleep:      sleepContext,
	}
}

// GetStream issues one GET request and classifies the answer. A 200
// response is returned unread; 429 becomes a TooManyRequestsError and every
// other status an InvalidIDError.
func (c *Client) GetStream(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	ids := params.Get("id")

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.NewDownload(ids, err)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.NewDownload(ids, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	logging.Request(ctx, ids, u.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewDownload(ids, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return &Response{Body: resp.Body, URL: resp.Request.URL.String()}, nil
	case http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, &errors.TooManyRequestsError{
			IDs:        ids,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, &errors.InvalidIDError{
		IDs:        ids,
		StatusCode: resp.StatusCode,
		Message:    errorMessage(body),
	}
}

// Fetch is GetStream with the rate-limit loop: on 429 it sleeps for the
// server-supplied delay and repeats the identical request.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	ids := params.Get("id")
	for attempt := 1; ; attempt++ {
		resp, err := c.GetStream(ctx, endpoint, params)

		var tooMany *errors.TooManyRequestsError
		if !errors.As(err, &tooMany) {
			return resp, err
		}
		if c.MaxRetries > 0 && attempt > c.MaxRetries {
			return nil, errors.NewDownload(ids, errors.Wrapf(err, "gave up after %d retries", c.MaxRetries))
		}

		logging.RateLimited(ctx, ids, tooMany.RetryAfter, attempt)

		sleep := c.Sleep
		if sleep == nil {
			sleep = sleepContext
		}
		if err := sleep(ctx, tooMany.RetryAfter); err != nil {
			return nil, errors.NewDownload(ids, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter accepts delay-seconds or an HTTP date. Anything else is
// treated as no delay.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}

// errorMessage pulls a short description out of an error body. E-utilities
// answer in XML with one or more ERROR elements; other bodies are reduced
// to their first non-empty line.
func errorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	if trimmed[0] == '<' {
		if doc, err := xmlquery.Parse(bytes.NewReader(trimmed)); err == nil {
			var msgs []string
			for _, n := range xmlquery.QuerySelectorAll(doc, errorElement) {
				if text := strings.TrimSpace(n.InnerText()); text != "" {
					msgs = append(msgs, text)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}

	for _, line := range strings.Split(string(trimmed), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
