package effects

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultFetchTimeout = 5 * time.Second

// ErrHostNotAllowed is returned for endpoints outside the base URL's host and
// the configured allow-list.
var ErrHostNotAllowed = errors.New("api host not allowed")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Code)
}

// HTTPFetcher sends API_CALL requests to a backend over HTTP with JSON bodies.
type HTTPFetcher struct {
	baseURL string
	allowed map[string]struct{}
	client  *http.Client
}

// NewHTTPFetcher creates a fetcher. Relative endpoints are joined to baseURL.
// Absolute endpoints must point at baseURL's host or one of allowedHosts
// (host or host:port).
func NewHTTPFetcher(baseURL string, timeout time.Duration, allowedHosts ...string) *HTTPFetcher {
	if timeout == 0 {
		timeout = defaultFetchTimeout
	}
	f := &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		allowed: make(map[string]struct{}),
		client:  &http.Client{Timeout: timeout},
	}
	if base, err := url.Parse(f.baseURL); err == nil && base.Host != "" {
		f.allowed[strings.ToLower(base.Host)] = struct{}{}
	}
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			f.allowed[h] = struct{}{}
		}
	}
	// Redirects are held to the same allow-list as the first request.
	f.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		return f.check(req.URL)
	}
	return f
}

func (f *HTTPFetcher) resolve(endpoint string) (string, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	target := ref
	if ref.Scheme == "" && ref.Host == "" {
		if f.baseURL == "" {
			return "", fmt.Errorf("relative endpoint %q without a base URL", endpoint)
		}
		if !strings.HasPrefix(endpoint, "/") {
			endpoint = "/" + endpoint
		}
		if target, err = url.Parse(f.baseURL + endpoint); err != nil {
			return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
		}
	}
	if err := f.check(target); err != nil {
		return "", err
	}
	return target.String(), nil
}

func (f *HTTPFetcher) check(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrHostNotAllowed, u.Scheme)
	}
	host := strings.ToLower(u.Host)
	if _, ok := f.allowed[host]; ok {
		return nil
	}
	if _, ok := f.allowed[strings.ToLower(u.Hostname())]; ok {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrHostNotAllowed, u.Host)
}

// Fetch performs the call. An empty method is GET. A JSON response is decoded;
// any other response body is returned as a string.
func (f *HTTPFetcher) Fetch(ctx context.Context, endpoint, method string, body any) (any, error) {
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)
	target, err := f.resolve(endpoint)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, URL: target, Code: resp.StatusCode, Body: string(respBody)}
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil, nil
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var out any
		if err := json.Unmarshal(respBody, &out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return out, nil
	}
	return string(respBody), nil
}
