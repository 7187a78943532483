package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// upstreamFamily selects one of the three fixed USGS API bases.
type upstreamFamily int

const (
	familyWaterServices upstreamFamily = iota // instantaneous values service
	familyFloodImpact                         // real-time flood impacts (RTFI)
	familyOGC                                 // OGC feature collections
)

func (f upstreamFamily) String() string {
	switch f {
	case familyWaterServices:
		return "water-services"
	case familyFloodImpact:
		return "rtfi"
	case familyOGC:
		return "ogc"
	default:
		return "unknown"
	}
}

// ===== error taxonomy =====

// TransportError reports a connection-level failure: the request never
// produced an HTTP status from the upstream service.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError reports a non-2xx HTTP status from an upstream service. It
// carries the status code and the raw response body.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// DecodeError reports a response body that is not a JSON object or array
// when JSON was expected.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode upstream response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ===== upstream client =====

// upstreamClient issues GET requests against the three USGS API bases. Each
// call performs exactly one network round trip: no retries, no caching, no
// pagination following. Timeouts are whatever the default transport provides.
type upstreamClient struct {
	httpClient *http.Client
	bases      map[upstreamFamily]string
}

func newUpstreamClient(cfg Config) *upstreamClient {
	return &upstreamClient{
		httpClient: &http.Client{},
		bases: map[upstreamFamily]string{
			familyWaterServices: cfg.WaterServicesURL,
			familyFloodImpact:   cfg.RTFIURL,
			familyOGC:           cfg.OGCURL,
		},
	}
}

// endpointURL joins a relative endpoint onto a family base. An empty endpoint
// addresses the base itself (the water services family has a fixed path).
func (c *upstreamClient) endpointURL(family upstreamFamily, endpoint string) string {
	base := c.bases[family]
	if endpoint == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + endpoint
}

// fetch performs the single outbound GET and returns the raw body. Non-2xx
// statuses become an UpstreamError carrying status and body.
func (c *upstreamClient) fetch(ctx context.Context, family upstreamFamily, endpoint string, query url.Values) ([]byte, error) {
	target := c.endpointURL(family, endpoint)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", target, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// getJSON fetches an endpoint and decodes the body as JSON, normalizing
// array-shaped responses.
func (c *upstreamClient) getJSON(ctx context.Context, family upstreamFamily, endpoint string, query url.Values) (map[string]any, error) {
	body, err := c.fetch(ctx, family, endpoint, query)
	if err != nil {
		return nil, err
	}
	return decodeAndNormalize(body)
}

// getText fetches an endpoint and wraps the raw body text. Used for the
// water services legacy rdb format, which is not JSON.
func (c *upstreamClient) getText(ctx context.Context, family upstreamFamily, endpoint string, query url.Values) (map[string]any, error) {
	body, err := c.fetch(ctx, family, endpoint, query)
	if err != nil {
		return nil, err
	}
	return map[string]any{"data": string(body)}, nil
}

// ===== response normalizer =====

func decodeAndNormalize(body []byte) (map[string]any, error) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return normalizeBody(decoded)
}

// normalizeBody wraps array responses as {items, count} so every tool returns
// a JSON object. Object responses pass through unchanged, order and content
// intact.
func normalizeBody(decoded any) (map[string]any, error) {
	switch v := decoded.(type) {
	case map[string]any:
		return v, nil
	case []any:
		return map[string]any{"items": v, "count": len(v)}, nil
	default:
		return nil, &DecodeError{Err: fmt.Errorf("unexpected JSON value of type %T", decoded)}
	}
}
