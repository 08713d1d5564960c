package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTPProvider calls a JSON people-search API. The two deployed upstreams
// speak slightly different dialects of the same abstract contract, so the
// wire format is selected per variant; everything else is shared.
type HTTPProvider struct {
	name     string
	priority int
	baseURL  string
	apiKey   string
	client   *http.Client
	postBody bool // secondary upstream takes a POST body instead of query params
}

var _ Provider = (*HTTPProvider)(nil)

// NewPrimaryHTTP builds the primary upstream client: GET requests with the
// search input in query parameters.
func NewPrimaryHTTP(baseURL, apiKey string, client *http.Client) *HTTPProvider {
	return &HTTPProvider{
		name:     "primary",
		priority: 1,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		client:   client,
	}
}

// NewSecondaryHTTP builds the secondary upstream client: POST requests with a
// JSON body.
func NewSecondaryHTTP(baseURL, apiKey string, client *http.Client) *HTTPProvider {
	return &HTTPProvider{
		name:     "secondary",
		priority: 2,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		client:   client,
		postBody: true,
	}
}

func (p *HTTPProvider) Name() string  { return p.name }
func (p *HTTPProvider) Priority() int { return p.priority }

// Search performs a lookup against the upstream. Non-2xx responses are mapped
// into the normalized error taxonomy; 404 is an authoritative no-record
// answer, not a failure.
func (p *HTTPProvider) Search(ctx context.Context, kind SearchKind, params map[string]string) (Payload, error) {
	if !kind.Valid() {
		return nil, NewError(ErrorBadData, p.name, fmt.Sprintf("unsupported search kind %q", kind), nil)
	}

	req, err := p.buildRequest(ctx, kind, params)
	if err != nil {
		return nil, NewError(ErrorInternal, p.name, "build request", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewError(ErrorTimeout, p.name, "search timed out", err)
		}
		return nil, NewError(ErrorOutage, p.name, "search request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewError(ErrorNotFound, p.name, "no record found", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewError(ErrorRateLimited, p.name, "rate limited", nil)
	case resp.StatusCode >= 500:
		return nil, NewError(ErrorOutage, p.name, fmt.Sprintf("upstream returned %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, NewError(ErrorInternal, p.name, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, NewError(ErrorBadData, p.name, "read response", err)
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, NewError(ErrorBadData, p.name, "decode response", err)
	}
	return payload, nil
}

func (p *HTTPProvider) buildRequest(ctx context.Context, kind SearchKind, params map[string]string) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/v1/search/%s", p.baseURL, kind)

	if p.postBody {
		body := map[string]string{"kind": string(kind)}
		for k, v := range params {
			body[k] = v
		}
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(encoded)))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		p.authorize(req)
		return req, nil
	}

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	p.authorize(req)
	return req, nil
}

func (p *HTTPProvider) authorize(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}

// CheckHealth probes the upstream status endpoint.
func (p *HTTPProvider) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/status", nil)
	if err != nil {
		return err
	}
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return NewError(ErrorOutage, p.name, "health check failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return NewError(ErrorOutage, p.name, fmt.Sprintf("health check returned %d", resp.StatusCode), nil)
	}
	return nil
}
