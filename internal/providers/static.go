package providers

import (
	"context"
	"time"
)

// StaticProvider serves deterministic canned payloads, keyed by search input.
// Used in local development and tests to mimic real upstreams, including a
// configurable latency.
type StaticProvider struct {
	ProviderName     string
	ProviderPriority int
	Latency          time.Duration

	// Records maps the search input value (e.g. an email address) to the
	// payload returned for it. Inputs with no entry produce a not-found error.
	Records map[string]Payload

	// Err, when set, is returned by every Search call.
	Err error

	// Unhealthy makes CheckHealth fail.
	Unhealthy bool
}

var _ Provider = (*StaticProvider)(nil)

func (p *StaticProvider) Name() string  { return p.ProviderName }
func (p *StaticProvider) Priority() int { return p.ProviderPriority }

func (p *StaticProvider) Search(ctx context.Context, kind SearchKind, params map[string]string) (Payload, error) {
	if p.Latency > 0 {
		select {
		case <-time.After(p.Latency):
		case <-ctx.Done():
			return nil, NewError(ErrorTimeout, p.ProviderName, "search timed out", ctx.Err())
		}
	}
	if p.Err != nil {
		return nil, p.Err
	}
	payload, ok := p.Records[params[string(kind)]]
	if !ok {
		return nil, NewError(ErrorNotFound, p.ProviderName, "no record found", nil)
	}
	return payload, nil
}

func (p *StaticProvider) CheckHealth(ctx context.Context) error {
	if p.Unhealthy {
		return NewError(ErrorOutage, p.ProviderName, "unhealthy", nil)
	}
	return nil
}
