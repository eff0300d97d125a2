package probe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nao1215/identscan/internal/model"
)

// DefaultHIBPBaseURL is the Have I Been Pwned v3 API root.
const DefaultHIBPBaseURL = "https://haveibeenpwned.com/api/v3"

// hibpBreach is the subset of the HIBP breach model the report keeps.
type hibpBreach struct {
	Name        string   `json:"Name"`
	Title       string   `json:"Title"`
	Domain      string   `json:"Domain"`
	BreachDate  string   `json:"BreachDate"`
	PwnCount    int64    `json:"PwnCount"`
	DataClasses []string `json:"DataClasses"`
}

// BreachProbe queries the HIBP breached-account endpoint. It is a signal
// probe: its Found outcome carries breaches, not findings.
type BreachProbe struct {
	desc        Descriptor
	client      *http.Client
	apiKey      string
	baseURL     string
	maxBodySize int64
}

// BreachOption configures a BreachProbe.
type BreachOption func(*BreachProbe)

// WithHIBPBaseURL overrides DefaultHIBPBaseURL.
func WithHIBPBaseURL(baseURL string) BreachOption {
	return func(p *BreachProbe) {
		if baseURL != "" {
			p.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// NewBreachProbe creates a BreachProbe. An empty apiKey is allowed; the
// probe then reports ToolUnavailable on every call.
func NewBreachProbe(desc Descriptor, client *http.Client, apiKey string, opts ...BreachOption) *BreachProbe {
	if client == nil {
		client = http.DefaultClient
	}
	desc.Source = SourceAPI
	desc.Signal = true
	p := &BreachProbe{
		desc:        desc,
		client:      client,
		apiKey:      apiKey,
		baseURL:     DefaultHIBPBaseURL,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Descriptor implements Probe.
func (p *BreachProbe) Descriptor() Descriptor { return p.desc }

// Execute implements Probe.
func (p *BreachProbe) Execute(ctx context.Context, subject model.Subject) Outcome {
	if p.apiKey == "" {
		return Fail(model.ErrorToolUnavailable, "%s: API key not configured", p.desc.Name)
	}

	endpoint := p.baseURL + "/breachedaccount/" + url.PathEscape(subject.Value()) + "?truncateResponse=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Fail(model.ErrorMalformedResponse, "%s: invalid request: %v", p.desc.Name, err)
	}
	req.Header.Set("hibp-api-key", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return failureFromError(ctx, p.desc.Name, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return NotFound()
	case http.StatusUnauthorized, http.StatusForbidden:
		return Fail(model.ErrorToolUnavailable, "%s: API key rejected (status %d)", p.desc.Name, resp.StatusCode)
	default:
		return Fail(model.ErrorNetwork, "%s: unexpected status %d", p.desc.Name, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodySize))
	if err != nil {
		return failureFromError(ctx, p.desc.Name, err)
	}

	var raw []hibpBreach
	if err := json.Unmarshal(data, &raw); err != nil {
		return Fail(model.ErrorMalformedResponse, "%s: decode breaches: %v", p.desc.Name, err)
	}
	if len(raw) == 0 {
		return NotFound()
	}

	breaches := make([]model.Breach, 0, len(raw))
	for _, b := range raw {
		breaches = append(breaches, model.Breach{
			Name:        b.Name,
			Title:       b.Title,
			Domain:      b.Domain,
			BreachDate:  b.BreachDate,
			DataClasses: b.DataClasses,
			PwnCount:    b.PwnCount,
		})
	}
	return FoundSignals(model.Signals{Breaches: breaches})
}

// BreachLookup finds breaches recorded for an email address.
type BreachLookup interface {
	LookupBreaches(ctx context.Context, email string) ([]model.Breach, error)
}

// CorpusProbe queries a local breach corpus. It is a signal probe.
type CorpusProbe struct {
	desc   Descriptor
	lookup BreachLookup
}

// NewCorpusProbe creates a CorpusProbe over lookup.
func NewCorpusProbe(desc Descriptor, lookup BreachLookup) *CorpusProbe {
	desc.Source = SourceLocal
	desc.Signal = true
	return &CorpusProbe{desc: desc, lookup: lookup}
}

// Descriptor implements Probe.
func (p *CorpusProbe) Descriptor() Descriptor { return p.desc }

// Execute implements Probe.
func (p *CorpusProbe) Execute(ctx context.Context, subject model.Subject) Outcome {
	if p.lookup == nil {
		return Fail(model.ErrorToolUnavailable, "%s: breach corpus not configured", p.desc.Name)
	}
	breaches, err := p.lookup.LookupBreaches(ctx, subject.Value())
	if err != nil {
		if ctx.Err() != nil {
			return failureFromError(ctx, p.desc.Name, err)
		}
		return Fail(model.ErrorToolUnavailable, "%s: %v", p.desc.Name, err)
	}
	if len(breaches) == 0 {
		return NotFound()
	}
	return FoundSignals(model.Signals{Breaches: breaches})
}
