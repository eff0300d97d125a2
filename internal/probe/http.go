package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/nao1215/identscan/internal/model"
)

// Placeholder marks where the subject value is substituted in URL and body templates.
const Placeholder = "{}"

// DefaultMaxBodySize is the default cap on response bytes a probe reads.
const DefaultMaxBodySize = 2 * 1024 * 1024

// StatusRule maps HTTP status codes to outcome variants.
//
// A code listed in Found yields Found and a code listed in NotFound yields
// NotFound. Any other code yields Uncertain when Uncertain is empty;
// otherwise only the listed codes are Uncertain and the rest are NotFound.
type StatusRule struct {
	Found     []int
	NotFound  []int
	Uncertain []int
}

// DefaultStatusRule treats 200 as found, 404 as not found and everything
// else as uncertain.
func DefaultStatusRule() StatusRule {
	return StatusRule{Found: []int{http.StatusOK}, NotFound: []int{http.StatusNotFound}}
}

// Classify returns the outcome status for an HTTP status code.
func (r StatusRule) Classify(code int) Status {
	switch {
	case slices.Contains(r.Found, code):
		return StatusFound
	case slices.Contains(r.NotFound, code):
		return StatusNotFound
	case len(r.Uncertain) == 0, slices.Contains(r.Uncertain, code):
		return StatusUncertain
	default:
		return StatusNotFound
	}
}

// HTTPProbe checks for an account by requesting a templated URL and
// classifying the response status.
type HTTPProbe struct {
	desc        Descriptor
	client      *http.Client
	method      string
	body        string
	headers     map[string]string
	rule        StatusRule
	profileURL  string
	extract     bool
	maxBodySize int64
}

// HTTPOption configures an HTTPProbe.
type HTTPOption func(*HTTPProbe)

// WithMethod sets the request method. Default is GET.
func WithMethod(method string) HTTPOption {
	return func(p *HTTPProbe) {
		if method != "" {
			p.method = strings.ToUpper(method)
		}
	}
}

// WithBody sets a request body template. The placeholder is replaced by the
// JSON-escaped subject value and the body is sent as application/json.
func WithBody(template string) HTTPOption {
	return func(p *HTTPProbe) {
		p.body = template
	}
}

// WithHeaders adds request headers.
func WithHeaders(headers map[string]string) HTTPOption {
	return func(p *HTTPProbe) {
		for k, v := range headers {
			p.headers[k] = v
		}
	}
}

// WithStatusRule replaces DefaultStatusRule.
func WithStatusRule(rule StatusRule) HTTPOption {
	return func(p *HTTPProbe) {
		p.rule = rule
	}
}

// WithProfileURL sets the template reported as the finding URL when it
// differs from the request URL, e.g. for signup-check endpoints.
func WithProfileURL(template string) HTTPOption {
	return func(p *HTTPProbe) {
		p.profileURL = template
	}
}

// WithProfileExtraction enables OpenGraph metadata extraction on Found.
func WithProfileExtraction(enabled bool) HTTPOption {
	return func(p *HTTPProbe) {
		p.extract = enabled
	}
}

// WithMaxBodySize caps the bytes read from a response.
func WithMaxBodySize(n int64) HTTPOption {
	return func(p *HTTPProbe) {
		if n > 0 {
			p.maxBodySize = n
		}
	}
}

// NewHTTPProbe creates an HTTPProbe for desc.URLTemplate using client.
func NewHTTPProbe(desc Descriptor, client *http.Client, opts ...HTTPOption) *HTTPProbe {
	if client == nil {
		client = http.DefaultClient
	}
	desc.Source = SourceHTTP
	p := &HTTPProbe{
		desc:        desc,
		client:      client,
		method:      http.MethodGet,
		headers:     make(map[string]string),
		rule:        DefaultStatusRule(),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Descriptor implements Probe.
func (p *HTTPProbe) Descriptor() Descriptor { return p.desc }

// Execute implements Probe.
func (p *HTTPProbe) Execute(ctx context.Context, subject model.Subject) Outcome {
	target := ExpandURL(p.desc.URLTemplate, subject.Value())

	var body io.Reader
	if p.body != "" {
		body = strings.NewReader(expandJSON(p.body, subject.Value()))
	}

	req, err := http.NewRequestWithContext(ctx, p.method, target, body)
	if err != nil {
		return Fail(model.ErrorMalformedResponse, "%s: invalid request: %v", p.desc.Name, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return failureFromError(ctx, p.desc.Name, err)
	}
	defer resp.Body.Close()

	hit := Hit{
		Platform: p.desc.Name,
		URL:      p.hitURL(target, subject.Value()),
		Tags:     p.desc.Tags,
	}

	switch p.rule.Classify(resp.StatusCode) {
	case StatusNotFound:
		return NotFound()
	case StatusUncertain:
		return Uncertain(resp.StatusCode, hit)
	}

	if p.extract {
		data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodySize))
		if err != nil {
			return failureFromError(ctx, p.desc.Name, err)
		}
		if meta, err := ExtractProfile(bytes.NewReader(data)); err == nil {
			hit.Metadata = meta
		}
	}

	return Found(hit)
}

func (p *HTTPProbe) hitURL(target, value string) string {
	if p.profileURL != "" {
		return ExpandURL(p.profileURL, value)
	}
	if p.method == http.MethodGet {
		return target
	}
	return ""
}

// ExpandURL substitutes value into a URL template. Placeholders in the path
// are path-escaped and those after the first '?' are query-escaped.
func ExpandURL(template, value string) string {
	path, query, hasQuery := strings.Cut(template, "?")
	path = strings.ReplaceAll(path, Placeholder, url.PathEscape(value))
	if !hasQuery {
		return path
	}
	return path + "?" + strings.ReplaceAll(query, Placeholder, url.QueryEscape(value))
}

// expandJSON substitutes the JSON-escaped value (without quotes) into a body template.
func expandJSON(template, value string) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return template
	}
	return strings.ReplaceAll(template, Placeholder, string(encoded[1:len(encoded)-1]))
}
