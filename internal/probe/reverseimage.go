package probe

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/identscan/internal/model"
)

// DefaultMaxImageLinks caps the evidence links kept per search engine.
const DefaultMaxImageLinks = 10

// ReverseImageProbe uploads the image subject to a reverse image search
// engine and collects the result links from the returned page.
type ReverseImageProbe struct {
	desc        Descriptor
	client      *http.Client
	field       string
	headers     map[string]string
	filter      LinkFilter
	maxBodySize int64
}

// ReverseImageOption configures a ReverseImageProbe.
type ReverseImageOption func(*ReverseImageProbe)

// WithUploadField sets the multipart form field carrying the image. Default "image".
func WithUploadField(field string) ReverseImageOption {
	return func(p *ReverseImageProbe) {
		if field != "" {
			p.field = field
		}
	}
}

// WithUploadHeaders adds request headers to the upload.
func WithUploadHeaders(headers map[string]string) ReverseImageOption {
	return func(p *ReverseImageProbe) {
		for k, v := range headers {
			p.headers[k] = v
		}
	}
}

// WithResultClass restricts links to anchors inside elements with this class.
func WithResultClass(class string) ReverseImageOption {
	return func(p *ReverseImageProbe) {
		p.filter.ContainerClass = class
	}
}

// WithMaxLinks caps the number of evidence links.
func WithMaxLinks(n int) ReverseImageOption {
	return func(p *ReverseImageProbe) {
		if n > 0 {
			p.filter.Limit = n
		}
	}
}

// NewReverseImageProbe creates a probe that POSTs to desc.URLTemplate.
// Links back to the engine's own host are excluded.
func NewReverseImageProbe(desc Descriptor, client *http.Client, opts ...ReverseImageOption) *ReverseImageProbe {
	if client == nil {
		client = http.DefaultClient
	}
	desc.Source = SourceHTTP
	p := &ReverseImageProbe{
		desc:        desc,
		client:      client,
		field:       "image",
		headers:     make(map[string]string),
		filter:      LinkFilter{Limit: DefaultMaxImageLinks},
		maxBodySize: DefaultMaxBodySize,
	}
	if u, err := url.Parse(desc.URLTemplate); err == nil && u.Hostname() != "" {
		p.filter.ExcludeHosts = append(p.filter.ExcludeHosts, registrableDomain(u.Hostname()))
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Descriptor implements Probe.
func (p *ReverseImageProbe) Descriptor() Descriptor { return p.desc }

// Execute implements Probe.
func (p *ReverseImageProbe) Execute(ctx context.Context, subject model.Subject) Outcome {
	data, err := os.ReadFile(subject.Value())
	if err != nil {
		return Fail(model.ErrorMalformedResponse, "%s: read image: %v", p.desc.Name, err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile(p.field, filepath.Base(subject.Value()))
	if err != nil {
		return Fail(model.ErrorMalformedResponse, "%s: build upload: %v", p.desc.Name, err)
	}
	if _, err := part.Write(data); err != nil {
		return Fail(model.ErrorMalformedResponse, "%s: build upload: %v", p.desc.Name, err)
	}
	if err := form.Close(); err != nil {
		return Fail(model.ErrorMalformedResponse, "%s: build upload: %v", p.desc.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.desc.URLTemplate, &body)
	if err != nil {
		return Fail(model.ErrorMalformedResponse, "%s: invalid request: %v", p.desc.Name, err)
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return failureFromError(ctx, p.desc.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Uncertain(resp.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodySize))
	if err != nil {
		return failureFromError(ctx, p.desc.Name, err)
	}

	links, err := ExtractLinks(bytes.NewReader(page), resp.Request.URL, p.filter)
	if err != nil {
		return Fail(model.ErrorMalformedResponse, "%s: parse results: %v", p.desc.Name, err)
	}
	if len(links) == 0 {
		return NotFound()
	}

	return Found(Hit{
		Platform: p.desc.Name,
		URL:      links[0],
		Tags:     p.desc.Tags,
		Evidence: links,
	})
}

// registrableDomain returns the last two labels of host, e.g.
// "images.yandex.com" becomes "yandex.com".
func registrableDomain(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) <= 2 || net.ParseIP(host) != nil {
		return host
	}
	return labels[len(labels)-2] + "." + labels[len(labels)-1]
}
