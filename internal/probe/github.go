package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"

	"github.com/nao1215/identscan/internal/model"
)

// GitHubProbe looks a username up through the GitHub users API, which also
// returns the profile's name, avatar and bio.
type GitHubProbe struct {
	desc   Descriptor
	client *github.Client
}

// GitHubOption configures a GitHubProbe.
type GitHubOption func(*githubSettings)

type githubSettings struct {
	token   string
	baseURL string
}

// WithGitHubToken authenticates requests, raising the rate limit.
func WithGitHubToken(token string) GitHubOption {
	return func(s *githubSettings) {
		s.token = token
	}
}

// WithGitHubBaseURL points the client at another API root, e.g. GitHub
// Enterprise or a test server.
func WithGitHubBaseURL(baseURL string) GitHubOption {
	return func(s *githubSettings) {
		s.baseURL = baseURL
	}
}

// NewGitHubProbe creates a GitHubProbe that sends requests through httpClient.
func NewGitHubProbe(desc Descriptor, httpClient *http.Client, opts ...GitHubOption) (*GitHubProbe, error) {
	var settings githubSettings
	for _, opt := range opts {
		opt(&settings)
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if settings.token != "" {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		authed := *httpClient
		authed.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: settings.token}),
			Base:   base,
		}
		httpClient = &authed
	}

	client := github.NewClient(httpClient)
	if settings.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(settings.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github probe: invalid base URL: %w", err)
		}
		client.BaseURL = u
	}

	desc.Source = SourceAPI
	return &GitHubProbe{desc: desc, client: client}, nil
}

// Descriptor implements Probe.
func (p *GitHubProbe) Descriptor() Descriptor { return p.desc }

// Execute implements Probe.
func (p *GitHubProbe) Execute(ctx context.Context, subject model.Subject) Outcome {
	user, resp, err := p.client.Users.Get(ctx, subject.Value())
	if err != nil {
		var rateErr *github.RateLimitError
		if errors.As(err, &rateErr) {
			return Uncertain(statusOf(rateErr.Response, http.StatusForbidden), p.bareHit(subject.Value()))
		}
		var abuseErr *github.AbuseRateLimitError
		if errors.As(err, &abuseErr) {
			return Uncertain(statusOf(abuseErr.Response, http.StatusForbidden), p.bareHit(subject.Value()))
		}
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return NotFound()
		}
		var respErr *github.ErrorResponse
		if errors.As(err, &respErr) && respErr.Response != nil {
			return Uncertain(respErr.Response.StatusCode, p.bareHit(subject.Value()))
		}
		return failureFromError(ctx, p.desc.Name, err)
	}

	hit := p.bareHit(subject.Value())
	if u := user.GetHTMLURL(); u != "" {
		hit.URL = u
	}
	hit.Metadata = model.Metadata{
		FullName:  user.Name,
		AvatarURL: user.AvatarURL,
		Bio:       user.Bio,
	}
	if blog := user.GetBlog(); blog != "" {
		hit.Evidence = append(hit.Evidence, blog)
	}
	if twitter := user.GetTwitterUsername(); twitter != "" {
		hit.Evidence = append(hit.Evidence, "https://twitter.com/"+twitter)
	}
	return Found(hit)
}

func (p *GitHubProbe) bareHit(login string) Hit {
	return Hit{
		Platform: p.desc.Name,
		URL:      "https://github.com/" + url.PathEscape(login),
		Tags:     p.desc.Tags,
	}
}

func statusOf(resp *http.Response, fallback int) int {
	if resp == nil {
		return fallback
	}
	return resp.StatusCode
}
