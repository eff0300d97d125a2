package probe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nao1215/identscan/internal/model"
)

func newGitHubServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/users/alice":
			if got := r.Header.Get("Authorization"); got != "" && got != "Bearer s3cret" {
				t.Errorf("unexpected Authorization header %q", got)
			}
			_, _ = io.WriteString(w, `{
				"login": "alice",
				"html_url": "https://github.com/alice",
				"name": "Alice Liddell",
				"avatar_url": "https://avatars.githubusercontent.com/u/1",
				"bio": "down the rabbit hole",
				"blog": "https://alice.example",
				"twitter_username": "alice_l"
			}`)
		case "/users/ghost":
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message": "Not Found"}`)
		case "/users/limited":
			w.Header().Set("X-RateLimit-Limit", "60")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", "1")
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"message": "API rate limit exceeded"}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"message": "oops"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGitHubProbe(t *testing.T) {
	t.Parallel()

	srv := newGitHubServer(t)
	p, err := NewGitHubProbe(
		Descriptor{Name: "GitHub", Kind: model.KindUsername, Tier: 1, Tags: []string{"coding"}},
		srv.Client(),
		WithGitHubBaseURL(srv.URL),
		WithGitHubToken("s3cret"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if p.Descriptor().Source != SourceAPI {
		t.Errorf("expected API source, got %s", p.Descriptor().Source)
	}

	t.Run("existing user", func(t *testing.T) {
		t.Parallel()

		out := p.Execute(context.Background(), mustSubject(t, model.KindUsername, "alice"))
		if out.Status != StatusFound {
			t.Fatalf("expected found, got %s %+v", out.Status, out.Failure)
		}
		hit := out.Hits[0]
		if hit.URL != "https://github.com/alice" {
			t.Errorf("unexpected URL %q", hit.URL)
		}
		if !hit.Metadata.HasFullName() || !hit.Metadata.HasAvatar() || !hit.Metadata.HasBio() {
			t.Errorf("expected full metadata, got %+v", hit.Metadata)
		}
		if len(hit.Evidence) != 2 || hit.Evidence[1] != "https://twitter.com/alice_l" {
			t.Errorf("unexpected evidence %v", hit.Evidence)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()

		out := p.Execute(context.Background(), mustSubject(t, model.KindUsername, "ghost"))
		if out.Status != StatusNotFound {
			t.Errorf("expected not found, got %s", out.Status)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		t.Parallel()

		out := p.Execute(context.Background(), mustSubject(t, model.KindUsername, "limited"))
		if out.Status != StatusUncertain {
			t.Fatalf("expected uncertain, got %s %+v", out.Status, out.Failure)
		}
		if out.RawStatus != http.StatusForbidden {
			t.Errorf("expected raw status 403, got %d", out.RawStatus)
		}
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()

		out := p.Execute(context.Background(), mustSubject(t, model.KindUsername, "broken"))
		if out.Status != StatusUncertain || out.RawStatus != http.StatusInternalServerError {
			t.Errorf("expected uncertain 500, got %s %d", out.Status, out.RawStatus)
		}
	})
}
