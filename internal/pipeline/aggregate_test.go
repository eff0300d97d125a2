package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/identscan/internal/model"
)

func writeImage(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "face.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nnot really an image"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	name, empty, bio := "Alice", "", "hi"
	findings := []model.Finding{
		{Platform: "GitHub", Confidence: 0.95, Tags: []string{"coding", "tech"}, Metadata: model.Metadata{FullName: &name, Bio: &bio}},
		{Platform: "Habr", Confidence: 0.9, Tags: []string{"tech"}, Metadata: model.Metadata{FullName: &empty}},
		{Platform: "Twitch", Confidence: 0.5, Tags: []string{"gaming"}},
	}

	s := Summarize(model.KindUsername, findings, nil)

	if s.PlatformsFound != 3 || s.WithFullName != 1 || s.WithBio != 1 || s.WithAvatar != 0 {
		t.Errorf("unexpected counts %+v", s)
	}
	if s.HighConfidenceCount != 2 {
		t.Errorf("expected 2 high-confidence findings, got %d", s.HighConfidenceCount)
	}
	if got := s.ByCategory["tech"]; len(got) != 2 || got[0] != "GitHub" || got[1] != "Habr" {
		t.Errorf("unexpected tech category %v", got)
	}
	for _, f := range findings {
		for _, tag := range f.Tags {
			count := 0
			for _, p := range s.ByCategory[tag] {
				if p == f.Platform {
					count++
				}
			}
			if count != 1 {
				t.Errorf("%s under %s appears %d times", f.Platform, tag, count)
			}
		}
	}
	if s.BreachCount != nil || s.RiskLevel != nil {
		t.Error("breach fields are only set for email subjects")
	}
}

func TestSummarizeEmailRisk(t *testing.T) {
	t.Parallel()

	for n, want := range map[int]model.RiskLevel{
		0: model.RiskLow, 1: model.RiskMedium, 2: model.RiskMedium,
		3: model.RiskHigh, 4: model.RiskHigh, 5: model.RiskCritical,
	} {
		breaches := make([]model.Breach, n)
		s := Summarize(model.KindEmail, nil, breaches)
		if *s.BreachCount != n || *s.RiskLevel != want {
			t.Errorf("%d breaches: expected %s, got %d/%s", n, want, *s.BreachCount, *s.RiskLevel)
		}
	}
}

func TestMergeBreaches(t *testing.T) {
	t.Parallel()

	got := MergeBreaches(
		[]model.Breach{{Name: "Adobe", Title: "first"}, {Name: "LinkedIn"}},
		[]model.Breach{{Name: "adobe", Title: "second"}, {Name: ""}, {Name: "Canva"}},
	)
	if len(got) != 3 {
		t.Fatalf("expected 3 breaches, got %+v", got)
	}
	if got[0].Title != "first" {
		t.Errorf("expected first record to win, got %+v", got[0])
	}
}

func TestSocialProfiles(t *testing.T) {
	t.Parallel()

	findings := []model.Finding{
		{Platform: "Yandex", Evidence: []string{
			"https://m.vk.com/durov",
			"https://x.com/alice",
			"https://www.linkedin.com/in/alice-smith/",
			"https://ok.ru/profile/123",
			"https://www.youtube.com/@alice",
			"https://box.com/alice",
			"not a url",
		}},
		{Platform: "Google", URL: "https://facebook.com/alice.s"},
	}

	got := SocialProfiles(findings)
	want := []model.SocialProfile{
		{Network: "VK", Handle: "durov"},
		{Network: "Twitter", Handle: "alice"},
		{Network: "LinkedIn", Handle: "alice-smith"},
		{Network: "Odnoklassniki", Handle: "123"},
		{Network: "YouTube", Handle: "alice"},
		{Network: "Facebook", Handle: "alice.s"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d profiles, got %+v", len(want), got)
	}
	for i := range want {
		if got[i].Network != want[i].Network || got[i].Handle != want[i].Handle {
			t.Errorf("profile %d: expected %s/%s, got %s/%s", i, want[i].Network, want[i].Handle, got[i].Network, got[i].Handle)
		}
	}
	if got[5].Source != "Google" {
		t.Errorf("expected source Google, got %q", got[5].Source)
	}
}
