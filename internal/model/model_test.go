package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestRiskLevelFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		breaches int
		want     RiskLevel
	}{
		{0, RiskLow},
		{1, RiskMedium},
		{2, RiskMedium},
		{3, RiskHigh},
		{4, RiskHigh},
		{5, RiskCritical},
		{7, RiskCritical},
		{100, RiskCritical},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_breaches", tt.breaches), func(t *testing.T) {
			t.Parallel()
			if got := RiskLevelFor(tt.breaches); got != tt.want {
				t.Errorf("RiskLevelFor(%d): expected %s, got %s", tt.breaches, tt.want, got)
			}
		})
	}
}

func TestEnumStrings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"status found", StatusFound.String(), "found"},
		{"status uncertain", StatusUncertain.String(), "uncertain"},
		{"status unknown", Status(9).String(), "unknown"},
		{"risk critical", RiskCritical.String(), "critical"},
		{"risk unknown", RiskLevel(9).String(), "unknown"},
		{"error timeout", ErrorTimeout.String(), "timeout"},
		{"error tool", ErrorToolUnavailable.String(), "tool_unavailable"},
		{"error overall", ErrorOverallTimeout.String(), "overall_timeout"},
		{"error unknown", ErrorKind(9).String(), "unknown"},
		{"kind image", KindImage.String(), "image"},
		{"kind unknown", Kind(9).String(), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tt.got)
			}
		})
	}
}

func TestMetadata(t *testing.T) {
	t.Parallel()

	name := "Alice"
	empty := ""
	bio := "hello"

	t.Run("empty string counts as observed but not present", func(t *testing.T) {
		t.Parallel()

		m := Metadata{FullName: &empty}
		if m.HasFullName() {
			t.Error("expected empty full name not to count")
		}
		if m.IsEmpty() {
			t.Error("expected metadata with observed field not to be empty")
		}
	})

	t.Run("merge fills only nil fields", func(t *testing.T) {
		t.Parallel()

		m := Metadata{FullName: &name}
		other := Metadata{FullName: &empty, Bio: &bio}
		merged := m.Merge(other)
		if *merged.FullName != "Alice" {
			t.Errorf("expected full name to be kept, got %q", *merged.FullName)
		}
		if !merged.HasBio() {
			t.Error("expected bio to be filled from other")
		}
		if merged.HasAvatar() {
			t.Error("expected avatar to stay absent")
		}
	})

	t.Run("absent fields are omitted from JSON", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(Metadata{Bio: &bio})
		if err != nil {
			t.Fatal(err)
		}
		got := string(data)
		if strings.Contains(got, "full_name") || strings.Contains(got, "avatar_url") {
			t.Errorf("expected absent fields to be omitted, got %s", got)
		}
		if !strings.Contains(got, `"bio":"hello"`) {
			t.Errorf("expected bio in output, got %s", got)
		}
	})
}

func TestFindingJSON(t *testing.T) {
	t.Parallel()

	f := Finding{
		Platform:   "GitHub",
		URL:        "https://github.com/alice",
		Status:     StatusFound,
		Confidence: 0.95,
		Tags:       []string{"coding"},
		Source:     "maigret",
	}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Finding
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Status != StatusFound {
		t.Errorf("expected status found, got %s", decoded.Status)
	}
	if !strings.Contains(string(data), `"status":"found"`) {
		t.Errorf("expected textual status, got %s", data)
	}
	if !f.IsHighConfidence() {
		t.Error("expected 0.95 to be high confidence")
	}
}

func TestReportHelpers(t *testing.T) {
	t.Parallel()

	r := &Report{
		Errors: []ProbeError{
			{Probe: "a", Kind: ErrorTimeout},
			{Probe: "b", Kind: ErrorNetwork},
			{Kind: ErrorOverallTimeout, Detail: "deadline"},
		},
	}

	if r.HasFindings() {
		t.Error("expected no findings")
	}
	if !r.HasErrors() {
		t.Error("expected errors")
	}
	if got := r.ErrorsOfKind(ErrorOverallTimeout); len(got) != 1 {
		t.Errorf("expected 1 overall timeout error, got %d", len(got))
	}
	if msg := r.Errors[2].Error(); msg != "overall_timeout: deadline" {
		t.Errorf("unexpected error string %q", msg)
	}
	if msg := r.Errors[0].Error(); !strings.Contains(msg, "a (tier 0)") {
		t.Errorf("unexpected error string %q", msg)
	}
}

func TestImageInfoHasIdentifyingMetadata(t *testing.T) {
	t.Parallel()

	if (ImageInfo{SHA3: "ab"}).HasIdentifyingMetadata() {
		t.Error("expected bare image info not to be identifying")
	}
	if !(ImageInfo{GPS: &GPSCoordinates{Latitude: "1", Longitude: "2"}}).HasIdentifyingMetadata() {
		t.Error("expected GPS to be identifying")
	}
}
