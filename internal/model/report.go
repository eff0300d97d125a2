package model

// Summary holds aggregate counts over a Report's findings.
type Summary struct {
	PlatformsFound      int `json:"platforms_found"`
	WithFullName        int `json:"with_full_name"`
	WithAvatar          int `json:"with_avatar"`
	WithBio             int `json:"with_bio"`
	HighConfidenceCount int `json:"high_confidence_count"`

	// ByCategory maps each tag to the platforms carrying it, in finding order.
	ByCategory map[string][]string `json:"by_category"`

	// BreachCount and RiskLevel are set for email subjects only.
	BreachCount *int       `json:"breach_count,omitempty"`
	RiskLevel   *RiskLevel `json:"risk_level,omitempty"`

	// UniqueDomains counts distinct hosts across evidence links (image subjects).
	UniqueDomains int `json:"unique_domains,omitempty"`
}

// ReportSubject is the serialized form of the Subject a Report answers.
type ReportSubject struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// Report is the final, immutable result of a lookup. Producers must not
// retain or mutate its slices after returning it.
type Report struct {
	Subject ReportSubject `json:"subject"`

	// TierUsed is the index of the tier whose findings were accepted.
	TierUsed int `json:"tier_used"`

	// Findings are sorted by confidence descending, then platform ascending.
	Findings []Finding `json:"findings"`

	Summary Summary `json:"summary"`

	// Errors are the non-fatal failures from every attempted tier and signal probe.
	Errors []ProbeError `json:"errors"`

	// Partial is true when the overall deadline expired before completion.
	Partial bool `json:"partial,omitempty"`

	Breaches       []Breach        `json:"breaches,omitempty"`
	Email          *EmailInfo      `json:"email,omitempty"`
	Image          *ImageInfo      `json:"image,omitempty"`
	SocialProfiles []SocialProfile `json:"social_profiles,omitempty"`
}

// HasFindings reports whether any platform was found.
func (r *Report) HasFindings() bool {
	return len(r.Findings) > 0
}

// HasErrors reports whether any probe failed.
func (r *Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// ErrorsOfKind returns the recorded errors with the given kind.
func (r *Report) ErrorsOfKind(kind ErrorKind) []ProbeError {
	var out []ProbeError
	for _, e := range r.Errors {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
