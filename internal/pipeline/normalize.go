package pipeline

import (
	"cmp"
	"slices"
	"strings"

	"github.com/nao1215/identscan/internal/model"
	"github.com/nao1215/identscan/internal/probe"
)

// Confidence assigned by the normalizer.
const (
	// ConfidencePrimary is used for Found hits from tier 0.
	ConfidencePrimary = 0.95
	// ConfidenceFallback is used for Found hits from later tiers.
	ConfidenceFallback = 0.90
	// ConfidenceUncertain is used for Uncertain outcomes and ambiguous hits.
	ConfidenceUncertain = 0.50
)

// Normalize converts one outcome of a tier probe for the subject value into
// findings. NotFound, failures and signal-only payloads yield none. An
// Uncertain outcome without hits becomes a single finding named after the
// probe, linked to its URL template when the template carries a placeholder.
func Normalize(desc probe.Descriptor, tier int, value string, out probe.Outcome) []model.Finding {
	switch out.Status {
	case probe.StatusFound:
		findings := make([]model.Finding, 0, len(out.Hits))
		for _, hit := range out.Hits {
			if hit.Ambiguous {
				findings = append(findings, toFinding(desc, hit, model.StatusUncertain, ConfidenceUncertain))
				continue
			}
			findings = append(findings, toFinding(desc, hit, model.StatusFound, foundConfidence(tier)))
		}
		return findings

	case probe.StatusUncertain:
		hits := out.Hits
		if len(hits) == 0 {
			hits = []probe.Hit{{Platform: desc.Name, URL: uncertainURL(desc, value)}}
		}
		findings := make([]model.Finding, 0, len(hits))
		for _, hit := range hits {
			findings = append(findings, toFinding(desc, hit, model.StatusUncertain, ConfidenceUncertain))
		}
		return findings
	}
	return nil
}

func uncertainURL(desc probe.Descriptor, value string) string {
	if !strings.Contains(desc.URLTemplate, probe.Placeholder) {
		return ""
	}
	return probe.ExpandURL(desc.URLTemplate, value)
}

func foundConfidence(tier int) float64 {
	if tier == 0 {
		return ConfidencePrimary
	}
	return ConfidenceFallback
}

func toFinding(desc probe.Descriptor, hit probe.Hit, status model.Status, confidence float64) model.Finding {
	platform := strings.TrimSpace(hit.Platform)
	if platform == "" {
		platform = desc.Name
	}
	return model.Finding{
		Platform:   platform,
		URL:        hit.URL,
		Status:     status,
		Confidence: confidence,
		Tags:       probe.MergeTags(desc.Tags, hit.Tags),
		Metadata:   hit.Metadata,
		Evidence:   slices.Clone(hit.Evidence),
		Source:     desc.Name,
	}
}

// Dedupe keeps at most one finding per platform, compared case-insensitively.
// The finding with the higher confidence wins and the first one wins ties;
// tags and evidence are unioned and missing URL or metadata fields are
// filled from the dropped duplicates.
func Dedupe(findings []model.Finding) []model.Finding {
	index := make(map[string]int, len(findings))
	out := make([]model.Finding, 0, len(findings))

	for _, f := range findings {
		key := strings.ToLower(f.Platform)
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, f)
			continue
		}

		kept, other := out[i], f
		if other.Confidence > kept.Confidence {
			kept, other = other, kept
		}
		if kept.URL == "" {
			kept.URL = other.URL
		}
		kept.Tags = probe.MergeTags(kept.Tags, other.Tags)
		kept.Metadata = kept.Metadata.Merge(other.Metadata)
		kept.Evidence = unionStrings(kept.Evidence, other.Evidence)
		out[i] = kept
	}
	return out
}

// SortFindings orders findings by confidence descending, then platform
// ascending, then URL so the order never depends on completion order.
func SortFindings(findings []model.Finding) {
	slices.SortStableFunc(findings, func(a, b model.Finding) int {
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}
		if c := cmp.Compare(strings.ToLower(a.Platform), strings.ToLower(b.Platform)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Platform, b.Platform); c != 0 {
			return c
		}
		return cmp.Compare(a.URL, b.URL)
	})
}

func unionStrings(a, b []string) []string {
	out := slices.Clone(a)
	for _, s := range b {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
