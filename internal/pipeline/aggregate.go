package pipeline

import (
	"net/url"
	"slices"
	"strings"

	"github.com/nao1215/identscan/internal/model"
)

// Summarize derives the summary of a finding set. breachCount is only
// recorded for email subjects; domains are only counted for image subjects.
func Summarize(kind model.Kind, findings []model.Finding, breaches []model.Breach) model.Summary {
	s := model.Summary{
		PlatformsFound: len(findings),
		ByCategory:     make(map[string][]string),
	}

	for _, f := range findings {
		if f.Metadata.HasFullName() {
			s.WithFullName++
		}
		if f.Metadata.HasAvatar() {
			s.WithAvatar++
		}
		if f.Metadata.HasBio() {
			s.WithBio++
		}
		if f.IsHighConfidence() {
			s.HighConfidenceCount++
		}
		for _, tag := range f.Tags {
			if !slices.Contains(s.ByCategory[tag], f.Platform) {
				s.ByCategory[tag] = append(s.ByCategory[tag], f.Platform)
			}
		}
	}

	switch kind {
	case model.KindEmail:
		count := len(breaches)
		risk := model.RiskLevelFor(count)
		s.BreachCount = &count
		s.RiskLevel = &risk
	case model.KindImage:
		s.UniqueDomains = len(uniqueDomains(findings))
	}
	return s
}

// MergeBreaches unions breach lists by name, case-insensitively, keeping
// the first record seen for each name.
func MergeBreaches(lists ...[]model.Breach) []model.Breach {
	seen := make(map[string]bool)
	var out []model.Breach
	for _, list := range lists {
		for _, b := range list {
			key := strings.ToLower(strings.TrimSpace(b.Name))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, b)
		}
	}
	return out
}

// uniqueDomains returns the distinct hosts of all finding and evidence
// links, without a leading "www.".
func uniqueDomains(findings []model.Finding) []string {
	var hosts []string
	for _, f := range findings {
		for _, link := range append([]string{f.URL}, f.Evidence...) {
			host := hostOf(link)
			if host != "" && !slices.Contains(hosts, host) {
				hosts = append(hosts, host)
			}
		}
	}
	return hosts
}

func hostOf(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// socialNetworks maps registrable domains to network display names.
var socialNetworks = map[string]string{
	"vk.com":        "VK",
	"instagram.com": "Instagram",
	"facebook.com":  "Facebook",
	"twitter.com":   "Twitter",
	"x.com":         "Twitter",
	"linkedin.com":  "LinkedIn",
	"ok.ru":         "Odnoklassniki",
	"youtube.com":   "YouTube",
}

// SocialProfiles extracts links to known social networks from the URLs and
// evidence of findings, one entry per distinct link.
func SocialProfiles(findings []model.Finding) []model.SocialProfile {
	var out []model.SocialProfile
	seen := make(map[string]bool)

	for _, f := range findings {
		for _, link := range append([]string{f.URL}, f.Evidence...) {
			network, handle, ok := socialProfile(link)
			if !ok || seen[link] {
				continue
			}
			seen[link] = true
			out = append(out, model.SocialProfile{
				Network: network,
				URL:     link,
				Handle:  handle,
				Source:  f.Platform,
			})
		}
	}
	return out
}

func socialProfile(link string) (network, handle string, ok bool) {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return "", "", false
	}
	host := strings.ToLower(u.Hostname())
	for domain, name := range socialNetworks {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			network = name
			ok = true
			break
		}
	}
	if !ok {
		return "", "", false
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segments) > 0 {
		handle = segments[0]
		if len(segments) > 1 && (handle == "in" || handle == "user" || handle == "c" || handle == "profile") {
			handle = segments[1]
		}
		handle = strings.TrimPrefix(handle, "@")
	}
	return network, handle, true
}
