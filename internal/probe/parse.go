package probe

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OutputParser converts raw tool output into hits.
type OutputParser func(output []byte, desc Descriptor) ([]Hit, error)

// Parser names accepted in Invocation.Parser.
const (
	ParserJSON   = "json"
	ParserMarker = "marker"
)

// ParserFor returns the parser registered under name.
func ParserFor(name string) (OutputParser, error) {
	switch strings.ToLower(name) {
	case ParserJSON, "":
		return ParseSiteJSON, nil
	case ParserMarker:
		return ParseMarkerLines, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownParser, name)
	}
}

// ErrNoJSONObject is returned when tool output contains no JSON object.
var ErrNoJSONObject = errors.New("no JSON object in tool output")

// siteEntry is one site in a "site name -> result" JSON report.
// The status may be a plain string or an object with its own status and ids.
type siteEntry struct {
	Status      json.RawMessage `json:"status"`
	URL         string          `json:"url"`
	URLUser     string          `json:"url_user"`
	HTTPStatus  int             `json:"http_status"`
	Tags        []string        `json:"tags"`
	Name        *string         `json:"name"`
	FullName    *string         `json:"fullname"`
	AvatarURL   *string         `json:"avatar_url"`
	Image       *string         `json:"image"`
	Bio         *string         `json:"bio"`
	Description *string         `json:"description"`
}

type siteStatus struct {
	Status string            `json:"status"`
	Tags   []string          `json:"tags"`
	IDs    map[string]string `json:"ids"`
}

// ParseSiteJSON parses a JSON object mapping site names to results, as
// printed by maigret. Text around the object is ignored. Sites with a
// "found" or "claimed" status become hits; "unknown" sites become
// ambiguous hits; everything else is skipped.
func ParseSiteJSON(output []byte, desc Descriptor) ([]Hit, error) {
	start := bytes.IndexByte(output, '{')
	end := bytes.LastIndexByte(output, '}')
	if start < 0 || end <= start {
		if len(bytes.TrimSpace(output)) == 0 {
			return nil, nil
		}
		return nil, ErrNoJSONObject
	}

	var sites map[string]json.RawMessage
	if err := json.Unmarshal(output[start:end+1], &sites); err != nil {
		return nil, fmt.Errorf("decode tool output: %w", err)
	}

	names := make([]string, 0, len(sites))
	for name := range sites {
		names = append(names, name)
	}
	sort.Strings(names)

	hits := make([]Hit, 0)
	for _, name := range names {
		var entry siteEntry
		if err := json.Unmarshal(sites[name], &entry); err != nil {
			continue
		}

		status, extra := decodeSiteStatus(entry.Status)
		var ambiguous bool
		switch strings.ToLower(status) {
		case "found", "claimed":
		case "unknown", "uncertain":
			ambiguous = true
		default:
			continue
		}

		url := entry.URLUser
		if url == "" {
			url = entry.URL
		}

		hit := Hit{
			Platform:  name,
			URL:       url,
			Tags:      MergeTags(desc.Tags, entry.Tags, extra.Tags),
			Ambiguous: ambiguous,
		}
		hit.Metadata.FullName = firstNonNil(entry.FullName, entry.Name, idValue(extra.IDs, "fullname", "name"))
		hit.Metadata.AvatarURL = firstNonNil(entry.AvatarURL, entry.Image, idValue(extra.IDs, "image", "avatar"))
		hit.Metadata.Bio = firstNonNil(entry.Bio, entry.Description, idValue(extra.IDs, "bio"))
		hits = append(hits, hit)
	}
	return hits, nil
}

func decodeSiteStatus(raw json.RawMessage) (string, siteStatus) {
	if len(raw) == 0 {
		return "", siteStatus{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, siteStatus{}
	}
	var obj siteStatus
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Status, obj
	}
	return "", siteStatus{}
}

func idValue(ids map[string]string, keys ...string) *string {
	for _, k := range keys {
		if v, ok := ids[k]; ok {
			return StringPtr(v)
		}
	}
	return nil
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// ParseMarkerLines parses line-oriented tool output where each account in
// use is reported as "[+] <site>" or "[+] Email used on <site>", as printed
// by holehe. Lines without the marker are ignored, as is any line whose
// remainder is not a single site token, such as holehe's legend line.
func ParseMarkerLines(output []byte, desc Descriptor) ([]Hit, error) {
	hits := make([]Hit, 0)
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		idx := strings.Index(line, "[+]")
		if idx < 0 {
			continue
		}
		site := strings.TrimSpace(line[idx+len("[+]"):])
		if i := strings.LastIndex(site, " on "); i >= 0 {
			site = strings.TrimSpace(site[i+len(" on "):])
		}
		if !isSiteToken(site) || seen[strings.ToLower(site)] {
			continue
		}
		seen[strings.ToLower(site)] = true

		hit := Hit{
			Platform: PlatformName(site),
			Tags:     MergeTags(desc.Tags),
		}
		if strings.Contains(site, ".") {
			hit.URL = "https://" + strings.ToLower(site)
		}
		hits = append(hits, hit)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tool output: %w", err)
	}
	return hits, nil
}

// isSiteToken reports whether s is one site label or domain.
func isSiteToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t,[]")
}

// PlatformName derives a display name from a site label or domain:
// "instagram.com" becomes "Instagram" and "github" becomes "Github".
// Labels that already contain upper-case letters are kept as they are.
func PlatformName(site string) string {
	site = strings.TrimSpace(site)
	if strings.ToLower(site) != site {
		return site
	}
	if !strings.Contains(site, " ") {
		if i := strings.IndexByte(site, '.'); i > 0 {
			site = site[:i]
		}
	}
	return cases.Title(language.English).String(site)
}

// MergeTags unions tag lists into a sorted, lower-case set.
func MergeTags(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		for _, t := range list {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" && !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}
