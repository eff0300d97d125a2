package probe

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/identscan/internal/model"
)

// Meta keys consulted for each metadata field, in priority order.
var (
	fullNameKeys = []string{"og:title", "twitter:title", "profile:username"}
	avatarKeys   = []string{"og:image", "twitter:image", "og:image:url"}
	bioKeys      = []string{"og:description", "twitter:description", "description"}
)

// ExtractProfile reads an HTML profile page and returns the OpenGraph and
// Twitter card metadata it exposes. Fields whose tags are absent stay nil.
func ExtractProfile(r io.Reader) (model.Metadata, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return model.Metadata{}, err
	}

	meta := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			name := getAttr(n, "property")
			if name == "" {
				name = getAttr(n, "name")
			}
			name = strings.ToLower(strings.TrimSpace(name))
			if name != "" {
				if _, seen := meta[name]; !seen {
					meta[name] = strings.TrimSpace(getAttr(n, "content"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return model.Metadata{
		FullName:  firstMeta(meta, fullNameKeys),
		AvatarURL: firstMeta(meta, avatarKeys),
		Bio:       firstMeta(meta, bioKeys),
	}, nil
}

func firstMeta(meta map[string]string, keys []string) *string {
	for _, k := range keys {
		if v, ok := meta[k]; ok {
			return StringPtr(v)
		}
	}
	return nil
}

// LinkFilter selects which anchors ExtractLinks keeps.
type LinkFilter struct {
	// ContainerClass restricts links to anchors nested in an element whose
	// class list contains this token. Empty means any anchor.
	ContainerClass string

	// ExcludeHosts drops links to these hosts and their subdomains.
	ExcludeHosts []string

	// Limit caps the number of links returned. Zero means no limit.
	Limit int
}

// ExtractLinks returns the absolute http(s) links of an HTML page in
// document order, deduplicated.
func ExtractLinks(r io.Reader, base *url.URL, filter LinkFilter) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	links := make([]string, 0)

	var walk func(n *html.Node, inContainer bool) bool
	walk = func(n *html.Node, inContainer bool) bool {
		if n.Type == html.ElementNode {
			if filter.ContainerClass != "" && hasClass(n, filter.ContainerClass) {
				inContainer = true
			}
			if n.Data == "a" && (filter.ContainerClass == "" || inContainer) {
				if link := resolveLink(base, getAttr(n, "href")); link != "" && !seen[link] && !excludedHost(link, filter.ExcludeHosts) {
					seen[link] = true
					links = append(links, link)
					if filter.Limit > 0 && len(links) >= filter.Limit {
						return false
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c, inContainer) {
				return false
			}
		}
		return true
	}
	walk(doc, false)

	return links, nil
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

func excludedHost(link string, hosts []string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range hosts {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
