package search

import (
	"net/url"
	"strings"
)

// officialDomains maps a technology name (lowercased) to the domains its
// maintainers publish release material on. Results from these hosts are
// ranked ahead of everything else.
var officialDomains = map[string][]string{
	"react":   {"react.dev", "reactjs.org", "github.com/facebook/react"},
	"node.js": {"nodejs.org", "github.com/nodejs/node"},
	"nodejs":  {"nodejs.org", "github.com/nodejs/node"},
	"next.js": {"nextjs.org", "vercel.com", "github.com/vercel/next.js"},
	"nextjs":  {"nextjs.org", "vercel.com", "github.com/vercel/next.js"},
	"vue":     {"vuejs.org", "blog.vuejs.org", "github.com/vuejs"},
	"angular": {"angular.io", "angular.dev", "blog.angular.io"},
	"python":  {"python.org", "docs.python.org", "github.com/python"},
	"django":  {"djangoproject.com", "docs.djangoproject.com"},
}

// OfficialDomainsFor returns the official publishing domains for a
// technology, or nil when none are known.
func OfficialDomainsFor(tech string) []string {
	return officialDomains[strings.ToLower(strings.TrimSpace(tech))]
}

// IsOfficialSource reports whether rawURL is hosted on one of the
// technology's official domains.
func IsOfficialSource(tech, rawURL string) bool {
	domains := OfficialDomainsFor(tech)
	if len(domains) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	hostAndPath := host + u.Path

	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
		// GitHub org/repo entries match on host plus path prefix.
		if strings.Contains(d, "/") && strings.HasPrefix(hostAndPath, d) {
			return true
		}
	}
	return false
}
