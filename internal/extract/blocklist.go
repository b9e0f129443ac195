package extract

import (
	"net/url"
	"strings"
)

// skippedDomains are hosts whose pages are login-walled or unextractable;
// sources there are skipped, not failed.
var skippedDomains = []string{
	"x.com",
	"twitter.com",
	"facebook.com",
	"instagram.com",
}

// SkipReason returns a human-readable reason when the URL should not be
// extracted, or the empty string when it is fine.
func SkipReason(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unparseable url"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	for _, d := range skippedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return "social platform content is login-walled"
		}
	}
	return ""
}
