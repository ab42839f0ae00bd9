package tenant

import (
	"net"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Resolver maps inbound hostnames onto tenant slugs and rewrites request
// paths so all downstream routing is tenant-path-scoped. It is a pure
// function of (hostname, path); no lookups happen here.
type Resolver struct {
	// BaseDomain is the deployment's apex host, e.g. "medmap.app".
	BaseDomain string
	// ApexLabel is the reserved subdomain label that maps to the bare
	// host rather than a tenant, e.g. "www".
	ApexLabel string
}

func NewResolver(baseDomain, apexLabel string) *Resolver {
	return &Resolver{
		BaseDomain: strings.ToLower(baseDomain),
		ApexLabel:  strings.ToLower(apexLabel),
	}
}

// SlugFromHost extracts the candidate tenant slug from a request host.
// Returns "" for the bare host, the reserved apex label, hosts outside the
// base domain and hosts with too few labels.
func (r *Resolver) SlugFromHost(host string) string {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == r.BaseDomain {
		return ""
	}
	suffix := "." + r.BaseDomain
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	// Leading label only: "acme.extra.base" still resolves to "acme".
	label := strings.TrimSuffix(host, suffix)
	if i := strings.Index(label, "."); i >= 0 {
		label = label[:i]
	}
	if label == "" || label == r.ApexLabel {
		return ""
	}
	return label
}

// RewritePath scopes path under the tenant slug. The rewrite is idempotent:
// a path already under "/{slug}" comes back unchanged, so re-running the
// middleware can never loop. The root path lands on the tenant dashboard.
func RewritePath(path, slug string) string {
	if slug == "" {
		return path
	}
	prefix := "/" + slug
	if path == prefix || strings.HasPrefix(path, prefix+"/") {
		return path
	}
	if path == "" || path == "/" {
		return prefix + "/dashboard"
	}
	return prefix + path
}

// Slugify derives a URL-safe slug from a tenant name: lowercase, diacritics
// stripped, anything outside [a-z0-9 -] dropped, whitespace collapsed to
// single hyphens.
func Slugify(name string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(fold, strings.ToLower(name))
	if err != nil {
		s = strings.ToLower(name)
	}
	var b strings.Builder
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == ' ':
			b.WriteRune(c)
		}
	}
	return strings.Join(strings.Fields(b.String()), "-")
}
