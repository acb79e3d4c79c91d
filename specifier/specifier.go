// Package specifier implements the identity value types for a
// repository named by URL or local path, and the deterministic,
// filesystem-safe storage key derived from that identity.
//
// A storage key is the sanitized canonical host+path plus a stable
// hash suffix, so that two different canonical URLs that happen to
// sanitize to the same prefix never collide.
package specifier

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// sanitizer replaces filesystem-unsafe characters with a filesystem-
// safe escape sequence. Hyphens double so an original "-" stays
// distinguishable from a separator.
var sanitizer = strings.NewReplacer(
	"-", "--",
	":", "-",
	"/", "-",
	"+", "-",
	"@", "-",
	".", "-",
)

// Specifier identifies a repository as supplied by a caller: a remote
// URL or a local filesystem path. Two Specifiers compare equal iff
// their normalized URL strings match.
type Specifier struct {
	// url is the specifier exactly as supplied by the caller.
	url string

	// location is the parsed form: either a URL or a local path.
	// IsLocal reports which.
	location string
	isLocal  bool
}

// New builds a Specifier from a caller-supplied URL or local path.
func New(raw string) Specifier {
	s := Specifier{url: raw}
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		s.location = raw
		s.isLocal = false
	} else {
		s.location = raw
		s.isLocal = true
	}
	return s
}

// URL returns the specifier exactly as supplied.
func (s Specifier) URL() string { return s.url }

// Location returns the parsed location: the URL or local path.
func (s Specifier) Location() string { return s.location }

// IsLocal reports whether the specifier names a local filesystem path
// rather than a remote URL.
func (s Specifier) IsLocal() bool { return s.isLocal }

// Equal reports whether two specifiers name the same logical
// repository: their canonical forms match.
func (s Specifier) Equal(other Specifier) bool {
	return canonicalize(s.url) == canonicalize(other.url)
}

// canonicalize lower-cases the host, strips a trailing slash and a
// trailing ".git" suffix from the path, and drops userinfo, so that
// "https://Host/org/foo.git" and "https://host/org/foo" agree.
func canonicalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		// Local path: clean trailing slashes and a trailing ".git"
		// the same way a remote URL's path would be.
		p := strings.TrimSuffix(strings.TrimSuffix(raw, "/"), ".git")
		return p
	}

	host := strings.ToLower(u.Hostname())
	path := strings.TrimSuffix(strings.TrimSuffix(u.EscapedPath(), "/"), ".git")
	return u.Scheme + "://" + host + path
}

// StorageKey derives the deterministic, filesystem-safe basename this
// specifier maps to on disk: sanitizer(canonical host+path) plus a
// stable hex hash suffix of the full canonical URL, so that all URL
// variants of the same logical repository ("https://host/org/foo" and
// "https://host/org/foo.git") produce identical keys.
func (s Specifier) StorageKey() string {
	return StorageKeyForURL(s.url)
}

// StorageKeyForURL computes the storage key for a raw URL/path string
// directly, without constructing a Specifier.
func StorageKeyForURL(raw string) string {
	canon := canonicalize(raw)

	base := canon
	if i := strings.Index(base, "://"); i >= 0 {
		base = base[i+3:]
	}
	base = strings.Trim(base, "/")
	if base == "" {
		base = "repo"
	}

	sanitized := sanitizer.Replace(base)
	if len(sanitized) > 100 {
		sanitized = sanitized[:100]
	}

	sum := sha256.Sum256([]byte(canon))
	suffix := hex.EncodeToString(sum[:8])

	return sanitized + "-" + suffix
}
