// Package settings holds the immutable, process-lifetime configuration
// consumed by the request-handling pipeline, and the TOML/env/flag loader
// that produces it. The precedence order (default < env < TOML < flag) and
// the two-table TOML shape are grounded on the config.Load pattern in
// Radiergummi-tspages/config/config.go.
package settings

import "time"

// Credential is a configured HTTP Basic Auth user, verified with bcrypt.
type Credential struct {
	User       string
	BcryptHash string
}

// CORS describes the server's cross-origin policy. A nil *CORS disables
// CORS handling entirely.
type CORS struct {
	AllowOrigins  []string // "*" enables wildcard matching
	AllowHeaders  []string
	ExposeHeaders []string
}

// Wildcard reports whether the CORS policy allows any origin.
func (c *CORS) Wildcard() bool {
	for _, o := range c.AllowOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// HTTPSRedirect describes the plaintext-to-TLS redirect gate of
// §4.11.
type HTTPSRedirect struct {
	Enabled    bool
	Host       string   // target host for the Location header
	FromPorts  []int    // plaintext local ports that trigger a redirect
	FromHosts  []string // Host header values (hostname only) that trigger a redirect
}

// DirectoryListing configures §4.8.
type DirectoryListing struct {
	Enabled      bool
	DefaultOrder int // 0-6, see §4.8
	Format       string // "html" | "json"
}

// HeaderRule is one `[[advanced.headers]]` TOML entry: headers are applied,
// overwriting built-ins, to any request URL path (without its leading "/")
// matching Source (a glob).
type HeaderRule struct {
	Source  string
	Headers map[string]string
}

// Settings is immutable for the lifetime of the server; every field is
// read-only once Load returns. It is shared by pointer across all request
// goroutines, mirroring Caddy's SiteConfig sharing pattern.
type Settings struct {
	Root string

	Page404  string // custom 404 page path, relative to Root; "" disables
	Page50x  string // custom 50x page path, relative to Root; "" disables
	Fallback string // SPA fallback page path, relative to Root; "" disables

	CORS *CORS // nil disables CORS handling

	CompressionEnabled bool
	CompressionStatic  bool

	Listing DirectoryListing

	SecurityHeaders bool
	CacheControl    bool

	HTTPS HTTPSRedirect

	Auth *Credential // nil disables auth

	RedirectTrailingSlash bool
	IgnoreHiddenFiles     bool
	LogRemoteAddress      bool

	HeaderRules []HeaderRule

	GracePeriod time.Duration // shutdown drain period, clamped to [0, 255s]
}

// Clamp enforces the invariants Load cannot express purely through
// defaulting (the grace period ceiling from §5, a sane listing
// order bound, etc).
func (s *Settings) Clamp() {
	if s.GracePeriod > 255*time.Second {
		s.GracePeriod = 255 * time.Second
	}
	if s.GracePeriod < 0 {
		s.GracePeriod = 0
	}
	if s.Listing.DefaultOrder < 0 || s.Listing.DefaultOrder > 6 {
		s.Listing.DefaultOrder = 0
	}
	if s.Listing.Format != "json" {
		s.Listing.Format = "html"
	}
}
