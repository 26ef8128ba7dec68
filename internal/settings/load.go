package settings

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// fileGeneral mirrors the `[general]` TOML table, which in turn mirrors
// the CLI flags of §6.
type fileGeneral struct {
	Host                   string `toml:"host"`
	Port                   int    `toml:"port"`
	Root                   string `toml:"root"`
	Page404                string `toml:"page404"`
	Page50x                string `toml:"page50x"`
	PageFallback           string `toml:"page-fallback"`
	LogLevel               string `toml:"log-level"`
	CORSAllowOrigins       string `toml:"cors-allow-origins"`
	CORSAllowHeaders       string `toml:"cors-allow-headers"`
	CORSExposeHeaders      string `toml:"cors-expose-headers"`
	HTTPSRedirect          bool   `toml:"https-redirect"`
	HTTPSRedirectHost      string `toml:"https-redirect-host"`
	HTTPSRedirectFromPort  int    `toml:"https-redirect-from-port"`
	HTTPSRedirectFromHosts string `toml:"https-redirect-from-hosts"`
	Compression            bool   `toml:"compression"`
	CompressionStatic      bool   `toml:"compression-static"`
	DirectoryListing       bool   `toml:"directory-listing"`
	DirectoryListingOrder  int    `toml:"directory-listing-order"`
	DirectoryListingFormat string `toml:"directory-listing-format"`
	SecurityHeaders        bool   `toml:"security-headers"`
	CacheControlHeaders    bool   `toml:"cache-control-headers"`
	CacheControlHeadersDup *bool  `toml:"cache_control_headers"` // duplicate declaration guard, rejects using both spellings at once
	BasicAuth              string `toml:"basic-auth"`
	GracePeriod            int    `toml:"grace-period"`
	LogRemoteAddress       bool   `toml:"log-remote-address"`
	RedirectTrailingSlash  bool   `toml:"redirect-trailing-slash"`
	IgnoreHiddenFiles      bool   `toml:"ignore-hidden-files"`
}

type fileHeaderRule struct {
	Source  string            `toml:"source"`
	Headers map[string]string `toml:"headers"`
}

type fileAdvanced struct {
	Headers []fileHeaderRule `toml:"headers"`
}

type fileConfig struct {
	General  fileGeneral  `toml:"general"`
	Advanced fileAdvanced `toml:"advanced"`
}

// Flags carries the values parsed from the command line by cmd/staticserver;
// Set names the flags explicitly given on the CLI, and a field whose flag is
// not in Set is ignored, so Load falls through to the TOML file, then the
// environment, then the built-in default, per the default < env < TOML < flag
// precedence (see
// Radiergummi-tspages/config/config.go for the same layering).
type Flags struct {
	Set      map[string]bool // flag name -> explicitly set on the command line
	Root     string
	Page404  string
	Page50x  string
	Fallback string

	CORSAllowOrigins  string
	CORSAllowHeaders  string
	CORSExposeHeaders string

	Compression       bool
	CompressionStatic bool

	DirectoryListing       bool
	DirectoryListingOrder  int
	DirectoryListingFormat string

	SecurityHeaders     bool
	CacheControlHeaders bool

	BasicAuth string

	LogRemoteAddress      bool
	RedirectTrailingSlash bool
	IgnoreHiddenFiles     bool

	HTTPSRedirect          bool
	HTTPSRedirectHost      string
	HTTPSRedirectFromPort  int
	HTTPSRedirectFromHosts string
}

// Load reads configPath (if non-empty) as TOML, layers environment
// variables named SERVER_<UPPER_SNAKE>, then explicit CLI flags on top, and
// returns a validated, clamped Settings.
func Load(configPath string, flags Flags) (*Settings, error) {
	var fc fileConfig
	var md toml.MetaData
	if configPath != "" {
		var err error
		md, err = toml.DecodeFile(configPath, &fc)
		if err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		if fc.General.CacheControlHeadersDup != nil && md.IsDefined("general", "cache-control-headers") {
			return nil, fmt.Errorf("config: cache-control_headers declared twice; keep only one of " +
				"\"cache-control-headers\" or \"cache_control_headers\"")
		}
		if fc.General.CacheControlHeadersDup != nil {
			fc.General.CacheControlHeaders = *fc.General.CacheControlHeadersDup
		}
	}
	defined := func(key string) bool { return md.IsDefined("general", key) }

	strDefault(&fc.General.Root, "SERVER_ROOT", ".")
	strDefault(&fc.General.Page404, "SERVER_PAGE404", "")
	strDefault(&fc.General.Page50x, "SERVER_PAGE50X", "")
	strDefault(&fc.General.PageFallback, "SERVER_PAGE_FALLBACK", "")
	strDefault(&fc.General.CORSAllowOrigins, "SERVER_CORS_ALLOW_ORIGINS", "")
	strDefault(&fc.General.CORSAllowHeaders, "SERVER_CORS_ALLOW_HEADERS", "")
	strDefault(&fc.General.CORSExposeHeaders, "SERVER_CORS_EXPOSE_HEADERS", "")
	strDefault(&fc.General.HTTPSRedirectHost, "SERVER_HTTPS_REDIRECT_HOST", "")
	strDefault(&fc.General.HTTPSRedirectFromHosts, "SERVER_HTTPS_REDIRECT_FROM_HOSTS", "localhost")
	strDefault(&fc.General.DirectoryListingFormat, "SERVER_DIRECTORY_LISTING_FORMAT", "html")
	strDefault(&fc.General.BasicAuth, "SERVER_BASIC_AUTH", "")

	boolEnvDefault(&fc.General.Compression, defined("compression"), "SERVER_COMPRESSION", true)
	boolEnvDefault(&fc.General.SecurityHeaders, defined("security-headers"), "SERVER_SECURITY_HEADERS", true)
	cacheControlDefined := defined("cache-control-headers") || md.IsDefined("general", "cache_control_headers")
	boolEnvDefault(&fc.General.CacheControlHeaders, cacheControlDefined, "SERVER_CACHE_CONTROL_HEADERS", true)
	boolEnvDefault(&fc.General.RedirectTrailingSlash, defined("redirect-trailing-slash"), "SERVER_REDIRECT_TRAILING_SLASH", true)
	boolEnvDefault(&fc.General.IgnoreHiddenFiles, defined("ignore-hidden-files"), "SERVER_IGNORE_HIDDEN_FILES", true)

	if fc.General.GracePeriod == 0 {
		fc.General.GracePeriod = intEnvDefault("SERVER_GRACE_PERIOD", 0)
	}

	// Explicit CLI flags always win.
	if flags.Set["root"] {
		fc.General.Root = flags.Root
	}
	if flags.Set["page404"] {
		fc.General.Page404 = flags.Page404
	}
	if flags.Set["page50x"] {
		fc.General.Page50x = flags.Page50x
	}
	if flags.Set["page-fallback"] {
		fc.General.PageFallback = flags.Fallback
	}
	if flags.Set["cors-allow-origins"] {
		fc.General.CORSAllowOrigins = flags.CORSAllowOrigins
	}
	if flags.Set["cors-allow-headers"] {
		fc.General.CORSAllowHeaders = flags.CORSAllowHeaders
	}
	if flags.Set["cors-expose-headers"] {
		fc.General.CORSExposeHeaders = flags.CORSExposeHeaders
	}
	if flags.Set["compression"] {
		fc.General.Compression = flags.Compression
	}
	if flags.Set["compression-static"] {
		fc.General.CompressionStatic = flags.CompressionStatic
	}
	if flags.Set["directory-listing"] {
		fc.General.DirectoryListing = flags.DirectoryListing
	}
	if flags.Set["directory-listing-order"] {
		fc.General.DirectoryListingOrder = flags.DirectoryListingOrder
	}
	if flags.Set["directory-listing-format"] {
		fc.General.DirectoryListingFormat = flags.DirectoryListingFormat
	}
	if flags.Set["security-headers"] {
		fc.General.SecurityHeaders = flags.SecurityHeaders
	}
	if flags.Set["cache-control-headers"] {
		fc.General.CacheControlHeaders = flags.CacheControlHeaders
	}
	if flags.Set["basic-auth"] {
		fc.General.BasicAuth = flags.BasicAuth
	}
	if flags.Set["log-remote-address"] {
		fc.General.LogRemoteAddress = flags.LogRemoteAddress
	}
	if flags.Set["redirect-trailing-slash"] {
		fc.General.RedirectTrailingSlash = flags.RedirectTrailingSlash
	}
	if flags.Set["ignore-hidden-files"] {
		fc.General.IgnoreHiddenFiles = flags.IgnoreHiddenFiles
	}
	if flags.Set["https-redirect"] {
		fc.General.HTTPSRedirect = flags.HTTPSRedirect
	}
	if flags.Set["https-redirect-host"] {
		fc.General.HTTPSRedirectHost = flags.HTTPSRedirectHost
	}
	if flags.Set["https-redirect-from-port"] {
		fc.General.HTTPSRedirectFromPort = flags.HTTPSRedirectFromPort
	}
	if flags.Set["https-redirect-from-hosts"] {
		fc.General.HTTPSRedirectFromHosts = flags.HTTPSRedirectFromHosts
	}

	s := &Settings{
		Root:                  fc.General.Root,
		Page404:               fc.General.Page404,
		Page50x:               fc.General.Page50x,
		Fallback:              fc.General.PageFallback,
		CompressionEnabled:    fc.General.Compression,
		CompressionStatic:     fc.General.CompressionStatic,
		SecurityHeaders:       fc.General.SecurityHeaders,
		CacheControl:          fc.General.CacheControlHeaders,
		RedirectTrailingSlash: fc.General.RedirectTrailingSlash,
		IgnoreHiddenFiles:     fc.General.IgnoreHiddenFiles,
		LogRemoteAddress:      fc.General.LogRemoteAddress,
		GracePeriod:           time.Duration(fc.General.GracePeriod) * time.Second,
		Listing: DirectoryListing{
			Enabled:      fc.General.DirectoryListing,
			DefaultOrder: fc.General.DirectoryListingOrder,
			Format:       fc.General.DirectoryListingFormat,
		},
		HTTPS: HTTPSRedirect{
			Enabled:   fc.General.HTTPSRedirect,
			Host:      fc.General.HTTPSRedirectHost,
			FromPorts: []int{fc.General.HTTPSRedirectFromPort},
			FromHosts: splitComma(fc.General.HTTPSRedirectFromHosts),
		},
	}

	if origins := fc.General.CORSAllowOrigins; origins != "" {
		s.CORS = &CORS{
			AllowOrigins:  splitComma(origins),
			AllowHeaders:  splitComma(fc.General.CORSAllowHeaders),
			ExposeHeaders: splitComma(fc.General.CORSExposeHeaders),
		}
	}

	if fc.General.BasicAuth != "" {
		user, hash, ok := strings.Cut(fc.General.BasicAuth, ":")
		if !ok || user == "" || hash == "" {
			// Malformed credential configuration: fail closed per §4.3
			// by installing a credential no password can ever satisfy.
			s.Auth = &Credential{User: user, BcryptHash: "!"}
		} else {
			s.Auth = &Credential{User: user, BcryptHash: hash}
		}
	}

	for _, hr := range fc.Advanced.Headers {
		s.HeaderRules = append(s.HeaderRules, HeaderRule{Source: hr.Source, Headers: hr.Headers})
	}

	s.Clamp()
	return s, nil
}

func strDefault(dst *string, envKey, def string) {
	if *dst == "" {
		*dst = os.Getenv(envKey)
	}
	if *dst == "" {
		*dst = def
	}
}

// boolEnvDefault resolves a boolean field's final value once the TOML decode
// pass has run. tomlDefined distinguishes "the TOML file explicitly set this
// to false" from "the TOML file never mentioned it", which a bare zero-value
// check on *dst cannot: both look like false.
func boolEnvDefault(dst *bool, tomlDefined bool, envKey string, def bool) {
	if tomlDefined {
		return
	}
	if v, ok := os.LookupEnv(envKey); ok {
		*dst = v == "true" || v == "1"
		return
	}
	*dst = def
}

func intEnvDefault(envKey string, def int) int {
	if v := os.Getenv(envKey); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// splitComma parses a comma-separated list, trimming whitespace around
// each element and dropping empty elements. Used for CORS origin lists and
// https-redirect-from-hosts.
func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
