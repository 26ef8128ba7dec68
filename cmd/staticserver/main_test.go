package main

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestNewLoggerValidLevel(t *testing.T) {
	logger, err := newLogger("debug")
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	if logger == nil {
		t.Fatal("expected a non-nil logger")
	}
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	if _, err := newLogger("not-a-level"); err == nil {
		t.Fatal("expected an error for an invalid log level")
	}
}

// newTestFlagVars returns a flagVars with every pointer field populated, so
// registerFlags can bind the full CLI surface without hitting a nil pointer.
func newTestFlagVars() *flagVars {
	return &flagVars{
		host:               new(string),
		port:               new(int),
		fd:                 new(int),
		threadsMultiplier:  new(float64),
		maxBlocking:        new(int64),
		root:               new(string),
		page404:            new(string),
		page50x:            new(string),
		pageFallback:       new(string),
		logLevel:           new(string),
		configFile:         new(string),
		gracePeriod:        new(int),
		corsAllowOrigins:   new(string),
		corsAllowHeaders:   new(string),
		corsExposeHeaders:  new(string),
		compression:        new(bool),
		compressionStatic:  new(bool),
		dirListing:         new(bool),
		dirListingOrder:    new(int),
		dirListingFormat:   new(string),
		securityHeaders:    new(bool),
		cacheControlHdrs:   new(bool),
		basicAuth:          new(string),
		logRemoteAddress:   new(bool),
		redirectTrailSlash: new(bool),
		ignoreHiddenFiles:  new(bool),
		httpsRedirect:      new(bool),
		httpsRedirectHost:  new(string),
		httpsRedirectPort:  new(int),
		httpsRedirectHosts: new(string),
	}
}

func TestRegisterFlagsDefaults(t *testing.T) {
	v := newTestFlagVars()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	registerFlags(fs, v)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if *v.host != "0.0.0.0" {
		t.Fatalf("host default = %q", *v.host)
	}
	if *v.port != 8080 {
		t.Fatalf("port default = %d", *v.port)
	}
	if *v.maxBlocking != 512 {
		t.Fatalf("max-blocking-threads default = %d", *v.maxBlocking)
	}
	if *v.root != "." {
		t.Fatalf("root default = %q", *v.root)
	}
	if *v.logLevel != "info" {
		t.Fatalf("log-level default = %q", *v.logLevel)
	}
	if !*v.compression || !*v.securityHeaders || !*v.cacheControlHdrs {
		t.Fatal("expected compression/security-headers/cache-control-headers to default true")
	}
	if *v.dirListing {
		t.Fatal("expected directory-listing to default false")
	}
	if *v.dirListingFormat != "html" {
		t.Fatalf("directory-listing-format default = %q", *v.dirListingFormat)
	}
}

func TestRegisterFlagsParsesOverrides(t *testing.T) {
	v := newTestFlagVars()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	registerFlags(fs, v)
	if err := fs.Parse([]string{
		"--port=9090", "--root=/srv/www",
		"--compression=false", "--directory-listing", "--fd=3",
		"--https-redirect", "--https-redirect-host=example.com",
	}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if *v.port != 9090 {
		t.Fatalf("port = %d, want 9090", *v.port)
	}
	if *v.root != "/srv/www" {
		t.Fatalf("root = %q, want /srv/www", *v.root)
	}
	if *v.compression {
		t.Fatal("expected compression=false to stick")
	}
	if !*v.dirListing {
		t.Fatal("expected directory-listing to be enabled")
	}
	if *v.fd != 3 {
		t.Fatalf("fd = %d, want 3", *v.fd)
	}
	if !*v.httpsRedirect || *v.httpsRedirectHost != "example.com" {
		t.Fatal("expected https-redirect flags to be parsed")
	}
	if !fs.Changed("port") || !fs.Changed("root") || !fs.Changed("compression") {
		t.Fatal("expected Changed() to report true for explicitly set flags")
	}
	if fs.Changed("page404") {
		t.Fatal("expected Changed() to report false for untouched flags")
	}
}
