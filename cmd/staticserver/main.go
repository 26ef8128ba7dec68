// Command staticserver is the CLI bootstrap for the static file server
// core in internal/pipeline. Grounded on Caddy's cmd/main.go: a
// cobra root command, pflag-bound flags, go.uber.org/automaxprocs's
// maxprocs.Set and KimMachineGun/automemlimit's memlimit.SetGoMemLimitWithOpts
// to size GOMAXPROCS/GOMEMLIMIT from the cgroup quota, and a zap
// logger constructed up front and threaded through everything that logs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/semaphore"

	"github.com/caddyserver/staticweb/internal/fsys"
	"github.com/caddyserver/staticweb/internal/pipeline"
	"github.com/caddyserver/staticweb/internal/requestlog"
	"github.com/caddyserver/staticweb/internal/settings"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		host               string
		port               int
		fd                 int
		threadsMultiplier  float64
		root               string
		page404            string
		page50x            string
		pageFallback       string
		logLevel           string
		configFile         string
		gracePeriod        int
		ioLimiterWeight    int64
		corsAllowOrigins   string
		corsAllowHeaders   string
		corsExposeHeaders  string
		compression        bool
		compressionStatic  bool
		dirListing         bool
		dirListingOrder    int
		dirListingFormat   string
		securityHeaders    bool
		cacheControlHdrs   bool
		basicAuth          string
		logRemoteAddress   bool
		redirectTrailSlash bool
		ignoreHiddenFiles  bool
		httpsRedirect      bool
		httpsRedirectHost  string
		httpsRedirectPort  int
		httpsRedirectHosts string
	)

	cmd := &cobra.Command{
		Use:   "staticserver",
		Short: "Serve a directory of static files over HTTP",
		Long: `staticserver answers HTTP/1.1 and HTTP/2 requests by mapping URL
paths to files within a configured root directory, applying content
negotiation, conditional/range semantics, directory listing, and
header policy along the way.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := settings.Flags{
				Set:                    map[string]bool{},
				Root:                   root,
				Page404:                page404,
				Page50x:                page50x,
				Fallback:               pageFallback,
				CORSAllowOrigins:       corsAllowOrigins,
				CORSAllowHeaders:       corsAllowHeaders,
				CORSExposeHeaders:      corsExposeHeaders,
				Compression:            compression,
				CompressionStatic:      compressionStatic,
				DirectoryListing:       dirListing,
				DirectoryListingOrder:  dirListingOrder,
				DirectoryListingFormat: dirListingFormat,
				SecurityHeaders:        securityHeaders,
				CacheControlHeaders:    cacheControlHdrs,
				BasicAuth:              basicAuth,
				LogRemoteAddress:       logRemoteAddress,
				RedirectTrailingSlash:  redirectTrailSlash,
				IgnoreHiddenFiles:      ignoreHiddenFiles,
				HTTPSRedirect:          httpsRedirect,
				HTTPSRedirectHost:      httpsRedirectHost,
				HTTPSRedirectFromPort:  httpsRedirectPort,
				HTTPSRedirectFromHosts: httpsRedirectHosts,
			}
			for _, name := range []string{
				"root", "page404", "page50x", "page-fallback",
				"cors-allow-origins", "cors-allow-headers", "cors-expose-headers",
				"compression", "compression-static",
				"directory-listing", "directory-listing-order", "directory-listing-format",
				"security-headers", "cache-control-headers", "basic-auth",
				"log-remote-address", "redirect-trailing-slash", "ignore-hidden-files",
				"https-redirect", "https-redirect-host", "https-redirect-from-port", "https-redirect-from-hosts",
			} {
				if cmd.Flags().Changed(name) {
					flags.Set[name] = true
				}
			}

			cfg, err := settings.Load(configFile, flags)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if gracePeriod > 0 {
				cfg.GracePeriod = time.Duration(gracePeriod) * time.Second
				cfg.Clamp()
			}

			logger, err := newLogger(logLevel)
			if err != nil {
				return fmt.Errorf("constructing logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			undo, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Infof))
			if err != nil {
				logger.Warn("failed to set GOMAXPROCS from cgroup quota", zap.Error(err))
			}
			defer undo()

			if threadsMultiplier > 0 {
				runtime.GOMAXPROCS(int(float64(runtime.GOMAXPROCS(0)) * threadsMultiplier))
			}

			_, err = memlimit.SetGoMemLimitWithOpts(
				memlimit.WithLogger(slog.New(zapslog.NewHandler(logger.Core()))),
				memlimit.WithProvider(
					memlimit.ApplyFallback(
						memlimit.FromCgroup,
						memlimit.FromSystem,
					),
				),
			)
			if err != nil {
				logger.Warn("failed to set GOMEMLIMIT from cgroup quota", zap.Error(err))
			}

			filesystem, err := fsys.NewOS(cfg.Root)
			if err != nil {
				return fmt.Errorf("opening root %q: %w", cfg.Root, err)
			}

			srv := &pipeline.Server{
				Settings:  cfg,
				FS:        filesystem,
				Log:       requestlog.New(logger, cfg.LogRemoteAddress),
				Draining:  new(atomic.Bool),
				IOLimiter: semaphore.NewWeighted(ioLimiterWeight),
			}

			var listener net.Listener
			if fd > 0 {
				listener, err = net.FileListener(os.NewFile(uintptr(fd), "staticserver-listener"))
				if err != nil {
					return fmt.Errorf("using inherited file descriptor %d: %w", fd, err)
				}
			}

			httpServer := &http.Server{
				Addr:    net.JoinHostPort(host, strconv.Itoa(port)),
				Handler: srv,
				ConnContext: func(ctx context.Context, c net.Conn) context.Context {
					if addr, ok := c.LocalAddr().(*net.TCPAddr); ok {
						return pipeline.WithLocalPort(ctx, addr.Port)
					}
					return ctx
				},
			}

			return runServer(cmd.Context(), httpServer, listener, srv, logger, cfg.GracePeriod)
		},
	}

	registerFlags(cmd.Flags(), &flagVars{
		host:               &host,
		port:               &port,
		fd:                 &fd,
		threadsMultiplier:  &threadsMultiplier,
		maxBlocking:        &ioLimiterWeight,
		root:               &root,
		page404:            &page404,
		page50x:            &page50x,
		pageFallback:       &pageFallback,
		logLevel:           &logLevel,
		configFile:         &configFile,
		gracePeriod:        &gracePeriod,
		corsAllowOrigins:   &corsAllowOrigins,
		corsAllowHeaders:   &corsAllowHeaders,
		corsExposeHeaders:  &corsExposeHeaders,
		compression:        &compression,
		compressionStatic:  &compressionStatic,
		dirListing:         &dirListing,
		dirListingOrder:    &dirListingOrder,
		dirListingFormat:   &dirListingFormat,
		securityHeaders:    &securityHeaders,
		cacheControlHdrs:   &cacheControlHdrs,
		basicAuth:          &basicAuth,
		logRemoteAddress:   &logRemoteAddress,
		redirectTrailSlash: &redirectTrailSlash,
		ignoreHiddenFiles:  &ignoreHiddenFiles,
		httpsRedirect:      &httpsRedirect,
		httpsRedirectHost:  &httpsRedirectHost,
		httpsRedirectPort:  &httpsRedirectPort,
		httpsRedirectHosts: &httpsRedirectHosts,
	})

	return cmd
}

// flagVars collects every pointer registerFlags binds, so the full CLI
// surface of §6 (minus --http2, --http2-tls-cert, --http2-tls-key — TLS
// termination and HTTP/2 framing are out of scope per §1's "out of scope"
// list) is declared in one place using github.com/spf13/pflag directly, the
// way Caddy's own cmd package binds flags for its root command.
type flagVars struct {
	host              *string
	port              *int
	fd                *int
	threadsMultiplier *float64
	maxBlocking       *int64
	root              *string
	page404           *string
	page50x           *string
	pageFallback      *string
	logLevel          *string
	configFile        *string
	gracePeriod       *int

	corsAllowOrigins  *string
	corsAllowHeaders  *string
	corsExposeHeaders *string

	compression       *bool
	compressionStatic *bool

	dirListing       *bool
	dirListingOrder  *int
	dirListingFormat *string

	securityHeaders  *bool
	cacheControlHdrs *bool

	basicAuth *string

	logRemoteAddress   *bool
	redirectTrailSlash *bool
	ignoreHiddenFiles  *bool

	httpsRedirect      *bool
	httpsRedirectHost  *string
	httpsRedirectPort  *int
	httpsRedirectHosts *string
}

func registerFlags(fs *pflag.FlagSet, v *flagVars) {
	fs.StringVar(v.host, "host", "0.0.0.0", "address to bind")
	fs.IntVar(v.port, "port", 8080, "port to bind")
	fs.IntVar(v.fd, "fd", 0, "serve on an inherited, already-open file descriptor instead of binding host:port")
	fs.Float64Var(v.threadsMultiplier, "threads-multiplier", 0, "scale GOMAXPROCS (after cgroup-quota sizing) by this factor; 0 disables scaling")
	fs.Int64Var(v.maxBlocking, "max-blocking-threads", 512, "bound on concurrent blocking filesystem operations")
	fs.StringVar(v.root, "root", ".", "root directory to serve")
	fs.StringVar(v.page404, "page404", "", "path (relative to root) of a custom 404 page")
	fs.StringVar(v.page50x, "page50x", "", "path (relative to root) of a custom 50x page")
	fs.StringVar(v.pageFallback, "page-fallback", "", "path (relative to root) of an SPA fallback page")
	fs.StringVar(v.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(v.configFile, "config-file", "", "path to a TOML configuration file")
	fs.IntVar(v.gracePeriod, "grace-period", 0, "graceful shutdown grace period in seconds (max 255)")
	fs.StringVar(v.corsAllowOrigins, "cors-allow-origins", "", "comma-separated list of allowed CORS origins, or \"*\"")
	fs.StringVar(v.corsAllowHeaders, "cors-allow-headers", "", "comma-separated list of allowed CORS request headers")
	fs.StringVar(v.corsExposeHeaders, "cors-expose-headers", "", "comma-separated list of CORS response headers to expose")
	fs.BoolVar(v.compression, "compression", true, "enable on-the-fly response compression")
	fs.BoolVar(v.compressionStatic, "compression-static", false, "prefer precompressed sibling files (.br/.zst/.gz) over on-the-fly encoding")
	fs.BoolVar(v.dirListing, "directory-listing", false, "serve a generated listing for directories without an index file")
	fs.IntVar(v.dirListingOrder, "directory-listing-order", 0, "default directory listing sort order, 0-6")
	fs.StringVar(v.dirListingFormat, "directory-listing-format", "html", "default directory listing format: html or json")
	fs.BoolVar(v.securityHeaders, "security-headers", true, "send HSTS/X-Frame-Options/CSP security headers")
	fs.BoolVar(v.cacheControlHdrs, "cache-control-headers", true, "send Cache-Control headers classified by content type")
	fs.StringVar(v.basicAuth, "basic-auth", "", "\"user:bcrypt-hash\" credential required via HTTP Basic Auth")
	fs.BoolVar(v.logRemoteAddress, "log-remote-address", false, "include the client remote address in request logs")
	fs.BoolVar(v.redirectTrailSlash, "redirect-trailing-slash", true, "redirect directory requests missing a trailing slash")
	fs.BoolVar(v.ignoreHiddenFiles, "ignore-hidden-files", true, "treat dotfiles as not found")
	fs.BoolVar(v.httpsRedirect, "https-redirect", false, "redirect plaintext requests to https")
	fs.StringVar(v.httpsRedirectHost, "https-redirect-host", "", "target host for the https-redirect gate's Location header")
	fs.IntVar(v.httpsRedirectPort, "https-redirect-from-port", 0, "plaintext local port that triggers an https-redirect")
	fs.StringVar(v.httpsRedirectHosts, "https-redirect-from-hosts", "", "comma-separated Host header values that trigger an https-redirect")
	fs.SortFlags = false
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// runServer starts httpServer and blocks until it exits, either from a
// listener error or a graceful shutdown triggered by SIGINT/SIGTERM,
// mirroring Caddy's own "draining" flag + grace-period pattern. A non-nil
// listener (from an inherited --fd) is served directly instead of binding
// httpServer.Addr.
func runServer(ctx context.Context, httpServer *http.Server, listener net.Listener, srv *pipeline.Server, logger *zap.Logger, gracePeriod time.Duration) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if listener != nil {
			logger.Info("server running", zap.String("addr", listener.Addr().String()))
			serveErr <- httpServer.Serve(listener)
			return
		}
		logger.Info("server running", zap.String("addr", httpServer.Addr))
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sigCtx.Done():
	}

	logger.Info("shutdown signal received; draining", zap.Duration("grace_period", gracePeriod))
	srv.Draining.Store(true)

	shutdownCtx := context.Background()
	var cancel context.CancelFunc
	if gracePeriod > 0 {
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, gracePeriod)
		defer cancel()
	}
	return httpServer.Shutdown(shutdownCtx)
}
