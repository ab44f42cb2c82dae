// cmd/web/main.go
//
// Patient intake service – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load configuration (defaults → .env → conf/intake.yaml → INTAKE_ env,
//     then vault references).
//
//  2. Start the daily rotating logger (tees to console when running in a TTY).
//
//  3. Install tracing and the optional GeoIP database.
//
//  4. Build the intake collaborators:
//
//     • schema            – vocabulary (embedded or override file) + bounds
//     • rate limiter      – memory, redis, or none
//     • policy gate       – content type, origin, rate, size, honeypot
//     • dispatcher        – Resend (or log/unconfigured) + optional Twilio
//
//  5. Init every registered component and mount its routes.
//
//  6. Expose Prometheus /metrics, wrap the router with security headers and
//     the HTTPS redirect, and serve until SIGINT or SIGTERM.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/component"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/config"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/intake"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/logger"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/middleware"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/notify"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/observability"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/policy"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/ratelimit"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/requestinfo"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/server"

	_ "github.com/ShadyEe10/findyourlightpsychiatry/components/contact"
)

const shutdownGrace = 15 * time.Second

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("intake: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx, nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logOut, err := logger.New(logger.Options{
		Dir:    cfg.Log.Dir,
		Tee:    runningInTTY(),
		Redact: cfg.Log.Redact,
		Debug:  cfg.App.Dev(),
	})
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 1.  Tracing and GeoIP ───────────────────────────────────────────
	//
	shutdownTracing, err := observability.Init(ctx, observability.Options{
		Enabled:     cfg.OTel.Enabled,
		Exporter:    cfg.OTel.Exporter,
		Endpoint:    cfg.OTel.Endpoint,
		Service:     "intake",
		Environment: cfg.App.Env,
	}, logOut)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logOut.Warnw("tracing shutdown", "err", err)
		}
	}()

	if cfg.Geo.DBPath != "" {
		if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
			logOut.Warnw("geoip disabled", "path", cfg.Geo.DBPath, "err", err)
		} else {
			defer func() { _ = requestinfo.CloseGeo() }()
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	//
	// ── 2.  Intake collaborators ────────────────────────────────────────
	//
	schema, err := buildSchema(cfg)
	if err != nil {
		return err
	}

	limiter, closeLimiter, err := buildLimiter(gctx, g, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	gate, err := policy.New(policy.Options{
		Production:   !cfg.App.Dev(),
		SiteURL:      cfg.App.SiteURL,
		Limiter:      limiter,
		MaxBodyBytes: cfg.Intake.MaxBodyBytes,
		Log:          logOut,
	})
	if err != nil {
		return fmt.Errorf("policy gate: %w", err)
	}

	dispatcher, err := buildDispatcher(cfg, logOut)
	if err != nil {
		return err
	}

	deps := component.Deps{
		Dev:        cfg.App.Dev(),
		Schema:     schema,
		Gate:       gate,
		Dispatcher: dispatcher,
		Log:        logOut,
	}

	//
	// ── 3.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog(logOut))
	r.Use(requestinfo.Enrich)
	r.Use(middleware.Security)
	r.Handle("/metrics", promhttp.Handler())

	for _, c := range component.All() {
		if err := c.Init(deps); err != nil {
			return fmt.Errorf("component %s: %w", c.Name(), err)
		}
		r.Mount("/", c.Routes())
		logOut.Infow("component mounted", "component", c.Name())
	}

	srv := server.New(cfg.HTTP.ListenAddr, middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS, r), server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	//
	// ── 4.  Serve until a signal arrives ────────────────────────────────
	//
	g.Go(func() error {
		logOut.Infow("listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		logOut.Infow("shutting down")
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}

// buildSchema loads the vocabulary override when configured.
func buildSchema(cfg *config.Config) (*intake.Schema, error) {
	opt := intake.WithMaxFieldLength(cfg.Intake.MaxFieldLength)
	if cfg.Intake.VocabularyFile == "" {
		return intake.DefaultSchema(opt), nil
	}
	v, err := intake.LoadVocabulary(cfg.Intake.VocabularyFile)
	if err != nil {
		return nil, err
	}
	return intake.NewSchema(v, opt), nil
}

// buildLimiter returns the configured backend and a release func.  The
// memory sweeper runs inside g.
func buildLimiter(ctx context.Context, g *errgroup.Group, cfg *config.Config) (ratelimit.Limiter, func(), error) {
	p := ratelimit.Policy{Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window}

	switch cfg.RateLimit.Backend {
	case "none":
		return nil, func() {}, nil
	case "redis":
		rdb, err := ratelimit.Dial(ctx, cfg.RateLimit.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		store, err := ratelimit.NewRedisStore(rdb, cfg.RateLimit.RedisPrefix, p)
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return store, func() { _ = rdb.Close() }, nil
	default:
		store, err := ratelimit.NewMemoryStore(p)
		if err != nil {
			return nil, nil, err
		}
		g.Go(func() error { return store.Run(ctx) })
		return store, func() {}, nil
	}
}

// buildDispatcher picks the mail and SMS transports.
func buildDispatcher(cfg *config.Config, logOut *zap.SugaredLogger) (*notify.Notifier, error) {
	var mailer notify.Mailer
	switch {
	case cfg.Mail.APIKey != "":
		m, err := notify.NewResendMailer(cfg.Mail.APIKey)
		if err != nil {
			return nil, err
		}
		mailer = m
	case cfg.App.Dev():
		mailer = notify.LogMailer{Log: logOut}
	default:
		logOut.Warnw("mail transport not configured; submissions will fail")
		mailer = notify.Unconfigured{}
	}

	var texter notify.Texter
	if cfg.SMS.Enabled() {
		t, err := notify.NewTwilioTexter(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.From)
		if err != nil {
			return nil, err
		}
		texter = t
	}

	return notify.New(notify.Options{
		Mailer:     mailer,
		Texter:     texter,
		From:       cfg.Mail.From,
		PracticeTo: cfg.Mail.PracticeTo,
		Business:   cfg.App.BusinessName,
		SiteURL:    cfg.App.SiteURL,
		Phone:      cfg.App.Phone,
		Log:        logOut,
	})
}
