// internal/policy/gate.go
//
// Intake – request policy gate.
//
// Context
//   The gate runs before any schema validation.  Checks run cheapest first
//   and each one is a hard reject:
//
//     1. Content-Type must mention application/json.
//     2. Production only: a present Origin or Referer must name the site
//        host, with or without "www.".  Headers that do not parse as URLs
//        are ignored; only a parseable mismatch rejects.
//     3. Per-client rate limit.  The Unknown client key is never limited
//        (it is counted instead).  A limiter failure lets the request
//        through and is logged.
//     4. Declared and actual body size are bounded.
//     5. The body must decode as a JSON object.
//     6. A non-empty honeypot marks the verdict Trapped.  The caller answers
//        with an ordinary success and does nothing else.
//
//   Check performs no side effects besides consuming one rate-limit unit.
//
//------------------------------------------------------------------------------

package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/intake"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/metrics"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/ratelimit"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/requestinfo"
)

// DefaultMaxBodyBytes bounds submission bodies when Options leaves it zero.
const DefaultMaxBodyBytes = 1 << 20

// Options configures a Gate.
type Options struct {
	Production   bool
	SiteURL      string
	Limiter      ratelimit.Limiter // nil disables rate limiting
	MaxBodyBytes int64
	Log          *zap.SugaredLogger
}

// Gate holds the resolved policy.  Safe for concurrent use.
type Gate struct {
	production bool
	hosts      []string
	limiter    ratelimit.Limiter
	maxBody    int64
	log        *zap.SugaredLogger
}

// Verdict is the result of a passing Check.
type Verdict struct {
	Body     intake.Raw
	ClientIP string
	Trapped  bool
}

// New resolves opts into a Gate.
func New(opts Options) (*Gate, error) {
	g := &Gate{
		production: opts.Production,
		limiter:    opts.Limiter,
		maxBody:    opts.MaxBodyBytes,
		log:        opts.Log,
	}
	if g.maxBody <= 0 {
		g.maxBody = DefaultMaxBodyBytes
	}
	if g.log == nil {
		g.log = zap.S()
	}

	u, err := url.Parse(opts.SiteURL)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("policy: site URL %q has no host", opts.SiteURL)
	}
	host := strings.ToLower(u.Hostname())
	base := strings.TrimPrefix(host, "www.")
	g.hosts = []string{host, base, "www." + base}
	return g, nil
}

// Check applies every policy in order.  A failure is always a *Rejection.
func (g *Gate) Check(r *http.Request) (Verdict, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return Verdict{}, g.count(rejContentType())
	}

	if g.production {
		if err := g.checkOrigin(r); err != nil {
			return Verdict{}, err
		}
	}

	ip := clientKey(r)
	if err := g.checkRate(r, ip); err != nil {
		return Verdict{}, err
	}

	if r.ContentLength > g.maxBody {
		return Verdict{}, g.count(rejTooLarge())
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, g.maxBody+1))
	if err != nil {
		return Verdict{}, g.count(rejMalformed(err))
	}
	if int64(len(raw)) > g.maxBody {
		return Verdict{}, g.count(rejTooLarge())
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Verdict{}, g.count(rejEmpty())
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Verdict{}, g.count(rejMalformed(err))
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return Verdict{}, g.count(rejNotObject())
	}

	body := intake.Raw(obj)
	return Verdict{Body: body, ClientIP: ip, Trapped: trapped(body)}, nil
}

func (g *Gate) checkOrigin(r *http.Request) error {
	origin := r.Header.Get("Origin")
	referer := r.Header.Get("Referer")

	mismatch := false
	for _, h := range []string{origin, referer} {
		host, ok := headerHost(h)
		if !ok {
			continue
		}
		if g.allowedHost(host) {
			return nil
		}
		mismatch = true
	}
	if mismatch {
		g.log.Warnw("origin rejected", "origin", origin, "referer", referer)
		return g.count(rejOrigin())
	}
	return nil
}

func (g *Gate) checkRate(r *http.Request, ip string) error {
	if g.limiter == nil {
		return nil
	}
	if ip == requestinfo.Unknown {
		metrics.RateLimitUnknownSourceTotal.Inc()
		return nil
	}
	allowed, err := g.limiter.CheckAndConsume(r.Context(), ip)
	if err != nil {
		metrics.RateLimitErrorsTotal.Inc()
		g.log.Errorw("rate limiter failed, allowing request", "err", err)
		return nil
	}
	if !allowed {
		g.log.Warnw("rate limit exceeded", "ip", ip)
		return g.count(rejRateLimited())
	}
	return nil
}

func (g *Gate) allowedHost(h string) bool {
	h = strings.ToLower(h)
	for _, ok := range g.hosts {
		if h == ok {
			return true
		}
	}
	return false
}

func (g *Gate) count(rej *Rejection) *Rejection {
	metrics.GateRejectionsTotal.WithLabelValues(rej.Reason).Inc()
	return rej
}

// headerHost extracts the hostname of an Origin or Referer value.
func headerHost(v string) (string, bool) {
	if v == "" {
		return "", false
	}
	u, err := url.Parse(v)
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	return u.Hostname(), true
}

func clientKey(r *http.Request) string {
	if info := requestinfo.FromContext(r.Context()); info != nil {
		return info.ClientIP
	}
	return requestinfo.ClientIP(r)
}

func trapped(body intake.Raw) bool {
	switch v := body[intake.HoneypotField].(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return body.Flag(intake.HoneypotField)
	}
}
