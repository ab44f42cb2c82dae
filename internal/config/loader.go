// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from four layers (highest
precedence last):

  1. Built-in defaults (koanf confmap).
  2. Optional `.env` file at `<root>/conf/.env`, exported into the process
     environment.
  3. Optional `conf/intake.yaml`.
  4. Environment variables prefixed `INTAKE_`, where `__` maps to "."
     (e.g., `INTAKE_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, any string value of the form `vault:<mount>/<path>#<key>` is
replaced with the secret it names.  The tree is then unmarshalled into
strongly-typed structs, validated, enriched with the runtime root path, and
cached in an `atomic.Pointer` for lock-free reads.  Configuration is resolved
once at start; nothing re-reads the environment afterwards.

Instrumentation
---------------
  • DEBUG spans – root discovery, YAML read, env overlay, vault refs.
  • ERROR spans – YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  – final "config loaded" with key highlights (never secrets).
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/vault"
)

const (
	envPrefix = "INTAKE_"
	yamlName  = "intake.yaml"
)

var current atomic.Pointer[Config]

// SecretResolver turns a `vault:` reference into its value.
type SecretResolver interface {
	ResolveRef(ctx context.Context, ref string) (string, error)
}

// defaults are the documented fallbacks for every recognized option.
func defaults() map[string]any {
	return map[string]any{
		"app.env":           EnvProduction,
		"app.site_url":      "https://www.findyourlightpsychiatry.org",
		"app.business_name": "Find Your Light Psychiatry PLLC",
		"app.phone":         "(206) 483-7285",

		"http.listen_addr":   ":8080",
		"http.force_https":   false,
		"http.read_timeout":  10 * time.Second,
		"http.write_timeout": 30 * time.Second,
		"http.idle_timeout":  60 * time.Second,

		"intake.max_body_bytes":   int64(1 << 20),
		"intake.max_field_length": 5000,

		"ratelimit.backend":      "memory",
		"ratelimit.limit":        5,
		"ratelimit.window":       15 * time.Minute,
		"ratelimit.redis_prefix": "intake:rl:",

		"mail.from":        "Find Your Light Psychiatry <noreply@findyourlightpsychiatry.org>",
		"mail.practice_to": "contact@findyourlightpsychiatry.org",

		"log.redact": true,

		"otel.enabled":  false,
		"otel.exporter": "stdout",
	}
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves INTAKE_ROOT or climbs directories until conf/intake.yaml
// is found.  Falls back to the working directory.
func rootDir() string {
	if r := os.Getenv("INTAKE_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", yamlName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads every layer, resolves vault references with resolver (nil
// builds a Vault client on demand), validates, and caches Config.
func Load(ctx context.Context, resolver SecretResolver) (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	yamlPath := filepath.Join(root, "conf", yamlName)
	if _, err := os.Stat(yamlPath); err == nil {
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, err
		}
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	// Env overrides: INTAKE_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveRefs(ctx, k, resolver); err != nil {
		zap.S().Errorw("config vault resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if cfg.Log.Dir == "" {
		cfg.Log.Dir = filepath.Join(root, "logs")
	}
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"env", cfg.App.Env,
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"ratelimit", cfg.RateLimit.Backend,
		"mail", cfg.Mail.APIKey != "",
		"sms", cfg.SMS.Enabled(),
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveRefs replaces every `vault:` string in k.
func resolveRefs(ctx context.Context, k *koanf.Koanf, resolver SecretResolver) error {
	var refs []string
	for key, v := range k.All() {
		if s, ok := v.(string); ok && strings.HasPrefix(s, vault.RefPrefix) {
			refs = append(refs, key)
		}
	}
	if len(refs) == 0 {
		return nil
	}
	zap.S().Debugw("config vault refs found", "keys", refs)

	if resolver == nil {
		if os.Getenv("VAULT_ADDR") == "" {
			return errors.New("config has vault references but VAULT_ADDR is not set")
		}
		cli, err := vault.New(ctx, zap.S().Infof)
		if err != nil {
			return err
		}
		resolver = cli
	}

	for _, key := range refs {
		val, err := resolver.ResolveRef(ctx, k.String(key))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Get returns the config cached by the last successful Load.
func Get() *Config { return current.Load() }
