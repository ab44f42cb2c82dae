// internal/config/model.go
//
// Typed configuration model for the intake service.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from four overlay layers:
//
//   • built-in defaults                        – confmap, lowest precedence,
//   • optional `.env`                          – dotenv values,
//   • optional `conf/intake.yaml`              – primary static file,
//   • `INTAKE_`-prefixed environment overrides – highest precedence.
//
// Any string value that begins with `vault:` is resolved through the Vault
// client after unmarshalling, so consumers never see Vault URIs, only plain
// strings.
//
// Validation happens immediately after resolution; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// App section
//

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// App holds site identity and the run mode.
type App struct {
	Env          string `koanf:"env"           validate:"oneof=development production"`
	SiteURL      string `koanf:"site_url"      validate:"required,url"`
	BusinessName string `koanf:"business_name" validate:"required"`
	Phone        string `koanf:"phone"`
}

// Dev reports whether development-only behavior is enabled.
func (a App) Dev() bool { return a.Env == EnvDevelopment }

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gt=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gt=0"`
}

//
// Intake section
//

// Intake holds submission bounds.
type Intake struct {
	MaxBodyBytes   int64  `koanf:"max_body_bytes"   validate:"gt=0"`
	MaxFieldLength int    `koanf:"max_field_length" validate:"gt=0"`
	VocabularyFile string `koanf:"vocabulary_file"`
}

//
// Rate-limit section
//

// RateLimit selects and tunes the limiter backend.
type RateLimit struct {
	Backend     string        `koanf:"backend"      validate:"oneof=memory redis none"`
	Limit       int           `koanf:"limit"        validate:"gt=0"`
	Window      time.Duration `koanf:"window"       validate:"gt=0"`
	RedisAddr   string        `koanf:"redis_addr"   validate:"required_if=Backend redis"`
	RedisPrefix string        `koanf:"redis_prefix"`
}

//
// Mail and SMS sections
//

// Mail configures the Resend transport.  An empty APIKey selects the log
// transport in development and the unconfigured transport otherwise.
type Mail struct {
	APIKey     string `koanf:"api_key"`
	From       string `koanf:"from"        validate:"required"`
	PracticeTo string `koanf:"practice_to" validate:"required,email"`
}

// SMS configures Twilio.  SMS confirmations are enabled only when all three
// values are set.
type SMS struct {
	AccountSID string `koanf:"account_sid"`
	AuthToken  string `koanf:"auth_token"`
	From       string `koanf:"from"`
}

// Enabled reports whether every credential is present.
func (s SMS) Enabled() bool { return s.AccountSID != "" && s.AuthToken != "" && s.From != "" }

//
// Observability sections
//

// Log configures the file logger.
type Log struct {
	Dir    string `koanf:"dir"`
	Redact bool   `koanf:"redact"`
}

// Geo points at an optional GeoLite2-City database.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

// OTel configures tracing.
type OTel struct {
	Enabled  bool   `koanf:"enabled"`
	Exporter string `koanf:"exporter" validate:"oneof=stdout otlp"`
	Endpoint string `koanf:"endpoint"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // INTAKE_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	App       App       `koanf:"app"`
	HTTP      HTTP      `koanf:"http"`
	Intake    Intake    `koanf:"intake"`
	RateLimit RateLimit `koanf:"ratelimit"`
	Mail      Mail      `koanf:"mail"`
	SMS       SMS       `koanf:"sms"`
	Log       Log       `koanf:"log"`
	Geo       Geo       `koanf:"geo"`
	OTel      OTel      `koanf:"otel"`
	Paths     Paths     `koanf:"-"`
}
