// Package ops loads the process configuration: the quickfix settings file,
// venue credentials and harness tuning.
package ops

import (
	"os"
	"strings"
	"time"

	"fixharness/internal/risk"
	"fixharness/internal/session"
	"fixharness/internal/workflow"
	"fixharness/pkg/exception"

	"github.com/joho/godotenv"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

// Keys read from the [DEFAULT] section of the settings file.
const (
	KeyUsername            = "username"
	KeyPassword            = "password"
	KeyPin                 = "pin"
	KeyMarker              = "marker"
	KeySettleInterval      = "harness_settle_interval"
	KeyStepTimeout         = "harness_step_timeout"
	KeyRiskKillSwitch      = "risk_kill_switch"
	KeyRiskMaxOrderQty     = "risk_max_order_qty"
	KeyRiskMaxOrderNotion  = "risk_max_order_notional"
	KeyRiskOrderRateLimit  = "risk_order_rate_limit"
	KeyRiskOrderRateWindow = "risk_order_rate_window"
	KeyJournalDir          = "journal_dir"
	KeySnapshotPath        = "snapshot_path"
	KeyPostgresDSN         = "postgres_dsn"
	KeyPyroscopeServer     = "pyroscope_server"
)

// Environment variables overriding the credentials of the settings file.
const (
	EnvUsername = "FIX_USERNAME"
	EnvPassword = "FIX_PASSWORD"
	EnvPin      = "FIX_PIN"
)

// Config is the resolved process configuration.
type Config struct {
	Settings    *quickfix.Settings
	Credentials session.Credentials
	Workflow    workflow.Config
	Risk        risk.Config

	// Optional collaborators. Empty disables them.
	JournalDir      string
	SnapshotPath    string
	PostgresDSN     string
	PyroscopeServer string
}

// Load parses the quickfix settings at path. When envFile is not empty it is
// loaded into the environment first; FIX_USERNAME, FIX_PASSWORD and FIX_PIN
// take precedence over the settings file.
func Load(path, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, errors.Wrapf(err, "load env file %s", envFile)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "open settings %s", path)
	}
	defer f.Close()

	settings, err := quickfix.ParseSettings(f)
	if err != nil {
		return Config{}, errors.Wrapf(exception.ErrInvalidSetting, "parse settings %s, err: %+v", path, err)
	}
	if len(settings.SessionSettings()) == 0 {
		return Config{}, errors.Wrapf(exception.ErrInvalidSetting, "no session in %s", path)
	}
	return resolve(settings)
}

func resolve(settings *quickfix.Settings) (Config, error) {
	r := reader{s: settings.GlobalSettings()}
	cfg := Config{Settings: settings}

	cfg.Credentials = session.Credentials{
		Username: r.overlay(KeyUsername, EnvUsername),
		Password: r.overlay(KeyPassword, EnvPassword),
		Pin:      r.overlay(KeyPin, EnvPin),
	}
	if cfg.Credentials.Username == "" {
		return Config{}, errors.Wrapf(exception.ErrMissingSetting, "%s or %s", KeyUsername, EnvUsername)
	}
	if cfg.Credentials.Password == "" {
		return Config{}, errors.Wrapf(exception.ErrMissingSetting, "%s or %s", KeyPassword, EnvPassword)
	}

	cfg.Workflow = workflow.Config{
		Marker:         r.str(KeyMarker),
		SettleInterval: r.duration(KeySettleInterval),
		StepTimeout:    r.duration(KeyStepTimeout),
	}
	if cfg.Workflow.Marker == "" {
		cfg.Workflow.Marker = session.DefaultMarker
	}

	cfg.Risk = risk.Config{
		KillSwitch:       r.boolean(KeyRiskKillSwitch),
		MaxOrderQty:      r.decimal(KeyRiskMaxOrderQty),
		MaxOrderNotional: r.decimal(KeyRiskMaxOrderNotion),
		OrderRateLimit:   r.integer(KeyRiskOrderRateLimit),
		OrderRateWindow:  r.duration(KeyRiskOrderRateWindow),
	}

	cfg.JournalDir = r.str(KeyJournalDir)
	cfg.SnapshotPath = r.str(KeySnapshotPath)
	cfg.PostgresDSN = r.str(KeyPostgresDSN)
	cfg.PyroscopeServer = r.str(KeyPyroscopeServer)

	if r.err != nil {
		return Config{}, r.err
	}
	return cfg, nil
}

// reader keeps the first error so optional keys can be read in sequence.
type reader struct {
	s   *quickfix.SessionSettings
	err error
}

func (r *reader) str(key string) string {
	if !r.s.HasSetting(key) {
		return ""
	}
	v, err := r.s.Setting(key)
	if err != nil {
		r.fail(key, err)
		return ""
	}
	return strings.TrimSpace(v)
}

func (r *reader) overlay(key, env string) string {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		return v
	}
	return r.str(key)
}

func (r *reader) duration(key string) time.Duration {
	if !r.s.HasSetting(key) {
		return 0
	}
	d, err := r.s.DurationSetting(key)
	if err != nil {
		r.fail(key, err)
	}
	return d
}

func (r *reader) integer(key string) int {
	if !r.s.HasSetting(key) {
		return 0
	}
	n, err := r.s.IntSetting(key)
	if err != nil {
		r.fail(key, err)
	}
	return n
}

func (r *reader) boolean(key string) bool {
	if !r.s.HasSetting(key) {
		return false
	}
	b, err := r.s.BoolSetting(key)
	if err != nil {
		r.fail(key, err)
	}
	return b
}

func (r *reader) decimal(key string) decimal.Decimal {
	v := r.str(key)
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		r.fail(key, err)
		return decimal.Zero
	}
	return d
}

func (r *reader) fail(key string, err error) {
	if r.err == nil {
		r.err = errors.Wrapf(exception.ErrInvalidSetting, "%s, err: %+v", key, err)
	}
}
