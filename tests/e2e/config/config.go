package config

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/netology-qa/card-delivery-e2e/internal/logging"
)

// TestConfig holds all configuration for E2E tests
type TestConfig struct {
	BaseURL             string        `mapstructure:"base_url"`
	Browser             string        `mapstructure:"browser"`
	Headless            bool          `mapstructure:"headless"`
	SlowMo              int           `mapstructure:"slow_mo"` // milliseconds
	Timeout             time.Duration `mapstructure:"timeout"`
	NotificationTimeout time.Duration `mapstructure:"notification_timeout"`
	AssertTimeout       time.Duration `mapstructure:"assert_timeout"`
	Screenshots         bool          `mapstructure:"screenshots"`
	Videos              bool          `mapstructure:"videos"`
	ArtifactsDir        string        `mapstructure:"artifacts_dir"`
	HoldBrowserOpen     bool          `mapstructure:"hold_browser_open"`
	Autodetect          bool          `mapstructure:"baseurl_autodetect"`
	LogLevel            string        `mapstructure:"log_level"`
}

// Browsers Playwright can drive.
var Browsers = []string{"chromium", "firefox", "webkit"}

const envPrefix = "DELIVERY_E2E"

// legacyEnv maps the unprefixed variables used by the suite's Makefile and
// CI jobs onto config keys.
var legacyEnv = map[string]string{
	"base_url":           "BASE_URL",
	"headless":           "HEADLESS",
	"slow_mo":            "SLOW_MO",
	"screenshots":        "SCREENSHOTS",
	"videos":             "VIDEOS",
	"browser":            "BROWSER",
	"baseurl_autodetect": "E2E_BASEURL_AUTODETECT",
	"log_level":          "LOG_LEVEL",
}

var (
	loadOnce sync.Once
	cached   *TestConfig
	loadErr  error
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "http://localhost:9999")
	v.SetDefault("browser", "chromium")
	v.SetDefault("headless", true)
	v.SetDefault("slow_mo", 0)
	v.SetDefault("timeout", "30s")
	v.SetDefault("notification_timeout", "15s")
	v.SetDefault("assert_timeout", "4s")
	v.SetDefault("screenshots", true)
	v.SetDefault("videos", false)
	v.SetDefault("artifacts_dir", "./test-results")
	v.SetDefault("hold_browser_open", false)
	v.SetDefault("baseurl_autodetect", true)
	v.SetDefault("log_level", "info")
}

// Load reads configuration without caching: .env first (existing
// environment variables win), then the optional e2e.yaml in configDirs,
// then environment variables.
func Load(configDirs ...string) (*TestConfig, error) {
	// godotenv.Load never overrides variables that are already set.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("e2e")
	v.SetConfigType("yaml")
	for _, dir := range configDirs {
		v.AddConfigPath(dir)
	}
	if len(configDirs) > 0 {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read e2e config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(key), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	cfg := &TestConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal e2e config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside Playwright.
func (c *TestConfig) Validate() error {
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url %q: %w", c.BaseURL, err)
	}
	known := false
	for _, b := range Browsers {
		if c.Browser == b {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unsupported browser %q (want one of %s)", c.Browser, strings.Join(Browsers, ", "))
	}
	if c.NotificationTimeout <= 0 || c.AssertTimeout <= 0 || c.Timeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// GetConfig returns the test configuration from environment variables.
// A configuration that fails to load is logged and replaced by the
// defaults; LoadError reports it so a test can fail cleanly.
func GetConfig() *TestConfig {
	loadOnce.Do(func() {
		l := logging.For("e2e-config")
		cached, loadErr = Load(".")
		if loadErr != nil {
			l.Error().Err(loadErr).Msg("invalid e2e config, using defaults")
			cached = Defaults()
		}
		cached.ResolveBaseURL()
		l.Info().Str("base_url", cached.BaseURL).Str("browser", cached.Browser).Bool("headless", cached.Headless).Msg("resolved config")
	})
	return cached
}

// LoadError is the error GetConfig fell back from, if any.
func LoadError() error {
	GetConfig()
	return loadErr
}

// Defaults is the configuration with no file or environment applied.
func Defaults() *TestConfig {
	v := viper.New()
	setDefaults(v)
	cfg := &TestConfig{}
	// Defaults are literals of the right types; decoding cannot fail.
	_ = v.Unmarshal(cfg)
	return cfg
}

// ResolveBaseURL switches BaseURL to a reachable loopback alias when
// autodetection is enabled.
func (c *TestConfig) ResolveBaseURL() {
	if c.Autodetect {
		c.BaseURL = detectReachableBaseURL(c.BaseURL)
	}
}

func detectReachableBaseURL(initial string) string {
	l := logging.For("e2e-config")
	start := time.Now()
	if reachable(initial) {
		return initial
	}

	u, err := url.Parse(initial)
	if err != nil {
		return initial
	}
	port := u.Port()
	if port == "" {
		port = "9999"
	}
	candidates := []string{}
	for _, host := range []string{"localhost", "127.0.0.1", "host.docker.internal"} {
		c := u.Scheme + "://" + net.JoinHostPort(host, port)
		if c != initial {
			candidates = append(candidates, c)
		}
	}

	for _, c := range candidates {
		if reachable(c) {
			l.Info().Str("from", initial).Str("to", c).Dur("took", time.Since(start)).Msg("auto-detect switched base URL")
			return c
		}
	}
	l.Warn().Str("base_url", initial).Strs("tried", candidates).Msg("auto-detect found no reachable candidate")
	return initial
}

func reachable(base string) bool {
	u, err := url.Parse(base)
	if err != nil {
		return false
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "80")
	}
	d := net.Dialer{Timeout: 250 * time.Millisecond}
	conn, err := d.Dial("tcp", host)
	if err != nil {
		return false
	}
	_ = conn.Close()

	client := &http.Client{Timeout: 800 * time.Millisecond}
	resp, err := client.Get(base)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}
