// Package config builds the runtime configuration from flags, an optional
// YAML file and the environment.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/bsprice/internal/domain"
	"github.com/vadiminshakov/bsprice/internal/services/market"
	"github.com/vadiminshakov/bsprice/internal/storage/quotes"
)

const (
	defaultAddr     = ":8080"
	defaultInterval = "1h"
	defaultLookback = 720 // 30 days of hourly candles
	defaultRetries  = 3
)

// Config is the runtime configuration.
type Config struct {
	Serve   bool
	Plain   bool
	Verbose bool

	Addr        string
	TLSDomains  []string
	TLSCacheDir string

	WALDir    string
	NoHistory bool

	// Precision is the number of decimals printed; negative prints full precision.
	Precision     int
	PromptRetries int

	// Defaults prefill prompted inputs, keyed by field name (spot, strike, rate, ...).
	Defaults map[string]float64

	Platform string
	Pair     *domain.Pair
	Interval string
	Lookback int
	Retries  int

	Credentials market.Credentials
}

// ConfigTmp is the YAML file layout.
type ConfigTmp struct {
	Addr          string             `yaml:"addr,omitempty"`
	TLSDomains    []string           `yaml:"tls_domains,omitempty"`
	TLSCacheDir   string             `yaml:"tls_cache_dir,omitempty"`
	WALDir        string             `yaml:"wal_dir,omitempty"`
	NoHistory     bool               `yaml:"no_history,omitempty"`
	Precision     *int               `yaml:"precision,omitempty"`
	PromptRetries int                `yaml:"prompt_retries,omitempty"`
	Defaults      map[string]float64 `yaml:"defaults,omitempty"`
	Platform      string             `yaml:"platform,omitempty"`
	Pair          string             `yaml:"pair,omitempty"`
	Interval      string             `yaml:"interval,omitempty"`
	Lookback      int                `yaml:"lookback,omitempty"`
	Retries       *int               `yaml:"retries,omitempty"`
}

var defaultFields = map[string]bool{
	"spot": true, "strike": true, "rate": true, "time_to_maturity": true, "volatility": true,
}

// Get parses os.Args and the environment. A .env file in the working
// directory is loaded first if present.
func Get() (Config, error) {
	_ = godotenv.Load()
	return Parse(os.Args[1:], os.Getenv)
}

// Parse builds a Config from command line args and an environment lookup.
// Flags set explicitly win over the YAML file.
func Parse(args []string, getenv func(string) string) (Config, error) {
	fs := flag.NewFlagSet("bsprice", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configPath := fs.String("config", "", "path to yaml config")
	serve := fs.Bool("serve", false, "run the HTTP API instead of prompting")
	plain := fs.Bool("plain", false, "use plain line prompts even on a terminal")
	verbose := fs.Bool("verbose", false, "log to stderr in interactive mode")
	addr := fs.String("addr", defaultAddr, "HTTP listen address")
	tlsDomains := fs.String("tls-domains", "", "comma separated domains for automatic TLS")
	tlsCache := fs.String("tls-cache-dir", "", "certificate cache dir for automatic TLS")
	walDir := fs.String("wal-dir", quotes.DefaultDir, "quote history directory")
	noHistory := fs.Bool("no-history", false, "do not record quotes")
	precision := fs.Int("precision", -1, "decimals to print, negative for full precision")
	promptRetries := fs.Int("prompt-retries", 0, "re-prompt a malformed value this many times")
	rate := fs.Float64("rate", 0, "default risk-free rate")
	platform := fs.String("platform", "", "exchange for market inputs: "+strings.Join(market.Platforms, ", "))
	pair := fs.String("pair", "", "trade pair for market inputs, example: BTC_USDT")
	interval := fs.String("interval", defaultInterval, "candle interval for realized volatility")
	lookback := fs.Int("lookback", defaultLookback, "number of candles for realized volatility")
	retries := fs.Int("retries", defaultRetries, "retries for market data requests")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Serve:         *serve,
		Plain:         *plain,
		Verbose:       *verbose,
		Addr:          *addr,
		TLSCacheDir:   *tlsCache,
		WALDir:        *walDir,
		NoHistory:     *noHistory,
		Precision:     *precision,
		PromptRetries: *promptRetries,
		Defaults:      map[string]float64{},
		Platform:      *platform,
		Interval:      *interval,
		Lookback:      *lookback,
		Retries:       *retries,
	}
	pairStr := *pair

	lookbackSet := isSet(fs, "lookback")
	if *configPath != "" {
		tmp, err := readYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
		explicit := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		applyYaml(&cfg, &pairStr, tmp, explicit)
		lookbackSet = lookbackSet || tmp.Lookback != 0
	}

	if *tlsDomains != "" {
		cfg.TLSDomains = splitList(*tlsDomains)
	}
	if isSet(fs, "rate") {
		cfg.Defaults["rate"] = *rate
	}

	if pairStr != "" {
		p, err := domain.ParsePair(pairStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid --pair provided, --pair=%s: %w", pairStr, err)
		}
		cfg.Pair = &p
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if err := cfg.fitLookback(lookbackSet); err != nil {
		return Config{}, err
	}

	cfg.Credentials = market.Credentials{
		BinanceAPIKey:         getenv("BINANCE_API_KEY"),
		BinanceAPISecret:      getenv("BINANCE_API_SECRET"),
		BybitAPIKey:           getenv("BYBIT_API_KEY"),
		BybitAPISecret:        getenv("BYBIT_API_SECRET"),
		HyperliquidPrivateKey: getenv("HYPERLIQUID_PRIVATE_KEY"),
		HyperliquidAPIURL:     getenv("HYPERLIQUID_API_URL"),
	}

	return cfg, nil
}

// MarketAssisted reports whether live market inputs were requested.
func (c Config) MarketAssisted() bool {
	return c.Platform != "" && c.Pair != nil
}

func (c Config) validate() error {
	if (c.Platform == "") != (c.Pair == nil) {
		return fmt.Errorf("--platform and --pair must be used together")
	}
	if c.Lookback < 3 {
		return fmt.Errorf("invalid --lookback provided, --lookback=%d (min 3)", c.Lookback)
	}
	if _, err := market.ParseInterval(c.Interval); err != nil {
		return fmt.Errorf("invalid --interval provided: %w", err)
	}
	if c.Retries < 0 || c.PromptRetries < 0 {
		return fmt.Errorf("retry counts must not be negative")
	}
	for name := range c.Defaults {
		if !defaultFields[name] {
			return fmt.Errorf("unknown default %q in config", name)
		}
	}
	return nil
}

// fitLookback keeps the lookback within one kline request of the platform.
// The default is lowered to the platform maximum; an explicit value above it
// is an error.
func (c *Config) fitLookback(explicit bool) error {
	if c.Platform == "" {
		return nil
	}
	maxLookback := market.MaxCandles(c.Platform)
	if maxLookback == 0 {
		return fmt.Errorf("invalid --platform provided, --platform=%s (supported: %s)",
			c.Platform, strings.Join(market.Platforms, ", "))
	}
	if c.Lookback <= maxLookback {
		return nil
	}
	if explicit {
		return fmt.Errorf("invalid --lookback provided, --lookback=%d (max %d for %s)", c.Lookback, maxLookback, c.Platform)
	}
	c.Lookback = maxLookback
	return nil
}

func readYaml(path string) (ConfigTmp, error) {
	var tmp ConfigTmp

	f, err := os.ReadFile(path)
	if err != nil {
		return tmp, err
	}
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return tmp, fmt.Errorf("incorrect yaml config %s: %w", path, err)
	}
	return tmp, nil
}

func applyYaml(cfg *Config, pair *string, tmp ConfigTmp, explicit map[string]bool) {
	if tmp.Addr != "" && !explicit["addr"] {
		cfg.Addr = tmp.Addr
	}
	if len(tmp.TLSDomains) > 0 && !explicit["tls-domains"] {
		cfg.TLSDomains = tmp.TLSDomains
	}
	if tmp.TLSCacheDir != "" && !explicit["tls-cache-dir"] {
		cfg.TLSCacheDir = tmp.TLSCacheDir
	}
	if tmp.WALDir != "" && !explicit["wal-dir"] {
		cfg.WALDir = tmp.WALDir
	}
	if tmp.NoHistory && !explicit["no-history"] {
		cfg.NoHistory = true
	}
	if tmp.Precision != nil && !explicit["precision"] {
		cfg.Precision = *tmp.Precision
	}
	if tmp.PromptRetries != 0 && !explicit["prompt-retries"] {
		cfg.PromptRetries = tmp.PromptRetries
	}
	for name, v := range tmp.Defaults {
		cfg.Defaults[name] = v
	}
	if tmp.Platform != "" && !explicit["platform"] {
		cfg.Platform = tmp.Platform
	}
	if tmp.Pair != "" && !explicit["pair"] {
		*pair = tmp.Pair
	}
	if tmp.Interval != "" && !explicit["interval"] {
		cfg.Interval = tmp.Interval
	}
	if tmp.Lookback != 0 && !explicit["lookback"] {
		cfg.Lookback = tmp.Lookback
	}
	if tmp.Retries != nil && !explicit["retries"] {
		cfg.Retries = *tmp.Retries
	}
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
