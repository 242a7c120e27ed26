// Package config loads the stocks.yaml configuration: broker
// credentials, the instrument universe, strategy and scan settings.
// Credentials can be overridden from the environment so secrets stay
// out of the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anil-lina/techbot/internal/backtest"
	"github.com/anil-lina/techbot/internal/indicator"
	"github.com/anil-lina/techbot/internal/scanner"
	"github.com/anil-lina/techbot/internal/strategy"
	"github.com/anil-lina/techbot/pkg/noren"
)

// Creds holds the Shoonya login credentials.
type Creds struct {
	User       string `yaml:"user"`
	Password   string `yaml:"pwd"`
	VendorCode string `yaml:"vc"`
	APIKey     string `yaml:"apikey"`
	IMEI       string `yaml:"imei"`
	TOTPSecret string `yaml:"totp_secret"`
}

// Instrument pairs an NSE trading symbol with the NFO root its option
// chain is searched under.
type Instrument struct {
	Name         string `yaml:"name"`
	OptionSymbol string `yaml:"option_symbol"`
}

// UnmarshalYAML accepts both the legacy pair form
// `- [RELIANCE-EQ, RELIANCE]` and the mapping form
// `- {name: RELIANCE-EQ, option_symbol: RELIANCE}`.
func (i *Instrument) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var pair []string
		if err := node.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("instrument pair must have 2 elements, got %d", len(pair))
		}
		i.Name, i.OptionSymbol = pair[0], pair[1]
		return nil
	}

	type plain Instrument
	return node.Decode((*plain)(i))
}

// StrategySettings selects the strategy variant and its parameters.
type StrategySettings struct {
	Variant         string           `yaml:"variant"`
	Indicators      indicator.Config `yaml:"indicators"`
	StopATRMultiple float64          `yaml:"stop_loss_atr_multiple"`
	RewardMultiple  float64          `yaml:"reward_multiple"`
}

// ScanSettings mirrors scanner.Config with a YAML-friendly delay.
type ScanSettings struct {
	Workers         int  `yaml:"workers"`
	CallDelayMS     int  `yaml:"call_delay_ms"`
	IntervalMinutes int  `yaml:"interval_minutes"`
	NumCandles      int  `yaml:"num_candles"`
	MinCandles      int  `yaml:"min_candles"`
	Lots            int  `yaml:"lots"`
	PlaceOrders     bool `yaml:"place_orders"`
}

// RedisSettings configures the optional series cache.
type RedisSettings struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// TelegramSettings configures the Telegram alert channel.
type TelegramSettings struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// Config is the full application configuration.
type Config struct {
	Creds       Creds            `yaml:"shoonya_creds"`
	Instruments []Instrument     `yaml:"instruments"`
	Strategy    StrategySettings `yaml:"strategy_settings"`
	Scan        ScanSettings     `yaml:"scan_settings"`
	Backtest    backtest.Config  `yaml:"backtest_settings"`
	JournalPath string           `yaml:"journal_path"`
	MetricsAddr string           `yaml:"metrics_addr"`
	LogLevel    string           `yaml:"log_level"`
	Redis       RedisSettings    `yaml:"redis"`
	Telegram    TelegramSettings `yaml:"telegram"`
	WebhookURL  string           `yaml:"webhook_url"`
}

// Load reads, defaults, env-overrides, and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := indicator.DefaultConfig()
	ind := &c.Strategy.Indicators
	if ind.HMAPeriod == 0 {
		ind.HMAPeriod = def.HMAPeriod
	}
	if ind.ATRPeriod == 0 {
		ind.ATRPeriod = def.ATRPeriod
	}
	if ind.MACDFast == 0 {
		ind.MACDFast = def.MACDFast
	}
	if ind.MACDSlow == 0 {
		ind.MACDSlow = def.MACDSlow
	}
	if ind.MACDSignal == 0 {
		ind.MACDSignal = def.MACDSignal
	}
	if ind.VWMAPeriod == 0 {
		ind.VWMAPeriod = def.VWMAPeriod
	}
	if c.Strategy.StopATRMultiple == 0 {
		c.Strategy.StopATRMultiple = 1
	}
	if c.Strategy.RewardMultiple == 0 {
		c.Strategy.RewardMultiple = 1.5
	}

	scanDef := scanner.DefaultConfig()
	if c.Scan.Workers == 0 {
		c.Scan.Workers = scanDef.Workers
	}
	if c.Scan.CallDelayMS == 0 {
		c.Scan.CallDelayMS = int(scanDef.CallDelay / time.Millisecond)
	}
	if c.Scan.IntervalMinutes == 0 {
		c.Scan.IntervalMinutes = scanDef.IntervalMinutes
	}
	if c.Scan.NumCandles == 0 {
		c.Scan.NumCandles = scanDef.NumCandles
	}
	if c.Scan.MinCandles == 0 {
		c.Scan.MinCandles = scanDef.MinCandles
	}
	if c.Scan.Lots == 0 {
		c.Scan.Lots = scanDef.Lots
	}

	btDef := backtest.DefaultConfig()
	if c.Backtest.Days == 0 {
		c.Backtest.Days = btDef.Days
	}
	if c.Backtest.IntervalMinutes == 0 {
		c.Backtest.IntervalMinutes = btDef.IntervalMinutes
	}
	if c.Backtest.Slippage == 0 {
		c.Backtest.Slippage = btDef.Slippage
	}

	if c.JournalPath == "" {
		c.JournalPath = "data/techbot.db"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9100"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Redis.TTLMinutes == 0 {
		c.Redis.TTLMinutes = 60
	}
}

// applyEnv lets NOREN_* environment variables override file
// credentials.
func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"NOREN_USER":        &c.Creds.User,
		"NOREN_PASSWORD":    &c.Creds.Password,
		"NOREN_VENDOR_CODE": &c.Creds.VendorCode,
		"NOREN_API_KEY":     &c.Creds.APIKey,
		"NOREN_IMEI":        &c.Creds.IMEI,
		"NOREN_TOTP_SECRET": &c.Creds.TOTPSecret,
	}
	for env, field := range overrides {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
}

func (c *Config) Validate() error {
	if err := c.StrategyConfig().Validate(); err != nil {
		return err
	}
	if err := c.ScanConfig().Validate(); err != nil {
		return err
	}
	if err := c.Backtest.Validate(); err != nil {
		return err
	}
	for _, inst := range c.Instruments {
		if inst.Name == "" || inst.OptionSymbol == "" {
			return fmt.Errorf("config: instrument %q missing name or option symbol", inst.Name)
		}
	}
	return nil
}

// RequireCreds checks the fields login cannot proceed without. Called
// by the modes that talk to the broker, not by Load, so offline tools
// can still read the file.
func (c *Config) RequireCreds() error {
	missing := func(name, v string) error {
		if v == "" {
			return fmt.Errorf("config: missing credential %s (file or env)", name)
		}
		return nil
	}
	checks := []error{
		missing("user", c.Creds.User),
		missing("pwd", c.Creds.Password),
		missing("vc", c.Creds.VendorCode),
		missing("apikey", c.Creds.APIKey),
		missing("totp_secret", c.Creds.TOTPSecret),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

// StrategyConfig builds the strategy package's config.
func (c *Config) StrategyConfig() strategy.Config {
	return strategy.Config{
		Indicators:      c.Strategy.Indicators,
		StopATRMultiple: c.Strategy.StopATRMultiple,
		RewardMultiple:  c.Strategy.RewardMultiple,
	}
}

// ScanConfig builds the scanner package's config.
func (c *Config) ScanConfig() scanner.Config {
	return scanner.Config{
		Workers:         c.Scan.Workers,
		CallDelay:       time.Duration(c.Scan.CallDelayMS) * time.Millisecond,
		IntervalMinutes: c.Scan.IntervalMinutes,
		NumCandles:      c.Scan.NumCandles,
		MinCandles:      c.Scan.MinCandles,
		Lots:            c.Scan.Lots,
	}
}

// NorenConfig builds the broker client config.
func (c *Config) NorenConfig() noren.Config {
	return noren.Config{
		UserID:     c.Creds.User,
		Password:   c.Creds.Password,
		VendorCode: c.Creds.VendorCode,
		APIKey:     c.Creds.APIKey,
		IMEI:       c.Creds.IMEI,
		TOTPSecret: c.Creds.TOTPSecret,
	}
}

// ScanInstruments converts the universe for the scanner.
func (c *Config) ScanInstruments() []scanner.Instrument {
	out := make([]scanner.Instrument, len(c.Instruments))
	for i, inst := range c.Instruments {
		out[i] = scanner.Instrument{Name: inst.Name, OptionSymbol: inst.OptionSymbol}
	}
	return out
}
