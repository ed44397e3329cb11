package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"OptionSentinel/internal/model"
)

// Data source kinds.
const (
	SourceMock  = "mock"
	SourceFyers = "fyers"
)

// Config holds all application configuration.
type Config struct {
	App struct {
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`
	DataSource struct {
		Kind        string        `yaml:"kind"`
		BaseURL     string        `yaml:"base_url"`
		AppID       string        `yaml:"app_id"`
		AccessToken string        `yaml:"access_token"`
		StrikeCount int           `yaml:"strike_count"`
		RateLimit   float64       `yaml:"rate_limit"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Polling struct {
		Interval    time.Duration    `yaml:"interval"`
		RunOnStart  bool             `yaml:"run_on_start"`
		Instruments []InstrumentPoll `yaml:"instruments"`
	} `yaml:"polling"`
	// Instruments overrides fields of the built-in registry, keyed by symbol.
	Instruments map[string]model.InstrumentConfig `yaml:"instruments"`
	Telegram    struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Proxy string `yaml:"proxy"`
}

// InstrumentPoll is one polled instrument.
type InstrumentPoll struct {
	Symbol         string   `yaml:"symbol"`
	StrikeRange    int      `yaml:"strike_range"`
	SelectedStrike *float64 `yaml:"selected_strike"`
}

// Target is a validated InstrumentPoll.
type Target struct {
	Instrument model.Instrument
	Range      model.StrikeRange
	Selection  model.StrikeSelection
}

// overrides are read from the environment after .env is loaded.
type overrides struct {
	FyersAppID       string        `envconfig:"FYERS_APP_ID"`
	FyersAccessToken string        `envconfig:"FYERS_ACCESS_TOKEN"`
	FyersBaseURL     string        `envconfig:"FYERS_BASE_URL"`
	DataSource       string        `envconfig:"DATA_SOURCE"`
	TelegramToken    string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string        `envconfig:"TELEGRAM_CHAT_ID"`
	PollInterval     time.Duration `envconfig:"POLL_INTERVAL"`
	RunOnStart       bool          `envconfig:"RUN_ON_START"`
	LogLevel         string        `envconfig:"LOG_LEVEL"`
	AppEnv           string        `envconfig:"APP_ENV"`
	HTTPAddr         string        `envconfig:"HTTP_ADDR"`
	Proxy            string        `envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	var env overrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.applyOverrides(env)
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyOverrides(env overrides) {
	if env.FyersAppID != "" {
		c.DataSource.AppID = env.FyersAppID
	}
	if env.FyersAccessToken != "" {
		c.DataSource.AccessToken = env.FyersAccessToken
	}
	if env.FyersBaseURL != "" {
		c.DataSource.BaseURL = env.FyersBaseURL
	}
	if env.DataSource != "" {
		c.DataSource.Kind = env.DataSource
	}
	if env.TelegramToken != "" {
		c.Telegram.BotToken = env.TelegramToken
	}
	if env.TelegramChatID != "" {
		c.Telegram.ChatID = env.TelegramChatID
	}
	if env.PollInterval > 0 {
		c.Polling.Interval = env.PollInterval
	}
	if env.RunOnStart {
		c.Polling.RunOnStart = true
	}
	if env.LogLevel != "" {
		c.App.LogLevel = env.LogLevel
	}
	if env.AppEnv != "" {
		c.App.Env = env.AppEnv
	}
	if env.HTTPAddr != "" {
		c.HTTP.Addr = env.HTTPAddr
	}
	if env.Proxy != "" {
		c.Proxy = env.Proxy
	}
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.DataSource.Kind == "" {
		c.DataSource.Kind = SourceMock
	}
	if c.DataSource.BaseURL == "" {
		c.DataSource.BaseURL = "https://api-t1.fyers.in/api/v3"
	}
	if c.DataSource.StrikeCount == 0 {
		c.DataSource.StrikeCount = 20
	}
	if c.DataSource.RateLimit == 0 {
		c.DataSource.RateLimit = 5
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 8 * time.Second
	}
	if c.Polling.Interval == 0 {
		c.Polling.Interval = 5 * time.Second
	}
	if len(c.Polling.Instruments) == 0 {
		for _, inst := range model.Instruments {
			c.Polling.Instruments = append(c.Polling.Instruments, InstrumentPoll{Symbol: string(inst)})
		}
	}
	for i := range c.Polling.Instruments {
		if c.Polling.Instruments[i].StrikeRange == 0 {
			c.Polling.Instruments[i].StrikeRange = int(model.Range5)
		}
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
}

// Validate checks that the configuration can drive a poller.
func (c *Config) Validate() error {
	switch c.DataSource.Kind {
	case SourceMock:
	case SourceFyers:
		if c.DataSource.AppID == "" {
			return errors.New("data_source.app_id is required for fyers")
		}
		if c.DataSource.AccessToken == "" {
			return errors.New("data_source.access_token is required for fyers")
		}
		if c.DataSource.BaseURL == "" {
			return errors.New("data_source.base_url is required for fyers")
		}
	default:
		return fmt.Errorf("data_source.kind %q is not supported (use mock or fyers)", c.DataSource.Kind)
	}
	if c.DataSource.RateLimit < 0 {
		return errors.New("data_source.rate_limit must not be negative")
	}
	if c.Polling.Interval < time.Second {
		return fmt.Errorf("polling.interval %s is below one second", c.Polling.Interval)
	}
	if _, err := c.Targets(); err != nil {
		return err
	}
	if _, err := c.Registry(); err != nil {
		return err
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Targets returns the polled instruments in configured order.
func (c *Config) Targets() ([]Target, error) {
	seen := make(map[model.Instrument]bool)
	out := make([]Target, 0, len(c.Polling.Instruments))
	for _, p := range c.Polling.Instruments {
		inst, err := model.ParseInstrument(p.Symbol)
		if err != nil {
			return nil, fmt.Errorf("polling.instruments: %w", err)
		}
		if seen[inst] {
			return nil, fmt.Errorf("polling.instruments: %s listed twice", inst)
		}
		seen[inst] = true

		rng, err := model.ParseStrikeRange(p.StrikeRange)
		if err != nil {
			return nil, fmt.Errorf("polling.instruments %s: %w", inst, err)
		}
		sel := model.NoStrike()
		if p.SelectedStrike != nil {
			sel = model.SelectStrike(*p.SelectedStrike)
		}
		out = append(out, Target{Instrument: inst, Range: rng, Selection: sel})
	}
	return out, nil
}

// Registry returns the built-in registry with configured overrides applied.
// Zero-valued override fields keep the built-in value.
func (c *Config) Registry() (model.Registry, error) {
	reg := model.DefaultRegistry()
	for symbol, o := range c.Instruments {
		inst, err := model.ParseInstrument(symbol)
		if err != nil {
			return nil, fmt.Errorf("instruments: %w", err)
		}
		base := reg[inst]
		if o.BrokerSymbol != "" {
			base.BrokerSymbol = o.BrokerSymbol
		}
		if o.LotSize > 0 {
			base.LotSize = o.LotSize
		}
		if o.TickSize != 0 {
			base.TickSize = o.TickSize
		}
		if o.Label != "" {
			base.Label = o.Label
		}
		reg[inst] = base
		if _, err := reg.Lookup(inst); err != nil {
			return nil, fmt.Errorf("instruments: %w", err)
		}
	}
	return reg, nil
}

// TelegramEnabled reports whether notifications can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
