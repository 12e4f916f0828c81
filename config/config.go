package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"marmot/utils/log"
)

type Config struct {
	App   App
	Chart Chart
	Store Store
}

type App struct {
	ListenAddr string `envconfig:"MARMOT_LISTEN_ADDR" default:":8080"`
	SyncAddr   string `envconfig:"MARMOT_SYNC_ADDR" default:":8081"`
	LogLevel   string `envconfig:"MARMOT_LOG_LEVEL" default:"info"`
}

type Chart struct {
	Pair        string `envconfig:"MARMOT_PAIR" default:"KRW-BTC"`
	Timeframe   string `envconfig:"MARMOT_TIMEFRAME" default:"1m"`
	Width       int    `envconfig:"MARMOT_WIDTH" default:"1280"`
	Height      int    `envconfig:"MARMOT_HEIGHT" default:"720"`
	SeedCandles int    `envconfig:"MARMOT_SEED_CANDLES" default:"300"`
	Theme       string `envconfig:"MARMOT_THEME" default:"dark"`
}

type Store struct {
	Path string `envconfig:"MARMOT_STORE_PATH" default:"marmot.db"`
}

// Load reads .env if present, then the environment. Missing .env is fine;
// defaults cover a local run against Upbit's public API.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Infof("no .env file loaded: %v", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("invalid chart size %dx%d", c.Chart.Width, c.Chart.Height)
	}
	if c.Chart.SeedCandles <= 0 {
		return fmt.Errorf("seed candle count must be positive, got %d", c.Chart.SeedCandles)
	}
	if c.Chart.Pair == "" {
		return fmt.Errorf("pair must not be empty")
	}
	return nil
}
