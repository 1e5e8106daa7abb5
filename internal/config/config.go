package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Binance  BinanceConfig  `mapstructure:"binance"`
	Detector DetectorConfig `mapstructure:"detector"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// BinanceConfig holds Binance USDT-M futures feed configuration
type BinanceConfig struct {
	APIKey               string        `mapstructure:"api_key"`
	APISecret            string        `mapstructure:"api_secret"`
	Min24hVolume         float64       `mapstructure:"min_24h_volume"`
	MaxSymbols           int           `mapstructure:"max_symbols"`
	StreamBatchSize      int           `mapstructure:"stream_batch_size"`
	ReconnectDelay       time.Duration `mapstructure:"reconnect_delay"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts"`
}

// DetectorConfig holds the spike detection parameters
type DetectorConfig struct {
	Interval               time.Duration `mapstructure:"interval"`
	BaselineWindow         time.Duration `mapstructure:"baseline_window"`
	MinSamples             int           `mapstructure:"min_samples"`
	SpikeRatioThreshold    float64       `mapstructure:"spike_ratio_threshold"`
	MinVolumeThreshold     float64       `mapstructure:"min_volume_threshold"`
	ConfirmationIntervals  int           `mapstructure:"confirmation_intervals"`
	CooldownPeriod         time.Duration `mapstructure:"cooldown_period"`
	GlobalAlertRateCeiling int           `mapstructure:"global_alert_rate_ceiling"`
	CheckpointInterval     time.Duration `mapstructure:"checkpoint_interval"`
	StatsInterval          time.Duration `mapstructure:"stats_interval"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	DBPath    string `mapstructure:"db_path"`
	MaxAlerts int    `mapstructure:"max_alerts"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("FUVOL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Binance defaults
	v.SetDefault("binance.min_24h_volume", 1_000_000.0)
	v.SetDefault("binance.max_symbols", 200)
	v.SetDefault("binance.stream_batch_size", 20)
	v.SetDefault("binance.reconnect_delay", "5s")
	v.SetDefault("binance.max_reconnect_attempts", 10)

	// Detector defaults
	v.SetDefault("detector.interval", "5m")
	v.SetDefault("detector.baseline_window", "60m")
	v.SetDefault("detector.min_samples", 6)
	v.SetDefault("detector.spike_ratio_threshold", 3.0)
	v.SetDefault("detector.min_volume_threshold", 1_000_000.0)
	v.SetDefault("detector.confirmation_intervals", 2)
	v.SetDefault("detector.cooldown_period", "15m")
	v.SetDefault("detector.global_alert_rate_ceiling", 0) // 0 = no ceiling
	v.SetDefault("detector.checkpoint_interval", "5m")
	v.SetDefault("detector.stats_interval", "1m")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/fuvol.db")
	v.SetDefault("storage.max_alerts", 10000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Binance config
	if c.Binance.Min24hVolume < 0 {
		return fmt.Errorf("binance.min_24h_volume must not be negative")
	}
	if c.Binance.MaxSymbols < 1 || c.Binance.MaxSymbols > 1000 {
		return fmt.Errorf("binance.max_symbols must be between 1 and 1000")
	}
	if c.Binance.StreamBatchSize < 1 || c.Binance.StreamBatchSize > 200 {
		return fmt.Errorf("binance.stream_batch_size must be between 1 and 200")
	}
	if c.Binance.ReconnectDelay < time.Second {
		return fmt.Errorf("binance.reconnect_delay must be at least 1 second")
	}
	if c.Binance.MaxReconnectAttempts < 0 {
		return fmt.Errorf("binance.max_reconnect_attempts must not be negative")
	}

	// Validate Detector config
	if c.Detector.Interval < time.Minute {
		return fmt.Errorf("detector.interval must be at least 1 minute")
	}
	if c.Detector.MinSamples < 1 {
		return fmt.Errorf("detector.min_samples must be at least 1")
	}
	if c.Detector.BaselineWindow < time.Duration(c.Detector.MinSamples)*c.Detector.Interval {
		return fmt.Errorf("detector.baseline_window must cover at least detector.min_samples intervals")
	}
	if c.Detector.SpikeRatioThreshold <= 0 {
		return fmt.Errorf("detector.spike_ratio_threshold must be positive")
	}
	if c.Detector.MinVolumeThreshold < 0 {
		return fmt.Errorf("detector.min_volume_threshold must not be negative")
	}
	if c.Detector.ConfirmationIntervals < 1 {
		return fmt.Errorf("detector.confirmation_intervals must be at least 1")
	}
	if c.Detector.CooldownPeriod < 0 {
		return fmt.Errorf("detector.cooldown_period must not be negative")
	}
	if c.Detector.GlobalAlertRateCeiling < 0 {
		return fmt.Errorf("detector.global_alert_rate_ceiling must not be negative")
	}
	if c.Detector.CheckpointInterval < time.Minute {
		return fmt.Errorf("detector.checkpoint_interval must be at least 1 minute")
	}
	if c.Detector.StatsInterval < time.Second {
		return fmt.Errorf("detector.stats_interval must be at least 1 second")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Storage config
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.MaxAlerts < 1 {
		return fmt.Errorf("storage.max_alerts must be at least 1")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
