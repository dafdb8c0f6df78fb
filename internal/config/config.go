package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-yaml/yaml"
)

type Config struct {
	API         API         `yaml:"api"`
	Feed        Feed        `yaml:"feed"`
	Suggestions Suggestions `yaml:"suggestions"`
	Blocklist   Blocklist   `yaml:"blocklist"`
	Bus         Bus         `yaml:"bus"`
	Server      Server      `yaml:"server"`
}

type API struct {
	BaseURL   string `yaml:"baseURL"`
	Token     string `yaml:"token"`
	UserAgent string `yaml:"userAgent"`
	Timeout   string `yaml:"timeout"`

	// ---
	TimeoutDuration time.Duration `yaml:"-"`
}

type Feed struct {
	PageSize int `yaml:"pageSize"`
}

type Suggestions struct {
	AllLimit      int    `yaml:"allLimit"`
	CategoryLimit int    `yaml:"categoryLimit"`
	Debounce      string `yaml:"debounce"`

	// ---
	DebounceDuration time.Duration `yaml:"-"`
}

type Blocklist struct {
	RefreshInterval string `yaml:"refreshInterval"`
	CacheTTL        string `yaml:"cacheTTL"`

	// ---
	RefreshDuration  time.Duration `yaml:"-"`
	CacheTTLDuration time.Duration `yaml:"-"`
}

type Bus struct {
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	RedisChannel  string `yaml:"redisChannel"`
	KafkaBrokers  string `yaml:"kafkaBrokers"`
	KafkaTopic    string `yaml:"kafkaTopic"`
	KafkaGroupID  string `yaml:"kafkaGroupID"`
}

type Server struct {
	ListenAddr    string `yaml:"listenAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	LogLevel      string `yaml:"logLevel"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if err := config.applyDefaults(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) applyDefaults() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.baseURL is required")
	}
	if c.Feed.PageSize <= 0 {
		c.Feed.PageSize = 20
	}
	if c.Suggestions.AllLimit <= 0 {
		c.Suggestions.AllLimit = 8
	}
	if c.Suggestions.CategoryLimit <= 0 {
		c.Suggestions.CategoryLimit = 30
	}
	if c.Bus.RedisChannel == "" {
		c.Bus.RedisChannel = "feedengine.invalidation"
	}
	if c.Bus.KafkaGroupID == "" {
		c.Bus.KafkaGroupID = "feedengine"
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8000"
	}

	var err error
	if c.API.TimeoutDuration, err = duration("api.timeout", c.API.Timeout, 10*time.Second); err != nil {
		return err
	}
	if c.Suggestions.DebounceDuration, err = duration("suggestions.debounce", c.Suggestions.Debounce, 300*time.Millisecond); err != nil {
		return err
	}
	if c.Blocklist.RefreshDuration, err = duration("blocklist.refreshInterval", c.Blocklist.RefreshInterval, 5*time.Minute); err != nil {
		return err
	}
	if c.Blocklist.CacheTTLDuration, err = duration("blocklist.cacheTTL", c.Blocklist.CacheTTL, 30*time.Second); err != nil {
		return err
	}
	return nil
}

func duration(key, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
