package internal

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	Host           string `env:"HOST,default=0.0.0.0"`
	Port           int    `env:"PORT,default=3000"`
	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/messages"`
	SecretKey      string `env:"SECRET_KEY,required=true"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	DebugPort      int    `env:"DEBUG_PORT,default=8081"`

	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	SubscriberBufferSize int           `env:"SUBSCRIBER_BUFFER_SIZE,default=100"`
	KeepAliveInterval    time.Duration `env:"KEEP_ALIVE_INTERVAL,default=10s"`
	MessageCacheSize     int           `env:"MESSAGE_CACHE_SIZE,default=1024"`

	ValueLogGCInterval time.Duration `env:"VALUE_LOG_GC_INTERVAL,default=10m"`
	StatsInterval      time.Duration `env:"STATS_INTERVAL,default=1m"`
	RestartInterval    time.Duration `env:"RESTART_INTERVAL,default=200ms"`
}

// LoadConfig reads an optional .env file then the process environment.
// Variables already set in the environment win over the file.
func LoadConfig(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// A missing file is fine, the environment may carry everything.
		_ = godotenv.Load(f)
	}

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := config.validate(); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return config, nil
}

func (c Config) validate() error {
	if c.SubscriberBufferSize <= 0 {
		return fmt.Errorf("SUBSCRIBER_BUFFER_SIZE must be positive, got %d", c.SubscriberBufferSize)
	}
	if c.KeepAliveInterval <= 0 {
		return fmt.Errorf("KEEP_ALIVE_INTERVAL must be positive, got %s", c.KeepAliveInterval)
	}
	if c.ValueLogGCInterval <= 0 || c.StatsInterval <= 0 {
		return fmt.Errorf("worker intervals must be positive")
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
