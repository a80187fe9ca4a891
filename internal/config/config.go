// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// AllowedOrigins is a comma separated CORS allow-list; "*" when unset.
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"*"`

	// DatabaseURL selects the Postgres store; the in-memory store is used when empty.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	RedisAddr      string `envconfig:"REDIS_ADDR"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`
	EventQueueName string `envconfig:"EVENT_QUEUE_NAME" default:"rewards_events"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"rewards.events"`

	// Deployer seeds the contract authority; the server refuses to start without it.
	Deployer     string `envconfig:"DEPLOYER"`
	ContractName string `envconfig:"CONTRACT_NAME" default:"trustless-rewards"`
	// GenesisBalances seeds the devnet ledger: "principal:amount,principal:amount".
	GenesisBalances string `envconfig:"GENESIS_BALANCES"`

	DevSessions        bool   `envconfig:"DEV_SESSIONS" default:"false"`
	AuthPrivateKeyPath string `envconfig:"AUTH_PRIVATE_KEY_PATH"`
	AuthPublicKeyPath  string `envconfig:"AUTH_PUBLIC_KEY_PATH"`
	TokenExpireTime    string `envconfig:"TOKEN_EXPIRE_TIME" default:"72h"`

	HistorianBatchSize int `envconfig:"HISTORIAN_BATCH_SIZE" default:"20"`
	HistorianFlushMs   int `envconfig:"HISTORIAN_FLUSH_MS" default:"500"`
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return c, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if (c.AuthPrivateKeyPath == "") != (c.AuthPublicKeyPath == "") {
		return c, fmt.Errorf("AUTH_PRIVATE_KEY_PATH and AUTH_PUBLIC_KEY_PATH must be set together")
	}
	return c, nil
}

// Pool is the contract's own principal, "<deployer>.<contract name>".
func (c Config) Pool() string {
	return c.Deployer + "." + c.ContractName
}

// Origins splits AllowedOrigins for the CORS handler.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Logger builds the process logger at the configured level.
func (c Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
