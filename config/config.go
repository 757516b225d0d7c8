package config

import (
	"flag"
	"os"
	"strconv"
	"sync"
)

const (
	defaultServerAddress = ":8080"
	defaultDatabaseDSN   = ""
	defaultRedisAddr     = "localhost:6379"
	defaultGatewayAddr   = ":8282"
	defaultMailerAddr    = ""
	defaultFrontendURL   = "http://localhost:3000"
	defaultUSDToINRRate  = 83.0
	defaultLogLevel      = "debug"
)

type Config struct {
	ServerAddr    string
	DatabaseDSN   string
	RedisAddr     string
	GatewayAddr   string
	GatewayAPIKey string
	WebhookSecret string
	MailerAddr    string
	MailerAPIKey  string
	FrontendURL   string
	USDToINRRate  float64
	LogLevel      string
}

var (
	once      sync.Once
	singleton *Config
)

// New returns new Config. It parses command line and environment variables only once.
func New() (*Config, error) {
	once.Do(func() {
		cfg := Config{}

		// initialize flags
		flag.StringVar(&cfg.ServerAddr, "a", defaultServerAddress, "marketplace server address")
		flag.StringVar(&cfg.DatabaseDSN, "d", defaultDatabaseDSN, "marketplace database DSN")
		flag.StringVar(&cfg.RedisAddr, "c", defaultRedisAddr, "redis address")
		flag.StringVar(&cfg.GatewayAddr, "g", defaultGatewayAddr, "payment gateway address")
		flag.StringVar(&cfg.MailerAddr, "m", defaultMailerAddr, "mail endpoint address")
		flag.StringVar(&cfg.FrontendURL, "f", defaultFrontendURL, "frontend base url for checkout redirects")
		flag.Float64Var(&cfg.USDToINRRate, "x", defaultUSDToINRRate, "usd to inr conversion rate")
		flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")

		flag.Parse()

		// if environment variable is set, then using it
		if runAddrEnv := os.Getenv("RUN_ADDRESS"); runAddrEnv != "" {
			cfg.ServerAddr = runAddrEnv
		}
		if databaseURIEnv := os.Getenv("DATABASE_URI"); databaseURIEnv != "" {
			cfg.DatabaseDSN = databaseURIEnv
		}
		if redisAddrEnv := os.Getenv("REDIS_ADDRESS"); redisAddrEnv != "" {
			cfg.RedisAddr = redisAddrEnv
		}
		if gatewayAddrEnv := os.Getenv("PAYMENT_GATEWAY_ADDRESS"); gatewayAddrEnv != "" {
			cfg.GatewayAddr = gatewayAddrEnv
		}
		if mailerAddrEnv := os.Getenv("MAIL_ENDPOINT_ADDRESS"); mailerAddrEnv != "" {
			cfg.MailerAddr = mailerAddrEnv
		}
		if frontendURLEnv := os.Getenv("FRONTEND_URL"); frontendURLEnv != "" {
			cfg.FrontendURL = frontendURLEnv
		}
		if rateEnv := os.Getenv("USD_TO_INR_RATE"); rateEnv != "" {
			if rate, err := strconv.ParseFloat(rateEnv, 64); err == nil {
				cfg.USDToINRRate = rate
			}
		}
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			cfg.LogLevel = logLevelEnv
		}

		// credentials are taken from environment only
		cfg.GatewayAPIKey = os.Getenv("PAYMENT_GATEWAY_API_KEY")
		cfg.WebhookSecret = os.Getenv("PAYMENT_WEBHOOK_SECRET")
		cfg.MailerAPIKey = os.Getenv("MAIL_ENDPOINT_API_KEY")

		singleton = &cfg
	})

	return singleton, nil
}
