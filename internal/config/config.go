package config

import (
	"fmt"
	"os"
	"strconv"

	"payments-backend/internal/domains/payment/gateway/netopia"
)

// Config holds the whole application configuration.
// Populated from environment variables.
type Config struct {
	App     AppConfig
	Redis   RedisConfig
	Netopia NetopiaConfig
	Worker  WorkerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

// =====================================================
// NETOPIA / MOBILPAY CONFIGURATION
// =====================================================

type NetopiaConfig struct {
	Signature      string // merchant account signature (e.g. "XXXX-XXXX-XXXX-XXXX-XXXX")
	PublicCertPath string // gateway X.509 certificate, wraps the session key
	PrivateKeyPath string // merchant RSA key, opens webhook envelopes
	Cipher         string // "rc4" or "aes-128-cbc"
	ConfirmURL     string // backend webhook URL
	ReturnURL      string // frontend callback URL
	SandboxMode    bool
}

type WorkerConfig struct {
	Concurrency int
	NotifyURL   string // order system callback for settled payments, empty disables delivery
}

// Load reads config from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Payments API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Netopia: NetopiaConfig{
			Signature:      getEnv("NETOPIA_SIGNATURE", ""),
			PublicCertPath: getEnv("NETOPIA_PUBLIC_CERT", "certs/netopia.cer"),
			PrivateKeyPath: getEnv("NETOPIA_PRIVATE_KEY", "certs/netopia.key"),
			Cipher:         getEnv("NETOPIA_CIPHER", netopia.CipherRC4),
			ConfirmURL:     getEnv("NETOPIA_CONFIRM_URL", "http://localhost:8080/api/v1/webhooks/netopia"),
			ReturnURL:      getEnv("NETOPIA_RETURN_URL", "http://localhost:3000/payment/callback"),
			SandboxMode:    getEnvBool("NETOPIA_SANDBOX", true),
		},
		Worker: WorkerConfig{
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 10),
			NotifyURL:   getEnv("WORKER_NOTIFY_URL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Netopia.Signature == "" {
		return fmt.Errorf("NETOPIA_SIGNATURE must be set")
	}

	switch c.Netopia.Cipher {
	case netopia.CipherRC4, netopia.CipherAES128CBC:
	default:
		return fmt.Errorf("NETOPIA_CIPHER must be %q or %q", netopia.CipherRC4, netopia.CipherAES128CBC)
	}

	if c.App.Environment == "production" && c.Netopia.SandboxMode {
		return fmt.Errorf("NETOPIA_SANDBOX must be false in production")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
