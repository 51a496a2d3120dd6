package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/mamadbah2/chatguru/pkg/clients/chatguru"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	ChatGuru ChatGuruConfig
	Relay    RelayConfig
	MongoDB  MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string
}

// ChatGuruConfig contains credentials for the ChatGuru API.
type ChatGuruConfig struct {
	APIToken    string
	APIEndpoint string
	AccountID   string
	PhoneID     string
}

// RelayConfig drives what the relay does with each inbound webhook.
type RelayConfig struct {
	// ConfirmationText is sent back to the contact when non-empty.
	ConfirmationText string
	AnnotateEvents   bool
}

// MongoDBConfig holds settings for the optional event archive. An empty URI
// disables archiving.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	annotate, err := getenvBool("CHATGURU_ANNOTATE_EVENTS", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		ChatGuru: ChatGuruConfig{
			APIToken:    os.Getenv("CHATGURU_API_TOKEN"),
			APIEndpoint: getenvWithDefault("CHATGURU_API_ENDPOINT", chatguru.DefaultEndpoint),
			AccountID:   os.Getenv("CHATGURU_ACCOUNT_ID"),
			PhoneID:     getenvWithDefault("CHATGURU_PHONE_ID", chatguru.DefaultPhoneID),
		},
		Relay: RelayConfig{
			ConfirmationText: os.Getenv("CHATGURU_CONFIRMATION_TEXT"),
			AnnotateEvents:   annotate,
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "chatguru"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.ChatGuru.APIToken == "":
		return errors.New("CHATGURU_API_TOKEN must be provided")
	case c.ChatGuru.AccountID == "":
		return errors.New("CHATGURU_ACCOUNT_ID must be provided")
	case c.ChatGuru.APIEndpoint == "":
		return errors.New("CHATGURU_API_ENDPOINT must not be empty")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	return nil
}

// ClientConfig converts the settings into the library's client configuration.
func (c ChatGuruConfig) ClientConfig() chatguru.Config {
	return chatguru.Config{
		APIToken:    c.APIToken,
		APIEndpoint: c.APIEndpoint,
		AccountID:   c.AccountID,
		PhoneID:     c.PhoneID,
	}
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return parsed, nil
}
