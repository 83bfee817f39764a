package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	envTelegramBotToken      = "TELEGRAM_BOT_TOKEN"
	envTelegramAllowFrom     = "TELEGRAM_ALLOW_FROM"
	envWhatsAppAccessToken   = "WHATSAPP_ACCESS_TOKEN"
	envWhatsAppVerifyToken   = "WHATSAPP_VERIFY_TOKEN"
	envWhatsAppPhoneNumberID = "WHATSAPP_PHONE_NUMBER_ID"
	envCatalogPath           = "DYEBOT_CATALOG_PATH"
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Catalog  CatalogConfig  `json:"catalog"`
	Channels ChannelsConfig `json:"channels"`
	Gateway  GatewayConfig  `json:"gateway"`
	Logging  LoggingConfig  `json:"logging,omitempty"`
}

// CatalogConfig locates the product catalog. An empty path selects the
// compiled-in sample catalog.
type CatalogConfig struct {
	Path string `json:"path,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// ChannelsConfig stores transport adapter settings.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	WhatsApp WhatsAppConfig `json:"whatsapp"`
}

// TelegramConfig configures the Telegram channel integration.
type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allow_from"`
}

// WhatsAppConfig configures the WhatsApp Cloud API channel integration.
type WhatsAppConfig struct {
	Enabled       bool   `json:"enabled"`
	AccessToken   string `json:"access_token"`
	VerifyToken   string `json:"verify_token"`
	PhoneNumberID string `json:"phone_number_id"`
	ListenAddr    string `json:"listen_addr"`
	BaseURL       string `json:"base_url,omitempty"`
}

// GatewayConfig configures the status server bind settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LoadConfig resolves config.json, unmarshals it, and applies environment
// overrides for secrets and the catalog path.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Channels.Telegram.Token = token
	}
	if rawAllowFrom := strings.TrimSpace(os.Getenv(envTelegramAllowFrom)); rawAllowFrom != "" {
		cfg.Channels.Telegram.AllowFrom = parseCSV(rawAllowFrom)
	}

	if token := strings.TrimSpace(os.Getenv(envWhatsAppAccessToken)); token != "" {
		cfg.Channels.WhatsApp.AccessToken = token
	}
	if token := strings.TrimSpace(os.Getenv(envWhatsAppVerifyToken)); token != "" {
		cfg.Channels.WhatsApp.VerifyToken = token
	}
	if id := strings.TrimSpace(os.Getenv(envWhatsAppPhoneNumberID)); id != "" {
		cfg.Channels.WhatsApp.PhoneNumberID = id
	}

	if path := strings.TrimSpace(os.Getenv(envCatalogPath)); path != "" {
		cfg.Catalog.Path = path
	}
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

// findConfigPath resolves the active config file location.
//
// Precedence is DYEBOT_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv("DYEBOT_CONFIG")); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("DYEBOT_CONFIG does not point to a file: %s", value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}
