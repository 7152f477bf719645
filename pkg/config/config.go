// Package config loads process configuration for the gateway core.
//
// Configuration is primarily environment-variable driven (the table in
// the external interfaces section of the core specification), with an
// optional YAML overlay file for operators who prefer a single file over
// a shell environment. Every field carries a documented default so Load
// never fails on a sparsely configured host, matching the teacher's
// LoadOrCreateConfigWithPath default-filling idiom.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// AuthProvider identifies which Provider Adapter backs the deployment.
type AuthProvider string

// Supported identity provider backends.
const (
	ProviderCognito  AuthProvider = "cognito"
	ProviderKeycloak AuthProvider = "keycloak"
)

// Config holds every tunable the core reads at start.
type Config struct {
	AuthProvider AuthProvider `yaml:"auth_provider"`
	SecretKey    string       `yaml:"secret_key"`

	MetricsServiceURL string `yaml:"metrics_service_url"`
	MetricsAPIKey     string `yaml:"metrics_api_key"`

	MaxTokenLifetimeHours     int `yaml:"max_token_lifetime_hours"`
	DefaultTokenLifetimeHours int `yaml:"default_token_lifetime_hours"`
	MaxTokensPerUserPerHour   int `yaml:"max_tokens_per_user_per_hour"`

	Cognito  CognitoConfig  `yaml:"cognito"`
	Keycloak KeycloakConfig `yaml:"keycloak"`

	SessionCookieMaxAgeSeconds int `yaml:"session_cookie_max_age_seconds"`

	VaultDir           string `yaml:"vault_dir"`
	ScopesDocumentPath string `yaml:"scopes_document_path"`
	MCPConfigPath      string `yaml:"mcp_config_path"`
	VSCodeConfigPath   string `yaml:"vscode_config_path"`

	// generatedSecret records whether SecretKey was generated in-process
	// rather than supplied, so callers can warn that issued tokens will
	// not survive a restart.
	generatedSecret bool
}

// CognitoConfig holds Amazon Cognito provider settings.
type CognitoConfig struct {
	UserPoolID   string `yaml:"user_pool_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Region       string `yaml:"region"`
}

// KeycloakConfig holds Keycloak provider settings.
type KeycloakConfig struct {
	URL             string `yaml:"url"`
	ExternalURL     string `yaml:"external_url"`
	Realm           string `yaml:"realm"`
	ClientID        string `yaml:"client_id"`
	ClientSecret    string `yaml:"client_secret"`
	M2MClientID     string `yaml:"m2m_client_id"`
	M2MClientSecret string `yaml:"m2m_client_secret"`
}

// Defaults, mirroring the original issuer policy constants.
const (
	DefaultMaxTokenLifetimeHours     = 24
	DefaultDefaultTokenLifetimeHours = 8
	DefaultMaxTokensPerUserPerHour   = 10
	DefaultSessionCookieMaxAgeSecs   = 28800

	DefaultVaultDir           = "./token_vault"
	DefaultScopesDocumentPath = "./scopes.yml"
	DefaultMCPConfigPath      = "./mcp.json"
	DefaultVSCodeConfigPath   = "./vscode_mcp.json"
)

// GeneratedSecret reports whether the secret key was generated in-process
// because none was configured; such tokens do not survive a restart.
func (c *Config) GeneratedSecret() bool {
	return c.generatedSecret
}

// Load builds a Config from an optional YAML file followed by environment
// variable overrides, then fills any still-unset field with its default.
// An empty path or a missing file skips the YAML step. Load returns an
// error only when the YAML file exists but cannot be read or parsed; it
// panics if crypto/rand fails while generating a default secret key.
func Load(yamlPath string) (*Config, error) {
	cfg := &Config{}

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg, os.Getenv)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	if v := getenv("AUTH_PROVIDER"); v != "" {
		cfg.AuthProvider = AuthProvider(v)
	}
	if v := getenv("SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	if v := getenv("METRICS_SERVICE_URL"); v != "" {
		cfg.MetricsServiceURL = v
	}
	if v := getenv("METRICS_API_KEY"); v != "" {
		cfg.MetricsAPIKey = v
	}
	if v := getenv("MAX_TOKEN_LIFETIME_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTokenLifetimeHours = n
		}
	}
	if v := getenv("DEFAULT_TOKEN_LIFETIME_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultTokenLifetimeHours = n
		}
	}
	if v := getenv("MAX_TOKENS_PER_USER_PER_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTokensPerUserPerHour = n
		}
	}

	if v := getenv("COGNITO_USER_POOL_ID"); v != "" {
		cfg.Cognito.UserPoolID = v
	}
	if v := getenv("COGNITO_CLIENT_ID"); v != "" {
		cfg.Cognito.ClientID = v
	}
	if v := getenv("COGNITO_CLIENT_SECRET"); v != "" {
		cfg.Cognito.ClientSecret = v
	}
	if v := getenv("COGNITO_REGION"); v != "" {
		cfg.Cognito.Region = v
	}

	if v := getenv("KEYCLOAK_URL"); v != "" {
		cfg.Keycloak.URL = v
	}
	if v := getenv("KEYCLOAK_EXTERNAL_URL"); v != "" {
		cfg.Keycloak.ExternalURL = v
	}
	if v := getenv("KEYCLOAK_REALM"); v != "" {
		cfg.Keycloak.Realm = v
	}
	if v := getenv("KEYCLOAK_CLIENT_ID"); v != "" {
		cfg.Keycloak.ClientID = v
	}
	if v := getenv("KEYCLOAK_CLIENT_SECRET"); v != "" {
		cfg.Keycloak.ClientSecret = v
	}
	if v := getenv("KEYCLOAK_M2M_CLIENT_ID"); v != "" {
		cfg.Keycloak.M2MClientID = v
	}
	if v := getenv("KEYCLOAK_M2M_CLIENT_SECRET"); v != "" {
		cfg.Keycloak.M2MClientSecret = v
	}

	if v := getenv("VAULT_DIR"); v != "" {
		cfg.VaultDir = v
	}
	if v := getenv("SCOPES_DOCUMENT_PATH"); v != "" {
		cfg.ScopesDocumentPath = v
	}
	if v := getenv("MCP_CONFIG_PATH"); v != "" {
		cfg.MCPConfigPath = v
	}
	if v := getenv("VSCODE_CONFIG_PATH"); v != "" {
		cfg.VSCodeConfigPath = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.AuthProvider == "" {
		cfg.AuthProvider = ProviderCognito
	}
	if cfg.MaxTokenLifetimeHours == 0 {
		cfg.MaxTokenLifetimeHours = DefaultMaxTokenLifetimeHours
	}
	if cfg.DefaultTokenLifetimeHours == 0 {
		cfg.DefaultTokenLifetimeHours = DefaultDefaultTokenLifetimeHours
	}
	if cfg.MaxTokensPerUserPerHour == 0 {
		cfg.MaxTokensPerUserPerHour = DefaultMaxTokensPerUserPerHour
	}
	if cfg.SessionCookieMaxAgeSeconds == 0 {
		cfg.SessionCookieMaxAgeSeconds = DefaultSessionCookieMaxAgeSecs
	}
	if cfg.SecretKey == "" {
		cfg.SecretKey = generateSecret()
		cfg.generatedSecret = true
	}
	if cfg.VaultDir == "" {
		cfg.VaultDir = DefaultVaultDir
	}
	if cfg.ScopesDocumentPath == "" {
		cfg.ScopesDocumentPath = DefaultScopesDocumentPath
	}
	if cfg.MCPConfigPath == "" {
		cfg.MCPConfigPath = DefaultMCPConfigPath
	}
	if cfg.VSCodeConfigPath == "" {
		cfg.VSCodeConfigPath = DefaultVSCodeConfigPath
	}
}

func generateSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is fatal to the security model; panic rather
		// than silently run with a predictable secret.
		panic(fmt.Sprintf("config: failed to generate secret key: %v", err))
	}
	return hex.EncodeToString(buf)
}
