// Package config provides configuration loading for the gitdeps application.
// It merges an optional YAML file, environment variables and HashiCorp Vault
// credentials into a single Config.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ch "github.com/MyCarrier-DevOps/goLibMyCarrier/clickhouse"
	"github.com/MyCarrier-DevOps/goLibMyCarrier/vault"
	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/gitdeps/internal/domain"
)

// Environment variable names.
const (
	// EnvConfigFile is the path to an optional YAML configuration file.
	EnvConfigFile = "GITDEPS_CONFIG"

	// EnvSearchPath is a list of search roots separated by os.PathListSeparator.
	EnvSearchPath = "GITDEPS_SEARCH_PATH"

	// EnvCacheRoot is the directory holding cloned working copies.
	EnvCacheRoot = "GITDEPS_CACHE_ROOT"

	// EnvLayout selects the working-copy naming rule (basename, hashed).
	EnvLayout = "GITDEPS_LAYOUT"

	// EnvAllowStale returns stale working copies when a fetch fails.
	EnvAllowStale = "GITDEPS_ALLOW_STALE"

	// EnvGitUsername and EnvGitToken are HTTP credentials for git remotes.
	EnvGitUsername = "GITDEPS_GIT_USERNAME"
	EnvGitToken    = "GITDEPS_GIT_TOKEN"

	// EnvVaultCredentialsPath is the path in Vault KV where git credentials are stored.
	EnvVaultCredentialsPath = "VAULT_GIT_CREDENTIALS_PATH"

	// EnvVaultCredentialsMount is the Vault KV mount point (defaults to "secret").
	EnvVaultCredentialsMount = "VAULT_GIT_CREDENTIALS_MOUNT"

	// EnvClickHouseHostname enables resolution auditing when set. The remaining
	// CLICKHOUSE_* variables are read by the goLibMyCarrier clickhouse loader.
	EnvClickHouseHostname = "CLICKHOUSE_HOSTNAME"

	// EnvAuditTable is the ClickHouse table resolution records are written to.
	EnvAuditTable = "GITDEPS_AUDIT_TABLE"

	// EnvLogLevel is the log level (debug, info, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogAppName is the application name for log context.
	EnvLogAppName = "LOG_APP_NAME"
)

// Default values.
const (
	DefaultConfigFile = "gitdeps.yaml"
	DefaultLogLevel   = "info"
	DefaultLogAppName = "gitdeps"
	DefaultVaultMount = "secret"
	DefaultAuditTable = "gitdeps_resolutions"
)

// Configuration errors.
var (
	// ErrConfigFileNotFound indicates the file named by GITDEPS_CONFIG does not exist.
	ErrConfigFileNotFound = errors.New("configuration file not found")

	// ErrConfigFileInvalid indicates the configuration file is not valid YAML.
	ErrConfigFileInvalid = errors.New("configuration file is not valid YAML")

	// ErrInvalidLayout indicates an unknown working-copy layout.
	ErrInvalidLayout = errors.New("invalid working copy layout: expected basename or hashed")

	// ErrInvalidValue indicates an environment variable could not be parsed.
	ErrInvalidValue = errors.New("invalid configuration value")

	// ErrClickHouseConfigInvalid indicates auditing is enabled but the ClickHouse settings are incomplete.
	ErrClickHouseConfigInvalid = errors.New("failed to load ClickHouse config")

	// ErrVaultClientFailed indicates failure to create or authenticate with Vault.
	ErrVaultClientFailed = errors.New("failed to create Vault client")

	// ErrVaultSecretNotFound indicates the secret was not found in Vault.
	ErrVaultSecretNotFound = errors.New("git credentials not found in Vault")

	// ErrVaultSecretInvalid indicates the secret holds no usable credentials.
	ErrVaultSecretInvalid = errors.New("git credentials secret has no token or password")
)

// VaultClient defines the interface for Vault operations.
// This interface allows for dependency injection and testing.
type VaultClient interface {
	// GetKVSecret retrieves a secret from Vault's KV v2 secrets engine.
	GetKVSecret(ctx context.Context, path, mount string) (map[string]interface{}, error)
}

// VaultClientFactory creates a VaultClient using AppRole authentication.
// This is the default factory used in production.
type VaultClientFactory func(ctx context.Context) (VaultClient, error)

// DefaultVaultClientFactory creates a VaultClient using goLibMyCarrier/vault with AppRole auth.
func DefaultVaultClientFactory(ctx context.Context) (VaultClient, error) {
	// Uses: VAULT_ADDRESS, VAULT_ROLE_ID, VAULT_SECRET_ID
	vaultConfig, err := vault.VaultLoadConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	client, err := vault.CreateVaultClient(ctx, vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	return client, nil
}

// Config holds all application configuration.
type Config struct {
	// SearchPaths are the ordered roots scanned for local dependencies.
	SearchPaths []string

	// CacheRoot is the absolute directory holding cloned working copies.
	CacheRoot string

	// Layout is the working-copy naming rule.
	Layout domain.Layout

	// AllowStale returns stale working copies when a fetch fails.
	AllowStale bool

	// Credentials authenticate HTTP git remotes.
	Credentials domain.Credentials

	// ClickHouse is nil when resolution auditing is disabled.
	ClickHouse *ch.ClickhouseConfig

	// AuditTable is the ClickHouse table resolution records are written to.
	AuditTable string

	// LogLevel is the logging level (debug, info, error).
	LogLevel string

	// LogAppName is the application name for log context.
	LogAppName string
}

// fileConfig is the YAML configuration file schema.
type fileConfig struct {
	SearchPaths []string `yaml:"search_paths"`
	CacheRoot   string   `yaml:"cache_root"`
	Layout      string   `yaml:"layout"`
	AllowStale  *bool    `yaml:"allow_stale"`
	AuditTable  string   `yaml:"audit_table"`
}

// Load loads the application configuration.
//
// Sources are applied in order, later ones winning:
//   - defaults
//   - the YAML file named by GITDEPS_CONFIG, or ./gitdeps.yaml when present
//   - GITDEPS_* environment variables
//
// Git credentials come from Vault when VAULT_GIT_CREDENTIALS_PATH is set
// (with VAULT_ADDRESS, VAULT_ROLE_ID, VAULT_SECRET_ID), otherwise from
// GITDEPS_GIT_USERNAME and GITDEPS_GIT_TOKEN.
func Load() (*Config, error) {
	return LoadWithVaultClient(context.Background(), nil)
}

// LoadWithVaultClient loads configuration using the provided VaultClient factory.
// If vaultClientFactory is nil, DefaultVaultClientFactory is used.
// This function enables dependency injection for testing.
func LoadWithVaultClient(ctx context.Context, vaultClientFactory VaultClientFactory) (*Config, error) {
	cfg := &Config{
		CacheRoot:  domain.DefaultCacheDirName,
		Layout:     domain.LayoutBasename,
		AuditTable: DefaultAuditTable,
		LogLevel:   DefaultLogLevel,
		LogAppName: DefaultLogAppName,
	}

	if err := applyFile(cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := ValidateLayout(cfg.Layout); err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(cfg.CacheRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache root %s: %w", cfg.CacheRoot, err)
	}
	cfg.CacheRoot = absRoot

	credentials, err := loadCredentials(ctx, vaultClientFactory)
	if err != nil {
		return nil, err
	}
	cfg.Credentials = credentials

	chConfig, err := loadClickHouseConfig()
	if err != nil {
		return nil, err
	}
	cfg.ClickHouse = chConfig

	return cfg, nil
}

// ValidateLayout returns ErrInvalidLayout for unknown layouts.
func ValidateLayout(layout domain.Layout) error {
	if layout.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidLayout, layout)
}

// applyFile merges the YAML configuration file into cfg.
func applyFile(cfg *Config) error {
	path := os.Getenv(EnvConfigFile)
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
			}
			return nil
		}
		return fmt.Errorf("failed to read configuration file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConfigFileInvalid, path, err)
	}

	if len(fc.SearchPaths) > 0 {
		cfg.SearchPaths = fc.SearchPaths
	}
	if fc.CacheRoot != "" {
		cfg.CacheRoot = fc.CacheRoot
	}
	if fc.Layout != "" {
		cfg.Layout = domain.Layout(fc.Layout)
	}
	if fc.AllowStale != nil {
		cfg.AllowStale = *fc.AllowStale
	}
	if fc.AuditTable != "" {
		cfg.AuditTable = fc.AuditTable
	}
	return nil
}

// applyEnv merges GITDEPS_* and log environment variables into cfg.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvSearchPath); v != "" {
		cfg.SearchPaths = SplitSearchPath(v)
	}
	if v := os.Getenv(EnvCacheRoot); v != "" {
		cfg.CacheRoot = v
	}
	if v := os.Getenv(EnvLayout); v != "" {
		cfg.Layout = domain.Layout(v)
	}
	if v := os.Getenv(EnvAllowStale); v != "" {
		allow, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, EnvAllowStale, v)
		}
		cfg.AllowStale = allow
	}
	if v := os.Getenv(EnvAuditTable); v != "" {
		cfg.AuditTable = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogAppName); v != "" {
		cfg.LogAppName = v
	}
	return nil
}

// SplitSearchPath splits a PATH-style list, dropping empty entries.
func SplitSearchPath(list string) []string {
	var paths []string
	for _, p := range filepath.SplitList(list) {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// loadCredentials reads git credentials from Vault or the environment.
func loadCredentials(ctx context.Context, vaultClientFactory VaultClientFactory) (domain.Credentials, error) {
	vaultPath := os.Getenv(EnvVaultCredentialsPath)
	if vaultPath == "" {
		return domain.Credentials{
			Username: os.Getenv(EnvGitUsername),
			Token:    os.Getenv(EnvGitToken),
		}, nil
	}

	if vaultClientFactory == nil {
		vaultClientFactory = DefaultVaultClientFactory
	}

	client, err := vaultClientFactory(ctx)
	if err != nil {
		return domain.Credentials{}, err
	}

	mount := os.Getenv(EnvVaultCredentialsMount)
	if mount == "" {
		mount = DefaultVaultMount
	}

	secretData, err := client.GetKVSecret(ctx, vaultPath, mount)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("%w at path %s: %w", ErrVaultSecretNotFound, vaultPath, err)
	}

	return parseCredentialsSecret(secretData)
}

// parseCredentialsSecret reads "username" and "token" (or "password") keys.
func parseCredentialsSecret(secretData map[string]interface{}) (domain.Credentials, error) {
	username, _ := secretData["username"].(string)
	token, _ := secretData["token"].(string)
	if token == "" {
		token, _ = secretData["password"].(string)
	}
	if token == "" {
		return domain.Credentials{}, ErrVaultSecretInvalid
	}
	return domain.Credentials{Username: username, Token: token}, nil
}

// loadClickHouseConfig returns nil when CLICKHOUSE_HOSTNAME is unset.
func loadClickHouseConfig() (*ch.ClickhouseConfig, error) {
	if os.Getenv(EnvClickHouseHostname) == "" {
		return nil, nil
	}

	chConfig, err := ch.ClickhouseLoadConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClickHouseConfigInvalid, err)
	}
	return chConfig, nil
}
