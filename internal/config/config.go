// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Supported catalog store kinds.
const (
	StoreFile     = "file"
	StoreNATS     = "nats"
	StorePostgres = "postgres"
)

// Config holds all configuration values for promptr.
type Config struct {
	Store       string `mapstructure:"store" yaml:"store"`
	Catalog     string `mapstructure:"catalog" yaml:"catalog"`
	DataDir     string `mapstructure:"data_dir" yaml:"data_dir"`
	NATSURL     string `mapstructure:"nats_url" yaml:"nats_url"`
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	Project     string `mapstructure:"project" yaml:"project"`
	Language    string `mapstructure:"language" yaml:"language"`
	MaxDepth    int    `mapstructure:"max_depth" yaml:"max_depth"`
	MCPAddr     string `mapstructure:"mcp_addr" yaml:"mcp_addr"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		Store:    StoreFile,
		Catalog:  "prompts.yml",
		DataDir:  ".promptr",
		Project:  "default-project",
		MaxDepth: 5,
		MCPAddr:  "127.0.0.1:0",
		LogLevel: "info",
	}
}

// keys lists every config key; each binds to PROMPTR_<KEY>.
var keys = []string{
	"store", "catalog", "data_dir", "nats_url", "postgres_dsn", "project",
	"language", "max_depth", "mcp_addr", "log_level", "log_file",
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("promptr")

	d := Defaults()
	v.SetDefault("store", d.Store)
	v.SetDefault("catalog", d.Catalog)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("nats_url", "")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("project", d.Project)
	v.SetDefault("language", "")
	v.SetDefault("max_depth", d.MaxDepth)
	v.SetDefault("mcp_addr", d.MCPAddr)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", "")

	v.SetEnvPrefix("PROMPTR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit bindings so Unmarshal sees env-only values.
	for _, key := range keys {
		env := "PROMPTR_" + strings.ToUpper(key)
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))

	return &cfg, nil
}

// Validate checks the settings that the store and engine depend on.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile:
		if c.Catalog == "" {
			return fmt.Errorf("catalog path is required for the %s store", StoreFile)
		}
	case StoreNATS:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required for the %s store (set PROMPTR_POSTGRES_DSN)", StorePostgres)
		}
	default:
		return fmt.Errorf("unknown store %q (want %s, %s or %s)", c.Store, StoreFile, StoreNATS, StorePostgres)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.Project == "" {
		return fmt.Errorf("project is required")
	}
	return nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/promptr/promptr.yml or $XDG_CONFIG_HOME/promptr/promptr.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "promptr", "promptr.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "promptr", "promptr.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "promptr.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return write(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
