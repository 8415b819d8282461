package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points both config locations at a fresh temp dir and clears
// PROMPTR_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	origWd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp dir: %v", err)
	}

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	for _, key := range keys {
		env := "PROMPTR_" + strings.ToUpper(key)
		if v, ok := os.LookupEnv(env); ok {
			t.Setenv(env, v)
			_ = os.Unsetenv(env)
		}
	}
	return tmpDir
}

func TestGlobalPath(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got, want := GlobalPath(), "/custom/config/promptr/promptr.yml"; got != want {
			t.Errorf("GlobalPath() = %v, want %v", got, want)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		got := GlobalPath()
		if !filepath.IsAbs(got) {
			t.Errorf("GlobalPath() should return absolute path, got %v", got)
		}
		if !strings.HasSuffix(got, filepath.Join(".config", "promptr", "promptr.yml")) {
			t.Errorf("GlobalPath() = %v, want .config/promptr/promptr.yml suffix", got)
		}
	})
}

func TestProjectPath(t *testing.T) {
	if got := ProjectPath(); got != "promptr.yml" {
		t.Errorf("ProjectPath() = %v, want promptr.yml", got)
	}
}

func TestExists(t *testing.T) {
	isolate(t)

	if Exists() {
		t.Error("Exists() = true, want false when no config files exist")
	}

	if err := os.WriteFile(ProjectPath(), []byte("store: file\n"), 0644); err != nil {
		t.Fatalf("Failed to write project config: %v", err)
	}
	if !Exists() {
		t.Error("Exists() = false, want true when project config exists")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != *Defaults() {
		t.Errorf("Load() = %+v, want defaults %+v", *cfg, *Defaults())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_Precedence(t *testing.T) {
	isolate(t)

	global := Defaults()
	global.Store = StoreNATS
	global.Language = "fr-FR"
	global.MaxDepth = 3
	if err := WriteGlobal(global); err != nil {
		t.Fatalf("WriteGlobal() error = %v", err)
	}

	if err := os.WriteFile(ProjectPath(), []byte("language: de-DE\nproject: shop\n"), 0644); err != nil {
		t.Fatalf("Failed to write project config: %v", err)
	}
	t.Setenv("PROMPTR_MAX_DEPTH", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store != StoreNATS {
		t.Errorf("Store = %q, want global value %q", cfg.Store, StoreNATS)
	}
	if cfg.Language != "de-DE" {
		t.Errorf("Language = %q, want project override de-DE", cfg.Language)
	}
	if cfg.Project != "shop" {
		t.Errorf("Project = %q, want shop", cfg.Project)
	}
	if cfg.MaxDepth != 8 {
		t.Errorf("MaxDepth = %d, want env override 8", cfg.MaxDepth)
	}
}

func TestWriteProject(t *testing.T) {
	isolate(t)

	cfg := Defaults()
	cfg.Store = StorePostgres
	cfg.PostgresDSN = "postgres://localhost/prompts"
	if err := WriteProject(cfg); err != nil {
		t.Fatalf("WriteProject() error = %v", err)
	}

	data, err := os.ReadFile(ProjectPath())
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}
	for _, field := range []string{
		"store: postgres",
		"postgres_dsn: postgres://localhost/prompts",
		"max_depth: 5",
		"catalog: prompts.yml",
	} {
		if !strings.Contains(string(data), field) {
			t.Errorf("Config file missing expected field: %s\nContent:\n%s", field, data)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "nats", mutate: func(c *Config) { c.Store = StoreNATS }},
		{name: "unknown store", mutate: func(c *Config) { c.Store = "redis" }, wantErr: "unknown store"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store = StorePostgres }, wantErr: "postgres_dsn"},
		{name: "zero depth", mutate: func(c *Config) { c.MaxDepth = 0 }, wantErr: "max_depth"},
		{name: "empty catalog", mutate: func(c *Config) { c.Catalog = "" }, wantErr: "catalog path"},
		{name: "empty project", mutate: func(c *Config) { c.Project = "" }, wantErr: "project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
