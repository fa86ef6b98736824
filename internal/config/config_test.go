package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TASKGRID_JWT_SECRET", "s3cret")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":5000" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.Store != StoreSQLite || cfg.DBPath != "data/taskgrid.db" {
		t.Errorf("unexpected store settings: %+v", cfg)
	}
	if cfg.TokenTTL != 12*time.Hour {
		t.Errorf("token ttl = %s", cfg.TokenTTL)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"*"}) {
		t.Errorf("cors origins = %v", cfg.CORSOrigins)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("TASKGRID_JWT_SECRET", "s3cret")
	t.Setenv("TASKGRID_ADDR", ":9000")

	cfg, err := Load([]string{"-addr", ":7000", "-store", "mongo", "-mongo-db", "tg", "-cors-origins", "http://a.test,http://b.test"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("flag should win over env, got %q", cfg.Addr)
	}
	if cfg.Store != StoreMongo || cfg.MongoDB != "tg" {
		t.Errorf("unexpected mongo settings: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("cors origins = %v", cfg.CORSOrigins)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "missing secret", env: map[string]string{"TASKGRID_JWT_SECRET": ""}},
		{name: "unknown store", env: map[string]string{"TASKGRID_JWT_SECRET": "x"}, args: []string{"-store", "redis"}},
		{name: "negative ttl", env: map[string]string{"TASKGRID_JWT_SECRET": "x"}, args: []string{"-token-ttl", "-1h"}},
		{name: "unknown flag", env: map[string]string{"TASKGRID_JWT_SECRET": "x"}, args: []string{"-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(tt.args); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("TASKGRID_DOTENV_PROBE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("TASKGRID_DOTENV_PROBE", "")
	os.Unsetenv("TASKGRID_DOTENV_PROBE")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("TASKGRID_DOTENV_PROBE"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
}
