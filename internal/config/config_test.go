package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CHAUFFEUR_CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.Journey.ElapsedTick != 10*time.Second {
		t.Errorf("ElapsedTick = %v, want 10s", cfg.Journey.ElapsedTick)
	}
	if cfg.Tariff.TimeZone != "Europe/Dublin" {
		t.Errorf("TimeZone = %q", cfg.Tariff.TimeZone)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CHAUFFEUR_HTTP_ADDR", ":9090")
	t.Setenv("CHAUFFEUR_REDIS_DB", "3")
	t.Setenv("CHAUFFEUR_REDIS_FIX_FEED", "true")
	t.Setenv("CHAUFFEUR_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("CHAUFFEUR_ELAPSED_TICK", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Redis.DB != 3 || !cfg.Redis.FixFeed {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Journey.ElapsedTick != 2*time.Second {
		t.Errorf("ElapsedTick = %v", cfg.Journey.ElapsedTick)
	}
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chauffeur.yaml")
	content := []byte(`
http:
  addr: ":7070"
kafka:
  topic: "from-file"
journey:
  reconcile_every: 45s
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHAUFFEUR_CONFIG_FILE", path)
	t.Setenv("CHAUFFEUR_KAFKA_TOPIC", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != ":7070" {
		t.Errorf("HTTP.Addr = %q, want file value", cfg.HTTP.Addr)
	}
	if cfg.Kafka.Topic != "from-env" {
		t.Errorf("Kafka.Topic = %q, want env value", cfg.Kafka.Topic)
	}
	if cfg.Journey.ReconcileEvery != 45*time.Second {
		t.Errorf("ReconcileEvery = %v", cfg.Journey.ReconcileEvery)
	}
	if cfg.Journey.ElapsedTick != 10*time.Second {
		t.Errorf("ElapsedTick = %v, want default kept", cfg.Journey.ElapsedTick)
	}
}

func TestLoad_BadTimeZone(t *testing.T) {
	t.Setenv("CHAUFFEUR_TARIFF_TIME_ZONE", "Mars/Olympus")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown time zone")
	}
}
