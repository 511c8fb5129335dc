package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rai/shop-workflow-go/internal/platform/config"
)

const deployment = `
server:
  port: 9090
workflow:
  modules: [base, manual_payment, cancel, partial_delivery, verify]
  guards:
    ship_order: "total < 100000"
  extra_keys: [gift_wrap]
  guard_timeout: 500ms
lock:
  driver: zookeeper
  zookeeper:
    servers: [zk1:2181, zk2:2181]
notifications:
  kafka:
    brokers: [kafka:9092]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, deployment))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if len(cfg.Workflow.Modules) != 5 || cfg.Workflow.Modules[3] != "partial_delivery" {
		t.Errorf("unexpected modules %v", cfg.Workflow.Modules)
	}
	if cfg.Workflow.Guards["ship_order"] == "" {
		t.Error("expected ship_order guard")
	}
	if cfg.Workflow.GuardTimeout != 500*time.Millisecond {
		t.Errorf("expected guard timeout 500ms, got %v", cfg.Workflow.GuardTimeout)
	}
	// untouched defaults survive
	if cfg.Workflow.BodyTimeout != 5*time.Second {
		t.Errorf("expected default body timeout, got %v", cfg.Workflow.BodyTimeout)
	}
	if cfg.Notifications.Kafka.Topic != "shop.mail" {
		t.Errorf("expected default topic, got %q", cfg.Notifications.Kafka.Topic)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Notifications.RedisAddr != "redis:6379" {
		t.Errorf("expected redis addr from env, got %q", cfg.Notifications.RedisAddr)
	}
	if len(cfg.Notifications.Kafka.Brokers) != 2 {
		t.Errorf("expected 2 brokers, got %v", cfg.Notifications.Kafka.Brokers)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown field", content: "workflow:\n  moduls: [base]\n"},
		{name: "unknown storage driver", content: "storage:\n  driver: postgres\n"},
		{name: "zookeeper without servers", content: "lock:\n  driver: zookeeper\n"},
		{name: "mysql without dsn", content: "notifications:\n  rules_driver: mysql\n"},
		{name: "no modules", content: "workflow:\n  modules: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := config.Load(writeConfig(t, tt.content)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
