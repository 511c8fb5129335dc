// Package config loads the deployment configuration from YAML with
// environment overrides for endpoints and credentials.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        Server        `yaml:"server"`
	Workflow      Workflow      `yaml:"workflow"`
	Storage       Storage       `yaml:"storage"`
	Lock          Lock          `yaml:"lock"`
	Notifications Notifications `yaml:"notifications"`
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type Workflow struct {
	Modules []string `yaml:"modules"`
	// Guards maps a transition name to a CEL expression over the order.
	Guards            map[string]string `yaml:"guards"`
	ExtraKeys         []string          `yaml:"extra_keys"`
	MaxAutomaticDepth int               `yaml:"max_automatic_depth"`
	GuardTimeout      time.Duration     `yaml:"guard_timeout"`
	BodyTimeout       time.Duration     `yaml:"body_timeout"`
}

// Storage selects where orders, deliveries and staff live: memory or spanner.
type Storage struct {
	Driver  string  `yaml:"driver"`
	Spanner Spanner `yaml:"spanner"`
}

type Spanner struct {
	ProjectID   string `yaml:"project_id"`
	InstanceID  string `yaml:"instance_id"`
	DatabaseID  string `yaml:"database_id"`
	MinSessions uint64 `yaml:"min_sessions"`
	MaxSessions uint64 `yaml:"max_sessions"`
}

// Lock selects the per-order lock: memory or zookeeper.
type Lock struct {
	Driver    string    `yaml:"driver"`
	ZooKeeper ZooKeeper `yaml:"zookeeper"`
}

type ZooKeeper struct {
	Servers        []string      `yaml:"servers"`
	SessionTimeout time.Duration `yaml:"session_timeout"`
	Root           string        `yaml:"root"`
}

type Notifications struct {
	// RulesDriver is memory or mysql.
	RulesDriver    string        `yaml:"rules_driver"`
	MySQLDSN       string        `yaml:"mysql_dsn"`
	Kafka          Kafka         `yaml:"kafka"`
	RedisAddr      string        `yaml:"redis_addr"`
	DedupeTTL      time.Duration `yaml:"dedupe_ttl"`
	AttachmentsDir string        `yaml:"attachments_dir"`
	Workers        int           `yaml:"workers"`
	QueueSize      int           `yaml:"queue_size"`
	VendorEmail    string        `yaml:"vendor_email"`
	VendorName     string        `yaml:"vendor_name"`
}

// Kafka is disabled when Brokers is empty; mail then stays in memory.
type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Default returns a single-process configuration with every backend in memory.
func Default() Config {
	return Config{
		Server: Server{Port: 8080},
		Workflow: Workflow{
			Modules:           []string{"base", "manual_payment", "simple_shipping", "cancel"},
			MaxAutomaticDepth: 10,
			GuardTimeout:      2 * time.Second,
			BodyTimeout:       5 * time.Second,
		},
		Storage: Storage{
			Driver: "memory",
			Spanner: Spanner{
				ProjectID:  "local-project",
				InstanceID: "local-instance",
				DatabaseID: "app-db",
			},
		},
		Lock: Lock{
			Driver: "memory",
			ZooKeeper: ZooKeeper{
				SessionTimeout: 10 * time.Second,
				Root:           "/shop/locks",
			},
		},
		Notifications: Notifications{
			RulesDriver: "memory",
			Kafka:       Kafka{Topic: "shop.mail"},
			DedupeTTL:   24 * time.Hour,
			Workers:     4,
			QueueSize:   256,
		},
	}
}

// Load reads path on top of Default and applies environment overrides. An
// empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, rejecting unknown fields.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("HTTP_HOST", c.Server.Host)
	if port, err := strconv.Atoi(os.Getenv("HTTP_PORT")); err == nil {
		c.Server.Port = port
	}
	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.Spanner.ProjectID = getEnv("SPANNER_PROJECT_ID", c.Storage.Spanner.ProjectID)
	c.Storage.Spanner.InstanceID = getEnv("SPANNER_INSTANCE_ID", c.Storage.Spanner.InstanceID)
	c.Storage.Spanner.DatabaseID = getEnv("SPANNER_DATABASE_ID", c.Storage.Spanner.DatabaseID)
	c.Lock.Driver = getEnv("LOCK_DRIVER", c.Lock.Driver)
	if servers := os.Getenv("ZOOKEEPER_SERVERS"); servers != "" {
		c.Lock.ZooKeeper.Servers = strings.Split(servers, ",")
	}
	c.Notifications.RulesDriver = getEnv("RULES_DRIVER", c.Notifications.RulesDriver)
	c.Notifications.MySQLDSN = getEnv("MYSQL_DSN", c.Notifications.MySQLDSN)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Notifications.Kafka.Brokers = strings.Split(brokers, ",")
	}
	c.Notifications.RedisAddr = getEnv("REDIS_ADDR", c.Notifications.RedisAddr)
}

// Validate checks driver names and the settings each driver needs.
func (c Config) Validate() error {
	var errs []error
	if len(c.Workflow.Modules) == 0 {
		errs = append(errs, errors.New("workflow.modules is empty"))
	}
	switch c.Storage.Driver {
	case "memory", "spanner":
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	switch c.Lock.Driver {
	case "memory":
	case "zookeeper":
		if len(c.Lock.ZooKeeper.Servers) == 0 {
			errs = append(errs, errors.New("lock.zookeeper.servers is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown lock.driver %q", c.Lock.Driver))
	}
	switch c.Notifications.RulesDriver {
	case "memory":
	case "mysql":
		if c.Notifications.MySQLDSN == "" {
			errs = append(errs, errors.New("notifications.mysql_dsn is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown notifications.rules_driver %q", c.Notifications.RulesDriver))
	}
	return errors.Join(errs...)
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
