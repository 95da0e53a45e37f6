package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/salonbot/core/config"
)

const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// SalonConfig holds the business settings of the salon.
type SalonConfig struct {
	MasterPassword string `yaml:"master_password" envconfig:"MASTER_PASSWORD"`
	MasterContact  string `yaml:"master_contact" envconfig:"MASTER_CONTACT"`
}

// StorageConfig locates the asset directory and review files.
type StorageConfig struct {
	AssetsDir   string `yaml:"assets_dir" envconfig:"ASSETS_DIR"`
	ReviewsFile string `yaml:"reviews_file" envconfig:"REVIEWS_FILE"`
	BackupDir   string `yaml:"backup_dir" envconfig:"BACKUP_DIR"`
}

// RedisConfig holds connection settings for the redis session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// SessionConfig selects where chat state lives.
type SessionConfig struct {
	Backend string `yaml:"backend" envconfig:"SESSION_BACKEND"`
	// PendingTTL expires unanswered prompts; 0 keeps them until answered.
	PendingTTL time.Duration `yaml:"pending_ttl" envconfig:"SESSION_PENDING_TTL"`
	KeyPrefix  string        `yaml:"key_prefix" envconfig:"SESSION_KEY_PREFIX"`
	Redis      RedisConfig   `yaml:"redis"`
}

// HealthConfig configures the status HTTP server. An empty Listen disables it.
type HealthConfig struct {
	Listen      string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
	Environment string `yaml:"environment" envconfig:"RAILWAY_ENVIRONMENT"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Salon   SalonConfig   `yaml:"salon"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Health  HealthConfig  `yaml:"health"`
}

// CoreConfig returns the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// Load reads path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		cfg.Telegram.Token = strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cfg.Salon.MasterPassword = strings.TrimSpace(cfg.Salon.MasterPassword)
	if cfg.Salon.MasterPassword == "" {
		return fmt.Errorf("salon.master_password is required")
	}
	cfg.Salon.MasterContact = strings.TrimSpace(cfg.Salon.MasterContact)

	if strings.TrimSpace(cfg.Storage.AssetsDir) == "" {
		cfg.Storage.AssetsDir = "data/assets"
	}
	if strings.TrimSpace(cfg.Storage.ReviewsFile) == "" {
		cfg.Storage.ReviewsFile = filepath.Join("data", "reviews", "reviews.json")
	}
	if strings.TrimSpace(cfg.Storage.BackupDir) == "" {
		cfg.Storage.BackupDir = filepath.Join(filepath.Dir(cfg.Storage.ReviewsFile), "backups")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	switch backend {
	case "":
		backend = SessionMemory
	case SessionMemory:
	case SessionRedis:
		if strings.TrimSpace(cfg.Session.Redis.Addr) == "" {
			return fmt.Errorf("session.redis.addr is required when session.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis", cfg.Session.Backend)
	}
	cfg.Session.Backend = backend
	if cfg.Session.PendingTTL < 0 {
		return fmt.Errorf("session.pending_ttl must be >= 0")
	}

	cfg.Health.Listen = strings.TrimSpace(cfg.Health.Listen)
	if strings.TrimSpace(cfg.Health.Environment) == "" {
		cfg.Health.Environment = "development"
	}
	return nil
}
