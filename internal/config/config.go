package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Detector  DetectorConfig
	Severity  SeverityConfig
	Health    HealthConfig
	Scheduler SchedulerConfig
	Mimir     MimirConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdleConns   int
	MigrationsPath string
}

type AuthConfig struct {
	JWTSecret string
}

type DetectorConfig struct {
	QueryTimeout       time.Duration
	TriggerWindowHours int
	SlowQueryThreshold time.Duration
	FullCheckPerMinute int
}

// SeverityConfig holds the classification boundaries. The exact bucket
// edges are operational tuning, not law, so they live in config.
type SeverityConfig struct {
	MediumThreshold int
	HighThreshold   int
}

// HealthConfig weights the per-category counts in the composite score.
// Contamination weighs heaviest, trigger failures lightest.
type HealthConfig struct {
	ContaminationWeight int
	OrphanWeight        int
	TriggerWeight       int
}

type SchedulerConfig struct {
	Enabled       bool
	CheckInterval time.Duration
}

type MimirConfig struct {
	URL           string
	TenantHeader  string
	FallbackOrg   string
	BatchSize     int
	FlushInterval time.Duration
	AuthToken     string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("INTEGRITY")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.maxconnections", 25)
	viper.SetDefault("database.maxidleconns", 5)
	viper.SetDefault("database.migrationspath", "file://migrations")
	viper.SetDefault("detector.querytimeout", "10s")
	viper.SetDefault("detector.triggerwindowhours", 24)
	viper.SetDefault("detector.slowquerythreshold", "2s")
	viper.SetDefault("detector.fullcheckperminute", 6)
	viper.SetDefault("severity.mediumthreshold", 5)
	viper.SetDefault("severity.highthreshold", 20)
	viper.SetDefault("health.contaminationweight", 10)
	viper.SetDefault("health.orphanweight", 5)
	viper.SetDefault("health.triggerweight", 2)
	viper.SetDefault("scheduler.enabled", true)
	viper.SetDefault("scheduler.checkinterval", "1m")
	viper.SetDefault("mimir.tenantheader", "X-Scope-OrgID")
	viper.SetDefault("mimir.fallbackorg", "platform")
	viper.SetDefault("mimir.batchsize", 1000)
	viper.SetDefault("mimir.flushinterval", "10s")

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Override with environment variables
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if url := os.Getenv("MIMIR_URL"); url != "" {
		cfg.Mimir.URL = url
	}
	if token := os.Getenv("MIMIR_AUTH_TOKEN"); token != "" {
		cfg.Mimir.AuthToken = token
	}

	return &cfg, nil
}
