package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	StorageDriver string
	MigrationsDir string

	ServerPort  string
	CORSOrigins []string

	JWTSecret   string
	TokenMaxAge int

	RedisURL    string
	WorkerCount int

	GitHubClientID     string
	GitHubClientSecret string
	GitHubAPIURL       string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	DefaultAvatarURL string

	LogLevel  string
	LogFormat string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found or error loading it, relying on environment variables")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("TOKEN_MAX_AGE", 36000)
	v.SetDefault("WORKER_COUNT", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("GITHUB_API_URL", "https://api.github.com")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		StorageDriver: strings.ToLower(v.GetString("STORAGE_DRIVER")),
		MigrationsDir: v.GetString("MIGRATIONS_DIR"),

		ServerPort:  v.GetString("SERVER_PORT"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),

		JWTSecret:   v.GetString("JWT_SECRET"),
		TokenMaxAge: v.GetInt("TOKEN_MAX_AGE"),

		RedisURL:    v.GetString("REDIS_URL"),
		WorkerCount: v.GetInt("WORKER_COUNT"),

		GitHubClientID:     v.GetString("GITHUB_CLIENT_ID"),
		GitHubClientSecret: v.GetString("GITHUB_CLIENT_SECRET"),
		GitHubAPIURL:       strings.TrimSuffix(v.GetString("GITHUB_API_URL"), "/"),

		R2AccountID:       v.GetString("R2_ACCOUNT_ID"),
		R2AccessKeyID:     v.GetString("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: v.GetString("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      v.GetString("R2_BUCKET_NAME"),
		R2PublicURL:       v.GetString("R2_PUBLIC_URL"),

		DefaultAvatarURL: v.GetString("DEFAULT_AVATAR_URL"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.TokenMaxAge <= 0 {
		cfg.TokenMaxAge = 36000
	}
	switch cfg.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		return nil, errors.New("STORAGE_DRIVER must be postgres or memory")
	}

	return cfg, nil
}

// MediaEnabled reports whether every R2 setting needed for uploads is present.
func (c *Config) MediaEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimRight(strings.TrimSpace(p), "/"); p != "" {
			out = append(out, p)
		}
	}
	return out
}
