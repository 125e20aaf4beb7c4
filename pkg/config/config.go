// File: pkg/config/config.go
package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AuthConfig struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	SessionTouchTTL  time.Duration
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type PostgresConfig struct {
	DSN      string
	MaxConns int32
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// BackupConfig also carries the connection parameters handed to pg_dump/psql.
type BackupConfig struct {
	Dir           string
	RetentionDays int
	PgDumpPath    string
	PsqlPath      string
	DBHost        string
	DBPort        string
	DBName        string
	DBUser        string
	DBPassword    string
}

type AuditConfig struct {
	RetentionDays int
}

type MonitoringConfig struct {
	HistorySize    int
	APIHistorySize int
}

type UploadConfig struct {
	Dir string
}

// SeederConfig is read only by the seed command.
type SeederConfig struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

type Config struct {
	Server     ServerConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Auth       AuthConfig
	Backup     BackupConfig
	Audit      AuditConfig
	Monitoring MonitoringConfig
	Uploads    UploadConfig
	Seeder     SeederConfig
	LogLevel   string
}

func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or could not be loaded.")
	}

	backup := BackupConfig{
		Dir:           getEnv("BACKUP_DIR", "/backups/database"),
		RetentionDays: getEnvInt("BACKUP_RETENTION_DAYS", 30),
		PgDumpPath:    getEnv("PG_DUMP_PATH", "pg_dump"),
		PsqlPath:      getEnv("PSQL_PATH", "psql"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBName:        getEnv("DB_NAME", "nusantara_erp"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
	}

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Postgres: PostgresConfig{
			DSN:      getEnv("DATABASE_URL", backup.DSN()),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET_KEY", "change-me-in-production"),
			AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TTL", time.Hour*24),
			RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TTL", time.Hour*24*7),
		},
		Auth: AuthConfig{
			MaxLoginAttempts: getEnvInt("AUTH_MAX_LOGIN_ATTEMPTS", 5),
			LockoutDuration:  getEnvDuration("AUTH_LOCKOUT_DURATION", time.Minute*15),
			SessionTouchTTL:  time.Minute,
		},
		Backup: backup,
		Audit: AuditConfig{
			RetentionDays: getEnvInt("AUDIT_RETENTION_DAYS", 90),
		},
		Monitoring: MonitoringConfig{
			HistorySize:    getEnvInt("MONITORING_HISTORY_SIZE", 60),
			APIHistorySize: getEnvInt("MONITORING_API_HISTORY_SIZE", 100),
		},
		Uploads: UploadConfig{
			Dir: getEnv("UPLOAD_DIR", "uploads"),
		},
		Seeder: SeederConfig{
			AdminUsername: getEnv("ADMIN_USERNAME", "superadmin"),
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@nusantara-group.co.id"),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}
}

// DSN builds a postgres URL from the discrete DB_* settings.
func (b BackupConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(b.DBUser, b.DBPassword),
		Host:     fmt.Sprintf("%s:%s", b.DBHost, b.DBPort),
		Path:     b.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not a duration, using %s", key, value, fallback)
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
