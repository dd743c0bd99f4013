package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Upstream UpstreamsConfig
	Cache    CacheConfig
	AI       AIConfig
	Email    EmailConfig
	Billing  BillingConfig
	Log      LogConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
	// Mode: "debug" или "release" (совпадает с режимами gin)
	Mode        string
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Для 'single' используется первый адрес.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// UpstreamConfig описывает внешний REST API, который проксируется как есть
type UpstreamConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	APIKeyHeader string `mapstructure:"api_key_header"`
	// TimeoutSec: явный таймаут запроса к upstream, 0 - только контекст запроса
	TimeoutSec int `mapstructure:"timeout_sec"`
}

// Timeout возвращает таймаут как time.Duration
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSec) * time.Second
}

// UpstreamsConfig - настройки проксируемых API
type UpstreamsConfig struct {
	JLPT   UpstreamConfig `mapstructure:"jlpt"`
	Dict   UpstreamConfig `mapstructure:"dict"`
	TraCau UpstreamConfig `mapstructure:"tracau"`
}

// CacheConfig - настройки кеширования ответов словаря
type CacheConfig struct {
	DictTTLSec int `mapstructure:"dict_ttl_sec"`
}

// AIConfig - настройки AI-ассистента
type AIConfig struct {
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	MaxMessages int    `mapstructure:"max_messages"`
}

// EmailConfig - настройки отправки писем через Resend
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// BillingConfig - настройки кодов активации
type BillingConfig struct {
	CodePrefix      string `mapstructure:"code_prefix"`
	DefaultPlanDays int    `mapstructure:"default_plan_days"`
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// IsRelease сообщает, что сервер запущен в production-режиме
func (s ServerConfig) IsRelease() bool {
	return s.Mode == "release"
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// setDefaults задает значения по умолчанию
func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readTimeout", 15)
	vip.SetDefault("server.writeTimeout", 30)
	vip.SetDefault("server.mode", "debug")
	vip.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")

	vip.SetDefault("redis.mode", "single")

	vip.SetDefault("jwt.expirationHrs", 24)

	vip.SetDefault("upstream.jlpt.api_key_header", "X-API-Key")
	vip.SetDefault("upstream.dict.api_key_header", "X-API-Key")
	vip.SetDefault("upstream.tracau.api_key_header", "X-API-Key")
	// Единственный upstream с явным таймаутом
	vip.SetDefault("upstream.tracau.timeout_sec", 8)

	vip.SetDefault("cache.dict_ttl_sec", 3600)

	vip.SetDefault("ai.model", "gemini-2.5-flash")
	vip.SetDefault("ai.max_messages", 20)

	vip.SetDefault("billing.code_prefix", "JLPT")
	vip.SetDefault("billing.default_plan_days", 30)

	vip.SetDefault("log.level", "info")
}

// bindEnv привязывает переменные окружения ЯВНО
func bindEnv(vip *viper.Viper) {
	bindings := map[string]string{
		"server.port":         "SERVER_PORT",
		"server.mode":         "GIN_MODE",
		"server.cors_origins": "SERVER_CORS_ORIGINS",

		"database.host":     "DATABASE_HOST",
		"database.port":     "DATABASE_PORT",
		"database.user":     "DATABASE_USER",
		"database.password": "DATABASE_PASSWORD",
		"database.dbname":   "DATABASE_DBNAME",
		"database.sslmode":  "DATABASE_SSLMODE",

		"redis.mode":        "REDIS_MODE",
		"redis.addrs":       "REDIS_ADDRS",
		"redis.addr":        "REDIS_ADDR",
		"redis.password":    "REDIS_PASSWORD",
		"redis.db":          "REDIS_DB",
		"redis.master_name": "REDIS_MASTER_NAME",

		"jwt.secret":        "JWT_SECRET",
		"jwt.expirationHrs": "JWT_EXPIRATIONHRS",

		"upstream.jlpt.base_url":   "UPSTREAM_JLPT_BASE_URL",
		"upstream.jlpt.api_key":    "UPSTREAM_JLPT_API_KEY",
		"upstream.dict.base_url":   "UPSTREAM_DICT_BASE_URL",
		"upstream.dict.api_key":    "UPSTREAM_DICT_API_KEY",
		"upstream.tracau.base_url": "UPSTREAM_TRACAU_BASE_URL",
		"upstream.tracau.api_key":  "UPSTREAM_TRACAU_API_KEY",

		"ai.api_key": "GEMINI_API_KEY",
		"ai.model":   "AI_MODEL",

		"email.resend_api_key": "RESEND_API_KEY",
		"email.from":           "EMAIL_FROM",

		"log.level": "LOG_LEVEL",
	}
	for key, env := range bindings {
		_ = vip.BindEnv(key, env)
	}
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Новый экземпляр Viper, чтобы избежать глобального состояния

	setDefaults(vip)
	bindEnv(vip)

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файла может не быть: остаются переменные окружения и умолчания
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Списки из env приходят одной строкой через запятую
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)
	cfg.Redis.Addrs = splitList(cfg.Redis.Addrs)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.Server.IsRelease() && c.Database.Password == "" {
		return fmt.Errorf("database password is required in production mode (check DATABASE_PASSWORD env var)")
	}
	return nil
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
