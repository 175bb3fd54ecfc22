// config предоставляет структуру конфигурации robot-helper и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
//
// Конфигурация загружается один раз при старте и далее передаётся по значению
// в конструкторы (token.New, password.NewHasher, service.New). Пакеты не читают
// окружение во время обработки запросов.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	Ops       OpsConfig       `yaml:"ops"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Relay     RelayConfig     `yaml:"relay"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
}

// HTTPConfig — публичный REST API.
type HTTPConfig struct {
	Host     string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"HTTP_PORT" env-default:"8000"`
	BasePath string `yaml:"base_path" env:"HTTP_BASE_PATH" env-default:""`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// OpsConfig — служебный HTTP: /livez, /healthz, /metrics.
type OpsConfig struct {
	Host string `yaml:"host" env:"OPS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"OPS_PORT" env-default:"8081"`
}

// Addr возвращает адрес в формате host:port.
func (o OpsConfig) Addr() string {
	return net.JoinHostPort(o.Host, o.Port)
}

// AuthConfig содержит параметры выпуска/проверки токенов и хэширования паролей.
// RequireActivation=true регистрирует пользователей неактивными (вход запрещён
// до активации администратором).
type AuthConfig struct {
	JWTSecret              string `yaml:"secret_key" env:"SECRET_KEY" env-required:"true"`
	Algorithm              string `yaml:"jwt_algorithm" env:"JWT_ALGORITHM" env-default:"HS256"`
	AccessTokenTTLMinutes  int    `yaml:"access_token_expire_minutes" env:"ACCESS_TOKEN_EXPIRE_MINUTES" env-default:"60"`
	RefreshTokenTTLMinutes int    `yaml:"refresh_token_expire_minutes" env:"REFRESH_TOKEN_EXPIRE_MINUTES" env-default:"1440"`
	Issuer                 string `yaml:"issuer" env:"JWT_ISSUER" env-default:"robot-helper"`
	BcryptCost             int    `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
	RequireActivation      bool   `yaml:"require_activation" env:"AUTH_REQUIRE_ACTIVATION"`
}

// AccessTokenTTL — время жизни access-токена.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL — время жизни refresh-токена.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLMinutes) * time.Minute
}

// DBConfig — настройки подключения к PostgreSQL.
// Миграции применяются при старте, если не выставлен SkipMigrations.
type DBConfig struct {
	DatabaseURL    string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
	SkipMigrations bool   `yaml:"skip_migrations" env:"DB_SKIP_MIGRATIONS"`
}

// RedisConfig — Redis опционален: без него нет denylist токенов и rate limit.
type RedisConfig struct {
	RedisURL  string `yaml:"redis_url" env:"REDIS_URL" env-default:""`
	KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"rh:"`
}

// Enabled сообщает, сконфигурирован ли Redis.
func (r RedisConfig) Enabled() bool {
	return r.RedisURL != ""
}

// RateLimitConfig — ограничения на эндпоинты регистрации/логина.
type RateLimitConfig struct {
	AuthPerMinute int `yaml:"auth_per_minute" env:"AUTH_RATE_LIMIT_PER_MINUTE" env-default:"10"`
}

// RelayConfig — исходящие вызовы внешнего API сообщений.
type RelayConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"RELAY_TIMEOUT" env-default:"10s"`
}

// TimeoutConfig — таймауты обработки запросов.
type TimeoutConfig struct {
	Request time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"15s"`
}

// Validate проверяет значения, которые нельзя выразить тегами cleanenv.
func (c *Config) Validate() error {
	if c.Auth.AccessTokenTTLMinutes <= 0 {
		return errors.New("access_token_expire_minutes must be positive")
	}

	if c.Auth.RefreshTokenTTLMinutes <= 0 {
		return errors.New("refresh_token_expire_minutes must be positive")
	}

	if c.RateLimit.AuthPerMinute < 0 {
		return errors.New("auth_per_minute must not be negative")
	}

	return nil
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла поверх значений из YAML накладываются ENV-переменные.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	readFile := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q does not exist: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	var (
		out *Config
		err error
	)

	switch {
	case path != "":
		out, err = readFile(path)
	case os.Getenv("CONFIG_PATH") != "":
		out, err = readFile(os.Getenv("CONFIG_PATH"))
	default:
		if _, statErr := os.Stat("local.yaml"); statErr == nil {
			out, err = readFile("local.yaml")
			break
		}

		if envErr := cleanenv.ReadEnv(&cfg); envErr != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", envErr)
		}
		out = &cfg
	}

	if err != nil {
		return nil, err
	}

	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return out, nil
}
