package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/cwrk-planet/chat-service/internal/pg"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "./config/config.yaml"
	EnvPrefix   = "CHAT"

	DriverBadger   = "badger"
	DriverPostgres = "postgres"
)

type HTTP struct {
	Addr            string        `yaml:"addr" split_words:"true"`
	ReadTimeout     time.Duration `yaml:"readTimeout" split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idleTimeout" split_words:"true"`
	RequestTimeout  time.Duration `yaml:"requestTimeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" split_words:"true"`
}

type GRPC struct {
	Addr           string        `yaml:"addr" split_words:"true"`
	DefaultTimeout time.Duration `yaml:"defaultTimeout" split_words:"true"`
}

type Logging struct {
	Env       string `yaml:"env" split_words:"true"`       // dev|stage|prod
	Service   string `yaml:"service" split_words:"true"`   // chat-service
	Version   string `yaml:"version" split_words:"true"`   // v0.1.0
	Backend   string `yaml:"backend" split_words:"true"`   // std|zap
	Level     string `yaml:"level" split_words:"true"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource" split_words:"true"` // false|true
	Debug     bool   `yaml:"debug" split_words:"true"`     // false|true
}

type Postgres struct {
	DSN               string        `yaml:"dsn" split_words:"true"`
	MaxConns          int32         `yaml:"maxConns" split_words:"true"`
	MinConns          int32         `yaml:"minConns" split_words:"true"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime" split_words:"true"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime" split_words:"true"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod" split_words:"true"`
	ApplicationName   string        `yaml:"applicationName" split_words:"true"`
	PingTimeout       time.Duration `yaml:"pingTimeout" split_words:"true"`
	Migrate           bool          `yaml:"migrate" split_words:"true"`
}

func (p Postgres) ToPGConfig() pg.Config {
	return pg.Config{
		DSN:               p.DSN,
		MaxConns:          p.MaxConns,
		MinConns:          p.MinConns,
		MaxConnLifetime:   p.MaxConnLifetime,
		MaxConnIdleTime:   p.MaxConnIdleTime,
		HealthCheckPeriod: p.HealthCheckPeriod,
		ApplicationName:   p.ApplicationName,
		PingTimeout:       p.PingTimeout,
	}
}

type Badger struct {
	Path     string `yaml:"path" split_words:"true"`
	InMemory bool   `yaml:"inMemory" split_words:"true"`
}

type Storage struct {
	Driver   string   `yaml:"driver" split_words:"true"` // badger|postgres
	Postgres Postgres `yaml:"postgres" split_words:"true"`
	Badger   Badger   `yaml:"badger" split_words:"true"`
}

type Media struct {
	Root      string `yaml:"root" split_words:"true"`
	URLPrefix string `yaml:"urlPrefix" split_words:"true"`
	MaxUpload int64  `yaml:"maxUpload" split_words:"true"`
}

type WS struct {
	PingInterval time.Duration `yaml:"pingInterval" split_words:"true"`
	WriteTimeout time.Duration `yaml:"writeTimeout" split_words:"true"`
	SendBuffer   int           `yaml:"sendBuffer" split_words:"true"`
	ReadLimit    int64         `yaml:"readLimit" split_words:"true"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowedOrigins" split_words:"true"`
}

type Chat struct {
	MaxContentLen int `yaml:"maxContentLen" split_words:"true"`
}

type Config struct {
	HTTP    HTTP    `yaml:"http" split_words:"true"`
	GRPC    GRPC    `yaml:"grpc" split_words:"true"`
	Logging Logging `yaml:"logging" split_words:"true"`
	Storage Storage `yaml:"storage" split_words:"true"`
	Media   Media   `yaml:"media" split_words:"true"`
	WS      WS      `yaml:"ws" split_words:"true"`
	CORS    CORS    `yaml:"cors" split_words:"true"`
	Chat    Chat    `yaml:"chat" split_words:"true"`
}

// Ключи окружения строятся из имён полей (split_words): CHAT_STORAGE_POSTGRES_DSN.
// Явные теги envconfig не используются: envconfig ищет их ещё и без префикса,
// и поле Path подхватило бы системный $PATH.

// LoadConfig читает YAML (path, затем CONFIG_PATH, затем DefaultPath),
// подмешивает .env и переменные CHAT_*, проставляет значения по умолчанию.
// Отсутствие файла по умолчанию не ошибка: хватает переменных окружения.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := true
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path, explicit = DefaultPath, false
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8000"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = 30 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":9000"
	}

	if c.Logging.Service == "" {
		c.Logging.Service = "chat-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}

	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = DriverBadger
	case DriverBadger, DriverPostgres:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverBadger, DriverPostgres, c.Storage.Driver)
	}
	if c.Storage.Driver == DriverPostgres && c.Storage.Postgres.DSN == "" {
		return errors.New("storage.postgres.dsn is required")
	}
	if c.Storage.Driver == DriverBadger && c.Storage.Badger.Path == "" && !c.Storage.Badger.InMemory {
		c.Storage.Badger.Path = "./data/badger"
	}

	if c.Media.Root == "" {
		c.Media.Root = "./media"
	}
	if c.Media.URLPrefix == "" {
		c.Media.URLPrefix = "/media/"
	}
	if c.Media.MaxUpload <= 0 {
		c.Media.MaxUpload = 10 << 20
	}

	if c.WS.SendBuffer < 0 {
		return errors.New("ws.sendBuffer must be >= 0")
	}
	return nil
}
