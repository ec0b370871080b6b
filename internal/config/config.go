// Package config はアプリケーション設定の読み込みと検証を行います。
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Store drivers.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Classifier backends.
const (
	ClassifierLocal  = "local"
	ClassifierGemini = "gemini"
)

// Config はサーバー全体の設定です。
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Store      StoreConfig      `koanf:"store"`
	Mongo      MongoConfig      `koanf:"mongo"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	Classifier ClassifierConfig `koanf:"classifier"`
	JWT        JWTConfig        `koanf:"jwt"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig はHTTPサーバーの設定です。
type ServerConfig struct {
	Port             int           `koanf:"port" validate:"min=1,max=65535"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	// PredictRateLimit は接続ごとの predict の毎秒上限です。0 で無制限。
	PredictRateLimit float64       `koanf:"predict_rate_limit" validate:"gte=0"`
	PredictBurst     int           `koanf:"predict_burst" validate:"gte=1"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `koanf:"driver" validate:"oneof=mongo postgres sqlite"`
}

// MongoConfig holds the document database connection settings.
type MongoConfig struct {
	URI      string `koanf:"uri" validate:"required"`
	Database string `koanf:"database" validate:"required"`
}

// DatabaseConfig holds the relational database settings used by the gorm adapters.
type DatabaseConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port" validate:"gte=0,lte=65535"`
	User           string        `koanf:"user"`
	Password       string        `koanf:"password"`
	Name           string        `koanf:"name"`
	SSLMode        string        `koanf:"sslmode"`
	SQLitePath     string        `koanf:"sqlite_path"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" validate:"gt=0"`
	RunMigrations  bool          `koanf:"run_migrations"`
}

// RedisConfig はキャッシュ用Redisの設定です。Addrが空の場合キャッシュは無効になります。
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0"`
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

// ClassifierConfig configures the sentiment classifier.
type ClassifierConfig struct {
	Backend           string        `koanf:"backend" validate:"oneof=local gemini"`
	ModelPath         string        `koanf:"model_path"`
	VocabPath         string        `koanf:"vocab_path"`
	MaxSequenceLength int           `koanf:"max_sequence_length" validate:"min=2"`
	GeminiAPIKey      string        `koanf:"gemini_api_key"`
	GeminiModel       string        `koanf:"gemini_model"`
	GeminiTimeout     time.Duration `koanf:"gemini_timeout" validate:"gt=0"`
}

// JWTConfig はログイン時に発行するトークンの設定です。
type JWTConfig struct {
	Secret     string        `koanf:"secret"`
	Expiration time.Duration `koanf:"expiration" validate:"gt=0"`
}

// LoggingConfig controls the zerolog backend.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Validate は構造体タグによる検証と、ドライバー依存の必須項目チェックを行います。
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Store.Driver {
	case StorePostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("store driver %q requires DB_HOST and DB_NAME", c.Store.Driver)
		}
	case StoreSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("store driver %q requires SQLITE_PATH", c.Store.Driver)
		}
	}

	switch c.Classifier.Backend {
	case ClassifierLocal:
		if c.Classifier.ModelPath == "" || c.Classifier.VocabPath == "" {
			return fmt.Errorf("classifier backend %q requires MODEL_PATH and VOCAB_PATH", c.Classifier.Backend)
		}
	case ClassifierGemini:
		if c.Classifier.GeminiModel == "" {
			return fmt.Errorf("classifier backend %q requires GEMINI_MODEL", c.Classifier.Backend)
		}
	}
	return nil
}

// Addr returns the listen address for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
