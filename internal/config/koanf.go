package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             8000,
			ShutdownTimeout:  5 * time.Second,
			PredictRateLimit: 0,
			PredictBurst:     20,
		},
		Store: StoreConfig{
			Driver: StoreMongo,
		},
		Mongo: MongoConfig{
			URI:      "mongodb://127.0.0.1:27017/",
			Database: "FY_Project",
		},
		Database: DatabaseConfig{
			Port:           5432,
			SSLMode:        "disable",
			SQLitePath:     "reviews.db",
			ConnectTimeout: 60 * time.Second,
			RunMigrations:  true,
		},
		Redis: RedisConfig{
			CacheTTL: 5 * time.Minute,
		},
		Classifier: ClassifierConfig{
			Backend:           ClassifierLocal,
			ModelPath:         "./models/model_v2/model.json",
			VocabPath:         "./models/bert-base-uncased/vocab.txt",
			MaxSequenceLength: 200,
			GeminiModel:       "gemini-2.5-flash",
			GeminiTimeout:     30 * time.Second,
		},
		JWT: JWTConfig{
			Expiration: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load は設定を以下の順で重ねて読み込みます。
//  1. 構造体のデフォルト値
//  2. 設定ファイル（存在する場合のみ）
//  3. 環境変数（.envがあれば先に読み込む）
func Load() (*Config, error) {
	// .envはローカル開発用。存在しなくてもエラーにしない
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using process environment")
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"port":               "server.port",
	"shutdown_timeout":   "server.shutdown_timeout",
	"predict_rate_limit": "server.predict_rate_limit",
	"predict_burst":      "server.predict_burst",

	"store_driver": "store.driver",

	"mongodb_uri":      "mongo.uri",
	"mongodb_database": "mongo.database",

	"db_host":            "database.host",
	"db_port":            "database.port",
	"db_user":            "database.user",
	"db_password":        "database.password",
	"db_name":            "database.name",
	"db_sslmode":         "database.sslmode",
	"sqlite_path":        "database.sqlite_path",
	"db_connect_timeout": "database.connect_timeout",
	"run_migrations":     "database.run_migrations",

	"redis_addr":     "redis.addr",
	"redis_password": "redis.password",
	"redis_db":       "redis.db",
	"cache_ttl":      "redis.cache_ttl",

	"classifier_backend":  "classifier.backend",
	"model_path":          "classifier.model_path",
	"vocab_path":          "classifier.vocab_path",
	"max_sequence_length": "classifier.max_sequence_length",
	"gemini_api_key":      "classifier.gemini_api_key",
	"gemini_model":        "classifier.gemini_model",
	"gemini_timeout":      "classifier.gemini_timeout",

	"jwt_secret":     "jwt.secret",
	"jwt_expiration": "jwt.expiration",

	"log_level":  "logging.level",
	"log_format": "logging.format",
}

func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	// 未知の環境変数は無視する
	return ""
}
