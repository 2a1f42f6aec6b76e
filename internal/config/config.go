package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort int `mapstructure:"APP_PORT"`

	// StoreDriver is one of sqlite, redis, mongo, memory.
	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	DatabasePath  string `mapstructure:"DATABASE_PATH"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	MongoURI      string `mapstructure:"MONGODB_URI"`
	MongoDB       string `mapstructure:"MONGODB_DB"`

	// LLMProvider is one of ollama, gemini.
	LLMProvider       string        `mapstructure:"LLM_PROVIDER"`
	OllamaURL         string        `mapstructure:"OLLAMA_URL"`
	GeminiAPIKey      string        `mapstructure:"GEMINI_API_KEY"`
	Model             string        `mapstructure:"LLM_MODEL"`
	GenerationTimeout time.Duration `mapstructure:"GENERATION_TIMEOUT"`
	Temperature       float64       `mapstructure:"LLM_TEMPERATURE"`
	TopP              float64       `mapstructure:"LLM_TOP_P"`
	NumPredict        int           `mapstructure:"LLM_NUM_PREDICT"`

	HistoryLimit       int    `mapstructure:"HISTORY_LIMIT"`
	PromptTemplatePath string `mapstructure:"PROMPT_TEMPLATE_PATH"`
	PromptMaxChars     int    `mapstructure:"PROMPT_MAX_CHARS"`

	// LockDriver is one of local, redis.
	LockDriver string        `mapstructure:"LOCK_DRIVER"`
	LockTTL    time.Duration `mapstructure:"LOCK_TTL"`

	JWTSecret          string `mapstructure:"JWT_SECRET"`
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`

	// ConfigFile is the .env file that was read, empty when none was found.
	ConfigFile string `mapstructure:"-"`
}

// LoadConfig reads .env (optional) and the environment on top of the defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.LockDriver = strings.ToLower(strings.TrimSpace(cfg.LockDriver))
	cfg.ConfigFile = v.ConfigFileUsed()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", 8000)

	v.SetDefault("STORE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_PATH", "/data/chatbot.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DB", "chatbot")

	v.SetDefault("LLM_PROVIDER", "ollama")
	v.SetDefault("OLLAMA_URL", "http://localhost:11434")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("LLM_MODEL", "llama3.1:8b")
	v.SetDefault("GENERATION_TIMEOUT", "300s")
	v.SetDefault("LLM_TEMPERATURE", 0.0)
	v.SetDefault("LLM_TOP_P", 0.0)
	v.SetDefault("LLM_NUM_PREDICT", 0)

	v.SetDefault("HISTORY_LIMIT", 12)
	v.SetDefault("PROMPT_TEMPLATE_PATH", "")
	v.SetDefault("PROMPT_MAX_CHARS", 0)

	v.SetDefault("LOCK_DRIVER", "local")
	v.SetDefault("LOCK_TTL", "0s")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("LOG_FILE", "")
}
