package config

import (
	"log"
	"sync"

	"github.com/spf13/viper"
)

// GenerationConfig holds the caption/image model selection for campaign generation.
type GenerationConfig struct {
	CaptionModel string `mapstructure:"caption_model"`
	ImageModel   string `mapstructure:"image_model"`
}

// TelegramConfig defines the structure for Telegram-related configurations
type TelegramConfig struct {
	BotToken        string `mapstructure:"bot_token"`
	GroupID         int64  `mapstructure:"group_id"`
	UnlocksThreadID int64  `mapstructure:"unlocks_thread_id"`
}

// Config defines the global configuration structure
type Config struct {
	App struct {
		Port        string `mapstructure:"port"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"app"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`

	Database struct {
		URI  string `mapstructure:"uri"`
		Name string `mapstructure:"name"`
	} `mapstructure:"database"`

	Generation GenerationConfig `mapstructure:"generation"`

	Badges struct {
		AnnounceUnlocks bool `mapstructure:"announce_unlocks"`
	} `mapstructure:"badges"`

	Telegram TelegramConfig `mapstructure:"telegram"`
}

var (
	globalConfig *Config
	configLock   sync.RWMutex
)

// LoadConfig loads configuration from the specified file path and merges it with environment variables
func LoadConfig(path string) (*Config, error) {
	log.Printf("Starting to load configuration from file: %s", path)

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.SetEnvPrefix("APP")
	viper.BindEnv("app.port", "PORT")
	viper.BindEnv("app.environment", "ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	viper.BindEnv("telegram.group_id", "TELEGRAM_GROUP_ID")
	viper.BindEnv("telegram.unlocks_thread_id", "UNLOCKS_THREAD_ID")

	viper.BindEnv("generation.caption_model", "CAPTION_MODEL")
	viper.BindEnv("generation.image_model", "IMAGE_MODEL")

	var cfg Config

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		log.Printf("Error unmarshalling configuration: %v", err)
		return nil, err
	}

	log.Printf("Loaded configuration from file: %s", path)

	return &cfg, nil
}

// SetGlobalConfig sets the loaded configuration globally
func SetGlobalConfig(cfg *Config) {
	configLock.Lock()
	defer configLock.Unlock()
	globalConfig = cfg
}

// GetGlobalConfig retrieves the globally set configuration
func GetGlobalConfig() *Config {
	configLock.RLock()
	defer configLock.RUnlock()
	if globalConfig == nil {
		log.Println("GetGlobalConfig: Global configuration is nil.")
	}
	return globalConfig
}
