package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env              string        `mapstructure:"ENV"`
	Port             string        `mapstructure:"PORT"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	AdminKey         string        `mapstructure:"ADMIN_KEY"`
	CronSecret       string        `mapstructure:"CRON_SECRET"`
	SyncAPIKey       string        `mapstructure:"SYNC_API_KEY"`
	FBAppSecret      string        `mapstructure:"FB_APP_SECRET"`
	FBVerifyToken    string        `mapstructure:"FB_VERIFY_TOKEN"`
	FBGraphURL       string        `mapstructure:"FB_GRAPH_URL"`
	CORSAllowed      string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	SyncAccountDelay time.Duration `mapstructure:"SYNC_ACCOUNT_DELAY"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("FB_GRAPH_URL", "https://graph.facebook.com/v19.0")
	v.SetDefault("SYNC_ACCOUNT_DELAY", "2s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
