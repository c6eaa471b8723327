package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CONSOLE"

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Log struct {
		Level string
	}
	Storage struct {
		Backend string
	}
	Database struct {
		Path string
	}
	Directory struct {
		BaseURL     string        `mapstructure:"base_url"`
		APIKey      string        `mapstructure:"api_key"`
		Timeout     time.Duration `mapstructure:"timeout"`
		RemoteEdits bool          `mapstructure:"remote_edits"`
	}
	Auth struct {
		SessionSecret string        `mapstructure:"session_secret"`
		SessionTTL    time.Duration `mapstructure:"session_ttl"`
		DemoEmail     string        `mapstructure:"demo_email"`
		DemoPassword  string        `mapstructure:"demo_password"`
		SecureCookies bool          `mapstructure:"secure_cookies"`
	}
	Snapshots struct {
		Bucket   string
		Prefix   string
		Region   string
		Endpoint string
	}
	AWS struct {
		Profile string
	}
	Telemetry struct {
		Endpoint    string
		ServiceName string `mapstructure:"service_name"`
	}
}

// Load reads configuration from environment variables, an optional .env file
// and an optional config file in the working directory.
func Load() (Config, error) {
	// Variables already set in the environment win over .env.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("database.path", "data/console.db")
	v.SetDefault("directory.base_url", "https://reqres.in/api")
	v.SetDefault("directory.api_key", "")
	v.SetDefault("directory.timeout", 10*time.Second)
	v.SetDefault("directory.remote_edits", false)
	v.SetDefault("auth.session_secret", "")
	v.SetDefault("auth.session_ttl", 24*time.Hour)
	v.SetDefault("auth.demo_email", "eve.holt@reqres.in")
	v.SetDefault("auth.demo_password", "cityslicka")
	v.SetDefault("auth.secure_cookies", false)
	v.SetDefault("snapshots.bucket", "")
	v.SetDefault("snapshots.prefix", "console-snapshots")
	v.SetDefault("snapshots.region", "us-east-1")
	v.SetDefault("snapshots.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", "user-console")
}
