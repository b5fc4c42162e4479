package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

// SurrealConfig points at the remote data store. When URL is empty the
// application starts in demo mode with an in-memory account store and an
// empty report service.
type SurrealConfig struct {
	URL       string `mapstructure:"url"`
	Namespace string `mapstructure:"namespace"`
	Database  string `mapstructure:"database"`
	User      string `mapstructure:"user"`
	Pass      string `mapstructure:"pass"`
}

type AuthConfig struct {
	SetupCode         string   `mapstructure:"setup_code"`
	ConfirmSecret     string   `mapstructure:"confirm_secret"`
	ConfirmTTLMinutes int      `mapstructure:"confirm_ttl_minutes"`
	BcryptCost        int      `mapstructure:"bcrypt_cost"`
	SessionTTLMinutes int      `mapstructure:"session_ttl_minutes"`
	AllowedIPs        []string `mapstructure:"allowed_ips"`
}

type OAuthProviderConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
	Tenant       string `mapstructure:"tenant"`
}

type OAuthConfig struct {
	Google    OAuthProviderConfig `mapstructure:"google"`
	Microsoft OAuthProviderConfig `mapstructure:"microsoft"`
}

type DocItem struct {
	Title string `mapstructure:"title" json:"title"`
	Key   string `mapstructure:"key" json:"key"`
}

type DocCategory struct {
	Title     string             `mapstructure:"title" json:"title"`
	AdminOnly bool               `mapstructure:"admin_only" json:"admin_only"`
	Items     map[string]DocItem `mapstructure:"items" json:"items"`
}

// DocsConfig describes the object storage bucket holding guide PDFs and the
// catalog mapping category/item slugs to object keys.
type DocsConfig struct {
	Endpoint  string                 `mapstructure:"endpoint"`
	Region    string                 `mapstructure:"region"`
	Bucket    string                 `mapstructure:"bucket"`
	AccessKey string                 `mapstructure:"access_key"`
	SecretKey string                 `mapstructure:"secret_key"`
	Guides    map[string]DocCategory `mapstructure:"guides"`
}

type AuditConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Surreal  SurrealConfig `mapstructure:"surreal"`
	Auth     AuthConfig    `mapstructure:"auth"`
	OAuth    OAuthConfig   `mapstructure:"oauth"`
	Docs     DocsConfig    `mapstructure:"docs"`
	Audit    AuditConfig   `mapstructure:"audit"`
	Log      LogConfig     `mapstructure:"log"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		// environment overrides, e.g. AMCO_AUTH_SETUP_CODE=...
		v.SetEnvPrefix("AMCO")
		v.AutomaticEnv()

		if err = v.ReadInConfig(); err != nil {
			err = fmt.Errorf("read config: %w", err)
			return
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		applyDefaults(&c)
		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}

func applyDefaults(c *Config) {
	if c.Auth.ConfirmTTLMinutes <= 0 {
		c.Auth.ConfirmTTLMinutes = 60
	}
	if c.Auth.BcryptCost <= 0 {
		c.Auth.BcryptCost = 12
	}
	if c.Auth.SessionTTLMinutes <= 0 {
		c.Auth.SessionTTLMinutes = 30
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "data/audit.db"
	}
}
