package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort         = 2350
	defaultEnv          = "development"
	defaultDSN          = "root:password@tcp(127.0.0.1:3306)/workshop?charset=utf8mb4&parseTime=True&loc=Local"
	defaultFieldsetsDir = "fieldsets"
	defaultStaticDir    = "static"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	DSN            string         `yaml:"dsn"`
	RedisURL       string         `yaml:"redis_url"`
	JWTSecret      string         `yaml:"jwt_secret"`
	SessionSecret  string         `yaml:"session_secret"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	Crypt          CryptConfig    `yaml:"crypt"`
	Workshop       WorkshopConfig `yaml:"workshop"`
	Theming        ThemingConfig  `yaml:"theming"`
	Paths          PathsConfig    `yaml:"paths"`
	Storage        StorageConfig  `yaml:"storage"`
}

// CryptConfig keys protect the encrypted meta payload carried by forms.
type CryptConfig struct {
	HashKey  string `yaml:"hash_key"`
	BlockKey string `yaml:"block_key"`
}

// WorkshopConfig controls front-end form behavior.
type WorkshopConfig struct {
	EnforceAuth bool `yaml:"enforce_auth"`
	Whitelist   bool `yaml:"whitelist"`
}

// ThemingConfig supplies fallback fieldsets when a form names none.
type ThemingConfig struct {
	DefaultFieldset     string `yaml:"default_fieldset"`
	DefaultPageFieldset string `yaml:"default_page_fieldset"`
}

type PathsConfig struct {
	Fieldsets string `yaml:"fieldsets"`
	Static    string `yaml:"static"`
}

// StorageConfig selects the asset storage backend.
type StorageConfig struct {
	Driver  string    `yaml:"driver"` // "local" | "s3"
	BaseURL string    `yaml:"base_url"`
	S3      S3Options `yaml:"s3"`
}

type S3Options struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyleAccess bool   `yaml:"path_style_access"`
	CustomDomain    string `yaml:"custom_domain"`
}

// Load reads the YAML config at path and applies defaults. A missing file is
// not an error; defaults apply.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if strings.TrimSpace(c.Env) == "" {
		c.Env = defaultEnv
	}
	if strings.TrimSpace(c.DSN) == "" {
		c.DSN = defaultDSN
	}
	if strings.TrimSpace(c.Paths.Fieldsets) == "" {
		c.Paths.Fieldsets = defaultFieldsetsDir
	}
	if strings.TrimSpace(c.Paths.Static) == "" {
		c.Paths.Static = defaultStaticDir
	}
	if strings.TrimSpace(c.Storage.Driver) == "" {
		c.Storage.Driver = "local"
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}
