package config

import (
	"io/fs"
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/imobcrm/erpsync/internal/domain"
)

type Config struct {
	Server      Server      `yaml:"server"`
	ERP         ERP         `yaml:"erp"`
	Credentials Credentials `yaml:"credentials"`
	Archive     Archive     `yaml:"archive"`
}

type Server struct {
	Listen        string        `yaml:"listen"`
	Database      string        `yaml:"database"` // postgres, sqlite
	PostgresDsn   string        `yaml:"postgresDsn"`
	SQLitePath    string        `yaml:"sqlitePath"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDB"`
	MemcachedAddr string        `yaml:"memcachedAddr"`
	EnableTrace   bool          `yaml:"enableTrace"`
	TraceEndpoint string        `yaml:"traceEndpoint"`
	LogLevel      string        `yaml:"logLevel"`
	APIToken      string        `yaml:"apiToken"`
	LockTTL       time.Duration `yaml:"lockTTL"`
}

type ERP struct {
	BaseURL   string        `yaml:"baseURL"`
	AppToken  string        `yaml:"appToken"`
	PageSize  int           `yaml:"pageSize"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
	Resource  string        `yaml:"resource"`
}

type Credentials struct {
	Source       string        `yaml:"source"` // static, secretsmanager
	SecretPrefix string        `yaml:"secretPrefix"`
	Region       string        `yaml:"region"`
	CacheTTL     time.Duration `yaml:"cacheTTL"`
	Licenses     []License     `yaml:"licenses"`
}

type License struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	AccessToken string `yaml:"accessToken"`
	BaseURL     string `yaml:"baseURL"`
}

type Archive struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

const (
	SourceStatic         = "static"
	SourceSecretsManager = "secretsmanager"
)

// Secrets may come from the environment instead of the file.
var envOverrides = map[string]func(*Config, string){
	"ERPSYNC_APP_TOKEN":      func(c *Config, v string) { c.ERP.AppToken = v },
	"ERPSYNC_POSTGRES_DSN":   func(c *Config, v string) { c.Server.PostgresDsn = v },
	"ERPSYNC_REDIS_ADDR":     func(c *Config, v string) { c.Server.RedisAddr = v },
	"ERPSYNC_REDIS_PASSWORD": func(c *Config, v string) { c.Server.RedisPassword = v },
	"ERPSYNC_API_TOKEN":      func(c *Config, v string) { c.Server.APIToken = v },
}

// Load reads the YAML file at path, then the optional dotenv files, then
// applies environment overrides and defaults.
func Load(path string, envFiles ...string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, errors.Wrapf(err, "decode %s", path)
	}

	if err := loadEnvFiles(envFiles...); err != nil {
		return Config{}, err
	}
	config.applyEnv()
	config.applyDefaults()

	return config, config.Validate()
}

func loadEnvFiles(files ...string) error {
	for _, f := range files {
		// godotenv never overrides variables already set in the process
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return errors.Wrapf(err, "load %s", f)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	for key, set := range envOverrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			set(c, v)
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8000"
	}
	if c.Server.Database == "" {
		c.Server.Database = "postgres"
	}
	if c.Server.Database == "sqlite" && c.Server.SQLitePath == "" {
		c.Server.SQLitePath = "erpsync.db"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.LockTTL == 0 {
		c.Server.LockTTL = 30 * time.Minute
	}
	if c.ERP.PageSize <= 0 {
		c.ERP.PageSize = 50
	}
	if c.ERP.Timeout == 0 {
		c.ERP.Timeout = 30 * time.Second
	}
	if c.ERP.Resource == "" {
		c.ERP.Resource = "contratos"
	}
	if c.Credentials.Source == "" {
		c.Credentials.Source = SourceStatic
	}
	if c.Credentials.CacheTTL == 0 {
		c.Credentials.CacheTTL = 5 * time.Minute
	}
}

func (c Config) Validate() error {
	if c.ERP.BaseURL == "" {
		return errors.New("erp.baseURL is required")
	}
	switch c.Credentials.Source {
	case SourceStatic:
		for i, l := range c.Credentials.Licenses {
			if l.ID == "" || l.AccessToken == "" {
				return errors.Errorf("credentials.licenses[%d]: id and accessToken are required", i)
			}
		}
	case SourceSecretsManager:
	default:
		return errors.Errorf("unknown credentials.source %q", c.Credentials.Source)
	}
	return nil
}

// DSN returns the connection string for the configured database driver.
func (s Server) DSN() string {
	if s.Database == "sqlite" {
		return s.SQLitePath
	}
	return s.PostgresDsn
}

// StaticCredentials converts the configured license list.
func (c Credentials) StaticCredentials() []domain.Credential {
	creds := make([]domain.Credential, 0, len(c.Licenses))
	for _, l := range c.Licenses {
		creds = append(creds, domain.Credential{
			LicenseID:   l.ID,
			LicenseName: l.Name,
			AccessToken: l.AccessToken,
			BaseURL:     l.BaseURL,
		})
	}
	return creds
}
