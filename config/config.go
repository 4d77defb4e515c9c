package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvConfigFile = "PARTYWORK_CONFIG"

type AppConfig struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Identity IdentityConfig `yaml:"identity"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Search   SearchConfig   `yaml:"search"`
	OSS      OSSConfig      `yaml:"oss"`
	Schedule ScheduleConfig `yaml:"schedule"`

	AppBaseURL        string   `yaml:"appBaseUrl"`
	SystemAdminEmails []string `yaml:"systemAdminEmails"`
}

type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Args   string `yaml:"args"`
}

type AuthConfig struct {
	// PEM encoded RSA public key, takes precedence over JWTSecret
	JWTPublicKey string `yaml:"jwtPublicKey"`
	JWTSecret    string `yaml:"jwtSecret"`
	JWTIssuer    string `yaml:"jwtIssuer"`
}

type IdentityConfig struct {
	WebhookSecret    string `yaml:"webhookSecret"`
	DirectoryBaseURL string `yaml:"directoryBaseUrl"`
	DirectorySecret  string `yaml:"directorySecret"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type SearchConfig struct {
	ElasticsearchURL string `yaml:"elasticsearchUrl"`
}

type OSSConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
}

func (c OSSConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

type ScheduleConfig struct {
	DueReminder string `yaml:"dueReminder"`
	SyncRetry   string `yaml:"syncRetry"`
	Reindex     string `yaml:"reindex"`
}

func Default() *AppConfig {
	return &AppConfig{
		HTTP:       HTTPConfig{Addr: ":8080"},
		Database:   DatabaseConfig{Driver: "mysql"},
		SMTP:       SMTPConfig{Port: 587},
		OSS:        OSSConfig{Bucket: "partywork"},
		AppBaseURL: "http://localhost:5173",
		Schedule: ScheduleConfig{
			DueReminder: "0 0 8 * * *",
			SyncRetry:   "0 * * * * *",
			Reindex:     "0 0 23 * * *",
		},
	}
}

// Load reads .env, then the optional yaml file, then environment variables. Later sources win.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c := Default()
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *AppConfig) Validate() error {
	if c.Database.Args == "" {
		return errors.New("database args are required (DB_ARGS)")
	}
	if c.Auth.JWTPublicKey == "" && c.Auth.JWTSecret == "" {
		return errors.New("one of JWT_PUBLIC_KEY and JWT_SECRET is required")
	}
	return nil
}

func applyEnv(c *AppConfig) error {
	setString(&c.HTTP.Addr, "HTTP_ADDR")
	setList(&c.HTTP.AllowedOrigins, "HTTP_ALLOWED_ORIGINS")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.Args, "DB_ARGS")

	setString(&c.Auth.JWTPublicKey, "JWT_PUBLIC_KEY")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.JWTIssuer, "JWT_ISSUER")

	setString(&c.Identity.WebhookSecret, "IDENTITY_WEBHOOK_SECRET")
	setString(&c.Identity.DirectoryBaseURL, "IDENTITY_DIRECTORY_URL")
	setString(&c.Identity.DirectorySecret, "IDENTITY_DIRECTORY_SECRET")

	setString(&c.SMTP.Host, "SMTP_HOST")
	if err := setInt(&c.SMTP.Port, "SMTP_PORT"); err != nil {
		return err
	}
	setString(&c.SMTP.Username, "SMTP_USER")
	setString(&c.SMTP.Password, "SMTP_PASSWORD")
	setString(&c.SMTP.From, "SMTP_FROM")

	setString(&c.Search.ElasticsearchURL, "ELASTICSEARCH_URL")

	setString(&c.OSS.Endpoint, "OSS_ENDPOINT")
	setString(&c.OSS.AccessKey, "OSS_ACCESS_KEY")
	setString(&c.OSS.SecretKey, "OSS_SECRET_KEY")
	setString(&c.OSS.Bucket, "OSS_BUCKET")

	setString(&c.Schedule.DueReminder, "SCHEDULE_DUE_REMINDER")
	setString(&c.Schedule.SyncRetry, "SCHEDULE_SYNC_RETRY")
	setString(&c.Schedule.Reindex, "SCHEDULE_REINDEX")

	setString(&c.AppBaseURL, "APP_BASE_URL")
	setList(&c.SystemAdminEmails, "SYSTEM_ADMIN_EMAILS")
	return nil
}

func setString(target *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*target = os.ExpandEnv(v)
	}
}

func setInt(target *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s '%s': %w", key, v, err)
	}
	*target = n
	return nil
}

func setList(target *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*target = items
}
