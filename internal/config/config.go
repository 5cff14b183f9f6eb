package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Upload and preference backends.
const (
	UploadDisk  = "disk"
	UploadMinio = "minio"

	PreferenceSettings = "settings"
	PreferenceRedis    = "redis"
)

// Config holds the application configuration.
type Config struct {
	Port              string      `yaml:"port"`
	DataDir           string      `yaml:"data_dir"`
	DatabasePath      string      `yaml:"database_path"`
	App               string      `yaml:"app"`
	UploadBackend     string      `yaml:"upload_backend"`
	PreferenceBackend string      `yaml:"preference_backend"`
	APIURL            string      `yaml:"api_url"`
	Minio             MinioConfig `yaml:"minio"`
	Redis             RedisConfig `yaml:"redis"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Load reads configuration from a .env file, then the YAML file named by
// CONSOLE_CONFIG, then environment variables. Later sources win.
func Load() (*Config, error) {
	// Load .env file if it exists (silently ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}
	if path := os.Getenv("CONSOLE_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.DataDir, "DATA_DIR")
	setString(&c.DatabasePath, "DATABASE_PATH")
	setString(&c.App, "CONSOLE_APP")
	setString(&c.UploadBackend, "UPLOAD_BACKEND")
	setString(&c.PreferenceBackend, "PREFERENCE_BACKEND")
	setString(&c.APIURL, "API_URL")

	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Minio.Bucket, "MINIO_BUCKET")
	setString(&c.Minio.Region, "MINIO_REGION")
	setString(&c.Minio.PublicURL, "MINIO_PUBLIC_URL")
	if v := os.Getenv("MINIO_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MINIO_SSL: %w", err)
		}
		c.Minio.UseSSL = b
	}

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Redis.Prefix, "REDIS_PREFIX")
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.DataDir == "" {
		homeDir, _ := os.UserHomeDir()
		c.DataDir = filepath.Join(homeDir, ".local", "share", "console")
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, "console.db")
	}
	if c.App == "" {
		c.App = "default"
	}
	if c.UploadBackend == "" {
		c.UploadBackend = UploadDisk
	}
	if c.PreferenceBackend == "" {
		c.PreferenceBackend = PreferenceSettings
	}
	if c.APIURL == "" {
		c.APIURL = "http://localhost:" + c.Port
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "console:"
	}
}

// Validate checks backend selections and their required settings.
func (c *Config) Validate() error {
	switch c.UploadBackend {
	case UploadDisk:
	case UploadMinio:
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			return fmt.Errorf("minio uploads need MINIO_ENDPOINT and MINIO_BUCKET")
		}
	default:
		return fmt.Errorf("unknown upload backend %q (want disk or minio)", c.UploadBackend)
	}

	switch c.PreferenceBackend {
	case PreferenceSettings:
	case PreferenceRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis preferences need REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown preference backend %q (want settings or redis)", c.PreferenceBackend)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// FilesDir is where the disk uploader stores files.
func (c *Config) FilesDir() string {
	return filepath.Join(c.DataDir, "files")
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
