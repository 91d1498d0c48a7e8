package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultServerURL is where the backend listens in development
	DefaultServerURL = "http://localhost:3000/api/"

	SchemeRaw    = "raw"
	SchemeBearer = "bearer"

	SessionStoreFile   = "file"
	SessionStoreSQLite = "sqlite"

	BlobStoreFS = "fs"
	BlobStoreS3 = "s3"
)

// S3Config holds credentials for the S3 blob backend
type S3Config struct {
	Bucket    string `yaml:"bucket" json:"bucket"`
	Region    string `yaml:"region" json:"region"`
	Endpoint  string `yaml:"endpoint" json:"endpoint"` // Custom endpoint (MinIO etc.)
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
}

// Config holds user preferences
type Config struct {
	ServerURL      string        `yaml:"server_url" json:"server_url"`
	AuthScheme     string        `yaml:"auth_scheme" json:"auth_scheme"` // raw or bearer
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	ConfirmDelete  bool          `yaml:"confirm_delete" json:"confirm_delete"`

	// Local storage
	SessionStore string   `yaml:"session_store" json:"session_store"` // file or sqlite
	BlobStore    string   `yaml:"blob_store" json:"blob_store"`       // fs or s3
	BlobDir      string   `yaml:"blob_dir" json:"blob_dir"`
	S3           S3Config `yaml:"s3" json:"s3"`

	// Attachment limits
	FilesMaxSizeMB int `yaml:"files_max_size_mb" json:"files_max_size_mb"`
	ImageMaxSizeMB int `yaml:"image_max_size_mb" json:"image_max_size_mb"`

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// Dir returns the app directory. TRASHTALK_HOME overrides ~/.trashtalk.
func Dir() (string, error) {
	if dir := os.Getenv("TRASHTALK_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".trashtalk"), nil
}

// Path returns the location of config.yaml
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir, _ := Dir()
	logPath, blobDir := "", ""
	if dir != "" {
		logPath = filepath.Join(dir, "logs", "trashtalk.log")
		blobDir = filepath.Join(dir, "blobs")
	}

	return &Config{
		ServerURL:      DefaultServerURL,
		AuthScheme:     SchemeRaw,
		RequestTimeout: 30 * time.Second,
		ConfirmDelete:  true,
		SessionStore:   SessionStoreFile,
		BlobStore:      BlobStoreFS,
		BlobDir:        blobDir,
		FilesMaxSizeMB: 5,
		ImageMaxSizeMB: 2,
		LogLevel:       "INFO",
		LogFile:        logPath,
		LogConsole:     false,
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// applyEnv lets the environment win over the file
func (c *Config) applyEnv() {
	c.ServerURL = getEnv("TRASHTALK_SERVER_URL", c.ServerURL)
	c.AuthScheme = getEnv("TRASHTALK_AUTH_SCHEME", c.AuthScheme)
	c.LogLevel = getEnv("TRASHTALK_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("TRASHTALK_LOG_FILE", c.LogFile)
	if v := os.Getenv("TRASHTALK_LOG_CONSOLE"); v != "" {
		c.LogConsole = v == "true"
	}
}

// Load loads config from config.yaml, falling back to defaults when missing
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// Defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the client cannot work with
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server_url %q: must be an http(s) URL", c.ServerURL)
	}

	switch strings.ToLower(c.AuthScheme) {
	case SchemeRaw, SchemeBearer:
	default:
		return fmt.Errorf("invalid auth_scheme %q: want %q or %q", c.AuthScheme, SchemeRaw, SchemeBearer)
	}

	switch c.SessionStore {
	case SessionStoreFile, SessionStoreSQLite:
	default:
		return fmt.Errorf("invalid session_store %q", c.SessionStore)
	}

	switch c.BlobStore {
	case BlobStoreFS:
	case BlobStoreS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("blob_store s3 requires s3.bucket")
		}
	default:
		return fmt.Errorf("invalid blob_store %q", c.BlobStore)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	return nil
}

// Save saves config to config.yaml
func (c *Config) Save() error {
	configPath, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Holds S3 secrets
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// SessionFile returns the path of the JSON session file
func SessionFile() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// DatabaseFile returns the path of the local SQLite database
func DatabaseFile() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "trashtalk.db"), nil
}
