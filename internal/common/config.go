package common

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Storage   StorageConfig
	Server    ServerConfig
	Extractor ExtractorConfig
	Export    ExportConfig
}

// DatabaseConfig holds record-store configuration.
type DatabaseConfig struct {
	Path string // SQLite database file
}

// StorageConfig holds file-store configuration.
type StorageConfig struct {
	UploadRoot string // base directory holding one subdirectory per list
}

// ServerConfig holds the local HTTP server configuration.
type ServerConfig struct {
	Addr string
}

// ExtractorConfig holds vision-model configuration. The API key is never
// written to the config file; it comes from the environment, a flag, or a
// per-session request.
type ExtractorConfig struct {
	Model   string
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// JSONMode asks the model for schema-validated JSON instead of the
	// default line-oriented "name: value" text.
	JSONMode bool
}

// ExportConfig selects the default export serialization.
type ExportConfig struct {
	Format string // "csv" or "xlsx"
}

// LoadConfig reads configuration from an optional config file plus
// DOCSCAN_* environment overrides.
func LoadConfig(dataDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("docscan")
	v.SetConfigType("yaml")
	if dataDir != "" {
		v.AddConfigPath(dataDir)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("DOCSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.path", filepath.Join(dataDir, "ocr_settings.db"))
	v.SetDefault("storage.upload_root", filepath.Join(dataDir, "images"))
	v.SetDefault("server.addr", "127.0.0.1:8745")
	v.SetDefault("extractor.model", "gemini-1.5-flash")
	v.SetDefault("extractor.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("extractor.timeout", 45*time.Second)
	v.SetDefault("extractor.json_mode", false)
	v.SetDefault("export.format", "csv")

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, WrapError(err, "read config")
		}
	}

	return &Config{
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
		},
		Storage: StorageConfig{
			UploadRoot: v.GetString("storage.upload_root"),
		},
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
		Extractor: ExtractorConfig{
			Model:   v.GetString("extractor.model"),
			BaseURL: v.GetString("extractor.base_url"),
			// APIKey is deliberately not read here: the credential comes
			// from a flag, DOCSCAN_API_KEY, or a per-session request, and
			// must never end up in docscan.yaml.
			Timeout:  v.GetDuration("extractor.timeout"),
			JSONMode: v.GetBool("extractor.json_mode"),
		},
		Export: ExportConfig{
			Format: v.GetString("export.format"),
		},
	}, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return NewAppError("CONFIG_ERROR", "database.path is required", ErrValidation)
	}
	if c.Storage.UploadRoot == "" {
		return NewAppError("CONFIG_ERROR", "storage.upload_root is required", ErrValidation)
	}
	switch c.Export.Format {
	case "csv", "xlsx":
	default:
		return NewAppError("CONFIG_ERROR", "export.format must be csv or xlsx", ErrValidation)
	}
	return nil
}
