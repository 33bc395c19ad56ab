// Package config provides configuration management for altsheet
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	alterrors "github.com/memtensor/altsheet/pkg/errors"
	"github.com/memtensor/altsheet/pkg/types"
)

// EnvPrefix is the prefix for environment overrides, e.g. ALTSHEET_LOG_LEVEL
const EnvPrefix = "ALTSHEET"

// Default Google endpoints and scopes
const (
	DefaultDriveBaseURL  = "https://www.googleapis.com/drive/v3"
	DefaultDriveUpload   = "https://www.googleapis.com/upload/drive/v3"
	DefaultSheetsBaseURL = "https://sheets.googleapis.com/v4"
	ScopeDrive           = "https://www.googleapis.com/auth/drive"
	ScopeSpreadsheets    = "https://www.googleapis.com/auth/spreadsheets"
)

// Config is the complete runtime configuration for both entry points
type Config struct {
	// Input corpus
	XMLDir       string `mapstructure:"xml_dir" yaml:"xml_dir" json:"xml_dir" validate:"required"`
	ImageDir     string `mapstructure:"image_dir" yaml:"image_dir,omitempty" json:"image_dir,omitempty"`
	XMLExtension string `mapstructure:"xml_extension" yaml:"xml_extension" json:"xml_extension" validate:"required,startswith=."`
	FigureTag    string `mapstructure:"figure_tag" yaml:"figure_tag" json:"figure_tag" validate:"required"`
	ImageDataTag string `mapstructure:"image_data_tag" yaml:"image_data_tag" json:"image_data_tag" validate:"required"`

	// Authentication
	CredentialsFile string   `mapstructure:"credentials_file" yaml:"credentials_file" json:"credentials_file" validate:"required"`
	TokenFile       string   `mapstructure:"token_file" yaml:"token_file" json:"token_file" validate:"required"`
	Scopes          []string `mapstructure:"scopes" yaml:"scopes" json:"scopes" validate:"required,min=1,dive,url"`

	// Publishing
	ParentFolderName string              `mapstructure:"parent_folder_name" yaml:"parent_folder_name" json:"parent_folder_name" validate:"required"`
	ShareParent      bool                `mapstructure:"share_parent" yaml:"share_parent" json:"share_parent"`
	DocumentLimit    int                 `mapstructure:"document_limit" yaml:"document_limit" json:"document_limit" validate:"gte=0"`
	OnError          types.FailurePolicy `mapstructure:"on_error" yaml:"on_error" json:"on_error" validate:"required,oneof=skip fail-fast"`
	CallTimeout      time.Duration       `mapstructure:"call_timeout" yaml:"call_timeout" json:"call_timeout" validate:"gt=0"`
	UploadMimeType   string              `mapstructure:"upload_mime_type" yaml:"upload_mime_type" json:"upload_mime_type" validate:"required"`

	// Remote endpoints
	DriveBaseURL   string `mapstructure:"drive_base_url" yaml:"drive_base_url" json:"drive_base_url" validate:"required,url"`
	DriveUploadURL string `mapstructure:"drive_upload_url" yaml:"drive_upload_url" json:"drive_upload_url" validate:"required,url"`
	SheetsBaseURL  string `mapstructure:"sheets_base_url" yaml:"sheets_base_url" json:"sheets_base_url" validate:"required,url"`

	// Observability
	LogLevel    string `mapstructure:"log_level" yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file,omitempty" json:"log_file,omitempty"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file,omitempty" json:"metrics_file,omitempty"`
}

// NewConfig creates a configuration populated with defaults
func NewConfig() *Config {
	return &Config{
		XMLExtension:     ".xml",
		FigureTag:        "Figure",
		ImageDataTag:     "ImageData",
		CredentialsFile:  "credentials.json",
		TokenFile:        "token.json",
		Scopes:           []string{ScopeDrive, ScopeSpreadsheets},
		ParentFolderName: "Test",
		ShareParent:      true,
		DocumentLimit:    0,
		OnError:          types.FailurePolicySkip,
		CallTimeout:      60 * time.Second,
		UploadMimeType:   "image/jpeg",
		DriveBaseURL:     DefaultDriveBaseURL,
		DriveUploadURL:   DefaultDriveUpload,
		SheetsBaseURL:    DefaultSheetsBaseURL,
		LogLevel:         "info",
	}
}

// Load builds a configuration from defaults, an optional file and
// ALTSHEET_* environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, alterrors.NewConfigNotFoundError(path)
		}
		ext := strings.ToLower(filepath.Ext(path))
		switch ext {
		case ".json":
			v.SetConfigType("json")
		case ".yaml", ".yml":
			v.SetConfigType("yaml")
		default:
			return nil, alterrors.NewConfigError(fmt.Sprintf("unsupported config file format: %s", ext))
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, alterrors.NewConfigInvalidError("failed to read config file", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, alterrors.NewConfigInvalidError("failed to decode configuration", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("xml_dir", cfg.XMLDir)
	v.SetDefault("image_dir", cfg.ImageDir)
	v.SetDefault("xml_extension", cfg.XMLExtension)
	v.SetDefault("figure_tag", cfg.FigureTag)
	v.SetDefault("image_data_tag", cfg.ImageDataTag)
	v.SetDefault("credentials_file", cfg.CredentialsFile)
	v.SetDefault("token_file", cfg.TokenFile)
	v.SetDefault("scopes", cfg.Scopes)
	v.SetDefault("parent_folder_name", cfg.ParentFolderName)
	v.SetDefault("share_parent", cfg.ShareParent)
	v.SetDefault("document_limit", cfg.DocumentLimit)
	v.SetDefault("on_error", string(cfg.OnError))
	v.SetDefault("call_timeout", cfg.CallTimeout)
	v.SetDefault("upload_mime_type", cfg.UploadMimeType)
	v.SetDefault("drive_base_url", cfg.DriveBaseURL)
	v.SetDefault("drive_upload_url", cfg.DriveUploadURL)
	v.SetDefault("sheets_base_url", cfg.SheetsBaseURL)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("metrics_file", cfg.MetricsFile)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return alterrors.NewConfigInvalidError("invalid configuration", err)
	}
	return nil
}

// ValidateForAudit validates only what the read-only audit needs
func (c *Config) ValidateForAudit() error {
	err := validator.New().StructPartial(c, "XMLDir", "XMLExtension", "FigureTag", "ImageDataTag", "LogLevel")
	if err != nil {
		return alterrors.NewConfigInvalidError("invalid configuration", err)
	}
	return nil
}

// ResolvedImageDir returns the image directory, defaulting to <xml_dir>/images
func (c *Config) ResolvedImageDir() string {
	if c.ImageDir != "" {
		return c.ImageDir
	}
	return filepath.Join(c.XMLDir, "images")
}

// ToYAMLFile saves configuration to a YAML file
func (c *Config) ToYAMLFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
