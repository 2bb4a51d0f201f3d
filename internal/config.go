package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ecolog/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Auth    AuthConfig        `yaml:"auth"`
	Store   StoreConfig       `yaml:"store"`
	Index   IndexConfig       `yaml:"index"`
	Vision  VisionConfig      `yaml:"vision"`
	Image   ImageConfig       `yaml:"image"`
	Export  ExportConfig      `yaml:"export"`
	Archive ArchiveConfig     `yaml:"archive"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Auth, &c.Store, &c.Index, &c.Vision, &c.Image, &c.Archive,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	HTTP      HTTPConfig `yaml:"http"`
	CORS      CORSConfig `yaml:"cors"`
	SecretKey string     `yaml:"secret_key"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.WriteTimeout, validation.Min(time.Duration(0))),
	)
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication on /api; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// StoreConfig selects the notebook document driver and its file.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = storage.DriverJSON
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(storage.DriverJSON, storage.DriverBolt)),
		validation.Field(&c.Path, validation.Required),
	)
}

// IndexConfig holds the SQLite search index configuration.
type IndexConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// VisionConfig configures the Gemini client. An empty key is allowed and
// surfaces as an upstream failure on the first call.
type VisionConfig struct {
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries uint          `yaml:"max_retries"`
}

// Validate validates the vision configuration.
func (c *VisionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.MaxRetries, validation.Max(uint(10))),
	)
}

// ImageConfig configures the DALL-E client.
type ImageConfig struct {
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	Size       string        `yaml:"size"`
	Quality    string        `yaml:"quality"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries uint          `yaml:"max_retries"`
}

// Validate validates the image configuration.
func (c *ImageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Size, validation.Required),
		validation.Field(&c.Quality, validation.In("standard", "hd")),
		validation.Field(&c.MaxRetries, validation.Max(uint(10))),
	)
}

// ExportConfig holds download settings for ZIP exports.
type ExportConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// ArchiveConfig configures the optional S3-compatible illustration mirror.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Validate validates the archive configuration. Fields are only required
// when the mirror is enabled.
func (c *ArchiveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.Bucket, validation.When(c.Enabled, validation.Required)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:         5000,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
			},
			CORS: CORSConfig{AllowedOrigins: []string{"*"}},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Store: StoreConfig{
			Driver: storage.DriverJSON,
			Path:   "./data/ecolog_data.json",
		},
		Index: IndexConfig{
			Path:  "./data/ecolog_index.db",
			Watch: true,
		},
		Vision: VisionConfig{
			Model:      "gemini-1.5-flash",
			BaseURL:    "https://generativelanguage.googleapis.com/v1",
			Timeout:    60 * time.Second,
			MaxRetries: 2,
		},
		Image: ImageConfig{
			Model:      "dall-e-3",
			Size:       "1024x1024",
			Quality:    "hd",
			Timeout:    120 * time.Second,
			MaxRetries: 2,
		},
		Export: ExportConfig{
			FetchTimeout: 30 * time.Second,
		},
		Archive: ArchiveConfig{
			Bucket: "ecolog",
		},
	}
}
