package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/fragments/internal/api"
)

// Storage backends.
const (
	MetadataBackendMemory = "memory"
	MetadataBackendSQLite = "sqlite"

	DataBackendMemory = "memory"
	DataBackendFS     = "fs"
	DataBackendS3     = "s3"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the metadata and data store backends. The two
// are independent: metadata may live in SQLite while payloads live in S3.
type StorageConfig struct {
	Metadata MetadataConfig `yaml:"metadata"`
	Data     DataConfig     `yaml:"data"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if err := c.Metadata.Validate(); err != nil {
		return err
	}
	return c.Data.Validate()
}

// MetadataConfig holds metadata store configuration.
type MetadataConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"` // SQLite database file
}

// Validate validates the metadata store configuration.
func (c *MetadataConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = MetadataBackendMemory
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(MetadataBackendMemory, MetadataBackendSQLite)),
	); err != nil {
		return err
	}
	if c.Backend == MetadataBackendSQLite && c.Path == "" {
		return fmt.Errorf("storage: metadata backend is %q but path is empty", MetadataBackendSQLite)
	}
	return nil
}

// DataConfig holds data store configuration.
type DataConfig struct {
	Backend string   `yaml:"backend"`
	Path    string   `yaml:"path"` // payload directory for the fs backend
	S3      S3Config `yaml:"s3"`
}

// Validate validates the data store configuration.
func (c *DataConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = DataBackendMemory
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(DataBackendMemory, DataBackendFS, DataBackendS3)),
	); err != nil {
		return err
	}
	switch c.Backend {
	case DataBackendFS:
		if c.Path == "" {
			return fmt.Errorf("storage: data backend is %q but path is empty", DataBackendFS)
		}
	case DataBackendS3:
		return c.S3.Validate()
	}
	return nil
}

// S3Config holds S3 data store configuration.
type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Prefix   string `yaml:"prefix"`
}

// Validate validates the S3 configuration.
func (c *S3Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Bucket, validation.Required),
		validation.Field(&c.Region, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how requesters are authenticated and mapped to owner ids:
//   - "disabled" (default): no authentication, a fixed anonymous owner;
//     suitable for local dev only.
//   - "token": single Bearer token; Token must be non-empty.
//   - "basic": HTTP Basic credentials from Users.
type AuthConfig struct {
	Mode  string            `yaml:"mode"`
	Token string            `yaml:"token"`
	Users map[string]string `yaml:"users"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = api.AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required,
			validation.In(api.AuthModeDisabled, api.AuthModeToken, api.AuthModeBasic)),
	); err != nil {
		return err
	}
	if c.Mode == api.AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", api.AuthModeToken)
	}
	if c.Mode == api.AuthModeBasic && len(c.Users) == 0 {
		return fmt.Errorf("auth: mode is %q but no users configured", api.AuthModeBasic)
	}
	return nil
}

// APIConfig converts the section into the api layer's auth settings.
func (c *AuthConfig) APIConfig() api.AuthConfig {
	return api.AuthConfig{
		Mode:  c.Mode,
		Token: c.Token,
		Users: c.Users,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Metadata: MetadataConfig{
				Backend: MetadataBackendSQLite,
				Path:    "./fragments.db",
			},
			Data: DataConfig{
				Backend: DataBackendFS,
				Path:    "./data",
			},
		},
		Auth: AuthConfig{
			Mode: api.AuthModeDisabled,
		},
	}
}
