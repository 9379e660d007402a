package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	WordPress  WordPressConfig  `toml:"wordpress"`
	Contentful ContentfulConfig `toml:"contentful"`
	Upload     UploadConfig     `toml:"upload"`
	Paths      PathsConfig      `toml:"paths"`
	Database   DatabaseConfig   `toml:"database"`
}

// WordPressConfig points at the source WordPress REST API.
type WordPressConfig struct {
	APIURL          string  `toml:"api_url"`
	RedirectBaseURL string  `toml:"redirect_base_url"`
	RateLimit       float64 `toml:"rate_limit"` // requests per second
}

// ContentfulConfig contains Content Management API credentials and content model settings.
type ContentfulConfig struct {
	AccessToken       string  `toml:"access_token"`
	SpaceID           string  `toml:"space_id"`
	Environment       string  `toml:"environment"`
	Locale            string  `toml:"locale"`
	FallbackAuthorID  string  `toml:"fallback_author_id"`
	PostContentType   string  `toml:"post_content_type"`
	AuthorContentType string  `toml:"author_content_type"`
	BaseURL           string  `toml:"base_url"`
	RateLimit         float64 `toml:"rate_limit"`
}

// UploadConfig tunes the bounded-concurrency uploader.
type UploadConfig struct {
	Concurrency  int      `toml:"concurrency"`
	Delay        Duration `toml:"delay"`
	Timeout      Duration `toml:"timeout"`
	PollInterval Duration `toml:"poll_interval"` // wait between asset processing checks
}

// PathsConfig controls where intermediate and result files are written.
type PathsConfig struct {
	OutputDir string `toml:"output_dir"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Duration is a [time.Duration] that reads and writes TOML strings such as "1s" or "1m30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// envOverrides maps environment variables onto config fields.
var envOverrides = map[string]func(*Config, string){
	"WP_API_URL":                  func(c *Config, v string) { c.WordPress.APIURL = v },
	"REDIRECT_BASE_URL":           func(c *Config, v string) { c.WordPress.RedirectBaseURL = v },
	"CONTENTFUL_CMA_TOKEN":        func(c *Config, v string) { c.Contentful.AccessToken = v },
	"CONTENTFUL_SPACE_ID":         func(c *Config, v string) { c.Contentful.SpaceID = v },
	"CONTENTFUL_ENV_NAME":         func(c *Config, v string) { c.Contentful.Environment = v },
	"CONTENTFUL_LOCALE":           func(c *Config, v string) { c.Contentful.Locale = v },
	"CONTENTFUL_FALLBACK_USER_ID": func(c *Config, v string) { c.Contentful.FallbackAuthorID = v },
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides config values with any of the recognised environment variables that are set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for key, apply := range envOverrides {
		if v, ok := lookup(key); ok && v != "" {
			apply(c, v)
		}
	}
}

// Validate reports every missing or out-of-range setting needed for a full migration.
func (c *Config) Validate() error {
	var problems []string

	if c.WordPress.APIURL == "" {
		problems = append(problems, "wordpress.api_url is required")
	}
	if c.Contentful.AccessToken == "" {
		problems = append(problems, "contentful.access_token is required")
	}
	if c.Contentful.SpaceID == "" {
		problems = append(problems, "contentful.space_id is required")
	}
	if c.Contentful.Environment == "" {
		problems = append(problems, "contentful.environment is required")
	}
	if c.Contentful.Locale == "" {
		problems = append(problems, "contentful.locale is required")
	}
	if c.Contentful.FallbackAuthorID == "" {
		problems = append(problems, "contentful.fallback_author_id is required")
	}
	if c.Upload.Concurrency < 1 {
		problems = append(problems, "upload.concurrency must be at least 1")
	}
	if c.Upload.Delay.Duration < 0 {
		problems = append(problems, "upload.delay must not be negative")
	}
	if c.Upload.Timeout.Duration <= 0 {
		problems = append(problems, "upload.timeout must be positive")
	}
	if c.Paths.OutputDir == "" {
		problems = append(problems, "paths.output_dir is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
