package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "ETV"

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Charts   ChartsConfig   `yaml:"charts" envconfig:"CHARTS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
	OpenBrowser     bool          `yaml:"open_browser" envconfig:"OPEN_BROWSER"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" validate:"required,min=1"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	// APIKeys maps key to client name; when set, reload requires X-API-Key
	APIKeys map[string]string `yaml:"api_keys" envconfig:"API_KEYS"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// DataConfig locates the two input files and the fields used to join them
type DataConfig struct {
	CSVPath         string `yaml:"csv_path" envconfig:"CSV_PATH" validate:"required"`
	BoundaryPath    string `yaml:"boundary_path" envconfig:"BOUNDARY_PATH"`
	Encoding        string `yaml:"encoding" envconfig:"ENCODING" validate:"oneof=latin1 windows1252 utf8"`
	AreaCodeField   string `yaml:"area_code_field" envconfig:"AREA_CODE_FIELD" validate:"required"`
	NameOnlyField   string `yaml:"name_only_field" envconfig:"NAME_ONLY_FIELD" validate:"required"`
	NameField       string `yaml:"name_field" envconfig:"NAME_FIELD"`
	CodeField       string `yaml:"code_field" envconfig:"CODE_FIELD" validate:"required"`
	SourceCRS       string `yaml:"source_crs" envconfig:"SOURCE_CRS" validate:"omitempty,startswith=EPSG:"`
	FingerprintMode string `yaml:"fingerprint_mode" envconfig:"FINGERPRINT_MODE" validate:"oneof=stat content"`
	ExportDir       string `yaml:"export_dir" envconfig:"EXPORT_DIR"`
}

// ChartsConfig contains chart rendering options
type ChartsConfig struct {
	AssetsHost string `yaml:"assets_host" envconfig:"ASSETS_HOST" validate:"omitempty,url"`
	Width      string `yaml:"width" envconfig:"WIDTH"`
	Height     string `yaml:"height" envconfig:"HEIGHT"`
}

// HasBoundaries reports whether a boundary file is configured
func (d DataConfig) HasBoundaries() bool {
	return strings.TrimSpace(d.BoundaryPath) != ""
}

// Load builds the configuration from defaults, the first config file found
// and ETV_* environment variables, in increasing order of precedence
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file; an empty path skips the file
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolvePaths anchors relative input paths
func (c *Config) resolvePaths() error {
	paths, err := GetPaths()
	if err != nil {
		return err
	}

	c.Data.CSVPath = paths.Resolve(c.Data.CSVPath)
	if c.Data.HasBoundaries() {
		c.Data.BoundaryPath = paths.Resolve(c.Data.BoundaryPath)
	}
	if c.Data.ExportDir != "" {
		c.Data.ExportDir = paths.Resolve(c.Data.ExportDir)
	}
	return nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// getConfigFilePath returns ETV_CONFIG or the first config file found in
// the usual locations
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Data: DataConfig{
			CSVPath:         DefaultCSVPath,
			BoundaryPath:    DefaultBoundaryPath,
			Encoding:        "latin1",
			AreaCodeField:   DefaultAreaCodeField,
			NameOnlyField:   DefaultNameOnlyField,
			NameField:       DefaultNameField,
			CodeField:       DefaultCodeField,
			FingerprintMode: "stat",
			ExportDir:       "exports",
		},
		Charts: ChartsConfig{
			AssetsHost: DefaultAssetsHost,
			Width:      "100%",
			Height:     "520px",
		},
	}
}
