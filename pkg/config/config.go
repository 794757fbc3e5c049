package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the results crawler
type Config struct {
	// Portal address and account
	Portal PortalConfig `yaml:"portal" json:"portal"`

	// Browser launch options
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Upper bounds for every wait on the portal
	Timeouts TimeoutConfig `yaml:"timeouts" json:"timeouts"`

	// Settling delays for client-rendered views
	Delays DelayConfig `yaml:"delays" json:"delays"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// XML to CSV conversion
	Report ReportConfig `yaml:"report" json:"report"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PortalConfig holds the portal address and credentials
type PortalConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	AccountID string `yaml:"account_id" json:"account_id"`
	Password  string `yaml:"-" json:"-"`
}

// BrowserConfig holds Chrome launch options
type BrowserConfig struct {
	Headless       bool     `yaml:"headless" json:"headless"`
	ExecPath       string   `yaml:"exec_path" json:"exec_path"`
	UserAgent      string   `yaml:"user_agent" json:"user_agent"`
	WindowWidth    int      `yaml:"window_width" json:"window_width"`
	WindowHeight   int      `yaml:"window_height" json:"window_height"`
	ExtraFlags     []string `yaml:"extra_flags" json:"extra_flags"`
	LaunchAttempts int      `yaml:"launch_attempts" json:"launch_attempts"`
}

// TimeoutConfig bounds every wait against the portal
type TimeoutConfig struct {
	Navigation time.Duration `yaml:"navigation" json:"navigation"`
	Redirect   time.Duration `yaml:"redirect" json:"redirect"`
	TwoFactor  time.Duration `yaml:"two_factor" json:"two_factor"`
	Confirm    time.Duration `yaml:"confirm" json:"confirm"`
	Rows       time.Duration `yaml:"rows" json:"rows"`
	Dialog     time.Duration `yaml:"dialog" json:"dialog"`
	Download   time.Duration `yaml:"download" json:"download"`
}

// DelayConfig holds the fixed settling delays
type DelayConfig struct {
	LoginSettle  time.Duration `yaml:"login_settle" json:"login_settle"`
	PageSettle   time.Duration `yaml:"page_settle" json:"page_settle"`
	DialogSettle time.Duration `yaml:"dialog_settle" json:"dialog_settle"`
	ClickSettle  time.Duration `yaml:"click_settle" json:"click_settle"`
	CloseSettle  time.Duration `yaml:"close_settle" json:"close_settle"`
	OrderPacing  time.Duration `yaml:"order_pacing" json:"order_pacing"`
	NetworkQuiet time.Duration `yaml:"network_quiet" json:"network_quiet"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	ManifestFile  string `yaml:"manifest_file" json:"manifest_file"`
}

// ReportConfig holds the conversion step configuration
type ReportConfig struct {
	InputDirectory string `yaml:"input_directory" json:"input_directory"`
	OutputFile     string `yaml:"output_file" json:"output_file"`
	Workers        int    `yaml:"workers" json:"workers"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled     bool `yaml:"enabled" json:"enabled"`
	OnTwoFactor bool `yaml:"on_two_factor" json:"on_two_factor"`
	OnComplete  bool `yaml:"on_complete" json:"on_complete"`
	OnError     bool `yaml:"on_error" json:"on_error"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			BaseURL: "https://wyniki.diag.pl",
		},
		Browser: BrowserConfig{
			// The SMS step needs a visible window
			Headless:       false,
			WindowWidth:    1280,
			WindowHeight:   900,
			LaunchAttempts: 3,
		},
		Timeouts: TimeoutConfig{
			Navigation: 30 * time.Second,
			Redirect:   5 * time.Second,
			TwoFactor:  2 * time.Minute,
			Confirm:    10 * time.Second,
			Rows:       5 * time.Second,
			Dialog:     5 * time.Second,
			Download:   30 * time.Second,
		},
		Delays: DelayConfig{
			LoginSettle:  2 * time.Second,
			PageSettle:   time.Second,
			DialogSettle: 1500 * time.Millisecond,
			ClickSettle:  500 * time.Millisecond,
			CloseSettle:  500 * time.Millisecond,
			OrderPacing:  time.Second,
			NetworkQuiet: 500 * time.Millisecond,
		},
		Output: OutputConfig{
			BaseDirectory: filepath.Join("downloads", "xml_results"),
			ManifestFile:  "crawl-manifest.json",
		},
		Report: ReportConfig{
			InputDirectory: filepath.Join("downloads", "xml_results"),
			OutputFile:     "lab_results.csv",
			Workers:        4,
		},
		Notifications: NotificationConfig{
			Enabled:     true,
			OnTwoFactor: true,
			OnComplete:  true,
			OnError:     true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	// Portal credentials use the names the account owner already keeps in .env
	if user := os.Getenv("WYNIKI_USERNAME"); user != "" {
		c.Portal.AccountID = user
	}
	if password := os.Getenv("WYNIKI_PASSWORD"); password != "" {
		c.Portal.Password = password
	}
	if baseURL := os.Getenv("WYNIKI_BASE_URL"); baseURL != "" {
		c.Portal.BaseURL = baseURL
	}

	if headless := os.Getenv("WYNIKI_HEADLESS"); headless != "" {
		val, err := strconv.ParseBool(headless)
		if err != nil {
			errs = append(errs, fmt.Errorf("WYNIKI_HEADLESS: %w", err))
		} else {
			c.Browser.Headless = val
		}
	}
	if execPath := os.Getenv("WYNIKI_CHROME_PATH"); execPath != "" {
		c.Browser.ExecPath = execPath
	}

	if outputDir := os.Getenv("WYNIKI_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
		c.Report.InputDirectory = outputDir
	}

	if timeout := os.Getenv("WYNIKI_TWO_FACTOR_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("WYNIKI_TWO_FACTOR_TIMEOUT: %w", err))
		} else {
			c.Timeouts.TwoFactor = d
		}
	}
	if timeout := os.Getenv("WYNIKI_DOWNLOAD_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("WYNIKI_DOWNLOAD_TIMEOUT: %w", err))
		} else {
			c.Timeouts.Download = d
		}
	}

	if notifEnabled := os.Getenv("WYNIKI_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}

	if logLevel := os.Getenv("WYNIKI_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("WYNIKI_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		".wyniki.yaml",
		".wyniki.yml",
		"wyniki.yaml",
		filepath.Join(home, ".config", "wyniki", "config.yaml"),
		filepath.Join(home, ".config", "wyniki", "config.yml"),
		filepath.Join(home, ".wyniki.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Portal.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("portal base URL %q is not an absolute URL", c.Portal.BaseURL))
	}

	if c.Browser.LaunchAttempts < 1 {
		errs = append(errs, errors.New("browser launch attempts must be at least 1"))
	}
	if c.Browser.WindowWidth < 0 || c.Browser.WindowHeight < 0 {
		errs = append(errs, errors.New("browser window size cannot be negative"))
	}

	timeouts := map[string]time.Duration{
		"navigation": c.Timeouts.Navigation,
		"redirect":   c.Timeouts.Redirect,
		"two_factor": c.Timeouts.TwoFactor,
		"confirm":    c.Timeouts.Confirm,
		"rows":       c.Timeouts.Rows,
		"dialog":     c.Timeouts.Dialog,
		"download":   c.Timeouts.Download,
	}
	for name, d := range timeouts {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("timeout %s must be positive", name))
		}
	}

	delays := map[string]time.Duration{
		"login_settle":  c.Delays.LoginSettle,
		"page_settle":   c.Delays.PageSettle,
		"dialog_settle": c.Delays.DialogSettle,
		"click_settle":  c.Delays.ClickSettle,
		"close_settle":  c.Delays.CloseSettle,
		"order_pacing":  c.Delays.OrderPacing,
		"network_quiet": c.Delays.NetworkQuiet,
	}
	for name, d := range delays {
		if d < 0 {
			errs = append(errs, fmt.Errorf("delay %s cannot be negative", name))
		}
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Report.OutputFile == "" {
		errs = append(errs, errors.New("report output file is required"))
	}
	if c.Report.Workers < 1 || c.Report.Workers > 32 {
		errs = append(errs, errors.New("report workers must be between 1 and 32"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ManifestPath returns where the crawl manifest is written
func (c *Config) ManifestPath() string {
	if filepath.IsAbs(c.Output.ManifestFile) {
		return c.Output.ManifestFile
	}
	return filepath.Join(c.Output.BaseDirectory, c.Output.ManifestFile)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Keys are the flag names used by cmd/wyniki.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if accountID, ok := flags["account-id"].(string); ok && accountID != "" {
		c.Portal.AccountID = accountID
	}
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Portal.BaseURL = baseURL
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
		c.Report.InputDirectory = outputDir
	}
	if inputDir, ok := flags["input"].(string); ok && inputDir != "" {
		c.Report.InputDirectory = inputDir
	}
	if reportFile, ok := flags["report-file"].(string); ok && reportFile != "" {
		c.Report.OutputFile = reportFile
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Report.Workers = workers
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if execPath, ok := flags["chrome-path"].(string); ok && execPath != "" {
		c.Browser.ExecPath = execPath
	}
	if d, ok := flags["two-factor-timeout"].(time.Duration); ok && d > 0 {
		c.Timeouts.TwoFactor = d
	}
	if d, ok := flags["download-timeout"].(time.Duration); ok && d > 0 {
		c.Timeouts.Download = d
	}
	if enabled, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = enabled
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// godotenv never overrides variables that are already set, so the first file wins
	home, _ := os.UserHomeDir()
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("tests", ".env"))
	_ = godotenv.Load(filepath.Join(home, ".wyniki.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
