package engmetrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// JiraConfig selects and parameterizes the Jira authentication mode.
// Cloud basic auth is used when server_url and username are set; the
// Server OAuth1 mode is used when oauth_config_dir points at a dotfile
// directory written by the jira-oauth command.
type JiraConfig struct {
	// ServerURL is the root URL of a Jira Cloud instance.
	ServerURL string `mapstructure:"server_url" yaml:"server_url"`

	// Username owns the API token used for Cloud basic auth.
	Username string `mapstructure:"username" yaml:"username"`

	// APIToken is the Cloud API token. When empty it is looked up in
	// the system keyring instead.
	APIToken string `mapstructure:"api_token" yaml:"api_token"`

	// OAuthConfigDir is the OAuth dotfile directory for Jira Server
	// (typically ~/.oauthconfig).
	OAuthConfigDir string `mapstructure:"oauth_config_dir" yaml:"oauth_config_dir"`
}

// ReportConfig parameterizes the issue-report command.
type ReportConfig struct {
	// Projects lists the Jira project keys to report on.
	Projects []string `mapstructure:"projects" yaml:"projects"`

	// MaxResults caps issues fetched per project; zero means no cap.
	MaxResults int `mapstructure:"max_results" yaml:"max_results"`

	// Output is the markdown file the report is written to.
	Output string `mapstructure:"output" yaml:"output"`

	// RefreshMinutes keeps the tool running and rewrites the report on
	// this interval. Zero means write once and exit.
	RefreshMinutes int `mapstructure:"refresh_minutes" yaml:"refresh_minutes"`
}

// AppConfig is the top-level configuration.
type AppConfig struct {
	Jira   JiraConfig   `mapstructure:"jira" yaml:"jira"`
	Report ReportConfig `mapstructure:"report" yaml:"report"`

	// CachePath enables the local SQLite snapshot cache when set.
	CachePath string `mapstructure:"cache_path" yaml:"cache_path"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/engmetrics/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "engmetrics", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Report: ReportConfig{
			Output: "report.md",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("report.output", "report.md")
	v.SetDefault("report.max_results", 0)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
