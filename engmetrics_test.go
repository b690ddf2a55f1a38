package engmetrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Report.Output != "report.md" {
		t.Errorf("Output = %q, want report.md", cfg.Report.Output)
	}
	if cfg.Report.MaxResults != 0 {
		t.Errorf("MaxResults = %d, want 0", cfg.Report.MaxResults)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
jira:
  server_url: https://example.atlassian.net
  username: dana@example.com
  api_token: secret
report:
  projects: [ENG, OPS]
  max_results: 200
  output: weekly.md
cache_path: /tmp/engmetrics.db
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Jira.ServerURL != "https://example.atlassian.net" {
		t.Errorf("ServerURL = %q", cfg.Jira.ServerURL)
	}
	if cfg.Jira.Username != "dana@example.com" || cfg.Jira.APIToken != "secret" {
		t.Errorf("credentials = %q/%q", cfg.Jira.Username, cfg.Jira.APIToken)
	}
	if len(cfg.Report.Projects) != 2 || cfg.Report.Projects[0] != "ENG" {
		t.Errorf("Projects = %v", cfg.Report.Projects)
	}
	if cfg.Report.MaxResults != 200 {
		t.Errorf("MaxResults = %d", cfg.Report.MaxResults)
	}
	if cfg.Report.Output != "weekly.md" {
		t.Errorf("Output = %q", cfg.Report.Output)
	}
	if cfg.CachePath != "/tmp/engmetrics.db" {
		t.Errorf("CachePath = %q", cfg.CachePath)
	}
}

func TestNewRejectsMissingAuth(t *testing.T) {
	_, err := New(AppConfig{})
	if err == nil {
		t.Fatal("expected an error with no auth configured")
	}
	if !strings.Contains(err.Error(), "no authentication") {
		t.Errorf("err = %v", err)
	}
}

func TestNewRejectsConflictingAuth(t *testing.T) {
	_, err := New(AppConfig{
		Jira: JiraConfig{
			ServerURL:      "https://example.atlassian.net",
			Username:       "dana@example.com",
			APIToken:       "secret",
			OAuthConfigDir: "/home/dana/.oauthconfig",
		},
	})
	if err == nil {
		t.Fatal("expected an error with both auth modes configured")
	}
	if !strings.Contains(err.Error(), "not both") {
		t.Errorf("err = %v", err)
	}
}

func TestNewRejectsPartialCloudAuth(t *testing.T) {
	_, err := New(AppConfig{
		Jira: JiraConfig{ServerURL: "https://example.atlassian.net"},
	})
	if err == nil {
		t.Fatal("expected an error with cloud auth missing the username")
	}
}

func TestNewCloudEngine(t *testing.T) {
	engine, err := New(AppConfig{
		Jira: JiraConfig{
			ServerURL: "https://example.atlassian.net",
			Username:  "dana@example.com",
			APIToken:  "secret",
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()

	if engine.Jira() == nil {
		t.Error("Jira() = nil")
	}
	if engine.Store() != nil {
		t.Error("Store() should be nil without a cache path")
	}
}

func TestNewEngineWithCache(t *testing.T) {
	engine, err := New(AppConfig{
		Jira: JiraConfig{
			ServerURL: "https://example.atlassian.net",
			Username:  "dana@example.com",
			APIToken:  "secret",
		},
		CachePath: filepath.Join(t.TempDir(), "cache.db"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()

	if engine.Store() == nil {
		t.Error("Store() = nil with a cache path configured")
	}
}

func TestNewServerModeRequiresToken(t *testing.T) {
	// An empty dotfile directory means the dance has never been run.
	_, err := New(AppConfig{
		Jira: JiraConfig{OAuthConfigDir: t.TempDir()},
	})
	if err == nil {
		t.Fatal("expected an error without a stored access token")
	}
}
