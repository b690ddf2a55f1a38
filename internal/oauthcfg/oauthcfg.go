// Package oauthcfg reads and writes the OAuth dotfile directory used for
// the Jira Server integration: an ini-style config file holding the
// consumer setup and, after a successful token dance, the issued access
// token, plus a PEM-encoded RSA private key.
//
// The directory path is always passed in explicitly; resolving it (for
// example to ~/.oauthconfig) is the caller's job.
package oauthcfg

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// File names inside the dotfile directory.
const (
	ConfigFileName = ".oauth_jira_config"
	KeyFileName    = "oauth.pem"
)

// Section and key names of the config file.
const (
	sectionOAuthConfig = "oauth_config"
	sectionTokenConfig = "oauth_token_config"
	sectionServerInfo  = "server_info"

	keyBaseURL        = "jira_base_url"
	keyConsumerKey    = "consumer_key"
	keyTestIssue      = "test_jira_issue"
	keyOAuthToken     = "oauth_token"
	keyOAuthSecret    = "oauth_token_secret"
	keyPrivateKeyFile = "user_private_key_file_name"
)

// Error reports missing or malformed configuration. It is always
// detectable before any network call is made.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("oauth config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err (or any error in its chain) is a
// configuration error.
func IsConfigError(err error) bool {
	var cfgErr *Error
	return errors.As(err, &cfgErr)
}

// Config is the consumer setup read from the [oauth_config] section.
type Config struct {
	// BaseURL is the root URL of the Jira instance, without a trailing
	// slash.
	BaseURL string

	// ConsumerKey identifies the application link registered in Jira.
	ConsumerKey string

	// TestIssue is an optional issue key fetched as a smoke test after
	// the dance completes.
	TestIssue string
}

// TokenRecord is the durable credential written after a successful dance.
// Once stored it is the sole credential needed for authenticated calls.
type TokenRecord struct {
	OAuthToken       string
	OAuthTokenSecret string
	ConsumerKey      string
	PrivateKeyFile   string
	BaseURL          string
}

// Dir is an OAuth dotfile directory.
type Dir struct {
	path string
}

// NewDir returns a Dir rooted at path. The directory need not exist yet
// for writes; reads fail with a config error if it doesn't.
func NewDir(path string) Dir {
	return Dir{path: path}
}

// Path returns the directory path.
func (d Dir) Path() string {
	return d.path
}

// ConfigPath returns the path of the ini config file.
func (d Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// KeyPath returns the path of the RSA private key file.
func (d Dir) KeyPath() string {
	return filepath.Join(d.path, KeyFileName)
}

// LoadConfig reads the [oauth_config] section. jira_base_url and
// consumer_key are required; a trailing slash on the base URL is trimmed.
func (d Dir) LoadConfig() (*Config, error) {
	f, err := ini.Load(d.ConfigPath())
	if err != nil {
		return nil, &Error{Path: d.ConfigPath(), Err: err}
	}

	sec := f.Section(sectionOAuthConfig)
	cfg := &Config{
		BaseURL:     strings.TrimRight(sec.Key(keyBaseURL).String(), "/"),
		ConsumerKey: sec.Key(keyConsumerKey).String(),
		TestIssue:   sec.Key(keyTestIssue).String(),
	}

	if cfg.BaseURL == "" {
		return nil, &Error{
			Path: d.ConfigPath(),
			Err: fmt.Errorf(
				"missing %s in [%s]", keyBaseURL, sectionOAuthConfig,
			),
		}
	}
	if cfg.ConsumerKey == "" {
		return nil, &Error{
			Path: d.ConfigPath(),
			Err: fmt.Errorf(
				"missing %s in [%s]", keyConsumerKey, sectionOAuthConfig,
			),
		}
	}

	return cfg, nil
}

// LoadToken reads the [oauth_token_config] and [server_info] sections
// written by a previous dance.
func (d Dir) LoadToken() (*TokenRecord, error) {
	f, err := ini.Load(d.ConfigPath())
	if err != nil {
		return nil, &Error{Path: d.ConfigPath(), Err: err}
	}

	tokenSec := f.Section(sectionTokenConfig)
	serverSec := f.Section(sectionServerInfo)

	rec := &TokenRecord{
		OAuthToken:       tokenSec.Key(keyOAuthToken).String(),
		OAuthTokenSecret: tokenSec.Key(keyOAuthSecret).String(),
		ConsumerKey:      tokenSec.Key(keyConsumerKey).String(),
		PrivateKeyFile:   tokenSec.Key(keyPrivateKeyFile).String(),
		BaseURL:          strings.TrimRight(serverSec.Key(keyBaseURL).String(), "/"),
	}

	if rec.OAuthToken == "" || rec.OAuthTokenSecret == "" {
		return nil, &Error{
			Path: d.ConfigPath(),
			Err: fmt.Errorf(
				"no access token stored; run the jira-oauth dance first",
			),
		}
	}

	return rec, nil
}

// WriteToken rewrites the config file from scratch with the consumer
// setup and the freshly issued token. The file is written to a temp file
// and renamed into place, so it is either fully written or untouched.
// Keys from a previous run are never merged in.
func (d Dir) WriteToken(cfg *Config, rec *TokenRecord) error {
	if err := os.MkdirAll(d.path, 0o700); err != nil {
		return fmt.Errorf("creating config directory %s: %w", d.path, err)
	}

	f := ini.Empty()

	oauthSec, err := f.NewSection(sectionOAuthConfig)
	if err != nil {
		return fmt.Errorf("building config: %w", err)
	}
	oauthSec.Key(keyBaseURL).SetValue(cfg.BaseURL)
	oauthSec.Key(keyConsumerKey).SetValue(cfg.ConsumerKey)
	if cfg.TestIssue != "" {
		oauthSec.Key(keyTestIssue).SetValue(cfg.TestIssue)
	}

	tokenSec, err := f.NewSection(sectionTokenConfig)
	if err != nil {
		return fmt.Errorf("building config: %w", err)
	}
	tokenSec.Key(keyOAuthToken).SetValue(rec.OAuthToken)
	tokenSec.Key(keyOAuthSecret).SetValue(rec.OAuthTokenSecret)
	tokenSec.Key(keyConsumerKey).SetValue(rec.ConsumerKey)
	tokenSec.Key(keyPrivateKeyFile).SetValue(rec.PrivateKeyFile)

	serverSec, err := f.NewSection(sectionServerInfo)
	if err != nil {
		return fmt.Errorf("building config: %w", err)
	}
	serverSec.Key(keyBaseURL).SetValue(rec.BaseURL)

	tmp, err := os.CreateTemp(d.path, ConfigFileName+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp config file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()

	if err := f.SaveTo(tmpName); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing config to %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, d.ConfigPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing config %s: %w", d.ConfigPath(), err)
	}

	return nil
}

// LoadPrivateKey reads and parses the PEM-encoded RSA private key.
// Both PKCS#1 and PKCS#8 encodings are accepted.
func (d Dir) LoadPrivateKey() (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(d.KeyPath())
	if err != nil {
		return nil, &Error{Path: d.KeyPath(), Err: err}
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, &Error{
			Path: d.KeyPath(),
			Err:  fmt.Errorf("no PEM block found"),
		}
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, &Error{
			Path: d.KeyPath(),
			Err:  fmt.Errorf("parsing private key: %w", err),
		}
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, &Error{
			Path: d.KeyPath(),
			Err:  fmt.Errorf("private key is not RSA"),
		}
	}

	return key, nil
}
