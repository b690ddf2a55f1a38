// Package engmetrics pulls issue data out of Jira and turns it into
// delivery metrics: lead time, cycle time, and per-state flow durations,
// all measured in business time. It supports Jira Cloud (basic auth with
// an API token) and Jira Server/DC (OAuth1 with an RSA-signed access
// token obtained by the jira-oauth command).
package engmetrics

import (
	"errors"
	"fmt"

	"github.com/nhle/engmetrics/internal/credential"
	"github.com/nhle/engmetrics/internal/oauth"
	"github.com/nhle/engmetrics/internal/oauthcfg"
	"github.com/nhle/engmetrics/internal/store"
	"github.com/nhle/engmetrics/jira"
)

// Engine is the top-level entry point: a configured Jira adapter plus,
// when a cache path is configured, a SQLite store snapshotting every
// query result.
type Engine struct {
	jira  *jira.Adapter
	store *store.SQLiteStore
}

// New builds an Engine from config. Authentication mode is picked from
// the Jira section: Cloud basic auth when server_url and username are
// set, OAuth1 when oauth_config_dir is set. Setting both is an error.
func New(cfg AppConfig) (*Engine, error) {
	client, err := newJiraClient(cfg.Jira)
	if err != nil {
		return nil, err
	}

	var (
		st   *store.SQLiteStore
		snap jira.Snapshotter
	)
	if cfg.CachePath != "" {
		st, err = store.NewSQLiteStore(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("opening cache %s: %w", cfg.CachePath, err)
		}
		snap = st
	}

	return &Engine{
		jira:  jira.NewAdapter(client, snap),
		store: st,
	}, nil
}

// newJiraClient builds the REST client for the configured auth mode.
func newJiraClient(cfg JiraConfig) (*jira.Client, error) {
	cloud := cfg.ServerURL != "" || cfg.Username != ""
	server := cfg.OAuthConfigDir != ""

	switch {
	case cloud && server:
		return nil, errors.New(
			"jira config: set either server_url/username or oauth_config_dir, not both",
		)
	case cloud:
		if cfg.ServerURL == "" || cfg.Username == "" {
			return nil, errors.New(
				"jira config: cloud auth needs both server_url and username",
			)
		}
		token := cfg.APIToken
		if token == "" {
			var err error
			token, err = credential.Get(credential.KeyJiraAPIToken)
			if err != nil {
				return nil, fmt.Errorf(
					"jira config: api_token not set and keyring lookup failed: %w",
					err,
				)
			}
		}
		return jira.NewClient(cfg.ServerURL, cfg.Username, token), nil
	case server:
		dir := oauthcfg.NewDir(cfg.OAuthConfigDir)
		rec, err := dir.LoadToken()
		if err != nil {
			return nil, err
		}
		key, err := dir.LoadPrivateKey()
		if err != nil {
			return nil, err
		}
		httpClient := oauth.NewAccessClient(
			rec.BaseURL, rec.ConsumerKey, key,
			oauth.Token{Token: rec.OAuthToken, Secret: rec.OAuthTokenSecret},
		)
		return jira.NewClientWithHTTP(rec.BaseURL, httpClient), nil
	default:
		return nil, errors.New(
			"jira config: no authentication configured (set server_url/username or oauth_config_dir)",
		)
	}
}

// Jira returns the issue adapter.
func (e *Engine) Jira() *jira.Adapter {
	return e.jira
}

// Store returns the snapshot store, or nil when caching is disabled.
func (e *Engine) Store() store.Store {
	if e.store == nil {
		return nil
	}
	return e.store
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
