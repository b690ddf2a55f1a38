// Command jira-oauth runs the three-legged OAuth1 token dance against a
// Jira Server/DC instance and stores the issued access token in the
// ~/.oauthconfig dotfile directory. Run it once per instance; afterwards
// the stored token is the only credential the reporting tools need.
package main

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/nhle/engmetrics/internal/oauth"
	"github.com/nhle/engmetrics/internal/oauthcfg"
	"github.com/nhle/engmetrics/internal/theme"
	"github.com/nhle/engmetrics/jira"
)

func main() {
	err := run()
	if err == nil {
		return
	}

	if errors.Is(err, oauth.ErrAborted) {
		fmt.Println(theme.WarnStyle.Render(
			"ABORTED: authorization declined, nothing was stored.",
		))
		os.Exit(1)
	}

	var flowErr *oauth.FlowError
	if errors.As(err, &flowErr) && flowErr.IsNetwork() {
		fmt.Fprintln(os.Stderr, theme.ErrorStyle.Render(
			"FAILED: could not reach the Jira instance.",
		))
	} else {
		fmt.Fprintln(os.Stderr, theme.ErrorStyle.Render("FAILED"))
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func run() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}
	dir := oauthcfg.NewDir(filepath.Join(home, ".oauthconfig"))

	cfg, err := dir.LoadConfig()
	if err != nil {
		return err
	}
	key, err := dir.LoadPrivateKey()
	if err != nil {
		return err
	}

	fmt.Println(theme.TitleStyle.Render("Jira OAuth token dance"))
	fmt.Printf("Instance: %s\n", cfg.BaseURL)
	fmt.Printf("Consumer: %s\n\n", cfg.ConsumerKey)

	flow := &oauth.Flow{
		BaseURL:     cfg.BaseURL,
		ConsumerKey: cfg.ConsumerKey,
		PrivateKey:  key,
		Confirm:     confirmAuthorization,
	}

	token, err := flow.Run()
	if err != nil {
		return err
	}

	rec := &oauthcfg.TokenRecord{
		OAuthToken:       token.Token,
		OAuthTokenSecret: token.Secret,
		ConsumerKey:      cfg.ConsumerKey,
		PrivateKeyFile:   dir.KeyPath(),
		BaseURL:          cfg.BaseURL,
	}
	if err := dir.WriteToken(cfg, rec); err != nil {
		return err
	}

	fmt.Println(theme.SuccessStyle.Render("SUCCESS"))
	fmt.Printf("Access token stored in %s\n", dir.ConfigPath())

	smokeTest(cfg, key, rec)
	return nil
}

// confirmAuthorization shows the authorize URL and blocks until the
// operator says they have (or have not) granted access in the browser.
func confirmAuthorization(authorizeURL string) (bool, error) {
	fmt.Println("Open this URL in a browser and authorize the request token:")
	fmt.Printf("\n  %s\n\n", theme.URLStyle.Render(authorizeURL))

	var authorized bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Have you authorized me?").
			Affirmative("y").
			Negative("n").
			Value(&authorized),
	))
	if err := form.Run(); err != nil {
		return false, err
	}

	return authorized, nil
}

// smokeTest fetches the configured test issue with the fresh token. A
// failure here is a warning only: the token is already stored and may
// simply lack permission on that one issue.
func smokeTest(cfg *oauthcfg.Config, key *rsa.PrivateKey, rec *oauthcfg.TokenRecord) {
	if cfg.TestIssue == "" {
		return
	}

	httpClient := oauth.NewAccessClient(
		rec.BaseURL, rec.ConsumerKey, key,
		oauth.Token{Token: rec.OAuthToken, Secret: rec.OAuthTokenSecret},
	)
	adapter := jira.NewAdapter(
		jira.NewClientWithHTTP(rec.BaseURL, httpClient), nil,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	issue, err := adapter.Issue(ctx, cfg.TestIssue)
	if err != nil {
		fmt.Println(theme.WarnStyle.Render(fmt.Sprintf(
			"warning: smoke test against %s failed: %v", cfg.TestIssue, err,
		)))
		return
	}

	fmt.Printf("Smoke test OK: %s: %s\n", issue.Key, issue.Summary)
}
