// Package oauth implements the three-legged OAuth1 token dance against a
// Jira Server/DC instance: obtain a request token, send the operator to
// the authorize page, and exchange the confirmed request token for a
// durable access token. All requests are RSA-SHA1 signed per RFC 5849.
package oauth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dghubble/oauth1"
)

// Jira Server exposes the three OAuth1 endpoints at fixed paths under the
// instance base URL.
const (
	requestTokenPath = "/plugins/servlet/oauth/request-token"
	authorizePath    = "/plugins/servlet/oauth/authorize"
	accessTokenPath  = "/plugins/servlet/oauth/access-token"
)

// Step names the dance step a failure occurred in.
type Step string

const (
	StepRequestToken Step = "request-token"
	StepAuthorize    Step = "authorize"
	StepAccessToken  Step = "access-token"
)

// FlowError reports the failure of one dance step. The dance is strictly
// sequential and terminal on first failure, so at most one of these is
// ever produced per run.
type FlowError struct {
	Step Step
	Err  error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("oauth %s: %v", e.Step, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether the step failed at the transport level, as
// opposed to the provider returning a malformed token response.
func (e *FlowError) IsNetwork() bool {
	var urlErr *url.Error
	return errors.As(e.Err, &urlErr)
}

// ErrAborted is returned when the operator declines the authorization
// prompt. It is a clean exit, not a failure: nothing has been persisted.
var ErrAborted = errors.New("authorization declined by operator")

// Token is an OAuth1 (token, token secret) pair.
type Token struct {
	Token  string
	Secret string
}

// Flow runs the token dance. Every collaborator is injected: the flow
// itself never touches the filesystem and never prompts directly.
type Flow struct {
	// BaseURL is the root URL of the Jira instance.
	BaseURL string

	// ConsumerKey identifies the application link registered in Jira.
	ConsumerKey string

	// PrivateKey signs every request with RSA-SHA1.
	PrivateKey *rsa.PrivateKey

	// Confirm presents the authorization URL to the operator and blocks,
	// without timeout, until they answer. Returning false aborts the
	// dance.
	Confirm func(authorizeURL string) (bool, error)

	// HTTPClient overrides the transport used for the token calls.
	// Nil means http.DefaultClient.
	HTTPClient *http.Client
}

// Run walks the dance to completion and returns the issued access token.
// On any step failure it returns a *FlowError naming the step; if the
// operator declines, it returns ErrAborted.
func (f *Flow) Run() (*Token, error) {
	if f.BaseURL == "" {
		return nil, errors.New("oauth flow: base URL is required")
	}
	if f.ConsumerKey == "" {
		return nil, errors.New("oauth flow: consumer key is required")
	}
	if f.PrivateKey == nil {
		return nil, errors.New("oauth flow: private key is required")
	}
	if f.Confirm == nil {
		return nil, errors.New("oauth flow: confirm callback is required")
	}

	cfg := newConfig(f.BaseURL, f.ConsumerKey, f.PrivateKey, f.HTTPClient)

	requestToken, requestSecret, err := cfg.RequestToken()
	if err != nil {
		return nil, &FlowError{Step: StepRequestToken, Err: err}
	}

	authorizeURL, err := cfg.AuthorizationURL(requestToken)
	if err != nil {
		return nil, &FlowError{Step: StepAuthorize, Err: err}
	}

	ok, err := f.Confirm(authorizeURL.String())
	if err != nil {
		return nil, fmt.Errorf("confirming authorization: %w", err)
	}
	if !ok {
		return nil, ErrAborted
	}

	// Jira Server's OAuth1 implementation issues no verifier code.
	accessToken, accessSecret, err := cfg.AccessToken(
		requestToken, requestSecret, "",
	)
	if err != nil {
		return nil, &FlowError{Step: StepAccessToken, Err: err}
	}

	return &Token{Token: accessToken, Secret: accessSecret}, nil
}

// NewAccessClient returns an *http.Client whose transport signs every
// request with the stored access token. It is the client to hand to the
// Jira REST layer after a completed dance.
func NewAccessClient(
	baseURL string,
	consumerKey string,
	privateKey *rsa.PrivateKey,
	token Token,
) *http.Client {
	cfg := newConfig(baseURL, consumerKey, privateKey, nil)
	return cfg.Client(
		oauth1.NoContext, oauth1.NewToken(token.Token, token.Secret),
	)
}

// newConfig assembles the oauth1 client config for a Jira instance. The
// signer hashes the signature base string as UTF-8 bytes; signing is
// always byte-oriented, never locale- or text-dependent.
func newConfig(
	baseURL string,
	consumerKey string,
	privateKey *rsa.PrivateKey,
	httpClient *http.Client,
) *oauth1.Config {
	base := strings.TrimRight(baseURL, "/")
	return &oauth1.Config{
		ConsumerKey: consumerKey,
		CallbackURL: "oob",
		Endpoint: oauth1.Endpoint{
			RequestTokenURL: base + requestTokenPath,
			AuthorizeURL:    base + authorizePath,
			AccessTokenURL:  base + accessTokenPath,
		},
		Signer:     &oauth1.RSASigner{PrivateKey: privateKey},
		HTTPClient: httpClient,
	}
}
