// Package auth obtains OAuth2 credentials for the Google APIs.
//
// A cached token is used while it is valid and refreshed when it has a
// refresh token. Otherwise the installed-app flow runs: the consent URL is
// printed, and the authorization code is received on a loopback listener.
// Every new or refreshed token is written back to the token file.
package auth

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	alterrors "github.com/memtensor/altsheet/pkg/errors"
	"github.com/memtensor/altsheet/pkg/interfaces"
)

// Config locates the client secret and the token cache
type Config struct {
	CredentialsFile string
	TokenFile       string
	Scopes          []string
}

// Provider implements interfaces.CredentialProvider
type Provider struct {
	config     Config
	logger     interfaces.Logger
	prompt     io.Writer
	openURL    func(authURL string) error
	listenAddr string
}

// NewProvider creates a provider that prints the consent URL to prompt
func NewProvider(config Config, logger interfaces.Logger, prompt io.Writer) *Provider {
	if prompt == nil {
		prompt = os.Stderr
	}
	return &Provider{
		config:     config,
		logger:     logger,
		prompt:     prompt,
		listenAddr: "127.0.0.1:0",
	}
}

// WithBrowser sets a function that opens the consent URL
func (p *Provider) WithBrowser(open func(authURL string) error) *Provider {
	p.openURL = open
	return p
}

// Client returns an HTTP client that authorizes every request
func (p *Provider) Client(ctx context.Context) (*http.Client, error) {
	oauthConfig, err := p.oauthConfig()
	if err != nil {
		return nil, err
	}

	tok, err := p.token(ctx, oauthConfig)
	if err != nil {
		return nil, err
	}

	source := &cachingTokenSource{
		base:   oauthConfig.TokenSource(ctx, tok),
		path:   p.config.TokenFile,
		last:   tok.AccessToken,
		logger: p.logger,
	}
	return oauth2.NewClient(ctx, source), nil
}

func (p *Provider) oauthConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(p.config.CredentialsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, alterrors.NewAuthError("client secret file missing", alterrors.NewFileNotFoundError(p.config.CredentialsFile))
		}
		return nil, alterrors.NewAuthError("failed to read client secret file", err)
	}

	oauthConfig, err := google.ConfigFromJSON(data, p.config.Scopes...)
	if err != nil {
		return nil, alterrors.NewAuthError("invalid client secret file", err)
	}
	return oauthConfig, nil
}

func (p *Provider) token(ctx context.Context, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	cached, err := LoadToken(p.config.TokenFile)
	switch {
	case err == nil && cached.Valid():
		p.logger.Debug("Using cached token", map[string]interface{}{"token_file": p.config.TokenFile})
		return cached, nil

	case err == nil && cached.RefreshToken != "":
		tok, refreshErr := oauthConfig.TokenSource(ctx, cached).Token()
		if refreshErr == nil {
			p.logger.Info("Token refreshed", map[string]interface{}{"token_file": p.config.TokenFile})
			return tok, p.save(tok)
		}
		p.logger.Warn("Token refresh failed, starting authorization", map[string]interface{}{"error": refreshErr.Error()})

	case err != nil && !alterrors.IsCode(err, alterrors.ErrCodeFileNotFound):
		p.logger.Warn("Ignoring unreadable token file", map[string]interface{}{
			"token_file": p.config.TokenFile,
			"error":      err.Error(),
		})
	}

	tok, err := p.authorize(ctx, oauthConfig)
	if err != nil {
		return nil, err
	}
	return tok, p.save(tok)
}

type callbackResult struct {
	code string
	err  error
}

// authorize runs the installed-app flow with a loopback redirect
func (p *Provider) authorize(ctx context.Context, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", p.listenAddr)
	if err != nil {
		return nil, alterrors.NewAuthError("failed to start loopback listener", err)
	}

	flowConfig := *oauthConfig
	flowConfig.RedirectURL = fmt.Sprintf("http://%s/", listener.Addr().String())

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := flowConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	results := make(chan callbackResult, 1)
	deliver := func(r callbackResult) {
		select {
		case results <- r:
		default:
		}
	}

	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, "authorization failed: "+e, http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", e)})
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "The authentication flow has completed. You may close this window.")
		deliver(callbackResult{code: code})
	})}
	go func() {
		if err := server.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			deliver(callbackResult{err: err})
		}
	}()
	defer server.Close()

	fmt.Fprintf(p.prompt, "Please visit this URL to authorize this application: %s\n", authURL)
	if p.openURL != nil {
		if err := p.openURL(authURL); err != nil {
			p.logger.Warn("Failed to open browser", map[string]interface{}{"error": err.Error()})
		}
	}

	var result callbackResult
	select {
	case result = <-results:
	case <-ctx.Done():
		return nil, alterrors.NewAuthError("authorization interrupted", ctx.Err())
	}
	if result.err != nil {
		return nil, alterrors.NewAuthError("authorization failed", result.err)
	}

	tok, err := flowConfig.Exchange(ctx, result.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, alterrors.NewAuthError("failed to exchange authorization code", err)
	}
	p.logger.Info("Authorization complete", map[string]interface{}{"token_file": p.config.TokenFile})
	return tok, nil
}

func (p *Provider) save(tok *oauth2.Token) error {
	if err := SaveToken(p.config.TokenFile, tok); err != nil {
		return alterrors.NewAuthError("failed to cache token", err)
	}
	return nil
}

// LoadToken reads a token cached by SaveToken
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, alterrors.NewFileNotFoundError(path)
		}
		return nil, alterrors.NewFileError(fmt.Sprintf("failed to read %s", path), err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, alterrors.NewFileError(fmt.Sprintf("failed to parse %s", path), err)
	}
	return &tok, nil
}

// SaveToken writes tok to path, readable by the owner only
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// cachingTokenSource writes every new access token back to the cache file
type cachingTokenSource struct {
	base   oauth2.TokenSource
	path   string
	logger interfaces.Logger

	mu   sync.Mutex
	last string
}

func (s *cachingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := SaveToken(s.path, tok); err != nil {
			s.logger.Warn("Failed to cache refreshed token", map[string]interface{}{"error": err.Error()})
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}

var _ interfaces.CredentialProvider = (*Provider)(nil)
