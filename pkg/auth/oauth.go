package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// ClientSecretsFile is the OAuth client downloaded from the Google Cloud
	// console, expected in the configuration directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile caches the access and refresh tokens next to it.
	TokenFile = "token.json"

	// LocalhostAuthPort is where the local server waits for the OAuth redirect.
	LocalhostAuthPort = "6789"

	authTimeout = 5 * time.Minute
)

// Authenticator runs the installed-app OAuth flow against the files kept in
// a configuration directory.
type Authenticator struct {
	Dir    string
	Scopes []string
	Logger *zap.Logger

	// Prompt shows the consent URL to the user.
	Prompt func(authURL string)
}

// New returns an Authenticator for dir.
func New(dir string, scopes []string, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		Dir:    dir,
		Scopes: scopes,
		Logger: logger,
		Prompt: func(authURL string) {
			fmt.Printf("Open the following URL in your browser to authorize planboard:\n%s\n", authURL)
		},
	}
}

func (a *Authenticator) tokenPath() string {
	return filepath.Join(a.Dir, TokenFile)
}

// Config reads the client secrets and pins localhost redirects to
// LocalhostAuthPort, which is where the callback listener binds.
func (a *Authenticator) Config() (*oauth2.Config, error) {
	path := filepath.Join(a.Dir, ClientSecretsFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", path, err)
	}

	config, err := google.ConfigFromJSON(b, a.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = a.redirectURL(config.RedirectURL)
	return config, nil
}

func (a *Authenticator) redirectURL(configured string) string {
	if configured == "" || configured == "urn:ietf:wg:oauth:2.0:oob" {
		return fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
	}
	u, err := url.Parse(configured)
	if err != nil {
		a.Logger.Warn("Could not parse redirect URL, using it as is", zap.String("redirect_url", configured), zap.Error(err))
		return configured
	}
	if u.Hostname() != "localhost" && u.Hostname() != "127.0.0.1" {
		a.Logger.Warn("Redirect URL is not a localhost callback", zap.String("redirect_url", configured))
		return configured
	}
	if u.Port() != LocalhostAuthPort {
		u.Host = net.JoinHostPort(u.Hostname(), LocalhostAuthPort)
	}
	return u.String()
}

// Client returns an HTTP client that refreshes its token automatically. A
// cached token is used when present; otherwise the browser flow runs and
// the new token is cached.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	config, err := a.Config()
	if err != nil {
		return nil, err
	}

	tok, err := TokenFromFile(a.tokenPath())
	if err != nil {
		a.Logger.Info("No cached token, starting web authorization", zap.String("path", a.tokenPath()))
		tok, err = a.tokenFromWeb(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to get token from web: %w", err)
		}
		if err := SaveToken(a.tokenPath(), tok); err != nil {
			return nil, err
		}
	}

	src := &savingSource{
		base:   config.TokenSource(ctx, tok),
		last:   tok,
		path:   a.tokenPath(),
		logger: a.Logger,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// Reset removes the cached token so the next Client call re-authorizes.
func (a *Authenticator) Reset() error {
	err := os.Remove(a.tokenPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete token file %s: %w", a.tokenPath(), err)
	}
	return nil
}

// savingSource writes refreshed tokens back to the cache file.
type savingSource struct {
	base   oauth2.TokenSource
	last   *oauth2.Token
	path   string
	logger *zap.Logger
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last.AccessToken || tok.RefreshToken != s.last.RefreshToken {
		s.logger.Debug("Token refreshed, updating cache", zap.String("path", s.path))
		if err := SaveToken(s.path, tok); err != nil {
			s.logger.Warn("Could not cache refreshed token", zap.Error(err))
		}
		s.last = tok
	}
	return tok, nil
}

func (a *Authenticator) tokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", net.JoinHostPort("localhost", LocalhostAuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}

	state := fmt.Sprintf("st%d", time.Now().UnixNano())
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("state") != state {
				http.Error(w, "State mismatch", http.StatusBadRequest)
				return
			}
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				select {
				case errCh <- errors.New("authorization code not found in redirect URL"):
				default:
				}
				return
			}
			fmt.Fprint(w, "Authentication successful! You can close this window.")
			select {
			case codeCh <- code:
			default:
			}
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	defer server.Close()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errCh <- fmt.Errorf("HTTP server error: %w", err):
			default:
			}
		}
	}()

	a.Logger.Info("Waiting for authorization code", zap.String("redirect_url", config.RedirectURL))
	a.Prompt(config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")))

	select {
	case code := <-codeCh:
		exCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exCtx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, errors.New("authorization timed out, please try again")
	}
}

// TokenFromFile reads a cached token.
func TokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", path, err)
	}
	return tok, nil
}

// SaveToken caches a token, readable by the owner only.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
