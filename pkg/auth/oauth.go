// Package auth obtains OAuth2 credentials for the Sheets API fetcher.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

const (
	// ClientSecretsFile is the Google API credentials.json downloaded from the
	// cloud console, looked up in the config directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile caches the access and refresh token next to the secrets.
	TokenFile = "token.json"

	// LocalhostAuthPort is where the local redirect listener binds.
	LocalhostAuthPort = "6789"

	authTimeout = 5 * time.Minute
)

// SheetsScopes are the scopes required to read the dashboard spreadsheet.
var SheetsScopes = []string{sheets.SpreadsheetsReadonlyScope}

// Authenticator drives the installed-app OAuth flow against files in Dir.
type Authenticator struct {
	Dir string
	Log logrus.FieldLogger
}

// New returns an Authenticator rooted at dir.
func New(dir string, log logrus.FieldLogger) *Authenticator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Authenticator{Dir: dir, Log: log}
}

// TokenPath is the location of the cached token.
func (a *Authenticator) TokenPath() string {
	return filepath.Join(a.Dir, TokenFile)
}

// Config reads the client secrets and pins the redirect to the local listener.
func (a *Authenticator) Config(scopes []string) (*oauth2.Config, error) {
	secretsPath := filepath.Join(a.Dir, ClientSecretsFile)
	b, err := os.ReadFile(secretsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", secretsPath, err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = pinRedirect(config.RedirectURL, a.Log)
	return config, nil
}

// pinRedirect forces localhost and out-of-band redirects onto
// LocalhostAuthPort, where getTokenFromWeb listens.
func pinRedirect(redirect string, log logrus.FieldLogger) string {
	if redirect == "urn:ietf:wg:oauth:2.0:oob" || redirect == "" {
		return fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
	}
	u, err := url.Parse(redirect)
	if err != nil {
		log.WithError(err).Warnf("could not parse redirect URL %q, using it as is", redirect)
		return redirect
	}
	if u.Hostname() != "localhost" && u.Hostname() != "127.0.0.1" {
		log.Warnf("redirect URL %s is not a localhost callback", redirect)
		return redirect
	}
	if u.Port() != LocalhostAuthPort {
		u.Host = net.JoinHostPort(u.Hostname(), LocalhostAuthPort)
	}
	return u.String()
}

// Client returns an HTTP client that refreshes its token automatically. With
// no cached token it runs the browser authorization flow first.
func (a *Authenticator) Client(ctx context.Context, scopes []string) (*http.Client, error) {
	config, err := a.Config(scopes)
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(a.TokenPath())
	if err != nil {
		a.Log.Infof("no token at %s, starting web authorization flow", a.TokenPath())
		tok, err = a.tokenFromWeb(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to get token from web: %w", err)
		}
		if err := saveToken(a.TokenPath(), tok); err != nil {
			a.Log.WithError(err).Warn("could not cache OAuth token")
		}
	}

	src := &savingSource{
		base: config.TokenSource(ctx, tok),
		last: tok,
		path: a.TokenPath(),
		log:  a.Log,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// Reset removes the cached token so the next Client call reauthorizes.
func (a *Authenticator) Reset() error {
	err := os.Remove(a.TokenPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete token file %s: %w", a.TokenPath(), err)
	}
	return nil
}

// savingSource persists refreshed tokens.
type savingSource struct {
	base oauth2.TokenSource
	last *oauth2.Token
	path string
	log  logrus.FieldLogger
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last.AccessToken || tok.RefreshToken != s.last.RefreshToken {
		if err := saveToken(s.path, tok); err != nil {
			s.log.WithError(err).Warn("could not save refreshed token")
		}
		s.last = tok
	}
	return tok, nil
}

func (a *Authenticator) tokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", "localhost:"+LocalhostAuthPort)
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				select {
				case errCh <- fmt.Errorf("authorization code not found in redirect URL"):
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
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case errCh <- fmt.Errorf("HTTP server error: %w", err):
			default:
			}
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Open the following URL in your browser to authorize taskboard:\n%s\n", authURL)

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
		return nil, fmt.Errorf("authorization timed out, please try again")
	}
}

func tokenFromFile(path string) (*oauth2.Token, error) {
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

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}
	b, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(b)); err != nil {
		return err
	}
	return os.Chmod(path, 0600)
}
