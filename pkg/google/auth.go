package google

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

var ErrMissingCredentials = errors.New("missing OAuth client credentials file")
var ErrUnathenticated = fmt.Errorf("authentication with Google failed")

type callbackResult struct {
	code string
	err  error
}

// GoogleAuth produces an authorized HTTP client, refreshing the stored token or
// running the browser consent flow when there is no usable token.
type GoogleAuth struct {
	credentialsPath string
	tokens          *TokenStore
	out             io.Writer
	listenAddr      string
}

// NewGoogleAuth builds the authenticator. The consent URL is written to out.
func NewGoogleAuth(credentialsPath string, tokens *TokenStore, out io.Writer) *GoogleAuth {
	return &GoogleAuth{
		credentialsPath: credentialsPath,
		tokens:          tokens,
		out:             out,
		listenAddr:      "127.0.0.1:0",
	}
}

func (g *GoogleAuth) Client(ctx context.Context) (*http.Client, error) {
	cfg, token := g.storedToken(ctx)
	if token == nil {
		var err error
		cfg, token, err = g.authenticate(ctx)
		if err != nil {
			return nil, err
		}
		if err := g.tokens.save(cfg, token); err != nil {
			log.Errorf("Failed to save credentials: %v", err)
		}
	}
	source := &savingTokenSource{
		base:    cfg.TokenSource(ctx, token),
		current: token.AccessToken,
		save: func(t *oauth2.Token) error {
			return g.tokens.save(cfg, t)
		},
	}
	return oauth2.NewClient(ctx, source), nil
}

// storedToken returns a valid token from the token file, refreshing it if
// needed. A nil token means the consent flow has to run.
func (g *GoogleAuth) storedToken(ctx context.Context) (*oauth2.Config, *oauth2.Token) {
	stored, err := g.tokens.load()
	if err != nil {
		log.Debugf("Failed to load credentials: %v", err)
		return nil, nil
	}
	if stored == nil {
		return nil, nil
	}
	cfg := stored.config()
	token := stored.token()
	if token.Valid() {
		return cfg, token
	}
	if token.RefreshToken == "" {
		return nil, nil
	}
	refreshed, err := cfg.TokenSource(ctx, token).Token()
	if err != nil {
		log.Errorf("Failed to refresh credentials: %v", err)
		return nil, nil
	}
	if err := g.tokens.save(cfg, refreshed); err != nil {
		log.Errorf("Failed to save credentials: %v", err)
	}
	log.Info("Credentials refreshed successfully")
	return cfg, refreshed
}

func (g *GoogleAuth) oauthConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(g.credentialsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, g.credentialsPath)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", g.credentialsPath, err)
	}
	cfg, err := google.ConfigFromJSON(data, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", g.credentialsPath, err)
	}
	return cfg, nil
}

// authenticate runs the installed-app consent flow with a loopback redirect.
func (g *GoogleAuth) authenticate(ctx context.Context) (*oauth2.Config, *oauth2.Token, error) {
	cfg, err := g.oauthConfig()
	if err != nil {
		return nil, nil, err
	}

	listener, err := net.Listen("tcp", g.listenAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: unable to start callback listener: %v", ErrUnathenticated, err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d/", port)

	stateNonce := uuid.New().String()
	results := make(chan callbackResult, 1)
	r := mux.NewRouter()
	r.Handle("/", newCallbackHandler(stateNonce, results)).Methods(http.MethodGet)
	srv := &http.Server{
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("OAuth callback server failed: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	u := cfg.AuthCodeURL(stateNonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	log.Tracef("Waiting for Google auth callback on port %d with nonce: %s", port, stateNonce)
	fmt.Fprintf(g.out, "Please visit this URL to authorize this application:\n%s\n", u)

	var result callbackResult
	select {
	case result = <-results:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	if result.err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnathenticated, result.err)
	}

	token, err := cfg.Exchange(ctx, result.code)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: unable to exchange code for token: %v", ErrUnathenticated, err)
	}
	log.Info("Authentication successful")
	return cfg, token, nil
}

func newCallbackHandler(stateNonce string, results chan<- callbackResult) http.HandlerFunc {
	var once sync.Once
	return func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("state") != stateNonce {
			http.Error(w, "invalid state", http.StatusBadRequest)
			return
		}
		result := callbackResult{code: r.FormValue("code")}
		if reason := r.FormValue("error"); reason != "" {
			result.err = fmt.Errorf("authorization denied: %s", reason)
		} else if result.code == "" {
			result.err = errors.New("authorization code missing from callback")
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if result.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "<p>Authorization failed: %s</p>", html.EscapeString(result.err.Error()))
		} else {
			fmt.Fprint(w, "<p>The authentication flow has completed. You may close this window.</p>")
		}
		once.Do(func() {
			results <- result
		})
	}
}

// savingTokenSource writes the token back to disk whenever it changes.
type savingTokenSource struct {
	mu      sync.Mutex
	base    oauth2.TokenSource
	current string
	save    func(*oauth2.Token) error
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != s.current {
		s.current = token.AccessToken
		if err := s.save(token); err != nil {
			log.Errorf("Failed to save credentials: %v", err)
		} else {
			log.Info("Credentials refreshed successfully")
		}
	}
	return token, nil
}
