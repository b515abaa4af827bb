package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// authorizedUser is the token file layout. It is the authorized-user JSON
// written by Google's client libraries, so existing token files keep working.
type authorizedUser struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refresh_token"`
	TokenURI     string     `json:"token_uri"`
	ClientID     string     `json:"client_id"`
	ClientSecret string     `json:"client_secret"`
	Scopes       []string   `json:"scopes"`
	Expiry       *time.Time `json:"expiry,omitempty"`
}

func (a authorizedUser) config() *oauth2.Config {
	endpoint := google.Endpoint
	if a.TokenURI != "" {
		endpoint.TokenURL = a.TokenURI
	}
	return &oauth2.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       a.Scopes,
	}
}

func (a authorizedUser) token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  a.Token,
		RefreshToken: a.RefreshToken,
		TokenType:    "Bearer",
	}
	if a.Expiry != nil {
		token.Expiry = *a.Expiry
	}
	return token
}

func newAuthorizedUser(cfg *oauth2.Config, token *oauth2.Token) authorizedUser {
	user := authorizedUser{
		Token:        token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenURI:     cfg.Endpoint.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		user.Expiry = &expiry
	}
	return user
}

// TokenStore keeps the OAuth token between runs.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// load returns nil without error when no token has been stored yet.
func (s *TokenStore) load() (*authorizedUser, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debugf("No stored credentials at %s", s.path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read token file %s: %w", s.path, err)
	}
	var user authorizedUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("unable to parse token file %s: %w", s.path, err)
	}
	log.Debug("Credentials loaded successfully")
	return &user, nil
}

func (s *TokenStore) save(cfg *oauth2.Config, token *oauth2.Token) error {
	data, err := json.Marshal(newAuthorizedUser(cfg, token))
	if err != nil {
		return fmt.Errorf("unable to marshal token: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("unable to write token file %s: %w", s.path, err)
	}
	log.Debug("Credentials saved successfully")
	return nil
}
