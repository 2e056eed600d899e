package spotify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/ports"
)

const stateTTL = 10 * time.Minute

var scopes = []string{"user-read-private", "user-read-email"}

// ErrInvalidState is returned when the OAuth callback state does not verify.
var ErrInvalidState = fmt.Errorf("spotify auth: %w", domain.ErrInvalidState)

// AuthConfig holds the OAuth client settings.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	// StateSecret signs the OAuth state. A random per-process secret is used
	// when empty.
	StateSecret string
}

// Authenticator runs the authorization-code flow and owns the stored user
// credential. Expired credentials are removed as soon as they are noticed.
type Authenticator struct {
	oauth  *oauth2.Config
	store  ports.CredentialStore
	secret []byte
	now    func() time.Time
}

var _ TokenSource = (*Authenticator)(nil)

// NewAuthenticator builds an Authenticator. now may be nil.
func NewAuthenticator(cfg AuthConfig, store ports.CredentialStore, now func() time.Time) *Authenticator {
	if now == nil {
		now = time.Now
	}
	secret := cfg.StateSecret
	if secret == "" {
		secret = uuid.NewString()
	}
	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		store:  store,
		secret: []byte(secret),
		now:    now,
	}
}

// LoginURL returns the provider consent page URL with a fresh signed state.
func (a *Authenticator) LoginURL() (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("spotify auth: sign state: %w", err)
	}
	return a.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Callback verifies state, exchanges code and stores the credential.
func (a *Authenticator) Callback(ctx context.Context, state string, code string) error {
	if err := a.verifyState(state); err != nil {
		return err
	}
	if code == "" {
		return fmt.Errorf("spotify auth: missing code")
	}

	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("spotify auth: exchange code: %w", err)
	}

	cred := domain.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
	if cred.Expiry.IsZero() {
		cred.Expiry = a.now().Add(domain.DefaultCredentialLifetime)
	}
	if err := a.store.SaveCredential(ctx, cred); err != nil {
		return fmt.Errorf("spotify auth: save credential: %w", err)
	}
	log.Printf("DEBUG spotify auth: credential stored, expires %s", cred.Expiry.Format(time.RFC3339))
	return nil
}

func (a *Authenticator) verifyState(state string) error {
	_, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return nil
}

// AccessToken returns the stored token if it has not expired. An expired
// credential is cleared.
func (a *Authenticator) AccessToken(ctx context.Context) (string, error) {
	cred, err := a.store.LoadCredential(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrNotAuthenticated
	}
	if err != nil {
		return "", fmt.Errorf("spotify auth: load credential: %w", err)
	}
	if !cred.Valid(a.now()) {
		a.Invalidate(ctx)
		return "", domain.ErrCredentialExpired
	}
	return cred.AccessToken, nil
}

// IsAuthenticated reports whether a non-expired credential is stored.
func (a *Authenticator) IsAuthenticated(ctx context.Context) bool {
	_, err := a.AccessToken(ctx)
	return err == nil
}

// Invalidate clears the stored credential.
func (a *Authenticator) Invalidate(ctx context.Context) {
	if err := a.store.ClearCredential(ctx); err != nil {
		log.Printf("WARN spotify auth: failed to clear credential: %v", err)
	}
}

// Logout clears the stored credential.
func (a *Authenticator) Logout(ctx context.Context) error {
	if err := a.store.ClearCredential(ctx); err != nil {
		return fmt.Errorf("spotify auth: clear credential: %w", err)
	}
	return nil
}
