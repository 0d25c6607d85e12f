package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	supabase "github.com/nedpals/supabase-go"
)

var (
	ErrInvalidCreds = errors.New("invalid credentials")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrForbidden    = errors.New("admin role required")

	ErrUnsupportedProvider = errors.New("unsupported oauth provider")
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Tokens is what a successful sign-in hands back to the client.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int       `json:"expires_in"`
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
}

// Authenticator signs users in against the hosted auth service.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*Tokens, error)
	OAuthURL(ctx context.Context, provider, redirectTo string) (string, error)
}

type SupabaseAuthenticator struct {
	client *supabase.Client
}

func NewSupabaseAuthenticator(client *supabase.Client) *SupabaseAuthenticator {
	return &SupabaseAuthenticator{client: client}
}

func (a *SupabaseAuthenticator) SignIn(ctx context.Context, email, password string) (*Tokens, error) {
	details, err := a.client.Auth.SignIn(ctx, supabase.UserCredentials{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCreds, err)
	}

	userID, err := uuid.Parse(details.User.ID)
	if err != nil {
		return nil, fmt.Errorf("auth service returned user id %q: %w", details.User.ID, err)
	}

	return &Tokens{
		AccessToken:  details.AccessToken,
		RefreshToken: details.RefreshToken,
		ExpiresIn:    details.ExpiresIn,
		UserID:       userID,
		Email:        details.User.Email,
	}, nil
}

var oauthProviders = map[string]bool{
	"google":   true,
	"github":   true,
	"facebook": true,
	"linkedin": true,
}

func (a *SupabaseAuthenticator) OAuthURL(_ context.Context, provider, redirectTo string) (string, error) {
	provider = strings.ToLower(provider)
	if !oauthProviders[provider] {
		return "", fmt.Errorf("%w %q", ErrUnsupportedProvider, provider)
	}
	details, err := a.client.Auth.SignInWithProvider(supabase.ProviderSignInOptions{
		Provider:   provider,
		RedirectTo: redirectTo,
	})
	if err != nil {
		return "", fmt.Errorf("oauth sign-in failed: %w", err)
	}
	return details.URL, nil
}

// Identity is what a verified access token says about its bearer.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 access tokens signed with the project JWT secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

func (v *Verifier) Verify(tokenString string) (Identity, error) {
	if len(v.secret) == 0 {
		return Identity{}, errors.New("jwt secret not configured")
	}

	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: userID, Email: claims.Email}, nil
}
