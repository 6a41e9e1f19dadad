package gmailapi

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// User is the Gmail API alias for the authenticated account.
const User = "me"

// RedirectURL receives the authorization code during token setup.
const RedirectURL = "http://localhost:8080/callback"

// Credentials identify an OAuth2 client and, once authorized, its refresh token.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

func (c Credentials) oauthConfig(scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
		RedirectURL:  RedirectURL,
	}
}

// NewService builds a Gmail client from a stored refresh token.
func NewService(ctx context.Context, creds Credentials, scopes ...string) (*gmail.Service, error) {
	tokenSource := creds.oauthConfig(scopes).TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return service, nil
}

// Scopes needed to read reports and send the summary.
var Scopes = []string{gmail.GmailReadonlyScope, gmail.GmailSendScope}

// AuthURL returns the consent page that yields an authorization code.
func AuthURL(creds Credentials) string {
	return creds.oauthConfig(Scopes).AuthCodeURL("dupreport", oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token carrying the refresh token.
func Exchange(ctx context.Context, creds Credentials, code string) (*oauth2.Token, error) {
	tok, err := creds.oauthConfig(Scopes).Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token: %w", err)
	}
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token returned, revoke the app's access and try again")
	}
	return tok, nil
}
