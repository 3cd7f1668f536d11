package calendly

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"barberbook/backend/internal/service/tokens"
)

const DefaultAuthBaseURL = "https://auth.calendly.com"

// NewOAuthConfig builds the OAuth client for the provider. Client
// credentials travel in the form body, which is what the token endpoint
// expects.
func NewOAuthConfig(clientID, clientSecret, redirectURL, authBaseURL string) *oauth2.Config {
	base := strings.TrimRight(authBaseURL, "/")
	if base == "" {
		base = DefaultAuthBaseURL
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/oauth/authorize",
			TokenURL:  base + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// OAuthExchanger runs refresh and authorization-code grants against the
// provider token endpoint.
type OAuthExchanger struct {
	config *oauth2.Config
	http   *http.Client
	now    func() time.Time
}

func NewOAuthExchanger(config *oauth2.Config, httpClient *http.Client) *OAuthExchanger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &OAuthExchanger{config: config, http: httpClient, now: time.Now}
}

func (e *OAuthExchanger) AuthCodeURL(state string) string {
	return e.config.AuthCodeURL(state)
}

func (e *OAuthExchanger) Refresh(ctx context.Context, refreshToken string) (tokens.Grant, error) {
	if refreshToken == "" {
		return tokens.Grant{}, errors.New("missing refresh token")
	}
	tok, err := e.config.TokenSource(e.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return tokens.Grant{}, describeTokenError(err)
	}
	return e.grant(tok), nil
}

func (e *OAuthExchanger) ExchangeCode(ctx context.Context, code string) (tokens.Grant, error) {
	tok, err := e.config.Exchange(e.withClient(ctx), code)
	if err != nil {
		return tokens.Grant{}, describeTokenError(err)
	}
	return e.grant(tok), nil
}

func (e *OAuthExchanger) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, e.http)
}

func (e *OAuthExchanger) grant(tok *oauth2.Token) tokens.Grant {
	g := tokens.Grant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	switch {
	case tok.ExpiresIn > 0:
		g.ExpiresIn = time.Duration(tok.ExpiresIn) * time.Second
	case !tok.Expiry.IsZero():
		g.ExpiresIn = tok.Expiry.Sub(e.now())
	}
	return g
}

func describeTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &APIError{Status: status, Code: re.ErrorCode, Body: re.ErrorDescription, err: err}
	}
	return err
}
