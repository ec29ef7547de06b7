package push

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTokenURL = "https://oauth2.googleapis.com/token"
	DefaultScope    = "https://www.googleapis.com/auth/firebase.messaging"

	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionTTL   = time.Hour
	refreshMargin  = time.Minute
)

// Credentials identify a Google service account.
type Credentials struct {
	ClientEmail string
	// PrivateKey is the PEM encoded RSA key. Escaped "\n" sequences, as
	// found in single-line environment variables, are accepted.
	PrivateKey string
	TokenURL   string
	Scope      string
}

// assertionClaims are the claims of a service-account JWT assertion.
type assertionClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// tokenSource exchanges signed assertions for OAuth access tokens and caches
// the current token until shortly before it expires.
type tokenSource struct {
	email    string
	key      *rsa.PrivateKey
	tokenURL string
	scope    string
	client   *http.Client
	now      func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func newTokenSource(creds Credentials, client *http.Client) (*tokenSource, error) {
	if creds.ClientEmail == "" {
		return nil, fmt.Errorf("service account client email is required")
	}

	pemKey := strings.ReplaceAll(creds.PrivateKey, `\n`, "\n")
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}

	ts := &tokenSource{
		email:    creds.ClientEmail,
		key:      key,
		tokenURL: creds.TokenURL,
		scope:    creds.Scope,
		client:   client,
		now:      time.Now,
	}
	if ts.tokenURL == "" {
		ts.tokenURL = DefaultTokenURL
	}
	if ts.scope == "" {
		ts.scope = DefaultScope
	}
	return ts, nil
}

// Token returns a valid access token, fetching a new one when needed.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := ts.now()
	if ts.accessToken != "" && now.Before(ts.expiresAt.Add(-refreshMargin)) {
		return ts.accessToken, nil
	}

	assertion, err := ts.sign(now)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrant)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}

	ts.accessToken = payload.AccessToken
	ts.expiresAt = now.Add(time.Duration(payload.ExpiresIn) * time.Second)
	return ts.accessToken, nil
}

func (ts *tokenSource) sign(now time.Time) (string, error) {
	claims := &assertionClaims{
		Scope: ts.scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.email,
			Audience:  jwt.ClaimStrings{ts.tokenURL},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(assertionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(ts.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return signed, nil
}
