// Package identity verifies ID tokens issued by federated identity providers.
package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultGoogleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"
	defaultKeyCacheTTL    = time.Hour
	minRefreshInterval    = time.Minute
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

var (
	ErrInvalidIDToken = errors.New("invalid identity token")
	ErrUnknownKey     = errors.New("identity token signed with unknown key")
)

// Identity holds the verified claims of a Google ID token.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// GoogleConfig configures a GoogleVerifier.
type GoogleConfig struct {
	// ClientID is the OAuth client id the token must be issued for (its audience).
	ClientID string

	// CertsURL overrides Google's JWKS endpoint. Tests point it at a local server.
	CertsURL string

	HTTPClient  *http.Client
	KeyCacheTTL time.Duration
}

// GoogleVerifier validates Google ID tokens against Google's published signing keys.
// It is safe for concurrent use and caches keys between requests.
type GoogleVerifier struct {
	clientID string
	certsURL string
	client   *http.Client
	cacheTTL time.Duration
	now      func() time.Time

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	fetchedAt   time.Time
	lastAttempt time.Time
}

// NewGoogleVerifier creates a GoogleVerifier.
func NewGoogleVerifier(cfg GoogleConfig) *GoogleVerifier {
	if cfg.CertsURL == "" {
		cfg.CertsURL = defaultGoogleCertsURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.KeyCacheTTL <= 0 {
		cfg.KeyCacheTTL = defaultKeyCacheTTL
	}
	return &GoogleVerifier{
		clientID: cfg.ClientID,
		certsURL: cfg.CertsURL,
		client:   cfg.HTTPClient,
		cacheTTL: cfg.KeyCacheTTL,
		now:      time.Now,
	}
}

type googleClaims struct {
	jwt.RegisteredClaims
	Email         string       `json:"email"`
	EmailVerified flexibleBool `json:"email_verified"`
	Name          string       `json:"name"`
	Picture       string       `json:"picture"`
}

// Verify checks the token's signature, issuer, audience and expiry and returns its claims.
// Any failure is reported as an error; no partially verified identity is ever returned.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	if v.clientID == "" {
		return nil, fmt.Errorf("%w: google client id is not configured", ErrInvalidIDToken)
	}

	claims := &googleClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return v.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	if !validIssuer(claims.Issuer) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidIDToken, claims.Issuer)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidIDToken)
	}

	return &Identity{
		Subject:       claims.Subject,
		Email:         strings.ToLower(claims.Email),
		EmailVerified: bool(claims.EmailVerified),
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}

// key returns the public key for kid, refreshing the key set when it is stale or kid is unknown.
func (v *GoogleVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	k, ok := v.keys[kid]
	fresh := v.now().Sub(v.fetchedAt) < v.cacheTTL
	v.mu.RUnlock()
	if ok && fresh {
		return k, nil
	}

	if err := v.refresh(ctx, ok); err != nil {
		if ok {
			// Serve the stale key rather than failing every login while Google is unreachable.
			return k, nil
		}
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if k, ok := v.keys[kid]; ok {
		return k, nil
	}
	return nil, ErrUnknownKey
}

func (v *GoogleVerifier) refresh(ctx context.Context, force bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	if !force && now.Sub(v.lastAttempt) < minRefreshInterval && v.keys != nil {
		return nil
	}
	v.lastAttempt = now

	keys, err := fetchKeys(ctx, v.client, v.certsURL)
	if err != nil {
		return err
	}

	v.keys = keys
	v.fetchedAt = now
	return nil
}

type jwkSet struct {
	Keys []struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func fetchKeys(ctx context.Context, client *http.Client, certsURL string) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, certsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create certs request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("certs request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read certs response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("certs fetch failed with status %d", resp.StatusCode)
	}

	var set jwkSet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("failed to parse certs response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAKey(k.N, k.E)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, errors.New("certs response contains no RSA keys")
	}

	return keys, nil
}

func parseRSAKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}

	exp := new(big.Int).SetBytes(eb)
	if !exp.IsInt64() || exp.Int64() > 1<<31-1 || exp.Int64() < 3 {
		return nil, errors.New("unsupported exponent")
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: int(exp.Int64())}, nil
}

func validIssuer(iss string) bool {
	for _, want := range googleIssuers {
		if iss == want {
			return true
		}
	}
	return false
}

// flexibleBool accepts both true and "true"; Google has emitted either form for email_verified.
type flexibleBool bool

func (b *flexibleBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "true":
		*b = true
	case "false", "null", "":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}
