package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/damacus/r2-manager/internal/logger"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/go-resty/resty/v2"
)

// certsPath is where Cloudflare Access publishes a team's signing keys.
const certsPath = "/cdn-cgi/access/certs"

const (
	defaultJWKSTTL  = 10 * time.Minute
	minJWKSRefresh  = 30 * time.Second
	tokenLeeway     = time.Minute
	jwksHTTPTimeout = 10 * time.Second
)

var (
	ErrUnknownKey   = errors.New("token signed with an unknown key")
	ErrInvalidToken = errors.New("invalid access token")
)

// AccessIdentity is the verified caller.
type AccessIdentity struct {
	Email   string
	Subject string
}

type accessClaims struct {
	Email string `json:"email"`
}

// AccessVerifier validates Cloudflare Access application tokens against the
// team's published key set.
type AccessVerifier struct {
	issuer   string
	audience string
	certsURL string
	ttl      time.Duration
	client   *resty.Client
	log      *logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	keys    *jose.JSONWebKeySet
	fetched time.Time
}

// NewAccessVerifier builds a verifier for teamDomain, e.g.
// "https://myteam.cloudflareaccess.com". A domain without scheme gets https.
func NewAccessVerifier(teamDomain, audience string, ttl time.Duration, log *logger.Logger) *AccessVerifier {
	issuer := strings.TrimSuffix(teamDomain, "/")
	if !strings.Contains(issuer, "://") {
		issuer = "https://" + issuer
	}
	if ttl <= 0 {
		ttl = defaultJWKSTTL
	}
	return &AccessVerifier{
		issuer:   issuer,
		audience: audience,
		certsURL: issuer + certsPath,
		ttl:      ttl,
		client:   resty.New().SetTimeout(jwksHTTPTimeout),
		log:      log,
		now:      time.Now,
	}
}

// Verify checks the RS256 signature, issuer, audience and expiry of token.
func (v *AccessVerifier) Verify(ctx context.Context, token string) (*AccessIdentity, error) {
	tok, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.RS256})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if len(tok.Headers) == 0 {
		return nil, ErrInvalidToken
	}

	key, err := v.key(ctx, tok.Headers[0].KeyID)
	if err != nil {
		return nil, err
	}

	var std jwt.Claims
	var extra accessClaims
	if err := tok.Claims(key.Key, &std, &extra); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	expected := jwt.Expected{
		Issuer:      v.issuer,
		AnyAudience: jwt.Audience{v.audience},
		Time:        v.now(),
	}
	if err := std.ValidateWithLeeway(expected, tokenLeeway); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &AccessIdentity{Email: extra.Email, Subject: std.Subject}, nil
}

// key returns the signing key for kid, refreshing the cached set when it is
// stale or does not know kid.
func (v *AccessVerifier) key(ctx context.Context, kid string) (*jose.JSONWebKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	age := v.now().Sub(v.fetched)
	if v.keys == nil || age > v.ttl {
		if err := v.refresh(ctx); err != nil {
			return nil, err
		}
	} else if len(v.keys.Key(kid)) == 0 && age > minJWKSRefresh {
		if err := v.refresh(ctx); err != nil {
			return nil, err
		}
	}

	keys := v.keys.Key(kid)
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: kid %q", ErrUnknownKey, kid)
	}
	return &keys[0], nil
}

func (v *AccessVerifier) refresh(ctx context.Context) error {
	var set jose.JSONWebKeySet
	resp, err := v.client.R().
		SetContext(ctx).
		SetResult(&set).
		Get(v.certsURL)
	if err != nil {
		return fmt.Errorf("fetch access certs: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("fetch access certs: %s", resp.Status())
	}

	v.keys = &set
	v.fetched = v.now()
	v.log.Debug().Int("keys", len(set.Keys)).Str("url", v.certsURL).Msg("refreshed access keys")
	return nil
}
