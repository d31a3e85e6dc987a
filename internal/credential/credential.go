// Package credential issues and verifies the signed membership credential.
//
// The credential is an HS256 token carried in an HTTP-only cookie. Claims are
// meaningless until verified: any signature mismatch, malformed structure, or
// expiry yields domain.ErrUnauthenticated, never partially-trusted output.
package credential

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"server/internal/domain"
)

// CookieName is the cookie the credential travels in.
const CookieName = "member_session"

const defaultTTL = 30 * 24 * time.Hour

// Claims are the verified contents of a membership credential.
type Claims struct {
	Tier  domain.Tier `json:"tier"`
	Email string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// Manager signs and verifies membership credentials with a server-held secret.
type Manager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
}

// Config configures a credential Manager.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
	Leeway   time.Duration
}

// NewManager validates the configuration and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("%w: credential secret is required", domain.ErrNotConfigured)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, fmt.Errorf("%w: credential leeway out of range", domain.ErrNotConfigured)
	}
	return &Manager{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		leeway:   cfg.Leeway,
	}, nil
}

// Issue mints a signed credential for the given identity. The activation flow
// is external to this service; Issue exists for that flow's shape, for the
// issue-credential tool, and for tests.
func (m *Manager) Issue(userID string, tier domain.Tier, email string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id is required")
	}
	if !tier.Valid() {
		return "", fmt.Errorf("unknown tier %q", tier)
	}
	now := time.Now()
	claims := Claims{
		Tier:  tier,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify checks signature, expiry, issuer and audience and returns the claims.
// Every failure mode collapses into domain.ErrUnauthenticated: a credential is
// deterministically valid or not, and an invalid one is simply "not
// authenticated", never a server fault.
func (m *Manager) Verify(raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty credential", domain.ErrUnauthenticated)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(m.leeway),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid credential", domain.ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: credential missing subject", domain.ErrUnauthenticated)
	}
	if !claims.Tier.Valid() {
		return nil, fmt.Errorf("%w: credential carries unknown tier %q", domain.ErrUnauthenticated, claims.Tier)
	}
	return claims, nil
}
