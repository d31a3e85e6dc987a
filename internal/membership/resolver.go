// Package membership resolves the effective membership tier for a request and
// caches resolutions for consuming clients.
package membership

import (
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/credential"
	"server/internal/domain"
	"server/internal/middleware"
)

// Resolution is the outcome of resolving a request's membership.
type Resolution struct {
	Authenticated bool        `json:"is_authenticated"`
	Tier          domain.Tier `json:"tier"`
	UserID        string      `json:"user_id,omitempty"`
	Email         string      `json:"email,omitempty"`
	// Overridden marks a non-production resolution whose tier came from a
	// development override rather than the verified credential.
	Overridden bool `json:"-"`
}

// Resolve combines the verified tier with an optional development override.
// The override is honored only outside production and only when it names a
// tier above visitor; every privileged decision goes through this guard.
func Resolve(realTier, override domain.Tier, production bool) domain.Tier {
	if !production && override.Valid() && override != domain.TierVisitor {
		return override
	}
	return realTier
}

// Verifier abstracts credential verification for the resolver.
type Verifier interface {
	Verify(raw string) (*credential.Claims, error)
}

// Resolver derives one effective tier per request. A missing or invalid
// credential resolves to visitor, never to an error.
type Resolver struct {
	verifier   Verifier
	production bool
	logger     zerolog.Logger
}

// NewResolver builds a Resolver. production must come from a server-controlled
// environment flag, never from client input.
func NewResolver(verifier Verifier, production bool, logger zerolog.Logger) *Resolver {
	return &Resolver{verifier: verifier, production: production, logger: logger}
}

// FromRequest resolves the request's membership. It reads the credential
// cookie, verifies it, and applies any development override carried in the
// request context. CredentialPresented reports whether a cookie was presented
// at all, so callers can clear an invalid one.
func (r *Resolver) FromRequest(req *http.Request) (res Resolution, credentialPresented bool) {
	res = Resolution{Tier: domain.TierVisitor}

	cookie, err := req.Cookie(credential.CookieName)
	if err == nil && cookie.Value != "" {
		credentialPresented = true
		claims, verr := r.verifier.Verify(cookie.Value)
		if verr != nil {
			r.logger.Debug().Err(verr).Msg("credential rejected")
		} else {
			res.Authenticated = true
			res.Tier = claims.Tier
			res.UserID = claims.UserID()
			res.Email = claims.Email
		}
	}

	realTier := res.Tier
	override, ok := middleware.OverrideFromContext(req.Context())
	if ok {
		res.Tier = Resolve(realTier, override, r.production)
		if res.Tier != realTier {
			res.Overridden = true
			// The override substitutes for verified identity in this
			// request; give quota accounting a stable key when there is
			// no real user behind it.
			if res.UserID == "" {
				res.UserID = "dev-override"
			}
		}
	}
	return res, credentialPresented
}
