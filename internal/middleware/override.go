package middleware

import (
	"context"
	"net/http"

	"server/internal/domain"
)

// OverrideHeader carries a development tier override. The middleware reading
// it is only installed when the server runs outside production, so production
// requests never even parse the header.
const OverrideHeader = "X-Tier-Override"

type overrideContextKey struct{}

// TierOverride extracts a tier override from the request header into the
// context. Values that are not a known tier are ignored.
func TierOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(OverrideHeader)
		if raw != "" {
			if tier, err := domain.ParseTier(raw); err == nil {
				r = r.WithContext(ContextWithOverride(r.Context(), tier))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ContextWithOverride records a tier override on the context.
func ContextWithOverride(ctx context.Context, tier domain.Tier) context.Context {
	return context.WithValue(ctx, overrideContextKey{}, tier)
}

// OverrideFromContext returns the tier override carried by the context, if any.
func OverrideFromContext(ctx context.Context) (domain.Tier, bool) {
	tier, ok := ctx.Value(overrideContextKey{}).(domain.Tier)
	return tier, ok
}
