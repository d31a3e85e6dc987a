package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

var supportedLocales = []language.Tag{
	language.English,    // en: default
	language.Indonesian, // id
}

var localeMatcher = language.NewMatcher(supportedLocales)

// Locale detects the request locale used for user-facing messaging (upgrade
// vs log-in prompts). Priority: explicit X-Locale header, Accept-Language,
// GeoIP country, then the configured default.
func Locale(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := resolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, strings.ToUpper(country))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocaleFromContext returns the detected locale, defaulting to English.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok && v != "" {
		return v
	}
	return "en"
}

func detectLocale(r *http.Request, fallback string, country string) string {
	explicit := r.Header.Get("X-Locale")
	accept := r.Header.Get("Accept-Language")
	if explicit != "" || accept != "" {
		tag, _ := language.MatchStrings(localeMatcher, explicit, accept)
		base, _ := tag.Base()
		return base.String()
	}
	if strings.EqualFold(country, "ID") {
		return "id"
	}
	if fallback != "" {
		return fallback
	}
	return "en"
}

func resolveCountry(r *http.Request, lookup CountryLookup) string {
	if lookup == nil {
		return ""
	}
	ip := clientIPForRateLimit(r)
	host, _, err := net.SplitHostPort(ip)
	if err == nil {
		ip = host
	}
	country, err := lookup(ip)
	if err != nil {
		return ""
	}
	return country
}
