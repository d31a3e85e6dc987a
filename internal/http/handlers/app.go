package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/access"
	"server/internal/credential"
	"server/internal/domain"
	"server/internal/membership"
	"server/internal/providers/chat"
	"server/internal/quota"
)

// App bundles the dependencies the handlers need.
type App struct {
	Logger     zerolog.Logger
	Resolver   *membership.Resolver
	Policy     *access.Policy
	Ledger     *quota.Ledger
	Lessons    domain.LessonRepository
	Chat       chat.Completer
	Production bool
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, reason, message string) {
	a.json(w, code, errorResponse{Error: reason, Message: message})
}

// resolve derives the request's membership and clears a presented-but-invalid
// credential cookie so a stale token is not retried on every request.
func (a *App) resolve(w http.ResponseWriter, r *http.Request) membership.Resolution {
	res, presented := a.Resolver.FromRequest(r)
	if presented && !res.Authenticated {
		a.clearCredential(w)
	}
	return res
}

func (a *App) clearCredential(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     credential.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.Production,
		SameSite: http.SameSiteLaxMode,
	})
}
