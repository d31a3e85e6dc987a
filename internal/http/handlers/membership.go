package handlers

import (
	"net/http"

	"server/internal/domain"
)

type membershipResponse struct {
	IsAuthenticated bool        `json:"is_authenticated"`
	Tier            domain.Tier `json:"tier"`
	TierLabel       string      `json:"tier_label"`
	UserID          string      `json:"user_id,omitempty"`
	Email           string      `json:"email,omitempty"`
}

// Membership is the tier query endpoint. Authentication failure is a data
// field, not a transport error: a missing or invalid credential yields HTTP
// 200 with is_authenticated=false and the visitor tier.
func (a *App) Membership(w http.ResponseWriter, r *http.Request) {
	res := a.resolve(w, r)
	a.json(w, http.StatusOK, membershipResponse{
		IsAuthenticated: res.Authenticated,
		Tier:            res.Tier,
		TierLabel:       res.Tier.Label(),
		UserID:          res.UserID,
		Email:           res.Email,
	})
}

// Logout clears the credential cookie.
func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	a.clearCredential(w)
	w.WriteHeader(http.StatusNoContent)
}
