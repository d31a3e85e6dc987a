package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/access"
	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/providers/chat"
	"server/internal/quota"
)

type quotaResponse struct {
	ChatCount int  `json:"chat_count"`
	Limit     *int `json:"limit"`
	Remaining *int `json:"remaining"`
}

func quotaDTO(u quota.Usage) quotaResponse {
	// The wire format cannot represent unbounded numerically; null means
	// unlimited.
	if u.Limit.Unlimited {
		return quotaResponse{ChatCount: u.Count}
	}
	limit := u.Limit.N
	remaining := u.Remaining()
	return quotaResponse{ChatCount: u.Count, Limit: &limit, Remaining: &remaining}
}

// LessonQuota reports today's chat usage for the lesson. The sample query
// flag affects the tier-limit lookup only, never the counter key.
func (a *App) LessonQuota(w http.ResponseWriter, r *http.Request) {
	res := a.resolve(w, r)
	lessonID := chi.URLParam(r, "lesson_id")
	if lessonID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "lesson_id required")
		return
	}
	sample := parseSampleFlag(r.URL.Query().Get("sample"))
	limit := a.Ledger.LimitFor(res.Tier, sample)

	usage := quota.Usage{Limit: limit}
	if res.UserID != "" {
		var err error
		usage, err = a.Ledger.Usage(r.Context(), res.UserID, lessonID, limit)
		if err != nil {
			a.logStoreFailure(r.Context(), err, res.UserID, lessonID)
		}
	}
	a.json(w, http.StatusOK, quotaDTO(usage))
}

type chatRequestBody struct {
	Message string         `json:"message"`
	History []chat.Message `json:"history"`
}

type chatResponseBody struct {
	Reply string `json:"reply"`
	quotaResponse
}

// LessonChat runs one tutor turn for the lesson. The quota check happens
// before any completion call; the counter is charged after a completion was
// generated, even if response delivery later fails.
func (a *App) LessonChat(w http.ResponseWriter, r *http.Request) {
	res := a.resolve(w, r)

	var body chatRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if body.Message == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "message required")
		return
	}

	lesson, ok := a.loadLesson(w, r)
	if !ok {
		return
	}
	decision := a.Policy.Check(res.Tier, lesson.Section, lesson.Sample)
	if !decision.Allowed {
		a.denyAccess(w, r, res, decision)
		return
	}
	// Chat turns are metered per user; without an identity there is no
	// counter key, so anonymous sample viewers must log in to chat.
	if res.UserID == "" {
		locale := middleware.LocaleFromContext(r.Context())
		a.error(w, http.StatusUnauthorized, access.ReasonUnauthenticated, denialMessage(locale, access.ReasonUnauthenticated))
		return
	}

	limit := a.Ledger.LimitFor(res.Tier, lesson.Sample)
	usage, err := a.Ledger.Usage(r.Context(), res.UserID, lesson.ID, limit)
	if err != nil {
		// Fail-open: a metering read fault must not block the feature.
		a.logStoreFailure(r.Context(), err, res.UserID, lesson.ID)
	}
	if usage.Exhausted() {
		locale := middleware.LocaleFromContext(r.Context())
		a.error(w, http.StatusTooManyRequests, reasonQuotaExceeded, denialMessage(locale, reasonQuotaExceeded))
		return
	}

	messages := append(body.History, chat.Message{Role: "user", Content: body.Message})
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()
	reply, err := a.Chat.Complete(ctx, tutorSystemPrompt(lesson), messages)
	if err != nil {
		a.Logger.Error().Err(err).Str("lesson_id", lesson.ID).Msg("chat completion failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "chat is temporarily unavailable")
		return
	}

	count, err := a.Ledger.Increment(r.Context(), res.UserID, lesson.ID)
	if err != nil {
		// The completion was already generated; let the turn through and
		// leave it uncharged rather than failing the user on a metering
		// fault.
		a.logStoreFailure(r.Context(), err, res.UserID, lesson.ID)
		count = usage.Count + 1
	}

	a.json(w, http.StatusOK, chatResponseBody{
		Reply:         reply,
		quotaResponse: quotaDTO(quota.Usage{Count: count, Limit: limit}),
	})
}

func (a *App) logStoreFailure(ctx context.Context, err error, userID, lessonID string) {
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		a.Logger.Error().Err(err).Msg("quota ledger failed")
		return
	}
	a.Logger.Error().
		Err(err).
		Str("event", "store_unavailable").
		Str("request_id", middleware.RequestIDFromContext(ctx)).
		Str("user_id", userID).
		Str("lesson_id", lessonID).
		Msg("counter store unavailable, continuing fail-open")
}

func parseSampleFlag(raw string) bool {
	switch raw {
	case "true", "1", "free_trial", "freeTrial":
		return true
	}
	return false
}

func tutorSystemPrompt(lesson *domain.Lesson) string {
	return fmt.Sprintf("You are a tutor for the video lesson %q. Answer questions about the lesson content concisely.", lesson.Title)
}
