package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/access"
	"server/internal/domain"
	"server/internal/membership"
	"server/internal/middleware"
)

type lessonResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Section     domain.Section  `json:"section"`
	Sample      bool            `json:"sample"`
	VideoURL    string          `json:"video_url"`
	DurationSec int             `json:"duration_seconds"`
	Access      access.Decision `json:"access"`
}

// LessonShow returns lesson metadata gated by the effective tier. The video
// URL is only present when access is allowed.
func (a *App) LessonShow(w http.ResponseWriter, r *http.Request) {
	res := a.resolve(w, r)
	lesson, ok := a.loadLesson(w, r)
	if !ok {
		return
	}

	decision := a.Policy.Check(res.Tier, lesson.Section, lesson.Sample)
	if !decision.Allowed {
		a.denyAccess(w, r, res, decision)
		return
	}
	a.json(w, http.StatusOK, lessonResponse{
		ID:          lesson.ID,
		Title:       lesson.Title,
		Section:     lesson.Section,
		Sample:      lesson.Sample,
		VideoURL:    lesson.VideoURL,
		DurationSec: lesson.DurationSec,
		Access:      decision,
	})
}

func (a *App) loadLesson(w http.ResponseWriter, r *http.Request) (*domain.Lesson, bool) {
	lessonID := chi.URLParam(r, "lesson_id")
	if lessonID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "lesson_id required")
		return nil, false
	}
	lesson, err := a.Lessons.GetByID(r.Context(), lessonID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "lesson not found")
			return nil, false
		}
		a.Logger.Error().Err(err).Str("lesson_id", lessonID).Msg("load lesson failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load lesson")
		return nil, false
	}
	return lesson, true
}

// denyAccess maps a permission denial into the right user-facing reason: an
// unauthenticated visitor is told to log in, an authenticated member below
// the floor is told to upgrade and is never logged out.
func (a *App) denyAccess(w http.ResponseWriter, r *http.Request, res membership.Resolution, decision access.Decision) {
	locale := middleware.LocaleFromContext(r.Context())
	reason := decision.Reason
	status := http.StatusForbidden
	if !res.Authenticated && !res.Overridden {
		reason = access.ReasonUnauthenticated
		status = http.StatusUnauthorized
	}
	a.error(w, status, reason, denialMessage(locale, reason))
}
