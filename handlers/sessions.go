// handlers/sessions.go
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"learning-platform/middleware"
	"learning-platform/models"
	"learning-platform/store"
)

// CompleteSession records that the signed-in student finished a
// session. Repeats are no-ops; the completion that finishes a course
// triggers the achievement checks.
func CompleteSession(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)
		sessionID, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			http.NotFound(w, r)
			return
		}

		session, err := app.Store.GetSession(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			slog.Error("session lookup failed", "session_id", sessionID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		redirect := "/courses/" + session.CourseSlug

		enr, err := app.Store.GetEnrollment(r.Context(), userID, session.CourseID)
		if err != nil || enr.Status != models.EnrollmentApproved {
			app.addFlash(w, r, models.FlashError, "You are not enrolled in this course.")
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		first, err := app.Store.MarkSessionCompleted(r.Context(), userID, sessionID, time.Now())
		if err != nil {
			slog.Error("completion insert failed", "session_id", sessionID, "user_id", userID, "error", err)
			app.addFlash(w, r, models.FlashError, "Could not record the completion. Try again.")
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}
		if !first {
			app.addFlash(w, r, models.FlashInfo, "Already marked as completed.")
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		_ = app.Store.LogActivity(r.Context(), userID, "completed_session", session.CourseID, sessionID)
		app.Cache.Invalidate(r.Context(), userID)
		app.checkAchievements(r.Context(), userID, session.CourseID)

		app.addFlash(w, r, models.FlashSuccess, "Session marked as completed.")
		http.Redirect(w, r, redirect, http.StatusSeeOther)
	}
}

// checkAchievements awards the course badges once their conditions
// hold. The store dedups awards, so calling this repeatedly is safe.
func (app *App) checkAchievements(ctx context.Context, userID, courseID int) {
	rows, err := app.Store.CourseProgressRows(ctx, userID)
	if err != nil {
		slog.Warn("achievement check failed", "user_id", userID, "error", err)
		return
	}
	var course *store.CourseProgressRow
	for i := range rows {
		if rows[i].CourseID == courseID {
			course = &rows[i]
			break
		}
	}
	if course == nil || course.TotalSessions == 0 || course.CompletedSessions < course.TotalSessions {
		return
	}

	app.award(ctx, userID, courseID,
		"Course Completed!",
		"Finished every session of "+course.Title+".")

	attended, marked, err := app.Store.CourseAttendance(ctx, userID, courseID)
	if err == nil && marked == course.TotalSessions && attended == marked {
		app.award(ctx, userID, courseID,
			"Perfect Attendance!",
			"Attended every session of "+course.Title+".")
	}
}

func (app *App) award(ctx context.Context, userID, courseID int, title, description string) {
	awarded, err := app.Store.CreateAchievement(ctx, &models.Achievement{
		UserID:      userID,
		CourseID:    courseID,
		Title:       title,
		Description: description,
	})
	if err != nil {
		slog.Error("achievement insert failed", "user_id", userID, "title", title, "error", err)
		return
	}
	if awarded {
		app.Notify.Notify(ctx, userID, models.NotificationAchievement, title, description, "/dashboard")
	}
}
