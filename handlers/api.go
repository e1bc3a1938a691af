// handlers/api.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"learning-platform/middleware"
	"learning-platform/models"
	"learning-platform/stats"
	"learning-platform/store"
)

type apiLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}

func apiError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

// APILogin exchanges credentials for a bearer token.
func APILogin(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apiLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		user, err := app.Store.GetUserByUsername(r.Context(), req.Username)
		if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			apiError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id":    user.ID,
			"username":   user.Username,
			"is_teacher": user.IsTeacher,
			"exp":        time.Now().Add(24 * time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(app.Config.JWTSecret))
		if err != nil {
			slog.Error("token signing failed", "error", err)
			apiError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"token":   signed,
			"user": map[string]any{
				"id":           user.ID,
				"username":     user.Username,
				"display_name": user.DisplayName,
				"is_teacher":   user.IsTeacher,
			},
		})
	}
}

// APICourses lists the catalog with the same search and paging knobs as
// the HTML page.
func APICourses(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		opts := store.ListCoursesOptions{
			Search: strings.TrimSpace(r.URL.Query().Get("q")),
			Limit:  coursePageSize,
			Offset: (page - 1) * coursePageSize,
		}

		courses, err := app.Store.ListCourses(r.Context(), opts)
		if err != nil {
			slog.Error("course list failed", "error", err)
			apiError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		total, err := app.Store.CountCourses(r.Context(), store.ListCoursesOptions{Search: opts.Search})
		if err != nil {
			total = len(courses)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"courses": courses,
			"total":   total,
		})
	}
}

// APICourseDetail returns one course with its session schedule.
func APICourseDetail(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		course, err := app.Store.GetCourseBySlug(r.Context(), mux.Vars(r)["slug"])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				apiError(w, http.StatusNotFound, "Course not found")
				return
			}
			slog.Error("course lookup failed", "slug", mux.Vars(r)["slug"], "error", err)
			apiError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		sessions, err := app.Store.ListCourseSessions(r.Context(), course.ID)
		if err != nil {
			slog.Warn("session list failed", "course_id", course.ID, "error", err)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"course":   course,
			"sessions": sessions,
		})
	}
}

// APIProgress returns the dashboard numbers for the token's user.
func APIProgress(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r)
		if !ok {
			apiError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		dash, hit := app.Cache.Get(r.Context(), userID)
		if !hit {
			var err error
			dash, err = stats.Build(r.Context(), app.Store, userID, time.Now())
			if err != nil {
				slog.Error("progress build failed", "user_id", userID, "error", err)
				apiError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			app.Cache.Set(r.Context(), userID, dash)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"progress": dash,
		})
	}
}

func APINotifications(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r)
		if !ok {
			apiError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		notifications, err := app.Store.ListNotifications(r.Context(), userID, 50)
		if err != nil {
			slog.Error("notification list failed", "user_id", userID, "error", err)
			apiError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		unread, err := app.Store.CountUnreadNotifications(r.Context(), userID)
		if err != nil {
			unread = 0
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"notifications": notifications,
			"unread":        unread,
		})
	}
}

func APIMarkNotificationRead(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r)
		if !ok {
			apiError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			apiError(w, http.StatusNotFound, "Notification not found")
			return
		}
		if err := app.Store.MarkNotificationRead(r.Context(), userID, id); err != nil {
			slog.Warn("mark read failed", "user_id", userID, "notification_id", id, "error", err)
			apiError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func APIGetPreferences(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r)
		if !ok {
			apiError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		prefs, err := app.Store.GetPreferences(r.Context(), userID)
		if err != nil {
			p := models.DefaultPreferences(userID)
			prefs = &p
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"preferences": prefs,
		})
	}
}

func APIUpdatePreferences(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r)
		if !ok {
			apiError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var prefs models.NotificationPreferences
		if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
			apiError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if prefs.ReminderDaysBefore < 0 || prefs.ReminderHoursBefore < 0 {
			apiError(w, http.StatusBadRequest, "Reminder values must be 0 or more")
			return
		}
		prefs.UserID = userID

		if err := app.Store.SavePreferences(r.Context(), &prefs); err != nil {
			slog.Error("preference save failed", "user_id", userID, "error", err)
			apiError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"preferences": prefs,
		})
	}
}
