// handlers/preferences.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"learning-platform/middleware"
	"learning-platform/models"
	"learning-platform/store"
)

func PreferencesPage(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		prefs, err := app.Store.GetPreferences(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				slog.Error("preference lookup failed", "user_id", userID, "error", err)
			}
			p := models.DefaultPreferences(userID)
			prefs = &p
		}

		app.render(w, r, http.StatusOK, "preferences", "Notification preferences", prefs)
	}
}

// UpdatePreferences saves the notification form. Invalid input flashes
// an error and leaves the stored values untouched.
func UpdatePreferences(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		days, errDays := parseNonNegative(r.PostFormValue("reminder_days_before"))
		hours, errHours := parseNonNegative(r.PostFormValue("reminder_hours_before"))
		if errDays != nil || errHours != nil {
			app.addFlash(w, r, models.FlashError, "Reminder values must be whole numbers, 0 or more.")
			http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
			return
		}

		prefs := &models.NotificationPreferences{
			UserID:              userID,
			ReminderDaysBefore:  days,
			ReminderHoursBefore: hours,
			EmailNotifications:  r.PostFormValue("email_notifications") == "on",
			InAppNotifications:  r.PostFormValue("in_app_notifications") == "on",
		}
		if err := app.Store.SavePreferences(r.Context(), prefs); err != nil {
			slog.Error("preference save failed", "user_id", userID, "error", err)
			app.addFlash(w, r, models.FlashError, "Could not save your preferences. Try again.")
			http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
			return
		}

		app.addFlash(w, r, models.FlashSuccess, "Notification preferences updated.")
		http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
	}
}

var errNegative = errors.New("negative value")

func parseNonNegative(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errNegative
	}
	return n, nil
}
