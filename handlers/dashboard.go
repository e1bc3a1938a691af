// handlers/dashboard.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"learning-platform/middleware"
	"learning-platform/models"
	"learning-platform/stats"
)

type dashboardData struct {
	Stats        *models.DashboardContext
	Chart        stats.Serialized
	Upcoming     []models.CourseSession
	Achievements []models.Achievement
}

func DashboardPage(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		dc, ok := app.Cache.Get(r.Context(), userID)
		if !ok {
			var err error
			dc, err = stats.Build(r.Context(), app.Store, userID, time.Now())
			if err != nil {
				slog.Error("dashboard build failed", "user_id", userID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			app.Cache.Set(r.Context(), userID, dc)
		}

		serialized, err := stats.Serialize(dc)
		if err != nil {
			slog.Error("dashboard serialize failed", "user_id", userID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		now := time.Now()
		upcoming, err := app.Store.ListUpcomingSessions(r.Context(), userID, now, now.Add(14*24*time.Hour))
		if err != nil {
			slog.Warn("upcoming sessions lookup failed", "user_id", userID, "error", err)
		}
		achievements, err := app.Store.ListAchievements(r.Context(), userID)
		if err != nil {
			slog.Warn("achievements lookup failed", "user_id", userID, "error", err)
		}

		app.render(w, r, http.StatusOK, "dashboard", "My Progress", dashboardData{
			Stats:        dc,
			Chart:        serialized,
			Upcoming:     upcoming,
			Achievements: achievements,
		})
	}
}
