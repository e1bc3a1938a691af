// handlers/home.go
package handlers

import (
	"log/slog"
	"net/http"

	"learning-platform/models"
	"learning-platform/store"
)

type homeData struct {
	Courses []models.Course
}

func HomePage(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		courses, err := app.Store.ListCourses(r.Context(), store.ListCoursesOptions{Limit: 6})
		if err != nil {
			slog.Warn("featured course list failed", "error", err)
		}

		app.render(w, r, http.StatusOK, "home", "Home", homeData{Courses: courses})
	}
}
