// handlers/profile.go
package handlers

import (
	"log/slog"
	"net/http"

	"learning-platform/middleware"
	"learning-platform/models"
	"learning-platform/store"
)

type profileData struct {
	Profile      *models.User
	Courses      []models.Course
	Achievements []models.Achievement

	// Filled for teachers only.
	Teaching      []models.Course
	TotalStudents int
}

func ProfilePage(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		user, err := app.Store.GetUserByID(r.Context(), userID)
		if err != nil {
			slog.Error("profile lookup failed", "user_id", userID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		enrollments, err := app.Store.ListUserEnrollments(r.Context(), userID)
		if err != nil {
			slog.Warn("enrollment list failed", "user_id", userID, "error", err)
		}
		var courses []models.Course
		for _, enr := range enrollments {
			if enr.Status != models.EnrollmentApproved {
				continue
			}
			course, err := app.Store.GetCourseByID(r.Context(), enr.CourseID)
			if err != nil {
				continue
			}
			courses = append(courses, *course)
		}

		achievements, err := app.Store.ListAchievements(r.Context(), userID)
		if err != nil {
			slog.Warn("achievement list failed", "user_id", userID, "error", err)
		}

		data := profileData{
			Profile:      user,
			Courses:      courses,
			Achievements: achievements,
		}
		if user.IsTeacher {
			teaching, err := app.Store.ListCourses(r.Context(), store.ListCoursesOptions{TeacherID: userID})
			if err != nil {
				slog.Warn("teaching list failed", "user_id", userID, "error", err)
			}
			data.Teaching = teaching
			for _, c := range teaching {
				data.TotalStudents += c.EnrolledCount
			}
		}

		app.render(w, r, http.StatusOK, "profile", user.Name(), data)
	}
}
