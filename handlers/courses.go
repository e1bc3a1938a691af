// handlers/courses.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"learning-platform/middleware"
	"learning-platform/models"
	"learning-platform/store"
)

const coursePageSize = 12

type coursesData struct {
	Courses []models.Course
	Query   string
	Page    int
	Pages   int
}

type sessionRow struct {
	Session   models.CourseSession
	GoogleURL string
}

type courseDetailData struct {
	Course     *models.Course
	Sessions   []sessionRow
	Enrollment *models.Enrollment
	Enrolled   bool
	OwnCourse  bool
}

func CoursesPage(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}

		opts := store.ListCoursesOptions{
			Search: query,
			Limit:  coursePageSize,
			Offset: (page - 1) * coursePageSize,
		}
		courses, err := app.Store.ListCourses(r.Context(), opts)
		if err != nil {
			slog.Error("course list failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		total, err := app.Store.CountCourses(r.Context(), opts)
		if err != nil {
			slog.Error("course count failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		pages := (total + coursePageSize - 1) / coursePageSize
		app.render(w, r, http.StatusOK, "courses", "Courses", coursesData{
			Courses: courses,
			Query:   query,
			Page:    page,
			Pages:   pages,
		})
	}
}

func CourseDetailPage(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		course, err := app.Store.GetCourseBySlug(r.Context(), mux.Vars(r)["slug"])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			slog.Error("course lookup failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		sessions, err := app.Store.ListCourseSessions(r.Context(), course.ID)
		if err != nil {
			slog.Error("session list failed", "course_id", course.ID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		data := courseDetailData{Course: course}

		user := app.currentUser(r)
		if user != nil {
			data.OwnCourse = course.TeacherID == user.ID
			if enr, err := app.Store.GetEnrollment(r.Context(), user.ID, course.ID); err == nil {
				data.Enrollment = enr
				data.Enrolled = enr.Status == models.EnrollmentApproved
			}
		}

		completed := make(map[int]bool)
		if data.Enrolled {
			if log, err := app.Store.CompletionLog(r.Context(), user.ID); err == nil {
				for _, entry := range log {
					completed[entry.SessionID] = true
				}
			}
		}

		data.Sessions = make([]sessionRow, 0, len(sessions))
		for _, s := range sessions {
			s.Completed = completed[s.ID]
			data.Sessions = append(data.Sessions, sessionRow{
				Session:   s,
				GoogleURL: googleCalendarURL(&s),
			})
		}

		app.render(w, r, http.StatusOK, "course_detail", course.Title, data)
	}
}

// EnrollCourse joins the signed-in user to a course. Free courses are
// approved on the spot; paid ones wait as pending until payment is
// handled out of band.
func EnrollCourse(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		course, err := app.Store.GetCourseBySlug(r.Context(), mux.Vars(r)["slug"])
		if err != nil {
			http.NotFound(w, r)
			return
		}
		redirect := "/courses/" + course.Slug

		if course.TeacherID == userID {
			app.addFlash(w, r, models.FlashWarning, "You teach this course.")
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		if _, err := app.Store.GetEnrollment(r.Context(), userID, course.ID); err == nil {
			app.addFlash(w, r, models.FlashWarning, "You are already enrolled in this course.")
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		approved, err := app.Store.CountApprovedEnrollments(r.Context(), course.ID)
		if err != nil {
			slog.Error("enrollment count failed", "course_id", course.ID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if approved >= course.MaxStudents {
			app.addFlash(w, r, models.FlashError, "This course is full.")
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		status := models.EnrollmentApproved
		if !course.Free() {
			status = models.EnrollmentPending
		}
		enrollment := &models.Enrollment{UserID: userID, CourseID: course.ID, Status: status}
		if err := app.Store.CreateEnrollment(r.Context(), enrollment); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				app.addFlash(w, r, models.FlashWarning, "You are already enrolled in this course.")
			} else {
				slog.Error("enrollment insert failed", "course_id", course.ID, "error", err)
				app.addFlash(w, r, models.FlashError, "Enrollment failed. Try again.")
			}
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		_ = app.Store.LogActivity(r.Context(), userID, "enrolled", course.ID, 0)
		app.Cache.Invalidate(r.Context(), userID)

		if status == models.EnrollmentPending {
			app.addFlash(w, r, models.FlashInfo, "Enrollment received. Your place is confirmed once payment completes.")
		} else {
			app.addFlash(w, r, models.FlashSuccess, "You are enrolled in "+course.Title+".")
			app.Notify.SendEmail(r.Context(), userID,
				"You are enrolled in "+course.Title,
				"Your enrollment in "+course.Title+" is confirmed. See you in the first session!")

			studentName := "A student"
			if student, err := app.Store.GetUserByID(r.Context(), userID); err == nil {
				studentName = student.Name()
			}
			app.Notify.Notify(r.Context(), course.TeacherID,
				models.NotificationEnrollment,
				"New student in "+course.Title,
				studentName+" joined your course.",
				"/teach/courses/"+strconv.Itoa(course.ID))
		}

		http.Redirect(w, r, redirect, http.StatusSeeOther)
	}
}
