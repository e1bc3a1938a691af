// handlers/teach.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"learning-platform/middleware"
	"learning-platform/models"
	"learning-platform/store"
)

const datetimeLocal = "2006-01-02T15:04"

type teachData struct {
	Courses []models.Course
}

type teachCourseData struct {
	Course   *models.Course
	Roster   []models.RosterEntry
	Pending  []models.User
	Sessions []models.CourseSession
}

func TeachPage(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		courses, err := app.Store.ListCourses(r.Context(), store.ListCoursesOptions{TeacherID: userID})
		if err != nil {
			slog.Error("own course list failed", "user_id", userID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		app.render(w, r, http.StatusOK, "teach", "Teaching", teachData{Courses: courses})
	}
}

func CreateCourse(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		title := strings.TrimSpace(r.PostFormValue("title"))
		if title == "" {
			app.addFlash(w, r, models.FlashError, "Course title is required.")
			http.Redirect(w, r, "/teach", http.StatusSeeOther)
			return
		}

		maxStudents, err := strconv.Atoi(r.PostFormValue("max_students"))
		if err != nil || maxStudents < 1 {
			maxStudents = 20
		}
		priceCents, err := parseNonNegative(r.PostFormValue("price_cents"))
		if err != nil {
			priceCents = 0
		}

		// Stable bar color, picked by how many courses the teacher has.
		count, err := app.Store.CountCourses(r.Context(), store.ListCoursesOptions{TeacherID: userID})
		if err != nil {
			count = 0
		}

		course := &models.Course{
			Title:       title,
			Slug:        slugify(title),
			Description: strings.TrimSpace(r.PostFormValue("description")),
			TeacherID:   userID,
			MaxStudents: maxStudents,
			PriceCents:  priceCents,
			Color:       models.PaletteColor(count),
		}
		if err := app.Store.CreateCourse(r.Context(), course); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				app.addFlash(w, r, models.FlashError, "A course with a similar title already exists.")
				http.Redirect(w, r, "/teach", http.StatusSeeOther)
				return
			}
			slog.Error("course insert failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		app.addFlash(w, r, models.FlashSuccess, "Course created.")
		http.Redirect(w, r, "/teach/courses/"+strconv.Itoa(course.ID), http.StatusSeeOther)
	}
}

func TeachCoursePage(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		course := app.ownCourse(w, r)
		if course == nil {
			return
		}

		roster, err := app.Store.Roster(r.Context(), course.ID)
		if err != nil {
			slog.Error("roster failed", "course_id", course.ID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		pending, err := app.Store.ListCourseEnrollees(r.Context(), course.ID, models.EnrollmentPending)
		if err != nil {
			slog.Warn("pending list failed", "course_id", course.ID, "error", err)
		}
		sessions, err := app.Store.ListCourseSessions(r.Context(), course.ID)
		if err != nil {
			slog.Error("session list failed", "course_id", course.ID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		app.render(w, r, http.StatusOK, "teach_course", course.Title, teachCourseData{
			Course:   course,
			Roster:   roster,
			Pending:  pending,
			Sessions: sessions,
		})
	}
}

func CreateSession(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		course := app.ownCourse(w, r)
		if course == nil {
			return
		}
		redirect := "/teach/courses/" + strconv.Itoa(course.ID)

		title := strings.TrimSpace(r.PostFormValue("title"))
		startsAt, errStart := time.ParseInLocation(datetimeLocal, r.PostFormValue("starts_at"), time.Local)
		endsAt, errEnd := time.ParseInLocation(datetimeLocal, r.PostFormValue("ends_at"), time.Local)
		if title == "" || errStart != nil || errEnd != nil || !endsAt.After(startsAt) {
			app.addFlash(w, r, models.FlashError, "A session needs a title and an end after its start.")
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		session := &models.CourseSession{
			CourseID: course.ID,
			Title:    title,
			StartsAt: startsAt,
			EndsAt:   endsAt,
			Location: strings.TrimSpace(r.PostFormValue("location")),
		}
		if err := app.Store.CreateSession(r.Context(), session); err != nil {
			slog.Error("session insert failed", "course_id", course.ID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		app.addFlash(w, r, models.FlashSuccess, "Session scheduled.")
		http.Redirect(w, r, redirect, http.StatusSeeOther)
	}
}

// ApproveEnrollment moves a pending student to approved, used for paid
// courses once payment is settled.
func ApproveEnrollment(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		course := app.ownCourse(w, r)
		if course == nil {
			return
		}
		redirect := "/teach/courses/" + strconv.Itoa(course.ID)

		studentID, err := strconv.Atoi(r.PostFormValue("user_id"))
		if err != nil {
			app.addFlash(w, r, models.FlashError, "Unknown student.")
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		enr, err := app.Store.GetEnrollment(r.Context(), studentID, course.ID)
		if err != nil || enr.Status != models.EnrollmentPending {
			app.addFlash(w, r, models.FlashError, "No pending enrollment for that student.")
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		approved, err := app.Store.CountApprovedEnrollments(r.Context(), course.ID)
		if err == nil && approved >= course.MaxStudents {
			app.addFlash(w, r, models.FlashError, "This course is full.")
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		if err := app.Store.UpdateEnrollmentStatus(r.Context(), studentID, course.ID, models.EnrollmentApproved); err != nil {
			slog.Error("enrollment approve failed", "course_id", course.ID, "user_id", studentID, "error", err)
			app.addFlash(w, r, models.FlashError, "Could not approve the enrollment.")
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		app.Cache.Invalidate(r.Context(), studentID)
		app.Notify.Notify(r.Context(), studentID,
			models.NotificationEnrollment,
			"Enrollment approved: "+course.Title,
			"Your place in "+course.Title+" is confirmed.",
			"/courses/"+course.Slug)
		app.Notify.SendEmail(r.Context(), studentID,
			"You are enrolled in "+course.Title,
			"Your enrollment in "+course.Title+" is confirmed. See you in the first session!")

		app.addFlash(w, r, models.FlashSuccess, "Enrollment approved.")
		http.Redirect(w, r, redirect, http.StatusSeeOther)
	}
}

// MarkAttendance records one student's status for one session.
func MarkAttendance(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		sessionID, errSession := strconv.Atoi(r.PostFormValue("session_id"))
		studentID, errStudent := strconv.Atoi(r.PostFormValue("user_id"))
		status := r.PostFormValue("status")
		if errSession != nil || errStudent != nil || !models.ValidAttendanceStatus(status) {
			app.addFlash(w, r, models.FlashError, "Invalid attendance submission.")
			http.Redirect(w, r, "/teach", http.StatusSeeOther)
			return
		}

		session, err := app.Store.GetSession(r.Context(), sessionID)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		course, err := app.Store.GetCourseByID(r.Context(), session.CourseID)
		if err != nil || course.TeacherID != userID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		redirect := "/teach/courses/" + strconv.Itoa(course.ID)

		enr, err := app.Store.GetEnrollment(r.Context(), studentID, course.ID)
		if err != nil || enr.Status != models.EnrollmentApproved {
			app.addFlash(w, r, models.FlashError, "That student is not enrolled in the course.")
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		if err := app.Store.UpsertAttendance(r.Context(), &models.AttendanceRecord{
			SessionID: sessionID,
			UserID:    studentID,
			Status:    status,
		}); err != nil {
			slog.Error("attendance upsert failed", "session_id", sessionID, "user_id", studentID, "error", err)
			app.addFlash(w, r, models.FlashError, "Could not save the attendance record.")
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		app.Cache.Invalidate(r.Context(), studentID)
		app.addFlash(w, r, models.FlashSuccess, "Attendance saved.")
		http.Redirect(w, r, redirect, http.StatusSeeOther)
	}
}

// ownCourse loads the course in the route and checks the signed-in
// teacher owns it, writing the error response itself when not.
func (app *App) ownCourse(w http.ResponseWriter, r *http.Request) *models.Course {
	userID, _ := middleware.UserID(r)

	courseID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.NotFound(w, r)
		return nil
	}
	course, err := app.Store.GetCourseByID(r.Context(), courseID)
	if err != nil {
		http.NotFound(w, r)
		return nil
	}
	if course.TeacherID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil
	}
	return course
}

// slugify turns a title into a url-safe slug.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
