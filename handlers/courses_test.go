// handlers/courses_test.go
package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learning-platform/models"
	"learning-platform/store"
)

func courseRouter(app *App, userID int) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/courses/{slug}", asUser(userID, CourseDetailPage(app))).Methods(http.MethodGet)
	router.HandleFunc("/courses/{slug}/enroll", asUser(userID, EnrollCourse(app))).Methods(http.MethodPost)
	return router
}

// enrollAndFollow posts the enrollment and returns the body of the
// redirected-to page, where the flash lands.
func enrollAndFollow(t *testing.T, app *App, userID int, slug string) string {
	t.Helper()
	router := courseRouter(app, userID)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, postForm("/courses/"+slug+"/enroll", nil))
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/courses/"+slug, w.Header().Get("Location"))

	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest(http.MethodGet, w.Header().Get("Location"), nil)
	carryCookies(w, r2)
	router.ServeHTTP(w2, r2)
	require.Equal(t, http.StatusOK, w2.Code)
	return w2.Body.String()
}

func TestEnrollFreeCourse(t *testing.T) {
	ctx := context.Background()
	app, st, mailer := newTestApp(t)
	teacher := seedUser(t, st, "instructor", "password123", true)
	student := seedUser(t, st, "learner", "password123", false)
	course := seedCourse(t, st, teacher.ID, 0, 10)

	body := enrollAndFollow(t, app, student.ID, course.Slug)
	assert.Contains(t, body, "alert-success")
	assert.Contains(t, body, "You are enrolled in Go Basics.")

	enr, err := st.GetEnrollment(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentApproved, enr.Status)

	// Student gets the receipt, teacher gets the in-app note.
	assert.Equal(t, 1, mailer.count())
	notes, err := st.ListNotifications(ctx, teacher.ID, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationEnrollment, notes[0].Kind)
	assert.Contains(t, notes[0].Title, "Go Basics")
}

func TestEnrollPaidCourseIsPending(t *testing.T) {
	ctx := context.Background()
	app, st, mailer := newTestApp(t)
	teacher := seedUser(t, st, "instructor", "password123", true)
	student := seedUser(t, st, "learner", "password123", false)
	course := seedCourse(t, st, teacher.ID, 4900, 10)

	body := enrollAndFollow(t, app, student.ID, course.Slug)
	assert.Contains(t, body, "alert-info")
	assert.Contains(t, body, "Your place is confirmed once payment completes.")

	enr, err := st.GetEnrollment(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentPending, enr.Status)
	assert.Equal(t, 0, mailer.count())
}

func TestEnrollOwnCourseIsRefused(t *testing.T) {
	app, st, _ := newTestApp(t)
	teacher := seedUser(t, st, "instructor", "password123", true)
	course := seedCourse(t, st, teacher.ID, 0, 10)

	body := enrollAndFollow(t, app, teacher.ID, course.Slug)
	assert.Contains(t, body, "alert-warning")
	assert.Contains(t, body, "You teach this course.")

	_, err := st.GetEnrollment(context.Background(), teacher.ID, course.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEnrollTwiceWarns(t *testing.T) {
	app, st, _ := newTestApp(t)
	teacher := seedUser(t, st, "instructor", "password123", true)
	student := seedUser(t, st, "learner", "password123", false)
	course := seedCourse(t, st, teacher.ID, 0, 10)

	enrollAndFollow(t, app, student.ID, course.Slug)
	body := enrollAndFollow(t, app, student.ID, course.Slug)
	assert.Contains(t, body, "alert-warning")
	assert.Contains(t, body, "You are already enrolled in this course.")
}

func TestEnrollFullCourse(t *testing.T) {
	app, st, _ := newTestApp(t)
	teacher := seedUser(t, st, "instructor", "password123", true)
	first := seedUser(t, st, "first", "password123", false)
	second := seedUser(t, st, "second", "password123", false)
	course := seedCourse(t, st, teacher.ID, 0, 1)

	enrollAndFollow(t, app, first.ID, course.Slug)
	body := enrollAndFollow(t, app, second.ID, course.Slug)
	assert.Contains(t, body, "alert-error")
	assert.Contains(t, body, "This course is full.")

	_, err := st.GetEnrollment(context.Background(), second.ID, course.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCoursesPageSearchAndPaging(t *testing.T) {
	app, st, _ := newTestApp(t)
	teacher := seedUser(t, st, "instructor", "password123", true)
	seedCourse(t, st, teacher.ID, 0, 10)
	require.NoError(t, st.CreateCourse(context.Background(), &models.Course{
		Title: "Rust Basics", Slug: "rust-basics", TeacherID: teacher.ID, MaxStudents: 10,
	}))

	w := httptest.NewRecorder()
	CoursesPage(app)(w, httptest.NewRequest(http.MethodGet, "/courses?q=go", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Go Basics")
	assert.NotContains(t, body, "Rust Basics")
}
