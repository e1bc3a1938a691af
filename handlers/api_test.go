// handlers/api_test.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learning-platform/middleware"
	"learning-platform/models"
)

func apiLogin(t *testing.T, app *App, username, password string) string {
	t.Helper()

	w := httptest.NewRecorder()
	body := `{"username":"` + username + `","password":"` + password + `"}`
	APILogin(app)(w, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestAPILoginIssuesToken(t *testing.T) {
	app, st, _ := newTestApp(t)
	seedUser(t, st, "ayse", "password123", false)

	w := httptest.NewRecorder()
	body := `{"username":"ayse","password":"password123"}`
	APILogin(app)(w, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		User    struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ayse", resp.User.Username)
}

func TestAPILoginRejectsBadCredentials(t *testing.T) {
	app, st, _ := newTestApp(t)
	seedUser(t, st, "ayse", "password123", false)

	w := httptest.NewRecorder()
	body := `{"username":"ayse","password":"nope"}`
	APILogin(app)(w, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body)))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestAPIProgressRoundTrip(t *testing.T) {
	app, st, _ := newTestApp(t)
	user := seedUser(t, st, "ayse", "password123", false)
	teacher := seedUser(t, st, "instructor", "password123", true)
	course := seedCourse(t, st, teacher.ID, 0, 10)
	require.NoError(t, st.CreateEnrollment(context.Background(), &models.Enrollment{
		UserID: user.ID, CourseID: course.ID, Status: models.EnrollmentApproved,
	}))

	token := apiLogin(t, app, "ayse", "password123")
	protected := middleware.APIAuth(app.Config.JWTSecret)(APIProgress(app))

	// No token, no progress.
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/progress", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	protected.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success  bool `json:"success"`
		Progress struct {
			TotalCourses int `json:"total_courses"`
		} `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Progress.TotalCourses)
}

func TestAPIPreferencesUpdate(t *testing.T) {
	app, st, _ := newTestApp(t)
	user := seedUser(t, st, "ayse", "password123", false)

	token := apiLogin(t, app, "ayse", "password123")
	update := middleware.APIAuth(app.Config.JWTSecret)(APIUpdatePreferences(app))

	w := httptest.NewRecorder()
	body := `{"reminder_days_before":2,"reminder_hours_before":6,"email_notifications":false,"in_app_notifications":true}`
	r := httptest.NewRequest(http.MethodPut, "/api/preferences", strings.NewReader(body))
	r.Header.Set("Authorization", "Bearer "+token)
	update.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	prefs, err := st.GetPreferences(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, prefs.ReminderDaysBefore)
	assert.Equal(t, 6, prefs.ReminderHoursBefore)
	assert.False(t, prefs.EmailNotifications)
	assert.True(t, prefs.InAppNotifications)

	// Negative values are refused.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPut, "/api/preferences", strings.NewReader(`{"reminder_days_before":-1}`))
	r.Header.Set("Authorization", "Bearer "+token)
	update.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPICoursesList(t *testing.T) {
	app, st, _ := newTestApp(t)
	teacher := seedUser(t, st, "instructor", "password123", true)
	seedCourse(t, st, teacher.ID, 0, 10)

	w := httptest.NewRecorder()
	APICourses(app)(w, httptest.NewRequest(http.MethodGet, "/api/courses", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool            `json:"success"`
		Courses []models.Course `json:"courses"`
		Total   int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Courses, 1)
	assert.Equal(t, "Go Basics", resp.Courses[0].Title)
	assert.Equal(t, 1, resp.Total)
}

func TestAPICourseDetail(t *testing.T) {
	app, st, _ := newTestApp(t)
	teacher := seedUser(t, st, "instructor", "password123", true)
	course := seedCourse(t, st, teacher.ID, 0, 10)
	seedSessions(t, st, course.ID, 2)

	r := mux.NewRouter()
	r.HandleFunc("/api/courses/{slug}", APICourseDetail(app)).Methods("GET")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/courses/go-basics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success  bool                   `json:"success"`
		Course   models.Course          `json:"course"`
		Sessions []models.CourseSession `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Go Basics", resp.Course.Title)
	assert.Len(t, resp.Sessions, 2)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/courses/no-such-course", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIMarkNotificationRead(t *testing.T) {
	app, st, _ := newTestApp(t)
	user := seedUser(t, st, "ayse", "password123", false)
	ctx := context.Background()

	note := &models.Notification{UserID: user.ID, Kind: models.NotificationReminder, Title: "Session soon"}
	require.NoError(t, st.CreateNotification(ctx, note))

	token := apiLogin(t, app, "ayse", "password123")
	r := mux.NewRouter()
	r.Handle("/api/notifications/{id}/read",
		middleware.APIAuth(app.Config.JWTSecret)(APIMarkNotificationRead(app))).Methods("POST")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/notifications/"+strconv.Itoa(note.ID)+"/read", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	unread, err := st.CountUnreadNotifications(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}
