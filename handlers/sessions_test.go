// handlers/sessions_test.go
package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learning-platform/models"
	"learning-platform/store"
)

func seedSessions(t *testing.T, st store.Store, courseID, n int) []*models.CourseSession {
	t.Helper()
	base := time.Date(2026, 2, 2, 18, 0, 0, 0, time.UTC)

	out := make([]*models.CourseSession, 0, n)
	for i := 0; i < n; i++ {
		s := &models.CourseSession{
			CourseID: courseID,
			Title:    "Week " + strconv.Itoa(i+1),
			StartsAt: base.AddDate(0, 0, 7*i),
			EndsAt:   base.AddDate(0, 0, 7*i).Add(time.Hour),
		}
		require.NoError(t, st.CreateSession(context.Background(), s))
		out = append(out, s)
	}
	return out
}

func completeSession(t *testing.T, app *App, userID, sessionID int) *httptest.ResponseRecorder {
	t.Helper()
	router := mux.NewRouter()
	router.HandleFunc("/sessions/{id}/complete", asUser(userID, CompleteSession(app))).Methods(http.MethodPost)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, postForm("/sessions/"+strconv.Itoa(sessionID)+"/complete", nil))
	return w
}

func TestCompleteSessionRecordsOnce(t *testing.T) {
	ctx := context.Background()
	app, st, _ := newTestApp(t)
	teacher := seedUser(t, st, "instructor", "password123", true)
	student := seedUser(t, st, "learner", "password123", false)
	course := seedCourse(t, st, teacher.ID, 0, 10)
	sessions := seedSessions(t, st, course.ID, 2)
	require.NoError(t, st.CreateEnrollment(ctx, &models.Enrollment{
		UserID: student.ID, CourseID: course.ID, Status: models.EnrollmentApproved,
	}))

	w := completeSession(t, app, student.ID, sessions[0].ID)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/courses/go-basics", w.Header().Get("Location"))

	log, err := st.CompletionLog(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)

	// Repeating changes nothing.
	completeSession(t, app, student.ID, sessions[0].ID)
	log, err = st.CompletionLog(ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, log, 1)

	// Half a course earns no badge yet.
	badges, err := st.ListAchievements(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, badges)
}

func TestCompleteSessionRequiresEnrollment(t *testing.T) {
	ctx := context.Background()
	app, st, _ := newTestApp(t)
	teacher := seedUser(t, st, "instructor", "password123", true)
	student := seedUser(t, st, "learner", "password123", false)
	course := seedCourse(t, st, teacher.ID, 4900, 10)
	sessions := seedSessions(t, st, course.ID, 1)
	require.NoError(t, st.CreateEnrollment(ctx, &models.Enrollment{
		UserID: student.ID, CourseID: course.ID, Status: models.EnrollmentPending,
	}))

	w := completeSession(t, app, student.ID, sessions[0].ID)
	require.Equal(t, http.StatusSeeOther, w.Code)

	log, err := st.CompletionLog(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestFinishingCourseAwardsBadges(t *testing.T) {
	ctx := context.Background()
	app, st, _ := newTestApp(t)
	teacher := seedUser(t, st, "instructor", "password123", true)
	student := seedUser(t, st, "learner", "password123", false)
	course := seedCourse(t, st, teacher.ID, 0, 10)
	sessions := seedSessions(t, st, course.ID, 2)
	require.NoError(t, st.CreateEnrollment(ctx, &models.Enrollment{
		UserID: student.ID, CourseID: course.ID, Status: models.EnrollmentApproved,
	}))
	for _, s := range sessions {
		require.NoError(t, st.UpsertAttendance(ctx, &models.AttendanceRecord{
			SessionID: s.ID, UserID: student.ID, Status: models.AttendancePresent,
		}))
	}

	completeSession(t, app, student.ID, sessions[0].ID)
	completeSession(t, app, student.ID, sessions[1].ID)

	badges, err := st.ListAchievements(ctx, student.ID)
	require.NoError(t, err)
	titles := make([]string, 0, len(badges))
	for _, b := range badges {
		titles = append(titles, b.Title)
	}
	assert.Contains(t, titles, "Course Completed!")
	assert.Contains(t, titles, "Perfect Attendance!")

	notes, err := st.ListNotifications(ctx, student.ID, 10)
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	// Completing again must not duplicate the badges.
	completeSession(t, app, student.ID, sessions[1].ID)
	badges, err = st.ListAchievements(ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, badges, 2)
}

func TestMissedAttendanceSkipsPerfectBadge(t *testing.T) {
	ctx := context.Background()
	app, st, _ := newTestApp(t)
	teacher := seedUser(t, st, "instructor", "password123", true)
	student := seedUser(t, st, "learner", "password123", false)
	course := seedCourse(t, st, teacher.ID, 0, 10)
	sessions := seedSessions(t, st, course.ID, 2)
	require.NoError(t, st.CreateEnrollment(ctx, &models.Enrollment{
		UserID: student.ID, CourseID: course.ID, Status: models.EnrollmentApproved,
	}))
	require.NoError(t, st.UpsertAttendance(ctx, &models.AttendanceRecord{
		SessionID: sessions[0].ID, UserID: student.ID, Status: models.AttendancePresent,
	}))
	require.NoError(t, st.UpsertAttendance(ctx, &models.AttendanceRecord{
		SessionID: sessions[1].ID, UserID: student.ID, Status: models.AttendanceAbsent,
	}))

	completeSession(t, app, student.ID, sessions[0].ID)
	completeSession(t, app, student.ID, sessions[1].ID)

	badges, err := st.ListAchievements(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "Course Completed!", badges[0].Title)
}
