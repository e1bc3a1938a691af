// notify/reminders_test.go
package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learning-platform/models"
	"learning-platform/store"
)

// seedSchedule creates a course with one approved student and one
// upcoming session starting at startsAt.
func seedSchedule(t *testing.T, st store.Store, startsAt time.Time) (*models.User, *models.CourseSession) {
	t.Helper()
	ctx := context.Background()

	teacher := &models.User{Username: "instructor", Email: "instructor@example.com", PasswordHash: "x", IsTeacher: true}
	require.NoError(t, st.CreateUser(ctx, teacher))

	student := &models.User{Username: "learner", Email: "learner@example.com", PasswordHash: "x"}
	require.NoError(t, st.CreateUser(ctx, student))

	course := &models.Course{Title: "Go Basics", Slug: "go-basics", TeacherID: teacher.ID, MaxStudents: 10}
	require.NoError(t, st.CreateCourse(ctx, course))

	session := &models.CourseSession{
		CourseID: course.ID,
		Title:    "Week 1: Tooling",
		StartsAt: startsAt,
		EndsAt:   startsAt.Add(time.Hour),
	}
	require.NoError(t, st.CreateSession(ctx, session))

	require.NoError(t, st.CreateEnrollment(ctx, &models.Enrollment{
		UserID: student.ID, CourseID: course.ID, Status: models.EnrollmentApproved,
	}))
	return student, session
}

func newTestReminders(st store.Store, mailer Mailer, now *time.Time) *Reminders {
	return &Reminders{
		store:     st,
		notify:    NewService(st, mailer, nil),
		interval:  time.Minute,
		lookahead: 14 * 24 * time.Hour,
		now:       func() time.Time { return *now },
	}
}

func TestSweepSendsBothPointsWhenDue(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	mailer := &recordingMailer{}

	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	// 10h out: inside both the 3-day and the 12-hour windows.
	student, _ := seedSchedule(t, st, now.Add(10*time.Hour))
	require.NoError(t, st.SavePreferences(ctx, &models.NotificationPreferences{
		UserID:              student.ID,
		ReminderDaysBefore:  3,
		ReminderHoursBefore: 12,
		EmailNotifications:  true,
		InAppNotifications:  true,
	}))

	r := newTestReminders(st, mailer, &now)
	r.Sweep(ctx)

	notes, err := st.ListNotifications(ctx, student.ID, 10)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "Upcoming session: Week 1: Tooling", notes[0].Title)
	assert.Equal(t, models.NotificationReminder, notes[0].Kind)
	assert.Equal(t, "/courses/go-basics", notes[0].Link)
	assert.Equal(t, 2, mailer.count())

	// A second pass must not repeat either point.
	r.Sweep(ctx)
	notes, err = st.ListNotifications(ctx, student.ID, 10)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
	assert.Equal(t, 2, mailer.count())
}

func TestSweepWaitsForThePoint(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	mailer := &recordingMailer{}

	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	start := now.Add(5 * 24 * time.Hour)
	student, _ := seedSchedule(t, st, start)
	require.NoError(t, st.SavePreferences(ctx, &models.NotificationPreferences{
		UserID:              student.ID,
		ReminderDaysBefore:  1,
		ReminderHoursBefore: 2,
		EmailNotifications:  false,
		InAppNotifications:  true,
	}))

	r := newTestReminders(st, mailer, &now)

	// Five days out: neither point reached.
	r.Sweep(ctx)
	notes, err := st.ListNotifications(ctx, student.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, notes)

	// Cross the one-day point.
	now = start.Add(-23 * time.Hour)
	r.Sweep(ctx)
	notes, err = st.ListNotifications(ctx, student.ID, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationReminder, notes[0].Kind)

	// Cross the two-hour point as well.
	now = start.Add(-90 * time.Minute)
	r.Sweep(ctx)
	notes, err = st.ListNotifications(ctx, student.ID, 10)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
	assert.Equal(t, 0, mailer.count())
}

func TestSweepZeroPreferenceDisablesPoint(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	mailer := &recordingMailer{}

	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	student, _ := seedSchedule(t, st, now.Add(time.Hour))
	require.NoError(t, st.SavePreferences(ctx, &models.NotificationPreferences{
		UserID:              student.ID,
		ReminderDaysBefore:  0,
		ReminderHoursBefore: 0,
		EmailNotifications:  true,
		InAppNotifications:  true,
	}))

	r := newTestReminders(st, mailer, &now)
	r.Sweep(ctx)

	notes, err := st.ListNotifications(ctx, student.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Equal(t, 0, mailer.count())
}

func TestSweepSkipsUsersWithAllChannelsOff(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	mailer := &recordingMailer{}

	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	student, session := seedSchedule(t, st, now.Add(time.Hour))
	require.NoError(t, st.SavePreferences(ctx, &models.NotificationPreferences{
		UserID:              student.ID,
		ReminderDaysBefore:  3,
		ReminderHoursBefore: 12,
		EmailNotifications:  false,
		InAppNotifications:  false,
	}))

	r := newTestReminders(st, mailer, &now)
	r.Sweep(ctx)

	assert.Equal(t, 0, mailer.count())

	// Nothing was marked sent, so re-enabling a channel still delivers.
	first, err := st.MarkReminderSent(ctx, session.ID, student.ID, ReminderHours)
	require.NoError(t, err)
	assert.True(t, first)
}
