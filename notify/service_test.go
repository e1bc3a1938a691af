// notify/service_test.go
package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learning-platform/models"
	"learning-platform/store"
)

// recordingMailer captures outgoing mail for assertions.
type recordingMailer struct {
	mu     sync.Mutex
	sent   []string
	bodies []string
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to+": "+subject)
	m.bodies = append(m.bodies, body)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func seedRecipient(t *testing.T, st store.Store) *models.User {
	t.Helper()
	u := &models.User{Username: "learner", Email: "learner@example.com", PasswordHash: "x"}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func TestNotifyDefaultsToBothChannels(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	mailer := &recordingMailer{}
	svc := NewService(st, mailer, nil)

	u := seedRecipient(t, st)
	svc.Notify(ctx, u.ID, models.NotificationEnrollment, "Enrollment approved", "Welcome aboard.", "/courses/go-basics")

	notes, err := st.ListNotifications(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Enrollment approved", notes[0].Title)
	assert.Equal(t, models.NotificationEnrollment, notes[0].Kind)
	assert.False(t, notes[0].Read)

	assert.Equal(t, 1, mailer.count())
}

func TestNotifyHonorsDisabledChannels(t *testing.T) {
	cases := []struct {
		name       string
		email      bool
		inApp      bool
		wantMail   int
		wantStored int
	}{
		{"email only", true, false, 1, 0},
		{"in-app only", false, true, 0, 1},
		{"all off", false, false, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			st := store.NewMemory()
			mailer := &recordingMailer{}
			svc := NewService(st, mailer, nil)

			u := seedRecipient(t, st)
			require.NoError(t, st.SavePreferences(ctx, &models.NotificationPreferences{
				UserID:             u.ID,
				ReminderDaysBefore: 1,
				EmailNotifications: tc.email,
				InAppNotifications: tc.inApp,
			}))

			svc.Notify(ctx, u.ID, models.NotificationAchievement, "Course Completed!", "", "")

			notes, err := st.ListNotifications(ctx, u.ID, 10)
			require.NoError(t, err)
			assert.Len(t, notes, tc.wantStored)
			assert.Equal(t, tc.wantMail, mailer.count())
		})
	}
}

func TestNotifyEmailsAbsoluteLinks(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	mailer := &recordingMailer{}
	svc := NewService(st, mailer, nil)
	svc.BaseURL = "https://learn.example.com"

	u := seedRecipient(t, st)
	svc.Notify(ctx, u.ID, models.NotificationReminder, "Upcoming session", "Starts soon.", "/courses/go-basics")

	require.Equal(t, 1, mailer.count())
	assert.Equal(t, "Starts soon.\n\nhttps://learn.example.com/courses/go-basics", mailer.bodies[0])

	// The stored in-app notification keeps the relative link.
	notes, err := st.ListNotifications(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "/courses/go-basics", notes[0].Link)
	assert.Equal(t, "Starts soon.", notes[0].Body)
}

func TestSendEmailIgnoresPreferences(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	mailer := &recordingMailer{}
	svc := NewService(st, mailer, nil)

	u := seedRecipient(t, st)
	require.NoError(t, st.SavePreferences(ctx, &models.NotificationPreferences{
		UserID: u.ID, EmailNotifications: false, InAppNotifications: false,
	}))

	// Transactional mail, e.g. an enrollment receipt, always goes out.
	svc.SendEmail(ctx, u.ID, "You are enrolled in Go Basics", "See you Monday.")

	require.Equal(t, 1, mailer.count())
	assert.Equal(t, "learner@example.com: You are enrolled in Go Basics", mailer.sent[0])
}
