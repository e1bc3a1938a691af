// store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"learning-platform/models"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("store: duplicate")
)

// ListCoursesOptions narrows and pages the course catalog.
type ListCoursesOptions struct {
	Search    string
	TeacherID int
	Limit     int
	Offset    int
}

// CourseProgressRow is one enrolled course with the per-user counters
// the dashboard needs, ordered by enrollment date.
type CourseProgressRow struct {
	CourseID          int
	Title             string
	Color             string
	TotalSessions     int
	CompletedSessions int
	LastCompleted     *time.Time
	EnrolledAt        time.Time
}

// CompletionEntry is one completed session with its schedule, enough
// to derive streaks, learning hours and the activity series.
type CompletionEntry struct {
	SessionID   int
	CourseID    int
	CompletedAt time.Time
	StartsAt    time.Time
	EndsAt      time.Time
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id int) error
}

type CourseStore interface {
	CreateCourse(ctx context.Context, c *models.Course) error
	GetCourseByID(ctx context.Context, id int) (*models.Course, error)
	GetCourseBySlug(ctx context.Context, slug string) (*models.Course, error)
	ListCourses(ctx context.Context, opts ListCoursesOptions) ([]models.Course, error)
	CountCourses(ctx context.Context, opts ListCoursesOptions) (int, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, s *models.CourseSession) error
	GetSession(ctx context.Context, id int) (*models.CourseSession, error)
	ListCourseSessions(ctx context.Context, courseID int) ([]models.CourseSession, error)
	// ListUpcomingSessions returns sessions of the user's approved
	// courses starting within [from, until), soonest first.
	ListUpcomingSessions(ctx context.Context, userID int, from, until time.Time) ([]models.CourseSession, error)
	// ListSessionsStartingBetween returns every session starting within
	// [from, until), regardless of user.
	ListSessionsStartingBetween(ctx context.Context, from, until time.Time) ([]models.CourseSession, error)
}

type EnrollmentStore interface {
	CreateEnrollment(ctx context.Context, e *models.Enrollment) error
	GetEnrollment(ctx context.Context, userID, courseID int) (*models.Enrollment, error)
	UpdateEnrollmentStatus(ctx context.Context, userID, courseID int, status string) error
	CountApprovedEnrollments(ctx context.Context, courseID int) (int, error)
	ListUserEnrollments(ctx context.Context, userID int) ([]models.Enrollment, error)
	// ListCourseEnrollees returns the users enrolled in a course with
	// the given status, ordered by username.
	ListCourseEnrollees(ctx context.Context, courseID int, status string) ([]models.User, error)
}

type ProgressStore interface {
	// MarkSessionCompleted records a completion and reports whether the
	// row is new. Repeating a completion is a no-op.
	MarkSessionCompleted(ctx context.Context, userID, sessionID int, at time.Time) (bool, error)
	CourseProgressRows(ctx context.Context, userID int) ([]CourseProgressRow, error)
	CompletionLog(ctx context.Context, userID int) ([]CompletionEntry, error)
	UpsertAttendance(ctx context.Context, rec *models.AttendanceRecord) error
	// AttendanceSummary returns attended and marked counts across all of
	// the user's attendance rows.
	AttendanceSummary(ctx context.Context, userID int) (attended, marked int, err error)
	CourseAttendance(ctx context.Context, userID, courseID int) (attended, marked int, err error)
	Roster(ctx context.Context, courseID int) ([]models.RosterEntry, error)
}

type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID int) (*models.NotificationPreferences, error)
	SavePreferences(ctx context.Context, p *models.NotificationPreferences) error
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID, limit int) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID int) (int, error)
	MarkNotificationRead(ctx context.Context, userID, id int) error
}

type AchievementStore interface {
	// CreateAchievement awards once; a repeat award reports false.
	CreateAchievement(ctx context.Context, a *models.Achievement) (bool, error)
	ListAchievements(ctx context.Context, userID int) ([]models.Achievement, error)
}

type ReminderStore interface {
	// MarkReminderSent records that a reminder went out and reports
	// whether this call was the first for (session, user, kind).
	MarkReminderSent(ctx context.Context, sessionID, userID int, kind string) (bool, error)
}

type ActivityStore interface {
	// LogActivity appends an activity row; zero course or session ids
	// are stored as NULL.
	LogActivity(ctx context.Context, userID int, action string, courseID, sessionID int) error
}

// Store is the full persistence surface of the platform.
type Store interface {
	UserStore
	CourseStore
	SessionStore
	EnrollmentStore
	ProgressStore
	PreferenceStore
	NotificationStore
	AchievementStore
	ReminderStore
	ActivityStore
}
