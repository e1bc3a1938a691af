// store/memory.go
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"learning-platform/models"

	"github.com/google/uuid"
)

type reminderKey struct {
	SessionID int
	UserID    int
	Kind      string
}

type pairKey struct {
	A, B int
}

// Memory implements Store with in-process maps. The test suites run
// against it; semantics mirror the Postgres implementation.
type Memory struct {
	mu sync.RWMutex

	nextID int

	users         map[int]*models.User
	courses       map[int]*models.Course
	sessions      map[int]*models.CourseSession
	enrollments   map[int]*models.Enrollment
	completions   map[pairKey]*models.SessionCompletion // user, session
	attendance    map[pairKey]*models.AttendanceRecord  // session, user
	preferences   map[int]*models.NotificationPreferences
	notifications map[int]*models.Notification
	achievements  map[int]*models.Achievement
	reminders     map[reminderKey]bool
}

func NewMemory() *Memory {
	return &Memory{
		users:         make(map[int]*models.User),
		courses:       make(map[int]*models.Course),
		sessions:      make(map[int]*models.CourseSession),
		enrollments:   make(map[int]*models.Enrollment),
		completions:   make(map[pairKey]*models.SessionCompletion),
		attendance:    make(map[pairKey]*models.AttendanceRecord),
		preferences:   make(map[int]*models.NotificationPreferences),
		notifications: make(map[int]*models.Notification),
		achievements:  make(map[int]*models.Achievement),
		reminders:     make(map[reminderKey]bool),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) id() int {
	m.nextID++
	return m.nextID
}

// ── Users ──

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, other := range m.users {
		if other.Username == u.Username || other.Email == u.Email {
			return ErrDuplicate
		}
	}
	u.ID = m.id()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	if u.LastLogin.IsZero() {
		u.LastLogin = u.CreatedAt
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, id int) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username || u.Email == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) TouchLastLogin(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[id]; ok {
		u.LastLogin = time.Now()
	}
	return nil
}

// ── Courses ──

func (m *Memory) CreateCourse(_ context.Context, c *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, other := range m.courses {
		if other.Slug == c.Slug {
			return ErrDuplicate
		}
	}
	if c.Color == "" {
		c.Color = models.PaletteColor(0)
	}
	c.ID = m.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	cp := *c
	m.courses[c.ID] = &cp
	return nil
}

func (m *Memory) GetCourseByID(_ context.Context, id int) (*models.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.courses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.courseView(c), nil
}

func (m *Memory) GetCourseBySlug(_ context.Context, slug string) (*models.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.courses {
		if c.Slug == slug {
			return m.courseView(c), nil
		}
	}
	return nil, ErrNotFound
}

// courseView copies the course and fills the derived fields. Callers
// hold the lock.
func (m *Memory) courseView(c *models.Course) *models.Course {
	cp := *c
	if teacher, ok := m.users[c.TeacherID]; ok {
		cp.TeacherName = teacher.Name()
	}
	for _, e := range m.enrollments {
		if e.CourseID == c.ID && e.Status == models.EnrollmentApproved {
			cp.EnrolledCount++
		}
	}
	for _, s := range m.sessions {
		if s.CourseID == c.ID {
			cp.SessionCount++
		}
	}
	return &cp
}

func (m *Memory) ListCourses(_ context.Context, opts ListCoursesOptions) ([]models.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var courses []models.Course
	for _, c := range m.courses {
		if opts.TeacherID != 0 && c.TeacherID != opts.TeacherID {
			continue
		}
		if opts.Search != "" {
			needle := strings.ToLower(opts.Search)
			teacherName := ""
			if teacher, ok := m.users[c.TeacherID]; ok {
				teacherName = strings.ToLower(teacher.Username)
			}
			if !strings.Contains(strings.ToLower(c.Title), needle) &&
				!strings.Contains(teacherName, needle) {
				continue
			}
		}
		courses = append(courses, *m.courseView(c))
	}
	sort.Slice(courses, func(i, j int) bool {
		return courses[i].CreatedAt.After(courses[j].CreatedAt)
	})
	if opts.Limit > 0 {
		if opts.Offset >= len(courses) {
			return nil, nil
		}
		courses = courses[opts.Offset:]
		if len(courses) > opts.Limit {
			courses = courses[:opts.Limit]
		}
	}
	return courses, nil
}

func (m *Memory) CountCourses(ctx context.Context, opts ListCoursesOptions) (int, error) {
	opts.Limit = 0
	opts.Offset = 0
	courses, err := m.ListCourses(ctx, opts)
	return len(courses), err
}

// ── Sessions ──

func (m *Memory) CreateSession(_ context.Context, s *models.CourseSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.courses[s.CourseID]; !ok {
		return ErrNotFound
	}
	if s.PublicID == "" {
		s.PublicID = uuid.NewString()
	}
	s.ID = m.id()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *Memory) GetSession(_ context.Context, id int) (*models.CourseSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	if c, ok := m.courses[s.CourseID]; ok {
		cp.CourseTitle = c.Title
		cp.CourseSlug = c.Slug
	}
	return &cp, nil
}

func (m *Memory) ListCourseSessions(_ context.Context, courseID int) ([]models.CourseSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sessions []models.CourseSession
	for _, s := range m.sessions {
		if s.CourseID != courseID {
			continue
		}
		cp := *s
		if c, ok := m.courses[s.CourseID]; ok {
			cp.CourseTitle = c.Title
			cp.CourseSlug = c.Slug
		}
		sessions = append(sessions, cp)
	}
	sortSessions(sessions)
	return sessions, nil
}

func (m *Memory) ListUpcomingSessions(_ context.Context, userID int, from, until time.Time) ([]models.CourseSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	enrolled := make(map[int]bool)
	for _, e := range m.enrollments {
		if e.UserID == userID && e.Status == models.EnrollmentApproved {
			enrolled[e.CourseID] = true
		}
	}

	var sessions []models.CourseSession
	for _, s := range m.sessions {
		if !enrolled[s.CourseID] {
			continue
		}
		if s.StartsAt.Before(from) || !s.StartsAt.Before(until) {
			continue
		}
		cp := *s
		if c, ok := m.courses[s.CourseID]; ok {
			cp.CourseTitle = c.Title
			cp.CourseSlug = c.Slug
		}
		sessions = append(sessions, cp)
	}
	sortSessions(sessions)
	return sessions, nil
}

func (m *Memory) ListSessionsStartingBetween(_ context.Context, from, until time.Time) ([]models.CourseSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sessions []models.CourseSession
	for _, s := range m.sessions {
		if s.StartsAt.Before(from) || !s.StartsAt.Before(until) {
			continue
		}
		cp := *s
		if c, ok := m.courses[s.CourseID]; ok {
			cp.CourseTitle = c.Title
			cp.CourseSlug = c.Slug
		}
		sessions = append(sessions, cp)
	}
	sortSessions(sessions)
	return sessions, nil
}

func sortSessions(sessions []models.CourseSession) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartsAt.Before(sessions[j].StartsAt)
	})
}

// ── Enrollments ──

func (m *Memory) CreateEnrollment(_ context.Context, e *models.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, other := range m.enrollments {
		if other.UserID == e.UserID && other.CourseID == e.CourseID {
			return ErrDuplicate
		}
	}
	e.ID = m.id()
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now()
	}
	cp := *e
	m.enrollments[e.ID] = &cp
	return nil
}

func (m *Memory) GetEnrollment(_ context.Context, userID, courseID int) (*models.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateEnrollmentStatus(_ context.Context, userID, courseID int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			e.Status = status
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) CountApprovedEnrollments(_ context.Context, courseID int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.Status == models.EnrollmentApproved {
			count++
		}
	}
	return count, nil
}

func (m *Memory) ListUserEnrollments(_ context.Context, userID int) ([]models.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var enrollments []models.Enrollment
	for _, e := range m.enrollments {
		if e.UserID == userID {
			enrollments = append(enrollments, *e)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool {
		return enrollments[i].EnrolledAt.Before(enrollments[j].EnrolledAt)
	})
	return enrollments, nil
}

func (m *Memory) ListCourseEnrollees(_ context.Context, courseID int, status string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var users []models.User
	for _, e := range m.enrollments {
		if e.CourseID != courseID || e.Status != status {
			continue
		}
		if u, ok := m.users[e.UserID]; ok {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}

// ── Progress ──

func (m *Memory) MarkSessionCompleted(_ context.Context, userID, sessionID int, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey{userID, sessionID}
	if _, ok := m.completions[key]; ok {
		return false, nil
	}
	m.completions[key] = &models.SessionCompletion{
		UserID:      userID,
		SessionID:   sessionID,
		CompletedAt: at,
	}
	return true, nil
}

func (m *Memory) CourseProgressRows(_ context.Context, userID int) ([]CourseProgressRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []CourseProgressRow
	for _, e := range m.enrollments {
		if e.UserID != userID || e.Status != models.EnrollmentApproved {
			continue
		}
		c, ok := m.courses[e.CourseID]
		if !ok {
			continue
		}
		row := CourseProgressRow{
			CourseID:   c.ID,
			Title:      c.Title,
			Color:      c.Color,
			EnrolledAt: e.EnrolledAt,
		}
		for _, s := range m.sessions {
			if s.CourseID != c.ID {
				continue
			}
			row.TotalSessions++
			if comp, ok := m.completions[pairKey{userID, s.ID}]; ok {
				row.CompletedSessions++
				if row.LastCompleted == nil || comp.CompletedAt.After(*row.LastCompleted) {
					t := comp.CompletedAt
					row.LastCompleted = &t
				}
			}
		}
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EnrolledAt.Before(result[j].EnrolledAt)
	})
	return result, nil
}

func (m *Memory) CompletionLog(_ context.Context, userID int) ([]CompletionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []CompletionEntry
	for key, comp := range m.completions {
		if key.A != userID {
			continue
		}
		s, ok := m.sessions[comp.SessionID]
		if !ok {
			continue
		}
		entries = append(entries, CompletionEntry{
			SessionID:   comp.SessionID,
			CourseID:    s.CourseID,
			CompletedAt: comp.CompletedAt,
			StartsAt:    s.StartsAt,
			EndsAt:      s.EndsAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CompletedAt.Before(entries[j].CompletedAt)
	})
	return entries, nil
}

func (m *Memory) UpsertAttendance(_ context.Context, rec *models.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *rec
	cp.MarkedAt = time.Now()
	m.attendance[pairKey{rec.SessionID, rec.UserID}] = &cp
	return nil
}

func (m *Memory) AttendanceSummary(_ context.Context, userID int) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	attended, marked := 0, 0
	for key, rec := range m.attendance {
		if key.B != userID {
			continue
		}
		marked++
		if rec.Attended() {
			attended++
		}
	}
	return attended, marked, nil
}

func (m *Memory) CourseAttendance(_ context.Context, userID, courseID int) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	attended, marked := 0, 0
	for key, rec := range m.attendance {
		if key.B != userID {
			continue
		}
		s, ok := m.sessions[key.A]
		if !ok || s.CourseID != courseID {
			continue
		}
		marked++
		if rec.Attended() {
			attended++
		}
	}
	return attended, marked, nil
}

func (m *Memory) Roster(_ context.Context, courseID int) ([]models.RosterEntry, error) {
	m.mu.RLock()
	total := 0
	for _, s := range m.sessions {
		if s.CourseID == courseID {
			total++
		}
	}
	m.mu.RUnlock()

	enrollees, err := m.ListCourseEnrollees(context.Background(), courseID, models.EnrollmentApproved)
	if err != nil {
		return nil, err
	}

	var roster []models.RosterEntry
	for _, u := range enrollees {
		entry := models.RosterEntry{
			UserID:        u.ID,
			Username:      u.Username,
			DisplayName:   u.DisplayName,
			TotalSessions: total,
		}
		m.mu.RLock()
		for _, s := range m.sessions {
			if s.CourseID != courseID {
				continue
			}
			if _, ok := m.completions[pairKey{u.ID, s.ID}]; ok {
				entry.SessionsCompleted++
			}
		}
		m.mu.RUnlock()
		attended, marked, _ := m.CourseAttendance(context.Background(), u.ID, courseID)
		if marked > 0 {
			entry.Attendance = int(float64(attended)/float64(marked)*100 + 0.5)
		}
		if total > 0 {
			entry.Completion = int(float64(entry.SessionsCompleted)/float64(total)*100 + 0.5)
		}
		roster = append(roster, entry)
	}
	sort.Slice(roster, func(i, j int) bool {
		if roster[i].SessionsCompleted != roster[j].SessionsCompleted {
			return roster[i].SessionsCompleted > roster[j].SessionsCompleted
		}
		return roster[i].Username < roster[j].Username
	})
	return roster, nil
}

// ── Preferences ──

func (m *Memory) GetPreferences(_ context.Context, userID int) (*models.NotificationPreferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefs, ok := m.preferences[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *prefs
	return &cp, nil
}

func (m *Memory) SavePreferences(_ context.Context, prefs *models.NotificationPreferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *prefs
	m.preferences[prefs.UserID] = &cp
	return nil
}

// ── Notifications ──

func (m *Memory) CreateNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n.ID = m.id()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	m.notifications[n.ID] = &cp
	return nil
}

func (m *Memory) ListNotifications(_ context.Context, userID, limit int) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	var notifications []models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			notifications = append(notifications, *n)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		if notifications[i].CreatedAt.Equal(notifications[j].CreatedAt) {
			return notifications[i].ID > notifications[j].ID
		}
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	if len(notifications) > limit {
		notifications = notifications[:limit]
	}
	return notifications, nil
}

func (m *Memory) CountUnreadNotifications(_ context.Context, userID int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *Memory) MarkNotificationRead(_ context.Context, userID, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.Read = true
	return nil
}

// ── Achievements ──

func (m *Memory) CreateAchievement(_ context.Context, a *models.Achievement) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, other := range m.achievements {
		if other.UserID == a.UserID && other.CourseID == a.CourseID && other.Title == a.Title {
			return false, nil
		}
	}
	a.ID = m.id()
	if a.AwardedAt.IsZero() {
		a.AwardedAt = time.Now()
	}
	cp := *a
	m.achievements[a.ID] = &cp
	return true, nil
}

func (m *Memory) ListAchievements(_ context.Context, userID int) ([]models.Achievement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var achievements []models.Achievement
	for _, a := range m.achievements {
		if a.UserID == userID {
			achievements = append(achievements, *a)
		}
	}
	sort.Slice(achievements, func(i, j int) bool {
		return achievements[i].AwardedAt.After(achievements[j].AwardedAt)
	})
	return achievements, nil
}

// ── Reminders, activity ──

func (m *Memory) MarkReminderSent(_ context.Context, sessionID, userID int, kind string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := reminderKey{sessionID, userID, kind}
	if m.reminders[key] {
		return false, nil
	}
	m.reminders[key] = true
	return true, nil
}

func (m *Memory) LogActivity(_ context.Context, _ int, _ string, _, _ int) error {
	return nil
}
