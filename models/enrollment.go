// models/enrollment.go
package models

import "time"

const (
	EnrollmentPending  = "pending"
	EnrollmentApproved = "approved"
)

type Enrollment struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	CourseID   int       `json:"course_id"`
	Status     string    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

const (
	AttendancePresent = "present"
	AttendanceLate    = "late"
	AttendanceAbsent  = "absent"
	AttendanceExcused = "excused"
)

// ValidAttendanceStatus reports whether s is one of the four statuses.
func ValidAttendanceStatus(s string) bool {
	switch s {
	case AttendancePresent, AttendanceLate, AttendanceAbsent, AttendanceExcused:
		return true
	}
	return false
}

type AttendanceRecord struct {
	SessionID int       `json:"session_id"`
	UserID    int       `json:"user_id"`
	Status    string    `json:"status"`
	MarkedAt  time.Time `json:"marked_at"`
}

// Attended reports whether the record counts toward attendance rate.
func (a *AttendanceRecord) Attended() bool {
	return a.Status == AttendancePresent || a.Status == AttendanceLate
}

type SessionCompletion struct {
	UserID      int       `json:"user_id"`
	SessionID   int       `json:"session_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// RosterEntry is one student row on the instructor roster, ordered by
// completion.
type RosterEntry struct {
	UserID            int    `json:"user_id"`
	Username          string `json:"username"`
	DisplayName       string `json:"display_name"`
	SessionsCompleted int    `json:"sessions_completed"`
	TotalSessions     int    `json:"total_sessions"`
	Completion        int    `json:"completion"`
	Attendance        int    `json:"attendance"`
}
