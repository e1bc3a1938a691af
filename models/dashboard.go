// models/dashboard.go
package models

// DashboardContext carries everything the progress dashboard renders:
// scalar metrics, derived strings, per-course progress rows and the
// 30-day activity series behind the chart.
type DashboardContext struct {
	TotalCourses       int     `json:"total_courses"`
	CoursesCompleted   int     `json:"courses_completed"`
	TopicsMastered     int     `json:"topics_mastered"`
	AverageAttendance  int     `json:"average_attendance"`
	CurrentStreak      int     `json:"current_streak"`
	TotalLearningHours float64 `json:"total_learning_hours"`
	AvgSessionsPerWeek float64 `json:"avg_sessions_per_week"`

	MostActiveDay   string `json:"most_active_day"`
	LastSessionDate string `json:"last_session_date"`
	CompletionPace  string `json:"completion_pace"`

	Courses []CourseProgress `json:"courses"`

	ChartDates  []string `json:"chart_dates"`
	ChartCounts []int    `json:"chart_counts"`
}

// CourseProgress is one progress bar on the dashboard. Progress is a
// percentage; Color is an "R, G, B" triple. The session counts are
// displayed verbatim.
type CourseProgress struct {
	Title             string `json:"title"`
	Progress          int    `json:"progress"`
	Color             string `json:"color"`
	SessionsCompleted int    `json:"sessions_completed"`
	TotalSessions     int    `json:"total_sessions"`
	LastActive        string `json:"last_active"`
}
