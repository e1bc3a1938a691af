// models/course.go
package models

import "time"

type Course struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	TeacherID   int       `json:"teacher_id"`
	TeacherName string    `json:"teacher_name"`
	MaxStudents int       `json:"max_students"`
	PriceCents  int       `json:"price_cents"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`

	// Filled by list queries, not stored.
	EnrolledCount int `json:"enrolled_count"`
	SessionCount  int `json:"session_count"`
}

// Free reports whether the course can be joined without payment.
func (c *Course) Free() bool {
	return c.PriceCents == 0
}

type CourseSession struct {
	ID          int       `json:"id"`
	PublicID    string    `json:"public_id"`
	CourseID    int       `json:"course_id"`
	CourseTitle string    `json:"course_title,omitempty"`
	CourseSlug  string    `json:"course_slug,omitempty"`
	Title       string    `json:"title"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Location    string    `json:"location"`

	// Per-user flag filled by listings.
	Completed bool `json:"completed,omitempty"`
}

// Duration returns the scheduled length of the session.
func (s *CourseSession) Duration() time.Duration {
	return s.EndsAt.Sub(s.StartsAt)
}

// coursePalette holds the bar colors handed to the dashboard, as
// "R, G, B" triples ready for a CSS rgb() wrapper.
var coursePalette = []string{
	"59, 130, 246",
	"16, 185, 129",
	"249, 115, 22",
	"139, 92, 246",
	"236, 72, 153",
	"234, 179, 8",
}

// PaletteColor picks a stable color for the i-th course.
func PaletteColor(i int) string {
	if i < 0 {
		i = -i
	}
	return coursePalette[i%len(coursePalette)]
}
