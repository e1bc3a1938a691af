// models/notification.go
package models

import "time"

const (
	NotificationEnrollment  = "enrollment"
	NotificationReminder    = "reminder"
	NotificationAchievement = "achievement"
)

type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Link      string    `json:"link"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type Achievement struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	CourseID    int       `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AwardedAt   time.Time `json:"awarded_at"`
}
