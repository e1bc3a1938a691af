// models/preferences.go
package models

// NotificationPreferences controls reminder timing and delivery
// channels for one user. The reminder offsets are in whole days and
// hours before a session starts; zero disables that reminder.
type NotificationPreferences struct {
	UserID              int  `json:"-"`
	ReminderDaysBefore  int  `json:"reminder_days_before"`
	ReminderHoursBefore int  `json:"reminder_hours_before"`
	EmailNotifications  bool `json:"email_notifications"`
	InAppNotifications  bool `json:"in_app_notifications"`
}

// DefaultPreferences is what a user gets before saving the form once.
func DefaultPreferences(userID int) NotificationPreferences {
	return NotificationPreferences{
		UserID:              userID,
		ReminderDaysBefore:  1,
		ReminderHoursBefore: 2,
		EmailNotifications:  true,
		InAppNotifications:  true,
	}
}
