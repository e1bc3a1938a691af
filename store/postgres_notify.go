// store/postgres_notify.go
package store

import (
	"context"

	"learning-platform/models"
)

func (p *Postgres) GetPreferences(ctx context.Context, userID int) (*models.NotificationPreferences, error) {
	prefs := models.NotificationPreferences{UserID: userID}
	err := p.db.QueryRowContext(ctx, `
		SELECT reminder_days_before, reminder_hours_before, email_notifications, in_app_notifications
		FROM notification_preferences
		WHERE user_id = $1
	`, userID).Scan(
		&prefs.ReminderDaysBefore, &prefs.ReminderHoursBefore,
		&prefs.EmailNotifications, &prefs.InAppNotifications,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &prefs, nil
}

func (p *Postgres) SavePreferences(ctx context.Context, prefs *models.NotificationPreferences) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO notification_preferences
			(user_id, reminder_days_before, reminder_hours_before, email_notifications, in_app_notifications, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			reminder_days_before = EXCLUDED.reminder_days_before,
			reminder_hours_before = EXCLUDED.reminder_hours_before,
			email_notifications = EXCLUDED.email_notifications,
			in_app_notifications = EXCLUDED.in_app_notifications,
			updated_at = NOW()
	`, prefs.UserID, prefs.ReminderDaysBefore, prefs.ReminderHoursBefore,
		prefs.EmailNotifications, prefs.InAppNotifications)
	return err
}

func (p *Postgres) CreateNotification(ctx context.Context, n *models.Notification) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, kind, title, body, link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, n.UserID, n.Kind, n.Title, n.Body, n.Link).Scan(&n.ID, &n.CreatedAt)
	return mapErr(err)
}

func (p *Postgres) ListNotifications(ctx context.Context, userID, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, kind, title, body, link, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.Link, &n.Read, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (p *Postgres) CountUnreadNotifications(ctx context.Context, userID int) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE
	`, userID).Scan(&count)
	return count, err
}

func (p *Postgres) MarkNotificationRead(ctx context.Context, userID, id int) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateAchievement(ctx context.Context, a *models.Achievement) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO achievements (user_id, course_id, title, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, course_id, title) DO NOTHING
	`, a.UserID, a.CourseID, a.Title, a.Description)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *Postgres) ListAchievements(ctx context.Context, userID int) ([]models.Achievement, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, course_id, title, description, awarded_at
		FROM achievements
		WHERE user_id = $1
		ORDER BY awarded_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var achievements []models.Achievement
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.UserID, &a.CourseID, &a.Title, &a.Description, &a.AwardedAt); err != nil {
			return nil, err
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

func (p *Postgres) MarkReminderSent(ctx context.Context, sessionID, userID int, kind string) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO session_reminders (session_id, user_id, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, user_id, kind) DO NOTHING
	`, sessionID, userID, kind)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *Postgres) LogActivity(ctx context.Context, userID int, action string, courseID, sessionID int) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO activity_logs (user_id, action_type, course_id, session_id)
		VALUES ($1, $2, NULLIF($3, 0), NULLIF($4, 0))
	`, userID, action, courseID, sessionID)
	return err
}
