// notify/reminders.go
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"learning-platform/config"
	"learning-platform/models"
	"learning-platform/store"
)

// Reminder kinds recorded in session_reminders, one row per point so
// the day-before and hour-before notices dedup independently.
const (
	ReminderDays  = "days"
	ReminderHours = "hours"
)

// Reminders periodically scans upcoming sessions and sends each
// enrolled student their "days before" and "hours before" notices.
type Reminders struct {
	store     store.Store
	notify    *Service
	interval  time.Duration
	lookahead time.Duration

	now func() time.Time
}

func NewReminders(st store.Store, svc *Service, cfg *config.Config) *Reminders {
	return &Reminders{
		store:     st,
		notify:    svc,
		interval:  cfg.ReminderInterval,
		lookahead: cfg.ReminderLookahead,
		now:       time.Now,
	}
}

// Run sweeps on a ticker until the context is canceled.
func (r *Reminders) Run(ctx context.Context) {
	slog.Info("reminder scheduler started", "interval", r.interval, "lookahead", r.lookahead)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("reminder scheduler stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep delivers every reminder that is due now. It is a single pass,
// called from Run but exported so callers can trigger it directly.
func (r *Reminders) Sweep(ctx context.Context) {
	now := r.now()
	sessions, err := r.store.ListSessionsStartingBetween(ctx, now, now.Add(r.lookahead))
	if err != nil {
		slog.Error("reminder sweep failed to list sessions", "error", err)
		return
	}
	for _, session := range sessions {
		enrollees, err := r.store.ListCourseEnrollees(ctx, session.CourseID, models.EnrollmentApproved)
		if err != nil {
			slog.Error("reminder sweep failed to list enrollees",
				"session_id", session.ID, "error", err)
			continue
		}
		for _, user := range enrollees {
			r.remind(ctx, &session, user.ID, now)
		}
	}
}

func (r *Reminders) remind(ctx context.Context, session *models.CourseSession, userID int, now time.Time) {
	prefs := r.notify.prefsFor(ctx, userID)
	if !prefs.EmailNotifications && !prefs.InAppNotifications {
		return
	}

	points := []struct {
		kind   string
		offset time.Duration
	}{
		{ReminderDays, time.Duration(prefs.ReminderDaysBefore) * 24 * time.Hour},
		{ReminderHours, time.Duration(prefs.ReminderHoursBefore) * time.Hour},
	}
	for _, point := range points {
		// A zero preference disables that reminder point.
		if point.offset <= 0 {
			continue
		}
		due := session.StartsAt.Add(-point.offset)
		if now.Before(due) {
			continue
		}
		first, err := r.store.MarkReminderSent(ctx, session.ID, userID, point.kind)
		if err != nil {
			slog.Error("reminder dedup failed", "session_id", session.ID,
				"user_id", userID, "error", err)
			continue
		}
		if !first {
			continue
		}
		r.notify.Notify(ctx, userID,
			models.NotificationReminder,
			fmt.Sprintf("Upcoming session: %s", session.Title),
			fmt.Sprintf("%s (%s) starts %s.",
				session.Title, session.CourseTitle,
				session.StartsAt.Format("Jan 2, 2006 at 15:04")),
			"/courses/"+session.CourseSlug,
		)
	}
}
