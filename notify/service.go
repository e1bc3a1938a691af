// notify/service.go
package notify

import (
	"context"
	"errors"
	"log/slog"

	"learning-platform/models"
	"learning-platform/store"
)

// Service delivers notifications over the channels each user has
// enabled. Delivery failures are logged, never surfaced to the caller,
// so a broken relay cannot fail an enrollment or a session completion.
type Service struct {
	store  store.Store
	mailer Mailer
	hub    *Hub

	// BaseURL turns relative notification links into absolute ones for
	// email bodies. Left empty, emails carry no link.
	BaseURL string
}

func NewService(st store.Store, mailer Mailer, hub *Hub) *Service {
	return &Service{store: st, mailer: mailer, hub: hub}
}

// Notify stores an in-app notification and emails the user, honoring
// their saved channel preferences.
func (s *Service) Notify(ctx context.Context, userID int, kind, title, body, link string) {
	prefs := s.prefsFor(ctx, userID)
	if prefs.InAppNotifications {
		n := &models.Notification{
			UserID: userID,
			Kind:   kind,
			Title:  title,
			Body:   body,
			Link:   link,
		}
		if err := s.store.CreateNotification(ctx, n); err != nil {
			slog.Error("notification insert failed", "user_id", userID, "error", err)
		} else if s.hub != nil {
			s.hub.Push(userID, n)
		}
	}
	if prefs.EmailNotifications {
		if link != "" && s.BaseURL != "" {
			body += "\n\n" + s.BaseURL + link
		}
		s.SendEmail(ctx, userID, title, body)
	}
}

// SendEmail delivers transactional mail such as enrollment
// confirmations, which go out regardless of channel preferences.
func (s *Service) SendEmail(ctx context.Context, userID int, subject, body string) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		slog.Error("email lookup failed", "user_id", userID, "error", err)
		return
	}
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		slog.Error("email send failed", "to", user.Email, "error", err)
	}
}

// prefsFor loads saved preferences, falling back to the defaults for
// users who never opened the settings page.
func (s *Service) prefsFor(ctx context.Context, userID int) models.NotificationPreferences {
	prefs, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("preference lookup failed", "user_id", userID, "error", err)
		}
		return models.DefaultPreferences(userID)
	}
	return *prefs
}
