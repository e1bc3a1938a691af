// handlers/notifications.go
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"learning-platform/middleware"
	"learning-platform/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Sessions gate the endpoint already, the page serving the
		// script is same-origin.
		return true
	},
}

type notificationsData struct {
	Notifications []models.Notification
}

func NotificationsPage(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		notifications, err := app.Store.ListNotifications(r.Context(), userID, 50)
		if err != nil {
			slog.Error("notification list failed", "user_id", userID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		app.render(w, r, http.StatusOK, "notifications", "Notifications", notificationsData{Notifications: notifications})
	}
}

func MarkNotificationRead(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if err := app.Store.MarkNotificationRead(r.Context(), userID, id); err != nil {
			slog.Warn("mark read failed", "user_id", userID, "notification_id", id, "error", err)
		}

		http.Redirect(w, r, "/notifications", http.StatusSeeOther)
	}
}

// NotificationsWS upgrades the request and parks the connection in the
// hub until the client goes away.
func NotificationsWS(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "user_id", userID, "error", err)
			return
		}

		app.Hub.Register(userID, conn)
		defer func() {
			app.Hub.Unregister(userID, conn)
			conn.Close()
		}()

		// Drain client frames so pings and close frames are handled.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
