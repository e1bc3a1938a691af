// handlers/app.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"learning-platform/config"
	"learning-platform/middleware"
	"learning-platform/models"
	"learning-platform/notify"
	"learning-platform/statscache"
	"learning-platform/store"
	"learning-platform/web"
)

// App bundles the dependencies the handlers close over.
type App struct {
	Store    store.Store
	Sessions *sessions.CookieStore
	Renderer *web.Renderer
	Cache    statscache.Cache
	Notify   *notify.Service
	Hub      *notify.Hub
	Config   *config.Config
}

// currentUser resolves the signed-in user, nil when anonymous. Public
// pages sit outside the auth middleware, so the session is checked
// directly when the context carries no id.
func (app *App) currentUser(r *http.Request) *models.User {
	id, ok := middleware.UserID(r)
	if !ok {
		session, _ := app.Sessions.Get(r, middleware.SessionName)
		auth, _ := session.Values["authenticated"].(bool)
		id, ok = session.Values["user_id"].(int)
		if !auth || !ok {
			return nil
		}
	}
	user, err := app.Store.GetUserByID(r.Context(), id)
	if err != nil {
		return nil
	}
	return user
}

func (app *App) signIn(w http.ResponseWriter, r *http.Request, user *models.User, remember bool) {
	session, _ := app.Sessions.Get(r, middleware.SessionName)
	session.Values["authenticated"] = true
	session.Values["user_id"] = user.ID
	session.Values["username"] = user.Username

	if remember {
		session.Options.MaxAge = 86400 * 30
	} else {
		session.Options.MaxAge = 86400
	}

	if err := session.Save(r, w); err != nil {
		slog.Error("session save failed", "error", err)
	}
}

func (app *App) addFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	session, _ := app.Sessions.Get(r, middleware.SessionName)
	session.AddFlash(models.Flash{Category: category, Message: message})
	if err := session.Save(r, w); err != nil {
		slog.Error("flash save failed", "error", err)
	}
}

// popFlashes drains the queued flashes. Reading them mutates the
// session, so it saves before returning.
func (app *App) popFlashes(w http.ResponseWriter, r *http.Request) []models.Flash {
	session, _ := app.Sessions.Get(r, middleware.SessionName)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		slog.Error("flash save failed", "error", err)
	}
	flashes := make([]models.Flash, 0, len(raw))
	for _, f := range raw {
		if flash, ok := f.(models.Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	return flashes
}

// render assembles the shared page chrome and executes the template.
func (app *App) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	user := app.currentUser(r)
	page := &web.Page{
		Title:     title,
		User:      user,
		Flashes:   app.popFlashes(w, r),
		CSRFField: csrf.TemplateField(r),
		Data:      data,
	}
	if user != nil {
		if n, err := app.Store.CountUnreadNotifications(r.Context(), user.ID); err == nil {
			page.UnreadCount = n
		}
	}
	app.Renderer.Render(w, status, name, page)
}
