// handlers/auth.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"learning-platform/middleware"
	"learning-platform/models"
	"learning-platform/store"
)

type loginForm struct {
	Username string
}

type registerForm struct {
	Username    string
	Email       string
	DisplayName string
}

func LoginPage(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if app.currentUser(r) != nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		app.render(w, r, http.StatusOK, "login", "Log in", loginForm{})
	}
}

func Login(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := strings.TrimSpace(r.PostFormValue("username"))
		password := r.PostFormValue("password")
		remember := r.PostFormValue("remember") == "on"

		user, err := app.Store.GetUserByUsername(r.Context(), username)
		if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			app.addFlash(w, r, models.FlashError, "Unknown username or wrong password.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		app.signIn(w, r, user, remember)
		if err := app.Store.TouchLastLogin(r.Context(), user.ID); err != nil {
			slog.Warn("last login update failed", "user_id", user.ID, "error", err)
		}

		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	}
}

func RegisterPage(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if app.currentUser(r) != nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		app.render(w, r, http.StatusOK, "register", "Register", registerForm{})
	}
}

func Register(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := strings.TrimSpace(r.PostFormValue("username"))
		email := strings.TrimSpace(r.PostFormValue("email"))
		displayName := strings.TrimSpace(r.PostFormValue("display_name"))
		password := r.PostFormValue("password")

		if msg := validateRegistration(username, email, password); msg != "" {
			app.addFlash(w, r, models.FlashError, msg)
			http.Redirect(w, r, "/register", http.StatusSeeOther)
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		user := &models.User{
			Username:     username,
			Email:        email,
			PasswordHash: string(hashed),
			DisplayName:  displayName,
		}
		if err := app.Store.CreateUser(r.Context(), user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				app.addFlash(w, r, models.FlashError, "That username or email is already taken.")
				http.Redirect(w, r, "/register", http.StatusSeeOther)
				return
			}
			slog.Error("user insert failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		prefs := models.DefaultPreferences(user.ID)
		if err := app.Store.SavePreferences(r.Context(), &prefs); err != nil {
			slog.Warn("default preference insert failed", "user_id", user.ID, "error", err)
		}

		app.signIn(w, r, user, false)
		app.addFlash(w, r, models.FlashSuccess, "Welcome! Your account is ready.")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	}
}

func validateRegistration(username, email, password string) string {
	if len(username) < 3 || len(username) > 20 {
		return "Username must be between 3 and 20 characters."
	}
	if !strings.Contains(email, "@") {
		return "Enter a valid email address."
	}
	if len(password) < 8 {
		return "Password must be at least 8 characters."
	}
	return ""
}

func Logout(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := app.Sessions.Get(r, middleware.SessionName)
		session.Values["authenticated"] = false
		session.Options.MaxAge = -1
		if err := session.Save(r, w); err != nil {
			slog.Error("session save failed", "error", err)
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
