package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"learning-platform/config"
	"learning-platform/database"
	"learning-platform/handlers"
	"learning-platform/middleware"
	"learning-platform/notify"
	"learning-platform/statscache"
	"learning-platform/store"
	"learning-platform/web"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.InitDB(db); err != nil {
		slog.Error("schema init failed", "error", err)
		os.Exit(1)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		slog.Error("template parse failed", "error", err)
		os.Exit(1)
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionKey))
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.IsProduction()
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	st := store.NewPostgres(db)
	hub := notify.NewHub()
	notifier := notify.NewService(st, notify.NewMailer(cfg), hub)
	notifier.BaseURL = cfg.BaseURL

	app := &handlers.App{
		Store:    st,
		Sessions: sessionStore,
		Renderer: renderer,
		Cache:    statscache.New(cfg),
		Notify:   notifier,
		Hub:      hub,
		Config:   cfg,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go notify.NewReminders(st, notifier, cfg).Run(ctx)

	r := mux.NewRouter()
	r.Use(middleware.Metrics, middleware.Logger)

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", web.StaticHandler()))
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}).Methods("GET")

	// JSON API: bearer tokens and CORS instead of sessions and CSRF.
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	api := r.PathPrefix("/api").Subrouter()
	api.Use(c.Handler)

	api.HandleFunc("/login", handlers.APILogin(app)).Methods("POST", "OPTIONS")
	api.HandleFunc("/courses", handlers.APICourses(app)).Methods("GET", "OPTIONS")
	api.HandleFunc("/courses/{slug}", handlers.APICourseDetail(app)).Methods("GET", "OPTIONS")

	apiAuth := api.PathPrefix("/").Subrouter()
	apiAuth.Use(middleware.APIAuth(cfg.JWTSecret))
	apiAuth.HandleFunc("/progress", handlers.APIProgress(app)).Methods("GET", "OPTIONS")
	apiAuth.HandleFunc("/notifications", handlers.APINotifications(app)).Methods("GET", "OPTIONS")
	apiAuth.HandleFunc("/notifications/{id}/read", handlers.APIMarkNotificationRead(app)).Methods("POST", "OPTIONS")
	apiAuth.HandleFunc("/preferences", handlers.APIGetPreferences(app)).Methods("GET", "OPTIONS")
	apiAuth.HandleFunc("/preferences", handlers.APIUpdatePreferences(app)).Methods("PUT", "OPTIONS")

	// HTML pages, all behind CSRF protection.
	pages := r.NewRoute().Subrouter()
	pages.Use(csrf.Protect(
		[]byte(cfg.CSRFKey),
		csrf.Secure(cfg.IsProduction()),
		csrf.Path("/"),
	))

	pages.HandleFunc("/", handlers.HomePage(app)).Methods("GET")
	pages.HandleFunc("/login", handlers.LoginPage(app)).Methods("GET")
	pages.HandleFunc("/login", handlers.Login(app)).Methods("POST")
	pages.HandleFunc("/register", handlers.RegisterPage(app)).Methods("GET")
	pages.HandleFunc("/register", handlers.Register(app)).Methods("POST")
	pages.HandleFunc("/logout", handlers.Logout(app)).Methods("POST")
	pages.HandleFunc("/courses", handlers.CoursesPage(app)).Methods("GET")
	pages.HandleFunc("/courses/{slug}", handlers.CourseDetailPage(app)).Methods("GET")

	// Signed-in pages.
	private := pages.NewRoute().Subrouter()
	private.Use(middleware.Auth(sessionStore))

	private.HandleFunc("/dashboard", handlers.DashboardPage(app)).Methods("GET")
	private.HandleFunc("/profile", handlers.ProfilePage(app)).Methods("GET")
	private.HandleFunc("/preferences", handlers.PreferencesPage(app)).Methods("GET")
	private.HandleFunc("/preferences", handlers.UpdatePreferences(app)).Methods("POST")
	private.HandleFunc("/notifications", handlers.NotificationsPage(app)).Methods("GET")
	private.HandleFunc("/notifications/{id}/read", handlers.MarkNotificationRead(app)).Methods("POST")
	private.HandleFunc("/calendar.ics", handlers.CalendarFeed(app)).Methods("GET")
	private.HandleFunc("/courses/{slug}/enroll", handlers.EnrollCourse(app)).Methods("POST")
	private.HandleFunc("/sessions/{id}/complete", handlers.CompleteSession(app)).Methods("POST")
	private.HandleFunc("/ws/notifications", handlers.NotificationsWS(app)).Methods("GET")

	// Instructor surface.
	teach := private.PathPrefix("/teach").Subrouter()
	teach.Use(middleware.TeacherOnly(st))

	teach.HandleFunc("", handlers.TeachPage(app)).Methods("GET")
	teach.HandleFunc("/courses", handlers.CreateCourse(app)).Methods("POST")
	teach.HandleFunc("/courses/{id}", handlers.TeachCoursePage(app)).Methods("GET")
	teach.HandleFunc("/courses/{id}/sessions", handlers.CreateSession(app)).Methods("POST")
	teach.HandleFunc("/courses/{id}/approve", handlers.ApproveEnrollment(app)).Methods("POST")
	teach.HandleFunc("/attendance", handlers.MarkAttendance(app)).Methods("POST")

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Addr(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.Addr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown incomplete", "error", err)
	}
	hub.Close()
}
