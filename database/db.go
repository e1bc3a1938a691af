// database/db.go
package database

import (
	"database/sql"
	"log/slog"
	"time"

	"learning-platform/config"

	_ "github.com/lib/pq"
)

func Connect(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("database connected", "host", cfg.DBHost, "name", cfg.DBName)
	return db, nil
}

// InitDB creates the schema. Every statement is idempotent so the call
// is safe on every startup.
func InitDB(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			email VARCHAR(100) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			display_name VARCHAR(100) DEFAULT '',
			is_teacher BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			last_login TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS courses (
			id SERIAL PRIMARY KEY,
			title VARCHAR(200) NOT NULL,
			slug VARCHAR(200) UNIQUE NOT NULL,
			description TEXT DEFAULT '',
			teacher_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
			max_students INTEGER DEFAULT 30,
			price_cents INTEGER DEFAULT 0,
			color VARCHAR(20) NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS course_sessions (
			id SERIAL PRIMARY KEY,
			public_id VARCHAR(36) UNIQUE NOT NULL,
			course_id INTEGER REFERENCES courses(id) ON DELETE CASCADE,
			title VARCHAR(200) NOT NULL,
			starts_at TIMESTAMPTZ NOT NULL,
			ends_at TIMESTAMPTZ NOT NULL,
			location VARCHAR(200) DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS enrollments (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
			course_id INTEGER REFERENCES courses(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			enrolled_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(user_id, course_id)
		)`,

		`CREATE TABLE IF NOT EXISTS session_completions (
			user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
			session_id INTEGER REFERENCES course_sessions(id) ON DELETE CASCADE,
			completed_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY(user_id, session_id)
		)`,

		`CREATE TABLE IF NOT EXISTS attendance (
			session_id INTEGER REFERENCES course_sessions(id) ON DELETE CASCADE,
			user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL,
			marked_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY(session_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS notification_preferences (
			user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			reminder_days_before INTEGER NOT NULL DEFAULT 1,
			reminder_hours_before INTEGER NOT NULL DEFAULT 2,
			email_notifications BOOLEAN NOT NULL DEFAULT TRUE,
			in_app_notifications BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
			kind VARCHAR(30) NOT NULL,
			title VARCHAR(200) NOT NULL,
			body TEXT DEFAULT '',
			link VARCHAR(255) DEFAULT '',
			read BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS achievements (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
			course_id INTEGER REFERENCES courses(id) ON DELETE CASCADE,
			title VARCHAR(100) NOT NULL,
			description TEXT DEFAULT '',
			awarded_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(user_id, course_id, title)
		)`,

		`CREATE TABLE IF NOT EXISTS session_reminders (
			session_id INTEGER REFERENCES course_sessions(id) ON DELETE CASCADE,
			user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
			kind VARCHAR(10) NOT NULL,
			sent_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY(session_id, user_id, kind)
		)`,

		`CREATE TABLE IF NOT EXISTS activity_logs (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
			action_type VARCHAR(50) NOT NULL,
			course_id INTEGER REFERENCES courses(id) ON DELETE SET NULL,
			session_id INTEGER REFERENCES course_sessions(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_courses_teacher_id ON courses(teacher_id)`,
		`CREATE INDEX IF NOT EXISTS idx_course_sessions_course_id ON course_sessions(course_id)`,
		`CREATE INDEX IF NOT EXISTS idx_course_sessions_starts_at ON course_sessions(starts_at)`,
		`CREATE INDEX IF NOT EXISTS idx_enrollments_user_id ON enrollments(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_enrollments_course_id ON enrollments(course_id)`,
		`CREATE INDEX IF NOT EXISTS idx_session_completions_user_id ON session_completions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_user_id ON attendance(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_logs_user_id ON activity_logs(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_logs_created_at ON activity_logs(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
