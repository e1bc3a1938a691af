// store/postgres_progress.go
package store

import (
	"context"
	"database/sql"
	"time"

	"learning-platform/models"
)

func (p *Postgres) CreateEnrollment(ctx context.Context, e *models.Enrollment) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO enrollments (user_id, course_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, enrolled_at
	`, e.UserID, e.CourseID, e.Status).Scan(&e.ID, &e.EnrolledAt)
	return mapErr(err)
}

func (p *Postgres) GetEnrollment(ctx context.Context, userID, courseID int) (*models.Enrollment, error) {
	var e models.Enrollment
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, course_id, status, enrolled_at
		FROM enrollments
		WHERE user_id = $1 AND course_id = $2
	`, userID, courseID).Scan(&e.ID, &e.UserID, &e.CourseID, &e.Status, &e.EnrolledAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &e, nil
}

func (p *Postgres) UpdateEnrollmentStatus(ctx context.Context, userID, courseID int, status string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE enrollments SET status = $3
		WHERE user_id = $1 AND course_id = $2
	`, userID, courseID, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

func (p *Postgres) CountApprovedEnrollments(ctx context.Context, courseID int) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM enrollments
		WHERE course_id = $1 AND status = 'approved'
	`, courseID).Scan(&count)
	return count, err
}

func (p *Postgres) ListUserEnrollments(ctx context.Context, userID int) ([]models.Enrollment, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, course_id, status, enrolled_at
		FROM enrollments
		WHERE user_id = $1
		ORDER BY enrolled_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []models.Enrollment
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Status, &e.EnrolledAt); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

func (p *Postgres) ListCourseEnrollees(ctx context.Context, courseID int, status string) ([]models.User, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.display_name, u.is_teacher, u.created_at, u.last_login
		FROM enrollments e
		JOIN users u ON e.user_id = u.id
		WHERE e.course_id = $1 AND e.status = $2
		ORDER BY u.username ASC
	`, courseID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.PasswordHash,
			&u.DisplayName, &u.IsTeacher, &u.CreatedAt, &u.LastLogin,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (p *Postgres) MarkSessionCompleted(ctx context.Context, userID, sessionID int, at time.Time) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO session_completions (user_id, session_id, completed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, session_id) DO NOTHING
	`, userID, sessionID, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *Postgres) CourseProgressRows(ctx context.Context, userID int) ([]CourseProgressRow, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.color,
		       COUNT(DISTINCT cs.id) AS total_sessions,
		       COUNT(DISTINCT sc.session_id) AS completed_sessions,
		       MAX(sc.completed_at) AS last_completed,
		       e.enrolled_at
		FROM enrollments e
		JOIN courses c ON e.course_id = c.id
		LEFT JOIN course_sessions cs ON cs.course_id = c.id
		LEFT JOIN session_completions sc ON sc.session_id = cs.id AND sc.user_id = e.user_id
		WHERE e.user_id = $1 AND e.status = 'approved'
		GROUP BY c.id, e.enrolled_at
		ORDER BY e.enrolled_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CourseProgressRow
	for rows.Next() {
		var row CourseProgressRow
		var last sql.NullTime
		if err := rows.Scan(
			&row.CourseID, &row.Title, &row.Color,
			&row.TotalSessions, &row.CompletedSessions, &last, &row.EnrolledAt,
		); err != nil {
			return nil, err
		}
		if last.Valid {
			t := last.Time
			row.LastCompleted = &t
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (p *Postgres) CompletionLog(ctx context.Context, userID int) ([]CompletionEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT sc.session_id, cs.course_id, sc.completed_at, cs.starts_at, cs.ends_at
		FROM session_completions sc
		JOIN course_sessions cs ON sc.session_id = cs.id
		WHERE sc.user_id = $1
		ORDER BY sc.completed_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CompletionEntry
	for rows.Next() {
		var e CompletionEntry
		if err := rows.Scan(&e.SessionID, &e.CourseID, &e.CompletedAt, &e.StartsAt, &e.EndsAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (p *Postgres) UpsertAttendance(ctx context.Context, rec *models.AttendanceRecord) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO attendance (session_id, user_id, status, marked_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (session_id, user_id) DO UPDATE SET
			status = EXCLUDED.status,
			marked_at = NOW()
	`, rec.SessionID, rec.UserID, rec.Status)
	return err
}

func (p *Postgres) AttendanceSummary(ctx context.Context, userID int) (int, int, error) {
	var attended, marked int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE status IN ('present', 'late')), COUNT(*)
		FROM attendance
		WHERE user_id = $1
	`, userID).Scan(&attended, &marked)
	return attended, marked, err
}

func (p *Postgres) CourseAttendance(ctx context.Context, userID, courseID int) (int, int, error) {
	var attended, marked int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE a.status IN ('present', 'late')), COUNT(*)
		FROM attendance a
		JOIN course_sessions cs ON a.session_id = cs.id
		WHERE a.user_id = $1 AND cs.course_id = $2
	`, userID, courseID).Scan(&attended, &marked)
	return attended, marked, err
}

func (p *Postgres) Roster(ctx context.Context, courseID int) ([]models.RosterEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT u.id, u.username, COALESCE(u.display_name, ''),
		       COUNT(DISTINCT sc.session_id) AS completed,
		       (SELECT COUNT(*) FROM course_sessions WHERE course_id = $1) AS total,
		       COALESCE(ROUND(
		           100.0 * COUNT(att.user_id) FILTER (WHERE att.status IN ('present', 'late'))
		           / NULLIF(COUNT(att.user_id), 0)
		       ), 0)::int AS attendance
		FROM enrollments e
		JOIN users u ON e.user_id = u.id
		LEFT JOIN course_sessions cs ON cs.course_id = e.course_id
		LEFT JOIN session_completions sc ON sc.session_id = cs.id AND sc.user_id = u.id
		LEFT JOIN attendance att ON att.session_id = cs.id AND att.user_id = u.id
		WHERE e.course_id = $1 AND e.status = 'approved'
		GROUP BY u.id
		ORDER BY completed DESC, u.username ASC
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []models.RosterEntry
	for rows.Next() {
		var r models.RosterEntry
		if err := rows.Scan(
			&r.UserID, &r.Username, &r.DisplayName,
			&r.SessionsCompleted, &r.TotalSessions, &r.Attendance,
		); err != nil {
			return nil, err
		}
		if r.TotalSessions > 0 {
			r.Completion = int(float64(r.SessionsCompleted)/float64(r.TotalSessions)*100 + 0.5)
		}
		roster = append(roster, r)
	}
	return roster, rows.Err()
}
