// store/postgres_courses.go
package store

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"learning-platform/models"

	"github.com/google/uuid"
)

const courseColumns = `
	c.id, c.title, c.slug, c.description, c.teacher_id,
	COALESCE(NULLIF(u.display_name, ''), u.username) AS teacher_name,
	c.max_students, c.price_cents, c.color, c.created_at,
	COUNT(DISTINCT e.id) FILTER (WHERE e.status = 'approved') AS enrolled_count,
	COUNT(DISTINCT cs.id) AS session_count`

const courseJoins = `
	FROM courses c
	JOIN users u ON c.teacher_id = u.id
	LEFT JOIN enrollments e ON e.course_id = c.id
	LEFT JOIN course_sessions cs ON cs.course_id = c.id`

func (p *Postgres) CreateCourse(ctx context.Context, c *models.Course) error {
	if c.Color == "" {
		c.Color = models.PaletteColor(0)
	}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO courses (title, slug, description, teacher_id, max_students, price_cents, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, c.Title, c.Slug, c.Description, c.TeacherID, c.MaxStudents, c.PriceCents, c.Color).
		Scan(&c.ID, &c.CreatedAt)
	return mapErr(err)
}

func (p *Postgres) GetCourseByID(ctx context.Context, id int) (*models.Course, error) {
	return p.getCourse(ctx, `WHERE c.id = $1`, id)
}

func (p *Postgres) GetCourseBySlug(ctx context.Context, slug string) (*models.Course, error) {
	return p.getCourse(ctx, `WHERE c.slug = $1`, slug)
}

func (p *Postgres) getCourse(ctx context.Context, where string, arg any) (*models.Course, error) {
	var c models.Course
	err := p.db.QueryRowContext(ctx,
		`SELECT`+courseColumns+courseJoins+`
		`+where+`
		GROUP BY c.id, u.display_name, u.username`, arg).Scan(
		&c.ID, &c.Title, &c.Slug, &c.Description, &c.TeacherID, &c.TeacherName,
		&c.MaxStudents, &c.PriceCents, &c.Color, &c.CreatedAt,
		&c.EnrolledCount, &c.SessionCount,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (p *Postgres) ListCourses(ctx context.Context, opts ListCoursesOptions) ([]models.Course, error) {
	query := `SELECT` + courseColumns + courseJoins + `
		WHERE 1=1`

	var args []any
	argCount := 1

	if opts.Search != "" {
		query += ` AND (c.title ILIKE $` + strconv.Itoa(argCount) +
			` OR u.username ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+opts.Search+"%")
		argCount++
	}
	if opts.TeacherID != 0 {
		query += ` AND c.teacher_id = $` + strconv.Itoa(argCount)
		args = append(args, opts.TeacherID)
		argCount++
	}

	query += `
		GROUP BY c.id, u.display_name, u.username
		ORDER BY c.created_at DESC`

	if opts.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(argCount) + ` OFFSET $` + strconv.Itoa(argCount+1)
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Slug, &c.Description, &c.TeacherID, &c.TeacherName,
			&c.MaxStudents, &c.PriceCents, &c.Color, &c.CreatedAt,
			&c.EnrolledCount, &c.SessionCount,
		); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (p *Postgres) CountCourses(ctx context.Context, opts ListCoursesOptions) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM courses c
		JOIN users u ON c.teacher_id = u.id
		WHERE 1=1`

	var args []any
	argCount := 1

	if opts.Search != "" {
		query += ` AND (c.title ILIKE $` + strconv.Itoa(argCount) +
			` OR u.username ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+opts.Search+"%")
		argCount++
	}
	if opts.TeacherID != 0 {
		query += ` AND c.teacher_id = $` + strconv.Itoa(argCount)
		args = append(args, opts.TeacherID)
	}

	var count int
	err := p.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (p *Postgres) CreateSession(ctx context.Context, s *models.CourseSession) error {
	if s.PublicID == "" {
		s.PublicID = uuid.NewString()
	}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO course_sessions (public_id, course_id, title, starts_at, ends_at, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, s.PublicID, s.CourseID, s.Title, s.StartsAt, s.EndsAt, s.Location).Scan(&s.ID)
	return mapErr(err)
}

const sessionColumns = `
	s.id, s.public_id, s.course_id, c.title, c.slug, s.title, s.starts_at, s.ends_at, s.location`

func (p *Postgres) GetSession(ctx context.Context, id int) (*models.CourseSession, error) {
	var s models.CourseSession
	err := p.db.QueryRowContext(ctx, `
		SELECT`+sessionColumns+`
		FROM course_sessions s
		JOIN courses c ON s.course_id = c.id
		WHERE s.id = $1
	`, id).Scan(
		&s.ID, &s.PublicID, &s.CourseID, &s.CourseTitle, &s.CourseSlug, &s.Title,
		&s.StartsAt, &s.EndsAt, &s.Location,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (p *Postgres) ListCourseSessions(ctx context.Context, courseID int) ([]models.CourseSession, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT`+sessionColumns+`
		FROM course_sessions s
		JOIN courses c ON s.course_id = c.id
		WHERE s.course_id = $1
		ORDER BY s.starts_at ASC
	`, courseID)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

func (p *Postgres) ListUpcomingSessions(ctx context.Context, userID int, from, until time.Time) ([]models.CourseSession, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT`+sessionColumns+`
		FROM course_sessions s
		JOIN courses c ON s.course_id = c.id
		JOIN enrollments e ON e.course_id = s.course_id
			AND e.user_id = $1 AND e.status = 'approved'
		WHERE s.starts_at >= $2 AND s.starts_at < $3
		ORDER BY s.starts_at ASC
	`, userID, from, until)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

func (p *Postgres) ListSessionsStartingBetween(ctx context.Context, from, until time.Time) ([]models.CourseSession, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT`+sessionColumns+`
		FROM course_sessions s
		JOIN courses c ON s.course_id = c.id
		WHERE s.starts_at >= $1 AND s.starts_at < $2
		ORDER BY s.starts_at ASC
	`, from, until)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]models.CourseSession, error) {
	defer rows.Close()
	var sessions []models.CourseSession
	for rows.Next() {
		var s models.CourseSession
		if err := rows.Scan(
			&s.ID, &s.PublicID, &s.CourseID, &s.CourseTitle, &s.CourseSlug, &s.Title,
			&s.StartsAt, &s.EndsAt, &s.Location,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
