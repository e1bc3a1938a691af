// handlers/handlers_test.go
package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"learning-platform/config"
	"learning-platform/middleware"
	"learning-platform/models"
	"learning-platform/notify"
	"learning-platform/statscache"
	"learning-platform/store"
	"learning-platform/web"
)

type stubMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *stubMailer) Send(_ context.Context, to, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to+": "+subject)
	return nil
}

func (m *stubMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// newTestApp wires an App over the in-memory store. The mailer is
// returned so tests can assert on outbound mail.
func newTestApp(t *testing.T) (*App, *store.Memory, *stubMailer) {
	t.Helper()

	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	st := store.NewMemory()
	mailer := &stubMailer{}
	hub := notify.NewHub()
	app := &App{
		Store:    st,
		Sessions: sessions.NewCookieStore([]byte("test-session-key")),
		Renderer: renderer,
		Cache:    statscache.NewMemory(time.Minute),
		Notify:   notify.NewService(st, mailer, hub),
		Hub:      hub,
		Config:   &config.Config{JWTSecret: "test-jwt-secret"},
	}
	return app, st, mailer
}

// asUser runs the handler with the id the auth middleware would have
// put on the context.
func asUser(id int, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(w, middleware.WithUserID(r, id))
	}
}

func postForm(path string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

// carryCookies copies the session cookies a response set onto the next
// request, standing in for the browser.
func carryCookies(from *httptest.ResponseRecorder, to *http.Request) {
	for _, c := range from.Result().Cookies() {
		to.AddCookie(c)
	}
}

func seedUser(t *testing.T, st store.Store, username, password string, teacher bool) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsTeacher:    teacher,
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func seedCourse(t *testing.T, st store.Store, teacherID, priceCents, maxStudents int) *models.Course {
	t.Helper()

	c := &models.Course{
		Title:       "Go Basics",
		Slug:        "go-basics",
		TeacherID:   teacherID,
		MaxStudents: maxStudents,
		PriceCents:  priceCents,
		Color:       models.PaletteColor(0),
	}
	require.NoError(t, st.CreateCourse(context.Background(), c))
	return c
}
