// handlers/calendar.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"learning-platform/middleware"
	"learning-platform/models"
)

const icsTimeLayout = "20060102T150405Z"

// CalendarFeed serves the user's upcoming sessions as an iCalendar
// file calendar apps can subscribe to. Event UIDs reuse each session's
// public id so re-downloads update instead of duplicating.
func CalendarFeed(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		now := time.Now()
		sessions, err := app.Store.ListUpcomingSessions(r.Context(), userID, now, now.Add(90*24*time.Hour))
		if err != nil {
			slog.Error("calendar feed failed", "user_id", userID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		var b strings.Builder
		b.WriteString("BEGIN:VCALENDAR\r\n")
		b.WriteString("VERSION:2.0\r\n")
		b.WriteString("PRODID:-//learning-platform//sessions//EN\r\n")
		b.WriteString("CALSCALE:GREGORIAN\r\n")
		for _, s := range sessions {
			b.WriteString("BEGIN:VEVENT\r\n")
			fmt.Fprintf(&b, "UID:%s\r\n", s.PublicID)
			fmt.Fprintf(&b, "DTSTAMP:%s\r\n", now.UTC().Format(icsTimeLayout))
			fmt.Fprintf(&b, "DTSTART:%s\r\n", s.StartsAt.UTC().Format(icsTimeLayout))
			fmt.Fprintf(&b, "DTEND:%s\r\n", s.EndsAt.UTC().Format(icsTimeLayout))
			fmt.Fprintf(&b, "SUMMARY:%s\r\n", icsEscape(s.CourseTitle+": "+s.Title))
			if s.Location != "" {
				fmt.Fprintf(&b, "LOCATION:%s\r\n", icsEscape(s.Location))
			}
			b.WriteString("END:VEVENT\r\n")
		}
		b.WriteString("END:VCALENDAR\r\n")

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="sessions.ics"`)
		fmt.Fprint(w, b.String())
	}
}

// icsEscape quotes the characters RFC 5545 reserves in text values.
func icsEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)
	return r.Replace(s)
}

// googleCalendarURL builds the add-to-calendar link for one session.
func googleCalendarURL(s *models.CourseSession) string {
	v := url.Values{}
	v.Set("action", "TEMPLATE")
	v.Set("text", s.CourseTitle+": "+s.Title)
	v.Set("dates", s.StartsAt.UTC().Format(icsTimeLayout)+"/"+s.EndsAt.UTC().Format(icsTimeLayout))
	if s.Location != "" {
		v.Set("location", s.Location)
	}
	return "https://calendar.google.com/calendar/render?" + v.Encode()
}
