// web/functions.go
package web

import (
	"fmt"
	"html/template"
	"time"

	"learning-platform/stats"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatDate":     formatDate,
		"formatTime":     formatTime,
		"formatDateTime": formatDateTime,
		"clamp":          stats.Clamp,
		"money":          money,
		"add":            add,
		"sub":            sub,
	}
}

func formatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

func formatTime(t time.Time) string {
	return t.Format("15:04")
}

func formatDateTime(t time.Time) string {
	return t.Format("Jan 2, 2006 15:04")
}

// money renders a cent amount as dollars, "Free" when zero.
func money(cents int) string {
	if cents == 0 {
		return "Free"
	}
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

func add(a, b int) int { return a + b }
func sub(a, b int) int { return a - b }
