// stats/stats.go
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"learning-platform/models"
	"learning-platform/store"
)

// chartDays is the window of the dashboard activity chart.
const chartDays = 30

const dateLayout = "Jan 2, 2006"

// Build assembles the dashboard context for one user. Missing data
// yields zeros and placeholder strings, never an error.
func Build(ctx context.Context, st store.Store, userID int, now time.Time) (*models.DashboardContext, error) {
	rows, err := st.CourseProgressRows(ctx, userID)
	if err != nil {
		return nil, err
	}
	log, err := st.CompletionLog(ctx, userID)
	if err != nil {
		return nil, err
	}
	attended, marked, err := st.AttendanceSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	dc := &models.DashboardContext{
		MostActiveDay:   "-",
		LastSessionDate: "-",
	}

	var firstEnrolled time.Time
	remaining := 0
	for i, row := range rows {
		dc.TotalCourses++
		dc.TopicsMastered += row.CompletedSessions
		if row.TotalSessions > 0 && row.CompletedSessions >= row.TotalSessions {
			dc.CoursesCompleted++
		}
		remaining += row.TotalSessions - row.CompletedSessions

		progress := 0
		if row.TotalSessions > 0 {
			progress = int(math.Round(float64(row.CompletedSessions) / float64(row.TotalSessions) * 100))
		}
		color := row.Color
		if color == "" {
			color = models.PaletteColor(i)
		}
		lastActive := "-"
		if row.LastCompleted != nil {
			lastActive = row.LastCompleted.Format(dateLayout)
		}
		dc.Courses = append(dc.Courses, models.CourseProgress{
			Title:             row.Title,
			Progress:          progress,
			Color:             color,
			SessionsCompleted: row.CompletedSessions,
			TotalSessions:     row.TotalSessions,
			LastActive:        lastActive,
		})

		if firstEnrolled.IsZero() || row.EnrolledAt.Before(firstEnrolled) {
			firstEnrolled = row.EnrolledAt
		}
	}

	if marked > 0 {
		dc.AverageAttendance = int(math.Round(float64(attended) / float64(marked) * 100))
	}

	var minutes float64
	dayCounts := make(map[string]int)
	weekdayCounts := make(map[time.Weekday]int)
	for _, e := range log {
		minutes += e.EndsAt.Sub(e.StartsAt).Minutes()
		dayCounts[dateKey(e.CompletedAt)]++
		weekdayCounts[e.CompletedAt.Weekday()]++
	}
	if len(log) > 0 {
		dc.LastSessionDate = log[len(log)-1].CompletedAt.Format(dateLayout)
	}
	dc.TotalLearningHours = math.Round(minutes/60*10) / 10
	dc.CurrentStreak = streakFrom(dayCounts, now)
	dc.MostActiveDay = topWeekday(weekdayCounts)

	if !firstEnrolled.IsZero() {
		weeks := now.Sub(firstEnrolled).Hours() / (24 * 7)
		if weeks < 1 {
			weeks = 1
		}
		dc.AvgSessionsPerWeek = math.Round(float64(len(log))/weeks*10) / 10
	}
	dc.CompletionPace = pace(remaining, dc.AvgSessionsPerWeek)

	dc.ChartDates, dc.ChartCounts = buildSeries(dayCounts, now)
	return dc, nil
}

// streakFrom counts consecutive days with at least one completion,
// ending today or yesterday. A streak is not broken until a full day
// passes with nothing completed.
func streakFrom(dayCounts map[string]int, now time.Time) int {
	day := now
	if dayCounts[dateKey(day)] == 0 {
		day = now.AddDate(0, 0, -1)
		if dayCounts[dateKey(day)] == 0 {
			return 0
		}
	}
	streak := 0
	for dayCounts[dateKey(day)] > 0 {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// topWeekday picks the weekday with most completions. Sunday-first
// iteration keeps ties deterministic.
func topWeekday(counts map[time.Weekday]int) string {
	best := ""
	bestCount := 0
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if c := counts[wd]; c > bestCount {
			best = wd.String()
			bestCount = c
		}
	}
	if best == "" {
		return "-"
	}
	return best
}

func pace(remaining int, rate float64) string {
	switch {
	case remaining <= 0:
		return "All caught up"
	case rate <= 0:
		return "No recent activity"
	default:
		weeks := int(math.Ceil(float64(remaining) / rate))
		if weeks == 1 {
			return "~1 week left"
		}
		return fmt.Sprintf("~%d weeks left", weeks)
	}
}

// buildSeries zero-fills the last chartDays days, oldest first.
func buildSeries(dayCounts map[string]int, now time.Time) ([]string, []int) {
	dates := make([]string, 0, chartDays)
	counts := make([]int, 0, chartDays)
	for i := chartDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		dates = append(dates, day.Format("Jan 2"))
		counts = append(counts, dayCounts[dateKey(day)])
	}
	return dates, counts
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Clamp bounds a progress percentage to [0, 100] for display.
func Clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Serialized carries the six dashboard values handed to the chart
// script, each JSON-encoded and ready to embed as a string literal.
type Serialized struct {
	Dates            string
	Counts           string
	Courses          string
	TotalCourses     string
	CoursesCompleted string
	TopicsMastered   string
}

// Serialize encodes the six chart fields of a dashboard context.
// Empty slices encode as [] so the client never parses null.
func Serialize(dc *models.DashboardContext) (Serialized, error) {
	courses := dc.Courses
	if courses == nil {
		courses = []models.CourseProgress{}
	}
	dates := dc.ChartDates
	if dates == nil {
		dates = []string{}
	}
	counts := dc.ChartCounts
	if counts == nil {
		counts = []int{}
	}
	var s Serialized
	for _, field := range []struct {
		dst *string
		src any
	}{
		{&s.Dates, dates},
		{&s.Counts, counts},
		{&s.Courses, courses},
		{&s.TotalCourses, dc.TotalCourses},
		{&s.CoursesCompleted, dc.CoursesCompleted},
		{&s.TopicsMastered, dc.TopicsMastered},
	} {
		b, err := json.Marshal(field.src)
		if err != nil {
			return Serialized{}, err
		}
		*field.dst = string(b)
	}
	return s, nil
}
