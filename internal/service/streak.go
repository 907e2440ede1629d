package service

import (
	"time"

	"pagetrail/internal/models"
)

// UpdateStreak advances the streak fields of stats for an activity on today's
// calendar day, taken in today's location.
func UpdateStreak(stats *models.EngagementStats, today time.Time) {
	todayDate := models.CalendarDate(today)
	y, m, d := today.Date()
	yesterday := models.CalendarDate(time.Date(y, m, d-1, 12, 0, 0, 0, today.Location()))

	switch stats.LastActiveDate {
	case "":
		stats.CurrentStreak = 1
	case yesterday:
		stats.CurrentStreak++
	case todayDate:
		// already counted today
		if stats.CurrentStreak < 1 {
			stats.CurrentStreak = 1
		}
	default:
		stats.CurrentStreak = 1
	}

	stats.LastActiveDate = todayDate
	if stats.CurrentStreak > stats.MaxStreak {
		stats.MaxStreak = stats.CurrentStreak
	}
}
