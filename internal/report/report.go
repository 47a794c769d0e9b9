// Package report derives streaks, completion counts, and progress from diary
// snapshots. All functions are pure and safe to call from any goroutine.
package report

import (
	"math"
	"time"

	"ramadan_diary_bot/internal/domain"
)

// dateLayout parses the ISO dates stored in the ramadan settings document.
const dateLayout = "2006-01-02"

// CurrentDay returns the 1-based Ramadan day number for the given moment,
// clamped to [1, 30]. An unparseable start date falls back to the default
// window.
func CurrentDay(window domain.RamadanWindow, now time.Time) int {
	start, err := time.ParseInLocation(dateLayout, window.StartDate, time.UTC)
	if err != nil {
		start, _ = time.ParseInLocation(dateLayout, domain.DefaultRamadanWindow().StartDate, time.UTC)
	}

	day := int(now.UTC().Sub(start).Hours()/24) + 1
	if day < 1 {
		return 1
	}
	if day > domain.DaysInRamadan {
		return domain.DaysInRamadan
	}
	return day
}

// DayQualifies reports whether a day counts toward the streak: at least one
// checked "good" entry. Checked "bad" entries alone do not qualify.
func DayQualifies(day domain.DiaryDay) bool {
	return domain.CountTrue(day.Good) > 0
}

// DayFilled reports whether a day counts as filled for aggregate totals: any
// checked entry on either side.
func DayFilled(day domain.DiaryDay) bool {
	return domain.CountTrue(day.Good) > 0 || domain.CountTrue(day.Bad) > 0
}

// Streak walks from currentDay down to day 1 and counts consecutive
// qualifying days. A non-qualifying current day yields 0 regardless of
// earlier days.
func Streak(record domain.DiaryRecord, currentDay int) int {
	streak := 0
	for day := currentDay; day >= 1; day-- {
		entry, ok := record.Day(day)
		if !ok || !DayQualifies(entry) {
			break
		}
		streak++
	}
	return streak
}

// Totals aggregates a diary record across all day slots.
type Totals struct {
	TotalDays int
	TotalGood int
	TotalBad  int
}

// Aggregate counts filled days and sums checked entries across the whole
// record.
func Aggregate(record domain.DiaryRecord) Totals {
	var totals Totals
	for day := 1; day <= domain.DaysInRamadan; day++ {
		entry, ok := record.Day(day)
		if !ok || !DayFilled(entry) {
			continue
		}
		totals.TotalDays++
		totals.TotalGood += domain.CountTrue(entry.Good)
		totals.TotalBad += domain.CountTrue(entry.Bad)
	}
	return totals
}

// ProgressPercent returns the rounded share of checked good entries out of
// the maximum possible for the filled days. Zero filled days yields 0.
func ProgressPercent(totalGood, totalDays int) int {
	if totalDays <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(totalGood) / float64(totalDays*domain.ChecklistLength)))
}
