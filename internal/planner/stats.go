package planner

import (
	"sort"
	"time"
)

// DayCount is the task tally for a single day.
type DayCount struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// WeekReport summarizes one calendar week of planner data.
type WeekReport struct {
	TotalTasks        int                 `json:"totalTasks"`
	CompletedTasks    int                 `json:"completedTasks"`
	CompletionRate    int                 `json:"completionRate"` // percent, rounded
	AveragePerDay     int                 `json:"averagePerDay"`
	Daily             map[string]DayCount `json:"daily"` // keyed by date
	MostProductiveDay string              `json:"mostProductiveDay"`
	BestStreak        int                 `json:"bestStreak"`
}

// DayStats tallies a single day record.
func DayStats(rec DayRecord) DayCount {
	var count DayCount
	for _, slot := range rec.Tasks {
		count.Total += len(slot.Subtasks)
		for _, sub := range slot.Subtasks {
			if sub.Done {
				count.Completed++
			}
		}
	}
	return count
}

// WeekStats reports on the document's dates falling inside the week
// starting at weekStart (inclusive, seven days). Days are walked in
// date order so the streak count is deterministic.
func WeekStats(doc Document, weekStart time.Time) WeekReport {
	start := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	dates := make([]string, 0, len(doc))
	for date := range doc {
		at, err := time.Parse(DateKey, date)
		if err != nil {
			continue
		}
		if !at.Before(start) && at.Before(end) {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	report := WeekReport{
		Daily:             make(map[string]DayCount, len(dates)),
		MostProductiveDay: "None",
	}

	bestCompleted := 0
	streak := 0
	for _, date := range dates {
		count := DayStats(doc[date])
		report.Daily[date] = count
		report.TotalTasks += count.Total
		report.CompletedTasks += count.Completed

		if count.Completed > bestCompleted {
			bestCompleted = count.Completed
			report.MostProductiveDay = date
		}

		if count.Completed > 0 {
			streak++
			if streak > report.BestStreak {
				report.BestStreak = streak
			}
		} else {
			streak = 0
		}
	}

	if report.TotalTasks > 0 {
		report.CompletionRate = (report.CompletedTasks*100 + report.TotalTasks/2) / report.TotalTasks
	}
	if len(dates) > 0 {
		report.AveragePerDay = (report.TotalTasks + len(dates)/2) / len(dates)
	}

	return report
}
