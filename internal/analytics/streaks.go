package analytics

import (
	"sort"
	"time"

	"github.com/noah-isme/goalflow-api/internal/models"
)

// civilDay numbers calendar days in loc so that consecutive dates differ by one
// regardless of daylight saving transitions.
func civilDay(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// completionDays lists the distinct days, ascending, on which a goal was effectively
// completed, dated by its last update.
func completionDays(goals []models.Goal, ix completionIndex, loc *time.Location) []int64 {
	seen := make(map[int64]struct{})
	days := make([]int64, 0)
	for _, g := range goals {
		if g.UpdatedAt.IsZero() || !ix.completed(g) {
			continue
		}
		day := civilDay(g.UpdatedAt, loc)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

func streaksFromDays(days []int64, today int64) models.StreakState {
	var state models.StreakState
	if len(days) == 0 {
		return state
	}

	run := 1
	state.Longest = 1
	for i := 1; i < len(days); i++ {
		if days[i]-days[i-1] <= 1 {
			run++
		} else {
			run = 1
		}
		if run > state.Longest {
			state.Longest = run
		}
	}

	prev := today
	for i := len(days) - 1; i >= 0; i-- {
		if days[i] > today {
			continue
		}
		if prev-days[i] > 1 {
			break
		}
		state.Current++
		prev = days[i]
	}
	return state
}

// Streaks computes the current and longest run of consecutive days among dates,
// using now's location for calendar days. Zero times are ignored.
func Streaks(dates []time.Time, now time.Time) models.StreakState {
	loc := now.Location()
	seen := make(map[int64]struct{}, len(dates))
	days := make([]int64, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		day := civilDay(d, loc)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return streaksFromDays(days, civilDay(now, loc))
}

// CompletionStreaks computes streaks over the days on which goals were effectively
// completed, without evaluating achievements.
func CompletionStreaks(goals []models.Goal, tasks []models.Task, now time.Time) models.StreakState {
	loc := now.Location()
	return streaksFromDays(completionDays(goals, indexTasks(tasks), loc), civilDay(now, loc))
}
