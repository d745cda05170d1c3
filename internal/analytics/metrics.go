package analytics

import (
	"math"
	"time"

	"github.com/noah-isme/goalflow-api/internal/models"
)

func computeMetrics(goals []models.Goal, tasks []models.Task, cutoff *time.Time, now time.Time) models.MetricsResult {
	// Completion is judged on every task of a goal, including tasks older than the cutoff.
	ix := indexTasks(tasks)
	groups := newCategoryGroups()
	res := models.MetricsResult{}

	for _, g := range goals {
		if !withinCutoff(g.CreatedAt, cutoff) {
			continue
		}
		done := ix.completed(g)
		res.TotalGoals++
		if done {
			res.CompletedGoals++
		}
		if g.IsFavorite {
			res.FavoriteGoals++
		}
		if isOverdue(g, done, now) {
			res.OverdueGoals++
		}
		groups.add(FoldCategory(g.Category), done)
	}

	for _, t := range tasks {
		if !withinCutoff(t.CreatedAt, cutoff) {
			continue
		}
		res.TotalTasks++
		if t.IsCompleted {
			res.CompletedTasks++
		}
	}

	res.InProgressGoals = res.TotalGoals - res.CompletedGoals
	res.CompletionRate = rate(res.CompletedGoals, res.TotalGoals)
	res.TaskCompletionRate = rate(res.CompletedTasks, res.TotalTasks)
	res.Categories = groups.result()
	return res
}

func withinCutoff(created time.Time, cutoff *time.Time) bool {
	if cutoff == nil || cutoff.IsZero() {
		return true
	}
	if created.IsZero() {
		return false
	}
	return !created.Before(*cutoff)
}

// IsOverdue reports an incomplete goal whose target date has passed.
func IsOverdue(goal models.Goal, effectiveCompleted bool, now time.Time) bool {
	return isOverdue(goal, effectiveCompleted, now)
}

func isOverdue(g models.Goal, done bool, now time.Time) bool {
	if done || g.TargetDate == nil || g.TargetDate.IsZero() {
		return false
	}
	return g.TargetDate.Before(now)
}

// rate is part/total as a percentage rounded to two decimals, 0 when total is 0.
func rate(part, total int) float64 {
	if total <= 0 || part <= 0 {
		return 0
	}
	r := float64(part) / float64(total) * 100
	if r > 100 {
		r = 100
	}
	return math.Round(r*100) / 100
}
