package analytics

import (
	"time"

	"github.com/noah-isme/goalflow-api/internal/models"
)

type counters map[models.RequirementType]int

func (c *Catalog) evaluate(goals []models.Goal, tasks []models.Task, now time.Time) models.GamificationResult {
	ix := indexTasks(tasks)
	loc := now.Location()

	completedGoals := 0
	categories := make(map[string]struct{})
	for _, g := range goals {
		if ix.completed(g) {
			completedGoals++
		}
		categories[FoldCategory(g.Category)] = struct{}{}
	}
	completedTasks := 0
	for _, t := range tasks {
		if t.IsCompleted {
			completedTasks++
		}
	}

	streaks := streaksFromDays(completionDays(goals, ix, loc), civilDay(now, loc))
	values := counters{
		models.RequirementGoalsCompleted: completedGoals,
		models.RequirementGoalsCreated:   len(goals),
		models.RequirementTasksCompleted: completedTasks,
		models.RequirementStreakDays:     streaks.Current,
		models.RequirementCategoriesUsed: len(categories),
	}

	result := models.GamificationResult{
		Streaks:      streaks,
		Achievements: make([]models.AchievementStatus, 0, len(c.Achievements)),
	}
	for _, a := range c.Achievements {
		status := models.AchievementStatus{Achievement: a}
		if a.Requirement.Type == models.RequirementSpecial {
			rule, ok := c.specials[a.ID]
			if ok && rule(goals, tasks, now) {
				status.Current = a.Requirement.Count
			}
		} else {
			status.Current = values[a.Requirement.Type]
		}
		status.Unlocked = status.Current >= a.Requirement.Count
		status.Progress = progress(status.Current, a.Requirement.Count)
		if status.Unlocked {
			result.UnlockedCount++
			result.TotalPoints += a.Points
		}
		result.Achievements = append(result.Achievements, status)
	}
	result.Level = c.LevelFor(result.TotalPoints)
	return result
}

func (c *Catalog) emptyResult() models.GamificationResult {
	result := models.GamificationResult{
		Achievements: make([]models.AchievementStatus, 0, len(c.Achievements)),
		Level:        c.LevelFor(0),
	}
	for _, a := range c.Achievements {
		result.Achievements = append(result.Achievements, models.AchievementStatus{Achievement: a})
	}
	return result
}

func progress(current, target int) float64 {
	if target <= 0 || current >= target {
		return 100
	}
	if current <= 0 {
		return 0
	}
	return rate(current, target)
}

// completedBeforeTarget: a goal completed strictly before its target date.
func completedBeforeTarget(goals []models.Goal, tasks []models.Task, _ time.Time) bool {
	ix := indexTasks(tasks)
	for _, g := range goals {
		if g.TargetDate == nil || g.TargetDate.IsZero() || g.UpdatedAt.IsZero() {
			continue
		}
		if ix.completed(g) && g.UpdatedAt.Before(*g.TargetDate) {
			return true
		}
	}
	return false
}

// threeCompletionsInOneDay: at least three goals completed on the same calendar day.
func threeCompletionsInOneDay(goals []models.Goal, tasks []models.Task, now time.Time) bool {
	ix := indexTasks(tasks)
	perDay := make(map[int64]int)
	for _, g := range goals {
		if g.UpdatedAt.IsZero() || !ix.completed(g) {
			continue
		}
		day := civilDay(g.UpdatedAt, now.Location())
		perDay[day]++
		if perDay[day] >= 3 {
			return true
		}
	}
	return false
}

// completedWithAllTasks: a goal with at least one task, all of them finished.
func completedWithAllTasks(goals []models.Goal, tasks []models.Task, _ time.Time) bool {
	ix := indexTasks(tasks)
	for _, g := range goals {
		if ix.allTasksDone(g.ID) {
			return true
		}
	}
	return false
}
