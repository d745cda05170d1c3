package analytics

import "github.com/noah-isme/goalflow-api/internal/models"

type taskCounts struct {
	total     int
	completed int
}

// completionIndex holds per goal task counts.
type completionIndex map[string]taskCounts

func indexTasks(tasks []models.Task) completionIndex {
	ix := make(completionIndex)
	for _, t := range tasks {
		c := ix[t.GoalID]
		c.total++
		if t.IsCompleted {
			c.completed++
		}
		ix[t.GoalID] = c
	}
	return ix
}

// allTasksDone reports a goal with at least one task where every task is completed.
func (ix completionIndex) allTasksDone(goalID string) bool {
	c := ix[goalID]
	return c.total > 0 && c.completed == c.total
}

func (ix completionIndex) completed(g models.Goal) bool {
	return g.IsCompleted || ix.allTasksDone(g.ID)
}

func (ix completionIndex) stats(goalID string) models.TaskStats {
	c := ix[goalID]
	return models.TaskStats{Completed: c.completed, Total: c.total}
}

// EffectiveCompletion reports whether goal counts as completed: its own flag is set,
// or it has at least one task and all of them are completed. Tasks of other goals are ignored.
func EffectiveCompletion(goal models.Goal, tasks []models.Task) bool {
	return indexTasks(tasks).completed(goal)
}

// TaskStats counts the tasks belonging to goalID.
func TaskStats(goalID string, tasks []models.Task) models.TaskStats {
	return indexTasks(tasks).stats(goalID)
}

// CompletionSet returns the ids of effectively completed goals.
func CompletionSet(goals []models.Goal, tasks []models.Task) map[string]bool {
	ix := indexTasks(tasks)
	set := make(map[string]bool, len(goals))
	for _, g := range goals {
		if ix.completed(g) {
			set[g.ID] = true
		}
	}
	return set
}

// Details pairs each goal with its task stats and effective completion.
func Details(goals []models.Goal, tasks []models.Task) []models.GoalDetail {
	ix := indexTasks(tasks)
	out := make([]models.GoalDetail, 0, len(goals))
	for _, g := range goals {
		out = append(out, models.GoalDetail{
			Goal:               g,
			TaskStats:          ix.stats(g.ID),
			EffectiveCompleted: ix.completed(g),
		})
	}
	return out
}
