package analytics

import (
	"fmt"
	"time"

	"github.com/noah-isme/goalflow-api/internal/models"
)

var testNow = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

type goalOpt func(*models.Goal)

func completed(at time.Time) goalOpt {
	return func(g *models.Goal) {
		g.IsCompleted = true
		g.UpdatedAt = at
	}
}

func category(c string) goalOpt {
	return func(g *models.Goal) { g.Category = strPtr(c) }
}

func target(t time.Time) goalOpt {
	return func(g *models.Goal) { g.TargetDate = timePtr(t) }
}

func favorite() goalOpt {
	return func(g *models.Goal) { g.IsFavorite = true }
}

func createdAt(t time.Time) goalOpt {
	return func(g *models.Goal) { g.CreatedAt = t }
}

func updatedAt(t time.Time) goalOpt {
	return func(g *models.Goal) { g.UpdatedAt = t }
}

func newGoal(id string, opts ...goalOpt) models.Goal {
	g := models.Goal{
		ID:        id,
		UserID:    "user-1",
		Title:     "Goal " + id,
		CreatedAt: daysAgo(20),
		UpdatedAt: daysAgo(20),
	}
	for _, opt := range opts {
		opt(&g)
	}
	return g
}

func newTask(id, goalID string, done bool, created, updated time.Time) models.Task {
	return models.Task{
		ID:          id,
		GoalID:      goalID,
		Title:       fmt.Sprintf("Task %s", id),
		IsCompleted: done,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}
}
