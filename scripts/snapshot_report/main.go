package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/goalflow-api/internal/analytics"
	"github.com/noah-isme/goalflow-api/internal/dto"
	"github.com/noah-isme/goalflow-api/internal/models"
)

// report is the JSON shape written with -json.
type report struct {
	GeneratedAt  time.Time                 `json:"generated_at"`
	Metrics      models.MetricsResult      `json:"metrics"`
	TimeSeries   []models.PeriodBucket     `json:"timeseries"`
	Gamification models.GamificationResult `json:"gamification"`
}

func main() {
	var (
		path     string
		rangeArg string
		nowArg   string
		tz       string
		asJSON   bool
	)

	flag.StringVar(&path, "file", "", "Path to a GoalFlow JSON backup")
	flag.StringVar(&rangeArg, "range", "30d", "Time series range: 7d, 30d, 90d or 1y")
	flag.StringVar(&nowArg, "now", "", "Evaluate as of this RFC3339 instant (default: current time)")
	flag.StringVar(&tz, "tz", "UTC", "Timezone used for calendar days")
	flag.BoolVar(&asJSON, "json", false, "Print the report as JSON")
	flag.Parse()

	if path == "" {
		log.Fatal("-file is required")
	}
	rng, err := analytics.ParseTimeRange(rangeArg)
	if err != nil {
		log.Fatalf("invalid range: %v", err)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatalf("invalid timezone: %v", err)
	}
	now := time.Now().In(loc)
	if nowArg != "" {
		parsed, err := time.Parse(time.RFC3339, nowArg)
		if err != nil {
			log.Fatalf("invalid -now: %v", err)
		}
		now = parsed.In(loc)
	}

	goals, tasks, err := loadBackup(path)
	if err != nil {
		log.Fatalf("failed to load backup: %v", err)
	}

	logr, _ := zap.NewDevelopment()
	engine := analytics.NewEngine(analytics.WithLogger(logr))
	out := report{
		GeneratedAt:  now,
		Metrics:      engine.Metrics(goals, tasks, nil, now),
		TimeSeries:   engine.TimeSeries(goals, tasks, rng, now),
		Gamification: engine.Gamification(goals, tasks, now),
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatalf("encode report: %v", err)
		}
		return
	}
	printReport(out)
}

func loadBackup(path string) ([]models.Goal, []models.Task, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var doc dto.BackupDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode backup: %w", err)
	}

	goals := make([]models.Goal, 0, len(doc.Goals))
	for _, g := range doc.Goals {
		goal := models.Goal{
			ID:          g.ID,
			Title:       g.Title,
			Description: g.Description,
			Category:    g.Category,
			IsCompleted: g.IsCompleted,
			IsFavorite:  g.IsFavorite,
			CreatedAt:   parseTime(g.CreatedAt),
			UpdatedAt:   parseTime(g.UpdatedAt),
		}
		if g.TargetDate != nil {
			if target := parseTime(*g.TargetDate); !target.IsZero() {
				goal.TargetDate = &target
			}
		}
		goals = append(goals, goal)
	}

	tasks := make([]models.Task, 0, len(doc.Tasks))
	for _, t := range doc.Tasks {
		tasks = append(tasks, models.Task{
			ID:          t.ID,
			GoalID:      t.GoalID,
			Title:       t.Title,
			Description: t.Description,
			IsCompleted: t.IsCompleted,
			Position:    t.Position,
			CreatedAt:   parseTime(t.CreatedAt),
			UpdatedAt:   parseTime(t.UpdatedAt),
		})
	}
	return goals, tasks, nil
}

func parseTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func printReport(r report) {
	m := r.Metrics
	fmt.Printf("Report as of %s\n\n", r.GeneratedAt.Format(time.RFC1123))
	fmt.Printf("Goals:  %d total, %d completed, %d in progress, %d overdue (%.1f%%)\n",
		m.TotalGoals, m.CompletedGoals, m.InProgressGoals, m.OverdueGoals, m.CompletionRate)
	fmt.Printf("Tasks:  %d total, %d completed (%.1f%%)\n\n", m.TotalTasks, m.CompletedTasks, m.TaskCompletionRate)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tTOTAL\tDONE\tRATE")
	for _, c := range m.Categories {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f%%\n", c.DisplayName, c.Total, c.Completed, c.CompletionRate)
	}
	_ = w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PERIOD\tNEW GOALS\tGOALS DONE\tNEW TASKS\tTASKS DONE")
	for _, b := range r.TimeSeries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", b.Label, b.GoalsCreated, b.GoalsCompleted, b.TasksCreated, b.TasksCompleted)
	}
	_ = w.Flush()

	g := r.Gamification
	fmt.Printf("\nStreak: %d current, %d longest\n", g.Streaks.Current, g.Streaks.Longest)
	fmt.Printf("Level %d %s, %d points, %d/%d achievements\n", g.Level.Level, g.Level.Title, g.TotalPoints, g.UnlockedCount, len(g.Achievements))
}
