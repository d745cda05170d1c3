package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/goalflow-api/internal/models"
)

const (
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"
)

type rangeShape struct {
	monthly bool
	count   int
	label   func(time.Time) string
}

var rangeShapes = map[models.TimeRange]rangeShape{
	models.Range7Days:  {count: 7, label: func(t time.Time) string { return t.Format("Mon") }},
	models.Range30Days: {count: 30, label: func(t time.Time) string { return fmt.Sprintf("%d/%d", int(t.Month()), t.Day()) }},
	models.Range90Days: {monthly: true, count: 3, label: func(t time.Time) string { return t.Format("Jan") }},
	models.Range1Year:  {monthly: true, count: 12, label: func(t time.Time) string { return t.Format("Jan") }},
}

var rangeAliases = map[string]models.TimeRange{
	"7d":             models.Range7Days,
	"last-7-days":    models.Range7Days,
	"30d":            models.Range30Days,
	"last-30-days":   models.Range30Days,
	"90d":            models.Range90Days,
	"last-90-days":   models.Range90Days,
	"1y":             models.Range1Year,
	"12m":            models.Range1Year,
	"last-12-months": models.Range1Year,
}

// ParseTimeRange accepts the short (7d, 30d, 90d, 1y) and long (last-7-days, ...) range names.
func ParseTimeRange(raw string) (models.TimeRange, error) {
	if rng, ok := rangeAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return rng, nil
	}
	return "", fmt.Errorf("unsupported time range %q", raw)
}

// BucketCount is the number of buckets produced for rng, 0 when unknown.
func BucketCount(rng models.TimeRange) int {
	return rangeShapes[rng].count
}

// newBuckets lays out the empty buckets for rng ending with the period containing now.
func newBuckets(rng models.TimeRange, now time.Time) ([]models.PeriodBucket, string) {
	shape, ok := rangeShapes[rng]
	if !ok {
		return []models.PeriodBucket{}, ""
	}
	y, m, d := now.Date()
	loc := now.Location()

	layout := dayKeyLayout
	if shape.monthly {
		layout = monthKeyLayout
	}

	buckets := make([]models.PeriodBucket, 0, shape.count)
	for i := shape.count - 1; i >= 0; i-- {
		var start time.Time
		if shape.monthly {
			start = time.Date(y, m-time.Month(i), 1, 0, 0, 0, 0, loc)
		} else {
			start = time.Date(y, m, d-i, 0, 0, 0, 0, loc)
		}
		buckets = append(buckets, models.PeriodBucket{
			Key:   start.Format(layout),
			Label: shape.label(start),
		})
	}
	return buckets, layout
}

func computeTimeSeries(goals []models.Goal, tasks []models.Task, rng models.TimeRange, now time.Time) []models.PeriodBucket {
	buckets, layout := newBuckets(rng, now)
	if len(buckets) == 0 {
		return buckets
	}

	positions := make(map[string]int, len(buckets))
	for i, b := range buckets {
		positions[b.Key] = i
	}
	loc := now.Location()
	find := func(ts time.Time) (int, bool) {
		if ts.IsZero() {
			return 0, false
		}
		i, ok := positions[ts.In(loc).Format(layout)]
		return i, ok
	}

	ix := indexTasks(tasks)
	for _, g := range goals {
		if i, ok := find(g.CreatedAt); ok {
			buckets[i].GoalsCreated++
		}
		if !ix.completed(g) {
			continue
		}
		if i, ok := find(g.UpdatedAt); ok {
			buckets[i].GoalsCompleted++
		}
	}
	for _, t := range tasks {
		if i, ok := find(t.CreatedAt); ok {
			buckets[i].TasksCreated++
		}
		if !t.IsCompleted {
			continue
		}
		if i, ok := find(t.UpdatedAt); ok {
			buckets[i].TasksCompleted++
		}
	}
	return buckets
}
