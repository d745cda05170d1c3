package analytics

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/noah-isme/goalflow-api/internal/models"
)

// FoldCategory normalises a goal category: missing or blank labels become "general".
func FoldCategory(category *string) string {
	if category == nil {
		return models.DefaultCategory
	}
	trimmed := strings.TrimSpace(*category)
	if trimmed == "" {
		return models.DefaultCategory
	}
	return trimmed
}

// DisplayName upper-cases the first letter of a category label and keeps the rest as is.
func DisplayName(category string) string {
	if category == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(category)
	return cases.Upper(language.Und).String(category[:size]) + category[size:]
}

// categoryGroups accumulates per category counts in first seen order.
type categoryGroups struct {
	index   map[string]int
	metrics []models.CategoryMetric
}

func newCategoryGroups() *categoryGroups {
	return &categoryGroups{index: make(map[string]int), metrics: []models.CategoryMetric{}}
}

func (g *categoryGroups) add(category string, completed bool) {
	i, ok := g.index[category]
	if !ok {
		i = len(g.metrics)
		g.index[category] = i
		g.metrics = append(g.metrics, models.CategoryMetric{
			Category:    category,
			DisplayName: DisplayName(category),
		})
	}
	g.metrics[i].Total++
	if completed {
		g.metrics[i].Completed++
	}
}

func (g *categoryGroups) result() []models.CategoryMetric {
	for i := range g.metrics {
		g.metrics[i].CompletionRate = rate(g.metrics[i].Completed, g.metrics[i].Total)
	}
	return g.metrics
}
