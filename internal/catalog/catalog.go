// Package catalog serves the static goal templates and motivational quotes.
package catalog

import (
	"embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/goalflow-api/internal/models"
)

//go:embed templates.yaml quotes.yaml
var files embed.FS

// Templates holds the goal templates and the suggested categories.
type Templates struct {
	Templates  []models.GoalTemplate `yaml:"templates"`
	Categories []models.CategoryInfo `yaml:"categories"`
}

// Quotes holds the motivational quote list in its published order.
type Quotes struct {
	Quotes []models.Quote `yaml:"quotes"`
}

// LoadTemplates decodes the embedded template catalog.
func LoadTemplates() (*Templates, error) {
	var t Templates
	if err := decode("templates.yaml", &t); err != nil {
		return nil, err
	}
	for _, tpl := range t.Templates {
		if tpl.ID == "" || tpl.Title == "" {
			return nil, fmt.Errorf("template without id or title")
		}
	}
	return &t, nil
}

// LoadQuotes decodes the embedded quote list.
func LoadQuotes() (*Quotes, error) {
	var q Quotes
	if err := decode("quotes.yaml", &q); err != nil {
		return nil, err
	}
	if len(q.Quotes) == 0 {
		return nil, fmt.Errorf("quote catalog is empty")
	}
	return &q, nil
}

func decode(name string, dest interface{}) error {
	raw, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Find looks a template up by id.
func (t *Templates) Find(id string) (models.GoalTemplate, bool) {
	for _, tpl := range t.Templates {
		if tpl.ID == id {
			return tpl, true
		}
	}
	return models.GoalTemplate{}, false
}

// ByCategory returns the templates in category, or all of them when category is empty.
func (t *Templates) ByCategory(category string) []models.GoalTemplate {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" || category == "all" {
		return append([]models.GoalTemplate(nil), t.Templates...)
	}
	out := make([]models.GoalTemplate, 0)
	for _, tpl := range t.Templates {
		if tpl.Category == category {
			out = append(out, tpl)
		}
	}
	return out
}

// Daily picks the quote for the calendar day of day, in day's location. The same
// day always maps to the same quote.
func (q *Quotes) Daily(day time.Time) models.Quote {
	seed := int64(dateSeed(day.Format("Mon Jan 02 2006")))
	if seed < 0 {
		seed = -seed
	}
	return q.Quotes[seed%int64(len(q.Quotes))]
}

// ByCategory returns the quotes tagged with category.
func (q *Quotes) ByCategory(category string) []models.Quote {
	out := make([]models.Quote, 0)
	for _, quote := range q.Quotes {
		if quote.Category == category {
			out = append(out, quote)
		}
	}
	return out
}

// dateSeed is the 31 multiplier string hash over UTF-16 code units with int32 wraparound.
func dateSeed(s string) int32 {
	var h int32
	for _, r := range s {
		h = (h << 5) - h + int32(r)
	}
	return h
}
