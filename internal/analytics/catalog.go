package analytics

import (
	_ "embed"
	"fmt"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/goalflow-api/internal/models"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// LevelTier is one step of the points to level table.
type LevelTier struct {
	Level     int    `yaml:"level"`
	Title     string `yaml:"title"`
	MinPoints int    `yaml:"min_points"`
}

// SpecialRule decides a "special" achievement from the snapshot alone.
type SpecialRule func(goals []models.Goal, tasks []models.Task, now time.Time) bool

// Catalog is the static achievement table plus the level steps.
type Catalog struct {
	Achievements []models.Achievement `yaml:"achievements"`
	Levels       []LevelTier          `yaml:"levels"`

	specials map[string]SpecialRule
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the embedded catalog with the built in special rules.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := ParseCatalog(embeddedCatalog)
		if err != nil {
			panic(fmt.Sprintf("embedded achievement catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// ParseCatalog decodes and validates a YAML catalog and registers the built in special rules.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.specials = map[string]SpecialRule{
		"early-bird":    completedBeforeTarget,
		"overachiever":  threeCompletionsInOneDay,
		"perfectionist": completedWithAllTasks,
	}
	return &c, nil
}

// WithSpecial returns a copy of the catalog with rule registered for the special achievement id.
func (c *Catalog) WithSpecial(id string, rule SpecialRule) *Catalog {
	clone := *c
	clone.specials = make(map[string]SpecialRule, len(c.specials)+1)
	for k, v := range c.specials {
		clone.specials[k] = v
	}
	clone.specials[id] = rule
	return &clone
}

// Filter returns the achievements in category, or all of them for "" and "all".
func (c *Catalog) Filter(category string) []models.Achievement {
	if category == "" || category == "all" {
		return append([]models.Achievement(nil), c.Achievements...)
	}
	out := make([]models.Achievement, 0)
	for _, a := range c.Achievements {
		if string(a.Category) == category {
			out = append(out, a)
		}
	}
	return out
}

func (c *Catalog) validate() error {
	if len(c.Levels) == 0 {
		return fmt.Errorf("catalog has no levels")
	}
	if c.Levels[0].MinPoints != 0 {
		return fmt.Errorf("first level must start at 0 points")
	}
	for i := 1; i < len(c.Levels); i++ {
		if c.Levels[i].MinPoints <= c.Levels[i-1].MinPoints {
			return fmt.Errorf("level %d threshold is not ascending", c.Levels[i].Level)
		}
	}

	ids := make(map[string]struct{}, len(c.Achievements))
	for _, a := range c.Achievements {
		if a.ID == "" {
			return fmt.Errorf("achievement without id")
		}
		if _, dup := ids[a.ID]; dup {
			return fmt.Errorf("duplicate achievement %q", a.ID)
		}
		ids[a.ID] = struct{}{}
		if a.Requirement.Count <= 0 {
			return fmt.Errorf("achievement %q needs a positive count", a.ID)
		}
		switch a.Requirement.Type {
		case models.RequirementGoalsCompleted, models.RequirementGoalsCreated,
			models.RequirementTasksCompleted, models.RequirementStreakDays,
			models.RequirementCategoriesUsed, models.RequirementSpecial:
		default:
			return fmt.Errorf("achievement %q has unknown requirement %q", a.ID, a.Requirement.Type)
		}
	}
	return nil
}
