package analytics

import "github.com/noah-isme/goalflow-api/internal/models"

// LevelFor maps points onto the catalog's level table. Progress measures the way
// through the current tier; the top tier has no next threshold and reports 100.
func (c *Catalog) LevelFor(points int) models.Level {
	idx := 0
	for i, tier := range c.Levels {
		if points >= tier.MinPoints {
			idx = i
		}
	}
	tier := c.Levels[idx]
	level := models.Level{Level: tier.Level, Title: tier.Title, MinPoints: tier.MinPoints}

	if idx == len(c.Levels)-1 {
		level.Progress = 100
		return level
	}

	next := c.Levels[idx+1].MinPoints
	level.NextLevelPoints = &next
	level.Progress = rate(points-tier.MinPoints, next-tier.MinPoints)
	return level
}

// LevelFor resolves points against the embedded level table.
func LevelFor(points int) models.Level {
	return DefaultCatalog().LevelFor(points)
}
