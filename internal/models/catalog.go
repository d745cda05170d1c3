package models

// GoalTemplate is a predefined goal with suggested tasks.
type GoalTemplate struct {
	ID                string   `yaml:"id" json:"id"`
	Title             string   `yaml:"title" json:"title"`
	Description       string   `yaml:"description" json:"description"`
	Category          string   `yaml:"category" json:"category"`
	Color             string   `yaml:"color" json:"color"`
	EstimatedDuration string   `yaml:"estimated_duration" json:"estimated_duration"`
	Difficulty        string   `yaml:"difficulty" json:"difficulty"`
	Tasks             []string `yaml:"tasks" json:"tasks"`
}

// CategoryInfo describes a suggested goal category.
type CategoryInfo struct {
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label" json:"label"`
	Color string `yaml:"color" json:"color"`
}

// Quote is a motivational quote.
type Quote struct {
	Text     string `yaml:"text" json:"text"`
	Author   string `yaml:"author" json:"author"`
	Category string `yaml:"category" json:"category"`
}
