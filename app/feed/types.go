package feed

import (
	"time"
)

// Feed is the normalized form of a podcast RSS document.
type Feed struct {
	Metadata Metadata
	Items    []Item
}

type Metadata struct {
	Title    string
	ImageURL string // itunes:image when present, otherwise the channel image
}

type Item struct {
	GUID     string // stable identity, never empty
	Title    string
	AudioURL string
	PubDate  time.Time
	Duration int // seconds, 0 when unknown
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Artwork  string         `yaml:"artwork"` // overrides feed artwork on every sync
	Prompt   string         `yaml:"prompt"`  // applied as the podcast custom prompt
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled         *bool `yaml:"enabled"`
	RefreshInterval int   `yaml:"refresh_interval"` // seconds
}

func (s ConfigSettings) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

func (s ConfigSettings) GetRefreshInterval() time.Duration {
	if s.RefreshInterval <= 0 {
		return 3600 * time.Second
	}
	return time.Duration(s.RefreshInterval) * time.Second
}
