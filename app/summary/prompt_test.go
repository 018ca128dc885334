package summary

import (
	"strings"
	"testing"

	"github.com/lysyi3m/podcast-digest/app/database"
)

func TestResolvePrompt(t *testing.T) {
	episode := &database.Episode{Title: "Episode 42"}

	tests := []struct {
		name     string
		podcast  *database.Podcast
		contains []string
		absent   []string
	}{
		{
			name:     "default prompt",
			podcast:  &database.Podcast{Title: "The Show"},
			contains: []string{`"Episode 42"`, `"The Show"`, "## Key points"},
			absent:   []string{"{{podcast}}", "{{episode}}"},
		},
		{
			name:     "custom prompt with placeholders",
			podcast:  &database.Podcast{Title: "The Show", CustomPrompt: "Summarize {{episode}} of {{podcast}} in one line."},
			contains: []string{"Summarize Episode 42 of The Show in one line."},
			absent:   []string{"## Key points"},
		},
		{
			name:     "blank custom prompt falls back",
			podcast:  &database.Podcast{Title: "The Show", CustomPrompt: "   "},
			contains: []string{"## Overview"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := resolvePrompt(tt.podcast, episode)
			for _, want := range tt.contains {
				if !strings.Contains(prompt, want) {
					t.Errorf("Expected prompt to contain %q, got: %s", want, prompt)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(prompt, unwanted) {
					t.Errorf("Expected prompt not to contain %q", unwanted)
				}
			}
		})
	}
}
