package summary

import (
	"strings"

	"github.com/lysyi3m/podcast-digest/app/database"
)

// DefaultPrompt is used when the podcast has no custom prompt. {{podcast}}
// and {{episode}} are replaced in both default and custom prompts.
const DefaultPrompt = `You are given the audio of the podcast episode "{{episode}}" from "{{podcast}}".
Listen to the whole episode and write a summary in Markdown with these sections:

## Overview
Two or three sentences on what the episode is about.

## Key points
A bullet list of the main ideas, arguments and facts, in the order they come up.

## Notable quotes
Up to three short direct quotes, if any stand out.

## Takeaways
A short bullet list of practical conclusions for the listener.

Write in the language spoken in the episode. Do not invent content that is not in the audio.`

func resolvePrompt(podcast *database.Podcast, episode *database.Episode) string {
	template := DefaultPrompt
	podcastTitle := ""
	if podcast != nil {
		podcastTitle = podcast.Title
		if strings.TrimSpace(podcast.CustomPrompt) != "" {
			template = podcast.CustomPrompt
		}
	}

	return strings.NewReplacer(
		"{{podcast}}", podcastTitle,
		"{{episode}}", episode.Title,
	).Replace(template)
}
