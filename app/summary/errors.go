package summary

import "errors"

var (
	ErrNotConfigured     = errors.New("summary generation is not configured: missing Gemini API key")
	ErrAlreadyGenerating = errors.New("a summary is already being generated")
	ErrEpisodeNotFound   = errors.New("episode not found")
	ErrFileTooLarge      = errors.New("audio file is too large to upload")
	ErrUpload            = errors.New("failed to upload audio")
	ErrProcessingFailed  = errors.New("remote processing of the audio failed")
	ErrPollTimeout       = errors.New("timed out waiting for the audio to be processed")
	ErrGeneration        = errors.New("failed to generate summary")
)
