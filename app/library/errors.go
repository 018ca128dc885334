package library

import "errors"

var (
	ErrPodcastNotFound  = errors.New("podcast not found")
	ErrEpisodeNotFound  = errors.New("episode not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidFeedURL   = errors.New("feed URL must be an absolute http(s) URL")
)
