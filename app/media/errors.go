package media

import (
	"errors"
	"fmt"
)

var (
	ErrEpisodeNotFound = errors.New("episode not found")
	ErrNoAudioURL      = errors.New("episode has no audio URL")
	ErrEmptyDownload   = errors.New("downloaded audio file is empty")
	ErrDownloadStalled = errors.New("audio download stalled")
	ErrDownloadStatus  = errors.New("audio server returned an error status")
	ErrOutsideMediaDir = errors.New("resolved path escapes the media directory")
)

type DownloadStatusError struct {
	StatusCode int
	Status     string
}

func (e *DownloadStatusError) Error() string {
	return fmt.Sprintf("audio server returned HTTP %s", e.Status)
}

func (e *DownloadStatusError) Is(target error) bool {
	return target == ErrDownloadStatus
}
