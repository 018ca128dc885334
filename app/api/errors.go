package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/podcast-digest/app/feed"
	"github.com/lysyi3m/podcast-digest/app/library"
	"github.com/lysyi3m/podcast-digest/app/media"
	"github.com/lysyi3m/podcast-digest/app/summary"
)

var statusByError = []struct {
	err    error
	status int
}{
	{library.ErrPodcastNotFound, http.StatusNotFound},
	{library.ErrEpisodeNotFound, http.StatusNotFound},
	{library.ErrDocumentNotFound, http.StatusNotFound},
	{media.ErrEpisodeNotFound, http.StatusNotFound},
	{summary.ErrEpisodeNotFound, http.StatusNotFound},

	{library.ErrInvalidFeedURL, http.StatusBadRequest},
	{media.ErrOutsideMediaDir, http.StatusBadRequest},
	{media.ErrNoAudioURL, http.StatusUnprocessableEntity},
	{summary.ErrAlreadyGenerating, http.StatusConflict},
	{summary.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{summary.ErrNotConfigured, http.StatusServiceUnavailable},

	{feed.ErrTimeout, http.StatusGatewayTimeout},
	{media.ErrDownloadStalled, http.StatusGatewayTimeout},
	{summary.ErrPollTimeout, http.StatusGatewayTimeout},

	{feed.ErrDNS, http.StatusBadGateway},
	{feed.ErrConnectionReset, http.StatusBadGateway},
	{feed.ErrConnection, http.StatusBadGateway},
	{feed.ErrHTTPStatus, http.StatusBadGateway},
	{feed.ErrTooLarge, http.StatusBadGateway},
	{feed.ErrInvalidStructure, http.StatusBadGateway},
	{media.ErrDownloadStatus, http.StatusBadGateway},
	{media.ErrEmptyDownload, http.StatusBadGateway},
	{summary.ErrUpload, http.StatusBadGateway},
	{summary.ErrProcessingFailed, http.StatusBadGateway},
	{summary.ErrGeneration, http.StatusBadGateway},
}

func statusFor(err error) int {
	for _, entry := range statusByError {
		if errors.Is(err, entry.err) {
			return entry.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes the single error message every operation returns on
// failure.
func respondError(c *gin.Context, operation string, err error) {
	status := statusFor(err)
	message := err.Error()

	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "operation", operation, "error", err)
		message = "internal error: " + operation + " failed"
	} else {
		slog.Debug("Request rejected", "operation", operation, "status", status, "error", err)
	}

	c.JSON(status, gin.H{"error": message})
}
