package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lysyi3m/podcast-digest/app/database"
)

// EpisodeStore is the slice of the episode repository the provisioner needs.
type EpisodeStore interface {
	GetEpisode(ctx context.Context, id string) (*database.Episode, error)
	MarkDownloaded(ctx context.Context, id string, path string) error
	ClearDownload(ctx context.Context, id string) (string, error)
}

// Audio is a local audio file ready for processing. Ephemeral files belong to
// the caller, who must delete them when done.
type Audio struct {
	Path      string
	Ephemeral bool
	Size      int64
}

type Provisioner struct {
	episodes   EpisodeStore
	downloader *Downloader
	cache      *Cache
	mediaDir   string
}

func NewProvisioner(episodes EpisodeStore, downloader *Downloader, cache *Cache, mediaDir string) *Provisioner {
	return &Provisioner{
		episodes:   episodes,
		downloader: downloader,
		cache:      cache,
		mediaDir:   mediaDir,
	}
}

// Provision resolves a local file for the episode. A persisted download is
// used as is; a recorded download whose file has gone missing is cleared and
// the audio is fetched into the ephemeral cache instead.
func (p *Provisioner) Provision(ctx context.Context, episodeID string) (*Audio, error) {
	episode, err := p.getEpisode(ctx, episodeID)
	if err != nil {
		return nil, err
	}

	if episode.IsDownloaded && episode.LocalFilePath != "" {
		info, err := os.Stat(episode.LocalFilePath)
		if err == nil && info.Mode().IsRegular() {
			return &Audio{Path: episode.LocalFilePath, Ephemeral: false, Size: info.Size()}, nil
		}

		slog.Warn("Downloaded audio is missing, clearing download state", "episode_id", episodeID, "path", episode.LocalFilePath)
		if _, err := p.episodes.ClearDownload(ctx, episodeID); err != nil {
			return nil, err
		}
	} else if episode.IsDownloaded {
		if _, err := p.episodes.ClearDownload(ctx, episodeID); err != nil {
			return nil, err
		}
	}

	if episode.AudioURL == "" {
		return nil, ErrNoAudioURL
	}

	path, size, err := p.downloader.Download(ctx, episode.AudioURL, func(ext string) string {
		return p.cache.PathFor(episodeID, ext)
	})
	if err != nil {
		return nil, err
	}

	return &Audio{Path: path, Ephemeral: true, Size: size}, nil
}

// DownloadToPersistent stores the episode audio under
// <media>/<podcast>/<episode>.<ext>, overwriting any previous copy, and
// records the download.
func (p *Provisioner) DownloadToPersistent(ctx context.Context, episodeID string, podcastTitle string) (string, error) {
	episode, err := p.getEpisode(ctx, episodeID)
	if err != nil {
		return "", err
	}
	if episode.AudioURL == "" {
		return "", ErrNoAudioURL
	}

	// Extensions come from a fixed allow-list, so validating once is enough.
	if _, err := p.PersistentPath(podcastTitle, episode.Title, defaultExtension); err != nil {
		return "", err
	}

	path, _, err := p.downloader.Download(ctx, episode.AudioURL, func(ext string) string {
		dest, _ := p.PersistentPath(podcastTitle, episode.Title, ext)
		return dest
	})
	if err != nil {
		return "", err
	}

	if err := p.episodes.MarkDownloaded(ctx, episodeID, path); err != nil {
		return "", err
	}

	slog.Info("Episode downloaded", "episode_id", episodeID, "path", path)
	return path, nil
}

// ClearDownload resets the download state and returns the previously recorded
// path. The database is updated first; removing the file is up to the caller.
func (p *Provisioner) ClearDownload(ctx context.Context, episodeID string) (string, error) {
	if _, err := p.getEpisode(ctx, episodeID); err != nil {
		return "", err
	}
	return p.episodes.ClearDownload(ctx, episodeID)
}

// PersistentPath builds the sanitized vault location and verifies it stays
// inside the media directory.
func (p *Provisioner) PersistentPath(podcastTitle, episodeTitle, ext string) (string, error) {
	root, err := filepath.Abs(p.mediaDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve media directory: %w", err)
	}

	dest := filepath.Join(root, SanitizeSegment(podcastTitle), SanitizeSegment(episodeTitle)+ext)

	rel, err := filepath.Rel(root, dest)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", ErrOutsideMediaDir
	}

	return dest, nil
}

func (p *Provisioner) getEpisode(ctx context.Context, episodeID string) (*database.Episode, error) {
	episode, err := p.episodes.GetEpisode(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	if episode == nil {
		return nil, ErrEpisodeNotFound
	}
	return episode, nil
}
