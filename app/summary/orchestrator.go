package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/lysyi3m/podcast-digest/app/database"
	"github.com/lysyi3m/podcast-digest/app/gemini"
	"github.com/lysyi3m/podcast-digest/app/media"
)

const (
	DefaultMaxUploadBytes = 2000 * 1000 * 1000
	DefaultPollInterval   = 2 * time.Second
	DefaultPollTimeout    = 60 * time.Second
	cleanupTimeout        = 30 * time.Second
)

type AudioProvisioner interface {
	Provision(ctx context.Context, episodeID string) (*media.Audio, error)
}

// AIClient is the remote file store plus model used for summaries.
type AIClient interface {
	Configured() bool
	UploadFile(ctx context.Context, path string, mimeType string, displayName string) (*gemini.File, error)
	GetFile(ctx context.Context, name string) (*gemini.File, error)
	DeleteFile(ctx context.Context, name string) error
	GenerateContent(ctx context.Context, prompt string, file *gemini.File) (string, error)
}

type Options struct {
	MaxUploadBytes int64
	PollInterval   time.Duration
	PollTimeout    time.Duration
}

// Orchestrator runs the summary workflow: provision, upload, wait for
// processing, generate, persist. One workflow runs at a time.
type Orchestrator struct {
	db       *database.DB
	podcasts *database.PodcastRepository
	episodes *database.EpisodeRepository
	audio    AudioProvisioner
	ai       AIClient
	guard    Guard
	opts     Options
	now      func() time.Time
}

func NewOrchestrator(db *database.DB, audio AudioProvisioner, ai AIClient, opts Options) *Orchestrator {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}

	return &Orchestrator{
		db:       db,
		podcasts: database.NewPodcastRepository(db),
		episodes: database.NewEpisodeRepository(db),
		audio:    audio,
		ai:       ai,
		opts:     opts,
		now:      time.Now,
	}
}

func (o *Orchestrator) Status() Status {
	return o.guard.Status()
}

// Generate produces and stores a summary for the episode. It fails with
// ErrAlreadyGenerating, without side effects, while another generation runs.
func (o *Orchestrator) Generate(ctx context.Context, episodeID string) (*database.Document, error) {
	if !o.ai.Configured() {
		return nil, ErrNotConfigured
	}

	if !o.guard.TryAcquire(episodeID, o.now().UTC()) {
		return nil, ErrAlreadyGenerating
	}
	defer o.guard.Release()

	started := o.now()
	slog.Info("Summary generation started", "episode_id", episodeID)

	document, err := o.run(ctx, episodeID)
	if err != nil {
		slog.Warn("Summary generation failed", "episode_id", episodeID, "duration", o.now().Sub(started), "error", err)
		return nil, err
	}

	slog.Info("Summary generation completed", "episode_id", episodeID, "document_id", document.ID, "duration", o.now().Sub(started))
	return document, nil
}

func (o *Orchestrator) run(ctx context.Context, episodeID string) (*database.Document, error) {
	episode, err := o.episodes.GetEpisode(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	if episode == nil {
		return nil, ErrEpisodeNotFound
	}

	podcast, err := o.podcasts.GetPodcast(ctx, episode.PodcastID)
	if err != nil {
		return nil, err
	}

	audio, err := o.audio.Provision(ctx, episodeID)
	if err != nil {
		if errors.Is(err, media.ErrEpisodeNotFound) {
			return nil, ErrEpisodeNotFound
		}
		return nil, fmt.Errorf("failed to provision audio: %w", err)
	}

	var remote *gemini.File
	defer func() { o.cleanup(ctx, episodeID, audio, remote) }()

	if audio.Size > o.opts.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %s exceeds the %s limit", ErrFileTooLarge, humanize.Bytes(uint64(audio.Size)), humanize.Bytes(uint64(o.opts.MaxUploadBytes)))
	}

	remote, err = o.ai.UploadFile(ctx, audio.Path, audioMimeType(audio.Path), episode.Title)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	active, err := o.waitForActive(ctx, remote)
	if err != nil {
		return nil, err
	}

	prompt := resolvePrompt(podcast, episode)

	content, err := o.ai.GenerateContent(ctx, prompt, active)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	document := database.Document{
		ID:         uuid.NewString(),
		EpisodeID:  episodeID,
		Content:    content,
		CreatedAt:  o.now().UTC(),
		PromptUsed: prompt,
	}

	err = o.db.RunInTransaction(ctx, func(q database.Querier) error {
		docs := database.NewDocumentRepository(q)
		if _, err := docs.DeleteDocumentsForEpisode(ctx, episodeID); err != nil {
			return err
		}
		return docs.CreateDocument(ctx, document)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store summary: %w", err)
	}

	return &document, nil
}

// waitForActive polls the uploaded file until it is ready, has failed, or the
// poll budget is spent. The budget covers the status calls themselves.
func (o *Orchestrator) waitForActive(ctx context.Context, file *gemini.File) (*gemini.File, error) {
	pollCtx, cancel := context.WithTimeout(ctx, o.opts.PollTimeout)
	defer cancel()

	for {
		switch file.State {
		case gemini.FileStateActive:
			return file, nil
		case gemini.FileStateFailed:
			return nil, fmt.Errorf("%w: %s", ErrProcessingFailed, file.FailureReason())
		}

		select {
		case <-pollCtx.Done():
			return nil, o.pollError(ctx)
		case <-time.After(o.opts.PollInterval):
		}

		current, err := o.ai.GetFile(pollCtx, file.Name)
		if pollCtx.Err() != nil {
			return nil, o.pollError(ctx)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check uploaded file state: %w", err)
		}
		file = current
	}
}

func (o *Orchestrator) pollError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w after %s", ErrPollTimeout, o.opts.PollTimeout)
}

// cleanup removes the remote file and any ephemeral audio. Failures are
// logged only.
func (o *Orchestrator) cleanup(ctx context.Context, episodeID string, audio *media.Audio, remote *gemini.File) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if remote != nil {
		if err := o.ai.DeleteFile(ctx, remote.Name); err != nil {
			slog.Warn("Failed to delete uploaded file", "episode_id", episodeID, "file", remote.Name, "error", err)
		}
	}

	if audio != nil && audio.Ephemeral {
		if err := media.RemoveFile(audio.Path); err != nil {
			slog.Warn("Failed to delete ephemeral audio", "episode_id", episodeID, "path", audio.Path, "error", err)
		}
	}
}

func audioMimeType(path string) string {
	if mimeType := mime.TypeByExtension(filepath.Ext(path)); mimeType != "" {
		if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
			return mediaType
		}
	}
	return "audio/mpeg"
}
