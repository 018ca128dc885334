package summary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/podcast-digest/app/database"
	"github.com/lysyi3m/podcast-digest/app/gemini"
	"github.com/lysyi3m/podcast-digest/app/media"
)

type fakeProvisioner struct {
	dir       string
	ephemeral bool
	size      int64
	calls     int
	lastPath  string
}

func (p *fakeProvisioner) Provision(ctx context.Context, episodeID string) (*media.Audio, error) {
	p.calls++
	path := filepath.Join(p.dir, episodeID+".mp3")
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		return nil, err
	}
	p.lastPath = path

	size := p.size
	if size == 0 {
		size = 5
	}
	return &media.Audio{Path: path, Ephemeral: p.ephemeral, Size: size}, nil
}

type fakeAI struct {
	mu          sync.Mutex
	uploadState string
	pollStates  []string
	uploadErr   error
	generateErr error
	uploads     int
	deleted     []string
	prompts     []string
	getFileWait time.Duration

	generateStarted chan struct{}
	generateRelease chan struct{}
}

func (f *fakeAI) Configured() bool { return true }

func (f *fakeAI) UploadFile(ctx context.Context, path string, mimeType string, displayName string) (*gemini.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	state := f.uploadState
	if state == "" {
		state = gemini.FileStateProcessing
	}
	return &gemini.File{Name: "files/1", URI: "https://files/1", MimeType: mimeType, State: state}, nil
}

func (f *fakeAI) GetFile(ctx context.Context, name string) (*gemini.File, error) {
	if f.getFileWait > 0 {
		select {
		case <-time.After(f.getFileWait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state := gemini.FileStateActive
	if len(f.pollStates) > 0 {
		state = f.pollStates[0]
		if len(f.pollStates) > 1 {
			f.pollStates = f.pollStates[1:]
		}
	}
	return &gemini.File{Name: name, URI: "https://files/1", State: state}, nil
}

func (f *fakeAI) DeleteFile(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *fakeAI) GenerateContent(ctx context.Context, prompt string, file *gemini.File) (string, error) {
	if f.generateStarted != nil {
		close(f.generateStarted)
		<-f.generateRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return "# Summary", nil
}

func (f *fakeAI) deletedFiles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type unconfiguredAI struct{ fakeAI }

func (u *unconfiguredAI) Configured() bool { return false }

type fixture struct {
	db          *database.DB
	provisioner *fakeProvisioner
	ai          *fakeAI
	orch        *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "summary.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	podcasts := database.NewPodcastRepository(db)
	episodes := database.NewEpisodeRepository(db)
	if err := podcasts.UpsertPodcast(ctx, database.Podcast{ID: "pod-1", Title: "The Show", FeedURL: "https://example.com/feed.xml", LastFetchedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"ep-1", "ep-2"} {
		if err := episodes.UpsertEpisode(ctx, database.EpisodeUpsert{ID: id, PodcastID: "pod-1", Title: "Episode " + id, PubDate: time.Now(), AudioURL: "https://cdn.example.com/" + id + ".mp3"}); err != nil {
			t.Fatal(err)
		}
	}

	provisioner := &fakeProvisioner{dir: t.TempDir(), ephemeral: true}
	ai := &fakeAI{}
	orch := NewOrchestrator(db, provisioner, ai, Options{PollInterval: 5 * time.Millisecond, PollTimeout: time.Second})

	return &fixture{db: db, provisioner: provisioner, ai: ai, orch: orch}
}

func (f *fixture) documents(t *testing.T, episodeID string) []database.Document {
	t.Helper()
	docs, err := database.NewDocumentRepository(f.db).ListDocuments(context.Background(), episodeID)
	if err != nil {
		t.Fatal(err)
	}
	return docs
}

func assertCleanedUp(t *testing.T, f *fixture) {
	t.Helper()
	if _, err := os.Stat(f.provisioner.lastPath); !os.IsNotExist(err) {
		t.Errorf("Expected ephemeral audio to be removed, stat err: %v", err)
	}
	if status := f.orch.Status(); status.Generating {
		t.Errorf("Expected idle state, got: %+v", status)
	}
}

func TestGenerateStoresDocumentAndCleansUp(t *testing.T) {
	f := newFixture(t)

	doc, err := f.orch.Generate(context.Background(), "ep-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if doc.Content != "# Summary" || doc.EpisodeID != "ep-1" {
		t.Errorf("Unexpected document: %+v", doc)
	}
	if !strings.Contains(doc.PromptUsed, `"Episode ep-1" from "The Show"`) {
		t.Errorf("Expected default prompt with titles, got: %s", doc.PromptUsed)
	}

	docs := f.documents(t, "ep-1")
	if len(docs) != 1 || docs[0].PromptUsed != doc.PromptUsed {
		t.Errorf("Expected stored document with prompt, got: %+v", docs)
	}

	if deleted := f.ai.deletedFiles(); len(deleted) != 1 || deleted[0] != "files/1" {
		t.Errorf("Expected remote file to be deleted, got: %v", deleted)
	}
	assertCleanedUp(t, f)
}

func TestGenerateUsesCustomPrompt(t *testing.T) {
	f := newFixture(t)
	if _, err := database.NewPodcastRepository(f.db).UpdateCustomPrompt(context.Background(), "pod-1", "List every guest of {{podcast}}"); err != nil {
		t.Fatal(err)
	}

	doc, err := f.orch.Generate(context.Background(), "ep-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if doc.PromptUsed != "List every guest of The Show" {
		t.Errorf("Expected custom prompt, got: %s", doc.PromptUsed)
	}
	if f.ai.prompts[0] != doc.PromptUsed {
		t.Errorf("Expected stored prompt to match the one sent, got: %s", f.ai.prompts[0])
	}
}

func TestGenerateReplacesPreviousDocument(t *testing.T) {
	f := newFixture(t)

	first, err := f.orch.Generate(context.Background(), "ep-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.orch.Generate(context.Background(), "ep-1")
	if err != nil {
		t.Fatal(err)
	}

	docs := f.documents(t, "ep-1")
	if len(docs) != 1 || docs[0].ID != second.ID || docs[0].ID == first.ID {
		t.Errorf("Expected only the latest document to remain, got: %+v", docs)
	}
}

func TestGenerateFailureCleansUp(t *testing.T) {
	f := newFixture(t)
	f.ai.generateErr = errors.New("model overloaded")

	_, err := f.orch.Generate(context.Background(), "ep-1")
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("Expected ErrGeneration, got: %v", err)
	}

	if deleted := f.ai.deletedFiles(); len(deleted) != 1 {
		t.Errorf("Expected remote file to be deleted, got: %v", deleted)
	}
	if docs := f.documents(t, "ep-1"); len(docs) != 0 {
		t.Errorf("Expected no documents, got: %d", len(docs))
	}
	assertCleanedUp(t, f)
}

func TestGenerateRejectsOversizedAudio(t *testing.T) {
	f := newFixture(t)
	f.provisioner.size = 2500 * 1000 * 1000

	_, err := f.orch.Generate(context.Background(), "ep-1")
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("Expected ErrFileTooLarge, got: %v", err)
	}
	if f.ai.uploads != 0 {
		t.Errorf("Expected no upload attempt, got: %d", f.ai.uploads)
	}
	if deleted := f.ai.deletedFiles(); len(deleted) != 0 {
		t.Errorf("Expected no remote deletes, got: %v", deleted)
	}
	assertCleanedUp(t, f)
}

func TestGenerateUploadFailure(t *testing.T) {
	f := newFixture(t)
	f.ai.uploadErr = errors.New("connection reset")

	_, err := f.orch.Generate(context.Background(), "ep-1")
	if !errors.Is(err, ErrUpload) {
		t.Fatalf("Expected ErrUpload, got: %v", err)
	}
	if deleted := f.ai.deletedFiles(); len(deleted) != 0 {
		t.Errorf("Expected nothing to delete remotely, got: %v", deleted)
	}
	assertCleanedUp(t, f)
}

func TestGenerateProcessingFailed(t *testing.T) {
	f := newFixture(t)
	f.ai.pollStates = []string{gemini.FileStateProcessing, gemini.FileStateFailed}

	_, err := f.orch.Generate(context.Background(), "ep-1")
	if !errors.Is(err, ErrProcessingFailed) {
		t.Fatalf("Expected ErrProcessingFailed, got: %v", err)
	}
	if deleted := f.ai.deletedFiles(); len(deleted) != 1 {
		t.Errorf("Expected remote file to be deleted, got: %v", deleted)
	}
	assertCleanedUp(t, f)
}

func TestGeneratePollTimeout(t *testing.T) {
	f := newFixture(t)
	f.ai.pollStates = []string{gemini.FileStateProcessing}
	f.orch.opts.PollTimeout = 40 * time.Millisecond

	_, err := f.orch.Generate(context.Background(), "ep-1")
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("Expected ErrPollTimeout, got: %v", err)
	}
	if deleted := f.ai.deletedFiles(); len(deleted) != 1 {
		t.Errorf("Expected remote file to be deleted, got: %v", deleted)
	}
	assertCleanedUp(t, f)
}

func TestGeneratePollTimeoutCoversSlowStatusCall(t *testing.T) {
	f := newFixture(t)
	f.ai.getFileWait = 2 * time.Second
	f.orch.opts.PollTimeout = 100 * time.Millisecond

	start := time.Now()
	_, err := f.orch.Generate(context.Background(), "ep-1")
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("Expected ErrPollTimeout, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected the poll budget to bound the status call, took %v", elapsed)
	}
	if docs := f.documents(t, "ep-1"); len(docs) != 0 {
		t.Errorf("Expected no document, got: %d", len(docs))
	}
	assertCleanedUp(t, f)
}

func TestGenerateKeepsPersistentAudio(t *testing.T) {
	f := newFixture(t)
	f.provisioner.ephemeral = false
	f.ai.uploadState = gemini.FileStateActive

	if _, err := f.orch.Generate(context.Background(), "ep-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(f.provisioner.lastPath); err != nil {
		t.Errorf("Expected persistent audio to remain, got: %v", err)
	}
}

func TestGenerateSingleFlight(t *testing.T) {
	f := newFixture(t)
	f.ai.generateStarted = make(chan struct{})
	f.ai.generateRelease = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Generate(context.Background(), "ep-1")
		done <- err
	}()

	<-f.ai.generateStarted

	status := f.orch.Status()
	if !status.Generating || status.EpisodeID != "ep-1" || status.StartedAt == nil {
		t.Errorf("Expected generating state for ep-1, got: %+v", status)
	}

	_, err := f.orch.Generate(context.Background(), "ep-2")
	if !errors.Is(err, ErrAlreadyGenerating) {
		t.Errorf("Expected ErrAlreadyGenerating, got: %v", err)
	}
	if f.provisioner.calls != 1 {
		t.Errorf("Expected rejected call to have no side effects, provision calls: %d", f.provisioner.calls)
	}

	close(f.ai.generateRelease)
	if err := <-done; err != nil {
		t.Fatalf("Expected first generation to succeed, got: %v", err)
	}
	if f.orch.Status().Generating {
		t.Error("Expected idle state after completion")
	}

	f.ai.generateStarted = nil
	if _, err := f.orch.Generate(context.Background(), "ep-2"); err != nil {
		t.Errorf("Expected generation to be possible again, got: %v", err)
	}
}

func TestGenerateEpisodeNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Generate(context.Background(), "missing")
	if !errors.Is(err, ErrEpisodeNotFound) {
		t.Fatalf("Expected ErrEpisodeNotFound, got: %v", err)
	}
	if f.provisioner.calls != 0 {
		t.Errorf("Expected no provisioning, got: %d calls", f.provisioner.calls)
	}
	if f.orch.Status().Generating {
		t.Error("Expected idle state")
	}
}

func TestGenerateNotConfigured(t *testing.T) {
	f := newFixture(t)
	orch := NewOrchestrator(f.db, f.provisioner, &unconfiguredAI{}, Options{})

	if _, err := orch.Generate(context.Background(), "ep-1"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got: %v", err)
	}
}

func TestGuard(t *testing.T) {
	var guard Guard
	now := time.Now()

	if !guard.TryAcquire("a", now) {
		t.Fatal("Expected first acquire to succeed")
	}
	if guard.TryAcquire("b", now) {
		t.Error("Expected second acquire to fail")
	}
	if status := guard.Status(); status.EpisodeID != "a" {
		t.Errorf("Expected status for a, got: %+v", status)
	}
	guard.Release()
	if guard.Status().Generating {
		t.Error("Expected idle after release")
	}
}
