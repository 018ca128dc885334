package database

import (
	"context"
	"testing"
	"time"
)

func TestUpsertPodcastPreservesCustomPrompt(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewPodcastRepository(db)

	seedPodcast(t, db, "p1", "https://example.com/feed.xml")

	updated, err := repo.UpdateCustomPrompt(ctx, "p1", "Summarize in French")
	if err != nil {
		t.Fatal(err)
	}
	if !updated {
		t.Fatal("Expected prompt update to affect a row")
	}

	fetchedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	err = repo.UpsertPodcast(ctx, Podcast{
		ID:            "ignored-new-id",
		Title:         "Renamed Show",
		FeedURL:       "https://example.com/feed.xml",
		ArtworkURL:    "https://example.com/art.png",
		LastFetchedAt: fetchedAt,
	})
	if err != nil {
		t.Fatal(err)
	}

	podcast, err := repo.GetPodcastByFeedURL(ctx, "https://example.com/feed.xml")
	if err != nil {
		t.Fatal(err)
	}
	if podcast.ID != "p1" {
		t.Errorf("Expected ID 'p1' to be kept, got '%s'", podcast.ID)
	}
	if podcast.Title != "Renamed Show" {
		t.Errorf("Expected title 'Renamed Show', got '%s'", podcast.Title)
	}
	if podcast.ArtworkURL != "https://example.com/art.png" {
		t.Errorf("Expected artwork to be updated, got '%s'", podcast.ArtworkURL)
	}
	if podcast.CustomPrompt != "Summarize in French" {
		t.Errorf("Expected custom prompt to be preserved, got '%s'", podcast.CustomPrompt)
	}
	if !podcast.LastFetchedAt.Equal(fetchedAt) {
		t.Errorf("Expected last fetched %v, got %v", fetchedAt, podcast.LastFetchedAt)
	}
}

func TestUpdateCustomPromptClears(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewPodcastRepository(db)

	seedPodcast(t, db, "p1", "https://example.com/feed.xml")

	if _, err := repo.UpdateCustomPrompt(ctx, "p1", "custom"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.UpdateCustomPrompt(ctx, "p1", ""); err != nil {
		t.Fatal(err)
	}

	podcast, err := repo.GetPodcast(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if podcast.CustomPrompt != "" {
		t.Errorf("Expected custom prompt to be cleared, got '%s'", podcast.CustomPrompt)
	}

	updated, err := repo.UpdateCustomPrompt(ctx, "missing", "x")
	if err != nil {
		t.Fatal(err)
	}
	if updated {
		t.Error("Expected no row to be updated for a missing podcast")
	}
}

func TestUpsertEpisodePreservesDownloadState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewEpisodeRepository(db)

	seedPodcast(t, db, "p1", "https://example.com/feed.xml")

	pubDate := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	err := repo.UpsertEpisode(ctx, EpisodeUpsert{
		ID: "e1", PodcastID: "p1", Title: "Original", PubDate: pubDate, Duration: 100, AudioURL: "https://example.com/a.mp3",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.MarkDownloaded(ctx, "e1", "/media/show/Original.mp3"); err != nil {
		t.Fatal(err)
	}

	err = repo.UpsertEpisode(ctx, EpisodeUpsert{
		ID: "e1", PodcastID: "p1", Title: "Edited", PubDate: time.Now(), Duration: 250, AudioURL: "https://cdn.example.com/a.mp3",
	})
	if err != nil {
		t.Fatal(err)
	}

	episode, err := repo.GetEpisode(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if episode.Title != "Edited" {
		t.Errorf("Expected title 'Edited', got '%s'", episode.Title)
	}
	if episode.Duration != 250 {
		t.Errorf("Expected duration 250, got %d", episode.Duration)
	}
	if episode.AudioURL != "https://cdn.example.com/a.mp3" {
		t.Errorf("Expected audio URL to be updated, got '%s'", episode.AudioURL)
	}
	if !episode.PubDate.Equal(pubDate) {
		t.Errorf("Expected publication date to be kept at %v, got %v", pubDate, episode.PubDate)
	}
	if !episode.IsDownloaded {
		t.Error("Expected is_downloaded to be preserved")
	}
	if episode.LocalFilePath != "/media/show/Original.mp3" {
		t.Errorf("Expected local file path to be preserved, got '%s'", episode.LocalFilePath)
	}
}

func TestClearDownloadReturnsPreviousPath(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewEpisodeRepository(db)

	seedPodcast(t, db, "p1", "https://example.com/feed.xml")
	if err := repo.UpsertEpisode(ctx, EpisodeUpsert{ID: "e1", PodcastID: "p1", Title: "E", PubDate: time.Now(), AudioURL: "u"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkDownloaded(ctx, "e1", "/media/e.mp3"); err != nil {
		t.Fatal(err)
	}

	previous, err := repo.ClearDownload(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if previous != "/media/e.mp3" {
		t.Errorf("Expected previous path '/media/e.mp3', got '%s'", previous)
	}

	episode, err := repo.GetEpisode(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if episode.IsDownloaded || episode.LocalFilePath != "" {
		t.Errorf("Expected download state to be cleared, got %+v", episode)
	}
}

func TestListEpisodesNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewEpisodeRepository(db)

	seedPodcast(t, db, "p1", "https://example.com/feed.xml")

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "new", "mid"} {
		offsets := []int{0, 48, 24}
		err := repo.UpsertEpisode(ctx, EpisodeUpsert{
			ID: id, PodcastID: "p1", Title: id, PubDate: base.Add(time.Duration(offsets[i]) * time.Hour), AudioURL: "u",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	episodes, err := repo.ListEpisodes(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(episodes) != 3 {
		t.Fatalf("Expected 3 episodes, got %d", len(episodes))
	}
	if episodes[0].ID != "new" || episodes[1].ID != "mid" || episodes[2].ID != "old" {
		t.Errorf("Expected order new, mid, old; got %s, %s, %s", episodes[0].ID, episodes[1].ID, episodes[2].ID)
	}
}

func TestDeletePodcastCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedPodcast(t, db, "p1", "https://example.com/feed.xml")
	episodes := NewEpisodeRepository(db)
	documents := NewDocumentRepository(db)

	if err := episodes.UpsertEpisode(ctx, EpisodeUpsert{ID: "e1", PodcastID: "p1", Title: "E", PubDate: time.Now(), AudioURL: "u"}); err != nil {
		t.Fatal(err)
	}
	if err := documents.CreateDocument(ctx, Document{ID: "d1", EpisodeID: "e1", Content: "# Summary", CreatedAt: time.Now(), PromptUsed: "p"}); err != nil {
		t.Fatal(err)
	}

	deleted, err := NewPodcastRepository(db).DeletePodcast(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if !deleted {
		t.Fatal("Expected podcast to be deleted")
	}

	if episode, _ := episodes.GetEpisode(ctx, "e1"); episode != nil {
		t.Error("Expected episode to be deleted with its podcast")
	}
	if document, _ := documents.GetDocument(ctx, "d1"); document != nil {
		t.Error("Expected document to be deleted with its episode")
	}
}

func TestDocumentsAreIndependent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewDocumentRepository(db)

	seedPodcast(t, db, "p1", "https://example.com/feed.xml")
	if err := NewEpisodeRepository(db).UpsertEpisode(ctx, EpisodeUpsert{ID: "e1", PodcastID: "p1", Title: "E", PubDate: time.Now(), AudioURL: "u"}); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	for i, id := range []string{"d1", "d2"} {
		err := repo.CreateDocument(ctx, Document{
			ID: id, EpisodeID: "e1", Content: "content " + id, CreatedAt: now.Add(time.Duration(i) * time.Minute), PromptUsed: "prompt",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := repo.DeleteDocument(ctx, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if !deleted {
		t.Fatal("Expected d1 to be deleted")
	}

	documents, err := repo.ListDocuments(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if len(documents) != 1 || documents[0].ID != "d2" {
		t.Errorf("Expected only d2 to remain, got %+v", documents)
	}
	if documents[0].PromptUsed != "prompt" {
		t.Errorf("Expected prompt to round-trip, got '%s'", documents[0].PromptUsed)
	}
}

func TestDuplicateInsertSurfacesError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewDocumentRepository(db)

	seedPodcast(t, db, "p1", "https://example.com/feed.xml")
	if err := NewEpisodeRepository(db).UpsertEpisode(ctx, EpisodeUpsert{ID: "e1", PodcastID: "p1", Title: "E", PubDate: time.Now(), AudioURL: "u"}); err != nil {
		t.Fatal(err)
	}

	doc := Document{ID: "d1", EpisodeID: "e1", Content: "c", CreatedAt: time.Now(), PromptUsed: "p"}
	if err := repo.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateDocument(ctx, doc); err == nil {
		t.Error("Expected duplicate primary key to fail")
	}
}

func TestSubSecondTimestampsSortNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	episodes := NewEpisodeRepository(db)

	seedPodcast(t, db, "p1", "https://example.com/feed.xml")

	base := time.Date(2024, 5, 1, 10, 0, 39, 0, time.UTC)
	pubDates := map[string]time.Time{
		"e-120": base.Add(120 * time.Millisecond),
		"e-125": base.Add(125 * time.Millisecond),
		"e-000": base,
	}
	for id, pubDate := range pubDates {
		if err := episodes.UpsertEpisode(ctx, EpisodeUpsert{ID: id, PodcastID: "p1", Title: id, PubDate: pubDate, AudioURL: "u"}); err != nil {
			t.Fatal(err)
		}
	}

	listed, err := episodes.ListEpisodes(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{"e-125", "e-120", "e-000"}
	if len(listed) != len(expected) {
		t.Fatalf("Expected %d episodes, got %d", len(expected), len(listed))
	}
	for i, id := range expected {
		if listed[i].ID != id {
			t.Errorf("Expected episode %d to be %s, got %s", i, id, listed[i].ID)
		}
	}
	if !listed[0].PubDate.Equal(pubDates["e-125"]) {
		t.Errorf("Expected pub date to round-trip, got %v", listed[0].PubDate)
	}
}
