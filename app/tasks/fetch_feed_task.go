package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/podcast-digest/app/feed"
)

type fetchResult struct {
	feed *feed.Feed
	err  error
}

// FetchFeedTask downloads and parses one feed and hands the outcome back on a
// buffered channel. It stops as soon as either the worker context or the
// requester's context is done.
type FetchFeedTask struct {
	Task
	URL        string
	requestCtx context.Context
	source     FeedSource
	decoder    FeedDecoder
	result     chan fetchResult
}

func NewFetchFeedTask(requestCtx context.Context, url string, source FeedSource, decoder FeedDecoder) *FetchFeedTask {
	return &FetchFeedTask{
		Task:       NewTask(TaskTypeFetchFeed, url),
		URL:        url,
		requestCtx: requestCtx,
		source:     source,
		decoder:    decoder,
		result:     make(chan fetchResult, 1),
	}
}

func (t *FetchFeedTask) Execute(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(t.requestCtx, cancel)
	defer stop()

	parsed, err := t.run(ctx)
	t.result <- fetchResult{feed: parsed, err: err}

	if err != nil {
		return err
	}

	slog.Debug("Task completed", "type", string(t.Type), "url", t.URL, "items", len(parsed.Items), "duration", t.GetDuration())
	return nil
}

func (t *FetchFeedTask) run(ctx context.Context) (*feed.Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := t.source.Fetch(ctx, t.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	parsed, err := t.decoder.Run(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return parsed, nil
}
