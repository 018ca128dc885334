package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/podcast-digest/app/feed"
)

const DefaultHardTimeout = 30 * time.Second

// FeedFetcher runs fetch+parse jobs on the pool and enforces a wall clock
// limit over the whole job. When the limit passes the job is abandoned and its
// context cancelled so the worker drops it.
type FeedFetcher struct {
	pool        TaskPoolInterface
	source      FeedSource
	decoder     FeedDecoder
	hardTimeout time.Duration
}

func NewFeedFetcher(pool TaskPoolInterface, source FeedSource, decoder FeedDecoder, hardTimeout time.Duration) *FeedFetcher {
	if hardTimeout <= 0 {
		hardTimeout = DefaultHardTimeout
	}
	return &FeedFetcher{
		pool:        pool,
		source:      source,
		decoder:     decoder,
		hardTimeout: hardTimeout,
	}
}

func (f *FeedFetcher) Fetch(ctx context.Context, url string) (*feed.Feed, error) {
	jobCtx, cancel := context.WithTimeout(ctx, f.hardTimeout)
	defer cancel()

	task := NewFetchFeedTask(jobCtx, url, f.source, f.decoder)
	if err := f.pool.Submit(jobCtx, task); err != nil {
		return nil, f.abandoned(ctx, jobCtx, err)
	}

	select {
	case res := <-task.result:
		if res.err != nil && jobCtx.Err() != nil {
			return nil, f.abandoned(ctx, jobCtx, res.err)
		}
		return res.feed, res.err
	case <-jobCtx.Done():
		return nil, f.abandoned(ctx, jobCtx, jobCtx.Err())
	}
}

func (f *FeedFetcher) abandoned(ctx, jobCtx context.Context, cause error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: feed processing exceeded %s", feed.ErrTimeout, f.hardTimeout)
	}
	return fmt.Errorf("failed to schedule feed fetch: %w", cause)
}
