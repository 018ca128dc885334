package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/podcast-digest/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler keeps seeded feeds fresh. It owns its own pool so sync tasks never
// compete with the fetch jobs they wait on.
type Scheduler struct {
	configCache *feed.ConfigCache
	syncer      PodcastSyncer
	pool        *Pool
	interval    time.Duration
	now         func() time.Time
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewScheduler(configCache *feed.ConfigCache, syncer PodcastSyncer, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		configCache: configCache,
		syncer:      syncer,
		pool:        NewPool("scheduler", workerCount, 300),
		interval:    interval,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
		inFlight:    make(map[string]bool),
	}
}

func (s *Scheduler) Start() {
	s.pool.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.pool.Stop()
}

func (s *Scheduler) enqueueStartupTasks() {
	feedConfigs := s.configCache.GetEnabledConfigs()
	if len(feedConfigs) == 0 {
		slog.Debug("No enabled feed configurations found")
		return
	}

	slog.Debug("Syncing feed configurations", "count", len(feedConfigs))

	for _, feedConfig := range feedConfigs {
		s.enqueueSync(feedConfig)
	}
}

func (s *Scheduler) enqueueTasks() {
	for _, feedConfig := range s.configCache.GetEnabledConfigs() {
		due, err := s.isDue(feedConfig)
		if err != nil {
			slog.Warn("Failed to check feed refresh state, skipping", "feed", feedConfig.Name, "error", err)
			continue
		}
		if !due {
			continue
		}
		s.enqueueSync(feedConfig)
	}
}

func (s *Scheduler) isDue(feedConfig *feed.Config) (bool, error) {
	podcast, err := s.syncer.GetPodcastByFeedURL(s.ctx, feedConfig.URL)
	if err != nil {
		return false, err
	}
	if podcast == nil {
		return true, nil
	}

	nextFetchAt := podcast.LastFetchedAt.Add(feedConfig.Settings.GetRefreshInterval())
	if nextFetchAt.After(s.now()) {
		slog.Debug("Feed not due for refresh yet", "feed", feedConfig.Name, "next_fetch_at", nextFetchAt)
		return false, nil
	}
	return true, nil
}

// enqueueSync queues a sync unless one for the same seed is still pending.
func (s *Scheduler) enqueueSync(feedConfig *feed.Config) bool {
	s.mu.Lock()
	if s.inFlight[feedConfig.Name] {
		s.mu.Unlock()
		slog.Debug("Feed sync already pending", "feed", feedConfig.Name)
		return false
	}
	s.inFlight[feedConfig.Name] = true
	s.mu.Unlock()

	task := NewSyncFeedConfigTask(feedConfig, s.syncer)
	task.done = func() { s.release(feedConfig.Name) }

	if err := s.pool.EnqueueTask(task); err != nil {
		s.release(feedConfig.Name)
		slog.Warn("Failed to enqueue SyncFeedConfigTask", "feed", feedConfig.Name, "error", err)
		return false
	}
	return true
}

func (s *Scheduler) release(feedName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, feedName)
}
