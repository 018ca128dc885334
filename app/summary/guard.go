package summary

import (
	"sync"
	"time"
)

// Status describes the generation state machine.
type Status struct {
	Generating bool       `json:"generating"`
	EpisodeID  string     `json:"episode_id,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
}

// Guard admits one generation at a time.
type Guard struct {
	mu        sync.Mutex
	active    bool
	episodeID string
	startedAt time.Time
}

// TryAcquire moves the guard from idle to generating. It returns false, and
// changes nothing, when a generation is already running.
func (g *Guard) TryAcquire(episodeID string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active {
		return false
	}
	g.active = true
	g.episodeID = episodeID
	g.startedAt = now
	return true
}

func (g *Guard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.active = false
	g.episodeID = ""
	g.startedAt = time.Time{}
}

func (g *Guard) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.active {
		return Status{}
	}
	startedAt := g.startedAt
	return Status{Generating: true, EpisodeID: g.episodeID, StartedAt: &startedAt}
}
