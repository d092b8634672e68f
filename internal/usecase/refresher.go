package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rbakker/trmnl-standings/internal/platform/logging"
)

const (
	RefreshStatusOK     = "ok"
	RefreshStatusFailed = "failed"
)

type RefreshResult struct {
	LeagueCount  int                  `json:"league_count"`
	SuccessCount int                  `json:"success_count"`
	FailedCount  int                  `json:"failed_count"`
	WorkerCount  int                  `json:"worker_count"`
	Leagues      []RefreshLeagueEntry `json:"leagues"`
}

type RefreshLeagueEntry struct {
	LeagueID   string `json:"league_id"`
	Status     string `json:"status"`
	Rows       int    `json:"rows"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Refresher keeps the standings cache warm so devices get an instant
// response even right after the cache TTL lapses.
type Refresher struct {
	service    *StandingsService
	interval   time.Duration
	maxWorkers int
	logger     *logging.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewRefresher(service *StandingsService, interval time.Duration, maxWorkers int, logger *logging.Logger) *Refresher {
	if logger == nil {
		logger = logging.Default()
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	return &Refresher{
		service:    service,
		interval:   interval,
		maxWorkers: maxWorkers,
		logger:     logger,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start warms the cache once, then refreshes on every interval tick until
// Stop is called or ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	go func() {
		defer close(r.done)

		r.runOnce(ctx)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				r.runOnce(ctx)
			}
		}
	}()
}

func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Refresher) runOnce(ctx context.Context) {
	result, err := r.RefreshLeagues(ctx, nil)
	if err != nil {
		r.logger.ErrorContext(ctx, "standings refresh cycle failed", "error", err)
		return
	}
	r.logger.InfoContext(ctx, "standings refresh cycle finished",
		"leagues", result.LeagueCount,
		"succeeded", result.SuccessCount,
		"failed", result.FailedCount,
	)
}

// RefreshLeagues scrapes the given leagues (all known leagues when empty)
// concurrently over a bounded worker pool.
func (r *Refresher) RefreshLeagues(ctx context.Context, leagueIDs []string) (RefreshResult, error) {
	if len(leagueIDs) == 0 {
		leagueIDs = r.service.LeagueIDs()
	}

	workerCount := r.maxWorkers
	if workerCount > len(leagueIDs) {
		workerCount = len(leagueIDs)
	}
	if workerCount < 1 {
		workerCount = 1
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	result := RefreshResult{
		LeagueCount: len(leagueIDs),
		WorkerCount: workerCount,
		Leagues:     make([]RefreshLeagueEntry, 0, len(leagueIDs)),
	}

	var mu sync.Mutex
	var workers sync.WaitGroup
	for _, leagueID := range leagueIDs {
		leagueID := leagueID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			started := time.Now()
			entry := RefreshLeagueEntry{LeagueID: leagueID, Status: RefreshStatusOK}

			table, refreshErr := r.service.Refresh(ctx, leagueID)
			if refreshErr != nil {
				entry.Status = RefreshStatusFailed
				entry.Message = refreshErr.Error()
			} else {
				entry.Rows = len(table.Rows)
			}
			entry.DurationMs = time.Since(started).Milliseconds()

			mu.Lock()
			result.Leagues = append(result.Leagues, entry)
			if entry.Status == RefreshStatusOK {
				result.SuccessCount++
			} else {
				result.FailedCount++
			}
			mu.Unlock()
		}); err != nil {
			workers.Done()
			mu.Lock()
			result.FailedCount++
			result.Leagues = append(result.Leagues, RefreshLeagueEntry{
				LeagueID: leagueID,
				Status:   RefreshStatusFailed,
				Message:  fmt.Sprintf("submit refresh task: %v", err),
			})
			mu.Unlock()
		}
	}
	workers.Wait()

	return result, nil
}
