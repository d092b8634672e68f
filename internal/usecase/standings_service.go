package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rbakker/trmnl-standings/internal/domain/standings"
	"github.com/rbakker/trmnl-standings/internal/platform/cache"
	"github.com/rbakker/trmnl-standings/internal/platform/logging"
)

// StandingsProvider scrapes the current table for one league.
type StandingsProvider interface {
	LeagueID() string
	FetchStandings(ctx context.Context) (standings.Table, error)
}

// StandingsService serves league tables, optionally through a TTL cache so
// e-ink devices polling every few minutes don't hammer the league sites.
type StandingsService struct {
	providers map[string]StandingsProvider
	limits    map[string]int
	store     *cache.Store
	logger    *logging.Logger
}

func NewStandingsService(
	providers []StandingsProvider,
	teamLimits map[string]int,
	store *cache.Store,
	logger *logging.Logger,
) *StandingsService {
	if logger == nil {
		logger = logging.Default()
	}

	byLeague := make(map[string]StandingsProvider, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		byLeague[p.LeagueID()] = p
	}

	limits := make(map[string]int, len(byLeague))
	for id := range byLeague {
		limit := 0
		if league, ok := standings.LeagueByID(id); ok {
			limit = league.TeamCount
		}
		if override, ok := teamLimits[id]; ok && override > 0 {
			limit = override
		}
		limits[id] = limit
	}

	return &StandingsService{
		providers: byLeague,
		limits:    limits,
		store:     store,
		logger:    logger,
	}
}

// LeagueIDs returns the leagues this service can serve, in a stable order.
func (s *StandingsService) LeagueIDs() []string {
	out := make([]string, 0, len(s.providers))
	for id := range s.providers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// TeamLimit reports the configured row cap for a league.
func (s *StandingsService) TeamLimit(leagueID string) int {
	return s.limits[strings.TrimSpace(leagueID)]
}

// Get returns the current table for a league, truncated to min(top, limit).
// top <= 0 means "no extra truncation beyond the configured limit".
func (s *StandingsService) Get(ctx context.Context, leagueID string, top int) (standings.Table, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return standings.Table{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if top < 0 {
		return standings.Table{}, fmt.Errorf("%w: top must be greater than zero", ErrInvalidInput)
	}

	provider, ok := s.providers[leagueID]
	if !ok {
		return standings.Table{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	table, err := s.load(ctx, provider)
	if err != nil {
		return standings.Table{}, err
	}

	return truncateTable(table, s.effectiveLimit(leagueID, top)), nil
}

// Refresh scrapes a league table bypassing the cache and stores the result.
func (s *StandingsService) Refresh(ctx context.Context, leagueID string) (standings.Table, error) {
	leagueID = strings.TrimSpace(leagueID)
	provider, ok := s.providers[leagueID]
	if !ok {
		return standings.Table{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	table, err := s.fetch(ctx, provider)
	if err != nil {
		return standings.Table{}, err
	}

	if s.store != nil {
		s.store.Set(ctx, standingsCacheKey(leagueID), table)
	}

	return table, nil
}

func (s *StandingsService) load(ctx context.Context, provider StandingsProvider) (standings.Table, error) {
	if s.store == nil {
		return s.fetch(ctx, provider)
	}

	value, err := s.store.GetOrLoad(ctx, standingsCacheKey(provider.LeagueID()), func(ctx context.Context) (any, error) {
		return s.fetch(ctx, provider)
	})
	if err != nil {
		return standings.Table{}, err
	}

	table, ok := value.(standings.Table)
	if !ok {
		return standings.Table{}, fmt.Errorf("unexpected cache payload type %T", value)
	}

	return table, nil
}

func (s *StandingsService) fetch(ctx context.Context, provider StandingsProvider) (standings.Table, error) {
	started := time.Now()
	table, err := provider.FetchStandings(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "scrape standings failed",
			"league_id", provider.LeagueID(),
			"duration_ms", time.Since(started).Milliseconds(),
			"error", err,
		)
		return standings.Table{}, fmt.Errorf("scrape standings league=%s: %w", provider.LeagueID(), err)
	}

	table.Rows = normalizeRows(table.Rows)
	if table.UpdatedAt.IsZero() {
		table.UpdatedAt = time.Now().UTC()
	}

	s.logger.InfoContext(ctx, "scraped standings",
		"league_id", provider.LeagueID(),
		"rows", len(table.Rows),
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return table, nil
}

func (s *StandingsService) effectiveLimit(leagueID string, top int) int {
	limit := s.limits[leagueID]
	if top > 0 && (limit <= 0 || top < limit) {
		return top
	}
	return limit
}

// normalizeRows orders rows by scraped position (points as tie-breaker) and
// renumbers them 1..n, so responses always carry a strictly increasing
// position column even when the page had duplicates or gaps.
func normalizeRows(rows []standings.Row) []standings.Row {
	out := make([]standings.Row, len(rows))
	copy(out, rows)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Points > out[j].Points
	})
	for i := range out {
		out[i].Position = i + 1
	}

	return out
}

func truncateTable(table standings.Table, limit int) standings.Table {
	if limit > 0 && len(table.Rows) > limit {
		rows := make([]standings.Row, limit)
		copy(rows, table.Rows[:limit])
		table.Rows = rows
	}
	return table
}

func standingsCacheKey(leagueID string) string {
	return "standings:" + leagueID
}
