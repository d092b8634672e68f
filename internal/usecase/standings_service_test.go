package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rbakker/trmnl-standings/internal/domain/standings"
	"github.com/rbakker/trmnl-standings/internal/platform/cache"
)

type stubProvider struct {
	leagueID string
	rows     []standings.Row
	err      error
	calls    int
}

func (p *stubProvider) LeagueID() string { return p.leagueID }

func (p *stubProvider) FetchStandings(context.Context) (standings.Table, error) {
	p.calls++
	if p.err != nil {
		return standings.Table{}, p.err
	}
	rows := make([]standings.Row, len(p.rows))
	copy(rows, p.rows)
	return standings.Table{
		LeagueID:  p.leagueID,
		Rows:      rows,
		UpdatedAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}, nil
}

func tableRows(n int) []standings.Row {
	rows := make([]standings.Row, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, standings.Row{
			Position: i,
			Team:     "Team " + string(rune('A'+i-1)),
			Played:   10,
			Points:   3 * (n - i),
		})
	}
	return rows
}

func TestStandingsService_Get_TruncatesToTeamLimit(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{leagueID: standings.LeagueEredivisie, rows: tableRows(20)}
	service := NewStandingsService(
		[]StandingsProvider{provider},
		map[string]int{standings.LeagueEredivisie: 18},
		nil,
		nil,
	)

	table, err := service.Get(context.Background(), standings.LeagueEredivisie, 0)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(table.Rows) != 18 {
		t.Fatalf("expected 18 rows, got %d", len(table.Rows))
	}
}

func TestStandingsService_Get_TopNarrowsBelowLimit(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{leagueID: standings.LeagueKKD, rows: tableRows(20)}
	service := NewStandingsService([]StandingsProvider{provider}, nil, nil, nil)

	table, err := service.Get(context.Background(), standings.LeagueKKD, 5)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(table.Rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(table.Rows))
	}
	if table.Rows[0].Team != "Team A" {
		t.Fatalf("expected top of table first, got %q", table.Rows[0].Team)
	}
}

func TestStandingsService_Get_PositionsStrictlyIncreasingFromOne(t *testing.T) {
	t.Parallel()

	// Scraped positions have a duplicate and a gap; the response must not.
	provider := &stubProvider{
		leagueID: standings.LeagueEredivisie,
		rows: []standings.Row{
			{Position: 4, Team: "Vierde", Points: 10},
			{Position: 1, Team: "Eerste", Points: 30},
			{Position: 2, Team: "Tweede A", Points: 25},
			{Position: 2, Team: "Tweede B", Points: 24},
		},
	}
	service := NewStandingsService([]StandingsProvider{provider}, nil, nil, nil)

	table, err := service.Get(context.Background(), standings.LeagueEredivisie, 0)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}

	for i, row := range table.Rows {
		if row.Position != i+1 {
			t.Fatalf("row %d has position %d, want %d", i, row.Position, i+1)
		}
	}
	if table.Rows[0].Team != "Eerste" || table.Rows[3].Team != "Vierde" {
		t.Fatalf("unexpected ordering: %+v", table.Rows)
	}
	if table.Rows[1].Team != "Tweede A" {
		t.Fatalf("expected higher points to break position tie, got %q", table.Rows[1].Team)
	}
}

func TestStandingsService_Get_UnknownLeague(t *testing.T) {
	t.Parallel()

	service := NewStandingsService(
		[]StandingsProvider{&stubProvider{leagueID: standings.LeagueEredivisie}},
		nil, nil, nil,
	)

	_, err := service.Get(context.Background(), "premier-league", 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStandingsService_Get_NegativeTopRejected(t *testing.T) {
	t.Parallel()

	service := NewStandingsService(
		[]StandingsProvider{&stubProvider{leagueID: standings.LeagueEredivisie}},
		nil, nil, nil,
	)

	_, err := service.Get(context.Background(), standings.LeagueEredivisie, -1)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStandingsService_Get_SecondRequestServedFromCache(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{leagueID: standings.LeagueEredivisie, rows: tableRows(18)}
	service := NewStandingsService(
		[]StandingsProvider{provider},
		nil,
		cache.NewStore(time.Minute),
		nil,
	)

	for i := 0; i < 3; i++ {
		if _, err := service.Get(context.Background(), standings.LeagueEredivisie, 0); err != nil {
			t.Fatalf("Get %d error: %v", i, err)
		}
	}

	if provider.calls != 1 {
		t.Fatalf("provider scraped %d times, want 1", provider.calls)
	}
}

func TestStandingsService_Get_PropagatesScrapeFailure(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		leagueID: standings.LeagueEredivisie,
		err:      ErrDependencyUnavailable,
	}
	service := NewStandingsService([]StandingsProvider{provider}, nil, nil, nil)

	_, err := service.Get(context.Background(), standings.LeagueEredivisie, 0)
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), standings.LeagueEredivisie) {
		t.Fatalf("expected league id in error, got %q", err.Error())
	}
}

func TestStandingsService_Refresh_BypassesCacheAndStoresResult(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{leagueID: standings.LeagueKKD, rows: tableRows(20)}
	store := cache.NewStore(time.Minute)
	service := NewStandingsService([]StandingsProvider{provider}, nil, store, nil)

	if _, err := service.Get(context.Background(), standings.LeagueKKD, 0); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if _, err := service.Refresh(context.Background(), standings.LeagueKKD); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if provider.calls != 2 {
		t.Fatalf("expected refresh to scrape again, got %d calls", provider.calls)
	}

	// The refreshed table must be what later Gets see.
	if _, err := service.Get(context.Background(), standings.LeagueKKD, 0); err != nil {
		t.Fatalf("Get after refresh error: %v", err)
	}
	if provider.calls != 2 {
		t.Fatalf("expected cached result after refresh, got %d calls", provider.calls)
	}
}
