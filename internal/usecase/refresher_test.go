package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbakker/trmnl-standings/internal/domain/standings"
	"github.com/rbakker/trmnl-standings/internal/platform/cache"
)

func TestRefresher_RefreshLeagues_AllLeagues(t *testing.T) {
	t.Parallel()

	eredivisie := &stubProvider{leagueID: standings.LeagueEredivisie, rows: tableRows(18)}
	kkd := &stubProvider{leagueID: standings.LeagueKKD, rows: tableRows(20)}
	service := NewStandingsService(
		[]StandingsProvider{eredivisie, kkd},
		nil,
		cache.NewStore(time.Minute),
		nil,
	)

	refresher := NewRefresher(service, time.Hour, 2, nil)
	result, err := refresher.RefreshLeagues(context.Background(), nil)
	require.NoError(t, err)

	require.Equal(t, 2, result.LeagueCount)
	require.Equal(t, 2, result.SuccessCount)
	require.Equal(t, 0, result.FailedCount)
	require.Len(t, result.Leagues, 2)
	require.Equal(t, 1, eredivisie.calls)
	require.Equal(t, 1, kkd.calls)

	// A device request right after the warm-up must be a cache hit.
	_, err = service.Get(context.Background(), standings.LeagueEredivisie, 0)
	require.NoError(t, err)
	require.Equal(t, 1, eredivisie.calls)
}

func TestRefresher_RefreshLeagues_ReportsPerLeagueFailure(t *testing.T) {
	t.Parallel()

	healthy := &stubProvider{leagueID: standings.LeagueEredivisie, rows: tableRows(18)}
	broken := &stubProvider{leagueID: standings.LeagueKKD, err: ErrDependencyUnavailable}
	service := NewStandingsService([]StandingsProvider{healthy, broken}, nil, nil, nil)

	refresher := NewRefresher(service, time.Hour, 4, nil)
	result, err := refresher.RefreshLeagues(context.Background(), nil)
	require.NoError(t, err)

	require.Equal(t, 1, result.SuccessCount)
	require.Equal(t, 1, result.FailedCount)

	for _, entry := range result.Leagues {
		switch entry.LeagueID {
		case standings.LeagueEredivisie:
			require.Equal(t, RefreshStatusOK, entry.Status)
			require.Equal(t, 18, entry.Rows)
		case standings.LeagueKKD:
			require.Equal(t, RefreshStatusFailed, entry.Status)
			require.NotEmpty(t, entry.Message)
		default:
			t.Fatalf("unexpected league entry %q", entry.LeagueID)
		}
	}
}

func TestRefresher_StartAndStop(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{leagueID: standings.LeagueEredivisie, rows: tableRows(18)}
	service := NewStandingsService(
		[]StandingsProvider{provider},
		nil,
		cache.NewStore(time.Minute),
		nil,
	)

	refresher := NewRefresher(service, time.Hour, 1, nil)
	refresher.Start(context.Background())
	refresher.Stop()

	require.GreaterOrEqual(t, provider.calls, 1, "initial warm-up should have scraped")
}
