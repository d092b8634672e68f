package leaguesite

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rbakker/trmnl-standings/internal/domain/standings"
	"github.com/rbakker/trmnl-standings/internal/usecase"
)

const DefaultEredivisieURL = "https://eredivisie.nl/stand"

var eredivisieRowSelectors = []string{
	"table.standings tbody tr",
	"table tbody tr",
	"div.stand table tr",
}

// EredivisieProvider scrapes the Eredivisie standings page.
//
// Row layout: position, team, played, "wins|losses|draws", "for-against",
// goal difference, points.
type EredivisieProvider struct {
	client  *Client
	pageURL string
}

func NewEredivisieProvider(client *Client, pageURL string) *EredivisieProvider {
	if pageURL == "" {
		pageURL = DefaultEredivisieURL
	}
	return &EredivisieProvider{client: client, pageURL: pageURL}
}

func (p *EredivisieProvider) LeagueID() string { return standings.LeagueEredivisie }

func (p *EredivisieProvider) FetchStandings(ctx context.Context) (standings.Table, error) {
	doc, err := p.client.FetchDocument(ctx, p.pageURL)
	if err != nil {
		return standings.Table{}, err
	}

	rows, err := parseEredivisieTable(doc)
	if err != nil {
		return standings.Table{}, err
	}

	return standings.Table{
		LeagueID:  standings.LeagueEredivisie,
		Rows:      rows,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func parseEredivisieTable(doc *goquery.Document) ([]standings.Row, error) {
	var candidates []*goquery.Selection
	if selected := selectTableRows(doc, eredivisieRowSelectors, minReasonableRows); selected != nil {
		selected.Each(func(_ int, row *goquery.Selection) {
			candidates = append(candidates, row)
		})
	} else {
		candidates = scanRows(doc, func(cells []*goquery.Selection) bool {
			if len(cells) < 7 {
				return false
			}
			pos := cellText(cells, 0)
			return isDigits(pos) && safeInt(pos) >= 1 && safeInt(pos) <= 18
		})
	}

	rows := make([]standings.Row, 0, len(candidates))
	for i, candidate := range candidates {
		cells := rowCells(candidate)
		if len(cells) < 7 {
			continue
		}

		team := cleanTeamName(cells[1].Text())
		if len(team) < 2 {
			continue
		}

		position := safeInt(cellText(cells, 0))
		if position == 0 {
			position = i + 1
		}

		row := standings.Row{
			Position:       position,
			Team:           team,
			Played:         safeInt(cellText(cells, 2)),
			GoalDifference: safeInt(cellText(cells, 5)),
			Points:         safeInt(cellText(cells, 6)),
		}

		// The page packs wins, losses and draws into one pipe-separated cell.
		if wld := splitInts(cellText(cells, 3), "|"); len(wld) == 3 {
			row.Won = wld[0]
			row.Lost = wld[1]
			row.Drawn = wld[2]
		}
		if goals := splitInts(cellText(cells, 4), "-"); len(goals) == 2 {
			row.GoalsFor = goals[0]
			row.GoalsAgainst = goals[1]
		}

		rows = append(rows, row)
	}

	if len(rows) < minReasonableRows {
		return nil, fmt.Errorf("%w: eredivisie page yielded %d rows, layout may have changed",
			usecase.ErrDependencyUnavailable, len(rows))
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })
	return rows, nil
}
