package leaguesite

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rbakker/trmnl-standings/internal/domain/standings"
	"github.com/rbakker/trmnl-standings/internal/usecase"
)

const DefaultKKDURL = "https://keukenkampioendivisie.nl/stand"

var kkdRowSelectors = []string{
	"table tbody tr",
	"div.standings table tr",
}

// KKDProvider scrapes the Keuken Kampioen Divisie standings page.
//
// Row layout: the position sits in the second cell, the team name in a
// lg-only bold cell (with an image alt as fallback), then played,
// "won/drawn/lost", points, "for/against" and goal difference.
type KKDProvider struct {
	client  *Client
	pageURL string
}

func NewKKDProvider(client *Client, pageURL string) *KKDProvider {
	if pageURL == "" {
		pageURL = DefaultKKDURL
	}
	return &KKDProvider{client: client, pageURL: pageURL}
}

func (p *KKDProvider) LeagueID() string { return standings.LeagueKKD }

func (p *KKDProvider) FetchStandings(ctx context.Context) (standings.Table, error) {
	doc, err := p.client.FetchDocument(ctx, p.pageURL)
	if err != nil {
		return standings.Table{}, err
	}

	rows, err := parseKKDTable(doc)
	if err != nil {
		return standings.Table{}, err
	}

	return standings.Table{
		LeagueID:  standings.LeagueKKD,
		Rows:      rows,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func parseKKDTable(doc *goquery.Document) ([]standings.Row, error) {
	var candidates []*goquery.Selection
	if selected := selectTableRows(doc, kkdRowSelectors, minReasonableRows); selected != nil {
		selected.Each(func(_ int, row *goquery.Selection) {
			candidates = append(candidates, row)
		})
	} else {
		candidates = scanRows(doc, func(cells []*goquery.Selection) bool {
			if len(cells) < 9 {
				return false
			}
			pos := cellText(cells, 1)
			return isDigits(pos) && safeInt(pos) >= 1 && safeInt(pos) <= 20
		})
	}

	rows := make([]standings.Row, 0, len(candidates))
	for i, candidate := range candidates {
		cells := rowCells(candidate)
		if len(cells) < 9 {
			continue
		}

		team := kkdTeamName(candidate, cells)
		if len(team) < 2 {
			continue
		}

		position := safeInt(cellText(cells, 1))
		if position == 0 {
			position = i + 1
		}

		row := standings.Row{
			Position:       position,
			Team:           team,
			Played:         safeInt(cellText(cells, 4)),
			Points:         safeInt(cellText(cells, 6)),
			GoalDifference: safeInt(cellText(cells, 8)),
		}

		if wgv := splitInts(cellText(cells, 5), "/"); len(wgv) == 3 {
			row.Won = wgv[0]
			row.Drawn = wgv[1]
			row.Lost = wgv[2]
		}
		if goals := splitInts(cellText(cells, 7), "/"); len(goals) == 2 {
			row.GoalsFor = goals[0]
			row.GoalsAgainst = goals[1]
		}

		rows = append(rows, row)
	}

	if len(rows) < minReasonableRows {
		return nil, fmt.Errorf("%w: kkd page yielded %d rows, layout may have changed",
			usecase.ErrDependencyUnavailable, len(rows))
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })
	return rows, nil
}

// kkdTeamName resolves the club name from the widescreen name cell, the
// club logo alt text, or the compact name column, in that order.
func kkdTeamName(row *goquery.Selection, cells []*goquery.Selection) string {
	if name := cleanTeamName(row.Find(`td.font-bold.hidden.lg\:table-cell a`).First().Text()); len(name) >= 2 {
		return name
	}
	if alt, ok := row.Find("img[alt]").First().Attr("alt"); ok {
		if name := cleanTeamName(strings.TrimSuffix(alt, " logo")); len(name) >= 2 {
			return name
		}
	}
	return cleanTeamName(cellText(cells, 3))
}
