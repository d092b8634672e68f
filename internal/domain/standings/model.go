package standings

import "time"

const (
	LeagueEredivisie = "eredivisie"
	LeagueKKD        = "kkd"
)

// Row is one team's line in a league table.
type Row struct {
	Position       int
	Team           string
	Played         int
	Won            int
	Drawn          int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	Points         int
}

// Table is a freshly scraped league table. It is never persisted; it lives
// for the duration of a cache entry at most.
type Table struct {
	LeagueID  string
	Rows      []Row
	UpdatedAt time.Time
}

// League describes one supported competition.
type League struct {
	ID        string
	Name      string
	TeamCount int
}

func SupportedLeagues() []League {
	return []League{
		{ID: LeagueEredivisie, Name: "Eredivisie", TeamCount: 18},
		{ID: LeagueKKD, Name: "Keuken Kampioen Divisie", TeamCount: 20},
	}
}

func LeagueByID(id string) (League, bool) {
	for _, l := range SupportedLeagues() {
		if l.ID == id {
			return l, true
		}
	}
	return League{}, false
}
