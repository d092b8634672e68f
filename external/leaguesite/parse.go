package leaguesite

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// League pages need at least this many parsed rows before we trust the
// result. Both leagues field 18+ teams, so fewer rows means the page
// layout changed under us.
const minReasonableRows = 10

// cleanTeamName collapses whitespace and strips the asterisks some pages
// append to mark point deductions.
func cleanTeamName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	name = strings.ReplaceAll(name, "*", "")
	return strings.TrimSpace(name)
}

// safeInt extracts the first signed integer from a cell, tolerating
// units and surrounding markup text.
func safeInt(raw string) int {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '-' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			break
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

// splitInts parses a compound cell like "12|3|4" or "45-19" into its
// numeric parts.
func splitInts(raw, sep string) []int {
	parts := strings.Split(strings.TrimSpace(raw), sep)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		out = append(out, safeInt(p))
	}
	return out
}

func cellText(cells []*goquery.Selection, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx].Text())
}

func rowCells(row *goquery.Selection) []*goquery.Selection {
	var cells []*goquery.Selection
	row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, cell)
	})
	return cells
}

// selectTableRows tries each selector in order and returns the first match
// with at least minRows rows. League sites shuffle their markup between
// seasons, so a single selector is never enough.
func selectTableRows(doc *goquery.Document, selectors []string, minRows int) *goquery.Selection {
	for _, selector := range selectors {
		rows := doc.Find(selector)
		if rows.Length() >= minRows {
			return rows
		}
	}
	return nil
}

// scanRows collects every table row the keep predicate accepts. It is the
// last-resort path when none of the known selectors match.
func scanRows(doc *goquery.Document, keep func(cells []*goquery.Selection) bool) []*goquery.Selection {
	var out []*goquery.Selection
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if keep(rowCells(row)) {
			out = append(out, row)
		}
	})
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
