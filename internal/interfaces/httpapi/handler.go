package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rbakker/trmnl-standings/internal/domain/standings"
	"github.com/rbakker/trmnl-standings/internal/platform/logging"
	"github.com/rbakker/trmnl-standings/internal/usecase"
)

type Handler struct {
	standingsService *usecase.StandingsService
	refresher        *usecase.Refresher
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	standingsService *usecase.StandingsService,
	refresher *usecase.Refresher,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		standingsService: standingsService,
		refresher:        refresher,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Root")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "trmnl-standings",
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStandings")
	defer span.End()

	h.serveStandings(ctx, w, r, standings.LeagueEredivisie)
}

func (h *Handler) GetKKDStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetKKDStandings")
	defer span.End()

	h.serveStandings(ctx, w, r, standings.LeagueKKD)
}

func (h *Handler) serveStandings(ctx context.Context, w http.ResponseWriter, r *http.Request, leagueID string) {
	top, err := parseTopParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	table, err := h.standingsService.Get(ctx, leagueID, top)
	if err != nil {
		h.logger.WarnContext(ctx, "get standings failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tableToDTO(ctx, table))
}

// parseTopParam reads the optional top query parameter that narrows the
// response to the first N teams. Absent means the full table.
func parseTopParam(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("top"))
	if raw == "" {
		return 0, nil
	}

	top, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: top must be an integer", usecase.ErrInvalidInput)
	}
	if top < 1 {
		return 0, fmt.Errorf("%w: top must be greater than zero", usecase.ErrInvalidInput)
	}

	return top, nil
}

type standingsTableDTO struct {
	LeagueID    string            `json:"leagueId"`
	Standings   []standingsRowDTO `json:"standings"`
	LastUpdated string            `json:"lastUpdated"`
}

type standingsRowDTO struct {
	Position       int    `json:"position"`
	Team           string `json:"team"`
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Drawn          int    `json:"drawn"`
	Lost           int    `json:"lost"`
	GoalsFor       int    `json:"goalsFor"`
	GoalsAgainst   int    `json:"goalsAgainst"`
	GoalDifference int    `json:"goalDifference"`
	Points         int    `json:"points"`
}

func tableToDTO(ctx context.Context, table standings.Table) standingsTableDTO {
	ctx, span := startSpan(ctx, "httpapi.tableToDTO")
	defer span.End()

	rows := make([]standingsRowDTO, 0, len(table.Rows))
	for _, row := range table.Rows {
		rows = append(rows, standingsRowDTO{
			Position:       row.Position,
			Team:           row.Team,
			Played:         row.Played,
			Won:            row.Won,
			Drawn:          row.Drawn,
			Lost:           row.Lost,
			GoalsFor:       row.GoalsFor,
			GoalsAgainst:   row.GoalsAgainst,
			GoalDifference: row.GoalDifference,
			Points:         row.Points,
		})
	}

	return standingsTableDTO{
		LeagueID:    table.LeagueID,
		Standings:   rows,
		LastUpdated: table.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
