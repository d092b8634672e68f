package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /{$}", handler.Root)
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerStandingsRoutes(mux *http.ServeMux, handler *Handler, apiKey string) {
	mux.Handle("GET /standings", RequireAPIKey(apiKey, http.HandlerFunc(handler.GetStandings)))
	mux.Handle("GET /kkd-standings", RequireAPIKey(apiKey, http.HandlerFunc(handler.GetKKDStandings)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/refresh", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRefreshJob)))
}
