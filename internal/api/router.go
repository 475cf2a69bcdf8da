package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/season-engine/internal/api/handlers"
	"github.com/ramonehamilton/season-engine/internal/api/response"
	"github.com/ramonehamilton/season-engine/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	s.router.Get("/ws", s.wsHub.ServeWs)

	svc := s.services
	s.router.Route("/api/v1", func(r chi.Router) {
		saveHandler := handlers.NewSaveHandler(svc.Store)
		standingsHandler := handlers.NewStandingsHandler(svc.Standings, svc.Store, svc.Metrics)
		scorerHandler := handlers.NewScorerHandler(svc.Ranker, svc.Metrics)
		scheduleHandler := handlers.NewScheduleHandler(svc.Scheduler, svc.Finalizer, svc.Metrics)
		statsHandler := handlers.NewStatsHandler(svc.Projector, svc.Metrics)
		matchHandler := handlers.NewMatchHandler(svc.Engine, svc.Store, svc.Dispatcher, svc.Metrics)
		systemHandler := handlers.NewSystemHandler(svc.Metrics)

		// Query contract and season administration, scoped to a save
		r.Get("/saves", saveHandler.ListSaves)
		r.Post("/saves", saveHandler.CreateSave)
		r.Route("/saves/{saveID}", func(r chi.Router) {
			r.Get("/", saveHandler.GetSave)
			r.Get("/standings", standingsHandler.GetStandings)
			r.Get("/standings/chart", standingsHandler.GetStandingsChart)
			r.Get("/scorers", scorerHandler.GetTopScorers)
			r.Get("/scorers/historical", scorerHandler.GetHistoricalScorers)
			r.Post("/matchdays/{matchdayID}/finalize", scheduleHandler.FinalizeMatchday)
			r.Post("/schedule/league", scheduleHandler.ScheduleLeague)
			r.Post("/schedule/cup", scheduleHandler.ScheduleCup)
			r.Post("/schedule/cup/advance", scheduleHandler.AdvanceCup)
			r.Post("/stats/project", statsHandler.ProjectSave)
			r.Get("/teams/{teamID}/form", saveHandler.GetTeamForm)
		})

		// Trigger contract called by the match simulator
		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Post("/kickoff", matchHandler.Kickoff)
			r.Get("/state", matchHandler.GetState)
			r.Post("/substitutions", matchHandler.Substitute)
			r.Post("/substitutions/auto", matchHandler.AutoSubstitute)
			r.Post("/pause", matchHandler.Pause)
			r.Post("/resume", matchHandler.Resume)
			r.Post("/events", matchHandler.LogEvent)
			r.Post("/result", matchHandler.RecordResult)
			r.Post("/project", statsHandler.ProjectMatch)
		})

		r.Route("/system", func(r chi.Router) {
			r.Get("/metrics", systemHandler.GetMetrics)
			r.Get("/version", systemHandler.GetVersion)
		})
	})
}

// healthCheck returns the server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]interface{}{
		"status":     "healthy",
		"version":    version.GetVersion(),
		"ws_clients": s.wsHub.ClientCount(),
		"observers":  s.services.Dispatcher.Stats(),
	})
}
