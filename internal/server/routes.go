package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/speedgame/internal/game"
)

func addRoutes(r chi.Router, logger *slog.Logger, svc *game.Service, broker *Broker, limiter *IPRateLimiter) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("SpeedGame API", "/openapi.json", "/docs"))

	r.Route("/api/parties", func(r chi.Router) {
		r.Get("/", handleListParties(svc))
		r.Post("/", handleCreateParty(logger, svc))
		r.Delete("/", handleDeleteAllParties(svc))
		r.Get("/stored", handleListStoredParties(logger, svc))

		// These work on stored parties whether or not they are live.
		r.Delete("/{partyID}", handleDeleteParty(svc))
		r.Delete("/{partyID}/stored", handleDeleteStoredParty(logger, svc))
		r.Post("/{partyID}/load", handleLoadParty(logger, svc))

		r.Group(func(r chi.Router) {
			r.Use(partyMiddleware(logger, svc))

			r.Get("/{partyID}", handleGetParty())
			r.Post("/{partyID}/save", handleSaveParty(logger, svc))
			r.Post("/{partyID}/teams", handleCreateTeam(logger, svc))
			r.Delete("/{partyID}/teams/{teamID}", handleDeleteTeam(logger, svc))

			r.Post("/{partyID}/response", handleSetResponse(logger, svc))
			r.Post("/{partyID}/reset", handleResetResponses(logger, svc))
			r.Post("/{partyID}/resume", handleResumeResponses(logger, svc))
			r.Post("/{partyID}/timer/pause", handlePauseTimer(logger, svc))
			r.Post("/{partyID}/timer/reset", handleResetTimer(logger, svc))
			r.Post("/{partyID}/qcm/random", handleRandomQcm(logger, svc))

			r.Group(func(r chi.Router) {
				r.Use(rateLimit(limiter))
				r.Post("/{partyID}/teams/{teamID}/buzz", handleBuzz(logger, svc))
				r.Post("/{partyID}/teams/{teamID}/proposition", handleProposition(logger, svc))
				r.Post("/{partyID}/teams/{teamID}/qcm", handleQcmAnswer(logger, svc))
			})

			r.Get("/{partyID}/themes", handleListThemes(logger, svc))
			r.Post("/{partyID}/themes/generate", handleGenerateThemes(logger, svc))
			r.Post("/{partyID}/themes/show", handleShowThemes(logger, svc))
			r.Post("/{partyID}/themes/hide", handleHideThemes(logger, svc))
			r.Post("/{partyID}/themes/reset", handleResetThemeChoices(logger, svc))
			r.Post("/{partyID}/themes/{themeID}/select", handleSelectTheme(logger, svc))
			r.Post("/{partyID}/themes/{themeID}/choose", handleChooseTheme(logger, svc))

			r.Get("/{partyID}/events", handleEvents(broker))
			r.Get("/{partyID}/ws", handleWS(logger, broker))
		})
	})

	r.With(rateLimit(limiter)).Post("/api/teams/{teamID}/points", handleAddPoints(logger, svc))
	r.Post("/api/admin/questions/import", handleImportQuestions(logger, svc))
}
