package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/speedgame/internal/game"
)

func handleListThemes(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		themes, err := svc.Themes().Themes(r.Context(), partyFrom(r).ID())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, themes)
	}
}

func handleGenerateThemes(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.Themes().GenerateThemes(partyFrom(r).ID())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, CountResponse{Count: n})
	}
}

func handleShowThemes(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.Themes().ShowThemes(partyFrom(r).ID())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, CountResponse{Count: n})
	}
}

func handleHideThemes(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Themes().HideThemes(partyFrom(r).ID()); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleResetThemeChoices(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Themes().ResetThemesChoices(partyFrom(r).ID()); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSelectTheme(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardID, ok := uuidParam(w, r, "themeID")
		if !ok {
			return
		}
		if err := svc.Themes().SelectTheme(partyFrom(r).ID(), cardID); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleChooseTheme(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		themeID, ok := uuidParam(w, r, "themeID")
		if !ok {
			return
		}
		var req ChooseThemeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		accepted, err := svc.Themes().ChoiceTheme(partyFrom(r).ID(), req.TeamID, themeID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, AcceptedResponse{Accepted: accepted})
	}
}
