package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/speedgame/internal/game"
)

func handleListParties(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Parties())
	}
}

func handleListStoredParties(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := svc.ListStoredParties(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func handleCreateParty(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id, err := svc.CreateParty(r.Context(), req.Name)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		p, err := svc.GetParty(r.Context(), id)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, p.Snapshot())
	}
}

func handleGetParty() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, partyFrom(r).Snapshot())
	}
}

func handleDeleteParty(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "partyID")
		if !ok {
			return
		}
		svc.DeleteParty(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDeleteAllParties(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.DeleteAllParties()
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDeleteStoredParty(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "partyID")
		if !ok {
			return
		}
		if err := svc.DeleteStoredParty(r.Context(), id); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleLoadParty(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "partyID")
		if !ok {
			return
		}
		p, err := svc.LoadParty(r.Context(), id)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, p.Snapshot())
	}
}

func handleSaveParty(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.SaveParty(r.Context(), partyFrom(r).ID()); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleCreateTeam(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		p := partyFrom(r)
		id, err := svc.CreateTeam(r.Context(), p.ID(), req.Name)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		team, _ := p.Snapshot().Team(id)
		writeJSON(w, http.StatusCreated, team)
	}
}

func handleDeleteTeam(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, ok := uuidParam(w, r, "teamID")
		if !ok {
			return
		}
		if err := svc.DeleteTeam(r.Context(), partyFrom(r).ID(), teamID); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleAddPoints(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, ok := uuidParam(w, r, "teamID")
		if !ok {
			return
		}
		var req PointsRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		score, err := svc.AddPoints(r.Context(), teamID, req.Points)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, PointsResponse{TeamID: teamID, Score: score})
	}
}
