package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/playperu/speedgame/internal/game"
	"github.com/playperu/speedgame/internal/speedgame"
)

// maxDurationSeconds bounds a timed round to one hour.
const maxDurationSeconds = 3600

func handleSetResponse(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResponseRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rt, err := speedgame.ParseResponseType(req.Type)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var duration *time.Duration
		if req.DurationSeconds != nil {
			if n := *req.DurationSeconds; n <= 0 || n > maxDurationSeconds {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("durationSeconds must be between 1 and %d", maxDurationSeconds))
				return
			}
			d := time.Duration(*req.DurationSeconds) * time.Second
			duration = &d
		}

		p := partyFrom(r)
		if err := svc.State().SetCurrentResponse(p.ID(), rt, duration); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, p.Snapshot())
	}
}

func handleResetResponses(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := partyFrom(r)
		if err := svc.State().ResetTeam(p.ID()); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, p.Snapshot())
	}
}

func handleResumeResponses(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := partyFrom(r)
		if err := svc.State().ResumeResponse(p.ID()); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, p.Snapshot())
	}
}

func handlePauseTimer(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := partyFrom(r)
		if _, err := svc.State().PauseTimer(p.ID()); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, p.Snapshot())
	}
}

func handleResetTimer(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := partyFrom(r)
		if err := svc.State().ResetTimer(p.ID()); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, p.Snapshot())
	}
}

func handleRandomQcm(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := svc.SetRandomQcm(r.Context(), partyFrom(r).ID())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func handleBuzz(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, ok := uuidParam(w, r, "teamID")
		if !ok {
			return
		}
		accepted, err := svc.State().BuzzTeam(partyFrom(r).ID(), teamID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, AcceptedResponse{Accepted: accepted})
	}
}

func handleProposition(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, ok := uuidParam(w, r, "teamID")
		if !ok {
			return
		}
		var req AnswerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		accepted, err := svc.State().PropositionTeam(partyFrom(r).ID(), teamID, req.Text)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, AcceptedResponse{Accepted: accepted})
	}
}

func handleQcmAnswer(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID, ok := uuidParam(w, r, "teamID")
		if !ok {
			return
		}
		var req AnswerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		valid, err := svc.State().PropositionQcmTeam(partyFrom(r).ID(), teamID, req.Text)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, QcmAnswerResponse{Valid: valid})
	}
}
