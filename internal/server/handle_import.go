package server

import (
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/playperu/speedgame/internal/game"
)

// 8 MiB is far more than any question sheet.
const maxImportBytes = 8 << 20

// handleImportQuestions accepts a CSV sheet either as the raw body or as the
// "file" field of a multipart form.
func handleImportQuestions(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
		defer r.Body.Close()

		var src io.Reader = r.Body
		if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
			f, _, err := r.FormFile("file")
			if err != nil {
				writeError(w, http.StatusBadRequest, "file field required")
				return
			}
			defer f.Close()
			src = f
		}

		n, err := svc.ImportQuestions(r.Context(), src)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ImportResponse{Inserted: n})
	}
}
