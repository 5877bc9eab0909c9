package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cutroom/cutroom-engine/internal/export"
	"github.com/cutroom/cutroom-engine/internal/logging"
)

// exportEDLHandler flattens the current document into a CMX 3600 EDL and
// writes it under the caller's chosen directory. The document is the source
// of truth; the request only shapes the output.
func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.Request
		if !decode(w, r, &req) {
			return
		}

		if strings.ToLower(req.Format) != "edl" {
			WriteError(w, http.StatusBadRequest, "format must be edl", "BAD_REQUEST")
			return
		}
		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		title := export.SanitizeName(req.Title, 120)
		if title == "" {
			title = "cutroom_export"
		}
		frameRate := req.FrameRate
		if frameRate <= 0 {
			frameRate = 30.0
		}

		resolve := func(mediaFileID string) (string, bool) {
			file, err := cfg.Media.Get(r.Context(), mediaFileID)
			if err != nil || file == nil {
				return "", false
			}
			return file.Path, true
		}

		doc := cfg.Store.Document()
		events, unresolved := export.EventsFromDocument(doc, resolve)
		if len(events) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "no clips could be resolved", "UNRESOLVABLE_CLIPS")
			return
		}

		edl := export.GenerateEDL(events, title, frameRate)
		outputPath := filepath.Join(req.OutputDir, title+".edl")
		if err := os.WriteFile(outputPath, []byte(edl), 0o644); err != nil {
			cfg.Logger.Error("failed to write export file", "path", logging.SanitizePath(outputPath), "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		cfg.Logger.Info("timeline exported",
			"format", "edl",
			"events", len(events),
			"unresolved", len(unresolved))

		WriteJSON(w, http.StatusOK, export.Response{
			Status:          "ok",
			Format:          "edl",
			OutputPath:      outputPath,
			EventCount:      len(events),
			UnresolvedClips: unresolved,
		})
	}
}
