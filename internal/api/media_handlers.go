package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func registerMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterMediaRequest
		if !decode(w, r, &req) {
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		file, err := cfg.Media.Register(r.Context(), req.Path)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_MEDIA")
			return
		}
		WriteJSON(w, http.StatusCreated, file)
	}
}

func listMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := cfg.Media.List(r.Context())
		if err != nil {
			cfg.Logger.Error("failed to list media", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to list media", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, MediaResponse{Files: files})
	}
}

func removeMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.Media.Remove(r.Context(), id); err != nil {
			cfg.Logger.Error("failed to remove media", "media_file_id", id, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to remove media", "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func probeMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		job, err := cfg.Jobs.EnqueueProbe(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, job)
	}
}

func refreshProxyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		file, err := cfg.Media.RefreshProxyStatus(r.Context(), id)
		if err != nil {
			cfg.Logger.Error("failed to refresh proxy status", "media_file_id", id, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to refresh proxy status", "INTERNAL_ERROR")
			return
		}
		if file == nil {
			WriteError(w, http.StatusNotFound, "media file not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, file)
	}
}

func rescanMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Poller.Sweep(r.Context()); err != nil {
			cfg.Logger.Error("media rescan failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "media rescan failed", "INTERNAL_ERROR")
			return
		}
		files, err := cfg.Media.List(r.Context())
		if err != nil {
			cfg.Logger.Error("failed to list media", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to list media", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, MediaResponse{Files: files})
	}
}

// playbackHandler streams media bytes for the preview player. The streamer
// decides between original and proxy rendition.
func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("fileId")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "fileId query parameter required", "BAD_REQUEST")
			return
		}

		file, err := cfg.Media.Get(r.Context(), id)
		if err != nil {
			cfg.Logger.Error("failed to load media", "media_file_id", id, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to load media", "INTERNAL_ERROR")
			return
		}
		if file == nil {
			WriteError(w, http.StatusNotFound, "media file not found", "NOT_FOUND")
			return
		}
		if !file.Online {
			WriteError(w, http.StatusNotFound, "media file is offline", "MEDIA_OFFLINE")
			return
		}

		if err := cfg.Playback.ServeMedia(w, r, file); err != nil {
			cfg.Logger.Error("playback failed", "media_file_id", id, "error", err)
		}
	}
}
