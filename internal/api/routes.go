package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cutroom/cutroom-engine/internal/jobs"
	"github.com/cutroom/cutroom-engine/internal/store"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Config, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/document", getDocumentHandler(cfg))
		r.Post("/document/undo", undoHandler(cfg))
		r.Post("/document/redo", redoHandler(cfg))

		r.Post("/tracks", addTrackHandler(cfg))
		r.Patch("/tracks/{id}", updateTrackHandler(cfg))
		r.Delete("/tracks/{id}", removeTrackHandler(cfg))
		r.Post("/tracks/{id}/reorder", reorderTrackHandler(cfg))

		r.Post("/clips", addClipHandler(cfg))
		r.Patch("/clips/{id}", updateClipHandler(cfg))
		r.Delete("/clips/{id}", removeClipHandler(cfg))
		r.Post("/clips/{id}/move", moveClipHandler(cfg))
		r.Post("/clips/{id}/trim", trimClipHandler(cfg))
		r.Post("/clips/{id}/split", splitClipHandler(cfg))
		r.Post("/clips/{id}/parent", setParentHandler(cfg))
		r.Post("/clips/{id}/property", setPropertyHandler(cfg))
		r.Get("/clips/{id}/evaluate", evaluateHandler(cfg))

		r.Post("/clips/{id}/keyframes", addKeyframeHandler(cfg))
		r.Patch("/clips/{id}/keyframes/{keyframeID}", updateKeyframeHandler(cfg))
		r.Post("/clips/{id}/keyframes/{keyframeID}/move", moveKeyframeHandler(cfg))
		r.Delete("/clips/{id}/keyframes/{keyframeID}", removeKeyframeHandler(cfg))

		r.Post("/markers", addMarkerHandler(cfg))
		r.Patch("/markers/{id}", updateMarkerHandler(cfg))
		r.Delete("/markers/{id}", removeMarkerHandler(cfg))

		r.Post("/clips/{id}/link", linkPairHandler(cfg))
		r.Post("/clips/{id}/unlink", unlinkPairHandler(cfg))
		r.Post("/groups", createGroupHandler(cfg))
		r.Delete("/groups/{id}", unlinkGroupHandler(cfg))

		r.Post("/view/playhead", setPlayheadHandler(cfg))
		r.Post("/view/zoom", setZoomHandler(cfg))
		r.Post("/view/scroll", setScrollHandler(cfg))
		r.Post("/view/snap", setSnapHandler(cfg))
		r.Post("/view/workarea", setWorkAreaHandler(cfg))
		r.Post("/view/playing", setPlayingHandler(cfg))

		r.Route("/session", sessionRoutes(cfg))
		r.Get("/selection", getSelectionHandler(cfg))
		r.Post("/selection", selectHandler(cfg))
		r.Post("/selection/toggle", toggleSelectHandler(cfg))
		r.Delete("/selection", clearSelectionHandler(cfg))

		r.Post("/sync", startSyncHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
		r.Post("/jobs/{id}/cancel", cancelJobHandler(cfg))

		r.Post("/projects", saveProjectHandler(cfg))
		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects/{id}/load", loadProjectHandler(cfg))
		r.Delete("/projects/{id}", deleteProjectHandler(cfg))

		r.Post("/export/edl", exportEDLHandler(cfg))

		r.Post("/media", registerMediaHandler(cfg))
		r.Get("/media", listMediaHandler(cfg))
		r.Delete("/media/{id}", removeMediaHandler(cfg))
		r.Post("/media/{id}/probe", probeMediaHandler(cfg))
		r.Post("/media/{id}/proxy/refresh", refreshProxyHandler(cfg))
		r.Post("/media/rescan", rescanMediaHandler(cfg))
		r.Get("/playback/file", playbackHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  "0.1.0",
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		files, _ := cfg.Media.List(ctx)
		recent, _ := cfg.JobsRepo.List(ctx, 10)

		state := "idle"
		var activeJob *jobs.Job
		jobsRunning := 0
		lastError := ""

		if cfg.Jobs != nil && cfg.Jobs.IsPaused() {
			state = "paused"
		}

		for _, j := range recent {
			if j.Status == jobs.StatusRunning {
				state = "syncing"
				activeJob = j
				jobsRunning++
			}
			if j.Status == jobs.StatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		resp := StatusResponse{
			State:       state,
			Revision:    cfg.Store.Document().Revision,
			LastError:   lastError,
			MediaCount:  len(files),
			JobsRunning: jobsRunning,
			ActiveJob:   activeJob,
		}

		if id, err := cfg.Config.GetConfig(ctx, "last_project_id"); err == nil && id != "" {
			if p, err := cfg.Projects.Get(ctx, id); err == nil && p != nil {
				meta := ProjectToResponse(p)
				resp.Project = &meta
			}
		}

		if cfg.Doctor != nil {
			if caps, err := cfg.Doctor.Get(ctx); err == nil {
				resp.Toolchain = caps
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func getDocumentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Store.Document())
	}
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, ok := cfg.Store.Undo()
		WriteJSON(w, http.StatusOK, store.Result{Applied: ok, Revision: doc.Revision})
	}
}

func redoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, ok := cfg.Store.Redo()
		WriteJSON(w, http.StatusOK, store.Result{Applied: ok, Revision: doc.Revision})
	}
}
