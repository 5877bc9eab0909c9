package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func startSyncHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SyncRequest
		if !decode(w, r, &req) {
			return
		}
		job, err := cfg.Jobs.EnqueueSync(r.Context(), req.MasterClipID, req.TargetClipIDs)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, job)
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := cfg.JobsRepo.List(r.Context(), 50)
		if err != nil {
			cfg.Logger.Error("failed to list jobs", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, JobsResponse{Jobs: list})
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		job, err := cfg.JobsRepo.Get(r.Context(), id)
		if err != nil {
			cfg.Logger.Error("failed to load job", "job_id", id, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to load job", "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, job)
	}
}

func cancelJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		job, err := cfg.Jobs.Cancel(r.Context(), id)
		if err != nil {
			cfg.Logger.Error("failed to cancel job", "job_id", id, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to cancel job", "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, job)
	}
}
