package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func saveProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveProjectRequest
		if !decode(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			WriteError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
			return
		}

		p, err := cfg.Projects.Save(r.Context(), req.Name)
		if err != nil {
			cfg.Logger.Error("failed to save project", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to save project", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusCreated, ProjectToResponse(p))
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := cfg.Projects.List(r.Context())
		if err != nil {
			cfg.Logger.Error("failed to list projects", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		out := make([]ProjectResponse, 0, len(list))
		for _, p := range list {
			out = append(out, ProjectToResponse(p))
		}
		WriteJSON(w, http.StatusOK, ProjectsResponse{Projects: out})
	}
}

func loadProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := cfg.Projects.Load(r.Context(), id)
		if err != nil {
			cfg.Logger.Error("failed to load project", "project_id", id, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to load project", "INTERNAL_ERROR")
			return
		}
		if p == nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.Projects.Delete(r.Context(), id); err != nil {
			cfg.Logger.Error("failed to delete project", "project_id", id, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to delete project", "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
