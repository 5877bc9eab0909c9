package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// sessionRoutes wires the interactive gesture endpoints. Every gesture is
// begin/update/commit/cancel; previews never touch the document, only
// commit does.
func sessionRoutes(cfg ServerConfig) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/drag/begin", beginDragHandler(cfg))
		r.Post("/drag/update", updateDragHandler(cfg))
		r.Post("/drag/commit", commitDragHandler(cfg))
		r.Post("/drag/cancel", cancelDragHandler(cfg))

		r.Post("/trim/begin", beginTrimHandler(cfg))
		r.Post("/trim/update", updateTrimHandler(cfg))
		r.Post("/trim/commit", commitTrimHandler(cfg))
		r.Post("/trim/cancel", cancelTrimHandler(cfg))

		r.Post("/marquee/begin", beginMarqueeHandler(cfg))
		r.Post("/marquee/update", updateMarqueeHandler(cfg))
		r.Post("/marquee/commit", commitMarqueeHandler(cfg))
		r.Post("/marquee/cancel", cancelMarqueeHandler(cfg))

		r.Post("/ruler/begin", beginRulerHandler(cfg))
		r.Post("/ruler/update", updateRulerHandler(cfg))
		r.Post("/ruler/commit", commitRulerHandler(cfg))
		r.Post("/ruler/cancel", cancelRulerHandler(cfg))

		r.Post("/cut/tool", setCutToolHandler(cfg))
		r.Post("/cut/hover", hoverCutHandler(cfg))
		r.Post("/cut/click", clickCutHandler(cfg))
	}
}

func beginDragHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BeginDragRequest
		if !decode(w, r, &req) {
			return
		}
		started, err := cfg.Sessions.BeginDrag(req.ClipID, req.X, req.Y)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SessionStartedResponse{Started: started})
	}
}

func updateDragHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PointerRequest
		if !decode(w, r, &req) {
			return
		}
		preview, err := cfg.Sessions.UpdateDrag(req.X, req.Y, req.Mods.toModifiers())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, preview)
	}
}

func commitDragHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := cfg.Sessions.CommitDrag()
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

func cancelDragHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, CancelledResponse{Cancelled: cfg.Sessions.CancelDrag()})
	}
}

func beginTrimHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BeginTrimRequest
		if !decode(w, r, &req) {
			return
		}
		started, err := cfg.Sessions.BeginTrim(req.ClipID, req.Edge, req.X)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SessionStartedResponse{Started: started})
	}
}

func updateTrimHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PointerRequest
		if !decode(w, r, &req) {
			return
		}
		preview, err := cfg.Sessions.UpdateTrim(req.X, req.Mods.toModifiers())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, preview)
	}
}

func commitTrimHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := cfg.Sessions.CommitTrim()
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

func cancelTrimHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, CancelledResponse{Cancelled: cfg.Sessions.CancelTrim()})
	}
}

func beginMarqueeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PointerRequest
		if !decode(w, r, &req) {
			return
		}
		if err := cfg.Sessions.BeginMarquee(req.X, req.Y, req.Mods.toModifiers()); err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SessionStartedResponse{Started: true})
	}
}

func updateMarqueeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PointerRequest
		if !decode(w, r, &req) {
			return
		}
		preview, err := cfg.Sessions.UpdateMarquee(req.X, req.Y)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, preview)
	}
}

func commitMarqueeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clipIDs, err := cfg.Sessions.CommitMarquee()
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SelectionResponse{ClipIDs: clipIDs})
	}
}

func cancelMarqueeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, CancelledResponse{Cancelled: cfg.Sessions.CancelMarquee()})
	}
}

// beginRulerHandler starts either flavor of ruler session; a markerId in
// the body grabs that marker, an empty one grabs the playhead.
func beginRulerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BeginRulerRequest
		if !decode(w, r, &req) {
			return
		}
		if req.MarkerID == "" {
			if err := cfg.Sessions.BeginPlayheadDrag(req.X); err != nil {
				writeDomainError(w, err)
				return
			}
			WriteJSON(w, http.StatusOK, SessionStartedResponse{Started: true})
			return
		}
		started, err := cfg.Sessions.BeginMarkerDrag(req.MarkerID, req.X)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SessionStartedResponse{Started: started})
	}
}

func updateRulerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PointerRequest
		if !decode(w, r, &req) {
			return
		}
		preview, err := cfg.Sessions.UpdateRuler(req.X, req.Mods.toModifiers())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, preview)
	}
}

func commitRulerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := cfg.Sessions.CommitRuler()
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

func cancelRulerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, CancelledResponse{Cancelled: cfg.Sessions.CancelRuler()})
	}
}

func setCutToolHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ToggleRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := cfg.Sessions.SetCutTool(req.Enabled)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

func hoverCutHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PointerRequest
		if !decode(w, r, &req) {
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Sessions.HoverCut(req.X, req.Y))
	}
}

func clickCutHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PointerRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := cfg.Sessions.ClickCut(req.X, req.Y)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

func getSelectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, SelectionResponse{
			ClipIDs:   cfg.Sessions.Selection(),
			Keyframes: cfg.Sessions.SelectedKeyframes(),
		})
	}
}

func selectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRequest
		if !decode(w, r, &req) {
			return
		}
		selected := cfg.Sessions.Select(req.ClipIDs...)
		WriteJSON(w, http.StatusOK, SelectionResponse{ClipIDs: selected})
	}
}

func toggleSelectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ToggleSelectRequest
		if !decode(w, r, &req) {
			return
		}
		selected := cfg.Sessions.ToggleSelect(req.ClipID)
		WriteJSON(w, http.StatusOK, SelectionResponse{ClipIDs: selected})
	}
}

func clearSelectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Sessions.ClearSelection()
		w.WriteHeader(http.StatusNoContent)
	}
}
