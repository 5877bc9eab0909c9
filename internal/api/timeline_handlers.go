package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cutroom/cutroom-engine/internal/store"
	"github.com/cutroom/cutroom-engine/internal/timeline"
)

// decode reads the JSON body into dst, answering 400 on garbage. Unknown
// enum values surface here too, before any op runs.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}

// applyOp pushes one mutation through the store and writes the outcome.
// Missing references come back applied=false with 200; rejections map
// through the error taxonomy.
func applyOp(w http.ResponseWriter, cfg ServerConfig, op store.Op) {
	res, err := cfg.Store.Apply(op)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// applyViewOp is applyOp for view state: the revision still moves but the
// change stays off the undo stack.
func applyViewOp(w http.ResponseWriter, cfg ServerConfig, op store.Op) {
	res, err := cfg.Store.ApplyView(op)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func addTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddTrackRequest
		if !decode(w, r, &req) {
			return
		}

		track := timeline.NewTrack(req.Name, req.Kind)
		res, err := cfg.Store.Apply(func(d timeline.Document) (timeline.Document, bool, error) {
			next, err := d.AddTrack(track)
			return next, err == nil, err
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, CreatedResponse{Applied: res.Applied, Revision: res.Revision, ID: track.ID})
	}
}

func updateTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch timeline.TrackPatch
		if !decode(w, r, &patch) {
			return
		}
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.UpdateTrack(id, patch)
		})
	}
}

func removeTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			next, applied := d.RemoveTrack(id)
			return next, applied, nil
		})
	}
}

func reorderTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req ReorderTrackRequest
		if !decode(w, r, &req) {
			return
		}
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			next, applied := d.ReorderTrack(id, req.Order)
			return next, applied, nil
		})
	}
}

func addClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddClipRequest
		if !decode(w, r, &req) {
			return
		}

		clip := timeline.NewClip(req.TrackID, req.Name, req.Source, req.StartTime, req.Duration)
		res, err := cfg.Store.Apply(func(d timeline.Document) (timeline.Document, bool, error) {
			return d.AddClip(clip)
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, CreatedResponse{Applied: res.Applied, Revision: res.Revision, ID: clip.ID})
	}
}

func updateClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch timeline.ClipPatch
		if !decode(w, r, &patch) {
			return
		}
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.UpdateClip(id, patch)
		})
	}
}

func removeClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			next, applied := d.RemoveClip(id)
			return next, applied, nil
		})
	}
}

func moveClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req MoveClipRequest
		if !decode(w, r, &req) {
			return
		}
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.MoveClip(id, req.StartTime, req.TrackID, req.SkipLinked)
		})
	}
}

func trimClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req TrimClipRequest
		if !decode(w, r, &req) {
			return
		}
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.TrimClip(id, req.InPoint, req.OutPoint)
		})
	}
}

func splitClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req SplitClipRequest
		if !decode(w, r, &req) {
			return
		}
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.SplitClip(id, req.Time)
		})
	}
}

func setParentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req SetParentRequest
		if !decode(w, r, &req) {
			return
		}
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.SetClipParent(id, req.ParentID)
		})
	}
}

func setPropertyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req SetPropertyRequest
		if !decode(w, r, &req) {
			return
		}
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.SetPropertyValue(id, req.Property, req.Value)
		})
	}
}

// evaluateHandler answers every render query for one clip at one local time:
// transform, effects, volume and the mapped source time.
func evaluateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		localTime, err := strconv.ParseFloat(r.URL.Query().Get("time"), 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "time query parameter required", "BAD_REQUEST")
			return
		}

		doc := cfg.Store.Document()
		clip, ok := doc.ClipByID(id)
		if !ok {
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		}

		transform, _ := doc.TransformAt(id, localTime)
		effects, _ := doc.EffectsAt(id, localTime)
		volume, _ := doc.VolumeAt(id, localTime)
		sourceTime, _ := doc.SourceTimeAt(id, clip.StartTime+localTime)

		WriteJSON(w, http.StatusOK, EvaluateResponse{
			ClipID:     id,
			Time:       localTime,
			Transform:  transform,
			Effects:    effects,
			Volume:     volume,
			SourceTime: sourceTime,
		})
	}
}

func addKeyframeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var k timeline.Keyframe
		if !decode(w, r, &k) {
			return
		}
		if k.ID == "" {
			k.ID = timeline.NewID()
		}
		res, err := cfg.Store.Apply(func(d timeline.Document) (timeline.Document, bool, error) {
			return d.AddKeyframe(id, k)
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, CreatedResponse{Applied: res.Applied, Revision: res.Revision, ID: k.ID})
	}
}

func updateKeyframeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clipID := chi.URLParam(r, "id")
		keyframeID := chi.URLParam(r, "keyframeID")
		var patch timeline.KeyframePatch
		if !decode(w, r, &patch) {
			return
		}
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.UpdateKeyframe(clipID, keyframeID, patch)
		})
	}
}

func moveKeyframeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clipID := chi.URLParam(r, "id")
		keyframeID := chi.URLParam(r, "keyframeID")
		var req MoveKeyframeRequest
		if !decode(w, r, &req) {
			return
		}
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.MoveKeyframe(clipID, keyframeID, req.Time, req.Value)
		})
	}
}

func removeKeyframeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clipID := chi.URLParam(r, "id")
		keyframeID := chi.URLParam(r, "keyframeID")
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			next, applied := d.RemoveKeyframe(clipID, keyframeID)
			return next, applied, nil
		})
	}
}

func addMarkerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m timeline.Marker
		if !decode(w, r, &m) {
			return
		}
		if m.ID == "" {
			m.ID = timeline.NewID()
		}
		res, err := cfg.Store.Apply(func(d timeline.Document) (timeline.Document, bool, error) {
			next, err := d.AddMarker(m)
			return next, err == nil, err
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, CreatedResponse{Applied: res.Applied, Revision: res.Revision, ID: m.ID})
	}
}

func updateMarkerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch timeline.MarkerPatch
		if !decode(w, r, &patch) {
			return
		}
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.UpdateMarker(id, patch)
		})
	}
}

func removeMarkerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			next, applied := d.RemoveMarker(id)
			return next, applied, nil
		})
	}
}

func linkPairHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req LinkPairRequest
		if !decode(w, r, &req) {
			return
		}
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.LinkPair(id, req.PartnerID)
		})
	}
}

func unlinkPairHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			next, applied := d.UnlinkPair(id)
			return next, applied, nil
		})
	}
}

func createGroupHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGroupRequest
		if !decode(w, r, &req) {
			return
		}

		var group timeline.LinkedGroup
		res, err := cfg.Store.Apply(func(d timeline.Document) (timeline.Document, bool, error) {
			next, g, err := d.CreateGroup(req.ClipIDs, req.OffsetsMs)
			if err != nil {
				return d, false, err
			}
			group = g
			return next, true, nil
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, CreateGroupResponse{Applied: res.Applied, Revision: res.Revision, Group: group})
	}
}

func unlinkGroupHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		applyOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			next, applied := d.UnlinkGroup(id)
			return next, applied, nil
		})
	}
}

func setPlayheadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayheadRequest
		if !decode(w, r, &req) {
			return
		}
		applyViewOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			next, err := d.SetPlayhead(req.Time)
			return next, err == nil, err
		})
	}
}

func setZoomHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ZoomRequest
		if !decode(w, r, &req) {
			return
		}
		applyViewOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			next, err := d.SetZoom(req.PxPerSecond)
			return next, err == nil, err
		})
	}
}

func setScrollHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScrollRequest
		if !decode(w, r, &req) {
			return
		}
		applyViewOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.SetScroll(req.X, req.Y), true, nil
		})
	}
}

func setSnapHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ToggleRequest
		if !decode(w, r, &req) {
			return
		}
		applyViewOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.SetSnapEnabled(req.Enabled), true, nil
		})
	}
}

func setWorkAreaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req WorkAreaRequest
		if !decode(w, r, &req) {
			return
		}
		applyViewOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			next, err := d.SetWorkArea(req.In, req.Out)
			return next, err == nil, err
		})
	}
}

func setPlayingHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayingRequest
		if !decode(w, r, &req) {
			return
		}
		applyViewOp(w, cfg, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.SetPlaying(req.Playing), true, nil
		})
	}
}
