package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skosovsky/promptstash"
)

// ListFavorites handles GET /api/favorites.
func (h *handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, h.Favorites != nil) {
		return
	}
	writeJSON(w, http.StatusOK, IDListResponse{IDs: nonNil(h.Favorites.List(r.Context()))})
}

// AddFavorite handles PUT /api/favorites/{id}.
func (h *handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, true)
}

// RemoveFavorite handles DELETE /api/favorites/{id}.
func (h *handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, false)
}

func (h *handler) setFavorite(w http.ResponseWriter, r *http.Request, fav bool) {
	if !h.require(w, h.Favorites != nil) {
		return
	}
	id := chi.URLParam(r, "id")
	var err error
	if fav {
		err = h.Favorites.Add(r.Context(), id)
	} else {
		err = h.Favorites.Remove(r.Context(), id)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.trackFavorite(r, id, fav)
	writeJSON(w, http.StatusOK, FavoriteResponse{ID: id, Favorite: fav})
}

// ToggleFavorite handles POST /api/favorites/{id}/toggle.
func (h *handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, h.Favorites != nil) {
		return
	}
	id := chi.URLParam(r, "id")
	fav, err := h.Favorites.Toggle(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.trackFavorite(r, id, fav)
	writeJSON(w, http.StatusOK, FavoriteResponse{ID: id, Favorite: fav})
}

// ClearFavorites handles DELETE /api/favorites.
func (h *handler) ClearFavorites(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, h.Favorites != nil) {
		return
	}
	if err := h.Favorites.Clear(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) trackFavorite(r *http.Request, id string, fav bool) {
	event := promptstash.EventFavoriteRemoved
	if fav {
		event = promptstash.EventFavoriteAdded
	}
	h.Tracker.Track(r.Context(), event, map[string]string{"template_id": id})
}

// ListRecents handles GET /api/recents, most recent first.
func (h *handler) ListRecents(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, h.Recents != nil) {
		return
	}
	writeJSON(w, http.StatusOK, IDListResponse{IDs: nonNil(h.Recents.List(r.Context()))})
}

// ClearRecents handles DELETE /api/recents.
func (h *handler) ClearRecents(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, h.Recents != nil) {
		return
	}
	if err := h.Recents.Clear(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetVariables handles GET /api/templates/{id}/variables.
func (h *handler) GetVariables(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, h.Variables != nil) {
		return
	}
	writeJSON(w, http.StatusOK, h.Variables.Get(r.Context(), chi.URLParam(r, "id")))
}

// SaveVariables handles PUT /api/templates/{id}/variables, replacing all saved values.
func (h *handler) SaveVariables(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, h.Variables != nil) {
		return
	}
	var vals map[string]string
	if !decodeJSON(w, r, &vals) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Variables.Save(r.Context(), id, vals); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Variables.Get(r.Context(), id))
}

// UpdateVariable handles PATCH /api/templates/{id}/variables, setting one value.
func (h *handler) UpdateVariable(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, h.Variables != nil) {
		return
	}
	var req UpdateVariableRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", "bad_request")
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Variables.Update(r.Context(), id, req.Name, req.Value); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Variables.Get(r.Context(), id))
}

// ClearVariables handles DELETE /api/templates/{id}/variables.
func (h *handler) ClearVariables(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, h.Variables != nil) {
		return
	}
	if err := h.Variables.Clear(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearAllVariables handles DELETE /api/variables.
func (h *handler) ClearAllVariables(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, h.Variables != nil) {
		return
	}
	if err := h.Variables.ClearAll(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile handles GET /api/profile.
func (h *handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, h.Profile != nil) {
		return
	}
	writeJSON(w, http.StatusOK, ProfileBody{Profile: h.Profile.Get(r.Context())})
}

// SaveProfile handles PUT /api/profile.
func (h *handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, h.Profile != nil) {
		return
	}
	var body ProfileBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.Profile.Save(r.Context(), body.Profile); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// ClearProfile handles DELETE /api/profile.
func (h *handler) ClearProfile(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, h.Profile != nil) {
		return
	}
	if err := h.Profile.Clear(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) require(w http.ResponseWriter, ok bool) bool {
	if !ok {
		writeError(w, http.StatusNotImplemented, "preference store not configured", "not_configured")
	}
	return ok
}
