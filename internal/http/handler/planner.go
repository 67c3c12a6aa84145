package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"dayplan/internal/auth"
	"dayplan/internal/planner"

	"github.com/go-chi/chi/v5"
)

type PlannerHandler struct {
	Svc *planner.Service
}

func (h *PlannerHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if chi.URLParam(r, "userId") != uid {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	doc, err := h.Svc.GetPlanner(r.Context(), uid)
	if err != nil {
		if errors.Is(err, planner.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}
