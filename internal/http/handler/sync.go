package handler

import (
	"encoding/json"
	"net/http"

	"dayplan/internal/auth"
	"dayplan/internal/planner"
)

type SyncHandler struct {
	Svc *planner.Service
}

type syncReq struct {
	User struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Image string `json:"image"`
	} `json:"user"`
	Planner planner.Document `json:"planner"`
}

// Sync merges the uploaded document into the caller's stored planner.
// The user id always comes from the token, never from the body.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req syncReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	user := planner.User{
		ID:    uid,
		Email: req.User.Email,
		Name:  req.User.Name,
		Image: req.User.Image,
	}

	if err := h.Svc.Sync(r.Context(), user, req.Planner); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
}
