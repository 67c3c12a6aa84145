package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"dayplan/internal/auth"
	"dayplan/internal/planner"

	"github.com/go-chi/chi/v5"
)

type GoalsHandler struct {
	Svc *planner.Service
}

func (h *GoalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if chi.URLParam(r, "userId") != uid {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	goals, err := h.Svc.GetGoals(r.Context(), uid)
	if err != nil {
		if errors.Is(err, planner.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(goals)
}

type updateGoalsReq struct {
	WeeklyTextGoal    *string `json:"weeklyTextGoal"`
	WeeklyNumericGoal *int    `json:"weeklyNumericGoal"`
}

func (h *GoalsHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if chi.URLParam(r, "userId") != uid {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req updateGoalsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.WeeklyTextGoal == nil && req.WeeklyNumericGoal == nil {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}
	if req.WeeklyNumericGoal != nil && *req.WeeklyNumericGoal < 1 {
		http.Error(w, "numeric goal must be positive", http.StatusBadRequest)
		return
	}

	goals, err := h.Svc.UpdateGoals(r.Context(), uid, req.WeeklyTextGoal, req.WeeklyNumericGoal)
	if err != nil {
		var cd *planner.CooldownError
		switch {
		case errors.As(err, &cd):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":          fmt.Sprintf("goals can be updated once every 24 hours, try again in %d hour(s)", cd.RemainingHours()),
				"remainingHours": cd.RemainingHours(),
			})
		case errors.Is(err, planner.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		default:
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(goals)
}
