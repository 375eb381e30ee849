// Package server translates HTTP requests to and from the scheduling
// services.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"boathouse/internal/domain"
	"boathouse/internal/eligibility"
	"boathouse/internal/repository"
	"boathouse/internal/service"
	"boathouse/internal/slots"

	"github.com/go-chi/chi/v5"
)

type Server struct {
	reservations *service.ReservationService
	suggestions  *service.SuggestionService
	membersSvc   *service.MemberService
	reconcile    *service.ReconcileService
	gate         *eligibility.Gate
}

func New(
	reservations *service.ReservationService,
	suggestions *service.SuggestionService,
	membersSvc *service.MemberService,
	reconcile *service.ReconcileService,
	gate *eligibility.Gate,
) *Server {
	return &Server{
		reservations: reservations,
		suggestions:  suggestions,
		membersSvc:   membersSvc,
		reconcile:    reconcile,
		gate:         gate,
	}
}

// Routes mounts every endpoint on a chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/boats/suggestions", s.handleSuggestions)
		r.Get("/boats/{id}/slots", s.handleAvailableSlots)
		r.Post("/reservations", s.handleBook)
		r.Post("/reservations/{id}/checkin", s.handleCheckIn)
		r.Post("/reservations/{id}/checkout", s.handleCheckOut)
		r.Post("/reservations/{id}/cancel", s.handleCancel)
		r.Get("/members/{id}/progress", s.handleProgress)
		r.Get("/members/{id}/notifications", s.handleNotifications)
		r.Get("/classes", s.handleClasses)
		r.Post("/admin/reconcile", s.handleReconcile)
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps the service error taxonomy to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var denied *service.EligibilityError
	switch {
	case errors.As(err, &denied):
		writeJSON(w, http.StatusForbidden, map[string]any{
			"allowed": false,
			"check":   denied.Result.Check,
			"reason":  denied.Result.Reason,
		})
	case errors.Is(err, repository.ErrCapacityConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, slots.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	memberID := r.URL.Query().Get("member_id")
	if memberID == "" {
		writeError(w, http.StatusBadRequest, "member_id is required")
		return
	}

	out, err := s.suggestions.Suggest(r.Context(), memberID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": out})
}

func (s *Server) handleAvailableSlots(w http.ResponseWriter, r *http.Request) {
	boatID := chi.URLParam(r, "id")
	date := r.URL.Query().Get("date")
	duration := r.URL.Query().Get("duration")

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	durationMinutes, err := strconv.Atoi(duration)
	if err != nil || durationMinutes <= 0 {
		writeError(w, http.StatusBadRequest, "duration must be a positive number of minutes")
		return
	}

	free, err := s.reservations.AvailableSlots(r.Context(), boatID, day, durationMinutes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if free == nil {
		free = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": free})
}

type bookRequest struct {
	MemberID        string    `json:"member_id"`
	BoatID          string    `json:"boat_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.MemberID == "" || req.BoatID == "" {
		writeError(w, http.StatusBadRequest, "member_id and boat_id are required")
		return
	}

	res, err := s.reservations.Book(r.Context(), req.MemberID, req.BoatID, req.StartTime, req.DurationMinutes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	if err := s.reservations.CheckIn(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "checked_in"})
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	up, err := s.reservations.CheckOut(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "completed",
		"leveled_up":       up.LeveledUp,
		"old_level":        up.OldLevel,
		"new_level":        up.NewLevel,
		"rewards_unlocked": up.RewardsUnlocked,
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.reservations.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.membersSvc.Progress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	feed, err := s.membersSvc.Notifications(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if feed.Items == nil {
		feed.Items = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": feed.Items,
		"total":         feed.Total,
	})
}

func (s *Server) handleClasses(w http.ResponseWriter, _ *http.Request) {
	out := make([]map[string]any, 0, len(domain.Classes()))
	for _, class := range domain.Classes() {
		req, ok := s.gate.Requirement(class)
		if !ok {
			continue
		}
		out = append(out, map[string]any{
			"class":                class,
			"min_level":            req.MinLevel,
			"min_outdoor_workouts": req.MinOutdoorWorkouts,
			"tank_required":        req.TankRequired,
			"crew_size":            req.CrewSize,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"classes": out})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	results := s.reconcile.Run(r.Context())

	out := make([]map[string]any, 0, len(results))
	for _, res := range results {
		step := map[string]any{"step": res.Name, "count": res.Count}
		if res.Err != nil {
			step["error"] = res.Err.Error()
		}
		out = append(out, step)
	}
	writeJSON(w, http.StatusOK, map[string]any{"steps": out})
}
