package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rsned/craftimizer-server/internal/craftimizer/engine"
	"github.com/rsned/craftimizer-server/pkg/craftimizer"
)

const (
	defaultSearchLimit = 25
	maxSearchLimit     = 200
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondEngineError maps calculator errors onto HTTP statuses. Invalid
// user values are the caller's fault; everything else is a storage fault.
func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidCost), errors.Is(err, engine.ErrNotTracked):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("engine failure", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleReadyz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.ready() {
			respondError(w, http.StatusServiceUnavailable, "catalog sync in progress")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleVersion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"version": Version})
	}
}

func (s *Server) handleSearchItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			respondError(w, http.StatusBadRequest, "missing query parameter q")
			return
		}

		limit := defaultSearchLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > maxSearchLimit {
				respondError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = parsed
		}

		items, err := s.catalog.SearchByName(r.Context(), query, limit)
		if err != nil {
			s.logger.Error("catalog search failed", "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func (s *Server) handleSetTracked() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req craftimizer.SetTrackedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.validate.Struct(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		for _, item := range req.Items {
			if item.AnkamaID == 0 && item.Name == "" {
				respondError(w, http.StatusBadRequest, "each item needs an ankama_id or a name")
				return
			}
		}

		result, err := s.calc.SetTrackedItems(r.Context(), req.Items)
		if err != nil {
			s.respondEngineError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleSetSellPrice() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		var req craftimizer.SellPriceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid sell price")
			return
		}

		rows, err := s.calc.SetSellPrice(name, req.SellPrice)
		if err != nil {
			s.respondEngineError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{"per_item": rows})
	}
}

func (s *Server) handleSetOverride() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		var req craftimizer.OverrideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			// Non-numeric input rejects the edit; prior state is kept
			respondError(w, http.StatusBadRequest, "invalid override cost")
			return
		}

		result, err := s.calc.SetOverride(r.Context(), name, req.Cost)
		if err != nil {
			s.respondEngineError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleSetIngredientCost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		var req craftimizer.IngredientCostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid ingredient cost")
			return
		}

		result, err := s.calc.SetIngredientCost(r.Context(), name, req.Cost)
		if err != nil {
			s.respondEngineError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleRecompute() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.calc.Recompute(r.Context())
		if err != nil {
			s.respondEngineError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}
