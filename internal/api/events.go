package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/city-events-scraper/internal/event"
)

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := event.ListOptions{
		Sort:  q.Get("sort"),
		Order: event.SortOrder(q.Get("order")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		opts.Limit = limit
	}

	records, err := s.deps.Events.List(r.Context(), opts)
	if err != nil {
		if errors.Is(err, event.ErrInvalidListOptions) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("list events failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if records == nil {
		records = []event.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.deps.Events.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		s.logger.Error("get event failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load event")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
