package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/city-events-scraper/internal/event"
)

type subscribeRequest struct {
	Email   string `json:"email"`
	OptIn   bool   `json:"optIn"`
	EventID string `json:"eventId"`
}

type subscribeResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	TicketURL string `json:"ticketUrl"`
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "a valid email address is required")
		return
	}
	if req.EventID == "" {
		writeError(w, http.StatusBadRequest, "eventId is required")
		return
	}

	ctx := r.Context()
	rec, err := s.deps.Events.Get(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		s.logger.Error("load event for subscription failed", zap.String("event_id", req.EventID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load event")
		return
	}

	id, err := s.deps.IDGen.NewID()
	if err != nil {
		s.logger.Error("generate subscription id failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record subscription")
		return
	}
	sub := event.Subscription{
		ID:        id,
		Email:     req.Email,
		OptIn:     req.OptIn,
		EventID:   rec.ID,
		CreatedAt: s.deps.Clock.Now(),
	}
	if err := s.deps.Subscriptions.CreateSubscription(ctx, sub); err != nil {
		s.logger.Error("create subscription failed", zap.String("event_id", rec.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record subscription")
		return
	}

	if sub.OptIn && s.deps.Publisher != nil && s.cfg.SubscriptionTopic != "" {
		msg := event.ConfirmationRequest{
			SubscriptionID: sub.ID,
			Email:          sub.Email,
			EventID:        rec.ID,
			EventTitle:     rec.Title,
			TicketURL:      rec.TicketURL,
		}
		// The ticket redirect does not depend on the confirmation mail.
		if _, err := s.deps.Publisher.Publish(ctx, s.cfg.SubscriptionTopic, msg); err != nil {
			s.logger.Warn("publish confirmation request failed", zap.String("subscription_id", sub.ID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, subscribeResponse{
		Success:   true,
		Message:   "Subscription successful",
		TicketURL: rec.TicketURL,
	})
}
