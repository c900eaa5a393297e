package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/app"
	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/domain"
)

// ReservationService is the minimal interface the resource endpoints need.
type ReservationService interface {
	Request(ctx context.Context, in app.RequestInput) (domain.Request, error)
	Release(ctx context.Context, in app.ReleaseInput) (*domain.Request, error)
	Queue(ctx context.Context, resourceID string) ([]app.QueueEntry, error)
}

// HandleResources dispatches /resources/{id}/{action} to the reservation
// endpoints: queue (GET), request (POST), release (POST) and events (GET,
// SSE stream).
func HandleResources(svc ReservationService, stream http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resourceID, action, ok := parseResourcePath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch action {
		case "queue":
			handleQueue(svc, resourceID, w, r)
		case "request":
			handleRequest(svc, resourceID, w, r)
		case "release":
			handleRelease(svc, resourceID, w, r)
		case "events":
			if stream == nil {
				writeError(w, http.StatusNotFound, codeNotFound, "not found")
				return
			}
			stream.ServeHTTP(w, r)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func handleQueue(svc ReservationService, resourceID string, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}

	entries, err := svc.Queue(r.Context(), resourceID)
	if err != nil {
		switch err {
		case domain.ErrInvalidID:
			writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		}
		return
	}

	resp := make([]queueEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, queueEntryResponse{
			ID:            e.RequestID,
			ClientDisplay: e.ClientDisplay,
			Status:        string(e.Status),
			LogicalTS:     e.LogicalTS,
			TieBreakKey:   e.TieBreakKey,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func handleRequest(svc ReservationService, resourceID string, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}

	var req requestReservationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if req.ClientID == "" {
		writeError(w, http.StatusBadRequest, codeClientIDRequired, domain.ErrClientIDRequired.Error())
		return
	}

	reservation, err := svc.Request(r.Context(), app.RequestInput{
		ResourceID: resourceID,
		ClientID:   req.ClientID,
		ClientTS:   req.ClientTS,
	})
	if err != nil {
		writeReservationError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(requestReservationResponse{
		RequestID: reservation.ID,
		Status:    string(reservation.Status),
	})
}

func handleRelease(svc ReservationService, resourceID string, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}

	var req releaseReservationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if req.ClientID == "" {
		writeError(w, http.StatusBadRequest, codeClientIDRequired, domain.ErrClientIDRequired.Error())
		return
	}

	released, err := svc.Release(r.Context(), app.ReleaseInput{
		ResourceID: resourceID,
		ClientID:   req.ClientID,
	})
	if err != nil {
		writeReservationError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(releaseReservationResponse{
		OK:       true,
		Released: released != nil,
	})
}

func writeReservationError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrClientIDRequired:
		writeError(w, http.StatusBadRequest, codeClientIDRequired, err.Error())
	case domain.ErrInvalidID:
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case domain.ErrResourceNotFound:
		writeError(w, http.StatusNotFound, codeResourceNotFound, err.Error())
	case domain.ErrClientNotFound:
		writeError(w, http.StatusNotFound, codeClientNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseResourcePath(path string) (resourceID, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", "", false
	}
	if parts[0] != "resources" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

type requestReservationRequest struct {
	ClientID string `json:"client_id"`
	ClientTS int64  `json:"client_ts"`
}

type requestReservationResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

type releaseReservationRequest struct {
	ClientID string `json:"client_id"`
}

type releaseReservationResponse struct {
	OK       bool `json:"ok"`
	Released bool `json:"released"`
}

type queueEntryResponse struct {
	ID            string `json:"id"`
	ClientDisplay string `json:"client_display"`
	Status        string `json:"status"`
	LogicalTS     int64  `json:"logical_ts"`
	TieBreakKey   string `json:"tie_break_key"`
}
