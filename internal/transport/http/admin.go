package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/app"
	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/domain"
)

// AdminService is the minimal interface needed by the admin endpoints.
type AdminService interface {
	CreateResource(ctx context.Context, in app.CreateResourceInput) (domain.Resource, error)
	ListResources(ctx context.Context) ([]domain.Resource, error)
	CreateClient(ctx context.Context, in app.CreateClientInput) (domain.Client, error)
	ListClients(ctx context.Context) ([]domain.Client, error)
	ListEvents(ctx context.Context, resourceID string) ([]domain.Event, error)
}

// HandleAdminResources returns an HTTP handler for resource registration and listing.
func HandleAdminResources(svc AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			resources, err := svc.ListResources(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				return
			}
			resp := make([]resourceResponse, 0, len(resources))
			for _, res := range resources {
				resp = append(resp, newResourceResponse(res))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		case http.MethodPost:
			var req createResourceRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			resource, err := svc.CreateResource(r.Context(), app.CreateResourceInput{
				Code:        req.Code,
				Name:        req.Name,
				Description: req.Description,
			})
			if err != nil {
				switch err {
				case domain.ErrCodeRequired:
					writeError(w, http.StatusBadRequest, codeCodeRequired, err.Error())
				case domain.ErrResourceExists:
					writeError(w, http.StatusConflict, codeResourceExists, err.Error())
				default:
					writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				}
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(newResourceResponse(resource))
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleAdminClients returns an HTTP handler for client registration and listing.
func HandleAdminClients(svc AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			clients, err := svc.ListClients(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				return
			}
			resp := make([]clientResponse, 0, len(clients))
			for _, c := range clients {
				resp = append(resp, clientResponse{
					ID:         c.ID,
					ExternalID: c.ExternalID,
					Name:       c.Name,
				})
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		case http.MethodPost:
			var req createClientRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			client, err := svc.CreateClient(r.Context(), app.CreateClientInput{
				ExternalID: req.ExternalID,
				Name:       req.Name,
			})
			if err != nil {
				switch err {
				case domain.ErrExternalIDRequired:
					writeError(w, http.StatusBadRequest, codeExternalIDRequired, err.Error())
				case domain.ErrClientExists:
					writeError(w, http.StatusConflict, codeClientExists, err.Error())
				default:
					writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				}
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(clientResponse{
				ID:         client.ID,
				ExternalID: client.ExternalID,
				Name:       client.Name,
			})
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleAdminEvents returns an HTTP handler for reading the audit log.
func HandleAdminEvents(svc AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		events, err := svc.ListEvents(r.Context(), r.URL.Query().Get("resource_id"))
		if err != nil {
			switch err {
			case domain.ErrInvalidID:
				writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		resp := make([]eventResponse, 0, len(events))
		for _, e := range events {
			resp = append(resp, eventResponse{
				ID:        e.ID,
				RequestID: e.RequestID,
				Type:      string(e.Type),
				ClientTS:  e.ClientTS,
				ServerTS:  e.ServerTS,
				Payload:   e.Payload,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type createResourceRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type resourceResponse struct {
	ID               string    `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	State            string    `json:"state"`
	CurrentRequestID *string   `json:"current_request_id"`
	CreatedAt        time.Time `json:"created_at"`
}

func newResourceResponse(res domain.Resource) resourceResponse {
	return resourceResponse{
		ID:               res.ID,
		Code:             res.Code,
		Name:             res.Name,
		Description:      res.Description,
		State:            string(res.State),
		CurrentRequestID: res.CurrentRequestID,
		CreatedAt:        res.CreatedAt,
	}
}

type createClientRequest struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
}

type clientResponse struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
}

type eventResponse struct {
	ID        int64          `json:"id"`
	RequestID *string        `json:"request_id"`
	Type      string         `json:"type"`
	ClientTS  *int64         `json:"client_ts"`
	ServerTS  time.Time      `json:"server_ts"`
	Payload   map[string]any `json:"payload"`
}
