package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/app"
	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/domain"
)

func TestHandleResources_Request(t *testing.T) {
	t.Parallel()

	granted := domain.Request{ID: "req-1", Status: domain.RequestActive, LogicalTS: 1}

	tests := []struct {
		name           string
		body           string
		serviceReq     domain.Request
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "granted",
			body:           `{"client_id":"cli-a","client_ts":0}`,
			serviceReq:     granted,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"status":"ACTIVE"`,
		},
		{
			name:           "queued",
			body:           `{"client_id":"cli-b","client_ts":3}`,
			serviceReq:     domain.Request{ID: "req-2", Status: domain.RequestQueued, LogicalTS: 4},
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"status":"QUEUED"`,
		},
		{
			name:           "invalid json",
			body:           `{"client_id":`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeInvalidRequestBody,
		},
		{
			name:           "missing client id",
			body:           `{"client_ts":1}`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeClientIDRequired,
		},
		{
			name:           "non-numeric client ts",
			body:           `{"client_id":"cli-a","client_ts":"soon"}`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeInvalidRequestBody,
		},
		{
			name:           "unknown resource",
			body:           `{"client_id":"cli-a"}`,
			serviceErr:     domain.ErrResourceNotFound,
			expectedStatus: http.StatusNotFound,
			expectedSubstr: codeResourceNotFound,
		},
		{
			name:           "unknown client",
			body:           `{"client_id":"ghost"}`,
			serviceErr:     domain.ErrClientNotFound,
			expectedStatus: http.StatusNotFound,
			expectedSubstr: codeClientNotFound,
		},
		{
			name:           "internal error",
			body:           `{"client_id":"cli-a"}`,
			serviceErr:     errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedSubstr: codeInternalError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubReservationService{requestResult: tc.serviceReq, err: tc.serviceErr}
			handler := HandleResources(svc, nil)

			req := httptest.NewRequest(http.MethodPost, "/resources/res-1/request", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d (body %s)", tc.expectedStatus, rec.Code, rec.Body.String())
			}
			if tc.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tc.expectedSubstr) {
				t.Fatalf("expected body to contain %q, got %s", tc.expectedSubstr, rec.Body.String())
			}
		})
	}
}

func TestHandleResources_Release(t *testing.T) {
	t.Parallel()

	t.Run("released true when a request was finished", func(t *testing.T) {
		finished := domain.Request{ID: "req-1", Status: domain.RequestFinished}
		svc := &stubReservationService{releaseResult: &finished}

		req := httptest.NewRequest(http.MethodPost, "/resources/res-1/release", bytes.NewBufferString(`{"client_id":"cli-a"}`))
		rec := httptest.NewRecorder()
		HandleResources(svc, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var resp releaseReservationResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !resp.OK || !resp.Released {
			t.Fatalf("expected ok+released, got %+v", resp)
		}
	})

	t.Run("released false when nothing was held", func(t *testing.T) {
		svc := &stubReservationService{}

		req := httptest.NewRequest(http.MethodPost, "/resources/res-1/release", bytes.NewBufferString(`{"client_id":"cli-a"}`))
		rec := httptest.NewRecorder()
		HandleResources(svc, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var resp releaseReservationResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !resp.OK || resp.Released {
			t.Fatalf("expected ok with released=false, got %+v", resp)
		}
	})

	t.Run("missing client id", func(t *testing.T) {
		svc := &stubReservationService{}

		req := httptest.NewRequest(http.MethodPost, "/resources/res-1/release", bytes.NewBufferString(`{}`))
		rec := httptest.NewRecorder()
		HandleResources(svc, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("get not allowed", func(t *testing.T) {
		svc := &stubReservationService{}

		req := httptest.NewRequest(http.MethodGet, "/resources/res-1/release", nil)
		rec := httptest.NewRecorder()
		HandleResources(svc, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", rec.Code)
		}
	})
}

func TestHandleResources_Queue(t *testing.T) {
	t.Parallel()

	t.Run("returns ordered entries", func(t *testing.T) {
		svc := &stubReservationService{
			queueResult: []app.QueueEntry{
				{RequestID: "req-1", ClientDisplay: "Node A", Status: domain.RequestActive, LogicalTS: 1, TieBreakKey: "node-a"},
				{RequestID: "req-2", ClientDisplay: "Node B", Status: domain.RequestQueued, LogicalTS: 2, TieBreakKey: "node-b"},
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/resources/res-1/queue", nil)
		rec := httptest.NewRecorder()
		HandleResources(svc, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var resp []queueEntryResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(resp))
		}
		if resp[0].ID != "req-1" || resp[0].Status != "ACTIVE" || resp[0].ClientDisplay != "Node A" {
			t.Fatalf("unexpected first entry %+v", resp[0])
		}
		if svc.lastQueueID != "res-1" {
			t.Fatalf("expected queue lookup for res-1, got %s", svc.lastQueueID)
		}
	})

	t.Run("empty queue is an empty array", func(t *testing.T) {
		svc := &stubReservationService{queueResult: []app.QueueEntry{}}

		req := httptest.NewRequest(http.MethodGet, "/resources/res-1/queue", nil)
		rec := httptest.NewRecorder()
		HandleResources(svc, nil).ServeHTTP(rec, req)

		if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
			t.Fatalf("expected empty JSON array, got %s", body)
		}
	})

	t.Run("post not allowed", func(t *testing.T) {
		svc := &stubReservationService{}

		req := httptest.NewRequest(http.MethodPost, "/resources/res-1/queue", nil)
		rec := httptest.NewRecorder()
		HandleResources(svc, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", rec.Code)
		}
	})
}

func TestHandleResources_UnknownPath(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/resources/res-1", "/resources/res-1/queue/extra", "/resources//queue", "/other/res-1/queue"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		HandleResources(&stubReservationService{}, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("path %s: expected status 404, got %d", path, rec.Code)
		}
	}
}

type stubReservationService struct {
	requestResult domain.Request
	releaseResult *domain.Request
	queueResult   []app.QueueEntry
	err           error
	lastQueueID   string
}

func (s *stubReservationService) Request(_ context.Context, _ app.RequestInput) (domain.Request, error) {
	if s.err != nil {
		return domain.Request{}, s.err
	}
	return s.requestResult, nil
}

func (s *stubReservationService) Release(_ context.Context, _ app.ReleaseInput) (*domain.Request, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.releaseResult, nil
}

func (s *stubReservationService) Queue(_ context.Context, resourceID string) ([]app.QueueEntry, error) {
	s.lastQueueID = resourceID
	if s.err != nil {
		return nil, s.err
	}
	return s.queueResult, nil
}
