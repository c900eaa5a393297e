package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/app"
	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/clock"
	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/domain"
	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/notify"
	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/storage/postgres"
	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/testutil"
)

func TestReservationFlow_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	resourceID := testutil.InsertResource(t, ctx, pool, "PRINTER1", domain.ResourceAvailable)
	clientA := testutil.InsertClient(t, ctx, pool, "node-a", "Node A")
	clientB := testutil.InsertClient(t, ctx, pool, "node-b", "Node B")

	hub := notify.NewHub(nil)
	repo := postgres.NewReservationRepository(pool)
	clk := clock.NewStepping(time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC), time.Second)
	svc := app.NewReservationService(repo, clk, hub, nil)
	handler := HandleResources(svc, nil)

	updates, cancelSub := hub.Subscribe(resourceID)
	defer cancelSub()

	post := func(action, body string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/resources/"+resourceID+"/"+action, bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	// Client A requests an available resource and is granted immediately.
	rec := post("request", `{"client_id":"`+clientA+`","client_ts":0}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("request A: expected 201, got %d (body %s)", rec.Code, rec.Body.String())
	}
	var reqA requestReservationResponse
	if err := json.NewDecoder(rec.Body).Decode(&reqA); err != nil {
		t.Fatalf("decode request A: %v", err)
	}
	if reqA.Status != string(domain.RequestActive) {
		t.Fatalf("expected A ACTIVE, got %s", reqA.Status)
	}

	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatalf("expected a queue hint after request A")
	}

	// Client B queues behind A.
	rec = post("request", `{"client_id":"`+clientB+`","client_ts":0}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("request B: expected 201, got %d", rec.Code)
	}
	var reqB requestReservationResponse
	if err := json.NewDecoder(rec.Body).Decode(&reqB); err != nil {
		t.Fatalf("decode request B: %v", err)
	}
	if reqB.Status != string(domain.RequestQueued) {
		t.Fatalf("expected B QUEUED, got %s", reqB.Status)
	}

	// Queue lists A then B in admission order.
	getQueue := func() []queueEntryResponse {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/resources/"+resourceID+"/queue", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("queue: expected 200, got %d", rec.Code)
		}
		var entries []queueEntryResponse
		if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
			t.Fatalf("decode queue: %v", err)
		}
		return entries
	}

	entries := getQueue()
	if len(entries) != 2 {
		t.Fatalf("expected 2 queue entries, got %d", len(entries))
	}
	if entries[0].ID != reqA.RequestID || entries[0].Status != "ACTIVE" || entries[0].LogicalTS != 1 {
		t.Fatalf("unexpected head of queue %+v", entries[0])
	}
	if entries[1].ID != reqB.RequestID || entries[1].Status != "QUEUED" || entries[1].LogicalTS != 2 {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
	if entries[0].ClientDisplay != "Node A" {
		t.Fatalf("expected display name, got %q", entries[0].ClientDisplay)
	}

	// A releases; B must be promoted.
	rec = post("release", `{"client_id":"`+clientA+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("release A: expected 200, got %d", rec.Code)
	}
	var rel releaseReservationResponse
	if err := json.NewDecoder(rec.Body).Decode(&rel); err != nil {
		t.Fatalf("decode release: %v", err)
	}
	if !rel.OK || !rel.Released {
		t.Fatalf("expected released=true, got %+v", rel)
	}

	entries = getQueue()
	if len(entries) != 1 {
		t.Fatalf("expected 1 queue entry after release, got %d", len(entries))
	}
	if entries[0].ID != reqB.RequestID || entries[0].Status != "ACTIVE" {
		t.Fatalf("expected B promoted, got %+v", entries[0])
	}

	var state string
	var current *string
	if err := pool.QueryRow(ctx, `SELECT state, current_request_id FROM resources WHERE id = $1`, resourceID).Scan(&state, &current); err != nil {
		t.Fatalf("query resource: %v", err)
	}
	if state != string(domain.ResourceBusy) || current == nil || *current != reqB.RequestID {
		t.Fatalf("expected resource BUSY held by B, got %s %v", state, current)
	}

	// Releasing again for A is a no-op.
	rec = post("release", `{"client_id":"`+clientA+`"}`)
	if err := json.NewDecoder(rec.Body).Decode(&rel); err != nil {
		t.Fatalf("decode second release: %v", err)
	}
	if !rel.OK || rel.Released {
		t.Fatalf("expected released=false on no-op, got %+v", rel)
	}

	// Audit trail: REQUESTED x2, RELEASED, GRANTED.
	var events int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&events); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 4 {
		t.Fatalf("expected 4 audit events, got %d", events)
	}
}
