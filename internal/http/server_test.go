package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"forecast/internal/core"
	"forecast/internal/projection"
	"forecast/internal/scenarios"
	"forecast/internal/scenarios/memory"
	"forecast/internal/services"
)

func checkingScenario(id int, start, end string) core.Scenario {
	return core.Scenario{
		ID:       id,
		Name:     "checking",
		Accounts: []core.Account{{ID: 1, Name: "Checking", StartingBalance: 500}},
		Transactions: []core.Transaction{{
			ID:                1,
			PrimaryAccountID:  1,
			TransactionTypeID: core.MoneyOut,
			Amount:            50,
			Status:            core.StatusPlanned,
			Recurrence: &core.Recurrence{
				RecurrenceType: core.RecurrenceMonthlyByDay,
				StartDate:      start,
				DayOfMonth:     1,
			},
		}},
		Projection: &core.Projection{Config: core.ProjectionConfig{
			StartDate:    start,
			EndDate:      end,
			PeriodTypeID: int(projection.PeriodMonthly),
		}},
	}
}

func newTestServer(t *testing.T, opts Options) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New(
		checkingScenario(1, "2026-01-01", "2026-03-31"),
		checkingScenario(2, "", ""),
	)
	if opts.Lister == nil {
		opts.Lister = store
	}
	srv := NewServer(":0", services.NewProjectionService(store, store, nil, nil), opts)
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv, store
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s missing X-Request-ID", path)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s missing security headers", path)
		}
	}

	notReady, _ := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("db down") }})
	if rr := do(t, notReady, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz status=%d, want 503", rr.Code)
	}
}

func TestGenerateProjections(t *testing.T) {
	srv, store := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/scenarios/1/projections", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	var got projectionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ScenarioID != 1 || len(got.Rows) != 3 {
		t.Fatalf("response = scenario %d with %d rows, want scenario 1 with 3 rows", got.ScenarioID, len(got.Rows))
	}
	if got.Rows[2].Balance != 350 {
		t.Errorf("final balance = %v, want 350", got.Rows[2].Balance)
	}

	if _, err := store.GetProjectionBundle(context.Background(), 1); err != nil {
		t.Errorf("bundle should be stored: %v", err)
	}
}

func TestGenerateProjectionsOptions(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	tests := []struct {
		name     string
		target   string
		body     string
		wantCode int
		wantRows int
	}{
		{name: "json body override", target: "/scenarios/1/projections", body: `{"periodicity":"quarterly"}`, wantCode: http.StatusCreated, wantRows: 1},
		{name: "query override", target: "/scenarios/1/projections?endDate=2026-01-31", wantCode: http.StatusCreated, wantRows: 1},
		{name: "dates supplied for dateless scenario", target: "/scenarios/2/projections", body: `{"startDate":"2026-01-01","endDate":"2026-02-28"}`, wantCode: http.StatusCreated, wantRows: 2},
		{name: "unknown field", target: "/scenarios/1/projections", body: `{"colour":"red"}`, wantCode: http.StatusBadRequest},
		{name: "malformed json", target: "/scenarios/1/projections", body: `{`, wantCode: http.StatusBadRequest},
		{name: "unknown periodicity", target: "/scenarios/1/projections", body: `{"periodicity":"fortnightly"}`, wantCode: http.StatusBadRequest},
		{name: "bad date", target: "/scenarios/1/projections", body: `{"startDate":"2026-02-30"}`, wantCode: http.StatusBadRequest},
		{name: "bad period type", target: "/scenarios/1/projections?periodTypeId=abc", wantCode: http.StatusBadRequest},
		{name: "unknown source", target: "/scenarios/1/projections", body: `{"source":"ledger"}`, wantCode: http.StatusBadRequest},
		{name: "bad id", target: "/scenarios/zero/projections", wantCode: http.StatusBadRequest},
		{name: "negative id", target: "/scenarios/-4/projections", wantCode: http.StatusBadRequest},
		{name: "unknown scenario", target: "/scenarios/99/projections", wantCode: http.StatusNotFound},
		{name: "missing dates", target: "/scenarios/2/projections", wantCode: http.StatusUnprocessableEntity},
		{name: "inverted window", target: "/scenarios/1/projections", body: `{"endDate":"2025-12-01"}`, wantCode: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, tt.target, tt.body)
			if rr.Code != tt.wantCode {
				t.Fatalf("status=%d, want %d, body=%s", rr.Code, tt.wantCode, rr.Body.String())
			}
			if tt.wantCode != http.StatusCreated {
				var body ErrorBody
				if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Error == "" {
					t.Errorf("error body = %s", rr.Body.String())
				}
				if body.RequestID == "" {
					t.Error("error body should carry the request ID")
				}
				return
			}
			var got projectionResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got.Rows) != tt.wantRows {
				t.Errorf("got %d rows, want %d", len(got.Rows), tt.wantRows)
			}
		})
	}
}

func TestGetAndClearProjections(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/scenarios/1/projections", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get before generate status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"rows":[]`) {
		t.Errorf("never-projected scenario should return empty rows: %s", rr.Body.String())
	}

	do(t, srv, http.MethodPost, "/scenarios/1/projections", "")
	var got projectionResponse
	rr = do(t, srv, http.MethodGet, "/scenarios/1/projections", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Rows) != 3 || got.GeneratedAt == nil {
		t.Errorf("stored bundle has %d rows, generatedAt %v", len(got.Rows), got.GeneratedAt)
	}

	if rr := do(t, srv, http.MethodDelete, "/scenarios/1/projections", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/scenarios/1/projections", "")
	if !strings.Contains(rr.Body.String(), `"generatedAt":null`) {
		t.Errorf("cleared bundle should have no generation time: %s", rr.Body.String())
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if rr := do(t, srv, method, "/scenarios/99/projections", ""); rr.Code != http.StatusNotFound {
			t.Errorf("%s unknown scenario status=%d, want 404", method, rr.Code)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	if rr := do(t, srv, http.MethodPut, "/scenarios/1/projections", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT status=%d, want 405", rr.Code)
	}
}

func TestListScenarios(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/scenarios", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var got scenarioListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Scenarios) != 2 || got.Scenarios[0].ID != 1 {
		t.Errorf("scenarios = %+v", got.Scenarios)
	}
}

type failingLister struct{}

func (failingLister) ListScenarios(context.Context) ([]scenarios.Summary, error) {
	return nil, errors.New("disk on fire")
}

func TestListScenariosFailure(t *testing.T) {
	srv, _ := newTestServer(t, Options{Lister: failingLister{}})
	rr := do(t, srv, http.MethodGet, "/scenarios", "")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status=%d, want 500", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "disk on fire") {
		t.Error("internal errors must not leak to clients")
	}
}

func TestGenerateRateLimited(t *testing.T) {
	srv, _ := newTestServer(t, Options{RequestsPerMinute: 2})

	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodPost, "/scenarios/1/projections", ""); rr.Code != http.StatusCreated {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, "/scenarios/1/projections", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	// Reads are not limited
	if rr := do(t, srv, http.MethodGet, "/scenarios/1/projections", ""); rr.Code != http.StatusOK {
		t.Errorf("GET status=%d, want 200", rr.Code)
	}
}

func TestShutdownTwice(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	ctx := context.Background()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}
