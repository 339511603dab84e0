package triageapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/acuity/internal/triage"
	"github.com/linnemanlabs/acuity/internal/vitals"
)

// fakeService implements TriageService with canned behavior.
type fakeService struct {
	decisions   map[string]*triage.Decision
	modelLoaded bool
	decided     []*vitals.Record
}

func newFakeService() *fakeService {
	return &fakeService{decisions: make(map[string]*triage.Decision)}
}

func (f *fakeService) Decide(_ context.Context, rec *vitals.Record, ident triage.Identity) *triage.Decision {
	f.decided = append(f.decided, rec)
	risk := triage.RiskMinimal
	if rec.SBP < 90 {
		risk = triage.RiskImmediate
	}
	return &triage.Decision{
		ID:           "d-test",
		Risk:         risk,
		Intervention: triage.Recommend(rec, risk),
		Severity:     triage.Score(risk),
		Source:       triage.SourceRules,
		CreatedAt:    time.Now(),
	}
}

func (f *fakeService) Get(_ context.Context, id string) (*triage.Decision, bool, error) {
	d, ok := f.decisions[id]
	return d, ok, nil
}

func (f *fakeService) List(_ context.Context, limit int) ([]*triage.Decision, error) {
	out := make([]*triage.Decision, 0, len(f.decisions))
	for _, d := range f.decisions {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeService) ModelLoaded() bool { return f.modelLoaded }

func newTestRouter(t *testing.T) (chi.Router, *fakeService) {
	t.Helper()
	svc := newFakeService()
	api := New(log.Nop(), svc)
	r := chi.NewRouter()
	api.RegisterRoutes(r)
	return r, svc
}

//  New / constructor

func TestNew_NilLogger(t *testing.T) {
	t.Parallel()

	api := New(nil, newFakeService())
	if api == nil {
		t.Fatal("New(nil, svc) returned nil API")
	}
	if api.logger == nil {
		t.Fatal("New(nil, svc) left logger nil; expected Nop logger")
	}
}

func TestNew_NilService_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("New(nil, nil) did not panic; expected panic for nil service")
		}
	}()
	New(nil, nil)
}

// Routing

const validPatientJSON = `{
	"age": 60, "sex": 1, "hr": 95, "sbp": 120, "dbp": 80, "rr": 18,
	"spo2": 97, "temp": 37.1, "dyspnea": 0, "chest_pain": 0,
	"confusion": 0, "comorb": 1, "pulse_pressure": 40, "map": 93.3,
	"shock_index": 0.79, "abnormal_count": 1
}`

func TestPredict_Routing(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
	}{
		{"POST valid batch", http.MethodPost, `[` + validPatientJSON + `]`, http.StatusOK},
		{"POST invalid JSON", http.MethodPost, `{bad`, http.StatusBadRequest},
		{"POST empty array", http.MethodPost, `[]`, http.StatusBadRequest},
		{"POST missing fields", http.MethodPost, `[{"age": 60}]`, http.StatusBadRequest},
		{"GET not allowed", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"PUT not allowed", http.MethodPut, "", http.StatusMethodNotAllowed},
		{"DELETE not allowed", http.MethodDelete, "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "/api/v1/predict", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("%s /api/v1/predict = %d, want %d", tt.method, rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestPredict_Results(t *testing.T) {
	t.Parallel()

	r, svc := newTestRouter(t)

	shocked := strings.Replace(validPatientJSON, `"sbp": 120`, `"sbp": 85`, 1)
	body := `[` + validPatientJSON + `,` + shocked + `]`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var results []struct {
		Risk         string `json:"risk"`
		Intervention string `json:"intervention"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Risk != string(triage.RiskMinimal) {
		t.Errorf("results[0].Risk = %q, want %q", results[0].Risk, triage.RiskMinimal)
	}
	if results[1].Risk != string(triage.RiskImmediate) {
		t.Errorf("results[1].Risk = %q, want %q", results[1].Risk, triage.RiskImmediate)
	}
	if len(svc.decided) != 2 {
		t.Errorf("service decided %d records, want 2", len(svc.decided))
	}
}

// A malformed record rejects the whole request before any decision runs.
func TestPredict_ValidationBeforeDecisions(t *testing.T) {
	t.Parallel()

	r, svc := newTestRouter(t)

	body := `[` + validPatientJSON + `,{"age": 60}]`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "patient 1") {
		t.Errorf("error body %q does not identify the bad record", rec.Body.String())
	}
	if len(svc.decided) != 0 {
		t.Errorf("service decided %d records, want 0", len(svc.decided))
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	r, svc := newTestRouter(t)
	svc.modelLoaded = true

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Status      string `json:"status"`
		ModelLoaded bool   `json:"model_loaded"`
		Timestamp   string `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.ModelLoaded {
		t.Error("model_loaded = false, want true")
	}
	if body.Timestamp == "" {
		t.Error("expected non-empty timestamp")
	}
}

func TestGetDecision(t *testing.T) {
	t.Parallel()

	r, svc := newTestRouter(t)
	svc.decisions["d-1"] = &triage.Decision{
		ID:           "d-1",
		Risk:         triage.RiskDelayed,
		Intervention: triage.InterventionNil,
		Severity:     0.6,
	}

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"found", "/api/v1/decisions/d-1", http.StatusOK},
		{"not found", "/api/v1/decisions/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestListDecisions(t *testing.T) {
	t.Parallel()

	r, svc := newTestRouter(t)
	svc.decisions["d-1"] = &triage.Decision{ID: "d-1", Risk: triage.RiskMinimal}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/decisions", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Decisions []json.RawMessage `json:"decisions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Decisions) != 1 {
		t.Errorf("got %d decisions, want 1", len(body.Decisions))
	}
}

func TestListDecisions_InvalidLimit(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	for _, limit := range []string{"0", "-5", "abc", "5000"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/decisions?limit="+limit, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want %d", limit, rec.Code, http.StatusBadRequest)
		}
	}
}
