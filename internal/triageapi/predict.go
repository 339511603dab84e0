package triageapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/linnemanlabs/acuity/internal/triage"
	"github.com/linnemanlabs/acuity/internal/vitals"
)

// predictionResult is the per-patient response item. Risk and intervention
// only; severity and identifiers belong to the batch pathway.
type predictionResult struct {
	Risk         triage.Risk         `json:"risk"`
	Intervention triage.Intervention `json:"intervention"`
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	var payloads []vitals.Payload
	if err := json.NewDecoder(r.Body).Decode(&payloads); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if len(payloads) == 0 {
		http.Error(w, `{"error":"no patient data provided"}`, http.StatusBadRequest)
		return
	}

	// Validate every record up front so a malformed entry rejects the
	// request before any decision is taken.
	records := make([]*vitals.Record, 0, len(payloads))
	for i := range payloads {
		rec, err := payloads[i].Build()
		if err != nil {
			writeValidationError(w, i, err)
			return
		}
		records = append(records, rec)
	}

	results := make([]predictionResult, 0, len(records))
	for _, rec := range records {
		d := a.svc.Decide(r.Context(), rec, triage.Identity{})
		results = append(results, predictionResult{
			Risk:         d.Risk,
			Intervention: d.Intervention,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(results)
}

func writeValidationError(w http.ResponseWriter, index int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": fmt.Sprintf("patient %d: %v", index, err),
	})
}
