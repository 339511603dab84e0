package triage

import "time"

// Risk is the discrete triage tier for one patient, ordered
// Immediate > Delayed > Minimal. The tier is a label, never compared
// numerically; Score maps it to a number when one is needed.
type Risk string

const (
	RiskImmediate Risk = "Immediate (RED)"
	RiskDelayed   Risk = "Delayed (YELLOW)"
	RiskMinimal   Risk = "Minimal (GREEN)"
)

// Intervention is the recommended clinical action for one patient.
type Intervention string

const (
	InterventionOxygen     Intervention = "Oxygen"
	InterventionICU        Intervention = "ICU"
	InterventionVentilator Intervention = "Ventilator"
	InterventionNil        Intervention = "Nil"
)

// Source records which classifier produced a risk tier.
type Source string

const (
	// SourceModel means the external classifier's prediction was used.
	SourceModel Source = "model"

	// SourceRules means the deterministic rule engine decided, either
	// because no model is loaded or because the model call failed.
	SourceRules Source = "rules"
)

// Decision is the audited outcome of one triage pass.
type Decision struct {
	ID           string       `json:"id"`
	PatientID    string       `json:"patient_id,omitempty"`
	Name         string       `json:"name,omitempty"`
	Age          int          `json:"age"`
	Risk         Risk         `json:"risk"`
	Intervention Intervention `json:"intervention"`
	Severity     float64      `json:"severity_score"`
	Source       Source       `json:"source"`
	Location     string       `json:"location,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
