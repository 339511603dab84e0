package triage

// Severity buckets. The score is a coarse proxy for the risk tier used for
// sorting and display, not a probability.
const (
	severityImmediate = 0.9
	severityDelayed   = 0.6
	severityMinimal   = 0.2
)

// Score maps a risk tier to its severity score in [0,1]. Total and
// deterministic: an unrecognized tier takes the Minimal bucket.
func Score(risk Risk) float64 {
	switch risk {
	case RiskImmediate:
		return severityImmediate
	case RiskDelayed:
		return severityDelayed
	case RiskMinimal:
		return severityMinimal
	default:
		return severityMinimal
	}
}
