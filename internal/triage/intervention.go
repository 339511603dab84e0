package triage

import "github.com/linnemanlabs/acuity/internal/vitals"

// Recommend maps a record and its risk tier to a recommended intervention.
// Pure function; first matching rule wins. Hypoxia overrides everything,
// including an Immediate risk tier.
func Recommend(rec *vitals.Record, risk Risk) Intervention {
	switch {
	case rec.SpO2 < 88:
		return InterventionOxygen
	case risk == RiskImmediate:
		return InterventionICU
	case rec.HR > 130 || rec.SBP < 80 || rec.ShockIndex > 1.2:
		return InterventionVentilator
	default:
		return InterventionNil
	}
}
