// Package vitals defines the patient vital-sign record consumed by the
// triage pipeline, along with its construction and validation rules.
package vitals

import (
	"errors"
	"fmt"
	"strconv"
)

// Sex is the categorical sex code used at model training time.
type Sex int

const (
	SexFemale Sex = 0
	SexMale   Sex = 1
)

// Record is one patient's measured and derived vitals for a single triage
// decision. Records are read-only once built: construct via Payload.Build or
// FromRow, both of which require every field to be present. The derived
// vitals (PulsePressure, MAP, ShockIndex) are caller-supplied and are never
// recomputed here.
type Record struct {
	Age  int     `json:"age"`
	Sex  Sex     `json:"sex"`
	HR   float64 `json:"hr"`
	SBP  float64 `json:"sbp"`
	DBP  float64 `json:"dbp"`
	RR   float64 `json:"rr"`
	SpO2 float64 `json:"spo2"`
	Temp float64 `json:"temp"`

	// Symptom and history flags, 0/1 encoded.
	Dyspnea   int `json:"dyspnea"`
	ChestPain int `json:"chest_pain"`
	Confusion int `json:"confusion"`
	Comorb    int `json:"comorb"`

	PulsePressure float64 `json:"pulse_pressure"`
	MAP           float64 `json:"map"`
	ShockIndex    float64 `json:"shock_index"`
	AbnormalCount int     `json:"abnormal_count"`
}

// Payload is the wire form of a Record. Pointer fields distinguish absent
// from zero so missing fields fail validation instead of defaulting.
type Payload struct {
	Age           *int     `json:"age"`
	Sex           *int     `json:"sex"`
	HR            *float64 `json:"hr"`
	SBP           *float64 `json:"sbp"`
	DBP           *float64 `json:"dbp"`
	RR            *float64 `json:"rr"`
	SpO2          *float64 `json:"spo2"`
	Temp          *float64 `json:"temp"`
	Dyspnea       *int     `json:"dyspnea"`
	ChestPain     *int     `json:"chest_pain"`
	Confusion     *int     `json:"confusion"`
	Comorb        *int     `json:"comorb"`
	PulsePressure *float64 `json:"pulse_pressure"`
	MAP           *float64 `json:"map"`
	ShockIndex    *float64 `json:"shock_index"`
	AbnormalCount *int     `json:"abnormal_count"`
}

// Build validates the payload and returns an immutable Record.
// Every field is required; all problems are reported at once.
func (p *Payload) Build() (*Record, error) {
	var errs []error

	req := func(name string, ok bool) {
		if !ok {
			errs = append(errs, fmt.Errorf("missing field %q", name))
		}
	}
	req("age", p.Age != nil)
	req("sex", p.Sex != nil)
	req("hr", p.HR != nil)
	req("sbp", p.SBP != nil)
	req("dbp", p.DBP != nil)
	req("rr", p.RR != nil)
	req("spo2", p.SpO2 != nil)
	req("temp", p.Temp != nil)
	req("dyspnea", p.Dyspnea != nil)
	req("chest_pain", p.ChestPain != nil)
	req("confusion", p.Confusion != nil)
	req("comorb", p.Comorb != nil)
	req("pulse_pressure", p.PulsePressure != nil)
	req("map", p.MAP != nil)
	req("shock_index", p.ShockIndex != nil)
	req("abnormal_count", p.AbnormalCount != nil)

	if p.Age != nil && *p.Age < 0 {
		errs = append(errs, fmt.Errorf("age %d must be non-negative", *p.Age))
	}
	if p.Sex != nil && *p.Sex != int(SexFemale) && *p.Sex != int(SexMale) {
		errs = append(errs, fmt.Errorf("sex %d must be 0 or 1", *p.Sex))
	}
	if p.AbnormalCount != nil && *p.AbnormalCount < 0 {
		errs = append(errs, fmt.Errorf("abnormal_count %d must be non-negative", *p.AbnormalCount))
	}
	flag := func(name string, v *int) {
		if v != nil && *v != 0 && *v != 1 {
			errs = append(errs, fmt.Errorf("%s %d must be 0 or 1", name, *v))
		}
	}
	flag("dyspnea", p.Dyspnea)
	flag("chest_pain", p.ChestPain)
	flag("confusion", p.Confusion)
	flag("comorb", p.Comorb)

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid vital record: %w", errors.Join(errs...))
	}

	return &Record{
		Age:           *p.Age,
		Sex:           Sex(*p.Sex),
		HR:            *p.HR,
		SBP:           *p.SBP,
		DBP:           *p.DBP,
		RR:            *p.RR,
		SpO2:          *p.SpO2,
		Temp:          *p.Temp,
		Dyspnea:       *p.Dyspnea,
		ChestPain:     *p.ChestPain,
		Confusion:     *p.Confusion,
		Comorb:        *p.Comorb,
		PulsePressure: *p.PulsePressure,
		MAP:           *p.MAP,
		ShockIndex:    *p.ShockIndex,
		AbnormalCount: *p.AbnormalCount,
	}, nil
}

// FieldNames lists the feature names in the order used by Features.
// These are the column names the classifier was trained against.
var FieldNames = []string{
	"age", "sex", "hr", "sbp", "dbp", "rr", "spo2", "temp",
	"dyspnea", "chest_pain", "confusion", "comorb",
	"pulse_pressure", "map", "shock_index", "abnormal_count",
}

// Features returns the record as a named feature map for the classifier.
func (r *Record) Features() map[string]float64 {
	return map[string]float64{
		"age":            float64(r.Age),
		"sex":            float64(r.Sex),
		"hr":             r.HR,
		"sbp":            r.SBP,
		"dbp":            r.DBP,
		"rr":             r.RR,
		"spo2":           r.SpO2,
		"temp":           r.Temp,
		"dyspnea":        float64(r.Dyspnea),
		"chest_pain":     float64(r.ChestPain),
		"confusion":      float64(r.Confusion),
		"comorb":         float64(r.Comorb),
		"pulse_pressure": r.PulsePressure,
		"map":            r.MAP,
		"shock_index":    r.ShockIndex,
		"abnormal_count": float64(r.AbnormalCount),
	}
}

// FromRow builds a Record from a tabular row keyed by field name, as read
// from a batch CSV. Missing keys and unparsable values are validation errors
// surfaced to the caller; nothing is defaulted.
func FromRow(row map[string]string) (*Record, error) {
	var errs []error

	intField := func(name string) *int {
		raw, ok := row[name]
		if !ok || raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			// Tolerate "1.0"-style integers that pandas writes.
			f, ferr := strconv.ParseFloat(raw, 64)
			if ferr != nil || f != float64(int(f)) {
				errs = append(errs, fmt.Errorf("field %q: %q is not an integer", name, raw))
				return nil
			}
			v = int(f)
		}
		return &v
	}
	floatField := func(name string) *float64 {
		raw, ok := row[name]
		if !ok || raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %q: %q is not a number", name, raw))
			return nil
		}
		return &v
	}

	p := Payload{
		Age:           intField("age"),
		Sex:           intField("sex"),
		HR:            floatField("hr"),
		SBP:           floatField("sbp"),
		DBP:           floatField("dbp"),
		RR:            floatField("rr"),
		SpO2:          floatField("spo2"),
		Temp:          floatField("temp"),
		Dyspnea:       intField("dyspnea"),
		ChestPain:     intField("chest_pain"),
		Confusion:     intField("confusion"),
		Comorb:        intField("comorb"),
		PulsePressure: floatField("pulse_pressure"),
		MAP:           floatField("map"),
		ShockIndex:    floatField("shock_index"),
		AbnormalCount: intField("abnormal_count"),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid vital record: %w", errors.Join(errs...))
	}
	return p.Build()
}
