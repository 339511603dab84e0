package triage

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/acuity/internal/vitals"
)

// Notifier delivers escalation notifications for high-risk decisions.
type Notifier interface {
	Send(ctx context.Context, d *Decision) error
}

// Identity carries the caller-supplied patient identifiers attached to a
// decision. All fields are optional; the batch runner fills in placeholders,
// the API pathway leaves them blank.
type Identity struct {
	PatientID string
	Name      string
	Location  string
}

// Service is the business boundary for triage operations. It runs the
// decision pipeline (adapter, intervention policy, severity scorer), audits
// every decision through the Store, and escalates Immediate-risk decisions
// to the notifier.
type Service struct {
	store    Store
	adapter  *Adapter
	logger   log.Logger
	metrics  *Metrics
	notifier Notifier
}

// NewService creates a new triage service. metrics and notifier may be nil.
func NewService(store Store, adapter *Adapter, logger log.Logger, metrics *Metrics, notifier Notifier) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:    store,
		adapter:  adapter,
		logger:   logger,
		metrics:  metrics,
		notifier: notifier,
	}
}

// ModelLoaded reports whether the underlying adapter has a classifier.
func (s *Service) ModelLoaded() bool {
	return s.adapter.ModelLoaded()
}

// Decide runs one record through the full pipeline and returns the decision.
// It never fails: the adapter absorbs classifier errors and audit-log
// failures are logged, not propagated, so a well-formed record always gets
// an answer.
func (s *Service) Decide(ctx context.Context, rec *vitals.Record, ident Identity) *Decision {
	start := time.Now()

	risk, source := s.adapter.Predict(ctx, rec)
	intervention := Recommend(rec, risk)

	d := &Decision{
		ID:           ulid.Make().String(),
		PatientID:    ident.PatientID,
		Name:         ident.Name,
		Age:          rec.Age,
		Risk:         risk,
		Intervention: intervention,
		Severity:     Score(risk),
		Source:       source,
		Location:     ident.Location,
		CreatedAt:    time.Now(),
	}

	if s.metrics != nil {
		s.metrics.DecisionsTotal.WithLabelValues(string(risk), string(source)).Inc()
		s.metrics.InterventionsTotal.WithLabelValues(string(intervention)).Inc()
		s.metrics.DecisionDuration.Observe(time.Since(start).Seconds())
	}

	if err := s.store.Put(ctx, d); err != nil {
		s.logger.Error(ctx, err, "failed to audit decision", "decision_id", d.ID)
	}

	if s.notifier != nil && risk == RiskImmediate {
		// Escalation must not block or cancel with the request.
		go s.notify(context.WithoutCancel(ctx), d)
	}

	return d
}

// Get retrieves an audited decision by ID.
func (s *Service) Get(ctx context.Context, id string) (*Decision, bool, error) {
	return s.store.Get(ctx, id)
}

// List returns the most recent audited decisions.
func (s *Service) List(ctx context.Context, limit int) ([]*Decision, error) {
	return s.store.List(ctx, limit)
}

func (s *Service) notify(ctx context.Context, d *Decision) {
	result := "ok"
	if err := s.notifier.Send(ctx, d); err != nil {
		result = "error"
		s.logger.Error(ctx, err, "escalation notification failed", "decision_id", d.ID)
	}
	if s.metrics != nil {
		s.metrics.NotificationsTotal.WithLabelValues(result).Inc()
	}
}
