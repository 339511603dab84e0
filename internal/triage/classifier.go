package triage

import (
	"context"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/acuity/internal/vitals"
)

// Classifier is the capability exposed by an external predictive model:
// classify one named feature vector, may fail. The adapter assumes nothing
// else about the artifact behind it.
type Classifier interface {
	// Predict returns the class label for one feature vector,
	// 0 = Minimal, 1 = Delayed, anything else = Immediate.
	Predict(ctx context.Context, features map[string]float64) (int, error)
}

// Adapter arbitrates between an optional external classifier and the rule
// engine. "No classifier loaded" and "classifier errored" take the same
// path: the rule engine answers. The adapter never returns an error, so the
// service stays available for every well-formed record.
type Adapter struct {
	clf     Classifier
	rules   *RuleEngine
	logger  log.Logger
	metrics *Metrics
}

// NewAdapter creates a classifier adapter. clf may be nil, which puts the
// adapter in permanent rule-based mode.
func NewAdapter(clf Classifier, rules *RuleEngine, logger log.Logger, metrics *Metrics) *Adapter {
	if logger == nil {
		logger = log.Nop()
	}
	return &Adapter{
		clf:     clf,
		rules:   rules,
		logger:  logger,
		metrics: metrics,
	}
}

// ModelLoaded reports whether an external classifier is attached.
func (a *Adapter) ModelLoaded() bool {
	return a.clf != nil
}

// Predict returns the risk tier for a record along with the source that
// produced it. A classifier failure is logged and counted, never surfaced.
func (a *Adapter) Predict(ctx context.Context, rec *vitals.Record) (Risk, Source) {
	if a.clf == nil {
		if a.metrics != nil {
			a.metrics.ClassifierFallbacksTotal.WithLabelValues("no_model").Inc()
		}
		return a.rules.Classify(rec), SourceRules
	}

	class, err := a.clf.Predict(ctx, rec.Features())
	if err != nil {
		a.logger.Error(ctx, err, "classifier prediction failed, using rule engine")
		if a.metrics != nil {
			a.metrics.ClassifierFallbacksTotal.WithLabelValues("error").Inc()
		}
		return a.rules.Classify(rec), SourceRules
	}

	return riskFromClass(class), SourceModel
}

// riskFromClass maps the classifier's three-way categorical output to a
// risk tier. Unknown labels are treated as the most severe tier.
func riskFromClass(class int) Risk {
	switch class {
	case 0:
		return RiskMinimal
	case 1:
		return RiskDelayed
	default:
		return RiskImmediate
	}
}
