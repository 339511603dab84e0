// Package triage provides the business boundary for acuity's vital-sign
// triage system. It defines the RuleEngine (deterministic risk
// classification), the intervention policy, the severity scorer, the Adapter
// (model/rule arbitration with fallback), the Service (decision lifecycle,
// audit, notification), the Store interface (persistence), and the domain
// models.
package triage
