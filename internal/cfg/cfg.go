// Package cfg holds acuity's application-level configuration, following the
// shared RegisterFlags/Validate pattern from go-core.
package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
)

// Config adds app-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	ModelEndpoint         string
	DatabaseURL           string
	SlackWebhookURL       string
	APIToken              string
	RuleSeed              int64
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.ModelEndpoint, "model-endpoint", "", "model server base URL (empty = rule-based triage only)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for Immediate-risk escalations")
	fs.StringVar(&c.APIToken, "api-token", "", "API token required on /api/v1 (empty = no auth)")
	fs.Int64Var(&c.RuleSeed, "rule-seed", 0, "seed for the rule engine's randomized branch (0 = time-seeded)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Model endpoint is optional, but must parse when set
	if c.ModelEndpoint != "" {
		if u, err := url.Parse(c.ModelEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid MODEL_ENDPOINT %q (must be an absolute URL)", c.ModelEndpoint))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
