package triage

import (
	"math/rand"
	"sync"
	"time"

	"github.com/linnemanlabs/acuity/internal/vitals"
)

// RuleEngine classifies a vital record into a risk tier using fixed clinical
// heuristics. It is the system's last line of defense: it never fails and
// every input resolves to one of the three tiers. One branch is genuinely
// randomized, so the random source is injected for reproducible tests.
//
// Comparison behavior for non-finite inputs: Go float comparisons involving
// NaN are always false, so a NaN vital fails every threshold and such
// records fall through to the randomized branch.
type RuleEngine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRuleEngine creates a rule engine drawing from rng. A nil rng gets a
// time-seeded source. The engine is safe for concurrent use.
func NewRuleEngine(rng *rand.Rand) *RuleEngine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RuleEngine{rng: rng}
}

// Classify returns the risk tier for a record. Rules are evaluated in order
// and the first match wins; the order matters because several conditions can
// hold at once.
func (e *RuleEngine) Classify(rec *vitals.Record) Risk {
	switch {
	case rec.ShockIndex > 0.9 || rec.SBP < 90:
		return RiskImmediate
	case rec.AbnormalCount >= 3 || rec.Confusion == 1 || rec.ChestPain == 1:
		return RiskDelayed
	case rec.HR < 100 && rec.SBP > 100 && rec.SpO2 > 95:
		return RiskMinimal
	default:
		// None of the sharper heuristics apply. The tie is broken by a
		// uniform coin flip to match the trained decision distribution.
		if e.coin() {
			return RiskDelayed
		}
		return RiskMinimal
	}
}

func (e *RuleEngine) coin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(2) == 0
}
