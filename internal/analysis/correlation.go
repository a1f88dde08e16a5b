package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/ledgerlens/ledgerlens/internal/models"
)

// CorrelationEngine checks declared cross-category relationships against
// the newest adjacent period pair of a snapshot. Categories are compared on
// their aggregate value, so one account moving against its peers does not
// trip a rule the category as a whole still satisfies.
type CorrelationEngine struct {
	config Config
	rules  []models.CorrelationRule
}

func NewCorrelationEngine(config Config, rules []models.CorrelationRule) *CorrelationEngine {
	sorted := make([]models.CorrelationRule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &CorrelationEngine{config: config, rules: sorted}
}

// categoryMove is the aggregate movement of one category over the pair.
type categoryMove struct {
	accounts []string
	prevSum  float64
	curSum   float64
	pct      float64
}

// Evaluate runs every enabled rule against the snapshot's newest period
// pair and returns the violations in rule-ID order.
func (e *CorrelationEngine) Evaluate(snap *models.Snapshot) ([]models.CorrelationViolation, []models.Warning) {
	var warnings []models.Warning

	if len(snap.Periods) < 2 {
		return nil, nil
	}
	prevIdx, curIdx := len(snap.Periods)-2, len(snap.Periods)-1
	period := snap.Periods[curIdx]

	moves := e.aggregateByCategory(snap, prevIdx, curIdx)

	var violations []models.CorrelationViolation
	for _, rule := range e.rules {
		if !rule.Enabled {
			continue
		}

		primary, ok := moves[rule.PrimaryCategory]
		if !ok {
			warnings = append(warnings, warnf(WarnEmptyCategory,
				"rule %d (%s): no accounts in category %q, rule skipped", rule.ID, rule.Name, rule.PrimaryCategory))
			continue
		}

		if rule.Relationship == models.RelationshipQuarterlyTiming {
			if v, ok := e.checkQuarterlyTiming(rule, primary, period); ok {
				violations = append(violations, v)
			}
			continue
		}

		correlated, ok := moves[rule.CorrelatedCategory]
		if !ok {
			warnings = append(warnings, warnf(WarnEmptyCategory,
				"rule %d (%s): no accounts in category %q, rule skipped", rule.ID, rule.Name, rule.CorrelatedCategory))
			continue
		}

		if v, ok := e.checkComovement(rule, primary, correlated, period); ok {
			violations = append(violations, v)
		}
	}

	return violations, warnings
}

// aggregateByCategory sums category members over the pair. Missing values
// count as zero; a category with no snapshot accounts is absent from the
// map so rules over it can be skipped with a warning.
func (e *CorrelationEngine) aggregateByCategory(snap *models.Snapshot, prevIdx, curIdx int) map[string]*categoryMove {
	moves := make(map[string]*categoryMove)
	for _, series := range snap.Accounts {
		if len(series.Values) <= curIdx {
			continue
		}
		m, ok := moves[series.Account.Category]
		if !ok {
			m = &categoryMove{}
			moves[series.Account.Category] = m
		}
		m.accounts = append(m.accounts, series.Account.Code)
		if !series.Values[prevIdx].Missing {
			m.prevSum += series.Values[prevIdx].Value
		}
		if !series.Values[curIdx].Missing {
			m.curSum += series.Values[curIdx].Value
		}
	}
	for _, m := range moves {
		sort.Strings(m.accounts)
		m.pct = aggregatePercentChange(m.prevSum, m.curSum)
	}
	return moves
}

// aggregatePercentChange mirrors ComputeVariance but collapses the
// zero-baseline cases into a signed 100 so rule arithmetic stays finite.
func aggregatePercentChange(prevSum, curSum float64) float64 {
	if prevSum == 0 {
		if curSum == 0 {
			return 0
		}
		return 100 * sign(curSum)
	}
	return (curSum - prevSum) / math.Abs(prevSum) * 100
}

// checkComovement enforces positive and negative relationships. The
// correlated category is expected to move at least MinComovementRatio of
// the primary's magnitude, in the matching direction. Primary moves below
// the variance threshold are noise and never trip a rule.
func (e *CorrelationEngine) checkComovement(rule models.CorrelationRule, primary, correlated *categoryMove, period string) (models.CorrelationViolation, bool) {
	if math.Abs(primary.pct) < e.config.VarianceThreshold {
		return models.CorrelationViolation{}, false
	}

	expected := primary.pct * e.config.MinComovementRatio
	if rule.Relationship == models.RelationshipNegative {
		expected = -expected
	}

	var violated bool
	if expected >= 0 {
		violated = correlated.pct < expected
	} else {
		violated = correlated.pct > expected
	}
	if !violated {
		return models.CorrelationViolation{}, false
	}

	deviation := math.Abs(expected - correlated.pct)
	return models.CorrelationViolation{
		RuleID:             rule.ID,
		RuleName:           rule.Name,
		PrimaryCategory:    rule.PrimaryCategory,
		PrimaryAccounts:    primary.accounts,
		CorrelatedCategory: rule.CorrelatedCategory,
		CorrelatedAccounts: correlated.accounts,
		PrimaryVariance:    primary.pct,
		CorrelatedVariance: correlated.pct,
		Relationship:       rule.Relationship,
		DeviationScore:     deviation,
		Period:             period,
		Description: fmt.Sprintf("%s moved %+.1f%% but %s moved %+.1f%% (expected %s %+.1f%%)",
			rule.PrimaryCategory, primary.pct, rule.CorrelatedCategory, correlated.pct,
			comparisonWord(expected), expected),
	}, true
}

func comparisonWord(expected float64) string {
	if expected >= 0 {
		return "at least"
	}
	return "at most"
}

// checkQuarterlyTiming enforces a seasonal expectation on the cyclical
// (primary) side of a timing rule. The rule is a no-op unless a pattern is
// configured for the primary category and the newest period lands on the
// pattern's anchor months.
func (e *CorrelationEngine) checkQuarterlyTiming(rule models.CorrelationRule, primary *categoryMove, period string) (models.CorrelationViolation, bool) {
	pattern, ok := e.config.QuarterlyPatterns[rule.PrimaryCategory]
	if !ok {
		return models.CorrelationViolation{}, false
	}
	if !violatesQuarterlyPattern(pattern, period, primary.pct) {
		return models.CorrelationViolation{}, false
	}

	expected := pattern.MinChangePercent
	if pattern.Direction == "decrease" {
		expected = -expected
	}
	deviation := math.Abs(expected - primary.pct)
	return models.CorrelationViolation{
		RuleID:          rule.ID,
		RuleName:        rule.Name,
		PrimaryCategory: rule.PrimaryCategory,
		PrimaryAccounts: primary.accounts,

		CorrelatedCategory: rule.CorrelatedCategory,
		PrimaryVariance:    primary.pct,
		Relationship:       rule.Relationship,
		DeviationScore:     deviation,
		Period:             period,
		Description: fmt.Sprintf("%s moved %+.1f%% in %s, expected %s of at least %.1f%% at %s",
			rule.PrimaryCategory, primary.pct, period, pattern.Direction, pattern.MinChangePercent, pattern.At),
	}, true
}
