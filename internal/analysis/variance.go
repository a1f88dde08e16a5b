package analysis

import (
	"math"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/catalog"
	"github.com/ledgerlens/ledgerlens/internal/models"
)

// VarianceAnalyzer computes period-over-period deltas for every account in
// a snapshot and flags the ones worth a closer look.
type VarianceAnalyzer struct {
	config  Config
	catalog *catalog.Catalog
}

func NewVarianceAnalyzer(config Config, cat *catalog.Catalog) *VarianceAnalyzer {
	return &VarianceAnalyzer{config: config, catalog: cat}
}

// ComputeVariance returns the percent change from prev to cur plus the
// activity flags for the zero-baseline cases. The percentage is relative to
// the magnitude of prev, so a swing from -100 to -150 is +50% in magnitude
// terms, reported as -50 to keep the direction of the raw change.
func ComputeVariance(prev, cur float64) (pct float64, newActivity, ceasedActivity bool) {
	switch {
	case prev == 0 && cur == 0:
		return 0, false, false
	case prev == 0:
		return 0, true, false
	case cur == 0:
		return -100 * sign(prev), false, true
	}
	return (cur - prev) / math.Abs(prev) * 100, false, false
}

// DetectSignChange reports whether prev and cur carry strictly opposite
// non-zero signs. Zero on either side is an activity flip, not a sign
// change.
func DetectSignChange(prev, cur float64) bool {
	return (prev > 0 && cur < 0) || (prev < 0 && cur > 0)
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// quarterAnchorMonths maps a pattern anchor to the months it covers.
var quarterAnchorMonths = map[string]map[time.Month]bool{
	"quarter_start": {time.January: true, time.April: true, time.July: true, time.October: true},
	"quarter_end":   {time.March: true, time.June: true, time.September: true, time.December: true},
}

var periodLayouts = []string{"2006-01", "Jan-06", "2006-01-02"}

// ParsePeriod parses a period label. Labels are expected as "2006-01";
// "Jan-06" and full dates are tolerated for spreadsheets exported with
// display formatting applied.
func ParsePeriod(label string) (time.Time, bool) {
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, label); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Analyze walks every adjacent period pair of every account series and
// returns one VarianceResult per computable pair, oldest pair first within
// each account. Fewer than two periods yields no results and a warning.
func (a *VarianceAnalyzer) Analyze(snap *models.Snapshot) ([]models.VarianceResult, []models.Warning) {
	var warnings []models.Warning

	if len(snap.Periods) < 2 {
		warnings = append(warnings, warnf(WarnInsufficientPeriods,
			"need at least 2 periods for variance analysis, got %d", len(snap.Periods)))
		return nil, warnings
	}

	quarterlyEnabled := len(a.config.QuarterlyPatterns) > 0
	if quarterlyEnabled {
		for _, label := range snap.Periods {
			if _, ok := ParsePeriod(label); !ok {
				warnings = append(warnings, warnf(WarnUnparsablePeriod,
					"period label %q is not parsable; quarterly pattern checks disabled", label))
				quarterlyEnabled = false
				break
			}
		}
	}

	var results []models.VarianceResult
	for _, series := range snap.Accounts {
		for i := 1; i < len(series.Values); i++ {
			prev, cur := series.Values[i-1], series.Values[i]
			if prev.Missing || cur.Missing {
				warnings = append(warnings, warnf(WarnMissingValue,
					"account %s has no value for pair %s -> %s, pair skipped",
					series.Account.Code, prev.Period, cur.Period))
				continue
			}
			results = append(results, a.analyzePair(series.Account, prev, cur, quarterlyEnabled))
		}
	}

	return results, warnings
}

func (a *VarianceAnalyzer) analyzePair(acct models.Account, prev, cur models.PeriodValue, quarterlyEnabled bool) models.VarianceResult {
	pct, newActivity, ceased := ComputeVariance(prev.Value, cur.Value)
	signChanged := DetectSignChange(prev.Value, cur.Value)

	r := models.VarianceResult{
		AccountCode:    acct.Code,
		AccountName:    acct.Name,
		Category:       acct.Category,
		StatementType:  acct.StatementType,
		PeriodFrom:     prev.Period,
		PeriodTo:       cur.Period,
		CurrentValue:   cur.Value,
		PreviousValue:  prev.Value,
		AbsoluteChange: cur.Value - prev.Value,
		PercentChange:  pct,
		NewActivity:    newActivity,
		CeasedActivity: ceased,
		SignChanged:    signChanged,
	}

	absPct := math.Abs(pct)
	r.IsSignificant = absPct >= a.config.VarianceThreshold || signChanged || newActivity || ceased
	r.IsCritical = absPct >= a.config.CriticalThreshold || newActivity || ceased

	if tolerance, ok := a.config.RecurringTolerances[acct.Category]; ok && a.catalog.IsRecurring(acct.Code) {
		r.RecurringDeviation = absPct > tolerance || newActivity || ceased
	}

	if quarterlyEnabled {
		if pattern, ok := a.config.QuarterlyPatterns[acct.Category]; ok {
			r.QuarterlyDeviation = violatesQuarterlyPattern(pattern, cur.Period, pct)
		}
	}

	return r
}

// violatesQuarterlyPattern checks an observed move against a declared
// seasonal expectation. Only periods falling on the pattern's anchor months
// are checked; off-anchor periods never violate.
func violatesQuarterlyPattern(pattern QuarterlyPattern, period string, pct float64) bool {
	t, ok := ParsePeriod(period)
	if !ok {
		return false
	}
	anchors, ok := quarterAnchorMonths[pattern.At]
	if !ok || !anchors[t.Month()] {
		return false
	}
	switch pattern.Direction {
	case "increase":
		return pct < pattern.MinChangePercent
	case "decrease":
		return pct > -pattern.MinChangePercent
	}
	return false
}
