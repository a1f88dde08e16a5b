package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/ledgerlens/ledgerlens/internal/catalog"
	"github.com/ledgerlens/ledgerlens/internal/models"
)

// AnomalyDetector turns variance results and correlation violations into
// the unified, ranked anomaly list.
type AnomalyDetector struct {
	config  Config
	catalog *catalog.Catalog
}

func NewAnomalyDetector(config Config, cat *catalog.Catalog) *AnomalyDetector {
	return &AnomalyDetector{config: config, catalog: cat}
}

// activityFlipMetric stands in for the undefined percent change of a
// zero-baseline flip when ranking and classifying.
const activityFlipMetric = 100.0

// Detect classifies every finding, scores it, and returns the list sorted
// by priority. The ordering is fully deterministic: ties break on severity,
// then account code, then type.
func (d *AnomalyDetector) Detect(variances []models.VarianceResult, violations []models.CorrelationViolation) []models.Anomaly {
	var anomalies []models.Anomaly

	for _, v := range variances {
		anomalies = append(anomalies, d.fromVariance(v)...)
	}
	for _, cv := range violations {
		anomalies = append(anomalies, d.fromViolation(cv))
	}

	for i := range anomalies {
		anomalies[i].PriorityScore = d.priority(anomalies[i])
	}

	sort.Slice(anomalies, func(i, j int) bool {
		a, b := anomalies[i], anomalies[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.AccountCode != b.AccountCode {
			return a.AccountCode < b.AccountCode
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Period < b.Period
	})

	return anomalies
}

// fromVariance maps one variance result onto its anomalies. Each check is
// independent: a single movement can surface as a variance anomaly plus a
// sign_change, recurring_spike or quarterly_pattern entry. Overlaps are
// never collapsed; dropping one of the findings would hide information.
func (d *AnomalyDetector) fromVariance(v models.VarianceResult) []models.Anomaly {
	base := models.Anomaly{
		AccountCode: v.AccountCode,
		AccountName: v.AccountName,
		Category:    v.Category,
		Period:      v.PeriodTo,
	}

	// Activity flips have no meaningful percentage; rank them by the
	// stand-in metric instead.
	metric := v.PercentChange
	if v.NewActivity {
		metric = activityFlipMetric
	}

	var out []models.Anomaly

	if v.IsSignificant {
		a := base
		a.Type = models.AnomalyVariance
		a.Severity = d.severityForPercent(metric)
		a.MetricValue = metric
		if v.NewActivity || v.CeasedActivity {
			a.Description = fmt.Sprintf("%s (%s) changed %.2f to %.2f between %s and %s",
				v.AccountName, v.AccountCode, v.PreviousValue, v.CurrentValue, v.PeriodFrom, v.PeriodTo)
		} else {
			a.Description = fmt.Sprintf("%s (%s) changed %+.1f%% (%.2f to %.2f) between %s and %s",
				v.AccountName, v.AccountCode, v.PercentChange, v.PreviousValue, v.CurrentValue, v.PeriodFrom, v.PeriodTo)
		}
		a.RecommendedAction = "Review the underlying transactions for the period"
		out = append(out, a)
	}

	switch {
	case v.NewActivity:
		a := base
		a.Type = models.AnomalySignChange
		a.Severity = models.SeverityCritical
		a.MetricValue = activityFlipMetric
		a.Description = fmt.Sprintf("%s (%s) reported activity of %.2f after a zero balance in %s",
			v.AccountName, v.AccountCode, v.CurrentValue, v.PeriodFrom)
		a.RecommendedAction = "Confirm the new balance is a genuine first posting and not a misclassified entry"
		out = append(out, a)

	case v.CeasedActivity:
		a := base
		a.Type = models.AnomalySignChange
		a.Severity = models.SeverityCritical
		a.MetricValue = activityFlipMetric
		a.Description = fmt.Sprintf("%s (%s) dropped to zero from %.2f in %s",
			v.AccountName, v.AccountCode, v.PreviousValue, v.PeriodFrom)
		a.RecommendedAction = "Verify the account was intentionally closed out or reclassified"
		out = append(out, a)

	case v.SignChanged:
		a := base
		a.Type = models.AnomalySignChange
		// A balance flipping sign is structurally suspect regardless of the
		// raw percentage. Floor at High; the band lifts it to Critical on a
		// large enough swing.
		sev := d.severityForPercent(v.PercentChange)
		if sev.Rank() < models.SeverityHigh.Rank() {
			sev = models.SeverityHigh
		}
		a.Severity = sev
		a.MetricValue = v.PercentChange
		a.Description = fmt.Sprintf("%s (%s) flipped sign from %.2f to %.2f between %s and %s",
			v.AccountName, v.AccountCode, v.PreviousValue, v.CurrentValue, v.PeriodFrom, v.PeriodTo)
		a.RecommendedAction = "Check for posting errors or contra entries behind the sign flip"
		out = append(out, a)
	}

	if v.RecurringDeviation {
		a := base
		a.Type = models.AnomalyRecurringSpike
		if math.Abs(metric) >= d.config.CriticalThreshold {
			a.Severity = models.SeverityHigh
		} else {
			a.Severity = models.SeverityMedium
		}
		a.MetricValue = metric
		a.Description = fmt.Sprintf("Recurring account %s (%s) moved %+.1f%%, outside its expected stable band",
			v.AccountName, v.AccountCode, v.PercentChange)
		a.RecommendedAction = "Recurring items should be stable; trace the drivers of the movement"
		out = append(out, a)
	}

	if v.QuarterlyDeviation {
		a := base
		a.Type = models.AnomalyQuarterlyPattern
		a.Severity = models.SeverityMedium
		a.MetricValue = metric
		a.Description = fmt.Sprintf("%s (%s) moved %+.1f%% in %s, against its expected quarterly pattern",
			v.AccountName, v.AccountCode, v.PercentChange, v.PeriodTo)
		a.RecommendedAction = "Compare against the same quarter in prior years before escalating"
		out = append(out, a)
	}

	return out
}

// fromViolation attributes a correlation finding to the first correlated
// account so the report points at the side that failed to move. Timing
// rules have no correlated side and attribute to the cyclical account.
func (d *AnomalyDetector) fromViolation(cv models.CorrelationViolation) models.Anomaly {
	code := ""
	if len(cv.CorrelatedAccounts) > 0 {
		code = cv.CorrelatedAccounts[0]
	} else if len(cv.PrimaryAccounts) > 0 {
		code = cv.PrimaryAccounts[0]
	}
	entry := d.catalog.Lookup(code)

	return models.Anomaly{
		Type:              models.AnomalyCorrelation,
		Severity:          d.severityForDeviation(cv.DeviationScore),
		AccountCode:       code,
		AccountName:       entry.Name,
		Category:          entry.Category,
		Description:       cv.Description,
		MetricValue:       cv.DeviationScore,
		Period:            cv.Period,
		RuleName:          cv.RuleName,
		RecommendedAction: "Reconcile the two categories; related balances should move together",
	}
}

// severityForPercent classifies a percent change into a severity band.
func (d *AnomalyDetector) severityForPercent(pct float64) models.Severity {
	abs := math.Abs(pct)
	switch {
	case abs > d.config.CriticalSeverityThreshold:
		return models.SeverityCritical
	case abs >= d.config.CriticalThreshold:
		return models.SeverityHigh
	case abs >= d.config.VarianceThreshold:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// severityForDeviation classifies a correlation deviation score using the
// dedicated correlation bands.
func (d *AnomalyDetector) severityForDeviation(score float64) models.Severity {
	b := d.config.CorrelationBands
	switch {
	case score > b.Critical:
		return models.SeverityCritical
	case score >= b.High:
		return models.SeverityHigh
	case score >= b.Medium:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// priority combines the severity weight with how far the metric overshoots
// the critical band. The magnitude term saturates at 1 so severity always
// dominates the ordering.
func (d *AnomalyDetector) priority(a models.Anomaly) float64 {
	magnitude := math.Abs(a.MetricValue) / d.config.CriticalSeverityThreshold
	if magnitude > 1 {
		magnitude = 1
	}
	return float64(a.Severity.Rank()) * magnitude
}

// BuildSummary assembles the aggregate view over a detected anomaly list.
func BuildSummary(totalAccounts int, anomalies []models.Anomaly, warnings []models.Warning) *models.Summary {
	s := &models.Summary{
		TotalAccounts: totalAccounts,
		BySeverity:    make(map[models.Severity]int),
		ByType:        make(map[models.AnomalyType]int),
		Anomalies:     anomalies,
		Warnings:      warnings,
	}
	flagged := make(map[string]bool)
	for _, a := range anomalies {
		s.BySeverity[a.Severity]++
		s.ByType[a.Type]++
		if a.AccountCode != "" {
			flagged[a.AccountCode] = true
		}
	}
	s.AccountsFlagged = len(flagged)
	return s
}
