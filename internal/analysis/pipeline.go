// Package analysis implements the statement anomaly engine: per-account
// variance analysis, cross-category correlation checks, and unified anomaly
// detection over a parsed statement snapshot.
package analysis

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ledgerlens/ledgerlens/internal/catalog"
	"github.com/ledgerlens/ledgerlens/internal/models"
)

// QuarterlyPattern declares the expected seasonal move for a category.
type QuarterlyPattern struct {
	At               string
	Direction        string
	MinChangePercent float64
}

// CorrelationBands maps correlation deviation scores to severity buckets.
type CorrelationBands struct {
	Critical float64
	High     float64
	Medium   float64
}

type Config struct {
	VarianceThreshold         float64
	CriticalThreshold         float64
	CriticalSeverityThreshold float64
	MinComovementRatio        float64
	RecurringTolerances       map[string]float64
	QuarterlyPatterns         map[string]QuarterlyPattern
	CorrelationBands          CorrelationBands
}

func DefaultConfig() Config {
	return Config{
		VarianceThreshold:         5.0,
		CriticalThreshold:         10.0,
		CriticalSeverityThreshold: 20.0,
		MinComovementRatio:        0.3,
		RecurringTolerances: map[string]float64{
			catalog.CategoryDepreciation:    5.0,
			catalog.CategoryRevenue:         5.0,
			catalog.CategoryOpex:            5.0,
			catalog.CategoryInterestExpense: 5.0,
			catalog.CategoryInterestIncome:  5.0,
		},
		CorrelationBands: CorrelationBands{Critical: 15.0, High: 8.0, Medium: 3.0},
	}
}

// Engine runs the full pipeline: alignment check, variance analysis,
// correlation checks, anomaly detection, summary assembly.
type Engine struct {
	config      Config
	catalog     *catalog.Catalog
	variance    *VarianceAnalyzer
	correlation *CorrelationEngine
	detector    *AnomalyDetector
}

// NewEngine validates the configuration and rule set against the catalog
// before anything runs. A rule naming a category outside the catalog's
// closed set is a configuration error, not a runtime warning.
func NewEngine(config Config, cat *catalog.Catalog, rules []models.CorrelationRule) (*Engine, error) {
	if config.VarianceThreshold <= 0 {
		return nil, &ConfigurationError{Reason: "variance threshold must be positive"}
	}
	if config.CriticalThreshold < config.VarianceThreshold {
		return nil, &ConfigurationError{Reason: fmt.Sprintf(
			"critical threshold %.1f below variance threshold %.1f", config.CriticalThreshold, config.VarianceThreshold)}
	}
	if config.CriticalSeverityThreshold <= 0 {
		return nil, &ConfigurationError{Reason: "critical severity threshold must be positive"}
	}
	if config.MinComovementRatio <= 0 || config.MinComovementRatio > 1 {
		return nil, &ConfigurationError{Reason: "min comovement ratio must be in (0, 1]"}
	}
	b := config.CorrelationBands
	if !(b.Critical > b.High && b.High > b.Medium && b.Medium > 0) {
		return nil, &ConfigurationError{Reason: "correlation bands must satisfy critical > high > medium > 0"}
	}
	for _, p := range config.QuarterlyPatterns {
		if p.At != "quarter_start" && p.At != "quarter_end" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown quarterly pattern anchor %q", p.At)}
		}
		if p.Direction != "increase" && p.Direction != "decrease" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown quarterly pattern direction %q", p.Direction)}
		}
	}
	for i := range rules {
		r := &rules[i]
		if err := r.Validate(); err != nil {
			return nil, &ConfigurationError{Reason: err.Error()}
		}
		if !cat.HasCategory(r.PrimaryCategory) {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("rule %d references unknown category %q", r.ID, r.PrimaryCategory)}
		}
		if !cat.HasCategory(r.CorrelatedCategory) {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("rule %d references unknown category %q", r.ID, r.CorrelatedCategory)}
		}
	}

	return &Engine{
		config:      config,
		catalog:     cat,
		variance:    NewVarianceAnalyzer(config, cat),
		correlation: NewCorrelationEngine(config, rules),
		detector:    NewAnomalyDetector(config, cat),
	}, nil
}

// Run executes the pipeline over one snapshot. Misaligned input fails
// before any analysis; non-fatal conditions accumulate as warnings on the
// summary instead.
func (e *Engine) Run(snap *models.Snapshot) (*models.Summary, error) {
	summary, _, err := e.RunDetailed(snap)
	return summary, err
}

// RunDetailed is Run plus the raw variance results, for callers that
// render them alongside the summary.
func (e *Engine) RunDetailed(snap *models.Snapshot) (*models.Summary, []models.VarianceResult, error) {
	if err := checkAlignment(snap); err != nil {
		return nil, nil, err
	}

	variances, varWarnings := e.variance.Analyze(snap)
	violations, corrWarnings := e.correlation.Evaluate(snap)
	anomalies := e.detector.Detect(variances, violations)

	warnings := append(varWarnings, corrWarnings...)
	summary := BuildSummary(len(snap.Accounts), anomalies, warnings)

	log.Debug().
		Int("accounts", len(snap.Accounts)).
		Int("periods", len(snap.Periods)).
		Int("variances", len(variances)).
		Int("violations", len(violations)).
		Int("anomalies", len(anomalies)).
		Msg("analysis run complete")

	return summary, variances, nil
}

// checkAlignment verifies every account series carries exactly the
// snapshot's ordered period set.
func checkAlignment(snap *models.Snapshot) error {
	var misaligned []string
	for i := range snap.Accounts {
		series := &snap.Accounts[i]
		if len(series.Values) != len(snap.Periods) {
			misaligned = append(misaligned, series.Account.Code)
			continue
		}
		for j, v := range series.Values {
			if v.Period != snap.Periods[j] {
				misaligned = append(misaligned, series.Account.Code)
				break
			}
		}
	}
	if len(misaligned) > 0 {
		return &DataAlignmentError{
			AccountCodes: misaligned,
			Reason:       "account periods do not match the snapshot period set",
		}
	}
	return nil
}
