// Package models defines the core domain entities: accounts, period series,
// variance results, correlation rules and anomalies.
package models

import (
	"errors"
	"fmt"
)

// StatementType identifies which financial statement an account belongs to.
type StatementType string

const (
	BalanceSheet    StatementType = "BS"
	IncomeStatement StatementType = "IS"
)

// Account is an immutable account identity resolved through the catalog.
type Account struct {
	Code          string        `json:"code"`
	Name          string        `json:"name"`
	Category      string        `json:"category"`
	StatementType StatementType `json:"statement_type"`
}

// Validate checks account field constraints.
func (a *Account) Validate() error {
	if a.Code == "" {
		return errors.New("account code must not be empty")
	}
	if a.Category == "" {
		return errors.New("account category must not be empty")
	}
	if a.StatementType != BalanceSheet && a.StatementType != IncomeStatement {
		return fmt.Errorf("unknown statement type: %q", a.StatementType)
	}
	return nil
}

// PeriodValue is one point of an account's series. Missing marks a period
// present in the run but blank for this account, so gaps stay detectable.
type PeriodValue struct {
	Period  string  `json:"period"`
	Value   float64 `json:"value"`
	Missing bool    `json:"missing,omitempty"`
}

// AccountSeries holds one account's values in chronological order,
// oldest first.
type AccountSeries struct {
	Account Account       `json:"account"`
	Values  []PeriodValue `json:"values"`
}

// Periods returns the series' period labels in order.
func (s *AccountSeries) Periods() []string {
	labels := make([]string, len(s.Values))
	for i, v := range s.Values {
		labels[i] = v.Period
	}
	return labels
}

// Snapshot is the fully-parsed statement snapshot the engine consumes.
// Every AccountSeries must carry the identical ordered period set.
type Snapshot struct {
	Periods  []string        `json:"periods"`
	Accounts []AccountSeries `json:"accounts"`
	Source   string          `json:"source,omitempty"`
}

// VarianceResult is the period-over-period delta for one account and one
// adjacent period pair. When PreviousValue is zero the percent change is
// undefined; NewActivity/CeasedActivity flag that case instead of an
// infinite percentage.
type VarianceResult struct {
	AccountCode   string        `json:"account_code"`
	AccountName   string        `json:"account_name"`
	Category      string        `json:"category"`
	StatementType StatementType `json:"statement_type"`

	PeriodFrom string `json:"period_from"`
	PeriodTo   string `json:"period_to"`

	CurrentValue   float64 `json:"current_value"`
	PreviousValue  float64 `json:"previous_value"`
	AbsoluteChange float64 `json:"absolute_change"`
	PercentChange  float64 `json:"percent_change"`

	NewActivity    bool `json:"new_activity,omitempty"`
	CeasedActivity bool `json:"ceased_activity,omitempty"`

	IsSignificant      bool `json:"is_significant"`
	IsCritical         bool `json:"is_critical"`
	SignChanged        bool `json:"sign_changed"`
	RecurringDeviation bool `json:"recurring_deviation,omitempty"`
	QuarterlyDeviation bool `json:"quarterly_deviation,omitempty"`
}

// RelationshipType is the expected relationship a correlation rule declares
// between its two account categories.
type RelationshipType string

const (
	RelationshipPositive        RelationshipType = "positive"
	RelationshipNegative        RelationshipType = "negative"
	RelationshipQuarterlyTiming RelationshipType = "quarterly_timing"
)

// CorrelationRule declares an expected relationship between two account
// categories. Rules are data, not code: extending the catalog is a
// configuration change.
type CorrelationRule struct {
	ID                 int              `json:"id" mapstructure:"id"`
	Name               string           `json:"name" mapstructure:"name"`
	PrimaryCategory    string           `json:"primary_category" mapstructure:"primary_category"`
	CorrelatedCategory string           `json:"correlated_category" mapstructure:"correlated_category"`
	Relationship       RelationshipType `json:"relationship" mapstructure:"relationship"`
	Enabled            bool             `json:"enabled" mapstructure:"enabled"`
}

// Validate checks rule field constraints.
func (r *CorrelationRule) Validate() error {
	if r.ID <= 0 {
		return errors.New("rule id must be positive")
	}
	if r.PrimaryCategory == "" || r.CorrelatedCategory == "" {
		return fmt.Errorf("rule %d: both categories are required", r.ID)
	}
	switch r.Relationship {
	case RelationshipPositive, RelationshipNegative, RelationshipQuarterlyTiming:
		return nil
	default:
		return fmt.Errorf("rule %d: unknown relationship type %q", r.ID, r.Relationship)
	}
}

// CorrelationViolation records one failed relationship check.
type CorrelationViolation struct {
	RuleID   int    `json:"rule_id"`
	RuleName string `json:"rule_name"`

	PrimaryCategory    string   `json:"primary_category"`
	PrimaryAccounts    []string `json:"primary_accounts"`
	CorrelatedCategory string   `json:"correlated_category"`
	CorrelatedAccounts []string `json:"correlated_accounts"`

	PrimaryVariance    float64          `json:"primary_variance"`
	CorrelatedVariance float64          `json:"correlated_variance"`
	Relationship       RelationshipType `json:"relationship"`
	DeviationScore     float64          `json:"deviation_score"`
	Period             string           `json:"period"`
	Description        string           `json:"description"`
}

// AnomalyType classifies what kind of finding produced an anomaly.
type AnomalyType string

const (
	AnomalyVariance         AnomalyType = "variance"
	AnomalyCorrelation      AnomalyType = "correlation"
	AnomalySignChange       AnomalyType = "sign_change"
	AnomalyRecurringSpike   AnomalyType = "recurring_spike"
	AnomalyQuarterlyPattern AnomalyType = "quarterly_pattern"
)

// Severity is the ordinal urgency classification of an anomaly.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns the ordinal weight of a severity, Critical highest.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Anomaly is the unified output entity across all detection paths.
// MetricValue is the percent change or deviation score that drove the
// classification; PriorityScore orders the final list and never filters.
type Anomaly struct {
	Type     AnomalyType `json:"type"`
	Severity Severity    `json:"severity"`

	AccountCode string `json:"account_code"`
	AccountName string `json:"account_name"`
	Category    string `json:"category"`

	Description       string  `json:"description"`
	MetricValue       float64 `json:"metric_value"`
	PriorityScore     float64 `json:"priority_score"`
	Period            string  `json:"period"`
	RuleName          string  `json:"rule_name,omitempty"`
	RecommendedAction string  `json:"recommended_action"`
}

// Warning is a non-fatal condition surfaced alongside a valid summary.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Summary is the engine's complete output: the ranked anomaly list plus
// aggregate counts and any warnings accumulated during the run.
type Summary struct {
	TotalAccounts   int                 `json:"total_accounts"`
	AccountsFlagged int                 `json:"accounts_flagged"`
	BySeverity      map[Severity]int    `json:"by_severity"`
	ByType          map[AnomalyType]int `json:"by_type"`
	Anomalies       []Anomaly           `json:"anomalies"`
	Warnings        []Warning           `json:"warnings,omitempty"`
}
